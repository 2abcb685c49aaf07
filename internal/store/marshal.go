package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/pyken/internal/ir"
)

// marshalOptions converts run options to canonical JSON TEXT for storage,
// so identical settings store identical bytes.
func marshalOptions(o RunOptions) (string, error) {
	exclude := make(ir.Array, len(o.Exclude))
	for i, p := range o.Exclude {
		exclude[i] = ir.Str(p)
	}
	data, err := ir.MarshalCanonical(ir.Object{
		"exclude": exclude,
		"jobs":    ir.Int(o.Jobs),
		"out":     ir.Str(o.Out),
		"strict":  ir.Bool(o.Strict),
	})
	if err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}
	return string(data), nil
}

// unmarshalOptions parses options JSON TEXT.
func unmarshalOptions(data string) (RunOptions, error) {
	var o RunOptions
	if data == "" || data == "{}" {
		return o, nil
	}
	if err := json.Unmarshal([]byte(data), &o); err != nil {
		return RunOptions{}, fmt.Errorf("unmarshal options: %w", err)
	}
	if len(o.Exclude) == 0 {
		o.Exclude = nil
	}
	return o, nil
}
