package harness

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as one text block: each written artifact under
// a "=== <path>" header in source order, then the diagnostics. Artifacts
// are byte-exact, so the snapshot doubles as an emitter regression check.
func Snapshot(result *Result) []byte {
	var b strings.Builder
	for _, f := range result.Files {
		text, ok := result.Artifacts[f.Artifact]
		if !f.Written || !ok {
			continue
		}
		b.WriteString("=== " + f.Artifact + "\n")
		b.WriteString(text)
	}
	if len(result.Diagnostics) > 0 {
		b.WriteString("=== diagnostics\n")
		for _, d := range result.Diagnostics {
			b.WriteString(d.Error() + "\n")
		}
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}
