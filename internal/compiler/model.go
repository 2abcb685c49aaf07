package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/ir"
	"github.com/roach88/pyken/internal/source"
)

// Output is what a function becomes in the generated module.
type Output int

const (
	OutputValidator Output = iota
	OutputHelper
	OutputTest
)

// Classification is the result of kind determination for one function.
type Classification struct {
	Output Output
	Kind   ir.ValidatorKind // validators only
	Via    string           // what decided it, for debug logs
}

// Classify determines what a function becomes. First match wins:
//  1. a decorator marker (@spend, @validator.spend, @validator("spend"), @helper)
//  2. the method name inside a validator class
//  3. a top-level parameterless function named test_*
//  4. the fallback handler
func Classify(fn *source.FunctionMetadata) Classification {
	for _, d := range fn.Decorators {
		if d.Name == "helper" || d.Name == "validator.helper" {
			return Classification{Output: OutputHelper, Via: "@" + d.Name}
		}
		if k, ok := markerKind(d); ok {
			return Classification{Output: OutputValidator, Kind: k, Via: "@" + d.Name}
		}
	}
	if fn.Owner != "" {
		if k, ok := ir.ParseValidatorKind(fn.Name); ok {
			return Classification{Output: OutputValidator, Kind: k, Via: "method " + fn.Owner + "." + fn.Name}
		}
	}
	if fn.Owner == "" && strings.HasPrefix(fn.Name, "test_") && len(fn.Params) == 0 {
		return Classification{Output: OutputTest, Via: "test name"}
	}
	return Classification{Output: OutputValidator, Kind: ir.KindFallback, Via: "default"}
}

func markerKind(d source.Decorator) (ir.ValidatorKind, bool) {
	switch {
	case d.Name == "validator" && len(d.Args) == 1:
		return ir.ParseValidatorKind(d.Args[0])
	case strings.HasPrefix(d.Name, "validator."):
		return ir.ParseValidatorKind(strings.TrimPrefix(d.Name, "validator."))
	case !strings.Contains(d.Name, "."):
		return ir.ParseValidatorKind(d.Name)
	}
	return 0, false
}

// roleNames are parameter names, leading underscores stripped, that
// identify a role.
var roleNames = map[string]ir.Role{
	"datum":          ir.RoleDatum,
	"dat":            ir.RoleDatum,
	"redeemer":       ir.RoleRedeemer,
	"rdmr":           ir.RoleRedeemer,
	"ctx":            ir.RoleContext,
	"context":        ir.RoleContext,
	"script_context": ir.RoleContext,
	"tx":             ir.RoleContext,
	"transaction":    ir.RoleContext,
}

// roleDefaults are the types of unannotated validator parameters.
var roleDefaults = map[ir.Role]ir.TypeRef{
	ir.RoleDatum:    ir.OptionOf(ir.DataType),
	ir.RoleRedeemer: ir.DataType,
	ir.RoleContext:  imported(modScriptContext, "ScriptContext"),
}

// nameRole returns the role a parameter name identifies.
func nameRole(name string) (ir.Role, bool) {
	r, ok := roleNames[strings.ToLower(strings.TrimLeft(name, "_"))]
	return r, ok
}

// typeRole returns the role a parameter's annotation or mapped type
// identifies.
func typeRole(annotation source.Expr, mapped ir.TypeRef) (ir.Role, bool) {
	if annotation != nil {
		spelled := source.DottedName(annotation)
		spelled = spelled[strings.LastIndex(spelled, ".")+1:]
		switch spelled {
		case "Datum":
			return ir.RoleDatum, true
		case "Redeemer":
			return ir.RoleRedeemer, true
		}
	}
	switch mapped.Name {
	case "ScriptContext", "Transaction":
		return ir.RoleContext, true
	}
	return 0, false
}

func rolesText(roles []ir.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// validatorParams checks a handler's parameters against the arity table
// for kind and maps their types. It returns false when the signature is
// rejected; the ArityMismatch diagnostic is already recorded.
func (t *translator) validatorParams(fn *source.FunctionMetadata, kind ir.ValidatorKind) ([]ir.Param, bool) {
	roles := kind.Roles()
	if len(fn.Params) != len(roles) {
		t.report(diag.KindArityMismatch, fn.Pos,
			"%s handler takes %d %s (%s), got %d",
			kind, len(roles), plural(len(roles), "parameter"), rolesText(roles), len(fn.Params))
		return nil, false
	}

	params := make([]ir.Param, len(fn.Params))
	ok := true
	for i, p := range fn.Params {
		slot := roles[i]
		typ := roleDefaults[slot]
		if p.Annotation != nil {
			typ = t.resolveType(p.Annotation, p.Pos, p.Name)
		}
		if r, found := nameRole(p.Name); found && r != slot {
			t.report(diag.KindArityMismatch, p.Pos,
				"parameter %s names the %s but is in the %s position of a %s handler", p.Name, r, slot, kind)
			ok = false
		} else if r, found := typeRole(p.Annotation, typ); found && r != slot {
			t.report(diag.KindArityMismatch, p.Pos,
				"parameter %s has a %s type but is in the %s position of a %s handler", p.Name, r, slot, kind)
			ok = false
		}
		params[i] = ir.Param{Name: p.Name, Type: typ, Pos: p.Pos}
	}
	return params, ok
}

// helperParams maps a helper's parameters. Unannotated parameters take the
// type of a literal default, else Data.
func (t *translator) helperParams(fn *source.FunctionMetadata) []ir.Param {
	params := make([]ir.Param, len(fn.Params))
	for i, p := range fn.Params {
		typ := ir.DataType
		switch {
		case p.Annotation != nil:
			typ = t.resolveType(p.Annotation, p.Pos, p.Name)
		case p.Default != nil:
			if lit := literalType(p.Default); !lit.IsZero() {
				typ = lit
			}
		}
		if p.Default != nil {
			t.u.log.Debug("parameter default dropped", "function", t.fn, "param", p.Name)
		}
		params[i] = ir.Param{Name: p.Name, Type: typ, Pos: p.Pos}
	}
	return params
}

// resolveType maps an annotation and reports an unmapped type.
func (t *translator) resolveType(annotation source.Expr, pos diag.Pos, what string) ir.TypeRef {
	typ, unknown := t.u.types.Resolve(annotation)
	if unknown != "" {
		t.report(diag.KindUnknownType, pos, "unknown type %s for %s, using Data", unknown, what)
	}
	return typ
}

// literalType is the type of a literal expression, zero otherwise.
func literalType(e source.Expr) ir.TypeRef {
	switch v := e.(type) {
	case *source.IntLit:
		return ir.IntType
	case *source.StrLit:
		if v.Bytes {
			return ir.ByteArrayType
		}
		return ir.StringType
	case *source.BoolLit:
		return ir.BoolType
	case *source.UnaryOp:
		if _, ok := v.Operand.(*source.IntLit); ok && v.Op == "-" {
			return ir.IntType
		}
	}
	return ir.TypeRef{}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return fmt.Sprintf("%ss", word)
}
