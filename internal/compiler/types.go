package compiler

import (
	"strings"

	"github.com/roach88/pyken/internal/ir"
	"github.com/roach88/pyken/internal/source"
)

// Rule says how a source type becomes a target type.
type Rule int

const (
	// RuleDirect renders the target type as is.
	RuleDirect Rule = iota
	// RuleOption wraps the target in Option (Datum, Optional[T]).
	RuleOption
	// RuleOpaque stands for a type with no mapping; Data is substituted.
	RuleOpaque
)

func (r Rule) String() string {
	switch r {
	case RuleDirect:
		return "direct"
	case RuleOption:
		return "option"
	default:
		return "opaque"
	}
}

// TypeMapping maps one source type name to a target type.
type TypeMapping struct {
	Source string
	Target ir.TypeRef
	Rule   Rule
}

// TypeTable is an append-only lookup from source type names to mappings.
// Extend returns a child layer; entries are never replaced, so a table can
// be shared read-only between workers.
type TypeTable struct {
	parent  *TypeTable
	entries map[string]TypeMapping
}

const (
	modTransaction   = "cardano/transaction"
	modScriptContext = "cardano/script_context"
	modAssets        = "cardano/assets"
	modAddress       = "cardano/address"
	modCrypto        = "aiken/crypto"
)

func direct(source string, target ir.TypeRef) TypeMapping {
	return TypeMapping{Source: source, Target: target, Rule: RuleDirect}
}

func imported(module, name string) ir.TypeRef {
	return ir.TypeRef{Name: name, Module: module}
}

var builtinTypes = newBuiltinTable()

func newBuiltinTable() *TypeTable {
	pairs := func(name string) ir.TypeRef {
		return ir.TypeRef{Name: name, Args: []ir.TypeRef{ir.DataType, ir.DataType}}
	}
	t := &TypeTable{entries: map[string]TypeMapping{}}
	for _, m := range []TypeMapping{
		direct("int", ir.IntType),
		direct("str", ir.StringType),
		direct("bool", ir.BoolType),
		direct("bytes", ir.ByteArrayType),
		direct("bytearray", ir.ByteArrayType),
		direct("Any", ir.DataType),
		direct("Data", ir.DataType),
		direct("object", ir.DataType),
		direct("None", ir.VoidType),
		direct("dict", pairs("Pairs")),
		direct("list", ir.ListOf(ir.DataType)),
		direct("tuple", pairs("Pair")),
		{Source: "Datum", Target: ir.OptionOf(ir.DataType), Rule: RuleOption},
		direct("Redeemer", ir.DataType),
		direct("Context", imported(modScriptContext, "ScriptContext")),
		direct("ScriptContext", imported(modScriptContext, "ScriptContext")),
		direct("ScriptInfo", imported(modScriptContext, "ScriptInfo")),
		direct("Transaction", imported(modTransaction, "Transaction")),
		direct("OutputReference", imported(modTransaction, "OutputReference")),
		direct("Output", imported(modTransaction, "Output")),
		direct("Input", imported(modTransaction, "Input")),
		direct("PolicyId", imported(modAssets, "PolicyId")),
		direct("Value", imported(modAssets, "Value")),
		direct("Address", imported(modAddress, "Address")),
		direct("Credential", imported(modAddress, "Credential")),
		direct("VerificationKeyHash", imported(modCrypto, "VerificationKeyHash")),
		direct("ByteArray", ir.ByteArrayType),
		direct("Int", ir.IntType),
		direct("String", ir.StringType),
		direct("Bool", ir.BoolType),
	} {
		t.entries[m.Source] = m
	}
	return t
}

// BuiltinTypes returns the shared builtin table.
func BuiltinTypes() *TypeTable {
	return builtinTypes
}

// Extend returns a new layer on top of t holding the given mappings.
// A mapping whose source name is already in the new layer is skipped.
// Names from lower layers may be shadowed, which is how a class declared
// in a file named Redeemer takes precedence over the Redeemer alias.
func (t *TypeTable) Extend(mappings ...TypeMapping) *TypeTable {
	child := &TypeTable{parent: t, entries: make(map[string]TypeMapping, len(mappings))}
	for _, m := range mappings {
		if _, exists := child.entries[m.Source]; exists {
			continue
		}
		child.entries[m.Source] = m
	}
	return child
}

// Lookup finds the mapping for a source type name, newest layer first.
func (t *TypeTable) Lookup(name string) (TypeMapping, bool) {
	for layer := t; layer != nil; layer = layer.parent {
		if m, ok := layer.entries[name]; ok {
			return m, true
		}
	}
	return TypeMapping{}, false
}

// Resolve maps a type annotation. Unknown names become Data; the first
// unknown spelling is returned so the caller can report it.
func (t *TypeTable) Resolve(e source.Expr) (ir.TypeRef, string) {
	switch n := e.(type) {
	case *source.Name:
		return t.named(n.ID)
	case *source.Attribute:
		// typing.Optional, cardano.transaction.Transaction
		return t.named(n.Attr)
	case *source.NoneLit:
		return ir.VoidType, ""
	case *source.StrLit:
		// Forward reference written as a string.
		if n.Bytes {
			return ir.DataType, "bytes annotation"
		}
		return t.named(n.Value)
	case *source.Subscript:
		return t.generic(n)
	case *source.BinOp:
		// X | None
		if n.Op == "|" {
			if _, ok := n.Right.(*source.NoneLit); ok {
				inner, unknown := t.Resolve(n.Left)
				return ir.OptionOf(inner), unknown
			}
			if _, ok := n.Left.(*source.NoneLit); ok {
				inner, unknown := t.Resolve(n.Right)
				return ir.OptionOf(inner), unknown
			}
		}
	}
	return ir.DataType, annotationText(e)
}

func (t *TypeTable) named(name string) (ir.TypeRef, string) {
	if m, ok := t.Lookup(name); ok {
		return m.Target, ""
	}
	return ir.DataType, name
}

func (t *TypeTable) generic(n *source.Subscript) (ir.TypeRef, string) {
	base := source.DottedName(n.Value)
	base = base[strings.LastIndex(base, ".")+1:]
	var args []source.Expr
	if tup, ok := n.Index.(*source.TupleExpr); ok {
		args = tup.Elts
	} else {
		args = []source.Expr{n.Index}
	}

	unknown := ""
	resolve := func(e source.Expr) ir.TypeRef {
		ref, u := t.Resolve(e)
		if unknown == "" {
			unknown = u
		}
		return ref
	}

	var ref ir.TypeRef
	switch {
	case base == "Optional" && len(args) == 1:
		ref = ir.OptionOf(resolve(args[0]))
	case (base == "List" || base == "list") && len(args) == 1:
		ref = ir.ListOf(resolve(args[0]))
	case (base == "Dict" || base == "dict") && len(args) == 2:
		ref = ir.TypeRef{Name: "Pairs", Args: []ir.TypeRef{resolve(args[0]), resolve(args[1])}}
	case (base == "Tuple" || base == "tuple") && len(args) == 2:
		ref = ir.TypeRef{Name: "Pair", Args: []ir.TypeRef{resolve(args[0]), resolve(args[1])}}
	case base == "Union" && len(args) == 2:
		for i := range args {
			if _, ok := args[i].(*source.NoneLit); ok {
				ref = ir.OptionOf(resolve(args[1-i]))
				break
			}
		}
	}
	if !ref.IsZero() {
		return ref, unknown
	}
	return ir.DataType, annotationText(n)
}

// annotationText renders an annotation for diagnostics.
func annotationText(e source.Expr) string {
	switch n := e.(type) {
	case *source.Name:
		return n.ID
	case *source.Attribute:
		return annotationText(n.Value) + "." + n.Attr
	case *source.Subscript:
		return annotationText(n.Value) + "[" + annotationText(n.Index) + "]"
	case *source.TupleExpr:
		parts := make([]string, len(n.Elts))
		for i, el := range n.Elts {
			parts[i] = annotationText(el)
		}
		return strings.Join(parts, ", ")
	case *source.NoneLit:
		return "None"
	case *source.StrLit:
		return n.Value
	case *source.UnsupportedExpr:
		return n.What
	case *source.BinOp:
		return annotationText(n.Left) + " " + n.Op + " " + annotationText(n.Right)
	default:
		return "annotation"
	}
}
