package compiler

import (
	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/ir"
	"github.com/roach88/pyken/internal/source"
)

// expr translates an expression. Unsupported operators are reported and
// replaced by Fail so translation can continue to find further problems.
func (t *translator) expr(e source.Expr, sc *scope) ir.Node {
	pos := e.Position()
	switch n := e.(type) {
	case *source.Name:
		if _, bound := sc.lookup(n.ID); !bound && t.u.isConstructor(n.ID) {
			return &ir.Call{Func: n.ID, Constructor: true, Pos: pos}
		}
		return ir.Ref(n.ID, pos)

	case *source.IntLit:
		return ir.IntLit(n.Value, pos)

	case *source.StrLit:
		if n.Bytes {
			return ir.BytesLit(n.Value, pos)
		}
		return ir.StringLit(n.Value, pos)

	case *source.BoolLit:
		return ir.BoolLit(n.Value, pos)

	case *source.NoneLit:
		return ir.NoneLit(pos)

	case *source.Attribute:
		owner, ok := n.Value.(*source.Name)
		if !ok {
			t.report(diag.KindUnsupportedConstruct, pos, "nested attribute access is not supported")
			return &ir.Fail{Pos: pos}
		}
		if t.u.isEnumTag(owner.ID, n.Attr) {
			return &ir.Call{Func: n.Attr, Enum: owner.ID, Constructor: true, Pos: pos}
		}
		return &ir.NameRef{Name: owner.ID, Field: n.Attr, Pos: pos}

	case *source.Subscript:
		owner, ok := n.Value.(*source.Name)
		if !ok {
			t.report(diag.KindUnsupportedConstruct, pos, "nested subscript access is not supported")
			return &ir.Fail{Pos: pos}
		}
		return &ir.NameRef{Name: owner.ID, Index: t.expr(n.Index, sc), Pos: pos}

	case *source.Call:
		return t.call(n, sc)

	case *source.BinOp:
		op, ok := binaryOps[n.Op]
		if !ok {
			t.report(diag.KindUnsupportedOperator, pos, "operator %s is not supported", n.Op)
			return &ir.Fail{Pos: pos}
		}
		return &ir.BinaryOp{Op: op, Left: t.expr(n.Left, sc), Right: t.expr(n.Right, sc), Pos: pos}

	case *source.UnaryOp:
		op, ok := unaryOps[n.Op]
		if !ok {
			t.report(diag.KindUnsupportedOperator, pos, "unary operator %s is not supported", n.Op)
			return &ir.Fail{Pos: pos}
		}
		return &ir.UnaryOp{Op: op, Operand: t.expr(n.Operand, sc), Pos: pos}

	case *source.BoolOp:
		op, ok := boolOps[n.Op]
		if !ok {
			t.report(diag.KindUnsupportedOperator, pos, "operator %s is not supported", n.Op)
			return &ir.Fail{Pos: pos}
		}
		result := t.expr(n.Values[0], sc)
		for _, v := range n.Values[1:] {
			result = &ir.BinaryOp{Op: op, Left: result, Right: t.expr(v, sc), Pos: pos}
		}
		return result

	case *source.Compare:
		return t.compare(n, sc)

	case *source.ListExpr:
		return ir.ListLit(t.exprs(n.Elts, sc), pos)

	case *source.TupleExpr:
		return ir.TupleLit(t.exprs(n.Elts, sc), pos)

	case *source.IfExp:
		return &ir.Conditional{
			Cond: t.expr(n.Test, sc),
			Then: t.expr(n.Body, sc),
			Else: t.expr(n.Orelse, sc),
			Pos:  pos,
		}

	case *source.UnsupportedExpr:
		t.report(diag.KindUnsupportedConstruct, pos, "%s is not supported", n.What)
		return &ir.Fail{Pos: pos}

	default:
		t.report(diag.KindUnsupportedConstruct, pos, "expression is not supported")
		return &ir.Fail{Pos: pos}
	}
}

func (t *translator) exprs(es []source.Expr, sc *scope) []ir.Node {
	out := make([]ir.Node, len(es))
	for i, e := range es {
		out[i] = t.expr(e, sc)
	}
	return out
}

// compare translates a possibly chained comparison. a < b < c becomes
// (a < b) && (b < c).
func (t *translator) compare(n *source.Compare, sc *scope) ir.Node {
	var result ir.Node
	left := n.Left
	for i, op := range n.Ops {
		right := n.Comparators[i]
		c := t.compareOne(op, left, right, sc, n.Pos)
		if result == nil {
			result = c
		} else {
			result = &ir.BinaryOp{Op: "&&", Left: result, Right: c, Pos: n.Pos}
		}
		left = right
	}
	return result
}

func (t *translator) compareOne(op string, left, right source.Expr, sc *scope, pos diag.Pos) ir.Node {
	if spelled, ok := compareOps[op]; ok {
		return &ir.BinaryOp{Op: spelled, Left: t.expr(left, sc), Right: t.expr(right, sc), Pos: pos}
	}

	switch op {
	case "in", "not in":
		has := &ir.Call{
			Func:   listHas,
			Module: modList,
			Args:   []ir.Arg{{Value: t.container(right, sc)}, {Value: t.expr(left, sc)}},
			Pos:    pos,
		}
		if op == "not in" {
			return &ir.UnaryOp{Op: "!", Operand: has, Pos: pos}
		}
		return has

	case "is", "is not":
		if !isSingleton(left) && !isSingleton(right) {
			t.report(diag.KindUnsupportedOperator, pos, "operator %s is only supported against None, True or False", op)
			return &ir.Fail{Pos: pos}
		}
		spelled := "=="
		if op == "is not" {
			spelled = "!="
		}
		return &ir.BinaryOp{Op: spelled, Left: t.expr(left, sc), Right: t.expr(right, sc), Pos: pos}
	}

	t.report(diag.KindUnsupportedOperator, pos, "operator %s is not supported", op)
	return &ir.Fail{Pos: pos}
}

// container translates the right operand of `in`; a tuple display becomes
// a list so it can be searched.
func (t *translator) container(e source.Expr, sc *scope) ir.Node {
	if tup, ok := e.(*source.TupleExpr); ok {
		return ir.ListLit(t.exprs(tup.Elts, sc), tup.Pos)
	}
	return t.expr(e, sc)
}

func isSingleton(e source.Expr) bool {
	switch e.(type) {
	case *source.NoneLit, *source.BoolLit:
		return true
	}
	return false
}

func (t *translator) call(n *source.Call, sc *scope) ir.Node {
	switch f := n.Func.(type) {
	case *source.Name:
		_, shadowed := sc.lookup(f.ID)
		if b, ok := builtinCalls[f.ID]; ok && !shadowed && len(n.Args) == b.Arity && len(n.Keywords) == 0 {
			return &ir.Call{Func: b.Func, Module: b.Module, Args: t.args(n, nil, sc), Pos: n.Pos}
		}
		if !shadowed && (f.ID == "Some" || t.u.isConstructor(f.ID) || (isCamel(f.ID) && len(n.Keywords) > 0)) {
			return &ir.Call{Func: f.ID, Constructor: true, Args: t.args(n, t.u.records[f.ID], sc), Pos: n.Pos}
		}
		return &ir.Call{Func: f.ID, Args: t.args(n, nil, sc), Pos: n.Pos}

	case *source.Attribute:
		owner, ok := f.Value.(*source.Name)
		if !ok {
			t.report(diag.KindUnsupportedConstruct, n.Pos, "nested attribute access is not supported")
			return &ir.Fail{Pos: n.Pos}
		}
		if t.u.isEnumTag(owner.ID, f.Attr) {
			return &ir.Call{Func: f.Attr, Enum: owner.ID, Constructor: true, Args: t.args(n, nil, sc), Pos: n.Pos}
		}
		return &ir.Call{Func: owner.ID + "." + f.Attr, Args: t.args(n, nil, sc), Pos: n.Pos}

	default:
		t.report(diag.KindUnsupportedConstruct, n.Pos, "call of a computed function is not supported")
		return &ir.Fail{Pos: n.Pos}
	}
}

// args translates call arguments. Positional arguments take labels from
// fields in order when the callee is a known record.
func (t *translator) args(n *source.Call, fields []string, sc *scope) []ir.Arg {
	out := make([]ir.Arg, 0, len(n.Args)+len(n.Keywords))
	for i, a := range n.Args {
		label := ""
		if i < len(fields) {
			label = fields[i]
		}
		out = append(out, ir.Arg{Label: label, Value: t.expr(a, sc)})
	}
	for _, kw := range n.Keywords {
		out = append(out, ir.Arg{Label: kw.Name, Value: t.expr(kw.Value, sc)})
	}
	return out
}

func isCamel(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

// infer returns the statically evident type of e, zero when unknown.
func (t *translator) infer(e source.Expr, sc *scope) ir.TypeRef {
	switch n := e.(type) {
	case *source.IntLit:
		return ir.IntType
	case *source.StrLit:
		if n.Bytes {
			return ir.ByteArrayType
		}
		return ir.StringType
	case *source.BoolLit, *source.Compare, *source.BoolOp:
		return ir.BoolType
	case *source.Name:
		typ, _ := sc.lookup(n.ID)
		return typ
	case *source.UnaryOp:
		if n.Op == "not" {
			return ir.BoolType
		}
		return t.infer(n.Operand, sc)
	case *source.BinOp:
		l, r := t.infer(n.Left, sc), t.infer(n.Right, sc)
		if known(l) && l.Same(r) {
			return l
		}
	case *source.Attribute:
		if owner, ok := n.Value.(*source.Name); ok && t.u.isEnumTag(owner.ID, n.Attr) {
			return ir.TypeRef{Name: owner.ID}
		}
	case *source.Call:
		name, ok := n.Func.(*source.Name)
		if !ok {
			break
		}
		if _, shadowed := sc.lookup(name.ID); shadowed {
			break
		}
		if _, ok := builtinCalls[name.ID]; ok {
			return ir.IntType
		}
		if t.u.isConstructor(name.ID) {
			return ir.TypeRef{Name: name.ID}
		}
		if name.ID == "Some" && len(n.Args) == 1 {
			if inner := t.infer(n.Args[0], sc); known(inner) {
				return ir.OptionOf(inner)
			}
		}
	case *source.ListExpr:
		if len(n.Elts) == 0 {
			break
		}
		elem := t.infer(n.Elts[0], sc)
		for _, el := range n.Elts[1:] {
			if !elem.Same(t.infer(el, sc)) {
				return ir.ListOf(ir.DataType)
			}
		}
		if known(elem) {
			return ir.ListOf(elem)
		}
	case *source.IfExp:
		a, b := t.infer(n.Body, sc), t.infer(n.Orelse, sc)
		if known(a) && a.Same(b) {
			return a
		}
	}
	return ir.TypeRef{}
}
