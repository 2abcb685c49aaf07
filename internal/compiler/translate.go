package compiler

import (
	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/ir"
	"github.com/roach88/pyken/internal/source"
)

// cont produces the node control reaches when a block falls through its
// last statement. A nil cont means falling through is an error.
type cont func(sc *scope) ir.Node

// translator turns one function body into IR. Statement sequencing becomes
// nesting: each statement's node carries the rest of its block as Body, and
// a non-tail if hands the statements after it to its branches as a
// continuation.
type translator struct {
	u     *unit
	fn    string // qualified function name
	diags diag.List
}

func (t *translator) report(kind diag.Kind, pos diag.Pos, format string, args ...any) {
	t.diags.Add(kind, t.u.path, pos, t.fn, format, args...)
}

// block translates stmts. at is the position reported if the block falls
// through with nowhere to go.
func (t *translator) block(stmts []source.Stmt, sc *scope, k cont, at diag.Pos) ir.Node {
	if len(stmts) == 0 {
		return t.fallThrough(sc, k, at)
	}
	s, rest := stmts[0], stmts[1:]
	pos := s.Position()

	switch n := s.(type) {
	case *source.Pass:
		return t.block(rest, sc, k, pos)

	case *source.ExprStmt:
		if msg, ok := source.TraceMessage(n.Value); ok {
			return &ir.Trace{Message: msg, Body: t.block(rest, sc, k, pos), Pos: pos}
		}
		if _, ok := n.Value.(*source.StrLit); ok {
			return t.block(rest, sc, k, pos)
		}
		t.report(diag.KindUnsupportedConstruct, pos, "expression statement is not supported")
		return &ir.Fail{Pos: pos}

	case *source.Return:
		t.unreachable(rest, "return")
		var value ir.Node
		if n.Value == nil {
			value = &ir.Call{Func: "Void", Constructor: true, Pos: pos}
		} else {
			value = t.expr(n.Value, sc)
		}
		return &ir.TailValue{Value: value, Pos: pos}

	case *source.Raise:
		t.unreachable(rest, "raise")
		return &ir.Fail{Message: raiseMessage(n.Exc), Pos: pos}

	case *source.Assert:
		cond := t.expr(n.Test, sc)
		msg := ""
		if n.Msg != nil {
			if lit, ok := n.Msg.(*source.StrLit); ok && !lit.Bytes {
				msg = lit.Value
			} else {
				t.u.log.Debug("assert message dropped", "function", t.fn, "pos", pos)
			}
		}
		return &ir.Guard{Cond: cond, Message: msg, Body: t.block(rest, sc, k, pos), Pos: pos}

	case *source.Assign:
		if len(n.Targets) != 1 {
			t.report(diag.KindUnsupportedConstruct, pos, "assignment target is not supported")
			return &ir.Fail{Pos: pos}
		}
		name, ok := n.Targets[0].(*source.Name)
		if !ok {
			t.report(diag.KindUnsupportedConstruct, pos, "assignment target is not supported")
			return &ir.Fail{Pos: pos}
		}
		return t.bind(name.ID, pos, ir.TypeRef{}, n.Value, rest, sc, k)

	case *source.AnnAssign:
		name, ok := n.Target.(*source.Name)
		if !ok || n.Value == nil {
			t.report(diag.KindUnsupportedConstruct, pos, "declaration is not supported")
			return &ir.Fail{Pos: pos}
		}
		declared := t.resolveType(n.Annotation, pos, name.ID)
		return t.bind(name.ID, pos, declared, n.Value, rest, sc, k)

	case *source.AugAssign:
		name, ok := n.Target.(*source.Name)
		if !ok {
			t.report(diag.KindUnsupportedConstruct, pos, "augmented assignment target is not supported")
			return &ir.Fail{Pos: pos}
		}
		value := &source.BinOp{Op: n.Op, Left: name, Right: n.Value, Pos: pos}
		return t.bind(name.ID, pos, ir.TypeRef{}, value, rest, sc, k)

	case *source.If:
		return t.ifStmt(n, rest, sc, k)

	default:
		t.report(diag.KindUnsupportedConstruct, pos, "statement is not supported")
		return &ir.Fail{Pos: pos}
	}
}

// bind translates an assignment into a Let whose body is the rest of the
// block. Rebinding a name shadows it; the inferred types must agree.
func (t *translator) bind(name string, pos diag.Pos, declared ir.TypeRef, value source.Expr, rest []source.Stmt, sc *scope, k cont) ir.Node {
	node := t.expr(value, sc)
	typ := declared
	if typ.IsZero() {
		typ = t.infer(value, sc)
	}

	if prev, bound := sc.lookup(name); bound {
		if conflicts(prev, typ) {
			t.report(diag.KindReassignmentTypeConflict, pos,
				"%s is bound as %s and reassigned as %s", name, prev, typ)
		}
		if !known(typ) {
			typ = prev
		}
	}

	return &ir.Let{
		Name:  name,
		Type:  declared,
		Value: node,
		Body:  t.block(rest, sc.bind(name, typ), k, pos),
		Pos:   pos,
	}
}

func (t *translator) ifStmt(n *source.If, rest []source.Stmt, sc *scope, k cont) ir.Node {
	join := k
	if len(rest) > 0 {
		if terminates([]source.Stmt{n}) {
			t.unreachable(rest, "an if whose branches all end")
		} else {
			join = func(sc *scope) ir.Node {
				return t.block(rest, sc, k, n.Pos)
			}
		}
	}

	d, reason := MatchDispatch(n, t.u.enums)
	if d != nil {
		t.u.log.Debug("tag dispatch", "function", t.fn, "pos", n.Pos, "subject", d.Subject, "arms", len(d.Arms))
		return t.dispatch(d, sc, join)
	}
	if elifOf(n) != nil {
		t.u.log.Debug("tag dispatch not applied", "function", t.fn, "pos", n.Pos, "reason", reason)
	}
	return t.conditional(n, sc, join)
}

// conditional translates an if/elif/else chain into nested Conditionals.
func (t *translator) conditional(n *source.If, sc *scope, join cont) ir.Node {
	if len(n.Orelse) == 0 && join == nil && !terminates(n.Body) {
		t.report(diag.KindNonExhaustiveBranches, n.Pos,
			"if without else at the end of %s does not return on every path", t.fn)
		return &ir.Fail{Pos: n.Pos}
	}

	cond := t.expr(n.Test, sc)
	then := t.block(n.Body, sc, join, n.Pos)

	var els ir.Node
	switch {
	case len(n.Orelse) > 0:
		els = t.block(n.Orelse, sc, join, n.Pos)
	case join != nil:
		els = join(sc)
	default:
		// The implicit else returns None, which never validates.
		els = &ir.Fail{Pos: n.Pos}
	}
	return &ir.Conditional{Cond: cond, Then: then, Else: els, Pos: n.Pos}
}

// dispatch translates a recognized tag dispatch into one Match.
func (t *translator) dispatch(d *Dispatch, sc *scope, join cont) ir.Node {
	m := &ir.Match{
		Subject: t.expr(&source.Name{ID: d.Subject, Pos: d.SubjectPos}, sc),
		Pos:     d.Pos,
	}
	for _, arm := range d.Arms {
		patterns := make([]ir.Node, len(arm.Tags))
		for i, tag := range arm.Tags {
			patterns[i] = tagNode(tag)
		}
		m.Arms = append(m.Arms, ir.Arm{Patterns: patterns, Body: t.block(arm.Body, sc, join, arm.Pos)})
	}
	if d.HasElse {
		m.Arms = append(m.Arms, ir.Arm{Body: t.block(d.Else, sc, join, d.Pos)})
	}
	return m
}

func tagNode(tag Tag) ir.Node {
	switch tag.Family {
	case familyBool:
		return ir.BoolLit(tag.Name == "True", tag.Pos)
	case familyInt:
		return ir.IntLit(tag.Name, tag.Pos)
	default:
		return &ir.Call{Func: tag.Name, Enum: tag.Family, Constructor: true, Pos: tag.Pos}
	}
}

func (t *translator) fallThrough(sc *scope, k cont, at diag.Pos) ir.Node {
	if k != nil {
		return k(sc)
	}
	t.report(diag.KindNonExhaustiveBranches, at, "%s can reach its end without returning a value", t.fn)
	return &ir.Fail{Pos: at}
}

func (t *translator) unreachable(rest []source.Stmt, after string) {
	if len(rest) > 0 {
		t.report(diag.KindUnreachableCode, rest[0].Position(), "statement after %s is unreachable", after)
	}
}

// terminates reports whether every path through stmts ends in return or
// raise.
func terminates(stmts []source.Stmt) bool {
	for _, s := range stmts {
		switch n := s.(type) {
		case *source.Return, *source.Raise:
			return true
		case *source.If:
			if len(n.Orelse) > 0 && terminates(n.Body) && terminates(n.Orelse) {
				return true
			}
		}
	}
	return false
}

// raiseMessage extracts the message of `raise Exc("literal")`.
func raiseMessage(exc source.Expr) string {
	call, ok := exc.(*source.Call)
	if !ok || len(call.Args) != 1 {
		return ""
	}
	if lit, ok := call.Args[0].(*source.StrLit); ok && !lit.Bytes {
		return lit.Value
	}
	return ""
}
