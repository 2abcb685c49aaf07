package emit

import (
	"fmt"
	"strings"

	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/ir"
)

// fn renders the body of one function. Locals get their own namer; the
// same source name keeps one target name across shadowing lets.
type fn struct {
	e     *emitter
	name  string // qualified source name, for diagnostics
	test  bool
	names *namer
	used  map[string]bool // names the body reads
}

func (e *emitter) newFunc(name string, body ir.Node, test bool) *fn {
	f := &fn{e: e, name: name, test: test, names: newNamer(), used: map[string]bool{}}
	for _, b := range e.bindings {
		f.names.reserve(b)
	}
	ir.Walk(body, func(n ir.Node) bool {
		if r, ok := n.(*ir.NameRef); ok {
			f.used[r.Name] = true
		}
		return true
	})
	return f
}

// bind declares a local. A name with a leading underscore marks a discard
// in the target language, so the underscore is dropped when the body reads
// the name.
func (f *fn) bind(source string, pos diag.Pos) string {
	base := snake(source)
	if f.used[source] {
		base = strings.TrimLeft(base, "_")
	}
	return f.e.declare(f.names, source, base, pos, f.name)
}

func (f *fn) params(params []ir.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s: %s", f.bind(p.Name, p.Pos), f.e.typeRef(p.Type))
	}
	return strings.Join(parts, ", ")
}

// block writes a node in statement position.
func (f *fn) block(w *writer, n ir.Node) {
	switch n := n.(type) {
	case *ir.Let:
		value := f.expr(n.Value)
		name := f.bind(n.Name, n.Pos)
		if n.Type.IsZero() {
			w.line("let %s = %s", name, value)
		} else {
			w.line("let %s: %s = %s", name, f.e.typeRef(n.Type), value)
		}
		f.block(w, n.Body)

	case *ir.Guard:
		// expect carries no message; the test name reports the failure.
		if f.test {
			w.line("expect %s", f.expr(n.Cond))
			f.block(w, n.Body)
			return
		}
		w.line("if %s {", f.expr(n.Cond))
		w.indent()
		f.block(w, n.Body)
		w.dedent()
		w.line("} else {")
		w.indent()
		w.line("%s", fail(&ir.Fail{Message: n.Message}))
		w.dedent()
		w.line("}")

	case *ir.Trace:
		w.line("trace %s", text(n.Message))
		f.block(w, n.Body)

	case *ir.Conditional:
		w.line("if %s {", f.expr(n.Cond))
		for {
			w.indent()
			f.block(w, n.Then)
			w.dedent()
			next, ok := n.Else.(*ir.Conditional)
			if !ok {
				break
			}
			w.line("} else if %s {", f.expr(next.Cond))
			n = next
		}
		w.line("} else {")
		w.indent()
		f.block(w, n.Else)
		w.dedent()
		w.line("}")

	case *ir.Match:
		w.line("when %s is {", f.expr(n.Subject))
		w.indent()
		for _, arm := range n.Arms {
			pattern := "_"
			if !arm.Wildcard() {
				parts := make([]string, len(arm.Patterns))
				for i, p := range arm.Patterns {
					parts[i] = f.expr(p)
				}
				pattern = strings.Join(parts, " | ")
			}
			if inline, ok := f.inline(arm.Body); ok {
				w.line("%s -> %s", pattern, inline)
				continue
			}
			w.line("%s -> {", pattern)
			w.indent()
			f.block(w, arm.Body)
			w.dedent()
			w.line("}")
		}
		w.dedent()
		w.line("}")

	case *ir.Fail:
		w.line("%s", fail(n))

	case *ir.TailValue:
		w.line("%s", f.expr(n.Value))

	default:
		w.line("%s", f.expr(n))
	}
}

// inline renders a single-line arm body.
func (f *fn) inline(n ir.Node) (string, bool) {
	switch n := n.(type) {
	case *ir.TailValue:
		return f.expr(n.Value), true
	case *ir.Fail:
		return fail(n), true
	}
	return "", false
}

func fail(n *ir.Fail) string {
	if n.Message == "" {
		return "fail"
	}
	return "fail " + text(n.Message)
}

// Binding strength of binary operators; higher binds tighter.
var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5, "%": 5,
}

// expr renders a node in expression position.
func (f *fn) expr(n ir.Node) string {
	switch n := n.(type) {
	case *ir.Literal:
		switch n.Kind {
		case ir.LitList:
			return "[" + f.exprs(n.Elems) + "]"
		case ir.LitTuple:
			return "(" + f.exprs(n.Elems) + ")"
		}
		return literal(n)

	case *ir.NameRef:
		base := f.ref(n.Name)
		switch {
		case n.Field != "":
			return base + "." + escape(snake(n.Field))
		case n.Index != nil:
			f.e.uses.add(modList, "")
			return fmt.Sprintf("list.at(%s, %s)", base, f.expr(n.Index))
		}
		return base

	case *ir.BinaryOp:
		p := precedence[n.Op]
		left, right := f.expr(n.Left), f.expr(n.Right)
		lp, lok := binaryPrec(n.Left)
		if lok && (lp < p || (lp == p && p == 3)) || unbounded(n.Left) {
			left = "(" + left + ")"
		}
		rp, rok := binaryPrec(n.Right)
		if rok && rp <= p || unbounded(n.Right) || signed(right) {
			right = "(" + right + ")"
		}
		return left + " " + n.Op + " " + right

	case *ir.UnaryOp:
		operand := f.expr(n.Operand)
		_, binary := n.Operand.(*ir.BinaryOp)
		if binary || unbounded(n.Operand) || signed(operand) {
			operand = "(" + operand + ")"
		}
		return n.Op + operand

	case *ir.Call:
		return f.call(n)

	case *ir.Conditional:
		return fmt.Sprintf("if %s { %s } else { %s }", f.expr(n.Cond), f.expr(n.Then), f.expr(n.Else))

	case *ir.TailValue:
		return f.expr(n.Value)

	case *ir.Fail:
		return fail(n)

	default:
		panic(fmt.Sprintf("emit: unexpected %T in expression position", n))
	}
}

// unbounded reports whether n renders without a closing delimiter, so
// anything written after it would be absorbed into it.
func unbounded(n ir.Node) bool {
	switch n := n.(type) {
	case *ir.Conditional, *ir.Fail:
		return true
	case *ir.TailValue:
		return unbounded(n.Value)
	}
	return false
}

// signed reports whether a rendered operand starts with a prefix operator,
// which would fuse with an operator written right before it.
func signed(operand string) bool {
	return strings.HasPrefix(operand, "-") || strings.HasPrefix(operand, "!")
}

func binaryPrec(n ir.Node) (int, bool) {
	if b, ok := n.(*ir.BinaryOp); ok {
		return precedence[b.Op], true
	}
	return 0, false
}

func (f *fn) exprs(ns []ir.Node) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = f.expr(n)
	}
	return strings.Join(parts, ", ")
}

// ref renders a name read. Names the function binds use their local
// spelling; anything else is free and may come from an import.
func (f *fn) ref(name string) string {
	if target, ok := f.names.lookup(name); ok {
		return target
	}
	f.e.refs[name] = true
	if h, ok := f.e.helpers[name]; ok {
		return h
	}
	return escape(name)
}

func (f *fn) call(c *ir.Call) string {
	var callee string
	switch {
	case c.Constructor:
		callee = f.e.constructor(c)
	case c.Module != "":
		f.e.uses.add(c.Module, "")
		callee = c.Func
	case strings.Contains(c.Func, "."):
		head, rest, _ := strings.Cut(c.Func, ".")
		callee = f.ref(head) + "." + escape(rest)
	default:
		callee = f.ref(c.Func)
	}

	if len(c.Args) == 0 {
		if c.Constructor {
			return callee
		}
		return callee + "()"
	}

	labeled := c.Constructor
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		value := f.expr(a.Value)
		if a.Label == "" {
			labeled = false
			args[i] = value
			continue
		}
		args[i] = escape(snake(a.Label)) + ": " + value
	}
	if labeled {
		return callee + " { " + strings.Join(args, ", ") + " }"
	}
	return callee + "(" + strings.Join(args, ", ") + ")"
}

// constructor renders a constructor name and marks its type as used. A tag
// resolves through its enum, since two enums may share a tag name.
func (e *emitter) constructor(c *ir.Call) string {
	if c.Enum != "" {
		if target, ok := e.types.lookup(tagKey(c.Enum, c.Func)); ok {
			e.seen[c.Enum] = true
			return target
		}
	}
	if d, ok := e.decls[c.Func]; ok && d.Kind != ir.DeclEnum {
		e.seen[c.Func] = true
		return e.typeTarget(c.Func)
	}
	e.refs[c.Func] = true
	return c.Func
}
