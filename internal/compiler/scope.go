package compiler

import "github.com/roach88/pyken/internal/ir"

// scope is an immutable chain of bindings. Each Let pushes one link, so a
// branch never sees names bound in a sibling branch and continuations can
// be translated more than once from the same starting point.
type scope struct {
	parent *scope
	name   string
	typ    ir.TypeRef // zero when not inferable
}

func (s *scope) bind(name string, typ ir.TypeRef) *scope {
	return &scope{parent: s, name: name, typ: typ}
}

// lookup returns the type of the innermost binding of name.
func (s *scope) lookup(name string) (ir.TypeRef, bool) {
	for link := s; link != nil; link = link.parent {
		if link.name == name {
			return link.typ, true
		}
	}
	return ir.TypeRef{}, false
}

// conflicts reports whether rebinding a name of type prev to type next
// changes a known type. Data is the opaque placeholder and agrees with
// every type at any depth.
func conflicts(prev, next ir.TypeRef) bool {
	if !known(prev) || !known(next) {
		return false
	}
	if prev.Name != next.Name || len(prev.Args) != len(next.Args) {
		return true
	}
	for i := range prev.Args {
		if conflicts(prev.Args[i], next.Args[i]) {
			return true
		}
	}
	return false
}

func known(t ir.TypeRef) bool {
	return !t.IsZero() && t.Name != ir.DataType.Name
}
