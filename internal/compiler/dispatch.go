package compiler

import (
	"fmt"

	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/source"
)

// Tag families other than declared enums.
const (
	familyBool = "Bool"
	familyInt  = "Int"
)

// Tag is one constant a dispatch arm matches.
type Tag struct {
	Family string // enum name, "Bool" or "Int"
	Name   string // constructor name, "True"/"False", or decimal text
	Pos    diag.Pos
}

// DispatchArm is one if/elif clause of a dispatch.
type DispatchArm struct {
	Tags []Tag
	Body []source.Stmt
	Pos  diag.Pos
}

// Dispatch is an if/elif chain recognized as a match on one variable.
type Dispatch struct {
	Subject    string
	SubjectPos diag.Pos
	Family     string
	Arms       []DispatchArm
	Else       []source.Stmt
	HasElse    bool
	Pos        diag.Pos
}

// MatchDispatch decides whether an if/elif chain is a tag dispatch. A chain
// qualifies when it has at least two tests, every test compares the same
// variable with == against one tag or with `in` against a tuple or list of
// tags, all tags come from one family and are pairwise distinct, and the
// chain either ends in else or covers every tag of the family. Int tags
// always need an else.
//
// enums maps each enum declared in the file to its tags. When the chain
// does not qualify, the returned string says why. The function has no side
// effects.
func MatchDispatch(n *source.If, enums map[string][]string) (*Dispatch, string) {
	d := &Dispatch{Pos: n.Pos}
	seen := map[string]bool{}

	cur := n
	for {
		subject, subjectPos, tags, ok := tagTest(cur.Test, enums)
		if !ok {
			return nil, fmt.Sprintf("test at %s is not a tag comparison", cur.Test.Position())
		}
		if d.Subject == "" {
			d.Subject, d.SubjectPos = subject, subjectPos
		} else if subject != d.Subject {
			return nil, fmt.Sprintf("tests compare different variables (%s, %s)", d.Subject, subject)
		}
		for _, tag := range tags {
			if d.Family == "" {
				d.Family = tag.Family
			} else if tag.Family != d.Family {
				return nil, fmt.Sprintf("tags mix %s and %s", d.Family, tag.Family)
			}
			if seen[tag.Name] {
				return nil, fmt.Sprintf("tag %s appears more than once", tag.Name)
			}
			seen[tag.Name] = true
		}
		d.Arms = append(d.Arms, DispatchArm{Tags: tags, Body: cur.Body, Pos: cur.Pos})

		if next := elifOf(cur); next != nil {
			cur = next
			continue
		}
		if len(cur.Orelse) > 0 {
			d.Else, d.HasElse = cur.Orelse, true
		}
		break
	}

	if len(d.Arms) < 2 {
		return nil, "fewer than two tests"
	}
	if d.HasElse {
		return d, ""
	}
	if missing := missingTags(d.Family, seen, enums); missing != "" {
		return nil, fmt.Sprintf("tags do not cover %s (missing %s) and there is no else", d.Family, missing)
	}
	return d, ""
}

// elifOf returns the elif clause chained to n, or nil.
func elifOf(n *source.If) *source.If {
	if len(n.Orelse) != 1 {
		return nil
	}
	next, ok := n.Orelse[0].(*source.If)
	if !ok || !next.Elif {
		return nil
	}
	return next
}

// missingTags returns the first tag of family the chain does not cover, or
// "" when it covers them all.
func missingTags(family string, seen map[string]bool, enums map[string][]string) string {
	var all []string
	switch family {
	case familyBool:
		all = []string{"True", "False"}
	case familyInt:
		return "an integer"
	default:
		all = enums[family]
	}
	for _, tag := range all {
		if !seen[tag] {
			return tag
		}
	}
	return ""
}

// tagTest recognizes `x == TAG`, `TAG == x` and `x in (TAG, ...)`.
func tagTest(e source.Expr, enums map[string][]string) (string, diag.Pos, []Tag, bool) {
	cmp, ok := e.(*source.Compare)
	if !ok || len(cmp.Ops) != 1 {
		return "", diag.Pos{}, nil, false
	}
	left, right := cmp.Left, cmp.Comparators[0]

	switch cmp.Ops[0] {
	case "==":
		if name, ok := left.(*source.Name); ok {
			if tag, ok := tagOf(right, enums); ok {
				return name.ID, name.Pos, []Tag{tag}, true
			}
		}
		if name, ok := right.(*source.Name); ok {
			if tag, ok := tagOf(left, enums); ok {
				return name.ID, name.Pos, []Tag{tag}, true
			}
		}
	case "in":
		name, ok := left.(*source.Name)
		if !ok {
			break
		}
		var elts []source.Expr
		switch c := right.(type) {
		case *source.TupleExpr:
			elts = c.Elts
		case *source.ListExpr:
			elts = c.Elts
		}
		if len(elts) == 0 {
			break
		}
		tags := make([]Tag, 0, len(elts))
		for _, el := range elts {
			tag, ok := tagOf(el, enums)
			if !ok {
				return "", diag.Pos{}, nil, false
			}
			tags = append(tags, tag)
		}
		return name.ID, name.Pos, tags, true
	}
	return "", diag.Pos{}, nil, false
}

// tagOf recognizes Enum.Tag for a declared enum, True/False and integer
// literals.
func tagOf(e source.Expr, enums map[string][]string) (Tag, bool) {
	switch v := e.(type) {
	case *source.Attribute:
		owner, ok := v.Value.(*source.Name)
		if !ok {
			return Tag{}, false
		}
		for _, tag := range enums[owner.ID] {
			if tag == v.Attr {
				return Tag{Family: owner.ID, Name: tag, Pos: v.Pos}, true
			}
		}
	case *source.BoolLit:
		name := "False"
		if v.Value {
			name = "True"
		}
		return Tag{Family: familyBool, Name: name, Pos: v.Pos}, true
	case *source.IntLit:
		return Tag{Family: familyInt, Name: v.Value, Pos: v.Pos}, true
	case *source.UnaryOp:
		if lit, ok := v.Operand.(*source.IntLit); ok && v.Op == "-" && lit.Value != "0" {
			return Tag{Family: familyInt, Name: "-" + lit.Value, Pos: v.Pos}, true
		}
	}
	return Tag{}, false
}
