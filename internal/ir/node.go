package ir

import "github.com/roach88/pyken/internal/diag"

// Node is one IR node. Every node yields a value; sequencing is expressed
// by nesting (Let, Guard and Trace carry their continuation in Body).
type Node interface {
	Position() diag.Pos
	node()
}

// LitKind selects the literal form.
type LitKind int

const (
	LitInt LitKind = iota
	LitString
	LitByteArray
	LitBool
	LitNone
	LitList
	LitTuple
)

var litKindNames = [...]string{"int", "string", "bytearray", "bool", "none", "list", "tuple"}

func (k LitKind) String() string {
	return litKindNames[k]
}

// Literal is a constant. Text holds the decimal digits of an Int, the
// decoded contents of a String or ByteArray, and "True"/"False" for Bool.
// Elems holds the elements of a List or Tuple.
type Literal struct {
	Kind  LitKind
	Text  string
	Elems []Node
	Pos   diag.Pos
}

// NameRef reads a bound name, optionally selecting one field or one index.
type NameRef struct {
	Name  string
	Field string
	Index Node
	Pos   diag.Pos
}

// BinaryOp applies a target-language binary operator.
type BinaryOp struct {
	Op    string
	Left  Node
	Right Node
	Pos   diag.Pos
}

// UnaryOp applies "!" or "-".
type UnaryOp struct {
	Op      string
	Operand Node
	Pos     diag.Pos
}

// Arg is one call argument; Label is set for record fields.
type Arg struct {
	Label string
	Value Node
}

// Call invokes a function or builds a record. Func is the target spelling
// ("list.has", "check", "Datum"); Module is the import it needs, if any.
// Enum names the declaring enum when Func is one of its tags.
type Call struct {
	Func        string
	Module      string
	Enum        string
	Args        []Arg
	Constructor bool
	Pos         diag.Pos
}

// Let binds Name to Value in Body. Type is the declared annotation, if any.
type Let struct {
	Name  string
	Type  TypeRef
	Value Node
	Body  Node
	Pos   diag.Pos
}

// Conditional is a value-producing if/else.
type Conditional struct {
	Cond Node
	Then Node
	Else Node
	Pos  diag.Pos
}

// Arm is one Match branch. An arm with no patterns is the wildcard and is
// always last.
type Arm struct {
	Patterns []Node
	Body     Node
}

// Wildcard reports whether the arm matches anything.
func (a Arm) Wildcard() bool {
	return len(a.Patterns) == 0
}

// Match is an exhaustive pattern match on Subject.
type Match struct {
	Subject Node
	Arms    []Arm
	Pos     diag.Pos
}

// Guard evaluates Cond and continues with Body, failing otherwise.
type Guard struct {
	Cond    Node
	Message string
	Body    Node
	Pos     diag.Pos
}

// Fail is terminal failure.
type Fail struct {
	Message string
	Pos     diag.Pos
}

// TailValue is the value a body produces.
type TailValue struct {
	Value Node
	Pos   diag.Pos
}

// Trace emits a trace message and continues with Body.
type Trace struct {
	Message string
	Body    Node
	Pos     diag.Pos
}

func (n *Literal) Position() diag.Pos     { return n.Pos }
func (n *NameRef) Position() diag.Pos     { return n.Pos }
func (n *BinaryOp) Position() diag.Pos    { return n.Pos }
func (n *UnaryOp) Position() diag.Pos     { return n.Pos }
func (n *Call) Position() diag.Pos        { return n.Pos }
func (n *Let) Position() diag.Pos         { return n.Pos }
func (n *Conditional) Position() diag.Pos { return n.Pos }
func (n *Match) Position() diag.Pos       { return n.Pos }
func (n *Guard) Position() diag.Pos       { return n.Pos }
func (n *Fail) Position() diag.Pos        { return n.Pos }
func (n *TailValue) Position() diag.Pos   { return n.Pos }
func (n *Trace) Position() diag.Pos       { return n.Pos }

func (*Literal) node()     {}
func (*NameRef) node()     {}
func (*BinaryOp) node()    {}
func (*UnaryOp) node()     {}
func (*Call) node()        {}
func (*Let) node()         {}
func (*Conditional) node() {}
func (*Match) node()       {}
func (*Guard) node()       {}
func (*Fail) node()        {}
func (*TailValue) node()   {}
func (*Trace) node()       {}

// Constructors. Nodes are built through these and never mutated.

// IntLit returns an Int literal from its decimal text.
func IntLit(text string, pos diag.Pos) *Literal {
	return &Literal{Kind: LitInt, Text: text, Pos: pos}
}

// StringLit returns a String literal.
func StringLit(s string, pos diag.Pos) *Literal {
	return &Literal{Kind: LitString, Text: s, Pos: pos}
}

// BytesLit returns a ByteArray literal from raw bytes.
func BytesLit(b string, pos diag.Pos) *Literal {
	return &Literal{Kind: LitByteArray, Text: b, Pos: pos}
}

// BoolLit returns True or False.
func BoolLit(v bool, pos diag.Pos) *Literal {
	text := "False"
	if v {
		text = "True"
	}
	return &Literal{Kind: LitBool, Text: text, Pos: pos}
}

// NoneLit returns the None constructor of Option.
func NoneLit(pos diag.Pos) *Literal {
	return &Literal{Kind: LitNone, Text: "None", Pos: pos}
}

// ListLit returns a list literal.
func ListLit(elems []Node, pos diag.Pos) *Literal {
	return &Literal{Kind: LitList, Elems: elems, Pos: pos}
}

// TupleLit returns a tuple literal.
func TupleLit(elems []Node, pos diag.Pos) *Literal {
	return &Literal{Kind: LitTuple, Elems: elems, Pos: pos}
}

// Ref returns a plain name reference.
func Ref(name string, pos diag.Pos) *NameRef {
	return &NameRef{Name: name, Pos: pos}
}

// Walk traverses n depth-first in evaluation order. If fn returns false the
// children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Literal:
		for _, e := range v.Elems {
			Walk(e, fn)
		}
	case *NameRef:
		Walk(v.Index, fn)
	case *BinaryOp:
		Walk(v.Left, fn)
		Walk(v.Right, fn)
	case *UnaryOp:
		Walk(v.Operand, fn)
	case *Call:
		for _, a := range v.Args {
			Walk(a.Value, fn)
		}
	case *Let:
		Walk(v.Value, fn)
		Walk(v.Body, fn)
	case *Conditional:
		Walk(v.Cond, fn)
		Walk(v.Then, fn)
		Walk(v.Else, fn)
	case *Match:
		Walk(v.Subject, fn)
		for _, arm := range v.Arms {
			for _, p := range arm.Patterns {
				Walk(p, fn)
			}
			Walk(arm.Body, fn)
		}
	case *Guard:
		Walk(v.Cond, fn)
		Walk(v.Body, fn)
	case *TailValue:
		Walk(v.Value, fn)
	case *Trace:
		Walk(v.Body, fn)
	}
}
