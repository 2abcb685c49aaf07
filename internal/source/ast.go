// Package source parses the supported Python subset and collects per-function metadata.
package source

// Module is the parsed form of one source file.
type Module struct {
	Body []Stmt
}

// Stmt is a statement node.
type Stmt interface {
	Position() Pos
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Position() Pos
	exprNode()
}

// Statements.

// FunctionDef is a def statement.
type FunctionDef struct {
	Name       string
	Params     []ParamDef
	Decorators []Expr
	Returns    Expr // nil when unannotated
	Body       []Stmt
	Async      bool
	Pos        Pos
}

// ParamDef is one parameter as written. Star is "*" or "**" for variadic
// parameters and "/" for the positional-only marker.
type ParamDef struct {
	Name       string
	Annotation Expr
	Default    Expr
	Star       string
	Pos        Pos
}

// ClassDef is a class statement.
type ClassDef struct {
	Name       string
	Bases      []Expr
	Decorators []Expr
	Body       []Stmt
	Pos        Pos
}

// Assign is `t1 = t2 = value`. Targets holds every left-hand side.
type Assign struct {
	Targets []Expr
	Value   Expr
	Pos     Pos
}

// AnnAssign is `target: annotation [= value]`.
type AnnAssign struct {
	Target     Expr
	Annotation Expr
	Value      Expr // nil for a bare declaration
	Pos        Pos
}

// AugAssign is `target op= value`. Op is the binary operator without '='.
type AugAssign struct {
	Target Expr
	Op     string
	Value  Expr
	Pos    Pos
}

// If is an if statement. An elif clause is an If stored as the only
// element of Orelse with Elif set.
type If struct {
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
	Elif   bool
	Pos    Pos
}

// Return is a return statement; Value is nil for a bare return.
type Return struct {
	Value Expr
	Pos   Pos
}

// Raise is a raise statement; Exc is nil for a bare re-raise.
type Raise struct {
	Exc Expr
	Pos Pos
}

// Assert is `assert test[, msg]`.
type Assert struct {
	Test Expr
	Msg  Expr
	Pos  Pos
}

// Pass is a pass statement.
type Pass struct {
	Pos Pos
}

// ExprStmt is an expression evaluated for its effect (or a docstring).
type ExprStmt struct {
	Value Expr
	Pos   Pos
}

// ImportStmt is `import a.b as c` or `from a.b import x as y`.
type ImportStmt struct {
	Module string // dotted, with leading dots for relative imports
	Names  []ImportName
	From   bool
	Pos    Pos
}

// ImportName is one imported name with its optional alias.
type ImportName struct {
	Name  string
	Alias string
}

// UnsupportedStmt is a statement outside the translatable subset that was
// still parsed so the rest of the file can be processed.
type UnsupportedStmt struct {
	What string
	Pos  Pos
}

func (s *FunctionDef) Position() Pos     { return s.Pos }
func (s *ClassDef) Position() Pos        { return s.Pos }
func (s *Assign) Position() Pos          { return s.Pos }
func (s *AnnAssign) Position() Pos       { return s.Pos }
func (s *AugAssign) Position() Pos       { return s.Pos }
func (s *If) Position() Pos              { return s.Pos }
func (s *Return) Position() Pos          { return s.Pos }
func (s *Raise) Position() Pos           { return s.Pos }
func (s *Assert) Position() Pos          { return s.Pos }
func (s *Pass) Position() Pos            { return s.Pos }
func (s *ExprStmt) Position() Pos        { return s.Pos }
func (s *ImportStmt) Position() Pos      { return s.Pos }
func (s *UnsupportedStmt) Position() Pos { return s.Pos }

func (*FunctionDef) stmtNode()     {}
func (*ClassDef) stmtNode()        {}
func (*Assign) stmtNode()          {}
func (*AnnAssign) stmtNode()       {}
func (*AugAssign) stmtNode()       {}
func (*If) stmtNode()              {}
func (*Return) stmtNode()          {}
func (*Raise) stmtNode()           {}
func (*Assert) stmtNode()          {}
func (*Pass) stmtNode()            {}
func (*ExprStmt) stmtNode()        {}
func (*ImportStmt) stmtNode()      {}
func (*UnsupportedStmt) stmtNode() {}

// Expressions.

// Name is an identifier reference.
type Name struct {
	ID  string
	Pos Pos
}

// IntLit is an integer literal; Value is its decimal spelling.
type IntLit struct {
	Value string
	Pos   Pos
}

// StrLit is a (possibly concatenated) string or bytes literal.
type StrLit struct {
	Value string
	Bytes bool
	Pos   Pos
}

// BoolLit is True or False.
type BoolLit struct {
	Value bool
	Pos   Pos
}

// NoneLit is None.
type NoneLit struct {
	Pos Pos
}

// Attribute is `value.attr`.
type Attribute struct {
	Value Expr
	Attr  string
	Pos   Pos
}

// Subscript is `value[index]`.
type Subscript struct {
	Value Expr
	Index Expr
	Pos   Pos
}

// Call is `fn(args, name=value)`.
type Call struct {
	Func     Expr
	Args     []Expr
	Keywords []Keyword
	Pos      Pos
}

// Keyword is one `name=value` call argument.
type Keyword struct {
	Name  string
	Value Expr
	Pos   Pos
}

// BinOp is an arithmetic or bitwise binary operation. Op is the source
// spelling ("+", "//", "<<", ...).
type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Pos
}

// UnaryOp is "-x", "+x", "~x" or "not x".
type UnaryOp struct {
	Op      string
	Operand Expr
	Pos     Pos
}

// BoolOp is a chain of "and" or "or".
type BoolOp struct {
	Op     string
	Values []Expr
	Pos    Pos
}

// Compare is a possibly chained comparison: Left Ops[0] Comparators[0] ...
// Ops use the source spelling, with "not in" and "is not" as single entries.
type Compare struct {
	Left        Expr
	Ops         []string
	Comparators []Expr
	Pos         Pos
}

// ListExpr is a list display.
type ListExpr struct {
	Elts []Expr
	Pos  Pos
}

// TupleExpr is a tuple display, parenthesized or bare.
type TupleExpr struct {
	Elts []Expr
	Pos  Pos
}

// IfExp is `body if test else orelse`.
type IfExp struct {
	Test   Expr
	Body   Expr
	Orelse Expr
	Pos    Pos
}

// UnsupportedExpr is an expression outside the translatable subset
// (lambda, comprehension, dict display, f-string, float, ...).
type UnsupportedExpr struct {
	What string
	Pos  Pos
}

func (e *Name) Position() Pos            { return e.Pos }
func (e *IntLit) Position() Pos          { return e.Pos }
func (e *StrLit) Position() Pos          { return e.Pos }
func (e *BoolLit) Position() Pos         { return e.Pos }
func (e *NoneLit) Position() Pos         { return e.Pos }
func (e *Attribute) Position() Pos       { return e.Pos }
func (e *Subscript) Position() Pos       { return e.Pos }
func (e *Call) Position() Pos            { return e.Pos }
func (e *BinOp) Position() Pos           { return e.Pos }
func (e *UnaryOp) Position() Pos         { return e.Pos }
func (e *BoolOp) Position() Pos          { return e.Pos }
func (e *Compare) Position() Pos         { return e.Pos }
func (e *ListExpr) Position() Pos        { return e.Pos }
func (e *TupleExpr) Position() Pos       { return e.Pos }
func (e *IfExp) Position() Pos           { return e.Pos }
func (e *UnsupportedExpr) Position() Pos { return e.Pos }

func (*Name) exprNode()            {}
func (*IntLit) exprNode()          {}
func (*StrLit) exprNode()          {}
func (*BoolLit) exprNode()         {}
func (*NoneLit) exprNode()         {}
func (*Attribute) exprNode()       {}
func (*Subscript) exprNode()       {}
func (*Call) exprNode()            {}
func (*BinOp) exprNode()           {}
func (*UnaryOp) exprNode()         {}
func (*BoolOp) exprNode()          {}
func (*Compare) exprNode()         {}
func (*ListExpr) exprNode()        {}
func (*TupleExpr) exprNode()       {}
func (*IfExp) exprNode()           {}
func (*UnsupportedExpr) exprNode() {}

// Inspect traverses e depth-first, calling f for each node. If f returns
// false the children of that node are skipped.
func Inspect(e Expr, f func(Expr) bool) {
	if e == nil || !f(e) {
		return
	}
	switch n := e.(type) {
	case *Attribute:
		Inspect(n.Value, f)
	case *Subscript:
		Inspect(n.Value, f)
		Inspect(n.Index, f)
	case *Call:
		Inspect(n.Func, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
		for _, k := range n.Keywords {
			Inspect(k.Value, f)
		}
	case *BinOp:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *UnaryOp:
		Inspect(n.Operand, f)
	case *BoolOp:
		for _, v := range n.Values {
			Inspect(v, f)
		}
	case *Compare:
		Inspect(n.Left, f)
		for _, c := range n.Comparators {
			Inspect(c, f)
		}
	case *ListExpr:
		for _, x := range n.Elts {
			Inspect(x, f)
		}
	case *TupleExpr:
		for _, x := range n.Elts {
			Inspect(x, f)
		}
	case *IfExp:
		Inspect(n.Test, f)
		Inspect(n.Body, f)
		Inspect(n.Orelse, f)
	}
}

// DottedName returns "a.b.c" for a Name/Attribute chain, or "" otherwise.
func DottedName(e Expr) string {
	switch n := e.(type) {
	case *Name:
		return n.ID
	case *Attribute:
		base := DottedName(n.Value)
		if base == "" {
			return ""
		}
		return base + "." + n.Attr
	}
	return ""
}
