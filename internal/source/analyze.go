package source

import (
	"errors"
	"strings"

	"github.com/roach88/pyken/internal/diag"
)

// File is the metadata extracted from one source file.
type File struct {
	Path      string
	Text      string
	Functions []*FunctionMetadata // source order
	Classes   []*ClassDecl        // type declarations, source order
	Imports   []Import            // passthrough imports, source order
}

// FunctionMetadata describes one translatable function as written.
type FunctionMetadata struct {
	Name       string
	Owner      string // enclosing validator class, empty for top-level functions
	Params     []Param
	Decorators []Decorator
	Returns    Expr // nil when unannotated
	Body       []Stmt
	Pos        Pos
	Index      int // ordinal in the file, for stable source ordering

	// Issues holds the unsupported constructs found in the function. Any
	// entry excludes the function from output.
	Issues diag.List
}

// QualifiedName returns Owner.Name for methods and Name otherwise.
func (f *FunctionMetadata) QualifiedName() string {
	if f.Owner == "" {
		return f.Name
	}
	return f.Owner + "." + f.Name
}

// Param is one parameter. Order is significant and never changed.
type Param struct {
	Name       string
	Annotation Expr
	Default    Expr
	Pos        Pos
}

// Decorator is a decorator reduced to its dotted name and any literal
// arguments: @validator("spend") is {Name: "validator", Args: ["spend"]}.
type Decorator struct {
	Name string
	Args []string
	Pos  Pos
}

// ClassKind classifies a class declared at module level.
type ClassKind int

const (
	// ClassRecord is a class of annotated fields.
	ClassRecord ClassKind = iota
	// ClassEnum is a class whose body assigns literal tags.
	ClassEnum
	// ClassUnit is an empty class.
	ClassUnit
)

func (k ClassKind) String() string {
	switch k {
	case ClassRecord:
		return "record"
	case ClassEnum:
		return "enum"
	default:
		return "unit"
	}
}

// ClassDecl is a class that becomes a type declaration.
type ClassDecl struct {
	Name   string
	Kind   ClassKind
	Fields []Field  // records
	Tags   []string // enums, declaration order
	Pos    Pos
}

// Field is one annotated record field.
type Field struct {
	Name       string
	Annotation Expr
	Pos        Pos
}

// Import is one imported name. For `import a.b as c`, Name is empty.
type Import struct {
	Module string
	Name   string
	Alias  string
	Pos    Pos
}

// Binding returns the local name the import introduces.
func (i Import) Binding() string {
	switch {
	case i.Alias != "":
		return i.Alias
	case i.Name != "":
		return i.Name
	default:
		return strings.SplitN(i.Module, ".", 2)[0]
	}
}

// sourceOnlyModules provide decorators and annotations in the source
// language and have no target counterpart.
var sourceOnlyModules = map[string]bool{
	"__future__":  true,
	"abc":         true,
	"dataclasses": true,
	"decorators":  true,
	"enum":        true,
	"pyken":       true,
	"typing":      true,
}

// handlerNames are the method names that make a class a validator.
var handlerNames = map[string]bool{
	"spend":    true,
	"mint":     true,
	"withdraw": true,
	"publish":  true,
	"else_":    true,
	"fallback": true,
}

// Load parses text and extracts its metadata. A syntax error yields one
// ParseError diagnostic and a nil File. The returned list holds
// module-level diagnostics only; function-scoped ones live in Issues.
func Load(path, text string) (*File, diag.List) {
	mod, err := Parse(text)
	if err != nil {
		var diags diag.List
		var se *SyntaxError
		if errors.As(err, &se) {
			diags.Add(diag.KindParseError, path, se.Pos, "", "%s", se.Message)
		} else {
			diags.Add(diag.KindParseError, path, Pos{}, "", "%v", err)
		}
		return nil, diags
	}
	return Analyze(path, text, mod)
}

// Analyze extracts functions, type declarations and imports from a parsed
// module and records every construct outside the supported subset.
func Analyze(path, text string, mod *Module) (*File, diag.List) {
	a := &analyzer{file: &File{Path: path, Text: text}}
	for _, s := range mod.Body {
		a.moduleStmt(s)
	}
	return a.file, a.diags
}

type analyzer struct {
	file  *File
	diags diag.List
	index int
}

func (a *analyzer) moduleStmt(s Stmt) {
	switch n := s.(type) {
	case *FunctionDef:
		a.file.Functions = append(a.file.Functions, a.function(n, ""))
	case *ClassDef:
		a.class(n)
	case *ImportStmt:
		a.importStmt(n)
	case *If:
		if isMainGuard(n.Test) {
			return
		}
		a.unsupported(n.Pos, "", "module-level if statement")
	case *ExprStmt:
		if _, ok := n.Value.(*StrLit); ok {
			return // docstring
		}
		a.unsupported(n.Pos, "", "module-level expression statement")
	case *Assign:
		if len(n.Targets) == 1 && isName(n.Targets[0]) && isLiteral(n.Value) {
			return // constant
		}
		a.unsupported(n.Pos, "", "module-level assignment")
	case *AnnAssign:
		if isName(n.Target) && (n.Value == nil || isLiteral(n.Value)) {
			return
		}
		a.unsupported(n.Pos, "", "module-level assignment")
	case *Pass:
	case *UnsupportedStmt:
		a.unsupported(n.Pos, "", n.What)
	default:
		a.unsupported(s.Position(), "", "module-level statement")
	}
}

func (a *analyzer) unsupported(pos Pos, function, what string) {
	a.diags.Add(diag.KindUnsupportedConstruct, a.file.Path, pos, function, "%s is not supported", what)
}

func (a *analyzer) importStmt(n *ImportStmt) {
	if !n.From {
		for _, name := range n.Names {
			if sourceOnlyModules[rootModule(name.Name)] {
				continue
			}
			a.file.Imports = append(a.file.Imports, Import{Module: name.Name, Alias: name.Alias, Pos: n.Pos})
		}
		return
	}
	if sourceOnlyModules[rootModule(n.Module)] {
		return
	}
	for _, name := range n.Names {
		if name.Name == "*" {
			a.unsupported(n.Pos, "", "wildcard import")
			continue
		}
		a.file.Imports = append(a.file.Imports, Import{Module: n.Module, Name: name.Name, Alias: name.Alias, Pos: n.Pos})
	}
}

func rootModule(dotted string) string {
	return strings.SplitN(dotted, ".", 2)[0]
}

func (a *analyzer) class(cd *ClassDef) {
	body := stripDocstring(cd.Body)

	var methods []*FunctionDef
	for _, s := range body {
		if fd, ok := s.(*FunctionDef); ok {
			methods = append(methods, fd)
		}
	}
	if len(methods) > 0 {
		a.validatorClass(cd, body, methods)
		return
	}

	decl := &ClassDecl{Name: cd.Name, Pos: cd.Pos}
	switch {
	case len(body) == 0 || allPass(body):
		decl.Kind = ClassUnit
	case allEnumTags(body):
		decl.Kind = ClassEnum
		for _, s := range body {
			if as, ok := s.(*Assign); ok {
				decl.Tags = append(decl.Tags, as.Targets[0].(*Name).ID)
			}
		}
	case allFields(body):
		decl.Kind = ClassRecord
		for _, s := range body {
			if an, ok := s.(*AnnAssign); ok {
				decl.Fields = append(decl.Fields, Field{
					Name:       an.Target.(*Name).ID,
					Annotation: an.Annotation,
					Pos:        an.Pos,
				})
			}
		}
	default:
		a.unsupported(cd.Pos, cd.Name, "class body mixing fields, tags and statements")
		return
	}
	a.file.Classes = append(a.file.Classes, decl)
}

func (a *analyzer) validatorClass(cd *ClassDef, body []Stmt, methods []*FunctionDef) {
	for _, s := range body {
		switch n := s.(type) {
		case *FunctionDef:
			if !handlerNames[n.Name] {
				a.unsupported(n.Pos, cd.Name+"."+n.Name, "validator class method "+n.Name)
				return
			}
		case *Pass:
		default:
			a.unsupported(s.Position(), cd.Name, "statement in validator class")
			return
		}
	}
	for _, m := range methods {
		a.file.Functions = append(a.file.Functions, a.function(m, cd.Name))
	}
}

func (a *analyzer) function(fd *FunctionDef, owner string) *FunctionMetadata {
	fn := &FunctionMetadata{
		Name:    fd.Name,
		Owner:   owner,
		Returns: fd.Returns,
		Body:    fd.Body,
		Pos:     fd.Pos,
		Index:   a.index,
	}
	a.index++
	qname := fn.QualifiedName()
	issue := func(pos Pos, what string) {
		fn.Issues.Add(diag.KindUnsupportedConstruct, a.file.Path, pos, qname, "%s is not supported", what)
	}

	if fd.Async {
		issue(fd.Pos, "async function")
	}

	static := false
	for _, d := range fd.Decorators {
		dec, ok := decorator(d)
		if !ok {
			issue(d.Position(), "decorator expression")
			continue
		}
		if dec.Name == "staticmethod" || dec.Name == "classmethod" {
			static = true
		}
		fn.Decorators = append(fn.Decorators, dec)
	}

	params := fd.Params
	if owner != "" && !static && len(params) > 0 && params[0].Name == "self" {
		params = params[1:]
	}
	for _, p := range params {
		switch p.Star {
		case "*", "**":
			if p.Name == "" {
				issue(p.Pos, "keyword-only parameter marker")
			} else {
				issue(p.Pos, "variadic parameter "+p.Star+p.Name)
			}
			continue
		case "/":
			issue(p.Pos, "positional-only parameter marker")
			continue
		}
		if p.Default != nil {
			a.checkExpr(p.Default, issue)
		}
		fn.Params = append(fn.Params, Param{Name: p.Name, Annotation: p.Annotation, Default: p.Default, Pos: p.Pos})
	}

	a.checkBlock(fd.Body, issue)
	return fn
}

// decorator reduces @name, @a.b and @name("lit", ...) to a Decorator.
func decorator(e Expr) (Decorator, bool) {
	if name := DottedName(e); name != "" {
		return Decorator{Name: name, Pos: e.Position()}, true
	}
	call, ok := e.(*Call)
	if !ok || len(call.Keywords) > 0 {
		return Decorator{}, false
	}
	name := DottedName(call.Func)
	if name == "" {
		return Decorator{}, false
	}
	dec := Decorator{Name: name, Pos: e.Position()}
	for _, arg := range call.Args {
		switch v := arg.(type) {
		case *StrLit:
			dec.Args = append(dec.Args, v.Value)
		case *Name:
			dec.Args = append(dec.Args, v.ID)
		default:
			return Decorator{}, false
		}
	}
	return dec, true
}

func (a *analyzer) checkBlock(stmts []Stmt, issue func(Pos, string)) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *FunctionDef:
			issue(n.Pos, "nested function definition")
		case *ClassDef:
			issue(n.Pos, "nested class definition")
		case *ImportStmt:
			issue(n.Pos, "import inside a function")
		case *UnsupportedStmt:
			issue(n.Pos, n.What)
		case *Assign:
			if len(n.Targets) != 1 {
				issue(n.Pos, "chained assignment")
			} else if what := targetKind(n.Targets[0]); what != "" {
				issue(n.Targets[0].Position(), "assignment to "+what)
			}
			a.checkExpr(n.Value, issue)
		case *AnnAssign:
			if what := targetKind(n.Target); what != "" {
				issue(n.Target.Position(), "assignment to "+what)
			}
			if n.Value == nil {
				issue(n.Pos, "declaration without a value")
			} else {
				a.checkExpr(n.Value, issue)
			}
		case *AugAssign:
			if what := targetKind(n.Target); what != "" {
				issue(n.Target.Position(), "augmented assignment to "+what)
			}
			a.checkExpr(n.Value, issue)
		case *If:
			a.checkExpr(n.Test, issue)
			a.checkBlock(n.Body, issue)
			a.checkBlock(n.Orelse, issue)
		case *Return:
			if n.Value != nil {
				a.checkExpr(n.Value, issue)
			}
		case *Raise:
			if n.Exc != nil {
				a.checkExpr(n.Exc, issue)
			}
		case *Assert:
			a.checkExpr(n.Test, issue)
			if n.Msg != nil {
				a.checkExpr(n.Msg, issue)
			}
		case *ExprStmt:
			if _, ok := n.Value.(*StrLit); ok {
				continue // docstring or bare string
			}
			if _, ok := TraceMessage(n.Value); ok {
				continue
			}
			issue(n.Pos, "expression statement")
		case *Pass:
		}
	}
}

// checkExpr reports the outermost unsupported sites of an expression.
func (a *analyzer) checkExpr(e Expr, issue func(Pos, string)) {
	Inspect(e, func(x Expr) bool {
		switch n := x.(type) {
		case *UnsupportedExpr:
			issue(n.Pos, n.What)
			return false
		case *Attribute:
			if !isName(n.Value) {
				issue(n.Pos, "nested attribute access")
				return false
			}
		case *Subscript:
			if !isName(n.Value) {
				issue(n.Pos, "nested subscript access")
				return false
			}
			if _, ok := n.Index.(*TupleExpr); ok {
				issue(n.Index.Position(), "multi-dimensional subscript")
				return false
			}
		case *Call:
			switch f := n.Func.(type) {
			case *Name:
			case *Attribute:
				if !isName(f.Value) {
					issue(n.Pos, "nested attribute access")
					return false
				}
			default:
				issue(n.Pos, "call of a computed function")
				return false
			}
		}
		return true
	})
}

// TraceMessage returns the message of a print call with one plain string
// literal argument, the only expression statement with a translation.
func TraceMessage(e Expr) (string, bool) {
	call, ok := e.(*Call)
	if !ok || len(call.Args) != 1 || len(call.Keywords) != 0 {
		return "", false
	}
	if fn, ok := call.Func.(*Name); !ok || fn.ID != "print" {
		return "", false
	}
	lit, ok := call.Args[0].(*StrLit)
	if !ok || lit.Bytes {
		return "", false
	}
	return lit.Value, true
}

// targetKind returns a description of an assignment target that is not a
// plain name, or "" for a name.
func targetKind(e Expr) string {
	switch e.(type) {
	case *Name:
		return ""
	case *TupleExpr, *ListExpr:
		return "multiple targets"
	case *Attribute:
		return "an attribute"
	case *Subscript:
		return "a subscript"
	default:
		return "an expression"
	}
}

func isName(e Expr) bool {
	_, ok := e.(*Name)
	return ok
}

func isLiteral(e Expr) bool {
	switch v := e.(type) {
	case *IntLit, *StrLit, *BoolLit, *NoneLit:
		return true
	case *UnaryOp:
		_, ok := v.Operand.(*IntLit)
		return v.Op == "-" && ok
	}
	return false
}

func isMainGuard(e Expr) bool {
	cmp, ok := e.(*Compare)
	if !ok || len(cmp.Ops) != 1 || cmp.Ops[0] != "==" {
		return false
	}
	pair := []Expr{cmp.Left, cmp.Comparators[0]}
	for i := range pair {
		name, ok1 := pair[i].(*Name)
		lit, ok2 := pair[1-i].(*StrLit)
		if ok1 && ok2 && name.ID == "__name__" && lit.Value == "__main__" {
			return true
		}
	}
	return false
}

func stripDocstring(body []Stmt) []Stmt {
	if len(body) > 0 {
		if es, ok := body[0].(*ExprStmt); ok {
			if _, ok := es.Value.(*StrLit); ok {
				return body[1:]
			}
		}
	}
	return body
}

func allPass(body []Stmt) bool {
	for _, s := range body {
		if _, ok := s.(*Pass); !ok {
			return false
		}
	}
	return true
}

func allEnumTags(body []Stmt) bool {
	found := false
	for _, s := range body {
		switch n := s.(type) {
		case *Assign:
			if len(n.Targets) != 1 || !isName(n.Targets[0]) || !isLiteral(n.Value) {
				return false
			}
			found = true
		case *Pass:
		default:
			return false
		}
	}
	return found
}

func allFields(body []Stmt) bool {
	found := false
	for _, s := range body {
		switch n := s.(type) {
		case *AnnAssign:
			if !isName(n.Target) || n.Value != nil {
				return false
			}
			found = true
		case *Pass:
		default:
			return false
		}
	}
	return found
}
