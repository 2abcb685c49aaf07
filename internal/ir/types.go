package ir

import (
	"fmt"
	"strings"

	"github.com/roach88/pyken/internal/diag"
)

// TypeRef names a target type with its generic arguments. Module is the
// import path that provides Name, empty for prelude types.
type TypeRef struct {
	Name   string    `json:"name"`
	Args   []TypeRef `json:"args,omitempty"`
	Module string    `json:"module,omitempty"`
}

// Prelude types.
var (
	DataType      = TypeRef{Name: "Data"}
	IntType       = TypeRef{Name: "Int"}
	BoolType      = TypeRef{Name: "Bool"}
	StringType    = TypeRef{Name: "String"}
	ByteArrayType = TypeRef{Name: "ByteArray"}
	VoidType      = TypeRef{Name: "Void"}
)

// OptionOf wraps t in Option.
func OptionOf(t TypeRef) TypeRef {
	return TypeRef{Name: "Option", Args: []TypeRef{t}}
}

// ListOf wraps t in List.
func ListOf(t TypeRef) TypeRef {
	return TypeRef{Name: "List", Args: []TypeRef{t}}
}

// String renders the type in target syntax, e.g. Option<Data>.
func (t TypeRef) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Name, strings.Join(args, ", "))
}

// IsZero reports whether t is unset.
func (t TypeRef) IsZero() bool {
	return t.Name == ""
}

// Same reports whether two types have the same rendering.
func (t TypeRef) Same(u TypeRef) bool {
	return t.String() == u.String()
}

// Uses calls fn for every (module, name) pair t needs imported, including
// those of its arguments.
func (t TypeRef) Uses(fn func(module, name string)) {
	if t.Module != "" {
		fn(t.Module, t.Name)
	}
	for _, a := range t.Args {
		a.Uses(fn)
	}
}

// ValidatorKind is the closed set of handler kinds.
type ValidatorKind int

const (
	KindSpend ValidatorKind = iota
	KindMint
	KindWithdraw
	KindPublish
	KindFallback
)

var kindNames = [...]string{"spend", "mint", "withdraw", "publish", "fallback"}

func (k ValidatorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Handler returns the handler name inside a validator block.
func (k ValidatorKind) Handler() string {
	if k == KindFallback {
		return "else"
	}
	return k.String()
}

// ParseValidatorKind maps a marker name to a kind. "else", "else_" and
// "fallback" all name the fallback handler.
func ParseValidatorKind(s string) (ValidatorKind, bool) {
	switch s {
	case "spend":
		return KindSpend, true
	case "mint":
		return KindMint, true
	case "withdraw":
		return KindWithdraw, true
	case "publish":
		return KindPublish, true
	case "else", "else_", "fallback":
		return KindFallback, true
	}
	return 0, false
}

// Role is the meaning of one validator parameter.
type Role int

const (
	RoleDatum Role = iota
	RoleRedeemer
	RoleContext
)

func (r Role) String() string {
	switch r {
	case RoleDatum:
		return "datum"
	case RoleRedeemer:
		return "redeemer"
	case RoleContext:
		return "context"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// roleTable is the arity table: the exact parameter roles, in order, each
// kind requires.
var roleTable = map[ValidatorKind][]Role{
	KindSpend:    {RoleDatum, RoleRedeemer, RoleContext},
	KindMint:     {RoleRedeemer, RoleContext},
	KindWithdraw: {RoleRedeemer, RoleContext},
	KindPublish:  {RoleRedeemer, RoleContext},
	KindFallback: {RoleContext},
}

// Roles returns a copy of the role list required for kind k.
func (k ValidatorKind) Roles() []Role {
	return append([]Role(nil), roleTable[k]...)
}

// Param is one mapped parameter.
type Param struct {
	Name string
	Type TypeRef
	Pos  diag.Pos
}

// ValidatorSpec is one validated handler with its translated body.
type ValidatorSpec struct {
	Block  string // validator block name: owner class or function name
	Name   string // source function name
	Kind   ValidatorKind
	Roles  []Role
	Params []Param
	Body   Node
	Pos    diag.Pos
	Index  int // source order within the file
}

// HelperSpec is a plain function, not subject to the arity table.
type HelperSpec struct {
	Name   string
	Params []Param
	Return TypeRef
	Body   Node
	Pos    diag.Pos
	Index  int
}

// TestSpec is a parameterless test function.
type TestSpec struct {
	Name  string
	Body  Node
	Pos   diag.Pos
	Index int
}

// DeclKind classifies a type declaration.
type DeclKind int

const (
	DeclRecord DeclKind = iota
	DeclEnum
	DeclUnit
)

func (k DeclKind) String() string {
	switch k {
	case DeclRecord:
		return "record"
	case DeclEnum:
		return "enum"
	default:
		return "unit"
	}
}

// FieldDecl is one record field.
type FieldDecl struct {
	Name string
	Type TypeRef
}

// TypeDecl is a type declared in the source file.
type TypeDecl struct {
	Name   string
	Kind   DeclKind
	Fields []FieldDecl // records
	Tags   []string    // enums
	Pos    diag.Pos
}

// Import is a passthrough import of a target module. Name is empty for a
// whole-module import.
type Import struct {
	Module string // slash-separated target path
	Name   string
	Alias  string
}

// Module is the IR of one source file.
type Module struct {
	Source     string // path relative to the input root
	Digest     string // SourceDigest of the file text
	Imports    []Import
	Types      []TypeDecl
	Validators []ValidatorSpec
	Helpers    []HelperSpec
	Tests      []TestSpec
}

// Empty reports whether nothing in the module survived translation.
func (m *Module) Empty() bool {
	return len(m.Validators) == 0 && len(m.Helpers) == 0 && len(m.Tests) == 0
}
