package source

import "fmt"

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenNewline
	TokenIndent
	TokenDedent

	TokenName
	TokenKeyword
	TokenInt
	TokenFloat
	TokenString
	TokenOp
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:     "end of file",
	TokenNewline: "newline",
	TokenIndent:  "indent",
	TokenDedent:  "dedent",
	TokenName:    "name",
	TokenKeyword: "keyword",
	TokenInt:     "integer",
	TokenFloat:   "float",
	TokenString:  "string",
	TokenOp:      "operator",
}

func (k TokenKind) String() string {
	if s, ok := tokenKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is one lexical unit. Text holds the source spelling for names,
// keywords, numbers and operators; Value holds the decoded contents of
// string literals.
type Token struct {
	Kind  TokenKind
	Text  string
	Value string
	Bytes bool // b"..." literal
	Fmt   bool // f"..." literal
	Pos   Pos
}

func (t Token) String() string {
	switch t.Kind {
	case TokenName, TokenKeyword, TokenOp, TokenInt, TokenFloat:
		return fmt.Sprintf("%q", t.Text)
	case TokenString:
		return "string literal"
	default:
		return t.Kind.String()
	}
}

// keywords is the full Python keyword set. Keywords outside the supported
// subset still lex as keywords so the parser can report them precisely.
var keywords = map[string]struct{}{
	"False": {}, "None": {}, "True": {},
	"and": {}, "as": {}, "assert": {}, "async": {}, "await": {},
	"break": {}, "class": {}, "continue": {}, "def": {}, "del": {},
	"elif": {}, "else": {}, "except": {}, "finally": {}, "for": {},
	"from": {}, "global": {}, "if": {}, "import": {}, "in": {},
	"is": {}, "lambda": {}, "nonlocal": {}, "not": {}, "or": {},
	"pass": {}, "raise": {}, "return": {}, "try": {}, "while": {},
	"with": {}, "yield": {},
}

func isKeyword(s string) bool {
	_, ok := keywords[s]
	return ok
}

// operators lists every operator, longest first so the lexer can match greedily.
var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"->", ":=", "**", "//", "<<", ">>", "<=", ">=", "==", "!=",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~", "<", ">",
	"(", ")", "[", "]", "{", "}", ",", ":", ".", ";", "=",
}
