package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestLexerIndentation(t *testing.T) {
	src := "def f(x):\n    if x:\n        return 1\n    return 2\n"
	tokens, err := NewLexer(src).Tokenize()
	require.NoError(t, err)

	assert.Equal(t, []TokenKind{
		TokenKeyword, TokenName, TokenOp, TokenName, TokenOp, TokenOp, TokenNewline,
		TokenIndent, TokenKeyword, TokenName, TokenOp, TokenNewline,
		TokenIndent, TokenKeyword, TokenInt, TokenNewline,
		TokenDedent, TokenKeyword, TokenInt, TokenNewline,
		TokenDedent, TokenEOF,
	}, kinds(tokens))
}

func TestLexerSkipsBlankAndCommentLines(t *testing.T) {
	src := "x = 1\n\n   # comment\n\ny = 2  # trailing\n"
	tokens, err := NewLexer(src).Tokenize()
	require.NoError(t, err)

	assert.Equal(t, []TokenKind{
		TokenName, TokenOp, TokenInt, TokenNewline,
		TokenName, TokenOp, TokenInt, TokenNewline,
		TokenEOF,
	}, kinds(tokens))
	assert.Equal(t, Pos{Line: 5, Column: 1}, tokens[4].Pos)
}

func TestLexerImplicitLineJoining(t *testing.T) {
	src := "f(a,\n  b)\nx = 1 + \\\n  2\n"
	tokens, err := NewLexer(src).Tokenize()
	require.NoError(t, err)

	var newlines int
	for _, tok := range tokens {
		if tok.Kind == TokenNewline {
			newlines++
		}
		assert.NotEqual(t, TokenIndent, tok.Kind)
	}
	assert.Equal(t, 2, newlines)
}

func TestLexerMissingTrailingNewline(t *testing.T) {
	tokens, err := NewLexer("def f():\n    return True").Tokenize()
	require.NoError(t, err)

	n := len(tokens)
	assert.Equal(t, []TokenKind{TokenNewline, TokenDedent, TokenEOF}, kinds(tokens[n-3:]))
}

func TestLexerIntegers(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"42", "42"},
		{"1_000_000", "1000000"},
		{"0x1F", "31"},
		{"0o17", "15"},
		{"0b101", "5"},
		{"0", "0"},
		{"123456789012345678901234567890", "123456789012345678901234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tokens, err := NewLexer(tt.src).Tokenize()
			require.NoError(t, err)
			require.Equal(t, TokenInt, tokens[0].Kind)
			assert.Equal(t, tt.want, tokens[0].Value)
		})
	}
}

func TestLexerFloats(t *testing.T) {
	for _, src := range []string{"1.5", ".5", "1e10", "2.5e-3", "3j"} {
		tokens, err := NewLexer(src).Tokenize()
		require.NoError(t, err, src)
		assert.Equal(t, TokenFloat, tokens[0].Kind, src)
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		value string
		bytes bool
		fmt   bool
	}{
		{"double", `"hello"`, "hello", false, false},
		{"single", `'it'`, "it", false, false},
		{"escapes", `"a\nb\t\"c\""`, "a\nb\t\"c\"", false, false},
		{"raw", `r"a\nb"`, `a\nb`, false, false},
		{"bytes", `b"abc"`, "abc", true, false},
		{"bytes hex", `b"\x00\xff"`, "\x00\xff", true, false},
		{"unicode escape", `"\u00e9"`, "é", false, false},
		{"triple", "\"\"\"line1\nline2\"\"\"", "line1\nline2", false, false},
		{"fstring", `f"{x}"`, "{x}", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewLexer(tt.src).Tokenize()
			require.NoError(t, err)
			require.Equal(t, TokenString, tokens[0].Kind)
			assert.Equal(t, tt.value, tokens[0].Value)
			assert.Equal(t, tt.bytes, tokens[0].Bytes)
			assert.Equal(t, tt.fmt, tokens[0].Fmt)
		})
	}
}

func TestLexerNormalizesIdentifiers(t *testing.T) {
	// U+FB01 LATIN SMALL LIGATURE FI normalizes to "fi" under NFKC.
	tokens, err := NewLexer("\ufb01le = 1").Tokenize()
	require.NoError(t, err)
	assert.Equal(t, "file", tokens[0].Text)
}

func TestLexerOperatorsAreGreedy(t *testing.T) {
	tokens, err := NewLexer("a //= b ** c -> d != e").Tokenize()
	require.NoError(t, err)

	var ops []string
	for _, tok := range tokens {
		if tok.Kind == TokenOp {
			ops = append(ops, tok.Text)
		}
	}
	assert.Equal(t, []string{"//=", "**", "->", "!="}, ops)
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
		pos  Pos
	}{
		{"unterminated", "x = \"abc\n", "unterminated string literal", Pos{Line: 1, Column: 5}},
		{"bad dedent", "if x:\n    a = 1\n  b = 2\n", "unindent does not match any outer indentation level", Pos{Line: 3, Column: 3}},
		{"mixed tabs", "if x:\n \ta = 1\n", "inconsistent use of tabs and spaces in indentation", Pos{Line: 2, Column: 3}},
		{"stray char", "x = $\n", `invalid character '$'`, Pos{Line: 1, Column: 5}},
		{"leading zero", "x = 012\n", "leading zeros in decimal integer literals are not permitted", Pos{Line: 1, Column: 5}},
		{"non-ascii bytes", "x = b\"é\"\n", "bytes can only contain ASCII literal characters", Pos{Line: 1, Column: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.src).Tokenize()
			require.Error(t, err)

			var se *SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.msg, se.Message)
			assert.Equal(t, tt.pos, se.Pos)
		})
	}
}

func TestSyntaxErrorFormatWithContext(t *testing.T) {
	_, err := NewLexer("x = 1\ny = $\n").Tokenize()
	require.Error(t, err)

	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "error: invalid character '$'\n"+
		"  --> line 2:5\n"+
		"   |\n"+
		"  2| y = $\n"+
		"   |     ^\n", se.FormatWithContext())
}
