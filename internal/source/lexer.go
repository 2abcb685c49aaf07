package source

import (
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Lexer tokenizes Python source, producing NEWLINE, INDENT and DEDENT tokens
// for the block structure the parser consumes.
type Lexer struct {
	text   string
	src    []rune
	pos    int
	line   int
	column int

	depth       int   // open bracket nesting; newlines inside brackets are whitespace
	indents     []int // indentation stack, always starts with 0
	atLineStart bool
	tokens      []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	src := []rune(source)
	est := len(src) / 5
	if est < 16 {
		est = 16
	}
	return &Lexer{
		text:        source,
		src:         src,
		line:        1,
		column:      1,
		indents:     []int{0},
		atLineStart: true,
		tokens:      make([]Token, 0, est),
	}
}

// Tokenize returns all tokens from the source, ending with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	// Skip a UTF-8 byte order mark.
	if len(l.src) > 0 && l.src[0] == '\uFEFF' {
		l.pos++
	}

	for {
		if l.atLineStart && l.depth == 0 {
			eof, err := l.indentation()
			if err != nil {
				return nil, err
			}
			if eof {
				break
			}
		}
		if l.isAtEnd() {
			break
		}
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}

	if n := len(l.tokens); n > 0 && l.tokens[n-1].Kind != TokenNewline && l.tokens[n-1].Kind != TokenDedent {
		l.emit(TokenNewline, "", l.here())
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(TokenDedent, "", l.here())
	}
	l.emit(TokenEOF, "", l.here())
	return l.tokens, nil
}

// indentation measures the leading whitespace of the next non-blank line and
// emits INDENT/DEDENT tokens. Blank and comment-only lines are skipped.
func (l *Lexer) indentation() (bool, error) {
	for {
		width := 0
		sawTab, sawSpace := false, false
		for !l.isAtEnd() {
			r := l.peek()
			if r == ' ' {
				width++
				sawSpace = true
			} else if r == '\t' {
				width = (width/8 + 1) * 8
				sawTab = true
			} else if r == '\f' {
				width = 0
			} else {
				break
			}
			l.advance()
		}
		if l.isAtEnd() {
			return true, nil
		}

		switch l.peek() {
		case '#':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
			continue
		case '\r':
			l.advance()
			continue
		case '\n':
			l.advance()
			continue
		}

		pos := l.here()
		if sawTab && sawSpace {
			return false, newSyntaxError(pos, l.text, "inconsistent use of tabs and spaces in indentation")
		}

		top := l.indents[len(l.indents)-1]
		switch {
		case width > top:
			l.indents = append(l.indents, width)
			l.emit(TokenIndent, "", pos)
		case width < top:
			for width < l.indents[len(l.indents)-1] {
				l.indents = l.indents[:len(l.indents)-1]
				l.emit(TokenDedent, "", pos)
			}
			if width != l.indents[len(l.indents)-1] {
				return false, newSyntaxError(pos, l.text, "unindent does not match any outer indentation level")
			}
		}
		l.atLineStart = false
		return false, nil
	}
}

func (l *Lexer) scanToken() error {
	r := l.peek()
	switch {
	case r == '\n':
		pos := l.here()
		l.advance()
		if l.depth == 0 {
			if n := len(l.tokens); n > 0 && l.tokens[n-1].Kind != TokenNewline {
				l.emit(TokenNewline, "", pos)
			}
			l.atLineStart = true
		}
		return nil
	case r == ' ' || r == '\t' || r == '\r' || r == '\f':
		l.advance()
		return nil
	case r == '#':
		for !l.isAtEnd() && l.peek() != '\n' {
			l.advance()
		}
		return nil
	case r == '\\':
		pos := l.here()
		l.advance()
		if l.peek() == '\r' {
			l.advance()
		}
		if l.peek() != '\n' {
			return newSyntaxError(pos, l.text, "unexpected character after line continuation character")
		}
		l.advance()
		return nil
	case r == '"' || r == '\'':
		return l.str("", l.here())
	case isDigit(r) || (r == '.' && isDigit(l.peekNext())):
		return l.number()
	case isIdentStart(r):
		return l.identifier()
	default:
		return l.operator()
	}
}

func (l *Lexer) identifier() error {
	pos := l.here()
	start := l.pos
	for !l.isAtEnd() && isIdentContinue(l.peek()) {
		l.advance()
	}
	text := norm.NFKC.String(string(l.src[start:l.pos]))

	if q := l.peek(); (q == '"' || q == '\'') && isStringPrefix(text) {
		return l.str(text, pos)
	}

	if isKeyword(text) {
		l.emit(TokenKeyword, text, pos)
	} else {
		l.emit(TokenName, text, pos)
	}
	return nil
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

func (l *Lexer) str(prefix string, pos Pos) error {
	lower := strings.ToLower(prefix)
	raw := strings.Contains(lower, "r")
	bytesLit := strings.Contains(lower, "b")
	fmtLit := strings.Contains(lower, "f")

	quote := l.advance()
	triple := false
	if l.peek() == quote && l.peekNext() == quote {
		l.advance()
		l.advance()
		triple = true
	}

	var sb strings.Builder
scan:
	for {
		if l.isAtEnd() {
			return newSyntaxError(pos, l.text, "unterminated string literal")
		}
		c := l.advance()
		switch {
		case c == quote:
			if !triple {
				break scan
			}
			if l.peek() == quote && l.peekNext() == quote {
				l.advance()
				l.advance()
				break scan
			}
			sb.WriteRune(c)
		case c == '\n' && !triple:
			return newSyntaxError(pos, l.text, "unterminated string literal")
		case c == '\\':
			if l.isAtEnd() {
				return newSyntaxError(pos, l.text, "unterminated string literal")
			}
			if raw {
				sb.WriteRune(c)
				sb.WriteRune(l.advance())
				continue
			}
			if err := l.escape(&sb, bytesLit, pos); err != nil {
				return err
			}
		default:
			if bytesLit && c > unicode.MaxASCII {
				return newSyntaxError(pos, l.text, "bytes can only contain ASCII literal characters")
			}
			sb.WriteRune(c)
		}
	}

	l.tokens = append(l.tokens, Token{
		Kind:  TokenString,
		Text:  prefix,
		Value: sb.String(),
		Bytes: bytesLit,
		Fmt:   fmtLit,
		Pos:   pos,
	})
	return nil
}

func (l *Lexer) escape(sb *strings.Builder, bytesLit bool, pos Pos) error {
	e := l.advance()
	switch e {
	case '\n':
		// line continuation inside the literal
	case '\\', '\'', '"':
		sb.WriteRune(e)
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '0', '1', '2', '3', '4', '5', '6', '7':
		digits := string(e)
		for len(digits) < 3 && !l.isAtEnd() && l.peek() >= '0' && l.peek() <= '7' {
			digits += string(l.advance())
		}
		v, _ := strconv.ParseUint(digits, 8, 32)
		writeCode(sb, rune(v), bytesLit)
	case 'x':
		v, err := l.hexDigits(2, pos)
		if err != nil {
			return err
		}
		writeCode(sb, v, bytesLit)
	case 'u', 'U':
		if bytesLit {
			sb.WriteByte('\\')
			sb.WriteRune(e)
			return nil
		}
		n := 4
		if e == 'U' {
			n = 8
		}
		v, err := l.hexDigits(n, pos)
		if err != nil {
			return err
		}
		sb.WriteRune(v)
	default:
		sb.WriteByte('\\')
		sb.WriteRune(e)
	}
	return nil
}

func writeCode(sb *strings.Builder, v rune, bytesLit bool) {
	if bytesLit {
		sb.WriteByte(byte(v))
		return
	}
	sb.WriteRune(v)
}

func (l *Lexer) hexDigits(n int, pos Pos) (rune, error) {
	var v rune
	for i := 0; i < n; i++ {
		if l.isAtEnd() {
			return 0, newSyntaxError(pos, l.text, "truncated escape sequence")
		}
		d, ok := hexValue(l.peek())
		if !ok {
			return 0, newSyntaxError(pos, l.text, "truncated escape sequence")
		}
		l.advance()
		v = v*16 + d
	}
	return v, nil
}

func (l *Lexer) number() error {
	pos := l.here()
	start := l.pos

	if l.peek() == '0' {
		switch l.peekNext() {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			l.advance()
			l.advance()
			for !l.isAtEnd() && (isHexDigit(l.peek()) || l.peek() == '_') {
				l.advance()
			}
			return l.intToken(string(l.src[start:l.pos]), pos)
		}
	}

	isFloat := false
	for !l.isAtEnd() && (isDigit(l.peek()) || l.peek() == '_') {
		l.advance()
	}
	if l.peek() == '.' && !isIdentStart(l.peekNext()) {
		isFloat = true
		l.advance()
		for !l.isAtEnd() && (isDigit(l.peek()) || l.peek() == '_') {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekNext()
		if isDigit(next) || next == '+' || next == '-' {
			isFloat = true
			l.advance()
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			for !l.isAtEnd() && isDigit(l.peek()) {
				l.advance()
			}
		}
	}
	if l.peek() == 'j' || l.peek() == 'J' {
		isFloat = true
		l.advance()
	}

	text := string(l.src[start:l.pos])
	if isFloat {
		l.emit(TokenFloat, text, pos)
		return nil
	}
	if len(text) > 1 && text[0] == '0' && strings.Trim(text, "0_") != "" {
		return newSyntaxError(pos, l.text, "leading zeros in decimal integer literals are not permitted")
	}
	return l.intToken(text, pos)
}

func (l *Lexer) intToken(text string, pos Pos) error {
	v, ok := new(big.Int).SetString(text, 0)
	if !ok {
		return newSyntaxError(pos, l.text, "invalid integer literal %q", text)
	}
	l.tokens = append(l.tokens, Token{Kind: TokenInt, Text: text, Value: v.String(), Pos: pos})
	return nil
}

func (l *Lexer) operator() error {
	pos := l.here()
	for _, op := range operators {
		if l.hasPrefix(op) {
			for range op {
				l.advance()
			}
			switch op {
			case "(", "[", "{":
				l.depth++
			case ")", "]", "}":
				if l.depth > 0 {
					l.depth--
				}
			}
			l.emit(TokenOp, op, pos)
			return nil
		}
	}
	return newSyntaxError(pos, l.text, "invalid character %q", l.peek())
}

func (l *Lexer) hasPrefix(op string) bool {
	i := l.pos
	for _, r := range op {
		if i >= len(l.src) || l.src[i] != r {
			return false
		}
		i++
	}
	return true
}

func (l *Lexer) emit(kind TokenKind, text string, pos Pos) {
	l.tokens = append(l.tokens, Token{Kind: kind, Text: text, Pos: pos})
}

func (l *Lexer) here() Pos {
	return Pos{Line: l.line, Column: l.column}
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	_, ok := hexValue(r)
	return ok
}

func hexValue(r rune) (rune, bool) {
	switch {
	case r >= '0' && r <= '9':
		return r - '0', true
	case r >= 'a' && r <= 'f':
		return r - 'a' + 10, true
	case r >= 'A' && r <= 'F':
		return r - 'A' + 10, true
	}
	return 0, false
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return isIdentStart(r) || unicode.In(r, unicode.Nd, unicode.Mn, unicode.Mc, unicode.Pc)
}
