package emit

import (
	"encoding/hex"
	"strings"

	"github.com/roach88/pyken/internal/ir"
)

var stringEscapes = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// quote renders s between double quotes with the escapes the target lexer
// understands.
func quote(s string) string {
	return `"` + stringEscapes.Replace(s) + `"`
}

// text renders a String literal.
func text(s string) string {
	return "@" + quote(s)
}

// byteArray renders a ByteArray literal. Printable ASCII keeps its readable
// form; anything else is written as hex.
func byteArray(b string) string {
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7e {
			return `#"` + hex.EncodeToString([]byte(b)) + `"`
		}
	}
	return quote(b)
}

// literal renders a scalar literal. Lists and tuples go through the
// expression renderer.
func literal(l *ir.Literal) string {
	switch l.Kind {
	case ir.LitString:
		return text(l.Text)
	case ir.LitByteArray:
		return byteArray(l.Text)
	default:
		// Int digits, True/False and None are spelled as in the source.
		return l.Text
	}
}
