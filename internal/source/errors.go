package source

import (
	"fmt"
	"strings"

	"github.com/roach88/pyken/internal/diag"
)

// Pos is a 1-based line/column location in the source text.
type Pos = diag.Pos

// SyntaxError is a lexing or parsing failure. It makes the whole file
// untranslatable, so it surfaces as a single ParseError diagnostic.
type SyntaxError struct {
	Message string
	Pos     Pos
	Source  string // original text, for context display
}

func (e *SyntaxError) Error() string {
	if !e.Pos.IsValid() {
		return e.Message
	}
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// FormatWithContext returns the message with the offending line and a caret.
func (e *SyntaxError) FormatWithContext() string {
	if e.Source == "" || !e.Pos.IsValid() {
		return e.Error()
	}

	lines := strings.Split(e.Source, "\n")
	if e.Pos.Line > len(lines) {
		return e.Error()
	}

	line := strings.TrimRight(lines[e.Pos.Line-1], "\r")
	col := e.Pos.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.Message)
	fmt.Fprintf(&sb, "  --> line %d:%d\n", e.Pos.Line, col)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", e.Pos.Line, line)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))
	return sb.String()
}

func newSyntaxError(pos Pos, source, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
		Source:  source,
	}
}
