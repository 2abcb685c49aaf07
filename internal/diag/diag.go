// Package diag defines the diagnostics collected by every pyken pipeline stage.
//
// Diagnostics are values, never panics. Each stage appends to a List it owns;
// the orchestrator merges the lists and sorts them once all workers finish.
package diag

import (
	"fmt"
	"sort"
)

// Severity ranks how a diagnostic affects emission.
type Severity int

const (
	// Info is purely informational (automatic renames).
	Info Severity = iota
	// Warning never excludes code unless strict mode promotes it.
	Warning
	// Fatal excludes the smallest enclosing unit (function, else file).
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText renders the severity by name in JSON reports.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names MarshalText writes.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSeverity is the inverse of Severity.String.
func ParseSeverity(name string) (Severity, error) {
	switch name {
	case "info":
		return Info, nil
	case "warning":
		return Warning, nil
	case "fatal":
		return Fatal, nil
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

// Kind classifies a diagnostic.
type Kind string

const (
	KindParseError               Kind = "ParseError"
	KindUnsupportedConstruct     Kind = "UnsupportedConstruct"
	KindArityMismatch            Kind = "ArityMismatch"
	KindUnknownType              Kind = "UnknownType"
	KindNonExhaustiveBranches    Kind = "NonExhaustiveBranches"
	KindReassignmentTypeConflict Kind = "ReassignmentTypeConflict"
	KindUnsupportedOperator      Kind = "UnsupportedOperator"
	KindUnreachableCode          Kind = "UnreachableCode"
	KindIdentifierCollision      Kind = "IdentifierCollision"
)

// DefaultSeverity returns the severity a kind carries before strict mode.
func (k Kind) DefaultSeverity() Severity {
	switch k {
	case KindUnknownType, KindUnreachableCode:
		return Warning
	case KindIdentifierCollision:
		return Info
	default:
		return Fatal
	}
}

// Pos is a 1-based source location. The zero Pos means "whole file".
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// IsValid reports whether the position points into the source.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Less orders positions by line, then column.
func (p Pos) Less(q Pos) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Diagnostic is one finding of the pipeline.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Kind     Kind     `json:"kind"`
	File     string   `json:"file"`
	Pos      Pos      `json:"pos"`
	Function string   `json:"function,omitempty"` // qualified name; empty for file scope
	Message  string   `json:"message"`
}

// Error formats the diagnostic as file:line:col: severity kind: message.
func (d Diagnostic) Error() string {
	loc := d.File
	if d.Pos.IsValid() {
		loc = fmt.Sprintf("%s:%d:%d", d.File, d.Pos.Line, d.Pos.Column)
	}
	if d.Function != "" {
		return fmt.Sprintf("%s: %s %s: %s (in %s)", loc, d.Severity, d.Kind, d.Message, d.Function)
	}
	return fmt.Sprintf("%s: %s %s: %s", loc, d.Severity, d.Kind, d.Message)
}

// IsFatal reports whether the diagnostic excludes its unit from output.
func (d Diagnostic) IsFatal() bool {
	return d.Severity == Fatal
}

// List is an ordered collection of diagnostics owned by one worker.
type List []Diagnostic

// Add appends a diagnostic using the kind's default severity.
func (l *List) Add(kind Kind, file string, pos Pos, function, format string, args ...any) {
	*l = append(*l, Diagnostic{
		Severity: kind.DefaultSeverity(),
		Kind:     kind,
		File:     file,
		Pos:      pos,
		Function: function,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Append adds already-built diagnostics.
func (l *List) Append(ds ...Diagnostic) {
	*l = append(*l, ds...)
}

// HasFatal reports whether any diagnostic is fatal.
func (l List) HasFatal() bool {
	for _, d := range l {
		if d.IsFatal() {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics with the given severity.
func (l List) Count(s Severity) int {
	n := 0
	for _, d := range l {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// OfKind returns the diagnostics of one kind, preserving order.
func (l List) OfKind(kind Kind) List {
	var out List
	for _, d := range l {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Promote returns a copy where every warning is fatal. Info stays info.
func (l List) Promote() List {
	out := make(List, len(l))
	for i, d := range l {
		if d.Severity == Warning {
			d.Severity = Fatal
		}
		out[i] = d
	}
	return out
}

// Sort orders diagnostics by file, position, kind, function, message.
// The order is total, so merged worker output sorts identically regardless
// of which worker finished first.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i], l[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Pos != b.Pos {
			return a.Pos.Less(b.Pos)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Function != b.Function {
			return a.Function < b.Function
		}
		return a.Message < b.Message
	})
}

// Merge concatenates lists and returns the sorted result.
func Merge(lists ...List) List {
	var out List
	for _, l := range lists {
		out = append(out, l...)
	}
	out.Sort()
	return out
}
