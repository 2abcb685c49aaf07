package emit

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// reserved are the target language keywords. An identifier spelled like
// one gets a trailing underscore.
var reserved = map[string]bool{
	"and":       true,
	"as":        true,
	"bench":     true,
	"const":     true,
	"else":      true,
	"expect":    true,
	"fail":      true,
	"fn":        true,
	"if":        true,
	"is":        true,
	"let":       true,
	"once":      true,
	"opaque":    true,
	"or":        true,
	"pub":       true,
	"test":      true,
	"todo":      true,
	"trace":     true,
	"type":      true,
	"use":       true,
	"validator": true,
	"via":       true,
	"when":      true,
}

// escape appends an underscore to reserved words.
func escape(name string) string {
	if reserved[name] {
		return name + "_"
	}
	return name
}

// snake converts an identifier to snake_case. Characters that cannot
// appear in a target identifier become underscores; leading underscores
// are kept.
func snake(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		switch {
		case r > unicode.MaxASCII || !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 && needsBreak(runes, i) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// needsBreak reports whether the upper-case rune at i starts a new word:
// ownerPkh -> owner_pkh, HTTPServer -> http_server.
func needsBreak(runes []rune, i int) bool {
	prev := runes[i-1]
	if prev == '_' {
		return false
	}
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

// pascal converts a type or constructor name to PascalCase. Names that are
// already PascalCase are unchanged.
func pascal(name string) string {
	// A Caser keeps state, so each call gets its own.
	titler := cases.Title(language.Und, cases.NoLower)
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(titler.String(p))
	}
	out := b.String()
	if out == "" || !unicode.IsUpper(rune(out[0])) {
		out = "T" + out
	}
	return out
}

// rename records one identifier that did not keep its sanitized spelling.
type rename struct {
	from, to string
	why      string
}

// namer assigns target identifiers within one scope. The same source name
// always maps to the same result, and distinct source names never share
// one: a later claimant gets the first free _N suffix. Results depend only
// on the order of declare calls.
type namer struct {
	bySource map[string]string
	used     map[string]bool
	renames  []rename
}

func newNamer() *namer {
	return &namer{bySource: map[string]string{}, used: map[string]bool{}}
}

// reserve marks a target name as taken without binding a source name.
func (n *namer) reserve(target string) {
	n.used[target] = true
}

// declare returns the target name for source, computing it from base on
// first use. base is the sanitized spelling before keyword escaping.
func (n *namer) declare(source, base string) string {
	if t, ok := n.bySource[source]; ok {
		return t
	}
	if base == "" {
		base = "value"
	}
	name := escape(base)
	if name != base {
		n.renames = append(n.renames, rename{from: source, to: name, why: "is a reserved word"})
	}
	// Discards never bind, so they can repeat.
	if n.used[name] && !strings.HasPrefix(name, "_") {
		stem := name
		for i := 1; ; i++ {
			candidate := fmt.Sprintf("%s_%d", stem, i)
			if !n.used[candidate] {
				name = candidate
				break
			}
		}
		n.renames = append(n.renames, rename{from: source, to: name, why: "collides with " + stem})
	}
	n.used[name] = true
	n.bySource[source] = name
	return name
}

// lookup returns the target name bound to source.
func (n *namer) lookup(source string) (string, bool) {
	t, ok := n.bySource[source]
	return t, ok
}
