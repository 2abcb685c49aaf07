package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/pyken/internal/diag"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type        string    // Assertion type for categorization
	Expected    string    // Human-readable expected outcome
	Actual      string    // Human-readable actual outcome
	Diagnostics diag.List // All diagnostics for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Diagnostics) > 0 {
		fmt.Fprintf(&buf, "\nDiagnostics:\n")
		for i, d := range e.Diagnostics {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, d.Error())
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertEmits:
		return assertEmits(result, a)
	case AssertOmits:
		return assertOmits(result, a)
	case AssertContains:
		return assertContains(result, a, true)
	case AssertExcludes:
		return assertContains(result, a, false)
	case AssertDiagnostic:
		return assertDiagnostic(result, a)
	case AssertNoDiagnostics:
		return assertNoDiagnostics(result, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertEmits checks that the file produced an artifact, at the expected
// path when one is given.
func assertEmits(result *Result, a Assertion) error {
	f, ok := result.File(a.File)
	if !ok || !f.Written {
		return &AssertionError{
			Type:        AssertEmits,
			Expected:    fmt.Sprintf("%s emits an artifact", a.File),
			Actual:      "no artifact written",
			Diagnostics: result.Diagnostics,
		}
	}
	if a.Artifact != "" && f.Artifact != a.Artifact {
		return &AssertionError{
			Type:     AssertEmits,
			Expected: fmt.Sprintf("%s emits %s", a.File, a.Artifact),
			Actual:   fmt.Sprintf("artifact is %s", f.Artifact),
		}
	}
	return nil
}

func assertOmits(result *Result, a Assertion) error {
	f, ok := result.File(a.File)
	if ok && f.Written {
		return &AssertionError{
			Type:     AssertOmits,
			Expected: fmt.Sprintf("%s emits nothing", a.File),
			Actual:   fmt.Sprintf("artifact %s written", f.Artifact),
		}
	}
	return nil
}

// assertContains checks for (want) or against (!want) text in the file's
// artifact. A missing artifact fails both ways.
func assertContains(result *Result, a Assertion, want bool) error {
	text, ok := result.Artifact(a.File)
	if !ok {
		return &AssertionError{
			Type:        a.Type,
			Expected:    fmt.Sprintf("artifact for %s", a.File),
			Actual:      "no artifact written",
			Diagnostics: result.Diagnostics,
		}
	}
	if strings.Contains(text, a.Text) == want {
		return nil
	}

	expected := fmt.Sprintf("artifact contains %q", a.Text)
	if !want {
		expected = fmt.Sprintf("artifact does not contain %q", a.Text)
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: expected,
		Actual:   "artifact:\n" + indent(text),
	}
}

// assertDiagnostic counts diagnostics matching every filter the assertion
// sets. Without a count at least one must match.
func assertDiagnostic(result *Result, a Assertion) error {
	matched := 0
	for _, d := range result.Diagnostics {
		if matchDiagnostic(d, a) {
			matched++
		}
	}

	if a.Count == nil {
		if matched > 0 {
			return nil
		}
	} else if matched == *a.Count {
		return nil
	}

	expected := fmt.Sprintf("at least one %s", describeFilter(a))
	if a.Count != nil {
		expected = fmt.Sprintf("exactly %d %s", *a.Count, describeFilter(a))
	}
	return &AssertionError{
		Type:        AssertDiagnostic,
		Expected:    expected,
		Actual:      fmt.Sprintf("%d matching", matched),
		Diagnostics: result.Diagnostics,
	}
}

func matchDiagnostic(d diag.Diagnostic, a Assertion) bool {
	if string(d.Kind) != a.Kind {
		return false
	}
	if a.File != "" && d.File != a.File {
		return false
	}
	if a.Function != "" && d.Function != a.Function {
		return false
	}
	if a.Severity != "" && d.Severity.String() != a.Severity {
		return false
	}
	return true
}

func describeFilter(a Assertion) string {
	parts := []string{a.Kind}
	if a.Severity != "" {
		parts = append(parts, "severity="+a.Severity)
	}
	if a.File != "" {
		parts = append(parts, "file="+a.File)
	}
	if a.Function != "" {
		parts = append(parts, "function="+a.Function)
	}
	return strings.Join(parts, " ")
}

func assertNoDiagnostics(result *Result, a Assertion) error {
	var found diag.List
	for _, d := range result.Diagnostics {
		if a.File == "" || d.File == a.File {
			found = append(found, d)
		}
	}
	if len(found) == 0 {
		return nil
	}

	scope := "the scenario"
	if a.File != "" {
		scope = a.File
	}
	return &AssertionError{
		Type:        AssertNoDiagnostics,
		Expected:    fmt.Sprintf("no diagnostics for %s", scope),
		Actual:      fmt.Sprintf("%d diagnostic(s)", len(found)),
		Diagnostics: found,
	}
}

func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
