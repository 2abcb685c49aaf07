package harness

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pyken/internal/config"
	"github.com/roach88/pyken/internal/diag"
)

// Scenario defines an end-to-end translation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Strict promotes warnings to fatal, as --strict does.
	Strict bool `yaml:"strict,omitempty"`

	// Types are project type mappings, in pyken.yaml form.
	Types map[string]config.TypeEntry `yaml:"types,omitempty"`

	// Sources maps slash-separated relative paths to Python text.
	Sources map[string]string `yaml:"sources"`

	// Assertions validate the artifacts and diagnostics.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one property of a scenario result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// File is the source path the assertion is about.
	File string `yaml:"file,omitempty"`

	// Artifact is the expected artifact path (emits).
	Artifact string `yaml:"artifact,omitempty"`

	// Text is searched for in the file's artifact (contains, excludes).
	Text string `yaml:"text,omitempty"`

	// Kind, Function and Severity filter diagnostics (diagnostic).
	Kind     string `yaml:"kind,omitempty"`
	Function string `yaml:"function,omitempty"`
	Severity string `yaml:"severity,omitempty"`

	// Count makes a diagnostic match exact. Nil means at least one.
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertEmits         = "emits"
	AssertOmits         = "omits"
	AssertContains      = "contains"
	AssertExcludes      = "excludes"
	AssertDiagnostic    = "diagnostic"
	AssertNoDiagnostics = "no_diagnostics"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := map[string]string{}
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", p, s.Name, prev)
		}
		seen[s.Name] = p
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Sources) == 0 {
		return fmt.Errorf("sources map is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for p := range s.Sources {
		if err := validateSourcePath(p); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, s.Sources); err != nil {
			return err
		}
	}

	return nil
}

// validateSourcePath keeps scenario files inside the scenario directory.
func validateSourcePath(p string) error {
	clean := path.Clean(p)
	switch {
	case p == "" || path.IsAbs(p) || clean != p:
		return fmt.Errorf("source %q: path must be relative and clean", p)
	case clean == ".." || strings.HasPrefix(clean, "../"):
		return fmt.Errorf("source %q: path escapes the scenario", p)
	case path.Ext(p) != ".py":
		return fmt.Errorf("source %q: not a .py file", p)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, sources map[string]string) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.File != "" {
		if _, ok := sources[a.File]; !ok {
			return fmt.Errorf("assertions[%d]: unknown file %q", index, a.File)
		}
	}

	switch a.Type {
	case AssertEmits, AssertOmits:
		if a.File == "" {
			return fmt.Errorf("assertions[%d]: file is required for %s", index, a.Type)
		}
	case AssertContains, AssertExcludes:
		if a.File == "" || a.Text == "" {
			return fmt.Errorf("assertions[%d]: file and text are required for %s", index, a.Type)
		}
	case AssertDiagnostic:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for diagnostic", index)
		}
		if a.Severity != "" {
			if _, err := diag.ParseSeverity(a.Severity); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for diagnostic", index)
		}
	case AssertNoDiagnostics:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
