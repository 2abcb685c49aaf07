package harness

import (
	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/pipeline"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// Files holds the per-source pipeline results in path order.
	Files []pipeline.FileResult `json:"-"`

	// Artifacts maps artifact paths to the bytes written to disk.
	Artifacts map[string]string `json:"artifacts"`

	// Diagnostics are the merged, sorted diagnostics of the run.
	Diagnostics diag.List `json:"diagnostics"`

	// RunID is the id the run was recorded under.
	RunID string `json:"run_id"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Artifacts: map[string]string{},
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// File returns the result for a source path.
func (r *Result) File(path string) (pipeline.FileResult, bool) {
	for _, f := range r.Files {
		if f.Path == path {
			return f, true
		}
	}
	return pipeline.FileResult{}, false
}

// Artifact returns the written artifact text for a source path.
func (r *Result) Artifact(path string) (string, bool) {
	f, ok := r.File(path)
	if !ok || !f.Written {
		return "", false
	}
	text, ok := r.Artifacts[f.Artifact]
	return text, ok
}
