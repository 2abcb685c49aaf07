package store

import (
	"errors"

	"github.com/roach88/pyken/internal/diag"
)

// ErrNoRuns is returned when a report holds no runs yet.
var ErrNoRuns = errors.New("no runs recorded")

// Mode says whether a run wrote artifacts.
type Mode string

const (
	ModeBuild Mode = "build"
	ModeCheck Mode = "check"
)

// RunOptions are the effective settings of a run after config and flags
// are merged.
type RunOptions struct {
	Out     string   `json:"out"`
	Strict  bool     `json:"strict"`
	Jobs    int      `json:"jobs"`
	Exclude []string `json:"exclude"`
}

// FileRecord is the outcome for one source file.
type FileRecord struct {
	Path        string `json:"path"`
	Artifact    string `json:"artifact,omitempty"`
	Digest      string `json:"digest"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Validators  int    `json:"validators"`
	Helpers     int    `json:"helpers"`
	Tests       int    `json:"tests"`
	Written     bool   `json:"written"`
}

// Run is one recorded invocation of build or check.
type Run struct {
	ID          string       `json:"id"`
	Seq         int64        `json:"seq"`
	Root        string       `json:"root"`
	Mode        Mode         `json:"mode"`
	Options     RunOptions   `json:"options"`
	ExitCode    int          `json:"exit_code"`
	ToolVersion string       `json:"tool_version"`
	Files       []FileRecord `json:"files"`
	Diagnostics diag.List    `json:"diagnostics"`
}

// RunSummary is a run without its per-file rows.
type RunSummary struct {
	ID       string `json:"id"`
	Seq      int64  `json:"seq"`
	Root     string `json:"root"`
	Mode     Mode   `json:"mode"`
	ExitCode int    `json:"exit_code"`
	Files    int    `json:"files"`
	Fatal    int    `json:"fatal"`
	Warnings int    `json:"warnings"`
}
