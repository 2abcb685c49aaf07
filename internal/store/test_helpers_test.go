package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/testutil"
)

// createTestStore creates a new store in a temp dir with sequential run IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequentialIDs("")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run over root with one emitted file, one failed
// file and their diagnostics.
func createTestRun(root string) *Run {
	return &Run{
		Root:        root,
		Mode:        ModeBuild,
		Options:     RunOptions{Out: "out", Jobs: 2, Exclude: []string{"scratch/*"}},
		ExitCode:    1,
		ToolVersion: "dev",
		Files: []FileRecord{
			{Path: "vault.py", Artifact: "vault.ak", Digest: "d1", Fingerprint: "f1", Validators: 1, Helpers: 1, Tests: 1, Written: true},
			{Path: "broken.py", Digest: "d2"},
		},
		Diagnostics: diag.List{
			{Severity: diag.Fatal, Kind: diag.KindParseError, File: "broken.py", Pos: diag.Pos{Line: 3, Column: 5}, Message: "unexpected indent"},
			{Severity: diag.Warning, Kind: diag.KindUnknownType, File: "vault.py", Pos: diag.Pos{Line: 7, Column: 12}, Function: "vault", Message: "unknown type float for x, using Data"},
			{Severity: diag.Info, Kind: diag.KindIdentifierCollision, File: "vault.py", Function: "vault", Message: "when renamed to when_: is a reserved word"},
		},
	}
}
