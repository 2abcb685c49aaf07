package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"

	"github.com/roach88/pyken/internal/config"
	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/pipeline"
	"github.com/roach88/pyken/internal/store"
	"github.com/roach88/pyken/internal/testutil"
)

// Harness is the scenario execution engine. It owns a scratch directory
// and an in-memory report for one scenario.
type Harness struct {
	dir    string
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh scratch directory and a fresh in-memory
// report for isolation. Run IDs are sequential per scenario so results are
// reproducible.
//
// Execution flow:
// 1. Write the scenario sources to a scratch directory
// 2. Build them with the full pipeline
// 3. Record the run in the report and read it back
// 4. Evaluate assertions
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "pyken-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewSequentialIDs(scenario.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		dir:    dir,
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in scenarios
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	src := filepath.Join(h.dir, "src")
	out := filepath.Join(h.dir, "out")
	if err := h.writeSources(src, scenario.Sources); err != nil {
		return nil, err
	}

	cfg := &config.Config{Types: scenario.Types}
	res, err := pipeline.Run(ctx, pipeline.Options{
		Root:   src,
		Out:    out,
		Strict: scenario.Strict,
		Jobs:   1,
		Types:  pipeline.TypeMappings(cfg.TypeList()),
		Logger: h.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run pipeline: %w", err)
	}

	result := NewResult()
	result.Files = res.Files
	result.Diagnostics = res.Diagnostics
	for _, f := range res.Files {
		if !f.Written {
			continue
		}
		data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(f.Artifact)))
		if err != nil {
			return nil, fmt.Errorf("failed to read artifact %s: %w", f.Artifact, err)
		}
		result.Artifacts[f.Artifact] = string(data)
	}

	if err := h.record(ctx, scenario, res, result); err != nil {
		return nil, err
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"files", len(result.Files),
		"artifacts", len(result.Artifacts),
		"pass", result.Pass,
	)
	return result, nil
}

func (h *Harness) writeSources(root string, sources map[string]string) error {
	for rel, text := range sources {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write source %s: %w", rel, err)
		}
	}
	return nil
}

// record writes the run to the report and checks that reading it back
// gives the same diagnostics. A mismatch is a scenario failure.
func (h *Harness) record(ctx context.Context, scenario *Scenario, res *pipeline.Result, result *Result) error {
	exitCode := 0
	if res.HasFatal() {
		exitCode = 1
	}

	run := &store.Run{
		Root:        scenario.Name,
		Mode:        store.ModeBuild,
		Options:     store.RunOptions{Out: "out", Strict: scenario.Strict, Jobs: 1},
		ExitCode:    exitCode,
		ToolVersion: "test",
		Files:       make([]store.FileRecord, len(res.Files)),
		Diagnostics: res.Diagnostics,
	}
	for i, f := range res.Files {
		rec := store.FileRecord{
			Path:        f.Path,
			Digest:      f.Digest,
			Fingerprint: f.Fingerprint,
			Written:     f.Written,
		}
		if f.Written {
			rec.Artifact = f.Artifact
		}
		if f.Module != nil {
			rec.Validators = len(f.Module.Validators)
			rec.Helpers = len(f.Module.Helpers)
			rec.Tests = len(f.Module.Tests)
		}
		run.Files[i] = rec
	}

	if err := h.store.WriteRun(ctx, run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	result.RunID = run.ID

	stored, err := h.store.ReadRun(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to read back run: %w", err)
	}
	if !sameDiagnostics(stored.Diagnostics, res.Diagnostics) {
		result.AddError(fmt.Sprintf("report round trip changed diagnostics: wrote %d, read %d",
			len(res.Diagnostics), len(stored.Diagnostics)))
	}
	if !reflect.DeepEqual(stored.Files, run.Files) {
		result.AddError("report round trip changed file records")
	}
	return nil
}

func sameDiagnostics(a, b diag.List) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
