// Package pipeline drives discovery, compilation, emission and artifact
// writes for one pyken run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/pyken/internal/compiler"
	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/emit"
	"github.com/roach88/pyken/internal/ir"
	"github.com/roach88/pyken/internal/source"
)

// DefaultOut is the artifact directory when neither flags nor config name
// one.
const DefaultOut = "validators"

// Options configure a run.
type Options struct {
	// Root is a source file or a directory to scan.
	Root string
	// Out is the artifact directory. Ignored when Check is set.
	Out string
	// Strict promotes warnings to fatal.
	Strict bool
	// Jobs bounds the worker pool; zero means GOMAXPROCS.
	Jobs int
	// Exclude holds globs of paths to skip during the scan.
	Exclude []string
	// Types are project type mappings.
	Types []compiler.TypeMapping
	// Check runs every stage but writes nothing.
	Check bool
	// Previous maps relative paths to the source digests of an earlier
	// run; matching files are marked Unchanged.
	Previous map[string]string
	// Logger receives per-file debug output. Nil discards.
	Logger *slog.Logger
}

// FileResult is the outcome for one source file. It is owned by the
// worker that produced it until Run returns.
type FileResult struct {
	Path        string // relative to the input base, slash-separated
	Artifact    string // relative to Out, slash-separated
	Digest      string
	Fingerprint string     // empty when the file did not parse
	Module      *ir.Module // nil when the file did not parse
	Output      []byte     // nil when nothing survived
	Diagnostics diag.List
	Written     bool
	Unchanged   bool
}

// Emitted reports whether the file produced an artifact.
func (f *FileResult) Emitted() bool {
	return f.Output != nil
}

// Result is a completed run.
type Result struct {
	Input       *Input
	Files       []FileResult // in Input.Files order
	Diagnostics diag.List    // merged and sorted
}

// HasFatal reports whether any file carries a fatal diagnostic.
func (r *Result) HasFatal() bool {
	return r.Diagnostics.HasFatal()
}

// Run processes every discovered file on a bounded worker pool. Diagnostic
// problems never fail the run; the returned error is for I/O failures and
// cancellation only.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	out := opts.Out
	if out == "" {
		out = DefaultOut
	}

	in, err := Discover(opts.Root, opts.Exclude)
	if err != nil {
		return nil, err
	}
	log.Debug("discovered sources", "root", opts.Root, "files", len(in.Files), "jobs", jobs)

	// Artifact paths are assigned up front in sorted order so collision
	// suffixes do not depend on scheduling.
	paths := emit.NewPaths()
	results := make([]FileResult, len(in.Files))
	for i, rel := range in.Files {
		results[i] = FileResult{Path: rel, Artifact: paths.Assign(rel)}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range results {
		r := &results[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := os.ReadFile(filepath.Join(in.Base, filepath.FromSlash(r.Path)))
			if err != nil {
				return fmt.Errorf("read %s: %w", r.Path, err)
			}
			if err := translate(r, string(text), opts, log); err != nil {
				return err
			}
			if prev, ok := opts.Previous[r.Path]; ok && prev == r.Digest {
				r.Unchanged = true
			}
			if opts.Check || !r.Emitted() {
				return nil
			}
			if err := writeAtomic(filepath.Join(out, filepath.FromSlash(r.Artifact)), r.Output); err != nil {
				return err
			}
			r.Written = true
			log.Debug("wrote artifact", "source", r.Path, "artifact", r.Artifact)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lists := make([]diag.List, len(results))
	for i := range results {
		lists[i] = results[i].Diagnostics
	}
	return &Result{Input: in, Files: results, Diagnostics: diag.Merge(lists...)}, nil
}

// translate runs load, compile and render for one file.
func translate(r *FileResult, text string, opts Options, log *slog.Logger) error {
	r.Digest = ir.SourceDigest(text)

	file, diags := source.Load(r.Path, text)
	if opts.Strict {
		diags = diags.Promote()
	}
	if file == nil {
		r.Diagnostics = diags
		log.Debug("parse failed", "source", r.Path)
		return nil
	}

	mod, more := compiler.Compile(file, compiler.Options{
		Strict: opts.Strict,
		Types:  opts.Types,
		Logger: log.With("source", r.Path),
	})
	diags = append(diags, more...)
	r.Module = mod

	fp, err := ir.Fingerprint(mod)
	if err != nil {
		return fmt.Errorf("fingerprint %s: %w", r.Path, err)
	}
	r.Fingerprint = fp

	if !mod.Empty() {
		output, renderDiags := emit.Render(mod)
		diags = append(diags, renderDiags...)
		r.Output = output
	}
	diags.Sort()
	r.Diagnostics = diags

	log.Debug("compiled",
		"source", r.Path,
		"validators", len(mod.Validators),
		"helpers", len(mod.Helpers),
		"tests", len(mod.Tests),
		"diagnostics", len(diags),
	)
	return nil
}

// WriteError reports an artifact that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// writeAtomic writes data next to path and renames it into place, so a
// reader never sees a partial artifact.
func writeAtomic(path string, data []byte) error {
	if err := replaceFile(path, data); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".pyken-*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
