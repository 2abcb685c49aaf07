package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/pyken/internal/diag"
)

// LastRun returns the most recent run, or ErrNoRuns.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY seq DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	return s.ReadRun(ctx, id)
}

// ReadRun returns a run with its files (ordered by path) and diagnostics
// (in stored order).
func (s *Store) ReadRun(ctx context.Context, id string) (*Run, error) {
	var (
		run         Run
		mode        string
		optionsJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, root, mode, options, exit_code, tool_version
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Seq, &run.Root, &mode, &optionsJSON, &run.ExitCode, &run.ToolVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNoRuns)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	run.Mode = Mode(mode)
	if run.Options, err = unmarshalOptions(optionsJSON); err != nil {
		return nil, err
	}

	if run.Files, err = s.readFiles(ctx, id); err != nil {
		return nil, err
	}
	if run.Diagnostics, err = s.readDiagnostics(ctx, id); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) readFiles(ctx context.Context, runID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, artifact, digest, fingerprint, validators, helpers, tests, written
		FROM files
		WHERE run_id = ?
		ORDER BY path COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	files := []FileRecord{}
	for rows.Next() {
		var (
			f       FileRecord
			written int
		)
		if err := rows.Scan(&f.Path, &f.Artifact, &f.Digest, &f.Fingerprint,
			&f.Validators, &f.Helpers, &f.Tests, &written); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		f.Written = written == 1
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

func (s *Store) readDiagnostics(ctx context.Context, runID string) (diag.List, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file, line, col, severity, kind, function, message
		FROM diagnostics
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	list := diag.List{}
	for rows.Next() {
		var (
			d        diag.Diagnostic
			severity string
			kind     string
		)
		if err := rows.Scan(&d.File, &d.Pos.Line, &d.Pos.Column, &severity, &kind,
			&d.Function, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		if d.Severity, err = diag.ParseSeverity(severity); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Kind = diag.Kind(kind)
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return list, nil
}

// ListRuns returns summaries of every run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.seq, r.root, r.mode, r.exit_code,
			(SELECT COUNT(*) FROM files f WHERE f.run_id = r.id),
			(SELECT COUNT(*) FROM diagnostics d WHERE d.run_id = r.id AND d.severity = 'fatal'),
			(SELECT COUNT(*) FROM diagnostics d WHERE d.run_id = r.id AND d.severity = 'warning')
		FROM runs r
		ORDER BY r.seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			r    RunSummary
			mode string
		)
		if err := rows.Scan(&r.ID, &r.Seq, &r.Root, &mode, &r.ExitCode, &r.Files, &r.Fatal, &r.Warnings); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Mode = Mode(mode)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// PreviousDigests returns path -> source digest from the latest run over
// root. It is empty when root was never recorded.
func (s *Store) PreviousDigests(ctx context.Context, root string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.path, f.digest
		FROM files f
		WHERE f.run_id = (SELECT id FROM runs WHERE root = ? ORDER BY seq DESC LIMIT 1)
	`, root)
	if err != nil {
		return nil, fmt.Errorf("query digests: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var path, digest string
		if err := rows.Scan(&path, &digest); err != nil {
			return nil, fmt.Errorf("scan digest: %w", err)
		}
		out[path] = digest
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digests: %w", err)
	}
	return out, nil
}
