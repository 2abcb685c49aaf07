package store

import (
	"context"
	"database/sql"
	"fmt"
)

// WriteRun records a run with its files and diagnostics in one
// transaction. An empty run.ID is filled from the ID generator; run.Seq is
// always assigned here as one past the highest stored seq.
//
// Diagnostics are stored in list order; callers sort them first.
func (s *Store) WriteRun(ctx context.Context, run *Run) error {
	optionsJSON, err := marshalOptions(run.Options)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if run.ID == "" {
		run.ID = s.ids.Generate()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, root, mode, options, exit_code, tool_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		seq,
		run.Root,
		string(run.Mode),
		optionsJSON,
		run.ExitCode,
		run.ToolVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	if err := writeFiles(ctx, tx, run); err != nil {
		return err
	}
	if err := writeDiagnostics(ctx, tx, run); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	run.Seq = seq
	return nil
}

func writeFiles(ctx context.Context, tx *sql.Tx, run *Run) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files
		(run_id, path, artifact, digest, fingerprint, validators, helpers, tests, written)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write files: %w", err)
	}
	defer stmt.Close()

	for _, f := range run.Files {
		_, err := stmt.ExecContext(ctx,
			run.ID,
			f.Path,
			f.Artifact,
			f.Digest,
			f.Fingerprint,
			f.Validators,
			f.Helpers,
			f.Tests,
			boolToInt(f.Written),
		)
		if err != nil {
			return fmt.Errorf("write file %s: %w", f.Path, err)
		}
	}
	return nil
}

func writeDiagnostics(ctx context.Context, tx *sql.Tx, run *Run) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO diagnostics
		(run_id, seq, file, line, col, severity, kind, function, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write diagnostics: %w", err)
	}
	defer stmt.Close()

	for i, d := range run.Diagnostics {
		_, err := stmt.ExecContext(ctx,
			run.ID,
			i+1,
			d.File,
			d.Pos.Line,
			d.Pos.Column,
			d.Severity.String(),
			string(d.Kind),
			d.Function,
			d.Message,
		)
		if err != nil {
			return fmt.Errorf("write diagnostic %d: %w", i+1, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
