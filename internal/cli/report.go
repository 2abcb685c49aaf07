package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	RunID string
	List  bool
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <report.db>",
		Short: "Show runs recorded with --report",
		Long: `Show a run recorded by build or check --report.

Without flags the latest run is printed with its files and diagnostics.
--run selects a run by id; --list prints one line per recorded run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportCommand(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to show (default latest)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list every recorded run")

	return cmd
}

func runReportCommand(opts *ReportOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ctx := cmd.Context()

	// Opening creates the database; a report that was never written is a
	// usage error, not an empty report.
	if _, err := os.Stat(path); err != nil {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("report not found: %s", path), err)
	}

	st, err := store.Open(path)
	if err != nil {
		return commandError(formatter, ErrCodeReport, fmt.Sprintf("open report %s", path), err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing report", "error", closeErr)
		}
	}()

	if opts.List {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return commandError(formatter, ErrCodeReport, "list runs", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(formatter.Writer, "No runs recorded")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(formatter.Writer, "%d  %s  %-5s  exit %d  %d file(s)  %d fatal  %d warning(s)  %s\n",
				r.Seq, r.ID, r.Mode, r.ExitCode, r.Files, r.Fatal, r.Warnings, r.Root)
		}
		return nil
	}

	var run *store.Run
	if opts.RunID != "" {
		run, err = st.ReadRun(ctx, opts.RunID)
	} else {
		run, err = st.LastRun(ctx)
	}
	if errors.Is(err, store.ErrNoRuns) {
		message := "no runs recorded"
		if opts.RunID != "" {
			message = fmt.Sprintf("run not found: %s", opts.RunID)
		}
		return commandError(formatter, ErrCodeNoRuns, message, err)
	}
	if err != nil {
		return commandError(formatter, ErrCodeReport, "read run", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(run)
	}
	printRun(formatter.Writer, run)
	return nil
}

func printRun(w io.Writer, run *store.Run) {
	fmt.Fprintf(w, "Run %d (%s)\n", run.Seq, run.ID)
	fmt.Fprintf(w, "  mode:    %s\n", run.Mode)
	fmt.Fprintf(w, "  root:    %s\n", run.Root)
	if run.Mode == store.ModeBuild {
		fmt.Fprintf(w, "  out:     %s\n", run.Options.Out)
	}
	fmt.Fprintf(w, "  strict:  %t\n", run.Options.Strict)
	fmt.Fprintf(w, "  exit:    %d\n", run.ExitCode)
	fmt.Fprintf(w, "  version: %s\n", run.ToolVersion)

	fmt.Fprintf(w, "\nFiles (%d):\n", len(run.Files))
	for _, f := range run.Files {
		target := "-"
		if f.Artifact != "" {
			target = f.Artifact
		}
		fmt.Fprintf(w, "  %s -> %s  validators=%d helpers=%d tests=%d\n",
			f.Path, target, f.Validators, f.Helpers, f.Tests)
	}

	if len(run.Diagnostics) == 0 {
		return
	}
	fmt.Fprintf(w, "\nDiagnostics (%d fatal, %d warning(s), %d info):\n",
		run.Diagnostics.Count(diag.Fatal), run.Diagnostics.Count(diag.Warning), run.Diagnostics.Count(diag.Info))
	for _, d := range run.Diagnostics {
		fmt.Fprintf(w, "  %s\n", d.Error())
	}
}
