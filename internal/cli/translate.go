package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/pyken/internal/config"
	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/pipeline"
	"github.com/roach88/pyken/internal/store"
)

// TranslateOptions holds flags shared by build and check.
type TranslateOptions struct {
	*RootOptions
	Out    string // artifact directory (build only)
	Strict bool
	Jobs   int
	Config string // explicit pyken.yaml
	Report string // SQLite run report
}

// RunReport is the JSON payload of build and check.
type RunReport struct {
	Mode        store.Mode         `json:"mode"`
	Root        string             `json:"root"`
	Out         string             `json:"out,omitempty"`
	RunID       string             `json:"run_id,omitempty"`
	Files       []store.FileRecord `json:"files"`
	Diagnostics diag.List          `json:"diagnostics"`
	Summary     Summary            `json:"summary"`
}

// Summary counts a run's outcome.
type Summary struct {
	Files     int `json:"files"`
	Artifacts int `json:"artifacts"`
	Fatal     int `json:"fatal"`
	Warnings  int `json:"warnings"`
	Info      int `json:"info"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <path>",
		Short: "Translate Python sources to Aiken modules",
		Long: `Translate a .py file, or every .py file under a directory, into Aiken.

One .ak artifact is written per source file that has at least one
function surviving translation. Artifacts are replaced atomically.
Settings come from pyken.yaml in the input directory (or --config);
flags override it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, opts, args[0], store.ModeBuild)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", pipeline.DefaultOut, "artifact directory")
	addSharedFlags(cmd, opts)

	return cmd
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Report diagnostics without writing artifacts",
		Long: `Run the whole translation over a file or directory and report every
diagnostic, without writing any artifact.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, opts, args[0], store.ModeCheck)
		},
	}

	addSharedFlags(cmd, opts)

	return cmd
}

func addSharedFlags(cmd *cobra.Command, opts *TranslateOptions) {
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as fatal")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", 0, "parallel workers (default GOMAXPROCS)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "config file (default <path>/pyken.yaml)")
	cmd.Flags().StringVar(&opts.Report, "report", "", "record the run in this SQLite report")
}

func runTranslate(cmd *cobra.Command, opts *TranslateOptions, root string, mode store.Mode) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ctx := cmd.Context()

	if _, err := os.Stat(root); err != nil {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("input not found: %s", root), err)
	}

	cfg, err := loadConfig(opts.Config, root)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, err.Error(), err)
	}
	if cfg.Path != "" {
		formatter.VerboseLog("Using config %s", cfg.Path)
	}
	pipeOpts := resolveOptions(cmd, opts, cfg, root, mode)
	pipeOpts.Logger = logger

	// Reports key runs by absolute root so relative invocations from
	// different directories still line up.
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, err.Error(), err)
	}

	var report *store.Store
	if opts.Report != "" {
		report, err = store.Open(opts.Report)
		if err != nil {
			return commandError(formatter, ErrCodeReport, fmt.Sprintf("open report %s", opts.Report), err)
		}
		defer func() {
			if closeErr := report.Close(); closeErr != nil {
				logger.Error("error closing report", "error", closeErr)
			}
		}()
		if pipeOpts.Previous, err = report.PreviousDigests(ctx, absRoot); err != nil {
			return commandError(formatter, ErrCodeReport, "read previous run", err)
		}
	}

	res, err := pipeline.Run(ctx, pipeOpts)
	if err != nil {
		var writeErr *pipeline.WriteError
		if errors.As(err, &writeErr) {
			return commandError(formatter, ErrCodeWriteFailed, err.Error(), err)
		}
		return commandError(formatter, ErrCodeGeneric, err.Error(), err)
	}

	out := runReport(res, mode, root, pipeOpts)
	exitCode := ExitSuccess
	if res.HasFatal() {
		exitCode = ExitFailure
	}

	if report != nil {
		run := &store.Run{
			Root: absRoot,
			Mode: mode,
			Options: store.RunOptions{
				Out:     out.Out,
				Strict:  pipeOpts.Strict,
				Jobs:    pipeOpts.Jobs,
				Exclude: pipeOpts.Exclude,
			},
			ExitCode:    exitCode,
			ToolVersion: Version,
			Files:       out.Files,
			Diagnostics: res.Diagnostics,
		}
		if err := report.WriteRun(ctx, run); err != nil {
			return commandError(formatter, ErrCodeReport, "write report", err)
		}
		out.RunID = run.ID
		formatter.VerboseLog("Recorded run %s in %s", run.ID, opts.Report)
	}

	return outputRun(formatter, res, out)
}

// loadConfig reads an explicit config file or discovers one in root.
func loadConfig(path, root string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.Discover(root)
}

// resolveOptions merges config values with flags; a flag wins only when
// it was given on the command line.
func resolveOptions(cmd *cobra.Command, opts *TranslateOptions, cfg *config.Config, root string, mode store.Mode) pipeline.Options {
	flags := cmd.Flags()
	p := pipeline.Options{
		Root:    root,
		Strict:  cfg.Strict,
		Jobs:    cfg.Jobs,
		Exclude: cfg.Exclude,
		Types:   pipeline.TypeMappings(cfg.TypeList()),
		Check:   mode == store.ModeCheck,
	}
	if flags.Changed("strict") {
		p.Strict = opts.Strict
	}
	if flags.Changed("jobs") {
		p.Jobs = opts.Jobs
	}

	if mode == store.ModeBuild {
		switch {
		case flags.Changed("out"):
			p.Out = opts.Out
		case cfg.Out != "" && filepath.IsAbs(cfg.Out):
			p.Out = cfg.Out
		case cfg.Out != "":
			p.Out = filepath.Join(cfg.Dir(), cfg.Out)
		default:
			p.Out = opts.Out
		}
	}
	return p
}

func runReport(res *pipeline.Result, mode store.Mode, root string, opts pipeline.Options) *RunReport {
	out := &RunReport{
		Mode:        mode,
		Root:        root,
		Out:         opts.Out,
		Files:       make([]store.FileRecord, len(res.Files)),
		Diagnostics: res.Diagnostics,
	}
	if out.Diagnostics == nil {
		out.Diagnostics = diag.List{}
	}

	for i, f := range res.Files {
		rec := store.FileRecord{
			Path:        f.Path,
			Digest:      f.Digest,
			Fingerprint: f.Fingerprint,
			Written:     f.Written,
		}
		if f.Emitted() {
			rec.Artifact = f.Artifact
			out.Summary.Artifacts++
		}
		if f.Module != nil {
			rec.Validators = len(f.Module.Validators)
			rec.Helpers = len(f.Module.Helpers)
			rec.Tests = len(f.Module.Tests)
		}
		out.Files[i] = rec
	}

	out.Summary.Files = len(res.Files)
	out.Summary.Fatal = res.Diagnostics.Count(diag.Fatal)
	out.Summary.Warnings = res.Diagnostics.Count(diag.Warning)
	out.Summary.Info = res.Diagnostics.Count(diag.Info)
	return out
}

// outputRun prints the run and returns an ExitFailure error when fatal
// diagnostics were reported.
func outputRun(formatter *OutputFormatter, res *pipeline.Result, out *RunReport) error {
	s := out.Summary
	failed := s.Fatal > 0
	message := fmt.Sprintf("%d fatal diagnostic(s)", s.Fatal)

	if formatter.Format == "json" {
		if failed {
			_ = formatter.Failure(ErrCodeDiagnostics, message, out)
			return NewExitError(ExitFailure, message)
		}
		return formatter.Success(out)
	}

	w := formatter.Writer
	for _, d := range out.Diagnostics {
		if d.Severity == diag.Info && !formatter.Verbose {
			continue
		}
		fmt.Fprintln(w, d.Error())
	}
	if formatter.Verbose {
		for _, f := range res.Files {
			formatter.VerboseLog("%s", describeFile(f))
		}
	}
	if len(out.Diagnostics) > 0 && (s.Fatal+s.Warnings > 0 || formatter.Verbose) {
		fmt.Fprintln(w)
	}

	mark := "✓"
	if failed {
		mark = "✗"
	}
	switch out.Mode {
	case store.ModeCheck:
		fmt.Fprintf(w, "%s Checked %d file(s): %d fatal, %d warning(s)\n", mark, s.Files, s.Fatal, s.Warnings)
	default:
		fmt.Fprintf(w, "%s Built %d artifact(s) from %d file(s) in %s: %d fatal, %d warning(s)\n",
			mark, s.Artifacts, s.Files, out.Out, s.Fatal, s.Warnings)
	}
	if out.RunID != "" {
		fmt.Fprintf(w, "Recorded run %s\n", out.RunID)
	}

	if failed {
		_ = formatter.Failure(ErrCodeDiagnostics, message, nil)
		return NewExitError(ExitFailure, message)
	}
	return nil
}

func describeFile(f pipeline.FileResult) string {
	var status string
	switch {
	case f.Written:
		status = "-> " + f.Artifact
	case f.Emitted():
		status = "ok"
	case f.Module == nil:
		status = "parse failed"
	default:
		status = "nothing emitted"
	}
	if f.Unchanged {
		status += " (unchanged)"
	}
	return f.Path + " " + status
}

// commandError prints an invocation error and returns it with exit code 2.
func commandError(formatter *OutputFormatter, code, message string, err error) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), err)
}
