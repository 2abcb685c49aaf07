package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pyken/internal/compiler"
	"github.com/roach88/pyken/internal/diag"
	"github.com/roach88/pyken/internal/ir"
	"github.com/roach88/pyken/internal/pipeline"
)

// IROptions holds flags for the ir command.
type IROptions struct {
	*RootOptions
	Strict bool
	Config string
}

// NewIRCommand creates the ir command.
func NewIRCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IROptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ir <file.py>",
		Short: "Dump the canonical IR of one source file",
		Long: `Compile one Python file and print its intermediate representation as
canonical JSON. Diagnostics go to stderr. The dump is the exact byte
sequence the module fingerprint is computed over.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIR(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as fatal")
	cmd.Flags().StringVar(&opts.Config, "config", "", "config file for project type mappings")

	return cmd
}

func runIR(opts *IROptions, file string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	info, err := os.Stat(file)
	if err != nil {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("input not found: %s", file), err)
	}
	if info.IsDir() {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("%s is a directory; ir takes one file", file), nil)
	}

	var types []compiler.TypeMapping
	if opts.Config != "" {
		cfg, err := loadConfig(opts.Config, "")
		if err != nil {
			return commandError(formatter, ErrCodeConfig, err.Error(), err)
		}
		types = pipeline.TypeMappings(cfg.TypeList())
	}

	res, err := pipeline.Run(cmd.Context(), pipeline.Options{
		Root:   file,
		Strict: opts.Strict,
		Jobs:   1,
		Types:  types,
		Check:  true,
		Logger: newLogger(opts.RootOptions, cmd.ErrOrStderr()),
	})
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, err.Error(), err)
	}

	errOut := formatter.GetErrWriter()
	for _, d := range res.Diagnostics {
		fmt.Fprintln(errOut, d.Error())
	}

	f := res.Files[0]
	if f.Module == nil {
		return NewExitError(ExitFailure, fmt.Sprintf("%s did not parse", file))
	}
	data, err := ir.MarshalCanonical(ir.Encode(f.Module))
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, "encode ir", err)
	}

	// Both formats print the dump itself; it is already JSON.
	w := formatter.Writer
	if _, err := w.Write(append(data, '\n')); err != nil {
		return err
	}

	if res.HasFatal() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d fatal diagnostic(s)", res.Diagnostics.Count(diag.Fatal)))
	}
	return nil
}
