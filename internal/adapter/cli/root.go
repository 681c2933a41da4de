package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ErrVersionRequested indicates the user requested the CLI version and
// no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// RunOptions carries per-invocation flags into the runner.
type RunOptions struct {
	Verbose bool
}

// ReportRunner defines the dependency required to run the root command.
type ReportRunner interface {
	GenerateReport(ctx context.Context, opts RunOptions) error
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Runner  ReportRunner
	Args    Arguments
	Version string
}

// NewRootCommand constructs the root Cobra command. The command reads
// the manifest from stdin and writes the report to stdout, so the only
// knobs here are verbosity and version.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	var verbose bool
	var showVersion bool

	root := &cobra.Command{
		Use:   "pa",
		Short: "Analyze labeled GitHub pull requests with a model completion endpoint",
		Long: "pa reads a JSON manifest from stdin, analyzes every closed, labeled\n" +
			"pull request in the configured repository, and writes a JSON report\n" +
			"to stdout.",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "increase output verbosity")
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")

	root.RunE = func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return deps.Runner.GenerateReport(cmd.Context(), RunOptions{Verbose: verbose})
	}

	return root
}
