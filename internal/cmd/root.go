package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for native-tests
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "native-tests",
		Short: "Sequential runner for googletest binary suites",
		Long: `Native-tests runs a suite of googletest binaries described by a YAML
configuration file, one binary at a time and in configuration order.

Each configuration entry names a test binary and may carry a to_fix list
of known-broken tests, which are excluded from the run via gtest_filter.
With an output directory, each binary writes its results to an XML file
instead of stdout. The process exit code is the sum of the per-binary
exit codes.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// Errors are reported once by main with a classified exit code
		SilenceErrors: true,
	}

	// Add subcommands
	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
