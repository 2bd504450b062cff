package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MartinMa/native-tests/internal/registry"
)

// NewListCommand creates the list command
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the test binaries a configuration names",
		Long: `List the test binary names from a YAML configuration file, one per line,
in configuration order. A binary that appears more than once in the file
is listed once, at its first position.

Examples:
  # List every binary the config knows about
  native-tests list --config testing/tests.yaml`,
		RunE: listCommand,
	}

	cmd.Flags().StringP("config", "c", "", "Path to the tests configuration file")
	cmd.MarkFlagRequired("config")

	return cmd
}

// listCommand implements the list command logic
func listCommand(cmd *cobra.Command, args []string) error {
	configFlag, _ := cmd.Flags().GetString("config")

	configPath, err := resolveFile(configFlag)
	if err != nil {
		return err
	}

	reg, err := registry.Load(configPath)
	if err != nil {
		return err
	}

	for _, name := range reg.Names() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", name)
	}

	return nil
}
