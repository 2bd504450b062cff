package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MartinMa/native-tests/internal/gtest"
	"github.com/MartinMa/native-tests/internal/registry"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a tests configuration file",
		Long: `Parse and validate a tests configuration file, checking for:
  - A parseable YAML document with a top-level tests sequence
  - Well-formed entries (bare names or single-key mappings)
  - Duplicate binary names (noted; the last settings win)
  - With --tests-dir: each binary present on disk

Exit code: 0 if valid, non-zero if errors found`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFlag, _ := cmd.Flags().GetString("config")
			testsDirFlag, _ := cmd.Flags().GetString("tests-dir")
			return validateConfig(configFlag, testsDirFlag, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringP("config", "c", "", "Path to the tests configuration file")
	cmd.Flags().StringP("tests-dir", "t", "", "Directory containing the test binaries")
	cmd.MarkFlagRequired("config")

	return cmd
}

// validateConfig validates a configuration file with a custom output writer (for testing)
func validateConfig(configFlag, testsDirFlag string, output io.Writer) error {
	var errors []string

	// 1. Resolve paths
	configPath, err := resolveFile(configFlag)
	if err != nil {
		fmt.Fprintf(output, "✗ %v\n", err)
		return err
	}

	testsDir := ""
	if testsDirFlag != "" {
		testsDir, err = resolveDir(testsDirFlag)
		if err != nil {
			fmt.Fprintf(output, "✗ %v\n", err)
			return err
		}
	}

	// 2. Parse the configuration
	reg, err := registry.Load(configPath)
	if err != nil {
		fmt.Fprintf(output, "✗ Failed to parse config from %s\n", configPath)
		fmt.Fprintf(output, "  Error: %v\n", err)
		return fmt.Errorf("parse error: %w", err)
	}

	fmt.Fprintf(output, "✓ Validating config from %s\n", configPath)
	fmt.Fprintf(output, "✓ Parsed %d binary entries successfully\n", reg.Len())

	if reg.Len() == 0 {
		fmt.Fprintf(output, "  Note: config names no binaries\n")
	}

	// 3. Note duplicate names; for each, the last settings win
	for _, name := range reg.Duplicates() {
		fmt.Fprintf(output, "  Note: binary '%s' listed more than once, last settings win\n", name)
	}

	// 4. With a tests dir, check each binary is present on disk
	if testsDir != "" {
		missingErrors := checkBinariesOnDisk(reg, testsDir)
		if len(missingErrors) == 0 {
			fmt.Fprintf(output, "✓ All binaries present in %s\n", testsDir)
		} else {
			errors = append(errors, missingErrors...)
		}
	}

	// Final validation check
	if len(errors) == 0 {
		fmt.Fprintf(output, "\n✓ Config is valid!\n")
		return nil
	}

	// Report all validation errors
	fmt.Fprintf(output, "\n✗ Validation failed\n")
	for _, errMsg := range errors {
		fmt.Fprintf(output, "  ✗ %s\n", errMsg)
	}
	fmt.Fprintf(output, "\nFound %d validation error(s)!\n", len(errors))

	return fmt.Errorf("validation failed with %d error(s)", len(errors))
}

// checkBinariesOnDisk checks that every registry binary exists under testsDir
func checkBinariesOnDisk(reg *registry.Registry, testsDir string) []string {
	var errors []string

	for _, name := range reg.Names() {
		path := gtest.BinaryPath(testsDir, name)
		info, err := os.Stat(path)
		if err != nil {
			errors = append(errors, fmt.Sprintf("Binary '%s' not found at %s", name, path))
			continue
		}
		if info.IsDir() {
			errors = append(errors, fmt.Sprintf("Binary '%s' is a directory, not an executable", name))
		}
	}

	return errors
}
