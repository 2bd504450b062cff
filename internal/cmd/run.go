package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MartinMa/native-tests/internal/exitcodes"
	"github.com/MartinMa/native-tests/internal/filelock"
	"github.com/MartinMa/native-tests/internal/history"
	"github.com/MartinMa/native-tests/internal/logger"
	"github.com/MartinMa/native-tests/internal/models"
	"github.com/MartinMa/native-tests/internal/registry"
	"github.com/MartinMa/native-tests/internal/runner"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run test binaries from a configuration",
		Long: `Run the googletest binaries named by a YAML configuration file, one at
a time and in configuration order.

Each binary runs with a gtest_filter that excludes its to_fix tests.
With --output-dir, every binary writes its results to results_<name>.xml
in that directory and its stdout is suppressed. The process exit code is
the arithmetic sum of the per-binary exit codes, so a fully passing
suite exits 0.

Examples:
  # Run every binary in the config
  native-tests run --config testing/tests.yaml --tests-dir out/Release

  # Run a subset
  native-tests run -c tests.yaml -t out/Release -b base_unittests -b net_unittests

  # Write XML results and a run log
  native-tests run -c tests.yaml -t out/Release -o results --log-dir logs

  # Kill any binary that runs longer than 10 minutes
  native-tests run -c tests.yaml -t out/Release --timeout 10m

  # Record the run into a local history database
  native-tests run -c tests.yaml -t out/Release --history-db history.db`,
		RunE: runCommand,
	}

	// Add flags
	cmd.Flags().StringP("config", "c", "", "Path to the tests configuration file")
	cmd.Flags().StringP("tests-dir", "t", "", "Directory containing the test binaries")
	cmd.Flags().StringArrayP("binary", "b", nil, "Name of a binary to run (repeatable; default: all)")
	cmd.Flags().StringP("output-dir", "o", "", "Directory for XML result files")
	cmd.Flags().Duration("timeout", 0, "Per-binary run limit (e.g. 30s, 10m; 0 = none)")
	cmd.Flags().Bool("verbose", false, "Show detailed execution information")
	cmd.Flags().String("log-dir", "", "Directory for run log files")
	cmd.Flags().String("history-db", "", "Path to the run history database")
	cmd.Flags().Bool("no-summary", false, "Suppress the results table")
	cmd.MarkFlagRequired("config")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	// Get flag values
	configFlag, _ := cmd.Flags().GetString("config")
	testsDirFlag, _ := cmd.Flags().GetString("tests-dir")
	binaries, _ := cmd.Flags().GetStringArray("binary")
	outputDirFlag, _ := cmd.Flags().GetString("output-dir")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	verbose, _ := cmd.Flags().GetBool("verbose")
	logDir, _ := cmd.Flags().GetString("log-dir")
	historyDB, _ := cmd.Flags().GetString("history-db")
	noSummary, _ := cmd.Flags().GetBool("no-summary")

	if testsDirFlag == "" {
		return fmt.Errorf("specify a path to a dir with test binaries via --tests-dir")
	}

	// Absolutize and check paths before loading anything
	configPath, err := resolveFile(configFlag)
	if err != nil {
		return err
	}
	testsDir, err := resolveDir(testsDirFlag)
	if err != nil {
		return err
	}
	outputDir := ""
	if outputDirFlag != "" {
		outputDir, err = resolveDir(outputDirFlag)
		if err != nil {
			return err
		}
	}

	reg, err := registry.Load(configPath)
	if err != nil {
		return err
	}

	// Determine log level: verbose raises console logging to debug
	logLevel := "info"
	if verbose {
		logLevel = "debug"
	}

	consoleLog := logger.NewConsoleLogger(cmd.OutOrStdout(), logLevel)
	runLoggers := []runner.Logger{consoleLog}

	if logDir != "" {
		fileLog, err := logger.NewFileLogger(logDir, logLevel)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer fileLog.Close()
		runLoggers = append(runLoggers, fileLog)
	}

	// Guard the output directory against a concurrently running suite
	if outputDir != "" {
		lock := filelock.ForOutputDir(outputDir)
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to lock output directory: %w", err)
		}
		if !locked {
			return fmt.Errorf("output directory %s is in use by another run", outputDir)
		}
		defer lock.Unlock()
	}

	// Open the history store up front so a bad path fails before any binary runs
	var store *history.Store
	if historyDB != "" {
		store, err = history.NewStore(historyDB)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()
	}

	suite := runner.New(reg, runner.Options{
		TestsDir:  testsDir,
		OutputDir: outputDir,
		Timeout:   timeout,
		Logger:    &multiLogger{loggers: runLoggers},
		Stdout:    cmd.OutOrStdout(),
		Stderr:    cmd.OutOrStderr(),
	})

	var result models.SuiteResult
	if len(binaries) > 0 {
		result, err = suite.Run(cmd.Context(), binaries)
	} else {
		result, err = suite.RunAll(cmd.Context())
	}

	// Record whatever ran, even when the suite aborted partway. The run
	// context may already be canceled here, so recording uses its own.
	if store != nil && result.RunID != "" {
		if _, recErr := store.RecordSuite(context.Background(), configPath, result); recErr != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Warning: failed to record run history: %v\n", recErr)
		}
	}

	if err != nil {
		return err
	}

	if !noSummary {
		printResultsTable(cmd.OutOrStdout(), result)
	}

	if sum := result.Sum(); sum != 0 {
		return &exitcodes.SuiteFailureError{
			Failed: result.Failed(),
			Total:  len(result.Results),
			Sum:    sum,
		}
	}

	return nil
}

// multiLogger implements runner.Logger by delegating to multiple loggers
type multiLogger struct {
	loggers []runner.Logger
}

// LogSuiteStart forwards to all loggers
func (ml *multiLogger) LogSuiteStart(runID string, names []string) {
	for _, logger := range ml.loggers {
		logger.LogSuiteStart(runID, names)
	}
}

// LogBinaryStart forwards to all loggers
func (ml *multiLogger) LogBinaryStart(name string, commandLine []string) {
	for _, logger := range ml.loggers {
		logger.LogBinaryStart(name, commandLine)
	}
}

// LogBinaryResult forwards to all loggers
func (ml *multiLogger) LogBinaryResult(result models.BinaryResult) {
	for _, logger := range ml.loggers {
		logger.LogBinaryResult(result)
	}
}

// LogSuiteSummary forwards to all loggers
func (ml *multiLogger) LogSuiteSummary(result models.SuiteResult) {
	for _, logger := range ml.loggers {
		logger.LogSuiteSummary(result)
	}
}
