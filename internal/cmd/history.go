package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MartinMa/native-tests/internal/filelock"
	"github.com/MartinMa/native-tests/internal/history"
	"github.com/MartinMa/native-tests/internal/models"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	var dbPath string
	var limit int
	var output string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent suite runs from the history database",
		Long: `Show suite runs recorded by earlier invocations of run --history-db,
most recent first.

Each run is listed with its ID, start time, binary counts, and exit code
sum. Runs with failures also list the failed binaries.

Examples:
  # Show the 20 most recent runs
  native-tests history --history-db history.db

  # Show the 5 most recent runs
  native-tests history --history-db history.db --limit 5

  # Export the runs to a JSON file
  native-tests history --history-db history.db --output runs.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), dbPath, limit, output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dbPath, "history-db", "", "Path to the run history database")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 = all)")
	cmd.Flags().StringVar(&output, "output", "", "Write the runs to a JSON file instead of listing them")
	cmd.MarkFlagRequired("history-db")

	return cmd
}

// runHistory executes the history command
func runHistory(ctx context.Context, dbPath string, limit int, output string, w io.Writer) error {
	dbFile, err := resolveFile(dbPath)
	if err != nil {
		return err
	}

	store, err := history.NewStore(dbFile)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if output != "" {
		return exportRunsJSON(ctx, store, runs, output, w)
	}

	if len(runs) == 0 {
		fmt.Fprintf(w, "No recorded runs in %s\n", dbFile)
		return nil
	}

	printRunHistory(ctx, store, runs, w)
	return nil
}

// printRunHistory formats and prints the recorded runs
func printRunHistory(ctx context.Context, store *history.Store, runs []history.SuiteRun, w io.Writer) {
	// Colors
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	cyan.Fprintf(w, "\n=== Recorded Suite Runs ===\n")

	for _, run := range runs {
		fmt.Fprintf(w, "\n%s\n", run.RunID)
		fmt.Fprintf(w, "  Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
		if run.ConfigPath != "" {
			fmt.Fprintf(w, "  Config: %s\n", run.ConfigPath)
		}
		fmt.Fprintf(w, "  Duration: %.1fs\n", run.DurationSecs)
		fmt.Fprintf(w, "  Binaries: %d (", run.Binaries)
		green.Fprintf(w, "%d passed", run.Passed)
		fmt.Fprintf(w, ", ")
		red.Fprintf(w, "%d failed", run.Failed)
		fmt.Fprintf(w, ")\n")
		fmt.Fprintf(w, "  Exit code sum: %d\n", run.ExitCodeSum)

		if run.Failed > 0 {
			if names, err := failedBinaryNames(ctx, store, run.ID); err == nil && len(names) > 0 {
				fmt.Fprintf(w, "  Failed binaries: %s\n", strings.Join(names, ", "))
			}
		}
	}

	fmt.Fprintf(w, "\n")
}

// failedBinaryNames returns the names of the failed binaries of a recorded run
func failedBinaryNames(ctx context.Context, store *history.Store, suiteRunID int64) ([]string, error) {
	records, err := store.RunResults(ctx, suiteRunID)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, rec := range records {
		if rec.Status == models.StatusFailed {
			names = append(names, rec.Name)
		}
	}
	return names, nil
}

// historyExport is the JSON document written by --output
type historyExport struct {
	ExportedAt time.Time     `json:"exported_at"`
	Runs       []exportedRun `json:"runs"`
}

type exportedRun struct {
	RunID          string    `json:"run_id"`
	ConfigPath     string    `json:"config_path,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	DurationSecs   float64   `json:"duration_seconds"`
	Binaries       int       `json:"total_binaries"`
	Passed         int       `json:"passed"`
	Failed         int       `json:"failed"`
	ExitCodeSum    int       `json:"exit_code_sum"`
	FailedBinaries []string  `json:"failed_binaries,omitempty"`
}

// exportRunsJSON writes the runs to path as an indented JSON document
func exportRunsJSON(ctx context.Context, store *history.Store, runs []history.SuiteRun, path string, w io.Writer) error {
	export := historyExport{
		ExportedAt: time.Now().UTC(),
		// Initialize empty slice so JSON output is [] not null
		Runs: make([]exportedRun, 0, len(runs)),
	}

	for _, run := range runs {
		er := exportedRun{
			RunID:        run.RunID,
			ConfigPath:   run.ConfigPath,
			StartedAt:    run.StartedAt,
			DurationSecs: run.DurationSecs,
			Binaries:     run.Binaries,
			Passed:       run.Passed,
			Failed:       run.Failed,
			ExitCodeSum:  run.ExitCodeSum,
		}
		if run.Failed > 0 {
			names, err := failedBinaryNames(ctx, store, run.ID)
			if err != nil {
				return fmt.Errorf("failed to load results for run %s: %w", run.RunID, err)
			}
			er.FailedBinaries = names
		}
		export.Runs = append(export.Runs, er)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	if err := filelock.AtomicWrite(path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(w, "Exported %d run(s) to %s\n", len(export.Runs), path)
	return nil
}
