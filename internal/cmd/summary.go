package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/MartinMa/native-tests/internal/models"
)

// printResultsTable prints the per-binary results of a suite run.
func printResultsTable(w io.Writer, result models.SuiteResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Suite Results (%s)", formatSeconds(result.Duration)))

	t.AppendHeader(table.Row{"Binary", "Duration", "Exit Code", "Status"})

	// Set column configurations for better readability
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Binary", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Exit Code", Align: text.AlignRight},
	})

	for _, br := range result.Results {
		t.AppendRow(table.Row{
			br.Name,
			formatSeconds(br.Duration),
			br.ExitCode,
			getResultString(br.Status),
		})
	}

	// Color the table by overall status, but only on a terminal
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		if result.Failed() == 0 {
			t.SetStyle(table.StyleColoredBlackOnGreenWhite)
		} else {
			t.SetStyle(table.StyleColoredBlackOnRedWhite)
		}
	}

	// Add summary footer
	t.AppendFooter(table.Row{
		"TOTAL",
		formatSeconds(result.Duration),
		result.Sum(),
		fmt.Sprintf("%d/%d passed", result.Passed(), len(result.Results)),
	})

	t.Render()
}

// getResultString returns a string representing the binary result
func getResultString(status string) string {
	if status == models.StatusPassed {
		return "✓ pass"
	}
	return "✗ fail"
}

// Helper function to format duration to seconds with 1 decimal place
func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
