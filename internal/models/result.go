package models

import "time"

// Binary execution status constants
const (
	StatusPassed = "PASSED" // Binary exited with code 0
	StatusFailed = "FAILED" // Binary exited with a non-zero code
)

// StatusForExitCode maps a raw process exit code to a status constant.
func StatusForExitCode(code int) string {
	if code == 0 {
		return StatusPassed
	}
	return StatusFailed
}

// BinaryResult represents the result of running a single test binary
type BinaryResult struct {
	Name      string        // Binary name as listed in the configuration
	Path      string        // Resolved executable path
	Args      []string      // Arguments passed to the binary
	ExitCode  int           // Raw exit code reported by the process
	Status    string        // Status: "PASSED" or "FAILED"
	StartedAt time.Time     // When the binary was launched
	Duration  time.Duration // Time taken to run
}

// SuiteResult represents the aggregate result of one suite run
type SuiteResult struct {
	RunID     string         // Unique identifier for this run
	StartedAt time.Time      // When the suite started
	Duration  time.Duration  // Total execution time
	Results   []BinaryResult // Per-binary results in execution order
}

// Sum returns the arithmetic sum of all per-binary exit codes. The sum,
// not a logical OR, is the historical aggregation rule for this tool: a
// suite of three binaries each exiting 1 yields 3.
func (r SuiteResult) Sum() int {
	sum := 0
	for _, br := range r.Results {
		sum += br.ExitCode
	}
	return sum
}

// Passed returns the number of binaries that exited with code 0.
func (r SuiteResult) Passed() int {
	count := 0
	for _, br := range r.Results {
		if br.Status == StatusPassed {
			count++
		}
	}
	return count
}

// Failed returns the number of binaries that exited non-zero.
func (r SuiteResult) Failed() int {
	return len(r.Results) - r.Passed()
}

// FailedResults returns the results of failed binaries, in execution order.
func (r SuiteResult) FailedResults() []BinaryResult {
	var failed []BinaryResult
	for _, br := range r.Results {
		if br.Status == StatusFailed {
			failed = append(failed, br)
		}
	}
	return failed
}
