// Package logger provides logging implementations for suite execution.
//
// The logger package offers structured logging of execution progress at
// the binary and summary levels. Implementations are thread-safe and
// support various output destinations (console, file, etc.).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/MartinMa/native-tests/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs execution progress to a writer with timestamps and
// thread safety. All output is prefixed with [HH:MM:SS] timestamps for
// tracking execution flow. It supports log level filtering to control
// message verbosity. Color output is automatically enabled for terminal
// output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided
// io.Writer. If writer is nil, messages are silently discarded.
// logLevel determines the minimum log level for messages to be output.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	normalizedLevel := normalizeLogLevel(logLevel)
	useColor := isTerminal(writer)

	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizedLevel,
		mutex:       sync.Mutex{},
		colorOutput: useColor,
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Returns true for os.Stdout and os.Stderr when they are TTYs.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}

	if w == os.Stdout || w == os.Stderr {
		// The color library's detection also honors NO_COLOR.
		return !color.NoColor
	}

	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates
// it. Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}

	return "info" // Default level
}

// shouldLog checks if a message at the given level should be logged.
// Returns true if messageLevel >= configured logLevel.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	configuredLevel := logLevelToInt(cl.logLevel)
	msgLevel := logLevelToInt(messageLevel)
	return msgLevel >= configuredLevel
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo // Default to info if unknown
	}
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
// Format: "[HH:MM:SS] [DEBUG] <message>"
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
// Format: "[HH:MM:SS] [WARN] <message>"
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
// Format: "[HH:MM:SS] [ERROR] <message>"
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel is a helper that logs a message at the specified level if
// filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string

	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// LogSuiteStart logs the start of a suite run at INFO level.
// Format: "[HH:MM:SS] Starting suite: <count> binaries (run <id>)"
func (cl *ConsoleLogger) LogSuiteStart(runID string, names []string) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	binaryCount := len(names)
	binaryLabel := "binaries"
	if binaryCount == 1 {
		binaryLabel = "binary"
	}

	var message string
	if cl.colorOutput {
		header := color.New(color.Bold).Sprint("Starting suite")
		message = fmt.Sprintf("[%s] %s: %d %s (run %s)\n", ts, header, binaryCount, binaryLabel, runID)
	} else {
		message = fmt.Sprintf("[%s] Starting suite: %d %s (run %s)\n", ts, binaryCount, binaryLabel, runID)
	}

	cl.writer.Write([]byte(message))
}

// LogBinaryStart logs an upcoming binary launch at DEBUG level.
// Format: "[HH:MM:SS] Running <name>: <command line>"
func (cl *ConsoleLogger) LogBinaryStart(name string, commandLine []string) {
	cl.LogDebug(fmt.Sprintf("Running %s: %s", name, strings.Join(commandLine, " ")))
}

// LogBinaryResult logs the completion of one binary at INFO level.
// Format: "[HH:MM:SS] <name>: PASSED (<duration>)" or
// "[HH:MM:SS] <name>: FAILED (exit code <n>, <duration>)"
func (cl *ConsoleLogger) LogBinaryResult(result models.BinaryResult) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	durationStr := formatDuration(result.Duration)

	var statusText string
	if result.Status == models.StatusPassed {
		statusText = fmt.Sprintf("PASSED (%s)", durationStr)
		if cl.colorOutput {
			statusText = color.New(color.FgGreen).Sprint(statusText)
		}
	} else {
		statusText = fmt.Sprintf("FAILED (exit code %d, %s)", result.ExitCode, durationStr)
		if cl.colorOutput {
			statusText = color.New(color.FgRed).Sprint(statusText)
		}
	}

	message := fmt.Sprintf("[%s] %s: %s\n", ts, result.Name, statusText)
	cl.writer.Write([]byte(message))
}

// LogSuiteSummary logs the suite summary with pass/fail statistics at INFO
// level.
func (cl *ConsoleLogger) LogSuiteSummary(result models.SuiteResult) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	durationStr := formatDuration(result.Duration)

	var output string

	if cl.colorOutput {
		header := color.New(color.Bold).Sprint("=== Suite Summary ===")
		output = fmt.Sprintf("[%s] %s\n", ts, header)
		output += fmt.Sprintf("[%s] Total binaries: %d\n", ts, len(result.Results))

		passedText := color.New(color.FgGreen).Sprintf("Passed: %d", result.Passed())
		output += fmt.Sprintf("[%s] %s\n", ts, passedText)

		if result.Failed() > 0 {
			failedText := color.New(color.FgRed).Sprintf("Failed: %d", result.Failed())
			output += fmt.Sprintf("[%s] %s\n", ts, failedText)
		} else {
			output += fmt.Sprintf("[%s] Failed: %d\n", ts, result.Failed())
		}

		output += fmt.Sprintf("[%s] Exit code sum: %d\n", ts, result.Sum())
		output += fmt.Sprintf("[%s] Duration: %s\n", ts, durationStr)

		if result.Failed() > 0 {
			failedHeader := color.New(color.FgRed).Sprint("Failed binaries:")
			output += fmt.Sprintf("[%s] %s\n", ts, failedHeader)
			for _, failed := range result.FailedResults() {
				name := color.New(color.FgRed).Sprint(failed.Name)
				output += fmt.Sprintf("[%s]   - %s: exit code %d\n", ts, name, failed.ExitCode)
			}
		}
	} else {
		output = fmt.Sprintf("[%s] === Suite Summary ===\n", ts)
		output += fmt.Sprintf("[%s] Total binaries: %d\n", ts, len(result.Results))
		output += fmt.Sprintf("[%s] Passed: %d\n", ts, result.Passed())
		output += fmt.Sprintf("[%s] Failed: %d\n", ts, result.Failed())
		output += fmt.Sprintf("[%s] Exit code sum: %d\n", ts, result.Sum())
		output += fmt.Sprintf("[%s] Duration: %s\n", ts, durationStr)

		if result.Failed() > 0 {
			output += fmt.Sprintf("[%s] Failed binaries:\n", ts)
			for _, failed := range result.FailedResults() {
				output += fmt.Sprintf("[%s]   - %s: exit code %d\n", ts, failed.Name, failed.ExitCode)
			}
		}
	}

	cl.writer.Write([]byte(output))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}

// NoOpLogger is a logger implementation that discards all messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogSuiteStart is a no-op implementation.
func (n *NoOpLogger) LogSuiteStart(runID string, names []string) {
}

// LogBinaryStart is a no-op implementation.
func (n *NoOpLogger) LogBinaryStart(name string, commandLine []string) {
}

// LogBinaryResult is a no-op implementation.
func (n *NoOpLogger) LogBinaryResult(result models.BinaryResult) {
}

// LogSuiteSummary is a no-op implementation.
func (n *NoOpLogger) LogSuiteSummary(result models.SuiteResult) {
}
