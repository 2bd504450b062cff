package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/MartinMa/native-tests/internal/models"
)

// FileLogger logs suite events to files in a log directory. It creates
// timestamped per-run log files and maintains a latest.log symlink
// pointing to the most recent run. It is thread-safe and supports log
// level filtering to control message verbosity.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing into logDir. It creates the
// log directory if it doesn't exist, opens a timestamped run log file,
// and creates/updates the latest.log symlink.
func NewFileLogger(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Timestamped filename: run-YYYYMMDD-HHMMSS.log
	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	// Create/update latest.log symlink
	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
		mu:       sync.Mutex{},
	}

	logger.writeRunLog("=== native-tests Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// shouldLog checks if a message at the given level should be logged.
// Returns true if messageLevel >= configured logLevel.
func (fl *FileLogger) shouldLog(messageLevel string) bool {
	configuredLevel := logLevelToInt(fl.logLevel)
	msgLevel := logLevelToInt(messageLevel)
	return msgLevel >= configuredLevel
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

// logWithLevel is a helper that logs a message at the specified level if
// filtering allows it.
func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}

	formatted := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message)
	fl.writeRunLog(formatted)
}

// LogSuiteStart logs the start of a suite run at INFO level.
func (fl *FileLogger) LogSuiteStart(runID string, names []string) {
	if !fl.shouldLog("info") {
		return
	}

	binaryCount := len(names)
	binaryLabel := "binary"
	if binaryCount != 1 {
		binaryLabel = "binaries"
	}

	message := fmt.Sprintf(
		"[%s] Starting suite: %d %s (run %s)\n",
		time.Now().Format("15:04:05"),
		binaryCount,
		binaryLabel,
		runID,
	)

	fl.writeRunLog(message)
}

// LogBinaryStart logs an upcoming binary launch at DEBUG level.
func (fl *FileLogger) LogBinaryStart(name string, commandLine []string) {
	fl.LogDebug(fmt.Sprintf("Running %s: %s", name, strings.Join(commandLine, " ")))
}

// LogBinaryResult logs the completion of one binary at INFO level.
func (fl *FileLogger) LogBinaryResult(result models.BinaryResult) {
	if !fl.shouldLog("info") {
		return
	}

	message := fmt.Sprintf(
		"[%s] %s: %s (exit code %d, duration %.1fs)\n",
		time.Now().Format("15:04:05"),
		result.Name,
		result.Status,
		result.ExitCode,
		result.Duration.Seconds(),
	)

	fl.writeRunLog(message)
}

// LogSuiteSummary logs the suite summary with final statistics at INFO
// level.
func (fl *FileLogger) LogSuiteSummary(result models.SuiteResult) {
	if !fl.shouldLog("info") {
		return
	}

	timestamp := time.Now().Format("15:04:05")

	status := "SUCCESS"
	if result.Failed() > 0 {
		status = "FAILED"
	}

	message := fmt.Sprintf(
		"\n[%s] === SUITE SUMMARY ===\n"+
			"[%s] Run ID:         %s\n"+
			"[%s] Total binaries: %d\n"+
			"[%s] Passed:         %d\n"+
			"[%s] Failed:         %d\n"+
			"[%s] Exit code sum:  %d\n"+
			"[%s] Total time:     %.1fs\n"+
			"[%s] Status:         %s (%d/%d binaries passed)\n"+
			"[%s] Completed at:   %s\n",
		timestamp,
		timestamp,
		result.RunID,
		timestamp,
		len(result.Results),
		timestamp,
		result.Passed(),
		timestamp,
		result.Failed(),
		timestamp,
		result.Sum(),
		timestamp,
		result.Duration.Seconds(),
		timestamp,
		status,
		result.Passed(),
		len(result.Results),
		timestamp,
		time.Now().Format(time.RFC3339),
	)

	fl.writeRunLog(message)
}

// RunFile returns the path of the run log file backing this logger.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

// Close flushes and closes the run log file.
// It should be called when the logger is no longer needed.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		// Flush after each write for real-time logging
		fl.runLog.Sync()
	}
}
