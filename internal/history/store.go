// Package history persists suite runs into a local SQLite database so
// past results can be listed and exported after the fact.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MartinMa/native-tests/internal/models"
)

// SuiteRun is one recorded suite run.
type SuiteRun struct {
	ID           int64
	RunID        string
	ConfigPath   string
	StartedAt    time.Time
	DurationSecs float64
	Binaries     int
	Passed       int
	Failed       int
	ExitCodeSum  int
}

// BinaryRecord is one binary's result within a recorded suite run.
type BinaryRecord struct {
	ID           int64
	SuiteRunID   int64
	Name         string
	Path         string
	Args         []string
	ExitCode     int
	Status       string
	StartedAt    time.Time
	DurationSecs float64
}

// Store manages the SQLite database holding suite run history.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if necessary) the database at dbPath and
// initializes the schema.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == ":memory:" {
		return openAndInitStore(dbPath)
	}

	// Ensure parent directory exists for file-based databases
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	return openAndInitStore(dbPath)
}

func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout must come first so the remaining pragmas wait on
	// locks instead of failing when another process holds the file.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}

	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.applyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff on
// "database is locked" errors, which can occur when two processes
// initialize the same database file concurrently.
func execWithRetry(db *sql.DB, sql string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(sql)
		if err == nil {
			return nil
		}

		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		delay := baseDelay * time.Duration(1<<attempt)
		time.Sleep(delay)
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordSuite stores a complete suite result and its per-binary rows in
// one transaction. It returns the row ID of the recorded run.
func (s *Store) RecordSuite(ctx context.Context, configPath string, result models.SuiteResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	runQuery := `INSERT INTO suite_runs
		(run_id, config_path, started_at, duration_seconds, total_binaries, passed, failed, exit_code_sum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := tx.ExecContext(ctx, runQuery,
		result.RunID,
		configPath,
		result.StartedAt,
		result.Duration.Seconds(),
		len(result.Results),
		result.Passed(),
		result.Failed(),
		result.Sum(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert suite run: %w", err)
	}

	runRowID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get suite run id: %w", err)
	}

	if len(result.Results) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO binary_results
			(suite_run_id, name, path, args, exit_code, status, started_at, duration_seconds)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("prepare binary statement: %w", err)
		}
		defer stmt.Close()

		for _, br := range result.Results {
			argsJSON := "[]"
			if len(br.Args) > 0 {
				data, err := json.Marshal(br.Args)
				if err != nil {
					return 0, fmt.Errorf("marshal args: %w", err)
				}
				argsJSON = string(data)
			}

			_, err := stmt.ExecContext(ctx, runRowID,
				br.Name, br.Path, argsJSON, br.ExitCode, br.Status,
				br.StartedAt, br.Duration.Seconds())
			if err != nil {
				return 0, fmt.Errorf("insert binary result: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return runRowID, nil
}

// RecentRuns returns the most recently recorded suite runs, newest
// first. A limit of 0 or less returns all runs.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]SuiteRun, error) {
	query := `SELECT id, run_id, config_path, started_at, duration_seconds,
		total_binaries, passed, failed, exit_code_sum
		FROM suite_runs
		ORDER BY id DESC`

	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query suite runs: %w", err)
	}
	defer rows.Close()

	var runs []SuiteRun
	for rows.Next() {
		var run SuiteRun
		var configPath sql.NullString
		err := rows.Scan(
			&run.ID,
			&run.RunID,
			&configPath,
			&run.StartedAt,
			&run.DurationSecs,
			&run.Binaries,
			&run.Passed,
			&run.Failed,
			&run.ExitCodeSum,
		)
		if err != nil {
			return nil, fmt.Errorf("scan suite run row: %w", err)
		}

		if configPath.Valid {
			run.ConfigPath = configPath.String
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suite run rows: %w", err)
	}

	return runs, nil
}

// RunResults returns the per-binary rows of one recorded run, in the
// order the binaries executed.
func (s *Store) RunResults(ctx context.Context, suiteRunID int64) ([]BinaryRecord, error) {
	query := `SELECT id, suite_run_id, name, path, args, exit_code, status,
		started_at, duration_seconds
		FROM binary_results
		WHERE suite_run_id = ?
		ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, suiteRunID)
	if err != nil {
		return nil, fmt.Errorf("query binary results: %w", err)
	}
	defer rows.Close()

	var records []BinaryRecord
	for rows.Next() {
		var rec BinaryRecord
		var path, argsJSON sql.NullString
		var startedAt sql.NullTime
		err := rows.Scan(
			&rec.ID,
			&rec.SuiteRunID,
			&rec.Name,
			&path,
			&argsJSON,
			&rec.ExitCode,
			&rec.Status,
			&startedAt,
			&rec.DurationSecs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan binary result row: %w", err)
		}

		if path.Valid {
			rec.Path = path.String
		}
		if argsJSON.Valid && argsJSON.String != "" {
			if err := json.Unmarshal([]byte(argsJSON.String), &rec.Args); err != nil {
				return nil, fmt.Errorf("unmarshal args: %w", err)
			}
		}
		if startedAt.Valid {
			rec.StartedAt = startedAt.Time
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate binary result rows: %w", err)
	}

	return records, nil
}
