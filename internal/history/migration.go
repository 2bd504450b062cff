package history

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one versioned schema change.
type migration struct {
	version     int
	description string
	sql         string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		version:     1,
		description: "Initial schema with suite_runs and binary_results",
		sql: `
-- One row per suite run
CREATE TABLE IF NOT EXISTS suite_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,
    config_path TEXT,
    started_at TIMESTAMP NOT NULL,
    duration_seconds REAL DEFAULT 0,
    total_binaries INTEGER NOT NULL DEFAULT 0,
    passed INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    exit_code_sum INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_suite_runs_started ON suite_runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_suite_runs_run_id ON suite_runs(run_id);

-- One row per binary within a suite run
CREATE TABLE IF NOT EXISTS binary_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    suite_run_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    path TEXT,
    args TEXT,
    exit_code INTEGER NOT NULL,
    status TEXT NOT NULL,
    started_at TIMESTAMP,
    duration_seconds REAL DEFAULT 0,
    FOREIGN KEY (suite_run_id) REFERENCES suite_runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_binary_results_run ON binary_results(suite_run_id);
CREATE INDEX IF NOT EXISTS idx_binary_results_status ON binary_results(status);
`,
	},
}

// applyMigrations applies all pending migrations inside one serialized
// transaction so concurrent initialization of the same database file is
// safe.
func (s *Store) applyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	applied, err := appliedVersionsTx(tx)
	if err != nil {
		return fmt.Errorf("get applied versions: %w", err)
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}

		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.version, m.description, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, m.version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}

	return nil
}

func appliedVersionsTx(tx *sql.Tx) (map[int]bool, error) {
	rows, err := tx.Query(`SELECT version FROM schema_version ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		applied[version] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	return applied, nil
}

// latestVersion returns the highest applied migration version.
func (s *Store) latestVersion() (int, error) {
	var version int
	query := `SELECT COALESCE(MAX(version), 0) FROM schema_version`
	if err := s.db.QueryRow(query).Scan(&version); err != nil {
		return 0, fmt.Errorf("query latest version: %w", err)
	}
	return version, nil
}
