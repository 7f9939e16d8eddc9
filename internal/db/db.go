package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/sheetload/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Target is a parsed store connection string.
type Target struct {
	// Path is the database file, empty for in-memory stores
	Path   string
	Memory bool
}

// ParseDSN resolves a connection string. Accepted forms: "", ":memory:",
// "sqlite::memory:", "sqlite://path", "sqlite:path" and a plain file path.
func ParseDSN(conn string) Target {
	s := strings.TrimSpace(conn)
	if rest, ok := strings.CutPrefix(s, "sqlite://"); ok {
		s = rest
	} else if rest, ok := strings.CutPrefix(s, "sqlite:"); ok {
		s = rest
	}
	if s == "" || s == ":memory:" {
		return Target{Memory: true}
	}
	return Target{Path: s}
}

// DSN returns the driver connection string with pragmas applied to every
// connection in the pool.
func (t Target) DSN() string {
	if t.Memory {
		return ":memory:?_pragma=foreign_keys(1)"
	}
	return t.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
}

// Open opens the store named by conn and migrates it to the current schema.
// In-memory stores are pinned to a single connection so every caller sees
// the same database.
func Open(conn string) (*sql.DB, error) {
	target := ParseDSN(conn)

	if !target.Memory {
		if dir := filepath.Dir(target.Path); dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", target.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if target.Memory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	if !target.Memory {
		_ = os.Chmod(target.Path, 0600)
	}

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values); in-memory
// stores keep their single connection.
func ConfigurePool(db *sql.DB, conn string, cfg *config.Config) {
	if cfg == nil || ParseDSN(conn).Memory {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS projects (
		  project_id       TEXT PRIMARY KEY,
		  project_name     TEXT NOT NULL,
		  project_date     TEXT NOT NULL,
		  pay_rate         REAL NOT NULL DEFAULT 0,
		  project_duration INTEGER NOT NULL DEFAULT 0,
		  total_pay        REAL NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS project_tasks (
		  task_id        TEXT PRIMARY KEY,
		  project_id     TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		  task_name      TEXT NOT NULL,
		  task_duration  INTEGER NOT NULL DEFAULT 0,
		  task_date_time TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS task_times (
		  task_time_id INTEGER PRIMARY KEY AUTOINCREMENT,
		  task_id      TEXT NOT NULL REFERENCES project_tasks(task_id) ON DELETE CASCADE,
		  start_time   TEXT NOT NULL,
		  end_time     TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS import_runs (
		  run_id      TEXT PRIMARY KEY,
		  path        TEXT NOT NULL,
		  started_at  INTEGER NOT NULL,
		  finished_at INTEGER,
		  rows_read   INTEGER NOT NULL DEFAULT 0,
		  projects    INTEGER NOT NULL DEFAULT 0,
		  inserted    INTEGER NOT NULL DEFAULT 0,
		  skipped     INTEGER NOT NULL DEFAULT 0,
		  status      TEXT NOT NULL,
		  error       TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_projects_date
		ON projects(project_date, project_name);

		CREATE INDEX IF NOT EXISTS idx_project_tasks_project
		ON project_tasks(project_id, task_date_time);

		CREATE INDEX IF NOT EXISTS idx_task_times_task
		ON task_times(task_id, start_time);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
