package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// DefaultFileName is the snapshot database name inside the base directory.
const DefaultFileName = "snapshots.db"

// Open opens (creating if needed) the snapshot database at dbPath and applies
// pending migrations.
func Open(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas in the connection string apply to every pooled connection.
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// DefaultPath returns ~/.mealtrace/snapshots.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".mealtrace", DefaultFileName), nil
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
		CREATE TABLE IF NOT EXISTS runs (
		  id               TEXT PRIMARY KEY,
		  export_path      TEXT NOT NULL,
		  date_range       TEXT NOT NULL,
		  gap_minutes      INTEGER NOT NULL,
		  records_seen     INTEGER NOT NULL,
		  records_accepted INTEGER NOT NULL,
		  created_at       INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS food_events (
		  run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		  seq          INTEGER NOT NULL,
		  identity     TEXT NOT NULL,
		  stable       INTEGER NOT NULL,
		  food         TEXT NOT NULL,
		  slot         TEXT NOT NULL,
		  source       TEXT NOT NULL,
		  first_ts     TEXT NOT NULL,
		  iso_year     INTEGER NOT NULL,
		  iso_week     INTEGER NOT NULL,
		  records      INTEGER NOT NULL,
		  energy       REAL NOT NULL,
		  protein      REAL NOT NULL,
		  carbohydrate REAL NOT NULL,
		  fat          REAL NOT NULL,
		  water        REAL NOT NULL,
		  PRIMARY KEY (run_id, seq)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_food_events_identity
		ON food_events(run_id, identity);

		CREATE INDEX IF NOT EXISTS idx_food_events_week
		ON food_events(run_id, iso_year, iso_week);

		CREATE TABLE IF NOT EXISTS meals (
		  run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		  seq          INTEGER NOT NULL,
		  start_ts     TEXT NOT NULL,
		  energy       REAL NOT NULL,
		  protein      REAL NOT NULL,
		  carbohydrate REAL NOT NULL,
		  fat          REAL NOT NULL,
		  water        REAL NOT NULL,
		  PRIMARY KEY (run_id, seq)
		);

		CREATE TABLE IF NOT EXISTS meal_events (
		  run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		  meal_seq  INTEGER NOT NULL,
		  event_seq INTEGER NOT NULL,
		  PRIMARY KEY (run_id, event_seq)
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

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
