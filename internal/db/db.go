// Package db persists expanded sweep runs and their collected sample
// metrics in SQLite.
//
// A run is one expansion of a run spec: every (repetition, sweep-index)
// pair becomes a sample row at creation time, and results are recorded
// against those rows as the external execution engine reports them.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB

	// path is kept for admin tooling (tailsql labels, backups).
	path string
}

// NewDB opens the database at path and bootstraps the schema. Later schema
// changes ship as migrations; see migrate.go.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	if err := db.init(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDB opens the database without touching the schema. Migration tooling
// uses this so golang-migrate alone manages the tables.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return &DB{DB: db, path: path}, nil
}

func (db *DB) init() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			spec_json         TEXT NOT NULL,
			repetitions       BIGINT NOT NULL,
			sweep_length      BIGINT NOT NULL,
			total_runs        BIGINT NOT NULL,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS samples (
			run_id            TEXT NOT NULL,
			sample_index      BIGINT NOT NULL,
			repetition        BIGINT NOT NULL,
			sweep_index       BIGINT NOT NULL,
			assignment_json   TEXT NOT NULL,
			metric            DOUBLE,
			recorded_at       TIMESTAMP,
			PRIMARY KEY (run_id, sample_index),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE INDEX IF NOT EXISTS idx_samples_run_sweep
			ON samples(run_id, sweep_index);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialise schema: %w", err)
	}
	return nil
}
