package migration

import (
	"context"

	"sheetdiff/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the run history schema. Every statement is
// idempotent so the runner can execute on every start.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create comparison_runs table"))
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to create indexes"))
	}

	return nil
}

// timestampType picks a column type both drivers scan into time.Time
func timestampType(db *sqlx.DB) string {
	if db.DriverName() == "postgres" {
		return "TIMESTAMPTZ"
	}
	return "TIMESTAMP"
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	ts := timestampType(db)
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS comparison_runs (
			id TEXT PRIMARY KEY,
			baseline_name TEXT NOT NULL,
			candidate_name TEXT NOT NULL,
			sheet_name TEXT NOT NULL DEFAULT '',
			header_row INTEGER NOT NULL,
			key_fields TEXT NOT NULL DEFAULT '[]',
			outcome VARCHAR(20) NOT NULL,
			changed_cells INTEGER NOT NULL DEFAULT 0,
			added_rows INTEGER NOT NULL DEFAULT 0,
			removed_rows INTEGER NOT NULL DEFAULT 0,
			error_detail TEXT NOT NULL DEFAULT '',
			warnings TEXT NOT NULL DEFAULT '[]',
			outputs TEXT NOT NULL DEFAULT '[]',
			fingerprint TEXT NOT NULL DEFAULT '',
			started_at `+ts+` NOT NULL,
			finished_at `+ts+` NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_comparison_runs_started_at ON comparison_runs(started_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_comparison_runs_outcome ON comparison_runs(outcome)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
