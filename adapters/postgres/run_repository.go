package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"sheetdiff/domain/core"
	"sheetdiff/domain/run"
	"sheetdiff/internal/errors"
	"sheetdiff/ports"

	"github.com/jmoiron/sqlx"
)

// stringList stores a []string as a JSON text column
type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *stringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("stringList: unsupported column type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	if len(out) == 0 {
		out = nil
	}
	*l = out
	return nil
}

// runRow is the comparison_runs row layout
type runRow struct {
	ID            string     `db:"id"`
	BaselineName  string     `db:"baseline_name"`
	CandidateName string     `db:"candidate_name"`
	SheetName     string     `db:"sheet_name"`
	HeaderRow     int        `db:"header_row"`
	KeyFields     stringList `db:"key_fields"`
	Outcome       string     `db:"outcome"`
	ChangedCells  int        `db:"changed_cells"`
	AddedRows     int        `db:"added_rows"`
	RemovedRows   int        `db:"removed_rows"`
	ErrorDetail   string     `db:"error_detail"`
	Warnings      stringList `db:"warnings"`
	Outputs       stringList `db:"outputs"`
	Fingerprint   string     `db:"fingerprint"`
	StartedAt     time.Time  `db:"started_at"`
	FinishedAt    time.Time  `db:"finished_at"`
}

func toRow(rec run.Record) runRow {
	return runRow{
		ID:            rec.ID.String(),
		BaselineName:  rec.BaselineName,
		CandidateName: rec.CandidateName,
		SheetName:     rec.SheetName,
		HeaderRow:     rec.HeaderRow,
		KeyFields:     stringList(rec.KeyFields),
		Outcome:       string(rec.Outcome),
		ChangedCells:  rec.ChangedCells,
		AddedRows:     rec.AddedRows,
		RemovedRows:   rec.RemovedRows,
		ErrorDetail:   rec.ErrorDetail,
		Warnings:      stringList(rec.Warnings),
		Outputs:       stringList(rec.Outputs),
		Fingerprint:   rec.Fingerprint.String(),
		StartedAt:     rec.StartedAt.UTC(),
		FinishedAt:    rec.FinishedAt.UTC(),
	}
}

func (r runRow) record() run.Record {
	return run.Record{
		ID:            core.RunID(r.ID),
		BaselineName:  r.BaselineName,
		CandidateName: r.CandidateName,
		SheetName:     r.SheetName,
		HeaderRow:     r.HeaderRow,
		KeyFields:     []string(r.KeyFields),
		Outcome:       run.Outcome(r.Outcome),
		ChangedCells:  r.ChangedCells,
		AddedRows:     r.AddedRows,
		RemovedRows:   r.RemovedRows,
		ErrorDetail:   r.ErrorDetail,
		Warnings:      []string(r.Warnings),
		Outputs:       []string(r.Outputs),
		Fingerprint:   core.Hash(r.Fingerprint),
		StartedAt:     r.StartedAt.UTC(),
		FinishedAt:    r.FinishedAt.UTC(),
	}
}

// RunRepositoryImpl implements RunRepository over sqlx. Queries are written
// with ? placeholders and rebound for the connected driver.
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a run history repository on db
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

const runColumns = `id, baseline_name, candidate_name, sheet_name, header_row, key_fields, outcome,
	changed_cells, added_rows, removed_rows, error_detail, warnings, outputs, fingerprint, started_at, finished_at`

// Save inserts the record or replaces an earlier record with the same id
func (r *RunRepositoryImpl) Save(ctx context.Context, rec run.Record) error {
	row := toRow(rec)
	query := r.db.Rebind(`
		INSERT INTO comparison_runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			outcome = excluded.outcome,
			changed_cells = excluded.changed_cells,
			added_rows = excluded.added_rows,
			removed_rows = excluded.removed_rows,
			error_detail = excluded.error_detail,
			warnings = excluded.warnings,
			outputs = excluded.outputs,
			fingerprint = excluded.fingerprint,
			finished_at = excluded.finished_at
	`)
	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.BaselineName, row.CandidateName, row.SheetName, row.HeaderRow, row.KeyFields, row.Outcome,
		row.ChangedCells, row.AddedRows, row.RemovedRows, row.ErrorDetail, row.Warnings, row.Outputs, row.Fingerprint,
		row.StartedAt, row.FinishedAt)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to save run %s", rec.ID))
	}
	return nil
}

// Get retrieves one run by id
func (r *RunRepositoryImpl) Get(ctx context.Context, id core.RunID) (*run.Record, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+runColumns+` FROM comparison_runs WHERE id = ?`), id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "failed to get run %s", id))
	}
	rec := row.record()
	return &rec, nil
}

// List returns runs newest first
func (r *RunRepositoryImpl) List(ctx context.Context, limit, offset int) ([]run.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT `+runColumns+` FROM comparison_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ? OFFSET ?
	`), limit, offset)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to list runs"))
	}
	out := make([]run.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}
