package run

import (
	"time"

	"sheetdiff/domain/core"
	"sheetdiff/domain/sheet"
)

// Outcome is the terminal state of one comparison invocation
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// NumericDeltas summarises candidate-minus-baseline differences over changed
// cells where both sides are numeric
type NumericDeltas struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary is the result record returned to every caller
type Summary struct {
	RunID        core.RunID `json:"run_id"`
	Outcome      Outcome    `json:"outcome"`
	ChangedCells int        `json:"changed_cells"`
	AddedRows    int        `json:"added_rows"`
	RemovedRows  int        `json:"removed_rows"`
	ErrorCode    string     `json:"error_code,omitempty"`
	ErrorDetail  string     `json:"error_detail,omitempty"`
	Warnings     []string   `json:"warnings,omitempty"`

	SheetName       string          `json:"sheet_name,omitempty"`
	KeyFields       []string        `json:"key_fields,omitempty"`
	RowMatchMode    sheet.MatchMode `json:"row_match_mode,omitempty"`
	ColumnMatchMode sheet.MatchMode `json:"column_match_mode,omitempty"`
	MatchedRows     int             `json:"matched_rows"`
	MatchedColumns  int             `json:"matched_columns"`
	NumericDeltas   *NumericDeltas  `json:"numeric_deltas,omitempty"`
	Fingerprint     core.Hash       `json:"fingerprint,omitempty"`
	Outputs         []string        `json:"outputs,omitempty"`
	Duration        time.Duration   `json:"duration_ns"`
}

// Succeeded reports whether all three outputs were produced
func (s *Summary) Succeeded() bool {
	return s.Outcome == OutcomeSuccess
}

// Record is one entry of the run history
type Record struct {
	ID            core.RunID `json:"id" db:"id"`
	BaselineName  string     `json:"baseline_name" db:"baseline_name"`
	CandidateName string     `json:"candidate_name" db:"candidate_name"`
	SheetName     string     `json:"sheet_name" db:"sheet_name"`
	HeaderRow     int        `json:"header_row" db:"header_row"`
	KeyFields     []string   `json:"key_fields" db:"-"`
	Outcome       Outcome    `json:"outcome" db:"outcome"`
	ChangedCells  int        `json:"changed_cells" db:"changed_cells"`
	AddedRows     int        `json:"added_rows" db:"added_rows"`
	RemovedRows   int        `json:"removed_rows" db:"removed_rows"`
	ErrorDetail   string     `json:"error_detail,omitempty" db:"error_detail"`
	Warnings      []string   `json:"warnings,omitempty" db:"-"`
	Outputs       []string   `json:"outputs,omitempty" db:"-"`
	Fingerprint   core.Hash  `json:"fingerprint,omitempty" db:"fingerprint"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    time.Time  `json:"finished_at" db:"finished_at"`
}

// NewRecord captures a finished invocation for the history
func NewRecord(req *Request, sum *Summary, startedAt, finishedAt time.Time) Record {
	rec := Record{
		ID:            sum.RunID,
		BaselineName:  req.Baseline.DisplayName(),
		CandidateName: req.Candidate.DisplayName(),
		SheetName:     sum.SheetName,
		HeaderRow:     req.HeaderRow,
		KeyFields:     append([]string(nil), sum.KeyFields...),
		Outcome:       sum.Outcome,
		ChangedCells:  sum.ChangedCells,
		AddedRows:     sum.AddedRows,
		RemovedRows:   sum.RemovedRows,
		ErrorDetail:   sum.ErrorDetail,
		Warnings:      append([]string(nil), sum.Warnings...),
		Outputs:       append([]string(nil), sum.Outputs...),
		Fingerprint:   sum.Fingerprint,
		StartedAt:     startedAt.UTC(),
		FinishedAt:    finishedAt.UTC(),
	}
	if len(rec.KeyFields) == 0 {
		rec.KeyFields = append([]string(nil), req.KeyFields...)
	}
	return rec
}

// Duration is the wall-clock time the run took
func (r Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
