package ports

import (
	"context"

	"sheetdiff/domain/core"
	"sheetdiff/domain/run"
)

// RunRepository stores the history of comparison runs
type RunRepository interface {
	Save(ctx context.Context, rec run.Record) error
	Get(ctx context.Context, id core.RunID) (*run.Record, error)
	// List returns records newest first
	List(ctx context.Context, limit, offset int) ([]run.Record, error)
}
