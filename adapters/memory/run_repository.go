// Package memory keeps run history in process memory
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sheetdiff/domain/core"
	"sheetdiff/domain/run"
	"sheetdiff/ports"
)

// RunRepository is a mutex-guarded run history that holds at most limit records
type RunRepository struct {
	mu      sync.RWMutex
	records map[core.RunID]run.Record
	limit   int
}

// NewRunRepository keeps the newest limit records; limit <= 0 keeps all
func NewRunRepository(limit int) *RunRepository {
	return &RunRepository{records: make(map[core.RunID]run.Record), limit: limit}
}

var _ ports.RunRepository = (*RunRepository)(nil)

func (r *RunRepository) Save(ctx context.Context, rec run.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	if r.limit > 0 && len(r.records) > r.limit {
		sorted := r.sortedLocked()
		for _, old := range sorted[r.limit:] {
			delete(r.records, old.ID)
		}
	}
	return nil
}

func (r *RunRepository) Get(ctx context.Context, id core.RunID) (*run.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	return &rec, nil
}

func (r *RunRepository) List(ctx context.Context, limit, offset int) ([]run.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sorted := r.sortedLocked()
	if offset >= len(sorted) {
		return []run.Record{}, nil
	}
	sorted = sorted[offset:]
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// sortedLocked orders newest first; run ids are time ordered and break ties
func (r *RunRepository) sortedLocked() []run.Record {
	out := make([]run.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
