package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetdiff/domain/core"
	"sheetdiff/domain/run"
	"sheetdiff/internal/errors"
	"sheetdiff/ports"
)

func newRepo(t *testing.T) ports.RunRepository {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunRepository(db)
}

func sampleRecord(startedAt time.Time) run.Record {
	return run.Record{
		ID:            core.NewRunID(),
		BaselineName:  "march.xlsx",
		CandidateName: "april.xlsx",
		SheetName:     "Data",
		HeaderRow:     3,
		KeyFields:     []string{"Department", "Contract No"},
		Outcome:       run.OutcomeSuccess,
		ChangedCells:  7,
		AddedRows:     2,
		RemovedRows:   1,
		Warnings:      []string{"column counts differ: baseline 7, candidate 8"},
		Outputs:       []string{"/results/a.xlsx", "/results/b.xlsx", "/results/c.xlsx"},
		Fingerprint:   core.NewHash([]byte("x")),
		StartedAt:     startedAt,
		FinishedAt:    startedAt.Add(1500 * time.Millisecond),
	}
}

func TestRunRepositorySaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	rec := sampleRecord(time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.KeyFields, got.KeyFields)
	assert.Equal(t, rec.Warnings, got.Warnings)
	assert.Equal(t, rec.Outputs, got.Outputs)
	assert.Equal(t, rec.Fingerprint, got.Fingerprint)
	assert.Equal(t, 7, got.ChangedCells)
	assert.WithinDuration(t, rec.StartedAt, got.StartedAt, time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, got.Duration().Round(time.Millisecond))
}

func TestRunRepositorySaveReplaces(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	rec := sampleRecord(time.Now().UTC())
	require.NoError(t, repo.Save(ctx, rec))

	rec.Outcome = run.OutcomeFailed
	rec.ErrorDetail = "cannot save /results/b.xlsx"
	rec.Outputs = nil
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, run.OutcomeFailed, got.Outcome)
	assert.Equal(t, rec.ErrorDetail, got.ErrorDetail)
	assert.Empty(t, got.Outputs)
}

func TestRunRepositoryGetMissing(t *testing.T) {
	_, err := newRepo(t).Get(context.Background(), core.NewRunID())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrRunNotFound)
	assert.True(t, core.IsNotFoundError(err))
}

func TestRunRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	t0 := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	var ids []core.RunID
	for i := 0; i < 4; i++ {
		rec := sampleRecord(t0.Add(time.Duration(i) * time.Hour))
		ids = append(ids, rec.ID)
		require.NoError(t, repo.Save(ctx, rec))
	}

	page, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[3], page[0].ID)
	assert.Equal(t, ids[2], page[1].ID)

	page, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[0], page[1].ID)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
