package app

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sheetdiff/adapters/excel"
	"sheetdiff/adapters/memory"
	"sheetdiff/domain/core"
	"sheetdiff/domain/run"
	"sheetdiff/domain/sheet"
	"sheetdiff/internal/errors"
	"sheetdiff/internal/progress"
	"sheetdiff/internal/testkit"
	"sheetdiff/ports"
)

type MockFinalizer struct {
	mock.Mock
}

func (m *MockFinalizer) Finalize(ctx context.Context, paths []string) error {
	args := m.Called(ctx, paths)
	return args.Error(0)
}

type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Save(ctx context.Context, rec run.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRunRepository) Get(ctx context.Context, id core.RunID) (*run.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.Record), args.Error(1)
}

func (m *MockRunRepository) List(ctx context.Context, limit, offset int) ([]run.Record, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]run.Record), args.Error(1)
}

var _ ports.RunRepository = (*MockRunRepository)(nil)

func newService(finalizer ports.Finalizer, history ports.RunRepository) *CompareService {
	cfg := excel.DefaultConfig()
	return NewCompareService(excel.NewDataReader(cfg, nil), excel.NewDataWriter(cfg, nil), finalizer, history, nil)
}

func newRequest(t *testing.T, baseline, candidate [][]any) *run.Request {
	t.Helper()
	basePath := testkit.WriteLedger(t, "baseline.xlsx", baseline)
	candPath := testkit.WriteLedger(t, "candidate.xlsx", candidate)
	return &run.Request{
		Baseline:  run.Source{Path: basePath},
		Candidate: run.Source{Path: candPath},
		Outputs:   OutputNames(t.TempDir(), basePath, "20260301_090000"),
	}
}

var (
	header = []any{"Department", "Contract", "Product", "Qty", "Region"}
	rowA   = []any{"North", "C001", "P1", 10, "EU"}
	rowB   = []any{"South", "C002", "P2", 20, "US"}
	rowC   = []any{"East", "C003", "P3", 30, "EU"}
	rowX   = []any{"West", "C009", "P9", 90, "APAC"}
)

func TestCompareIdenticalInputs(t *testing.T) {
	rows := testkit.Titled(header, rowA, rowB, rowC)
	req := newRequest(t, rows, rows)
	collector := progress.NewCollector()

	sum, err := newService(nil, nil).Compare(context.Background(), req, collector)
	require.NoError(t, err)

	assert.Equal(t, run.OutcomeSuccess, sum.Outcome)
	assert.Zero(t, sum.ChangedCells)
	assert.Zero(t, sum.AddedRows)
	assert.Zero(t, sum.RemovedRows)
	assert.Equal(t, sheet.MatchByKey, sum.RowMatchMode)
	assert.Equal(t, []string{"Department", "Contract", "Product"}, sum.KeyFields)
	assert.Equal(t, "Data", sum.SheetName)
	assert.Nil(t, sum.NumericDeltas)
	assert.Len(t, sum.Outputs, 3)
	for _, p := range sum.Outputs {
		assert.FileExists(t, p)
	}
	assert.NotEmpty(t, collector.Lines())
	for _, ev := range collector.Events() {
		assert.Equal(t, req.ID, ev.RunID)
	}
}

func TestComparePureValueChange(t *testing.T) {
	changed := []any{"South", "C002", "P2", 25, "US"}
	req := newRequest(t, testkit.Titled(header, rowA, rowB, rowC), testkit.Titled(header, rowA, changed, rowC))

	sum, err := newService(nil, nil).Compare(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.ChangedCells)
	assert.Zero(t, sum.AddedRows)
	assert.Zero(t, sum.RemovedRows)
	require.NotNil(t, sum.NumericDeltas)
	assert.Equal(t, 1, sum.NumericDeltas.Count)
	assert.Equal(t, 5.0, sum.NumericDeltas.Sum)

	assert.Equal(t, "FFFF00", testkit.CellFill(t, req.Outputs.Baseline.Path, "Data", "D5"))
	assert.Equal(t, "FFFF00", testkit.CellFill(t, req.Outputs.Candidate.Path, "Data", "D5"))
	assert.Equal(t, "", testkit.CellFill(t, req.Outputs.Candidate.Path, "Data", "C5"))
}

func TestComparePureDeletion(t *testing.T) {
	req := newRequest(t, testkit.Titled(header, rowA, rowB, rowC), testkit.Titled(header, rowA, rowC))

	sum, err := newService(nil, nil).Compare(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.RemovedRows)
	assert.Zero(t, sum.AddedRows)
	assert.Zero(t, sum.ChangedCells)
	for _, cell := range []string{"A5", "C5", "E5"} {
		assert.Equal(t, "00FF00", testkit.CellFill(t, req.Outputs.Baseline.Path, "Data", cell))
	}

	diff := testkit.SheetRows(t, req.Outputs.Diff.Path, sheet.DiffTitle)
	require.Len(t, diff, 6)
	assert.Equal(t, "C002", diff[4][1])
}

func TestComparePureAddition(t *testing.T) {
	req := newRequest(t, testkit.Titled(header, rowA, rowB, rowC), testkit.Titled(header, rowA, rowB, rowX, rowC))

	sum, err := newService(nil, nil).Compare(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.AddedRows)
	assert.Zero(t, sum.RemovedRows)
	assert.Equal(t, "FF0000", testkit.CellFill(t, req.Outputs.Candidate.Path, "Data", "B6"))

	diff := testkit.SheetRows(t, req.Outputs.Diff.Path, sheet.DiffTitle)
	require.Len(t, diff, 7)
	assert.Equal(t, "C002", diff[4][1])
	assert.Equal(t, []string{"West", "C009", "P9", "90", "APAC"}, diff[5])
	assert.Equal(t, "C003", diff[6][1])
	assert.Equal(t, "FF0000", testkit.CellFill(t, req.Outputs.Diff.Path, sheet.DiffTitle, "E6"))
}

func TestCompareGeneratedLedger(t *testing.T) {
	pair := testkit.NewLedgerGenerator(testkit.DefaultLedgerConfig()).Generate()
	req := newRequest(t, pair.Baseline, pair.Candidate)

	sum, err := newService(nil, nil).Compare(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, pair.ChangedCells, sum.ChangedCells)
	assert.Equal(t, pair.AddedRows, sum.AddedRows)
	assert.Equal(t, pair.RemovedRows, sum.RemovedRows)

	diff := testkit.SheetRows(t, req.Outputs.Diff.Path, sheet.DiffTitle)
	require.Len(t, diff, len(pair.Baseline)+pair.AddedRows)
	for i := 1; i < len(diff); i++ {
		if len(diff[i]) < 2 {
			continue
		}
		if prev, ok := pair.AddedAfter[diff[i][1]]; ok {
			assert.Equal(t, prev, diff[i-1][1], "added contract %s", diff[i][1])
		}
	}
}

func TestCompareSwapSymmetry(t *testing.T) {
	pair := testkit.NewLedgerGenerator(testkit.LedgerGeneratorConfig{Rows: 60, Edits: 5, Adds: 3, Deletes: 2, Seed: 7}).Generate()

	forward, err := newService(nil, nil).Compare(context.Background(), newRequest(t, pair.Baseline, pair.Candidate), nil)
	require.NoError(t, err)
	backward, err := newService(nil, nil).Compare(context.Background(), newRequest(t, pair.Candidate, pair.Baseline), nil)
	require.NoError(t, err)

	assert.Equal(t, forward.ChangedCells, backward.ChangedCells)
	assert.Equal(t, forward.AddedRows, backward.RemovedRows)
	assert.Equal(t, forward.RemovedRows, backward.AddedRows)
}

func TestCompareIsDeterministic(t *testing.T) {
	pair := testkit.NewLedgerGenerator(testkit.DefaultLedgerConfig()).Generate()
	svc := newService(nil, nil)

	first, err := svc.Compare(context.Background(), newRequest(t, pair.Baseline, pair.Candidate), nil)
	require.NoError(t, err)
	second, err := svc.Compare(context.Background(), newRequest(t, pair.Baseline, pair.Candidate), nil)
	require.NoError(t, err)

	assert.False(t, first.Fingerprint.IsEmpty())
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestCompareFallsBackWithoutKeys(t *testing.T) {
	base := testkit.Titled(header, rowA, rowB, rowC)
	// renamed headers leave the key fields unresolved on the candidate
	cand := testkit.Titled([]any{"Dept", "Contract No", "Item", "Qty", "Region"}, rowA, rowC, rowB)
	req := newRequest(t, base, cand)
	req.KeyFields = sheet.KeyFieldSpec{"Department", "Contract"}

	sum, err := newService(nil, nil).Compare(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, sheet.MatchByContent, sum.RowMatchMode)
	assert.NotEmpty(t, sum.Warnings)
	assert.Equal(t, 1, sum.RemovedRows, "header rows differ in content")
	assert.Equal(t, 1, sum.AddedRows)
}

func TestCompareStrictKeys(t *testing.T) {
	req := newRequest(t, testkit.Titled(header, rowA, rowB, rowA), testkit.Titled(header, rowA, rowB))
	req.StrictKeys = true

	sum, err := newService(nil, nil).Compare(context.Background(), req, nil)
	require.Error(t, err)
	assert.Equal(t, run.OutcomeFailed, sum.Outcome)
	assert.Equal(t, errors.CodeDuplicateKey, sum.ErrorCode)
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.NoFileExists(t, req.Outputs.Baseline.Path)
}

func TestCompareCancelled(t *testing.T) {
	req := newRequest(t, testkit.Titled(header, rowA), testkit.Titled(header, rowA))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	history := memory.NewRunRepository(0)
	sum, err := newService(nil, history).Compare(ctx, req, nil)
	require.Error(t, err)
	assert.True(t, core.IsCancelled(err))
	assert.Equal(t, run.OutcomeCancelled, sum.Outcome)
	assert.Equal(t, errors.CodeCancelled, sum.ErrorCode)
	assert.Empty(t, sum.Outputs)
	for _, p := range req.Outputs.Paths() {
		assert.NoFileExists(t, p)
	}

	rec, err := history.Get(context.Background(), req.ID)
	require.NoError(t, err, "cancelled runs are still recorded")
	assert.Equal(t, run.OutcomeCancelled, rec.Outcome)
}

func TestCompareLoadFailures(t *testing.T) {
	req := newRequest(t, testkit.Titled(header, rowA), testkit.Titled(header, rowA))
	req.Baseline = run.Source{Path: filepath.Join(t.TempDir(), "missing.xlsx")}

	sum, err := newService(nil, nil).Compare(context.Background(), req, nil)
	require.Error(t, err)
	assert.Equal(t, run.OutcomeFailed, sum.Outcome)
	assert.Equal(t, errors.CodeNotFound, sum.ErrorCode)
	assert.NotEmpty(t, sum.ErrorDetail)

	req = newRequest(t, testkit.Titled(header, rowA), testkit.Titled(header, rowA))
	req.SheetName = "Summary"
	sum, err = newService(nil, nil).Compare(context.Background(), req, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeSheetNotFound, sum.ErrorCode)
}

func TestCompareRejectsInvalidRequest(t *testing.T) {
	req := newRequest(t, testkit.Titled(header, rowA), testkit.Titled(header, rowA))
	req.Outputs.Diff = run.Destination{}

	sum, err := newService(nil, nil).Compare(context.Background(), req, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, sum.ErrorCode)
}

func TestCompareRejectsSharedOutputPath(t *testing.T) {
	req := newRequest(t, testkit.Titled(header, rowA), testkit.Titled(header, rowA))
	req.Outputs.Diff = req.Outputs.Baseline

	sum, err := newService(nil, nil).Compare(context.Background(), req, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSameOutput)
	assert.Equal(t, errors.CodeInvalidInput, sum.ErrorCode)
	assert.Empty(t, sum.Outputs)
	assert.NoFileExists(t, req.Outputs.Baseline.Path)
}

func TestCompareSaveFailureStopsLaterOutputs(t *testing.T) {
	req := newRequest(t, testkit.Titled(header, rowA, rowB), testkit.Titled(header, rowA, rowB))
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	req.Outputs.Candidate = run.Destination{Path: filepath.Join(blocker, "candidate.xlsx")}

	sum, err := newService(nil, nil).Compare(context.Background(), req, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeSaveError, sum.ErrorCode)
	assert.NoFileExists(t, req.Outputs.Baseline.Path, "written baseline copy is discarded")
	assert.NoFileExists(t, req.Outputs.Diff.Path)
}

func TestCompareReadOnlyFinalize(t *testing.T) {
	finalizer := new(MockFinalizer)
	finalizer.On("Finalize", mock.Anything, mock.MatchedBy(func(paths []string) bool { return len(paths) == 3 })).
		Return(stderrors.New("chmod denied")).Once()

	req := newRequest(t, testkit.Titled(header, rowA), testkit.Titled(header, rowA))
	req.ReadOnly = true
	sum, err := newService(finalizer, nil).Compare(context.Background(), req, nil)
	require.NoError(t, err, "finalize failures never fail the run")
	assert.Equal(t, run.OutcomeSuccess, sum.Outcome)
	assert.Contains(t, sum.Warnings, "could not mark outputs read-only")
	finalizer.AssertExpectations(t)

	req = newRequest(t, testkit.Titled(header, rowA), testkit.Titled(header, rowA))
	_, err = newService(finalizer, nil).Compare(context.Background(), req, nil)
	require.NoError(t, err)
	finalizer.AssertNumberOfCalls(t, "Finalize", 1)
}

func TestCompareHistory(t *testing.T) {
	repo := new(MockRunRepository)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(rec run.Record) bool {
		return rec.Outcome == run.OutcomeSuccess && rec.ChangedCells == 1 && rec.BaselineName == "baseline.xlsx" && len(rec.Outputs) == 3
	})).Return(stderrors.New("database is locked")).Once()

	changed := []any{"North", "C001", "P1", 11, "EU"}
	req := newRequest(t, testkit.Titled(header, rowA), testkit.Titled(header, changed))
	sum, err := newService(nil, repo).Compare(context.Background(), req, nil)
	require.NoError(t, err, "history failures never fail the run")
	assert.True(t, sum.Succeeded())
	repo.AssertExpectations(t)
}

func TestOutputNames(t *testing.T) {
	out := OutputNames("/results", "/uploads/Q3 ledger.xlsx", "20260301_090000")
	assert.Equal(t, "/results/Q3 ledger_baseline_compared_20260301_090000.xlsx", out.Baseline.Path)
	assert.Equal(t, "/results/Q3 ledger_candidate_compared_20260301_090000.xlsx", out.Candidate.Path)
	assert.Equal(t, "/results/Q3 ledger_diff_20260301_090000.xlsx", out.Diff.Path)

	assert.Equal(t, "/results/comparison_diff_x.xlsx", OutputNames("/results", "", "x").Diff.Path)
}
