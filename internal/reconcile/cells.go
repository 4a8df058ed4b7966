package reconcile

import (
	"context"

	"sheetdiff/domain/sheet"
	"sheetdiff/internal/errors"
)

// CellDiff is the outcome of cell comparison
type CellDiff struct {
	Changed int
	// Deltas holds candidate minus baseline for changed cells numeric on both sides
	Deltas []float64
}

// DiffCells compares every matched non-key cell pair and tags mismatches
// "changed" in both documents. Key columns are skipped on a side only when
// that side resolved all key fields.
func DiffCells(ctx context.Context, base, cand *sheet.Document, rows *sheet.RowMapping, cols *sheet.ColumnMapping, bk, ck sheet.KeyColumnMap) (CellDiff, error) {
	skipBase := map[int]bool{}
	if bk.HasAllKeys() {
		skipBase = bk.ColumnSet()
	}
	skipCand := map[int]bool{}
	if ck.HasAllKeys() {
		skipCand = ck.ColumnSet()
	}

	colPairs := make([]sheet.Pair, 0, cols.Len())
	for _, p := range cols.Pairs() {
		if !skipBase[p.Baseline] && !skipCand[p.Candidate] {
			colPairs = append(colPairs, p)
		}
	}

	var out CellDiff
	for _, rp := range rows.Pairs() {
		if err := errors.CheckContext(ctx, "cell comparison"); err != nil {
			return CellDiff{}, err
		}
		for _, cp := range colPairs {
			bv := base.Cell(rp.Baseline, cp.Baseline)
			cv := cand.Cell(rp.Candidate, cp.Candidate)
			if bv.Equal(cv) {
				continue
			}
			base.Annotations.MarkCell(rp.Baseline, cp.Baseline, sheet.Changed)
			cand.Annotations.MarkCell(rp.Candidate, cp.Candidate, sheet.Changed)
			out.Changed++
			if bv.Kind == sheet.KindNumber && cv.Kind == sheet.KindNumber {
				out.Deltas = append(out.Deltas, cv.Num-bv.Num)
			}
		}
	}
	return out, nil
}
