package reconcile

import (
	"context"

	"sheetdiff/domain/sheet"
	"sheetdiff/internal/errors"
)

// Classification lists whole-row differences
type Classification struct {
	// Removed are baseline rows with no counterpart in the candidate
	Removed []int
	// Added are candidate rows with no counterpart in the baseline
	Added []int
}

// ClassifyRows tags rows present on one side only. Keyed matches compare the
// full key inventories of both documents; otherwise rows outside the row
// mapping are classified. Row tags override earlier cell tags.
func ClassifyRows(ctx context.Context, base, cand *sheet.Document, match *RowMatch) (Classification, error) {
	var out Classification

	if match.Keyed {
		for _, r := range match.BaselineIndex.SortedRows() {
			if err := errors.CheckContext(ctx, "row classification"); err != nil {
				return Classification{}, err
			}
			key, _ := match.BaselineIndex.Key(r)
			if !match.CandidateIndex.Has(key.Encode()) {
				out.Removed = append(out.Removed, r)
			}
		}
		for _, r := range match.CandidateIndex.SortedRows() {
			if err := errors.CheckContext(ctx, "row classification"); err != nil {
				return Classification{}, err
			}
			key, _ := match.CandidateIndex.Key(r)
			if !match.BaselineIndex.Has(key.Encode()) {
				out.Added = append(out.Added, r)
			}
		}
	} else {
		for r := 1; r <= base.MaxRow; r++ {
			if err := errors.CheckContext(ctx, "row classification"); err != nil {
				return Classification{}, err
			}
			if _, ok := match.Mapping.Candidate(r); !ok {
				out.Removed = append(out.Removed, r)
			}
		}
		for r := 1; r <= cand.MaxRow; r++ {
			if err := errors.CheckContext(ctx, "row classification"); err != nil {
				return Classification{}, err
			}
			if _, ok := match.Mapping.Baseline(r); !ok {
				out.Added = append(out.Added, r)
			}
		}
	}

	for _, r := range out.Removed {
		base.Annotations.MarkRow(r, sheet.Removed)
	}
	for _, r := range out.Added {
		cand.Annotations.MarkRow(r, sheet.Added)
	}
	return out, nil
}
