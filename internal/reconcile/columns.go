package reconcile

import (
	"context"
	"fmt"

	"sheetdiff/domain/sheet"
	"sheetdiff/internal/errors"
)

// ColumnMatch is the outcome of column matching
type ColumnMatch struct {
	Mapping  *sheet.ColumnMapping
	Warnings []string
}

// MatchColumns pairs columns by header name, first occurrence per name. When
// fewer than half of the narrower document's columns pair, columns are
// matched by position instead.
func MatchColumns(ctx context.Context, base, cand *sheet.Document) (*ColumnMatch, error) {
	if err := errors.CheckContext(ctx, "column matching"); err != nil {
		return nil, err
	}
	res := &ColumnMatch{}
	if base.MaxCol != cand.MaxCol {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"column counts differ: baseline %d, candidate %d", base.MaxCol, cand.MaxCol))
	}

	byName := make(map[string]int, base.MaxCol)
	for c := 1; c <= base.MaxCol; c++ {
		name := base.HeaderName(c)
		if _, seen := byName[name]; name != "" && !seen {
			byName[name] = c
		}
	}

	m := sheet.NewMapping(sheet.MatchByHeader)
	for c := 1; c <= cand.MaxCol; c++ {
		if bc, ok := byName[cand.HeaderName(c)]; ok {
			m.Pair(bc, c)
		}
	}

	narrower := min(base.MaxCol, cand.MaxCol)
	if m.Len() < narrower/2 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"header names matched only %d of %d columns, falling back to positional matching", m.Len(), narrower))
		m = sheet.IdentityMapping(narrower)
	}
	res.Mapping = m
	return res, nil
}

// HeaderLookup maps each baseline column to the first candidate column with
// the same non-empty header name. Used to fill spliced rows by name.
func HeaderLookup(base, cand *sheet.Document) map[int]int {
	first := make(map[string]int, cand.MaxCol)
	for c := 1; c <= cand.MaxCol; c++ {
		name := cand.HeaderName(c)
		if _, seen := first[name]; name != "" && !seen {
			first[name] = c
		}
	}
	out := make(map[int]int, base.MaxCol)
	for c := 1; c <= base.MaxCol; c++ {
		if cc, ok := first[base.HeaderName(c)]; ok {
			out[c] = cc
		}
	}
	return out
}
