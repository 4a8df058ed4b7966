package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"sheetdiff/domain/sheet"
	"sheetdiff/internal/errors"
)

// Options tunes row matching
type Options struct {
	// StrictKeys fails the run on a repeated row key instead of keeping the later row
	StrictKeys bool
}

// Duplicate records a key seen on more than one data row
type Duplicate struct {
	Key    sheet.RowKey
	Kept   int
	Shadow int
}

// KeyIndex maps every keyed data row of one document by its encoded RowKey.
// When a key repeats, the later row wins.
type KeyIndex struct {
	Name       string
	rows       map[string]int
	keys       map[int]sheet.RowKey
	Duplicates []Duplicate
}

// BuildKeyIndex scans the data rows of doc. Rows with an incomplete key are skipped.
func BuildKeyIndex(ctx context.Context, name string, doc *sheet.Document, keys sheet.KeyColumnMap) (*KeyIndex, error) {
	if err := errors.CheckContext(ctx, "key indexing"); err != nil {
		return nil, err
	}
	idx := &KeyIndex{
		Name: name,
		rows: make(map[string]int),
		keys: make(map[int]sheet.RowKey),
	}
	for r := doc.DataStart(); r <= doc.MaxRow; r++ {
		key, ok := keys.RowKey(doc, r)
		if !ok {
			continue
		}
		enc := key.Encode()
		if prev, seen := idx.rows[enc]; seen {
			idx.Duplicates = append(idx.Duplicates, Duplicate{Key: key, Kept: r, Shadow: prev})
			delete(idx.keys, prev)
		}
		idx.rows[enc] = r
		idx.keys[r] = key
	}
	return idx, nil
}

// Row returns the row holding the encoded key
func (x *KeyIndex) Row(encoded string) (int, bool) {
	r, ok := x.rows[encoded]
	return r, ok
}

// Key returns the key of row r if r is the row retained for that key
func (x *KeyIndex) Key(r int) (sheet.RowKey, bool) {
	k, ok := x.keys[r]
	return k, ok
}

// Has reports whether the encoded key is present
func (x *KeyIndex) Has(encoded string) bool {
	_, ok := x.rows[encoded]
	return ok
}

// Len is the number of distinct keys
func (x *KeyIndex) Len() int { return len(x.rows) }

// SortedRows returns the retained rows in ascending order
func (x *KeyIndex) SortedRows() []int {
	out := make([]int, 0, len(x.keys))
	for r := range x.keys {
		out = append(out, r)
	}
	sort.Ints(out)
	return out
}

// RowMatch is the outcome of row matching
type RowMatch struct {
	Mapping *sheet.RowMapping
	// Keyed is true when both documents resolved every key field
	Keyed          bool
	BaselineIndex  *KeyIndex
	CandidateIndex *KeyIndex
	Warnings       []string
}

// MatchRows pairs baseline rows with candidate rows. With full key resolution
// on both sides rows pair by RowKey; otherwise by identical row content, and
// when content matching finds fewer than half of the shorter document's rows,
// by position.
func MatchRows(ctx context.Context, base, cand *sheet.Document, bk, ck sheet.KeyColumnMap, opts Options) (*RowMatch, error) {
	if bk.HasAllKeys() && ck.HasAllKeys() {
		return matchByKey(ctx, base, cand, bk, ck, opts)
	}
	res := &RowMatch{}
	if missing := bk.Missing(); len(missing) > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("baseline: key fields not found: %s", strings.Join(missing, ", ")))
	}
	if missing := ck.Missing(); len(missing) > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("candidate: key fields not found: %s", strings.Join(missing, ", ")))
	}
	res.Warnings = append(res.Warnings, "key fields unresolved, matching rows by content")

	m, err := matchByContent(ctx, base, cand)
	if err != nil {
		return nil, err
	}
	shorter := min(base.MaxRow, cand.MaxRow)
	if m.Len() < shorter/2 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"content matching paired only %d of %d rows, falling back to positional matching", m.Len(), shorter))
		m = sheet.IdentityMapping(shorter)
	}
	res.Mapping = m
	return res, nil
}

func matchByKey(ctx context.Context, base, cand *sheet.Document, bk, ck sheet.KeyColumnMap, opts Options) (*RowMatch, error) {
	bIdx, err := BuildKeyIndex(ctx, "baseline", base, bk)
	if err != nil {
		return nil, err
	}
	cIdx, err := BuildKeyIndex(ctx, "candidate", cand, ck)
	if err != nil {
		return nil, err
	}

	res := &RowMatch{Keyed: true, BaselineIndex: bIdx, CandidateIndex: cIdx}
	for _, idx := range []*KeyIndex{bIdx, cIdx} {
		for _, d := range idx.Duplicates {
			if opts.StrictKeys {
				return nil, errors.DuplicateKey(idx.Name, d.Key.String(), d.Shadow, d.Kept)
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"%s: key %s repeats on rows %d and %d, keeping row %d", idx.Name, d.Key, d.Shadow, d.Kept, d.Kept))
		}
	}

	if err := errors.CheckContext(ctx, "row matching"); err != nil {
		return nil, err
	}
	m := sheet.NewMapping(sheet.MatchByKey)
	for _, br := range bIdx.SortedRows() {
		key, _ := bIdx.Key(br)
		if cr, ok := cIdx.Row(key.Encode()); ok {
			m.Pair(br, cr)
		}
	}
	res.Mapping = m
	return res, nil
}

// matchByContent pairs each baseline row, ascending, with the first unused
// candidate row of identical content. Candidate rows are bucketed by content
// so the scan is linear; bucket order preserves ascending row order.
func matchByContent(ctx context.Context, base, cand *sheet.Document) (*sheet.RowMapping, error) {
	buckets := make(map[string][]int, cand.MaxRow)
	for r := 1; r <= cand.MaxRow; r++ {
		if err := errors.CheckContext(ctx, "row matching"); err != nil {
			return nil, err
		}
		sig := rowSignature(cand, r)
		buckets[sig] = append(buckets[sig], r)
	}

	m := sheet.NewMapping(sheet.MatchByContent)
	for r := 1; r <= base.MaxRow; r++ {
		if err := errors.CheckContext(ctx, "row matching"); err != nil {
			return nil, err
		}
		sig := rowSignature(base, r)
		if free := buckets[sig]; len(free) > 0 {
			m.Pair(r, free[0])
			buckets[sig] = free[1:]
		}
	}
	return m, nil
}

// rowSignature encodes all of a row's values across the document width
func rowSignature(doc *sheet.Document, r int) string {
	return sheet.RowKey(doc.RowValues(r)).Encode()
}
