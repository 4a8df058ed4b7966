// Package synth plans the diff document: the annotated baseline with the
// candidate's added rows spliced in after their candidate predecessors.
package synth

import (
	"context"
	"strconv"

	"sheetdiff/domain/sheet"
	"sheetdiff/internal/errors"
	"sheetdiff/internal/reconcile"
)

// Planner computes a DiffPlan from reconciled documents
type Planner struct {
	base  *sheet.Document
	cand  *sheet.Document
	match *reconcile.RowMatch
	ck    sheet.KeyColumnMap
}

// NewPlanner binds the inputs of one run. ck is the candidate's resolved key map.
func NewPlanner(base, cand *sheet.Document, match *reconcile.RowMatch, ck sheet.KeyColumnMap) *Planner {
	return &Planner{base: base, cand: cand, match: match, ck: ck}
}

// Plan walks the candidate's added rows in ascending order and places each
// one directly below the diff row holding its candidate predecessor. Rows
// without a known predecessor go to the end. Placed rows serve as
// predecessors for later ones, so runs of added rows keep their order.
func (p *Planner) Plan(ctx context.Context) (*sheet.DiffPlan, error) {
	plan := &sheet.DiffPlan{
		Title:   sheet.DiffTitle,
		Columns: p.base.MaxCol,
		Rows:    make([]sheet.RowOrigin, 0, p.base.MaxRow),
	}
	if t := p.base.DataStart(); t <= p.base.MaxRow {
		plan.TemplateRow = t
	}
	for r := 1; r <= p.base.MaxRow; r++ {
		plan.Rows = append(plan.Rows, sheet.RowOrigin{Baseline: r})
	}

	anchors, err := p.baselineAnchors(ctx)
	if err != nil {
		return nil, err
	}
	lookup := reconcile.HeaderLookup(p.base, p.cand)
	firstData := p.firstDataRow()
	last := p.base.MaxRow

	for _, c := range p.cand.Annotations.TaggedRows(sheet.Added) {
		if err := errors.CheckContext(ctx, "diff synthesis"); err != nil {
			return nil, err
		}
		if c < firstData {
			continue
		}

		ins := sheet.Insertion{At: last + 1, CandidateRow: c, Values: make(map[int]sheet.Value)}
		if c > firstData {
			if id, ok := p.anchorOf(c - 1); ok {
				if r, ok := anchors[id]; ok {
					ins.At = r + 1
					ins.Anchored = true
				}
			}
		}

		for id, r := range anchors {
			if r >= ins.At {
				anchors[id] = r + 1
			}
		}
		if id, ok := p.anchorOf(c); ok {
			anchors[id] = ins.At
		}

		for bc, cc := range lookup {
			if v := p.cand.Cell(c, cc); !v.IsEmpty() {
				ins.Values[bc] = v
			}
		}

		plan.Rows = insertOrigin(plan.Rows, ins.At-1, sheet.RowOrigin{Candidate: c})
		plan.Insertions = append(plan.Insertions, ins)
		last++
	}
	return plan, nil
}

// firstDataRow is where the candidate scan starts: below the header for keyed
// runs, row 1 otherwise
func (p *Planner) firstDataRow() int {
	if p.match.Keyed {
		return p.cand.DataStart()
	}
	return 1
}

// baselineAnchors maps an anchor id to its row in the unmodified baseline
func (p *Planner) baselineAnchors(ctx context.Context) (map[string]int, error) {
	if err := errors.CheckContext(ctx, "diff synthesis"); err != nil {
		return nil, err
	}
	anchors := make(map[string]int, p.base.MaxRow)
	if p.match.Keyed {
		for _, r := range p.match.BaselineIndex.SortedRows() {
			key, _ := p.match.BaselineIndex.Key(r)
			anchors[key.Encode()] = r
		}
		return anchors, nil
	}
	for r := 1; r <= p.base.MaxRow; r++ {
		anchors[baselineAnchor(r)] = r
	}
	return anchors, nil
}

// anchorOf names candidate row c in the anchor space. Keyed runs use the
// RowKey; otherwise a matched row stands for its baseline partner.
func (p *Planner) anchorOf(c int) (string, bool) {
	if p.match.Keyed {
		key, ok := p.ck.RowKey(p.cand, c)
		if !ok {
			return "", false
		}
		return key.Encode(), true
	}
	if b, ok := p.match.Mapping.Baseline(c); ok {
		return baselineAnchor(b), true
	}
	return "c:" + strconv.Itoa(c), true
}

func baselineAnchor(r int) string {
	return "b:" + strconv.Itoa(r)
}

func insertOrigin(rows []sheet.RowOrigin, i int, o sheet.RowOrigin) []sheet.RowOrigin {
	if i >= len(rows) {
		return append(rows, o)
	}
	rows = append(rows, sheet.RowOrigin{})
	copy(rows[i+1:], rows[i:])
	rows[i] = o
	return rows
}
