package sheet

import "sort"

// Annotation tags a cell or a whole row with its comparison outcome
type Annotation uint8

const (
	Unchanged Annotation = iota
	Changed              // cell-level value mismatch
	Added                // row present only in the candidate
	Removed              // row present only in the baseline
)

func (a Annotation) String() string {
	switch a {
	case Changed:
		return "changed"
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unchanged"
	}
}

// CellAnnotation is one cell-level tag
type CellAnnotation struct {
	Cell
	Annotation Annotation
}

// AnnotationSet layers comparison tags over a Grid without touching it.
// Row tags take precedence over cell tags when both are present.
type AnnotationSet struct {
	cells map[Cell]Annotation
	rows  map[int]Annotation
}

// NewAnnotationSet creates an empty set
func NewAnnotationSet() *AnnotationSet {
	return &AnnotationSet{
		cells: make(map[Cell]Annotation),
		rows:  make(map[int]Annotation),
	}
}

// MarkCell tags a single cell
func (s *AnnotationSet) MarkCell(row, col int, a Annotation) {
	if a == Unchanged {
		delete(s.cells, Cell{row, col})
		return
	}
	s.cells[Cell{row, col}] = a
}

// MarkRow tags every cell of row
func (s *AnnotationSet) MarkRow(row int, a Annotation) {
	if a == Unchanged {
		delete(s.rows, row)
		return
	}
	s.rows[row] = a
}

// At returns the effective tag of (row, col)
func (s *AnnotationSet) At(row, col int) Annotation {
	if a, ok := s.rows[row]; ok {
		return a
	}
	return s.cells[Cell{row, col}]
}

// RowTag returns the whole-row tag of row, if any
func (s *AnnotationSet) RowTag(row int) Annotation {
	return s.rows[row]
}

// TaggedRows returns, ascending, the rows carrying whole-row tag a
func (s *AnnotationSet) TaggedRows(a Annotation) []int {
	var out []int
	for r, tag := range s.rows {
		if tag == a {
			out = append(out, r)
		}
	}
	sort.Ints(out)
	return out
}

// CellTags returns cell-level tags not shadowed by a row tag, in row-major order
func (s *AnnotationSet) CellTags() []CellAnnotation {
	out := make([]CellAnnotation, 0, len(s.cells))
	for c, a := range s.cells {
		if _, shadowed := s.rows[c.Row]; shadowed {
			continue
		}
		out = append(out, CellAnnotation{Cell: c, Annotation: a})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// Empty reports whether nothing has been tagged
func (s *AnnotationSet) Empty() bool {
	return len(s.cells) == 0 && len(s.rows) == 0
}
