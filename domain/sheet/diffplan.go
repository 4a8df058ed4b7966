package sheet

// DiffTitle is the sheet name given to the synthesized diff document
const DiffTitle = "diff result"

// RowOrigin says where a row of the diff document comes from. Exactly one
// of Baseline and Candidate is non-zero.
type RowOrigin struct {
	Baseline  int `json:"baseline,omitempty"`
	Candidate int `json:"candidate,omitempty"`
}

// Inserted reports whether the row was spliced in from the candidate
func (o RowOrigin) Inserted() bool { return o.Candidate > 0 }

// Insertion splices one candidate row into the diff document. At is the
// row index at the moment of insertion; rows at or below At shift down.
type Insertion struct {
	At           int           `json:"at"`
	CandidateRow int           `json:"candidate_row"`
	Anchored     bool          `json:"anchored"`
	Values       map[int]Value `json:"-"`
}

// DiffPlan is the full recipe for building the diff document from the
// annotated baseline. Insertions must be applied in order.
type DiffPlan struct {
	Title       string
	TemplateRow int // 0 when the baseline has no data row to copy formatting from
	Columns     int
	Insertions  []Insertion
	Rows        []RowOrigin // final row order, index 0 is diff row 1
}
