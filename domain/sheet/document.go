package sheet

// Format identifies how a document's raw bytes are encoded
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DefaultHeaderRow is the header row used when a caller does not specify one
const DefaultHeaderRow = 3

// Document is a loaded worksheet plus the metadata needed to write it back.
// The Grid is read-only after loading; comparison results accumulate in
// Annotations and are applied to a copy of Raw when the document is persisted.
type Document struct {
	Name       string // display name of the source (file name)
	SheetName  string
	SheetNames []string
	Format     Format
	Raw        []byte

	Grid      *Grid
	MaxRow    int
	MaxCol    int
	HeaderRow int

	ColumnWidths map[int]float64
	RowHeights   map[int]float64

	Annotations *AnnotationSet
}

// NewDocument wraps grid in a document whose used range is the grid's extent
func NewDocument(name string, grid *Grid) *Document {
	if grid == nil {
		grid = NewGrid()
	}
	return &Document{
		Name:         name,
		Grid:         grid,
		MaxRow:       grid.MaxRow(),
		MaxCol:       grid.MaxCol(),
		HeaderRow:    DefaultHeaderRow,
		ColumnWidths: make(map[int]float64),
		RowHeights:   make(map[int]float64),
		Annotations:  NewAnnotationSet(),
	}
}

// Cell returns the value at (row, col)
func (d *Document) Cell(row, col int) Value {
	return d.Grid.Get(row, col)
}

// HeaderName returns the trimmed header-row text of col
func (d *Document) HeaderName(col int) string {
	return d.Grid.Get(d.HeaderRow, col).HeaderName()
}

// DataStart is the first row below the header
func (d *Document) DataStart() int {
	return d.HeaderRow + 1
}

// RowValues returns the values of row across columns 1..MaxCol
func (d *Document) RowValues(row int) []Value {
	out := make([]Value, d.MaxCol)
	for c := 1; c <= d.MaxCol; c++ {
		out[c-1] = d.Grid.Get(row, c)
	}
	return out
}

// ResetAnnotations discards all annotation state
func (d *Document) ResetAnnotations() {
	d.Annotations = NewAnnotationSet()
}
