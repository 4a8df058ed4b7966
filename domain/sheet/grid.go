package sheet

// Cell is a 1-based (row, column) coordinate
type Cell struct {
	Row int
	Col int
}

// Grid is a sparse mapping from coordinates to non-empty values
type Grid struct {
	cells  map[Cell]Value
	maxRow int
	maxCol int
}

// NewGrid creates an empty grid
func NewGrid() *Grid {
	return &Grid{cells: make(map[Cell]Value)}
}

// Set stores v at (row, col). Storing an empty value clears the cell;
// coordinates below 1 are ignored.
func (g *Grid) Set(row, col int, v Value) {
	if row < 1 || col < 1 {
		return
	}
	if v.IsEmpty() {
		delete(g.cells, Cell{row, col})
		return
	}
	g.cells[Cell{row, col}] = v
	if row > g.maxRow {
		g.maxRow = row
	}
	if col > g.maxCol {
		g.maxCol = col
	}
}

// Get returns the value at (row, col), or the empty value
func (g *Grid) Get(row, col int) Value {
	return g.cells[Cell{row, col}]
}

// MaxRow is the highest row that ever held a value
func (g *Grid) MaxRow() int { return g.maxRow }

// MaxCol is the highest column that ever held a value
func (g *Grid) MaxCol() int { return g.maxCol }

// Len is the number of non-empty cells
func (g *Grid) Len() int { return len(g.cells) }
