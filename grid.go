package tablexport

import "fmt"

// GridCell is a cell written to a Grid.
type GridCell struct {
	Value string
	Style CellStyle
}

// Grid is an in-memory Sink. It backs previews and tests.
type Grid struct {
	cells       map[[2]int]GridCell
	last        int
	maxCol      int
	Regions     []Region
	AutoSized   int
	Orientation Orientation
}

// NewGrid returns an empty Grid.
func NewGrid() *Grid {
	return &Grid{cells: make(map[[2]int]GridCell), last: -1, maxCol: -1}
}

func (g *Grid) LastRow() int { return g.last }

func (g *Grid) CreateRow(row int) {
	if row > g.last {
		g.last = row
	}
}

func (g *Grid) SetCell(row, col int, value string, style CellStyle) {
	g.CreateRow(row)
	if col > g.maxCol {
		g.maxCol = col
	}
	g.cells[[2]int{row, col}] = GridCell{Value: value, Style: style}
}

func (g *Grid) Merge(r Region) { g.Regions = append(g.Regions, r) }

func (g *Grid) AutoSize(cols int) { g.AutoSized = cols }

func (g *Grid) PageSetup(o Orientation) { g.Orientation = o }

// Cell returns the cell at (row, col).
func (g *Grid) Cell(row, col int) (GridCell, bool) {
	c, ok := g.cells[[2]int{row, col}]
	return c, ok
}

// Rows returns the cell values row by row, each row as wide as the widest row
// of the grid. Unwritten cells are empty strings.
func (g *Grid) Rows() [][]string {
	out := make([][]string, g.last+1)
	for r := range out {
		out[r] = make([]string, g.maxCol+1)
		for c := range out[r] {
			out[r][c] = g.cells[[2]int{r, c}].Value
		}
	}
	return out
}

// Width returns the number of columns in use.
func (g *Grid) Width() int { return g.maxCol + 1 }

func (g *Grid) String() string {
	return fmt.Sprintf("Grid(Rows: %d, Cols: %d, Regions: %d)", g.last+1, g.maxCol+1, len(g.Regions))
}
