package tablexport

import "fmt"

// CellStyle names the styles the exporter applies. Sinks map them to their
// own style objects.
type CellStyle int

const (
	StyleNone CellStyle = iota
	StyleCell
	StyleCellLeft
	StyleCellCenter
	StyleCellRight
	StyleFacet
	StyleFacetLeft
	StyleFacetCenter // also centered vertically and wrapped
	StyleFacetRight
	StyleTitle
)

var styleNames = [...]string{"none", "cell", "cell-left", "cell-center", "cell-right", "facet", "facet-left", "facet-center", "facet-right", "title"}

func (s CellStyle) String() string {
	if int(s) < 0 || int(s) >= len(styleNames) {
		return fmt.Sprintf("CellStyle(%d)", int(s))
	}
	return styleNames[s]
}

// IsFacet reports whether s is one of the facet styles.
func (s CellStyle) IsFacet() bool {
	return s >= StyleFacet && s <= StyleFacetRight
}

func cellStyleFor(a Alignment) CellStyle {
	switch a {
	case AlignLeft:
		return StyleCellLeft
	case AlignCenter:
		return StyleCellCenter
	case AlignRight:
		return StyleCellRight
	}
	return StyleCell
}

func facetStyleFor(a Alignment) CellStyle {
	switch a {
	case AlignLeft:
		return StyleFacetLeft
	case AlignCenter:
		return StyleFacetCenter
	case AlignRight:
		return StyleFacetRight
	}
	return StyleFacet
}

// Region is an inclusive, 0-based rectangle of merged cells.
type Region struct {
	FirstRow, LastRow int
	FirstCol, LastCol int
}

// Contains reports whether (row, col) lies inside r.
func (r Region) Contains(row, col int) bool {
	return row >= r.FirstRow && row <= r.LastRow && col >= r.FirstCol && col <= r.LastCol
}

// Single reports whether r covers exactly one cell.
func (r Region) Single() bool {
	return r.FirstRow == r.LastRow && r.FirstCol == r.LastCol
}

func (r Region) String() string {
	return fmt.Sprintf("R%dC%d:R%dC%d", r.FirstRow, r.FirstCol, r.LastRow, r.LastCol)
}

// Sink receives the exported sheet. Rows and columns are 0-based.
type Sink interface {
	// LastRow returns the index of the last created row, or -1.
	LastRow() int
	// CreateRow makes sure row exists. Rows never shrink.
	CreateRow(row int)
	SetCell(row, col int, value string, style CellStyle)
	Merge(r Region)
	// AutoSize fits the widths of columns [0, cols) to their content.
	AutoSize(cols int)
	PageSetup(o Orientation)
}
