package xlsx

import (
	"fmt"
)

// Intermediate representation of a written workbook, as read back by
// ParseWorkbookModel. Used by the HTML preview and by tests.

// CellStyle captures the style attributes the exporter writes.
type CellStyle struct {
	FontFamily      string  // e.g. "Calibri"
	FontSizePt      float64 // size in points
	FontColor       string  // "RRGGBB"
	Bold            bool
	Italic          bool
	BackgroundColor string // "RRGGBB"
	HorizontalAlign string // left|center|right or empty
	VerticalAlign   string // top|middle|bottom
	WrapText        bool
}

func (s CellStyle) String() string {
	return fmt.Sprintf("FontFamily: %s, FontSizePt: %.1f, FontColor: %s, Bold: %t, Italic: %t, BackgroundColor: %s, HorizontalAlign: %s, VerticalAlign: %s, WrapText: %t",
		s.FontFamily, s.FontSizePt, s.FontColor, s.Bold, s.Italic, s.BackgroundColor, s.HorizontalAlign, s.VerticalAlign, s.WrapText)
}

// RenderCell is a single cell, or the master cell of a merged region.
type RenderCell struct {
	Ref     string // e.g. "A1"
	Value   string
	ColSpan int // 1 if not merged
	RowSpan int // 1 if not merged
	Style   CellStyle
}

func (c RenderCell) String() string {
	return fmt.Sprintf("Ref: %s, Value: %q, ColSpan: %d, RowSpan: %d, Style: [%s]", c.Ref, c.Value, c.ColSpan, c.RowSpan, c.Style.String())
}

// RenderRow is one sheet row. Cells has one slot per sheet column; blank and
// merged-over cells are nil.
type RenderRow struct {
	Cells []*RenderCell
}

// Values returns the cell values, "" for nil cells.
func (r RenderRow) Values() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		if c != nil {
			out[i] = c.Value
		}
	}
	return out
}

// PrintSetup is the page setup of a sheet.
type PrintSetup struct {
	Landscape bool
	PaperSize uint32
	Gridlines bool
}

// RenderSheet is one worksheet.
type RenderSheet struct {
	Name      string
	ColWidths []float64 // characters; 0 when the column has no custom width
	Rows      []RenderRow
	Merges    []string // merge references, e.g. "A1:C1"
	Print     PrintSetup
}

func (s RenderSheet) String() string {
	return fmt.Sprintf("Name: %s, ColWidths: %v, Rows: %d, Merges: %v, Print: %+v", s.Name, s.ColWidths, len(s.Rows), s.Merges, s.Print)
}

// Cell returns the cell at the 0-based row and column, or nil.
func (s RenderSheet) Cell(row, col int) *RenderCell {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row].Cells) {
		return nil
	}
	return s.Rows[row].Cells[col]
}

// WorkbookModel is the top-level IR containing all sheets.
type WorkbookModel struct {
	Sheets []RenderSheet
}
