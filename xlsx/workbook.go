package xlsx

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/unidoc/unioffice/schema/soo/sml"
	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"

	"github.com/aerissecure/tablexport"
)

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// a4PaperSize is the SpreadsheetML paper size code for A4.
const a4PaperSize uint32 = 9

// Widths are in characters of the default font.
const (
	minColumnWidth = 8.43
	maxColumnWidth = 255
)

// Workbook is a tablexport.Sink writing a single sheet workbook.
type Workbook struct {
	wb     *spreadsheet.Workbook
	sheet  spreadsheet.Sheet
	styles styleSet

	last    int
	widths  map[[2]int]int // rune count per written cell
	regions []tablexport.Region
}

var _ tablexport.Sink = (*Workbook)(nil)

// New creates a workbook with one sheet. The sheet name is passed through
// SafeSheetName.
func New(sheetName string, f tablexport.Format) (*Workbook, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	wb := spreadsheet.New()
	sheet := wb.AddSheet()
	sheet.SetName(SafeSheetName(sheetName))

	styles, err := newStyleSet(wb, f)
	if err != nil {
		return nil, err
	}
	return &Workbook{
		wb:     wb,
		sheet:  sheet,
		styles: styles,
		last:   -1,
		widths: make(map[[2]int]int),
	}, nil
}

// X returns the underlying workbook.
func (w *Workbook) X() *spreadsheet.Workbook { return w.wb }

// Sheet returns the exported sheet.
func (w *Workbook) Sheet() spreadsheet.Sheet { return w.sheet }

func (w *Workbook) LastRow() int { return w.last }

func (w *Workbook) CreateRow(row int) {
	if row <= w.last {
		return
	}
	w.sheet.Row(uint32(row + 1))
	w.last = row
}

func (w *Workbook) SetCell(row, col int, value string, style tablexport.CellStyle) {
	w.CreateRow(row)
	cell := w.sheet.Row(uint32(row + 1)).Cell(reference.IndexToColumn(uint32(col)))
	cell.SetString(value)
	if cs, ok := w.styles[style]; ok {
		cell.SetStyle(cs)
	}
	w.widths[[2]int{row, col}] = utf8.RuneCountInString(value)
}

func (w *Workbook) Merge(r tablexport.Region) {
	from := fmt.Sprintf("%s%d", reference.IndexToColumn(uint32(r.FirstCol)), r.FirstRow+1)
	to := fmt.Sprintf("%s%d", reference.IndexToColumn(uint32(r.LastCol)), r.LastRow+1)
	w.sheet.AddMergedCells(from, to)
	w.regions = append(w.regions, r)
}

// AutoSize sets each of the first cols columns to the widest value written in
// it. Cells merged across several columns are ignored.
func (w *Workbook) AutoSize(cols int) {
	widest := make([]int, cols)
	for key, n := range w.widths {
		row, col := key[0], key[1]
		if col >= cols || w.spansColumns(row, col) {
			continue
		}
		if n > widest[col] {
			widest[col] = n
		}
	}
	for c, n := range widest {
		width := float64(n) + 2
		if width < minColumnWidth {
			width = minColumnWidth
		}
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		custom := true
		x := w.sheet.Column(uint32(c + 1)).X()
		x.WidthAttr = &width
		x.CustomWidthAttr = &custom
	}
}

func (w *Workbook) spansColumns(row, col int) bool {
	for _, r := range w.regions {
		if r.FirstCol != r.LastCol && r.Contains(row, col) {
			return true
		}
	}
	return false
}

// PageSetup prints on A4 with gridlines.
func (w *Workbook) PageSetup(o tablexport.Orientation) {
	x := w.sheet.X()
	ps := sml.NewCT_PageSetup()
	paper := a4PaperSize
	ps.PaperSizeAttr = &paper
	if o == tablexport.Portrait {
		ps.OrientationAttr = sml.ST_OrientationPortrait
	} else {
		ps.OrientationAttr = sml.ST_OrientationLandscape
	}
	x.PageSetup = ps

	grid := true
	po := sml.NewCT_PrintOptions()
	po.GridLinesAttr = &grid
	x.PrintOptions = po
}

// Save writes the workbook.
func (w *Workbook) Save(out io.Writer) error {
	return w.wb.Save(out)
}

// Processor adapts a function on the underlying workbook to an exporter hook.
// The hook fails when the sink is not a *Workbook.
func Processor(fn func(*spreadsheet.Workbook) error) tablexport.Hook {
	return func(_ context.Context, s tablexport.Sink) error {
		w, ok := s.(*Workbook)
		if !ok {
			return fmt.Errorf("xlsx processor: sink is %T, not *xlsx.Workbook", s)
		}
		return fn(w.wb)
	}
}

// Export runs ex against view and writes the resulting workbook to out. The
// sheet takes its styles from req.Format, or the default format.
func Export(ctx context.Context, out io.Writer, ex *tablexport.Exporter, view tablexport.View, sheetName string, req tablexport.Request) (tablexport.Result, error) {
	f := tablexport.DefaultFormat()
	if req.Format != nil {
		f = *req.Format
	}
	w, err := New(sheetName, f)
	if err != nil {
		return tablexport.Result{}, err
	}
	res, err := ex.Export(ctx, w, view, req)
	if err != nil {
		return res, err
	}
	if err := w.Save(out); err != nil {
		return res, fmt.Errorf("save workbook: %w", err)
	}
	return res, nil
}

// Model returns the IR of the workbook as written so far.
func (w *Workbook) Model() WorkbookModel { return workbookModel(w.wb) }

// Preview runs ex against view and renders the sheet as HTML instead of
// writing a workbook.
func Preview(ctx context.Context, ex *tablexport.Exporter, view tablexport.View, sheetName string, req tablexport.Request) (string, tablexport.Result, error) {
	f := tablexport.DefaultFormat()
	if req.Format != nil {
		f = *req.Format
	}
	w, err := New(sheetName, f)
	if err != nil {
		return "", tablexport.Result{}, err
	}
	res, err := ex.Export(ctx, w, view, req)
	if err != nil {
		return "", res, err
	}
	return RenderWorkbookHTML(w.Model()), res, nil
}
