package xlsx

import (
	"fmt"
	"io"

	"github.com/unidoc/unioffice/schema/soo/sml"
	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"
)

// ParseWorkbookModel reads an XLSX from r/size and returns the intermediate representation.
func ParseWorkbookModel(r io.ReaderAt, size int64) (WorkbookModel, error) {
	wb, err := spreadsheet.Read(r, size)
	if err != nil {
		return WorkbookModel{}, fmt.Errorf("read workbook: %w", err)
	}
	return workbookModel(wb), nil
}

func workbookModel(wb *spreadsheet.Workbook) WorkbookModel {
	var model WorkbookModel
	styles := styleLookup{ss: wb.StyleSheet}

	for _, sheet := range wb.Sheets() {
		// ---- find extent ----
		maxCols, maxRow := 0, 0
		for _, row := range sheet.Rows() {
			if n := int(row.RowNumber()); n > maxRow {
				maxRow = n
			}
			for _, cell := range row.Cells() {
				col, err := cell.Column()
				if err != nil {
					continue
				}
				if idx := int(reference.ColumnToIndex(col)) + 1; idx > maxCols {
					maxCols = idx
				}
			}
		}

		rs := RenderSheet{
			Name:      sheet.Name(),
			ColWidths: make([]float64, maxCols),
			Rows:      make([]RenderRow, maxRow),
			Print:     printSetup(&sheet.X().CT_Worksheet),
		}
		for c := 0; c < maxCols; c++ {
			x := sheet.Column(uint32(c + 1)).X()
			if x.CustomWidthAttr != nil && *x.CustomWidthAttr && x.WidthAttr != nil {
				rs.ColWidths[c] = *x.WidthAttr
			}
		}
		for i := range rs.Rows {
			rs.Rows[i].Cells = make([]*RenderCell, maxCols)
		}

		// ---- merges ----
		type span struct{ rows, cols int }
		masters := make(map[[2]int]span)
		covered := make(map[[2]int]bool)
		if mc := sheet.X().MergeCells; mc != nil {
			for _, m := range mc.MergeCell {
				from, to, err := reference.ParseRangeReference(m.RefAttr)
				if err != nil {
					continue
				}
				rs.Merges = append(rs.Merges, m.RefAttr)
				fromRow, toRow := int(from.RowIdx-1), int(to.RowIdx-1)
				fromCol, toCol := int(from.ColumnIdx), int(to.ColumnIdx)
				masters[[2]int{fromRow, fromCol}] = span{toRow - fromRow + 1, toCol - fromCol + 1}
				for r := fromRow; r <= toRow; r++ {
					for c := fromCol; c <= toCol; c++ {
						if r != fromRow || c != fromCol {
							covered[[2]int{r, c}] = true
						}
					}
				}
			}
		}

		// ---- cells ----
		for _, row := range sheet.Rows() {
			rowIdx := int(row.RowNumber()) - 1
			for _, cell := range row.Cells() {
				col, err := cell.Column()
				if err != nil {
					continue
				}
				colIdx := int(reference.ColumnToIndex(col))
				if covered[[2]int{rowIdx, colIdx}] {
					continue
				}
				rc := &RenderCell{
					Ref:     fmt.Sprintf("%s%d", col, rowIdx+1),
					Value:   cell.GetString(),
					ColSpan: 1,
					RowSpan: 1,
				}
				if cell.X().SAttr != nil {
					rc.Style = styles.resolve(*cell.X().SAttr)
				}
				if s, ok := masters[[2]int{rowIdx, colIdx}]; ok {
					rc.RowSpan, rc.ColSpan = s.rows, s.cols
				}
				rs.Rows[rowIdx].Cells[colIdx] = rc
			}
		}

		model.Sheets = append(model.Sheets, rs)
	}
	return model
}

func printSetup(ws *sml.CT_Worksheet) PrintSetup {
	var p PrintSetup
	if ps := ws.PageSetup; ps != nil {
		p.Landscape = ps.OrientationAttr == sml.ST_OrientationLandscape
		if ps.PaperSizeAttr != nil {
			p.PaperSize = *ps.PaperSizeAttr
		}
	}
	if po := ws.PrintOptions; po != nil && po.GridLinesAttr != nil {
		p.Gridlines = *po.GridLinesAttr
	}
	return p
}
