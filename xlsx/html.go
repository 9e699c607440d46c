package xlsx

import (
	"fmt"
	"html"
	"strings"
)

// pxPerChar approximates the pixel width of one character of the default font.
const pxPerChar = 7.0

// RenderWorkbookHTML renders the IR as an HTML preview: one table per sheet,
// merged cells as colspan/rowspan, one CSS class per distinct cell style.
func RenderWorkbookHTML(m WorkbookModel) string {
	var b strings.Builder

	// ---- collect styles ----
	classes := make(map[CellStyle]string)
	var order []CellStyle
	for _, sheet := range m.Sheets {
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				if cell == nil {
					continue
				}
				if _, ok := classes[cell.Style]; !ok {
					classes[cell.Style] = fmt.Sprintf("cs%d", len(order)+1)
					order = append(order, cell.Style)
				}
			}
		}
	}

	b.WriteString("<style>\n")
	b.WriteString(".table { border-collapse: collapse; table-layout: fixed; margin-bottom: 2em; }\n")
	b.WriteString(".table td { padding: 4px 8px; border: 1px solid #ccc; white-space: nowrap; overflow: hidden; }\n")
	for _, st := range order {
		if css := styleToCSS(st); css != "" {
			fmt.Fprintf(&b, ".%s { %s }\n", classes[st], css)
		}
	}
	b.WriteString("</style>\n")

	for _, sheet := range m.Sheets {
		fmt.Fprintf(&b, "<div class=\"sheet\" data-name=\"%s\">\n", html.EscapeString(sheet.Name))
		b.WriteString("<table class=\"table\">\n  <colgroup>\n")
		for _, w := range sheet.ColWidths {
			if w > 0 {
				fmt.Fprintf(&b, "    <col style=\"width:%.0fpx;\">\n", w*pxPerChar)
			} else {
				b.WriteString("    <col>\n")
			}
		}
		b.WriteString("  </colgroup>\n")

		covered := coveredCells(sheet)
		for r, row := range sheet.Rows {
			b.WriteString("  <tr>\n")
			for c, cell := range row.Cells {
				if covered[[2]int{r, c}] {
					continue
				}
				if cell == nil {
					b.WriteString("    <td></td>\n")
					continue
				}
				attr := ""
				if cell.ColSpan > 1 {
					attr += fmt.Sprintf(" colspan=\"%d\"", cell.ColSpan)
				}
				if cell.RowSpan > 1 {
					attr += fmt.Sprintf(" rowspan=\"%d\"", cell.RowSpan)
				}
				text := strings.ReplaceAll(html.EscapeString(cell.Value), "\n", "<br>")
				fmt.Fprintf(&b, "    <td data-cell=\"%s\"%s class=\"%s\">%s</td>\n", cell.Ref, attr, classes[cell.Style], text)
			}
			b.WriteString("  </tr>\n")
		}
		b.WriteString("</table>\n</div>\n")
	}
	return b.String()
}

// coveredCells marks the cells hidden under a merged master cell.
func coveredCells(s RenderSheet) map[[2]int]bool {
	covered := make(map[[2]int]bool)
	for r, row := range s.Rows {
		for c, cell := range row.Cells {
			if cell == nil || (cell.RowSpan <= 1 && cell.ColSpan <= 1) {
				continue
			}
			for dr := 0; dr < cell.RowSpan; dr++ {
				for dc := 0; dc < cell.ColSpan; dc++ {
					if dr != 0 || dc != 0 {
						covered[[2]int{r + dr, c + dc}] = true
					}
				}
			}
		}
	}
	return covered
}

// styleToCSS converts a CellStyle to a CSS string.
func styleToCSS(s CellStyle) string {
	var b strings.Builder
	if s.FontFamily != "" {
		fmt.Fprintf(&b, "font-family:'%s';", s.FontFamily)
	}
	if s.FontSizePt > 0 {
		fmt.Fprintf(&b, "font-size:%.1fpt;", s.FontSizePt)
	}
	if s.FontColor != "" {
		fmt.Fprintf(&b, "color:#%s;", s.FontColor)
	}
	if s.Bold {
		b.WriteString("font-weight:bold;")
	}
	if s.Italic {
		b.WriteString("font-style:italic;")
	}
	if s.BackgroundColor != "" {
		fmt.Fprintf(&b, "background-color:#%s;", s.BackgroundColor)
	}
	if s.HorizontalAlign != "" {
		fmt.Fprintf(&b, "text-align:%s;", s.HorizontalAlign)
	}
	if s.VerticalAlign == "top" || s.VerticalAlign == "middle" {
		fmt.Fprintf(&b, "vertical-align:%s;", s.VerticalAlign)
	}
	if s.WrapText {
		b.WriteString("white-space:normal;")
	}
	return b.String()
}
