package xlsx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/unidoc/unioffice/color"
	"github.com/unidoc/unioffice/schema/soo/sml"
	"github.com/unidoc/unioffice/spreadsheet"

	"github.com/aerissecure/tablexport"
)

// styleSet holds one workbook cell style per exporter style.
type styleSet map[tablexport.CellStyle]spreadsheet.CellStyle

// newStyleSet creates the fonts and cell styles for f in wb. Facet styles
// share the facet font and fill, cell styles share the cell font.
func newStyleSet(wb *spreadsheet.Workbook, f tablexport.Format) (styleSet, error) {
	ss := wb.StyleSheet

	cellFont := ss.AddFont()
	if err := applyFont(cellFont, f.FontName, f.CellFontSize, f.CellFontColor, f.CellFontStyle); err != nil {
		return nil, fmt.Errorf("cell font: %w", err)
	}
	facetFont := ss.AddFont()
	if err := applyFont(facetFont, f.FontName, f.FacetFontSize, f.FacetFontColor, f.FacetFontStyle); err != nil {
		return nil, fmt.Errorf("facet font: %w", err)
	}
	titleFont := ss.AddFont()
	titleFont.SetBold(true)

	var facetFill *spreadsheet.Fill
	if f.FacetBackground != "" {
		c, err := rgb(f.FacetBackground)
		if err != nil {
			return nil, fmt.Errorf("facet background: %w", err)
		}
		fill := ss.Fills().AddFill()
		pf := fill.SetPatternFill()
		pf.SetPattern(sml.ST_PatternTypeSolid)
		pf.SetFgColor(c)
		facetFill = &fill
	}

	set := make(styleSet)
	add := func(kind tablexport.CellStyle, font spreadsheet.Font, fill *spreadsheet.Fill, h sml.ST_HorizontalAlignment) spreadsheet.CellStyle {
		cs := ss.AddCellStyle()
		cs.SetFont(font)
		if fill != nil {
			cs.SetFill(*fill)
		}
		if h != sml.ST_HorizontalAlignmentUnset {
			cs.SetHorizontalAlignment(h)
		}
		set[kind] = cs
		return cs
	}

	add(tablexport.StyleCell, cellFont, nil, sml.ST_HorizontalAlignmentUnset)
	add(tablexport.StyleCellLeft, cellFont, nil, sml.ST_HorizontalAlignmentLeft)
	add(tablexport.StyleCellCenter, cellFont, nil, sml.ST_HorizontalAlignmentCenter)
	add(tablexport.StyleCellRight, cellFont, nil, sml.ST_HorizontalAlignmentRight)
	add(tablexport.StyleFacet, facetFont, facetFill, sml.ST_HorizontalAlignmentUnset)
	add(tablexport.StyleFacetLeft, facetFont, facetFill, sml.ST_HorizontalAlignmentLeft)
	center := add(tablexport.StyleFacetCenter, facetFont, facetFill, sml.ST_HorizontalAlignmentCenter)
	center.SetVerticalAlignment(sml.ST_VerticalAlignmentCenter)
	center.SetWrapped(true)
	add(tablexport.StyleFacetRight, facetFont, facetFill, sml.ST_HorizontalAlignmentRight)
	add(tablexport.StyleTitle, titleFont, nil, sml.ST_HorizontalAlignmentUnset)
	return set, nil
}

func applyFont(font spreadsheet.Font, name string, size float64, hex string, style tablexport.FontStyle) error {
	if name != "" {
		font.SetName(name)
	}
	if size > 0 {
		font.SetSize(size)
	}
	if hex != "" {
		c, err := rgb(hex)
		if err != nil {
			return err
		}
		font.SetColor(c)
	}
	switch style {
	case tablexport.FontBold:
		font.SetBold(true)
	case tablexport.FontItalic:
		font.SetItalic(true)
	}
	return nil
}

// rgb converts a decoded "#RRGGBB" colour to a workbook colour.
func rgb(s string) (c color.Color, err error) {
	hex, err := tablexport.DecodeColor(s)
	if err != nil {
		return
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return
	}
	return color.RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}
