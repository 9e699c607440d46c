package xlsx

import (
	"strings"

	"github.com/unidoc/unioffice/schema/soo/sml"
	"github.com/unidoc/unioffice/spreadsheet"
)

// styleLookup resolves a cell's style index to the font, fill and alignment
// records of the style sheet.
type styleLookup struct {
	ss spreadsheet.StyleSheet
}

func (l styleLookup) xf(styleID uint32) *sml.CT_Xf {
	x := l.ss.X()
	if x.CellXfs == nil || int(styleID) >= len(x.CellXfs.Xf) {
		return nil
	}
	return x.CellXfs.Xf[styleID]
}

func (l styleLookup) font(xf *sml.CT_Xf) *sml.CT_Font {
	x := l.ss.X()
	if xf.FontIdAttr == nil || x.Fonts == nil {
		return nil
	}
	idx := int(*xf.FontIdAttr)
	if idx >= len(x.Fonts.Font) {
		return nil
	}
	return x.Fonts.Font[idx]
}

func (l styleLookup) fill(xf *sml.CT_Xf) *sml.CT_Fill {
	x := l.ss.X()
	if xf.FillIdAttr == nil || x.Fills == nil {
		return nil
	}
	idx := int(*xf.FillIdAttr)
	if idx >= len(x.Fills.Fill) {
		return nil
	}
	return x.Fills.Fill[idx]
}

// resolve builds the CellStyle for a style index.
func (l styleLookup) resolve(styleID uint32) CellStyle {
	var st CellStyle
	xf := l.xf(styleID)
	if xf == nil {
		return st
	}
	if font := l.font(xf); font != nil {
		if len(font.Name) > 0 {
			st.FontFamily = font.Name[0].ValAttr
		}
		if len(font.Sz) > 0 {
			st.FontSizePt = font.Sz[0].ValAttr
		}
		if len(font.Color) > 0 && font.Color[0].RgbAttr != nil {
			st.FontColor = normalizeColor(*font.Color[0].RgbAttr)
		}
		st.Bold = boolProp(font.B)
		st.Italic = boolProp(font.I)
	}
	if fill := l.fill(xf); fill != nil && fill.PatternFill != nil && fill.PatternFill.FgColor != nil {
		if fg := fill.PatternFill.FgColor; fg.RgbAttr != nil {
			st.BackgroundColor = normalizeColor(*fg.RgbAttr)
		}
	}
	st.VerticalAlign = "bottom"
	if xf.Alignment != nil {
		switch h := xf.Alignment.HorizontalAttr; h {
		case sml.ST_HorizontalAlignmentLeft, sml.ST_HorizontalAlignmentCenter, sml.ST_HorizontalAlignmentRight:
			st.HorizontalAlign = h.String()
		}
		switch xf.Alignment.VerticalAttr {
		case sml.ST_VerticalAlignmentTop:
			st.VerticalAlign = "top"
		case sml.ST_VerticalAlignmentCenter:
			st.VerticalAlign = "middle"
		}
		if xf.Alignment.WrapTextAttr != nil {
			st.WrapText = *xf.Alignment.WrapTextAttr
		}
	}
	return st
}

// boolProp reads a <b/> or <i/> style flag; a present element without a val
// attribute means true.
func boolProp(p []*sml.CT_BooleanProperty) bool {
	if len(p) == 0 || p[0] == nil {
		return false
	}
	return p[0].ValAttr == nil || *p[0].ValAttr
}

// normalizeColor converts an 8-digit ARGB hex (as used in XLSX) to a 6-digit RGB string.
// If the string is already 6 digits (or any other length), it is returned unchanged.
func normalizeColor(hex string) string {
	hex = strings.ToUpper(strings.TrimPrefix(hex, "#"))
	if len(hex) == 8 {
		return hex[2:]
	}
	return hex
}
