package tablexport

import (
	"fmt"
	"strconv"
	"strings"
)

// FontStyle is the weight/slant of a font.
type FontStyle string

const (
	FontNormal FontStyle = "NORMAL"
	FontBold   FontStyle = "BOLD"
	FontItalic FontStyle = "ITALIC"
)

// ParseFontStyle is case-insensitive. Anything but bold or italic is normal.
func ParseFontStyle(s string) FontStyle {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(FontBold):
		return FontBold
	case string(FontItalic):
		return FontItalic
	}
	return FontNormal
}

// Orientation of the printed page.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// Format holds the fonts and colours used for facet (header/footer) and data
// cells. Colours are "#RRGGBB" once decoded; empty means the workbook default. Sizes are in
// points; 0 means the workbook default.
type Format struct {
	FacetBackground string      `yaml:"facetBackground"`
	FacetFontColor  string      `yaml:"facetFontColor"`
	FacetFontSize   float64     `yaml:"facetFontSize"`
	FacetFontStyle  FontStyle   `yaml:"facetFontStyle"`
	FontName        string      `yaml:"fontName"`
	CellFontColor   string      `yaml:"cellFontColor"`
	CellFontSize    float64     `yaml:"cellFontSize"`
	CellFontStyle   FontStyle   `yaml:"cellFontStyle"`
	DatasetPadding  int         `yaml:"datasetPadding"`
	Orientation     Orientation `yaml:"orientation"`
}

// DefaultFormat is used when the caller supplies none.
func DefaultFormat() Format {
	return Format{
		FacetFontSize:  10,
		FacetFontStyle: FontBold,
		CellFontSize:   10,
		CellFontStyle:  FontNormal,
		DatasetPadding: 1,
		Orientation:    Landscape,
	}
}

func (f Format) String() string {
	return fmt.Sprintf("FacetBackground: %s, FacetFontColor: %s, FacetFontSize: %.1f, FacetFontStyle: %s, FontName: %s, CellFontColor: %s, CellFontSize: %.1f, CellFontStyle: %s, DatasetPadding: %d, Orientation: %s",
		f.FacetBackground, f.FacetFontColor, f.FacetFontSize, f.FacetFontStyle, f.FontName, f.CellFontColor, f.CellFontSize, f.CellFontStyle, f.DatasetPadding, f.Orientation)
}

// FormatParams are the string parameters of a custom format, as they arrive
// from a request or a tag attribute. Empty strings keep the default.
type FormatParams struct {
	FacetBackground string
	FacetFontSize   string
	FacetFontColor  string
	FacetFontStyle  string
	FontName        string
	CellFontSize    string
	CellFontColor   string
	CellFontStyle   string
	DatasetPadding  string
	Orientation     string
}

// ParseFormat decodes p on top of DefaultFormat.
func ParseFormat(p FormatParams) (Format, error) {
	return DefaultFormat().Apply(p)
}

// IsZero reports whether no parameter is set.
func (p FormatParams) IsZero() bool {
	return p == FormatParams{}
}

// Apply decodes p on top of f.
func (f Format) Apply(p FormatParams) (Format, error) {
	var err error
	if p.FacetBackground != "" {
		if f.FacetBackground, err = DecodeColor(p.FacetBackground); err != nil {
			return f, fmt.Errorf("facet background: %w", err)
		}
	}
	if p.FacetFontColor != "" {
		if f.FacetFontColor, err = DecodeColor(p.FacetFontColor); err != nil {
			return f, fmt.Errorf("facet font color: %w", err)
		}
	}
	if p.CellFontColor != "" {
		if f.CellFontColor, err = DecodeColor(p.CellFontColor); err != nil {
			return f, fmt.Errorf("cell font color: %w", err)
		}
	}
	if p.FacetFontSize != "" {
		if f.FacetFontSize, err = parseSize(p.FacetFontSize); err != nil {
			return f, fmt.Errorf("facet font size: %w", err)
		}
	}
	if p.CellFontSize != "" {
		if f.CellFontSize, err = parseSize(p.CellFontSize); err != nil {
			return f, fmt.Errorf("cell font size: %w", err)
		}
	}
	if p.DatasetPadding != "" {
		n, err := strconv.Atoi(strings.TrimSpace(p.DatasetPadding))
		if err != nil || n < 0 {
			return f, fmt.Errorf("dataset padding %q: %w", p.DatasetPadding, ErrInvalidFormat)
		}
		f.DatasetPadding = n
	}
	if p.FacetFontStyle != "" {
		f.FacetFontStyle = ParseFontStyle(p.FacetFontStyle)
	}
	if p.CellFontStyle != "" {
		f.CellFontStyle = ParseFontStyle(p.CellFontStyle)
	}
	if p.FontName != "" {
		f.FontName = p.FontName
	}
	if p.Orientation != "" {
		switch Orientation(strings.ToLower(strings.TrimSpace(p.Orientation))) {
		case Portrait:
			f.Orientation = Portrait
		case Landscape:
			f.Orientation = Landscape
		default:
			return f, fmt.Errorf("orientation %q: %w", p.Orientation, ErrInvalidFormat)
		}
	}
	return f, nil
}

// Normalize fills zero values from DefaultFormat and canonicalizes colours.
func (f Format) Normalize() (Format, error) {
	def := DefaultFormat()
	if f.FacetFontStyle == "" {
		f.FacetFontStyle = def.FacetFontStyle
	} else {
		f.FacetFontStyle = ParseFontStyle(string(f.FacetFontStyle))
	}
	if f.CellFontStyle == "" {
		f.CellFontStyle = def.CellFontStyle
	} else {
		f.CellFontStyle = ParseFontStyle(string(f.CellFontStyle))
	}
	if f.Orientation == "" {
		f.Orientation = def.Orientation
	}
	if f.DatasetPadding < 0 {
		return f, fmt.Errorf("dataset padding %d: %w", f.DatasetPadding, ErrInvalidFormat)
	}
	for _, c := range []*string{&f.FacetBackground, &f.FacetFontColor, &f.CellFontColor} {
		if *c == "" {
			continue
		}
		hex, err := DecodeColor(*c)
		if err != nil {
			return f, err
		}
		*c = hex
	}
	return f, nil
}

// DecodeColor accepts "#RRGGBB", "0xRRGGBB" or an integer literal and returns
// the colour as upper case "#RRGGBB", which decodes to itself. Unprefixed
// digits are decimal, or octal with a leading zero.
func DecodeColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty color: %w", ErrInvalidFormat)
	}
	lit := s
	if strings.HasPrefix(lit, "#") {
		lit = "0x" + lit[1:]
	}
	v, err := strconv.ParseInt(lit, 0, 64)
	if err != nil || v < 0 || v > 0xFFFFFF {
		return "", fmt.Errorf("color %q: %w", s, ErrInvalidFormat)
	}
	return fmt.Sprintf("#%06X", v), nil
}

func parseSize(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("size %q: %w", s, ErrInvalidFormat)
	}
	return v, nil
}
