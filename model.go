package tablexport

import (
	"fmt"
	"strings"
)

// Object model for the exportable component tree. Callers build it (or load it
// with internal/document) and hand it to the Exporter through a View.

// Component is anything that can sit in a column, list or facet.
type Component interface {
	Rendered() bool
	// ExportValue returns the exported text for the given row value. Facets are
	// exported with a nil row.
	ExportValue(row any) string
}

// Alignment is the horizontal alignment requested by a component's style.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	}
	return "none"
}

// Aligner is implemented by components that carry an inline style.
type Aligner interface {
	Alignment() Alignment
}

// AlignmentFromStyle reads an inline style string. Checks run left, right,
// center and the last match wins.
func AlignmentFromStyle(style string) Alignment {
	a := AlignNone
	if strings.Contains(style, "left") {
		a = AlignLeft
	}
	if strings.Contains(style, "right") {
		a = AlignRight
	}
	if strings.Contains(style, "center") {
		a = AlignCenter
	}
	return a
}

// Text is an output text. Value is used as is unless Func is set.
type Text struct {
	Value  string
	Func   func(row any) string
	Style  string // inline style, e.g. "text-align:right"
	Hidden bool
}

func (t *Text) Rendered() bool { return !t.Hidden }

func (t *Text) ExportValue(row any) string {
	if t.Func != nil {
		return t.Func(row)
	}
	return t.Value
}

func (t *Text) Alignment() Alignment { return AlignmentFromStyle(t.Style) }

// Button exports its label.
type Button struct {
	Label  string
	Hidden bool
}

func (b *Button) Rendered() bool           { return !b.Hidden }
func (b *Button) ExportValue(_ any) string { return b.Label }

// Link exports its label.
type Link struct {
	Label  string
	Href   string
	Hidden bool
}

func (l *Link) Rendered() bool           { return !l.Hidden }
func (l *Link) ExportValue(_ any) string { return l.Label }

// Panel groups components; its value is the concatenation of its rendered
// children.
type Panel struct {
	Children []Component
	Hidden   bool
}

func (p *Panel) Rendered() bool { return !p.Hidden }

func (p *Panel) ExportValue(row any) string {
	var b strings.Builder
	for _, c := range p.Children {
		if c == nil || !c.Rendered() {
			continue
		}
		b.WriteString(c.ExportValue(row))
	}
	return b.String()
}

// Column is a table column.
type Column struct {
	HeaderText string
	FooterText string
	Header     Component // header facet
	Footer     Component // footer facet
	Children   []Component
	Rowspan    int // 0 is treated as 1
	Colspan    int // 0 is treated as 1

	Hidden        bool
	NotExportable bool

	// ExportFunc replaces the children when set.
	ExportFunc func(row any) string
}

// Exported reports whether the column contributes a cell.
func (c *Column) Exported() bool {
	return c != nil && !c.Hidden && !c.NotExportable
}

// Spans returns the row and column span, each at least 1.
func (c *Column) Spans() (rowSpan, colSpan int) {
	rowSpan, colSpan = c.Rowspan, c.Colspan
	if rowSpan < 1 {
		rowSpan = 1
	}
	if colSpan < 1 {
		colSpan = 1
	}
	return rowSpan, colSpan
}

func (c *Column) facet(kind facetKind) Component {
	if kind == footerFacet {
		return c.Footer
	}
	return c.Header
}

func (c *Column) text(kind facetKind) string {
	if kind == footerFacet {
		return c.FooterText
	}
	return c.HeaderText
}

func (c *Column) String() string {
	return fmt.Sprintf("HeaderText: %q, Rowspan: %d, Colspan: %d, Hidden: %t, NotExportable: %t", c.HeaderText, c.Rowspan, c.Colspan, c.Hidden, c.NotExportable)
}

// ColumnGroup holds the rows of a grouped header or footer.
type ColumnGroup struct {
	Rows [][]*Column
}

type facetKind int

const (
	headerFacet facetKind = iota
	footerFacet
)

func (k facetKind) String() string {
	if k == footerFacet {
		return "footer"
	}
	return "header"
}

// Node is a top level export target or a row expansion child.
type Node interface {
	node()
}

// Table is a data table.
type Table struct {
	ID          string
	Hidden      bool
	Header      Component
	Footer      Component
	HeaderGroup *ColumnGroup
	FooterGroup *ColumnGroup
	Columns     []*Column
	Data        DataModel

	First int // first row of the current page
	Rows  int // page size, 0 means everything

	// Selection is exported in order for selection-only exports.
	Selection []any

	// Expansion returns the nested tables and lists shown under a row.
	Expansion func(row any) []Node

	// SubTable returns the grouped table rendered for an outer row.
	SubTable func(row any) *SubTable
}

func (*Table) node() {}

func (t *Table) String() string {
	return fmt.Sprintf("Table(ID: %s, Columns: %d, First: %d, Rows: %d)", t.ID, len(t.Columns), t.First, t.Rows)
}

// SubTable is the per-row group of a table exported in sub-table mode.
type SubTable struct {
	Header      Component
	Footer      Component
	HeaderGroup *ColumnGroup
	FooterGroup *ColumnGroup
	Columns     []*Column
	Data        DataModel
}

// List is a data list.
type List struct {
	ID     string
	Hidden bool
	Header Component
	Items  []Component
	Data   DataModel
	First  int
	Rows   int
}

func (*List) node() {}

func (l *List) String() string {
	return fmt.Sprintf("List(ID: %s, Items: %d, First: %d, Rows: %d)", l.ID, len(l.Items), l.First, l.Rows)
}

// ListColumn is a list item that contributes one cell per child.
type ListColumn struct {
	Children []Component
	Hidden   bool
}

func (c *ListColumn) Rendered() bool { return !c.Hidden }

func (c *ListColumn) ExportValue(row any) string {
	return (&Panel{Children: c.Children}).ExportValue(row)
}

// View resolves export target ids.
type View interface {
	Lookup(id string) (any, bool)
}

// MapView is a View backed by a map.
type MapView map[string]any

func (v MapView) Lookup(id string) (any, bool) {
	c, ok := v[id]
	return c, ok
}

// exportedCount counts the columns that produce a cell.
func exportedCount(cols []*Column) int {
	n := 0
	for _, c := range cols {
		if c.Exported() {
			n++
		}
	}
	return n
}

func hasFacet(cols []*Column, kind facetKind) bool {
	for _, c := range cols {
		if c.Exported() && c.facet(kind) != nil {
			return true
		}
	}
	return false
}
