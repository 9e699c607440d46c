// Package document describes exportable tables and lists in YAML and builds
// the tablexport view from them.
package document

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aerissecure/tablexport"
)

var ErrInvalid = errors.New("invalid document")

// Document is a set of top level tables and lists, addressed by id.
type Document struct {
	Tables []TableDef `yaml:"tables"`
	Lists  []ListDef  `yaml:"lists"`
}

// ColumnDef describes a column, or a cell of a column group row.
type ColumnDef struct {
	HeaderText string `yaml:"headerText"`
	FooterText string `yaml:"footerText"`
	Header     string `yaml:"header"` // header facet
	Footer     string `yaml:"footer"` // footer facet
	Field      string `yaml:"field"`
	Text       string `yaml:"text"`
	Style      string `yaml:"style"`
	Rowspan    int    `yaml:"rowspan"`
	Colspan    int    `yaml:"colspan"`
	Hidden     bool   `yaml:"hidden"`
	Exportable *bool  `yaml:"exportable"`
}

// TableDef describes a data table.
type TableDef struct {
	ID          string           `yaml:"id"`
	Hidden      bool             `yaml:"hidden"`
	Header      string           `yaml:"header"`
	Footer      string           `yaml:"footer"`
	HeaderGroup [][]ColumnDef    `yaml:"headerGroup"`
	FooterGroup [][]ColumnDef    `yaml:"footerGroup"`
	Columns     []ColumnDef      `yaml:"columns"`
	Data        []map[string]any `yaml:"data"`
	First       int              `yaml:"first"`
	PageSize    int              `yaml:"pageSize"`
	Lazy        bool             `yaml:"lazy"`
	Selection   []int            `yaml:"selection"`
	Expansion   []ExpansionDef   `yaml:"expansion"`
	SubTable    *SubTableDef     `yaml:"subTable"`
}

// ExpansionDef nests a table or a list under every row. Its rows are read
// from the row field named Field.
type ExpansionDef struct {
	Field string    `yaml:"field"`
	Table *TableDef `yaml:"table"`
	List  *ListDef  `yaml:"list"`
}

// SubTableDef groups the rows held in Field of every outer row.
type SubTableDef struct {
	Field       string        `yaml:"field"`
	Header      string        `yaml:"header"`
	HeaderField string        `yaml:"headerField"` // outer row field used as header
	Footer      string        `yaml:"footer"`
	FooterField string        `yaml:"footerField"`
	HeaderGroup [][]ColumnDef `yaml:"headerGroup"`
	FooterGroup [][]ColumnDef `yaml:"footerGroup"`
	Columns     []ColumnDef   `yaml:"columns"`
}

// ListDef describes a data list. Each item is a field, a static text or a
// column of several of them.
type ListDef struct {
	ID       string           `yaml:"id"`
	Hidden   bool             `yaml:"hidden"`
	Header   string           `yaml:"header"`
	Items    []ItemDef        `yaml:"items"`
	Data     []map[string]any `yaml:"data"`
	First    int              `yaml:"first"`
	PageSize int              `yaml:"pageSize"`
	Lazy     bool             `yaml:"lazy"`
}

type ItemDef struct {
	Field  string    `yaml:"field"`
	Text   string    `yaml:"text"`
	Hidden bool      `yaml:"hidden"`
	Column []ItemDef `yaml:"column"`
}

// Load reads a document file.
func Load(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML document.
func Parse(b []byte) (Document, error) {
	var d Document
	if err := yaml.Unmarshal(b, &d); err != nil {
		return d, fmt.Errorf("decode document: %w", err)
	}
	return d, nil
}

// View builds the component tree of every top level table and list.
func (d Document) View() (tablexport.MapView, error) {
	v := make(tablexport.MapView)
	add := func(id string, n tablexport.Node) error {
		if id == "" {
			return fmt.Errorf("top level element without id: %w", ErrInvalid)
		}
		if _, dup := v[id]; dup {
			return fmt.Errorf("duplicate id %q: %w", id, ErrInvalid)
		}
		v[id] = n
		return nil
	}
	for i := range d.Tables {
		if err := d.Tables[i].validate(); err != nil {
			return nil, err
		}
		t, err := d.Tables[i].build(d.Tables[i].Data, true)
		if err != nil {
			return nil, err
		}
		if err := add(d.Tables[i].ID, t); err != nil {
			return nil, err
		}
	}
	for i := range d.Lists {
		if err := add(d.Lists[i].ID, d.Lists[i].build(d.Lists[i].Data)); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (td *TableDef) validate() error {
	for _, ex := range td.Expansion {
		if (ex.Table == nil) == (ex.List == nil) {
			return fmt.Errorf("table %q: expansion on %q needs exactly one of table or list: %w", td.ID, ex.Field, ErrInvalid)
		}
		if ex.Table != nil {
			if err := ex.Table.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// build creates the table over data. Selection indices only apply to top
// level tables.
func (td *TableDef) build(data []map[string]any, top bool) (*tablexport.Table, error) {
	t := &tablexport.Table{
		ID:          td.ID,
		Hidden:      td.Hidden,
		Header:      facet(td.Header),
		Footer:      facet(td.Footer),
		HeaderGroup: group(td.HeaderGroup),
		FooterGroup: group(td.FooterGroup),
		Columns:     columns(td.Columns),
		Data:        model(data, td.Lazy),
		First:       td.First,
		Rows:        td.PageSize,
	}
	if top {
		for _, idx := range td.Selection {
			if idx < 0 || idx >= len(data) {
				return nil, fmt.Errorf("table %q: selection index %d out of range: %w", td.ID, idx, ErrInvalid)
			}
			t.Selection = append(t.Selection, data[idx])
		}
	}
	if len(td.Expansion) > 0 {
		defs := td.Expansion
		t.Expansion = func(row any) []tablexport.Node {
			var nodes []tablexport.Node
			for _, ex := range defs {
				rows := nested(row, ex.Field)
				if ex.List != nil {
					nodes = append(nodes, ex.List.build(rows))
					continue
				}
				if child, err := ex.Table.build(rows, false); err == nil {
					nodes = append(nodes, child)
				}
			}
			return nodes
		}
	}
	if st := td.SubTable; st != nil {
		t.SubTable = func(row any) *tablexport.SubTable {
			return st.build(row)
		}
	}
	return t, nil
}

func (sd *SubTableDef) build(outer any) *tablexport.SubTable {
	st := &tablexport.SubTable{
		Header:      facet(sd.Header),
		Footer:      facet(sd.Footer),
		HeaderGroup: group(sd.HeaderGroup),
		FooterGroup: group(sd.FooterGroup),
		Columns:     columns(sd.Columns),
		Data:        model(nested(outer, sd.Field), false),
	}
	if sd.HeaderField != "" {
		st.Header = &tablexport.Text{Value: Field(outer, sd.HeaderField)}
	}
	if sd.FooterField != "" {
		st.Footer = &tablexport.Text{Value: Field(outer, sd.FooterField)}
	}
	return st
}

func (ld *ListDef) build(data []map[string]any) *tablexport.List {
	l := &tablexport.List{
		ID:     ld.ID,
		Hidden: ld.Hidden,
		Header: facet(ld.Header),
		Data:   model(data, ld.Lazy),
		First:  ld.First,
		Rows:   ld.PageSize,
	}
	for _, it := range ld.Items {
		if len(it.Column) > 0 {
			lc := &tablexport.ListColumn{Hidden: it.Hidden}
			for _, child := range it.Column {
				lc.Children = append(lc.Children, item(child))
			}
			l.Items = append(l.Items, lc)
			continue
		}
		l.Items = append(l.Items, item(it))
	}
	return l
}

func item(it ItemDef) tablexport.Component {
	return &tablexport.Text{Value: it.Text, Func: fieldFunc(it.Field), Hidden: it.Hidden}
}

func columns(defs []ColumnDef) []*tablexport.Column {
	cols := make([]*tablexport.Column, 0, len(defs))
	for _, cd := range defs {
		c := &tablexport.Column{
			HeaderText:    cd.HeaderText,
			FooterText:    cd.FooterText,
			Header:        facet(cd.Header),
			Footer:        facet(cd.Footer),
			Rowspan:       cd.Rowspan,
			Colspan:       cd.Colspan,
			Hidden:        cd.Hidden,
			NotExportable: cd.Exportable != nil && !*cd.Exportable,
		}
		if cd.Field != "" || cd.Text != "" {
			c.Children = []tablexport.Component{
				&tablexport.Text{Value: cd.Text, Func: fieldFunc(cd.Field), Style: cd.Style},
			}
		}
		cols = append(cols, c)
	}
	return cols
}

func group(rows [][]ColumnDef) *tablexport.ColumnGroup {
	if len(rows) == 0 {
		return nil
	}
	g := &tablexport.ColumnGroup{}
	for _, r := range rows {
		g.Rows = append(g.Rows, columns(r))
	}
	return g
}

func facet(text string) tablexport.Component {
	if text == "" {
		return nil
	}
	return &tablexport.Text{Value: text}
}

func model(data []map[string]any, lazy bool) tablexport.DataModel {
	rows := make([]any, len(data))
	for i, d := range data {
		rows[i] = d
	}
	if lazy {
		return &tablexport.LazyModel{Count: len(rows), Fetch: tablexport.SliceFetch(rows)}
	}
	return tablexport.SliceModel(rows)
}

func fieldFunc(name string) func(row any) string {
	if name == "" {
		return nil
	}
	return func(row any) string { return Field(row, name) }
}

// Field formats the named field of a row. Missing fields are empty.
func Field(row any, name string) string {
	m, ok := row.(map[string]any)
	if !ok {
		return ""
	}
	v, ok := m[name]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// nested returns the rows held in the named field of row.
func nested(row any, name string) []map[string]any {
	m, ok := row.(map[string]any)
	if !ok {
		return nil
	}
	items, ok := m[name].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if r, ok := it.(map[string]any); ok {
			out = append(out, r)
		}
	}
	return out
}
