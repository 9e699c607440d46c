package tablexport

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func field(name string) func(row any) string {
	return func(row any) string {
		m, _ := row.(map[string]string)
		return m[name]
	}
}

func textColumn(header, name string) *Column {
	return &Column{
		Header:   &Text{Value: header},
		Children: []Component{&Text{Func: field(name)}},
	}
}

func people() SliceModel {
	return Rows([]map[string]string{
		{"name": "Ada", "age": "36"},
		{"name": "Alan", "age": "41"},
	})
}

func export(t *testing.T, view View, req Request) (*Grid, Result) {
	t.Helper()
	g := NewGrid()
	res, err := New().Export(context.Background(), g, view, req)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	return g, res
}

func TestExportTable(t *testing.T) {
	table := &Table{
		ID:     "people",
		Header: &Text{Value: "People"},
		Columns: []*Column{
			textColumn("Name", "name"),
			textColumn("Age", "age"),
			{Header: &Text{Value: "Secret"}, Hidden: true},
			{Header: &Text{Value: "Actions"}, NotExportable: true},
		},
		Data: people(),
	}
	g, res := export(t, MapView{"people": table}, Request{Target: "people", Title: "Report"})

	want := [][]string{
		{"Report", ""},
		{"", ""},
		{"", ""},
		{"", ""},
		{"People", ""},
		{"Name", "Age"},
		{"Ada", "36"},
		{"Alan", "41"},
		{"", ""},
	}
	if diff := cmp.Diff(want, g.Rows()); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	wantRegions := []Region{{FirstRow: 4, LastRow: 4, FirstCol: 0, LastCol: 1}}
	if diff := cmp.Diff(wantRegions, g.Regions); diff != "" {
		t.Fatalf("regions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantRegions, res.Regions); diff != "" {
		t.Fatalf("result regions mismatch (-want +got):\n%s", diff)
	}
	if res.Rows != 9 || res.MaxColumns != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if g.AutoSized != 2 {
		t.Fatalf("expected 2 autosized columns, got %d", g.AutoSized)
	}
	if g.Orientation != Landscape {
		t.Fatalf("expected landscape, got %q", g.Orientation)
	}

	if c, _ := g.Cell(0, 0); c.Style != StyleTitle {
		t.Fatalf("title style = %v", c.Style)
	}
	if c, _ := g.Cell(5, 1); c.Style != StyleFacet {
		t.Fatalf("column header style = %v", c.Style)
	}
	if c, _ := g.Cell(6, 0); c.Style != StyleCell {
		t.Fatalf("data style = %v", c.Style)
	}
}

func TestExportAlignment(t *testing.T) {
	table := &Table{
		ID: "t",
		Columns: []*Column{{
			Header:   &Text{Value: "Amount", Style: "text-align:right"},
			Children: []Component{&Text{Value: "12", Style: "text-align: center"}},
		}},
		Data: SliceModel{struct{}{}},
	}
	g, _ := export(t, MapView{"t": table}, Request{Target: "t"})
	if c, _ := g.Cell(0, 0); c.Style != StyleFacetRight {
		t.Fatalf("header style = %v", c.Style)
	}
	if c, _ := g.Cell(1, 0); c.Style != StyleCellCenter || c.Value != "12" {
		t.Fatalf("data cell = %+v", c)
	}
}

func TestExportColumnGroup(t *testing.T) {
	table := &Table{
		ID: "t",
		HeaderGroup: &ColumnGroup{Rows: [][]*Column{
			{
				{HeaderText: "A", Colspan: 2},
				{HeaderText: "B", Rowspan: 2},
				{HeaderText: "C"},
			},
			{
				{HeaderText: "A1"},
				{HeaderText: "A2"},
				{HeaderText: "hidden", Hidden: true},
				{HeaderText: "C1"},
			},
		}},
		FooterGroup: &ColumnGroup{Rows: [][]*Column{
			{{FooterText: "Total", Colspan: 3}, {FooterText: "9"}},
		}},
		Columns: []*Column{
			{ExportFunc: func(any) string { return "a1" }},
			{ExportFunc: func(any) string { return "a2" }},
			{ExportFunc: func(any) string { return "b" }},
			{ExportFunc: func(any) string { return "c" }},
		},
		Data: SliceModel{1},
	}
	g, _ := export(t, MapView{"t": table}, Request{Target: "t"})

	want := [][]string{
		{"A", "", "B", "C"},
		{"A1", "A2", "", "C1"},
		{"a1", "a2", "b", "c"},
		{"Total", "", "", "9"},
		{"", "", "", ""},
	}
	if diff := cmp.Diff(want, g.Rows()); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	wantRegions := []Region{
		{FirstRow: 0, LastRow: 0, FirstCol: 0, LastCol: 1},
		{FirstRow: 0, LastRow: 1, FirstCol: 2, LastCol: 2},
		{FirstRow: 3, LastRow: 3, FirstCol: 0, LastCol: 2},
	}
	if diff := cmp.Diff(wantRegions, g.Regions); diff != "" {
		t.Fatalf("regions mismatch (-want +got):\n%s", diff)
	}
	if c, _ := g.Cell(1, 3); c.Style != StyleFacetCenter {
		t.Fatalf("group cell style = %v", c.Style)
	}
}

func TestExportColumnFacetsKeepPosition(t *testing.T) {
	table := &Table{
		ID: "t",
		Columns: []*Column{
			{Children: []Component{&Text{Value: "x"}}},
			{Footer: &Text{Value: "sum"}, Children: []Component{&Text{Value: "y"}}},
		},
		Data: SliceModel{1},
	}
	g, _ := export(t, MapView{"t": table}, Request{Target: "t"})
	want := [][]string{
		{"x", "y"},
		{"", "sum"},
		{"", ""},
	}
	if diff := cmp.Diff(want, g.Rows()); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestExportLazyTableRestoresPage(t *testing.T) {
	items := []any{"r0", "r1", "r2", "r3", "r4"}
	lazy := &LazyModel{Count: len(items), Fetch: SliceFetch(items)}
	table := &Table{
		ID:      "t",
		Columns: []*Column{{ExportFunc: func(row any) string { return row.(string) }}},
		Data:    lazy,
		First:   2,
		Rows:    2,
	}
	g, _ := export(t, MapView{"t": table}, Request{Target: "t"})

	want := [][]string{{"r0"}, {"r1"}, {"r2"}, {"r3"}, {"r4"}, {""}}
	if diff := cmp.Diff(want, g.Rows()); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if first, size := lazy.Window(); first != 2 || size != 2 {
		t.Fatalf("page not restored: first=%d size=%d", first, size)
	}
	if lazy.Loads() != 2 {
		t.Fatalf("expected 2 loads, got %d", lazy.Loads())
	}
}

func TestExportListPaged(t *testing.T) {
	items := []any{
		map[string]string{"name": "a", "code": "1"},
		map[string]string{"name": "b", "code": "2"},
		map[string]string{"name": "c", "code": "3"},
		map[string]string{"name": "d", "code": "4"},
		map[string]string{"name": "e", "code": "5"},
	}
	lazy := &LazyModel{Count: len(items), Fetch: SliceFetch(items)}
	list := &List{
		ID:     "l",
		Header: &Text{Value: "Letters"},
		Items: []Component{
			&Text{Func: field("name")},
			&ListColumn{Children: []Component{&Text{Func: field("code")}, &Text{Value: "!"}}},
			&Text{Value: "hidden", Hidden: true},
			&Text{Value: "end"},
		},
		Data: lazy,
		Rows: 2,
	}
	g, res := export(t, MapView{"l": list}, Request{Target: "l"})

	want := [][]string{
		{"Letters", "", "", "", ""},
		{"a", "1", "!", "", "end"},
		{"b", "2", "!", "", "end"},
		{"c", "3", "!", "", "end"},
		{"d", "4", "!", "", "end"},
		{"e", "5", "!", "", "end"},
		{"", "", "", "", ""},
	}
	if diff := cmp.Diff(want, g.Rows()); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if _, ok := g.Cell(1, 3); ok {
		t.Fatalf("hidden item should leave its cell unwritten")
	}
	if diff := cmp.Diff([]Region{{FirstRow: 0, LastRow: 0, FirstCol: 0, LastCol: 1}}, res.Regions); diff != "" {
		t.Fatalf("regions mismatch (-want +got):\n%s", diff)
	}
	// three pages plus the restore
	if lazy.Loads() != 4 {
		t.Fatalf("expected 4 loads, got %d", lazy.Loads())
	}
	if first, size := lazy.Window(); first != 0 || size != 2 {
		t.Fatalf("page not restored: first=%d size=%d", first, size)
	}
}

func TestExportExpansion(t *testing.T) {
	child := &Table{
		ID:      "child",
		Columns: []*Column{{Header: &Text{Value: "Sub"}, Children: []Component{&Text{Value: "T"}}}},
		Data:    SliceModel{1},
	}
	empty := &Table{
		ID:      "empty",
		Header:  &Text{Value: "never"},
		Columns: []*Column{{Hidden: true}},
		Data:    SliceModel{1},
	}
	list := &List{ID: "list", Items: []Component{&Text{Value: "L"}}, Data: SliceModel{1}}
	table := &Table{
		ID:      "outer",
		Columns: []*Column{textColumn("Name", "name")},
		Data:    Rows([]map[string]string{{"name": "r1"}}),
		Expansion: func(row any) []Node {
			return []Node{child, empty, list}
		},
	}
	g, _ := export(t, MapView{"outer": table}, Request{Target: "outer"})

	want := [][]string{{"Name"}, {"r1"}, {"L"}, {"Sub"}, {"T"}, {""}}
	if diff := cmp.Diff(want, g.Rows()); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestExportSubTable(t *testing.T) {
	type player struct {
		name  string
		stats []any
	}
	players := Rows([]player{
		{name: "P1", stats: []any{"2020"}},
		{name: "P2", stats: []any{"2021"}},
	})
	table := &Table{
		ID:     "players",
		Header: &Text{Value: "Players"},
		Data:   players,
		SubTable: func(row any) *SubTable {
			p := row.(player)
			return &SubTable{
				Header: &Text{Value: p.name},
				Footer: &Text{Value: "Total"},
				Columns: []*Column{
					{Header: &Text{Value: "Season"}, ExportFunc: func(r any) string { return r.(string) }},
					{Header: &Text{Value: "Goals"}, ExportFunc: func(any) string { return "1" }},
				},
				Data: SliceModel(p.stats),
			}
		},
	}
	g, res := export(t, MapView{"players": table}, Request{Target: "players", SubTable: true})

	want := [][]string{
		{"Players", ""},
		{"P1", ""},
		{"Season", "Goals"},
		{"2020", "1"},
		{"Total", ""},
		{"P2", ""},
		{"Season", "Goals"},
		{"2021", "1"},
		{"Total", ""},
		{"", ""},
	}
	if diff := cmp.Diff(want, g.Rows()); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if len(res.Regions) != 5 {
		t.Fatalf("expected 5 merged facets, got %v", res.Regions)
	}
	if g.AutoSized != 0 {
		t.Fatalf("sub-table exports are not autosized, got %d", g.AutoSized)
	}
}

func TestExportSelectionAndPage(t *testing.T) {
	data := Rows([]map[string]string{
		{"name": "a"}, {"name": "b"}, {"name": "c"}, {"name": "d"}, {"name": "e"},
	})
	table := &Table{
		ID:        "t",
		Columns:   []*Column{{Children: []Component{&Text{Func: field("name")}}}},
		Data:      data,
		First:     2,
		Rows:      2,
		Selection: []any{data[4], data[0]},
	}
	view := MapView{"t": table}
	zero := Format{Orientation: Portrait}

	g, _ := export(t, view, Request{Target: "t", SelectionOnly: true, Format: &zero})
	if diff := cmp.Diff([][]string{{"e"}, {"a"}}, g.Rows()); diff != "" {
		t.Fatalf("selection rows mismatch (-want +got):\n%s", diff)
	}
	if g.Orientation != Portrait {
		t.Fatalf("expected portrait, got %q", g.Orientation)
	}

	g, _ = export(t, view, Request{Target: "t", PageOnly: true, Format: &zero})
	if diff := cmp.Diff([][]string{{"c"}, {"d"}}, g.Rows()); diff != "" {
		t.Fatalf("page rows mismatch (-want +got):\n%s", diff)
	}

	table.Rows = 0
	g, _ = export(t, view, Request{Target: "t", PageOnly: true, Format: &zero})
	if diff := cmp.Diff([][]string{{"c"}, {"d"}, {"e"}}, g.Rows()); diff != "" {
		t.Fatalf("unbounded page rows mismatch (-want +got):\n%s", diff)
	}
}

func TestExportLazyPageOnly(t *testing.T) {
	zero := Format{Orientation: Portrait}
	items := []any{"a", "b", "c", "d"}

	t.Run("table", func(t *testing.T) {
		lazy := &LazyModel{Count: len(items), Fetch: SliceFetch(items)}
		table := &Table{
			ID:      "t",
			Columns: []*Column{{ExportFunc: func(row any) string { return row.(string) }}},
			Data:    lazy,
			First:   2,
			Rows:    2,
		}
		g, _ := export(t, MapView{"t": table}, Request{Target: "t", PageOnly: true, Format: &zero})
		if diff := cmp.Diff([][]string{{"c"}, {"d"}}, g.Rows()); diff != "" {
			t.Fatalf("rows mismatch (-want +got):\n%s", diff)
		}
		if first, size := lazy.Window(); first != 2 || size != 2 || lazy.Loads() != 1 {
			t.Fatalf("unexpected window first=%d size=%d loads=%d", first, size, lazy.Loads())
		}
	})

	t.Run("list", func(t *testing.T) {
		lazy := &LazyModel{Count: len(items), Fetch: SliceFetch(items)}
		list := &List{
			ID:    "l",
			Items: []Component{&Text{Func: func(row any) string { return row.(string) }}},
			Data:  lazy,
			First: 2,
			Rows:  2,
		}
		g, _ := export(t, MapView{"l": list}, Request{Target: "l", PageOnly: true, Format: &zero})
		if diff := cmp.Diff([][]string{{"c"}, {"d"}}, g.Rows()); diff != "" {
			t.Fatalf("rows mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestExportLazySubTable(t *testing.T) {
	type player struct {
		name  string
		stats []any
	}
	players := []any{
		player{name: "P1", stats: []any{"2020", "2021"}},
		player{name: "P2", stats: []any{"2022"}},
	}
	outer := &LazyModel{Count: len(players), Fetch: SliceFetch(players)}
	table := &Table{
		ID:     "players",
		Header: &Text{Value: "Players"},
		Data:   outer,
		Rows:   1,
		SubTable: func(row any) *SubTable {
			p := row.(player)
			return &SubTable{
				Header: &Text{Value: p.name},
				Columns: []*Column{
					{Header: &Text{Value: "Season"}, ExportFunc: func(r any) string { return r.(string) }},
					{Header: &Text{Value: "Goals"}, ExportFunc: func(any) string { return "1" }},
				},
				Data: &LazyModel{Count: len(p.stats), Fetch: SliceFetch(p.stats)},
			}
		},
	}
	zero := Format{Orientation: Portrait}
	g, res := export(t, MapView{"players": table}, Request{Target: "players", SubTable: true, Format: &zero})

	want := [][]string{
		{"Players", ""},
		{"P1", ""},
		{"Season", "Goals"},
		{"2020", "1"},
		{"2021", "1"},
		{"P2", ""},
		{"Season", "Goals"},
		{"2022", "1"},
	}
	if diff := cmp.Diff(want, g.Rows()); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	header := Region{FirstRow: 0, LastRow: 0, FirstCol: 0, LastCol: 1}
	if len(res.Regions) == 0 || res.Regions[0] != header {
		t.Fatalf("outer header should span the sub-table columns: %v", res.Regions)
	}
	if first, size := outer.Window(); first != 0 || size != 1 {
		t.Fatalf("page not restored: first=%d size=%d", first, size)
	}
}

func TestExportMultipleTargets(t *testing.T) {
	a := &Table{ID: "a", Columns: []*Column{{ExportFunc: func(any) string { return "A" }}}, Data: SliceModel{1}}
	b := &List{ID: "b", Items: []Component{&Text{Value: "B"}}, Data: SliceModel{1}}
	hidden := &Table{ID: "h", Hidden: true, Columns: []*Column{{ExportFunc: func(any) string { return "H" }}}, Data: SliceModel{1}}
	view := MapView{"a": a, "b": b, "h": hidden}

	f := DefaultFormat()
	f.DatasetPadding = 2
	g, res := export(t, view, Request{Target: "a, h b", Title: "ignored", Format: &f})

	want := [][]string{{"A"}, {""}, {""}, {"B"}, {""}, {""}}
	if diff := cmp.Diff(want, g.Rows()); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, res.Targets); diff != "" {
		t.Fatalf("targets mismatch (-want +got):\n%s", diff)
	}
}

func TestExportErrors(t *testing.T) {
	view := MapView{
		"text":     "not a table",
		"table":    &Table{ID: "table", Data: SliceModel{}},
		"nilTable": (*Table)(nil),
		"nilList":  (*List)(nil),
	}
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"empty", Request{Target: " , "}, ErrEmptyTarget},
		{"missing", Request{Target: "table,nope"}, ErrComponentNotFound},
		{"nil table", Request{Target: "nilTable"}, ErrComponentNotFound},
		{"nil list", Request{Target: "nilList"}, ErrComponentNotFound},
		{"unsupported", Request{Target: "text"}, ErrUnsupportedTarget},
		{"no sub-table", Request{Target: "table", SubTable: true}, ErrNoSubTable},
		{"format", Request{Target: "table", Format: &Format{DatasetPadding: -1}}, ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid()
			_, err := New().Export(context.Background(), g, view, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if g.LastRow() != -1 {
				t.Fatalf("nothing should be written, last row %d", g.LastRow())
			}
		})
	}
}

func TestExportHooks(t *testing.T) {
	table := &Table{ID: "t", Columns: []*Column{{ExportFunc: func(any) string { return "x" }}}, Data: SliceModel{1}}
	var calls []string
	req := Request{
		Target: "t",
		PreProcess: func(_ context.Context, s Sink) error {
			calls = append(calls, "pre")
			s.SetCell(0, 0, "pre", StyleCell)
			return nil
		},
		PostProcess: func(context.Context, Sink) error {
			calls = append(calls, "post")
			return errors.New("boom")
		},
	}
	g := NewGrid()
	_, err := New().Export(context.Background(), g, MapView{"t": table}, req)
	if err == nil || err.Error() != "post-process: boom" {
		t.Fatalf("expected post-process error, got %v", err)
	}
	if diff := cmp.Diff([]string{"pre", "post"}, calls); diff != "" {
		t.Fatalf("hook calls mismatch (-want +got):\n%s", diff)
	}
	if c, _ := g.Cell(1, 0); c.Value != "x" {
		t.Fatalf("data should follow the pre-process row, got %+v", c)
	}
}

func TestExportCanceled(t *testing.T) {
	table := &Table{ID: "t", Columns: []*Column{{ExportFunc: func(any) string { return "x" }}}, Data: SliceModel{1, 2}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Export(ctx, NewGrid(), MapView{"t": table}, Request{Target: "t"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSplitTargets(t *testing.T) {
	got := SplitTargets(" a,b  c,,d ")
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, got); diff != "" {
		t.Fatalf("targets mismatch (-want +got):\n%s", diff)
	}
}
