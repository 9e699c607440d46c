package tablexport

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Hook runs against the sink before or after the targets are exported.
type Hook func(ctx context.Context, s Sink) error

// Request describes one export.
type Request struct {
	// Target holds one or more view ids separated by commas or whitespace.
	Target string
	// Title is written above the data when a single target is exported.
	Title         string
	PageOnly      bool
	SelectionOnly bool
	// SubTable exports each row of a table as a grouped sub-table.
	SubTable bool
	// Format supplies the dataset padding and page orientation; nil means
	// DefaultFormat.
	Format      *Format
	PreProcess  Hook
	PostProcess Hook
}

// Result summarizes an export.
type Result struct {
	Targets    []string
	Rows       int
	MaxColumns int
	Regions    []Region
}

// Exporter walks tables and lists and writes their visible cells to a Sink.
// An Exporter holds no per-export state and may be shared. Exports that run
// at the same time must not share a LazyDataModel: an export moves the loaded
// window of every lazy model it reads.
type Exporter struct {
	log *zap.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.log = l
		}
	}
}

// New returns an Exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{log: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SplitTargets turns "a, b c" into [a b c].
func SplitTargets(target string) []string {
	return strings.Fields(strings.ReplaceAll(target, ",", " "))
}

// Export writes the targets of req, resolved through view, to sink.
func (e *Exporter) Export(ctx context.Context, sink Sink, view View, req Request) (Result, error) {
	ids := SplitTargets(req.Target)
	if len(ids) == 0 {
		return Result{}, ErrEmptyTarget
	}
	format := DefaultFormat()
	if req.Format != nil {
		f, err := req.Format.Normalize()
		if err != nil {
			return Result{}, err
		}
		format = f
	}

	// Resolve everything up front so a bad id fails before anything is written.
	targets := make([]Node, 0, len(ids))
	for _, id := range ids {
		c, ok := view.Lookup(id)
		if !ok || c == nil {
			return Result{}, fmt.Errorf("cannot find component %q: %w", id, ErrComponentNotFound)
		}
		n, ok := c.(Node)
		if !ok {
			return Result{}, fmt.Errorf("target %q is %T: %w", id, c, ErrUnsupportedTarget)
		}
		if nilNode(n) {
			return Result{}, fmt.Errorf("cannot find component %q: %w", id, ErrComponentNotFound)
		}
		if t, ok := n.(*Table); ok && req.SubTable && t.SubTable == nil {
			return Result{}, fmt.Errorf("target %q: %w", id, ErrNoSubTable)
		}
		targets = append(targets, n)
	}

	r := &run{ctx: ctx, sink: sink, log: e.log}
	if req.PreProcess != nil {
		if err := req.PreProcess(ctx, sink); err != nil {
			return Result{}, fmt.Errorf("pre-process: %w", err)
		}
	}

	var res Result
	for i, n := range targets {
		id := ids[i]
		if hidden(n) {
			e.log.Debug("skipping hidden target", zap.String("id", id))
			continue
		}
		if req.Title != "" && !strings.Contains(req.Target, ",") {
			r.title(req.Title)
		}
		e.log.Debug("exporting target", zap.String("id", id), zap.Stringer("node", n.(fmt.Stringer)))

		var err error
		switch n := n.(type) {
		case *List:
			err = r.list(n, req.PageOnly)
		case *Table:
			if req.SubTable {
				err = r.groupedTable(n)
			} else {
				err = r.table(n, req)
			}
		}
		if err != nil {
			return Result{}, fmt.Errorf("export %q: %w", id, err)
		}
		if format.DatasetPadding > 0 {
			sink.CreateRow(sink.LastRow() + format.DatasetPadding)
		}
		res.Targets = append(res.Targets, id)
	}

	if req.PostProcess != nil {
		if err := req.PostProcess(ctx, sink); err != nil {
			return Result{}, fmt.Errorf("post-process: %w", err)
		}
	}
	if !req.SubTable {
		sink.AutoSize(r.maxColumns)
	}
	sink.PageSetup(format.Orientation)

	res.Rows = sink.LastRow() + 1
	res.MaxColumns = r.maxColumns
	res.Regions = r.regions
	return res, nil
}

// nilNode reports a typed nil *Table or *List.
func nilNode(n Node) bool {
	switch n := n.(type) {
	case *Table:
		return n == nil
	case *List:
		return n == nil
	}
	return false
}

func hidden(n Node) bool {
	switch n := n.(type) {
	case *Table:
		return n.Hidden
	case *List:
		return n.Hidden
	}
	return false
}

// run is the state of a single export.
type run struct {
	ctx        context.Context
	sink       Sink
	log        *zap.Logger
	regions    []Region
	maxColumns int
}

func (r *run) nextRow() int { return r.sink.LastRow() + 1 }

func (r *run) merge(reg Region) {
	if reg.Single() {
		return
	}
	r.regions = append(r.regions, reg)
	r.sink.Merge(reg)
}

// freeColumn moves col right past every declared region covering (row, col).
func (r *run) freeColumn(row, col int) int {
	for moved := true; moved; {
		moved = false
		for _, reg := range r.regions {
			if reg.Contains(row, col) {
				col = reg.LastCol + 1
				moved = true
			}
		}
	}
	return col
}

func (r *run) title(text string) {
	row := r.nextRow()
	r.sink.SetCell(row, 0, text, StyleTitle)
	r.sink.CreateRow(row + 3)
}

// facet writes a header or footer facet on its own row, merged over span
// columns.
func (r *run) facet(c Component, span int) {
	if c == nil || !c.Rendered() {
		return
	}
	row := r.nextRow()
	r.sink.SetCell(row, 0, c.ExportValue(nil), StyleFacet)
	if span > 1 {
		r.merge(Region{FirstRow: row, LastRow: row, FirstCol: 0, LastCol: span - 1})
	}
}

// columnGroup writes the rows of a grouped header or footer, merging the
// cells of spanning columns.
func (r *run) columnGroup(g *ColumnGroup, kind facetKind) {
	if g == nil {
		return
	}
	for _, cols := range g.Rows {
		row := r.nextRow()
		r.sink.CreateRow(row)
		col := 0
		for _, c := range cols {
			if !c.Exported() {
				continue
			}
			rowSpan, colSpan := c.Spans()
			col = r.freeColumn(row, col)
			r.sink.SetCell(row, col, c.text(kind), StyleFacetCenter)
			r.merge(Region{FirstRow: row, LastRow: row + rowSpan - 1, FirstCol: col, LastCol: col + colSpan - 1})
			col += colSpan
		}
	}
}

// columnFacets writes one row with the header or footer facet of every
// exported column. Nothing is written when no column has such a facet.
func (r *run) columnFacets(cols []*Column, kind facetKind) {
	if !hasFacet(cols, kind) {
		return
	}
	row := r.nextRow()
	r.sink.CreateRow(row)
	i := 0
	for _, c := range cols {
		if !c.Exported() {
			continue
		}
		f := c.facet(kind)
		if f == nil {
			r.sink.SetCell(row, i, "", StyleFacet)
		} else {
			r.sink.SetCell(row, i, f.ExportValue(nil), facetStyleFor(alignmentOf(f)))
		}
		i++
	}
}

func alignmentOf(c Component) Alignment {
	if a, ok := c.(Aligner); ok {
		return a.Alignment()
	}
	return AlignNone
}

// columnValue is the exported text of a column for row, and the style its
// children ask for.
func columnValue(c *Column, row any) (string, CellStyle) {
	if c.ExportFunc != nil {
		return c.ExportFunc(row), StyleCell
	}
	var b strings.Builder
	align := AlignNone
	for _, child := range c.Children {
		if child == nil {
			continue
		}
		if child.Rendered() {
			b.WriteString(child.ExportValue(row))
		}
		if a := alignmentOf(child); a != AlignNone {
			align = a
		}
	}
	return b.String(), cellStyleFor(align)
}

// cells writes one data row.
func (r *run) cells(cols []*Column, row any) {
	sheetRow := r.nextRow()
	r.sink.CreateRow(sheetRow)
	i := 0
	for _, c := range cols {
		if !c.Exported() {
			continue
		}
		v, st := columnValue(c, row)
		r.sink.SetCell(sheetRow, i, v, st)
		i++
	}
}

func (r *run) table(t *Table, req Request) error {
	count := exportedCount(t.Columns)
	r.facet(t.Header, count)
	r.columnGroup(t.HeaderGroup, headerFacet)
	r.columnFacets(t.Columns, headerFacet)

	var err error
	switch {
	case req.PageOnly:
		err = r.tablePage(t)
	case req.SelectionOnly:
		for _, sel := range t.Selection {
			if err = r.ctx.Err(); err != nil {
				break
			}
			if err = r.tableRow(t, sel); err != nil {
				break
			}
		}
	default:
		err = r.tableAll(t)
	}
	if err != nil {
		return err
	}

	r.columnFacets(t.Columns, footerFacet)
	r.columnGroup(t.FooterGroup, footerFacet)
	if count > r.maxColumns {
		r.maxColumns = count
	}
	return nil
}

func (r *run) tablePage(t *Table) error {
	size := t.Rows
	if size <= 0 {
		size = rowCount(t.Data)
	}
	if err := r.loadPage(t.ID, t.Data, t.First, size); err != nil {
		return err
	}
	for i := t.First; i < t.First+size; i++ {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		row, ok := rowAt(t.Data, i)
		if !ok {
			r.log.Debug("row not available", zap.String("table", t.ID), zap.Int("index", i))
			continue
		}
		if err := r.tableRow(t, row); err != nil {
			return err
		}
	}
	return nil
}

// tableAll exports every row. Lazy data is loaded in one window covering all
// rows, then the current page is loaded again.
func (r *run) tableAll(t *Table) error {
	return r.allRows(t.ID, t.Data, t.First, t.Rows, func(row any) error {
		return r.tableRow(t, row)
	})
}

// tableRow writes the cells of row and then its expansion: lists first, then
// tables with at least one exported column.
func (r *run) tableRow(t *Table, row any) error {
	r.cells(t.Columns, row)
	if t.Expansion == nil {
		return nil
	}
	nodes := t.Expansion(row)
	for _, n := range nodes {
		if l, ok := n.(*List); ok && !l.Hidden {
			if err := r.list(l, false); err != nil {
				return err
			}
		}
	}
	for _, n := range nodes {
		child, ok := n.(*Table)
		if !ok || child.Hidden {
			continue
		}
		count := exportedCount(child.Columns)
		if count == 0 {
			continue
		}
		r.facet(child.Header, count)
		r.columnGroup(child.HeaderGroup, headerFacet)
		r.columnFacets(child.Columns, headerFacet)
		if err := r.tableAll(child); err != nil {
			return fmt.Errorf("expansion %q: %w", child.ID, err)
		}
		r.columnFacets(child.Columns, footerFacet)
		r.columnGroup(child.FooterGroup, footerFacet)
	}
	return nil
}

// groupedTable exports t in sub-table mode: every outer row becomes a block
// with the sub-table's facets, groups and rows.
func (r *run) groupedTable(t *Table) error {
	r.columnFacets(t.Columns, headerFacet)

	// the first sub-table decides the span, so lazy rows must be loaded first
	if err := r.loadAll(t.ID, t.Data); err != nil {
		return err
	}
	span := 0
	n := rowCount(t.Data)
	for i := 0; i < n; i++ {
		if row, ok := rowAt(t.Data, i); ok {
			if st := t.SubTable(row); st != nil {
				span = exportedCount(st.Columns)
				break
			}
		}
	}

	r.facet(t.Header, span)
	r.columnGroup(t.HeaderGroup, headerFacet)

	err := r.allRows(t.ID, t.Data, t.First, t.Rows, func(row any) error {
		st := t.SubTable(row)
		if st == nil {
			return nil
		}
		r.facet(st.Header, span)
		r.columnGroup(st.HeaderGroup, headerFacet)
		r.columnFacets(st.Columns, headerFacet)
		err := r.allRows(t.ID, st.Data, 0, 0, func(sub any) error {
			r.cells(st.Columns, sub)
			return nil
		})
		if err != nil {
			return err
		}
		r.columnFacets(st.Columns, footerFacet)
		r.columnGroup(st.FooterGroup, footerFacet)
		r.facet(st.Footer, span)
		return nil
	})
	if err != nil {
		return err
	}

	r.columnGroup(t.FooterGroup, footerFacet)
	if hasFacet(t.Columns, footerFacet) {
		r.facet(t.Footer, span)
	}
	return nil
}

func (r *run) list(l *List, pageOnly bool) error {
	if l.Header != nil && l.Header.Rendered() {
		row := r.nextRow()
		r.sink.SetCell(row, 0, l.Header.ExportValue(nil), StyleFacet)
		r.merge(Region{FirstRow: row, LastRow: row, FirstCol: 0, LastCol: 1})
	}
	if pageOnly {
		size := l.Rows
		if size <= 0 {
			size = rowCount(l.Data)
		}
		if err := r.loadPage(l.ID, l.Data, l.First, size); err != nil {
			return err
		}
		for i := l.First; i < l.First+size; i++ {
			if err := r.ctx.Err(); err != nil {
				return err
			}
			if row, ok := rowAt(l.Data, i); ok {
				r.listRow(l, row)
			}
		}
		return nil
	}
	return r.pagedRows(l.ID, l.Data, l.First, l.Rows, func(row any) error {
		r.listRow(l, row)
		return nil
	})
}

// listRow writes one cell per item, or per child of a ListColumn. Items that
// are not rendered keep their cell empty.
func (r *run) listRow(l *List, row any) {
	sheetRow := r.nextRow()
	r.sink.CreateRow(sheetRow)
	col := 0
	for _, it := range l.Items {
		if it == nil {
			continue
		}
		if lc, ok := it.(*ListColumn); ok {
			for _, child := range lc.Children {
				if lc.Rendered() && child != nil {
					r.sink.SetCell(sheetRow, col, child.ExportValue(row), StyleCell)
				}
				col++
			}
			continue
		}
		if it.Rendered() {
			r.sink.SetCell(sheetRow, col, it.ExportValue(row), StyleCell)
		}
		col++
	}
}

func rowAt(d DataModel, i int) (any, bool) {
	if d == nil {
		return nil, false
	}
	return d.RowData(i)
}

// allRows calls fn for every available row of d. A lazy model is loaded with
// a single window over all rows and restored to [first, first+pageSize)
// afterwards.
func (r *run) allRows(id string, d DataModel, first, pageSize int, fn func(row any) error) error {
	n := rowCount(d)
	lazy, isLazy := d.(LazyDataModel)
	if err := r.loadAll(id, d); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		row, ok := d.RowData(i)
		if !ok {
			r.log.Debug("row not available", zap.String("id", id), zap.Int("index", i))
			continue
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if isLazy {
		return r.restore(id, lazy, first, pageSize, n)
	}
	return nil
}

// loadAll loads every row of a lazy model in a single window.
func (r *run) loadAll(id string, d DataModel) error {
	lazy, ok := d.(LazyDataModel)
	n := rowCount(d)
	if !ok || n == 0 {
		return nil
	}
	r.log.Debug("loading all lazy rows", zap.String("id", id), zap.Int("count", n))
	lazy.ClearCache()
	if err := lazy.Load(r.ctx, 0, n); err != nil {
		return fmt.Errorf("load rows: %w", err)
	}
	return nil
}

// loadPage loads [first, first+size) of a lazy model.
func (r *run) loadPage(id string, d DataModel, first, size int) error {
	lazy, ok := d.(LazyDataModel)
	if !ok || size <= 0 {
		return nil
	}
	r.log.Debug("loading lazy page", zap.String("id", id), zap.Int("first", first), zap.Int("size", size))
	if err := lazy.Load(r.ctx, first, size); err != nil {
		return fmt.Errorf("load rows: %w", err)
	}
	return nil
}

// pagedRows calls fn for every available row of d, loading a lazy model one
// page at a time.
func (r *run) pagedRows(id string, d DataModel, first, pageSize int, fn func(row any) error) error {
	n := rowCount(d)
	lazy, isLazy := d.(LazyDataModel)
	size := pageSize
	if size <= 0 {
		size = n
	}
	for i := 0; i < n; i++ {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		if isLazy && i%size == 0 {
			r.log.Debug("loading lazy page", zap.String("id", id), zap.Int("first", i), zap.Int("size", size))
			if err := lazy.Load(r.ctx, i, size); err != nil {
				return fmt.Errorf("load rows: %w", err)
			}
		}
		row, ok := d.RowData(i)
		if !ok {
			continue
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if isLazy {
		return r.restore(id, lazy, first, pageSize, n)
	}
	return nil
}

func (r *run) restore(id string, lazy LazyDataModel, first, pageSize, n int) error {
	if pageSize <= 0 {
		pageSize = n
	}
	lazy.ClearCache()
	if err := lazy.Load(r.ctx, first, pageSize); err != nil {
		return fmt.Errorf("restore page of %q: %w", id, err)
	}
	return nil
}
