package tablexport

import (
	"context"
	"sync"
)

// DataModel supplies the rows of a table or list.
type DataModel interface {
	RowCount() int
	// RowData returns the row at index. ok is false when the row is not
	// available, for example a lazy row outside the loaded page.
	RowData(index int) (row any, ok bool)
}

// LazyDataModel loads its rows on demand. Only rows of the last loaded window
// are available.
type LazyDataModel interface {
	DataModel
	Load(ctx context.Context, first, pageSize int) error
	ClearCache()
}

// SliceModel is an eager DataModel over a slice.
type SliceModel []any

// Rows builds a SliceModel from any slice.
func Rows[T any](items []T) SliceModel {
	m := make(SliceModel, len(items))
	for i, it := range items {
		m[i] = it
	}
	return m
}

func (m SliceModel) RowCount() int { return len(m) }

func (m SliceModel) RowData(index int) (any, bool) {
	if index < 0 || index >= len(m) {
		return nil, false
	}
	return m[index], true
}

// FetchFunc returns up to pageSize rows starting at first.
type FetchFunc func(ctx context.Context, first, pageSize int) ([]any, error)

// LazyModel is a LazyDataModel backed by a fetch function.
type LazyModel struct {
	Count int
	Fetch FetchFunc

	mu     sync.Mutex
	first  int
	loaded []any
	loads  int
}

func (m *LazyModel) RowCount() int { return m.Count }

func (m *LazyModel) RowData(index int) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := index - m.first
	if m.loaded == nil || i < 0 || i >= len(m.loaded) {
		return nil, false
	}
	return m.loaded[i], true
}

func (m *LazyModel) Load(ctx context.Context, first, pageSize int) error {
	rows, err := m.Fetch(ctx, first, pageSize)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.first = first
	m.loaded = rows
	m.loads++
	return nil
}

func (m *LazyModel) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = nil
}

// Window reports the first index and size of the loaded rows.
func (m *LazyModel) Window() (first, size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.first, len(m.loaded)
}

// Loads reports how many times Load succeeded.
func (m *LazyModel) Loads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

// SliceFetch adapts a slice to a FetchFunc, useful for tests and static data.
func SliceFetch(items []any) FetchFunc {
	return func(_ context.Context, first, pageSize int) ([]any, error) {
		if first >= len(items) {
			return []any{}, nil
		}
		end := len(items)
		if pageSize > 0 && first+pageSize < end {
			end = first + pageSize
		}
		return items[first:end], nil
	}
}

func rowCount(d DataModel) int {
	if d == nil {
		return 0
	}
	return d.RowCount()
}
