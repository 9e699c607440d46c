package tablexport

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSliceModel(t *testing.T) {
	m := Rows([]int{4, 5})
	if m.RowCount() != 2 {
		t.Fatalf("RowCount = %d", m.RowCount())
	}
	if row, ok := m.RowData(1); !ok || row != 5 {
		t.Fatalf("RowData(1) = %v, %t", row, ok)
	}
	for _, i := range []int{-1, 2} {
		if _, ok := m.RowData(i); ok {
			t.Fatalf("RowData(%d) should be unavailable", i)
		}
	}
}

func TestSliceFetch(t *testing.T) {
	fetch := SliceFetch([]any{0, 1, 2, 3, 4})
	tests := []struct {
		first, size int
		want        []any
	}{
		{0, 2, []any{0, 1}},
		{4, 2, []any{4}},
		{1, 0, []any{1, 2, 3, 4}},
		{5, 2, []any{}},
	}
	for _, tt := range tests {
		got, err := fetch(context.Background(), tt.first, tt.size)
		if err != nil {
			t.Fatalf("fetch(%d, %d) failed: %v", tt.first, tt.size, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("fetch(%d, %d) mismatch (-want +got):\n%s", tt.first, tt.size, diff)
		}
	}
}

func TestLazyModelWindow(t *testing.T) {
	m := &LazyModel{Count: 5, Fetch: SliceFetch([]any{"a", "b", "c", "d", "e"})}
	if _, ok := m.RowData(0); ok {
		t.Fatalf("nothing is loaded yet")
	}
	if err := m.Load(context.Background(), 2, 2); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if row, ok := m.RowData(3); !ok || row != "d" {
		t.Fatalf("RowData(3) = %v, %t", row, ok)
	}
	for _, i := range []int{1, 4} {
		if _, ok := m.RowData(i); ok {
			t.Fatalf("RowData(%d) is outside the window", i)
		}
	}
	m.ClearCache()
	if _, ok := m.RowData(3); ok {
		t.Fatalf("cleared cache still returns rows")
	}
	if first, size := m.Window(); first != 2 || size != 0 {
		t.Fatalf("Window = %d, %d", first, size)
	}
}

func TestLazyModelLoadError(t *testing.T) {
	boom := errors.New("boom")
	m := &LazyModel{Count: 1, Fetch: func(context.Context, int, int) ([]any, error) { return nil, boom }}
	table := &Table{ID: "t", Columns: []*Column{{ExportFunc: func(any) string { return "" }}}, Data: m}
	_, err := New().Export(context.Background(), NewGrid(), MapView{"t": table}, Request{Target: "t"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if m.Loads() != 0 {
		t.Fatalf("failed loads are not counted, got %d", m.Loads())
	}
}
