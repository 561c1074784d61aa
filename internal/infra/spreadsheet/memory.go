package spreadsheet

import (
	"context"
	"fmt"
	"sync"
)

// MemoryWorkbook keeps tabs in process. It backs STORE_DRIVER=memory and the
// tests; failures can be injected per tab.
type MemoryWorkbook struct {
	mu     sync.Mutex
	tables map[string]*MemoryTable
}

func NewMemoryWorkbook() *MemoryWorkbook {
	return &MemoryWorkbook{tables: make(map[string]*MemoryTable)}
}

// Put replaces a tab with the given rows (header first).
func (w *MemoryWorkbook) Put(name string, rows [][]string) *MemoryTable {
	w.mu.Lock()
	defer w.mu.Unlock()
	t := &MemoryTable{name: name}
	for _, r := range rows {
		t.rows = append(t.rows, append([]string(nil), r...))
	}
	w.tables[name] = t
	return t
}

func (w *MemoryWorkbook) Table(_ context.Context, name string) (Table, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}
	return t, nil
}

func (w *MemoryWorkbook) EnsureTable(_ context.Context, name string, header []string) (Table, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.tables[name]; ok {
		return t, nil
	}
	t := &MemoryTable{name: name, rows: [][]string{append([]string(nil), header...)}}
	w.tables[name] = t
	return t, nil
}

// Tab returns the concrete tab for assertions, or nil.
func (w *MemoryWorkbook) Tab(name string) *MemoryTable {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tables[name]
}

type MemoryTable struct {
	mu   sync.Mutex
	name string
	rows [][]string

	// FailUpdate, when set, is consulted before each cell write.
	FailUpdate func(row, col int) error
	FailAppend error
	FailRead   error
	writes     int
}

func (t *MemoryTable) Name() string { return t.name }

func (t *MemoryTable) ReadAll(_ context.Context) ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailRead != nil {
		return nil, t.FailRead
	}
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (t *MemoryTable) UpdateCell(_ context.Context, row, col int, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailUpdate != nil {
		if err := t.FailUpdate(row, col); err != nil {
			return err
		}
	}
	if row < 1 || col < 0 {
		return fmt.Errorf("invalid cell %d/%d", row, col)
	}
	for len(t.rows) < row {
		t.rows = append(t.rows, nil)
	}
	r := t.rows[row-1]
	for len(r) <= col {
		r = append(r, "")
	}
	r[col] = CellString(value)
	t.rows[row-1] = r
	t.writes++
	return nil
}

func (t *MemoryTable) AppendRow(_ context.Context, values []any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailAppend != nil {
		return t.FailAppend
	}
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = CellString(v)
	}
	t.rows = append(t.rows, row)
	return nil
}

// Get returns a cell by 1-based row and 0-based column.
func (t *MemoryTable) Get(row, col int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if row < 1 || row > len(t.rows) {
		return ""
	}
	return Cell(t.rows[row-1], col)
}

// Len is the number of rows including the header.
func (t *MemoryTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// Writes counts successful UpdateCell calls.
func (t *MemoryTable) Writes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writes
}
