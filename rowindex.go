package shortlog

import "strings"

// RowIndex is the normalized, searchable form of a row set: the string form
// of every cell and its lower-cased variant, built once per row set.
type RowIndex struct {
	rows    []Row
	columns []string
	pos     map[string]int
	cells   [][]string // cells[row][column]
	lower   [][]string
}

// NewRowIndex indexes rows over the union of their keys.
func NewRowIndex(rows []Row) *RowIndex {
	cols := DeriveColumns(rows)
	idx := &RowIndex{
		rows:    rows,
		columns: cols,
		pos:     make(map[string]int, len(cols)),
		cells:   make([][]string, len(rows)),
		lower:   make([][]string, len(rows)),
	}
	for i, c := range cols {
		idx.pos[c] = i
	}
	for i, r := range rows {
		cells := make([]string, len(cols))
		lower := make([]string, len(cols))
		for _, k := range r.keys {
			s := CellString(r.values[k])
			p := idx.pos[k]
			cells[p] = s
			lower[p] = strings.ToLower(s)
		}
		idx.cells[i] = cells
		idx.lower[i] = lower
	}
	return idx
}

// Len returns the number of indexed rows.
func (idx *RowIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.rows)
}

// Rows returns the indexed rows.
func (idx *RowIndex) Rows() []Row {
	if idx == nil {
		return nil
	}
	return idx.rows
}

// Columns returns the keys observed across the row set, first-seen order.
func (idx *RowIndex) Columns() []string {
	if idx == nil {
		return nil
	}
	return idx.columns
}

// Value returns the string form of row i's cell in col, "" when absent.
func (idx *RowIndex) Value(i int, col string) string {
	p, ok := idx.lookup(i, col)
	if !ok {
		return ""
	}
	return idx.cells[i][p]
}

// Lower returns the lower-cased string form of row i's cell in col.
func (idx *RowIndex) Lower(i int, col string) string {
	p, ok := idx.lookup(i, col)
	if !ok {
		return ""
	}
	return idx.lower[i][p]
}

func (idx *RowIndex) lookup(i int, col string) (int, bool) {
	if idx == nil || i < 0 || i >= len(idx.rows) {
		return 0, false
	}
	p, ok := idx.pos[col]
	return p, ok
}

// sameRows reports whether a and b are the same slice (same backing array
// and length). a fresh host snapshot always compares unequal.
func sameRows(a, b []Row) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return a != nil && b != nil
	}
	return &a[0] == &b[0]
}
