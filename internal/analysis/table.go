package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table is an in-memory rectangular dataset. Column kinds are fixed at load
// time. The only mutations are DropMissing and DropDuplicates, each of which
// bumps Version. A Table has a single owner: readers may run concurrently
// with each other but not with a mutation.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	kinds   []Kind
	dtypes  []string
	rows    [][]Value
	version uint64
}

// Record is one row keyed by column name. Missing cells are nil.
type Record map[string]any

func newTable(name string, columns []string) *Table {
	t := &Table{
		name:    name,
		columns: columns,
		index:   make(map[string]int, len(columns)),
		kinds:   make([]Kind, len(columns)),
		dtypes:  make([]string, len(columns)),
	}
	for i, c := range columns {
		t.index[c] = i
	}
	return t
}

// Name is the base name of the source the table was loaded from.
func (t *Table) Name() string { return t.name }

// Len returns the current number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Version starts at zero and increases with every mutation that removed rows.
func (t *Table) Version() uint64 { return t.version }

// Columns returns the column names in source order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Kind returns the inferred kind of column c.
func (t *Table) Kind(c string) (Kind, error) {
	j, ok := t.index[c]
	if !ok {
		return 0, &ColumnNotFoundError{Column: c}
	}
	return t.kinds[j], nil
}

// Cell returns the value at row i, column c.
func (t *Table) Cell(i int, c string) (Value, error) {
	j, ok := t.index[c]
	if !ok {
		return Value{}, &ColumnNotFoundError{Column: c}
	}
	if i < 0 || i >= len(t.rows) {
		return Value{}, fmt.Errorf("row %d out of range [0,%d)", i, len(t.rows))
	}
	return t.rows[i][j], nil
}

// NumericColumns lists numeric columns in source order.
func (t *Table) NumericColumns() []string { return t.columnsOfKind(Numeric) }

// CategoricalColumns lists categorical columns in source order.
func (t *Table) CategoricalColumns() []string { return t.columnsOfKind(Categorical) }

func (t *Table) columnsOfKind(k Kind) []string {
	out := []string{}
	for j, c := range t.columns {
		if t.kinds[j] == k {
			out = append(out, c)
		}
	}
	return out
}

// Head returns the first n rows, or all rows if n exceeds the row count.
func (t *Table) Head(n int) []Record {
	n = clampRows(n, len(t.rows))
	return t.records(t.rows[:n])
}

// Tail returns the last n rows in their original order.
func (t *Table) Tail(n int) []Record {
	n = clampRows(n, len(t.rows))
	return t.records(t.rows[len(t.rows)-n:])
}

func clampRows(n, total int) int {
	if n < 0 {
		return 0
	}
	if n > total {
		return total
	}
	return n
}

func (t *Table) records(rows [][]Value) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		rec := make(Record, len(t.columns))
		for j, c := range t.columns {
			rec[c] = row[j].Interface()
		}
		out[i] = rec
	}
	return out
}

// DropMissing removes every row holding a missing cell and returns the
// number of rows removed.
func (t *Table) DropMissing() int {
	return t.filter(func(row []Value) bool {
		for _, v := range row {
			if v.IsMissing() {
				return false
			}
		}
		return true
	})
}

// DropDuplicates keeps the first occurrence of every distinct row and
// returns the number of rows removed.
func (t *Table) DropDuplicates() int {
	seen := make(map[string]struct{}, len(t.rows))
	return t.filter(func(row []Value) bool {
		k := rowKey(row)
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
		return true
	})
}

func (t *Table) filter(keep func([]Value) bool) int {
	before := len(t.rows)
	kept := make([][]Value, 0, before)
	for _, row := range t.rows {
		if keep(row) {
			kept = append(kept, row)
		}
	}
	removed := before - len(kept)
	if removed > 0 {
		t.rows = kept
		t.version++
	}
	return removed
}

func rowKey(row []Value) string {
	var b strings.Builder
	for _, v := range row {
		v.appendKey(&b)
	}
	return b.String()
}

// WriteCSV writes the header and current rows as comma separated text.
// Missing cells are written empty.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.columns))
	for i, row := range t.rows {
		for j, v := range row {
			rec[j] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
