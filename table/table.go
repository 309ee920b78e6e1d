// Package table holds delimited tabular data in memory and provides the small
// set of dataframe operations the review tools need: column renames and
// selections, joins, and reading/writing TSV, CSV, XLS(X) and SQLite.
package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Table is a header plus rows of string cells. Every row has exactly
// len(Header) cells. Empty cells stand for missing values.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// New returns an empty table with the given header.
func New(header ...string) *Table {
	t := &Table{
		Header: append([]string(nil), header...),
		Rows:   make([][]string, 0),
	}
	t.reindex()

	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, col := range t.Header {
		// The first occurrence of a duplicated name wins
		if _, exists := t.index[col]; !exists {
			t.index[col] = i
		}
	}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the table has a column called col.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Col returns the position of col, or -1.
func (t *Table) Col(col string) int {
	if i, ok := t.index[col]; ok {
		return i
	}

	return -1
}

// Value returns the cell of row i in column col, or "" if there is no such
// column.
func (t *Table) Value(i int, col string) string {
	j := t.Col(col)
	if j < 0 {
		return ""
	}

	return t.Rows[i][j]
}

// Column returns a copy of the values in col.
func (t *Table) Column(col string) ([]string, error) {
	j := t.Col(col)
	if j < 0 {
		return nil, fmt.Errorf("column %q not found", col)
	}

	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[j]
	}

	return out, nil
}

// Append adds a row, which must match the header width.
func (t *Table) Append(row ...string) error {
	if len(row) != len(t.Header) {
		return fmt.Errorf("row has %d fields but the header has %d", len(row), len(t.Header))
	}
	t.Rows = append(t.Rows, append([]string(nil), row...))

	return nil
}

// Set assigns a column, adding it at the end if it does not yet exist and
// overwriting it in place otherwise.
func (t *Table) Set(col string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values but the table has %d rows", col, len(values), len(t.Rows))
	}

	j := t.Col(col)
	if j < 0 {
		t.Header = append(t.Header, col)
		t.index[col] = len(t.Header) - 1
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], values[i])
		}
		return nil
	}

	for i := range t.Rows {
		t.Rows[i][j] = values[i]
	}

	return nil
}

// Rename renames columns according to m. Names absent from the table are
// ignored.
func (t *Table) Rename(m map[string]string) *Table {
	for i, col := range t.Header {
		if to, ok := m[col]; ok {
			t.Header[i] = to
		}
	}
	t.reindex()

	return t
}

// Select returns a new table restricted to the listed columns, in the listed
// order. Listed names that do not exist are skipped.
func (t *Table) Select(cols ...string) *Table {
	keep := make([]int, 0, len(cols))
	header := make([]string, 0, len(cols))
	seen := make(map[string]struct{})
	for _, col := range cols {
		if _, dup := seen[col]; dup {
			continue
		}
		seen[col] = struct{}{}

		if j := t.Col(col); j >= 0 {
			keep = append(keep, j)
			header = append(header, col)
		}
	}

	return t.project(header, keep)
}

// Drop returns a new table without the listed columns. Every listed column
// must exist.
func (t *Table) Drop(cols ...string) (*Table, error) {
	drop := make(map[int]struct{}, len(cols))
	for _, col := range cols {
		j := t.Col(col)
		if j < 0 {
			return nil, fmt.Errorf("cannot drop %q: column not found", col)
		}
		drop[j] = struct{}{}
	}

	keep := make([]int, 0, len(t.Header))
	header := make([]string, 0, len(t.Header))
	for j, col := range t.Header {
		if _, ok := drop[j]; ok {
			continue
		}
		keep = append(keep, j)
		header = append(header, col)
	}

	return t.project(header, keep), nil
}

func (t *Table) project(header []string, keep []int) *Table {
	out := New(header...)
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		newRow := make([]string, len(keep))
		for k, j := range keep {
			newRow[k] = row[j]
		}
		out.Rows[i] = newRow
	}

	return out
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	return t.Select(t.Header...)
}

// Count returns the number of rows whose col equals value.
func (t *Table) Count(col, value string) (int, error) {
	j := t.Col(col)
	if j < 0 {
		return 0, fmt.Errorf("column %q not found", col)
	}

	n := 0
	for _, row := range t.Rows {
		if row[j] == value {
			n++
		}
	}

	return n, nil
}

// naValues are the cell contents that are read as missing.
var naValues = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {},
	"-nan": {}, "NULL": {}, "null": {}, "None": {}, "<NA>": {}, "#N/A": {},
}

// IsNA reports whether a cell holds a missing value.
func IsNA(v string) bool {
	_, ok := naValues[strings.TrimSpace(v)]
	return ok
}

// ParseFloat converts a cell to a number. ok is false for missing and
// non-numeric cells.
func ParseFloat(v string) (f float64, ok bool) {
	if IsNA(v) {
		return 0, false
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

// FormatFloat renders a number with the fewest digits that round-trip.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
