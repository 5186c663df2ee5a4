package models

import (
	"math"
	"strconv"
	"strings"
)

// Column names the ranking workflow relies on.
const (
	ColumnState       = "State"
	ColumnRating      = "Rating"
	ColumnCollegeName = "College Name"
)

// RequiredColumns lists the columns every colleges dataset must carry.
var RequiredColumns = []string{ColumnState, ColumnRating, ColumnCollegeName}

// Row maps a column name to the raw cell text.
type Row map[string]string

// Table is the in-memory form of the colleges dataset. Rows keep file order.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable returns an empty table with a copy of the given columns.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the names not present in the header, in argument order.
func (t *Table) MissingColumns(names ...string) []string {
	var missing []string
	for _, n := range names {
		if !t.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Clone copies the header and every row.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns)
	out.Rows = make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, r.Clone())
	}
	return out
}

// Values returns the column's cells in row order.
func (t *Table) Values(column string) []string {
	vals := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		vals[i] = r[column]
	}
	return vals
}

// Numeric coerces a column into a new slice. Cells that do not parse, and
// NaN or infinite values, come back as NaN. The table is left untouched.
func (t *Table) Numeric(column string) []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = ParseNumber(r[column])
	}
	return out
}

// MetricColumns returns the chartable columns: everything except the state
// and name columns that holds at least one numeric cell.
func (t *Table) MetricColumns() []string {
	var metrics []string
	for _, c := range t.Columns {
		if c == ColumnState || c == ColumnCollegeName {
			continue
		}
		for _, r := range t.Rows {
			if !math.IsNaN(ParseNumber(r[c])) {
				metrics = append(metrics, c)
				break
			}
		}
	}
	return metrics
}

// Clone copies the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ParseNumber parses a cell as a finite float, returning NaN when it can't.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}
