package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// NullDisplay is the sentinel shown for missing categorical values in
// filter options, group keys and reports. Missing cells stay distinct
// groups; they are never dropped.
const NullDisplay = "NULL"

// Table is an immutable, column-ordered dataset: one row per participant,
// raw cell text preserved as read from the source file. Columns that were
// coerced to numbers at load time (the outcome score, age) keep a parallel
// float column where NaN marks a missing or non-numeric cell.
type Table struct {
	header  []string
	index   map[string]int
	rows    [][]string
	numeric map[string][]float64
	path    string
}

// NewTable builds a table from a header and raw rows. Rows shorter than the
// header are padded with empty cells; longer rows are truncated. numericCols
// are coerced immediately (non-numeric cells become missing, never zero).
func NewTable(header []string, rows [][]string, numericCols ...string) *Table {
	h := make([]string, len(header))
	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		h[i] = name
		if _, ok := idx[name]; !ok {
			idx[name] = i
		}
	}
	norm := make([][]string, len(rows))
	for i, r := range rows {
		if len(r) == len(h) {
			norm[i] = r
			continue
		}
		row := make([]string, len(h))
		copy(row, r)
		norm[i] = row
	}
	t := &Table{header: h, index: idx, rows: norm, numeric: make(map[string][]float64)}
	for _, col := range numericCols {
		t.coerce(col)
	}
	return t
}

// coerce parses a column as floats, NaN for missing/non-numeric cells.
func (t *Table) coerce(col string) {
	j, ok := t.index[col]
	if !ok {
		return
	}
	vals := make([]float64, len(t.rows))
	for i, row := range t.rows {
		if f, ok := parseNumber(row[j]); ok {
			vals[i] = f
		} else {
			vals[i] = math.NaN()
		}
	}
	t.numeric[col] = vals
}

// Header returns the column names in original order.
func (t *Table) Header() []string { return t.header }

// Path returns the source file the table was loaded from, if any.
func (t *Table) Path() string { return t.path }

// NumRows reports the total row count.
func (t *Table) NumRows() int { return len(t.rows) }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Available filters names down to the columns present in the table,
// preserving the requested order.
func (t *Table) Available(names []string) []string {
	var out []string
	for _, n := range names {
		if t.HasColumn(n) {
			out = append(out, n)
		}
	}
	return out
}

// All returns a view over every row in load order.
func (t *Table) All() *View {
	idx := make([]int, len(t.rows))
	for i := range idx {
		idx[i] = i
	}
	return &View{t: t, idx: idx}
}

// View is an ordered subset of a table's rows. Views share the backing
// table and never copy or mutate row data; Where produces a narrower view
// preserving relative row order.
type View struct {
	t   *Table
	idx []int
}

// Len reports the number of rows in the view.
func (v *View) Len() int { return len(v.idx) }

// Table returns the backing table.
func (v *View) Table() *Table { return v.t }

// HasColumn reports whether the named column exists in the backing table.
func (v *View) HasColumn(col string) bool { return v.t.HasColumn(col) }

// Columns returns the backing table's header.
func (v *View) Columns() []string { return v.t.header }

// Raw returns the unmodified cell text for row i of the view.
func (v *View) Raw(i int, col string) string {
	j, ok := v.t.index[col]
	if !ok {
		return ""
	}
	return v.t.rows[v.idx[i]][j]
}

// Row returns the raw cells of row i in header order.
func (v *View) Row(i int) []string { return v.t.rows[v.idx[i]] }

// Value returns the display value for row i: trimmed cell text with missing
// cells normalized to the NULL sentinel. Filtering and grouping match on
// these values so the sentinel is selectable like any other category.
func (v *View) Value(i int, col string) string {
	return DisplayValue(v.Raw(i, col))
}

// Float returns the coerced numeric value for row i. ok is false when the
// cell is missing/non-numeric or the column was not coerced at load.
func (v *View) Float(i int, col string) (float64, bool) {
	vals, present := v.t.numeric[col]
	if !present {
		return 0, false
	}
	f := vals[v.idx[i]]
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Where returns the stable subset of rows for which keep returns true.
func (v *View) Where(keep func(i int) bool) *View {
	out := make([]int, 0, len(v.idx))
	for i := range v.idx {
		if keep(i) {
			out = append(out, v.idx[i])
		}
	}
	return &View{t: v.t, idx: out}
}

// DistinctValues returns the sorted distinct non-missing display values of
// a column. Cascade stages build their option lists from this.
func (v *View) DistinctValues(col string) []string {
	seen := make(map[string]struct{})
	for i := 0; i < v.Len(); i++ {
		val := v.Value(i, col)
		if val == NullDisplay {
			continue
		}
		seen[val] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for val := range seen {
		out = append(out, val)
	}
	sort.Strings(out)
	return out
}

// DistinctWithNull returns the sorted distinct display values of a column,
// sentinel included. Independent multiselects offer these as options.
func (v *View) DistinctWithNull(col string) []string {
	seen := make(map[string]struct{})
	for i := 0; i < v.Len(); i++ {
		seen[v.Value(i, col)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for val := range seen {
		out = append(out, val)
	}
	sort.Strings(out)
	return out
}

// DisplayValue normalizes raw cell text for categorical use: whitespace
// trimmed, missing markers collapsed to the NULL sentinel.
func DisplayValue(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return NullDisplay
	}
	switch strings.ToLower(t) {
	case "nan", "none", "null":
		return NullDisplay
	}
	return t
}

// IsMissing reports whether a raw cell normalizes to the sentinel.
func IsMissing(s string) bool { return DisplayValue(s) == NullDisplay }

// parseNumber parses a cell as a float. Decimal commas are accepted and
// non-breaking/regular spaces used as thousands grouping are stripped.
func parseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, " ", "")
	raw = strings.ReplaceAll(raw, " ", "")
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	if cpos >= 0 && dpos >= 0 {
		if cpos > dpos {
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	} else if cpos >= 0 {
		if strings.Count(raw, ",") == 1 {
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
