// Package stats computes grouped descriptive statistics over the outcome
// score of a filtered view. Grouping keeps missing keys as an explicit
// sentinel group, honors registered ordinal orderings, and reports every
// number rounded half-up to two decimals; consumers must not re-round.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quatqasymbek/ai-course-dash/internal/dataset"
	"github.com/quatqasymbek/ai-course-dash/internal/ordinal"
)

// ErrUnknownColumn rejects aggregation over a column the view does not
// have. Aggregating the whole table silently would hide the caller's bug.
var ErrUnknownColumn = errors.New("unknown grouping column")

// SortMode selects the ordering of group rows after aggregation.
type SortMode string

const (
	// SortByKey is the default: ordinal order for registered attributes,
	// otherwise lexicographic by key.
	SortByKey SortMode = "key"
	// SortByValueAsc and SortByValueDesc order by group mean. Ties keep
	// the key order produced by the grouping step.
	SortByValueAsc  SortMode = "value"
	SortByValueDesc SortMode = "value-desc"
	// SortByCount orders by group size, largest first.
	SortByCount SortMode = "count"
)

// Options controls which auxiliary statistics GroupBy computes. Mean and
// count are always present.
type Options struct {
	Median bool
	Std    bool
}

// GroupRow is one aggregated group: its key values (one per grouping
// column, missing keys shown as the sentinel) and statistics.
type GroupRow struct {
	Keys   []string
	Count  int
	Mean   float64
	Median float64
	Std    float64
}

// Key joins the group's key values for display.
func (r GroupRow) Key() string { return strings.Join(r.Keys, " / ") }

// GroupTable is an ordered set of aggregated groups.
type GroupTable struct {
	Columns []string
	Rows    []GroupRow
	HasMed  bool
	HasStd  bool
}

type groupAcc struct {
	keys []string
	rows int
	n    int
	mean float64
	m2   float64
	vals []float64
}

// GroupBy aggregates the outcome over one or two grouping columns. Rows
// whose key cell is missing group under the sentinel rather than being
// dropped. Row order follows SortByKey; re-sort with Sort for other modes.
func GroupBy(v *dataset.View, outcome string, cols []string, reg *ordinal.Registry, opt Options) (*GroupTable, error) {
	if len(cols) == 0 || len(cols) > 2 {
		return nil, fmt.Errorf("group by %d columns: need one or two", len(cols))
	}
	for _, col := range cols {
		if !v.HasColumn(col) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}

	accs := make(map[string]*groupAcc)
	order := make([]string, 0, 16)
	keyBuf := make([]string, len(cols))
	for i := 0; i < v.Len(); i++ {
		for k, col := range cols {
			keyBuf[k] = v.Value(i, col)
		}
		key := strings.Join(keyBuf, "\x1f")
		acc := accs[key]
		if acc == nil {
			acc = &groupAcc{keys: append([]string(nil), keyBuf...)}
			accs[key] = acc
			order = append(order, key)
		}
		acc.rows++
		if x, ok := v.Float(i, outcome); ok {
			acc.n++
			delta := x - acc.mean
			acc.mean += delta / float64(acc.n)
			acc.m2 += delta * (x - acc.mean)
			if opt.Median {
				acc.vals = append(acc.vals, x)
			}
		}
	}

	gt := &GroupTable{
		Columns: append([]string(nil), cols...),
		Rows:    make([]GroupRow, 0, len(order)),
		HasMed:  opt.Median,
		HasStd:  opt.Std,
	}
	for _, key := range order {
		acc := accs[key]
		row := GroupRow{Keys: acc.keys, Count: acc.rows}
		if acc.n > 0 {
			row.Mean = Round2(acc.mean)
		} else {
			row.Mean = math.NaN()
		}
		if opt.Median {
			if len(acc.vals) > 0 {
				sorted := append([]float64(nil), acc.vals...)
				sort.Float64s(sorted)
				row.Median = Round2(quantile(sorted, 0.5))
			} else {
				row.Median = math.NaN()
			}
		}
		if opt.Std {
			if acc.n > 1 {
				row.Std = Round2(math.Sqrt(acc.m2 / float64(acc.n-1)))
			} else {
				row.Std = math.NaN()
			}
		}
		gt.Rows = append(gt.Rows, row)
	}
	sortByKeys(gt, reg)
	return gt, nil
}

// sortByKeys orders rows by each grouping column in turn: registered
// ordinal order first, lexicographic otherwise.
func sortByKeys(gt *GroupTable, reg *ordinal.Registry) {
	sort.SliceStable(gt.Rows, func(i, j int) bool {
		for k, col := range gt.Columns {
			a, b := gt.Rows[i].Keys[k], gt.Rows[j].Keys[k]
			if a == b {
				continue
			}
			if reg != nil && reg.Has(col) {
				ra, rb := reg.Rank(col, a), reg.Rank(col, b)
				if ra != rb {
					return ra < rb
				}
			}
			return a < b
		}
		return false
	})
}

// Sort reorders the table's rows by the requested mode. Sorts are stable,
// so mean ties preserve the key order established by GroupBy.
func Sort(gt *GroupTable, mode SortMode, reg *ordinal.Registry) {
	switch mode {
	case "", SortByKey:
		sortByKeys(gt, reg)
	case SortByValueAsc:
		sort.SliceStable(gt.Rows, func(i, j int) bool {
			return lessValue(gt.Rows[i].Mean, gt.Rows[j].Mean)
		})
	case SortByValueDesc:
		sort.SliceStable(gt.Rows, func(i, j int) bool {
			return lessValue(gt.Rows[j].Mean, gt.Rows[i].Mean)
		})
	case SortByCount:
		sort.SliceStable(gt.Rows, func(i, j int) bool {
			return gt.Rows[i].Count > gt.Rows[j].Count
		})
	}
}

// lessValue orders means with NaN (no numeric outcome in group) last.
func lessValue(a, b float64) bool {
	switch {
	case math.IsNaN(a):
		return false
	case math.IsNaN(b):
		return true
	default:
		return a < b
	}
}

// Limit truncates the table to its first n rows; n <= 0 keeps everything.
func Limit(gt *GroupTable, n int) {
	if n > 0 && len(gt.Rows) > n {
		gt.Rows = gt.Rows[:n]
	}
}

// Matrix is a two-dimensional pivot of group means: one row per first-dim
// value, one column per second-dim value, NaN where a combination has no
// rows.
type Matrix struct {
	RowDim    string
	ColDim    string
	RowLabels []string
	ColLabels []string
	Values    [][]float64
}

// Pivot reshapes a two-column group table into a matrix. Label order
// follows the table's current row order per dimension (first occurrence).
func Pivot(gt *GroupTable) (*Matrix, error) {
	if len(gt.Columns) != 2 {
		return nil, fmt.Errorf("pivot needs two grouping columns, have %d", len(gt.Columns))
	}
	m := &Matrix{RowDim: gt.Columns[0], ColDim: gt.Columns[1]}
	rowIdx := make(map[string]int)
	colIdx := make(map[string]int)
	for _, row := range gt.Rows {
		if _, ok := rowIdx[row.Keys[0]]; !ok {
			rowIdx[row.Keys[0]] = len(m.RowLabels)
			m.RowLabels = append(m.RowLabels, row.Keys[0])
		}
		if _, ok := colIdx[row.Keys[1]]; !ok {
			colIdx[row.Keys[1]] = len(m.ColLabels)
			m.ColLabels = append(m.ColLabels, row.Keys[1])
		}
	}
	m.Values = make([][]float64, len(m.RowLabels))
	for i := range m.Values {
		m.Values[i] = make([]float64, len(m.ColLabels))
		for j := range m.Values[i] {
			m.Values[i][j] = math.NaN()
		}
	}
	for _, row := range gt.Rows {
		m.Values[rowIdx[row.Keys[0]]][colIdx[row.Keys[1]]] = row.Mean
	}
	return m, nil
}

// Round2 rounds half-up to two decimals using decimal arithmetic. Plain
// float math turns 82.345 into 82.34499... and misrounds it down.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// quantile interpolates the q-quantile of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
