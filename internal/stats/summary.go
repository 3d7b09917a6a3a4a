package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/quatqasymbek/ai-course-dash/internal/dataset"
	"github.com/quatqasymbek/ai-course-dash/internal/ordinal"
)

// Summary is the headline card over a filtered view: record count and the
// outcome's mean, median and sample standard deviation (two decimals).
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	Std    float64
}

// Summarize computes the KPI card. Count is the view's row count; the
// moments use the rows with a numeric outcome.
func Summarize(v *dataset.View, outcome string) Summary {
	s := Summary{Count: v.Len()}
	var (
		n    int
		mean float64
		m2   float64
		vals []float64
	)
	for i := 0; i < v.Len(); i++ {
		x, ok := v.Float(i, outcome)
		if !ok {
			continue
		}
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
		vals = append(vals, x)
	}
	if n == 0 {
		s.Mean, s.Median, s.Std = math.NaN(), math.NaN(), math.NaN()
		return s
	}
	sort.Float64s(vals)
	s.Mean = Round2(mean)
	s.Median = Round2(quantile(vals, 0.5))
	if n > 1 {
		s.Std = Round2(math.Sqrt(m2 / float64(n-1)))
	} else {
		s.Std = math.NaN()
	}
	return s
}

// Histogram is an equal-width binning of the outcome.
type Histogram struct {
	Edges  []float64 // len = bins+1
	Counts []int     // len = bins
}

// NewHistogram bins the outcome values of a view. bins outside 10..80
// clamp to that range (30 when zero).
func NewHistogram(v *dataset.View, outcome string, bins int) (*Histogram, error) {
	if bins == 0 {
		bins = 30
	}
	if bins < 10 {
		bins = 10
	}
	if bins > 80 {
		bins = 80
	}
	var vals []float64
	for i := 0; i < v.Len(); i++ {
		if x, ok := v.Float(i, outcome); ok {
			vals = append(vals, x)
		}
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("histogram: no numeric %q values", outcome)
	}
	lo, hi := vals[0], vals[0]
	for _, x := range vals {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if lo == hi {
		return &Histogram{Edges: []float64{lo, hi}, Counts: []int{len(vals)}}, nil
	}
	h := &Histogram{Edges: make([]float64, bins+1), Counts: make([]int, bins)}
	width := (hi - lo) / float64(bins)
	for i := 0; i <= bins; i++ {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[bins] = hi
	for _, x := range vals {
		idx := int((x - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		h.Counts[idx]++
	}
	return h, nil
}

// GroupValues collects the raw numeric outcome values per category of col,
// ordered like GroupBy keys (ordinal when registered, else lexicographic).
// Box plots consume these; categories without a single numeric outcome are
// skipped.
func GroupValues(v *dataset.View, outcome, col string, reg *ordinal.Registry) ([]string, [][]float64, error) {
	if !v.HasColumn(col) {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	byKey := make(map[string][]float64)
	var keys []string
	for i := 0; i < v.Len(); i++ {
		key := v.Value(i, col)
		if _, seen := byKey[key]; !seen {
			keys = append(keys, key)
			byKey[key] = nil
		}
		if x, ok := v.Float(i, outcome); ok {
			byKey[key] = append(byKey[key], x)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a == b {
			return false
		}
		if reg != nil && reg.Has(col) {
			ra, rb := reg.Rank(col, a), reg.Rank(col, b)
			if ra != rb {
				return ra < rb
			}
		}
		return a < b
	})
	labels := make([]string, 0, len(keys))
	values := make([][]float64, 0, len(keys))
	for _, key := range keys {
		if len(byKey[key]) == 0 {
			continue
		}
		labels = append(labels, key)
		values = append(values, byKey[key])
	}
	return labels, values, nil
}

// RankRow is one category in an ascending mean ranking.
type RankRow struct {
	Label     string
	Count     int
	Mean      float64
	Highlight bool
}

// Rank aggregates the outcome per category and orders ascending by mean,
// sentinel-labelled missing keys included. Labels containing any highlight
// term (case-insensitive substring) are flagged; the Должность view uses
// this to call out учитель/преподаватель rows.
func Rank(v *dataset.View, outcome, col string, reg *ordinal.Registry, highlightTerms []string) ([]RankRow, error) {
	gt, err := GroupBy(v, outcome, []string{col}, reg, Options{})
	if err != nil {
		return nil, err
	}
	Sort(gt, SortByValueAsc, reg)
	rows := make([]RankRow, 0, len(gt.Rows))
	for _, g := range gt.Rows {
		row := RankRow{Label: g.Keys[0], Count: g.Count, Mean: g.Mean}
		lower := strings.ToLower(row.Label)
		for _, term := range highlightTerms {
			if term != "" && strings.Contains(lower, strings.ToLower(term)) {
				row.Highlight = true
				break
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// StratumColumn labels the synthetic A/B dimension in comparison
// breakdowns.
const StratumColumn = "Страта"

// Comparison is a two-strata contrast on one dimension: per-stratum
// summaries, their mean difference, and an optional secondary breakdown.
type Comparison struct {
	Dim       string
	LevelA    string
	LevelB    string
	A         Summary
	B         Summary
	Delta     float64 // mean(A) − mean(B), two decimals
	Breakdown *GroupTable
}

// Compare contrasts the rows whose dim value equals levelA against those
// equal to levelB (display-value matching, so the sentinel is a legal
// level). secondDim, when non-empty, adds a per-level breakdown grouped by
// stratum then secondDim.
func Compare(v *dataset.View, outcome, dim, levelA, levelB, secondDim string, reg *ordinal.Registry) (*Comparison, error) {
	if !v.HasColumn(dim) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, dim)
	}
	strata := func(level string) *dataset.View {
		return v.Where(func(i int) bool { return v.Value(i, dim) == level })
	}
	va, vb := strata(levelA), strata(levelB)
	cmp := &Comparison{
		Dim:    dim,
		LevelA: levelA,
		LevelB: levelB,
		A:      Summarize(va, outcome),
		B:      Summarize(vb, outcome),
	}
	if math.IsNaN(cmp.A.Mean) || math.IsNaN(cmp.B.Mean) {
		cmp.Delta = math.NaN()
	} else {
		cmp.Delta = Round2(cmp.A.Mean - cmp.B.Mean)
	}
	if secondDim == "" {
		return cmp, nil
	}
	if !v.HasColumn(secondDim) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, secondDim)
	}
	breakdown := &GroupTable{Columns: []string{StratumColumn, secondDim}}
	for _, stratum := range []struct {
		label string
		view  *dataset.View
	}{{"A", va}, {"B", vb}} {
		gt, err := GroupBy(stratum.view, outcome, []string{secondDim}, reg, Options{})
		if err != nil {
			return nil, err
		}
		for _, row := range gt.Rows {
			breakdown.Rows = append(breakdown.Rows, GroupRow{
				Keys:  []string{stratum.label, row.Keys[0]},
				Count: row.Count,
				Mean:  row.Mean,
			})
		}
	}
	cmp.Breakdown = breakdown
	return cmp, nil
}

// TopBottom slices the n best and n worst groups of a table by mean.
// Input order is untouched; both slices are freshly sorted.
func TopBottom(gt *GroupTable, n int) (top, bottom []GroupRow) {
	if n <= 0 || len(gt.Rows) == 0 {
		return nil, nil
	}
	sorted := append([]GroupRow(nil), gt.Rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessValue(sorted[j].Mean, sorted[i].Mean)
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	top = append(top, sorted[:n]...)
	tail := sorted[len(sorted)-n:]
	for i := len(tail) - 1; i >= 0; i-- {
		bottom = append(bottom, tail[i])
	}
	return top, bottom
}
