package stats

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"testing"

	"github.com/quatqasymbek/ai-course-dash/internal/dataset"
	"github.com/quatqasymbek/ai-course-dash/internal/ordinal"
)

func TestSummarize(t *testing.T) {
	header := []string{"Пол", scoreCol}
	rows := [][]string{
		{"Женский", "70"},
		{"Мужской", "80"},
		{"Женский", "90"},
		{"Мужской", "abc"},
	}
	v := dataset.NewTable(header, rows, scoreCol).All()
	s := Summarize(v, scoreCol)
	// Count is the row count; moments use the three numeric outcomes.
	if s.Count != 4 {
		t.Fatalf("count = %d, want 4", s.Count)
	}
	if !almostEqual(s.Mean, 80) || !almostEqual(s.Median, 80) {
		t.Fatalf("mean/median = %v/%v, want 80/80", s.Mean, s.Median)
	}
	if !almostEqual(s.Std, 10) {
		t.Fatalf("std = %v, want 10", s.Std)
	}
}

func TestSummarizeNoNumericOutcome(t *testing.T) {
	v := dataset.NewTable([]string{scoreCol}, [][]string{{"abc"}, {""}}, scoreCol).All()
	s := Summarize(v, scoreCol)
	if s.Count != 2 {
		t.Fatalf("count = %d, want 2", s.Count)
	}
	if !math.IsNaN(s.Mean) || !math.IsNaN(s.Median) || !math.IsNaN(s.Std) {
		t.Fatalf("moments of a non-numeric column must be missing: %+v", s)
	}
}

func TestNewHistogramBinsAndClamp(t *testing.T) {
	header := []string{scoreCol}
	rows := make([][]string, 0, 100)
	for i := 0; i < 100; i++ {
		rows = append(rows, []string{strconv.Itoa(i)})
	}
	v := dataset.NewTable(header, rows, scoreCol).All()

	h, err := NewHistogram(v, scoreCol, 0)
	if err != nil {
		t.Fatalf("histogram: %v", err)
	}
	if len(h.Counts) != 30 || len(h.Edges) != 31 {
		t.Fatalf("default bins = %d, want 30", len(h.Counts))
	}
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	if total != 100 {
		t.Fatalf("binned %d values, want 100", total)
	}

	if h, _ = NewHistogram(v, scoreCol, 5); len(h.Counts) != 10 {
		t.Fatalf("bins below range must clamp to 10, got %d", len(h.Counts))
	}
	if h, _ = NewHistogram(v, scoreCol, 500); len(h.Counts) != 80 {
		t.Fatalf("bins above range must clamp to 80, got %d", len(h.Counts))
	}

	flat := dataset.NewTable([]string{scoreCol}, [][]string{{"70"}, {"70"}}, scoreCol).All()
	h, err = NewHistogram(flat, scoreCol, 30)
	if err != nil {
		t.Fatalf("degenerate histogram: %v", err)
	}
	if len(h.Counts) != 1 || h.Counts[0] != 2 {
		t.Fatalf("constant column should bin into one bucket: %+v", h)
	}

	if _, err := NewHistogram(dataset.NewTable([]string{scoreCol}, nil, scoreCol).All(), scoreCol, 30); err == nil {
		t.Fatalf("empty view must error")
	}
}

func TestRankAscendingWithHighlight(t *testing.T) {
	header := []string{"Должность", scoreCol}
	rows := [][]string{
		{"директор", "90"},
		{"учитель истории", "60"},
		{"Преподаватель физики", "75"},
		{"завуч", "80"},
	}
	v := dataset.NewTable(header, rows, scoreCol).All()
	ranked, err := Rank(v, scoreCol, "Должность", nil, []string{"учитель", "преподаватель"})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	var labels []string
	for _, r := range ranked {
		labels = append(labels, r.Label)
	}
	want := []string{"учитель истории", "Преподаватель физики", "завуч", "директор"}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("rank order = %v, want %v", labels, want)
	}
	// Highlight matching is a case-insensitive substring test.
	if !ranked[0].Highlight || !ranked[1].Highlight {
		t.Fatalf("teaching rows should be highlighted: %+v", ranked)
	}
	if ranked[2].Highlight || ranked[3].Highlight {
		t.Fatalf("non-teaching rows should not be highlighted: %+v", ranked)
	}

	if _, err := Rank(v, scoreCol, "Нет такой", nil, nil); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
}

func TestCompareStrata(t *testing.T) {
	header := []string{"Пол", "Категория", scoreCol}
	rows := [][]string{
		{"Женский", "высшая", "90"},
		{"Женский", "первая", "80"},
		{"Мужской", "высшая", "70"},
		{"Мужской", "первая", "60"},
		{"Женский", "высшая", "85"},
	}
	v := dataset.NewTable(header, rows, scoreCol).All()
	cmp, err := Compare(v, scoreCol, "Пол", "Женский", "Мужской", "Категория", nil)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if cmp.A.Count != 3 || cmp.B.Count != 2 {
		t.Fatalf("strata counts = %d/%d, want 3/2", cmp.A.Count, cmp.B.Count)
	}
	if !almostEqual(cmp.A.Mean, 85) || !almostEqual(cmp.B.Mean, 65) {
		t.Fatalf("strata means = %v/%v, want 85/65", cmp.A.Mean, cmp.B.Mean)
	}
	if !almostEqual(cmp.Delta, 20) {
		t.Fatalf("delta = %v, want 20", cmp.Delta)
	}
	if cmp.Breakdown == nil || len(cmp.Breakdown.Rows) != 4 {
		t.Fatalf("breakdown = %+v, want 4 stratum×category rows", cmp.Breakdown)
	}
	if cmp.Breakdown.Columns[0] != StratumColumn {
		t.Fatalf("breakdown keyed by %v", cmp.Breakdown.Columns)
	}
	row := cmp.Breakdown.Rows[0]
	if row.Keys[0] != "A" {
		t.Fatalf("first breakdown row = %+v, want stratum A", row)
	}
}

func TestCompareMissingLevelDelta(t *testing.T) {
	header := []string{"Пол", scoreCol}
	rows := [][]string{{"Женский", "80"}}
	v := dataset.NewTable(header, rows, scoreCol).All()
	cmp, err := Compare(v, scoreCol, "Пол", "Женский", "Мужской", "", nil)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if cmp.B.Count != 0 || !math.IsNaN(cmp.Delta) {
		t.Fatalf("delta against an empty stratum must be missing: %+v", cmp)
	}
	if _, err := Compare(v, scoreCol, "Нет такой", "a", "b", "", nil); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
}

func TestTopBottom(t *testing.T) {
	gt := &GroupTable{
		Columns: []string{"Организация"},
		Rows: []GroupRow{
			{Keys: []string{"Школа 1"}, Mean: 70},
			{Keys: []string{"Школа 2"}, Mean: 90},
			{Keys: []string{"Школа 3"}, Mean: 60},
			{Keys: []string{"Школа 4"}, Mean: 80},
		},
	}
	top, bottom := TopBottom(gt, 2)
	if top[0].Keys[0] != "Школа 2" || top[1].Keys[0] != "Школа 4" {
		t.Fatalf("top = %v", top)
	}
	// Bottom is worst-first.
	if bottom[0].Keys[0] != "Школа 3" || bottom[1].Keys[0] != "Школа 1" {
		t.Fatalf("bottom = %v", bottom)
	}
	// Input order untouched.
	if gt.Rows[0].Keys[0] != "Школа 1" {
		t.Fatalf("TopBottom must not reorder its input")
	}
	if top, bottom = TopBottom(gt, 0); top != nil || bottom != nil {
		t.Fatalf("n=0 should yield nothing")
	}
}

func TestGroupValues(t *testing.T) {
	header := []string{"Учёная степень", scoreCol}
	rows := [][]string{
		{"магистр", "80"},
		{"PhD", "90"},
		{"магистр", "85"},
		{"кандидат", "abc"},
		{"PhD", "95"},
	}
	v := dataset.NewTable(header, rows, scoreCol).All()
	labels, values, err := GroupValues(v, scoreCol, "Учёная степень", ordinal.Default())
	if err != nil {
		t.Fatalf("group values: %v", err)
	}
	// кандидат has no numeric outcome and is skipped; order is ordinal.
	want := []string{"PhD", "магистр"}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("labels = %v, want %v", labels, want)
	}
	if !reflect.DeepEqual(values[0], []float64{90, 95}) || !reflect.DeepEqual(values[1], []float64{80, 85}) {
		t.Fatalf("values = %v", values)
	}
	if _, _, err := GroupValues(v, scoreCol, "Нет такой", nil); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
}
