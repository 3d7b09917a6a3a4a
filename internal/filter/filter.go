// Package filter narrows a dataset view by the user's selections: a fixed
// geographic cascade (Область → Район → Организация) followed by
// independent categorical filters and an inclusive age range. Every stage
// is pure: it takes a view and returns a narrower view, never touching the
// backing table.
package filter

import (
	"errors"

	"github.com/quatqasymbek/ai-course-dash/internal/dataset"
)

// ErrNoData is the terminal condition for a render cycle: the filtered
// view has no rows, or the outcome column has no numeric values left.
// Callers surface it as a warning and skip aggregation; it is not a fault.
var ErrNoData = errors.New("no rows match the current filters")

// GeoColumns is the cascade order. Each stage's options come from the view
// already narrowed by the stages before it.
var GeoColumns = [3]string{"Область", "Район", "Организация"}

// Selection is a multiselect state. A nil Selection is unset (the default
// all-values state, a no-op filter). A non-nil empty Selection is a
// deliberately cleared picker and matches nothing. This asymmetry is part
// of the contract: geographic stages treat empty as unset, independent
// filters honor the cleared state.
type Selection []string

// Chosen reports whether the selection restricts anything (unset
// selections do not).
func (s Selection) Chosen() bool { return s != nil }

func (s Selection) matchSet() map[string]struct{} {
	m := make(map[string]struct{}, len(s))
	for _, v := range s {
		m[dataset.DisplayValue(v)] = struct{}{}
	}
	return m
}

// Range is an inclusive numeric bound. Rows whose value is missing do not
// match once a range is applied; a nil *Range skips the stage entirely.
type Range struct {
	Min float64
	Max float64
}

// State is the complete selection set for one render cycle.
type State struct {
	// Region, District, Organization form the geographic cascade.
	Region       Selection
	District     Selection
	Organization Selection
	// Independent holds the demographic/professional multiselects keyed by
	// column name. Application order never changes the result.
	Independent map[string]Selection
	// Age bounds the coerced age column when set.
	Age *Range
	// AgeColumn overrides the default "Возраст" when non-empty.
	AgeColumn string
	// Geo overrides the default cascade columns when non-empty.
	Geo [3]string
}

func (s *State) geoColumns() [3]string {
	if s != nil && s.Geo != ([3]string{}) {
		return s.Geo
	}
	return GeoColumns
}

func (s *State) ageColumn() string {
	if s != nil && s.AgeColumn != "" {
		return s.AgeColumn
	}
	return "Возраст"
}

// geoSelections returns the cascade selections in stage order.
func (s *State) geoSelections() [3]Selection {
	if s == nil {
		return [3]Selection{}
	}
	return [3]Selection{s.Region, s.District, s.Organization}
}

// Cascade applies the geographic stages in fixed order. A stage is the
// identity when its column is absent or its selection is empty; values are
// matched on display form so the sentinel is selectable.
func Cascade(v *dataset.View, s *State) *dataset.View {
	sels := s.geoSelections()
	for stage, col := range s.geoColumns() {
		v = cascadeStage(v, col, sels[stage])
	}
	return v
}

func cascadeStage(v *dataset.View, col string, sel Selection) *dataset.View {
	if len(sel) == 0 || !v.HasColumn(col) {
		return v
	}
	want := sel.matchSet()
	return v.Where(func(i int) bool {
		_, ok := want[v.Value(i, col)]
		return ok
	})
}

// StageOptions lists the candidate values for one cascade stage: the
// sorted distinct non-missing values of the view narrowed by all upstream
// stages. Options for Район therefore always shrink to the selected
// Область rows, and Организация to the selected Район rows.
func StageOptions(v *dataset.View, s *State, col string) []string {
	sels := s.geoSelections()
	for stage, stageCol := range s.geoColumns() {
		if stageCol == col {
			break
		}
		v = cascadeStage(v, stageCol, sels[stage])
	}
	return v.DistinctValues(col)
}

// Options lists the values an independent multiselect offers: sorted
// distinct display values of the current view, sentinel included.
func Options(v *dataset.View, col string) []string {
	return v.DistinctWithNull(col)
}

// ApplyIndependent applies one independent categorical filter. Unset
// selections and absent columns pass the view through; a cleared selection
// yields an empty view.
func ApplyIndependent(v *dataset.View, col string, sel Selection) *dataset.View {
	if !sel.Chosen() || !v.HasColumn(col) {
		return v
	}
	if len(sel) == 0 {
		return v.Where(func(int) bool { return false })
	}
	want := sel.matchSet()
	return v.Where(func(i int) bool {
		_, ok := want[v.Value(i, col)]
		return ok
	})
}

// ApplyAge applies the inclusive age range. Absent column or nil range is
// the identity; missing ages do not match an applied range.
func ApplyAge(v *dataset.View, col string, r *Range) *dataset.View {
	if r == nil || !v.HasColumn(col) {
		return v
	}
	return v.Where(func(i int) bool {
		age, ok := v.Float(i, col)
		return ok && age >= r.Min && age <= r.Max
	})
}

// Apply runs the whole pipeline for one render cycle: cascade, independent
// filters, age range, then the outcome guard. Rows without a numeric
// outcome are dropped last so aggregation only ever sees scored rows.
// Returns ErrNoData when nothing survives.
func Apply(t *dataset.Table, s *State, outcome string) (*dataset.View, error) {
	v := t.All()
	if s != nil {
		v = Cascade(v, s)
		for col, sel := range s.Independent {
			v = ApplyIndependent(v, col, sel)
		}
		v = ApplyAge(v, s.ageColumn(), s.Age)
	}
	filtered := v
	scored := filtered.Where(func(i int) bool {
		_, ok := filtered.Float(i, outcome)
		return ok
	})
	if scored.Len() == 0 {
		return nil, ErrNoData
	}
	return scored, nil
}
