// Package ordinal orders categorical attributes that carry a meaningful,
// non-alphabetical order: the academic degree ladder and age brackets.
// Orderings register per attribute name; attributes without a registered
// rule keep whatever order the caller produced.
package ordinal

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/quatqasymbek/ai-course-dash/internal/dataset"
)

// RankFunc maps a display value to its sort rank. Lower ranks sort first;
// equal ranks keep the caller's relative order (sorts are stable).
type RankFunc func(value string) float64

// Registry maps attribute names to ordering rules.
type Registry struct {
	rules map[string]RankFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]RankFunc)}
}

// Default returns a registry carrying the two known ordinal attributes.
func Default() *Registry {
	r := NewRegistry()
	r.Register(DegreeColumn, DegreeRank)
	r.Register(AgeGroupColumn, AgeGroupRank)
	return r
}

// Register adds or replaces the rule for an attribute.
func (r *Registry) Register(attr string, rank RankFunc) {
	r.rules[attr] = rank
}

// RegisterRanks adds a fixed rank-table rule: listed labels order by
// position (case/whitespace-insensitive), unlisted labels after them.
func (r *Registry) RegisterRanks(attr string, ordered []string) {
	ranks := make(map[string]float64, len(ordered))
	for i, label := range ordered {
		ranks[strings.ToLower(strings.TrimSpace(label))] = float64(i)
	}
	r.Register(attr, func(value string) float64 {
		if rank, ok := ranks[strings.ToLower(strings.TrimSpace(value))]; ok {
			return rank
		}
		return unrankedSentinel
	})
}

// Has reports whether an ordering rule is registered for the attribute.
func (r *Registry) Has(attr string) bool {
	_, ok := r.rules[attr]
	return ok
}

// Rank returns the value's rank under the attribute's rule. Unregistered
// attributes rank everything equal (no implicit order).
func (r *Registry) Rank(attr, value string) float64 {
	if rank, ok := r.rules[attr]; ok {
		return rank(value)
	}
	return 0
}

// Less compares two values under the attribute's rule.
func (r *Registry) Less(attr, a, b string) bool {
	return r.Rank(attr, a) < r.Rank(attr, b)
}

// Sort orders values in place by the attribute's rule. The sort is stable:
// equally ranked values (including all values of an unregistered
// attribute) keep their relative order.
func (r *Registry) Sort(attr string, values []string) {
	rank, ok := r.rules[attr]
	if !ok {
		return
	}
	sort.SliceStable(values, func(i, j int) bool {
		return rank(values[i]) < rank(values[j])
	})
}

const (
	// DegreeColumn is the canonical academic degree attribute.
	DegreeColumn = "Учёная степень"
	// AgeGroupColumn is the age bracket attribute ("30-39" style labels).
	AgeGroupColumn = "Возрастная группа"
)

// unrankedSentinel places labels outside a rank table after every ranked
// label while leaving the NULL sentinel the very last.
const unrankedSentinel = 1e8

const nullRank = 1e9 + 1

var degreeOrder = []string{
	"PhD",
	"кандидат",
	"доктор наук",
	"доктор по профилю",
	"магистр",
	"не имеет степени",
	"Значение не указано",
}

var degreeRanks = buildDegreeRanks()

func buildDegreeRanks() map[string]float64 {
	m := make(map[string]float64, len(degreeOrder))
	for i, label := range degreeOrder {
		m[strings.ToLower(label)] = float64(i)
	}
	return m
}

// DegreeRank orders the degree ladder from PhD down to "no degree", with
// unknown labels after the ladder and the missing sentinel last. Matching
// tolerates case and surrounding whitespace.
func DegreeRank(value string) float64 {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || v == strings.ToLower(dataset.NullDisplay) {
		return nullRank
	}
	if rank, ok := degreeRanks[v]; ok {
		return rank
	}
	return unrankedSentinel
}

// CanonicalDegree maps case/whitespace variants onto the canonical label,
// leaving unknown values untouched.
func CanonicalDegree(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || v == "null" {
		return dataset.NullDisplay
	}
	for _, label := range degreeOrder {
		if v == strings.ToLower(label) {
			return label
		}
	}
	return strings.TrimSpace(value)
}

var ageRangeRe = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)

// AgeGroupRank orders bracket labels ("10-19", "20-29") by their numeric
// start. Labels without a parseable range sort after all brackets; the
// missing sentinel sorts last of all.
func AgeGroupRank(value string) float64 {
	v := strings.TrimSpace(value)
	if v == "" || strings.EqualFold(v, dataset.NullDisplay) {
		return nullRank
	}
	m := ageRangeRe.FindStringSubmatch(v)
	if m == nil {
		return 1e9
	}
	start, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 1e9
	}
	return start
}
