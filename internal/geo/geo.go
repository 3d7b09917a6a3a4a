// Package geo matches aggregated region scores against a GeoJSON boundary
// file and produces a merged map artifact. The boundary file is optional:
// its absence disables map output only, never the rest of the pipeline.
package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/quatqasymbek/ai-course-dash/internal/utils"
)

// FeatureCollection is the subset of GeoJSON this tool reads and writes.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// Feature carries boundary properties; geometry stays opaque and is passed
// through to the merged artifact untouched.
type Feature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// Name returns the feature's trimmed value for the configured name property,
// empty when the property is missing or not a string.
func (f *Feature) Name(prop string) string {
	if f.Properties == nil {
		return ""
	}
	s, ok := f.Properties[prop].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// LoadBoundaries reads a GeoJSON FeatureCollection from path.
func LoadBoundaries(path string) (*FeatureCollection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}
	var fc FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse boundaries %s: %w", path, err)
	}
	if !strings.EqualFold(fc.Type, "FeatureCollection") {
		return nil, fmt.Errorf("boundaries %s: type %q is not a FeatureCollection", path, fc.Type)
	}
	return &fc, nil
}

// RegionStat carries one region's aggregated outcome for the map layer.
type RegionStat struct {
	Region string
	Mean   float64
	Count  int
}

// Match pairs a region's statistics with its boundary feature.
type Match struct {
	RegionStat
	BoundaryName string
	Feature      *Feature
}

// Coverage is the result of matching region statistics against boundaries.
// Unmapped regions are a warning for the caller to surface; their rows are
// omitted from the map artifact only, never from the filtered view.
type Coverage struct {
	Matches  []Match
	Unmapped []string // sorted region names with no boundary feature
}

// MatchRegions resolves each region against the boundary features keyed by
// nameProp. The translation table is consulted first; when it has no entry
// (or the translated name is absent) the region name itself must match a
// boundary name. All lookups fold case: spreadsheet region names arrive in
// mixed case, and config loaders lowercase translation keys.
func MatchRegions(stats []RegionStat, fc *FeatureCollection, nameProp string, translation map[string]string) Coverage {
	index := make(map[string]*Feature, len(fc.Features))
	for _, f := range fc.Features {
		name := fold(f.Name(nameProp))
		if name == "" {
			continue
		}
		if _, dup := index[name]; !dup {
			index[name] = f
		}
	}
	trans := make(map[string]string, len(translation))
	for from, to := range translation {
		trans[fold(from)] = to
	}

	var cov Coverage
	for _, st := range stats {
		region := strings.TrimSpace(st.Region)
		var (
			feature *Feature
			bname   string
		)
		if mapped, ok := trans[fold(region)]; ok {
			if f, found := index[fold(mapped)]; found {
				feature, bname = f, mapped
			}
		}
		if feature == nil {
			if f, found := index[fold(region)]; found {
				feature, bname = f, region
			}
		}
		if feature == nil {
			cov.Unmapped = append(cov.Unmapped, st.Region)
			continue
		}
		cov.Matches = append(cov.Matches, Match{RegionStat: st, BoundaryName: bname, Feature: feature})
	}
	sort.Strings(cov.Unmapped)
	return cov
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Merged builds a FeatureCollection holding only the matched boundary
// features, with score_mean and score_count properties injected.
func Merged(cov Coverage) *FeatureCollection {
	out := &FeatureCollection{Type: "FeatureCollection", Features: []*Feature{}}
	for _, m := range cov.Matches {
		props := make(map[string]any, len(m.Feature.Properties)+2)
		for k, v := range m.Feature.Properties {
			props[k] = v
		}
		props["score_mean"] = m.Mean
		props["score_count"] = m.Count
		out.Features = append(out.Features, &Feature{
			Type:       m.Feature.Type,
			Properties: props,
			Geometry:   m.Feature.Geometry,
		})
	}
	return out
}

// WriteMerged writes the merged collection for cov as pretty JSON (atomic).
func WriteMerged(path string, cov Coverage) error {
	data, err := utils.PrettyJSON(Merged(cov))
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write merged geojson: %w", err)
	}
	return nil
}
