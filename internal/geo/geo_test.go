package geo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

const boundariesJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "Akmola Region", "iso": "KZ-AKM"},
      "geometry": {"type": "Point", "coordinates": [71.4, 51.1]}
    },
    {
      "type": "Feature",
      "properties": {"name": "Almaty Region"},
      "geometry": {"type": "Point", "coordinates": [77.0, 43.9]}
    },
    {
      "type": "Feature",
      "properties": {"name": "Шымкент"},
      "geometry": {"type": "Point", "coordinates": [69.6, 42.3]}
    }
  ]
}`

func loadFixture(t *testing.T) *FeatureCollection {
	t.Helper()
	path := filepath.Join(t.TempDir(), "regions.geojson")
	if err := os.WriteFile(path, []byte(boundariesJSON), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	fc, err := LoadBoundaries(path)
	if err != nil {
		t.Fatalf("load boundaries: %v", err)
	}
	return fc
}

func TestLoadBoundariesRejectsNonCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "point.geojson")
	if err := os.WriteFile(path, []byte(`{"type":"Point","coordinates":[0,0]}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadBoundaries(path); err == nil {
		t.Fatalf("a bare geometry should be rejected")
	}
}

func TestMatchRegionsTranslationThenExact(t *testing.T) {
	fc := loadFixture(t)
	translation := map[string]string{
		"Акмолинская": "Akmola Region",
		"Алматинская": "Almaty Region",
	}
	stats := []RegionStat{
		{Region: "Жамбылская", Mean: 83.75, Count: 1},
		{Region: "Акмолинская", Mean: 84.88, Count: 2},
		{Region: "Шымкент", Mean: 70.10, Count: 3},
	}
	cov := MatchRegions(stats, fc, "name", translation)

	if len(cov.Matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(cov.Matches))
	}
	// Translated name wins for Акмолинская; Шымкент matches exactly.
	if cov.Matches[0].BoundaryName != "Akmola Region" || cov.Matches[1].BoundaryName != "Шымкент" {
		t.Fatalf("boundary names = %q, %q", cov.Matches[0].BoundaryName, cov.Matches[1].BoundaryName)
	}
	if len(cov.Unmapped) != 1 || cov.Unmapped[0] != "Жамбылская" {
		t.Fatalf("unmapped = %v, want [Жамбылская]", cov.Unmapped)
	}
}

func TestMatchRegionsFoldsCase(t *testing.T) {
	fc := loadFixture(t)
	// Config loaders lowercase map keys, so the translation table may
	// arrive folded; the region value itself may differ in case too.
	translation := map[string]string{"акмолинская": "akmola region"}
	stats := []RegionStat{
		{Region: "АКМОЛИНСКАЯ", Mean: 84.88, Count: 2},
		{Region: "шымкент", Mean: 70.10, Count: 3},
	}
	cov := MatchRegions(stats, fc, "name", translation)
	if len(cov.Matches) != 2 || len(cov.Unmapped) != 0 {
		t.Fatalf("matches = %d, unmapped = %v, want 2 and none", len(cov.Matches), cov.Unmapped)
	}
	if got := cov.Matches[0].Feature.Name("iso"); got != "KZ-AKM" {
		t.Fatalf("matched wrong feature, iso = %q", got)
	}
}

func TestUnmappedListIsSorted(t *testing.T) {
	fc := loadFixture(t)
	stats := []RegionStat{
		{Region: "Юг"},
		{Region: "Абайская"},
	}
	cov := MatchRegions(stats, fc, "name", nil)
	if len(cov.Unmapped) != 2 || cov.Unmapped[0] != "Абайская" || cov.Unmapped[1] != "Юг" {
		t.Fatalf("unmapped = %v, want sorted [Абайская Юг]", cov.Unmapped)
	}
}

func TestWriteMergedInjectsScores(t *testing.T) {
	fc := loadFixture(t)
	stats := []RegionStat{{Region: "Шымкент", Mean: 70.1, Count: 3}}
	cov := MatchRegions(stats, fc, "name", nil)

	path := filepath.Join(t.TempDir(), "merged.geojson")
	if err := WriteMerged(path, cov); err != nil {
		t.Fatalf("write merged: %v", err)
	}
	merged, err := LoadBoundaries(path)
	if err != nil {
		t.Fatalf("reload merged: %v", err)
	}
	if len(merged.Features) != 1 {
		t.Fatalf("merged features = %d, want 1", len(merged.Features))
	}
	props := merged.Features[0].Properties
	if props["score_mean"] != 70.1 || props["score_count"] != float64(3) {
		t.Fatalf("injected properties = %v", props)
	}
	// Source geometry must pass through untouched.
	var geom struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(merged.Features[0].Geometry, &geom); err != nil || geom.Type != "Point" {
		t.Fatalf("geometry lost in merge: %v %q", err, geom.Type)
	}
	// The original collection must not have been mutated.
	if _, leaked := fc.Features[2].Properties["score_mean"]; leaked {
		t.Fatalf("merge must copy properties, not mutate the source")
	}
}
