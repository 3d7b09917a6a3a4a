package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cfgpkg "github.com/quatqasymbek/ai-course-dash/internal/config"
	"github.com/quatqasymbek/ai-course-dash/internal/dataset"
	"github.com/quatqasymbek/ai-course-dash/internal/filter"
	"github.com/quatqasymbek/ai-course-dash/internal/stats"
)

// resetFlags restores defaults and Changed state so flag values never leak
// between Execute calls in one process.
func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func resetCommandTree(c *cobra.Command) {
	resetFlags(c.Flags())
	resetFlags(c.PersistentFlags())
	for _, sub := range c.Commands() {
		resetCommandTree(sub)
	}
}

// tryCmd executes the root command with args and returns its error.
func tryCmd(args ...string) error {
	resetCommandTree(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// runCmd executes the root command with args, failing the test on error.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := tryCmd(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

// tempHome points HOME at a fresh directory so config and views are
// isolated per test.
func tempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	oldHome := os.Getenv("HOME")
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })
	os.Setenv("HOME", home)
	return home
}

// writeFixtureCSV writes a small exam-results file and returns its path.
// One row has a non-numeric outcome and is dropped by the pipeline; one has
// a missing Пол and a missing Возраст but a valid score.
func writeFixtureCSV(t *testing.T, dir string) string {
	t.Helper()
	rows := []string{
		"Область,Район,Организация,Пол,Должность,Возрастная группа,Возраст,Итоговый балл",
		"Регион А,Район 1,Школа 1,Ж,учитель математики,20-29,28,90",
		"Регион А,Район 1,Школа 1,М,директор,40-49,45,70",
		"Регион А,Район 2,Школа 2,Ж,учитель истории,30-39,35,85",
		"Регион Б,Район 3,Школа 3,М,завуч,30-39,38,60",
		"Регион Б,Район 3,Школа 3,Ж,учитель физики,20-29,26,75",
		"Регион Б,Район 4,Школа 4,М,преподаватель,50-59,55,80",
		"Регион А,Район 2,Школа 2,,учитель химии,40-49,,65",
		"Регион Б,Район 4,Школа 4,Ж,лаборант,20-29,24,abc",
	}
	path := filepath.Join(dir, "results.csv")
	if err := os.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// reloadRows loads an exported artifact and returns its row count.
func reloadRows(t *testing.T, path string) int {
	t.Helper()
	tbl, err := dataset.Load(path, dataset.LoadOptions{})
	if err != nil {
		t.Fatalf("reload %s: %v", path, err)
	}
	return tbl.NumRows()
}

func TestCLIExportRoundTrip(t *testing.T) {
	home := tempHome(t)
	csv := writeFixtureCSV(t, home)
	out := filepath.Join(home, "out.csv")

	runCmd(t, "export", "--data", csv, "-o", out)

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("exported CSV is missing the UTF-8 BOM")
	}
	if rows := reloadRows(t, out); rows != 7 {
		t.Errorf("reloaded %d rows, want 7 (non-numeric outcome dropped)", rows)
	}
	if _, err := os.Stat(out + ".manifest.json"); err != nil {
		t.Errorf("manifest sidecar missing: %v", err)
	}
}

func TestCLIExportColumnSubsetXLSX(t *testing.T) {
	home := tempHome(t)
	csv := writeFixtureCSV(t, home)
	out := filepath.Join(home, "subset.xlsx")

	runCmd(t, "export", "--data", csv, "--format", "xlsx", "-o", out,
		"--columns", "Область,Итоговый балл", "--manifest=false")

	tbl, err := dataset.Load(out, dataset.LoadOptions{})
	if err != nil {
		t.Fatalf("reload xlsx: %v", err)
	}
	if tbl.NumRows() != 7 || len(tbl.Header()) != 2 {
		t.Errorf("reloaded %d rows × %d columns, want 7 × 2", tbl.NumRows(), len(tbl.Header()))
	}
	if _, err := os.Stat(out + ".manifest.json"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("manifest should be skipped with --manifest=false, stat err = %v", err)
	}
}

func TestCLIFilterFlagsNarrowExport(t *testing.T) {
	home := tempHome(t)
	csv := writeFixtureCSV(t, home)

	out := filepath.Join(home, "women_a.csv")
	runCmd(t, "export", "--data", csv, "-o", out, "--region", "Регион А", "--where", "Пол=Ж")
	if rows := reloadRows(t, out); rows != 2 {
		t.Errorf("region+where export kept %d rows, want 2", rows)
	}

	out2 := filepath.Join(home, "young_a.csv")
	runCmd(t, "export", "--data", csv, "-o", out2, "--region", "Регион А", "--age-max", "30")
	if rows := reloadRows(t, out2); rows != 1 {
		t.Errorf("age-bounded export kept %d rows, want 1 (missing ages never match)", rows)
	}

	err := tryCmd("export", "--data", csv, "-o", filepath.Join(home, "none.csv"), "--where", "Пол=")
	if !errors.Is(err, filter.ErrNoData) {
		t.Errorf("cleared selection should yield ErrNoData, got %v", err)
	}
}

func TestCLINoDataIsWarning(t *testing.T) {
	home := tempHome(t)
	csv := writeFixtureCSV(t, home)

	err := tryCmd("summary", "--data", csv, "--where", "Пол=Никто")
	if !errors.Is(err, filter.ErrNoData) {
		t.Fatalf("want ErrNoData, got %v", err)
	}
}

func TestCLISummaryGroupsRankCompare(t *testing.T) {
	home := tempHome(t)
	csv := writeFixtureCSV(t, home)

	runCmd(t, "summary", "--data", csv, "--top", "3")
	runCmd(t, "groups", "--data", csv, "--by", "Пол", "--stats", "median,std", "--sort", "value-desc")
	runCmd(t, "groups", "--data", csv, "--by", "Пол,Область", "--matrix")
	runCmd(t, "groups", "--data", csv, "--by", "Возрастная группа", "--md")
	runCmd(t, "rank", "--data", csv, "--by", "Должность")
	runCmd(t, "compare", "--data", csv, "--dim", "Пол", "--a", "Ж", "--b", "М", "--by", "Область")

	err := tryCmd("groups", "--data", csv, "--by", "Нет такой")
	if !errors.Is(err, stats.ErrUnknownColumn) {
		t.Errorf("want ErrUnknownColumn for a bad grouping column, got %v", err)
	}
}

func TestCLIViewsLifecycle(t *testing.T) {
	home := tempHome(t)
	csv := writeFixtureCSV(t, home)

	runCmd(t, "views", "save", "north", "--region", "Регион А", "--desc", "northern slice")
	if _, err := os.Stat(filepath.Join(home, ".coursedash", "views", "views.json")); err != nil {
		t.Fatalf("views store missing: %v", err)
	}
	runCmd(t, "views", "list")

	out := filepath.Join(home, "north.csv")
	runCmd(t, "export", "--data", csv, "--view", "north", "-o", out)
	if rows := reloadRows(t, out); rows != 4 {
		t.Errorf("view export kept %d rows, want 4", rows)
	}

	// Explicit flags override individual view selections.
	out2 := filepath.Join(home, "south.csv")
	runCmd(t, "export", "--data", csv, "--view", "north", "--region", "Регион Б", "-o", out2)
	if rows := reloadRows(t, out2); rows != 3 {
		t.Errorf("overridden view export kept %d rows, want 3", rows)
	}

	runCmd(t, "views", "delete", "north")
	if err := tryCmd("views", "delete", "north"); err == nil {
		t.Error("deleting a missing view should fail")
	}
}

func TestCLIChartsArtifacts(t *testing.T) {
	home := tempHome(t)
	csv := writeFixtureCSV(t, home)
	dir := filepath.Join(home, "charts")

	runCmd(t, "charts", "--data", csv, "--types", "hist,bar,box", "--by", "Возрастная группа",
		"--bins", "12", "--out-dir", dir)

	for _, name := range []string{"score_hist.png", "mean_bar_Возрастная_группа.png", "box_Возрастная_группа.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("chart %s missing: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("chart %s is empty", name)
		}
	}

	if err := tryCmd("charts", "--data", csv, "--types", "bar"); err == nil {
		t.Error("bar chart without --by should fail")
	}
	if err := tryCmd("charts", "--data", csv, "--types", "pie"); err == nil {
		t.Error("unknown chart type should fail")
	}
}

func TestCLIReportWithCharts(t *testing.T) {
	home := tempHome(t)
	csv := writeFixtureCSV(t, home)
	outMD := filepath.Join(home, "reports", "analysis.md")

	runCmd(t, "report", "--data", csv, "-o", outMD, "--charts",
		"--matrix", "Пол,Область", "--dim", "Пол", "--a", "Ж", "--b", "М", "--by", "Область")

	b, err := os.ReadFile(outMD)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	got := string(b)
	for _, want := range []string{
		"# Performance Analysis Report",
		"## Summary",
		"## Top Organizations",
		"## Mean Matrix: Пол × Область",
		"## Ranking by Должность",
		"## Comparison by Пол: Ж vs М",
		"![score_hist](charts/score_hist.png)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if _, err := os.Stat(filepath.Join(home, "reports", "charts", "score_hist.png")); err != nil {
		t.Errorf("report chart missing: %v", err)
	}
}

const testBoundaries = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Region A"}, "geometry": {"type": "Point", "coordinates": [70.1, 48.2]}},
    {"type": "Feature", "properties": {"name": "Регион Б"}, "geometry": {"type": "Point", "coordinates": [71.4, 51.1]}}
  ]
}`

func TestCLIGeoCoverage(t *testing.T) {
	home := tempHome(t)
	csv := writeFixtureCSV(t, home)

	// Translation table comes from the config file.
	cfgDir := filepath.Join(home, ".coursedash")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	cfgYAML := "region_translation:\n  \"Регион А\": \"Region A\"\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(cfgYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	bpath := filepath.Join(home, "boundaries.geojson")
	if err := os.WriteFile(bpath, []byte(testBoundaries), 0o644); err != nil {
		t.Fatalf("write boundaries: %v", err)
	}

	merged := filepath.Join(home, "merged.geojson")
	runCmd(t, "geo", "--data", csv, "--boundaries", bpath, "--merged", merged)

	b, err := os.ReadFile(merged)
	if err != nil {
		t.Fatalf("read merged artifact: %v", err)
	}
	for _, want := range []string{"Region A", "Регион Б", "score_mean", "score_count"} {
		if !strings.Contains(string(b), want) {
			t.Errorf("merged artifact missing %q", want)
		}
	}

	// A missing boundaries file only disables the map layer.
	runCmd(t, "geo", "--data", csv, "--boundaries", filepath.Join(home, "missing.geojson"))
	// No boundaries configured at all: same.
	runCmd(t, "geo", "--data", csv)
}

func TestCLIInspect(t *testing.T) {
	home := tempHome(t)
	csv := writeFixtureCSV(t, home)

	runCmd(t, "inspect", csv)

	if err := tryCmd("inspect", filepath.Join(home, "nope.csv")); err == nil {
		t.Error("inspecting a missing file should fail")
	}
}

func TestCLIConfigFlow(t *testing.T) {
	home := tempHome(t)
	csv := writeFixtureCSV(t, home)

	runCmd(t, "config", "init")
	if _, err := os.Stat(filepath.Join(home, ".coursedash", "config.yaml")); err != nil {
		t.Fatalf("config file missing after init: %v", err)
	}

	runCmd(t, "config", "set", "hist_bins", "42")
	c, err := cfgpkg.Load("")
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if c.HistBins != 42 {
		t.Errorf("hist_bins = %d, want 42", c.HistBins)
	}

	if err := tryCmd("config", "set", "nope", "x"); err == nil {
		t.Error("unknown config key should fail")
	}
	if err := tryCmd("config", "set", "geo_columns", "a,b"); err == nil {
		t.Error("geo_columns with two entries should fail")
	}

	// Commands pick the data file up from config once set.
	runCmd(t, "config", "set", "data_path", csv)
	runCmd(t, "summary")
	runCmd(t, "config", "show")
}
