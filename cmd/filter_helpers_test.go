package cmd

import (
	"math"
	"testing"

	"github.com/spf13/cobra"

	cfgpkg "github.com/quatqasymbek/ai-course-dash/internal/config"
	"github.com/quatqasymbek/ai-course-dash/internal/filter"
	"github.com/quatqasymbek/ai-course-dash/internal/preset"
)

func newFilterCmd() (*cobra.Command, *filterFlags) {
	ff := &filterFlags{}
	cmd := &cobra.Command{Use: "probe"}
	addFilterFlags(cmd, ff)
	return cmd, ff
}

func TestParseWhere(t *testing.T) {
	sels, err := parseWhere([]string{"Пол=Ж", "Должность=учитель | директор", "Категория="})
	if err != nil {
		t.Fatalf("parseWhere: %v", err)
	}
	if got := sels["Пол"]; len(got) != 1 || got[0] != "Ж" {
		t.Errorf("Пол selection = %v", got)
	}
	if got := sels["Должность"]; len(got) != 2 || got[0] != "учитель" || got[1] != "директор" {
		t.Errorf("Должность selection = %v", got)
	}
	cleared := sels["Категория"]
	if cleared == nil || len(cleared) != 0 {
		t.Errorf("want explicit cleared selection, got %#v", cleared)
	}

	if _, err := parseWhere([]string{"Пол"}); err == nil {
		t.Error("want error for expression without '='")
	}
	if _, err := parseWhere([]string{"=Ж"}); err == nil {
		t.Error("want error for empty column name")
	}
}

func TestParseWhereLastWins(t *testing.T) {
	sels, err := parseWhere([]string{"Пол=Ж", "Пол=М"})
	if err != nil {
		t.Fatalf("parseWhere: %v", err)
	}
	if got := sels["Пол"]; len(got) != 1 || got[0] != "М" {
		t.Errorf("want the later expression to win, got %v", got)
	}
}

func TestStateFromFlags(t *testing.T) {
	cfg = cfgpkg.Default()
	cmd, ff := newFilterCmd()
	args := []string{"--region", "Регион А", "--region", "Регион Б", "--where", "Пол=Ж", "--age-min", "30"}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	st, err := ff.state(cmd)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(st.Region) != 2 || st.Region[0] != "Регион А" || st.Region[1] != "Регион Б" {
		t.Errorf("Region = %v", st.Region)
	}
	if got := st.Independent["Пол"]; len(got) != 1 || got[0] != "Ж" {
		t.Errorf("Independent[Пол] = %v", got)
	}
	if st.Age == nil || st.Age.Min != 30 || !math.IsInf(st.Age.Max, 1) {
		t.Errorf("Age = %+v", st.Age)
	}
	if st.AgeColumn != cfg.AgeColumn {
		t.Errorf("AgeColumn = %q", st.AgeColumn)
	}
	if st.Geo != [3]string{"Область", "Район", "Организация"} {
		t.Errorf("Geo = %v", st.Geo)
	}
}

func TestStatePresetOverride(t *testing.T) {
	cfg = cfgpkg.Default()
	cfg.ViewsDir = t.TempDir()
	base := &filter.State{
		Region:      filter.Selection{"Регион А"},
		Independent: map[string]filter.Selection{"Пол": {"Ж"}},
		Age:         &filter.Range{Min: 25, Max: 55},
	}
	if err := preset.NewStore(cfg.ViewsDir).Save(preset.FromState("base", "", base)); err != nil {
		t.Fatalf("save preset: %v", err)
	}

	cmd, ff := newFilterCmd()
	if err := cmd.ParseFlags([]string{"--view", "base", "--region", "Регион Б", "--age-max", "40"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	st, err := ff.state(cmd)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(st.Region) != 1 || st.Region[0] != "Регион Б" {
		t.Errorf("want the flag to override the view region, got %v", st.Region)
	}
	if got := st.Independent["Пол"]; len(got) != 1 || got[0] != "Ж" {
		t.Errorf("want the view's independent selection preserved, got %v", got)
	}
	if st.Age == nil || st.Age.Min != 25 || st.Age.Max != 40 {
		t.Errorf("want Min from the view and Max from the flag, got %+v", st.Age)
	}
}

func TestStateUnknownView(t *testing.T) {
	cfg = cfgpkg.Default()
	cfg.ViewsDir = t.TempDir()
	cmd, ff := newFilterCmd()
	if err := cmd.ParseFlags([]string{"--view", "nope"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if _, err := ff.state(cmd); err == nil {
		t.Fatal("want error for unknown view")
	}
}

func TestDescribeState(t *testing.T) {
	st := &filter.State{
		Region: filter.Selection{"Регион А"},
		Independent: map[string]filter.Selection{
			"Пол":       {"Ж", "М"},
			"Категория": {},
		},
		Age: &filter.Range{Min: 30, Max: math.Inf(1)},
	}
	lines := describeState(st)
	want := []string{
		"Область: Регион А",
		"Категория: (cleared)",
		"Пол: Ж, М",
		"Возраст: ≥ 30",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}

	if got := describeState(&filter.State{}); len(got) != 0 {
		t.Errorf("empty state lines = %v", got)
	}
}
