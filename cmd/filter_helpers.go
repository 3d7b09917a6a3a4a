package cmd

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quatqasymbek/ai-course-dash/internal/dataset"
	"github.com/quatqasymbek/ai-course-dash/internal/filter"
	"github.com/quatqasymbek/ai-course-dash/internal/preset"
	"github.com/quatqasymbek/ai-course-dash/internal/utils"
)

// filterFlags carries the shared dataset/filter flag values of one analysis
// command. Each command owns an instance so flag state never crosses
// subcommands.
type filterFlags struct {
	data     string
	view     string
	region   []string
	district []string
	org      []string
	where    []string
	ageMin   float64
	ageMax   float64
}

// addFilterFlags registers the shared filter flag set on an analysis command.
func addFilterFlags(cmd *cobra.Command, ff *filterFlags) {
	f := cmd.Flags()
	f.StringVar(&ff.data, "data", "", "data file (default from config)")
	f.StringVar(&ff.view, "view", "", "start from a saved view")
	f.StringArrayVar(&ff.region, "region", nil, "filter by region (repeatable)")
	f.StringArrayVar(&ff.district, "district", nil, "filter by district (repeatable)")
	f.StringArrayVar(&ff.org, "org", nil, "filter by organization (repeatable)")
	f.StringArrayVar(&ff.where, "where", nil, "independent filter col=v1|v2 (repeatable; 'col=' clears)")
	f.Float64Var(&ff.ageMin, "age-min", 0, "minimum age, inclusive")
	f.Float64Var(&ff.ageMax, "age-max", 0, "maximum age, inclusive")
}

// parseWhere turns repeated col=v1|v2 expressions into independent
// selections. "col=" is the explicit cleared state (matches nothing); a
// later expression for the same column replaces the earlier one.
func parseWhere(exprs []string) (map[string]filter.Selection, error) {
	out := make(map[string]filter.Selection, len(exprs))
	for _, expr := range exprs {
		col, vals, ok := strings.Cut(expr, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --where %q (want col=v1|v2)", expr)
		}
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, fmt.Errorf("invalid --where %q: empty column name", expr)
		}
		sel := filter.Selection{}
		for _, v := range strings.Split(vals, "|") {
			if v = strings.TrimSpace(v); v != "" {
				sel = append(sel, v)
			}
		}
		out[col] = sel
	}
	return out, nil
}

// state assembles the filter state for one invocation: the saved view first
// when --view is given, then explicit flags override field by field.
func (ff *filterFlags) state(cmd *cobra.Command) (*filter.State, error) {
	st := &filter.State{}
	if ff.view != "" {
		p, err := preset.NewStore(cfg.ViewsDir).Get(ff.view)
		if err != nil {
			return nil, err
		}
		st = p.State()
	}
	f := cmd.Flags()
	if f.Changed("region") {
		st.Region = filter.Selection(ff.region)
	}
	if f.Changed("district") {
		st.District = filter.Selection(ff.district)
	}
	if f.Changed("org") {
		st.Organization = filter.Selection(ff.org)
	}
	if f.Changed("where") {
		ind, err := parseWhere(ff.where)
		if err != nil {
			return nil, err
		}
		if st.Independent == nil {
			st.Independent = make(map[string]filter.Selection, len(ind))
		}
		for col, sel := range ind {
			st.Independent[col] = sel
		}
	}
	if f.Changed("age-min") || f.Changed("age-max") {
		r := &filter.Range{Min: math.Inf(-1), Max: math.Inf(1)}
		if st.Age != nil {
			*r = *st.Age
		}
		if f.Changed("age-min") {
			r.Min = ff.ageMin
		}
		if f.Changed("age-max") {
			r.Max = ff.ageMax
		}
		st.Age = r
	}
	st.AgeColumn = cfg.AgeColumn
	if len(cfg.GeoColumns) == 3 {
		st.Geo = [3]string{cfg.GeoColumns[0], cfg.GeoColumns[1], cfg.GeoColumns[2]}
	}
	return st, nil
}

// stateGeoColumns resolves the cascade column names in effect for a state.
func stateGeoColumns(st *filter.State) [3]string {
	if st != nil && st.Geo != ([3]string{}) {
		return st.Geo
	}
	return filter.GeoColumns
}

// loadTableFrom resolves and loads a data file through the shared cache.
// An empty path falls back to the configured one.
func loadTableFrom(path string) (*dataset.Table, error) {
	if path == "" {
		path = cfg.DataPath
	}
	resolved, err := utils.FindDataFile(path)
	if err != nil {
		return nil, err
	}
	if debug {
		fmt.Fprintf(os.Stderr, "debug: data file %s\n", resolved)
	}
	opt := dataset.LoadOptions{
		Outcome: cfg.OutcomeColumn,
		Numeric: []string{cfg.AgeColumn},
		Sheet:   cfg.SheetName,
	}
	if cfg.CSVDelimiter != "" {
		opt.Delimiter = []rune(cfg.CSVDelimiter)[0]
	}
	t, err := dataCache.Load(resolved, opt)
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	return t, nil
}

func (ff *filterFlags) loadTable() (*dataset.Table, error) {
	return loadTableFrom(ff.data)
}

// filteredView runs the whole pipeline for one invocation: state assembly,
// load, filter. Returns the scored view, the state, and its echo lines.
func (ff *filterFlags) filteredView(cmd *cobra.Command) (*dataset.View, *filter.State, []string, error) {
	st, err := ff.state(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	t, err := ff.loadTable()
	if err != nil {
		return nil, nil, nil, err
	}
	v, err := filter.Apply(t, st, cfg.OutcomeColumn)
	if err != nil {
		return nil, nil, nil, err
	}
	return v, st, describeState(st), nil
}

// describeState renders one echo line per active filter: cascade stages in
// order, independent columns sorted by name, the age range last.
func describeState(st *filter.State) []string {
	if st == nil {
		return nil
	}
	var lines []string
	geo := stateGeoColumns(st)
	for i, sel := range [3]filter.Selection{st.Region, st.District, st.Organization} {
		if len(sel) > 0 {
			lines = append(lines, fmt.Sprintf("%s: %s", geo[i], strings.Join(sel, ", ")))
		}
	}
	cols := make([]string, 0, len(st.Independent))
	for col := range st.Independent {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		sel := st.Independent[col]
		switch {
		case sel == nil:
		case len(sel) == 0:
			lines = append(lines, fmt.Sprintf("%s: (cleared)", col))
		default:
			lines = append(lines, fmt.Sprintf("%s: %s", col, strings.Join(sel, ", ")))
		}
	}
	if st.Age != nil {
		col := st.AgeColumn
		if col == "" {
			col = "Возраст"
		}
		lo, hi := math.IsInf(st.Age.Min, -1), math.IsInf(st.Age.Max, 1)
		switch {
		case !lo && !hi:
			lines = append(lines, fmt.Sprintf("%s: %s–%s", col, fmtBound(st.Age.Min), fmtBound(st.Age.Max)))
		case !lo:
			lines = append(lines, fmt.Sprintf("%s: ≥ %s", col, fmtBound(st.Age.Min)))
		case !hi:
			lines = append(lines, fmt.Sprintf("%s: ≤ %s", col, fmtBound(st.Age.Max)))
		}
	}
	return lines
}

func fmtBound(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// printFilters echoes the active filters above a command's output.
func printFilters(lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Println("Active filters:")
	for _, l := range lines {
		fmt.Printf("  %s\n", l)
	}
}

// outcomeValues collects the numeric outcome column of a view.
func outcomeValues(v *dataset.View) []float64 {
	vals := make([]float64, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		if f, ok := v.Float(i, cfg.OutcomeColumn); ok {
			vals = append(vals, f)
		}
	}
	return vals
}
