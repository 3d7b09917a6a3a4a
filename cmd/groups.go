package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quatqasymbek/ai-course-dash/internal/ordinal"
	"github.com/quatqasymbek/ai-course-dash/internal/report"
	"github.com/quatqasymbek/ai-course-dash/internal/stats"
)

var (
	grpFilters filterFlags
	grpBy      string
	grpStats   string
	grpSort    string
	grpLimit   int
	grpMatrix  bool
	grpMD      bool
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Grouped statistics over one or two columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		cols := splitList(grpBy)
		if len(cols) < 1 || len(cols) > 2 {
			return fmt.Errorf("--by takes one or two comma-separated columns, got %q", grpBy)
		}
		opt, err := parseStats(grpStats)
		if err != nil {
			return err
		}
		mode, err := parseSortMode(grpSort)
		if err != nil {
			return err
		}

		v, _, lines, err := grpFilters.filteredView(cmd)
		if err != nil {
			return err
		}
		reg := ordinal.Default()
		gt, err := stats.GroupBy(v, cfg.OutcomeColumn, cols, reg, opt)
		if err != nil {
			return err
		}
		stats.Sort(gt, mode, reg)
		if grpLimit > 0 {
			stats.Limit(gt, grpLimit)
		}

		if grpMatrix {
			m, err := stats.Pivot(gt)
			if err != nil {
				return err
			}
			if grpMD {
				fmt.Print(report.MatrixMarkdown(m))
				return nil
			}
			printFilters(lines)
			term.Headerf("Mean %s: %s × %s", cfg.OutcomeColumn, m.RowDim, m.ColDim)
			term.Matrix(m)
			return nil
		}
		if grpMD {
			fmt.Print(report.GroupTableMarkdown(gt))
			return nil
		}
		printFilters(lines)
		term.Headerf("%s by %s", cfg.OutcomeColumn, strings.Join(cols, " × "))
		term.GroupTable(gt)
		return nil
	},
}

// splitList splits a comma-separated flag value, trimming whitespace and
// dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseStats(s string) (stats.Options, error) {
	var opt stats.Options
	for _, name := range splitList(s) {
		switch name {
		case "median":
			opt.Median = true
		case "std":
			opt.Std = true
		default:
			return opt, fmt.Errorf("unknown statistic %q (want median, std)", name)
		}
	}
	return opt, nil
}

func parseSortMode(s string) (stats.SortMode, error) {
	switch stats.SortMode(s) {
	case "", stats.SortByKey:
		return stats.SortByKey, nil
	case stats.SortByValueAsc, stats.SortByValueDesc, stats.SortByCount:
		return stats.SortMode(s), nil
	}
	return "", fmt.Errorf("unknown sort mode %q (want key, value, value-desc, count)", s)
}

func init() {
	rootCmd.AddCommand(groupsCmd)
	addFilterFlags(groupsCmd, &grpFilters)
	groupsCmd.Flags().StringVar(&grpBy, "by", "", "grouping column(s), comma-separated (max 2)")
	groupsCmd.Flags().StringVar(&grpStats, "stats", "", "extra statistics: median,std")
	groupsCmd.Flags().StringVar(&grpSort, "sort", "key", "sort mode: key, value, value-desc, count")
	groupsCmd.Flags().IntVar(&grpLimit, "limit", 0, "keep only the first N groups after sorting")
	groupsCmd.Flags().BoolVar(&grpMatrix, "matrix", false, "pivot two grouping columns into a mean matrix")
	groupsCmd.Flags().BoolVar(&grpMD, "md", false, "emit Markdown instead of a terminal table")
	_ = groupsCmd.MarkFlagRequired("by")
}
