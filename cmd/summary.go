package cmd

import (
	"github.com/spf13/cobra"

	"github.com/quatqasymbek/ai-course-dash/internal/ordinal"
	"github.com/quatqasymbek/ai-course-dash/internal/stats"
)

var (
	sumFilters filterFlags
	sumTop     int
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the filtered view, with top/bottom organizations",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, st, lines, err := sumFilters.filteredView(cmd)
		if err != nil {
			return err
		}
		printFilters(lines)

		term.Headerf("Summary")
		term.Summary(stats.Summarize(v, cfg.OutcomeColumn))

		orgCol := stateGeoColumns(st)[2]
		if !v.HasColumn(orgCol) || sumTop <= 0 {
			return nil
		}
		gt, err := stats.GroupBy(v, cfg.OutcomeColumn, []string{orgCol}, ordinal.Default(), stats.Options{})
		if err != nil {
			return err
		}
		top, bottom := stats.TopBottom(gt, sumTop)
		if len(top) > 0 {
			term.Headerf("Top %d — %s", len(top), orgCol)
			term.GroupTable(&stats.GroupTable{Columns: []string{orgCol}, Rows: top})
		}
		if len(bottom) > 0 {
			term.Headerf("Bottom %d — %s", len(bottom), orgCol)
			term.GroupTable(&stats.GroupTable{Columns: []string{orgCol}, Rows: bottom})
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	addFilterFlags(summaryCmd, &sumFilters)
	summaryCmd.Flags().IntVar(&sumTop, "top", 5, "top/bottom organization count (0 disables)")
}
