package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quatqasymbek/ai-course-dash/internal/ordinal"
	"github.com/quatqasymbek/ai-course-dash/internal/stats"
)

var (
	rankFilters filterFlags
	rankBy      string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank categories by ascending mean outcome",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _, lines, err := rankFilters.filteredView(cmd)
		if err != nil {
			return err
		}
		rows, err := stats.Rank(v, cfg.OutcomeColumn, rankBy, ordinal.Default(), cfg.HighlightTerms)
		if err != nil {
			return err
		}
		printFilters(lines)
		term.Headerf("Ranking by %s (ascending mean)", rankBy)
		term.Ranking(rankBy, rows)
		for _, row := range rows {
			if row.Highlight {
				fmt.Printf("  * matches: %s\n", strings.Join(cfg.HighlightTerms, ", "))
				break
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
	addFilterFlags(rankCmd, &rankFilters)
	rankCmd.Flags().StringVar(&rankBy, "by", "Должность", "ranking column")
}
