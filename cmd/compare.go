package cmd

import (
	"github.com/spf13/cobra"

	"github.com/quatqasymbek/ai-course-dash/internal/ordinal"
	"github.com/quatqasymbek/ai-course-dash/internal/stats"
)

var (
	cmpFilters filterFlags
	cmpDim     string
	cmpA       string
	cmpB       string
	cmpBy      string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two strata of one dimension",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _, lines, err := cmpFilters.filteredView(cmd)
		if err != nil {
			return err
		}
		c, err := stats.Compare(v, cfg.OutcomeColumn, cmpDim, cmpA, cmpB, cmpBy, ordinal.Default())
		if err != nil {
			return err
		}
		printFilters(lines)
		term.Comparison(c)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	addFilterFlags(compareCmd, &cmpFilters)
	compareCmd.Flags().StringVar(&cmpDim, "dim", "", "dimension column to compare on")
	compareCmd.Flags().StringVar(&cmpA, "a", "", "stratum A level")
	compareCmd.Flags().StringVar(&cmpB, "b", "", "stratum B level")
	compareCmd.Flags().StringVar(&cmpBy, "by", "", "secondary breakdown column")
	_ = compareCmd.MarkFlagRequired("dim")
	_ = compareCmd.MarkFlagRequired("a")
	_ = compareCmd.MarkFlagRequired("b")
}
