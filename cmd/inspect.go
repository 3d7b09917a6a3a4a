package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quatqasymbek/ai-course-dash/internal/stats"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Describe the dataset: rows, columns, outcome coverage",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		t, err := loadTableFrom(path)
		if err != nil {
			return err
		}
		v := t.All()
		term.Successf("loaded %s: %d rows, %d columns", t.Path(), t.NumRows(), len(t.Header()))

		rows := make([][]string, 0, len(t.Header()))
		for _, col := range t.Header() {
			distinct := len(v.DistinctWithNull(col))
			rows = append(rows, []string{col, strconv.Itoa(distinct), columnRole(col)})
		}
		term.Table([]string{"Column", "Distinct", "Role"}, rows)

		term.Headerf("Outcome: %s", cfg.OutcomeColumn)
		term.Summary(stats.Summarize(v, cfg.OutcomeColumn))
		return nil
	},
}

// columnRole classifies a column by the configured column sets so the
// overview shows which filters it can drive.
func columnRole(col string) string {
	switch col {
	case cfg.OutcomeColumn:
		return "outcome"
	case cfg.AgeColumn:
		return "age"
	}
	for _, c := range cfg.GeoColumns {
		if c == col {
			return "geo"
		}
	}
	for _, c := range cfg.DemographicColumns {
		if c == col {
			return "demographic"
		}
	}
	for _, c := range cfg.ProfessionalColumns {
		if c == col {
			return "professional"
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
