package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quatqasymbek/ai-course-dash/internal/ordinal"
	"github.com/quatqasymbek/ai-course-dash/internal/report"
	"github.com/quatqasymbek/ai-course-dash/internal/stats"
	"github.com/quatqasymbek/ai-course-dash/internal/utils"
)

var (
	chFilters filterFlags
	chTypes   string
	chBy      string
	chBins    int
	chOutDir  string
)

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "Render chart artifacts for the filtered view",
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := splitList(chTypes)
		if len(kinds) == 0 {
			return fmt.Errorf("--types must name at least one of hist, bar, box")
		}
		for _, kind := range kinds {
			switch kind {
			case "hist", "bar", "box":
			default:
				return fmt.Errorf("unknown chart type %q (want hist, bar, box)", kind)
			}
			if (kind == "bar" || kind == "box") && chBy == "" {
				return fmt.Errorf("chart type %q needs --by", kind)
			}
		}

		v, _, lines, err := chFilters.filteredView(cmd)
		if err != nil {
			return err
		}
		printFilters(lines)

		outDir := chOutDir
		if outDir == "" {
			outDir = cfg.ExportDir
		}
		if err := utils.EnsureDir(outDir); err != nil {
			return fmt.Errorf("ensure chart dir: %w", err)
		}
		opt := report.ChartOptions{WidthIn: cfg.ChartWidthIn, HeightIn: cfg.ChartHeightIn}
		bins := chBins
		if bins <= 0 {
			bins = cfg.HistBins
		}

		reg := ordinal.Default()
		for i, kind := range kinds {
			var path string
			switch kind {
			case "hist":
				path = filepath.Join(outDir, "score_hist.png")
				err = report.HistogramPNG(path, "Distribution: "+cfg.OutcomeColumn, cfg.OutcomeColumn, outcomeValues(v), bins, opt)
			case "bar":
				path = filepath.Join(outDir, chartFileName("mean_bar", chBy))
				var gt *stats.GroupTable
				if gt, err = stats.GroupBy(v, cfg.OutcomeColumn, []string{chBy}, reg, stats.Options{}); err == nil {
					err = report.MeanBarPNG(path, fmt.Sprintf("Mean %s by %s", cfg.OutcomeColumn, chBy), gt, opt)
				}
			case "box":
				path = filepath.Join(outDir, chartFileName("box", chBy))
				var labels []string
				var groups [][]float64
				if labels, groups, err = stats.GroupValues(v, cfg.OutcomeColumn, chBy, reg); err == nil {
					err = report.BoxPNG(path, fmt.Sprintf("%s by %s", cfg.OutcomeColumn, chBy), cfg.OutcomeColumn, labels, groups, opt)
				}
			}
			if err != nil {
				return err
			}
			term.Successf("[%d/%d] %s → %s", i+1, len(kinds), kind, path)
		}
		return nil
	},
}

// chartFileName derives an artifact name from a column, keeping it safe for
// plain filesystems.
func chartFileName(prefix, col string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\':
			return '_'
		}
		return r
	}, col)
	return fmt.Sprintf("%s_%s.png", prefix, safe)
}

func init() {
	rootCmd.AddCommand(chartsCmd)
	addFilterFlags(chartsCmd, &chFilters)
	chartsCmd.Flags().StringVar(&chTypes, "types", "hist", "chart types: hist,bar,box")
	chartsCmd.Flags().StringVar(&chBy, "by", "", "grouping column for bar/box charts")
	chartsCmd.Flags().IntVar(&chBins, "bins", 0, "histogram bins (default from config)")
	chartsCmd.Flags().StringVar(&chOutDir, "out-dir", "", "output directory (default export_dir)")
}
