package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/quatqasymbek/ai-course-dash/internal/ordinal"
	"github.com/quatqasymbek/ai-course-dash/internal/report"
	"github.com/quatqasymbek/ai-course-dash/internal/stats"
	"github.com/quatqasymbek/ai-course-dash/internal/utils"
)

var (
	repFilters filterFlags
	repOutput  string
	repCharts  bool
	repTop     int
	repMatrix  string
	repRankBy  string
	repDim     string
	repA       string
	repB       string
	repBy      string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a full Markdown report for the filtered view",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, st, lines, err := repFilters.filteredView(cmd)
		if err != nil {
			return err
		}
		outPath := repOutput
		if outPath == "" {
			name := fmt.Sprintf("report_%s.md", time.Now().Format("20060102_150405"))
			outPath = filepath.Join(cfg.ExportDir, name)
		}
		if err := utils.EnsureDir(filepath.Dir(outPath)); err != nil {
			return fmt.Errorf("ensure report dir: %w", err)
		}

		reg := ordinal.Default()
		doc := report.NewDocument(v.Table().Path(), cfg.OutcomeColumn)
		doc.Filters = lines
		s := stats.Summarize(v, cfg.OutcomeColumn)
		doc.Summary = &s

		orgCol := stateGeoColumns(st)[2]
		if v.HasColumn(orgCol) && repTop > 0 {
			gt, err := stats.GroupBy(v, cfg.OutcomeColumn, []string{orgCol}, reg, stats.Options{})
			if err != nil {
				return err
			}
			doc.OrgColumn = orgCol
			doc.TopOrgs, doc.BottomOrgs = stats.TopBottom(gt, repTop)
		}

		// One grouped section per configured column present in the data.
		sectionCols := append(append([]string{}, cfg.DemographicColumns...), cfg.ProfessionalColumns...)
		for _, col := range v.Table().Available(sectionCols) {
			gt, err := stats.GroupBy(v, cfg.OutcomeColumn, []string{col}, reg, stats.Options{Median: true, Std: true})
			if err != nil {
				return err
			}
			doc.Groups = append(doc.Groups, report.GroupSection{Title: col, Table: gt})
		}

		if repMatrix != "" {
			dims := splitList(repMatrix)
			if len(dims) != 2 {
				return fmt.Errorf("--matrix takes two comma-separated columns, got %q", repMatrix)
			}
			gt, err := stats.GroupBy(v, cfg.OutcomeColumn, dims, reg, stats.Options{})
			if err != nil {
				return err
			}
			if doc.Matrix, err = stats.Pivot(gt); err != nil {
				return err
			}
		}

		if v.HasColumn(repRankBy) {
			rows, err := stats.Rank(v, cfg.OutcomeColumn, repRankBy, reg, cfg.HighlightTerms)
			if err != nil {
				return err
			}
			doc.RankColumn = repRankBy
			doc.Ranking = rows
		}

		if repDim != "" {
			if repA == "" || repB == "" {
				return fmt.Errorf("--dim needs both --a and --b")
			}
			c, err := stats.Compare(v, cfg.OutcomeColumn, repDim, repA, repB, repBy, reg)
			if err != nil {
				return err
			}
			doc.Comparison = c
		}

		if repCharts {
			chartsDir := filepath.Join(filepath.Dir(outPath), "charts")
			if err := utils.EnsureDir(chartsDir); err != nil {
				return fmt.Errorf("ensure charts dir: %w", err)
			}
			opt := report.ChartOptions{WidthIn: cfg.ChartWidthIn, HeightIn: cfg.ChartHeightIn}

			histPath := filepath.Join(chartsDir, "score_hist.png")
			if err := report.HistogramPNG(histPath, "Distribution: "+cfg.OutcomeColumn, cfg.OutcomeColumn, outcomeValues(v), cfg.HistBins, opt); err != nil {
				return err
			}
			doc.Charts = append(doc.Charts, "charts/"+filepath.Base(histPath))
			term.Successf("chart → %s", histPath)

			// One bar chart for the first demographic column in the data.
			if cols := v.Table().Available(cfg.DemographicColumns); len(cols) > 0 {
				col := cols[0]
				gt, err := stats.GroupBy(v, cfg.OutcomeColumn, []string{col}, reg, stats.Options{})
				if err != nil {
					return err
				}
				barPath := filepath.Join(chartsDir, chartFileName("mean_bar", col))
				if err := report.MeanBarPNG(barPath, fmt.Sprintf("Mean %s by %s", cfg.OutcomeColumn, col), gt, opt); err != nil {
					return err
				}
				doc.Charts = append(doc.Charts, "charts/"+filepath.Base(barPath))
				term.Successf("chart → %s", barPath)
			}
		}

		if err := doc.WriteFile(outPath); err != nil {
			return err
		}
		term.Successf("report → %s", outPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	addFilterFlags(reportCmd, &repFilters)
	reportCmd.Flags().StringVarP(&repOutput, "output", "o", "", "report path (default timestamped in export_dir)")
	reportCmd.Flags().BoolVar(&repCharts, "charts", false, "render chart artifacts next to the report")
	reportCmd.Flags().IntVar(&repTop, "top", 5, "top/bottom organization count (0 disables)")
	reportCmd.Flags().StringVar(&repMatrix, "matrix", "", "pivot matrix dimensions: ROW,COL")
	reportCmd.Flags().StringVar(&repRankBy, "rank-by", "Должность", "ranking column (skipped when absent)")
	reportCmd.Flags().StringVar(&repDim, "dim", "", "comparison dimension column")
	reportCmd.Flags().StringVar(&repA, "a", "", "comparison stratum A level")
	reportCmd.Flags().StringVar(&repB, "b", "", "comparison stratum B level")
	reportCmd.Flags().StringVar(&repBy, "by", "", "comparison breakdown column")
}
