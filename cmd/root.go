package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfgpkg "github.com/quatqasymbek/ai-course-dash/internal/config"
	"github.com/quatqasymbek/ai-course-dash/internal/dataset"
	"github.com/quatqasymbek/ai-course-dash/internal/filter"
	"github.com/quatqasymbek/ai-course-dash/internal/report"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global

	// dataCache memoizes the most recent load so a sequence of commands
	// against the same file parses it once.
	dataCache dataset.Cache

	// term renders status lines and tables for every command.
	term = report.NewRenderer(os.Stdout)
)

var rootCmd = &cobra.Command{
	Use:   "coursedash",
	Short: "coursedash: exam-score analysis from the terminal",
	Long: `coursedash loads a spreadsheet of course exam results, applies a cascading
geographic filter plus independent demographic/professional filters, and
reports descriptive statistics: summaries, grouped means, rankings,
comparisons, charts, Markdown reports and filtered exports.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute is the entry point called by main.main(). An empty filter result
// is a warning, not a failure: the process still exits 0.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, filter.ErrNoData) {
			fmt.Fprintln(os.Stderr, "⚠", err)
			return
		}
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.coursedash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	// Best-effort .env so COURSEDASH_* overrides work without exporting.
	_ = godotenv.Load()
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = cfgpkg.Default()
		return
	}
	cfg = c
}
