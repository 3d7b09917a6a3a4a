package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	cfgpkg "github.com/quatqasymbek/ai-course-dash/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set coursedash configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("data_path: %s\n", cfg.DataPath)
		if cfg.SheetName != "" {
			fmt.Printf("sheet_name: %s\n", cfg.SheetName)
		}
		if cfg.CSVDelimiter != "" {
			fmt.Printf("csv_delimiter: %s\n", cfg.CSVDelimiter)
		}
		fmt.Printf("outcome_column: %s\n", cfg.OutcomeColumn)
		fmt.Printf("age_column: %s\n", cfg.AgeColumn)
		fmt.Printf("geo_columns: %s\n", strings.Join(cfg.GeoColumns, ", "))
		fmt.Printf("demographic_columns: %s\n", strings.Join(cfg.DemographicColumns, ", "))
		fmt.Printf("professional_columns: %s\n", strings.Join(cfg.ProfessionalColumns, ", "))
		fmt.Printf("highlight_terms: %s\n", strings.Join(cfg.HighlightTerms, ", "))
		fmt.Printf("export_dir: %s\n", cfg.ExportDir)
		fmt.Printf("chart_width_in: %g\n", cfg.ChartWidthIn)
		fmt.Printf("chart_height_in: %g\n", cfg.ChartHeightIn)
		fmt.Printf("hist_bins: %d\n", cfg.HistBins)
		if cfg.BoundariesPath != "" {
			fmt.Printf("boundaries_path: %s\n", cfg.BoundariesPath)
		}
		fmt.Printf("boundary_name_property: %s\n", cfg.BoundaryNameProperty)
		if len(cfg.RegionTranslation) > 0 {
			fmt.Printf("region_translation: %d entries\n", len(cfg.RegionTranslation))
		}
		fmt.Printf("views_dir: %s\n", cfg.ViewsDir)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		switch key {
		case "data_path":
			cfg.DataPath = val
		case "sheet_name":
			cfg.SheetName = val
		case "csv_delimiter":
			cfg.CSVDelimiter = val
		case "outcome_column":
			cfg.OutcomeColumn = val
		case "age_column":
			cfg.AgeColumn = val
		case "geo_columns":
			cols := splitList(val)
			if len(cols) != 3 {
				return fmt.Errorf("geo_columns needs exactly three comma-separated columns, got %d", len(cols))
			}
			cfg.GeoColumns = cols
		case "demographic_columns":
			cfg.DemographicColumns = splitList(val)
		case "professional_columns":
			cfg.ProfessionalColumns = splitList(val)
		case "highlight_terms":
			cfg.HighlightTerms = splitList(val)
		case "export_dir":
			cfg.ExportDir = val
		case "chart_width_in":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid float for chart_width_in: %v", val)
			}
			cfg.ChartWidthIn = f
		case "chart_height_in":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid float for chart_height_in: %v", val)
			}
			cfg.ChartHeightIn = f
		case "hist_bins":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for hist_bins: %w", err)
			}
			cfg.HistBins = i
		case "boundaries_path":
			cfg.BoundariesPath = val
		case "boundary_name_property":
			cfg.BoundaryNameProperty = val
		case "views_dir":
			cfg.ViewsDir = val
		case "region_translation":
			return fmt.Errorf("region_translation is a map: edit the config file directly")
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfgpkg.Default()
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		path := cfgFile
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			path = filepath.Join(home, ".coursedash", "config.yaml")
		}
		term.Successf("wrote %s", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
}
