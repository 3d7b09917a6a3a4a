package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/quatqasymbek/ai-course-dash/internal/utils"
)

// Default column names of the source spreadsheet. Every one of them can be
// overridden per deployment; the analysis itself only assumes the outcome
// column exists.
const (
	DefaultDataFile      = "df.xlsx"
	DefaultOutcomeColumn = "Итоговый балл"
	DefaultAgeColumn     = "Возраст"
)

// Global configuration structure.
type Global struct {
	DataPath      string `mapstructure:"data_path" yaml:"data_path"`
	SheetName     string `mapstructure:"sheet_name" yaml:"sheet_name"`
	CSVDelimiter  string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	OutcomeColumn string `mapstructure:"outcome_column" yaml:"outcome_column"`
	AgeColumn     string `mapstructure:"age_column" yaml:"age_column"`

	// Column sets drive which filters and report sections are offered.
	// Absent columns are skipped per command, never an error.
	GeoColumns          []string `mapstructure:"geo_columns" yaml:"geo_columns"`
	DemographicColumns  []string `mapstructure:"demographic_columns" yaml:"demographic_columns"`
	ProfessionalColumns []string `mapstructure:"professional_columns" yaml:"professional_columns"`

	// Terms highlighted in rankings (substring, case-insensitive).
	HighlightTerms []string `mapstructure:"highlight_terms" yaml:"highlight_terms"`

	// Export artifacts
	ExportDir string `mapstructure:"export_dir" yaml:"export_dir"`

	// Chart artifacts
	ChartWidthIn  float64 `mapstructure:"chart_width_in" yaml:"chart_width_in"`
	ChartHeightIn float64 `mapstructure:"chart_height_in" yaml:"chart_height_in"`
	HistBins      int     `mapstructure:"hist_bins" yaml:"hist_bins"`

	// Geo boundary file (optional; absence disables only the map output)
	BoundariesPath       string            `mapstructure:"boundaries_path" yaml:"boundaries_path"`
	BoundaryNameProperty string            `mapstructure:"boundary_name_property" yaml:"boundary_name_property"`
	RegionTranslation    map[string]string `mapstructure:"region_translation" yaml:"region_translation"`

	// Saved filter views
	ViewsDir string `mapstructure:"views_dir" yaml:"views_dir"`
}

// Default returns the configuration used when no file, env or flag
// overrides anything.
func Default() *Global {
	return &Global{
		DataPath:             DefaultDataFile,
		OutcomeColumn:        DefaultOutcomeColumn,
		AgeColumn:            DefaultAgeColumn,
		GeoColumns:           []string{"Область", "Район", "Организация"},
		DemographicColumns:   []string{"Пол", "Национальность", "ethnicity", "Возрастная группа"},
		ProfessionalColumns:  []string{"Курс", "Форма собственности", "Тип школы", "Учёная степень", "Категория", "Должность", "Предмет"},
		HighlightTerms:       []string{"учитель", "преподаватель"},
		ExportDir:            "exports",
		ChartWidthIn:         12,
		ChartHeightIn:        7,
		HistBins:             30,
		BoundaryNameProperty: "name",
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.coursedash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".coursedash")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	def := Default()

	v := viper.New()
	v.SetEnvPrefix("COURSEDASH")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_path", def.DataPath)
	v.SetDefault("sheet_name", "")
	v.SetDefault("csv_delimiter", "")
	v.SetDefault("outcome_column", def.OutcomeColumn)
	v.SetDefault("age_column", def.AgeColumn)
	v.SetDefault("geo_columns", def.GeoColumns)
	v.SetDefault("demographic_columns", def.DemographicColumns)
	v.SetDefault("professional_columns", def.ProfessionalColumns)
	v.SetDefault("highlight_terms", def.HighlightTerms)
	v.SetDefault("export_dir", def.ExportDir)
	v.SetDefault("chart_width_in", def.ChartWidthIn)
	v.SetDefault("chart_height_in", def.ChartHeightIn)
	v.SetDefault("hist_bins", def.HistBins)
	v.SetDefault("boundaries_path", "")
	v.SetDefault("boundary_name_property", def.BoundaryNameProperty)
	v.SetDefault("views_dir", "")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".coursedash")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve views_dir default: ~/.coursedash/views
	if c.ViewsDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		c.ViewsDir = filepath.Join(home, ".coursedash", "views")
	}
	return &c, nil
}
