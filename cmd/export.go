package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/quatqasymbek/ai-course-dash/internal/export"
	"github.com/quatqasymbek/ai-course-dash/internal/utils"
)

var (
	expFilters  filterFlags
	expFormat   string
	expColumns  []string
	expOutput   string
	expManifest bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the filtered view as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		if expFormat != "csv" && expFormat != "xlsx" {
			return fmt.Errorf("unknown format %q (want csv or xlsx)", expFormat)
		}
		v, _, lines, err := expFilters.filteredView(cmd)
		if err != nil {
			return err
		}
		printFilters(lines)

		path := expOutput
		if path == "" {
			name := fmt.Sprintf("export_%s.%s", time.Now().Format("20060102_150405"), expFormat)
			path = filepath.Join(cfg.ExportDir, name)
		}
		if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
			return fmt.Errorf("ensure export dir: %w", err)
		}

		opt := export.Options{Columns: expColumns}
		if cfg.CSVDelimiter != "" {
			opt.Delimiter = []rune(cfg.CSVDelimiter)[0]
		}
		switch expFormat {
		case "csv":
			err = export.CSVFile(path, v, opt)
		case "xlsx":
			err = export.XLSXFile(path, v, opt)
		}
		if err != nil {
			return err
		}
		term.Successf("exported %d rows → %s", v.Len(), path)

		if expManifest {
			m := export.NewManifest(v, opt, v.Table().Path(), path, expFormat)
			mp, err := export.WriteManifest(path, m)
			if err != nil {
				return err
			}
			term.Successf("manifest → %s", mp)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addFilterFlags(exportCmd, &expFilters)
	exportCmd.Flags().StringVar(&expFormat, "format", "csv", "artifact format: csv or xlsx")
	exportCmd.Flags().StringSliceVar(&expColumns, "columns", nil, "column subset to export (default all)")
	exportCmd.Flags().StringVarP(&expOutput, "output", "o", "", "artifact path (default timestamped in export_dir)")
	exportCmd.Flags().BoolVar(&expManifest, "manifest", true, "write the JSON manifest sidecar")
}
