package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quatqasymbek/ai-course-dash/internal/geo"
	"github.com/quatqasymbek/ai-course-dash/internal/ordinal"
	"github.com/quatqasymbek/ai-course-dash/internal/stats"
	"github.com/quatqasymbek/ai-course-dash/internal/utils"
)

var (
	geoFilters    filterFlags
	geoBoundaries string
	geoMerged     string
)

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Regional outcome means and boundary coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, st, lines, err := geoFilters.filteredView(cmd)
		if err != nil {
			return err
		}
		printFilters(lines)

		regionCol := stateGeoColumns(st)[0]
		gt, err := stats.GroupBy(v, cfg.OutcomeColumn, []string{regionCol}, ordinal.Default(), stats.Options{})
		if err != nil {
			return err
		}
		term.Headerf("Mean %s by %s", cfg.OutcomeColumn, regionCol)
		term.GroupTable(gt)

		path := geoBoundaries
		if path == "" {
			path = cfg.BoundariesPath
		}
		if path == "" {
			term.Warnf("no boundaries file configured; map coverage skipped")
			return nil
		}
		fc, err := geo.LoadBoundaries(path)
		if err != nil {
			// A missing file only disables the map layer.
			if errors.Is(err, fs.ErrNotExist) {
				term.Warnf("boundaries file %s not found; map coverage skipped", path)
				return nil
			}
			return err
		}

		regions := make([]geo.RegionStat, 0, len(gt.Rows))
		for _, row := range gt.Rows {
			regions = append(regions, geo.RegionStat{Region: row.Keys[0], Mean: row.Mean, Count: row.Count})
		}
		cov := geo.MatchRegions(regions, fc, cfg.BoundaryNameProperty, cfg.RegionTranslation)
		term.Successf("matched %d of %d regions against %s", len(cov.Matches), len(regions), path)
		if len(cov.Unmapped) > 0 {
			term.Warnf("unmapped regions: %s", strings.Join(cov.Unmapped, ", "))
		}

		if geoMerged == "" {
			return nil
		}
		if err := utils.EnsureDir(filepath.Dir(geoMerged)); err != nil {
			return fmt.Errorf("ensure output dir: %w", err)
		}
		if err := geo.WriteMerged(geoMerged, cov); err != nil {
			return err
		}
		term.Successf("merged boundaries → %s", geoMerged)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(geoCmd)
	addFilterFlags(geoCmd, &geoFilters)
	geoCmd.Flags().StringVar(&geoBoundaries, "boundaries", "", "GeoJSON boundaries file (default from config)")
	geoCmd.Flags().StringVar(&geoMerged, "merged", "", "write matched boundaries with injected scores to this path")
}
