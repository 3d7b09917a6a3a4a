// Package export serializes a filtered view for spreadsheet consumers.
// CSV output is UTF-8 with a BOM (Excel misreads Cyrillic text without it);
// XLSX output goes through excelize. Cells are written as the raw source
// text, so an export reloaded through the dataset loader reproduces the
// exact row multiset of the in-memory view.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/quatqasymbek/ai-course-dash/internal/dataset"
	"github.com/quatqasymbek/ai-course-dash/internal/utils"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options selects what gets exported.
type Options struct {
	// Columns limits the export to a subset in the given order; empty
	// means every column of the backing table. Unknown names are a caller
	// error.
	Columns []string
	// Delimiter for CSV output; 0 means ','.
	Delimiter rune
	// Sheet names the XLSX sheet; empty means "Data".
	Sheet string
}

func (o Options) columns(v *dataset.View) ([]string, error) {
	if len(o.Columns) == 0 {
		return v.Columns(), nil
	}
	for _, col := range o.Columns {
		if !v.HasColumn(col) {
			return nil, fmt.Errorf("unknown export column %q", col)
		}
	}
	return o.Columns, nil
}

// CSVBytes renders the view as BOM-prefixed CSV.
func CSVBytes(v *dataset.View, opt Options) ([]byte, error) {
	cols, err := opt.columns(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if opt.Delimiter != 0 {
		w.Comma = opt.Delimiter
	}
	if err := w.Write(cols); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(cols))
	for i := 0; i < v.Len(); i++ {
		for j, col := range cols {
			record[j] = v.Raw(i, col)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// CSVFile writes the view to path as BOM-prefixed CSV (atomic write).
func CSVFile(path string, v *dataset.View, opt Options) error {
	b, err := CSVBytes(v, opt)
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	return nil
}

// XLSXFile writes the view to path as a single-sheet workbook.
func XLSXFile(path string, v *dataset.View, opt Options) error {
	cols, err := opt.columns(v)
	if err != nil {
		return err
	}
	sheet := opt.Sheet
	if sheet == "" {
		sheet = "Data"
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	for j, col := range cols {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("write header %q: %w", col, err)
		}
	}
	for i := 0; i < v.Len(); i++ {
		for j, col := range cols {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v.Raw(i, col)); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}
	last, err := excelize.ColumnNumberToName(len(cols))
	if err == nil {
		_ = f.SetColWidth(sheet, "A", last, 18)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx %s: %w", path, err)
	}
	return nil
}

// Manifest is the sidecar record written next to an export artifact.
type Manifest struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Artifact  string    `json:"artifact"`
	Format    string    `json:"format"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
}

// NewManifest describes an artifact exported from the view with opt.
func NewManifest(v *dataset.View, opt Options, source, artifact, format string) Manifest {
	ncols := len(opt.Columns)
	if ncols == 0 {
		ncols = len(v.Columns())
	}
	return Manifest{
		ID:        uuid.NewString(),
		Source:    source,
		Artifact:  filepath.Base(artifact),
		Format:    format,
		Rows:      v.Len(),
		Columns:   ncols,
		CreatedAt: time.Now(),
	}
}

// WriteManifest writes the manifest as pretty JSON beside the artifact
// (atomic write) and returns the manifest path.
func WriteManifest(artifactPath string, m Manifest) (string, error) {
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return "", err
	}
	path := artifactPath + ".manifest.json"
	if err := utils.SafeWriteFile(path, data); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
