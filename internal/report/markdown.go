// Package report renders analysis results three ways: a standalone Markdown
// document, colored terminal tables, and PNG chart artifacts.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quatqasymbek/ai-course-dash/internal/stats"
	"github.com/quatqasymbek/ai-course-dash/internal/utils"
)

// Document is the assembled content of one report run. Sections are
// optional: Markdown renders present sections in a fixed order and skips
// the rest.
type Document struct {
	ID          string
	GeneratedAt time.Time
	Source      string
	Outcome     string
	Filters     []string

	Summary *stats.Summary

	OrgColumn  string
	TopOrgs    []stats.GroupRow
	BottomOrgs []stats.GroupRow

	Groups []GroupSection

	Matrix *stats.Matrix

	RankColumn string
	Ranking    []stats.RankRow

	Comparison *stats.Comparison

	Charts []string
}

// GroupSection is one grouped-statistics table under its own heading.
type GroupSection struct {
	Title string
	Table *stats.GroupTable
}

// NewDocument seeds a document with a fresh id and timestamp.
func NewDocument(source, outcome string) *Document {
	return &Document{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now(),
		Source:      source,
		Outcome:     outcome,
	}
}

// Markdown renders the document as a self-contained report.
func (d *Document) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# Performance Analysis Report\n\n")
	fmt.Fprintf(&sb, "- **Report ID:** %s\n", d.ID)
	fmt.Fprintf(&sb, "- **Generated:** %s\n", d.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&sb, "- **Source:** %s\n", d.Source)
	fmt.Fprintf(&sb, "- **Outcome column:** %s\n", d.Outcome)

	sb.WriteString("\n## Active Filters\n\n")
	if len(d.Filters) == 0 {
		sb.WriteString("- none (full dataset)\n")
	} else {
		for _, f := range d.Filters {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}

	if d.Summary != nil {
		sb.WriteString("\n## Summary\n\n")
		sb.WriteString("| Records | Mean | Median | Std |\n")
		sb.WriteString("|---:|---:|---:|---:|\n")
		fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n",
			d.Summary.Count, fmtNum(d.Summary.Mean), fmtNum(d.Summary.Median), fmtNum(d.Summary.Std))
	}

	if len(d.TopOrgs) > 0 {
		writeHeadTail(&sb, "Top Organizations", d.OrgColumn, d.TopOrgs)
	}
	if len(d.BottomOrgs) > 0 {
		writeHeadTail(&sb, "Bottom Organizations", d.OrgColumn, d.BottomOrgs)
	}

	for _, g := range d.Groups {
		fmt.Fprintf(&sb, "\n## %s\n\n", g.Title)
		writeGroupTable(&sb, g.Table)
	}

	if d.Matrix != nil {
		fmt.Fprintf(&sb, "\n## Mean Matrix: %s × %s\n\n", d.Matrix.RowDim, d.Matrix.ColDim)
		writeMatrix(&sb, d.Matrix)
	}

	if len(d.Ranking) > 0 {
		fmt.Fprintf(&sb, "\n## Ranking by %s\n\n", d.RankColumn)
		fmt.Fprintf(&sb, "| # | %s | Count | Mean |\n", d.RankColumn)
		sb.WriteString("|---:|---|---:|---:|\n")
		for i, row := range d.Ranking {
			label := row.Label
			if row.Highlight {
				label = "**" + label + "**"
			}
			fmt.Fprintf(&sb, "| %d | %s | %d | %s |\n", i+1, label, row.Count, fmtNum(row.Mean))
		}
	}

	if d.Comparison != nil {
		writeComparison(&sb, d.Comparison)
	}

	if len(d.Charts) > 0 {
		sb.WriteString("\n## Charts\n\n")
		for _, path := range d.Charts {
			fmt.Fprintf(&sb, "![%s](%s)\n\n", chartAlt(path), path)
		}
	}
	return sb.String()
}

// WriteFile renders the document and writes it atomically.
func (d *Document) WriteFile(path string) error {
	if err := utils.SafeWriteFile(path, []byte(d.Markdown())); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// GroupTableMarkdown renders a single group table as a Markdown fragment,
// for commands that emit one section instead of a whole document.
func GroupTableMarkdown(gt *stats.GroupTable) string {
	var sb strings.Builder
	writeGroupTable(&sb, gt)
	return sb.String()
}

// MatrixMarkdown renders a pivot matrix as a Markdown fragment.
func MatrixMarkdown(m *stats.Matrix) string {
	var sb strings.Builder
	writeMatrix(&sb, m)
	return sb.String()
}

func writeHeadTail(sb *strings.Builder, title, col string, rows []stats.GroupRow) {
	fmt.Fprintf(sb, "\n## %s\n\n", title)
	fmt.Fprintf(sb, "| # | %s | Mean | Count |\n", col)
	sb.WriteString("|---:|---|---:|---:|\n")
	for i, row := range rows {
		fmt.Fprintf(sb, "| %d | %s | %s | %d |\n", i+1, row.Key(), fmtNum(row.Mean), row.Count)
	}
}

func writeGroupTable(sb *strings.Builder, gt *stats.GroupTable) {
	header := append([]string(nil), gt.Columns...)
	header = append(header, "Count", "Mean")
	if gt.HasMed {
		header = append(header, "Median")
	}
	if gt.HasStd {
		header = append(header, "Std")
	}
	sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		if i < len(gt.Columns) {
			sep[i] = "---"
		} else {
			sep[i] = "---:"
		}
	}
	sb.WriteString("|" + strings.Join(sep, "|") + "|\n")
	for _, row := range gt.Rows {
		cells := append([]string(nil), row.Keys...)
		cells = append(cells, strconv.Itoa(row.Count), fmtNum(row.Mean))
		if gt.HasMed {
			cells = append(cells, fmtNum(row.Median))
		}
		if gt.HasStd {
			cells = append(cells, fmtNum(row.Std))
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func writeMatrix(sb *strings.Builder, m *stats.Matrix) {
	fmt.Fprintf(sb, "| %s \\ %s |", m.RowDim, m.ColDim)
	for _, col := range m.ColLabels {
		fmt.Fprintf(sb, " %s |", col)
	}
	sb.WriteString("\n|---|")
	for range m.ColLabels {
		sb.WriteString("---:|")
	}
	sb.WriteString("\n")
	for i, label := range m.RowLabels {
		fmt.Fprintf(sb, "| %s |", label)
		for j := range m.ColLabels {
			fmt.Fprintf(sb, " %s |", fmtNum(m.Values[i][j]))
		}
		sb.WriteString("\n")
	}
}

func writeComparison(sb *strings.Builder, c *stats.Comparison) {
	fmt.Fprintf(sb, "\n## Comparison by %s: %s vs %s\n\n", c.Dim, c.LevelA, c.LevelB)
	sb.WriteString("| Stratum | Level | Records | Mean | Median | Std |\n")
	sb.WriteString("|---|---|---:|---:|---:|---:|\n")
	fmt.Fprintf(sb, "| A | %s | %d | %s | %s | %s |\n",
		c.LevelA, c.A.Count, fmtNum(c.A.Mean), fmtNum(c.A.Median), fmtNum(c.A.Std))
	fmt.Fprintf(sb, "| B | %s | %d | %s | %s | %s |\n",
		c.LevelB, c.B.Count, fmtNum(c.B.Mean), fmtNum(c.B.Median), fmtNum(c.B.Std))
	fmt.Fprintf(sb, "\n**Δ mean (A − B):** %s\n", fmtNum(c.Delta))
	if c.Breakdown != nil && len(c.Breakdown.Rows) > 0 {
		sb.WriteString("\n### Breakdown\n\n")
		writeGroupTable(sb, c.Breakdown)
	}
}

// fmtNum renders a two-decimal statistic, "-" for a missing value.
func fmtNum(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// chartAlt derives alt text from a chart file name.
func chartAlt(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}
