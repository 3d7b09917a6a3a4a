package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/quatqasymbek/ai-course-dash/internal/stats"
)

var (
	headerColor = color.New(color.FgYellow, color.Bold)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	failColor   = color.New(color.FgRed)
)

// Renderer writes tables and status lines for interactive use.
type Renderer struct {
	out io.Writer
}

// NewRenderer wraps an output stream, usually os.Stdout.
func NewRenderer(out io.Writer) *Renderer { return &Renderer{out: out} }

// Headerf prints a bold section title.
func (r *Renderer) Headerf(format string, args ...any) {
	headerColor.Fprintf(r.out, "\n"+format+"\n", args...)
}

// Successf, Warnf and Failf print status lines with the marks used across
// the CLI.
func (r *Renderer) Successf(format string, args ...any) {
	okColor.Fprint(r.out, "✓ ")
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) Warnf(format string, args ...any) {
	warnColor.Fprint(r.out, "⚠ ")
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) Failf(format string, args ...any) {
	failColor.Fprint(r.out, "✗ ")
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Table renders an arbitrary header + rows, for overview listings.
func (r *Renderer) Table(header []string, rows [][]string) {
	table := tablewriter.NewWriter(r.out)
	table.SetHeader(header)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

// Summary renders the headline statistics card.
func (r *Renderer) Summary(s stats.Summary) {
	r.Table(
		[]string{"Records", "Mean", "Median", "Std"},
		[][]string{{strconv.Itoa(s.Count), fmtNum(s.Mean), fmtNum(s.Median), fmtNum(s.Std)}},
	)
}

// GroupTable renders an aggregated table with whatever statistics it has.
func (r *Renderer) GroupTable(gt *stats.GroupTable) {
	header := append([]string(nil), gt.Columns...)
	header = append(header, "Count", "Mean")
	if gt.HasMed {
		header = append(header, "Median")
	}
	if gt.HasStd {
		header = append(header, "Std")
	}
	table := tablewriter.NewWriter(r.out)
	table.SetHeader(header)
	for _, row := range gt.Rows {
		cells := append([]string(nil), row.Keys...)
		cells = append(cells, strconv.Itoa(row.Count), fmtNum(row.Mean))
		if gt.HasMed {
			cells = append(cells, fmtNum(row.Median))
		}
		if gt.HasStd {
			cells = append(cells, fmtNum(row.Std))
		}
		table.Append(cells)
	}
	table.Render()
}

// Ranking renders an ascending mean ranking. Highlighted labels carry a
// star in the marker column.
func (r *Renderer) Ranking(col string, rows []stats.RankRow) {
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"#", col, "Count", "Mean", ""})
	for i, row := range rows {
		mark := ""
		if row.Highlight {
			mark = "*"
		}
		table.Append([]string{strconv.Itoa(i + 1), row.Label, strconv.Itoa(row.Count), fmtNum(row.Mean), mark})
	}
	table.Render()
}

// Matrix renders a two-dimensional pivot of means.
func (r *Renderer) Matrix(m *stats.Matrix) {
	header := append([]string{m.RowDim + " \\ " + m.ColDim}, m.ColLabels...)
	table := tablewriter.NewWriter(r.out)
	table.SetHeader(header)
	for i, label := range m.RowLabels {
		cells := make([]string, 0, len(m.ColLabels)+1)
		cells = append(cells, label)
		for j := range m.ColLabels {
			cells = append(cells, fmtNum(m.Values[i][j]))
		}
		table.Append(cells)
	}
	table.Render()
}

// Comparison renders two strata side by side plus the mean difference.
func (r *Renderer) Comparison(c *stats.Comparison) {
	r.Table(
		[]string{"Stratum", "Level", "Records", "Mean", "Median", "Std"},
		[][]string{
			{"A", c.LevelA, strconv.Itoa(c.A.Count), fmtNum(c.A.Mean), fmtNum(c.A.Median), fmtNum(c.A.Std)},
			{"B", c.LevelB, strconv.Itoa(c.B.Count), fmtNum(c.B.Mean), fmtNum(c.B.Median), fmtNum(c.B.Std)},
		},
	)
	fmt.Fprintf(r.out, "Δ mean (A − B): %s\n", fmtNum(c.Delta))
	if c.Breakdown != nil && len(c.Breakdown.Rows) > 0 {
		r.Headerf("Breakdown")
		r.GroupTable(c.Breakdown)
	}
}
