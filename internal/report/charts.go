package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/quatqasymbek/ai-course-dash/internal/stats"
)

var steelBlue = color.RGBA{R: 70, G: 130, B: 180, A: 255}

// ChartOptions sizes PNG artifacts in inches.
type ChartOptions struct {
	WidthIn  float64 // 12 when zero
	HeightIn float64 // 7 when zero
}

func (o ChartOptions) size() (vg.Length, vg.Length) {
	w, h := o.WidthIn, o.HeightIn
	if w <= 0 {
		w = 12
	}
	if h <= 0 {
		h = 7
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

// HistogramPNG renders the outcome distribution to path.
func HistogramPNG(path, title, xlabel string, values []float64, bins int, opt ChartOptions) error {
	if len(values) == 0 {
		return fmt.Errorf("histogram %s: no values", path)
	}
	if bins <= 0 {
		bins = 30
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "Count"

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return fmt.Errorf("build histogram: %w", err)
	}
	h.FillColor = steelBlue
	p.Add(h)

	w, ht := opt.size()
	if err := p.Save(w, ht, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}

// MeanBarPNG renders one bar per group mean. Groups without a numeric
// outcome are left out of the chart.
func MeanBarPNG(path, title string, gt *stats.GroupTable, opt ChartOptions) error {
	labels := make([]string, 0, len(gt.Rows))
	values := make(plotter.Values, 0, len(gt.Rows))
	for _, row := range gt.Rows {
		if math.IsNaN(row.Mean) {
			continue
		}
		labels = append(labels, row.Key())
		values = append(values, row.Mean)
	}
	if len(values) == 0 {
		return fmt.Errorf("bar chart %s: no numeric groups", path)
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Mean"

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("build bar chart: %w", err)
	}
	bars.Color = steelBlue
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.XAlign = draw.XCenter

	w, h := opt.size()
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}

// BoxPNG renders one box per category over its raw outcome values.
func BoxPNG(path, title, ylabel string, labels []string, groups [][]float64, opt ChartOptions) error {
	if len(labels) == 0 || len(labels) != len(groups) {
		return fmt.Errorf("box plot %s: need one value set per label", path)
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel

	for i, vals := range groups {
		box, err := plotter.NewBoxPlot(vg.Points(24), float64(i), plotter.Values(vals))
		if err != nil {
			return fmt.Errorf("box for %q: %w", labels[i], err)
		}
		box.FillColor = steelBlue
		p.Add(box)
	}

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.XAlign = draw.XCenter

	w, h := opt.size()
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}
