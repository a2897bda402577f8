// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

import (
	"image/color"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	HistColor = color.RGBA{B: 180, A: 255}
	FitColor  = color.RGBA{R: 220, A: 255}
	RefColor  = color.RGBA{G: 140, A: 255}
)

func newPlot(title, xLabel, yLabel string) *hplot.Plot {
	p, _ := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return &hplot.Plot{
		Plot:  p,
		Style: hplot.DefaultStyle,
	}
}

// steps traces the outline of a 1D histogram.
func steps(h *hbook.H1D) plotter.XYs {
	bins := h.Binning.Bins
	pts := make(plotter.XYs, 0, 2*len(bins)+2)
	if len(bins) == 0 {
		return pts
	}
	pts = append(pts, plotter.XY{X: bins[0].XMin(), Y: 0})
	for _, bin := range bins {
		pts = append(pts,
			plotter.XY{X: bin.XMin(), Y: bin.SumW()},
			plotter.XY{X: bin.XMax(), Y: bin.SumW()},
		)
	}
	pts = append(pts, plotter.XY{X: bins[len(bins)-1].XMax(), Y: 0})
	return pts
}

// AddHist1D draws h as a step line in c.
func AddHist1D(p *hplot.Plot, h *hbook.H1D, c color.Color, legend string) error {
	line, err := plotter.NewLine(steps(h))
	if err != nil {
		return err
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(1)
	p.Add(line)
	if legend != "" {
		p.Legend.Add(legend, line)
	}
	return nil
}

// NewHist1D plots h with an optional fitted curve drawn over [lo, hi].
func NewHist1D(title, xLabel string, h *hbook.H1D, fit func(float64) float64, lo, hi float64) (*hplot.Plot, error) {
	p := newPlot(title, xLabel, "")
	if err := AddHist1D(p, h, HistColor, ""); err != nil {
		return nil, err
	}
	if fit != nil {
		AddFunction(p, fit, lo, hi, FitColor)
	}
	return p, nil
}

// AddFunction overlays f on [lo, hi].
func AddFunction(p *hplot.Plot, f func(float64) float64, lo, hi float64, c color.Color) {
	fn := plotter.NewFunction(f)
	fn.XMin = lo
	fn.XMax = hi
	fn.Samples = 200
	fn.Color = c
	fn.Width = vg.Points(1.5)
	p.Add(fn)
}

// SetLogY switches the y axis to a logarithmic scale.
func SetLogY(p *hplot.Plot) {
	p.Y.Scale = LogScale{Floor: 0.5}
	p.Y.Tick.Marker = LogTicks{Floor: 0.5}
	if p.Y.Min <= 0 {
		p.Y.Min = 0.5
	}
}

// NewHist2D draws h as a heat map; an empty histogram leaves the plot blank.
func NewHist2D(title, xLabel, yLabel string, h *hbook.H2D) *hplot.Plot {
	p := newPlot(title, xLabel, yLabel)
	if h.Entries() == 0 {
		return p
	}
	colorMap := moreland.Kindlmann()
	h2 := hplot.NewH2D(h, colorMap.Palette(1000))
	h2.Infos.Style = hplot.HInfoMean | hplot.HInfoStdDev
	p.Add(h2)
	p.Add(hplot.NewGrid())
	return p
}

// NewPoints plots y against x with optional symmetric y errors.
func NewPoints(title, xLabel, yLabel string, x, y, yErr []float64) (*hplot.Plot, error) {
	p := newPlot(title, xLabel, yLabel)
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Color = HistColor
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(scatter)

	if yErr != nil {
		errs := make(plotter.YErrors, len(yErr))
		for i, e := range yErr {
			errs[i].Low = e
			errs[i].High = e
		}
		bars, err := plotter.NewYErrorBars(struct {
			plotter.XYs
			plotter.YErrors
		}{pts, errs})
		if err != nil {
			return nil, err
		}
		p.Add(bars)
	}
	p.X.Tick.Marker = BlockTicks{N: 6}
	p.Add(hplot.NewGrid())
	return p, nil
}
