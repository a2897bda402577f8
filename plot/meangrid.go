// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

import (
	"math"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
)

// MeanGrid averages a quantity over a 2D binning, such as E/p per block.
// It satisfies plotter.GridXYZ.
type MeanGrid struct {
	hCount, hV     *hbook.H2D
	nBinsX, nBinsY int
}

func NewMeanGrid(nBinsX int, xLow, xHigh float64, nBinsY int, yLow, yHigh float64) *MeanGrid {
	return &MeanGrid{
		hbook.NewH2D(nBinsX, xLow, xHigh, nBinsY, yLow, yHigh),
		hbook.NewH2D(nBinsX, xLow, xHigh, nBinsY, yLow, yHigh),
		nBinsX, nBinsY,
	}
}

// NewBlockGrid bins one cell per detector block, columns along x.
func NewBlockGrid(rows, cols int) *MeanGrid {
	return NewMeanGrid(cols, 0, float64(cols), rows, 0, float64(rows))
}

func (g *MeanGrid) Fill(x, y, z float64) {
	g.hCount.Fill(x, y, 1)
	g.hV.Fill(x, y, z)
}

func (g *MeanGrid) Dims() (int, int) {
	return g.nBinsX, g.nBinsY
}

// Z is zero for empty cells.
func (g *MeanGrid) Z(i, j int) float64 {
	n := g.hCount.GridXYZ().Z(i, j)
	if n == 0 {
		return 0
	}
	return g.hV.GridXYZ().Z(i, j) / n
}

func (g *MeanGrid) Count(i, j int) float64 {
	return g.hCount.GridXYZ().Z(i, j)
}

func (g *MeanGrid) X(i int) float64 {
	return g.hCount.GridXYZ().X(i)
}

func (g *MeanGrid) Y(j int) float64 {
	return g.hCount.GridXYZ().Y(j)
}

// Values fills a grid from per-block values in row-major order.
func Values(rows, cols int, values []float64) *MeanGrid {
	g := NewBlockGrid(rows, cols)
	for i, v := range values {
		g.Fill(float64(i%cols)+0.5, float64(i/cols)+0.5, v)
	}
	return g
}

// clampGrid limits Z to [min, max] so the palette index stays in range.
type clampGrid struct {
	plotter.GridXYZ
	min, max float64
}

func (g clampGrid) Z(c, r int) float64 {
	z := g.GridXYZ.Z(c, r)
	if math.IsNaN(z) {
		return g.min
	}
	return math.Max(g.min, math.Min(g.max, z))
}

func zRange(g plotter.GridXYZ) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	c, r := g.Dims()
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			z := g.Z(i, j)
			if math.IsNaN(z) {
				continue
			}
			min = math.Min(min, z)
			max = math.Max(max, z)
		}
	}
	if min > max {
		return 0, 1
	}
	if min == max {
		return min - 0.5, max + 0.5
	}
	return min, max
}

// NewHeatMap draws g with the color range clamped to [min, max]. Equal
// limits use the data range.
func NewHeatMap(title, xLabel, yLabel string, g plotter.GridXYZ, min, max float64) *hplot.Plot {
	p := newPlot(title, xLabel, yLabel)
	if !(min < max) {
		min, max = zRange(g)
	}
	colorMap := moreland.Kindlmann()
	pal := colorMap.Palette(1000)
	heatMap := plotter.NewHeatMap(clampGrid{GridXYZ: g, min: min, max: max}, pal)
	heatMap.Min = min
	heatMap.Max = max
	p.Add(heatMap)
	return p
}
