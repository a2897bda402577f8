// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package peak holds per-channel histograms and the peak fits run on them.
package peak

import (
	"math"

	"go-hep.org/x/hep/hbook"
)

// Grid is one histogram per detector block, row-major.
type Grid struct {
	Rows, Cols int
	Hists      []*hbook.H1D
}

func NewGrid(rows, cols, nbins int, min, max float64) *Grid {
	g := &Grid{Rows: rows, Cols: cols, Hists: make([]*hbook.H1D, rows*cols)}
	for i := range g.Hists {
		g.Hists[i] = hbook.NewH1D(nbins, min, max)
	}
	return g
}

func (g *Grid) At(row, col int) *hbook.H1D {
	return g.Hists[row*g.Cols+col]
}

// Fill ignores indices outside the grid.
func (g *Grid) Fill(i int, x, w float64) {
	if i < 0 || i >= len(g.Hists) {
		return
	}
	g.Hists[i].Fill(x, w)
}

func (g *Grid) Len() int {
	return len(g.Hists)
}

// Bins is a flat view of a histogram: bin centres and contents.
type Bins struct {
	X, Y    []float64
	Width   float64
	Entries int64
}

func BinsOf(h *hbook.H1D) Bins {
	b := Bins{Entries: h.Entries()}
	for _, bin := range h.Binning.Bins {
		b.X = append(b.X, bin.XMid())
		b.Y = append(b.Y, bin.SumW())
	}
	if len(b.X) > 0 {
		b.Width = (h.XMax() - h.XMin()) / float64(len(b.X))
	}
	return b
}

// Content returns 0 outside the histogram range.
func (b Bins) Content(i int) float64 {
	if i < 0 || i >= len(b.Y) {
		return 0
	}
	return b.Y[i]
}

// MaxBin returns the first bin holding the largest content in [from, to).
func (b Bins) MaxBin(from, to int) int {
	if from < 0 {
		from = 0
	}
	if to > len(b.Y) {
		to = len(b.Y)
	}
	max := from
	for i := from; i < to; i++ {
		if b.Y[i] > b.Y[max] {
			max = i
		}
	}
	return max
}

// Stats returns the content weighted mean and standard deviation of the bin
// centres in [from, to).
func (b Bins) Stats(from, to int) (mean, stdDev float64) {
	if from < 0 {
		from = 0
	}
	if to > len(b.Y) {
		to = len(b.Y)
	}
	var sw, swx, swx2 float64
	for i := from; i < to; i++ {
		sw += b.Y[i]
		swx += b.Y[i] * b.X[i]
		swx2 += b.Y[i] * b.X[i] * b.X[i]
	}
	if sw <= 0 {
		return 0, 0
	}
	mean = swx / sw
	return mean, math.Sqrt(math.Max(0, swx2/sw-mean*mean))
}

// Integral sums the bins whose centres lie in [lo, hi].
func (b Bins) Integral(lo, hi float64) float64 {
	var sum float64
	for i, x := range b.X {
		if x >= lo && x <= hi {
			sum += b.Y[i]
		}
	}
	return sum
}
