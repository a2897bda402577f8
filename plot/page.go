// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
)

// CellSize is the default size of one tile.
var CellSize = struct{ W, H vg.Length }{3 * vg.Inch, 2.2 * vg.Inch}

// Page lays plots out on a grid. Nil entries are left blank.
type Page struct {
	Rows, Cols int
	Plots      [][]*hplot.Plot
}

func NewPage(rows, cols int) *Page {
	pg := &Page{Rows: rows, Cols: cols, Plots: make([][]*hplot.Plot, rows)}
	for i := range pg.Plots {
		pg.Plots[i] = make([]*hplot.Plot, cols)
	}
	return pg
}

// Set places p in tile i counted row-major.
func (pg *Page) Set(i int, p *hplot.Plot) {
	pg.Plots[i/pg.Cols][i%pg.Cols] = p
}

func (pg *Page) draw(c draw.Canvas) {
	plots := make([][]*plot.Plot, pg.Rows)
	for i, row := range pg.Plots {
		plots[i] = make([]*plot.Plot, pg.Cols)
		for j, p := range row {
			if p != nil {
				plots[i][j] = p.Plot
			}
		}
	}

	t := draw.Tiles{
		Rows: pg.Rows,
		Cols: pg.Cols,
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}
	canvases := plot.Align(plots, t, c)
	for i := range plots {
		for j, p := range plots[i] {
			if p != nil {
				p.Draw(canvases[i][j])
			}
		}
	}
}

// Save writes the page as a PDF, or a PNG when path ends in .png.
func (pg *Page) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := vg.Length(pg.Cols) * CellSize.W
	h := vg.Length(pg.Rows) * CellSize.H

	if strings.HasSuffix(path, ".png") {
		img := vgimg.New(w, h)
		pg.draw(draw.New(img))
		encoder := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := encoder.Encode(f, img.Image()); err != nil {
			return fmt.Errorf("%v: %w", path, err)
		}
		return f.Close()
	}

	pdf := vgpdf.New(w, h)
	pg.draw(draw.New(pdf))
	if _, err := pdf.WriteTo(f); err != nil {
		return fmt.Errorf("%v: %w", path, err)
	}
	return f.Close()
}

// Save writes a single plot.
func Save(path string, p *hplot.Plot) error {
	pg := NewPage(1, 1)
	pg.Set(0, p)
	return pg.Save(path)
}
