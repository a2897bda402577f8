// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package engcal

import (
	"fmt"
	"path/filepath"

	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/plot"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
)

func overlay(title, xLabel string, before, after *hbook.H1D) (*hplot.Plot, error) {
	p, err := plot.NewHist1D(title, xLabel, before, nil, 0, 0)
	if err != nil {
		return nil, err
	}
	if after != nil && after.Entries() > 0 {
		if err := plot.AddHist1D(p, after, plot.FitColor, "calibrated"); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func blockIndex(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	return x
}

func counts(g Gains) []float64 {
	c := make([]float64, len(g.Count))
	for i, n := range g.Count {
		c[i] = float64(n)
	}
	return c
}

// gainPlots draws the per-block diagnostics of one detector: events, ratio,
// coefficients and the coefficient detector view.
func gainPlots(d detector.Detector, g Gains) ([]*hplot.Plot, error) {
	x := blockIndex(len(g.Old))
	name := d.String()

	nev, err := plot.NewPoints(name+" events per block", "block", "events", x, counts(g), nil)
	if err != nil {
		return nil, err
	}
	ratio, err := plot.NewPoints(name+" gain ratio", "block", "new/old", x, g.Ratio, nil)
	if err != nil {
		return nil, err
	}
	coeff, err := plot.NewPoints(name+" gain coefficients", "block", "coefficient", x, g.Coeff, nil)
	if err != nil {
		return nil, err
	}
	old, err := plot.NewPoints(name+" old coefficients", "block", "coefficient", x, g.Old, nil)
	if err != nil {
		return nil, err
	}
	view := plot.NewHeatMap(name+" coefficients", "col", "row", plot.Values(d.NRows, d.NCols, g.Coeff), 0, 0)
	return []*hplot.Plot{nev, ratio, coeff, old, view}, nil
}

// Plot writes the diagnostic pages of an iteration under dir/plots and
// returns their paths.
func (j *BBCal) Plot(dir string, res *Result) ([]string, error) {
	cfg := j.Config
	h := &j.h
	base := filepath.Join(dir, "plots", fmt.Sprintf("eng_cal_BBCal_%d_%d", cfg.Set, cfg.Iter))

	summary := plot.NewPage(3, 4)
	hists := []struct {
		title, x      string
		before, after *hbook.H1D
	}{
		{"W", "W (GeV)", h.W, nil},
		{"Q²", "Q² (GeV²)", h.Q2, nil},
		{"E/p", "E/p", h.EovP, h.EovPCal},
		{"Cluster energy", "E (GeV)", h.ClusE, h.ClusECal},
		{"SH cluster energy", "E (GeV)", h.SHE, h.SHECal},
		{"PS cluster energy", "E (GeV)", h.PSE, h.PSECal},
	}
	for i, hist := range hists {
		p, err := overlay(hist.title, hist.x, hist.before, hist.after)
		if err != nil {
			return nil, err
		}
		summary.Set(i, p)
	}
	summary.Set(6, plot.NewHist2D("p vs angle", "θ (deg)", "p (GeV)", h.PAng))
	summary.Set(7, plot.NewHist2D("E/p vs p", "p (GeV)", "E/p", h.EovPvsP))
	summary.Set(8, plot.NewHist2D("E/p vs p calibrated", "p (GeV)", "E/p", h.EovPvsPCal))
	if cfg.MomCalib.On {
		p, err := plot.NewHist1D("Bend angle", "θ_bend (rad)", h.ThetaBend, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		summary.Set(9, p)
	}

	maps := plot.NewPage(2, 4)
	maps.Set(0, plot.NewHeatMap("SH energy", "col", "row", h.SHEng, 0, 0))
	maps.Set(1, plot.NewHeatMap("SH E/p", "col", "row", h.SHEovP, 0.8, 1.2))
	maps.Set(2, plot.NewHeatMap("SH E/p at track", "y (m)", "x (m)", h.SHTrPos, 0.8, 1.2))
	maps.Set(3, plot.NewHeatMap("SH events", "col", "row", plot.Values(detector.SH.NRows, detector.SH.NCols, counts(res.SH)), 0, 0))
	maps.Set(4, plot.NewHeatMap("PS energy", "col", "row", h.PSEng, 0, 0))
	maps.Set(5, plot.NewHeatMap("PS E/p", "col", "row", h.PSEovP, 0.8, 1.2))
	maps.Set(6, plot.NewHeatMap("PS E/p at track", "y (m)", "x (m)", h.PSTrPos, 0.8, 1.2))
	maps.Set(7, plot.NewHeatMap("PS events", "col", "row", plot.Values(detector.PS.NRows, detector.PS.NCols, counts(res.PS)), 0, 0))

	gains := plot.NewPage(2, 5)
	for r, det := range []struct {
		d detector.Detector
		g Gains
	}{
		{detector.SH, res.SH},
		{detector.PS, res.PS},
	} {
		plots, err := gainPlots(det.d, det.g)
		if err != nil {
			return nil, err
		}
		for c, p := range plots {
			gains.Set(r*gains.Cols+c, p)
		}
	}

	var files []string
	for _, page := range []struct {
		name string
		pg   *plot.Page
	}{
		{"summary", summary},
		{"blocks", maps},
		{"gains", gains},
	} {
		path := base + "_" + page.name + ".pdf"
		if err := page.pg.Save(path); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}
