// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package hv

import (
	"fmt"
	"math"

	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/plot"
)

// PlotChanges draws the old and new HV and the absolute shift in the
// detector view.
func PlotChanges(path string, d detector.Detector, changes []Change) error {
	old := make([]float64, len(changes))
	cur := make([]float64, len(changes))
	shift := make([]float64, len(changes))
	for i, c := range changes {
		old[i], cur[i] = c.Old, c.New
		shift[i] = math.Abs(c.Old - c.New)
	}

	xLabel, yLabel := d.String()+" col", d.String()+" row"
	limit := Limit(d)
	pg := plot.NewPage(1, 3)
	pg.Set(0, plot.NewHeatMap("HV new (V)", xLabel, yLabel, plot.Values(d.NRows, d.NCols, cur), -limit, -800))
	pg.Set(1, plot.NewHeatMap("HV old (V)", xLabel, yLabel, plot.Values(d.NRows, d.NCols, old), -limit, -800))
	pg.Set(2, plot.NewHeatMap("|HV old - HV new| (V)", xLabel, yLabel, plot.Values(d.NRows, d.NCols, shift), 0, 0))
	return pg.Save(path)
}

// PlotCrates draws the written channels of each crate, slot along x and
// channel along y.
func PlotCrates(path string, s *Settings) error {
	pg := plot.NewPage(detector.HVCrates, 1)
	for c := range s.V {
		values := make([]float64, detector.HVSlots*detector.HVChans)
		for sl := range s.V[c] {
			if !Written(c, sl) {
				continue
			}
			for ch, v := range s.V[c][sl] {
				values[ch*detector.HVSlots+sl] = v
			}
		}
		g := plot.Values(detector.HVChans, detector.HVSlots, values)
		title := fmt.Sprintf("%v HV (V)", detector.HVCrateNames[c])
		pg.Set(c, plot.NewHeatMap(title, "slot", "channel", g, 0, 0))
	}
	return pg.Save(path)
}

// PlotAlphas draws the fitted alphas in the detector view.
func PlotAlphas(path string, d detector.Detector, fits []AlphaFit) error {
	alpha := make([]float64, d.N())
	hv := make([]float64, d.N())
	for _, f := range fits {
		alpha[f.Block] = f.Alpha
		hv[f.Block] = f.HV
	}
	xLabel, yLabel := d.String()+" col", d.String()+" row"
	pg := plot.NewPage(1, 2)
	pg.Set(0, plot.NewHeatMap("alpha", xLabel, yLabel, plot.Values(d.NRows, d.NCols, alpha), 0, 22))
	pg.Set(1, plot.NewHeatMap("HV for the desired peak (V)", xLabel, yLabel, plot.Values(d.NRows, d.NCols, hv), 0, 0))
	return pg.Save(path)
}
