// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package coscal

import (
	"fmt"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/peak"
	"github.com/rditech/bbcal/plot"

	"go-hep.org/x/hep/hplot"
)

// WritePeaks writes the "peak err" file.
func WritePeaks(path string, d detector.Detector, fits []BlockFit) error {
	peaks := make([]float64, len(fits))
	errs := make([]float64, len(fits))
	for i, f := range fits {
		peaks[i], errs[i] = f.Peak()
	}
	file, err := calib.Create(path)
	if err != nil {
		return err
	}
	if err := calib.WritePeaks(file, peaks, errs, d.NCols); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

var TableColumns = []string{"Block", "HVCorr", "Amp", "ErrAmp", "PeakPos", "ErrPPos", "PeakWidth", "ErrPWid", "NinPeak", "Flag"}

// WriteTable writes the fit results, one block per row.
func WriteTable(path, title string, fits []BlockFit) error {
	t, err := calib.CreateTable(path, title, TableColumns...)
	if err != nil {
		return err
	}
	for _, f := range fits {
		err := t.WriteRow(f.Block, f.HVCorr,
			f.Params[0], f.Errs[0], f.Params[1], f.Errs[1], f.Params[2], f.Errs[2],
			f.NInPeak, f.Flag)
		if err != nil {
			t.Close()
			return err
		}
	}
	return t.Close()
}

// HVCorrections lists the per-block HV correction factors.
func HVCorrections(fits []BlockFit) []float64 {
	corr := make([]float64, len(fits))
	for i, f := range fits {
		corr[i] = f.HVCorr
	}
	return corr
}

// PlotPeaks draws the block spectra with their fits, rowsPerPage detector
// rows per file. It returns the written paths.
func (j *Job) PlotPeaks(base string, fits []BlockFit, rowsPerPage int) ([]string, error) {
	d := j.Det
	var files []string
	for first := 0; first < d.NRows; first += rowsPerPage {
		rows := rowsPerPage
		if first+rows > d.NRows {
			rows = d.NRows - first
		}
		pg := plot.NewPage(rows, d.NCols)
		for r := 0; r < rows; r++ {
			for c := 0; c < d.NCols; c++ {
				row := first + r
				i := d.Index(row, c)
				p, err := j.blockPlot(row, c, fits[i])
				if err != nil {
					return files, err
				}
				pg.Set(r*d.NCols+c, p)
			}
		}
		path := fmt.Sprintf("%v_%d.pdf", base, first/rowsPerPage+1)
		if err := pg.Save(path); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

func (j *Job) blockPlot(row, col int, f BlockFit) (*hplot.Plot, error) {
	title := fmt.Sprintf("%v %d.%d", j.Det, row+1, col+1)
	h := j.Spectra.At(row, col)
	if f.Flag != peak.Good {
		return plot.NewHist1D(title+" "+f.Flag.String(), j.Quantity.Unit(), h, nil, 0, 0)
	}
	params := f.Params
	fn := func(x float64) float64 { return peak.Gaussian.F(x, params) }
	return plot.NewHist1D(title, j.Quantity.Unit(), h, fn, f.Lo, f.Hi)
}

// PlotSummary draws peak position, width and events in the peak against
// the block number.
func PlotSummary(path, title string, fits []BlockFit, unit string) error {
	n := len(fits)
	blocks := make([]float64, n)
	pos, posErr := make([]float64, n), make([]float64, n)
	rms, rmsErr := make([]float64, n), make([]float64, n)
	nin := make([]float64, n)
	for i, f := range fits {
		blocks[i] = float64(i)
		pos[i], posErr[i] = f.Params[1], f.Errs[1]
		rms[i], rmsErr[i] = f.Params[2], f.Errs[2]
		nin[i] = f.NInPeak
	}

	pg := plot.NewPage(1, 3)
	p, err := plot.NewPoints(title+" peak position", "block", "peak ("+unit+")", blocks, pos, posErr)
	if err != nil {
		return err
	}
	pg.Set(0, p)
	if p, err = plot.NewPoints(title+" peak RMS", "block", "RMS ("+unit+")", blocks, rms, rmsErr); err != nil {
		return err
	}
	pg.Set(1, p)
	if p, err = plot.NewPoints(title+" events in peak", "block", "events", blocks, nin, nil); err != nil {
		return err
	}
	pg.Set(2, p)
	return pg.Save(path)
}
