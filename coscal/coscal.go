// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package coscal calibrates the shower and preshower with cosmic muons
// crossing the blocks vertically.
package coscal

import (
	"context"
	"log"
	"math"

	"github.com/rditech/bbcal/config"
	"github.com/rditech/bbcal/data"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/peak"
)

// Quantity is the per-block pulse measure that is histogrammed.
type Quantity int

const (
	Amplitude Quantity = iota
	Integral
)

func (q Quantity) String() string {
	if q == Integral {
		return "integral"
	}
	return "amplitude"
}

// Unit of the histogrammed quantity.
func (q Quantity) Unit() string {
	if q == Integral {
		return "pC"
	}
	return "mV"
}

const (
	// TargetADC is the desired cosmic peak amplitude in mV.
	TargetADC = 10.

	// Alpha is the gain exponent of the HV correction.
	Alpha = 10.
)

var (
	DefaultSpectrum = config.Hist{NBins: 45, Min: 0, Max: 45}
	DefaultRatio    = config.Hist{NBins: 18, Min: 2, Max: 5}
)

type Config struct {
	Det      detector.Detector
	Quantity Quantity
	Spectrum config.Hist
	Ratio    config.Hist

	// TrigRatio scales each block to the trigger sum, nil for none.
	TrigRatio []float64

	Target float64
	Alpha  float64
	Limits peak.Limits
}

func DefaultConfig(d detector.Detector) Config {
	return Config{
		Det:      d,
		Quantity: Amplitude,
		Spectrum: DefaultSpectrum,
		Ratio:    DefaultRatio,
		Target:   TargetADC,
		Alpha:    Alpha,
		Limits:   peak.CosmicLimits,
	}
}

// Job accumulates the per-block cosmic spectra.
type Job struct {
	Config
	Spectra *peak.Grid
	Ratios  *peak.Grid

	hits       *Hits
	amp, integ []float64
}

func New(cfg Config) *Job {
	d := cfg.Det
	return &Job{
		Config:  cfg,
		Spectra: peak.NewGrid(d.NRows, d.NCols, cfg.Spectrum.NBins, cfg.Spectrum.Min, cfg.Spectrum.Max),
		Ratios:  peak.NewGrid(d.NRows, d.NCols, cfg.Ratio.NBins, cfg.Ratio.Min, cfg.Ratio.Max),
		hits:    NewHits(d),
		amp:     make([]float64, d.N()),
		integ:   make([]float64, d.N()),
	}
}

func (j *Job) Groups() data.Groups {
	if j.Det.Prefix == detector.PS.Prefix {
		return data.PSRaw
	}
	return data.SHRaw
}

func (j *Job) Run(ctx context.Context, src data.Source) error {
	return data.OpArray{}.Process(ctx, src, j.Process)
}

// Process fills the spectra of the blocks a vertical muon crossed. A block
// is hit when its TDC fired, or when its ADC time is set if the event
// carries no TDC data.
func (j *Job) Process(e *data.Event) {
	c := e.Calo(j.Det.Prefix)
	if c == nil {
		return
	}

	j.hits.Reset()
	for i := range j.amp {
		j.amp[i] = 0
		j.integ[i] = 0
	}
	for _, hit := range c.ADC {
		if hit.Elem < 0 || hit.Elem >= len(j.amp) {
			continue
		}
		j.amp[hit.Elem] = hit.AmpP
		j.integ[hit.Elem] = hit.AP
		if len(c.TDC) == 0 && hit.Time != 0 {
			j.hits.Set(hit.Elem)
		}
	}
	for _, hit := range c.TDC {
		if hit.Elem >= 0 && hit.Elem < len(j.amp) && hit.T != 0 {
			j.hits.Set(hit.Elem)
		}
	}

	for i := range j.amp {
		row, col := j.Det.RowCol(i)
		if !j.hits.Vertical(row, col) {
			continue
		}
		v := j.amp[i]
		if j.Quantity == Integral {
			v = j.integ[i]
		}
		if j.TrigRatio != nil {
			v *= j.TrigRatio[i]
		}
		j.Spectra.Fill(i, v, 1)
		if j.integ[i] != 0 {
			j.Ratios.Fill(i, j.amp[i]/j.integ[i], 1)
		}
	}
}

// BlockFit is the cosmic peak of one block.
type BlockFit struct {
	Block   int
	Entries int64
	peak.PeakFit
	Flag   peak.Flag
	HVCorr float64
}

// Peak and its error, zero unless the fit is good.
func (f BlockFit) Peak() (float64, float64) {
	if f.Flag != peak.Good {
		return 0, 0
	}
	return f.Params[1], f.Errs[1]
}

// window is ±2.1σ, widened above the peak on the top row.
func (j *Job) window(row int) peak.Window {
	if row == j.Det.NRows-1 {
		return peak.Window{Lo: 2, Hi: 2.5}
	}
	return peak.Window{Lo: 2.1, Hi: 2.1}
}

// Fit fits every block spectrum. Blocks whose fit is not good keep their HV.
func (j *Job) Fit() []BlockFit {
	fits := make([]BlockFit, j.Spectra.Len())
	for i := range fits {
		row, _ := j.Det.RowCol(i)
		b := peak.BinsOf(j.Spectra.Hists[i])

		f := BlockFit{Block: i, Entries: b.Entries, HVCorr: 1}
		pf, err := peak.FitPeak(b, peak.Options{
			Skip:   peak.SkipPedestal,
			Window: j.window(row),
		})
		if err != nil {
			log.Printf("%v block %d: %v", j.Det, i, err)
			pf.Fitted = false
		}
		f.PeakFit = pf
		f.Flag = j.Limits.Judge(pf, b.Entries)

		if f.Flag == peak.Good && pf.Mean() > 0 {
			f.HVCorr = math.Pow(j.Target/pf.Mean(), 1/j.Alpha)
		} else {
			if f.Flag != peak.Good {
				log.Printf("%v block %d (%d.%d): %v", j.Det, i, row+1, i%j.Det.NCols+1, f.Flag)
			}
			f.zero()
		}
		fits[i] = f
	}
	return fits
}

func (f *BlockFit) zero() {
	f.Params = make([]float64, 3)
	f.Errs = make([]float64, 3)
	f.NInPeak = 0
}
