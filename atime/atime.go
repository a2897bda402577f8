// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package atime aligns the shower and preshower ADC times to the timing
// hodoscope.
package atime

import (
	"context"
	"fmt"
	"log"

	"github.com/rditech/bbcal/config"
	"github.com/rditech/bbcal/data"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/peak"
	"go-hep.org/x/hep/hbook"
)

// DefaultHist bins hodoscope mean time minus ADC time, in ns.
var DefaultHist = config.Hist{NBins: 120, Min: -70, Max: -10}

// Fit windows in units of the histogram spread.
var (
	SHWindow = peak.Window{Lo: 1.3, Hi: 0.8}
	PSWindow = peak.Window{Lo: 1.2, Hi: 0.5}
)

// MinPSE is the smallest preshower cluster energy used, in GeV.
const MinPSE = 0.2

type Config struct {
	Cut  string
	Hist config.Hist

	// Nominal is the offset of blocks that cannot be fitted.
	Nominal float64

	// OldSH and OldPS are the offsets already applied in the replay, nil
	// for none.
	OldSH, OldPS []float64
}

func DefaultConfig() Config {
	return Config{Hist: DefaultHist}
}

type sample struct {
	ps    bool
	block int
	dt    float64
}

// Job fills one time difference histogram per block from the cluster seed
// blocks.
type Job struct {
	Config
	SH, PS *peak.Grid
	Events int64

	cut     *config.Cut
	cutErr  error
	samples []sample
}

func New(cfg Config) (*Job, error) {
	if cfg.Hist.NBins == 0 {
		cfg.Hist = DefaultHist
	}
	for _, old := range []struct {
		d detector.Detector
		v []float64
	}{{detector.SH, cfg.OldSH}, {detector.PS, cfg.OldPS}} {
		if old.v != nil && len(old.v) != old.d.N() {
			return nil, fmt.Errorf("%d old %v offsets for %d blocks", len(old.v), old.d, old.d.N())
		}
	}

	cut, err := config.NewCut(cfg.Cut)
	if err != nil {
		return nil, err
	}
	h := cfg.Hist
	return &Job{
		Config: cfg,
		SH:     peak.NewGrid(detector.SH.NRows, detector.SH.NCols, h.NBins, h.Min, h.Max),
		PS:     peak.NewGrid(detector.PS.NRows, detector.PS.NCols, h.NBins, h.Min, h.Max),
		cut:    cut,
	}, nil
}

func (j *Job) Groups() data.Groups {
	return data.SHClusters | data.PSClusters | data.Hodo
}

func (j *Job) CutVars() []string {
	return j.cut.Vars()
}

func (j *Job) Run(ctx context.Context, src data.Source) error {
	return data.OpArray{}.Process(ctx, src, j.Process)
}

// seedTime is the ADC time of the cluster's seed block.
func seedTime(c *data.Calo) float64 {
	if len(c.Blocks) > 0 {
		return c.Blocks[0].ATime
	}
	return c.ATimeBlk
}

func (j *Job) Process(e *data.Event) {
	pass, err := j.cut.Pass(e)
	if err != nil && j.cutErr == nil {
		j.cutErr = err
		log.Printf("global cut: %v", err)
	}
	if !pass {
		return
	}

	if e.SH.NClus == 0 || e.PS.NClus == 0 || e.PS.IdBlk == -1 || e.PS.E < MinPSE {
		return
	}
	if len(e.HodoTMean) == 0 || len(e.HodoTrackIndex) == 0 || e.HodoTrackIndex[0] != 0 {
		return
	}
	j.Events++

	tmean := e.HodoTMean[0]
	j.fill(detector.SH, j.SH, &e.SH, tmean, false)
	j.fill(detector.PS, j.PS, &e.PS, tmean, true)
}

func (j *Job) fill(d detector.Detector, g *peak.Grid, c *data.Calo, tmean float64, ps bool) {
	if !d.Contains(c.RowBlk, c.ColBlk) {
		return
	}
	i := d.Index(c.RowBlk, c.ColBlk)
	dt := tmean - seedTime(c)
	g.Fill(i, dt, 1)
	j.samples = append(j.samples, sample{ps: ps, block: i, dt: dt})
}

// Offset is the fitted time offset of one block.
type Offset struct {
	Block   int
	Entries int64
	peak.PeakFit

	// Value is written to the offset file.
	Value float64
}

// Fit fits the time difference of every block of d. Blocks failing the fit
// condition get the nominal offset; others the fitted mean plus the old
// offset.
func (j *Job) Fit(d detector.Detector) ([]Offset, error) {
	g, w, old := j.SH, SHWindow, j.OldSH
	if d.Prefix == detector.PS.Prefix {
		g, w, old = j.PS, PSWindow, j.OldPS
	} else if d.Prefix != detector.SH.Prefix {
		return nil, fmt.Errorf("no ADC times for %v", d)
	}

	offsets := make([]Offset, g.Len())
	for i := range offsets {
		b := peak.BinsOf(g.Hists[i])
		o := Offset{Block: i, Entries: b.Entries, Value: j.Nominal}
		pf, err := peak.FitPeak(b, peak.Options{
			Skip:        peak.SkipEmpty,
			Window:      w,
			SingleStage: true,
		})
		o.PeakFit = pf
		switch {
		case err != nil:
			log.Printf("%v block %d: %v", d, i, err)
			o.Fitted = false
		case pf.Fitted:
			o.Value = pf.Mean()
			if old != nil {
				o.Value += old[i]
			}
		}
		offsets[i] = o
	}
	return offsets, nil
}

// Values lists the offsets to write.
func Values(offsets []Offset) []float64 {
	v := make([]float64, len(offsets))
	for i, o := range offsets {
		v[i] = o.Value
	}
	return v
}

// Corrected histograms the time differences of the selected events against
// the block, before and after subtracting the fitted means.
func (j *Job) Corrected(d detector.Detector, offsets []Offset) (before, after *hbook.H2D) {
	ps := d.Prefix == detector.PS.Prefix
	n := float64(d.N())
	h := j.Hist
	before = hbook.NewH2D(d.N(), 0, n, h.NBins, h.Min, h.Max)
	after = hbook.NewH2D(d.N(), 0, n, h.NBins, h.Min-h.Max, h.Max-h.Min)
	for _, s := range j.samples {
		if s.ps != ps {
			continue
		}
		x := float64(s.block) + 0.5
		before.Fill(x, s.dt, 1)
		if s.block < len(offsets) && offsets[s.block].Fitted {
			after.Fill(x, s.dt-offsets[s.block].Mean(), 1)
		}
	}
	return before, after
}
