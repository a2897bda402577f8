// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package pedestal measures the ADC pedestal mean and noise of every channel
// from raw readout.
package pedestal

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/config"
	"github.com/rditech/bbcal/data"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/peak"
	"github.com/rditech/bbcal/plot"
	"go-hep.org/x/hep/hbook"
)

// DefaultHist bins the raw ADC integral.
var DefaultHist = config.Hist{NBins: 50, Min: 0, Max: 100}

// HalfWidth is the half width of the fit range around the highest bin.
const HalfWidth = 15.

type Job struct {
	Det  detector.Detector
	Hist config.Hist
	ADC  *peak.Grid
}

func New(d detector.Detector, h config.Hist) *Job {
	if h.NBins == 0 {
		h = DefaultHist
	}
	return &Job{
		Det:  d,
		Hist: h,
		ADC:  peak.NewGrid(d.NRows, d.NCols, h.NBins, h.Min, h.Max),
	}
}

func (j *Job) Groups() data.Groups {
	if j.Det.Prefix == detector.PS.Prefix {
		return data.PSRaw
	}
	return data.SHRaw
}

// Ops drops the events that read out no channel of the detector.
func (j *Job) Ops() data.OpArray {
	return data.OpArray{data.Filter("events with "+j.Det.String()+" ADC hits", func(e *data.Event) bool {
		c := e.Calo(j.Det.Prefix)
		return c != nil && len(c.ADC) > 0
	})}
}

func (j *Job) Run(ctx context.Context, src data.Source) error {
	return j.Ops().Process(ctx, src, j.Process)
}

// Process fills the raw integral of every channel read out.
func (j *Job) Process(e *data.Event) {
	c := e.Calo(j.Det.Prefix)
	if c == nil {
		return
	}
	for _, hit := range c.ADC {
		if hit.Elem >= 0 && hit.Elem < j.ADC.Len() {
			j.ADC.Fill(hit.Elem, hit.A, 1)
		}
	}
}

type Pedestal struct {
	Block   int
	Entries int64
	Mean    float64
	Sigma   float64

	// Fitted is false when Mean and Sigma are the histogram moments in
	// the fit range.
	Fitted bool
	Fit    peak.Result
}

// Fit fits a Gaussian within HalfWidth of the highest bin of each channel.
func (j *Job) Fit() []Pedestal {
	peds := make([]Pedestal, j.ADC.Len())
	for i := range peds {
		b := peak.BinsOf(j.ADC.Hists[i])
		p := Pedestal{Block: i, Entries: b.Entries}
		if b.Entries == 0 {
			peds[i] = p
			continue
		}

		max := b.MaxBin(0, len(b.Y))
		centre := b.X[max]
		lo, hi := centre-HalfWidth, centre+HalfWidth
		from := int((lo - b.X[0]) / b.Width)
		to := int((hi-b.X[0])/b.Width) + 1
		p.Mean, p.Sigma = b.Stats(from, to)

		sigma := p.Sigma
		if sigma <= 0 {
			sigma = b.Width
		}
		r, err := peak.Fit(b, peak.Gaussian, []float64{b.Y[max], centre, sigma}, lo, hi)
		if err != nil {
			row, col := j.Det.RowCol(i)
			log.Printf("%v %d-%d: pedestal fit: %v", j.Det, row+1, col+1, err)
		} else {
			p.Fit = r
			p.Mean, p.Sigma = r.Mean(), r.Sigma()
			if p.Sigma < 0 {
				p.Sigma = -p.Sigma
			}
			p.Fitted = true
		}
		peds[i] = p
	}
	return peds
}

func Means(peds []Pedestal) []float64 {
	v := make([]float64, len(peds))
	for i, p := range peds {
		v[i] = p.Mean
	}
	return v
}

func Sigmas(peds []Pedestal) []float64 {
	v := make([]float64, len(peds))
	for i, p := range peds {
		v[i] = p.Sigma
	}
	return v
}

// WriteDB writes the <prefix>.pedestal and <prefix>.pednoise entries.
func WriteDB(w io.Writer, d detector.Detector, peds []Pedestal) error {
	if len(peds) != d.N() {
		return fmt.Errorf("%d pedestals for %d %v channels", len(peds), d.N(), d)
	}
	if err := calib.WriteDB(w, d.Prefix+".pedestal", Means(peds), d.NCols); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return calib.WriteDB(w, d.Prefix+".pednoise", Sigmas(peds), d.NCols)
}

// Plot draws the pedestal means and noise in the detector view and the
// noise distribution.
func Plot(path string, d detector.Detector, peds []Pedestal) error {
	noise := hbook.NewH1D(80, 0, 20)
	for _, p := range peds {
		if p.Entries > 0 {
			noise.Fill(p.Sigma, 1)
		}
	}

	name := d.String()
	pg := plot.NewPage(1, 3)
	pg.Set(0, plot.NewHeatMap(name+" pedestal", name+" col", name+" row", plot.Values(d.NRows, d.NCols, Means(peds)), 0, 0))
	pg.Set(1, plot.NewHeatMap(name+" pedestal noise", name+" col", name+" row", plot.Values(d.NRows, d.NCols, Sigmas(peds)), 0, 0))
	p, err := plot.NewHist1D("pedestal sigma for all blocks", "sigma", noise, nil, 0, 0)
	if err != nil {
		return err
	}
	plot.SetLogY(p)
	pg.Set(2, p)
	return pg.Save(path)
}
