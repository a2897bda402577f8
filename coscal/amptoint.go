// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package coscal

import (
	"log"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/config"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/peak"
)

// AmpToIntRatio is the ratio binning of the dedicated amplitude to integral
// job.
var AmpToIntRatio = config.Hist{NBins: 16, Min: 1, Max: 3}

// AmpToInt fits the amplitude to integral ratio of every block with a
// Gaussian over the whole histogram. Blocks that cannot be fitted get 0.
func (j *Job) AmpToInt() []float64 {
	ratios := make([]float64, j.Ratios.Len())
	for i, h := range j.Ratios.Hists {
		b := peak.BinsOf(h)
		if !peak.CanFit(b, peak.DefaultMinEntries) {
			continue
		}
		pk := peak.FindPeak(b, peak.NoSkip)
		lo := b.X[0] - b.Width/2
		hi := b.X[len(b.X)-1] + b.Width/2
		r, err := peak.Fit(b, peak.Gaussian, []float64{pk.Max, pk.X, pk.StdDev}, lo, hi)
		if err != nil {
			log.Printf("%v block %d: amp/int: %v", j.Det, i, err)
			continue
		}
		ratios[i] = r.Mean()
	}
	return ratios
}

// CosmicEdep is the energy a vertical muon leaves in a block, in GeV.
const CosmicEdep = 0.06

// Defaults of the ADC gain conversion.
const (
	DefaultCF      = 1.21
	DefaultTrigAmp = 25.
)

// ADCGain converts amplitude to integral ratios into ADC gain factors in
// GeV/pC for a trigger amplitude in mV.
func ADCGain(ampToInt []float64, cF, trigAmp float64) []float64 {
	gain := make([]float64, len(ampToInt))
	for i, r := range ampToInt {
		gain[i] = r * CosmicEdep * cF / trigAmp
	}
	return gain
}

// ReadAmpToInt reads a ratio file written from AmpToInt.
func ReadAmpToInt(path string, d detector.Detector) ([]float64, error) {
	return calib.ReadValues(path, d.N())
}
