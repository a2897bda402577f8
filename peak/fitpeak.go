// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package peak

import "math"

// Options controls FitPeak.
type Options struct {
	Skip       Skip
	MinEntries int64
	Window     Window

	// Model is the shape fitted inside the window, Gaussian when unset.
	Model *Model

	// SingleStage centres the window on the histogram spread instead of
	// a preliminary full range Gaussian fit.
	SingleStage bool
}

// DefaultMinEntries is the entry count a histogram must exceed to be fitted.
const DefaultMinEntries = 20

type PeakFit struct {
	Peak
	Result

	NInPeak float64
	Fitted  bool
}

// FitPeak finds the signal peak of b and fits it inside the window. A
// histogram failing CanFit is returned unfitted without error.
func FitPeak(b Bins, opt Options) (PeakFit, error) {
	if opt.MinEntries == 0 {
		opt.MinEntries = DefaultMinEntries
	}
	model := Gaussian
	if opt.Model != nil {
		model = *opt.Model
	}

	var pf PeakFit
	if !CanFit(b, opt.MinEntries) {
		return pf, nil
	}
	pf.Peak = FindPeak(b, opt.Skip)

	sigma := pf.StdDev
	if sigma <= 0 {
		sigma = b.Width
	}
	seed := []float64{pf.Max, pf.X, sigma}

	if !opt.SingleStage {
		lo := b.X[pf.From] - b.Width/2
		hi := b.X[len(b.X)-1] + b.Width/2
		first, err := Fit(b, Gaussian, seed, lo, hi)
		if err != nil {
			pf.Result = first
			return pf, err
		}
		seed = first.Params
		sigma = first.Sigma()
	}

	lo, hi := opt.Window.Range(pf.X, sigma)
	init := seed
	if model.NPar == 4 {
		init = []float64{pf.Max * math.Exp(0.5), pf.X, sigma, 0}
	}

	r, err := Fit(b, model, init, lo, hi)
	pf.Result = r
	if err != nil {
		return pf, err
	}
	pf.NInPeak = b.Integral(lo, hi)
	pf.Fitted = true
	return pf, nil
}
