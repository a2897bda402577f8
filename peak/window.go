// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package peak

// Skip selects how the region in front of the signal peak is discarded.
type Skip int

const (
	NoSkip Skip = iota

	// SkipPedestal drops a leading pedestal or low energy peak.
	SkipPedestal

	// SkipEmpty drops a leading spike preceded by an empty bin.
	SkipEmpty
)

// PedestalFrac is the relative height below which the bins in front of the
// maximum are taken as the pedestal edge.
const PedestalFrac = 0.02

type Peak struct {
	Bin    int
	X      float64
	Max    float64
	From   int
	StdDev float64
}

// FindPeak locates the signal maximum after applying skip.
func FindPeak(b Bins, skip Skip) Peak {
	n := len(b.Y)
	from := 0
	max := b.MaxBin(0, n)

	var skipped bool
	switch skip {
	case SkipPedestal:
		skipped = b.Content(max-2) < PedestalFrac*b.Content(max)
	case SkipEmpty:
		skipped = b.Content(max-1) == 0
	}
	if skipped {
		for max+1 < n && b.Y[max+1] <= b.Y[max] {
			max++
		}
		if max+1 < n {
			from = max + 1
			max = b.MaxBin(from, n)
		}
	}

	p := Peak{Bin: max, From: from}
	if n > 0 {
		p.X = b.X[max]
		p.Max = b.Y[max]
	}
	_, p.StdDev = b.Stats(from, n)
	return p
}

// CanFit reports whether a histogram has enough entries and spread to fit.
func CanFit(b Bins, minEntries int64) bool {
	_, stdDev := b.Stats(0, len(b.Y))
	return b.Entries > minEntries && stdDev > 2*b.Width
}

// Window is an asymmetric fit range in units of sigma around a centre.
type Window struct {
	Lo, Hi float64
}

func (w Window) Range(centre, sigma float64) (lo, hi float64) {
	if sigma < 0 {
		sigma = -sigma
	}
	return centre - w.Lo*sigma, centre + w.Hi*sigma
}
