// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package peak

type Flag int

const (
	Good Flag = iota
	NoData
	Wide
	Narrow
	BigError
)

var flagNames = [...]string{"Good", "No_Data", "Wide", "Narrow", "Big_error"}

func (f Flag) String() string {
	if f < 0 || int(f) >= len(flagNames) {
		return "Unknown"
	}
	return flagNames[f]
}

// Limits are the fit quality thresholds of a job.
type Limits struct {
	MinEntries int64
	MaxSigma   float64
	MinSigma   float64
	MaxErr     float64
}

// CosmicLimits are the thresholds used for cosmic peaks.
var CosmicLimits = Limits{
	MinEntries: DefaultMinEntries,
	MaxSigma:   60,
	MinSigma:   0.1,
	MaxErr:     20,
}

// Judge grades a fit. Only the position and width errors are checked. A
// histogram with enough entries that was not fitted has zero width and is
// Narrow.
func (l Limits) Judge(pf PeakFit, entries int64) Flag {
	switch {
	case entries < l.MinEntries:
		return NoData
	case !pf.Fitted:
		return Narrow
	case pf.Sigma() > l.MaxSigma:
		return Wide
	case pf.Sigma() < l.MinSigma:
		return Narrow
	case pf.Errs[1] > l.MaxErr || pf.Errs[2] > l.MaxErr:
		return BigError
	}
	return Good
}
