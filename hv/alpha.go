// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package hv

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/peak"
)

// FallbackAlpha is the exponent used when a block's fitted alpha is below 1.
const FallbackAlpha = 6

// AlphaFit is the gain curve log(peak) = Const + Alpha·log|HV| of one block
// and the HV giving the desired peak.
type AlphaFit struct {
	Block    int
	Const    float64
	Alpha    float64
	HV       float64
	Fallback bool
}

// FitAlpha fits the peaks measured at several HV settings of one block. The
// returned HV is negative and bounded by limit. A fitted alpha below 1 falls
// back to scaling the first setting by (desired/peak)^(1/FallbackAlpha).
func FitAlpha(block int, hv, peaks []float64, desired, limit float64) (AlphaFit, error) {
	f := AlphaFit{Block: block}
	if len(hv) != len(peaks) {
		return f, fmt.Errorf("block %d: %d HV values for %d peaks", block, len(hv), len(peaks))
	}

	x := make([]float64, len(hv))
	y := make([]float64, len(peaks))
	for i := range hv {
		if peaks[i] <= 0 || hv[i] == 0 {
			return f, fmt.Errorf("block %d: point %d has HV %v and peak %v", block, i, hv[i], peaks[i])
		}
		x[i] = math.Log(math.Abs(hv[i]))
		y[i] = math.Log(peaks[i])
	}

	var err error
	f.Const, f.Alpha, err = peak.FitLine(x, y)
	if err != nil {
		return f, fmt.Errorf("block %d: %w", block, err)
	}

	if f.Alpha < 1 {
		f.Fallback = true
		f.HV = -math.Abs(hv[0]) * math.Pow(desired/peaks[0], 1./FallbackAlpha)
	} else {
		f.HV = -math.Exp((math.Log(desired) - f.Const) / f.Alpha)
	}
	if math.Abs(f.HV) > limit {
		f.HV = -limit
	}
	return f, nil
}

// WriteAlphas lists "block alpha const" lines, readable by calib.ReadAlpha.
func WriteAlphas(w io.Writer, fits []AlphaFit) error {
	bw := bufio.NewWriter(w)
	for _, f := range fits {
		fmt.Fprintf(bw, "%d %v %v\n", f.Block, calib.FormatFloat(f.Alpha), calib.FormatFloat(f.Const))
	}
	return bw.Flush()
}
