// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package coscal

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/peak"
)

// TargetRAU is the desired most probable cosmic amplitude of the Landau
// method, in ADC units.
const TargetRAU = 78.355

// MaxMPV bounds a believable most probable value.
const MaxMPV = 2000

// HVTarget is the HV that moves a block's most probable cosmic amplitude to
// the target.
type HVTarget struct {
	Block  int
	MPV    float64
	Fitted bool
	HV     float64
}

// HVTargets fits each spectrum with a Landau shape between 0.5σ below and
// 2σ above the maximum and scales the block HV by (mpv/target)^(-1/alpha).
// Unfitted blocks use the spectrum mean; empty blocks keep their HV.
func (j *Job) HVTargets(hv, alpha []float64, target float64) ([]HVTarget, error) {
	n := j.Spectra.Len()
	if len(hv) != n || len(alpha) != n {
		return nil, fmt.Errorf("%d HV values and %d alphas for %d blocks", len(hv), len(alpha), n)
	}

	targets := make([]HVTarget, n)
	for i := range targets {
		t := HVTarget{Block: i, HV: hv[i]}
		b := peak.BinsOf(j.Spectra.Hists[i])

		pf, err := peak.FitPeak(b, peak.Options{
			Window:      peak.Window{Lo: 0.5, Hi: 2},
			Model:       &peak.Moyal,
			SingleStage: true,
		})
		if err == nil && pf.Fitted && pf.Mean() > 0 && pf.Mean() < MaxMPV {
			t.MPV = pf.Mean()
			t.Fitted = true
		} else if b.Entries > 0 {
			t.MPV, _ = b.Stats(0, len(b.Y))
		}

		if t.MPV > 0 && alpha[i] != 0 {
			t.HV = hv[i] / math.Pow(t.MPV/target, 1/alpha[i])
		}
		targets[i] = t
	}
	return targets, nil
}

// WriteHVTargets lists "row col HV" per block.
func (j *Job) WriteHVTargets(w io.Writer, run int, targets []HVTarget) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#Target HV settings for run %d\n", run)
	fmt.Fprintln(bw, "#Row Col targetHV")
	for _, t := range targets {
		row, col := j.Det.RowCol(t.Block)
		fmt.Fprintf(bw, "%d  %d  %v  \n", row, col, calib.FormatFloat(t.HV))
	}
	return bw.Flush()
}
