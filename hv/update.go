// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package hv

import (
	"fmt"
	"log"
	"math"

	"github.com/rditech/bbcal/detector"
)

// Highest believable |HV| per detector, in V.
const (
	SHLimit = 2000
	PSLimit = 1800
)

// Limit returns the |HV| bound of d.
func Limit(d detector.Detector) float64 {
	if d.Prefix == detector.PS.Prefix {
		return PSLimit
	}
	return SHLimit
}

// Map returns the mainframe map of d.
func Map(d detector.Detector) (detector.HVMap, error) {
	switch d.Prefix {
	case detector.SH.Prefix:
		return detector.SHHVMap(), nil
	case detector.PS.Prefix:
		return detector.PSHVMap(), nil
	}
	return nil, fmt.Errorf("no HV map for %v", d)
}

// Change records the update of one block.
type Change struct {
	Block    int
	Old, New float64
	Kept     bool
}

// Update scales the HV of every block of d by ratio^(1/alpha). A new value
// that is NaN or above the detector limit is dropped and the block keeps its
// old HV. Channels outside d are copied unchanged.
func Update(s *Settings, d detector.Detector, ratio, alpha []float64) (*Settings, []Change, error) {
	m, err := Map(d)
	if err != nil {
		return nil, nil, err
	}
	if len(ratio) != len(m) || len(alpha) != len(m) {
		return nil, nil, fmt.Errorf("%v: %d ratios and %d alphas for %d blocks", d, len(ratio), len(alpha), len(m))
	}

	limit := Limit(d)
	out := s.clone()
	changes := make([]Change, len(m))
	for blk, a := range m {
		old := s.V[a.Crate][a.Slot][a.Chan]
		c := Change{Block: blk, Old: old, New: old * math.Pow(ratio[blk], 1/alpha[blk])}
		if math.IsNaN(c.New) || math.Abs(c.New) > limit {
			row, col := d.RowCol(blk)
			log.Printf("%v %d-%d: new HV %v seems too high, keeping %v", d, row+1, col+1, c.New, old)
			c.Kept = true
		} else {
			out.V[a.Crate][a.Slot][a.Chan] = c.New
		}
		changes[blk] = c
	}
	return out, changes, nil
}

// PeakRatios returns desired/peak per block.
func PeakRatios(desired float64, peaks []float64) []float64 {
	r := make([]float64, len(peaks))
	for i, p := range peaks {
		r[i] = desired / p
	}
	return r
}

// Combine takes the preshower channels from ps and everything else from sh.
func Combine(sh, ps *Settings) *Settings {
	out := sh.clone()
	for c := range out.V {
		for s := range out.V[c] {
			for ch := range out.V[c][s] {
				if IsPS(c, s, ch) {
					out.V[c][s][ch] = ps.V[c][s][ch]
				}
			}
			out.Read[c][s] = sh.Read[c][s] || ps.Read[c][s]
		}
	}
	return out
}

// IsPS reports whether a mainframe channel powers a preshower block.
func IsPS(crate, slot, ch int) bool {
	switch crate {
	case 0:
		return slot < 2 || (slot == 2 && ch < 3)
	case 1:
		return slot > 13 || (slot == 13 && ch > 8)
	}
	return false
}

// Shift subtracts delta from every channel except crate 0 slot 9 channels
// above 2.
func Shift(s *Settings, delta float64) *Settings {
	out := s.clone()
	for c := range out.V {
		for sl := range out.V[c] {
			for ch := range out.V[c][sl] {
				if c == 0 && sl == 9 && ch > 2 {
					continue
				}
				out.V[c][sl][ch] -= delta
			}
		}
	}
	return out
}
