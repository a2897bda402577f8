// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/detector"
)

// Pedestals holds per-channel ADC integral pedestals. A nil table leaves
// that detector untouched.
type Pedestals struct {
	SH []float64
	PS []float64
}

// LoadPedestals reads SH and PS pedestal files. An empty path skips the
// detector.
func LoadPedestals(shPath, psPath string) (*Pedestals, error) {
	p := &Pedestals{}
	var err error
	if shPath != "" {
		if p.SH, err = calib.ReadValues(shPath, detector.SH.N()); err != nil {
			return nil, err
		}
	}
	if psPath != "" {
		if p.PS, err = calib.ReadValues(psPath, detector.PS.N()); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func subtract(hits []ADCHit, peds []float64) {
	if peds == nil {
		return
	}
	for i := range hits {
		hit := &hits[i]
		if hit.Elem < 0 || hit.Elem >= len(peds) {
			continue
		}
		hit.Ped = peds[hit.Elem]
		hit.AP = hit.A - hit.Ped
	}
}

// Subtract sets the pedestal and the pedestal subtracted integral of every
// shower and preshower hit.
func (p *Pedestals) Subtract(input <-chan *Event, output chan<- *Event) {
	for event := range input {
		subtract(event.SH.ADC, p.SH)
		subtract(event.PS.ADC, p.PS)
		output <- event
	}
}

func (p *Pedestals) Op() StreamOp {
	return StreamOp{Description: "subtract pedestals", Processor: p.Subtract}
}
