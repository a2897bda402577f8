// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

// KeepOnlyClusters drops the per-channel readout so that events held in
// memory for a second pass stay small.
func KeepOnlyClusters(event *Event) {
	for _, c := range []*Calo{&event.SH, &event.PS, &event.HCal} {
		c.ADC = nil
		c.TDC = nil
	}
	event.Trig = nil
	event.HodoTMean = nil
	event.HodoTrackIndex = nil
}

// RemoveVars drops the extra cut variables.
func RemoveVars(event *Event) {
	event.Vars = nil
}
