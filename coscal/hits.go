// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package coscal

import "github.com/rditech/bbcal/detector"

// Hits marks the blocks with a pulse in one event.
type Hits struct {
	det detector.Detector
	hit []bool
}

func NewHits(d detector.Detector) *Hits {
	return &Hits{det: d, hit: make([]bool, d.N())}
}

func (h *Hits) Reset() {
	for i := range h.hit {
		h.hit[i] = false
	}
}

func (h *Hits) Set(i int) {
	h.hit[i] = true
}

// At is false outside the detector.
func (h *Hits) At(row, col int) bool {
	if !h.det.Contains(row, col) {
		return false
	}
	return h.hit[h.det.Index(row, col)]
}

// Vertical reports whether a cosmic crossed the block straight up. The
// bottom and top rows need three hits above or below, other rows one hit
// directly above and one below. The left and right neighbours must be
// empty.
func (h *Hits) Vertical(row, col int) bool {
	var vertical bool
	switch row {
	case 0:
		vertical = h.At(1, col) && h.At(2, col) && h.At(3, col)
	case h.det.NRows - 1:
		vertical = h.At(row-1, col) && h.At(row-2, col) && h.At(row-3, col)
	default:
		vertical = h.At(row-1, col) && h.At(row+1, col)
	}
	return vertical && !h.At(row, col-1) && !h.At(row, col+1)
}
