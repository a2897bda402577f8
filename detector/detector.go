// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package detector describes the block geometry of the BigBite shower,
// preshower and hadron calorimeters along with their high-voltage cabling.
package detector

import (
	"fmt"
	"strings"
)

type Detector struct {
	Name   string
	Prefix string
	NRows  int
	NCols  int
}

var (
	SH   = Detector{Name: "sh", Prefix: "bb.sh", NRows: 27, NCols: 7}
	PS   = Detector{Name: "ps", Prefix: "bb.ps", NRows: 26, NCols: 2}
	HCal = Detector{Name: "hcal", Prefix: "sbs.hcal", NRows: 24, NCols: 12}
)

// Cells in the joint shower+preshower system. Preshower cells follow the
// shower cells.
const (
	PSOffset = 189
	NBBCal   = 241
)

func ByName(name string) (Detector, error) {
	switch strings.ToLower(name) {
	case SH.Name:
		return SH, nil
	case PS.Name:
		return PS, nil
	case HCal.Name:
		return HCal, nil
	}
	return Detector{}, fmt.Errorf("unknown detector %q", name)
}

func (d Detector) N() int {
	return d.NRows * d.NCols
}

func (d Detector) Index(row, col int) int {
	return row*d.NCols + col
}

func (d Detector) RowCol(i int) (row, col int) {
	return i / d.NCols, i % d.NCols
}

func (d Detector) Contains(row, col int) bool {
	return row >= 0 && row < d.NRows && col >= 0 && col < d.NCols
}

// IsEdge reports whether the block sits on the outer frame of the detector.
func (d Detector) IsEdge(row, col int) bool {
	return row == 0 || row == d.NRows-1 || col == 0 || col == d.NCols-1
}

func (d Detector) String() string {
	return strings.ToUpper(d.Name)
}
