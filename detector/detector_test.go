// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package detector

import (
	"math"
	"testing"
)

func TestIndexRoundTrip(t *testing.T) {
	for _, d := range []Detector{SH, PS, HCal} {
		for i := 0; i < d.N(); i++ {
			row, col := d.RowCol(i)
			if !d.Contains(row, col) {
				t.Fatalf("%v: block %d maps outside detector (%d, %d)", d, i, row, col)
			}
			if got := d.Index(row, col); got != i {
				t.Errorf("%v: Index(RowCol(%d)) = %d", d, i, got)
			}
		}
	}
	if SH.N()+PS.N() != NBBCal {
		t.Errorf("joint cell count %d, want %d", SH.N()+PS.N(), NBBCal)
	}
}

func TestIsEdge(t *testing.T) {
	tests := []struct {
		d        Detector
		row, col int
		edge     bool
	}{
		{SH, 0, 3, true},
		{SH, 26, 3, true},
		{SH, 5, 0, true},
		{SH, 5, 6, true},
		{SH, 5, 3, false},
		{HCal, 23, 5, true},
		{HCal, 12, 11, true},
		{HCal, 12, 5, false},
	}
	for _, test := range tests {
		if got := test.d.IsEdge(test.row, test.col); got != test.edge {
			t.Errorf("%v.IsEdge(%d, %d) = %v", test.d, test.row, test.col, got)
		}
	}
}

func TestByName(t *testing.T) {
	d, err := ByName("PS")
	if err != nil || d.NRows != 26 {
		t.Errorf("ByName(PS) = %v, %v", d, err)
	}
	if _, err := ByName("gem"); err == nil {
		t.Error("expected error for unknown detector")
	}
}

func TestSHHVMap(t *testing.T) {
	m := SHHVMap()
	tests := []struct {
		blk  int
		addr HVAddr
	}{
		{0, HVAddr{0, 2, 3}},
		{8, HVAddr{0, 2, 11}},
		{9, HVAddr{0, 3, 0}},
		{SH.Index(12, 0), HVAddr{1, 5, 0}},
		{SH.Index(12, 6), HVAddr{1, 5, 6}},
		{SH.Index(13, 5), HVAddr{1, 6, 0}},
	}
	for _, test := range tests {
		if m[test.blk] != test.addr {
			t.Errorf("block %d: got %+v, want %+v", test.blk, m[test.blk], test.addr)
		}
	}

	seen := make(map[HVAddr]bool)
	for _, a := range m {
		if seen[a] {
			t.Fatalf("channel %+v assigned twice", a)
		}
		seen[a] = true
	}
}

func TestPSHVMap(t *testing.T) {
	m := PSHVMap()
	if m[PS.Index(0, 0)] != (HVAddr{0, 0, 0}) {
		t.Errorf("first left block: %+v", m[0])
	}
	if m[PS.Index(12, 0)] != (HVAddr{0, 1, 0}) {
		t.Errorf("row 12 left block: %+v", m[PS.Index(12, 0)])
	}
	if m[PS.Index(0, 1)] != (HVAddr{1, 13, 9}) {
		t.Errorf("first right block: %+v", m[PS.Index(0, 1)])
	}
	if m[PS.Index(3, 1)] != (HVAddr{1, 14, 0}) {
		t.Errorf("row 3 right block: %+v", m[PS.Index(3, 1)])
	}

	blocks := m.Blocks()
	if blocks[0][0][5] != PS.Index(5, 0) {
		t.Errorf("inverse map: %d", blocks[0][0][5])
	}
	if blocks[0][15][0] != -1 {
		t.Errorf("unused channel mapped to %d", blocks[0][15][0])
	}
}

func TestBlockPositions(t *testing.T) {
	x, y := BlockPositions(0, 0, true)
	if math.Abs(x[0]-1.725) > 1e-12 || math.Abs(y[0]-0.825) > 1e-12 {
		t.Errorf("first block at (%v, %v)", x[0], y[0])
	}
	last := HCal.N() - 1
	if math.Abs(x[last]+1.725) > 1e-12 || math.Abs(y[last]+0.825) > 1e-12 {
		t.Errorf("last block at (%v, %v)", x[last], y[last])
	}

	x, y = BlockPositions(0.1, 0, false)
	if math.Abs(x[0]+1.825) > 1e-12 || math.Abs(x[HCal.Index(1, 0)]+1.675) > 1e-12 {
		t.Errorf("floor frame x: %v %v", x[0], x[HCal.Index(1, 0)])
	}
	if math.Abs(y[1]-y[0]-HCalPitch) > 1e-12 {
		t.Errorf("floor frame y step: %v", y[1]-y[0])
	}
}
