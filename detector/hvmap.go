// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package detector

const (
	HVCrates = 2
	HVSlots  = 16
	HVChans  = 12
)

var HVCrateNames = [HVCrates]string{"rpi17:2001", "rpi18:2001"}

type HVAddr struct {
	Crate, Slot, Chan int
}

// HVMap assigns each block of a detector to a mainframe channel.
type HVMap []HVAddr

// Blocks returns the inverse map, with -1 for channels not serving the
// detector.
func (m HVMap) Blocks() [HVCrates][HVSlots][HVChans]int {
	var blocks [HVCrates][HVSlots][HVChans]int
	for c := range blocks {
		for s := range blocks[c] {
			for ch := range blocks[c][s] {
				blocks[c][s][ch] = -1
			}
		}
	}
	for blk, a := range m {
		blocks[a.Crate][a.Slot][a.Chan] = blk
	}
	return blocks
}

type cursor struct {
	HVAddr
}

func (c *cursor) next() HVAddr {
	a := c.HVAddr
	c.Chan++
	if c.Chan == HVChans {
		c.Chan = 0
		c.Slot++
	}
	return a
}

// SHHVMap fills the shower row-major starting at crate 0 slot 2 channel 3;
// the upper half (row 12 on) restarts at crate 1 slot 5 channel 0.
func SHHVMap() HVMap {
	m := make(HVMap, SH.N())
	cur := cursor{HVAddr{Crate: 0, Slot: 2, Chan: 3}}
	for row := 0; row < SH.NRows; row++ {
		if row == 12 {
			cur = cursor{HVAddr{Crate: 1, Slot: 5, Chan: 0}}
		}
		for col := 0; col < SH.NCols; col++ {
			m[SH.Index(row, col)] = cur.next()
		}
	}
	return m
}

// PSHVMap runs each preshower column down the rows, column 0 from crate 0
// slot 0 channel 0 and column 1 from crate 1 slot 13 channel 9.
func PSHVMap() HVMap {
	m := make(HVMap, PS.N())
	starts := [2]HVAddr{{Crate: 0, Slot: 0, Chan: 0}, {Crate: 1, Slot: 13, Chan: 9}}
	for col, start := range starts {
		cur := cursor{start}
		for row := 0; row < PS.NRows; row++ {
			m[PS.Index(row, col)] = cur.next()
		}
	}
	return m
}
