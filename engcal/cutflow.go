// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package engcal

import "log"

// Event rejection reasons, in selection order.
const (
	CutGlobal  = "global cut"
	CutTrack   = "no track"
	CutCluster = "no cluster"
	CutEovP    = "E/p"
	CutPMin    = "p min"
	CutPMax    = "p max"
	CutTarget  = "target acceptance"
	CutEnergy  = "proton energy"
	CutW       = "W"
	CutEdge    = "edge block"
	Accepted   = "accepted"
)

// Cutflow counts events per rejection reason.
type Cutflow struct {
	order []string
	n     map[string]int64
}

func (c *Cutflow) Add(reason string) {
	if c.n == nil {
		c.n = make(map[string]int64)
	}
	if _, ok := c.n[reason]; !ok {
		c.order = append(c.order, reason)
	}
	c.n[reason]++
}

func (c *Cutflow) Get(reason string) int64 {
	return c.n[reason]
}

func (c *Cutflow) Total() int64 {
	var total int64
	for _, n := range c.n {
		total += n
	}
	return total
}

func (c *Cutflow) Log() {
	for _, reason := range c.order {
		log.Printf("%-18v %d", reason+":", c.n[reason])
	}
}
