// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"strconv"
	"strings"
)

type Track struct {
	P, Px, Py, Pz float64
	X, Y, Th, Ph  float64
	TgTh, TgPh    float64
	RTh, RPh      float64
	Vz            float64
	Chi2          float64
}

type Cluster struct {
	E        float64
	Row, Col int
	NBlk     int
}

// Block is a member of the best cluster. ID is the element id as stored in
// the tree; HCal ids start at one.
type Block struct {
	ID    int
	E     float64
	ATime float64
}

// ADCHit is the per-channel FADC readout. A and Amp are raw, AP and AmpP
// pedestal subtracted.
type ADCHit struct {
	Elem  int
	A, AP float64
	Amp   float64
	AmpP  float64
	Time  float64
	Ped   float64
}

type TDCHit struct {
	Elem int
	T    float64
}

type Calo struct {
	NClus    int
	E        float64
	RowBlk   int
	ColBlk   int
	IdBlk    int
	NBlk     int
	ATimeBlk float64

	Clusters []Cluster
	Blocks   []Block
	ADC      []ADCHit
	TDC      []TDCHit
}

// Kine holds the reconstructed elastic kinematics for the chosen track.
type Kine struct {
	Track     int
	PRec      float64
	Theta     float64
	Q2        float64
	W2        float64
	W         float64
	ThetaBend float64
}

type Event struct {
	Entry int64

	Tracks []Track
	SH     Calo
	PS     Calo
	HCal   Calo

	HodoTMean      []float64
	HodoTrackIndex []float64

	// Trig is the trigger-sum reference readout.
	Trig []ADCHit

	Kine *Kine

	// Vars carries extra named branches requested by a global cut.
	Vars map[string]float64
}

// Var resolves a branch name such as "bb.tr.p[0]" against the event. A bare
// array name reads its first element.
func (e *Event) Var(name string) (float64, bool) {
	if v, ok := e.Vars[name]; ok {
		return v, true
	}

	base, idx := splitIndex(name)
	if f, ok := scalarVars[base]; ok {
		return f(e), true
	}
	if f, ok := arrayVars[base]; ok {
		return f(e, idx)
	}
	return 0, false
}

func splitIndex(name string) (string, int) {
	open := strings.IndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return name, 0
	}
	idx, err := strconv.Atoi(name[open+1 : len(name)-1])
	if err != nil {
		return name, 0
	}
	return name[:open], idx
}

// Calo returns the calorimeter with the given branch prefix, nil if unknown.
func (e *Event) Calo(prefix string) *Calo {
	switch prefix {
	case "bb.sh":
		return &e.SH
	case "bb.ps":
		return &e.PS
	case "sbs.hcal":
		return &e.HCal
	}
	return nil
}

var caloPrefixes = []string{"bb.sh", "bb.ps", "sbs.hcal"}

var scalarVars = map[string]func(*Event) float64{
	"bb.tr.n": func(e *Event) float64 { return float64(len(e.Tracks)) },
}

var arrayVars = map[string]func(*Event, int) (float64, bool){}

func trackVar(f func(*Track) float64) func(*Event, int) (float64, bool) {
	return func(e *Event, i int) (float64, bool) {
		if i < 0 || i >= len(e.Tracks) {
			return 0, false
		}
		return f(&e.Tracks[i]), true
	}
}

func sliceVar(f func(*Event) []float64) func(*Event, int) (float64, bool) {
	return func(e *Event, i int) (float64, bool) {
		s := f(e)
		if i < 0 || i >= len(s) {
			return 0, false
		}
		return s[i], true
	}
}

func init() {
	tracks := map[string]func(*Track) float64{
		"p":     func(t *Track) float64 { return t.P },
		"px":    func(t *Track) float64 { return t.Px },
		"py":    func(t *Track) float64 { return t.Py },
		"pz":    func(t *Track) float64 { return t.Pz },
		"x":     func(t *Track) float64 { return t.X },
		"y":     func(t *Track) float64 { return t.Y },
		"th":    func(t *Track) float64 { return t.Th },
		"ph":    func(t *Track) float64 { return t.Ph },
		"tg_th": func(t *Track) float64 { return t.TgTh },
		"tg_ph": func(t *Track) float64 { return t.TgPh },
		"r_th":  func(t *Track) float64 { return t.RTh },
		"r_ph":  func(t *Track) float64 { return t.RPh },
		"vz":    func(t *Track) float64 { return t.Vz },
		"chi2":  func(t *Track) float64 { return t.Chi2 },
	}
	for name, f := range tracks {
		arrayVars["bb.tr."+name] = trackVar(f)
	}

	for _, prefix := range caloPrefixes {
		prefix := prefix
		c := func(e *Event) *Calo { return e.Calo(prefix) }
		scalarVars[prefix+".nclus"] = func(e *Event) float64 { return float64(c(e).NClus) }
		scalarVars[prefix+".e"] = func(e *Event) float64 { return c(e).E }
		scalarVars[prefix+".rowblk"] = func(e *Event) float64 { return float64(c(e).RowBlk) }
		scalarVars[prefix+".colblk"] = func(e *Event) float64 { return float64(c(e).ColBlk) }
		scalarVars[prefix+".idblk"] = func(e *Event) float64 { return float64(c(e).IdBlk) }
		scalarVars[prefix+".nblk"] = func(e *Event) float64 { return float64(c(e).NBlk) }
		scalarVars[prefix+".atimeblk"] = func(e *Event) float64 { return c(e).ATimeBlk }

		clus := map[string]func(*Cluster) float64{
			"e":    func(cl *Cluster) float64 { return cl.E },
			"row":  func(cl *Cluster) float64 { return float64(cl.Row) },
			"col":  func(cl *Cluster) float64 { return float64(cl.Col) },
			"nblk": func(cl *Cluster) float64 { return float64(cl.NBlk) },
		}
		for name, f := range clus {
			f := f
			arrayVars[prefix+".clus."+name] = func(e *Event, i int) (float64, bool) {
				cl := c(e).Clusters
				if i < 0 || i >= len(cl) {
					return 0, false
				}
				return f(&cl[i]), true
			}
		}
		blks := map[string]func(*Block) float64{
			"id":    func(b *Block) float64 { return float64(b.ID) },
			"e":     func(b *Block) float64 { return b.E },
			"atime": func(b *Block) float64 { return b.ATime },
		}
		for name, f := range blks {
			f := f
			arrayVars[prefix+".clus_blk."+name] = func(e *Event, i int) (float64, bool) {
				b := c(e).Blocks
				if i < 0 || i >= len(b) {
					return 0, false
				}
				return f(&b[i]), true
			}
		}
	}

	arrayVars["bb.hodotdc.clus.tmean"] = sliceVar(func(e *Event) []float64 { return e.HodoTMean })
	arrayVars["bb.hodotdc.clus.trackindex"] = sliceVar(func(e *Event) []float64 { return e.HodoTrackIndex })
}
