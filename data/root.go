// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"fmt"
	"io"
	"log"

	"go-hep.org/x/hep/rootio"
)

// TreeName is the event tree of replayed runs.
const TreeName = "T"

// Groups selects the branch families a job reads.
type Groups uint

const (
	Tracks Groups = 1 << iota
	SHClusters
	PSClusters
	HCalClusters
	SHRaw
	PSRaw
	Hodo
	Trig
)

type caloVals struct {
	nclus, e, rowblk, colblk, idblk, nblk, atimeblk float64

	clusE, clusRow, clusCol, clusNblk []float64
	blkID, blkE, blkATime             []float64

	a, ap, amp, ampP, atime, ped, adcElem []float64
	tdc, tdcElem                          []float64
}

type rootVals struct {
	tr struct {
		p, px, py, pz, x, y, th, ph   []float64
		tgth, tgph, rth, rph, vz, chi []float64
	}
	sh, ps, hcal caloVals
	hodoTMean    []float64
	hodoTrIndex  []float64
	trigAmpP     []float64
	trigElem     []float64
}

type binding struct {
	name  string
	value interface{}
}

func clusterBindings(prefix string, c *caloVals) []binding {
	return []binding{
		{prefix + ".nclus", &c.nclus},
		{prefix + ".e", &c.e},
		{prefix + ".rowblk", &c.rowblk},
		{prefix + ".colblk", &c.colblk},
		{prefix + ".idblk", &c.idblk},
		{prefix + ".nblk", &c.nblk},
		{prefix + ".atimeblk", &c.atimeblk},
		{prefix + ".clus.e", &c.clusE},
		{prefix + ".clus.row", &c.clusRow},
		{prefix + ".clus.col", &c.clusCol},
		{prefix + ".clus.nblk", &c.clusNblk},
		{prefix + ".clus_blk.id", &c.blkID},
		{prefix + ".clus_blk.e", &c.blkE},
		{prefix + ".clus_blk.atime", &c.blkATime},
	}
}

func rawBindings(prefix string, c *caloVals) []binding {
	return []binding{
		{prefix + ".a", &c.a},
		{prefix + ".a_p", &c.ap},
		{prefix + ".a_amp", &c.amp},
		{prefix + ".a_amp_p", &c.ampP},
		{prefix + ".a_time", &c.atime},
		{prefix + ".ped", &c.ped},
		{prefix + ".adcelemID", &c.adcElem},
		{prefix + ".tdc", &c.tdc},
		{prefix + ".tdcelemID", &c.tdcElem},
	}
}

func (v *rootVals) bindings(g Groups) []binding {
	var b []binding
	if g&Tracks != 0 {
		b = append(b,
			binding{"bb.tr.p", &v.tr.p},
			binding{"bb.tr.px", &v.tr.px},
			binding{"bb.tr.py", &v.tr.py},
			binding{"bb.tr.pz", &v.tr.pz},
			binding{"bb.tr.x", &v.tr.x},
			binding{"bb.tr.y", &v.tr.y},
			binding{"bb.tr.th", &v.tr.th},
			binding{"bb.tr.ph", &v.tr.ph},
			binding{"bb.tr.tg_th", &v.tr.tgth},
			binding{"bb.tr.tg_ph", &v.tr.tgph},
			binding{"bb.tr.r_th", &v.tr.rth},
			binding{"bb.tr.r_ph", &v.tr.rph},
			binding{"bb.tr.vz", &v.tr.vz},
			binding{"bb.tr.chi2", &v.tr.chi},
		)
	}
	if g&SHClusters != 0 {
		b = append(b, clusterBindings("bb.sh", &v.sh)...)
	}
	if g&PSClusters != 0 {
		b = append(b, clusterBindings("bb.ps", &v.ps)...)
	}
	if g&HCalClusters != 0 {
		b = append(b, clusterBindings("sbs.hcal", &v.hcal)...)
	}
	if g&SHRaw != 0 {
		b = append(b, rawBindings("bb.sh", &v.sh)...)
	}
	if g&PSRaw != 0 {
		b = append(b, rawBindings("bb.ps", &v.ps)...)
	}
	if g&Hodo != 0 {
		b = append(b,
			binding{"bb.hodotdc.clus.tmean", &v.hodoTMean},
			binding{"bb.hodotdc.clus.trackindex", &v.hodoTrIndex},
		)
	}
	if g&Trig != 0 {
		b = append(b,
			binding{"bb.bbtrig.a_amp_p", &v.trigAmpP},
			binding{"bb.bbtrig.adcelemID", &v.trigElem},
		)
	}
	return b
}

func at(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func (c *caloVals) calo(g, clusters, raw Groups) Calo {
	var out Calo
	if g&clusters != 0 {
		out = Calo{
			NClus:    int(c.nclus),
			E:        c.e,
			RowBlk:   int(c.rowblk),
			ColBlk:   int(c.colblk),
			IdBlk:    int(c.idblk),
			NBlk:     int(c.nblk),
			ATimeBlk: c.atimeblk,
		}
		for i := range c.clusE {
			out.Clusters = append(out.Clusters, Cluster{
				E:    c.clusE[i],
				Row:  int(at(c.clusRow, i)),
				Col:  int(at(c.clusCol, i)),
				NBlk: int(at(c.clusNblk, i)),
			})
		}
		for i := range c.blkID {
			out.Blocks = append(out.Blocks, Block{
				ID:    int(c.blkID[i]),
				E:     at(c.blkE, i),
				ATime: at(c.blkATime, i),
			})
		}
	}
	if g&raw != 0 {
		for i := range c.adcElem {
			out.ADC = append(out.ADC, ADCHit{
				Elem: int(c.adcElem[i]),
				A:    at(c.a, i),
				AP:   at(c.ap, i),
				Amp:  at(c.amp, i),
				AmpP: at(c.ampP, i),
				Time: at(c.atime, i),
				Ped:  at(c.ped, i),
			})
		}
		for i := range c.tdcElem {
			out.TDC = append(out.TDC, TDCHit{
				Elem: int(c.tdcElem[i]),
				T:    at(c.tdc, i),
			})
		}
	}
	return out
}

func (v *rootVals) event(g Groups) *Event {
	e := &Event{}
	if g&Tracks != 0 {
		t := &v.tr
		for i := range t.p {
			e.Tracks = append(e.Tracks, Track{
				P: t.p[i], Px: at(t.px, i), Py: at(t.py, i), Pz: at(t.pz, i),
				X: at(t.x, i), Y: at(t.y, i), Th: at(t.th, i), Ph: at(t.ph, i),
				TgTh: at(t.tgth, i), TgPh: at(t.tgph, i),
				RTh: at(t.rth, i), RPh: at(t.rph, i),
				Vz: at(t.vz, i), Chi2: at(t.chi, i),
			})
		}
	}
	e.SH = v.sh.calo(g, SHClusters, SHRaw)
	e.PS = v.ps.calo(g, PSClusters, PSRaw)
	e.HCal = v.hcal.calo(g, HCalClusters, 0)
	if g&Hodo != 0 {
		e.HodoTMean = append([]float64(nil), v.hodoTMean...)
		e.HodoTrackIndex = append([]float64(nil), v.hodoTrIndex...)
	}
	if g&Trig != 0 {
		for i := range v.trigElem {
			e.Trig = append(e.Trig, ADCHit{Elem: int(v.trigElem[i]), AmpP: at(v.trigAmpP, i)})
		}
	}
	return e
}

// RootSource reads tree T from a list of ROOT files, binding only the
// branch groups asked for plus any extra named variables.
type RootSource struct {
	Files  []string
	Groups Groups
	Extra  []string

	next  int
	path  string
	file  *rootio.File
	sc    *rootio.Scanner
	entry int64

	vals    rootVals
	scalars map[string]*float64
	arrays  map[string]*[]float64
}

func NewRootSource(files []string, groups Groups, extra ...string) *RootSource {
	return &RootSource{Files: files, Groups: groups, Extra: extra}
}

func (s *RootSource) open(path string) error {
	f, err := rootio.Open(path)
	if err != nil {
		return fmt.Errorf("open %v: %w", path, err)
	}
	obj, err := f.Get(TreeName)
	if err != nil {
		f.Close()
		return fmt.Errorf("%v: %w", path, err)
	}
	tree, ok := obj.(rootio.Tree)
	if !ok {
		f.Close()
		return fmt.Errorf("%v: %v is not a tree", path, TreeName)
	}

	s.vals = rootVals{}
	var vars []rootio.ScanVar
	bound := make(map[string]bool)
	for _, b := range s.vals.bindings(s.Groups) {
		if tree.Branch(b.name) == nil {
			continue
		}
		vars = append(vars, rootio.ScanVar{Name: b.name, Value: b.value})
		bound[b.name] = true
	}

	s.scalars = make(map[string]*float64)
	s.arrays = make(map[string]*[]float64)
	for _, name := range s.Extra {
		base, _ := splitIndex(name)
		if bound[base] {
			continue
		}
		br := tree.Branch(base)
		if br == nil {
			f.Close()
			return fmt.Errorf("%v: no branch %v", path, base)
		}
		bound[base] = true
		if !isArray(br) {
			v := new(float64)
			s.scalars[base] = v
			vars = append(vars, rootio.ScanVar{Name: base, Value: v})
		} else {
			v := new([]float64)
			s.arrays[base] = v
			vars = append(vars, rootio.ScanVar{Name: base, Value: v})
		}
	}

	sc, err := rootio.NewScannerVars(tree, vars...)
	if err != nil {
		f.Close()
		return fmt.Errorf("%v: %w", path, err)
	}

	log.Printf("reading %v (%d entries)", path, tree.Entries())
	s.path = path
	s.file = f
	s.sc = sc
	return nil
}

func isArray(b rootio.Branch) bool {
	for _, leaf := range b.Leaves() {
		if leaf.LeafCount() != nil {
			return true
		}
	}
	return false
}

func (s *RootSource) closeFile() error {
	if s.sc == nil {
		return nil
	}
	s.sc.Close()
	err := s.file.Close()
	s.sc = nil
	s.file = nil
	return err
}

func (s *RootSource) extraVars() map[string]float64 {
	if len(s.Extra) == 0 {
		return nil
	}
	vars := make(map[string]float64)
	for _, name := range s.Extra {
		base, idx := splitIndex(name)
		if v, ok := s.scalars[base]; ok {
			vars[name] = *v
			continue
		}
		if v, ok := s.arrays[base]; ok && idx < len(*v) {
			vars[name] = (*v)[idx]
		}
	}
	return vars
}

func (s *RootSource) Next(ctx context.Context) (*Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.sc == nil {
			if s.next >= len(s.Files) {
				return nil, io.EOF
			}
			if err := s.open(s.Files[s.next]); err != nil {
				return nil, err
			}
			s.next++
		}

		if s.sc.Next() {
			if err := s.sc.Scan(); err != nil {
				return nil, fmt.Errorf("%v: entry %d: %w", s.path, s.sc.Entry(), err)
			}
			e := s.vals.event(s.Groups)
			e.Entry = s.entry
			e.Vars = s.extraVars()
			s.entry++
			return e, nil
		}
		if err := s.sc.Err(); err != nil && err != io.EOF {
			return nil, fmt.Errorf("%v: %w", s.path, err)
		}
		if err := s.closeFile(); err != nil {
			return nil, err
		}
	}
}

func (s *RootSource) Close() error {
	s.next = len(s.Files)
	return s.closeFile()
}
