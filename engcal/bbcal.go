// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package engcal

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/rditech/bbcal/config"
	"github.com/rditech/bbcal/data"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/plot"

	"go-hep.org/x/hep/hbook"
)

// Target acceptance of the legacy selection.
const (
	TargetThMax = 0.15
	TargetPhMax = 0.3
)

// Distances from the target-frame track origin to the calorimeter faces,
// used to project tracks.
const (
	ZPosSH = 1.901952
	ZPosPS = 1.695704
)

func newH1D(h config.Hist) *hbook.H1D {
	return hbook.NewH1D(h.NBins, h.Min, h.Max)
}

func newH2D(x, y config.Hist) *hbook.H2D {
	return hbook.NewH2D(x.NBins, x.Min, x.Max, y.NBins, y.Min, y.Max)
}

type bbHists struct {
	W, Q2, ThetaBend          *hbook.H1D
	EovP, ClusE, SHE, PSE     *hbook.H1D
	EovPCal, ClusECal         *hbook.H1D
	SHECal, PSECal            *hbook.H1D
	PAng, EovPvsP, EovPvsPCal *hbook.H2D

	SHEng, SHEovP, SHTrPos *plot.MeanGrid
	PSEng, PSEovP, PSTrPos *plot.MeanGrid
}

func newBBHists(cfg config.EngCal) bbHists {
	sh, ps := detector.SH, detector.PS
	return bbHists{
		W:          newH1D(cfg.HW),
		Q2:         newH1D(cfg.HQ2),
		ThetaBend:  hbook.NewH1D(100, 0, 0.25),
		EovP:       newH1D(cfg.HEovP),
		ClusE:      newH1D(cfg.HClusE),
		SHE:        newH1D(cfg.HSHE),
		PSE:        newH1D(cfg.HPSE),
		EovPCal:    newH1D(cfg.HEovP),
		ClusECal:   newH1D(cfg.HClusE),
		SHECal:     newH1D(cfg.HSHE),
		PSECal:     newH1D(cfg.HPSE),
		PAng:       newH2D(cfg.H2PAng, cfg.H2P),
		EovPvsP:    newH2D(cfg.H2PCoarse, cfg.H2EovP),
		EovPvsPCal: newH2D(cfg.H2PCoarse, cfg.H2EovP),

		SHEng:   plot.NewBlockGrid(sh.NRows, sh.NCols),
		SHEovP:  plot.NewBlockGrid(sh.NRows, sh.NCols),
		SHTrPos: plot.NewMeanGrid(sh.NCols, -0.2992, 0.2992, sh.NRows, -1.1542, 1.1542),
		PSEng:   plot.NewBlockGrid(ps.NRows, ps.NCols),
		PSEovP:  plot.NewBlockGrid(ps.NRows, ps.NCols),
		PSTrPos: plot.NewMeanGrid(ps.NCols, -0.3705, 0.3705, ps.NRows, -1.201, 1.151),
	}
}

// BBCal calibrates the shower and preshower gains jointly.
type BBCal struct {
	Config  config.EngCal
	Kine    *data.Kinematics
	Cutflow Cutflow

	cut      *config.Cut
	cutErr   error
	acc      *Accumulator
	h        bbHists
	selected []*data.Event
}

func NewBBCal(cfg config.EngCal) (*BBCal, error) {
	cut, err := config.NewCut(cfg.GlobalCut)
	if err != nil {
		return nil, err
	}
	if cfg.CorrFactor == 0 {
		cfg.CorrFactor = 1
	}
	return &BBCal{
		Config: cfg,
		Kine:   data.NewKinematics(cfg.EBeam, cfg.PRecOffset, cfg.Legacy, cfg.MomCalib),
		cut:    cut,
		acc:    NewAccumulator(detector.NBBCal),
		h:      newBBHists(cfg),
	}, nil
}

// Groups are the branch families the job reads.
func (j *BBCal) Groups() data.Groups {
	return data.Tracks | data.SHClusters | data.PSClusters
}

// CutVars are the extra branches the global cut needs.
func (j *BBCal) CutVars() []string {
	return j.cut.Vars()
}

func (j *BBCal) Ops() data.OpArray {
	return data.OpArray{j.Kine.Op()}
}

// Run feeds every event of src through the selection and accumulation.
func (j *BBCal) Run(ctx context.Context, src data.Source) error {
	return j.Ops().Process(ctx, src, j.Process)
}

// Process selects and accumulates one event. Events must have been through
// the kinematics op.
func (j *BBCal) Process(e *data.Event) {
	reason := j.selectEvent(e)
	j.Cutflow.Add(reason)
	if reason != Accepted {
		return
	}
	j.accumulate(e)
}

func (j *BBCal) selectEvent(e *data.Event) string {
	cfg := &j.Config

	pass, err := j.cut.Pass(e)
	if err != nil && j.cutErr == nil {
		j.cutErr = err
		log.Printf("global cut: %v", err)
	}
	if !pass {
		return CutGlobal
	}

	k := e.Kine
	if k == nil || k.PRec == 0 {
		return CutTrack
	}
	if e.SH.NClus == 0 || e.PS.NClus == 0 {
		return CutCluster
	}

	eclus := e.SH.E + e.PS.E
	if eclus == 0 {
		return CutCluster
	}
	if cfg.EovPCut.On && math.Abs(eclus/k.PRec-1) > cfg.EovPCut.Limit {
		return CutEovP
	}
	if cfg.PMin.On && k.PRec < cfg.PMin.Value {
		return CutPMin
	}
	if cfg.PMax.On && k.PRec > cfg.PMax.Value {
		return CutPMax
	}

	j.h.Q2.Fill(k.Q2, 1)
	j.h.W.Fill(k.W, 1)

	t := e.Tracks[k.Track]
	if cfg.Legacy && (math.Abs(t.TgTh) >= TargetThMax || math.Abs(t.TgPh) >= TargetPhMax) {
		return CutTarget
	}
	if (cfg.Legacy || cfg.WCut.On) && math.Abs(k.W-cfg.WCut.Mean) >= cfg.WCut.Sigma {
		return CutW
	}

	row, col := j.centre(e)
	if detector.SH.IsEdge(row, col) {
		return CutEdge
	}
	return Accepted
}

// centre is the shower block at the centre of the electron cluster.
func (j *BBCal) centre(e *data.Event) (row, col int) {
	if !j.Config.Legacy || len(e.SH.Clusters) == 0 {
		return e.SH.RowBlk, e.SH.ColBlk
	}
	best := 0
	for i, cl := range e.SH.Clusters {
		if cl.E > e.SH.Clusters[best].E {
			best = i
		}
	}
	return e.SH.Clusters[best].Row, e.SH.Clusters[best].Col
}

// deposits lists the best-cluster blocks in the joint cell numbering,
// scaled by the per-cell ratios when given.
func deposits(e *data.Event, ratio []float64) []Deposit {
	deps := make([]Deposit, 0, len(e.SH.Blocks)+len(e.PS.Blocks))
	add := func(blocks []data.Block, d detector.Detector, off int) {
		for _, b := range blocks {
			if b.ID < 0 || b.ID >= d.N() {
				continue
			}
			dep := Deposit{Cell: off + b.ID, E: b.E}
			if ratio != nil {
				dep.E *= ratio[dep.Cell]
			}
			deps = append(deps, dep)
		}
	}
	add(e.SH.Blocks, detector.SH, 0)
	add(e.PS.Blocks, detector.PS, detector.PSOffset)
	return deps
}

func sum(deps []Deposit, from, to int) float64 {
	var s float64
	for _, d := range deps {
		if d.Cell >= from && d.Cell < to {
			s += d.E
		}
	}
	return s
}

func (j *BBCal) accumulate(e *data.Event) {
	k := e.Kine
	if err := j.acc.Add(deposits(e, nil), k.PRec); err != nil {
		log.Printf("event %d: %v", e.Entry, err)
		return
	}

	cF := j.Config.CorrFactor
	p := k.PRec
	eclus := (e.SH.E + e.PS.E) * cF
	eovp := eclus / p

	h := &j.h
	h.EovP.Fill(eovp, 1)
	h.ClusE.Fill(eclus, 1)
	h.SHE.Fill(e.SH.E*cF, 1)
	h.PSE.Fill(e.PS.E*cF, 1)
	h.PAng.Fill(k.Theta*180/math.Pi, p, 1)
	h.EovPvsP.Fill(p, eovp, 1)
	if j.Config.MomCalib.On {
		h.ThetaBend.Fill(k.ThetaBend, 1)
	}

	h.SHEng.Fill(float64(e.SH.ColBlk)+0.5, float64(e.SH.RowBlk)+0.5, e.SH.E*cF)
	h.SHEovP.Fill(float64(e.SH.ColBlk)+0.5, float64(e.SH.RowBlk)+0.5, eovp)
	h.PSEng.Fill(float64(e.PS.ColBlk)+0.5, float64(e.PS.RowBlk)+0.5, e.PS.E*cF)
	h.PSEovP.Fill(float64(e.PS.ColBlk)+0.5, float64(e.PS.RowBlk)+0.5, eovp)

	t := e.Tracks[k.Track]
	h.SHTrPos.Fill(t.Y+ZPosSH*t.Ph, t.X+ZPosSH*t.Th, eovp)
	h.PSTrPos.Fill(t.Y+ZPosPS*t.Ph, t.X+ZPosPS*t.Th, eovp)

	data.KeepOnlyClusters(e)
	data.RemoveVars(e)
	j.selected = append(j.selected, e)
}

// Selected is the number of events accumulated.
func (j *BBCal) Selected() int {
	return len(j.selected)
}

// Result is the outcome of one calibration iteration.
type Result struct {
	*Solution
	SH, PS Gains
}

// Solve fits the gain ratios and applies them to the old coefficients.
func (j *BBCal) Solve(oldSH, oldPS []float64) (*Result, error) {
	if len(oldSH) != detector.SH.N() || len(oldPS) != detector.PS.N() {
		return nil, fmt.Errorf("old gains: %d shower and %d preshower values, expected %d and %d",
			len(oldSH), len(oldPS), detector.SH.N(), detector.PS.N())
	}
	if j.acc.Events == 0 {
		return nil, fmt.Errorf("no events passed the selection")
	}

	sol, err := j.acc.Solve(j.Config.MinEvents, j.Config.MinMBRatio)
	if err != nil {
		return nil, err
	}
	cF := j.Config.CorrFactor
	return &Result{
		Solution: sol,
		SH:       sol.Gains(oldSH, 0, cF),
		PS:       sol.Gains(oldPS, detector.PSOffset, cF),
	}, nil
}

// Verify reprocesses the selected events with the new ratios applied to the
// block energies. The momentum of the first pass is reused.
func (j *BBCal) Verify(res *Result) {
	ratio := append(append([]float64(nil), res.SH.Ratio...), res.PS.Ratio...)
	h := &j.h
	for _, e := range j.selected {
		deps := deposits(e, ratio)
		shE := sum(deps, 0, detector.PSOffset)
		psE := sum(deps, detector.PSOffset, detector.NBBCal)
		p := e.Kine.PRec
		eovp := (shE + psE) / p

		h.EovPCal.Fill(eovp, 1)
		h.ClusECal.Fill(shE+psE, 1)
		h.SHECal.Fill(shE, 1)
		h.PSECal.Fill(psE, 1)
		h.EovPvsPCal.Fill(p, eovp, 1)
	}
}

// EovP returns the mean and standard deviation of E/p before and after
// calibration.
func (j *BBCal) EovP() (before, after [2]float64) {
	before = [2]float64{j.h.EovP.XMean(), j.h.EovP.XStdDev()}
	after = [2]float64{j.h.EovPCal.XMean(), j.h.EovPCal.XStdDev()}
	return before, after
}
