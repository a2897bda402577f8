// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package engcal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"path/filepath"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/config"
	"github.com/rditech/bbcal/data"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/plot"

	"go-hep.org/x/hep/hbook"
)

// SamplingFraction is the fraction of the proton kinetic energy seen by
// HCal.
const SamplingFraction = 0.0795

type hcalHists struct {
	W, Q2, KEp, DeltaE, ClusE *hbook.H1D
	PAng                      *hbook.H2D
}

// HCal calibrates the hadron calorimeter gains against the kinetic energy of
// the elastically scattered proton.
type HCal struct {
	Config  config.EngCal
	Kine    *data.Kinematics
	Cutflow Cutflow

	// OldRatio weights the block energies, one per block.
	OldRatio []float64

	cut    *config.Cut
	cutErr error
	acc    *Accumulator
	h      hcalHists
}

func NewHCal(cfg config.EngCal, oldRatio []float64) (*HCal, error) {
	if len(oldRatio) != detector.HCal.N() {
		return nil, fmt.Errorf("old ratios: %d values, expected %d", len(oldRatio), detector.HCal.N())
	}
	cut, err := config.NewCut(cfg.GlobalCut)
	if err != nil {
		return nil, err
	}
	if cfg.BadChannelScale == 0 {
		cfg.BadChannelScale = 1
	}
	return &HCal{
		Config:   cfg,
		Kine:     data.NewKinematics(cfg.EBeam, cfg.PRecOffset, true, config.MomCalib{}),
		OldRatio: oldRatio,
		cut:      cut,
		acc:      NewAccumulator(detector.HCal.N()),
		h: hcalHists{
			W:      hbook.NewH1D(200, 0.7, 1.6),
			Q2:     hbook.NewH1D(40, 0, 4),
			KEp:    hbook.NewH1D(100, -1.5, 1.5),
			DeltaE: hbook.NewH1D(100, -1.5, 1.5),
			ClusE:  hbook.NewH1D(100, 0, 2),
			PAng:   hbook.NewH2D(100, 30, 60, 100, 0.4, 1.2),
		},
	}, nil
}

func (j *HCal) Groups() data.Groups {
	return data.Tracks | data.HCalClusters
}

func (j *HCal) CutVars() []string {
	return j.cut.Vars()
}

func (j *HCal) Ops() data.OpArray {
	return data.OpArray{j.Kine.Op()}
}

func (j *HCal) Run(ctx context.Context, src data.Source) error {
	return j.Ops().Process(ctx, src, j.Process)
}

func (j *HCal) Process(e *data.Event) {
	j.Cutflow.Add(j.process(e))
}

func (j *HCal) process(e *data.Event) string {
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
	if k == nil {
		return CutTrack
	}
	if k.W2 > 0 {
		j.h.W.Fill(k.W, 1)
	}
	j.h.Q2.Fill(k.Q2, 1)
	kep := cfg.EBeam - k.PRec
	j.h.KEp.Fill(kep, 1)

	if e.HCal.NClus == 0 {
		return CutCluster
	}
	t := e.Tracks[k.Track]
	if math.Abs(t.TgTh) >= TargetThMax || math.Abs(t.TgPh) >= TargetPhMax {
		return CutTarget
	}
	if math.Abs(k.W-cfg.WCut.Mean) >= cfg.WCut.Sigma {
		return CutW
	}
	if row, col := bestCluster(&e.HCal); detector.HCal.IsEdge(row, col) {
		return CutEdge
	}
	if kep <= 0 {
		return CutEnergy
	}

	var (
		deps []Deposit
		eng  float64
	)
	for _, b := range e.HCal.Blocks {
		id := b.ID - 1
		if id < 0 || id >= detector.HCal.N() {
			continue
		}
		dep := Deposit{Cell: id, E: b.E * j.OldRatio[id]}
		deps = append(deps, dep)
		eng += dep.E
	}
	if err := j.acc.Add(deps, SamplingFraction*kep); err != nil {
		log.Printf("event %d: %v", e.Entry, err)
		return CutCluster
	}

	j.h.DeltaE.Fill(1-eng/kep, 1)
	j.h.ClusE.Fill(eng, 1)
	j.h.PAng.Fill(k.Theta*180/math.Pi, k.PRec, 1)
	return Accepted
}

// bestCluster is the centre block of the highest-energy cluster.
func bestCluster(c *data.Calo) (row, col int) {
	if len(c.Clusters) == 0 {
		return c.RowBlk, c.ColBlk
	}
	best := 0
	for i, cl := range c.Clusters {
		if cl.E > c.Clusters[best].E {
			best = i
		}
	}
	return c.Clusters[best].Row, c.Clusters[best].Col
}

func (j *HCal) Solve(old []float64) (Gains, error) {
	if len(old) != detector.HCal.N() {
		return Gains{}, fmt.Errorf("old gains: %d values, expected %d", len(old), detector.HCal.N())
	}
	if j.acc.Events == 0 {
		return Gains{}, fmt.Errorf("no events passed the selection")
	}
	sol, err := j.acc.Solve(j.Config.MinEvents, j.Config.MinMBRatio)
	if err != nil {
		return Gains{}, err
	}
	return sol.Gains(old, 0, j.Config.BadChannelScale), nil
}

// HCalGainPath is the HCal gain file written by iteration iter.
func HCalGainPath(dir, kind string, iter int) string {
	return filepath.Join(dir, "Gain_h", fmt.Sprintf("hcal_eng_cal_gain%v_%d.txt", kind, iter))
}

// ReadHCalGains reads the coefficients and ratios of iteration iter. A
// missing ratio file means unit ratios.
func ReadHCalGains(dir string, iter int) (coeff, ratio []float64, err error) {
	n := detector.HCal.N()
	coeff, err = calib.ReadValues(HCalGainPath(dir, Coeff, iter), n)
	if err != nil {
		return nil, nil, err
	}
	ratio, err = calib.ReadValues(HCalGainPath(dir, Ratio, iter), n)
	if errors.Is(err, calib.ErrNoFile) {
		log.Printf("%v, using unit ratios", err)
		ratio = make([]float64, n)
		for i := range ratio {
			ratio[i] = 1
		}
		err = nil
	}
	return coeff, ratio, err
}

func (j *HCal) Write(dir string, g Gains) ([]string, error) {
	iter := j.Config.Iter
	return WriteGains(g, detector.HCal, HCalGainPath(dir, Coeff, iter), HCalGainPath(dir, Ratio, iter))
}

func (j *HCal) Plot(dir string, g Gains) (string, error) {
	h := &j.h
	pg := plot.NewPage(3, 5)
	for i, hist := range []struct {
		title, x string
		h        *hbook.H1D
	}{
		{"W", "W (GeV)", h.W},
		{"Q²", "Q² (GeV²)", h.Q2},
		{"Proton kinetic energy", "KE (GeV)", h.KEp},
		{"1 - E/KE", "ΔE", h.DeltaE},
		{"Cluster energy", "E (GeV)", h.ClusE},
	} {
		p, err := plot.NewHist1D(hist.title, hist.x, hist.h, nil, 0, 0)
		if err != nil {
			return "", err
		}
		pg.Set(i, p)
	}
	pg.Set(5, plot.NewHist2D("p vs angle", "θ (deg)", "p (GeV)", h.PAng))

	plots, err := gainPlots(detector.HCal, g)
	if err != nil {
		return "", err
	}
	for i, p := range plots {
		pg.Set(10+i, p)
	}

	path := filepath.Join(dir, "plots", fmt.Sprintf("hcal_eng_cal_%d.pdf", j.Config.Iter))
	return path, pg.Save(path)
}
