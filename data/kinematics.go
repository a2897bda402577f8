// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"math"

	"github.com/rditech/bbcal/config"

	"gonum.org/v1/gonum/mat"
)

const (
	ProtonMass  = 0.938272081
	NeutronMass = 0.939565413
)

// MaxChi2 bounds the minimum-chi2 track search.
const MaxChi2 = 1000

// Kinematics reconstructs elastic ep kinematics from the BigBite track.
type Kinematics struct {
	EBeam    float64
	POffset  float64
	Mass     float64
	MinChi2  bool
	MomCalib config.MomCalib

	gemRot *mat.Dense
}

func NewKinematics(eBeam, pOffset float64, minChi2 bool, momCalib config.MomCalib) *Kinematics {
	k := &Kinematics{
		EBeam:    eBeam,
		POffset:  pOffset,
		Mass:     ProtonMass,
		MinChi2:  minChi2,
		MomCalib: momCalib,
	}

	// columns are the GEM frame axes expressed in the transport frame
	pitch := momCalib.GEMPitch * math.Pi / 180
	s, c := math.Sin(pitch), math.Cos(pitch)
	k.gemRot = mat.NewDense(3, 3, []float64{
		c, 0, -s,
		0, 1, 0,
		s, 0, c,
	})

	return k
}

// ChooseTrack returns the index of the track used for kinematics, or -1.
func (k *Kinematics) ChooseTrack(e *Event) int {
	if len(e.Tracks) == 0 {
		return -1
	}
	if !k.MinChi2 {
		return 0
	}

	best := -1
	chi2min := float64(MaxChi2)
	for i, t := range e.Tracks {
		if t.Chi2 < chi2min {
			chi2min = t.Chi2
			best = i
		}
	}
	return best
}

func unit(x, y, z float64) *mat.VecDense {
	v := mat.NewVecDense(3, []float64{x, y, z})
	v.ScaleVec(1/mat.Norm(v, 2), v)
	return v
}

// BendAngle is the angle between the target direction and the focal plane
// direction rotated into the GEM frame.
func (k *Kinematics) BendAngle(t Track) float64 {
	tgt := unit(t.TgTh, t.TgPh, 1)
	fp := unit(t.RTh, t.RPh, 1)

	var fpRot mat.VecDense
	fpRot.MulVec(k.gemRot, fp)

	cos := mat.Dot(&fpRot, tgt)
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}

// Momentum returns the reconstructed momentum of t.
func (k *Kinematics) Momentum(t Track) (p, thetaBend float64) {
	mc := k.MomCalib
	if !mc.On {
		return t.P * k.POffset, 0
	}

	thetaBend = k.BendAngle(t)
	if thetaBend == 0 {
		return 0, 0
	}
	p = mc.A * (1 + (mc.B+mc.C*mc.MagDist)*t.TgTh) / thetaBend
	return p * k.POffset, thetaBend
}

// Fill sets event.Kine, or leaves it nil when no usable track exists.
func (k *Kinematics) Fill(event *Event) {
	event.Kine = nil

	i := k.ChooseTrack(event)
	if i < 0 {
		return
	}
	t := event.Tracks[i]
	if t.P == 0 {
		return
	}

	kine := &Kine{Track: i}
	kine.PRec, kine.ThetaBend = k.Momentum(t)
	kine.Theta = math.Acos(t.Pz / t.P)

	sin := math.Sin(kine.Theta / 2)
	kine.Q2 = 4 * k.EBeam * kine.PRec * sin * sin
	kine.W2 = k.Mass*k.Mass + 2*k.Mass*(k.EBeam-kine.PRec) - kine.Q2
	kine.W = math.Sqrt(math.Max(0, kine.W2))

	event.Kine = kine
}

// Op wraps Fill as a pipeline stage.
func (k *Kinematics) Op() EventOp {
	return EventOp{
		Description: "reconstruct elastic kinematics",
		Process:     k.Fill,
	}
}
