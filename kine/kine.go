// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package kine computes the expected elastic electron and nucleon energies
// across the BigBite acceptance.
package kine

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/rditech/bbcal/data"
	"github.com/rditech/bbcal/detector"
)

// NeutronMass in GeV.
const NeutronMass = 0.939565413

// SHColumnY is the transverse centre of each shower column, in metres.
var SHColumnY = [...]float64{-0.2565, -0.171, -0.0855, 0, 0.0855, 0.171, 0.2565}

// ElectronEnergy is the energy of an electron elastically scattered off a
// proton at angle theta (rad).
func ElectronEnergy(eBeam, theta float64) float64 {
	s := math.Sin(theta / 2)
	return eBeam / (1 + 2*eBeam/data.ProtonMass*s*s)
}

// NucleonKE is the kinetic energy of a struck nucleon of mass m for an
// electron scattered at theta.
func NucleonKE(eBeam, theta, m float64) float64 {
	c := 1 - math.Cos(theta)
	return eBeam * eBeam / m * c / (1 + eBeam/m*c)
}

// NucleonMomentum is the momentum of the struck nucleon.
func NucleonMomentum(eBeam, theta, m float64) float64 {
	ke := NucleonKE(eBeam, theta, m)
	return math.Sqrt(ke*ke + 2*ke*m)
}

// Expectation is the elastic kinematics at one scattering angle.
type Expectation struct {
	Angle    float64 // deg
	Ee       float64
	KEp, KEn float64
	Pp, Pn   float64
}

func Expect(eBeam, theta float64) Expectation {
	return Expectation{
		Angle: theta * 180 / math.Pi,
		Ee:    ElectronEnergy(eBeam, theta),
		KEp:   NucleonKE(eBeam, theta, data.ProtonMass),
		KEn:   NucleonKE(eBeam, theta, NeutronMass),
		Pp:    NucleonMomentum(eBeam, theta, data.ProtonMass),
		Pn:    NucleonMomentum(eBeam, theta, NeutronMass),
	}
}

// Columns returns the expectation at each shower column for BigBite at
// angle deg and distance dist (m). The shower face sits 1 m behind the
// magnet.
func Columns(eBeam, angle, dist float64) []Expectation {
	face := 1 + dist
	theta := angle * math.Pi / 180
	exps := make([]Expectation, len(SHColumnY))
	for col, y := range SHColumnY {
		exps[col] = Expect(eBeam, theta+y/face)
	}
	return exps
}

// Print writes the central and per-column expectations.
func Print(w io.Writer, eBeam, angle, dist float64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Inputs: E_beam = %.4fGeV, BBang = %.1fdeg, BBdist = %.2fm\n\n", eBeam, angle, dist)

	c := Expect(eBeam, angle*math.Pi/180)
	fmt.Fprintf(bw, "Central elastic e: Ee = %.4f\n", c.Ee)
	fmt.Fprintf(bw, "Central elastic p: Ek_p = %.3f | Ep = %.3f | p_p = %.3f\n", c.KEp, c.KEp+data.ProtonMass, c.Pp)
	fmt.Fprintf(bw, "Central elastic n: Ek_n = %.3f | En = %.3f | p_n = %.3f\n\n", c.KEn, c.KEn+NeutronMass, c.Pn)

	for col, e := range Columns(eBeam, angle, dist) {
		fmt.Fprintf(bw, "SH col %d | BBang = %.1f | Ee = %.3f | Ek_p = %.3f | Ek_n = %.3f | Ep = %.3f | En = %.3f | p_p = %.3f | p_n = %.3f\n",
			col+1, e.Angle, e.Ee, e.KEp, e.KEn, e.KEp+data.ProtonMass, e.KEn+NeutronMass, e.Pp, e.Pn)
	}
	return bw.Flush()
}

// PrintBlockPositions lists "block x y" for every HCal block, blocks
// counted from one.
func PrintBlockPositions(w io.Writer, x0, y0 float64, xToRoof bool) error {
	xpos, ypos := detector.BlockPositions(x0, y0, xToRoof)
	bw := bufio.NewWriter(w)
	for i := range xpos {
		fmt.Fprintf(bw, "%d %.4f %.4f\n", i+1, xpos[i], ypos[i])
	}
	return bw.Flush()
}
