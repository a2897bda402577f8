// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package engcal calibrates calorimeter gains against the electron energy
// measured by the BigBite spectrometer.
package engcal

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrSingular = errors.New("calibration matrix is singular")

// Deposit is the energy a cell contributed to the selected cluster.
type Deposit struct {
	Cell int
	E    float64
}

// Accumulator builds the normal equations M·c = B of the gain fit. For each
// event the per-cell energies A give B += A and M += A·Aᵀ/norm.
type Accumulator struct {
	N      int
	M      []float64
	B      []float64
	Counts []int
	Events int

	a       []float64
	hit     []bool
	touched []int
}

func NewAccumulator(n int) *Accumulator {
	return &Accumulator{
		N:      n,
		M:      make([]float64, n*n),
		B:      make([]float64, n),
		Counts: make([]int, n),
		a:      make([]float64, n),
		hit:    make([]bool, n),
	}
}

// Add accumulates one event. Deposits outside the cell range are an error
// and leave the accumulator unchanged.
func (acc *Accumulator) Add(deps []Deposit, norm float64) error {
	if norm == 0 {
		return errors.New("zero normalisation")
	}
	for _, d := range deps {
		if d.Cell < 0 || d.Cell >= acc.N {
			return fmt.Errorf("cell %d out of range [0, %d)", d.Cell, acc.N)
		}
	}

	for _, d := range deps {
		if !acc.hit[d.Cell] {
			acc.hit[d.Cell] = true
			acc.touched = append(acc.touched, d.Cell)
		}
		acc.a[d.Cell] += d.E
		acc.Counts[d.Cell]++
	}

	for _, i := range acc.touched {
		acc.B[i] += acc.a[i]
		row := acc.M[i*acc.N:]
		for _, j := range acc.touched {
			row[j] += acc.a[i] * acc.a[j] / norm
		}
	}

	for _, i := range acc.touched {
		acc.a[i] = 0
		acc.hit[i] = false
	}
	acc.touched = acc.touched[:0]
	acc.Events++
	return nil
}

// Solution holds the fitted gain ratios (new/old) per cell.
type Solution struct {
	Ratio  []float64
	Bad    []bool
	Counts []int
}

// Solve inverts the normal equations. A cell with fewer than minEvents hits,
// or with M(j,j) < minMBRatio·B(j), is bad: it is decoupled from the others
// and keeps its gain.
func (acc *Accumulator) Solve(minEvents int, minMBRatio float64) (*Solution, error) {
	n := acc.N
	m := mat.NewDense(n, n, append([]float64(nil), acc.M...))
	b := mat.NewVecDense(n, append([]float64(nil), acc.B...))

	sol := &Solution{
		Ratio:  make([]float64, n),
		Bad:    make([]bool, n),
		Counts: append([]int(nil), acc.Counts...),
	}

	for j := 0; j < n; j++ {
		if acc.Counts[j] >= minEvents && m.At(j, j) >= minMBRatio*b.AtVec(j) {
			continue
		}
		sol.Bad[j] = true
		b.SetVec(j, 1)
		for k := 0; k < n; k++ {
			m.Set(j, k, 0)
			m.Set(k, j, 0)
		}
		m.Set(j, j, 1)
	}

	var ratio mat.VecDense
	if err := ratio.SolveVec(m, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	for j := range sol.Ratio {
		sol.Ratio[j] = ratio.AtVec(j)
	}
	return sol, nil
}

// Gains are new coefficients and ratios for one detector.
type Gains struct {
	Old   []float64
	Coeff []float64
	Ratio []float64
	Bad   []bool
	Count []int
}

// Gains applies the cells [off, off+len(old)) of the solution to the old
// coefficients. Bad cells get ratio badScale.
func (s *Solution) Gains(old []float64, off int, badScale float64) Gains {
	g := Gains{
		Old:   old,
		Coeff: make([]float64, len(old)),
		Ratio: make([]float64, len(old)),
		Bad:   make([]bool, len(old)),
		Count: make([]int, len(old)),
	}
	for i := range old {
		cell := off + i
		g.Bad[i] = s.Bad[cell]
		g.Count[i] = s.Counts[cell]
		if s.Bad[cell] {
			g.Ratio[i] = badScale
		} else {
			g.Ratio[i] = s.Ratio[cell]
		}
		g.Coeff[i] = g.Ratio[i] * old[i]
	}
	return g
}
