// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package peak

import (
	"errors"
	"fmt"
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/mat"
)

var ErrFewBins = errors.New("too few bins to fit")

// Model is a parametric peak shape. Parameter 1 is the peak position and
// parameter 2 its width.
type Model struct {
	Name string
	NPar int
	F    func(x float64, p []float64) float64
}

var Gaussian = Model{
	Name: "gaus",
	NPar: 3,
	F: func(x float64, p []float64) float64 {
		d := (x - p[1]) / p[2]
		return p[0] * math.Exp(-0.5*d*d)
	},
}

// Moyal approximates a Landau distribution, with a constant offset as the
// fourth parameter.
var Moyal = Model{
	Name: "landau",
	NPar: 4,
	F: func(x float64, p []float64) float64 {
		l := (x - p[1]) / p[2]
		return p[0]*math.Exp(-0.5*(l+math.Exp(-l))) + p[3]
	},
}

type Result struct {
	Params []float64
	Errs   []float64
	Chi2   float64
	NDF    int
	Lo, Hi float64
}

func (r Result) Mean() float64  { return r.Params[1] }
func (r Result) Sigma() float64 { return r.Params[2] }

// Fit fits m to the non-empty bins with centres in [lo, hi] by
// Levenberg-Marquardt, weighting each bin by its Poisson error. Parameter
// errors are scaled by chi2/ndf.
func Fit(b Bins, m Model, init []float64, lo, hi float64) (Result, error) {
	if len(init) != m.NPar {
		return Result{}, fmt.Errorf("%v: %d initial parameters for %d", m.Name, len(init), m.NPar)
	}

	var xs, ys, ws []float64
	for i, x := range b.X {
		if x < lo || x > hi || b.Y[i] <= 0 {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, b.Y[i])
		ws = append(ws, 1/math.Sqrt(b.Y[i]))
	}
	if len(xs) <= m.NPar {
		return Result{}, fmt.Errorf("%w: %d in [%v, %v]", ErrFewBins, len(xs), lo, hi)
	}

	f := func(dst, guess []float64) {
		for i, x := range xs {
			dst[i] = (m.F(x, guess) - ys[i]) * ws[i]
		}
	}

	jacobian := lm.NumJac{Func: f}

	toBeSolved := lm.LMProblem{
		Dim:        m.NPar,
		Size:       len(xs),
		Func:       f,
		Jac:        jacobian.Jac,
		InitParams: init,
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	results, err := lm.LM(toBeSolved, &lm.Settings{Iterations: 100, ObjectiveTol: 1e-16})
	if err != nil {
		return Result{}, fmt.Errorf("%v fit: %w", m.Name, err)
	}

	r := Result{
		Params: append([]float64(nil), results.X...),
		NDF:    len(xs) - m.NPar,
		Lo:     lo,
		Hi:     hi,
	}
	r.Params[2] = math.Abs(r.Params[2])
	for _, x := range r.Params {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return r, fmt.Errorf("%v fit diverged", m.Name)
		}
	}

	res := make([]float64, len(xs))
	f(res, r.Params)
	for _, v := range res {
		r.Chi2 += v * v
	}

	r.Errs = paramErrors(jacobian, r.Params, len(xs), r.Chi2/float64(r.NDF))
	return r, nil
}

func paramErrors(jacobian lm.NumJac, params []float64, size int, scale float64) []float64 {
	errs := make([]float64, len(params))

	jac := mat.NewDense(size, len(params), nil)
	jacobian.Jac(jac, params)

	var jtj, cov mat.Dense
	jtj.Mul(jac.T(), jac)
	if err := cov.Inverse(&jtj); err != nil {
		for i := range errs {
			errs[i] = math.Inf(1)
		}
		return errs
	}

	for i := range errs {
		errs[i] = math.Sqrt(math.Abs(cov.At(i, i)) * scale)
	}
	return errs
}
