// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package peak

import (
	"fmt"

	"go-hep.org/x/hep/fit"
	"gonum.org/v1/gonum/optimize"
)

// FitLine fits y = c + m*x and returns the intercept and slope.
func FitLine(x, y []float64) (c, m float64, err error) {
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("line fit: %d x values for %d y values", len(x), len(y))
	}
	if len(x) < 2 {
		return 0, 0, fmt.Errorf("%w: %d points for a line", ErrFewBins, len(x))
	}

	// seed from the end points
	m0 := 0.0
	if dx := x[len(x)-1] - x[0]; dx != 0 {
		m0 = (y[len(y)-1] - y[0]) / dx
	}
	c0 := y[0] - m0*x[0]

	res, err := fit.Curve1D(
		fit.Func1D{
			F: func(x float64, ps []float64) float64 {
				return ps[0] + ps[1]*x
			},
			N:  2,
			Ps: []float64{c0, m0},
			X:  x,
			Y:  y,
		},
		nil, &optimize.NelderMead{},
	)
	if err != nil {
		return 0, 0, fmt.Errorf("line fit: %w", err)
	}
	return res.X[0], res.X[1], nil
}
