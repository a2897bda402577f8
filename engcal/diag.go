// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package engcal

import (
	"fmt"
	"math"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/plot"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/gonum/stat"
)

// Diag compares the coefficients of two iterations of one detector.
type Diag struct {
	Det            detector.Detector
	OldIter, Iter  int
	Old, New, Diff []float64
}

// CompareGains reads the coefficient files of iterations oldIter and iter.
func CompareGains(dir string, d detector.Detector, set, oldIter, iter int) (*Diag, error) {
	old, err := calib.ReadValues(GainPath(dir, Coeff, d.Name, set, oldIter), d.N())
	if err != nil {
		return nil, err
	}
	cur, err := calib.ReadValues(GainPath(dir, Coeff, d.Name, set, iter), d.N())
	if err != nil {
		return nil, err
	}
	return NewDiag(d, oldIter, iter, old, cur)
}

func NewDiag(d detector.Detector, oldIter, iter int, old, cur []float64) (*Diag, error) {
	diff, err := calib.PercentDiff(old, cur)
	if err != nil {
		return nil, err
	}
	return &Diag{Det: d, OldIter: oldIter, Iter: iter, Old: old, New: cur, Diff: diff}, nil
}

// Stats returns the mean and standard deviation of the percentage
// differences and the largest absolute one.
func (dg *Diag) Stats() (mean, stdDev, maxAbs float64) {
	mean, stdDev = stat.MeanStdDev(dg.Diff, nil)
	for _, d := range dg.Diff {
		maxAbs = math.Max(maxAbs, math.Abs(d))
	}
	return mean, stdDev, maxAbs
}

// WriteTable lists old, new and difference per block.
func (dg *Diag) WriteTable(path string) error {
	title := fmt.Sprintf("# %v gain coefficients, iteration %d vs %d", dg.Det, dg.OldIter, dg.Iter)
	t, err := calib.CreateTable(path, title, "block", "row", "col", "old", "new", "diff%")
	if err != nil {
		return err
	}
	for i := range dg.Old {
		row, col := dg.Det.RowCol(i)
		if err := t.WriteRow(i, row, col, dg.Old[i], dg.New[i], dg.Diff[i]); err != nil {
			t.Close()
			return err
		}
	}
	return t.Close()
}

// Plots draws the old, new and difference detector views and the
// difference per block.
func (dg *Diag) Plots() ([]*hplot.Plot, error) {
	d := dg.Det
	name := d.String()
	diff, err := plot.NewPoints(name+" (old-new)/old", "block", "%", blockIndex(len(dg.Diff)), dg.Diff, nil)
	if err != nil {
		return nil, err
	}
	return []*hplot.Plot{
		plot.NewHeatMap(fmt.Sprintf("%v iteration %d", name, dg.OldIter), "col", "row", plot.Values(d.NRows, d.NCols, dg.Old), 0, 0),
		plot.NewHeatMap(fmt.Sprintf("%v iteration %d", name, dg.Iter), "col", "row", plot.Values(d.NRows, d.NCols, dg.New), 0, 0),
		plot.NewHeatMap(name+" difference (%)", "col", "row", plot.Values(d.NRows, d.NCols, dg.Diff), 0, 0),
		diff,
	}, nil
}
