// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package engcal

import (
	"fmt"
	"path/filepath"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/detector"
)

// Gain file kinds.
const (
	Coeff = "Coeff"
	Ratio = "Ratio"
)

// GainPath is the gain file of detector det ("sh" or "ps") written by
// iteration iter of set.
func GainPath(dir, kind, det string, set, iter int) string {
	return filepath.Join(dir, "Gain", fmt.Sprintf("eng_cal_gain%v_%v_%d_%d.txt", kind, det, set, iter))
}

// OldGainPath is the coefficient file iteration iter starts from. The first
// iteration of the default mode starts from the set's seed file.
func OldGainPath(dir, det string, set, iter int, legacy bool) string {
	if iter <= 1 && !legacy {
		return filepath.Join(dir, "Gain", fmt.Sprintf("eng_cal_gainCoeff_%v_%d.txt", det, set))
	}
	return GainPath(dir, Coeff, det, set, iter-1)
}

// ReadOldGains reads the shower and preshower coefficients for this
// iteration.
func (j *BBCal) ReadOldGains(dir string) (sh, ps []float64, err error) {
	cfg := j.Config
	sh, err = calib.ReadValues(OldGainPath(dir, detector.SH.Name, cfg.Set, cfg.Iter, cfg.Legacy), detector.SH.N())
	if err != nil {
		return nil, nil, err
	}
	ps, err = calib.ReadValues(OldGainPath(dir, detector.PS.Name, cfg.Set, cfg.Iter, cfg.Legacy), detector.PS.N())
	if err != nil {
		return nil, nil, err
	}
	return sh, ps, nil
}

// WriteGains writes the coefficient and ratio files of g and returns their
// paths.
func WriteGains(g Gains, d detector.Detector, coeffPath, ratioPath string) ([]string, error) {
	if err := calib.WriteGridFile(coeffPath, g.Coeff, d.NCols); err != nil {
		return nil, err
	}
	if err := calib.WriteGridFile(ratioPath, g.Ratio, d.NCols); err != nil {
		return nil, err
	}
	return []string{coeffPath, ratioPath}, nil
}

// SummaryColumns head the per-block summary table.
var SummaryColumns = []string{"det", "block", "row", "col", "nevents", "bad", "old", "ratio", "new"}

func writeSummary(t *calib.Table, d detector.Detector, g Gains) error {
	for i := range g.Old {
		row, col := d.RowCol(i)
		if err := t.WriteRow(d.Prefix, i, row, col, g.Count[i], g.Bad[i], g.Old[i], g.Ratio[i], g.Coeff[i]); err != nil {
			return err
		}
	}
	return nil
}

// Write stores the new gains, ratios and a per-block summary under dir and
// returns the written paths.
func (j *BBCal) Write(dir string, res *Result) ([]string, error) {
	cfg := j.Config
	var files []string
	for _, det := range []struct {
		d detector.Detector
		g Gains
	}{
		{detector.SH, res.SH},
		{detector.PS, res.PS},
	} {
		written, err := WriteGains(det.g, det.d,
			GainPath(dir, Coeff, det.d.Name, cfg.Set, cfg.Iter),
			GainPath(dir, Ratio, det.d.Name, cfg.Set, cfg.Iter))
		if err != nil {
			return files, err
		}
		files = append(files, written...)
	}

	path := filepath.Join(dir, "Gain", fmt.Sprintf("eng_cal_summary_%d_%d.txt", cfg.Set, cfg.Iter))
	t, err := calib.CreateTable(path, fmt.Sprintf("# set %d iteration %d, %d events", cfg.Set, cfg.Iter, j.Selected()), SummaryColumns...)
	if err != nil {
		return files, err
	}
	if err := writeSummary(t, detector.SH, res.SH); err != nil {
		t.Close()
		return files, err
	}
	if err := writeSummary(t, detector.PS, res.PS); err != nil {
		t.Close()
		return files, err
	}
	if err := t.Close(); err != nil {
		return files, err
	}
	return append(files, path), nil
}
