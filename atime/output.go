// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package atime

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/plot"
)

// OffsetPath is the offset file of d for a job tag.
func OffsetPath(dir, tag string, d detector.Detector) string {
	return filepath.Join(dir, "Output", fmt.Sprintf("%v_atimeOff_%v.txt", tag, d.Name))
}

// DBKey is the database entry of the ADC time offsets of d.
func DBKey(d detector.Detector) string {
	return d.Prefix + ".adc.timeoffset"
}

// WriteDB writes the shower and preshower offsets as database entries.
func WriteDB(w io.Writer, sh, ps []Offset) error {
	if err := calib.WriteDB(w, DBKey(detector.SH), Values(sh), detector.SH.NCols); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return calib.WriteDB(w, DBKey(detector.PS), Values(ps), detector.PS.NCols)
}

// Write writes both offset files and the database listing, returning the
// paths.
func Write(dir, tag string, sh, ps []Offset) ([]string, error) {
	var files []string
	for _, o := range []struct {
		d detector.Detector
		v []Offset
	}{{detector.SH, sh}, {detector.PS, ps}} {
		path := OffsetPath(dir, tag, o.d)
		if err := calib.WriteGridFile(path, Values(o.v), o.d.NCols); err != nil {
			return files, err
		}
		files = append(files, path)
	}

	path := filepath.Join(dir, "Output", tag+"_atimeOff_db.txt")
	f, err := calib.Create(path)
	if err != nil {
		return files, err
	}
	if err := WriteDB(f, sh, ps); err != nil {
		f.Close()
		return files, err
	}
	return append(files, path), f.Close()
}

// Plot draws the offsets and widths against the block, the detector view
// and the time differences before and after correction.
func (j *Job) Plot(path string, d detector.Detector, offsets []Offset) error {
	n := len(offsets)
	blocks := make([]float64, n)
	mean, meanErr := make([]float64, n), make([]float64, n)
	rms, rmsErr := make([]float64, n), make([]float64, n)
	for i, o := range offsets {
		blocks[i] = float64(i)
		if o.Fitted {
			mean[i], meanErr[i] = o.Params[1], o.Errs[1]
			rms[i], rmsErr[i] = o.Params[2], o.Errs[2]
		}
	}

	name := d.String()
	pg := plot.NewPage(2, 3)
	p, err := plot.NewPoints(name+" ADC time offset", name+" block", "offset (ns)", blocks, mean, meanErr)
	if err != nil {
		return err
	}
	pg.Set(0, p)
	if p, err = plot.NewPoints(name+" ADC time RMS", name+" block", "RMS (ns)", blocks, rms, rmsErr); err != nil {
		return err
	}
	pg.Set(1, p)
	pg.Set(2, plot.NewHeatMap(name+" offset (ns)", name+" col", name+" row", plot.Values(d.NRows, d.NCols, mean), 0, 0))

	before, after := j.Corrected(d, offsets)
	pg.Set(3, plot.NewHist2D("before correction", name+" block", "TH tmean - ADC time (ns)", before))
	pg.Set(4, plot.NewHist2D("after correction", name+" block", "TH tmean - ADC time (ns)", after))
	return pg.Save(path)
}
