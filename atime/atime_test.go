// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package atime

import (
	"bytes"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/data"
	"github.com/rditech/bbcal/detector"
)

func timingEvent(shTime, psTime float64) *data.Event {
	return &data.Event{
		SH: data.Calo{
			NClus: 1, RowBlk: 5, ColBlk: 3, IdBlk: 38,
			Blocks: []data.Block{{ID: 38, E: 1, ATime: shTime}},
		},
		PS: data.Calo{
			NClus: 1, E: 0.5, RowBlk: 5, ColBlk: 0, IdBlk: 10,
			Blocks: []data.Block{{ID: 10, E: 0.5, ATime: psTime}},
		},
		HodoTMean:      []float64{0},
		HodoTrackIndex: []float64{0},
	}
}

func TestOffsets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Nominal = 7
	cfg.OldSH = make([]float64, detector.SH.N())
	for i := range cfg.OldSH {
		cfg.OldSH[i] = 2
	}
	j, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 800; i++ {
		j.Process(timingEvent(40+3*rng.NormFloat64(), 30+3*rng.NormFloat64()))
	}

	lowE := timingEvent(40, 30)
	lowE.PS.E = 0.1
	otherTrack := timingEvent(40, 30)
	otherTrack.HodoTrackIndex[0] = 1
	noPS := timingEvent(40, 30)
	noPS.PS.IdBlk = -1
	for _, e := range []*data.Event{lowE, otherTrack, noPS} {
		j.Process(e)
	}
	if j.Events != 800 {
		t.Errorf("%d events selected", j.Events)
	}

	sh, err := j.Fit(detector.SH)
	if err != nil {
		t.Fatal(err)
	}
	ps, err := j.Fit(detector.PS)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := j.Fit(detector.HCal); err == nil {
		t.Error("HCal offsets fitted")
	}

	blk := detector.SH.Index(5, 3)
	if o := sh[blk]; !o.Fitted || math.Abs(o.Mean()+40) > 0.5 || o.Value != o.Mean()+2 {
		t.Errorf("shower offset %+v", o)
	}
	if o := ps[detector.PS.Index(5, 0)]; !o.Fitted || math.Abs(o.Value+30) > 0.5 {
		t.Errorf("preshower offset %v", o.Value)
	}
	if sh[0].Value != 7 || ps[0].Value != 7 {
		t.Errorf("empty blocks: %v %v", sh[0].Value, ps[0].Value)
	}

	before, after := j.Corrected(detector.SH, sh)
	if before.Entries() != 800 || after.Entries() != 800 {
		t.Errorf("corrected entries %d %d", before.Entries(), after.Entries())
	}

	var buf bytes.Buffer
	if err := WriteDB(&buf, sh, ps); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "bb.sh.adc.timeoffset =\n7 7 ") ||
		!strings.Contains(buf.String(), "\nbb.ps.adc.timeoffset =\n") {
		t.Errorf("db listing\n%s", buf.String())
	}

	dir := t.TempDir()
	files, err := Write(dir, "gmn_set1", sh, ps)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 || files[0] != filepath.Join(dir, "Output", "gmn_set1_atimeOff_sh.txt") {
		t.Errorf("files %v", files)
	}
	values, err := calib.ReadValues(files[0], detector.SH.N())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(values[blk]-sh[blk].Value) > 1e-4 {
		t.Errorf("written offset %v, want %v", values[blk], sh[blk].Value)
	}
}

func TestNewChecksOldOffsets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OldPS = []float64{1, 2}
	if _, err := New(cfg); err == nil {
		t.Error("short preshower offsets accepted")
	}
}
