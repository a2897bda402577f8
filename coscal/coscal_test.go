// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package coscal

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
	"github.com/rditech/bbcal/peak"
)

func TestVertical(t *testing.T) {
	h := NewHits(detector.SH)
	set := func(blocks ...[2]int) {
		h.Reset()
		for _, b := range blocks {
			h.Set(detector.SH.Index(b[0], b[1]))
		}
	}

	for _, test := range []struct {
		name     string
		hits     [][2]int
		row, col int
		want     bool
	}{
		{"middle", [][2]int{{4, 3}, {5, 3}, {6, 3}}, 5, 3, true},
		{"middle without block itself", [][2]int{{4, 3}, {6, 3}}, 5, 3, true},
		{"neighbour", [][2]int{{4, 3}, {5, 3}, {6, 3}, {5, 2}}, 5, 3, false},
		{"missing above", [][2]int{{4, 3}, {5, 3}}, 5, 3, false},
		{"bottom", [][2]int{{0, 0}, {1, 0}, {2, 0}, {3, 0}}, 0, 0, true},
		{"bottom short", [][2]int{{0, 0}, {1, 0}, {2, 0}}, 0, 0, false},
		{"top", [][2]int{{23, 6}, {24, 6}, {25, 6}}, 26, 6, true},
		{"top short", [][2]int{{24, 6}, {25, 6}}, 26, 6, false},
	} {
		set(test.hits...)
		if got := h.Vertical(test.row, test.col); got != test.want {
			t.Errorf("%v: Vertical(%d, %d) = %v", test.name, test.row, test.col, got)
		}
	}
}

// cosmics returns events with a muon running up column col.
func cosmics(n, col int, amp func(*rand.Rand) float64, ratio func(*rand.Rand) float64) []*data.Event {
	rng := rand.New(rand.NewSource(7))
	events := make([]*data.Event, n)
	for k := range events {
		e := &data.Event{Entry: int64(k)}
		for row := 0; row < detector.SH.NRows; row++ {
			a := amp(rng)
			e.SH.ADC = append(e.SH.ADC, data.ADCHit{
				Elem: detector.SH.Index(row, col),
				AmpP: a,
				AP:   a / ratio(rng),
				Time: 120,
			})
		}
		events[k] = e
	}
	return events
}

func gauss(mean, sigma float64) func(*rand.Rand) float64 {
	return func(rng *rand.Rand) float64 {
		return mean + sigma*rng.NormFloat64()
	}
}

func TestFit(t *testing.T) {
	j := New(DefaultConfig(detector.SH))
	for _, e := range cosmics(600, 3, gauss(20, 3), gauss(3.5, 0.5)) {
		j.Process(e)
	}

	fits := j.Fit()
	good := fits[detector.SH.Index(10, 3)]
	if good.Flag != peak.Good {
		t.Fatalf("flag = %v", good.Flag)
	}
	pos, _ := good.Peak()
	if !(math.Abs(pos-20) < 0.5) {
		t.Errorf("peak = %v", pos)
	}
	if want := math.Pow(TargetADC/pos, 0.1); math.Abs(good.HVCorr-want) > 1e-12 {
		t.Errorf("HV correction = %v, want %v", good.HVCorr, want)
	}
	if good.NInPeak <= 0 || good.NInPeak > 600 {
		t.Errorf("events in peak = %v", good.NInPeak)
	}

	empty := fits[detector.SH.Index(10, 0)]
	if empty.Flag != peak.NoData || empty.HVCorr != 1 {
		t.Errorf("empty block: flag %v, HV correction %v", empty.Flag, empty.HVCorr)
	}
	if pos, err := empty.Peak(); pos != 0 || err != 0 {
		t.Errorf("empty block peak = %v ± %v", pos, err)
	}

	ratios := j.AmpToInt()
	if r := ratios[detector.SH.Index(10, 3)]; math.Abs(r-3.5) > 0.1 {
		t.Errorf("amp/int = %v", r)
	}
	if r := ratios[detector.SH.Index(10, 0)]; r != 0 {
		t.Errorf("empty amp/int = %v", r)
	}

	dir := t.TempDir()
	peaks := filepath.Join(dir, "Output", "run_1_sh_peak.txt")
	if err := WritePeaks(peaks, detector.SH, fits); err != nil {
		t.Fatal(err)
	}
	values, err := calib.ReadValues(peaks, 2*detector.SH.N())
	if err != nil {
		t.Fatal(err)
	}
	if v := values[2*detector.SH.Index(10, 3)]; math.Abs(v-pos) > 1e-4 {
		t.Errorf("written peak = %v, want %v", v, pos)
	}
	if err := WriteTable(filepath.Join(dir, "fit.txt"), "# run 1", fits); err != nil {
		t.Fatal(err)
	}
}

func TestTrigRatio(t *testing.T) {
	cfg := DefaultConfig(detector.SH)
	cfg.TrigRatio = make([]float64, detector.SH.N())
	for i := range cfg.TrigRatio {
		cfg.TrigRatio[i] = 0.5
	}
	j := New(cfg)
	for _, e := range cosmics(10, 2, gauss(20, 0), gauss(3, 0)) {
		j.Process(e)
	}
	b := peak.BinsOf(j.Spectra.At(5, 2))
	if b.Entries != 10 || b.MaxBin(0, len(b.Y)) != 10 {
		t.Errorf("entries %d, max bin %d", b.Entries, b.MaxBin(0, len(b.Y)))
	}
}

func TestADCGain(t *testing.T) {
	gain := ADCGain([]float64{3.5, 0}, DefaultCF, DefaultTrigAmp)
	if math.Abs(gain[0]-3.5*0.06*1.21/25) > 1e-15 || gain[1] != 0 {
		t.Errorf("gain = %v", gain)
	}
}

func moyal(mpv, sigma float64) func(*rand.Rand) float64 {
	return func(rng *rand.Rand) float64 {
		z := rng.NormFloat64()
		return mpv - sigma*math.Log(z*z)
	}
}

func TestHVTargets(t *testing.T) {
	cfg := DefaultConfig(detector.SH)
	cfg.Spectrum.NBins = 90
	cfg.Spectrum.Max = 90
	j := New(cfg)
	for _, e := range cosmics(3000, 4, moyal(30, 3), gauss(3, 0)) {
		j.Process(e)
	}

	n := detector.SH.N()
	hv, alpha := make([]float64, n), make([]float64, n)
	for i := range hv {
		hv[i] = -1500
		alpha[i] = Alpha
	}
	targets, err := j.HVTargets(hv, alpha, TargetRAU)
	if err != nil {
		t.Fatal(err)
	}

	tgt := targets[detector.SH.Index(12, 4)]
	if !tgt.Fitted || math.Abs(tgt.MPV-30) > 2 {
		t.Errorf("mpv = %v (fitted %v)", tgt.MPV, tgt.Fitted)
	}
	if want := -1500 / math.Pow(tgt.MPV/TargetRAU, 0.1); math.Abs(tgt.HV-want) > 1e-9 {
		t.Errorf("HV = %v, want %v", tgt.HV, want)
	}
	if tgt.HV > -1500 {
		t.Errorf("low peak should raise |HV|: %v", tgt.HV)
	}
	if empty := targets[0]; empty.HV != -1500 || empty.Fitted {
		t.Errorf("empty block target = %+v", empty)
	}

	if _, err := j.HVTargets(hv[:3], alpha, TargetRAU); err == nil {
		t.Error("short HV list accepted")
	}

	var buf bytes.Buffer
	if err := j.WriteHVTargets(&buf, 12, targets); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != n+2 || lines[0] != "#Target HV settings for run 12" {
		t.Errorf("%d lines, header %q", len(lines), lines[0])
	}
	if !strings.HasPrefix(lines[2], "0  0  -1500") {
		t.Errorf("first block line %q", lines[2])
	}
}
