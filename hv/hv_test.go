// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package hv

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/detector"
)

const setFile = `# run 1000
rpi17:2001 S0 DV -1500 -1501 -1502 -1503 -1504 -1505 -1506 -1507 -1508 -1509 -1510 -1511
rpi18:2001 S15 DV -1600.5 -1600.5 -1600.5 -1600.5 -1600.5 -1600.5 -1600.5 -1600.5 -1600.5 -1600.5 -1600.5 -1600.5
`

func TestParse(t *testing.T) {
	s, err := Parse(strings.NewReader(setFile))
	if err != nil {
		t.Fatal(err)
	}
	if s.V[0][0][11] != -1511 || s.V[1][15][3] != -1600.5 {
		t.Errorf("values %v %v", s.V[0][0][11], s.V[1][15][3])
	}
	if !s.Read[0][0] || s.Read[0][1] {
		t.Error("slots read not tracked")
	}

	var buf bytes.Buffer
	if err := s.Write(&buf, func(c, sl int) bool { return s.Read[c][sl] }); err != nil {
		t.Fatal(err)
	}
	want := strings.SplitN(setFile, "\n", 2)[1]
	if buf.String() != want {
		t.Errorf("written\n%s\nwant\n%s", buf.String(), want)
	}

	for _, bad := range []string{
		"rpi19:2001 S0 DV 1",
		"rpi17:2001 X0 DV 1",
		"rpi17:2001 S16 DV 1",
		"rpi17:2001 S1 DV a",
		"rpi17:2001 S1",
	} {
		if _, err := Parse(strings.NewReader(bad)); err == nil {
			t.Errorf("%q parsed", bad)
		}
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "none.set"))
	if !errors.Is(err, calib.ErrNoFile) {
		t.Errorf("err = %v", err)
	}
}

func uniform(v float64) *Settings {
	s := &Settings{}
	for c := range s.V {
		for sl := range s.V[c] {
			for ch := range s.V[c][sl] {
				s.V[c][sl][ch] = v
			}
		}
	}
	return s
}

func fill(n int, v float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = v
	}
	return x
}

func TestUpdate(t *testing.T) {
	s := uniform(-1000)
	n := detector.SH.N()
	ratio := fill(n, math.Pow(1.5, 10))
	ratio[5] = math.Pow(2.5, 10)
	ratio[6] = math.NaN()

	out, changes, err := Update(s, detector.SH, ratio, fill(n, 10))
	if err != nil {
		t.Fatal(err)
	}
	m := detector.SHHVMap()
	at := func(blk int) float64 {
		a := m[blk]
		return out.V[a.Crate][a.Slot][a.Chan]
	}
	if math.Abs(at(0)+1500) > 1e-9 || changes[0].Kept {
		t.Errorf("block 0: %v", at(0))
	}
	if at(5) != -1000 || !changes[5].Kept || math.Abs(changes[5].New+2500) > 1e-9 {
		t.Errorf("block 5 over the limit: %v %+v", at(5), changes[5])
	}
	if at(6) != -1000 || !changes[6].Kept {
		t.Errorf("NaN block: %v", at(6))
	}
	if out.V[0][0][0] != -1000 {
		t.Error("preshower channel changed by a shower update")
	}
	if s.V[0][2][3] != -1000 {
		t.Error("input settings modified")
	}

	if _, _, err := Update(s, detector.SH, ratio[:10], fill(n, 10)); err == nil {
		t.Error("short ratio list accepted")
	}
	if _, _, err := Update(s, detector.HCal, ratio, fill(n, 10)); err == nil {
		t.Error("HCal has no HV map")
	}
}

func TestPSLimit(t *testing.T) {
	n := detector.PS.N()
	_, changes, err := Update(uniform(-1000), detector.PS, fill(n, math.Pow(1.9, 10)), fill(n, 10))
	if err != nil {
		t.Fatal(err)
	}
	if !changes[0].Kept {
		t.Errorf("|HV| %v above the preshower limit accepted", changes[0].New)
	}
}

func TestPeakRatios(t *testing.T) {
	r := PeakRatios(10, []float64{5, 20})
	if r[0] != 2 || r[1] != 0.5 {
		t.Errorf("ratios %v", r)
	}
}

func TestCombine(t *testing.T) {
	out := Combine(uniform(-1), uniform(-2))
	if out.V[0][1][11] != -2 || out.V[0][2][2] != -2 || out.V[0][2][3] != -1 {
		t.Error("crate 0 preshower channels")
	}
	if out.V[1][13][9] != -2 || out.V[1][13][8] != -1 || out.V[1][15][0] != -2 {
		t.Error("crate 1 preshower channels")
	}
	for blk, a := range detector.PSHVMap() {
		if !IsPS(a.Crate, a.Slot, a.Chan) {
			t.Errorf("preshower block %d at %+v not taken from the preshower", blk, a)
		}
	}
	for blk, a := range detector.SHHVMap() {
		if IsPS(a.Crate, a.Slot, a.Chan) {
			t.Errorf("shower block %d at %+v taken from the preshower", blk, a)
		}
		if !Written(a.Crate, a.Slot) {
			t.Errorf("shower block %d at %+v not written", blk, a)
		}
	}

	var buf bytes.Buffer
	if err := out.Write(&buf, Written); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 10+11 {
		t.Errorf("%d slots written", len(lines))
	}
	if !strings.HasPrefix(lines[0], "rpi17:2001 S0 DV -2 -2") {
		t.Errorf("first line %q", lines[0])
	}
}

func TestShift(t *testing.T) {
	out := Shift(uniform(-1500), -20)
	if out.V[0][9][2] != -1480 || out.V[0][9][3] != -1500 || out.V[1][5][0] != -1480 {
		t.Errorf("shifted %v %v %v", out.V[0][9][2], out.V[0][9][3], out.V[1][5][0])
	}
}

func TestFitAlpha(t *testing.T) {
	const c, alpha = -50., 8.
	hv := []float64{-1200, -1300, -1400}
	peaks := make([]float64, len(hv))
	for i, v := range hv {
		peaks[i] = math.Exp(c + alpha*math.Log(-v))
	}

	f, err := FitAlpha(3, hv, peaks, 400, SHLimit)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(f.Alpha-alpha) > 1e-3 || f.Fallback {
		t.Errorf("alpha = %v", f.Alpha)
	}
	want := -math.Exp((math.Log(400) - c) / alpha)
	if math.Abs(f.HV/want-1) > 1e-3 {
		t.Errorf("HV = %v, want %v", f.HV, want)
	}

	f, err = FitAlpha(3, hv, []float64{100, 101, 102}, 200, SHLimit)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Fallback || math.Abs(f.HV+1200*math.Pow(2, 1./6)) > 1e-9 {
		t.Errorf("fallback HV = %v (alpha %v)", f.HV, f.Alpha)
	}

	f, err = FitAlpha(3, hv, peaks, 1e9, SHLimit)
	if err != nil || f.HV != -SHLimit {
		t.Errorf("bounded HV = %v, %v", f.HV, err)
	}

	if _, err := FitAlpha(3, hv, []float64{0, 1, 2}, 10, SHLimit); err == nil {
		t.Error("zero peak accepted")
	}

	var buf bytes.Buffer
	if err := WriteAlphas(&buf, []AlphaFit{{Block: 0, Alpha: 8, Const: -50}}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "0 8 -50\n" {
		t.Errorf("alpha file %q", buf.String())
	}
}
