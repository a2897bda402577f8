// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"go-hep.org/x/hep/hbook"
)

func TestMeanGrid(t *testing.T) {
	g := NewBlockGrid(3, 2)
	g.Fill(1.5, 2.5, 0.9)
	g.Fill(1.5, 2.5, 1.1)
	g.Fill(0.5, 0.5, 4)

	if nx, ny := g.Dims(); nx != 2 || ny != 3 {
		t.Fatalf("Dims = %d, %d", nx, ny)
	}
	if z := g.Z(1, 2); math.Abs(z-1) > 1e-12 {
		t.Errorf("Z(1, 2) = %v, want 1", z)
	}
	if n := g.Count(1, 2); n != 2 {
		t.Errorf("Count(1, 2) = %v, want 2", n)
	}
	if z := g.Z(0, 1); z != 0 {
		t.Errorf("empty cell Z = %v", z)
	}
	if x, y := g.X(1), g.Y(2); x != 1.5 || y != 2.5 {
		t.Errorf("centre = (%v, %v)", x, y)
	}

	v := Values(3, 2, []float64{1, 2, 3, 4, 5, 6})
	if z := v.Z(1, 2); z != 6 {
		t.Errorf("Values Z(1, 2) = %v, want 6", z)
	}
}

func TestBlockTicks(t *testing.T) {
	ticks := BlockTicks{N: 6}.Ticks(0, 189)
	var labelled int
	for _, tick := range ticks {
		if tick.Value < 0 || tick.Value > 189 {
			t.Errorf("tick %v out of range", tick.Value)
		}
		if tick.Label != "" {
			labelled++
		}
	}
	if labelled != 4 {
		t.Errorf("%d labelled ticks, want 4", labelled)
	}
	if ticks[0].Label != "0" || ticks[1].Value != 10 {
		t.Errorf("first ticks = %+v %+v", ticks[0], ticks[1])
	}
}

func TestLogTicks(t *testing.T) {
	ticks := LogTicks{}.Ticks(1, 1000)
	if n := len(ticks); n != 28 {
		t.Errorf("%d ticks, want 28", n)
	}
	if ticks[0].Value != 1 || ticks[0].Label != "1" {
		t.Errorf("first tick = %+v", ticks[0])
	}
	last := ticks[len(ticks)-1]
	if last.Value != 1000 || last.Label != "1000" {
		t.Errorf("last tick = %+v", last)
	}
}

func TestLogScale(t *testing.T) {
	s := LogScale{Floor: 0.5}
	if v := s.Normalize(1, 100, 10); math.Abs(v-0.5) > 1e-12 {
		t.Errorf("Normalize(1, 100, 10) = %v", v)
	}
	if v := s.Normalize(1, 100, 0); v >= 0 {
		t.Errorf("empty bin normalized to %v", v)
	}
}

func TestSavePage(t *testing.T) {
	h := hbook.NewH1D(20, 0, 10)
	for i := 0; i < 100; i++ {
		h.Fill(float64(i%10)+0.5, 1)
	}
	p1, err := NewHist1D("h", "x", h, func(x float64) float64 { return 10 }, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	p2 := NewHeatMap("map", "col", "row", Values(2, 2, []float64{1, 2, 3, 4}), 0, 5)
	p3, err := NewPoints("pts", "block", "value", []float64{0, 1, 2}, []float64{1, 2, 1}, []float64{0.1, 0.1, 0.1})
	if err != nil {
		t.Fatal(err)
	}

	pg := NewPage(2, 2)
	pg.Set(0, p1)
	pg.Set(1, p2)
	pg.Set(2, p3)

	dir := t.TempDir()
	for _, name := range []string{"page.pdf", "sub/page.png"} {
		path := filepath.Join(dir, name)
		if err := pg.Save(path); err != nil {
			t.Fatal(err)
		}
		fi, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if fi.Size() == 0 {
			t.Errorf("%v is empty", name)
		}
	}
}

func TestZRange(t *testing.T) {
	for _, test := range []struct {
		values   []float64
		min, max float64
	}{
		{[]float64{1, 2, 3, 4}, 1, 4},
		{[]float64{2, 2, 2, 2}, 1.5, 2.5},
		{[]float64{math.NaN(), 3, math.NaN(), 5}, 3, 5},
	} {
		min, max := zRange(Values(2, 2, test.values))
		if min != test.min || max != test.max {
			t.Errorf("zRange(%v) = %v, %v, want %v, %v", test.values, min, max, test.min, test.max)
		}
	}

	g := clampGrid{GridXYZ: Values(1, 2, []float64{-1, 7}), min: 0, max: 5}
	if g.Z(0, 0) != 0 || g.Z(1, 0) != 5 {
		t.Errorf("clamped = %v, %v", g.Z(0, 0), g.Z(1, 0))
	}
}
