// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package peak

import (
	"math"
	"testing"

	"go-hep.org/x/hep/hbook"
)

// fillShape fills h once per count of round(f) at every bin centre.
func fillShape(h *hbook.H1D, f func(x float64) float64) {
	for _, bin := range h.Binning.Bins {
		x := bin.XMid()
		n := int(math.Round(f(x)))
		for i := 0; i < n; i++ {
			h.Fill(x, 1)
		}
	}
}

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func gauss(amp, mean, sigma float64) func(float64) float64 {
	return func(x float64) float64 {
		return Gaussian.F(x, []float64{amp, mean, sigma})
	}
}

func TestGrid(t *testing.T) {
	g := NewGrid(3, 2, 10, 0, 10)
	if g.Len() != 6 {
		t.Fatalf("Len = %d", g.Len())
	}
	g.Fill(5, 2.5, 1)
	g.Fill(5, 2.5, 1)
	g.Fill(6, 1, 1)
	g.Fill(-1, 1, 1)
	if n := g.At(2, 1).Entries(); n != 2 {
		t.Errorf("entries = %d, want 2", n)
	}

	b := BinsOf(g.At(2, 1))
	if len(b.X) != 10 || b.Width != 1 {
		t.Fatalf("bins = %d, width = %v", len(b.X), b.Width)
	}
	if b.Y[2] != 2 || b.X[2] != 2.5 {
		t.Errorf("bin 2 = (%v, %v)", b.X[2], b.Y[2])
	}
	if mean, sd := b.Stats(0, 10); mean != 2.5 || sd != 0 {
		t.Errorf("stats = %v, %v", mean, sd)
	}
}

func TestFindPeakPedestal(t *testing.T) {
	h := hbook.NewH1D(100, 0, 100)
	fillShape(h, func(x float64) float64 {
		if x < 4 {
			return 5000
		}
		return gauss(300, 60.5, 5)(x)
	})
	b := BinsOf(h)

	if p := FindPeak(b, NoSkip); p.Bin != 0 {
		t.Errorf("no skip: peak bin %d, want 0", p.Bin)
	}
	p := FindPeak(b, SkipPedestal)
	if p.X != 60.5 {
		t.Errorf("pedestal skip: peak at %v, want 60.5", p.X)
	}
	if p.From <= 4 || p.From > 60 {
		t.Errorf("search starts at bin %d", p.From)
	}
}

func TestFindPeakEmpty(t *testing.T) {
	b := Bins{
		X:     []float64{0, 1, 2, 3, 4, 5, 6, 7},
		Y:     []float64{0, 9, 2, 0, 3, 6, 3, 1},
		Width: 1,
	}
	if p := FindPeak(b, SkipEmpty); p.Bin != 5 {
		t.Errorf("peak bin %d, want 5", p.Bin)
	}
	if p := FindPeak(b, SkipPedestal); p.Bin != 5 {
		t.Errorf("pedestal skip: peak bin %d, want 5", p.Bin)
	}
}

func TestWindow(t *testing.T) {
	lo, hi := Window{Lo: 2, Hi: 2.5}.Range(100, -4)
	if lo != 92 || hi != 110 {
		t.Errorf("range = [%v, %v]", lo, hi)
	}
}

func TestFitPeakGaussian(t *testing.T) {
	h := hbook.NewH1D(100, 0, 100)
	fillShape(h, gauss(800, 40.5, 6))
	b := BinsOf(h)

	pf, err := FitPeak(b, Options{Skip: SkipPedestal, Window: Window{2.1, 2.1}})
	if err != nil {
		t.Fatal(err)
	}
	if !pf.Fitted {
		t.Fatal("not fitted")
	}
	if math.Abs(pf.Mean()-40.5) > 0.1 {
		t.Errorf("mean = %v, want 40.5", pf.Mean())
	}
	if math.Abs(pf.Sigma()-6) > 0.1 {
		t.Errorf("sigma = %v, want 6", pf.Sigma())
	}
	if pf.NInPeak <= 0 || pf.NInPeak > float64(b.Entries) {
		t.Errorf("NInPeak = %v", pf.NInPeak)
	}
	if f := CosmicLimits.Judge(pf, b.Entries); f != Good {
		t.Errorf("flag = %v", f)
	}
}

func TestFitPeakSingleStage(t *testing.T) {
	h := hbook.NewH1D(120, -70, -10)
	fillShape(h, gauss(400, -40.25, 3))
	b := BinsOf(h)

	pf, err := FitPeak(b, Options{Skip: SkipEmpty, Window: Window{1.3, 0.8}, SingleStage: true})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pf.Mean()+40.25) > 0.2 {
		t.Errorf("mean = %v, want -40.25", pf.Mean())
	}
}

func TestFitPeakWindowEdges(t *testing.T) {
	h := hbook.NewH1D(100, 0, 100)
	fillShape(h, gauss(800, 40.8, 5))
	b := BinsOf(h)

	w := Window{1.5, 2.5}
	pf, err := FitPeak(b, Options{Skip: SkipPedestal, Window: w, SingleStage: true})
	if err != nil {
		t.Fatal(err)
	}
	if pf.X != b.X[pf.Bin] {
		t.Errorf("centre = %v, want bin centre %v", pf.X, b.X[pf.Bin])
	}
	lo, hi := pf.X-w.Lo*pf.StdDev, pf.X+w.Hi*pf.StdDev
	if !near(pf.Lo, lo, 1e-12) || !near(pf.Hi, hi, 1e-12) {
		t.Errorf("single stage range = [%v, %v], want [%v, %v]", pf.Lo, pf.Hi, lo, hi)
	}
	if !near(pf.NInPeak, b.Integral(lo, hi), 1e-9) {
		t.Errorf("NInPeak = %v, want %v", pf.NInPeak, b.Integral(lo, hi))
	}

	pf, err = FitPeak(b, Options{Skip: SkipPedestal, Window: w})
	if err != nil {
		t.Fatal(err)
	}
	// Two stage keeps the max bin centre and scales by the first fit width.
	left, right := pf.X-pf.Lo, pf.Hi-pf.X
	if left <= 0 || !near(left/right, w.Lo/w.Hi, 1e-9) {
		t.Errorf("two stage range [%v, %v] not centred on %v", pf.Lo, pf.Hi, pf.X)
	}
}

func TestFitPeakTooFew(t *testing.T) {
	h := hbook.NewH1D(100, 0, 100)
	for i := 0; i < 10; i++ {
		h.Fill(float64(5*i), 1)
	}
	pf, err := FitPeak(BinsOf(h), Options{Window: Window{2, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if pf.Fitted {
		t.Error("fitted a histogram with 10 entries")
	}
	if f := CosmicLimits.Judge(pf, 10); f != NoData {
		t.Errorf("flag = %v, want No_Data", f)
	}
}

func TestFitMoyal(t *testing.T) {
	truth := []float64{500, 120, 15, 2}
	h := hbook.NewH1D(100, 0, 400)
	fillShape(h, func(x float64) float64 { return Moyal.F(x, truth) })
	b := BinsOf(h)

	r, err := Fit(b, Moyal, []float64{450, 110, 20, 0}, 60, 300)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.Params[1]-120) > 1 {
		t.Errorf("mpv = %v, want 120", r.Params[1])
	}
	if math.Abs(r.Params[2]-15) > 1 {
		t.Errorf("sigma = %v, want 15", r.Params[2])
	}
}

func TestFitFewBins(t *testing.T) {
	b := Bins{X: []float64{1, 2, 3}, Y: []float64{1, 5, 1}, Width: 1}
	if _, err := Fit(b, Gaussian, []float64{5, 2, 1}, 0, 4); err == nil {
		t.Error("fitted 3 bins with 3 parameters")
	}
}

func TestJudge(t *testing.T) {
	fit := func(sigma, errMean float64) PeakFit {
		return PeakFit{
			Result: Result{Params: []float64{1, 100, sigma}, Errs: []float64{0, errMean, 0}},
			Fitted: true,
		}
	}
	tests := []struct {
		pf   PeakFit
		want Flag
	}{
		{fit(10, 1), Good},
		{fit(61, 1), Wide},
		{fit(0.05, 1), Narrow},
		{fit(10, 25), BigError},
	}
	for _, test := range tests {
		if got := CosmicLimits.Judge(test.pf, 100); got != test.want {
			t.Errorf("Judge(sigma %v) = %v, want %v", test.pf.Sigma(), got, test.want)
		}
	}
	var unfitted PeakFit
	for _, test := range []struct {
		entries int64
		want    Flag
	}{{0, NoData}, {19, NoData}, {20, Narrow}, {21, Narrow}} {
		if got := CosmicLimits.Judge(unfitted, test.entries); got != test.want {
			t.Errorf("unfitted with %d entries: %v, want %v", test.entries, got, test.want)
		}
	}
	if s := BigError.String(); s != "Big_error" {
		t.Errorf("String = %q", s)
	}
}

func TestFitLine(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 2 + 3*x[i]
	}
	c, m, err := FitLine(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c-2) > 1e-3 || math.Abs(m-3) > 1e-3 {
		t.Errorf("line = %v + %v x", c, m)
	}
}
