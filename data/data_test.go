// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"io/ioutil"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rditech/bbcal/config"
)

func TestEventVar(t *testing.T) {
	e := &Event{
		Tracks: []Track{{P: 2.1, Chi2: 3}, {P: 1.5}},
		SH: Calo{
			NClus:    2,
			E:        1.7,
			Clusters: []Cluster{{E: 1.7, Row: 4, Col: 3}},
			Blocks:   []Block{{ID: 31, E: 0.9}},
		},
		Vars: map[string]float64{"bb.gem.track.nhits[0]": 5},
	}

	tests := []struct {
		name string
		want float64
		ok   bool
	}{
		{"bb.tr.n", 2, true},
		{"bb.tr.p[0]", 2.1, true},
		{"bb.tr.p[1]", 1.5, true},
		{"bb.tr.p", 2.1, true},
		{"bb.tr.p[2]", 0, false},
		{"bb.tr.chi2[0]", 3, true},
		{"bb.sh.nclus", 2, true},
		{"bb.sh.e", 1.7, true},
		{"bb.sh.clus.row[0]", 4, true},
		{"bb.sh.clus_blk.id[0]", 31, true},
		{"bb.ps.nclus", 0, true},
		{"bb.gem.track.nhits[0]", 5, true},
		{"bb.unknown", 0, false},
	}
	for _, test := range tests {
		got, ok := e.Var(test.name)
		if ok != test.ok || got != test.want {
			t.Errorf("Var(%q) = %v, %v; want %v, %v", test.name, got, ok, test.want, test.ok)
		}
	}
}

func numbered(n int) []*Event {
	events := make([]*Event, n)
	for i := range events {
		events[i] = &Event{Entry: int64(i)}
	}
	return events
}

func TestEventOpKeepsOrder(t *testing.T) {
	op := EventOp{
		Process: func(e *Event) {
			time.Sleep(time.Duration(7*(e.Entry%5)) * time.Millisecond)
		},
		Workers: 8,
		Window:  4,
	}

	stream, errc := Scan(context.Background(), NewSliceSource(numbered(50)), 10, -1)
	var got []int64
	ops := OpArray{op}
	for e := range ops.Run(stream) {
		got = append(got, e.Entry)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}

	if len(got) != 50 {
		t.Fatalf("got %d events, want 50", len(got))
	}
	for i, entry := range got {
		if entry != int64(i) {
			t.Fatalf("event %d has entry %d", i, entry)
		}
	}
}

func TestScanMax(t *testing.T) {
	stream, errc := Scan(context.Background(), NewSliceSource(numbered(10)), 2, 3)
	n := 0
	for range stream {
		n++
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("read %d events, want 3", n)
	}
}

func TestScanCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stream, errc := Scan(ctx, NewSliceSource(numbered(10)), 0, -1)
	for range stream {
	}
	if err := <-errc; err != context.Canceled {
		t.Errorf("err = %v, want %v", err, context.Canceled)
	}
}

func TestFilterAndRewind(t *testing.T) {
	src := NewSliceSource(numbered(10))
	ops := OpArray{Filter("even entries", func(e *Event) bool { return e.Entry%2 == 0 })}

	for pass := 0; pass < 2; pass++ {
		var n int
		err := ops.Process(context.Background(), src, func(e *Event) {
			if e.Entry%2 != 0 {
				t.Errorf("odd entry %d passed the filter", e.Entry)
			}
			n++
		})
		if err != nil {
			t.Fatal(err)
		}
		if n != 5 {
			t.Errorf("pass %d: %d events, want 5", pass, n)
		}
		src.Rewind()
	}
}

func TestPedestalSubtract(t *testing.T) {
	p := &Pedestals{SH: make([]float64, 189)}
	p.SH[7] = 10
	in := make(chan *Event, 1)
	out := make(chan *Event, 1)
	in <- &Event{
		SH: Calo{ADC: []ADCHit{{Elem: 7, A: 25}, {Elem: 300, A: 4, AP: 4}}},
		PS: Calo{ADC: []ADCHit{{Elem: 1, A: 9, AP: 3}}},
	}
	close(in)
	p.Subtract(in, out)
	e := <-out

	if got := e.SH.ADC[0]; got.AP != 15 || got.Ped != 10 {
		t.Errorf("SH hit = %+v", got)
	}
	if got := e.SH.ADC[1].AP; got != 4 {
		t.Errorf("out of range hit changed: AP = %v", got)
	}
	if got := e.PS.ADC[0].AP; got != 3 {
		t.Errorf("PS without table changed: AP = %v", got)
	}
}

func TestKinematics(t *testing.T) {
	const (
		eBeam = 4.0
		p     = 2.0
		theta = 0.5
	)
	k := NewKinematics(eBeam, 1.05, false, config.MomCalib{GEMPitch: 10})
	e := &Event{Tracks: []Track{{P: p, Pz: p * math.Cos(theta)}}}
	k.Fill(e)
	if e.Kine == nil {
		t.Fatal("no kinematics")
	}

	prec := p * 1.05
	q2 := 4 * eBeam * prec * math.Pow(math.Sin(theta/2), 2)
	w2 := ProtonMass*ProtonMass + 2*ProtonMass*(eBeam-prec) - q2
	if math.Abs(e.Kine.PRec-prec) > 1e-12 {
		t.Errorf("PRec = %v, want %v", e.Kine.PRec, prec)
	}
	if math.Abs(e.Kine.Theta-theta) > 1e-12 {
		t.Errorf("Theta = %v, want %v", e.Kine.Theta, theta)
	}
	if math.Abs(e.Kine.Q2-q2) > 1e-12 {
		t.Errorf("Q2 = %v, want %v", e.Kine.Q2, q2)
	}
	if math.Abs(e.Kine.W2-w2) > 1e-12 {
		t.Errorf("W2 = %v, want %v", e.Kine.W2, w2)
	}
	if w2 > 0 && math.Abs(e.Kine.W-math.Sqrt(w2)) > 1e-12 {
		t.Errorf("W = %v, want %v", e.Kine.W, math.Sqrt(w2))
	}

	e = &Event{Tracks: []Track{{P: 0}}}
	k.Fill(e)
	if e.Kine != nil {
		t.Error("zero momentum track accepted")
	}
}

func TestChooseTrack(t *testing.T) {
	e := &Event{Tracks: []Track{{P: 1, Chi2: 40}, {P: 1, Chi2: 12}, {P: 1, Chi2: 30}}}

	if got := NewKinematics(1, 1, false, config.MomCalib{}).ChooseTrack(e); got != 0 {
		t.Errorf("first track: got %d", got)
	}
	if got := NewKinematics(1, 1, true, config.MomCalib{}).ChooseTrack(e); got != 1 {
		t.Errorf("min chi2: got %d", got)
	}

	e.Tracks = []Track{{P: 1, Chi2: 2000}}
	if got := NewKinematics(1, 1, true, config.MomCalib{}).ChooseTrack(e); got != -1 {
		t.Errorf("chi2 above limit: got %d", got)
	}
}

func TestBendAngle(t *testing.T) {
	k := NewKinematics(1, 1, false, config.MomCalib{On: true, A: 0.3, GEMPitch: 10})
	got := k.BendAngle(Track{})
	want := 10 * math.Pi / 180
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("BendAngle = %v, want %v", got, want)
	}

	p, bend := k.Momentum(Track{P: 5})
	if math.Abs(bend-want) > 1e-12 || math.Abs(p-0.3/want) > 1e-12 {
		t.Errorf("Momentum = %v, %v", p, bend)
	}
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"run_11.root", "run_12.root", "other.dat"} {
		if err := ioutil.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	list := filepath.Join(dir, "run_list.txt")
	content := "# runs\n" + filepath.Join(dir, "run_*.root") + "\n\n"
	if err := ioutil.WriteFile(list, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	missing := filepath.Join(dir, "run_99.root")
	got, err := ExpandInputs(context.Background(), []string{list, missing}, "")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got[:2])
	want := []string{
		filepath.Join(dir, "run_11.root"),
		filepath.Join(dir, "run_12.root"),
		missing,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("input %d = %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := ExpandInputs(context.Background(), []string{"ftp://host/x.root"}, ""); err == nil {
		t.Error("bad scheme accepted")
	}
}

func TestFetchLocal(t *testing.T) {
	p, cleanup, err := Fetch(context.Background(), "file:///data/run.root", "")
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if p != "/data/run.root" {
		t.Errorf("path = %v", p)
	}
}

func TestRootSourceMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.root")
	src := NewRootSource([]string{missing}, Tracks)
	_, err := src.Next(context.Background())
	if err == nil {
		t.Fatal("missing file opened")
	}
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("error %q does not name %v", err, missing)
	}
}
