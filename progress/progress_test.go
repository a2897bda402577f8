// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package progress

import (
	"errors"
	"math"
	"testing"
)

func TestMakeSmoother(t *testing.T) {
	s := MakeSmoother(0.5, 0)
	for i, want := range []float64{5, 7.5, 8.75} {
		if got := s(10); math.Abs(got-want) > 1e-12 {
			t.Errorf("step %d: %v, want %v", i, got, want)
		}
	}
}

func TestProgressCount(t *testing.T) {
	p := Start("test", 10)
	for i := 0; i < 7; i++ {
		p.Inc()
	}
	if p.Count() != 7 {
		t.Errorf("Count = %d", p.Count())
	}
	p.Done(errors.New("stopped"))
}
