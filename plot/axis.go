// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// LogScale maps values logarithmically, clamping anything below Floor.
type LogScale struct {
	Floor float64
}

func (s LogScale) log(x float64) float64 {
	floor := s.Floor
	if floor <= 0 {
		floor = 1e-15
	}
	if x <= floor {
		return math.Log10(floor)
	}
	return math.Log10(x)
}

func (s LogScale) Normalize(min, max, x float64) float64 {
	lo := s.log(min)
	return (s.log(x) - lo) / (s.log(max) - lo)
}

// LogTicks labels every decade and marks the integer multiples between.
type LogTicks struct {
	Floor float64
}

func (t LogTicks) Ticks(min, max float64) []plot.Tick {
	s := LogScale{t.Floor}
	val := math.Pow10(int(math.Floor(s.log(min))))
	top := math.Pow10(int(math.Ceil(s.log(max))))
	var ticks []plot.Tick
	for ; val < top; val *= 10 {
		ticks = append(ticks, plot.Tick{Value: val, Label: strconv.FormatFloat(val, 'g', 5, 64)})
		for i := 2; i < 10; i++ {
			ticks = append(ticks, plot.Tick{Value: val * float64(i)})
		}
	}
	return append(ticks, plot.Tick{Value: top, Label: strconv.FormatFloat(top, 'g', 5, 64)})
}

// BlockTicks puts labelled ticks on round block numbers, about N of them,
// with unlabelled ticks between.
type BlockTicks struct {
	N int
}

var blockSteps = []int{1, 2, 5, 10, 20, 25, 50, 100}

func (t BlockTicks) step(span float64) int {
	n := t.N
	if n < 2 {
		n = 6
	}
	for _, s := range blockSteps {
		if span/float64(s) <= float64(n) {
			return s
		}
	}
	return blockSteps[len(blockSteps)-1]
}

func (t BlockTicks) Ticks(min, max float64) []plot.Tick {
	if max <= min {
		return nil
	}
	major := t.step(max - min)
	minor := 1
	switch {
	case major%5 == 0 && major >= 10:
		minor = major / 5
	case major%2 == 0:
		minor = major / 2
	}

	var ticks []plot.Tick
	first := int(math.Ceil(min/float64(minor))) * minor
	for v := first; float64(v) <= max; v += minor {
		tk := plot.Tick{Value: float64(v)}
		if v%major == 0 {
			tk.Label = strconv.Itoa(v)
		}
		ticks = append(ticks, tk)
	}
	return ticks
}
