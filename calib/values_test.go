// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadValues(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "gain.txt", "1 2 \n3.5 4e-2 \n")
	values, err := ReadValues(path, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3.5, 0.04}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("value %d: got %v, want %v", i, values[i], want[i])
		}
	}

	if _, err := ReadValues(path, 5); !errors.Is(err, ErrBrokenFile) {
		t.Errorf("count mismatch: got %v", err)
	}
	if _, err := ReadValues(filepath.Join(dir, "missing.txt"), 4); !errors.Is(err, ErrNoFile) {
		t.Errorf("missing file: got %v", err)
	}

	bad := writeFile(t, dir, "bad.txt", "1 x\n")
	if _, err := ReadValues(bad, 2); !errors.Is(err, ErrBrokenFile) {
		t.Errorf("bad value: got %v", err)
	}
}

func TestReadAlpha(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "alpha.txt", "# blk alpha\n0 10.5\n1 9.8 extra\n\n2\n")
	alpha, err := ReadAlpha(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(alpha) != 2 || alpha[0] != 10.5 || alpha[1] != 9.8 {
		t.Errorf("got %v", alpha)
	}
}

func TestWriteGrid(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGrid(&buf, []float64{1, 0.5, 1.23456789, -1500}, 2); err != nil {
		t.Fatal(err)
	}
	want := "1 0.5 \n1.23457 -1500 \n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWritePeaks(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePeaks(&buf, []float64{10, 12}, []float64{0.1, 0.2}, 2); err != nil {
		t.Fatal(err)
	}
	if want := "10 0.1 12 0.2 \n"; buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
	if err := WritePeaks(&buf, []float64{1}, nil, 1); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestWriteGridFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Gain", "coeff.txt")
	values := []float64{0.25, 1, 2, 4, 8, 16}
	if err := WriteGridFile(path, values, 3); err != nil {
		t.Fatal(err)
	}
	got, err := ReadValues(path, len(values))
	if err != nil {
		t.Fatal(err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("value %d: got %v", i, got[i])
		}
	}
}

func ExampleWriteDB() {
	WriteDB(os.Stdout, "bb.ps.pedestal", []float64{101.5, 99, 100.25, 98}, 4)
	// Output:
	// bb.ps.pedestal =
	// 101.5 99 100.25 98
}

func TestPercentDiff(t *testing.T) {
	diff, err := PercentDiff([]float64{2, 0, 4}, []float64{1, 3, 5})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{50, 0, -25}
	for i := range want {
		if diff[i] != want[i] {
			t.Errorf("channel %d: got %v, want %v", i, diff[i], want[i])
		}
	}
	if _, err := PercentDiff([]float64{1}, nil); err == nil {
		t.Error("expected length mismatch error")
	}
}
