// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package calib reads and writes the flat per-channel calibration files
// shared by the calibration jobs.
package calib

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrNoFile     = errors.New("no file")
	ErrBrokenFile = errors.New("broken file")
)

// FormatFloat renders v with six significant digits, the way the legacy
// files were written.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// ReadValues reads whitespace-separated values from path and checks that
// exactly n were found.
func ReadValues(path string, n int) ([]float64, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", ErrNoFile, path)
		}
		return nil, err
	}

	fields := strings.Fields(string(raw))
	if len(fields) != n {
		return nil, fmt.Errorf("%w: %v has %d values, expected %d", ErrBrokenFile, path, len(fields), n)
	}

	values := make([]float64, n)
	for i, field := range fields {
		values[i], err = strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v: value %d: %v", ErrBrokenFile, path, i, err)
		}
	}
	return values, nil
}

// ReadAlpha reads the per-block HV exponents from the second column of an
// alpha file.
func ReadAlpha(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", ErrNoFile, path)
		}
		return nil, err
	}
	defer f.Close()

	var alpha []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		a, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v: %v", ErrBrokenFile, path, err)
		}
		alpha = append(alpha, a)
	}
	return alpha, scanner.Err()
}

// WriteGrid writes one detector row per line.
func WriteGrid(w io.Writer, values []float64, ncols int) error {
	bw := bufio.NewWriter(w)
	for i, v := range values {
		bw.WriteString(FormatFloat(v))
		bw.WriteByte(' ')
		if (i+1)%ncols == 0 {
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// WritePeaks writes "peak err" pairs, one detector row per line.
func WritePeaks(w io.Writer, peaks, errs []float64, ncols int) error {
	if len(peaks) != len(errs) {
		return fmt.Errorf("%d peaks but %d errors", len(peaks), len(errs))
	}
	bw := bufio.NewWriter(w)
	for i := range peaks {
		fmt.Fprintf(bw, "%v %v ", FormatFloat(peaks[i]), FormatFloat(errs[i]))
		if (i+1)%ncols == 0 {
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// WriteDB writes a database listing entry of the form
//
//	key =
//	v v v
//	v v v
func WriteDB(w io.Writer, key string, values []float64, ncols int) error {
	if _, err := fmt.Fprintf(w, "%v =\n", key); err != nil {
		return err
	}
	return WriteGrid(w, values, ncols)
}

// Create opens path for writing, creating its parent directory.
func Create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

// WriteGridFile writes values to path with WriteGrid.
func WriteGridFile(path string, values []float64, ncols int) error {
	f, err := Create(path)
	if err != nil {
		return err
	}
	if err := WriteGrid(f, values, ncols); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
