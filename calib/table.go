// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go-hep.org/x/hep/csvutil"
)

// Table is a tab-separated results table with a free-form title line and a
// column header.
type Table struct {
	tbl *csvutil.Table
}

func CreateTable(path, title string, columns ...string) (*Table, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	tbl, err := csvutil.Create(path)
	if err != nil {
		return nil, err
	}
	tbl.Writer.Comma = '\t'

	hdr := strings.Join(columns, "\t") + "\n"
	if title != "" {
		hdr = title + "\n" + hdr
	}
	if err := tbl.WriteHeader(hdr); err != nil {
		tbl.Close()
		return nil, err
	}
	return &Table{tbl: tbl}, nil
}

// WriteRow writes one row; floats use the calibration file formatting.
func (t *Table) WriteRow(args ...interface{}) error {
	row := make([]interface{}, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case float64:
			row[i] = FormatFloat(v)
		default:
			row[i] = fmt.Sprint(v)
		}
	}
	return t.tbl.WriteRow(row...)
}

func (t *Table) Close() error {
	return t.tbl.Close()
}

// ReadTrigRatios reads "elemID ratio" lines from a tab-separated file.
// Channels without an entry keep a ratio of one.
func ReadTrigRatios(path string, n int) ([]float64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %v", ErrNoFile, path)
	}

	tbl, err := csvutil.Open(path)
	if err != nil {
		return nil, err
	}
	defer tbl.Close()
	tbl.Reader.Comma = '\t'
	tbl.Reader.Comment = '#'

	rows, err := tbl.ReadRows(0, -1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratios := make([]float64, n)
	for i := range ratios {
		ratios[i] = 1
	}
	for rows.Next() {
		var (
			elem  int
			ratio float64
		)
		if err := rows.Scan(&elem, &ratio); err != nil {
			return nil, fmt.Errorf("%w: %v: %v", ErrBrokenFile, path, err)
		}
		if elem < 0 || elem >= n {
			return nil, fmt.Errorf("%w: %v: element %d out of range", ErrBrokenFile, path, elem)
		}
		ratios[elem] = ratio
	}
	if err := rows.Err(); err != nil && err != io.EOF {
		return nil, err
	}
	return ratios, nil
}
