// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package hv reads, updates and writes the high voltage set files of the
// BigBite calorimeter mainframes.
package hv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/detector"
)

// Settings holds one value per mainframe channel. Slots that were not read
// stay zero.
type Settings struct {
	V    [detector.HVCrates][detector.HVSlots][detector.HVChans]float64
	Read [detector.HVCrates][detector.HVSlots]bool
}

func crateIndex(name string) int {
	for i, n := range detector.HVCrateNames {
		if n == name {
			return i
		}
	}
	return -1
}

// Parse reads lines of the form "rpi17:2001 S<slot> DV v0 .. v11". Lines
// starting with # are skipped.
func Parse(r io.Reader) (*Settings, error) {
	s := &Settings{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: %q is not a set line", line, text)
		}

		crate := crateIndex(fields[0])
		if crate < 0 {
			return nil, fmt.Errorf("line %d: unknown crate %q", line, fields[0])
		}
		if !strings.HasPrefix(fields[1], "S") {
			return nil, fmt.Errorf("line %d: bad slot %q", line, fields[1])
		}
		slot, err := strconv.Atoi(fields[1][1:])
		if err != nil || slot < 0 || slot >= detector.HVSlots {
			return nil, fmt.Errorf("line %d: bad slot %q", line, fields[1])
		}

		values := fields[3:]
		if len(values) > detector.HVChans {
			return nil, fmt.Errorf("line %d: %d channels", line, len(values))
		}
		for ch, v := range values {
			s.V[crate][slot][ch], err = strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: channel %d: %v", line, ch, err)
			}
		}
		s.Read[crate][slot] = true
	}
	return s, scanner.Err()
}

// ReadFile parses the set file at path.
func ReadFile(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", calib.ErrNoFile, path)
		}
		return nil, err
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", calib.ErrBrokenFile, path, err)
	}
	return s, nil
}

// Selector picks the slots a set file lists.
type Selector func(crate, slot int) bool

// AllSlots lists every slot of both crates.
func AllSlots(crate, slot int) bool { return true }

// Written lists the slots populated by the calorimeter: crate 0 below slot
// 10 and crate 1 above slot 4.
func Written(crate, slot int) bool {
	return (crate == 0 && slot < 10) || (crate == 1 && slot > 4)
}

func (s *Settings) Write(w io.Writer, sel Selector) error {
	bw := bufio.NewWriter(w)
	for c := range s.V {
		for sl := range s.V[c] {
			if !sel(c, sl) {
				continue
			}
			fmt.Fprintf(bw, "%v S%d DV", detector.HVCrateNames[c], sl)
			for _, v := range s.V[c][sl] {
				fmt.Fprintf(bw, " %v", calib.FormatFloat(v))
			}
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// WriteFile writes the selected slots to path, creating its directory.
func (s *Settings) WriteFile(path string, sel Selector) error {
	f, err := calib.Create(path)
	if err != nil {
		return err
	}
	if err := s.Write(f, sel); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Blocks returns the values of the detector blocks served by m.
func (s *Settings) Blocks(m detector.HVMap) []float64 {
	v := make([]float64, len(m))
	for blk, a := range m {
		v[blk] = s.V[a.Crate][a.Slot][a.Chan]
	}
	return v
}

func (s *Settings) clone() *Settings {
	c := *s
	return &c
}
