// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/coscal"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/engcal"
	"github.com/rditech/bbcal/hv"

	"github.com/skratchdot/open-golang/open"
)

var (
	detName   = flag.String("det", "sh", "detector, sh or ps")
	hvFile    = flag.String("hv", "", "HV set file to update")
	set       = flag.Int("set", 1, "calibration set whose gain ratios are applied")
	ratioFile = flag.String("ratio", "", "gain ratio file, Gain/eng_cal_gainRatio_<det>_<set>_1.txt when empty")
	peakFile  = flag.String("peak", "", "peak file; scales the HV by desired/peak instead of the gain ratio")
	desired   = flag.Float64("amp", coscal.TargetADC, "desired peak position for -peak and -fitalpha")
	alphaFile = flag.String("alpha", "", "per-block HV exponent file, a constant 10 when empty")
	fitAlpha  = flag.Bool("fitalpha", false, "fit the gain curve of each block from <set file> <peak file> argument pairs")
	out       = flag.String("out", "", "output set file")
	dir       = flag.String("o", ".", "directory holding Gain/, Output/, hv_set/ and plots/")
	show      = flag.Bool("show", false, "open the plot when done")
)

func printUsage() {
	fmt.Fprintf(os.Stderr,
		`Usage: `+os.Args[0]+` [options] [<set file> <peak file>]...

Computes new HV settings from gain ratios, from cosmic peaks, or from the
gain curves fitted over several HV settings.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	log.SetPrefix("bbcal-hvupdate: ")
	flag.Usage = printUsage
	flag.Parse()

	d, err := detector.ByName(*detName)
	if err != nil || d.Prefix == detector.HCal.Prefix {
		log.Fatalf("-det must be sh or ps, not %q", *detName)
	}

	var pdf string
	if *fitAlpha {
		pdf = runFitAlpha(d)
	} else {
		pdf = runUpdate(d)
	}
	if *show {
		open.Start(pdf)
	}
}

func readPeaks(path string, d detector.Detector) []float64 {
	pairs, err := calib.ReadValues(path, 2*d.N())
	if err != nil {
		log.Fatal(err)
	}
	peaks := make([]float64, d.N())
	for i := range peaks {
		peaks[i] = pairs[2*i]
	}
	return peaks
}

func readAlpha(d detector.Detector) []float64 {
	if *alphaFile == "" {
		alpha := make([]float64, d.N())
		for i := range alpha {
			alpha[i] = coscal.Alpha
		}
		return alpha
	}
	alpha, err := calib.ReadAlpha(*alphaFile)
	if err != nil {
		log.Fatal(err)
	}
	if len(alpha) != d.N() {
		log.Fatalf("%v: %d alphas for %d blocks", *alphaFile, len(alpha), d.N())
	}
	return alpha
}

func runUpdate(d detector.Detector) string {
	if *hvFile == "" {
		flag.Usage()
		log.Fatal("-hv is required")
	}
	s, err := hv.ReadFile(*hvFile)
	if err != nil {
		log.Fatal(err)
	}

	var ratio []float64
	var tag string
	if *peakFile != "" {
		peaks := readPeaks(*peakFile, d)
		ratio = hv.PeakRatios(*desired, peaks)
		for i, p := range peaks {
			if p == 0 {
				ratio[i] = 1
			}
		}
		tag = fmt.Sprintf("%v_hv_calib_%vmV", d.Name, calib.FormatFloat(*desired))
		log.Println("read peaks from", *peakFile)
	} else {
		path := *ratioFile
		if path == "" {
			path = engcal.GainPath(*dir, engcal.Ratio, d.Name, *set, 1)
		}
		if ratio, err = calib.ReadValues(path, d.N()); err != nil {
			log.Fatal(err)
		}
		tag = fmt.Sprintf("%v_hv_calib_w_BEAM_set_%d", d.Name, *set)
		log.Println("read gain ratios from", path)
	}

	updated, changes, err := hv.Update(s, d, ratio, readAlpha(d))
	if err != nil {
		log.Fatal(err)
	}
	setFile := *out
	if setFile == "" {
		setFile = filepath.Join(*dir, "hv_set", tag+".set")
	}
	if err := updated.WriteFile(setFile, hv.AllSlots); err != nil {
		log.Fatal(err)
	}
	pdf := filepath.Join(*dir, "plots", tag+".pdf")
	if err := hv.PlotChanges(pdf, d, changes); err != nil {
		log.Fatal(err)
	}
	log.Println("calibrated HV written to", setFile)
	log.Println("old and new HV in detector view saved to", pdf)
	return pdf
}

func runFitAlpha(d detector.Detector) string {
	args := flag.Args()
	if len(args) < 4 || len(args)%2 != 0 {
		flag.Usage()
		log.Fatal("-fitalpha needs at least two <set file> <peak file> pairs")
	}
	m, err := hv.Map(d)
	if err != nil {
		log.Fatal(err)
	}

	var hvs, peaks [][]float64
	for i := 0; i < len(args); i += 2 {
		s, err := hv.ReadFile(args[i])
		if err != nil {
			log.Fatal(err)
		}
		hvs = append(hvs, s.Blocks(m))
		peaks = append(peaks, readPeaks(args[i+1], d))
	}

	limit := hv.Limit(d)
	fits := make([]hv.AlphaFit, d.N())
	for blk := range fits {
		x := make([]float64, len(hvs))
		y := make([]float64, len(hvs))
		for r := range hvs {
			x[r], y[r] = hvs[r][blk], peaks[r][blk]
		}
		f, err := hv.FitAlpha(blk, x, y, *desired, limit)
		if err != nil {
			log.Println(err)
			f.HV = x[0]
		}
		fits[blk] = f
	}

	first := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	last := strings.TrimSuffix(filepath.Base(args[len(args)-2]), filepath.Ext(args[len(args)-2]))
	tag := fmt.Sprintf("%v_%v_%v", d.Name, first, last)

	alphaOut := filepath.Join(*dir, "Output", tag+"_alpha.txt")
	f, err := calib.Create(alphaOut)
	if err != nil {
		log.Fatal(err)
	}
	if err := hv.WriteAlphas(f, fits); err != nil {
		log.Fatal(err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}

	s, err := hv.ReadFile(args[0])
	if err != nil {
		log.Fatal(err)
	}
	for blk, a := range m {
		s.V[a.Crate][a.Slot][a.Chan] = fits[blk].HV
	}
	setFile := *out
	if setFile == "" {
		setFile = filepath.Join(*dir, "hv_set", tag+"_fit.set")
	}
	if err := s.WriteFile(setFile, hv.AllSlots); err != nil {
		log.Fatal(err)
	}
	pdf := filepath.Join(*dir, "plots", tag+"_alpha.pdf")
	if err := hv.PlotAlphas(pdf, d, fits); err != nil {
		log.Fatal(err)
	}
	log.Println("alphas written to", alphaOut)
	log.Println("HV for the desired peak written to", setFile)
	return pdf
}
