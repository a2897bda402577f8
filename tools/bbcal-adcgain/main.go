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

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/coscal"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/plot"

	"github.com/skratchdot/open-golang/open"
)

var (
	run     = flag.Int("run", 0, "cosmic run the amp/int ratios were measured in")
	detName = flag.String("det", "sh", "detector, sh or ps")
	trigAmp = flag.Float64("trigamp", coscal.DefaultTrigAmp, "trigger amplitude (mV)")
	cF      = flag.Float64("cf", coscal.DefaultCF, "correction factor")
	dir     = flag.String("o", ".", "directory holding Output/ and plots/")
	show    = flag.Bool("show", false, "open the plot when done")
)

func printUsage() {
	fmt.Fprintf(os.Stderr,
		`Usage: `+os.Args[0]+` [options]

Converts cosmic amplitude to integral ratios into ADC gain factors (GeV/pC).

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	log.SetPrefix("bbcal-adcgain: ")
	flag.Usage = printUsage
	flag.Parse()

	d, err := detector.ByName(*detName)
	if err != nil || d.Prefix == detector.HCal.Prefix {
		log.Fatalf("-det must be sh or ps, not %q", *detName)
	}

	in := filepath.Join(*dir, "Output", "fit_results", fmt.Sprintf("run_%d_%v_ampToint.txt", *run, d.Name))
	ratios, err := coscal.ReadAmpToInt(in, d)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("read amp/int ratios from", in)
	gain := coscal.ADCGain(ratios, *cF, *trigAmp)

	base := fmt.Sprintf("adcGain_%d_%v_%.1fmV_cF%.2f", *run, d, *trigAmp, *cF)
	out := filepath.Join(*dir, "Output", base+".txt")
	if err := calib.WriteGridFile(out, gain, d.NCols); err != nil {
		log.Fatal(err)
	}

	mev := make([]float64, len(gain))
	for i, g := range gain {
		mev[i] = 1000 * g
	}
	pdf := filepath.Join(*dir, "plots", base+".pdf")
	title := fmt.Sprintf("ADC gain factor %v (MeV/pC)", d)
	if err := plot.Save(pdf, plot.NewHeatMap(title, "col", "row", plot.Values(d.NRows, d.NCols, mev), 0, 0)); err != nil {
		log.Fatal(err)
	}
	log.Println("ADC gains written to", out)
	if *show {
		open.Start(pdf)
	}
}
