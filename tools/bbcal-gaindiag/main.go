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

	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/engcal"
	"github.com/rditech/bbcal/plot"

	"github.com/skratchdot/open-golang/open"
)

var (
	dir     = flag.String("o", ".", "directory holding Gain/ and plots/")
	set     = flag.Int("set", 1, "calibration set")
	iter    = flag.Int("iter", 2, "iteration to check")
	oldIter = flag.Int("old", 0, "iteration to compare with, iter-1 when 0")
	show    = flag.Bool("show", false, "open the plots when done")
)

func printUsage() {
	fmt.Fprintf(os.Stderr,
		`Usage: `+os.Args[0]+` [options]

Compares the shower and preshower gain coefficients of two iterations.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	log.SetPrefix("bbcal-gaindiag: ")
	flag.Usage = printUsage
	flag.Parse()

	if *oldIter == 0 {
		*oldIter = *iter - 1
	}

	pg := plot.NewPage(2, 4)
	for i, d := range []detector.Detector{detector.SH, detector.PS} {
		dg, err := engcal.CompareGains(*dir, d, *set, *oldIter, *iter)
		if err != nil {
			log.Fatal(err)
		}
		mean, stdDev, maxAbs := dg.Stats()
		log.Printf("%v: (old-new)/old = %.3f ± %.3f %%, largest %.3f %%", d, mean, stdDev, maxAbs)

		table := filepath.Join(*dir, "Gain", fmt.Sprintf("eng_cal_gaindiag_%v_%d_%d_%d.txt", d.Name, *set, *oldIter, *iter))
		if err := dg.WriteTable(table); err != nil {
			log.Fatal(err)
		}
		log.Println("wrote", table)

		plots, err := dg.Plots()
		if err != nil {
			log.Fatal(err)
		}
		for j, p := range plots {
			pg.Set(i*4+j, p)
		}
	}

	out := filepath.Join(*dir, "plots", fmt.Sprintf("eng_cal_gaindiag_%d_%d_%d.pdf", *set, *oldIter, *iter))
	if err := pg.Save(out); err != nil {
		log.Fatal(err)
	}
	log.Println("wrote", out)
	if *show {
		open.Start(out)
	}
}
