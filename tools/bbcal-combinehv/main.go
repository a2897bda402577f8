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

	"github.com/rditech/bbcal/hv"

	"github.com/skratchdot/open-golang/open"
)

var (
	shFile = flag.String("sh", "", "set file holding the shower settings")
	psFile = flag.String("ps", "", "set file holding the preshower settings")
	shift  = flag.Float64("shift", 0, "subtract this many volts from every channel of -sh instead of combining")
	out    = flag.String("out", "", "output set file")
	dir    = flag.String("o", ".", "directory holding hv_set/ and plots/")
	show   = flag.Bool("show", false, "open the plot when done")
)

func printUsage() {
	fmt.Fprintf(os.Stderr,
		`Usage: `+os.Args[0]+` -sh <set file> [-ps <set file> | -shift <volts>] [options]

Merges the preshower channels of one set file into another, or shifts
every channel of a set file by a constant.

options:
`,
	)
	flag.PrintDefaults()
}

func base(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func main() {
	log.SetPrefix("bbcal-combinehv: ")
	flag.Usage = printUsage
	flag.Parse()

	if *shFile == "" || (*psFile == "") == (*shift == 0) {
		flag.Usage()
		log.Fatal("need -sh and exactly one of -ps or -shift")
	}
	sh, err := hv.ReadFile(*shFile)
	if err != nil {
		log.Fatal(err)
	}

	var s *hv.Settings
	var tag string
	if *psFile != "" {
		ps, err := hv.ReadFile(*psFile)
		if err != nil {
			log.Fatal(err)
		}
		s = hv.Combine(sh, ps)
		tag = fmt.Sprintf("%v_w_%v", base(*shFile), base(*psFile))
	} else {
		s = hv.Shift(sh, *shift)
		tag = fmt.Sprintf("%v_minus_%gV", base(*shFile), *shift)
	}

	setFile := *out
	if setFile == "" {
		setFile = filepath.Join(*dir, "hv_set", tag+".set")
	}
	if err := s.WriteFile(setFile, hv.Written); err != nil {
		log.Fatal(err)
	}
	pdf := filepath.Join(*dir, "plots", tag+".pdf")
	if err := hv.PlotCrates(pdf, s); err != nil {
		log.Fatal(err)
	}
	log.Println("wrote", setFile)
	log.Println("wrote", pdf)
	if *show {
		open.Start(pdf)
	}
}
