// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rditech/bbcal/kine"
)

var (
	eBeam = flag.Float64("ebeam", 3.7278, "beam energy (GeV)")
	angle = flag.Float64("angle", 36, "BigBite angle (deg)")
	dist  = flag.Float64("dist", 1.7988, "BigBite magnet distance from the target (m)")
	hcal  = flag.Bool("hcal", false, "list the HCal block positions instead")
	x0    = flag.Float64("x0", 0, "HCal x offset (m)")
	y0    = flag.Float64("y0", 0, "HCal y offset (m)")
	roof  = flag.Bool("roof", true, "HCal x axis points to the roof")
)

func printUsage() {
	fmt.Fprintf(os.Stderr,
		`Usage: `+os.Args[0]+` [options]

Prints the elastic kinematics expected at each shower column, or the
HCal block positions.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	log.SetPrefix("bbcal-kine: ")
	flag.Usage = printUsage
	flag.Parse()

	var err error
	if *hcal {
		err = kine.PrintBlockPositions(os.Stdout, *x0, *y0, *roof)
	} else {
		err = kine.Print(os.Stdout, *eBeam, *angle, *dist)
	}
	if err != nil {
		log.Fatal(err)
	}
}
