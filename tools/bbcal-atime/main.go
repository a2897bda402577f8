// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/rditech/bbcal/atime"
	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/data"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/progress"

	"github.com/skratchdot/open-golang/open"
)

var (
	cut     = data.FlagSet.String("cut", "", "global cut expression")
	oldSH   = data.FlagSet.String("oldsh", "", "shower offsets already applied in the replay")
	oldPS   = data.FlagSet.String("oldps", "", "preshower offsets already applied in the replay")
	nominal = data.FlagSet.Float64("nominal", 0, "offset given to blocks that cannot be fitted (ns)")
	outDir  = data.FlagSet.String("o", ".", "directory holding Output/ and plots/")
	dest    = data.FlagSet.String("publish", "", "URL prefix the outputs are copied to")
	show    = data.FlagSet.Bool("show", false, "open the plots when done")
)

func readOld(path string, d detector.Detector) []float64 {
	if path == "" {
		return nil
	}
	v, err := calib.ReadValues(path, d.N())
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("old %v offsets read from %v", d, path)
	return v
}

func main() {
	log.SetPrefix("bbcal-atime: ")

	ops := data.OpArray{}
	ops.RunCmdFlagParse("<tag> <input file or list>...", 2)
	tag := data.FlagSet.Arg(0)

	cfg := atime.DefaultConfig()
	cfg.Cut = *cut
	cfg.Nominal = *nominal
	cfg.OldSH = readOld(*oldSH, detector.SH)
	cfg.OldPS = readOld(*oldPS, detector.PS)
	job, err := atime.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := data.InterruptContext()
	defer cancel()
	src, cleanup, err := data.OpenInputs(ctx, data.FlagSet.Args()[1:], job.Groups(), job.CutVars()...)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	pr := progress.Start(tag+" ADC times", 0)
	err = ops.Process(ctx, src, func(e *data.Event) {
		job.Process(e)
		pr.Inc()
	})
	pr.Done(err)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%d events passed the selection", job.Events)

	sh, err := job.Fit(detector.SH)
	if err != nil {
		log.Fatal(err)
	}
	ps, err := job.Fit(detector.PS)
	if err != nil {
		log.Fatal(err)
	}

	files, err := atime.Write(*outDir, tag, sh, ps)
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range []struct {
		d detector.Detector
		o []atime.Offset
	}{{detector.SH, sh}, {detector.PS, ps}} {
		pdf := filepath.Join(*outDir, "plots", fmt.Sprintf("%v_atimeOff_%v.pdf", tag, p.d.Name))
		if err := job.Plot(pdf, p.d, p.o); err != nil {
			log.Fatal(err)
		}
		files = append(files, pdf)
	}
	for _, f := range files {
		log.Println("wrote", f)
	}

	if err := data.PublishTo(ctx, files, *dest); err != nil {
		log.Fatal(err)
	}
	if *show {
		for _, f := range files[len(files)-2:] {
			open.Start(f)
		}
	}
}
