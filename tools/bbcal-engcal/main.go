// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log"

	"github.com/rditech/bbcal/config"
	"github.com/rditech/bbcal/data"
	"github.com/rditech/bbcal/engcal"
	"github.com/rditech/bbcal/progress"

	"github.com/skratchdot/open-golang/open"
)

var (
	outDir = data.FlagSet.String("o", ".", "directory holding Gain/ and plots/")
	dest   = data.FlagSet.String("publish", "", "URL prefix the outputs are copied to, such as gs://bucket/calib")
	show   = data.FlagSet.Bool("show", false, "open the plots when done")
	mkconf = data.FlagSet.String("mkconf", "", "print the named example config (bbcal_engcal.cfg or bbcal_engcal.yml) and exit")
)

func main() {
	log.SetPrefix("bbcal-engcal: ")

	ops := data.OpArray{}
	ops.RunCmdFlagParse("<config file>", 0)
	if *mkconf != "" {
		tmpl, err := config.Template(*mkconf)
		if err != nil {
			log.Fatalf("%v (have %v)", err, config.TemplateNames())
		}
		fmt.Print(tmpl)
		return
	}
	if data.FlagSet.NArg() < 1 {
		data.FlagSet.Usage()
		log.Fatal("Invalid arguments")
	}

	cfg, err := config.LoadEngCal(data.FlagSet.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	job, err := engcal.NewBBCal(cfg)
	if err != nil {
		log.Fatal(err)
	}
	oldSH, oldPS, err := job.ReadOldGains(*outDir)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := data.InterruptContext()
	defer cancel()
	src, cleanup, err := data.OpenInputs(ctx, cfg.Inputs, job.Groups(), job.CutVars()...)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	stopProfiling := data.StartProfiling()
	pr := progress.Start(fmt.Sprintf("set %d iteration %d", cfg.Set, cfg.Iter), 0)
	err = job.Ops().Process(ctx, src, func(e *data.Event) {
		job.Process(e)
		pr.Inc()
	})
	pr.Done(err)
	stopProfiling()
	if err != nil {
		log.Fatal(err)
	}
	job.Cutflow.Log()

	res, err := job.Solve(oldSH, oldPS)
	if err != nil {
		log.Fatal(err)
	}
	job.Verify(res)
	before, after := job.EovP()
	log.Printf("E/p %.4f ± %.4f before, %.4f ± %.4f after calibration", before[0], before[1], after[0], after[1])

	files, err := job.Write(*outDir, res)
	if err != nil {
		log.Fatal(err)
	}
	plots, err := job.Plot(*outDir, res)
	if err != nil {
		log.Fatal(err)
	}
	for _, f := range append(files, plots...) {
		log.Println("wrote", f)
	}

	if err := data.PublishTo(ctx, append(files, plots...), *dest); err != nil {
		log.Fatal(err)
	}
	if *show {
		for _, p := range plots {
			open.Start(p)
		}
	}
}
