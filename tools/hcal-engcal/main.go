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
	outDir = data.FlagSet.String("o", ".", "directory holding Gain_h/ and plots/")
	dest   = data.FlagSet.String("publish", "", "URL prefix the outputs are copied to")
	show   = data.FlagSet.Bool("show", false, "open the plots when done")
	mkconf = data.FlagSet.Bool("mkconf", false, "print an example config and exit")
)

func main() {
	log.SetPrefix("hcal-engcal: ")

	ops := data.OpArray{}
	ops.RunCmdFlagParse("<config file>", 0)
	if *mkconf {
		tmpl, err := config.Template("hcal_engcal.cfg")
		if err != nil {
			log.Fatal(err)
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
	oldCoeff, oldRatio, err := engcal.ReadHCalGains(*outDir, cfg.Iter-1)
	if err != nil {
		log.Fatal(err)
	}
	job, err := engcal.NewHCal(cfg, oldRatio)
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
	pr := progress.Start(fmt.Sprintf("HCal iteration %d", cfg.Iter), 0)
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

	gains, err := job.Solve(oldCoeff)
	if err != nil {
		log.Fatal(err)
	}
	files, err := job.Write(*outDir, gains)
	if err != nil {
		log.Fatal(err)
	}
	plotFile, err := job.Plot(*outDir, gains)
	if err != nil {
		log.Fatal(err)
	}
	files = append(files, plotFile)
	for _, f := range files {
		log.Println("wrote", f)
	}

	if err := data.PublishTo(ctx, files, *dest); err != nil {
		log.Fatal(err)
	}
	if *show {
		open.Start(plotFile)
	}
}
