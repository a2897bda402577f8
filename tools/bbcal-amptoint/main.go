// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log"
	"path/filepath"
	"strconv"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/coscal"
	"github.com/rditech/bbcal/data"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/plot"
	"github.com/rditech/bbcal/progress"

	"github.com/skratchdot/open-golang/open"
)

var (
	detName = data.FlagSet.String("det", "sh", "detector, sh or ps")
	pedFile = data.FlagSet.String("ped", "", "pedestal file subtracted from the integrals, replay pedestals when empty")
	outDir  = data.FlagSet.String("o", ".", "directory holding Output/ and plots/")
	dest    = data.FlagSet.String("publish", "", "URL prefix the outputs are copied to")
	show    = data.FlagSet.Bool("show", false, "open the plot when done")
)

func main() {
	log.SetPrefix("bbcal-amptoint: ")

	ops := data.OpArray{}
	ops.RunCmdFlagParse("<run> <input file or list>...", 2)
	run, err := strconv.Atoi(data.FlagSet.Arg(0))
	if err != nil {
		log.Fatalf("bad run number %q", data.FlagSet.Arg(0))
	}
	d, err := detector.ByName(*detName)
	if err != nil || d.Prefix == detector.HCal.Prefix {
		log.Fatalf("-det must be sh or ps, not %q", *detName)
	}

	cfg := coscal.DefaultConfig(d)
	cfg.Ratio = coscal.AmpToIntRatio
	job := coscal.New(cfg)

	if *pedFile != "" {
		peds, err := loadPedestals(*pedFile, d)
		if err != nil {
			log.Fatal(err)
		}
		ops = append(ops, peds.Op())
	}

	ctx, cancel := data.InterruptContext()
	defer cancel()
	src, cleanup, err := data.OpenInputs(ctx, data.FlagSet.Args()[1:], job.Groups())
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	pr := progress.Start(fmt.Sprintf("run %d %v amp/int", run, d), 0)
	err = ops.Process(ctx, src, func(e *data.Event) {
		job.Process(e)
		pr.Inc()
	})
	pr.Done(err)
	if err != nil {
		log.Fatal(err)
	}

	ratios := job.AmpToInt()
	out := filepath.Join(*outDir, "Output", "fit_results", fmt.Sprintf("run_%d_%v_ampToint.txt", run, d.Name))
	if err := calib.WriteGridFile(out, ratios, d.NCols); err != nil {
		log.Fatal(err)
	}
	pdf := filepath.Join(*outDir, "plots", fmt.Sprintf("run_%d_%v_ampToint.pdf", run, d.Name))
	title := fmt.Sprintf("run %d %v amplitude / integral (mV/pC)", run, d)
	p := plot.NewHeatMap(title, d.String()+" col", d.String()+" row", plot.Values(d.NRows, d.NCols, ratios), 0, 0)
	if err := plot.Save(pdf, p); err != nil {
		log.Fatal(err)
	}
	log.Println("wrote", out)
	log.Println("wrote", pdf)

	if err := data.PublishTo(ctx, []string{out, pdf}, *dest); err != nil {
		log.Fatal(err)
	}
	if *show {
		open.Start(pdf)
	}
}

func loadPedestals(path string, d detector.Detector) (*data.Pedestals, error) {
	log.Println("subtracting pedestals from", path)
	if d.Prefix == detector.PS.Prefix {
		return data.LoadPedestals("", path)
	}
	return data.LoadPedestals(path, "")
}
