// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/rditech/bbcal/calib"
	"github.com/rditech/bbcal/config"
	"github.com/rditech/bbcal/data"
	"github.com/rditech/bbcal/detector"
	"github.com/rditech/bbcal/pedestal"
	"github.com/rditech/bbcal/progress"

	"github.com/skratchdot/open-golang/open"
)

var (
	detName = data.FlagSet.String("det", "sh", "detector, sh or ps")
	nbins   = data.FlagSet.Int("nbins", pedestal.DefaultHist.NBins, "bins of the integral histograms")
	min     = data.FlagSet.Float64("min", pedestal.DefaultHist.Min, "lower edge of the integral histograms (pC)")
	max     = data.FlagSet.Float64("max", pedestal.DefaultHist.Max, "upper edge of the integral histograms (pC)")
	outDir  = data.FlagSet.String("o", ".", "directory holding Output/ and plots/")
	dest    = data.FlagSet.String("publish", "", "URL prefix the outputs are copied to")
	show    = data.FlagSet.Bool("show", false, "open the plot when done")
)

func main() {
	log.SetPrefix("bbcal-ped: ")

	data.OpArray{}.RunCmdFlagParse("<tag> <input file or list>...", 2)
	tag := data.FlagSet.Arg(0)

	d, err := detector.ByName(*detName)
	if err != nil || d.Prefix == detector.HCal.Prefix {
		log.Fatalf("-det must be sh or ps, not %q", *detName)
	}
	job := pedestal.New(d, config.Hist{NBins: *nbins, Min: *min, Max: *max})

	ctx, cancel := data.InterruptContext()
	defer cancel()
	src, cleanup, err := data.OpenInputs(ctx, data.FlagSet.Args()[1:], job.Groups())
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	pr := progress.Start(fmt.Sprintf("%v %v pedestals", tag, d), 0)
	err = job.Ops().Process(ctx, src, func(e *data.Event) {
		job.Process(e)
		pr.Inc()
	})
	pr.Done(err)
	if err != nil {
		log.Fatal(err)
	}

	peds := job.Fit()
	grid := filepath.Join(*outDir, "Output", fmt.Sprintf("%v_%v_ped.txt", tag, d.Name))
	if err := calib.WriteGridFile(grid, pedestal.Means(peds), d.NCols); err != nil {
		log.Fatal(err)
	}
	out := filepath.Join(*outDir, "Output", fmt.Sprintf("%v_%v_ped_db.txt", tag, d.Name))
	f, err := calib.Create(out)
	if err != nil {
		log.Fatal(err)
	}
	if err := pedestal.WriteDB(f, d, peds); err != nil {
		f.Close()
		log.Fatal(err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}
	pdf := filepath.Join(*outDir, "plots", fmt.Sprintf("%v_%v_ped.pdf", tag, d.Name))
	if err := pedestal.Plot(pdf, d, peds); err != nil {
		log.Fatal(err)
	}
	log.Println("wrote", grid)
	log.Println("wrote", out)
	log.Println("wrote", pdf)

	if err := data.PublishTo(ctx, []string{grid, out, pdf}, *dest); err != nil {
		log.Fatal(err)
	}
	if *show {
		open.Start(pdf)
	}
}
