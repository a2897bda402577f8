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
	"github.com/rditech/bbcal/hv"
	"github.com/rditech/bbcal/peak"
	"github.com/rditech/bbcal/progress"

	"github.com/skratchdot/open-golang/open"
)

var (
	detName   = data.FlagSet.String("det", "sh", "detector, sh or ps")
	pedFile   = data.FlagSet.String("ped", "", "pedestal file subtracted from the integrals, replay pedestals when empty")
	integral  = data.FlagSet.Bool("int", false, "histogram the pulse integral (pC) instead of the amplitude (mV)")
	trigFile  = data.FlagSet.String("trig", "", "trigger to FADC ratio file applied to each block")
	target    = data.FlagSet.Float64("target", coscal.TargetADC, "desired peak position")
	alphaFile = data.FlagSet.String("alpha", "", "per-block HV exponent file, a constant 10 when empty")
	hvFile    = data.FlagSet.String("hv", "", "HV set file of the run, written back corrected when given")
	landau    = data.FlagSet.Bool("landau", false, "also fit Landau peaks and list target HVs (needs -hv)")
	rows      = data.FlagSet.Int("rows", 7, "detector rows per peak plot file")
	outDir    = data.FlagSet.String("o", ".", "directory holding Output/, hv_set/ and plots/")
	dest      = data.FlagSet.String("publish", "", "URL prefix the outputs are copied to")
	show      = data.FlagSet.Bool("show", false, "open the summary plot when done")
)

func main() {
	log.SetPrefix("bbcal-coscal: ")

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
	cfg.Target = *target
	if *integral {
		cfg.Quantity = coscal.Integral
	}
	if *trigFile != "" {
		if cfg.TrigRatio, err = calib.ReadTrigRatios(*trigFile, d.N()); err != nil {
			log.Fatal(err)
		}
	}
	alpha := make([]float64, d.N())
	for i := range alpha {
		alpha[i] = coscal.Alpha
	}
	if *alphaFile != "" {
		if alpha, err = calib.ReadAlpha(*alphaFile); err != nil {
			log.Fatal(err)
		}
		if len(alpha) != d.N() {
			log.Fatalf("%v: %d alphas for %d blocks", *alphaFile, len(alpha), d.N())
		}
	}
	var settings *hv.Settings
	if *hvFile != "" {
		if settings, err = hv.ReadFile(*hvFile); err != nil {
			log.Fatal(err)
		}
	}

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

	stopProfiling := data.StartProfiling()
	pr := progress.Start(fmt.Sprintf("run %d %v cosmics", run, d), 0)
	err = ops.Process(ctx, src, func(e *data.Event) {
		job.Process(e)
		pr.Inc()
	})
	pr.Done(err)
	stopProfiling()
	if err != nil {
		log.Fatal(err)
	}

	fits := job.Fit()
	base := fmt.Sprintf("run_%d_%v", run, d.Name)
	var files []string

	peaks := filepath.Join(*outDir, "Output", base+"_peak.txt")
	if err := coscal.WritePeaks(peaks, d, fits); err != nil {
		log.Fatal(err)
	}
	table := filepath.Join(*outDir, "Output", base+"_fit.txt")
	title := fmt.Sprintf("# run %d %v cosmic %v peaks, target %v", run, d, cfg.Quantity, cfg.Target)
	if err := coscal.WriteTable(table, title, fits); err != nil {
		log.Fatal(err)
	}
	corr := filepath.Join(*outDir, "Output", base+"_hvcorr.txt")
	if err := calib.WriteGridFile(corr, coscal.HVCorrections(fits), d.NCols); err != nil {
		log.Fatal(err)
	}
	files = append(files, peaks, table, corr)

	plots, err := job.PlotPeaks(filepath.Join(*outDir, "plots", base+"_peaks"), fits, *rows)
	if err != nil {
		log.Fatal(err)
	}
	summary := filepath.Join(*outDir, "plots", base+"_summary.pdf")
	if err := coscal.PlotSummary(summary, fmt.Sprintf("run %d %v", run, d), fits, cfg.Quantity.Unit()); err != nil {
		log.Fatal(err)
	}
	files = append(files, plots...)
	files = append(files, summary)

	if settings != nil {
		written, err := updateHV(settings, d, run, fits, alpha)
		if err != nil {
			log.Fatal(err)
		}
		files = append(files, written...)
		if *landau {
			written, err := hvTargets(job, settings, d, run, alpha)
			if err != nil {
				log.Fatal(err)
			}
			files = append(files, written)
		}
	}

	for _, f := range files {
		log.Println("wrote", f)
	}
	if err := data.PublishTo(ctx, files, *dest); err != nil {
		log.Fatal(err)
	}
	if *show {
		open.Start(summary)
	}
}

// updateHV moves every well fitted peak to the target. Other blocks keep
// their HV.
func updateHV(s *hv.Settings, d detector.Detector, run int, fits []coscal.BlockFit, alpha []float64) ([]string, error) {
	ratio := make([]float64, len(fits))
	for i, f := range fits {
		ratio[i] = 1
		if f.Flag == peak.Good {
			ratio[i] = *target / f.Mean()
		}
	}
	out, changes, err := hv.Update(s, d, ratio, alpha)
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("run_%d_%v_hv_%v", run, d.Name, calib.FormatFloat(*target))
	set := filepath.Join(*outDir, "hv_set", base+".set")
	if err := out.WriteFile(set, func(c, sl int) bool { return s.Read[c][sl] }); err != nil {
		return nil, err
	}
	pdf := filepath.Join(*outDir, "plots", base+".pdf")
	return []string{set, pdf}, hv.PlotChanges(pdf, d, changes)
}

func hvTargets(job *coscal.Job, s *hv.Settings, d detector.Detector, run int, alpha []float64) (string, error) {
	m, err := hv.Map(d)
	if err != nil {
		return "", err
	}
	targets, err := job.HVTargets(s.Blocks(m), alpha, coscal.TargetRAU)
	if err != nil {
		return "", err
	}
	path := filepath.Join(*outDir, "Output", fmt.Sprintf("run_%d_%v_hv_target.txt", run, d.Name))
	f, err := calib.Create(path)
	if err != nil {
		return "", err
	}
	if err := job.WriteHVTargets(f, run, targets); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func loadPedestals(path string, d detector.Detector) (*data.Pedestals, error) {
	log.Println("subtracting pedestals from", path)
	if d.Prefix == detector.PS.Prefix {
		return data.LoadPedestals("", path)
	}
	return data.LoadPedestals(path, "")
}
