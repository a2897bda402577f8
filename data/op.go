// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
)

type Op interface {
	GetDescription() string
	Run(input <-chan *Event) <-chan *Event
}

type OpArray []Op

func (ops OpArray) Run(stream <-chan *Event) <-chan *Event {
	for _, o := range ops {
		stream = o.Run(stream)
	}
	return stream
}

var FlagSet = flag.NewFlagSet("", flag.ExitOnError)

var (
	readBufSize = FlagSet.Int("b", 100, "read buffer size in number of events")
	concurrency = FlagSet.Int("t", 1, "level of concurrency")
	maxEventBuf = FlagSet.Int("e", 200, "max event buffer for maintaining event order")
	maxEvents   = FlagSet.Int64("n", -1, "maximum number of events to process, -1 for all")
	cpuProfile  = FlagSet.String("cpuprofile", "", "output file for cpu profiling")
	memProfile  = FlagSet.String("memprofile", "", "output file for memory profiling")
)

// RunCmdFlagParse parses the command line. argUsage describes the positional
// arguments; at least minArgs of them are required.
func (ops OpArray) RunCmdFlagParse(argUsage string, minArgs int) {
	var desc string
	for i, o := range ops {
		desc += strconv.Itoa(i) + ") "
		desc += o.GetDescription()
		if i < len(ops)-1 {
			desc += "\n"
		}
	}
	if desc != "" {
		desc = "\n" + desc + "\n"
	}

	FlagSet.Usage = func() {
		fmt.Fprintf(os.Stderr,
			`Usage: `+os.Args[0]+` [options] `+argUsage+`
`+desc+`
options:
`,
		)
		FlagSet.PrintDefaults()
	}
	FlagSet.Parse(os.Args[1:])

	if FlagSet.NArg() < minArgs {
		FlagSet.Usage()
		log.Fatal("Invalid arguments")
	}
}

// StartProfiling starts the profiles requested on the command line. The
// returned function stops them.
func StartProfiling() func() {
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal("could not create cpu profile file: ", err)
		}
		pprof.StartCPUProfile(f)
	}

	return func() {
		if *cpuProfile != "" {
			pprof.StopCPUProfile()
		}
		if *memProfile != "" {
			f, err := os.Create(*memProfile)
			if err != nil {
				log.Fatal(err)
			}
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Fatal("could not write memory profile: ", err)
			}
			f.Close()
		}
	}
}

// Process streams every event of src through ops and hands the results to
// sink in their original order. It stops at the end of the source, on the
// first read error or when ctx is cancelled.
func (ops OpArray) Process(ctx context.Context, src Source, sink func(*Event)) error {
	stream, errc := Scan(ctx, src, *readBufSize, *maxEvents)
	for event := range ops.Run(stream) {
		sink(event)
	}
	return <-errc
}
