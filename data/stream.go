// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

// StreamProcessor reads events from in until it is closed, writing any
// number of events to out.
type StreamProcessor func(in <-chan *Event, out chan<- *Event)

type StreamOp struct {
	Description string
	Processor   StreamProcessor
	Buffer      int
}

func (o StreamOp) GetDescription() string {
	return o.Description
}

func (o StreamOp) Run(input <-chan *Event) <-chan *Event {
	if o.Buffer <= 0 {
		o.Buffer = *maxEventBuf
	}
	output := make(chan *Event, o.Buffer)
	go func() {
		defer close(output)
		o.Processor(input, output)
	}()
	return output
}

// Filter drops the events failing keep.
func Filter(desc string, keep func(*Event) bool) StreamOp {
	return StreamOp{
		Description: desc,
		Processor: func(in <-chan *Event, out chan<- *Event) {
			for event := range in {
				if keep(event) {
					out <- event
				}
			}
		},
	}
}
