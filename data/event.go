// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

type EventProcessor func(*Event)

// EventOp runs Process on each event, up to Workers events at a time, and
// emits the events in the order they arrived. At most Window events are
// in flight.
type EventOp struct {
	Description string
	Process     EventProcessor
	Workers     int
	Window      int
}

func (o EventOp) GetDescription() string {
	return o.Description
}

func (o EventOp) Run(input <-chan *Event) <-chan *Event {
	if o.Workers <= 0 {
		o.Workers = *concurrency
	}
	if o.Window <= 0 {
		o.Window = *maxEventBuf
	}
	if o.Window < o.Workers {
		o.Window = o.Workers
	}

	output := make(chan *Event, o.Window)
	if o.Workers == 1 {
		go func() {
			defer close(output)
			for event := range input {
				o.Process(event)
				output <- event
			}
		}()
		return output
	}

	// Each event gets a slot, queued in arrival order and filled when the
	// worker finishes.
	slots := make(chan chan *Event, o.Window)
	workers := make(chan struct{}, o.Workers)
	go func() {
		defer close(slots)
		for event := range input {
			slot := make(chan *Event, 1)
			slots <- slot
			workers <- struct{}{}
			go func(event *Event) {
				o.Process(event)
				<-workers
				slot <- event
			}(event)
		}
	}()
	go func() {
		defer close(output)
		for slot := range slots {
			output <- <-slot
		}
	}()
	return output
}
