// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"io"
)

// Source yields events in order and returns io.EOF after the last one.
type Source interface {
	Next(ctx context.Context) (*Event, error)
}

// SliceSource replays events held in memory.
type SliceSource struct {
	Events []*Event
	pos    int
}

func NewSliceSource(events []*Event) *SliceSource {
	return &SliceSource{Events: events}
}

func (s *SliceSource) Next(ctx context.Context) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.Events) {
		return nil, io.EOF
	}
	e := s.Events[s.pos]
	s.pos++
	return e, nil
}

// Rewind restarts the replay from the first event.
func (s *SliceSource) Rewind() {
	s.pos = 0
}

// Scan reads src into a channel of bufSize events. At most max events are
// read when max is non-negative. The error channel receives nil at the end
// of the source and is closed after the event channel.
func Scan(ctx context.Context, src Source, bufSize int, max int64) (<-chan *Event, <-chan error) {
	events := make(chan *Event, bufSize)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(events)

		for n := int64(0); max < 0 || n < max; n++ {
			event, err := src.Next(ctx)
			if err == io.EOF {
				errc <- nil
				return
			}
			if err != nil {
				errc <- err
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		errc <- nil
	}()

	return events, errc
}

// Closer is implemented by sources holding open files.
type Closer interface {
	Close() error
}

// Close closes src if it holds resources.
func Close(src Source) error {
	if c, ok := src.(Closer); ok {
		return c.Close()
	}
	return nil
}
