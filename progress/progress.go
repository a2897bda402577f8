// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package progress reports progress through long event loops.
package progress

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/theckman/yacspin"
)

func MakeSmoother(alpha, init float64) func(float64) float64 {
	inv_alpha := 1.0 - alpha
	val := init
	return func(newVal float64) float64 {
		val = inv_alpha*val + alpha*newVal
		return val
	}
}

// Every is the number of events between updates.
var Every int64 = 5000

// Progress counts events and shows a spinner when stderr is a terminal,
// logging periodically otherwise. It is not safe for concurrent use.
type Progress struct {
	What  string
	Total int64

	n       int64
	last    time.Time
	smooth  func(float64) float64
	rate    float64
	spinner *yacspin.Spinner
}

func isTerminal() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// Start begins reporting. A non-positive total disables the time estimate.
func Start(what string, total int64) *Progress {
	p := &Progress{
		What:   what,
		Total:  total,
		last:   time.Now(),
		smooth: MakeSmoother(0.2, 0),
	}

	if isTerminal() {
		spinner, err := yacspin.New(yacspin.Config{
			Frequency:         100 * time.Millisecond,
			CharSet:           yacspin.CharSets[14],
			Suffix:            " ",
			Message:           what,
			StopCharacter:     "✓",
			StopColors:        []string{"fgGreen"},
			StopFailCharacter: "✗",
			StopFailColors:    []string{"fgRed"},
			Writer:            os.Stderr,
		})
		if err == nil && spinner.Start() == nil {
			p.spinner = spinner
		}
	}
	if p.spinner == nil {
		log.Printf("%v...", what)
	}
	return p
}

func (p *Progress) status() string {
	s := fmt.Sprintf("%v: %d", p.What, p.n)
	if p.Total > 0 {
		s += fmt.Sprintf("/%d", p.Total)
		if p.rate > 0 && p.n < p.Total {
			remain := time.Duration(float64(p.Total-p.n) / p.rate * float64(time.Second))
			s += fmt.Sprintf(", %v left", remain.Round(time.Second))
		}
	}
	return s
}

// Inc counts one event.
func (p *Progress) Inc() {
	p.n++
	if p.n%Every != 0 {
		return
	}

	now := time.Now()
	if dt := now.Sub(p.last).Seconds(); dt > 0 {
		p.rate = p.smooth(float64(Every) / dt)
	}
	p.last = now

	if p.spinner != nil {
		p.spinner.Message(p.status())
	} else if p.n%(20*Every) == 0 {
		log.Println(p.status())
	}
}

func (p *Progress) Count() int64 {
	return p.n
}

// Done stops reporting, marking failure when err is non-nil.
func (p *Progress) Done(err error) {
	msg := fmt.Sprintf("%v: %d events", p.What, p.n)
	if p.spinner == nil {
		if err != nil {
			log.Printf("%v: %v", msg, err)
		} else {
			log.Println(msg)
		}
		return
	}

	if err != nil {
		p.spinner.StopFailMessage(fmt.Sprintf("%v: %v", msg, err))
		p.spinner.StopFail()
		return
	}
	p.spinner.StopMessage(msg)
	p.spinner.Stop()
}
