// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
)

var ErrNoInputs = errors.New("no input files")

// Credentials is the Google Cloud credentials file used for gs:// URLs.
var Credentials = FlagSet.String("creds", "", "Google Cloud credentials file for gs:// inputs and outputs")

// OpenInputs expands the input lines, fetches remote files and opens them as
// one ROOT source reading groups plus the extra branches. The returned
// function closes the source and removes downloaded files.
func OpenInputs(ctx context.Context, lines []string, groups Groups, extra ...string) (*RootSource, func(), error) {
	urls, err := ExpandInputs(ctx, lines, *Credentials)
	if err != nil {
		return nil, nil, err
	}
	if len(urls) == 0 {
		return nil, nil, ErrNoInputs
	}

	paths, cleanup, err := FetchAll(ctx, urls, *Credentials)
	if err != nil {
		return nil, nil, err
	}
	src := NewRootSource(paths, groups, extra...)
	return src, func() {
		Close(src)
		cleanup()
	}, nil
}

// PublishTo copies files under dest unless dest is empty.
func PublishTo(ctx context.Context, files []string, dest string) error {
	if dest == "" {
		return nil
	}
	return Publish(ctx, files, dest, *Credentials)
}

// InterruptContext is cancelled on the first interrupt signal.
func InterruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		select {
		case <-sig:
			log.Println("interrupted")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sig)
	}()
	return ctx, cancel
}
