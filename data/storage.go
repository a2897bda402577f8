// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrScheme = errors.New("bad url scheme")

// ListFileSuffix marks an input line naming a list of inputs rather than an
// event file.
const ListFileSuffix = ".txt"

func parseURL(urlString string) (*url.URL, error) {
	thisUrl, err := url.Parse(urlString)
	if err != nil {
		return nil, err
	}
	if thisUrl.Scheme == "" {
		thisUrl = &url.URL{Scheme: "file", Path: urlString}
	}
	return thisUrl, nil
}

func localPath(u *url.URL) string {
	if u.Host == "" {
		return filepath.Clean(u.Path)
	}
	return filepath.Clean(fmt.Sprintf("%v/%v", u.Host, strings.TrimLeft(u.Path, "/")))
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, `*?[`)
}

// ExpandInputs resolves configuration input lines into event file URLs.
// Lines ending in .txt are read as lists, one input per line with #
// comments. Glob patterns are expanded for both local files and gs://
// objects. A plain path is kept even when it does not exist so that the
// reader reports it by name.
func ExpandInputs(ctx context.Context, lines []string, credentials string) ([]string, error) {
	var inputs []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		thisUrl, err := parseURL(line)
		if err != nil {
			return nil, err
		}

		switch thisUrl.Scheme {
		case "gs":
			if !hasMeta(thisUrl.Path) {
				inputs = append(inputs, line)
				continue
			}
			pattern := strings.TrimLeft(thisUrl.Path, "/")
			prefix := pattern[:strings.IndexAny(pattern, `*?[`)]
			names, err := ListGcsObjects(ctx, thisUrl.Host, prefix, pattern, credentials)
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				inputs = append(inputs, fmt.Sprintf("gs://%v/%v", thisUrl.Host, name))
			}
		case "file":
			p := localPath(thisUrl)
			if strings.HasSuffix(p, ListFileSuffix) {
				listed, err := readList(p)
				if err != nil {
					return nil, err
				}
				more, err := ExpandInputs(ctx, listed, credentials)
				if err != nil {
					return nil, err
				}
				inputs = append(inputs, more...)
				continue
			}
			if !hasMeta(p) {
				inputs = append(inputs, p)
				continue
			}
			files, err := filepath.Glob(p)
			if err != nil {
				return nil, fmt.Errorf("%v: %w", line, err)
			}
			inputs = append(inputs, files...)
		default:
			return nil, fmt.Errorf("%w: %v", ErrScheme, line)
		}
	}

	return inputs, nil
}

func readList(p string) ([]string, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Fetch returns a local path for an input URL. Remote objects are
// downloaded to a temporary file which the returned function removes.
func Fetch(ctx context.Context, urlString, credentials string) (string, func(), error) {
	thisUrl, err := parseURL(urlString)
	if err != nil {
		return "", nil, err
	}

	switch thisUrl.Scheme {
	case "gs":
		f, err := ioutil.TempFile("", "bbcal-"+uuid.New().String()+"-*"+path.Ext(thisUrl.Path))
		if err != nil {
			return "", nil, err
		}
		cleanup := func() { os.Remove(f.Name()) }

		err = DownloadGcsObject(ctx, thisUrl.Host, strings.TrimLeft(thisUrl.Path, "/"), credentials, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			cleanup()
			return "", nil, fmt.Errorf("%v: %w", urlString, err)
		}
		return f.Name(), cleanup, nil
	case "file":
		return localPath(thisUrl), func() {}, nil
	}
	return "", nil, fmt.Errorf("%w: %v", ErrScheme, urlString)
}

// FetchAll fetches every input, stopping at the first failure.
func FetchAll(ctx context.Context, urls []string, credentials string) ([]string, func(), error) {
	var (
		paths    []string
		cleanups []func()
	)
	cleanup := func() {
		for _, c := range cleanups {
			c()
		}
	}

	for _, u := range urls {
		p, c, err := Fetch(ctx, u, credentials)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		paths = append(paths, p)
		cleanups = append(cleanups, c)
	}
	return paths, cleanup, nil
}

func GetWriter(ctx context.Context, urlString, credentials string) (io.WriteCloser, error) {
	thisUrl, err := parseURL(urlString)
	if err != nil {
		return nil, err
	}

	switch thisUrl.Scheme {
	case "gs":
		return CreateGcsWriter(ctx, thisUrl.Host, strings.TrimLeft(thisUrl.Path, "/"), credentials)
	case "file":
		p := localPath(thisUrl)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, err
		}
		return os.Create(p)
	}
	return nil, fmt.Errorf("%w: %v", ErrScheme, urlString)
}

// Publish copies local output files under the destination URL prefix,
// keeping their base names.
func Publish(ctx context.Context, files []string, dest, credentials string) error {
	for _, file := range files {
		in, err := os.Open(file)
		if err != nil {
			return err
		}

		out, err := GetWriter(ctx, strings.TrimRight(dest, "/")+"/"+filepath.Base(file), credentials)
		if err != nil {
			in.Close()
			return err
		}

		_, err = io.Copy(out, in)
		in.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("publish %v: %w", file, err)
		}
	}
	return nil
}
