// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"io"
	"os"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/cenkalti/backoff"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// clientOptions accepts either a path to a service account key or the key
// itself. Empty credentials fall back to the application defaults.
func clientOptions(credentials string) []option.ClientOption {
	if credentials == "" {
		return nil
	}
	if _, err := os.Stat(credentials); err == nil {
		return []option.ClientOption{option.WithCredentialsFile(credentials)}
	}
	return []option.ClientOption{option.WithCredentialsJSON([]byte(credentials))}
}

// ListGcsObjects returns the names of the objects under prefix that match
// pattern. An empty pattern matches everything.
func ListGcsObjects(ctx context.Context, bucket, prefix, pattern, credentials string) ([]string, error) {
	client, err := storage.NewClient(ctx, clientOptions(credentials)...)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var names []string

	it := client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		objAttrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if pattern != "" {
			if ok, _ := path.Match(pattern, objAttrs.Name); !ok {
				continue
			}
		}
		names = append(names, objAttrs.Name)
	}

	return names, nil
}

func downloadBackOff(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(&backoff.ExponentialBackOff{
		InitialInterval:     500 * time.Millisecond,
		RandomizationFactor: 0.5,
		Multiplier:          2.,
		MaxInterval:         30 * time.Second,
		MaxElapsedTime:      5 * time.Minute,
		Clock:               backoff.SystemClock}, ctx)
}

// DownloadGcsObject copies an object into dst. Transient failures are
// retried; a missing object is not.
func DownloadGcsObject(ctx context.Context, bucket, name, credentials string, dst *os.File) error {
	client, err := storage.NewClient(ctx, clientOptions(credentials)...)
	if err != nil {
		return err
	}
	defer client.Close()

	op := func() error {
		if _, err := dst.Seek(0, io.SeekStart); err != nil {
			return backoff.Permanent(err)
		}
		if err := dst.Truncate(0); err != nil {
			return backoff.Permanent(err)
		}

		objectReader, err := client.Bucket(bucket).Object(name).NewReader(ctx)
		if err == storage.ErrObjectNotExist || err == storage.ErrBucketNotExist {
			return backoff.Permanent(err)
		}
		if err != nil {
			return err
		}
		defer objectReader.Close()

		_, err = io.Copy(dst, objectReader)
		return err
	}

	return backoff.Retry(op, downloadBackOff(ctx))
}

type gcsWriter struct {
	*storage.Writer
	client *storage.Client
}

func (w gcsWriter) Close() error {
	err := w.Writer.Close()
	if cerr := w.client.Close(); err == nil {
		err = cerr
	}
	return err
}

func CreateGcsWriter(ctx context.Context, bucket, name, credentials string) (io.WriteCloser, error) {
	client, err := storage.NewClient(ctx, clientOptions(credentials)...)
	if err != nil {
		return nil, err
	}

	return gcsWriter{client.Bucket(bucket).Object(name).NewWriter(ctx), client}, nil
}
