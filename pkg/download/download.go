// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

// Package download fetches task artifacts to local files.
package download

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/absmach/supermq/pkg/errors"
)

var (
	// ErrInvalidURL indicates the queue root URL is invalid.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrInvalidArtifact indicates an empty task id or artifact path.
	ErrInvalidArtifact = errors.New("invalid artifact reference")
	// ErrUnexpectedStatus indicates the artifact endpoint did not answer 200.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrS3DownloadFailed indicates an S3 download operation failed.
	ErrS3DownloadFailed = errors.New("failed to download from S3")
	// ErrGCSDownloadFailed indicates a GCS download operation failed.
	ErrGCSDownloadFailed = errors.New("failed to download from GCS")
	// ErrWrite indicates the destination file could not be written.
	ErrWrite = errors.New("failed to write artifact to disk")
)

// Downloader retrieves a task artifact into a local file.
//
//go:generate mockery --name Downloader --output=./mocks --filename downloader.go --quiet --note "Copyright (c) Ultraviolet \n // SPDX-License-Identifier: Apache-2.0"
type Downloader interface {
	// Download writes the artifact at artifactPath of taskID to dest. Progress
	// lines go to out.
	Download(ctx context.Context, out io.Writer, taskID, artifactPath, dest string) error
}

// Queue resolves artifact locations.
type Queue interface {
	// ArtifactURL returns the URL serving the latest run's artifact.
	ArtifactURL(ctx context.Context, taskID, artifactPath string) (string, error)
}

type queue struct {
	root string
}

// NewQueue returns a Queue resolving artifacts below rootURL.
func NewQueue(rootURL string) (Queue, error) {
	u, err := url.Parse(rootURL)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Wrap(ErrInvalidURL, fmt.Errorf("%q is not absolute", rootURL))
	}

	return &queue{root: strings.TrimSuffix(rootURL, "/")}, nil
}

func (q *queue) ArtifactURL(_ context.Context, taskID, artifactPath string) (string, error) {
	name := strings.TrimPrefix(artifactPath, "/")
	if taskID == "" || name == "" {
		return "", ErrInvalidArtifact
	}

	return fmt.Sprintf("%s/api/queue/v1/task/%s/artifacts/%s", q.root, url.PathEscape(taskID), escapePath(name)), nil
}

// escapePath escapes every segment of p and keeps the separators.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	return strings.Join(segments, "/")
}

// objectKey returns "<prefix><taskID>/<artifactPath>" for bucket backed
// artifact stores.
func objectKey(prefix, taskID, artifactPath string) (string, error) {
	name := strings.TrimPrefix(artifactPath, "/")
	if taskID == "" || name == "" {
		return "", ErrInvalidArtifact
	}

	return prefix + taskID + "/" + name, nil
}

// writeFile streams r into a truncated dest and returns the bytes written.
func writeFile(dest string, r io.Reader) (int64, error) {
	f, err := os.Create(dest)
	if err != nil {
		return 0, errors.Wrap(ErrWrite, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}

	return n, nil
}
