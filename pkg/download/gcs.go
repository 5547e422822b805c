// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

package download

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"github.com/absmach/supermq/pkg/errors"
	"github.com/docker/go-units"
	"github.com/ultravioletrs/taskimage/internal"
	"google.golang.org/api/option"
)

var _ Downloader = (*GCS)(nil)

// GCSClient opens objects stored in Google Cloud Storage.
type GCSClient interface {
	NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// GCSConfig holds GCS-specific configuration.
type GCSConfig struct {
	Bucket          string `env:"BUCKET"           envDefault:""`
	Prefix          string `env:"PREFIX"           envDefault:""`
	Endpoint        string `env:"ENDPOINT"         envDefault:""`
	CredentialsFile string `env:"CREDENTIALS_FILE" envDefault:""`
	Anonymous       bool   `env:"ANONYMOUS"        envDefault:"false"`
}

// GCS downloads artifacts stored in a GCS bucket.
type GCS struct {
	client GCSClient
	config GCSConfig
	logger *slog.Logger
}

type GCSOption func(*GCS)

func WithGCSLogger(logger *slog.Logger) GCSOption {
	return func(g *GCS) {
		g.logger = logger
	}
}

func WithGCSClient(c GCSClient) GCSOption {
	return func(g *GCS) {
		g.client = c
	}
}

// NewGCS creates a GCS downloader. Without WithGCSClient the client uses
// application default credentials unless cfg says otherwise.
func NewGCS(ctx context.Context, cfg GCSConfig, opts ...GCSOption) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, errors.Wrap(ErrGCSDownloadFailed, fmt.Errorf("bucket is required"))
	}

	g := &GCS{
		config: cfg,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.client != nil {
		return g, nil
	}

	var clientOpts []option.ClientOption
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}
	switch {
	case cfg.Anonymous:
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(ErrGCSDownloadFailed, fmt.Errorf("failed to create storage client: %w", err))
	}
	g.client = storageClient{client}

	return g, nil
}

// Key returns the object name of an artifact.
func (g *GCS) Key(taskID, artifactPath string) (string, error) {
	return objectKey(g.config.Prefix, taskID, artifactPath)
}

// Download streams the object to dest.
func (g *GCS) Download(ctx context.Context, out io.Writer, taskID, artifactPath, dest string) error {
	key, err := g.Key(taskID, artifactPath)
	if err != nil {
		return err
	}

	fmt.Fprint(out, internal.FmtLog("Downloading artifact \"%s\" from task ID: %s.", artifactPath, taskID))

	start := time.Now()
	reader, err := g.client.NewReader(ctx, g.config.Bucket, key)
	switch {
	case goerrors.Is(err, storage.ErrObjectNotExist):
		return errors.Wrap(ErrGCSDownloadFailed, fmt.Errorf("object gs://%s/%s does not exist", g.config.Bucket, key))
	case err != nil:
		return errors.Wrap(ErrGCSDownloadFailed, err)
	}
	defer reader.Close()

	size, err := writeFile(dest, reader)
	if err != nil {
		return errors.Wrap(ErrGCSDownloadFailed, err)
	}

	g.logger.Debug(fmt.Sprintf("downloaded gs://%s/%s to %s", g.config.Bucket, key, dest))
	fmt.Fprint(out, internal.FmtLog("Downloaded artifact successfully. Downloaded %s in %s.", units.HumanSize(float64(size)), time.Since(start).Round(time.Millisecond)))

	return nil
}

type storageClient struct {
	client *storage.Client
}

func (c storageClient) NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	r, err := c.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, err
	}

	return r, nil
}
