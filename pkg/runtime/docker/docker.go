// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

// Package docker implements the image runtime contract on top of the Docker
// Engine API.
package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/absmach/supermq/pkg/errors"
	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/opencontainers/go-digest"
	"github.com/ultravioletrs/taskimage/pkg/runtime"
)

var (
	errNewClient = errors.New("could not create a new Docker client")
	errInvalidID = errors.New("docker returned an invalid image id")
)

var _ runtime.Runtime = (*Docker)(nil)

// Client is the part of the Docker Engine API client used by Docker.
type Client interface {
	ImageLoad(ctx context.Context, input io.Reader, opts ...client.ImageLoadOption) (image.LoadResponse, error)
	ImageInspect(ctx context.Context, imageID string, opts ...client.ImageInspectOption) (image.InspectResponse, error)
}

type Docker struct {
	client Client
	logger *slog.Logger
}

// New wraps an existing Docker API client.
func New(c Client, logger *slog.Logger) *Docker {
	return &Docker{
		client: c,
		logger: logger,
	}
}

// NewFromEnv creates a Docker runtime configured from DOCKER_HOST and the
// related environment variables.
func NewFromEnv(logger *slog.Logger) (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(errNewClient, err)
	}

	return New(cli, logger), nil
}

func (d *Docker) LoadImage(ctx context.Context, archive io.Reader) error {
	resp, err := d.client.ImageLoad(ctx, archive, client.ImageLoadWithQuiet(true))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// The daemon reports a failed load in the message stream, not the status.
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, io.Discard, 0, false, nil); err != nil {
		return fmt.Errorf("docker load: %w", err)
	}

	return nil
}

func (d *Docker) InspectImage(ctx context.Context, name string) (runtime.Image, error) {
	resp, err := d.client.ImageInspect(ctx, name)
	switch {
	case cerrdefs.IsNotFound(err):
		return runtime.Image{}, errors.Wrap(runtime.ErrImageNotFound, err)
	case err != nil:
		return runtime.Image{}, err
	}

	if err := validateID(resp.ID); err != nil {
		d.logger.Warn(fmt.Sprintf("image %s has an unexpected id %q", name, resp.ID))
		return runtime.Image{}, errors.Wrap(errInvalidID, err)
	}

	return runtime.Image{ID: resp.ID, Name: name}, nil
}

// validateID accepts bare ids from older daemons and checks prefixed ones as
// digests.
func validateID(id string) error {
	if id == "" {
		return errors.New("empty image id")
	}
	if !strings.Contains(id, ":") {
		return nil
	}
	_, err := digest.Parse(id)

	return err
}
