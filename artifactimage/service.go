// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package artifactimage

import (
	"context"
	"fmt"
	"io"

	"github.com/absmach/supermq/pkg/errors"
	"github.com/moby/locker"
	"github.com/ultravioletrs/taskimage/internal"
	"github.com/ultravioletrs/taskimage/pkg/runtime"
)

// AcquireRequest asks for the image stored in an artifact.
type AcquireRequest struct {
	Descriptor
	// Scopes granted to the requesting task.
	Scopes []string
	// Output receives the task facing progress lines.
	Output io.Writer
}

// Service acquires artifact images on this host.
//
//go:generate mockery --name Service --output=./mocks --filename service.go --quiet --note "Copyright (c) Ultraviolet \n // SPDX-License-Identifier: Apache-2.0"
type Service interface {
	// Acquire authorizes the request and returns the loaded image, reusing
	// one already present under the deterministic name when allowed.
	Acquire(ctx context.Context, req AcquireRequest) (LoadedImage, error)
}

var _ Service = (*service)(nil)

type service struct {
	deps  Deps
	locks *locker.Locker
	reuse bool
}

// ServiceOption configures the service.
type ServiceOption func(*service)

// WithReuse makes Acquire return an image already loaded under the
// deterministic name instead of downloading it again.
func WithReuse(reuse bool) ServiceOption {
	return func(s *service) {
		s.reuse = reuse
	}
}

// NewService instantiates the artifact image service.
func NewService(deps Deps, opts ...ServiceOption) Service {
	s := &service{
		deps:  deps.withDefaults(),
		locks: locker.New(),
		reuse: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *service) Acquire(ctx context.Context, req AcquireRequest) (LoadedImage, error) {
	if err := req.Descriptor.validate(); err != nil {
		return LoadedImage{}, err
	}
	if !IsAuthorized(req.Descriptor, req.Scopes) {
		return LoadedImage{}, errors.Wrap(ErrAuthorizationDenied, fmt.Errorf("task %s artifact %s requires scope %s%s", req.TaskID, req.ArtifactPath, getArtifactScope, req.ArtifactPath))
	}

	out := req.Output
	if out == nil {
		out = io.Discard
	}

	name := ImageName(req.Descriptor)
	s.locks.Lock(name)
	defer func() {
		if err := s.locks.Unlock(name); err != nil {
			s.deps.Logger.Error(fmt.Sprintf("failed to release lock for image %s: %s", name, err))
		}
	}()

	if s.reuse {
		img, err := s.deps.Runtime.InspectImage(ctx, name)
		switch {
		case err == nil:
			fmt.Fprint(out, internal.FmtLog("Image '%s' from task '%s' loaded.  Using image ID %s.", req.ArtifactPath, req.TaskID, img.ID))
			return LoadedImage{ID: img.ID, Name: name}, nil
		case !errors.Contains(err, runtime.ErrImageNotFound):
			s.deps.Logger.Warn(fmt.Sprintf("failed to look up image %s, loading it from the artifact: %s", name, err))
		}
	}

	return New(s.deps, req.Descriptor, req.Scopes, out).Acquire(ctx)
}
