// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

// Package runtime defines the container runtime contract used to load image
// archives and the poller that verifies a load became observable.
package runtime

import (
	"context"
	"io"

	"github.com/absmach/supermq/pkg/errors"
)

var (
	// ErrImageNotFound indicates the runtime has no image under the queried name.
	ErrImageNotFound = errors.New("image not found")
	// ErrLoad indicates the runtime rejected an image archive.
	ErrLoad = errors.New("failed to load image archive")
	// ErrLoadVerification indicates a loaded image never became observable.
	ErrLoadVerification = errors.New("image did not load properly")
)

// Image identifies an image known to the runtime.
type Image struct {
	// ID is the runtime assigned content-id.
	ID string `json:"id"`
	// Name is the reference the image was looked up with.
	Name string `json:"name"`
}

// Runtime is the subset of a container runtime needed to load images.
//
//go:generate mockery --name Runtime --output=./mocks --filename runtime.go --quiet --note "Copyright (c) Ultraviolet \n // SPDX-License-Identifier: Apache-2.0"
type Runtime interface {
	// LoadImage streams an image archive into the runtime.
	LoadImage(ctx context.Context, archive io.Reader) error
	// InspectImage returns the image registered under name or
	// ErrImageNotFound.
	InspectImage(ctx context.Context, name string) (Image, error)
}
