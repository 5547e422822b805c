// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/absmach/supermq/pkg/errors"
	"github.com/avast/retry-go/v4"
)

const (
	// DefaultMaxAttempts is the number of presence checks after a load.
	DefaultMaxAttempts = 6
	// DefaultDelay is the wait between two presence checks.
	DefaultDelay = 5 * time.Second
)

// Poller loads image archives and waits for the result to become visible.
type Poller struct {
	runtime     Runtime
	logger      *slog.Logger
	maxAttempts uint
	delay       time.Duration
	timer       retry.Timer
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithMaxAttempts sets how many presence checks are made. Values below one
// are ignored.
func WithMaxAttempts(n uint) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithDelay sets the wait between presence checks.
func WithDelay(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.delay = d
	}
}

// WithTimer replaces the delay primitive used between presence checks.
func WithTimer(t retry.Timer) PollerOption {
	return func(p *Poller) {
		p.timer = t
	}
}

// WithLogger sets the poller logger.
func WithLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// NewPoller creates a Poller for rt.
func NewPoller(rt Runtime, opts ...PollerOption) *Poller {
	p := &Poller{
		runtime:     rt,
		logger:      slog.Default(),
		maxAttempts: DefaultMaxAttempts,
		delay:       DefaultDelay,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// LoadAndVerify streams the archive at archivePath into the runtime once and
// then checks up to the configured number of times for an image named
// expectedName.
func (p *Poller) LoadAndVerify(ctx context.Context, archivePath, expectedName string) (Image, error) {
	if err := p.Load(ctx, archivePath); err != nil {
		return Image{}, err
	}

	return p.Verify(ctx, expectedName)
}

// Load streams the archive at archivePath into the runtime. The load call
// itself is never retried.
func (p *Poller) Load(ctx context.Context, archivePath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrap(ErrLoad, err)
	}
	defer f.Close()

	if err := p.runtime.LoadImage(ctx, f); err != nil {
		return errors.Wrap(ErrLoad, err)
	}

	return nil
}

// Verify polls the runtime for expectedName without loading anything.
func (p *Poller) Verify(ctx context.Context, expectedName string) (Image, error) {
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(p.maxAttempts),
		retry.Delay(p.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Debug(fmt.Sprintf("image %s not visible after attempt %d of %d: %s", expectedName, n+1, p.maxAttempts, err))
		}),
	}
	if p.timer != nil {
		opts = append(opts, retry.WithTimer(p.timer))
	}

	img, err := retry.DoWithData(func() (Image, error) {
		return p.runtime.InspectImage(ctx, expectedName)
	}, opts...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Image{}, ctxErr
		}
		return Image{}, errors.Wrap(ErrLoadVerification, fmt.Errorf("image %s not found after %d attempts: %w", expectedName, p.maxAttempts, err))
	}

	return img, nil
}
