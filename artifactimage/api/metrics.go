// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/ultravioletrs/taskimage/artifactimage"
)

var _ artifactimage.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     artifactimage.Service
}

// MetricsMiddleware instruments core service by tracking request count and
// latency.
func MetricsMiddleware(svc artifactimage.Service, counter metrics.Counter, latency metrics.Histogram) artifactimage.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (ms *metricsMiddleware) Acquire(ctx context.Context, req artifactimage.AcquireRequest) (artifactimage.LoadedImage, error) {
	defer func(begin time.Time) {
		ms.counter.With("method", "acquire").Add(1)
		ms.latency.With("method", "acquire").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return ms.svc.Acquire(ctx, req)
}
