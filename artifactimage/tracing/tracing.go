// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package tracing

import (
	"context"

	"github.com/ultravioletrs/taskimage/artifactimage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ artifactimage.Service = (*tracingMiddleware)(nil)

type tracingMiddleware struct {
	tracer trace.Tracer
	svc    artifactimage.Service
}

// New returns a new artifact image service with tracing capabilities.
func New(svc artifactimage.Service, tracer trace.Tracer) artifactimage.Service {
	return &tracingMiddleware{tracer, svc}
}

func (tm *tracingMiddleware) Acquire(ctx context.Context, req artifactimage.AcquireRequest) (artifactimage.LoadedImage, error) {
	ctx, span := tm.tracer.Start(ctx, "acquire", trace.WithAttributes(
		attribute.String("task_id", req.TaskID),
		attribute.String("path", req.ArtifactPath),
		attribute.String("image", artifactimage.ImageName(req.Descriptor)),
	))
	defer span.End()

	img, err := tm.svc.Acquire(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return img, err
	}
	span.SetAttributes(attribute.String("image_id", img.ID))

	return img, nil
}
