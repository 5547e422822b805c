// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ultravioletrs/taskimage/artifactimage"
)

var _ artifactimage.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    artifactimage.Service
}

// LoggingMiddleware adds logging facilities to the core service.
func LoggingMiddleware(svc artifactimage.Service, logger *slog.Logger) artifactimage.Service {
	return &loggingMiddleware{logger, svc}
}

func (lm *loggingMiddleware) Acquire(ctx context.Context, req artifactimage.AcquireRequest) (img artifactimage.LoadedImage, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method Acquire for task %s artifact %s returned image %s took %s to complete", req.TaskID, req.ArtifactPath, img.ID, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(message)
	}(time.Now())

	return lm.svc.Acquire(ctx, req)
}
