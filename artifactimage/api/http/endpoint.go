// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package http

import (
	"bytes"
	"context"

	"github.com/go-kit/kit/endpoint"
	"github.com/ultravioletrs/taskimage/artifactimage"
)

func acquireEndpoint(svc artifactimage.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(acquireReq)

		if err := req.validate(); err != nil {
			return nil, err
		}

		var out bytes.Buffer
		img, err := svc.Acquire(ctx, artifactimage.AcquireRequest{
			Descriptor: artifactimage.Descriptor{
				TaskID:       req.TaskID,
				ArtifactPath: req.ArtifactPath,
			},
			Scopes: req.Scopes,
			Output: &out,
		})
		if err != nil {
			return nil, err
		}

		return acquireRes{
			ID:     img.ID,
			Name:   img.Name,
			Output: out.String(),
		}, nil
	}
}
