// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package tracing_test

import (
	"context"
	"testing"

	"github.com/absmach/supermq/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ultravioletrs/taskimage/artifactimage"
	"github.com/ultravioletrs/taskimage/artifactimage/mocks"
	"github.com/ultravioletrs/taskimage/artifactimage/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestAcquireSpan(t *testing.T) {
	req := artifactimage.AcquireRequest{
		Descriptor: artifactimage.Descriptor{TaskID: "abc", ArtifactPath: "def"},
	}

	cases := []struct {
		desc   string
		image  artifactimage.LoadedImage
		err    error
		status codes.Code
	}{
		{
			desc:   "acquired",
			image:  artifactimage.LoadedImage{ID: "sha256:0123", Name: "e80b5017098950fc58aad83c8c14978e"},
			status: codes.Unset,
		},
		{
			desc:   "failed",
			err:    errors.Wrap(artifactimage.ErrDownloadFailed, errors.New("status 404")),
			status: codes.Error,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			recorder := tracetest.NewSpanRecorder()
			provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
			t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

			svc := mocks.NewService(t)
			svc.On("Acquire", mock.Anything, req).Return(tc.image, tc.err).Once()

			img, err := tracing.New(svc, provider.Tracer("taskimage")).Acquire(context.Background(), req)
			assert.Equal(t, tc.image, img)
			assert.Equal(t, tc.err, err)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, "acquire", span.Name())
			assert.Equal(t, tc.status, span.Status().Code)

			attrs := span.Attributes()
			assert.Contains(t, attrs, attribute.String("task_id", "abc"))
			assert.Contains(t, attrs, attribute.String("path", "def"))
			assert.Contains(t, attrs, attribute.String("image", "e80b5017098950fc58aad83c8c14978e"))
			if tc.err == nil {
				assert.Contains(t, attrs, attribute.String("image_id", tc.image.ID))
			}
		})
	}
}
