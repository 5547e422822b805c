// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package artifactimage_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/absmach/supermq/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ultravioletrs/taskimage/artifactimage"
	"github.com/ultravioletrs/taskimage/pkg/runtime"
)

const privatePath = "private/image.tar"

func expectFullAcquire(t *testing.T, f *fixture, path, name string) {
	f.downloader.On("Download", mock.Anything, mock.Anything, taskID, path, mock.Anything).Return(serveArchive(imageArchive(t, repositories))).Once()
	f.runtime.On("LoadImage", mock.Anything, mock.Anything).Return(nil).Once()
	f.runtime.On("InspectImage", mock.Anything, name).Return(runtime.Image{ID: imageID, Name: name}, nil).Once()
	f.monitor.On("Measure", artifactimage.DownloadTimeMetric, mock.Anything).Once()
	f.monitor.On("Measure", artifactimage.LoadTimeMetric, mock.Anything).Once()
}

func TestServiceAcquire(t *testing.T) {
	privateName := artifactimage.ImageName(artifactimage.Descriptor{TaskID: taskID, ArtifactPath: privatePath})

	cases := []struct {
		desc   string
		req    artifactimage.AcquireRequest
		opts   []artifactimage.ServiceOption
		setup  func(t *testing.T, f *fixture)
		image  artifactimage.LoadedImage
		err    error
		output string
	}{
		{
			desc: "missing scope is denied before any I/O",
			req:  artifactimage.AcquireRequest{Descriptor: artifactimage.Descriptor{TaskID: taskID, ArtifactPath: privatePath}},
			err:  artifactimage.ErrAuthorizationDenied,
		},
		{
			desc: "unrelated scope is denied",
			req: artifactimage.AcquireRequest{
				Descriptor: artifactimage.Descriptor{TaskID: taskID, ArtifactPath: privatePath},
				Scopes:     []string{"queue:get-artifact:public/*"},
			},
			err: artifactimage.ErrAuthorizationDenied,
		},
		{
			desc: "empty task id",
			req:  artifactimage.AcquireRequest{Descriptor: artifactimage.Descriptor{ArtifactPath: artifactPath}},
			err:  artifactimage.ErrMalformedDescriptor,
		},
		{
			desc: "present image is reused",
			req:  artifactimage.AcquireRequest{Descriptor: desc},
			setup: func(t *testing.T, f *fixture) {
				f.runtime.On("InspectImage", mock.Anything, imageName).Return(runtime.Image{ID: imageID, Name: imageName}, nil).Once()
			},
			image:  artifactimage.LoadedImage{ID: imageID, Name: imageName},
			output: fmt.Sprintf("Image '%s' from task '%s' loaded.  Using image ID %s.", artifactPath, taskID, imageID),
		},
		{
			desc: "absent image is downloaded",
			req: artifactimage.AcquireRequest{
				Descriptor: artifactimage.Descriptor{TaskID: taskID, ArtifactPath: privatePath},
				Scopes:     []string{"queue:get-artifact:private/*"},
			},
			setup: func(t *testing.T, f *fixture) {
				f.runtime.On("InspectImage", mock.Anything, privateName).Return(runtime.Image{}, runtime.ErrImageNotFound).Once()
				expectFullAcquire(t, f, privatePath, privateName)
			},
			image:  artifactimage.LoadedImage{ID: imageID, Name: privateName},
			output: "Loading docker image from downloaded archive.",
		},
		{
			desc: "failed lookup falls back to download",
			req:  artifactimage.AcquireRequest{Descriptor: desc},
			setup: func(t *testing.T, f *fixture) {
				f.runtime.On("InspectImage", mock.Anything, imageName).Return(runtime.Image{}, errBoom).Once()
				expectFullAcquire(t, f, artifactPath, imageName)
			},
			image:  artifactimage.LoadedImage{ID: imageID, Name: imageName},
			output: "Loading docker image from downloaded archive.",
		},
		{
			desc: "reuse disabled",
			req:  artifactimage.AcquireRequest{Descriptor: desc},
			opts: []artifactimage.ServiceOption{artifactimage.WithReuse(false)},
			setup: func(t *testing.T, f *fixture) {
				expectFullAcquire(t, f, artifactPath, imageName)
			},
			image:  artifactimage.LoadedImage{ID: imageID, Name: imageName},
			output: "Loading docker image from downloaded archive.",
		},
		{
			desc: "download failure surfaces",
			req:  artifactimage.AcquireRequest{Descriptor: desc},
			setup: func(t *testing.T, f *fixture) {
				f.runtime.On("InspectImage", mock.Anything, imageName).Return(runtime.Image{}, runtime.ErrImageNotFound).Once()
				f.downloader.On("Download", mock.Anything, mock.Anything, taskID, artifactPath, mock.Anything).Return(errBoom).Once()
			},
			err: artifactimage.ErrDownloadFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			f := newFixture(t)
			if tc.setup != nil {
				tc.setup(t, f)
			}

			var out bytes.Buffer
			tc.req.Output = &out
			svc := artifactimage.NewService(f.deps(), tc.opts...)

			img, err := svc.Acquire(context.Background(), tc.req)
			if tc.err != nil {
				assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("expected %v, got %v", tc.err, err))
				assert.Equal(t, artifactimage.LoadedImage{}, img)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.image, img)
			assert.Contains(t, out.String(), tc.output)
		})
	}
}

func TestServiceSerializesSameImage(t *testing.T) {
	f := newFixture(t)

	const workers = 4
	var active, peak int32
	f.downloader.On("Download", mock.Anything, mock.Anything, taskID, artifactPath, mock.Anything).Return(func(ctx context.Context, out io.Writer, task, path, dest string) error {
		n := atomic.AddInt32(&active, 1)
		defer atomic.AddInt32(&active, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		return serveArchive(imageArchive(t, repositories))(ctx, out, task, path, dest)
	}).Times(workers)
	f.runtime.On("LoadImage", mock.Anything, mock.Anything).Return(nil).Times(workers)
	f.runtime.On("InspectImage", mock.Anything, imageName).Return(runtime.Image{ID: imageID, Name: imageName}, nil).Times(workers)
	f.monitor.On("Measure", mock.Anything, mock.Anything)

	svc := artifactimage.NewService(f.deps(), artifactimage.WithReuse(false))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := svc.Acquire(context.Background(), artifactimage.AcquireRequest{Descriptor: desc})
			assert.NoError(t, err)
			assert.Equal(t, imageID, img.ID)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
	assert.Len(t, f.fs.made, workers)
	assert.ElementsMatch(t, f.fs.made, f.fs.removed)
}
