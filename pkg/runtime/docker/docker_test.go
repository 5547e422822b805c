// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package docker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	mglog "github.com/absmach/supermq/logger"
	"github.com/absmach/supermq/pkg/errors"
	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/stretchr/testify/assert"
	"github.com/ultravioletrs/taskimage/pkg/runtime"
)

const validID = "sha256:9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

type fakeClient struct {
	loadBody string
	loadErr  error
	loaded   string

	inspectID  string
	inspectErr error
	inspected  []string
}

func (f *fakeClient) ImageLoad(_ context.Context, input io.Reader, _ ...client.ImageLoadOption) (image.LoadResponse, error) {
	b, _ := io.ReadAll(input)
	f.loaded = string(b)
	if f.loadErr != nil {
		return image.LoadResponse{}, f.loadErr
	}

	return image.LoadResponse{Body: io.NopCloser(strings.NewReader(f.loadBody)), JSON: true}, nil
}

func (f *fakeClient) ImageInspect(_ context.Context, name string, _ ...client.ImageInspectOption) (image.InspectResponse, error) {
	f.inspected = append(f.inspected, name)
	if f.inspectErr != nil {
		return image.InspectResponse{}, f.inspectErr
	}

	return image.InspectResponse{ID: f.inspectID}, nil
}

func TestLoadImage(t *testing.T) {
	errDaemon := errors.New("daemon unavailable")

	cases := []struct {
		desc     string
		body     string
		loadErr  error
		errMatch string
		err      error
	}{
		{
			desc: "loaded",
			body: `{"stream":"Loaded image: 3b5e:latest\n"}`,
		},
		{
			desc: "empty stream",
			body: "",
		},
		{
			desc:     "error in stream",
			body:     `{"errorDetail":{"message":"invalid tar header"},"error":"invalid tar header"}`,
			errMatch: "invalid tar header",
		},
		{
			desc:    "request failed",
			loadErr: errDaemon,
			err:     errDaemon,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			fc := &fakeClient{loadBody: tc.body, loadErr: tc.loadErr}
			d := New(fc, mglog.NewMock())

			err := d.LoadImage(context.Background(), strings.NewReader("archive"))
			assert.Equal(t, "archive", fc.loaded)

			switch {
			case tc.err != nil:
				assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("expected %v, got %v", tc.err, err))
			case tc.errMatch != "":
				assert.ErrorContains(t, err, tc.errMatch)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestInspectImage(t *testing.T) {
	errDaemon := errors.New("daemon unavailable")

	cases := []struct {
		desc  string
		id    string
		err   error
		image runtime.Image
		want  error
	}{
		{
			desc:  "present",
			id:    validID,
			image: runtime.Image{ID: validID, Name: "abc"},
		},
		{
			desc: "not found",
			err:  fmt.Errorf("no such image: abc: %w", cerrdefs.ErrNotFound),
			want: runtime.ErrImageNotFound,
		},
		{
			desc: "daemon error",
			err:  errDaemon,
			want: errDaemon,
		},
		{
			desc:  "bare id",
			id:    "9f86d081884c",
			image: runtime.Image{ID: "9f86d081884c", Name: "abc"},
		},
		{
			desc: "malformed digest",
			id:   "sha256:xyz",
			want: errInvalidID,
		},
		{
			desc: "empty id",
			want: errInvalidID,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			fc := &fakeClient{inspectID: tc.id, inspectErr: tc.err}
			d := New(fc, mglog.NewMock())

			img, err := d.InspectImage(context.Background(), "abc")
			assert.Equal(t, []string{"abc"}, fc.inspected)
			if tc.want != nil {
				assert.True(t, errors.Contains(err, tc.want), fmt.Sprintf("expected %v, got %v", tc.want, err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.image, img)
		})
	}
}
