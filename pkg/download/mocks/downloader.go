// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"io"

	mock "github.com/stretchr/testify/mock"
)

// Downloader is a mock type for the Downloader type.
type Downloader struct {
	mock.Mock
}

// Download provides a mock function with given fields: ctx, out, taskID, artifactPath, dest
func (_m *Downloader) Download(ctx context.Context, out io.Writer, taskID string, artifactPath string, dest string) error {
	ret := _m.Called(ctx, out, taskID, artifactPath, dest)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, io.Writer, string, string, string) error); ok {
		r0 = rf(ctx, out, taskID, artifactPath, dest)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewDownloader creates a new instance of Downloader. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewDownloader(t interface {
	mock.TestingT
	Cleanup(func())
}) *Downloader {
	m := &Downloader{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
