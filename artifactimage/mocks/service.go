// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	context "context"

	mock "github.com/stretchr/testify/mock"
	artifactimage "github.com/ultravioletrs/taskimage/artifactimage"
)

// Service is a mock type for the Service type.
type Service struct {
	mock.Mock
}

// Acquire provides a mock function with given fields: ctx, req
func (_m *Service) Acquire(ctx context.Context, req artifactimage.AcquireRequest) (artifactimage.LoadedImage, error) {
	ret := _m.Called(ctx, req)

	var r0 artifactimage.LoadedImage
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, artifactimage.AcquireRequest) (artifactimage.LoadedImage, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, artifactimage.AcquireRequest) artifactimage.LoadedImage); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.Get(0).(artifactimage.LoadedImage)
	}

	if rf, ok := ret.Get(1).(func(context.Context, artifactimage.AcquireRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewService creates a new instance of Service. It also registers a testing
// interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewService(t interface {
	mock.TestingT
	Cleanup(func())
}) *Service {
	m := &Service{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
