// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"github.com/ultravioletrs/taskimage/pkg/runtime"
)

var _ runtime.Runtime = (*Runtime)(nil)

// Runtime is a mock type for the Runtime type.
type Runtime struct {
	mock.Mock
}

// InspectImage provides a mock function with given fields: ctx, name
func (_m *Runtime) InspectImage(ctx context.Context, name string) (runtime.Image, error) {
	ret := _m.Called(ctx, name)

	var r0 runtime.Image
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (runtime.Image, error)); ok {
		return rf(ctx, name)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) runtime.Image); ok {
		r0 = rf(ctx, name)
	} else {
		r0 = ret.Get(0).(runtime.Image)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, name)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// LoadImage provides a mock function with given fields: ctx, archive
func (_m *Runtime) LoadImage(ctx context.Context, archive io.Reader) error {
	ret := _m.Called(ctx, archive)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, io.Reader) error); ok {
		r0 = rf(ctx, archive)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewRuntime creates a new instance of Runtime. It also registers a testing
// interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewRuntime(t interface {
	mock.TestingT
	Cleanup(func())
}) *Runtime {
	m := &Runtime{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
