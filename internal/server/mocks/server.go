// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

package mocks

import mock "github.com/stretchr/testify/mock"

// Server is a mock type for the Server type.
type Server struct {
	mock.Mock
}

// Start provides a mock function with given fields:
func (_m *Server) Start() error {
	ret := _m.Called()

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Stop provides a mock function with given fields:
func (_m *Server) Stop() error {
	ret := _m.Called()

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewServer creates a new instance of Server. It also registers a testing
// interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewServer(t interface {
	mock.TestingT
	Cleanup(func())
}) *Server {
	m := &Server{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
