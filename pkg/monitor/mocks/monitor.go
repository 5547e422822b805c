// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	time "time"

	mock "github.com/stretchr/testify/mock"
)

// Monitor is a mock type for the Monitor type.
type Monitor struct {
	mock.Mock
}

// Measure provides a mock function with given fields: name, d
func (_m *Monitor) Measure(name string, d time.Duration) {
	_m.Called(name, d)
}

// NewMonitor creates a new instance of Monitor. It also registers a testing
// interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMonitor(t interface {
	mock.TestingT
	Cleanup(func())
}) *Monitor {
	m := &Monitor{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
