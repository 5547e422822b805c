// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package monitor_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultravioletrs/taskimage/pkg/monitor"
)

func TestPrometheusMeasure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := monitor.NewPrometheus(reg, "taskimage", "test")
	require.NoError(t, err)

	m.Measure("task.taskImage.downloadTime", 2*time.Second)
	m.Measure("task.taskImage.loadTime", 3*time.Second)
	m.Measure("task.taskImage.loadTime", 5*time.Second)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "taskimage_test_measurement_duration_seconds", families[0].GetName())

	got := map[string][2]float64{}
	for _, metric := range families[0].GetMetric() {
		var name string
		for _, l := range metric.GetLabel() {
			if l.GetName() == "name" {
				name = l.GetValue()
			}
		}
		got[name] = [2]float64{float64(metric.GetSummary().GetSampleCount()), metric.GetSummary().GetSampleSum()}
	}

	assert.Equal(t, map[string][2]float64{
		"task.taskImage.downloadTime": {1, 2},
		"task.taskImage.loadTime":     {2, 8},
	}, got)
}

func TestNewPrometheusDuplicate(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := monitor.NewPrometheus(reg, "taskimage", "test")
	require.NoError(t, err)

	_, err = monitor.NewPrometheus(reg, "taskimage", "test")
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		monitor.Noop{}.Measure("task.taskImage.loadTime", time.Second)
	})
}
