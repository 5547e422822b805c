// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

// Package monitor records named timing measurements.
package monitor

import (
	"time"

	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

const nameLabel = "name"

// Monitor receives named duration measurements.
//
//go:generate mockery --name Monitor --output=./mocks --filename monitor.go --quiet --note "Copyright (c) Ultraviolet \n // SPDX-License-Identifier: Apache-2.0"
type Monitor interface {
	// Measure records d under name.
	Measure(name string, d time.Duration)
}

var (
	_ Monitor = (*Prometheus)(nil)
	_ Monitor = Noop{}
)

// Prometheus reports measurements as a summary partitioned by name.
type Prometheus struct {
	durations metrics.Histogram
}

// NewPrometheus registers a duration summary on reg and returns a Monitor
// writing to it.
func NewPrometheus(reg prometheus.Registerer, namespace, subsystem string) (*Prometheus, error) {
	sv := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "measurement_duration_seconds",
		Help:      "Duration of named task image operations in seconds.",
	}, []string{nameLabel})
	if err := reg.Register(sv); err != nil {
		return nil, err
	}

	return &Prometheus{durations: kitprometheus.NewSummary(sv)}, nil
}

func (p *Prometheus) Measure(name string, d time.Duration) {
	p.durations.With(nameLabel, name).Observe(d.Seconds())
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) Measure(string, time.Duration) {}
