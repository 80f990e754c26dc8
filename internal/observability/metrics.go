// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/itemcore/internal/world"
)

var _ world.Recorder = (*Metrics)(nil)

// Metrics contains the engine's Prometheus metrics. It implements
// world.Recorder.
type Metrics struct {
	MovesTotal          *prometheus.CounterVec
	NotificationsTotal  *prometheus.CounterVec
	NotifyDepthExceeded prometheus.Counter
	SavesTotal          *prometheus.CounterVec
}

// NewMetrics creates and registers the engine metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MovesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "itemcore_moves_total",
				Help: "Total number of move transactions by result",
			},
			[]string{"result"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "itemcore_notifications_total",
				Help: "Total number of holder notifications by link",
			},
			[]string{"link"},
		),
		NotifyDepthExceeded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "itemcore_notify_depth_exceeded_total",
				Help: "Hook runs nested deeper than the warning depth",
			},
		),
		SavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "itemcore_saves_total",
				Help: "Total number of belongings saves by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.MovesTotal)
	reg.MustRegister(m.NotificationsTotal)
	reg.MustRegister(m.NotifyDepthExceeded)
	reg.MustRegister(m.SavesTotal)

	return m
}

// RecordMove implements world.Recorder.
func (m *Metrics) RecordMove(rv world.ReturnValue) {
	m.MovesTotal.WithLabelValues(rv.String()).Inc()
}

// RecordNotification implements world.Recorder.
func (m *Metrics) RecordNotification(l world.Link) {
	m.NotificationsTotal.WithLabelValues(l.String()).Inc()
}

// RecordDepthExceeded implements world.Recorder.
func (m *Metrics) RecordDepthExceeded() {
	m.NotifyDepthExceeded.Inc()
}

// RecordSave counts a finished save. It matches the store saver's result
// callback.
func (m *Metrics) RecordSave(_ string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SavesTotal.WithLabelValues(result).Inc()
}
