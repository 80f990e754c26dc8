// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status labels for task metrics.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusPanic    = "panic"
	StatusDropped  = "dropped"
	StatusCanceled = "canceled"
)

// QueueDepth is the number of tasks waiting for the engine goroutine.
// Use RegisterMetrics to register this with a Prometheus registry.
var QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "itemcore_dispatch_queue_depth",
	Help: "Tasks queued for the engine goroutine",
})

// TaskDuration is the histogram of task run times.
// Use RegisterMetrics to register this with a Prometheus registry.
var TaskDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "itemcore_dispatch_task_duration_seconds",
		Help:    "Engine task duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"task"},
)

// TasksTotal counts tasks by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var TasksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "itemcore_dispatch_tasks_total",
		Help: "Total number of engine tasks by outcome",
	},
	[]string{"task", "status"},
)

// RegisterMetrics registers dispatcher metrics with reg.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(QueueDepth)
	reg.MustRegister(TaskDuration)
	reg.MustRegister(TasksTotal)
}

func recordTask(name, status string, d time.Duration) {
	TasksTotal.WithLabelValues(name, status).Inc()
	if status != StatusDropped && status != StatusCanceled {
		TaskDuration.WithLabelValues(name).Observe(d.Seconds())
	}
}
