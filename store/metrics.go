package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-operation counters and latencies for collections.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the store metrics and registers them with reg.
// A nil registerer leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canopy_store_operations_total",
			Help: "Store operations by table, operation and result.",
		},
		[]string{
			"table",
			"op",
			"result",
		},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "canopy_store_operation_duration_seconds",
			Help:    "Store operation latency by table and operation.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
		[]string{
			"table",
			"op",
		},
	)

	m := Metrics{
		operations: operations,
		duration:   duration,
	}

	if reg != nil {
		reg.MustRegister(m.operations)
		reg.MustRegister(m.duration)
	}

	return &m
}

// Operations returns the operation counter for table/op/result. Intended for tests.
func (m *Metrics) Operations(table, op, result string) prometheus.Counter {
	return m.operations.WithLabelValues(table, op, result)
}

func (m *Metrics) observe(table, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(table, op, result).Inc()
	m.duration.WithLabelValues(table, op).Observe(time.Since(start).Seconds())
}
