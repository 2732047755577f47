// Package metrics holds the Prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "qrportal"

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// Scan sources.
const (
	SourceCamera = "camera"
	SourceImage  = "image"
)

var (
	// ScanOutcomes counts finished scan attempts by source and outcome.
	ScanOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint: gochecknoglobals
		Namespace: namespace,
		Subsystem: "scan",
		Name:      "outcomes_total",
		Help:      "Finished scan attempts by source and outcome.",
	}, []string{"source", "outcome"})

	// DecodeDuration observes single decode passes.
	DecodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint: gochecknoglobals
		Namespace: namespace,
		Subsystem: "scan",
		Name:      "decode_duration_seconds",
		Help:      "Duration of a single barcode decode pass.",
		Buckets:   DefaultBuckets,
	}, []string{"source"})

	// ActiveSessions is 1 while a camera is held.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{ //nolint: gochecknoglobals
		Namespace: namespace,
		Subsystem: "scan",
		Name:      "camera_sessions_active",
		Help:      "Camera scan sessions currently holding a device.",
	})

	// QRRenders counts QR render jobs by result.
	QRRenders = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint: gochecknoglobals
		Namespace: namespace,
		Subsystem: "qr",
		Name:      "renders_total",
		Help:      "QR code render attempts by result.",
	}, []string{"result"})

	// JobFailures counts failed background job attempts by job kind and reason.
	JobFailures = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint: gochecknoglobals
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "failures_total",
		Help:      "Failed background job attempts by kind and reason (error, panic).",
	}, []string{"kind", "reason"})
)
