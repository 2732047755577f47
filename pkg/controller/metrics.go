package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "qrportal/pkg/controller"

// WithMetrics returns a middleware recording request counts and latencies on
// meters from mp. Use it inside a chi router so requests are labeled with
// their route pattern rather than the raw path.
func WithMetrics(mp metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	meter := mp.Meter(meterName)

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of handled HTTP requests."))
	if err != nil {
		return nil, fmt.Errorf("could not create requests counter: %w", err)
	}
	duration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("Duration of handled HTTP requests."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("could not create duration histogram: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newResponseRecorder(w)

			next.ServeHTTP(rec, r)

			route := routePattern(r)
			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.status_code", strconv.Itoa(rec.status)),
			)
			requests.Add(r.Context(), 1, attrs)
			duration.Record(r.Context(), time.Since(start).Seconds(), attrs)
		})
	}, nil
}
