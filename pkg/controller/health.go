package controller

import (
	"context"
	"net/http"
	"qrportal/pkg/logger"
	"slices"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency can serve requests.
type HealthCheck func(ctx context.Context) error

// HealthReport is the body written by Health.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health returns a readiness handler that runs every check with the given
// timeout. It answers 200 when all checks pass and 503 otherwise.
func Health(timeout time.Duration, checks map[string]HealthCheck) http.Handler {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	slices.Sort(names)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		report := HealthReport{Status: "ok", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				logger.Warn(ctx, "health check failed", zap.String("check", name), zap.Error(err))
				report.Checks[name] = err.Error()
				report.Status = "unavailable"
				status = http.StatusServiceUnavailable

				continue
			}
			report.Checks[name] = "ok"
		}

		render.Status(r, status)
		render.JSON(w, r, report)
	})
}
