package controller_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"qrportal/pkg/controller"
	"qrportal/pkg/logger"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)

	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }
	slow := func(ctx context.Context) error {
		<-ctx.Done()

		return ctx.Err()
	}

	tests := []struct {
		name       string
		checks     map[string]controller.HealthCheck
		wantStatus int
		want       controller.HealthReport
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			want:       controller.HealthReport{Status: "ok", Checks: map[string]string{}},
		},
		{
			name:       "all passing",
			checks:     map[string]controller.HealthCheck{"database": ok},
			wantStatus: http.StatusOK,
			want:       controller.HealthReport{Status: "ok", Checks: map[string]string{"database": "ok"}},
		},
		{
			name:       "one failing",
			checks:     map[string]controller.HealthCheck{"database": down, "queue": ok},
			wantStatus: http.StatusServiceUnavailable,
			want: controller.HealthReport{
				Status: "unavailable",
				Checks: map[string]string{"database": "connection refused", "queue": "ok"},
			},
		},
		{
			name:       "timed out",
			checks:     map[string]controller.HealthCheck{"database": slow},
			wantStatus: http.StatusServiceUnavailable,
			want: controller.HealthReport{
				Status: "unavailable",
				Checks: map[string]string{"database": context.DeadlineExceeded.Error()},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			controller.Health(10*time.Millisecond, tt.checks).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			var got controller.HealthReport
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			require.Equal(t, tt.want, got)
		})
	}
}
