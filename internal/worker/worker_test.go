package worker

import (
	"context"
	"errors"
	"qrportal/pkg/logger"
	"qrportal/pkg/metrics"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorHandler(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))
	job := &rivertype.JobRow{ID: 7, Kind: "error_handler_test", Attempt: 2, MaxAttempts: 5}
	h := &errorHandler{}

	errorsBefore := testutil.ToFloat64(metrics.JobFailures.WithLabelValues(job.Kind, "error"))
	panicsBefore := testutil.ToFloat64(metrics.JobFailures.WithLabelValues(job.Kind, "panic"))

	require.Nil(t, h.HandleError(ctx, job, errors.New("generator unreachable")))
	require.Nil(t, h.HandlePanic(ctx, job, "nil map", "goroutine 1 [running]"))

	require.InDelta(t, errorsBefore+1, testutil.ToFloat64(metrics.JobFailures.WithLabelValues(job.Kind, "error")), 0)
	require.InDelta(t, panicsBefore+1, testutil.ToFloat64(metrics.JobFailures.WithLabelValues(job.Kind, "panic")), 0)

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, zap.WarnLevel, entries[0].Level)
	require.Equal(t, int64(2), entries[0].ContextMap()["attempt"])
	require.Equal(t, zap.ErrorLevel, entries[1].Level)
	require.Equal(t, "nil map", entries[1].ContextMap()["panic"])
}
