// Package worker runs the background jobs of the service on River.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"qrportal/internal/config"
	"qrportal/internal/content"
	"qrportal/pkg/logger"
	"qrportal/pkg/metrics"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

// Options configure the River client.
type Options struct {
	// MaxWorkers is the number of render jobs processed concurrently.
	MaxWorkers int
	// JobTimeout bounds a single job attempt. Zero keeps River's default.
	JobTimeout time.Duration
}

func NewOptions(cfg *config.Config) Options {
	return Options{
		MaxWorkers: cfg.Worker.MaxWorkers,
		// a render makes one generator request plus a local decode
		JobTimeout: 2 * cfg.QR.RequestTimeout,
	}
}

// Start registers the workers and processes jobs until the returned client
// is stopped.
func Start(ctx context.Context,
	dbPool *pgxpool.Pool,
	renderWorker *RenderQRWorker,
	opts Options) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, renderWorker)

	riverClient, err := river.NewClient(riverpgxv5.New(dbPool), &river.Config{
		Queues: map[string]river.QueueConfig{
			content.RenderQueue: {MaxWorkers: max(opts.MaxWorkers, 1)},
		},
		Workers:      workers,
		JobTimeout:   opts.JobTimeout,
		ErrorHandler: &errorHandler{},
		Logger:       slog.New(zapslog.NewHandler(logger.Get(ctx).Core())),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create river client: %w", err)
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("could not start river client: %w", err)
	}

	return riverClient, nil
}

// errorHandler records failed job attempts. River keeps its retry policy.
type errorHandler struct{}

var _ river.ErrorHandler = (*errorHandler)(nil)

func (*errorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	metrics.JobFailures.WithLabelValues(job.Kind, "error").Inc()
	logger.Warn(ctx, "job attempt failed",
		zap.Int64("jobID", job.ID),
		zap.String("kind", job.Kind),
		zap.Int("attempt", job.Attempt),
		zap.Int("maxAttempts", job.MaxAttempts),
		zap.Error(err))

	return nil
}

func (*errorHandler) HandlePanic(ctx context.Context,
	job *rivertype.JobRow,
	panicVal any,
	trace string) *river.ErrorHandlerResult {
	metrics.JobFailures.WithLabelValues(job.Kind, "panic").Inc()
	logger.Error(ctx, "job panicked",
		zap.Int64("jobID", job.ID),
		zap.String("kind", job.Kind),
		zap.Any("panic", panicVal),
		zap.String("trace", trace))

	return nil
}
