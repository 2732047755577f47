package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"qrportal/internal/config"
	"qrportal/internal/content"
	"qrportal/pkg/barcode"
	"qrportal/pkg/domain"
	"qrportal/pkg/logger"
	"qrportal/pkg/metrics"
	"qrportal/pkg/qrcode"
	"qrportal/pkg/serrors"
	"qrportal/pkg/storage"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// RenderQROptions configure the render worker.
type RenderQROptions struct {
	// Size is the edge length of rendered codes in pixels.
	Size int
	// RequestTimeout bounds a single render request.
	RequestTimeout time.Duration
}

// NewRenderQROptions constructs a RenderQROptions value from the provided application config.
func NewRenderQROptions(cfg *config.Config) RenderQROptions {
	return RenderQROptions{
		Size:           cfg.QR.Size,
		RequestTimeout: cfg.QR.RequestTimeout,
	}
}

// RenderQRWorker is a River worker that fetches the QR image of a content page
// from the generator, checks that it decodes back to the page URL and stores it.
//
// # Rate limiting
//
// The generator answers 429 with a Retry-After hint. The worker keeps the
// latest hint as a pause window shared by all of its concurrent jobs: while
// the window is open, jobs are snoozed until it closes instead of calling the
// generator. A later, longer hint extends the window; a shorter one never
// shrinks it.
//
// Error handling: a content that no longer exists cancels the job, as does a
// rendered image that does not decode to the page URL (it is still stored,
// unverified). Rejected requests cancel the job. Other errors are returned so
// River retries them.
type RenderQRWorker struct {
	river.WorkerDefaults[content.RenderQRJobArgs]

	options  RenderQROptions
	storage  storage.Storage
	renderer qrcode.Renderer
	decoder  barcode.Decoder

	// mu protects pausedUntil.
	mu sync.Mutex
	// pausedUntil is the end of the current rate-limit window.
	pausedUntil time.Time
	now         func() time.Time
}

// NewRenderQRWorker constructs a RenderQRWorker. The decoder must not be
// shared with live scanning.
func NewRenderQRWorker(storage storage.Storage,
	renderer qrcode.Renderer,
	decoder barcode.Decoder,
	options RenderQROptions) *RenderQRWorker {
	return &RenderQRWorker{
		options:  options,
		storage:  storage,
		renderer: renderer,
		decoder:  decoder,
		now:      time.Now,
	}
}

// Work executes a single render job and maps errors to River actions.
func (w *RenderQRWorker) Work(ctx context.Context, job *river.Job[content.RenderQRJobArgs]) error {
	ctx = logger.WithFields(ctx,
		zap.Int64("jobID", job.ID),
		zap.String("contentID", job.Args.ContentID),
		zap.String("targetURL", job.Args.TargetURL))

	id, err := uuid.Parse(job.Args.ContentID)
	if err != nil {
		return river.JobCancel(serrors.Wrap(serrors.ErrBadRequest, err, "invalid content id")) //nolint: wrapcheck
	}
	c, err := w.storage.ContentByID(ctx, domain.ContentKind(job.Args.ContentKind), domain.ContentID(id))
	if err != nil {
		return fmt.Errorf("could not get content: %w", err)
	}
	if c == nil {
		logger.Info(ctx, "content is gone, dropping render")

		return river.JobCancel(serrors.With(serrors.ErrNotFound, "content not found")) //nolint: wrapcheck
	}

	if d := w.pausedFor(); d > 0 {
		logger.Debug(ctx, "generator is rate limited, snoozing", zap.Duration("for", d))

		return river.JobSnooze(d) //nolint: wrapcheck
	}

	pngBytes, err := w.render(ctx, job.Args.TargetURL)
	if err != nil {
		if retryAfter, ok := qrcode.RetryAfter(err); ok && errors.Is(err, serrors.ErrRateLimited) {
			w.pause(retryAfter)
			metrics.QRRenders.WithLabelValues("rate_limited").Inc()
			logger.Warn(ctx, "generator rate limited", zap.Duration("retryAfter", retryAfter))

			return river.JobSnooze(retryAfter) //nolint: wrapcheck
		}
		metrics.QRRenders.WithLabelValues("failed").Inc()
		logger.Error(ctx, "error in rendering QR code", zap.Error(err))
		if errors.Is(err, serrors.ErrBadRequest) {
			return river.JobCancel(err) //nolint: wrapcheck
		}

		return fmt.Errorf("could not render QR code: %w", err)
	}

	decoded, verifyErr := w.verify(ctx, pngBytes)
	verified := verifyErr == nil && decoded == job.Args.TargetURL

	if err := w.storage.StoreQRCode(ctx, domain.QRCode{
		ContentID: c.ID,
		TargetURL: job.Args.TargetURL,
		PNG:       pngBytes,
		Verified:  verified,
	}); err != nil {
		return fmt.Errorf("could not store QR code: %w", err)
	}

	if !verified {
		metrics.QRRenders.WithLabelValues("mismatch").Inc()
		logger.Error(ctx, "rendered QR code does not decode to its target",
			zap.String("decoded", decoded),
			zap.Error(verifyErr))

		return river.JobCancel(serrors.With(serrors.ErrUnprocessable, //nolint: wrapcheck
			"rendered code decodes to %q", decoded))
	}

	metrics.QRRenders.WithLabelValues("verified").Inc()
	logger.Info(ctx, "QR code rendered successfully")

	return nil
}

func (w *RenderQRWorker) render(ctx context.Context, target string) ([]byte, error) {
	if w.options.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.options.RequestTimeout)
		defer cancel()
	}

	return w.renderer.Render(ctx, target, w.options.Size) //nolint: wrapcheck
}

// verify decodes a rendered PNG back to its text.
func (w *RenderQRWorker) verify(ctx context.Context, pngBytes []byte) (string, error) {
	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return "", fmt.Errorf("could not decode png: %w", err)
	}
	text, err := w.decoder.Decode(ctx, img)
	if err != nil {
		return "", fmt.Errorf("could not decode QR code: %w", err)
	}

	return text, nil
}

func (w *RenderQRWorker) pausedFor() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.pausedUntil.Sub(w.now())
}

func (w *RenderQRWorker) pause(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if until := w.now().Add(d); until.After(w.pausedUntil) {
		w.pausedUntil = until
	}
}
