// Package scanresolver turns scanned QR payloads into navigation. It owns one
// camera scan session at a time, decodes uploaded images, and classifies the
// decoded text as an in-app route or an external link.
package scanresolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoding
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding
	"io"
	"qrportal/internal/config"
	"qrportal/pkg/barcode"
	"qrportal/pkg/camera"
	"qrportal/pkg/domain"
	"qrportal/pkg/logger"
	"qrportal/pkg/metrics"
	"qrportal/pkg/serrors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tracerName = "qrportal/internal/scanresolver"

// Options configure scanning behavior.
type Options struct {
	// MaxScanDuration bounds a camera session. Zero keeps scanning until stopped.
	MaxScanDuration time.Duration
	// MaxImageBytes caps uploaded images. Zero disables the cap.
	MaxImageBytes int64
	// Facing is the camera direction requested on start.
	Facing camera.Facing
	// OnClose is called after an in-app navigation to close the scanning UI.
	OnClose func(ctx context.Context)
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		MaxScanDuration: cfg.Scanner.MaxScanDuration,
		MaxImageBytes:   cfg.Scanner.MaxImageBytes,
		Facing:          camera.FacingEnvironment,
	}
}

// Deps are the handles the resolver drives.
type Deps struct {
	Source  camera.Source
	Surface camera.Surface
	Decoder barcode.Decoder
	Router  Router
	Opener  Opener
}

// Resolver coordinates camera acquisition, decoding and navigation.
// All session state is guarded by mu; generation changes whenever a session
// is started or torn down so stale decode results can be told apart.
type Resolver struct {
	options Options
	source  camera.Source
	surface camera.Surface
	decoder barcode.Decoder
	router  Router
	opener  Opener

	mu         sync.Mutex
	state      domain.ScanState
	acquiring  bool
	closed     bool
	generation uint64
	stream     camera.Stream
	cancelLoop context.CancelFunc
	loopDone   chan struct{}
	startedAt  time.Time
	lastResult string
	lastError  error
	lastTarget *domain.NavigationTarget
}

// New creates a Resolver in the Idle state.
func New(deps Deps, opts Options) *Resolver {
	if opts.Facing == "" {
		opts.Facing = camera.FacingEnvironment
	}

	return &Resolver{
		options: opts,
		source:  deps.Source,
		surface: deps.Surface,
		decoder: deps.Decoder,
		router:  deps.Router,
		opener:  deps.Opener,
		state:   domain.ScanStateIdle,
	}
}

// StartCameraScan acquires a camera and starts decoding its frames in the
// background. The first decoded payload stops the session and is resolved.
// On acquisition failure the session stays Idle with ErrCameraUnavailable
// recorded; there is no automatic retry.
func (r *Resolver) StartCameraScan(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()

		return serrors.KindOnly(ErrResolverClosed)
	}
	if r.acquiring || r.state == domain.ScanStateScanning {
		r.mu.Unlock()

		return serrors.With(ErrScanInProgress, "a camera scan is already in progress")
	}
	r.acquiring = true
	r.lastError = nil
	gen := r.generation
	r.mu.Unlock()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "scanresolver.StartCameraScan")
	defer span.End()

	stream, err := r.source.Open(ctx, camera.Constraints{Facing: r.options.Facing})

	r.mu.Lock()
	r.acquiring = false
	if err != nil {
		err = serrors.Wrap(ErrCameraUnavailable, err, "camera access failed")
		if gen == r.generation {
			r.lastError = err
		}
		r.state = domain.ScanStateIdle
		r.mu.Unlock()

		span.RecordError(err)
		metrics.ScanOutcomes.WithLabelValues(metrics.SourceCamera, "camera_unavailable").Inc()
		logger.Warn(ctx, "could not acquire camera", zap.Error(err))

		return err
	}
	if gen != r.generation || r.closed {
		r.mu.Unlock()
		camera.StopAll(stream)
		metrics.ScanOutcomes.WithLabelValues(metrics.SourceCamera, "cancelled").Inc()

		return serrors.With(ErrScanCancelled, "scan stopped while the camera was being acquired")
	}

	r.generation++
	gen = r.generation
	loopCtx, cancel := r.sessionContext(ctx)
	done := make(chan struct{})
	r.stream = stream
	r.state = domain.ScanStateScanning
	r.startedAt = time.Now()
	r.cancelLoop = cancel
	r.loopDone = done
	r.surface.Bind(stream)
	r.mu.Unlock()

	metrics.ActiveSessions.Inc()
	span.SetAttributes(attribute.String("stream.id", stream.ID()))
	loopCtx = logger.WithFields(loopCtx, zap.String("streamID", stream.ID()))
	logger.Info(loopCtx, "camera scan started")

	go r.decodeLoop(loopCtx, gen, stream, done)

	return nil
}

// sessionContext returns the context of a decode loop. It outlives the
// request that started the session and is bounded by MaxScanDuration.
func (r *Resolver) sessionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if r.options.MaxScanDuration > 0 {
		return context.WithTimeout(base, r.options.MaxScanDuration)
	}

	return context.WithCancel(base)
}

func (r *Resolver) decodeLoop(ctx context.Context, gen uint64, stream camera.Stream, done chan struct{}) {
	defer close(done)

	frames := stream.Frames()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				r.endSession(ctx, gen, "timeout", serrors.With(ErrScanTimeout,
					"no code found within %s", r.options.MaxScanDuration))
			}

			return
		case frame, ok := <-frames:
			if !ok {
				r.endSession(ctx, gen, "camera_unavailable",
					serrors.With(ErrCameraUnavailable, "camera stream ended"))

				return
			}
			if !r.present(gen, frame) {
				return
			}

			text, err := r.decode(ctx, metrics.SourceCamera, frame)
			if err != nil {
				if !errors.Is(err, barcode.ErrNotFound) {
					r.recordFrameError(ctx, gen, err)
				}

				continue
			}
			if !r.claim(ctx, gen) {
				return
			}
			target := r.Resolve(context.WithoutCancel(ctx), text)
			metrics.ScanOutcomes.WithLabelValues(metrics.SourceCamera, "resolved_"+string(target.Kind)).Inc()

			return
		}
	}
}

func (r *Resolver) decode(ctx context.Context, source string, img image.Image) (string, error) {
	start := time.Now()
	text, err := r.decoder.Decode(ctx, img)
	metrics.DecodeDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	return text, err //nolint: wrapcheck
}

// present shows frame on the surface if session gen is still the bound one.
// Binding changes happen under r.mu too, so a frame never reaches a surface
// bound to a newer stream.
func (r *Resolver) present(gen uint64, frame image.Image) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation || r.state != domain.ScanStateScanning {
		return false
	}
	r.surface.Present(frame)

	return true
}

// claim tears down the session gen for a decoded payload. It reports false
// when the session was already stopped, in which case the payload is dropped.
func (r *Resolver) claim(ctx context.Context, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation || r.state != domain.ScanStateScanning {
		return false
	}
	r.releaseLocked()
	logger.Info(ctx, "camera scan decoded a code")

	return true
}

func (r *Resolver) recordFrameError(ctx context.Context, gen uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		return
	}
	r.lastError = serrors.Wrap(ErrDecodeFailed, err, "could not read code")
	logger.Debug(ctx, "could not read code from frame", zap.Error(err))
}

func (r *Resolver) endSession(ctx context.Context, gen uint64, outcome string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation || r.state != domain.ScanStateScanning {
		return
	}
	r.lastError = err
	r.releaseLocked()
	metrics.ScanOutcomes.WithLabelValues(metrics.SourceCamera, outcome).Inc()
	logger.Warn(ctx, "camera scan ended", zap.Error(err))
}

// releaseLocked stops the current session, if any. r.mu must be held.
func (r *Resolver) releaseLocked() {
	r.generation++
	if r.cancelLoop != nil {
		r.cancelLoop()
		r.cancelLoop = nil
	}
	if r.stream != nil {
		camera.StopAll(r.stream)
		r.surface.Unbind()
		r.decoder.Reset()
		r.stream = nil
		metrics.ActiveSessions.Dec()
	}
	r.state = domain.ScanStateIdle
	r.startedAt = time.Time{}
}

// StopScan stops the current session. It is a no-op when no camera is held,
// and it also abandons an in-flight acquisition. Once it returns no decode
// from the stopped session is acted upon.
func (r *Resolver) StopScan(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := r.stream != nil
	r.releaseLocked()
	if active {
		metrics.ScanOutcomes.WithLabelValues(metrics.SourceCamera, "stopped").Inc()
		logger.Info(ctx, "camera scan stopped")
	}
}

// ScanImageFile decodes a single uploaded image and resolves its payload.
// The session state is left untouched, and upload errors are only recorded
// while no camera session is acquiring or scanning.
func (r *Resolver) ScanImageFile(ctx context.Context, file io.Reader) (domain.NavigationTarget, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return domain.NavigationTarget{}, serrors.KindOnly(ErrResolverClosed)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "scanresolver.ScanImageFile")
	defer span.End()

	img, err := r.readImage(file)
	if err != nil {
		metrics.ScanOutcomes.WithLabelValues(metrics.SourceImage, "unreadable").Inc()

		return domain.NavigationTarget{}, r.fail(err)
	}

	text, err := r.decode(ctx, metrics.SourceImage, img)
	if errors.Is(err, barcode.ErrNotFound) {
		metrics.ScanOutcomes.WithLabelValues(metrics.SourceImage, "not_found").Inc()

		return domain.NavigationTarget{}, r.fail(serrors.Wrap(ErrDecodeNotFound, err, "no code found in the image"))
	}
	if err != nil {
		span.RecordError(err)
		metrics.ScanOutcomes.WithLabelValues(metrics.SourceImage, "decode_failed").Inc()

		return domain.NavigationTarget{}, r.fail(serrors.Wrap(ErrDecodeFailed, err, "could not read code"))
	}

	target := r.Resolve(ctx, text)
	metrics.ScanOutcomes.WithLabelValues(metrics.SourceImage, "resolved_"+string(target.Kind)).Inc()

	return target, nil
}

func (r *Resolver) readImage(file io.Reader) (image.Image, error) {
	if r.options.MaxImageBytes > 0 {
		file = io.LimitReader(file, r.options.MaxImageBytes+1)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, serrors.Wrap(ErrImageUnreadable, err, "could not read image")
	}
	if r.options.MaxImageBytes > 0 && int64(len(data)) > r.options.MaxImageBytes {
		return nil, serrors.With(ErrImageUnreadable, "image exceeds %d bytes", r.options.MaxImageBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, serrors.Wrap(ErrImageUnreadable, err, "unsupported image")
	}

	return img, nil
}

func (r *Resolver) fail(err error) error {
	r.mu.Lock()
	if !r.acquiring && r.state != domain.ScanStateScanning {
		r.lastError = err
	}
	r.mu.Unlock()

	return err
}

// Snapshot returns the current session state.
func (r *Resolver) Snapshot() domain.ScanSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := domain.ScanSession{
		State:      r.state,
		LastResult: r.lastResult,
		LastError:  r.lastError,
		StartedAt:  r.startedAt,
	}
	if r.stream != nil {
		s.StreamID = r.stream.ID()
	}
	if r.lastTarget != nil {
		t := *r.lastTarget
		s.LastTarget = &t
	}

	return s
}

// Close stops any session, waits for its decode loop to exit and rejects
// further scans.
func (r *Resolver) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	done := r.loopDone
	r.mu.Unlock()

	r.StopScan(ctx)

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("could not wait for decode loop: %w", ctx.Err())
	}
}
