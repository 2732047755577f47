// Package mjpeg implements camera.Source over network cameras that publish
// Motion JPEG as a multipart/x-mixed-replace HTTP response.
package mjpeg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"qrportal/pkg/camera"
	"qrportal/pkg/logger"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Device is a network camera reachable over HTTP.
type Device struct {
	// Name is a human-readable label used in logs.
	Name string
	// URL is the MJPEG endpoint of the camera.
	URL string
	// Facing is where the camera points to.
	Facing camera.Facing
}

// Options configure a Source.
type Options struct {
	// Devices lists the cameras the source can open, in preference order.
	Devices []Device
	// FrameBuffer is the number of decoded frames kept for a slow consumer.
	// Older frames are dropped first. Values below 1 mean 1.
	FrameBuffer int
	// HTTPClient performs the stream requests. It must not set a Timeout,
	// since streams are long-lived.
	HTTPClient *http.Client
}

// Source opens MJPEG camera streams.
type Source struct {
	devices     []Device
	frameBuffer int
	httpClient  *http.Client
}

var _ camera.Source = (*Source)(nil)

// New constructs a Source from opts.
func New(opts Options) *Source {
	buf := opts.FrameBuffer
	if buf < 1 {
		buf = 1
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Source{
		devices:     opts.Devices,
		frameBuffer: buf,
		httpClient:  client,
	}
}

// pick returns the first device facing the requested way, falling back to the
// first device when none matches.
func (s *Source) pick(facing camera.Facing) (Device, bool) {
	if len(s.devices) == 0 {
		return Device{}, false
	}
	for _, d := range s.devices {
		if d.Facing == facing {
			return d, true
		}
	}

	return s.devices[0], true
}

// Open connects to the preferred device and starts decoding its frames. The
// stream outlives ctx; it ends when its track is stopped or the camera hangs up.
func (s *Source) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	dev, ok := s.pick(c.Facing)
	if !ok {
		return nil, camera.ErrNoDevice
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, dev.URL, nil)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("could not create request: %w", err)
	}

	// acquisition itself is bounded by the caller's context
	stopWatch := context.AfterFunc(ctx, cancel)
	resp, err := s.httpClient.Do(req) //nolint: bodyclose
	if !stopWatch() {
		cancel()
		if err == nil {
			_ = resp.Body.Close()
		}

		return nil, fmt.Errorf("could not open camera %s: %w", dev.Name, ctx.Err())
	}
	if err != nil {
		cancel()

		return nil, fmt.Errorf("could not open camera %s: %w", dev.Name, err)
	}

	boundary, err := checkResponse(resp)
	if err != nil {
		_ = resp.Body.Close()
		cancel()

		return nil, fmt.Errorf("camera %s: %w", dev.Name, err)
	}

	st := &stream{
		id:     uuid.NewString(),
		frames: make(chan image.Image, s.frameBuffer),
		track:  &track{cancel: cancel},
	}
	go st.read(logger.WithFields(streamCtx, zap.String("camera", dev.Name), zap.String("streamID", st.id)),
		resp.Body, boundary)

	return st, nil
}

func checkResponse(resp *http.Response) (string, error) {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", camera.ErrPermissionDenied
	case resp.StatusCode == http.StatusNotFound:
		return "", camera.ErrNoDevice
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("could not parse content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return "", fmt.Errorf("unexpected content type %q", mediaType)
	}
	// some cameras repeat the dashes in the parameter
	boundary := strings.TrimPrefix(params["boundary"], "--")
	if boundary == "" {
		return "", errors.New("missing multipart boundary")
	}

	return boundary, nil
}

type stream struct {
	id     string
	frames chan image.Image
	track  *track
}

func (s *stream) ID() string                 { return s.id }
func (s *stream) Frames() <-chan image.Image { return s.frames }
func (s *stream) Tracks() []camera.Track     { return []camera.Track{s.track} }

// read decodes JPEG parts until the body ends or the track is stopped. It is
// the only sender on frames and closes it on exit.
func (s *stream) read(ctx context.Context, body io.ReadCloser, boundary string) {
	defer func() {
		_ = body.Close()
		s.track.Stop()
		close(s.frames)
	}()

	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				logger.Warn(ctx, "camera stream ended", zap.Error(err))
			}

			return
		}

		img, err := jpeg.Decode(part)
		_ = part.Close()
		if err != nil {
			logger.Debug(ctx, "skipping undecodable frame", zap.Error(err))

			continue
		}

		s.push(img)
	}
}

// push delivers img, dropping the oldest buffered frame when the consumer lags.
func (s *stream) push(img image.Image) {
	for {
		select {
		case s.frames <- img:
			return
		default:
		}
		select {
		case <-s.frames:
		default:
		}
	}
}

type track struct {
	once   sync.Once
	cancel context.CancelFunc
}

func (t *track) Kind() string { return "video" }

func (t *track) Stop() {
	t.once.Do(t.cancel)
}
