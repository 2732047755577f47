// Package qrserver provides a qrcode.Renderer backed by the goQR.me
// (api.qrserver.com) create-qr-code API.
package qrserver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"qrportal/pkg/qrcode"
	"qrportal/pkg/serrors"
	"strconv"
	"strings"
	"time"
)

// defaultRetryAfter is used when a throttled response carries no usable hint.
const defaultRetryAfter = 30 * time.Second

// maxPNGBytes caps the size of a rendered image.
const maxPNGBytes = 4 << 20

var pngMagic = []byte("\x89PNG\r\n\x1a\n") //nolint: gochecknoglobals

// Client renders QR codes through a create-qr-code endpoint. It is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client // httpClient performs the render requests
	endpoint   string       // endpoint is the generator URL without query
}

// ParseRetryAfter reads the Retry-After header, which holds either a number
// of seconds or an HTTP date. It returns defaultRetryAfter when absent or
// unparsable.
func ParseRetryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}

		return 0
	}

	return defaultRetryAfter
}

// Render fetches a PNG of a size x size code encoding data.
func (c *Client) Render(ctx context.Context, data string, size int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, qrcode.GeneratorURL(c.endpoint, size, data), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "image/png")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPNGBytes+1))
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, serrors.Wrap(serrors.ErrRateLimited,
			&qrcode.RateLimitError{RetryAfter: ParseRetryAfter(resp.Header, time.Now())},
			"rate limited")
	}
	if resp.StatusCode == http.StatusBadRequest {
		return nil, serrors.With(serrors.ErrBadRequest, "render rejected: %s", strings.TrimSpace(string(b)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, serrors.With(serrors.ErrUnavailable, "render failed with status %d", resp.StatusCode)
	}
	if len(b) > maxPNGBytes {
		return nil, fmt.Errorf("rendered image exceeds %d bytes", maxPNGBytes)
	}
	if !bytes.HasPrefix(b, pngMagic) {
		return nil, fmt.Errorf("response is not a PNG image")
	}

	return b, nil
}

// Ensure Client conforms to the qrcode.Renderer interface at compile time.
var _ qrcode.Renderer = (*Client)(nil)

// New constructs a Client that uses the provided http.Client to reach
// endpoint. An empty endpoint selects qrcode.DefaultEndpoint.
func New(httpClient *http.Client, endpoint string) *Client {
	if endpoint == "" {
		endpoint = qrcode.DefaultEndpoint
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}
