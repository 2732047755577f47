// Package qrcode builds QR code images for content pages. Codes are rendered
// by a hosted generator addressed through a URL template.
package qrcode

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is the hosted generator used when none is configured.
	DefaultEndpoint = "https://api.qrserver.com/v1/create-qr-code/"
	// DefaultSize is the edge length of generated codes in pixels.
	DefaultSize = 200
)

// Renderer fetches the PNG of a QR code encoding data.
//
//go:generate mockgen -package mockqrcode -source=interface.go -destination=mock/mockqrcode.go *
type Renderer interface {
	// Render returns the PNG bytes of a size x size code. A throttled request
	// fails with serrors.ErrRateLimited wrapping a *RateLimitError.
	Render(ctx context.Context, data string, size int) ([]byte, error)
}

// RateLimitError carries the generator's Retry-After hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "retry after " + e.RetryAfter.String()
}

// RetryAfter extracts the retry hint from err, if it carries one.
func RetryAfter(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}

	return 0, false
}

// uriComponentReplacer turns query escaping into encodeURIComponent escaping:
// spaces become %20 and the marks !'()* stay literal.
var uriComponentReplacer = strings.NewReplacer( //nolint: gochecknoglobals
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EscapeComponent escapes s the way browsers' encodeURIComponent does.
func EscapeComponent(s string) string {
	return uriComponentReplacer.Replace(url.QueryEscape(s))
}

// GeneratorURL returns the generator address of a size x size code encoding
// data. Empty endpoint and non-positive size fall back to the defaults.
func GeneratorURL(endpoint string, size int, data string) string {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if size <= 0 {
		size = DefaultSize
	}
	s := strconv.Itoa(size)

	return endpoint + "?size=" + s + "x" + s + "&data=" + EscapeComponent(data)
}
