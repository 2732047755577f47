package controller

import (
	"context"
	"net"
	"net/http"
	"qrportal/pkg/logger"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// responseRecorder remembers the status and body size written through it.
type responseRecorder struct {
	http.ResponseWriter

	status int
	bytes  int
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *responseRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *responseRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n

	return n, err //nolint: wrapcheck
}

// Flush lets streaming handlers push partial responses through the recorder.
func (rec *responseRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (rec *responseRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// routePattern returns the chi pattern that matched r, or "unmatched". It is
// only complete once the router has finished serving r.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}

	return "unmatched"
}

// GetClientIP returns the address of the client that sent r. Proxy headers
// take precedence over the socket address.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// "client, proxy1, proxy2"
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

// CtxKey namespaces the values this package stores in request contexts.
type CtxKey string

// RequestIDKey holds the request ID of the current request.
const RequestIDKey CtxKey = "RequestID"

// RequestIDFromContext returns the request ID set by WithLogger, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)

	return id
}

// WithLogger tags every request with an ID, gives it a logger carrying that
// ID and writes one access log line once the response is done. Server errors
// are logged at warn level.
func WithLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = logger.WithFields(ctx, zap.String("request_id", requestID))

		start := time.Now()
		rec := newResponseRecorder(w)
		next.ServeHTTP(rec, r.WithContext(ctx))

		log := logger.Info
		if rec.status >= http.StatusInternalServerError {
			log = logger.Warn
		}
		log(ctx, "access log",
			zap.String("method", r.Method),
			zap.String("route", routePattern(r)),
			zap.String("url", r.URL.String()),
			zap.Int("status_code", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", GetClientIP(r)),
			zap.String("user_agent", r.UserAgent()),
			zap.String("referer", r.Referer()),
		)
	})
}
