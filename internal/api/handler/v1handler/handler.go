// Package v1handler implements the /v1 HTTP API: content pages, their QR
// codes, and the scan resolver.
package v1handler

import (
	"context"
	"io"
	"net/http"
	"qrportal/internal/content"
	"qrportal/internal/navigation"
	"qrportal/internal/scanresolver"
	"qrportal/pkg/domain"
	"qrportal/pkg/logger"
	"qrportal/pkg/serrors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// Scanner is the part of the scan resolver the API drives.
type Scanner interface {
	StartCameraScan(ctx context.Context) error
	StopScan(ctx context.Context)
	ScanImageFile(ctx context.Context, file io.Reader) (domain.NavigationTarget, error)
	Resolve(ctx context.Context, text string) domain.NavigationTarget
	Snapshot() domain.ScanSession
}

var _ Scanner = (*scanresolver.Resolver)(nil)

// History exposes recorded navigations.
type History interface {
	History() []navigation.Entry
}

type Deps struct {
	Content content.Service
	Scanner Scanner
	History History
	// Preview serves the latest camera frame.
	Preview http.Handler
	// MaxImageBytes caps scan uploads. Zero disables the cap.
	MaxImageBytes int64
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Routes mounts the v1 endpoints on r. Author-only endpoints are wrapped with
// auth.
func (h *Handler) Routes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Route("/scan", func(r chi.Router) {
		r.Post("/image", h.ScanImage)
		r.Post("/resolve", h.ResolveText)
		r.Get("/camera", h.CameraSession)
		r.Post("/camera/start", h.StartCamera)
		r.Post("/camera/stop", h.StopCamera)
		r.Get("/camera/preview", h.CameraPreview)
	})

	for _, kind := range []domain.ContentKind{domain.ContentKindQuiz, domain.ContentKindVideo} {
		r.Route("/"+collection(kind), func(r chi.Router) {
			r.Use(withKind(kind))
			r.Get("/", h.ListContent)
			r.With(auth).Post("/", h.CreateContent)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetContent)
				r.With(auth).Delete("/", h.DeleteContent)
				r.Get("/qr", h.ContentQR)
			})
		})
	}
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse pairs an error body with its HTTP status.
type ErrorResponse struct {
	StatusCode int
	Response   ErrorBody
}

var kindStatus = map[serrors.Kind]int{
	serrors.ErrNotFound:               http.StatusNotFound,
	serrors.ErrUnauthorized:           http.StatusUnauthorized,
	serrors.ErrForbidden:              http.StatusForbidden,
	serrors.ErrBadRequest:             http.StatusBadRequest,
	serrors.ErrConflict:               http.StatusConflict,
	serrors.ErrTimeout:                http.StatusGatewayTimeout,
	serrors.ErrUnavailable:            http.StatusServiceUnavailable,
	serrors.ErrRateLimited:            http.StatusTooManyRequests,
	serrors.ErrUnprocessable:          http.StatusUnprocessableEntity,
	scanresolver.ErrCameraUnavailable: http.StatusServiceUnavailable,
	scanresolver.ErrDecodeNotFound:    http.StatusUnprocessableEntity,
	scanresolver.ErrDecodeFailed:      http.StatusUnprocessableEntity,
	scanresolver.ErrImageUnreadable:   http.StatusBadRequest,
	scanresolver.ErrScanInProgress:    http.StatusConflict,
	scanresolver.ErrScanCancelled:     http.StatusConflict,
	scanresolver.ErrScanTimeout:       http.StatusRequestTimeout,
	scanresolver.ErrResolverClosed:    http.StatusServiceUnavailable,
}

var kindMessage = map[serrors.Kind]string{
	serrors.ErrNotFound:               "resource not found",
	serrors.ErrUnauthorized:           "unauthorized",
	serrors.ErrForbidden:              "forbidden",
	serrors.ErrBadRequest:             "bad request",
	serrors.ErrConflict:               "conflict",
	serrors.ErrTimeout:                "timed out",
	serrors.ErrUnavailable:            "service unavailable",
	serrors.ErrRateLimited:            "too many requests",
	serrors.ErrUnprocessable:          "unprocessable",
	scanresolver.ErrCameraUnavailable: "camera unavailable",
	scanresolver.ErrDecodeNotFound:    "no code found",
	scanresolver.ErrDecodeFailed:      "code could not be read",
	scanresolver.ErrImageUnreadable:   "image could not be read",
	scanresolver.ErrScanInProgress:    "a scan is already in progress",
	scanresolver.ErrScanCancelled:     "scan was cancelled",
	scanresolver.ErrScanTimeout:       "scan timed out",
	scanresolver.ErrResolverClosed:    "scanner is shut down",
}

// ErrorBodyOf describes err without logging it. A nil result means err
// carries no client-facing kind.
func ErrorBodyOf(err error) *ErrorBody {
	kind := serrors.KindOf(err)
	if kind == nil || kind == serrors.ErrInternal {
		return nil
	}

	msg := serrors.MessageOf(err)
	if msg == "" {
		msg = kindMessage[kind]
	}

	return &ErrorBody{Code: kind.Error(), Message: msg}
}

// NewError maps err to a response. Errors without a known kind are logged
// and reported as internal errors; their details never reach the client.
func (h *Handler) NewError(ctx context.Context, err error) *ErrorResponse {
	body := ErrorBodyOf(err)
	status, known := 0, false
	if body != nil {
		status, known = kindStatus[serrors.KindOf(err)]
	}
	if !known {
		logger.Error(ctx, "request failed", zap.Error(err))

		return &ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Response:   ErrorBody{Code: serrors.ErrInternal.Error(), Message: "internal error"},
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Warn(ctx, "request failed", zap.Error(err))
	}

	return &ErrorResponse{StatusCode: status, Response: *body}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	res := h.NewError(r.Context(), err)
	render.Status(r, res.StatusCode)
	render.JSON(w, r, res.Response)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

type kindCtxKey struct{}

func withKind(kind domain.ContentKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), kindCtxKey{}, kind)))
		})
	}
}

func kindFromContext(ctx context.Context) domain.ContentKind {
	k, _ := ctx.Value(kindCtxKey{}).(domain.ContentKind)

	return k
}

func collection(kind domain.ContentKind) string {
	switch kind {
	case domain.ContentKindQuiz:
		return "quizzes"
	case domain.ContentKindVideo:
		return "videos"
	default:
		return string(kind)
	}
}
