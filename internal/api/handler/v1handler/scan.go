package v1handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"qrportal/internal/navigation"
	"qrportal/pkg/domain"
	"qrportal/pkg/serrors"
	"strings"
	"time"

	"github.com/go-chi/render"
)

// imageField is the multipart field carrying an uploaded image.
const imageField = "image"

// multipartOverhead is allowed on top of the image cap for form boundaries
// and part headers.
const multipartOverhead = 64 << 10

// TargetResponse is where a scanned payload leads.
type TargetResponse struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func domainTargetToV1(t domain.NavigationTarget) TargetResponse {
	return TargetResponse{Kind: string(t.Kind), Value: t.Value}
}

// ResolveRequest is the body of POST /v1/scan/resolve.
type ResolveRequest struct {
	Text string `json:"text"`
}

// Bind implements render.Binder.
func (req *ResolveRequest) Bind(_ *http.Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return errors.New("text is required")
	}

	return nil
}

// SessionResponse is the camera scan session with recent navigations.
type SessionResponse struct {
	State      string             `json:"state"`
	StreamID   string             `json:"streamId,omitempty"`
	LastResult string             `json:"lastResult,omitempty"`
	LastError  *ErrorBody         `json:"lastError,omitempty"`
	LastTarget *TargetResponse    `json:"lastTarget,omitempty"`
	StartedAt  *time.Time         `json:"startedAt,omitempty"`
	History    []navigation.Entry `json:"history"`
}

func (h *Handler) sessionToV1(s domain.ScanSession) SessionResponse {
	out := SessionResponse{
		State:      string(s.State),
		StreamID:   s.StreamID,
		LastResult: s.LastResult,
		History:    []navigation.Entry{},
	}
	if s.LastError != nil {
		out.LastError = ErrorBodyOf(s.LastError)
		if out.LastError == nil {
			out.LastError = &ErrorBody{Code: serrors.ErrInternal.Error(), Message: "internal error"}
		}
	}
	if s.LastTarget != nil {
		t := domainTargetToV1(*s.LastTarget)
		out.LastTarget = &t
	}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		out.StartedAt = &t
	}
	if h.deps.History != nil {
		out.History = append(out.History, h.deps.History.History()...)
	}

	return out
}

// ScanImage decodes an uploaded image and resolves the code it holds. The
// image is either the "image" part of a multipart form or the raw body.
func (h *Handler) ScanImage(w http.ResponseWriter, r *http.Request) {
	if h.deps.MaxImageBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxImageBytes+multipartOverhead)
	}

	file, err := uploadedImage(r)
	if err != nil {
		h.respondError(w, r, err)

		return
	}
	defer file.Close()

	target, err := h.deps.Scanner.ScanImageFile(r.Context(), file)
	if err != nil {
		h.respondError(w, r, err)

		return
	}

	h.respond(w, r, http.StatusOK, domainTargetToV1(target))
}

func uploadedImage(r *http.Request) (io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}

	file, _, err := r.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, serrors.Wrap(serrors.ErrBadRequest, err, "upload exceeds %d bytes", tooLarge.Limit)
		}

		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "missing %q file part", imageField)
	}

	return file, nil
}

// ResolveText resolves a payload decoded elsewhere, e.g. by a client-side scanner.
func (h *Handler) ResolveText(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := render.Bind(r, &req); err != nil {
		h.respondError(w, r, serrors.With(serrors.ErrBadRequest, "invalid payload: %s", err))

		return
	}

	target := h.deps.Scanner.Resolve(r.Context(), req.Text)

	h.respond(w, r, http.StatusOK, domainTargetToV1(target))
}

// StartCamera starts a camera scan session.
func (h *Handler) StartCamera(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Scanner.StartCameraScan(r.Context()); err != nil {
		h.respondError(w, r, err)

		return
	}

	h.respond(w, r, http.StatusAccepted, h.sessionToV1(h.deps.Scanner.Snapshot()))
}

// StopCamera stops the camera scan session, if any.
func (h *Handler) StopCamera(w http.ResponseWriter, r *http.Request) {
	h.deps.Scanner.StopScan(r.Context())

	h.respond(w, r, http.StatusOK, h.sessionToV1(h.deps.Scanner.Snapshot()))
}

// CameraSession reports the camera scan session.
func (h *Handler) CameraSession(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, h.sessionToV1(h.deps.Scanner.Snapshot()))
}

// CameraPreview serves the latest frame of the running session.
func (h *Handler) CameraPreview(w http.ResponseWriter, r *http.Request) {
	if h.deps.Preview == nil {
		h.respondError(w, r, serrors.With(serrors.ErrNotFound, "no camera preview configured"))

		return
	}

	h.deps.Preview.ServeHTTP(w, r)
}
