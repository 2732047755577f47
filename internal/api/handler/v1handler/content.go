package v1handler

import (
	"errors"
	"net/http"
	"qrportal/pkg/domain"
	"qrportal/pkg/serrors"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

// ContentRequest is the body of POST /v1/quizzes and POST /v1/videos. The
// route decides the kind; the fields of the other kind must be absent.
type ContentRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Questions   []domain.Question `json:"questions,omitempty"`
	URL         string            `json:"url,omitempty"`
	Duration    string            `json:"duration,omitempty"`
}

// Bind implements render.Binder.
func (req *ContentRequest) Bind(_ *http.Request) error {
	if strings.TrimSpace(req.Title) == "" {
		return errors.New("title is required")
	}

	return nil
}

func (req *ContentRequest) toDomain(kind domain.ContentKind) (domain.Content, error) {
	c := domain.Content{
		Kind:        kind,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	switch kind {
	case domain.ContentKindQuiz:
		if req.URL != "" || req.Duration != "" {
			return c, serrors.With(serrors.ErrBadRequest, "a quiz cannot carry video details")
		}
		c.Quiz = &domain.Quiz{Questions: req.Questions}
	case domain.ContentKindVideo:
		if len(req.Questions) > 0 {
			return c, serrors.With(serrors.ErrBadRequest, "a video cannot carry quiz questions")
		}
		c.Video = &domain.Video{URL: req.URL, Duration: req.Duration}
	}

	return c, nil
}

// ContentResponse is the API view of a content page.
type ContentResponse struct {
	ID          string            `json:"id"`
	Kind        string            `json:"kind"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Questions   []domain.Question `json:"questions,omitempty"`
	VideoURL    string            `json:"videoUrl,omitempty"`
	Duration    string            `json:"duration,omitempty"`
	AuthorID    string            `json:"authorId"`
	// URL is where the page is rendered; the QR code encodes it.
	URL       string    `json:"url"`
	QRURL     string    `json:"qrUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContentList is a page of contents.
type ContentList struct {
	Items      []ContentResponse `json:"items"`
	NextCursor *string           `json:"nextCursor"`
}

// QRResponse describes the QR code of a content page.
type QRResponse struct {
	TargetURL    string `json:"targetUrl"`
	GeneratorURL string `json:"generatorUrl"`
	Rendered     bool   `json:"rendered"`
	Verified     bool   `json:"verified"`
}

func (h *Handler) domainContentToV1(in *domain.Content) ContentResponse {
	out := ContentResponse{
		ID:          in.ID.String(),
		Kind:        string(in.Kind),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		AuthorID:    uuid.UUID(in.AuthorID).String(),
		URL:         h.deps.Content.PublicURL(*in),
		QRURL:       "/v1/" + collection(in.Kind) + "/" + in.ID.String() + "/qr",
		CreatedAt:   in.CreatedAt,
	}
	if in.Quiz != nil {
		out.Questions = in.Quiz.Questions
	}
	if in.Video != nil {
		out.VideoURL = in.Video.URL
		out.Duration = in.Video.Duration
	}

	return out
}

func contentIDParam(r *http.Request) (domain.ContentID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return domain.ContentID{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid id")
	}

	return domain.ContentID(id), nil
}

// CreateContent stores a quiz or video and schedules its QR rendering.
func (h *Handler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if err := render.Bind(r, &req); err != nil {
		h.respondError(w, r, serrors.With(serrors.ErrBadRequest, "invalid payload: %s", err))

		return
	}

	c, err := req.toDomain(kindFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)

		return
	}

	stored, err := h.deps.Content.Create(r.Context(), GetUserIDFromContext(r.Context()), c)
	if err != nil {
		h.respondError(w, r, err)

		return
	}

	h.respond(w, r, http.StatusCreated, h.domainContentToV1(stored))
}

// GetContent returns a single content page.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, err := contentIDParam(r)
	if err != nil {
		h.respondError(w, r, err)

		return
	}

	c, err := h.deps.Content.Get(r.Context(), kindFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)

		return
	}

	h.respond(w, r, http.StatusOK, h.domainContentToV1(c))
}

// ListContent returns a page of contents of the route's kind.
func (h *Handler) ListContent(w http.ResponseWriter, r *http.Request) {
	var limit uint64
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			h.respondError(w, r, serrors.Wrap(serrors.ErrBadRequest, err, "invalid limit"))

			return
		}
		limit = l
	}

	contents, next, err := h.deps.Content.List(r.Context(),
		kindFromContext(r.Context()),
		r.URL.Query().Get("cursor"),
		uint(limit))
	if err != nil {
		h.respondError(w, r, err)

		return
	}

	items := make([]ContentResponse, 0, len(contents))
	for i := range contents {
		items = append(items, h.domainContentToV1(&contents[i]))
	}

	var cursor *string
	if next != "" {
		cursor = &next
	}

	h.respond(w, r, http.StatusOK, ContentList{Items: items, NextCursor: cursor})
}

// DeleteContent removes a content page owned by the caller.
func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	id, err := contentIDParam(r)
	if err != nil {
		h.respondError(w, r, err)

		return
	}

	err = h.deps.Content.Delete(r.Context(), GetUserIDFromContext(r.Context()), kindFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ContentQR serves the QR code of a content page. JSON clients get its
// description; others get the stored PNG, or a redirect to the generator
// while the rendering is pending.
func (h *Handler) ContentQR(w http.ResponseWriter, r *http.Request) {
	id, err := contentIDParam(r)
	if err != nil {
		h.respondError(w, r, err)

		return
	}

	img, err := h.deps.Content.QRCode(r.Context(), kindFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)

		return
	}

	if wantsJSON(r) {
		h.respond(w, r, http.StatusOK, QRResponse{
			TargetURL:    img.TargetURL,
			GeneratorURL: img.GeneratorURL,
			Rendered:     len(img.PNG) > 0,
			Verified:     img.Verified,
		})

		return
	}

	if len(img.PNG) == 0 {
		http.Redirect(w, r, img.GeneratorURL, http.StatusTemporaryRedirect)

		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img.PNG)))
	w.Header().Set("X-QR-Verified", strconv.FormatBool(img.Verified))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.PNG)
}

func wantsJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == "json" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
