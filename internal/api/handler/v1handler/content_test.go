package v1handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"qrportal/internal/api/handler/v1handler"
	"qrportal/internal/content"
	mockcontent "qrportal/internal/content/mock"
	"qrportal/pkg/domain"
	"qrportal/pkg/serrors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type contentFixture struct {
	svc    *mockcontent.MockService
	router http.Handler
	author domain.UserID
}

func newContentFixture(t *testing.T) contentFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := contentFixture{
		svc:    mockcontent.NewMockService(ctrl),
		author: domain.UserID(uuid.New()),
	}
	f.svc.EXPECT().PublicURL(gomock.Any()).DoAndReturn(func(c domain.Content) string {
		return "https://portal.example" + c.Path()
	}).AnyTimes()

	// authenticates every request as f.author
	auth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), v1handler.UserIDKey, f.author)))
		})
	}
	f.router = newRouter(v1handler.New(v1handler.Deps{Content: f.svc}), auth)

	return f
}

func (f contentFixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())

	return v
}

func TestCreateContent_Video(t *testing.T) {
	f := newContentFixture(t)
	id := domain.ContentID(uuid.New())
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	f.svc.EXPECT().Create(gomock.Any(), f.author, domain.Content{
		Kind:  domain.ContentKindVideo,
		Title: "Intro",
		Video: &domain.Video{URL: "https://videos.example/intro.mp4", Duration: "3:10"},
	}).DoAndReturn(func(_ context.Context, author domain.UserID, c domain.Content) (*domain.Content, error) {
		c.ID = id
		c.AuthorID = author
		c.CreatedAt = created

		return &c, nil
	})

	rec := f.do(http.MethodPost, "/v1/videos",
		`{"title":"Intro","url":"https://videos.example/intro.mp4","duration":"3:10"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decodeBody[v1handler.ContentResponse](t, rec)
	require.Equal(t, id.String(), res.ID)
	require.Equal(t, "video", res.Kind)
	require.Equal(t, "https://videos.example/intro.mp4", res.VideoURL)
	require.Equal(t, uuid.UUID(f.author).String(), res.AuthorID)
	require.Equal(t, "https://portal.example/video/"+id.String(), res.URL)
	require.Equal(t, "/v1/videos/"+id.String()+"/qr", res.QRURL)
	require.True(t, created.Equal(res.CreatedAt))
}

func TestCreateContent_Quiz(t *testing.T) {
	f := newContentFixture(t)
	questions := []domain.Question{{Question: "2+2?", Options: []string{"3", "4"}, Correct: 1}}

	f.svc.EXPECT().Create(gomock.Any(), f.author, domain.Content{
		Kind:  domain.ContentKindQuiz,
		Title: "Math",
		Quiz:  &domain.Quiz{Questions: questions},
	}).DoAndReturn(func(_ context.Context, _ domain.UserID, c domain.Content) (*domain.Content, error) {
		c.ID = domain.ContentID(uuid.New())

		return &c, nil
	})

	rec := f.do(http.MethodPost, "/v1/quizzes",
		`{"title":"Math","questions":[{"question":"2+2?","options":["3","4"],"correct":1}]}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decodeBody[v1handler.ContentResponse](t, rec)
	require.Equal(t, "quiz", res.Kind)
	require.Equal(t, questions, res.Questions)
}

func TestCreateContent_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"missing title", "/v1/videos", `{"url":"https://videos.example/a.mp4"}`},
		{"malformed json", "/v1/videos", `{"title":`},
		{"quiz with video fields", "/v1/quizzes", `{"title":"x","url":"https://videos.example/a.mp4"}`},
		{"video with questions", "/v1/videos", `{"title":"x","questions":[{"question":"q"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newContentFixture(t)

			rec := f.do(http.MethodPost, tt.target, tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			require.Equal(t, serrors.ErrBadRequest.Error(), decodeBody[v1handler.ErrorBody](t, rec).Code)
		})
	}
}

func TestCreateContent_ServiceRejects(t *testing.T) {
	f := newContentFixture(t)
	f.svc.EXPECT().Create(gomock.Any(), f.author, gomock.Any()).
		Return(nil, serrors.With(serrors.ErrBadRequest, "invalid video: invalid video URL"))

	rec := f.do(http.MethodPost, "/v1/videos", `{"title":"x","url":"ftp://nope"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid video: invalid video URL", decodeBody[v1handler.ErrorBody](t, rec).Message)
}

func TestGetContent(t *testing.T) {
	f := newContentFixture(t)
	id := domain.ContentID(uuid.New())

	f.svc.EXPECT().Get(gomock.Any(), domain.ContentKindQuiz, id).
		Return(&domain.Content{ID: id, Kind: domain.ContentKindQuiz, Title: "Math"}, nil)

	rec := f.do(http.MethodGet, "/v1/quizzes/"+id.String(), "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Math", decodeBody[v1handler.ContentResponse](t, rec).Title)
}

func TestGetContent_NotFound(t *testing.T) {
	f := newContentFixture(t)
	id := domain.ContentID(uuid.New())

	f.svc.EXPECT().Get(gomock.Any(), domain.ContentKindVideo, id).
		Return(nil, serrors.With(serrors.ErrNotFound, "video not found"))

	rec := f.do(http.MethodGet, "/v1/videos/"+id.String(), "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, serrors.ErrNotFound.Error(), decodeBody[v1handler.ErrorBody](t, rec).Code)
}

func TestGetContent_InvalidID(t *testing.T) {
	f := newContentFixture(t)

	rec := f.do(http.MethodGet, "/v1/videos/not-a-uuid", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListContent(t *testing.T) {
	f := newContentFixture(t)
	items := []domain.Content{
		{ID: domain.ContentID(uuid.New()), Kind: domain.ContentKindVideo, Title: "b"},
		{ID: domain.ContentID(uuid.New()), Kind: domain.ContentKindVideo, Title: "a"},
	}

	f.svc.EXPECT().List(gomock.Any(), domain.ContentKindVideo, "2026-01-01T00:00:00Z", uint(2)).
		Return(items, "2025-12-31T00:00:00Z", nil)

	rec := f.do(http.MethodGet, "/v1/videos?limit=2&cursor=2026-01-01T00:00:00Z", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeBody[v1handler.ContentList](t, rec)
	require.Len(t, res.Items, 2)
	require.Equal(t, "b", res.Items[0].Title)
	require.NotNil(t, res.NextCursor)
	require.Equal(t, "2025-12-31T00:00:00Z", *res.NextCursor)
}

func TestListContent_LastPage(t *testing.T) {
	f := newContentFixture(t)

	f.svc.EXPECT().List(gomock.Any(), domain.ContentKindQuiz, "", uint(0)).Return(nil, "", nil)

	rec := f.do(http.MethodGet, "/v1/quizzes", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"items":[],"nextCursor":null}`, rec.Body.String())
}

func TestListContent_InvalidLimit(t *testing.T) {
	f := newContentFixture(t)

	rec := f.do(http.MethodGet, "/v1/quizzes?limit=-1", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteContent(t *testing.T) {
	f := newContentFixture(t)
	id := domain.ContentID(uuid.New())

	f.svc.EXPECT().Delete(gomock.Any(), f.author, domain.ContentKindQuiz, id).Return(nil)

	rec := f.do(http.MethodDelete, "/v1/quizzes/"+id.String(), "")

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteContent_NotOwned(t *testing.T) {
	f := newContentFixture(t)
	id := domain.ContentID(uuid.New())

	f.svc.EXPECT().Delete(gomock.Any(), f.author, domain.ContentKindQuiz, id).
		Return(serrors.With(serrors.ErrNotFound, "quiz not found"))

	rec := f.do(http.MethodDelete, "/v1/quizzes/"+id.String(), "")

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContentRoutes_RequireAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mockcontent.NewMockService(ctrl)
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	router := newRouter(v1handler.New(v1handler.Deps{Content: svc}), deny)
	id := uuid.NewString()

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/v1/quizzes", strings.NewReader(`{"title":"x"}`)),
		httptest.NewRequest(http.MethodDelete, "/v1/videos/"+id, nil),
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, req.URL.Path)
	}
}

func TestContentQR(t *testing.T) {
	id := domain.ContentID(uuid.New())
	png := []byte("\x89PNG\r\n\x1a\nrest")
	generator := "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=x"

	t.Run("stored png", func(t *testing.T) {
		f := newContentFixture(t)
		f.svc.EXPECT().QRCode(gomock.Any(), domain.ContentKindVideo, id).
			Return(&content.QRImage{TargetURL: "x", GeneratorURL: generator, PNG: png, Verified: true}, nil)

		rec := f.do(http.MethodGet, "/v1/videos/"+id.String()+"/qr", "")

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		require.Equal(t, "true", rec.Header().Get("X-QR-Verified"))
		require.Equal(t, png, rec.Body.Bytes())
	})

	t.Run("pending redirects to generator", func(t *testing.T) {
		f := newContentFixture(t)
		f.svc.EXPECT().QRCode(gomock.Any(), domain.ContentKindQuiz, id).
			Return(&content.QRImage{TargetURL: "x", GeneratorURL: generator}, nil)

		rec := f.do(http.MethodGet, "/v1/quizzes/"+id.String()+"/qr", "")

		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		require.Equal(t, generator, rec.Header().Get("Location"))
	})

	t.Run("json description", func(t *testing.T) {
		f := newContentFixture(t)
		f.svc.EXPECT().QRCode(gomock.Any(), domain.ContentKindQuiz, id).
			Return(&content.QRImage{TargetURL: "x", GeneratorURL: generator, PNG: png}, nil)

		rec := f.do(http.MethodGet, "/v1/quizzes/"+id.String()+"/qr?format=json", "")

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, v1handler.QRResponse{
			TargetURL:    "x",
			GeneratorURL: generator,
			Rendered:     true,
		}, decodeBody[v1handler.QRResponse](t, rec))
	})

	t.Run("content missing", func(t *testing.T) {
		f := newContentFixture(t)
		f.svc.EXPECT().QRCode(gomock.Any(), domain.ContentKindQuiz, id).
			Return(nil, serrors.With(serrors.ErrNotFound, "quiz not found"))

		rec := f.do(http.MethodGet, "/v1/quizzes/"+id.String()+"/qr", "")

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
