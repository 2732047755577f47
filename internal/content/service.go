package content

import (
	"context"
	"fmt"
	"qrportal/internal/config"
	"qrportal/pkg/domain"
	"qrportal/pkg/logger"
	"qrportal/pkg/qrcode"
	"qrportal/pkg/serrors"
	"qrportal/pkg/storage"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultLimit is the page size used when List is given none.
	DefaultLimit = 20
	// MaxLimit caps the page size of List.
	MaxLimit = 100
)

// Options configure how content pages are addressed and how their QR codes
// are rendered. These settings are typically derived from application configuration.
type Options struct {
	// PublicBaseURL is prepended to content paths to build the encoded page URL.
	PublicBaseURL string
	// QREndpoint is the hosted generator used for live QR URLs.
	QREndpoint string
	// QRSize is the edge length of QR codes in pixels.
	QRSize int
	// MaxAttempts is the maximum number of attempts the background worker should
	// make when rendering a QR code.
	MaxAttempts int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		PublicBaseURL: cfg.QR.PublicBaseURL,
		QREndpoint:    cfg.QR.Endpoint,
		QRSize:        cfg.QR.Size,
		MaxAttempts:   cfg.QR.MaxAttempts,
	}
}

// service is the concrete implementation of the Service interface.
// It coordinates persistence with the storage layer and job enqueueing.
type service struct {
	options Options
	storage storage.Storage
}

// PublicURL returns the absolute address of the page rendering c.
func (s service) PublicURL(c domain.Content) string {
	return strings.TrimRight(s.options.PublicBaseURL, "/") + c.Path()
}

// Create validates and stores a new content authored by authorID, and
// enqueues the render of its QR code in the same transaction.
func (s service) Create(ctx context.Context, authorID domain.UserID, c domain.Content) (*domain.Content, error) {
	c, err := validate(c)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid %s", c.Kind)
	}
	c.AuthorID = authorID

	var stored *domain.Content
	if err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		stored, err = tx.StoreContent(ctx, c)
		if err != nil {
			return fmt.Errorf("could not store content: %w", err)
		}

		if _, err := tx.AddJob(ctx, RenderQRJobArgs{
			ContentID:   stored.ID.String(),
			ContentKind: string(stored.Kind),
			TargetURL:   s.PublicURL(*stored),
			maxAttempts: s.options.MaxAttempts,
		}, nil); err != nil {
			return fmt.Errorf("could not add job: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not create content: %w", err)
	}

	logger.Info(ctx, "content created",
		zap.String("kind", string(stored.Kind)),
		zap.String("contentID", stored.ID.String()))

	return stored, nil
}

// Get fetches a single content. It returns a not-found error when no matching
// content exists.
func (s service) Get(ctx context.Context, kind domain.ContentKind, id domain.ContentID) (*domain.Content, error) {
	if !kind.Valid() {
		return nil, serrors.With(serrors.ErrBadRequest, "unknown content kind %q", kind)
	}
	res, err := s.storage.ContentByID(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("could not get content: %w", err)
	}
	if res == nil {
		return nil, serrors.With(serrors.ErrNotFound, "%s not found", kind)
	}

	return res, nil
}

// List returns a page of contents of a kind, newest first. It supports
// cursor-based pagination using an RFC3339 timestamp string and returns the
// next cursor when more results are available.
func (s service) List(ctx context.Context,
	kind domain.ContentKind,
	cursor string,
	limit uint) ([]domain.Content, string, error) {
	if !kind.Valid() {
		return nil, "", serrors.With(serrors.ErrBadRequest, "unknown content kind %q", kind)
	}

	var cursorTime time.Time
	if cursor != "" {
		t, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return nil, "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid cursor")
		}
		cursorTime = t
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	page, err := s.storage.ListContent(ctx, kind, cursorTime, limit)
	if err != nil {
		return nil, "", fmt.Errorf("could not list contents: %w", err)
	}

	var next string
	if page.NextCursor != nil {
		next = page.NextCursor.Format(time.RFC3339Nano)
	}

	return page.Contents, next, nil
}

// Delete soft-deletes a content owned by authorID. Contents of other authors
// are reported as not found.
func (s service) Delete(ctx context.Context,
	authorID domain.UserID,
	kind domain.ContentKind,
	id domain.ContentID) error {
	if !kind.Valid() {
		return serrors.With(serrors.ErrBadRequest, "unknown content kind %q", kind)
	}
	res, err := s.storage.DeleteContent(ctx, authorID, kind, id)
	if err != nil {
		return fmt.Errorf("could not delete content: %w", err)
	}
	if res == nil {
		return serrors.With(serrors.ErrNotFound, "%s not found", kind)
	}

	return nil
}

// QRCode returns the QR code of a content page: the stored rendering when
// available, and always the live generator URL.
func (s service) QRCode(ctx context.Context, kind domain.ContentKind, id domain.ContentID) (*QRImage, error) {
	c, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	target := s.PublicURL(*c)
	img := &QRImage{
		TargetURL:    target,
		GeneratorURL: qrcode.GeneratorURL(s.options.QREndpoint, s.options.QRSize, target),
	}

	code, err := s.storage.QRCodeByContentID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not get qr code: %w", err)
	}
	if code != nil && code.TargetURL == target {
		img.PNG = code.PNG
		img.Verified = code.Verified
	}

	return img, nil
}

// New creates a new Service instance backed by the provided storage and
// configured with the given options.
func New(storage storage.Storage, options Options) Service {
	return &service{
		options: options,
		storage: storage,
	}
}
