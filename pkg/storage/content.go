package storage

import (
	"context"
	"qrportal/pkg/domain"
	"time"
)

// ContentPage groups a page of contents together with an optional NextCursor
// used for pagination.
type ContentPage struct {
	// Contents contains the current page of content records.
	Contents []domain.Content
	// NextCursor points to the timestamp to be used as the cursor for fetching
	// the next page. It is nil when there is no next page.
	NextCursor *time.Time
}

// ContentStorage defines persistence of quizzes and videos. Soft-deleted
// records are invisible to every read.
type ContentStorage interface {
	// StoreContent inserts a content record and returns it as stored, with the
	// generated ID and CreatedAt filled in.
	StoreContent(ctx context.Context, content domain.Content) (*domain.Content, error)
	// ContentByID fetches a content of the given kind. Returns nil when not found.
	ContentByID(ctx context.Context, kind domain.ContentKind, ID domain.ContentID) (*domain.Content, error)
	// ListContent returns a page of contents of the given kind created before
	// the optional cursor, newest first.
	ListContent(ctx context.Context, kind domain.ContentKind, cursor time.Time, limit uint) (ContentPage, error)
	// DeleteContent soft-deletes a content owned by authorID and returns it,
	// or nil if it was not found.
	DeleteContent(ctx context.Context,
		authorID domain.UserID,
		kind domain.ContentKind,
		ID domain.ContentID) (*domain.Content, error)
}

// QRCodeStorage persists rendered QR images, one per content.
type QRCodeStorage interface {
	// StoreQRCode inserts or replaces the QR image of a content.
	StoreQRCode(ctx context.Context, code domain.QRCode) error
	// QRCodeByContentID returns the stored QR image of a content, or nil.
	QRCodeByContentID(ctx context.Context, ID domain.ContentID) (*domain.QRCode, error)
}
