package content

import (
	"context"
	"qrportal/pkg/domain"
)

// QRImage is the QR code of a content page. PNG is empty until the render job
// stored an image; GeneratorURL always points at a live rendering.
type QRImage struct {
	TargetURL    string
	GeneratorURL string
	PNG          []byte
	Verified     bool
}

//go:generate mockgen -package mockcontent -source=interface.go -destination=mock/mockcontent.go *
type Service interface {
	Create(ctx context.Context, authorID domain.UserID, c domain.Content) (*domain.Content, error)
	Get(ctx context.Context, kind domain.ContentKind, id domain.ContentID) (*domain.Content, error)
	List(ctx context.Context,
		kind domain.ContentKind,
		cursor string,
		limit uint) ([]domain.Content, string, error)
	Delete(ctx context.Context, authorID domain.UserID, kind domain.ContentKind, id domain.ContentID) error
	QRCode(ctx context.Context, kind domain.ContentKind, id domain.ContentID) (*QRImage, error)
	PublicURL(c domain.Content) string
}
