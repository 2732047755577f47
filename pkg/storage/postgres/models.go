package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"qrportal/pkg/domain"
	"time"

	"github.com/google/uuid"
)

// PgContent is a row of the contents table. Body holds the kind-specific part
// (quiz questions or video details) as jsonb.
type PgContent struct {
	ID       uuid.UUID `db:"id"        goqu:"skipinsert"`
	AuthorID uuid.UUID `db:"author_id"`
	Kind     string    `db:"kind"`

	Title       string `db:"title"`
	Description string `db:"description"`
	Category    string `db:"category"`
	Body        string `db:"body"`

	CreatedAt time.Time    `db:"created_at" goqu:"skipinsert"`
	DeletedAt sql.NullTime `db:"deleted_at" goqu:"skipinsert"`
}

func (p *PgContent) ToDomain() (*domain.Content, error) {
	c := &domain.Content{
		ID:          domain.ContentID(p.ID),
		AuthorID:    domain.UserID(p.AuthorID),
		Kind:        domain.ContentKind(p.Kind),
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		CreatedAt:   p.CreatedAt,
		DeletedAt:   p.DeletedAt.Time,
	}

	var target any
	switch c.Kind {
	case domain.ContentKindQuiz:
		c.Quiz = &domain.Quiz{}
		target = c.Quiz
	case domain.ContentKindVideo:
		c.Video = &domain.Video{}
		target = c.Video
	default:
		return nil, fmt.Errorf("unknown content kind %q", p.Kind)
	}
	if err := json.Unmarshal([]byte(p.Body), target); err != nil {
		return nil, fmt.Errorf("could not unmarshal content body: %w", err)
	}

	return c, nil
}

func (p *PgContent) FromDomain(content domain.Content) error {
	var body any
	switch content.Kind {
	case domain.ContentKindQuiz:
		body = content.Quiz
	case domain.ContentKindVideo:
		body = content.Video
	default:
		return fmt.Errorf("unknown content kind %q", content.Kind)
	}
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("could not marshal content body: %w", err)
	}

	*p = PgContent{
		ID:          uuid.UUID(content.ID),
		AuthorID:    uuid.UUID(content.AuthorID),
		Kind:        string(content.Kind),
		Title:       content.Title,
		Description: content.Description,
		Category:    content.Category,
		Body:        string(b),
		CreatedAt:   content.CreatedAt,
		DeletedAt: sql.NullTime{
			Time:  content.DeletedAt,
			Valid: !content.DeletedAt.IsZero(),
		},
	}

	return nil
}

func pgContentsToDomain(contents []PgContent) ([]domain.Content, error) {
	out := make([]domain.Content, 0, len(contents))
	for _, c := range contents {
		d, err := c.ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *d)
	}

	return out, nil
}

// PgQRCode is a row of the qr_codes table.
type PgQRCode struct {
	ContentID uuid.UUID `db:"content_id"`
	TargetURL string    `db:"target_url"`
	PNG       []byte    `db:"png"`
	Verified  bool      `db:"verified"`
	CreatedAt time.Time `db:"created_at" goqu:"skipinsert"`
}

func (p *PgQRCode) ToDomain() *domain.QRCode {
	return &domain.QRCode{
		ContentID: domain.ContentID(p.ContentID),
		TargetURL: p.TargetURL,
		PNG:       p.PNG,
		Verified:  p.Verified,
		CreatedAt: p.CreatedAt,
	}
}

func (p *PgQRCode) FromDomain(code domain.QRCode) {
	*p = PgQRCode{
		ContentID: uuid.UUID(code.ContentID),
		TargetURL: code.TargetURL,
		PNG:       code.PNG,
		Verified:  code.Verified,
		CreatedAt: code.CreatedAt,
	}
}
