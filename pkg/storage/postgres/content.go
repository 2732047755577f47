package postgres

import (
	"context"
	"fmt"
	"qrportal/pkg/domain"
	"qrportal/pkg/storage"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	contentsTable = "contents"
)

// StoreContent inserts a content row. Values are sent as bind parameters so
// the jsonb body reaches the driver untouched.
func (p *PgSQL) StoreContent(ctx context.Context, content domain.Content) (*domain.Content, error) {
	var row PgContent
	if err := row.FromDomain(content); err != nil {
		return nil, err
	}

	var result PgContent
	found, err := p.Builder.Insert(contentsTable).
		Prepared(true).
		Rows(row).
		Returning(&PgContent{}).
		Executor().ScanStructContext(ctx, &result)
	if err != nil {
		return nil, fmt.Errorf("could not store content into pg: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("could not store content into pg: no row returned")
	}

	return result.ToDomain()
}

// ContentByID returns a content by its kind and ID, excluding soft-deleted rows.
func (p *PgSQL) ContentByID(ctx context.Context,
	kind domain.ContentKind,
	id domain.ContentID) (*domain.Content, error) {
	var row PgContent
	found, err := p.Builder.From(contentsTable).
		Where(
			goqu.I("id").Eq(uuid.UUID(id)),
			goqu.I("kind").Eq(string(kind)),
			goqu.I("deleted_at").IsNull(),
		).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch content by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// ListContent returns contents of a kind filtered by optional cursor and limited by limit.
// Results are ordered by created_at DESC, id DESC.
func (p *PgSQL) ListContent(ctx context.Context,
	kind domain.ContentKind,
	cursor time.Time,
	limit uint) (storage.ContentPage, error) {
	w := []goqu.Expression{
		goqu.I("kind").Eq(string(kind)),
		goqu.I("deleted_at").IsNull(),
	}
	if !cursor.IsZero() {
		w = append(w, goqu.I("created_at").Lt(cursor))
	}

	// fetch one extra to determine if there is a next page
	ds := p.Builder.From(contentsTable).
		Where(w...).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Limit(limit + 1)

	var rows []PgContent
	if err := ds.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return storage.ContentPage{}, fmt.Errorf("could not fetch contents from pg: %w", err)
	}

	var nextCursor *time.Time
	if uint(len(rows)) > limit {
		rows = rows[:limit]
		if limit > 0 {
			nextCursor = &rows[len(rows)-1].CreatedAt
		}
	}

	contents, err := pgContentsToDomain(rows)
	if err != nil {
		return storage.ContentPage{}, err
	}

	return storage.ContentPage{
		Contents:   contents,
		NextCursor: nextCursor,
	}, nil
}

// DeleteContent performs a soft delete by setting deleted_at timestamp
// for a given content owned by authorID, returning the deleted record.
func (p *PgSQL) DeleteContent(ctx context.Context,
	authorID domain.UserID,
	kind domain.ContentKind,
	id domain.ContentID) (*domain.Content, error) {
	var row PgContent
	found, err := p.Builder.Update(contentsTable).
		Set(goqu.Record{
			"deleted_at": goqu.L("CURRENT_TIMESTAMP"),
		}).Where(
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("kind").Eq(string(kind)),
		goqu.I("author_id").Eq(uuid.UUID(authorID)),
		goqu.I("deleted_at").IsNull(),
	).Returning(&PgContent{}).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not delete content in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}
