package postgres

import (
	"context"
	"fmt"
	"qrportal/pkg/domain"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	qrCodesTable = "qr_codes"
)

// StoreQRCode upserts the QR image of a content. The PNG is sent as a bind
// parameter so it is stored as raw bytea.
func (p *PgSQL) StoreQRCode(ctx context.Context, code domain.QRCode) error {
	var row PgQRCode
	row.FromDomain(code)

	_, err := p.Builder.Insert(qrCodesTable).
		Prepared(true).
		Rows(row).
		OnConflict(goqu.DoUpdate("content_id", goqu.Record{
			"target_url": goqu.L("EXCLUDED.target_url"),
			"png":        goqu.L("EXCLUDED.png"),
			"verified":   goqu.L("EXCLUDED.verified"),
			"created_at": goqu.L("CURRENT_TIMESTAMP"),
		})).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not store qr code into pg: %w", err)
	}

	return nil
}

// QRCodeByContentID returns the QR image stored for a content.
func (p *PgSQL) QRCodeByContentID(ctx context.Context, id domain.ContentID) (*domain.QRCode, error) {
	var row PgQRCode
	found, err := p.Builder.From(qrCodesTable).
		Where(goqu.I("content_id").Eq(uuid.UUID(id))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch qr code: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}
