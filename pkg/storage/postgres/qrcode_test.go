package postgres_test

import (
	"context"
	"qrportal/pkg/barcode/barcodetest"
	"qrportal/pkg/domain"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPgSQL_QRCode(t *testing.T) {
	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	c, err := pgSQL.StoreContent(ctx, newQuiz(domain.UserID(uuid.New()), "q"))
	require.NoError(t, err)

	got, err := pgSQL.QRCodeByContentID(ctx, c.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	target := "https://portal.test" + c.Path()
	png := barcodetest.QRPNG(t, target, 64)
	require.NoError(t, pgSQL.StoreQRCode(ctx, domain.QRCode{
		ContentID: c.ID,
		TargetURL: target,
		PNG:       png,
	}))

	got, err = pgSQL.QRCodeByContentID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, png, got.PNG)
	require.Equal(t, target, got.TargetURL)
	require.False(t, got.Verified)
	require.False(t, got.CreatedAt.IsZero())

	// storing again replaces the image
	require.NoError(t, pgSQL.StoreQRCode(ctx, domain.QRCode{
		ContentID: c.ID,
		TargetURL: target,
		PNG:       png,
		Verified:  true,
	}))
	got, err = pgSQL.QRCodeByContentID(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, got.Verified)
}
