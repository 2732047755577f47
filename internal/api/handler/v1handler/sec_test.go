package v1handler_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"qrportal/internal/api/handler/v1handler"
	"qrportal/pkg/domain"
	"qrportal/pkg/serrors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// authorKeys is the RS256 key pair an author token is signed with.
type authorKeys struct {
	priv   *rsa.PrivateKey
	pubPEM string
}

func newAuthorKeys(tb testing.TB) authorKeys {
	tb.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(tb, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(tb, err)

	return authorKeys{priv: priv, pubPEM: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))}
}

func (k authorKeys) secHandler(t *testing.T) *v1handler.SecHandler {
	t.Helper()

	sh, err := v1handler.NewSecHandler(&v1handler.SecHandlerOptions{PublicKey: k.pubPEM})
	require.NoError(t, err)

	return sh
}

// authorClaims are valid claims for author, good for an hour.
func authorClaims(author uuid.UUID) jwt.RegisteredClaims {
	now := time.Now()

	return jwt.RegisteredClaims{
		Subject:   author.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
}

func (k authorKeys) sign(tb testing.TB, claims jwt.RegisteredClaims) string {
	tb.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(k.priv)
	require.NoError(tb, err)

	return signed
}

func TestNewSecHandler_InvalidKey(t *testing.T) {
	_, err := v1handler.NewSecHandler(&v1handler.SecHandlerOptions{PublicKey: "not a pem"})
	require.Error(t, err)
}

func TestHandleBearerAuth(t *testing.T) {
	keys := newAuthorKeys(t)
	other := newAuthorKeys(t)
	sh := keys.secHandler(t)
	author := uuid.New()

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr bool
	}{
		{
			name:  "valid",
			token: func(t *testing.T) string { return keys.sign(t, authorClaims(author)) },
		},
		{
			name:    "signed by another key",
			token:   func(t *testing.T) string { return other.sign(t, authorClaims(author)) },
			wantErr: true,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				c := authorClaims(author)
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

				return keys.sign(t, c)
			},
			wantErr: true,
		},
		{
			name: "not valid yet",
			token: func(t *testing.T) string {
				c := authorClaims(author)
				c.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Hour))

				return keys.sign(t, c)
			},
			wantErr: true,
		},
		{
			name: "without expiry",
			token: func(t *testing.T) string {
				c := authorClaims(author)
				c.ExpiresAt = nil

				return keys.sign(t, c)
			},
			wantErr: true,
		},
		{
			name: "subject is not an author id",
			token: func(t *testing.T) string {
				c := authorClaims(author)
				c.Subject = "alice"

				return keys.sign(t, c)
			},
			wantErr: true,
		},
		{
			name: "hmac signed",
			token: func(t *testing.T) string {
				signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, authorClaims(author)).
					SignedString([]byte("secret"))
				require.NoError(t, err)

				return signed
			},
			wantErr: true,
		},
		{
			name: "unsigned",
			token: func(t *testing.T) string {
				signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, authorClaims(author)).
					SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)

				return signed
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := sh.HandleBearerAuth(context.Background(), tt.token(t))
			if tt.wantErr {
				require.ErrorIs(t, err, serrors.ErrUnauthorized)
				require.Equal(t, domain.UserID{}, v1handler.GetUserIDFromContext(ctx))

				return
			}
			require.NoError(t, err)
			require.Equal(t, domain.UserID(author), v1handler.GetUserIDFromContext(ctx))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	keys := newAuthorKeys(t)
	sh := keys.secHandler(t)
	author := uuid.New()

	var seen domain.UserID
	next := sh.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = v1handler.GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+keys.sign(t, authorClaims(author)))
		rec := httptest.NewRecorder()

		next.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, domain.UserID(author), seen)
	})

	for name, header := range map[string]string{
		"missing":      "",
		"empty bearer": "Bearer   ",
		"not bearer":   "Basic dXNlcjpwYXNz",
		"garbage":      "Bearer garbage",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()

			next.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			var body v1handler.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, serrors.ErrUnauthorized.Error(), body.Code)
		})
	}
}
