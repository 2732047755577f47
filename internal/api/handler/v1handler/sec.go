package v1handler

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"qrportal/internal/config"
	"qrportal/pkg/domain"
	"qrportal/pkg/logger"
	"qrportal/pkg/serrors"
	"strings"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey string

// UserIDKey is the context key under which the authenticated author's ID is stored.
const UserIDKey ctxKey = "UserID"

// GetUserIDFromContext returns the authenticated author, or the zero ID.
func GetUserIDFromContext(ctx context.Context) domain.UserID {
	id, _ := ctx.Value(UserIDKey).(domain.UserID)

	return id
}

type SecHandlerOptions struct {
	// PublicKey is the PEM encoded RSA key bearer tokens are verified with.
	PublicKey string
}

func NewSecHandlerOptions(cfg *config.Config) *SecHandlerOptions {
	return &SecHandlerOptions{
		PublicKey: cfg.JWT.PublicKey,
	}
}

// SecHandler authenticates authors with RS256 bearer tokens whose subject is
// the author's UUID.
type SecHandler struct {
	publicKey *rsa.PublicKey
}

func NewSecHandler(opts *SecHandlerOptions) (*SecHandler, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(opts.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("could not parse jwt public key: %w", err)
	}

	return &SecHandler{publicKey: key}, nil
}

// HandleBearerAuth verifies token and returns ctx carrying the author's ID.
func (s *SecHandler) HandleBearerAuth(ctx context.Context, token string) (context.Context, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return ctx, serrors.Wrap(serrors.ErrUnauthorized, err, "invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, serrors.Wrap(serrors.ErrUnauthorized, err, "invalid token subject")
	}

	ctx = context.WithValue(ctx, UserIDKey, domain.UserID(userID))
	ctx = logger.WithFields(ctx, zap.String("user_id", userID.String()))

	return ctx, nil
}

// Authenticate is a middleware requiring a valid "Authorization: Bearer" header.
func (s *SecHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			unauthorized(w, r, serrors.With(serrors.ErrUnauthorized, "missing bearer token"))

			return
		}

		ctx, err := s.HandleBearerAuth(r.Context(), strings.TrimSpace(token))
		if err != nil {
			unauthorized(w, r, err)

			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	logger.Debug(r.Context(), "authentication failed", zap.Error(err))

	body := ErrorBodyOf(err)
	if body == nil || !errors.Is(err, serrors.ErrUnauthorized) {
		body = &ErrorBody{Code: serrors.ErrUnauthorized.Error(), Message: "unauthorized"}
	}
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, body)
}
