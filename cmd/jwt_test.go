package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"qrportal/internal/api/handler/v1handler"
	"qrportal/internal/config"
	"qrportal/pkg/domain"
	"qrportal/pkg/logger"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func keyPair(t *testing.T) (string, string) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pub, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})),
		string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}))
}

func runJWT(t *testing.T, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := JWTCommand(cfg)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()

	return strings.TrimSpace(stdout.String()), stderr.String(), err
}

func TestJWTCommand(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)
	priv, pub := keyPair(t)
	cfg := &config.Config{}
	cfg.JWT.PrivateKey = priv

	sec, err := v1handler.NewSecHandler(&v1handler.SecHandlerOptions{PublicKey: pub})
	require.NoError(t, err)

	t.Run("given subject", func(t *testing.T) {
		author := uuid.New()
		token, _, err := runJWT(t, cfg, "--subject", author.String(), "--ttl", "5m")
		require.NoError(t, err)

		ctx, err := sec.HandleBearerAuth(context.Background(), token)
		require.NoError(t, err)
		require.Equal(t, domain.UserID(author), v1handler.GetUserIDFromContext(ctx))
	})

	t.Run("minted subject", func(t *testing.T) {
		token, stderr, err := runJWT(t, cfg)
		require.NoError(t, err)
		require.Contains(t, stderr, "minted author")

		ctx, err := sec.HandleBearerAuth(context.Background(), token)
		require.NoError(t, err)
		require.Contains(t, stderr, uuid.UUID(v1handler.GetUserIDFromContext(ctx)).String())
	})

	t.Run("invalid input", func(t *testing.T) {
		_, _, err := runJWT(t, cfg, "--subject", "alice")
		require.ErrorContains(t, err, "subject must be a UUID")

		_, _, err = runJWT(t, cfg, "--ttl", "0s")
		require.ErrorContains(t, err, "ttl must be positive")

		_, _, err = runJWT(t, &config.Config{})
		require.ErrorContains(t, err, "could not parse RSA private key")
	})
}
