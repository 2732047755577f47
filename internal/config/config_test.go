package config_test

import (
	"os"
	"path/filepath"
	"qrportal/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))

	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "environment: production\n"))
	require.NoError(t, err)

	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, time.Duration(0), cfg.Scanner.MaxScanDuration)
	require.Equal(t, []string{"qr"}, cfg.Scanner.Formats)
	require.Equal(t, "https://api.qrserver.com/v1/create-qr-code/", cfg.QR.Endpoint)
	require.Equal(t, 200, cfg.QR.Size)
	require.Empty(t, cfg.Cameras)
	require.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	require.Empty(t, cfg.LogLevel)
}

func TestLoad_HTTPAndLogging(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
logLevel: warn
http:
  allowedOrigins:
    - https://portal.example
    - https://admin.portal.example
`))
	require.NoError(t, err)

	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, []string{"https://portal.example", "https://admin.portal.example"}, cfg.HTTP.AllowedOrigins)
}

func TestLoad_Cameras(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
scanner:
  maxScanDuration: 2m
cameras:
  - name: lobby
    url: http://10.0.0.5/video.mjpg
    facing: environment
`))
	require.NoError(t, err)

	require.Equal(t, 2*time.Minute, cfg.Scanner.MaxScanDuration)
	require.Len(t, cfg.Cameras, 1)
	require.Equal(t, "lobby", cfg.Cameras[0].Name)
	require.Equal(t, "environment", cfg.Cameras[0].Facing)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
