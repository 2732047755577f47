package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Camera describes a network camera the scanner may open.
type Camera struct {
	// Name is a human-readable label used in logs
	Name string `yaml:"name"`
	// URL is the MJPEG endpoint of the camera
	URL string `yaml:"url"`
	// Facing is "environment" for rear cameras or "user" for front ones
	Facing string `yaml:"facing"`
}

// Config represents the application configuration structure.
// It contains settings for the environment, HTTP server, database connection,
// authentication, scanning, QR generation and graceful shutdown behavior.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel overrides the environment's default log level (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" yaml:"logLevel"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"30s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// AllowedOrigins lists the browser origins allowed to call the API; "*" allows any
		AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" env-default:"*" yaml:"allowedOrigins"`
	} `yaml:"http"`

	// Database contains all database connection related configurations
	Database struct {
		// Username for database authentication
		Username string `env:"DATABASE_USERNAME" env-default:"myuser" yaml:"username"`
		// Password for database authentication
		Password string `env:"DATABASE_PASSWORD" env-default:"mypassword" yaml:"password"`
		// Host is the database server hostname or IP address
		Host string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		// Port is the database server port number
		Port int `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		// SslMode defines the SSL mode for the database connection
		SslMode string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		// DatabaseName is the name of the database to connect to
		DatabaseName string `env:"DATABASE_NAME" env-default:"qrportal" yaml:"name"`
		// MaxOpenConnections limits the number of open connections to the database
		MaxOpenConnections int `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
		// MaxIdleConnections limits the number of connections in the idle connection pool
		MaxIdleConnections int `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"8" yaml:"maxIdleConnections"`
		// ConnMaxLifetime is the maximum amount of time a connection may be reused
		ConnMaxLifetime time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		// ConnMaxIdleTime is the maximum amount of time a connection may be idle
		ConnMaxIdleTime time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	// JWT holds the RS256 key pair used to sign (CLI) and verify (API) author tokens
	JWT struct {
		// PublicKey is the PEM encoded key used to verify bearer tokens
		PublicKey string `env:"JWT_PUBLIC_KEY" yaml:"publicKey"`
		// PrivateKey is the PEM encoded key used by the jwt command to sign tokens
		PrivateKey string `env:"JWT_PRIVATE_KEY" yaml:"privateKey"`
	} `yaml:"jwt"`

	// Scanner configures the scan resolver
	Scanner struct {
		// MaxScanDuration bounds a camera scan session; zero keeps scanning until stopped
		MaxScanDuration time.Duration `env:"SCANNER_MAX_SCAN_DURATION" env-default:"0s" yaml:"maxScanDuration"`
		// FrameBuffer is the number of camera frames buffered for the decoder
		FrameBuffer int `env:"SCANNER_FRAME_BUFFER" env-default:"2" yaml:"frameBuffer"`
		// Formats lists the barcode symbologies to look for (qr, datamatrix)
		Formats []string `env:"SCANNER_FORMATS" env-default:"qr" yaml:"formats"`
		// TryHarder makes the decoder spend more time on difficult images
		TryHarder bool `env:"SCANNER_TRY_HARDER" env-default:"true" yaml:"tryHarder"`
		// MaxImageBytes caps the size of uploaded images
		MaxImageBytes int64 `env:"SCANNER_MAX_IMAGE_BYTES" env-default:"10485760" yaml:"maxImageBytes"`
		// PreviewQuality is the JPEG quality of the camera preview
		PreviewQuality int `env:"SCANNER_PREVIEW_QUALITY" env-default:"75" yaml:"previewQuality"`
	} `yaml:"scanner"`

	// Cameras lists the network cameras available to the scanner
	Cameras []Camera `yaml:"cameras"`

	// QR configures QR code generation
	QR struct {
		// Endpoint is the hosted QR rendering endpoint
		Endpoint string `env:"QR_ENDPOINT" env-default:"https://api.qrserver.com/v1/create-qr-code/" yaml:"endpoint"`
		// Size is the edge length of rendered codes in pixels
		Size int `env:"QR_SIZE" env-default:"200" yaml:"size"`
		// PublicBaseURL is prepended to content paths to build the encoded page URL
		PublicBaseURL string `env:"QR_PUBLIC_BASE_URL" env-default:"http://localhost:8080" yaml:"publicBaseURL"`
		// RequestTimeout bounds a single render request
		RequestTimeout time.Duration `env:"QR_REQUEST_TIMEOUT" env-default:"10s" yaml:"requestTimeout"`
		// MaxAttempts is the number of times a render job is tried before it is discarded
		MaxAttempts int `env:"QR_MAX_ATTEMPTS" env-default:"5" yaml:"maxAttempts"`
	} `yaml:"qr"`

	// Worker configures the background job processing
	Worker struct {
		// MaxWorkers is the number of QR render jobs processed concurrently
		MaxWorkers int `env:"WORKER_MAX_WORKERS" env-default:"10" yaml:"maxWorkers"`
	} `yaml:"worker"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
func Load(configPath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}
