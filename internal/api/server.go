// Package api assembles the HTTP server: the /v1 routes, their OpenAPI
// document and docs UI, metrics, health and profiling endpoints.
package api

import (
	_ "embed"
	"fmt"
	"net/http"
	"qrportal/internal/api/handler/v1handler"
	"qrportal/internal/config"
	"qrportal/pkg/controller"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const (
	healthTimeout = 2 * time.Second
	timeoutBody   = `{"code":"TIMEOUT","message":"request timed out"}`
)

//go:embed specs/v1.yaml
var v1Spec []byte

// Options configures the server. Zero timeouts keep the net/http defaults.
type Options struct {
	SecHandlerOptions *v1handler.SecHandlerOptions

	Addr              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// RequestTimeout bounds each /v1 request. Debug and metrics endpoints are
	// not limited so that long profiles can complete.
	RequestTimeout time.Duration
	// MetricsPath serves the prometheus metrics.
	MetricsPath string
	// AllowedOrigins lists the browser origins allowed by CORS. Empty allows any.
	AllowedOrigins []string
}

func NewOptions(cfg *config.Config) Options {
	return Options{
		SecHandlerOptions: v1handler.NewSecHandlerOptions(cfg),
		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MetricsPath:       cfg.HTTP.MetricsPath,
		AllowedOrigins:    cfg.HTTP.AllowedOrigins,
	}
}

type Deps struct {
	v1handler.Deps

	// Registerer receives the otel exporter's collectors and Gatherer backs
	// the metrics endpoint. Both default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	// HealthChecks back the /healthz endpoint, keyed by dependency name.
	HealthChecks map[string]controller.HealthCheck
}

func (d Deps) registerer() prometheus.Registerer {
	if d.Registerer == nil {
		return prometheus.DefaultRegisterer
	}

	return d.Registerer
}

func (d Deps) gatherer() http.Handler {
	if d.Gatherer == nil {
		return promhttp.Handler()
	}

	return promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})
}

// NewServer returns an *http.Server serving NewHandler.
func NewServer(deps Deps, opts Options) (*http.Server, error) {
	handler, err := NewHandler(deps, opts)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}, nil
}

// NewHandler builds the root router:
//
//	/v1/...            API, bearer auth on author endpoints
//	/v1/docs/          swagger UI over /specs/v1.yaml
//	/healthz           readiness of HealthChecks
//	MetricsPath        prometheus, including per-route otel request metrics
//	/debug/pprof/      profiling
func NewHandler(deps Deps, opts Options) (http.Handler, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(deps.registerer()))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}
	withMetrics, err := controller.WithMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)))
	if err != nil {
		return nil, fmt.Errorf("could not create metrics middleware: %w", err)
	}

	secHandler, err := v1handler.NewSecHandler(opts.SecHandlerOptions)
	if err != nil {
		return nil, fmt.Errorf("could not create sec handler: %w", err)
	}
	v1 := v1handler.New(deps.Deps)

	r := chi.NewRouter()
	r.Use(controller.WithLogger, controller.WithCORS(opts.AllowedOrigins), withMetrics)

	r.Handle(opts.MetricsPath, deps.gatherer())
	r.Handle("/healthz", controller.Health(healthTimeout, deps.HealthChecks))
	r.Handle(controller.PprofPrefix+"*", controller.PprofMux())
	r.Get("/specs/v1.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(v1Spec)
	})

	r.Route("/v1", func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(func(next http.Handler) http.Handler {
				return http.TimeoutHandler(next, opts.RequestTimeout, timeoutBody)
			})
		}
		r.Handle("/docs/*", v5emb.New("QR Portal", "/specs/v1.yaml", "/v1/docs/"))
		v1.Routes(r, secHandler.Authenticate)
	})

	return r, nil
}
