package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"qrportal/internal/api"
	"qrportal/internal/api/handler/v1handler"
	"qrportal/internal/config"
	"qrportal/internal/content"
	"qrportal/internal/navigation"
	"qrportal/internal/scanresolver"
	"qrportal/internal/worker"
	"qrportal/pkg/barcode"
	"qrportal/pkg/barcode/zxing"
	"qrportal/pkg/camera"
	"qrportal/pkg/camera/mjpeg"
	"qrportal/pkg/camera/preview"
	"qrportal/pkg/controller"
	"qrportal/pkg/logger"
	"qrportal/pkg/qrcode/qrserver"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config, deps api.Deps) func(ctx context.Context) {
	server, err := api.NewServer(deps, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

// newDecoder builds a barcode decoder from the scanner config. Each consumer
// gets its own decoder since Reset clears shared state.
func newDecoder(ctx context.Context, cfg *config.Config) barcode.Decoder {
	formats := make([]barcode.Format, 0, len(cfg.Scanner.Formats))
	for _, f := range cfg.Scanner.Formats {
		formats = append(formats, barcode.Format(f))
	}

	d, err := zxing.New(zxing.Options{Formats: formats, TryHarder: cfg.Scanner.TryHarder})
	if err != nil {
		logger.Fatal(ctx, "could not create barcode decoder", zap.Error(err))
	}

	return d
}

func newCameraSource(cfg *config.Config) *mjpeg.Source {
	devices := make([]mjpeg.Device, 0, len(cfg.Cameras))
	for _, c := range cfg.Cameras {
		devices = append(devices, mjpeg.Device{
			Name:   c.Name,
			URL:    c.URL,
			Facing: camera.Facing(c.Facing),
		})
	}

	return mjpeg.New(mjpeg.Options{
		Devices:     devices,
		FrameBuffer: cfg.Scanner.FrameBuffer,
		HTTPClient:  &http.Client{},
	})
}

func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts API server, scan resolver and background workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			// scan resolver
			surface := preview.New(cfg.Scanner.PreviewQuality)
			history := navigation.New(navigation.DefaultHistory)
			resolver := scanresolver.New(scanresolver.Deps{
				Source:  newCameraSource(cfg),
				Surface: surface,
				Decoder: newDecoder(ctx, cfg),
				Router:  history,
				Opener:  history,
			}, scanresolver.NewOptions(cfg))

			// qr render worker
			renderer := qrserver.New(&http.Client{Timeout: cfg.QR.RequestTimeout}, cfg.QR.Endpoint)
			renderWorker := worker.NewRenderQRWorker(strg, renderer, newDecoder(ctx, cfg), worker.NewRenderQROptions(cfg))
			riverClient, err := worker.Start(ctx, strg.Pool, renderWorker, worker.NewOptions(cfg))
			if err != nil {
				logger.Fatal(ctx, "could not start workers", zap.Error(err))
			}

			stopWebserver := setupServer(ctx, cfg, api.Deps{
				Deps: v1handler.Deps{
					Content:       content.New(strg, content.NewOptions(cfg)),
					Scanner:       resolver,
					History:       history,
					Preview:       surface,
					MaxImageBytes: cfg.Scanner.MaxImageBytes,
				},
				HealthChecks: map[string]controller.HealthCheck{
					"database": strg.Ping,
				},
			})

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)

			logger.Info(shutdownCtx, "stopping scan resolver...")
			if err := resolver.Close(shutdownCtx); err != nil {
				logger.Error(shutdownCtx, "could not stop scan resolver", zap.Error(err))
			}

			logger.Info(shutdownCtx, "stopping workers...")
			if err := riverClient.Stop(shutdownCtx); err != nil {
				logger.Error(shutdownCtx, "could not stop workers", zap.Error(err))
			}
		},
	}

	return cmd
}
