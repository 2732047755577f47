// Command qrportal runs the QR portal: the HTTP API, the scan resolver and
// the QR render workers, plus the maintenance subcommands around them.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"qrportal/internal/config"
	"qrportal/pkg/logger"
	"qrportal/pkg/storage/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// getPostgres connects to the configured database. The returned func closes it.
func getPostgres(ctx context.Context, cfg *config.Config) (*postgres.PgSQL, func()) {
	db := cfg.Database
	pgsql, err := postgres.New(ctx, postgres.Options{
		Username:           db.Username,
		Password:           db.Password,
		Host:               db.Host,
		Port:               db.Port,
		Database:           db.DatabaseName,
		SslMode:            db.SslMode,
		ApplicationName:    "qrportal",
		ConnMaxLifetime:    db.ConnMaxLifetime,
		ConnMaxIdleTime:    db.ConnMaxIdleTime,
		MaxOpenConnections: db.MaxOpenConnections,
		MaxIdleConnections: db.MaxIdleConnections,
	})
	if err != nil {
		logger.Fatal(ctx, "could not create postgres storage", zap.Error(err))
	}

	return pgsql, func() {
		logger.Info(ctx, "closing postgres client...")
		if err := pgsql.Close(); err != nil {
			logger.Warn(ctx, "could not close postgres connection", zap.Error(err))
		}
	}
}

func setupLogger(cfg *config.Config) {
	var opts []logger.Option
	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			log.Fatal("invalid log level: ", err)
		}
		opts = append(opts, logger.WithLevel(level))
	}

	logger.Setup(cfg.Environment, opts...)
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "qrportal",
		Short:        "Quiz and video pages reachable through QR codes",
		SilenceUsage: true,
	}

	// cobra parses flags only when a command runs, but the config is needed to
	// build the commands. Declare -c for cobra and read it with package flag.
	rootCmd.PersistentFlags().StringP("config", "c", "config.yml", "config file path")
	configPath := flag.String("c", "config.yml", "config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("could not load config file: ", err)
	}
	setupLogger(cfg)

	ctx := context.Background()
	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync(ctx)

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		migrateCommand(cfg),
		serveCommand(cfg),
		JWTCommand(cfg),
		decodeCommand(cfg),
	)

	err = rootCmd.Execute()
	logger.Sync(ctx)
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}
