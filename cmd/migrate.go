package main

import (
	"context"
	root "qrportal"
	"qrportal/internal/config"
	"qrportal/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCommand applies the pending schema and job queue migrations.
func migrateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Migrates database to the latest version",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			report, err := strg.Migrate(ctx, root.Migrations, "migrations")
			if err != nil {
				logger.Fatal(ctx, "could not migrate database", zap.Error(err))
			}

			logger.Info(ctx, "database migrated",
				zap.Int64s("schema_versions", report.Schema),
				zap.Ints("queue_versions", report.Queue),
			)
		},
	}
}
