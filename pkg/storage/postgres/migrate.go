package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"qrportal/pkg/storage"

	"github.com/pressly/goose/v3"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivermigrate"
)

// MigrationReport lists what a Migrate call applied.
type MigrationReport struct {
	// Schema holds the goose versions of the service tables
	Schema []int64
	// Queue holds the river versions of the job queue tables
	Queue []int
}

// Migrate applies the pending goose migrations found in dir of fsys, then
// brings the river job tables up to date. Both steps are no-ops on an up to
// date database.
func (p *PgSQL) Migrate(ctx context.Context, fsys fs.FS, dir string) (MigrationReport, error) {
	var report MigrationReport

	db, ok := p.DB.(*sql.DB)
	if !ok {
		return report, storage.ErrAlreadyInTx
	}

	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return report, fmt.Errorf("could not open migrations dir: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
	if err != nil {
		return report, fmt.Errorf("could not create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return report, fmt.Errorf("could not migrate schema: %w", err)
	}
	for _, r := range results {
		report.Schema = append(report.Schema, r.Source.Version)
	}

	migrator, err := rivermigrate.New(riverdatabasesql.New(db), nil)
	if err != nil {
		return report, fmt.Errorf("could not create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return report, fmt.Errorf("could not migrate river queue: %w", err)
	}
	for _, v := range res.Versions {
		report.Queue = append(report.Queue, v.Version)
	}

	return report, nil
}
