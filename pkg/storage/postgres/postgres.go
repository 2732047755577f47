// Package postgres stores quizzes, videos, rendered QR codes and queued render
// jobs in PostgreSQL. Queries are built with goqu on top of a pgx pool.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"qrportal/pkg/storage"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

const dialect = "postgres"

// Options holds the connection settings of the pool.
type Options struct {
	Username string
	Password string
	Host     string
	Port     int
	Database string
	// SslMode is passed through as the sslmode parameter ("disable", "require", ...)
	SslMode string
	// ApplicationName shows up in pg_stat_activity
	ApplicationName string

	// Zero values below keep the pgxpool defaults.
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	MaxOpenConnections int
	MaxIdleConnections int
}

// connString renders o as a postgres:// URL.
func (o Options) connString() string {
	q := url.Values{}
	if o.SslMode != "" {
		q.Set("sslmode", o.SslMode)
	}
	if o.ApplicationName != "" {
		q.Set("application_name", o.ApplicationName)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(o.Username, o.Password),
		Host:     net.JoinHostPort(o.Host, strconv.Itoa(o.Port)),
		Path:     "/" + o.Database,
		RawQuery: q.Encode(),
	}

	return u.String()
}

// DB is the part of database/sql shared by *sql.DB and *sql.Tx, so that every
// query runs the same way inside and outside a transaction.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Builder is the part of goqu shared by *goqu.Database and *goqu.TxDatabase.
type Builder interface {
	From(table ...any) *goqu.SelectDataset
	Insert(table any) *goqu.InsertDataset
	Update(table any) *goqu.UpdateDataset
}

// PgSQL is the PostgreSQL implementation of storage.Storage. A PgSQL returned
// by Begin is bound to a transaction and can't open another one.
type PgSQL struct {
	// DB is a *sql.DB, or a *sql.Tx inside a transaction.
	DB DB
	// Builder builds queries bound to DB.
	Builder Builder
	// Pool is the pgx pool behind DB. It's nil inside a transaction.
	Pool *pgxpool.Pool
}

var _ storage.Storage = (*PgSQL)(nil)

// New connects to PostgreSQL. The returned PgSQL exposes the pool both to pgx
// consumers (river) and, through database/sql, to goqu and goose.
func New(ctx context.Context, options Options) (*PgSQL, error) {
	cfg, err := pgxpool.ParseConfig(options.connString())
	if err != nil {
		return nil, fmt.Errorf("could not parse pgxpool config: %w", err)
	}
	if options.MaxOpenConnections > 0 {
		cfg.MaxConns = int32(options.MaxOpenConnections) //nolint: gosec
	}
	if options.MaxIdleConnections > 0 {
		cfg.MinConns = int32(min(options.MaxIdleConnections, int(cfg.MaxConns))) //nolint: gosec
	}
	if options.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = options.ConnMaxLifetime
	}
	if options.ConnMaxIdleTime > 0 {
		cfg.MaxConnIdleTime = options.ConnMaxIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create pgx pool: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)

	return &PgSQL{
		DB:      sqlDB,
		Builder: goqu.Dialect(dialect).DB(sqlDB),
		Pool:    pool,
	}, nil
}

// Ping checks that the database answers.
func (p *PgSQL) Ping(ctx context.Context) error {
	var err error
	if p.Pool != nil {
		err = p.Pool.Ping(ctx)
	} else {
		_, err = p.DB.ExecContext(ctx, "SELECT 1")
	}
	if err != nil {
		return fmt.Errorf("could not ping postgres: %w", err)
	}

	return nil
}

// Close releases the database/sql wrapper and the pool under it.
func (p *PgSQL) Close() error {
	var err error
	if db, ok := p.DB.(*sql.DB); ok {
		err = db.Close()
	}
	if p.Pool != nil {
		p.Pool.Close()
	}
	if err != nil {
		return fmt.Errorf("could not close postgres: %w", err)
	}

	return nil
}

// Begin opens a transaction. Nested transactions are not supported.
func (p *PgSQL) Begin(ctx context.Context) (storage.TxStorage, error) {
	db, ok := p.DB.(*sql.DB)
	if !ok {
		return nil, storage.ErrAlreadyInTx
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin tx: %w", err)
	}

	return &PgSQL{
		DB:      tx,
		Builder: goqu.NewTx(dialect, tx),
	}, nil
}

func (p *PgSQL) Commit() error {
	tx, ok := p.DB.(*sql.Tx)
	if !ok {
		return storage.ErrNotInTx
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit tx: %w", err)
	}

	return nil
}

func (p *PgSQL) Rollback() error {
	tx, ok := p.DB.(*sql.Tx)
	if !ok {
		return storage.ErrNotInTx
	}
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("could not rollback tx: %w", err)
	}

	return nil
}

// WithTx runs cb in a transaction that is committed when cb returns nil and
// rolled back otherwise. A panic in cb rolls back before propagating.
func (p *PgSQL) WithTx(ctx context.Context, cb func(storage storage.AllStorage) error) (err error) {
	tx, err := p.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err = cb(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}

		return err
	}

	return tx.Commit()
}
