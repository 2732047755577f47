// Package storage declares the persistence the portal needs: contents, their
// rendered QR codes and the render job queue. pkg/storage/postgres implements
// it; the mock package is generated from this file.
//
//go:generate mockgen -package mockstorage -source=interface.go -destination=mock/mockstorage.go *
package storage

import "context"

// AllStorage is what both plain and transactional handles can do.
type AllStorage interface {
	ContentStorage
	QRCodeStorage
	JobStorage
}

// TxStorage is a handle bound to an open transaction. It must not be used
// after Commit or Rollback.
type TxStorage interface {
	AllStorage

	Commit() error
	Rollback() error
}

// Storage is the long-lived handle created at startup.
type Storage interface {
	AllStorage

	// Close releases the connection pool.
	Close() error
	// Begin opens a transaction.
	Begin(ctx context.Context) (TxStorage, error)
	// WithTx runs cb in a transaction, committing when cb returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, cb func(storage AllStorage) error) error
}
