package storage

import (
	"context"

	"github.com/riverqueue/river"
)

// JobStorage enqueues background jobs next to the data they refer to.
type JobStorage interface {
	// AddJob queues a job. On a TxStorage the job is only visible to workers
	// once the transaction commits. It returns false when a unique job with the
	// same arguments was already queued.
	AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error)
}
