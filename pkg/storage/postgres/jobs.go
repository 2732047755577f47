package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivertype"
)

// AddJob enqueues a river job. Inside a transaction the job becomes visible to
// workers only when the transaction commits, so a content and its render job
// are stored together or not at all. It reports false when a unique job with
// the same arguments was already queued.
func (p *PgSQL) AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error) {
	// an insert-only client: no queues, so it never fetches work
	db, _ := p.DB.(*sql.DB)
	client, err := river.NewClient(riverdatabasesql.New(db), &river.Config{})
	if err != nil {
		return false, fmt.Errorf("could not create river client: %w", err)
	}

	var res *rivertype.JobInsertResult
	if tx, ok := p.DB.(*sql.Tx); ok {
		res, err = client.InsertTx(ctx, tx, args, opts)
	} else {
		res, err = client.Insert(ctx, args, opts)
	}
	if err != nil {
		return false, fmt.Errorf("could not insert %s job: %w", args.Kind(), err)
	}

	return !res.UniqueSkippedAsDuplicate, nil
}
