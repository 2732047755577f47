package content

import (
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// RenderQueue is the River queue render jobs are processed on.
const RenderQueue = "qr_render"

// RenderQRJobArgs contains the arguments of a QR render job submitted to River.
// The content ID is the unique key so a content is never rendered twice
// concurrently.
type RenderQRJobArgs struct {
	// ContentID identifies the content whose page the code links to.
	ContentID string `json:"contentId" river:"unique"`
	// ContentKind is the content kind, part of the page path.
	ContentKind string `json:"kind"`
	// TargetURL is the absolute page URL to encode.
	TargetURL string `json:"targetUrl"`

	// maxAttempts configures the maximum number of times River should retry the job.
	maxAttempts int
}

// Kind returns the River job kind used to register and dispatch the render worker.
func (args RenderQRJobArgs) Kind() string { return "RenderQRJob" }

// InsertOpts returns the River options that control how the job is enqueued,
// including the maximum retry attempts and uniqueness across live job states.
func (args RenderQRJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: args.maxAttempts,
		Queue:       RenderQueue,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}
