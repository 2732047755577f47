package worker_test

import (
	"context"
	"errors"
	"qrportal/internal/content"
	"qrportal/internal/worker"
	"qrportal/pkg/barcode/barcodetest"
	"qrportal/pkg/barcode/zxing"
	"qrportal/pkg/domain"
	"qrportal/pkg/logger"
	"qrportal/pkg/qrcode"
	mockqrcode "qrportal/pkg/qrcode/mock"
	"qrportal/pkg/serrors"
	mockstorage "qrportal/pkg/storage/mock"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

type fixture struct {
	worker   *worker.RenderQRWorker
	storage  *mockstorage.MockStorage
	renderer *mockqrcode.MockRenderer
	content  domain.Content
	target   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	decoder, err := zxing.New(zxing.Options{})
	require.NoError(t, err)

	c := domain.Content{ID: domain.ContentID(uuid.New()), Kind: domain.ContentKindQuiz}
	f := fixture{
		storage:  mockstorage.NewMockStorage(ctrl),
		renderer: mockqrcode.NewMockRenderer(ctrl),
		content:  c,
		target:   "https://portal.test" + c.Path(),
	}
	f.worker = worker.NewRenderQRWorker(f.storage, f.renderer, decoder, worker.RenderQROptions{
		Size:           120,
		RequestTimeout: time.Second,
	})

	return f
}

func (f fixture) job(id int64) *river.Job[content.RenderQRJobArgs] {
	return &river.Job[content.RenderQRJobArgs]{
		JobRow: &rivertype.JobRow{ID: id},
		Args: content.RenderQRJobArgs{
			ContentID:   f.content.ID.String(),
			ContentKind: string(f.content.Kind),
			TargetURL:   f.target,
		},
	}
}

func (f fixture) expectContent() {
	f.storage.EXPECT().ContentByID(gomock.Any(), f.content.Kind, f.content.ID).Return(&f.content, nil)
}

func TestRenderQRWorker_Work_StoresVerifiedCode(t *testing.T) {
	f := newFixture(t)
	png := barcodetest.QRPNG(t, f.target, 120)

	f.expectContent()
	f.renderer.EXPECT().Render(gomock.Any(), f.target, 120).Return(png, nil)
	f.storage.EXPECT().StoreQRCode(gomock.Any(), domain.QRCode{
		ContentID: f.content.ID,
		TargetURL: f.target,
		PNG:       png,
		Verified:  true,
	}).Return(nil)

	require.NoError(t, f.worker.Work(context.Background(), f.job(1)))
}

func TestRenderQRWorker_Work_MismatchStoredUnverifiedAndCancelled(t *testing.T) {
	f := newFixture(t)
	png := barcodetest.QRPNG(t, "https://elsewhere.test/quiz/1", 120)

	f.expectContent()
	f.renderer.EXPECT().Render(gomock.Any(), f.target, 120).Return(png, nil)
	f.storage.EXPECT().StoreQRCode(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, code domain.QRCode) error {
			require.False(t, code.Verified)
			require.Equal(t, png, code.PNG)

			return nil
		})

	err := f.worker.Work(context.Background(), f.job(2))
	var cancelErr *river.JobCancelError
	require.ErrorAs(t, err, &cancelErr)
}

func TestRenderQRWorker_Work_UndecodableImageIsUnverified(t *testing.T) {
	f := newFixture(t)
	png := barcodetest.EncodePNG(t, barcodetest.Blank(120))

	f.expectContent()
	f.renderer.EXPECT().Render(gomock.Any(), f.target, 120).Return(png, nil)
	f.storage.EXPECT().StoreQRCode(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, code domain.QRCode) error {
			require.False(t, code.Verified)

			return nil
		})

	err := f.worker.Work(context.Background(), f.job(3))
	var cancelErr *river.JobCancelError
	require.ErrorAs(t, err, &cancelErr)
}

func TestRenderQRWorker_Work_ContentGoneCancels(t *testing.T) {
	f := newFixture(t)

	f.storage.EXPECT().ContentByID(gomock.Any(), f.content.Kind, f.content.ID).Return(nil, nil)

	err := f.worker.Work(context.Background(), f.job(4))
	var cancelErr *river.JobCancelError
	require.ErrorAs(t, err, &cancelErr)
}

func TestRenderQRWorker_Work_InvalidContentIDCancels(t *testing.T) {
	f := newFixture(t)
	job := f.job(5)
	job.Args.ContentID = "nope"

	err := f.worker.Work(context.Background(), job)
	var cancelErr *river.JobCancelError
	require.ErrorAs(t, err, &cancelErr)
}

func TestRenderQRWorker_Work_RateLimitedSnoozesAllJobs(t *testing.T) {
	f := newFixture(t)
	rl := serrors.Wrap(serrors.ErrRateLimited, &qrcode.RateLimitError{RetryAfter: 2 * time.Second}, "rate limited")

	f.storage.EXPECT().ContentByID(gomock.Any(), f.content.Kind, f.content.ID).Return(&f.content, nil).Times(2)
	// only the first job reaches the generator
	f.renderer.EXPECT().Render(gomock.Any(), f.target, 120).Return(nil, rl).Times(1)

	err := f.worker.Work(context.Background(), f.job(6))
	var snoozeErr *river.JobSnoozeError
	require.ErrorAs(t, err, &snoozeErr)
	require.Equal(t, 2*time.Second, snoozeErr.Duration)

	err = f.worker.Work(context.Background(), f.job(7))
	require.ErrorAs(t, err, &snoozeErr)
	require.Greater(t, snoozeErr.Duration, time.Duration(0))
	require.LessOrEqual(t, snoozeErr.Duration, 2*time.Second)
}

func TestRenderQRWorker_Work_RejectedRequestCancels(t *testing.T) {
	f := newFixture(t)

	f.expectContent()
	f.renderer.EXPECT().Render(gomock.Any(), f.target, 120).
		Return(nil, serrors.With(serrors.ErrBadRequest, "data too long"))

	err := f.worker.Work(context.Background(), f.job(8))
	var cancelErr *river.JobCancelError
	require.ErrorAs(t, err, &cancelErr)
}

func TestRenderQRWorker_Work_GenericErrorRetried(t *testing.T) {
	f := newFixture(t)

	f.expectContent()
	f.renderer.EXPECT().Render(gomock.Any(), f.target, 120).Return(nil, errors.New("boom"))

	err := f.worker.Work(context.Background(), f.job(9))
	require.Error(t, err)
	var cancelErr *river.JobCancelError
	require.NotErrorAs(t, err, &cancelErr, "did not expect JobCancelError")
	var snoozeErr *river.JobSnoozeError
	require.NotErrorAs(t, err, &snoozeErr, "did not expect JobSnoozeError")
}

func TestRenderQRWorker_Work_StoreErrorRetried(t *testing.T) {
	f := newFixture(t)

	f.expectContent()
	f.renderer.EXPECT().Render(gomock.Any(), f.target, 120).Return(barcodetest.QRPNG(t, f.target, 120), nil)
	f.storage.EXPECT().StoreQRCode(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	err := f.worker.Work(context.Background(), f.job(10))
	require.Error(t, err)
	var cancelErr *river.JobCancelError
	require.NotErrorAs(t, err, &cancelErr)
}
