package mjpeg_test

import (
	"context"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"qrportal/pkg/barcode/barcodetest"
	"qrportal/pkg/camera"
	"qrportal/pkg/camera/mjpeg"
	"qrportal/pkg/logger"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

// mjpegServer streams JPEG frames until the client goes away.
func mjpegServer(t *testing.T, frames int) *httptest.Server {
	t.Helper()

	img := barcodetest.QRImage(t, "https://example.com/quiz/1", 160)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := multipart.NewWriter(w)
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mw.Boundary())
		w.WriteHeader(http.StatusOK)

		for i := 0; frames < 0 || i < frames; i++ {
			part, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"image/jpeg"}})
			if err != nil {
				return
			}
			if err := jpeg.Encode(part, img, nil); err != nil {
				return
			}
			w.(http.Flusher).Flush()

			select {
			case <-r.Context().Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
		_ = mw.Close()
	}))
}

func TestSource_Open_StreamsFramesUntilStopped(t *testing.T) {
	srv := mjpegServer(t, -1)
	defer srv.Close()

	src := mjpeg.New(mjpeg.Options{Devices: []mjpeg.Device{{Name: "rear", URL: srv.URL, Facing: camera.FacingEnvironment}}})
	st, err := src.Open(context.Background(), camera.Constraints{Facing: camera.FacingEnvironment})
	require.NoError(t, err)
	require.NotEmpty(t, st.ID())
	require.Len(t, st.Tracks(), 1)
	require.Equal(t, "video", st.Tracks()[0].Kind())

	select {
	case frame := <-st.Frames():
		require.NotNil(t, frame)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}

	camera.StopAll(st)

	// frames must be closed once the track is stopped
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-st.Frames():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("frames channel not closed after stop")
		}
	}
}

func TestSource_Open_StreamEndClosesFrames(t *testing.T) {
	srv := mjpegServer(t, 2)
	defer srv.Close()

	src := mjpeg.New(mjpeg.Options{Devices: []mjpeg.Device{{Name: "cam", URL: srv.URL}}, FrameBuffer: 4})
	st, err := src.Open(context.Background(), camera.Constraints{Facing: camera.FacingEnvironment})
	require.NoError(t, err)

	count := 0
	for range st.Frames() {
		count++
	}
	require.Equal(t, 2, count)
}

func TestSource_Open_PrefersFacing(t *testing.T) {
	hits := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- r.URL.Path
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	src := mjpeg.New(mjpeg.Options{Devices: []mjpeg.Device{
		{Name: "front", URL: srv.URL + "/front", Facing: camera.FacingUser},
		{Name: "rear", URL: srv.URL + "/rear", Facing: camera.FacingEnvironment},
	}})
	_, err := src.Open(context.Background(), camera.Constraints{Facing: camera.FacingEnvironment})
	require.ErrorIs(t, err, camera.ErrNoDevice)
	require.Len(t, hits, 1)
	require.Equal(t, "/rear", <-hits)
}

func TestSource_Open_Errors(t *testing.T) {
	forbidden := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer forbidden.Close()

	notMultipart := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello"))
	}))
	defer notMultipart.Close()

	tests := []struct {
		name    string
		devices []mjpeg.Device
		target  error
	}{
		{name: "no devices", target: camera.ErrNoDevice},
		{name: "forbidden", devices: []mjpeg.Device{{URL: forbidden.URL}}, target: camera.ErrPermissionDenied},
		{name: "not multipart", devices: []mjpeg.Device{{URL: notMultipart.URL}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := mjpeg.New(mjpeg.Options{Devices: tt.devices})
			st, err := src.Open(context.Background(), camera.Constraints{Facing: camera.FacingEnvironment})
			require.Error(t, err)
			require.Nil(t, st)
			if tt.target != nil {
				require.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestSource_Open_CancelledContext(t *testing.T) {
	srv := mjpegServer(t, -1)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := mjpeg.New(mjpeg.Options{Devices: []mjpeg.Device{{URL: srv.URL}}})
	_, err := src.Open(ctx, camera.Constraints{})
	require.Error(t, err)
}
