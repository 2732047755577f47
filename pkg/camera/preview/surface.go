// Package preview implements camera.Surface as an in-memory viewfinder that
// keeps the latest frame of the bound stream and serves it over HTTP.
package preview

import (
	"bytes"
	"image"
	"image/jpeg"
	"net/http"
	"qrportal/pkg/camera"
	"sync"
)

// Surface holds the most recent frame of the bound stream.
type Surface struct {
	mu       sync.RWMutex
	streamID string
	frame    image.Image
	quality  int
}

var _ camera.Surface = (*Surface)(nil)

// New returns an unbound surface encoding frames at the given JPEG quality.
// Quality outside 1..100 falls back to jpeg.DefaultQuality.
func New(quality int) *Surface {
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	return &Surface{quality: quality}
}

func (s *Surface) Bind(stream camera.Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streamID = stream.ID()
	s.frame = nil
}

func (s *Surface) Present(frame image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamID == "" {
		return
	}
	s.frame = frame
}

func (s *Surface) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streamID = ""
	s.frame = nil
}

// StreamID returns the bound stream's ID, or "" when unbound.
func (s *Surface) StreamID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.streamID
}

// ServeHTTP writes the latest frame as a JPEG. It answers 404 when no stream
// is bound and 204 while the bound stream has not produced a frame yet.
func (s *Surface) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	bound, frame := s.streamID != "", s.frame
	s.mu.RUnlock()

	switch {
	case !bound:
		http.Error(w, "no camera stream bound", http.StatusNotFound)

		return
	case frame == nil:
		w.WriteHeader(http.StatusNoContent)

		return
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: s.quality}); err != nil {
		http.Error(w, "could not encode frame", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
