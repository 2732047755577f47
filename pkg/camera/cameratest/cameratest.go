// Package cameratest provides in-memory camera sources and streams for tests.
package cameratest

import (
	"context"
	"image"
	"qrportal/pkg/camera"
	"sync"
	"sync/atomic"
)

// Stream is a camera.Stream fed by the test through Send.
type Stream struct {
	id     string
	frames chan image.Image
	track  *Track
	once   sync.Once
	mu     sync.Mutex
	closed bool
}

// NewStream returns a stream with the given ID and frame buffer size.
func NewStream(id string, buffer int) *Stream {
	s := &Stream{id: id, frames: make(chan image.Image, buffer)}
	s.track = &Track{onStop: s.close}

	return s
}

func (s *Stream) ID() string                 { return s.id }
func (s *Stream) Frames() <-chan image.Image { return s.frames }
func (s *Stream) Tracks() []camera.Track     { return []camera.Track{s.track} }

// Track returns the single video track of the stream.
func (s *Stream) Track() *Track { return s.track }

// Send delivers a frame unless the stream was stopped or its buffer is full.
// It reports whether the frame was delivered.
func (s *Stream) Send(img image.Image) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.frames <- img:
		return true
	default:
		return false
	}
}

// End simulates the device going away.
func (s *Stream) End() { s.close() }

func (s *Stream) close() {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.closed = true
		close(s.frames)
	})
}

// Track is a video track that records whether it was stopped.
type Track struct {
	stops  atomic.Int32
	onStop func()
}

func (t *Track) Kind() string { return "video" }

func (t *Track) Stop() {
	t.stops.Add(1)
	t.onStop()
}

// Stopped reports whether Stop was called at least once.
func (t *Track) Stopped() bool { return t.stops.Load() > 0 }

// Source hands out prepared streams, or fails with Err.
type Source struct {
	mu      sync.Mutex
	streams []*Stream
	opened  []camera.Constraints

	// Err, when set, is returned by Open instead of a stream.
	Err error
	// Gate, when set, blocks Open until it is closed.
	Gate chan struct{}
	// Entered, when set, receives a value each time Open is entered.
	Entered chan struct{}
}

var _ camera.Source = (*Source)(nil)

// NewSource returns a source that hands out streams in order.
func NewSource(streams ...*Stream) *Source {
	return &Source{streams: streams}
}

func (s *Source) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	if s.Entered != nil {
		s.Entered <- struct{}{}
	}
	if s.Gate != nil {
		select {
		case <-s.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.opened = append(s.opened, c)
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.streams) == 0 {
		return nil, camera.ErrNoDevice
	}
	st := s.streams[0]
	s.streams = s.streams[1:]

	return st, nil
}

// Opened returns the constraints of every Open call so far.
func (s *Source) Opened() []camera.Constraints {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]camera.Constraints(nil), s.opened...)
}
