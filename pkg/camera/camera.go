// Package camera defines the camera acquisition contract used by scanners:
// a Source opens live Streams of frames, each made of stoppable Tracks, and a
// Surface displays the frames of a bound stream.
package camera

import (
	"context"
	"errors"
	"image"
)

// Facing is the direction a camera points to, relative to the user.
type Facing string

const (
	// FacingEnvironment is a rear camera pointing away from the user.
	FacingEnvironment Facing = "environment"
	// FacingUser is a front camera pointing at the user.
	FacingUser Facing = "user"
)

// Constraints describe the camera a caller asks for. Facing is a preference:
// sources fall back to another device when none matches.
type Constraints struct {
	Facing Facing
}

var (
	// ErrNoDevice is returned when no camera device is available.
	ErrNoDevice = errors.New("no camera device available")
	// ErrPermissionDenied is returned when access to the camera is refused.
	ErrPermissionDenied = errors.New("camera permission denied")
)

// Track is one constituent media track of a stream.
type Track interface {
	// Kind is the media kind of the track, e.g. "video".
	Kind() string
	// Stop releases the device behind the track. It is idempotent.
	Stop()
}

// Stream is a live camera stream. Frames is closed once every track has been
// stopped or the device went away.
type Stream interface {
	ID() string
	Frames() <-chan image.Image
	Tracks() []Track
}

// StopAll stops every track of s.
func StopAll(s Stream) {
	for _, t := range s.Tracks() {
		t.Stop()
	}
}

// Source acquires camera streams.
type Source interface {
	// Open requests a stream matching c. It fails with ErrNoDevice,
	// ErrPermissionDenied or any device error.
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Surface displays the frames of a bound stream.
type Surface interface {
	// Bind attaches stream to the surface, replacing any previous binding.
	Bind(stream Stream)
	// Present shows a frame of the bound stream.
	Present(frame image.Image)
	// Unbind detaches the current stream, if any.
	Unbind()
}
