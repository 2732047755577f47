package domain

import "time"

// ScanState is the state of a scan session. There are no partial or paused states.
type ScanState string

const (
	// ScanStateIdle means no camera is held.
	ScanStateIdle ScanState = "IDLE"
	// ScanStateScanning means a camera stream is bound and frames are being decoded.
	ScanStateScanning ScanState = "SCANNING"
)

// ScanSession is a read-only snapshot of the resolver's current scan attempt.
type ScanSession struct {
	State ScanState `json:"state"`
	// StreamID identifies the bound camera stream while scanning.
	StreamID string `json:"streamId,omitempty"`
	// LastResult is the last decoded payload.
	LastResult string `json:"lastResult,omitempty"`
	// LastError is the last classified error, if any.
	LastError error `json:"-"`
	// LastTarget is where LastResult was resolved to.
	LastTarget *NavigationTarget `json:"lastTarget,omitempty"`
	// StartedAt is when the current session started scanning.
	StartedAt time.Time `json:"startedAt,omitzero"`
}

// Active reports whether the session currently holds a camera.
func (s ScanSession) Active() bool { return s.State == ScanStateScanning }
