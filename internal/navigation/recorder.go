// Package navigation records where scanned codes lead. In a headless service
// there is no browser to drive, so the recorder stands in for the in-app
// router and the external opener and keeps a short history that API clients
// read back.
package navigation

import (
	"context"
	"net/url"
	"qrportal/pkg/domain"
	"qrportal/pkg/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultHistory is the number of entries kept when New is given no size.
const DefaultHistory = 32

// Entry is one recorded navigation.
type Entry struct {
	Target domain.NavigationTarget `json:"target"`
	// Allowed is false for external targets that are not absolute http(s) URLs.
	Allowed bool      `json:"allowed"`
	At      time.Time `json:"at"`
}

// Recorder implements scanresolver.Router and scanresolver.Opener.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	size    int
	now     func() time.Time
}

// New returns a Recorder keeping the last size entries.
func New(size int) *Recorder {
	if size <= 0 {
		size = DefaultHistory
	}

	return &Recorder{size: size, now: time.Now}
}

// Navigate records an in-app navigation.
func (r *Recorder) Navigate(ctx context.Context, path string) {
	logger.Info(ctx, "navigating in app", zap.String("path", path))
	r.add(Entry{
		Target:  domain.NavigationTarget{Kind: domain.NavigationInternal, Value: path},
		Allowed: true,
	})
}

// Open records an external navigation. Targets that are not absolute http(s)
// URLs are recorded as not allowed so clients never follow them blindly.
func (r *Recorder) Open(ctx context.Context, target string) {
	allowed := Openable(target)
	if !allowed {
		logger.Warn(ctx, "refusing to open target", zap.String("target", target))
	} else {
		logger.Info(ctx, "opening external target", zap.String("target", target))
	}
	r.add(Entry{
		Target:  domain.NavigationTarget{Kind: domain.NavigationExternal, Value: target},
		Allowed: allowed,
	})
}

// Openable reports whether target is an absolute http(s) URL with a host.
func Openable(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (r *Recorder) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.At = r.now()
	r.entries = append(r.entries, e)
	if len(r.entries) > r.size {
		r.entries = append([]Entry(nil), r.entries[len(r.entries)-r.size:]...)
	}
}

// Last returns the most recent entry.
func (r *Recorder) Last() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == 0 {
		return Entry{}, false
	}

	return r.entries[len(r.entries)-1], true
}

// History returns the recorded entries, oldest first.
func (r *Recorder) History() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Entry(nil), r.entries...)
}
