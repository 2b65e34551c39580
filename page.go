package lotscan

import "context"

// NetworkResponse is one network response observed while a page loaded.
// Body is capped by the capturing session; responses that could not be
// read (opaque, streamed, detached) carry a nil body.
type NetworkResponse struct {
	URL         string
	Method      string
	Status      int
	ContentType string
	Body        []byte
}

// Snapshot is the immutable state captured from a single page load:
// rendered HTML plus every network response observed while loading.
// Tiers are pure functions over a snapshot, which keeps them testable
// without a browser and makes accumulator lifetime explicit: responses
// live exactly as long as the snapshot that holds them.
type Snapshot struct {
	URL       string
	HTML      string
	Responses []NetworkResponse
}

// Session is an isolated browser page. Sessions are not shared across
// concurrent extractions; Close must be called on every exit path,
// including cancellation.
type Session interface {
	// Snapshot returns the page state after navigation settled.
	Snapshot(ctx context.Context) (*Snapshot, error)

	// Screenshot returns a full-page PNG capture.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close releases the page and its captured state.
	Close() error
}

// Browser spawns isolated page sessions from a shared browser process.
// Open navigates to the URL; a navigation timeout is non-fatal and the
// session reflects whatever state the page reached.
type Browser interface {
	Open(ctx context.Context, url string) (Session, error)

	// Healthy reports whether the underlying browser process is
	// usable. Used by the service health endpoint.
	Healthy() bool

	// Close shuts down the underlying browser process.
	Close() error
}
