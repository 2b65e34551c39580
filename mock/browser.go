package mock

import (
	"context"

	"github.com/lotscan/lotscan"
)

var _ lotscan.Browser = (*Browser)(nil)

// Browser is a mock implementation of lotscan.Browser.
type Browser struct {
	OpenFn    func(ctx context.Context, url string) (lotscan.Session, error)
	HealthyFn func() bool
	CloseFn   func() error
}

func (b *Browser) Open(ctx context.Context, url string) (lotscan.Session, error) {
	return b.OpenFn(ctx, url)
}

func (b *Browser) Healthy() bool {
	if b.HealthyFn == nil {
		return true
	}
	return b.HealthyFn()
}

func (b *Browser) Close() error {
	if b.CloseFn == nil {
		return nil
	}
	return b.CloseFn()
}

var _ lotscan.Session = (*Session)(nil)

// Session is a mock implementation of lotscan.Session.
type Session struct {
	SnapshotFn   func(ctx context.Context) (*lotscan.Snapshot, error)
	ScreenshotFn func(ctx context.Context) ([]byte, error)
	CloseFn      func() error

	CloseCount int
}

func (s *Session) Snapshot(ctx context.Context) (*lotscan.Snapshot, error) {
	return s.SnapshotFn(ctx)
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if s.ScreenshotFn == nil {
		return nil, nil
	}
	return s.ScreenshotFn(ctx)
}

func (s *Session) Close() error {
	s.CloseCount++
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
