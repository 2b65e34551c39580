package rod

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/lotscan/lotscan"
)

// navigationTimeout bounds how long a page load may take before the
// session settles for whatever state the page reached.
const navigationTimeout = 30 * time.Second

// settleWindow is how long the DOM must stay unchanged after load
// before the page counts as rendered.
const settleWindow = 300 * time.Millisecond

// Ensure Session implements the interface at compile time.
var _ lotscan.Session = (*Session)(nil)

// Session is one isolated page with its captured network traffic.
type Session struct {
	page   *rod.Page
	url    string
	acc    *accumulator
	closed atomic.Bool
}

// newSession navigates the page and waits for it to settle. Load and
// settle timeouts are non-fatal; a navigation failure is not.
func newSession(ctx context.Context, page *rod.Page, url string) (*Session, error) {
	acc := newAccumulator(page)
	acc.start()

	navCtx, cancel := context.WithTimeout(ctx, navigationTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		return nil, lotscan.Errorf(lotscan.EUNAVAILABLE, "navigate %s: %v", url, err)
	}
	// Slow pages still yield a usable partial snapshot.
	_ = page.Context(navCtx).WaitLoad()
	_ = page.Context(navCtx).WaitDOMStable(settleWindow, 0)

	return &Session{page: page, url: url, acc: acc}, nil
}

// Snapshot returns the rendered HTML plus the network responses
// captured since navigation started.
func (s *Session) Snapshot(ctx context.Context) (*lotscan.Snapshot, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return nil, lotscan.Errorf(lotscan.EUNAVAILABLE, "read page HTML: %v", err)
	}
	return &lotscan.Snapshot{
		URL:       s.url,
		HTML:      html,
		Responses: s.acc.responses(),
	}, nil
}

// Screenshot returns a full-page PNG capture.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := s.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, lotscan.Errorf(lotscan.EUNAVAILABLE, "capture screenshot: %v", err)
	}
	return data, nil
}

// Close releases the page. Safe to call multiple times.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.page.Close()
}

// maxCapturedBodyBytes caps a single captured response body.
const maxCapturedBodyBytes = 2 << 20

// maxCapturedResponses caps how many responses a session retains.
const maxCapturedResponses = 50

// accumulator records interesting network responses for a single page.
// Bodies are fetched on loading-finished because fetching them at
// response-received races the browser's own streaming.
type accumulator struct {
	page *rod.Page

	mu       sync.Mutex
	methods  map[proto.NetworkRequestID]string
	pending  map[proto.NetworkRequestID]*proto.NetworkResponse
	captured []lotscan.NetworkResponse
}

func newAccumulator(page *rod.Page) *accumulator {
	return &accumulator{
		page:    page,
		methods: make(map[proto.NetworkRequestID]string),
		pending: make(map[proto.NetworkRequestID]*proto.NetworkResponse),
	}
}

// start enables network events and subscribes until the page closes.
// Capture is best effort: if the network domain cannot be enabled the
// session still works, it just sees no responses.
func (a *accumulator) start() {
	if err := (proto.NetworkEnable{}).Call(a.page); err != nil {
		return
	}
	go a.page.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			a.mu.Lock()
			a.methods[e.RequestID] = e.Request.Method
			a.mu.Unlock()
		},
		func(e *proto.NetworkResponseReceived) {
			a.mu.Lock()
			a.pending[e.RequestID] = e.Response
			a.mu.Unlock()
		},
		func(e *proto.NetworkLoadingFinished) {
			a.capture(e.RequestID)
		},
	)()
}

// capture fetches the body for a finished response and retains it if it
// looks like data a tier could use.
func (a *accumulator) capture(id proto.NetworkRequestID) {
	a.mu.Lock()
	resp := a.pending[id]
	method := a.methods[id]
	delete(a.pending, id)
	delete(a.methods, id)
	full := len(a.captured) >= maxCapturedResponses
	a.mu.Unlock()

	if resp == nil || full || !worthCapturing(resp.MIMEType, resp.URL) {
		return
	}

	result, err := proto.NetworkGetResponseBody{RequestID: id}.Call(a.page)
	if err != nil {
		return // body already evicted by the browser
	}
	body := []byte(result.Body)
	if result.Base64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(result.Body)
		if err != nil {
			return
		}
		body = decoded
	}
	if len(body) == 0 || len(body) > maxCapturedBodyBytes {
		return
	}

	a.mu.Lock()
	a.captured = append(a.captured, lotscan.NetworkResponse{
		URL:         resp.URL,
		Method:      method,
		Status:      resp.Status,
		ContentType: resp.MIMEType,
		Body:        body,
	})
	a.mu.Unlock()
}

// responses returns a copy of the captured responses.
func (a *accumulator) responses() []lotscan.NetworkResponse {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]lotscan.NetworkResponse, len(a.captured))
	copy(out, a.captured)
	return out
}

// worthCapturing filters traffic down to data responses. Documents,
// scripts, styles and media are never useful to the extraction tiers.
func worthCapturing(mimeType, url string) bool {
	mime := strings.ToLower(mimeType)
	if strings.Contains(mime, "json") {
		return true
	}
	lower := strings.ToLower(url)
	if strings.HasSuffix(stripQuery(lower), ".json") {
		return true
	}
	return strings.Contains(lower, "/api/") || strings.Contains(lower, "/graphql")
}

func stripQuery(url string) string {
	if idx := strings.IndexByte(url, '?'); idx >= 0 {
		return url[:idx]
	}
	return url
}
