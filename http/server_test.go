package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lotscan/lotscan"
	lotscanhttp "github.com/lotscan/lotscan/http"
	"github.com/lotscan/lotscan/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, scraper lotscan.Scraper, browser lotscan.Browser) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := lotscanhttp.NewServer(logger)
	s.Scraper = scraper
	s.Browser = browser
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_Scrape(t *testing.T) {
	t.Parallel()

	t.Run("successful scrape", func(t *testing.T) {
		t.Parallel()

		scraper := &mock.Scraper{
			ScrapeFn: func(ctx context.Context, req lotscan.ScrapeRequest) (*lotscan.ScrapeResult, error) {
				assert.Equal(t, "https://dealer.example.com/inventory", req.URL)
				return &lotscan.ScrapeResult{
					Success:      true,
					Vehicles:     []lotscan.VehicleRecord{{Year: 2021, Make: "Toyota", SourceURL: req.URL}},
					Tier:         lotscan.TierAPI,
					Confidence:   lotscan.ConfidenceHigh,
					PagesScraped: 1,
					DurationMS:   1200,
				}, nil
			},
		}
		srv := newTestServer(t, scraper, nil)

		resp := postJSON(t, srv.URL+"/scrape", map[string]any{"url": "https://dealer.example.com/inventory"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Success    bool   `json:"success"`
			Tier       string `json:"tier"`
			DurationMS int64  `json:"duration_ms"`
			Vehicles   []any  `json:"vehicles"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.True(t, result.Success)
		assert.Equal(t, "api", result.Tier)
		assert.Equal(t, int64(1200), result.DurationMS)
		assert.Len(t, result.Vehicles, 1)
	})

	t.Run("extraction failure still answers 200", func(t *testing.T) {
		t.Parallel()

		scraper := &mock.Scraper{
			ScrapeFn: func(ctx context.Context, req lotscan.ScrapeRequest) (*lotscan.ScrapeResult, error) {
				return &lotscan.ScrapeResult{
					Success:      false,
					Error:        "no extraction method succeeded",
					PagesScraped: 1,
				}, nil
			},
		}
		srv := newTestServer(t, scraper, nil)

		resp := postJSON(t, srv.URL+"/scrape", map[string]any{"url": "https://dealer.example.com/inventory"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Success  bool   `json:"success"`
			Error    string `json:"error"`
			Vehicles []any  `json:"vehicles"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.False(t, result.Success)
		assert.Equal(t, "no extraction method succeeded", result.Error)
		assert.NotNil(t, result.Vehicles, "vehicles is an empty array, not null")
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &mock.Scraper{}, nil)
		resp, err := http.Post(srv.URL+"/scrape", "application/json", bytes.NewReader([]byte("{not json")))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing url is a 400", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &mock.Scraper{}, nil)
		resp := postJSON(t, srv.URL+"/scrape", map[string]any{"maxPages": 3})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("request fields reach the scraper", func(t *testing.T) {
		t.Parallel()

		scraper := &mock.Scraper{
			ScrapeFn: func(ctx context.Context, req lotscan.ScrapeRequest) (*lotscan.ScrapeResult, error) {
				assert.Equal(t, 3, req.MaxPages)
				assert.False(t, req.CacheEnabled())
				return &lotscan.ScrapeResult{Success: true, Vehicles: []lotscan.VehicleRecord{}}, nil
			},
		}
		srv := newTestServer(t, scraper, nil)

		resp := postJSON(t, srv.URL+"/scrape", map[string]any{
			"url":              "https://dealer.example.com/inventory",
			"maxPages":         3,
			"useCachedPattern": false,
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	t.Run("healthy browser answers 200", func(t *testing.T) {
		t.Parallel()

		browser := &mock.Browser{HealthyFn: func() bool { return true }}
		srv := newTestServer(t, &mock.Scraper{}, browser)

		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("dead browser answers 503", func(t *testing.T) {
		t.Parallel()

		browser := &mock.Browser{HealthyFn: func() bool { return false }}
		srv := newTestServer(t, &mock.Scraper{}, browser)

		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestServer_Close(t *testing.T) {
	t.Parallel()

	closed := false
	browser := &mock.Browser{CloseFn: func() error {
		closed = true
		return nil
	}}
	srv := newTestServer(t, &mock.Scraper{}, browser)

	resp, err := http.Post(srv.URL+"/close", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, closed)
}
