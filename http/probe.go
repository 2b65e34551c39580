package http

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lotscan/lotscan"
	"github.com/tidwall/gjson"
)

// DefaultProbeTimeout bounds one catalog endpoint check.
const DefaultProbeTimeout = 10 * time.Second

// maxProbeBodyBytes caps how much of a catalog feed is read.
const maxProbeBodyBytes = 4 << 20

// catalogPaths are the well-known storefront product feed locations,
// tried in order.
var catalogPaths = []string{
	"/products.json",
	"/collections/all/products.json",
}

// Ensure CatalogProbe implements the interface at compile time.
var _ lotscan.CatalogProber = (*CatalogProbe)(nil)

// CatalogProbe checks storefront product feeds over plain HTTP. Many
// small dealerships run on commerce platforms that expose their whole
// inventory at a fixed JSON path, which is cheaper than any browser
// tier.
type CatalogProbe struct {
	client  *http.Client
	timeout time.Duration
}

// ProbeOption configures a CatalogProbe.
type ProbeOption func(*CatalogProbe)

// WithProbeTimeout sets the per-endpoint timeout.
func WithProbeTimeout(d time.Duration) ProbeOption {
	return func(p *CatalogProbe) {
		p.timeout = d
	}
}

// NewCatalogProbe creates a new CatalogProbe. If client is nil,
// http.DefaultClient is used.
func NewCatalogProbe(client *http.Client, opts ...ProbeOption) *CatalogProbe {
	if client == nil {
		client = http.DefaultClient
	}
	p := &CatalogProbe{client: client, timeout: DefaultProbeTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe tries each catalog path on the site's origin and returns the
// first feed that actually contains products. A miss is (nil, nil).
func (p *CatalogProbe) Probe(ctx context.Context, siteURL string) (*lotscan.NetworkResponse, error) {
	base, err := url.Parse(siteURL)
	if err != nil || base.Host == "" {
		return nil, lotscan.Errorf(lotscan.EINVALID, "invalid site URL %q", siteURL)
	}

	for _, path := range catalogPaths {
		probeURL := base.Scheme + "://" + base.Host + path
		resp, err := p.fetch(ctx, probeURL)
		if err != nil {
			continue
		}
		if gjson.GetBytes(resp.Body, "products.#").Int() > 0 {
			return resp, nil
		}
	}
	return nil, nil
}

func (p *CatalogProbe) fetch(ctx context.Context, probeURL string) (*lotscan.NetworkResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, lotscan.Errorf(lotscan.ENOTFOUND, "HTTP %d for %s", resp.StatusCode, probeURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBodyBytes))
	if err != nil {
		return nil, err
	}

	return &lotscan.NetworkResponse{
		URL:         probeURL,
		Method:      http.MethodGet,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
