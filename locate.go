package lotscan

import "context"

// InventoryLocator finds additional inventory page URLs for a site,
// typically from its sitemap. Implementations return at most limit
// URLs and never include the seed URL itself.
type InventoryLocator interface {
	Locate(ctx context.Context, siteURL string, limit int) ([]string, error)
}

// CatalogProber checks well-known catalog endpoints (storefront product
// feeds) directly over HTTP, without a browser. A hit is returned as a
// synthetic network response so the API tier can treat it like captured
// traffic. A miss is (nil, nil).
type CatalogProber interface {
	Probe(ctx context.Context, siteURL string) (*NetworkResponse, error)
}

// DomainLimiter provides per-domain rate limiting so multi-page scrapes
// do not hammer a single dealership site.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled before the wait
	// completes.
	Wait(ctx context.Context, domain string) error
}
