package mock

import (
	"context"

	"github.com/lotscan/lotscan"
)

var _ lotscan.Scraper = (*Scraper)(nil)

// Scraper is a mock implementation of lotscan.Scraper.
type Scraper struct {
	ScrapeFn func(ctx context.Context, req lotscan.ScrapeRequest) (*lotscan.ScrapeResult, error)
}

func (s *Scraper) Scrape(ctx context.Context, req lotscan.ScrapeRequest) (*lotscan.ScrapeResult, error) {
	return s.ScrapeFn(ctx, req)
}
