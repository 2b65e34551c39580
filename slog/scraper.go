// Package slog provides logging decorators for service interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/lotscan/lotscan"
)

// Ensure LoggingScraper implements lotscan.Scraper.
var _ lotscan.Scraper = (*LoggingScraper)(nil)

// LoggingScraper wraps a Scraper with per-run logging.
type LoggingScraper struct {
	next   lotscan.Scraper
	logger *slog.Logger
}

// NewLoggingScraper creates a new LoggingScraper.
func NewLoggingScraper(next lotscan.Scraper, logger *slog.Logger) *LoggingScraper {
	return &LoggingScraper{next: next, logger: logger}
}

// Scrape logs the run outcome and delegates to the wrapped scraper.
func (s *LoggingScraper) Scrape(ctx context.Context, req lotscan.ScrapeRequest) (result *lotscan.ScrapeResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", req.URL,
			"duration", time.Since(begin),
		}
		if result != nil {
			attrs = append(attrs,
				"success", result.Success,
				"tier", string(result.Tier),
				"vehicles", len(result.Vehicles),
				"pages", result.PagesScraped,
			)
			if result.Error != "" {
				attrs = append(attrs, "reason", result.Error)
			}
		}
		if err != nil {
			attrs = append(attrs, "err", err)
		}
		s.logger.Info("scrape", attrs...)
	}(time.Now())
	return s.next.Scrape(ctx, req)
}
