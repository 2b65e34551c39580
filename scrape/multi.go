package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/lotscan/lotscan"
	"golang.org/x/sync/errgroup"
)

// DefaultPageConcurrency is how many extra inventory pages are scraped
// in parallel during a multi-page run.
const DefaultPageConcurrency = 3

// PageExtractor extracts from a single page. Satisfied by *Extractor.
type PageExtractor interface {
	ExtractPage(ctx context.Context, url string, useCache bool) (*lotscan.ExtractionResult, error)
}

// Ensure Runner implements the interface at compile time.
var _ lotscan.Scraper = (*Runner)(nil)

// Runner implements lotscan.Scraper: one page extraction plus optional
// multi-page expansion through the site's inventory pages, with
// per-domain rate limiting and cross-page deduplication.
type Runner struct {
	extractor   PageExtractor
	locator     lotscan.InventoryLocator
	limiter     lotscan.DomainLimiter
	concurrency int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLocator enables multi-page scrapes through the given locator.
func WithLocator(locator lotscan.InventoryLocator) RunnerOption {
	return func(r *Runner) {
		r.locator = locator
	}
}

// WithLimiter rate-limits page loads per domain.
func WithLimiter(limiter lotscan.DomainLimiter) RunnerOption {
	return func(r *Runner) {
		r.limiter = limiter
	}
}

// WithConcurrency sets how many extra pages are scraped in parallel.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		r.concurrency = n
	}
}

// NewRunner creates a new Runner.
func NewRunner(extractor PageExtractor, opts ...RunnerOption) *Runner {
	r := &Runner{
		extractor:   extractor,
		concurrency: DefaultPageConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scrape runs the pipeline for one request. Operational failures fold
// into the result with Success false; an error return means the request
// itself was invalid.
func (r *Runner) Scrape(ctx context.Context, req lotscan.ScrapeRequest) (*lotscan.ScrapeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	begin := time.Now()
	domain := lotscan.NormalizeDomain(req.URL)
	useCache := req.CacheEnabled()
	dedupe := newDeduper()

	out := &lotscan.ScrapeResult{PagesScraped: 1}

	if err := r.wait(ctx, domain); err != nil {
		return r.finish(out, begin, lotscan.ErrorMessage(err)), nil
	}

	first, err := r.extractor.ExtractPage(ctx, req.URL, useCache)
	if err != nil {
		return r.finish(out, begin, lotscan.ErrorMessage(err)), nil
	}
	if found(first) {
		out.Tier = first.Tier
		out.Confidence = first.Confidence
		out.Vehicles = dedupe.filter(first.Records)
	}

	if req.MaxPages > 1 && r.locator != nil {
		r.scrapeExtraPages(ctx, req, domain, useCache, dedupe, out)
	}

	if len(out.Vehicles) == 0 {
		return r.finish(out, begin, "no extraction method succeeded"), nil
	}
	return r.finish(out, begin, ""), nil
}

// scrapeExtraPages expands the scrape through additional inventory
// pages. Extra pages are best effort: their failures never fail the
// run, they just contribute nothing.
func (r *Runner) scrapeExtraPages(ctx context.Context, req lotscan.ScrapeRequest, domain string, useCache bool, dedupe *deduper, out *lotscan.ScrapeResult) {
	urls, err := r.locator.Locate(ctx, req.URL, req.MaxPages-1)
	if err != nil || len(urls) == 0 {
		return
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, pageURL := range urls {
		g.Go(func() error {
			if err := r.wait(gctx, domain); err != nil {
				return nil
			}
			result, err := r.extractor.ExtractPage(gctx, pageURL, useCache)
			if err != nil {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			out.PagesScraped++
			if found(result) {
				out.Vehicles = append(out.Vehicles, dedupe.filter(result.Records)...)
				if out.Tier == "" {
					out.Tier = result.Tier
					out.Confidence = result.Confidence
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runner) wait(ctx context.Context, domain string) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx, domain)
}

func (r *Runner) finish(out *lotscan.ScrapeResult, begin time.Time, errMsg string) *lotscan.ScrapeResult {
	out.DurationMS = time.Since(begin).Milliseconds()
	out.Success = errMsg == ""
	out.Error = errMsg
	if !out.Success {
		out.Tier = ""
		out.Confidence = ""
	}
	return out
}
