package lotscan

import "context"

// The tier extractors below share one convention: a (nil, nil) return
// means "this tier found nothing" and the caller falls through to the
// next tier. Errors are reserved for real failures (malformed input,
// collaborator errors) and are recovered by the orchestrator the same
// way: try the next tier.

// ResponseExtractor is Tier 1. It inspects network responses captured
// during page load and extracts records from the best JSON payload that
// resembles a vehicle list.
type ResponseExtractor interface {
	Extract(snapshot *Snapshot) (*ExtractionResult, error)
}

// StructuredExtractor is Tier 2. It parses machine-readable metadata
// embedded in the page (schema.org vehicle objects) into records.
type StructuredExtractor interface {
	Extract(snapshot *Snapshot) (*ExtractionResult, error)
}

// SelectorExtractor is Tier 3. It discovers a listing container by
// trying ranked generic CSS patterns against the rendered DOM and
// extracting candidate fields heuristically.
type SelectorExtractor interface {
	Extract(snapshot *Snapshot) (*ExtractionResult, error)

	// ExtractWithPattern is the cached fast path: apply a previously
	// learned pattern without running discovery.
	ExtractWithPattern(snapshot *Snapshot, pattern *SelectorPattern) []VehicleRecord
}

// VisionExtractor is Tier 4. It sends a page screenshot to a
// vision-capable model and parses structured vehicle data out of the
// model's free-form reply.
type VisionExtractor interface {
	Extract(ctx context.Context, snapshot *Snapshot, screenshot []byte) (*ExtractionResult, error)

	// LearnSelectors asks the model to propose the CSS selectors it
	// implicitly relied on, so future visits can use the much cheaper
	// selector tier. The proposal is unvalidated; callers should dry-run
	// it before caching.
	LearnSelectors(ctx context.Context, snapshot *Snapshot, recordCount int) (*SelectorPattern, error)
}

// ScrapeRequest is the boundary contract for one extraction run.
type ScrapeRequest struct {
	URL string `json:"url"`

	// UseCachedPattern enables the cached-strategy attempt before the
	// tier sequence. Defaults to true when nil.
	UseCachedPattern *bool `json:"useCachedPattern,omitempty"`

	// MaxPages bounds how many inventory pages are scraped. Zero or
	// one means just the requested page.
	MaxPages int `json:"maxPages,omitempty"`
}

// CacheEnabled resolves the UseCachedPattern default.
func (r *ScrapeRequest) CacheEnabled() bool {
	return r.UseCachedPattern == nil || *r.UseCachedPattern
}

// Validate returns an error if the request contains invalid fields.
func (r *ScrapeRequest) Validate() error {
	if r.URL == "" {
		return Errorf(EINVALID, "url required")
	}
	if NormalizeDomain(r.URL) == "" {
		return Errorf(EINVALID, "url %q has no hostname", r.URL)
	}
	if r.MaxPages < 0 {
		return Errorf(EINVALID, "maxPages must be non-negative")
	}
	return nil
}

// ScrapeResult is the boundary response for one extraction run.
// Failure to extract from an uncooperative site is expected, not
// exceptional: Success is false and Error carries the terminal reason.
type ScrapeResult struct {
	Success      bool            `json:"success"`
	Vehicles     []VehicleRecord `json:"vehicles"`
	Tier         Tier            `json:"tier"`
	Confidence   Confidence      `json:"confidence"`
	PagesScraped int             `json:"pagesScraped"`
	DurationMS   int64           `json:"duration_ms"`
	Error        string          `json:"error,omitempty"`
}

// Scraper runs the full extraction pipeline for a request.
type Scraper interface {
	Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResult, error)
}
