// Package scrape orchestrates the tiered extraction pipeline: cached
// pattern replay first, then the four tiers in cost order, then pattern
// learning from whichever tier won.
package scrape

import (
	"context"
	"strings"

	"github.com/lotscan/lotscan"
)

// Extractor runs the tier ladder against a single page. Tier errors are
// treated like empty results: the ladder falls through to the next tier
// and only reports failure when every tier has passed.
type Extractor struct {
	browser    lotscan.Browser
	patterns   lotscan.PatternService
	api        lotscan.ResponseExtractor
	structured lotscan.StructuredExtractor
	selector   lotscan.SelectorExtractor
	vision     lotscan.VisionExtractor
	probe      lotscan.CatalogProber
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithCatalogProbe adds a direct catalog-endpoint check whose hits are
// fed to the API tier alongside captured browser traffic.
func WithCatalogProbe(probe lotscan.CatalogProber) ExtractorOption {
	return func(e *Extractor) {
		e.probe = probe
	}
}

// NewExtractor creates a new Extractor. The vision extractor may be nil
// when no model credentials are configured; the ladder then stops after
// the selector tier. The pattern service may be nil, which disables
// caching entirely.
func NewExtractor(
	browser lotscan.Browser,
	patterns lotscan.PatternService,
	api lotscan.ResponseExtractor,
	structured lotscan.StructuredExtractor,
	selector lotscan.SelectorExtractor,
	vision lotscan.VisionExtractor,
	opts ...ExtractorOption,
) *Extractor {
	e := &Extractor{
		browser:    browser,
		patterns:   patterns,
		api:        api,
		structured: structured,
		selector:   selector,
		vision:     vision,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractPage loads one page and runs extraction against its snapshot.
// A (nil, nil) return means every strategy came up empty; errors are
// reserved for failures before extraction could start (browser, page
// load).
func (e *Extractor) ExtractPage(ctx context.Context, url string, useCache bool) (*lotscan.ExtractionResult, error) {
	session, err := e.browser.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	snapshot, err := session.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	domain := lotscan.NormalizeDomain(url)

	// Hosted storefronts expose their catalog over plain HTTP; a probe
	// hit joins the captured traffic so the API tier sees it like any
	// other response.
	if e.probe != nil && looksLikeStorefront(snapshot.HTML) {
		if resp, err := e.probe.Probe(ctx, url); err == nil && resp != nil {
			snapshot.Responses = append(snapshot.Responses, *resp)
		}
	}

	// A cached pattern is tried before the ladder; its outcome feeds the
	// success rate either way. A failed replay falls through so the site
	// gets a full re-learn, not an error.
	if useCache && e.patterns != nil && domain != "" {
		if pattern, err := e.patterns.Get(ctx, domain); err == nil {
			if result := e.replay(snapshot, pattern); result != nil {
				_ = e.patterns.RecordOutcome(ctx, domain, true)
				return result, nil
			}
			_ = e.patterns.RecordOutcome(ctx, domain, false)
		}
	}

	if result, err := e.api.Extract(snapshot); err == nil && found(result) {
		e.remember(ctx, domain, result)
		return result, nil
	}
	if result, err := e.structured.Extract(snapshot); err == nil && found(result) {
		e.remember(ctx, domain, result)
		return result, nil
	}
	if result, err := e.selector.Extract(snapshot); err == nil && found(result) {
		e.remember(ctx, domain, result)
		return result, nil
	}
	if e.vision != nil {
		if screenshot, err := session.Screenshot(ctx); err == nil {
			if result, err := e.vision.Extract(ctx, snapshot, screenshot); err == nil && found(result) {
				e.learnFromVision(ctx, domain, snapshot, result)
				return result, nil
			}
		}
	}

	return nil, nil
}

func found(result *lotscan.ExtractionResult) bool {
	return result != nil && len(result.Records) > 0
}

// looksLikeStorefront reports whether the page carries a hosted
// storefront signature worth probing for a product catalog feed.
func looksLikeStorefront(html string) bool {
	return strings.Contains(html, "Shopify") ||
		strings.Contains(html, "shopify-digital-wallet") ||
		strings.Contains(html, "cdn.shopify.com")
}

// replay applies a cached pattern to a fresh snapshot. Vision patterns
// are never cached, so there is nothing to replay for that tier.
func (e *Extractor) replay(snapshot *lotscan.Snapshot, pattern *lotscan.DomainPattern) *lotscan.ExtractionResult {
	switch pattern.Tier {
	case lotscan.TierAPI:
		if pattern.Config.API == nil {
			return nil
		}
		filtered := *snapshot
		filtered.Responses = nil
		for _, resp := range snapshot.Responses {
			if sameEndpoint(resp.URL, pattern.Config.API.Endpoint) {
				filtered.Responses = append(filtered.Responses, resp)
			}
		}
		result, err := e.api.Extract(&filtered)
		if err != nil || !found(result) {
			return nil
		}
		result.Learned = nil
		return result

	case lotscan.TierStructured:
		result, err := e.structured.Extract(snapshot)
		if err != nil || !found(result) {
			return nil
		}
		result.Learned = nil
		return result

	case lotscan.TierSelector:
		records := e.selector.ExtractWithPattern(snapshot, pattern.Config.Selector)
		if len(records) == 0 {
			return nil
		}
		return &lotscan.ExtractionResult{
			Records:    records,
			Tier:       lotscan.TierSelector,
			Confidence: lotscan.ConfidenceMedium,
		}
	}
	return nil
}

// remember persists what a winning tier learned about the domain. A new
// pattern starts fully trusted; outcomes adjust it from there.
func (e *Extractor) remember(ctx context.Context, domain string, result *lotscan.ExtractionResult) {
	if e.patterns == nil || domain == "" || result.Learned == nil {
		return
	}
	_ = e.patterns.Save(ctx, &lotscan.DomainPattern{
		Domain:      domain,
		Tier:        result.Tier,
		Config:      *result.Learned,
		SuccessRate: 1.0,
	})
}

// learnFromVision asks the model for the selectors it implicitly used,
// dry-runs them against the same snapshot, and caches them only when
// they reproduce at least one record. An unvalidated proposal is worse
// than no pattern: it would poison every future visit.
func (e *Extractor) learnFromVision(ctx context.Context, domain string, snapshot *lotscan.Snapshot, result *lotscan.ExtractionResult) {
	if e.patterns == nil || domain == "" {
		return
	}
	learned, err := e.vision.LearnSelectors(ctx, snapshot, len(result.Records))
	if err != nil || learned == nil {
		return
	}
	if len(e.selector.ExtractWithPattern(snapshot, learned)) == 0 {
		return
	}
	_ = e.patterns.Save(ctx, &lotscan.DomainPattern{
		Domain:      domain,
		Tier:        lotscan.TierSelector,
		Config:      lotscan.PatternConfig{Selector: learned},
		SuccessRate: 1.0,
	})
}

// sameEndpoint compares two URLs ignoring their query strings, so a
// cached endpoint still matches when pagination parameters differ.
func sameEndpoint(a, b string) bool {
	return stripQuery(a) == stripQuery(b)
}

func stripQuery(url string) string {
	if idx := strings.IndexByte(url, '?'); idx >= 0 {
		return url[:idx]
	}
	return url
}
