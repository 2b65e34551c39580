package lotscan

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Success-rate tuning. The exponential moving average favors recent
// outcomes; the prune threshold is the trust floor below which a cached
// pattern is eligible for deletion. Both are surfaced here rather than
// buried as literals because they directly trade cache reuse savings
// against stale-pattern reuse.
const (
	DefaultSuccessAlpha   = 0.2
	DefaultPruneThreshold = 0.3
)

// DomainPattern is the persisted cache entry recording which extraction
// tier last worked for a domain and how to repeat it.
type DomainPattern struct {
	Domain      string        `json:"domain"`
	Tier        Tier          `json:"tier"`
	Config      PatternConfig `json:"config"`
	LastUsedAt  time.Time     `json:"lastUsedAt"`
	SuccessRate float64       `json:"successRate"`
}

// Validate returns an error if the pattern contains invalid fields.
func (p *DomainPattern) Validate() error {
	if p.Domain == "" {
		return Errorf(EINVALID, "pattern domain required")
	}
	switch p.Tier {
	case TierAPI, TierStructured, TierSelector, TierVision:
	default:
		return Errorf(EINVALID, "unknown tier %q", p.Tier)
	}
	if p.SuccessRate < 0 || p.SuccessRate > 1 {
		return Errorf(EINVALID, "success rate %v outside [0,1]", p.SuccessRate)
	}
	return nil
}

// ApplyOutcome returns the updated success rate after one observed
// outcome, using an exponential moving average with the given alpha.
// The result stays within [0,1] for any number of applications.
func ApplyOutcome(rate float64, success bool, alpha float64) float64 {
	if success {
		rate = rate + alpha*(1-rate)
	} else {
		rate = rate * (1 - alpha)
	}
	if rate < 0 {
		return 0
	}
	if rate > 1 {
		return 1
	}
	return rate
}

// NormalizeDomain reduces a URL or hostname to the cache key form:
// lowercase hostname with scheme, port, path and a leading "www."
// stripped. Returns "" when no hostname can be recovered.
func NormalizeDomain(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// PatternService manages the per-domain pattern cache. The cache is the
// sole writer of pattern state; the orchestrator only reads patterns and
// reports outcomes back. Implementations treat an unreachable backing
// store as a cache miss (EUNAVAILABLE), never as a fatal condition.
type PatternService interface {
	// Get retrieves the pattern for a normalized domain.
	// Returns ENOTFOUND if no pattern exists.
	Get(ctx context.Context, domain string) (*DomainPattern, error)

	// Save upserts a pattern by domain. Idempotent.
	Save(ctx context.Context, pattern *DomainPattern) error

	// RecordOutcome folds one success/failure observation into the
	// domain's success rate and refreshes its timestamp.
	// Returns ENOTFOUND if no pattern exists for the domain.
	RecordOutcome(ctx context.Context, domain string, success bool) error

	// Prune deletes all patterns with a success rate below threshold
	// and returns the number deleted.
	Prune(ctx context.Context, threshold float64) (int, error)
}
