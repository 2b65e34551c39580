package lotscan_test

import (
	"testing"

	"github.com/lotscan/lotscan"
	"github.com/stretchr/testify/assert"
)

func TestApplyOutcome(t *testing.T) {
	t.Parallel()

	t.Run("success moves rate toward one", func(t *testing.T) {
		t.Parallel()
		got := lotscan.ApplyOutcome(0.5, true, lotscan.DefaultSuccessAlpha)
		assert.InDelta(t, 0.6, got, 1e-9)
	})

	t.Run("failure decays rate toward zero", func(t *testing.T) {
		t.Parallel()
		got := lotscan.ApplyOutcome(0.5, false, lotscan.DefaultSuccessAlpha)
		assert.InDelta(t, 0.4, got, 1e-9)
	})

	t.Run("stays within [0,1] after any number of applications", func(t *testing.T) {
		t.Parallel()

		rate := 0.5
		for i := 0; i < 1000; i++ {
			rate = lotscan.ApplyOutcome(rate, i%3 == 0, lotscan.DefaultSuccessAlpha)
			assert.GreaterOrEqual(t, rate, 0.0)
			assert.LessOrEqual(t, rate, 1.0)
		}
	})

	t.Run("repeated failures cross the prune threshold", func(t *testing.T) {
		t.Parallel()

		rate := 1.0
		for i := 0; i < 10; i++ {
			rate = lotscan.ApplyOutcome(rate, false, lotscan.DefaultSuccessAlpha)
		}
		assert.Less(t, rate, lotscan.DefaultPruneThreshold)
	})
}

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://www.example.com/inventory", "example.com"},
		{"http://example.com", "example.com"},
		{"https://dealer.example.com:8443/cars?page=2", "dealer.example.com"},
		{"EXAMPLE.com/path", "example.com"},
		{"www.shop.example.org", "shop.example.org"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, lotscan.NormalizeDomain(tt.in))
		})
	}
}

func TestDomainPattern_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid pattern", func(t *testing.T) {
		t.Parallel()
		p := &lotscan.DomainPattern{Domain: "example.com", Tier: lotscan.TierSelector, SuccessRate: 0.8}
		assert.NoError(t, p.Validate())
	})

	t.Run("missing domain", func(t *testing.T) {
		t.Parallel()
		p := &lotscan.DomainPattern{Tier: lotscan.TierAPI}
		err := p.Validate()
		assert.Equal(t, lotscan.EINVALID, lotscan.ErrorCode(err))
	})

	t.Run("unknown tier", func(t *testing.T) {
		t.Parallel()
		p := &lotscan.DomainPattern{Domain: "example.com", Tier: "llm"}
		err := p.Validate()
		assert.Equal(t, lotscan.EINVALID, lotscan.ErrorCode(err))
	})

	t.Run("rate outside range", func(t *testing.T) {
		t.Parallel()
		p := &lotscan.DomainPattern{Domain: "example.com", Tier: lotscan.TierAPI, SuccessRate: 1.2}
		err := p.Validate()
		assert.Equal(t, lotscan.EINVALID, lotscan.ErrorCode(err))
	})
}

func TestScrapeRequest(t *testing.T) {
	t.Parallel()

	t.Run("cache defaults to enabled", func(t *testing.T) {
		t.Parallel()
		req := lotscan.ScrapeRequest{URL: "https://example.com"}
		assert.True(t, req.CacheEnabled())
	})

	t.Run("cache can be disabled", func(t *testing.T) {
		t.Parallel()
		off := false
		req := lotscan.ScrapeRequest{URL: "https://example.com", UseCachedPattern: &off}
		assert.False(t, req.CacheEnabled())
	})

	t.Run("validate rejects missing url", func(t *testing.T) {
		t.Parallel()
		req := lotscan.ScrapeRequest{}
		assert.Equal(t, lotscan.EINVALID, lotscan.ErrorCode(req.Validate()))
	})

	t.Run("validate rejects negative maxPages", func(t *testing.T) {
		t.Parallel()
		req := lotscan.ScrapeRequest{URL: "https://example.com", MaxPages: -1}
		assert.Equal(t, lotscan.EINVALID, lotscan.ErrorCode(req.Validate()))
	})
}
