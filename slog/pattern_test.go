package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/lotscan/lotscan"
	"github.com/lotscan/lotscan/mock"
	lotscanslog "github.com/lotscan/lotscan/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingPatternService(t *testing.T) {
	t.Parallel()

	t.Run("logs cache hits", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		svc := &mock.PatternService{
			GetFn: func(ctx context.Context, domain string) (*lotscan.DomainPattern, error) {
				return &lotscan.DomainPattern{
					Domain:      domain,
					Tier:        lotscan.TierSelector,
					SuccessRate: 0.8,
				}, nil
			},
		}

		s := lotscanslog.NewLoggingPatternService(svc, debugLogger(&buf))
		pattern, err := s.Get(context.Background(), "dealer.example.com")
		require.NoError(t, err)
		require.Equal(t, lotscan.TierSelector, pattern.Tier)

		out := buf.String()
		assert.Contains(t, out, "pattern hit")
		assert.Contains(t, out, "domain=dealer.example.com")
		assert.Contains(t, out, "tier=selector")
	})

	t.Run("logs cache misses", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		svc := &mock.PatternService{
			GetFn: func(ctx context.Context, domain string) (*lotscan.DomainPattern, error) {
				return nil, lotscan.Errorf(lotscan.ENOTFOUND, "no pattern for %q", domain)
			},
		}

		s := lotscanslog.NewLoggingPatternService(svc, debugLogger(&buf))
		_, err := s.Get(context.Background(), "dealer.example.com")
		require.Error(t, err)
		assert.Equal(t, lotscan.ENOTFOUND, lotscan.ErrorCode(err))
		assert.Contains(t, buf.String(), "pattern miss")
	})

	t.Run("logs saves", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		var saved *lotscan.DomainPattern
		svc := &mock.PatternService{
			SaveFn: func(ctx context.Context, pattern *lotscan.DomainPattern) error {
				saved = pattern
				return nil
			},
		}

		s := lotscanslog.NewLoggingPatternService(svc, debugLogger(&buf))
		err := s.Save(context.Background(), &lotscan.DomainPattern{
			Domain:      "dealer.example.com",
			Tier:        lotscan.TierAPI,
			SuccessRate: 1.0,
		})
		require.NoError(t, err)
		require.NotNil(t, saved)

		out := buf.String()
		assert.Contains(t, out, "pattern saved")
		assert.Contains(t, out, "tier=api")
	})

	t.Run("logs outcomes and prunes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		svc := &mock.PatternService{
			RecordOutcomeFn: func(ctx context.Context, domain string, success bool) error {
				return nil
			},
			PruneFn: func(ctx context.Context, threshold float64) (int, error) {
				return 2, nil
			},
		}

		s := lotscanslog.NewLoggingPatternService(svc, debugLogger(&buf))
		require.NoError(t, s.RecordOutcome(context.Background(), "dealer.example.com", false))

		n, err := s.Prune(context.Background(), lotscan.DefaultPruneThreshold)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		out := buf.String()
		assert.Contains(t, out, "pattern outcome")
		assert.Contains(t, out, "success=false")
		assert.Contains(t, out, "patterns pruned")
		assert.Contains(t, out, "deleted=2")
	})
}
