package mock

import (
	"context"

	"github.com/lotscan/lotscan"
)

var _ lotscan.PatternService = (*PatternService)(nil)

// PatternService is a mock implementation of lotscan.PatternService.
type PatternService struct {
	GetFn           func(ctx context.Context, domain string) (*lotscan.DomainPattern, error)
	SaveFn          func(ctx context.Context, pattern *lotscan.DomainPattern) error
	RecordOutcomeFn func(ctx context.Context, domain string, success bool) error
	PruneFn         func(ctx context.Context, threshold float64) (int, error)
}

func (s *PatternService) Get(ctx context.Context, domain string) (*lotscan.DomainPattern, error) {
	return s.GetFn(ctx, domain)
}

func (s *PatternService) Save(ctx context.Context, pattern *lotscan.DomainPattern) error {
	return s.SaveFn(ctx, pattern)
}

func (s *PatternService) RecordOutcome(ctx context.Context, domain string, success bool) error {
	return s.RecordOutcomeFn(ctx, domain, success)
}

func (s *PatternService) Prune(ctx context.Context, threshold float64) (int, error) {
	return s.PruneFn(ctx, threshold)
}
