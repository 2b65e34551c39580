package slog

import (
	"context"
	"log/slog"

	"github.com/lotscan/lotscan"
)

// Ensure LoggingPatternService implements lotscan.PatternService.
var _ lotscan.PatternService = (*LoggingPatternService)(nil)

// LoggingPatternService wraps a PatternService with debug logging so
// pattern cache behavior is observable per domain.
type LoggingPatternService struct {
	next   lotscan.PatternService
	logger *slog.Logger
}

// NewLoggingPatternService creates a new LoggingPatternService.
func NewLoggingPatternService(next lotscan.PatternService, logger *slog.Logger) *LoggingPatternService {
	return &LoggingPatternService{next: next, logger: logger}
}

// Get delegates to the wrapped service, logging hits and misses.
func (s *LoggingPatternService) Get(ctx context.Context, domain string) (*lotscan.DomainPattern, error) {
	pattern, err := s.next.Get(ctx, domain)
	if err != nil {
		s.logger.Debug("pattern miss", "domain", domain, "err", err)
		return nil, err
	}
	s.logger.Debug("pattern hit",
		"domain", domain,
		"tier", string(pattern.Tier),
		"success_rate", pattern.SuccessRate,
	)
	return pattern, nil
}

// Save delegates to the wrapped service.
func (s *LoggingPatternService) Save(ctx context.Context, pattern *lotscan.DomainPattern) (err error) {
	defer func() {
		s.logger.Info("pattern saved",
			"domain", pattern.Domain,
			"tier", string(pattern.Tier),
			"err", err,
		)
	}()
	return s.next.Save(ctx, pattern)
}

// RecordOutcome delegates to the wrapped service.
func (s *LoggingPatternService) RecordOutcome(ctx context.Context, domain string, success bool) error {
	err := s.next.RecordOutcome(ctx, domain, success)
	s.logger.Debug("pattern outcome", "domain", domain, "success", success, "err", err)
	return err
}

// Prune delegates to the wrapped service.
func (s *LoggingPatternService) Prune(ctx context.Context, threshold float64) (int, error) {
	n, err := s.next.Prune(ctx, threshold)
	s.logger.Info("patterns pruned", "threshold", threshold, "deleted", n, "err", err)
	return n, err
}
