package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lotscan/lotscan"
)

// Compile-time interface verification.
var _ lotscan.PatternService = (*PatternService)(nil)

// PatternService implements lotscan.PatternService using SQLite, with a
// read-through in-memory cache in front of the table. The cache makes
// the per-scrape pattern lookup free; SQLite makes it survive restarts.
type PatternService struct {
	db    *DB
	alpha float64

	mu    sync.RWMutex
	cache map[string]*lotscan.DomainPattern
}

// PatternOption configures a PatternService.
type PatternOption func(*PatternService)

// WithAlpha sets the EMA smoothing factor used by RecordOutcome.
func WithAlpha(alpha float64) PatternOption {
	return func(s *PatternService) {
		s.alpha = alpha
	}
}

// NewPatternService creates a new PatternService.
func NewPatternService(db *DB, opts ...PatternOption) *PatternService {
	s := &PatternService{
		db:    db,
		alpha: lotscan.DefaultSuccessAlpha,
		cache: make(map[string]*lotscan.DomainPattern),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves the pattern for a normalized domain.
func (s *PatternService) Get(ctx context.Context, domain string) (*lotscan.DomainPattern, error) {
	if domain == "" {
		return nil, lotscan.Errorf(lotscan.EINVALID, "domain required")
	}

	s.mu.RLock()
	cached, ok := s.cache[domain]
	s.mu.RUnlock()
	if ok {
		return clonePattern(cached), nil
	}

	var (
		pattern    lotscan.DomainPattern
		configJSON string
		lastUsed   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT domain, tier, config, last_used_at, success_rate
		FROM patterns
		WHERE domain = ?
	`, domain).Scan(&pattern.Domain, &pattern.Tier, &configJSON, &lastUsed, &pattern.SuccessRate)

	if err == sql.ErrNoRows {
		return nil, lotscan.Errorf(lotscan.ENOTFOUND, "no pattern for domain %q", domain)
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(configJSON), &pattern.Config); err != nil {
		return nil, fmt.Errorf("failed to parse pattern config: %w", err)
	}
	pattern.LastUsedAt, err = time.Parse(time.RFC3339, lastUsed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_used_at: %w", err)
	}

	s.put(&pattern)
	return clonePattern(&pattern), nil
}

// Save upserts a pattern by domain. A zero LastUsedAt is stamped with
// the current time.
func (s *PatternService) Save(ctx context.Context, pattern *lotscan.DomainPattern) error {
	if err := pattern.Validate(); err != nil {
		return err
	}

	if pattern.LastUsedAt.IsZero() {
		pattern.LastUsedAt = time.Now().UTC()
	}

	configJSON, err := json.Marshal(pattern.Config)
	if err != nil {
		return fmt.Errorf("failed to encode pattern config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO patterns (domain, tier, config, last_used_at, success_rate)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (domain) DO UPDATE SET
			tier = excluded.tier,
			config = excluded.config,
			last_used_at = excluded.last_used_at,
			success_rate = excluded.success_rate
	`, pattern.Domain, string(pattern.Tier), string(configJSON),
		pattern.LastUsedAt.Format(time.RFC3339), pattern.SuccessRate)
	if err != nil {
		return err
	}

	s.put(pattern)
	return nil
}

// RecordOutcome folds one observation into the domain's success rate
// and refreshes its timestamp.
func (s *PatternService) RecordOutcome(ctx context.Context, domain string, success bool) error {
	pattern, err := s.Get(ctx, domain)
	if err != nil {
		return err
	}

	pattern.SuccessRate = lotscan.ApplyOutcome(pattern.SuccessRate, success, s.alpha)
	pattern.LastUsedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE patterns SET success_rate = ?, last_used_at = ? WHERE domain = ?
	`, pattern.SuccessRate, pattern.LastUsedAt.Format(time.RFC3339), domain)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return lotscan.Errorf(lotscan.ENOTFOUND, "no pattern for domain %q", domain)
	}

	s.put(pattern)
	return nil
}

// List returns every cached pattern, most trusted first. It reads the
// table directly so the listing reflects persisted state, not the
// in-memory cache.
func (s *PatternService) List(ctx context.Context) ([]*lotscan.DomainPattern, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, tier, config, last_used_at, success_rate
		FROM patterns
		ORDER BY success_rate DESC, domain
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []*lotscan.DomainPattern
	for rows.Next() {
		var (
			pattern    lotscan.DomainPattern
			configJSON string
			lastUsed   string
		)
		if err := rows.Scan(&pattern.Domain, &pattern.Tier, &configJSON, &lastUsed, &pattern.SuccessRate); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(configJSON), &pattern.Config); err != nil {
			return nil, fmt.Errorf("failed to parse pattern config: %w", err)
		}
		pattern.LastUsedAt, err = time.Parse(time.RFC3339, lastUsed)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_used_at: %w", err)
		}
		patterns = append(patterns, &pattern)
	}
	return patterns, rows.Err()
}

// Prune deletes all patterns with a success rate below threshold.
func (s *PatternService) Prune(ctx context.Context, threshold float64) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM patterns WHERE success_rate < ?
	`, threshold)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	// Dropping the whole cache is simpler than tracking which entries
	// the DELETE removed, and pruning is rare.
	s.mu.Lock()
	s.cache = make(map[string]*lotscan.DomainPattern)
	s.mu.Unlock()

	return int(n), nil
}

func (s *PatternService) put(pattern *lotscan.DomainPattern) {
	s.mu.Lock()
	s.cache[pattern.Domain] = clonePattern(pattern)
	s.mu.Unlock()
}

// clonePattern copies a pattern so cache entries never alias caller
// state. The nested configs are copied too.
func clonePattern(p *lotscan.DomainPattern) *lotscan.DomainPattern {
	out := *p
	if p.Config.API != nil {
		api := *p.Config.API
		out.Config.API = &api
	}
	if p.Config.Selector != nil {
		sel := *p.Config.Selector
		if sel.Fields != nil {
			fields := make(map[string]string, len(sel.Fields))
			for k, v := range sel.Fields {
				fields[k] = v
			}
			sel.Fields = fields
		}
		out.Config.Selector = &sel
	}
	return &out
}
