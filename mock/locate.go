package mock

import (
	"context"

	"github.com/lotscan/lotscan"
)

var _ lotscan.InventoryLocator = (*InventoryLocator)(nil)
var _ lotscan.CatalogProber = (*CatalogProber)(nil)
var _ lotscan.DomainLimiter = (*DomainLimiter)(nil)

// InventoryLocator is a mock implementation of lotscan.InventoryLocator.
type InventoryLocator struct {
	LocateFn func(ctx context.Context, siteURL string, limit int) ([]string, error)
}

func (l *InventoryLocator) Locate(ctx context.Context, siteURL string, limit int) ([]string, error) {
	return l.LocateFn(ctx, siteURL, limit)
}

// CatalogProber is a mock implementation of lotscan.CatalogProber.
type CatalogProber struct {
	ProbeFn func(ctx context.Context, siteURL string) (*lotscan.NetworkResponse, error)
}

func (p *CatalogProber) Probe(ctx context.Context, siteURL string) (*lotscan.NetworkResponse, error) {
	return p.ProbeFn(ctx, siteURL)
}

// DomainLimiter is a mock implementation of lotscan.DomainLimiter. A nil
// WaitFn never blocks.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	if l.WaitFn == nil {
		return nil
	}
	return l.WaitFn(ctx, domain)
}
