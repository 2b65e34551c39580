// Package bloom provides probabilistic seen-listing tracking for
// multi-page scrapes using Bloom filters.
package bloom

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter tracks listing identity keys across the pages of one scrape.
// False positives are possible (a new listing may be dropped as a
// duplicate); false negatives are not. Filter is safe for concurrent
// use by page workers.
type Filter struct {
	mu sync.Mutex
	f  *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected listings with the
// given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// TestAndAdd reports whether the key was possibly seen before, adding
// it as a side effect. The check and the add are one atomic step so two
// workers cannot both claim the same listing.
func (f *Filter) TestAndAdd(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.TestAndAddString(key)
}

// EstimatedCount returns the approximate number of tracked listings.
func (f *Filter) EstimatedCount() uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint(f.f.ApproximatedSize())
}
