package scrape

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/lotscan/lotscan"
	"github.com/lotscan/lotscan/bloom"
)

// expectedListings sizes the per-scrape dedup filter. Dealership lots
// rarely exceed a few thousand vehicles.
const expectedListings = 4096

// deduper drops listings already seen earlier in the same scrape.
// Pagination overlap and featured-vehicle carousels surface the same
// car on multiple pages.
type deduper struct {
	seen *bloom.Filter
}

func newDeduper() *deduper {
	return &deduper{seen: bloom.NewFilter(expectedListings, 0.001)}
}

// filter returns the records not seen before, marking them seen.
func (d *deduper) filter(records []lotscan.VehicleRecord) []lotscan.VehicleRecord {
	out := records[:0:0]
	for _, rec := range records {
		if !d.seen.TestAndAdd(identityKey(rec)) {
			out = append(out, rec)
		}
	}
	return out
}

// identityKey is the listing's identity for deduplication: the VIN when
// present, otherwise a hash of year, make, model and price.
func identityKey(rec lotscan.VehicleRecord) string {
	if rec.VIN != "" {
		return "vin:" + rec.VIN
	}
	raw := fmt.Sprintf("%d|%s|%s|%.0f",
		rec.Year,
		strings.ToLower(rec.Make),
		strings.ToLower(rec.Model),
		rec.Price,
	)
	return strconv.FormatUint(xxhash.Sum64String(raw), 16)
}
