package lotscan

import "strings"

// Tier identifies one of the ordered extraction strategies.
type Tier string

// Extraction tiers, cheapest first.
const (
	TierAPI        Tier = "api"        // Tier 1: network API interception
	TierStructured Tier = "structured" // Tier 2: embedded structured data
	TierSelector   Tier = "selector"   // Tier 3: CSS selector discovery
	TierVision     Tier = "vision"     // Tier 4: vision-model fallback
)

// Confidence expresses how structurally reliable a tier's output is.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Plausibility windows for numeric fields. Values outside these ranges
// are treated as extraction noise and dropped rather than surfaced.
const (
	MinTitleYear = 1900 // year tokens matched inside free text
	MaxTitleYear = 2099
	MinListingYear = 1990 // model years accepted from DOM heuristics
	MaxListingYear = 2039
	MinPlausibleMileage = 100
	MaxPlausibleMileage = 500000
)

// VehicleRecord is one listed vehicle. All fields except SourceURL are
// optional; SourceURL is mandatory so every record stays traceable to
// the page it was extracted from.
type VehicleRecord struct {
	Year        int     `json:"year,omitempty"`
	Make        string  `json:"make,omitempty"`
	Model       string  `json:"model,omitempty"`
	Trim        string  `json:"trim,omitempty"`
	Color       string  `json:"color,omitempty"`
	Mileage     int     `json:"mileage,omitempty"`
	VIN         string  `json:"vin,omitempty"`
	Price       float64 `json:"price,omitempty"`
	StockNumber string  `json:"stockNumber,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	DetailURL   string  `json:"detailUrl,omitempty"`
	ListingDate string  `json:"listingDate,omitempty"`
	Title       string  `json:"title,omitempty"`
	SourceURL   string  `json:"sourceUrl"`
}

// Usable reports whether the record satisfies the minimal-validity
// invariant: a 17-character VIN, or year plus make, or price plus year.
// Records failing it are discarded before reaching the caller.
func (v *VehicleRecord) Usable() bool {
	switch {
	case len(v.VIN) == 17:
		return true
	case v.Year != 0 && v.Make != "":
		return true
	case v.Price > 0 && v.Year != 0:
		return true
	}
	return false
}

// ValidVIN reports whether s is a well-formed 17-character VIN:
// alphanumeric, and free of the letters I, O and Q which the standard
// excludes to avoid digit confusion.
func ValidVIN(s string) bool {
	if len(s) != 17 {
		return false
	}
	for _, r := range strings.ToUpper(s) {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z':
			if r == 'I' || r == 'O' || r == 'Q' {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// FilterUsable returns the records that satisfy the minimal-validity
// invariant, normalizing VINs to uppercase and attaching sourceURL where
// a record arrived without one.
func FilterUsable(records []VehicleRecord, sourceURL string) []VehicleRecord {
	var out []VehicleRecord
	for _, r := range records {
		r.VIN = strings.ToUpper(strings.TrimSpace(r.VIN))
		if r.Mileage < 0 {
			r.Mileage = 0
		}
		if r.Price < 0 {
			r.Price = 0
		}
		if r.SourceURL == "" {
			r.SourceURL = sourceURL
		}
		if r.Usable() {
			out = append(out, r)
		}
	}
	return out
}

// APIPattern records how to repeat a Tier 1 extraction cheaply: hit the
// endpoint again and parse the same payload shape.
type APIPattern struct {
	Endpoint string `json:"endpoint"`
	Method   string `json:"method"`
}

// SelectorPattern records how to repeat a Tier 3 extraction: the
// container selector that matched listings, plus best-effort per-field
// selectors relative to the container.
type SelectorPattern struct {
	Container string            `json:"container"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// PatternConfig is the tier-specific extraction recipe stored with a
// DomainPattern. Exactly one of the pointer fields is set for API and
// selector tiers; the structured tier needs no configuration beyond the
// marker that structured data was present.
type PatternConfig struct {
	API      *APIPattern      `json:"api,omitempty"`
	Selector *SelectorPattern `json:"selector,omitempty"`
}

// ExtractionResult is the output of a single tier attempt.
type ExtractionResult struct {
	Records    []VehicleRecord
	Tier       Tier
	Confidence Confidence

	// Learned describes how to repeat this extraction cheaply next
	// time. Nil when the tier has nothing worth caching.
	Learned *PatternConfig
}
