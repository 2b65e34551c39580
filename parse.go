package lotscan

import (
	"regexp"
	"strconv"
	"strings"
)

// KnownMakes is the fixed manufacturer list used to recognize vehicles
// inside free text (product titles, card text). Order matters only for
// deterministic matching.
var KnownMakes = []string{
	"Toyota", "Ford", "Chevrolet", "Honda", "Nissan", "Jeep", "BMW",
	"Mercedes", "Audi", "Volkswagen", "Hyundai", "Kia", "Mazda",
	"Subaru", "GMC", "Ram", "Dodge", "Cadillac", "Lexus", "Acura",
	"Infiniti", "Buick", "Chrysler", "Tesla", "Volvo", "Porsche",
	"Lincoln", "Mitsubishi", "Genesis",
}

var (
	yearRe    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	priceRe   = regexp.MustCompile(`\$\s*([\d,]+(?:\.\d{1,2})?)`)
	mileageRe = regexp.MustCompile(`(?i)\b(\d{1,3}(?:,\d{3})*|\d+)\s*(?:miles?|mi|km)\b`)
	vinRe     = regexp.MustCompile(`(?i)\bVIN[:\s#]*([A-HJ-NPR-Z0-9]{17})\b`)
	digitsRe  = regexp.MustCompile(`[^\d.]`)
)

// MatchMake scans text for a known manufacturer name and returns it in
// canonical form.
func MatchMake(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, m := range KnownMakes {
		if containsWord(lower, strings.ToLower(m)) {
			return m, true
		}
	}
	return "", false
}

// containsWord reports whether lower contains word bounded by
// non-letter characters, so "Kia" does not match inside "Kiama".
func containsWord(lower, word string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(lower[start-1])
		afterOK := end == len(lower) || !isLetter(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// ModelAfterMake returns the token following the make in a listing
// title, the usual "2021 Toyota Camry SE" layout.
func ModelAfterMake(title, make string) string {
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(make) + `[\s]+([A-Za-z0-9-]+)`)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// YearToken returns the first 4-digit year-like token in text that
// falls within [min, max].
func YearToken(text string, min, max int) (int, bool) {
	for _, m := range yearRe.FindAllString(text, -1) {
		y, err := strconv.Atoi(m)
		if err == nil && y >= min && y <= max {
			return y, true
		}
	}
	return 0, false
}

// ParsePrice returns the first dollar amount in text.
func ParsePrice(text string) (float64, bool) {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// ParseMileage returns the first odometer-looking figure in text,
// bounded by the plausibility window.
func ParseMileage(text string) (int, bool) {
	m := mileageRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil || v < MinPlausibleMileage || v > MaxPlausibleMileage {
		return 0, false
	}
	return v, true
}

// FindVIN returns the first labeled VIN in text.
func FindVIN(text string) (string, bool) {
	m := vinRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	vin := strings.ToUpper(m[1])
	if !ValidVIN(vin) {
		return "", false
	}
	return vin, true
}

// NumericValue strips everything but digits and the decimal point
// before parsing, so "$24,999" and "24 999 USD" both resolve.
func NumericValue(text string) (float64, bool) {
	s := digitsRe.ReplaceAllString(text, "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
