// Package goquery implements the DOM-based extraction tiers over the
// rendered-HTML snapshot: Tier 2 (embedded schema.org structured data)
// and Tier 3 (heuristic CSS selector discovery). Both are pure
// functions over the snapshot, so they are testable with HTML fixtures
// and never touch a live browser.
package goquery

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lotscan/lotscan"
)

// Ensure StructuredExtractor implements the interface at compile time.
var _ lotscan.StructuredExtractor = (*StructuredExtractor)(nil)

// vehicleTypes are the schema.org @type values treated as vehicles.
// Product is included because many dealership platforms mark listings
// up as products; those only count when they carry vehicle fields.
var vehicleTypes = map[string]bool{
	"Car":        true,
	"Vehicle":    true,
	"Automobile": true,
	"Product":    true,
}

// maxLDDepth bounds recursion through nested JSON-LD graphs.
const maxLDDepth = 6

// StructuredExtractor is Tier 2: it parses every JSON-LD block on the
// page and walks it for vehicle objects.
type StructuredExtractor struct{}

// NewStructuredExtractor creates a new StructuredExtractor.
func NewStructuredExtractor() *StructuredExtractor {
	return &StructuredExtractor{}
}

// Extract parses machine-readable metadata into records. Structured
// data is authored by the site itself, so confidence is high. The
// learned pattern is just the marker that structured data is present;
// re-parsing is as cheap as any cached recipe.
func (e *StructuredExtractor) Extract(snapshot *lotscan.Snapshot) (*lotscan.ExtractionResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot.HTML))
	if err != nil {
		return nil, lotscan.Errorf(lotscan.EINVALID, "failed to parse HTML: %v", err)
	}

	var records []lotscan.VehicleRecord
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return // malformed block, skip
		}
		walkLD(data, 0, func(node map[string]any) {
			if rec, ok := parseLDVehicle(node, snapshot.URL); ok {
				records = append(records, rec)
			}
		})
	})

	records = lotscan.FilterUsable(records, snapshot.URL)
	if len(records) == 0 {
		return nil, nil
	}

	return &lotscan.ExtractionResult{
		Records:    records,
		Tier:       lotscan.TierStructured,
		Confidence: lotscan.ConfidenceHigh,
		Learned:    &lotscan.PatternConfig{},
	}, nil
}

// walkLD recursively visits JSON-LD values, emitting every object whose
// @type is a vehicle type. It descends through arrays, @graph wrappers
// and ItemList entries (including their "item" indirection).
func walkLD(data any, depth int, emit func(map[string]any)) {
	if depth > maxLDDepth {
		return
	}
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			walkLD(item, depth+1, emit)
		}
	case map[string]any:
		if isVehicleType(v["@type"]) {
			emit(v)
		}
		if graph, ok := v["@graph"]; ok {
			walkLD(graph, depth+1, emit)
		}
		if elems, ok := v["itemListElement"]; ok {
			walkLD(elems, depth+1, emit)
		}
		if item, ok := v["item"]; ok {
			walkLD(item, depth+1, emit)
		}
	}
}

// isVehicleType handles @type as a string or an array of strings.
func isVehicleType(t any) bool {
	switch v := t.(type) {
	case string:
		return vehicleTypes[v]
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && vehicleTypes[s] {
				return true
			}
		}
	}
	return false
}

// parseLDVehicle maps a schema.org vehicle object to a record. A record
// is kept only if it has (year AND make) OR a VIN.
func parseLDVehicle(node map[string]any, pageURL string) (lotscan.VehicleRecord, bool) {
	rec := lotscan.VehicleRecord{SourceURL: pageURL}

	rec.Make = ldName(node["brand"])
	if rec.Make == "" {
		rec.Make = ldName(node["manufacturer"])
	}
	rec.Model = ldName(node["model"])

	for _, key := range []string{"vehicleModelDate", "modelDate", "yearOfProduction", "productionDate"} {
		if y := ldYear(node[key]); y != 0 {
			rec.Year = y
			break
		}
	}

	if vin := ldString(node["vehicleIdentificationNumber"]); vin != "" {
		rec.VIN = strings.ToUpper(vin)
	} else if vin := ldString(node["vin"]); vin != "" {
		rec.VIN = strings.ToUpper(vin)
	}

	if price := ldPrice(node["offers"]); price > 0 {
		rec.Price = price
	} else if price := ldNumber(node["price"]); price > 0 {
		rec.Price = price
	}

	if odo := node["mileageFromOdometer"]; odo != nil {
		switch v := odo.(type) {
		case map[string]any:
			rec.Mileage = int(ldNumber(v["value"]))
		default:
			rec.Mileage = int(ldNumber(v))
		}
	}

	rec.Color = ldString(node["color"])
	rec.Trim = ldString(node["vehicleConfiguration"])
	rec.ImageURL = ldImage(node["image"])

	// Many listings only carry a display name; mine it for anything
	// the structured fields did not provide.
	if name := ldString(node["name"]); name != "" {
		rec.Title = name
		if rec.Make == "" {
			if make, ok := lotscan.MatchMake(name); ok {
				rec.Make = make
			}
		}
		if rec.Year == 0 {
			if y, ok := lotscan.YearToken(name, lotscan.MinTitleYear, lotscan.MaxTitleYear); ok {
				rec.Year = y
			}
		}
		if rec.Model == "" && rec.Make != "" {
			rec.Model = lotscan.ModelAfterMake(name, rec.Make)
		}
	}

	if (rec.Year != 0 && rec.Make != "") || rec.VIN != "" {
		return rec, true
	}
	return lotscan.VehicleRecord{}, false
}

// ldName unwraps values that may be a plain string or an object with a
// "name" property (brand, manufacturer, model).
func ldName(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return ldString(t["name"])
	}
	return ""
}

func ldString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// ldNumber parses numeric values that may arrive as JSON numbers or as
// strings with currency noise ("$24,999").
func ldNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if n, ok := lotscan.NumericValue(t); ok {
			return n
		}
	}
	return 0
}

// ldYear extracts the first four digits of a model-date value.
func ldYear(v any) int {
	switch t := v.(type) {
	case float64:
		y := int(t)
		if y >= lotscan.MinTitleYear && y <= lotscan.MaxTitleYear {
			return y
		}
	case string:
		if y, ok := lotscan.YearToken(t, lotscan.MinTitleYear, lotscan.MaxTitleYear); ok {
			return y
		}
	}
	return 0
}

// ldPrice reads offers.price from an object or the first element of an
// offer array.
func ldPrice(offers any) float64 {
	switch v := offers.(type) {
	case map[string]any:
		return ldNumber(v["price"])
	case []any:
		if len(v) > 0 {
			return ldPrice(v[0])
		}
	}
	return 0
}

// ldImage unwraps image values: a string, an array, or an object with a
// "url" property.
func ldImage(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) > 0 {
			return ldImage(t[0])
		}
	case map[string]any:
		return ldString(t["url"])
	}
	return ""
}
