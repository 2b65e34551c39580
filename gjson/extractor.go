// Package gjson implements Tier 1 extraction: inspecting the network
// responses captured during a page load and pulling vehicle records out
// of the best JSON payload that resembles an inventory list.
package gjson

import (
	"net/url"
	"strings"

	"github.com/lotscan/lotscan"
	"github.com/tidwall/gjson"
)

// Ensure Extractor implements lotscan.ResponseExtractor at compile time.
var _ lotscan.ResponseExtractor = (*Extractor)(nil)

// apiPathHints are URL path fragments that mark a response as worth
// inspecting even when its content type is not JSON.
var apiPathHints = []string{
	"/api/", "/graphql", "/v1/", "/v2/", "/inventory", "/vehicles", "/search",
}

// classifierKeys are matched (case-insensitive substring) against a
// sample element's keys to decide whether an array looks like a vehicle
// list at all.
var classifierKeys = []string{
	"year", "make", "model", "vin", "price", "mileage", "vehicle",
}

// maxNestingDepth bounds the search for a nested vehicle array inside
// wrapper objects ({"data": {"results": [...]}}).
const maxNestingDepth = 3

// Extractor parses captured network responses into vehicle records.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract inspects every qualifying response and returns records from
// the one yielding the most valid results. API responses are
// structurally reliable, so confidence is always high when non-empty.
func (e *Extractor) Extract(snapshot *lotscan.Snapshot) (*lotscan.ExtractionResult, error) {
	var (
		bestRecords []lotscan.VehicleRecord
		bestResp    *lotscan.NetworkResponse
	)

	for i := range snapshot.Responses {
		resp := &snapshot.Responses[i]
		if !worthInspecting(resp) {
			continue
		}
		if !gjson.ValidBytes(resp.Body) {
			continue
		}

		records := extractRecords(gjson.ParseBytes(resp.Body), snapshot.URL)
		records = lotscan.FilterUsable(records, snapshot.URL)
		if len(records) > len(bestRecords) {
			bestRecords = records
			bestResp = resp
		}
	}

	if bestResp == nil {
		return nil, nil
	}

	method := bestResp.Method
	if method == "" {
		method = "GET"
	}

	return &lotscan.ExtractionResult{
		Records:    bestRecords,
		Tier:       lotscan.TierAPI,
		Confidence: lotscan.ConfidenceHigh,
		Learned: &lotscan.PatternConfig{
			API: &lotscan.APIPattern{Endpoint: bestResp.URL, Method: method},
		},
	}, nil
}

// worthInspecting is the cheap pre-filter: URL shape or content type
// must suggest a data endpoint, and there must be a body to parse.
func worthInspecting(resp *lotscan.NetworkResponse) bool {
	if len(resp.Body) == 0 {
		return false
	}
	if strings.Contains(strings.ToLower(resp.ContentType), "json") {
		return true
	}
	u, err := url.Parse(resp.URL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	if strings.HasSuffix(path, ".json") {
		return true
	}
	for _, hint := range apiPathHints {
		if strings.Contains(path, hint) {
			return true
		}
	}
	return false
}

// extractRecords pulls vehicle records out of a parsed JSON document.
// Product-catalog payloads get their own parser; everything else goes
// through the generic fuzzy field resolution.
func extractRecords(root gjson.Result, pageURL string) []lotscan.VehicleRecord {
	if products := root.Get("products"); looksLikeCatalog(products) {
		return parseCatalog(products, pageURL)
	}

	arr, ok := findVehicleArray(root, 0)
	if !ok {
		return nil
	}

	var records []lotscan.VehicleRecord
	for _, elem := range arr.Array() {
		if !elem.IsObject() {
			continue
		}
		if rec, ok := parseObject(elem, pageURL); ok {
			records = append(records, rec)
		}
	}
	return records
}

// findVehicleArray locates the first array of vehicle-shaped objects,
// either at the root or nested inside wrapper objects.
func findVehicleArray(node gjson.Result, depth int) (gjson.Result, bool) {
	if node.IsArray() {
		if vehicleShaped(node) {
			return node, true
		}
		return gjson.Result{}, false
	}
	if !node.IsObject() || depth >= maxNestingDepth {
		return gjson.Result{}, false
	}

	// Arrays first, then descend into wrapper objects.
	for _, value := range sortedValues(node) {
		if value.IsArray() && vehicleShaped(value) {
			return value, true
		}
	}
	for _, value := range sortedValues(node) {
		if value.IsObject() {
			if arr, ok := findVehicleArray(value, depth+1); ok {
				return arr, true
			}
		}
	}
	return gjson.Result{}, false
}

// vehicleShaped samples the first object element of an array and checks
// whether any of its keys fuzzily matches a vehicle field name.
func vehicleShaped(arr gjson.Result) bool {
	elems := arr.Array()
	if len(elems) == 0 {
		return false
	}
	sample := elems[0]
	if !sample.IsObject() {
		return false
	}
	for key := range sample.Map() {
		lower := strings.ToLower(key)
		for _, ck := range classifierKeys {
			if strings.Contains(lower, ck) {
				return true
			}
		}
	}
	return false
}
