package gjson

import (
	"sort"
	"strings"

	"github.com/lotscan/lotscan"
	"github.com/tidwall/gjson"
)

// Field names vary wildly by inventory vendor, so resolution is fuzzy:
// an ordered list of synonyms per field, matched first exactly and then
// as a case-insensitive substring of the key. "vehicle_mileage_miles"
// resolves to mileage through the substring pass.
var (
	yearSynonyms    = []string{"modelyear", "model_year", "year"}
	makeSynonyms    = []string{"make", "manufacturer", "brand"}
	modelSynonyms   = []string{"model"}
	trimSynonyms    = []string{"trim", "series"}
	colorSynonyms   = []string{"exteriorcolor", "exterior_color", "colour", "color"}
	mileageSynonyms = []string{"mileage", "odometer", "miles", "km"}
	vinSynonyms     = []string{"vin"}
	priceSynonyms   = []string{"price", "msrp"}
	stockSynonyms   = []string{"stocknumber", "stock_number", "stock"}
	imageSynonyms   = []string{"image", "photo", "thumbnail"}
	linkSynonyms    = []string{"url", "link", "href"}
	titleSynonyms   = []string{"title", "name", "heading"}
)

// resolveField finds the value for one logical field in an object.
// Exact matches win over substring matches; keys containing any of the
// exclude fragments are skipped in the substring pass so "model" never
// claims "model_year". Keys are scanned in sorted order so resolution
// is deterministic.
func resolveField(obj gjson.Result, synonyms []string, exclude ...string) (gjson.Result, bool) {
	m := obj.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, syn := range synonyms {
		for _, key := range keys {
			if strings.ToLower(key) == syn {
				return m[key], true
			}
		}
	}
	for _, syn := range synonyms {
		for _, key := range keys {
			lower := strings.ToLower(key)
			if !strings.Contains(lower, syn) {
				continue
			}
			if containsAny(lower, exclude) {
				continue
			}
			return m[key], true
		}
	}
	return gjson.Result{}, false
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

// parseObject converts one untyped JSON object into a vehicle record.
// Returns false when nothing vehicle-like could be resolved.
func parseObject(obj gjson.Result, pageURL string) (lotscan.VehicleRecord, bool) {
	rec := lotscan.VehicleRecord{SourceURL: pageURL}

	if v, ok := resolveField(obj, titleSynonyms, "file", "image"); ok {
		rec.Title = strings.TrimSpace(v.String())
	}
	if v, ok := resolveField(obj, yearSynonyms); ok {
		rec.Year = parseYear(v)
	}
	if v, ok := resolveField(obj, makeSynonyms); ok {
		rec.Make = nameOf(v)
	}
	if v, ok := resolveField(obj, modelSynonyms, "year", "date"); ok {
		rec.Model = nameOf(v)
	}
	if v, ok := resolveField(obj, trimSynonyms); ok {
		rec.Trim = strings.TrimSpace(v.String())
	}
	if v, ok := resolveField(obj, colorSynonyms); ok {
		rec.Color = strings.TrimSpace(v.String())
	}
	if v, ok := resolveField(obj, mileageSynonyms); ok {
		if n, ok := numeric(v); ok && n >= 0 {
			rec.Mileage = int(n)
		}
	}
	if v, ok := resolveField(obj, vinSynonyms); ok {
		rec.VIN = strings.ToUpper(strings.TrimSpace(v.String()))
	}
	if v, ok := resolveField(obj, priceSynonyms); ok {
		if n, ok := numeric(v); ok && n > 0 {
			rec.Price = n
		}
	}
	if v, ok := resolveField(obj, stockSynonyms); ok {
		rec.StockNumber = strings.TrimSpace(v.String())
	}
	if v, ok := resolveField(obj, imageSynonyms); ok {
		rec.ImageURL = urlOf(v)
	}
	if v, ok := resolveField(obj, linkSynonyms, "image", "photo", "thumbnail"); ok {
		rec.DetailURL = strings.TrimSpace(v.String())
	}

	// Fall back to the title when structured fields are missing.
	if rec.Title != "" {
		if rec.Make == "" {
			if make, ok := lotscan.MatchMake(rec.Title); ok {
				rec.Make = make
			}
		}
		if rec.Year == 0 {
			if y, ok := lotscan.YearToken(rec.Title, lotscan.MinTitleYear, lotscan.MaxTitleYear); ok {
				rec.Year = y
			}
		}
		if rec.Model == "" && rec.Make != "" {
			rec.Model = lotscan.ModelAfterMake(rec.Title, rec.Make)
		}
	}

	empty := rec.Year == 0 && rec.Make == "" && rec.Model == "" &&
		rec.VIN == "" && rec.Price == 0 && rec.Mileage == 0
	return rec, !empty
}

// parseYear accepts numbers and year-bearing strings ("2021",
// "2021-09-01").
func parseYear(v gjson.Result) int {
	if v.Type == gjson.Number {
		y := int(v.Int())
		if y >= lotscan.MinTitleYear && y <= lotscan.MaxTitleYear {
			return y
		}
		return 0
	}
	if y, ok := lotscan.YearToken(v.String(), lotscan.MinTitleYear, lotscan.MaxTitleYear); ok {
		return y
	}
	return 0
}

// nameOf unwraps {"name": "..."} objects that some vendors use for
// make and model.
func nameOf(v gjson.Result) string {
	if v.IsObject() {
		return strings.TrimSpace(v.Get("name").String())
	}
	return strings.TrimSpace(v.String())
}

// urlOf unwraps image values that may be a string, an object with
// url/src, or an array of either.
func urlOf(v gjson.Result) string {
	if v.IsArray() {
		elems := v.Array()
		if len(elems) == 0 {
			return ""
		}
		return urlOf(elems[0])
	}
	if v.IsObject() {
		if u := v.Get("url"); u.Exists() {
			return strings.TrimSpace(u.String())
		}
		return strings.TrimSpace(v.Get("src").String())
	}
	return strings.TrimSpace(v.String())
}

// numeric parses numbers and numeric strings ("24,999", "$24,999").
func numeric(v gjson.Result) (float64, bool) {
	if v.Type == gjson.Number {
		return v.Float(), true
	}
	return lotscan.NumericValue(v.String())
}

// sortedValues returns the object's values ordered by key so traversal
// is deterministic.
func sortedValues(obj gjson.Result) []gjson.Result {
	m := obj.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]gjson.Result, 0, len(keys))
	for _, k := range keys {
		values = append(values, m[k])
	}
	return values
}
