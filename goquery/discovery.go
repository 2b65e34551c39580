package goquery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lotscan/lotscan"
)

// Ensure SelectorDiscovery implements the interface at compile time.
var _ lotscan.SelectorExtractor = (*SelectorDiscovery)(nil)

// containerSelectors is the ranked list of generic "this looks like a
// listing card" patterns. Specific vendor conventions first, schema
// microdata next, generic tags last.
var containerSelectors = []string{
	`[class*="vehicle-card"]`,
	`[class*="vehicle-listing"]`,
	`[class*="inventory-item"]`,
	`[class*="car-listing"]`,
	`[data-vehicle]`,
	`[data-test*="vehicle"]`,
	`[data-testid*="vehicle"]`,
	`[itemtype*="Vehicle"]`,
	`[itemtype*="Car"]`,
	`[class*="vehicle"]`,
	`[class*="product-item"]`,
	`article`,
	`li[class*="result"]`,
	`li`,
}

// detailPathHints mark an anchor as a vehicle detail link.
var detailPathHints = []string{"/vehicle", "/inventory/", "/cars/", "/products/", "/detail"}

// fieldKeywords are the per-field class/data-attribute keywords tried
// inside a container, in extraction order.
var fieldKeywords = []string{"year", "make", "model", "trim", "color", "price", "mileage", "vin", "stock"}

// DefaultMaxContainers caps how many matched containers are parsed per
// selector; listing pages rarely show more per page and unbounded
// generic selectors (li) would otherwise dominate the scoring.
const DefaultMaxContainers = 25

// SelectorDiscovery is Tier 3: it discovers which generic container
// selector matches the page's listing cards and extracts candidate
// fields heuristically from each card.
type SelectorDiscovery struct {
	maxContainers int
}

// NewSelectorDiscovery creates a new SelectorDiscovery.
func NewSelectorDiscovery() *SelectorDiscovery {
	return &SelectorDiscovery{maxContainers: DefaultMaxContainers}
}

// Extract runs discovery: every ranked selector is tried and the one
// whose yield has the most valid records wins. Confidence is medium
// because the fields come from heuristics, not declared structure.
func (d *SelectorDiscovery) Extract(snapshot *lotscan.Snapshot) (*lotscan.ExtractionResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot.HTML))
	if err != nil {
		return nil, lotscan.Errorf(lotscan.EINVALID, "failed to parse HTML: %v", err)
	}

	var (
		bestRecords  []lotscan.VehicleRecord
		bestSelector string
	)
	for _, selector := range containerSelectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		records := d.harvest(sel, snapshot.URL, nil)
		if len(records) > len(bestRecords) {
			bestRecords = records
			bestSelector = selector
		}
	}

	if len(bestRecords) == 0 {
		return nil, nil
	}

	return &lotscan.ExtractionResult{
		Records:    bestRecords,
		Tier:       lotscan.TierSelector,
		Confidence: lotscan.ConfidenceMedium,
		Learned: &lotscan.PatternConfig{
			Selector: &lotscan.SelectorPattern{
				Container: bestSelector,
				Fields:    fieldSelectors(doc.Find(bestSelector).First()),
			},
		},
	}, nil
}

// ExtractWithPattern is the cached fast path: apply a previously
// learned container (and field selectors, when present) without
// running discovery.
func (d *SelectorDiscovery) ExtractWithPattern(snapshot *lotscan.Snapshot, pattern *lotscan.SelectorPattern) []lotscan.VehicleRecord {
	if pattern == nil || pattern.Container == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot.HTML))
	if err != nil {
		return nil
	}
	return d.harvest(doc.Find(pattern.Container), snapshot.URL, pattern.Fields)
}

// harvest parses up to maxContainers matched containers into records,
// keeping only those with (year AND make) OR a VIN.
func (d *SelectorDiscovery) harvest(sel *goquery.Selection, pageURL string, fields map[string]string) []lotscan.VehicleRecord {
	var records []lotscan.VehicleRecord
	sel.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= d.maxContainers {
			return false
		}
		if rec, ok := parseContainer(s, pageURL, fields); ok {
			records = append(records, rec)
		}
		return true
	})
	return records
}

// parseContainer extracts candidate vehicle fields from one container.
// Priority per field: learned selector, data attributes / keyword
// descendants, label-value pairs, free-text scan, regex fallback over
// the container's whole text.
func parseContainer(s *goquery.Selection, pageURL string, fields map[string]string) (lotscan.VehicleRecord, bool) {
	text := normalizeSpace(s.Text())
	rec := lotscan.VehicleRecord{SourceURL: pageURL}

	field := func(kw string) string {
		if fsel, ok := fields[kw]; ok && fsel != "" {
			if f := s.Find(fsel).First(); f.Length() > 0 {
				return normalizeSpace(f.Text())
			}
		}
		return fieldText(s, kw)
	}

	if v := field("year"); v != "" {
		rec.Year = yearFrom(v)
	}
	if rec.Year == 0 {
		if y, ok := lotscan.YearToken(text, lotscan.MinListingYear, lotscan.MaxListingYear); ok {
			rec.Year = y
		}
	}

	if v := field("make"); v != "" {
		if make, ok := lotscan.MatchMake(v); ok {
			rec.Make = make
		} else {
			rec.Make = v
		}
	}
	if rec.Make == "" {
		if make, ok := lotscan.MatchMake(text); ok {
			rec.Make = make
		}
	}

	if v := field("model"); v != "" {
		rec.Model = v
	}
	if rec.Model == "" && rec.Make != "" {
		rec.Model = lotscan.ModelAfterMake(headingText(s, text), rec.Make)
	}

	rec.Trim = field("trim")
	rec.Color = field("color")
	rec.StockNumber = field("stock")

	if v := field("price"); v != "" {
		if n, ok := lotscan.NumericValue(v); ok && n > 0 {
			rec.Price = n
		}
	}
	if rec.Price == 0 {
		if p, ok := lotscan.ParsePrice(text); ok {
			rec.Price = p
		}
	}

	if v := field("mileage"); v != "" {
		if n, ok := lotscan.NumericValue(v); ok && n >= lotscan.MinPlausibleMileage && n <= lotscan.MaxPlausibleMileage {
			rec.Mileage = int(n)
		}
	}
	if rec.Mileage == 0 {
		if m, ok := lotscan.ParseMileage(text); ok {
			rec.Mileage = m
		}
	}

	if v := strings.ToUpper(field("vin")); lotscan.ValidVIN(v) {
		rec.VIN = v
	}
	if rec.VIN == "" {
		if vin, ok := lotscan.FindVIN(text); ok {
			rec.VIN = vin
		}
	}

	if img := s.Find("img").First(); img.Length() > 0 {
		if src, ok := img.Attr("src"); ok && src != "" {
			rec.ImageURL = src
		} else if src, ok := img.Attr("data-src"); ok {
			rec.ImageURL = src
		}
	}
	rec.DetailURL = detailURL(s, pageURL)

	if (rec.Year != 0 && rec.Make != "") || rec.VIN != "" {
		return rec, true
	}
	return lotscan.VehicleRecord{}, false
}

// fieldText resolves one field inside a container without a learned
// selector: data attribute on the container, keyword descendant,
// label-value pair, then free-text scan.
func fieldText(s *goquery.Selection, kw string) string {
	if v, ok := s.Attr("data-" + kw); ok && v != "" {
		return strings.TrimSpace(v)
	}

	q := fmt.Sprintf(`[data-%s], [class*=%q], [data-test*=%q], [data-testid*=%q]`, kw, kw, kw, kw)
	if f := s.Find(q).First(); f.Length() > 0 {
		if v, ok := f.Attr("data-" + kw); ok && v != "" {
			return strings.TrimSpace(v)
		}
		if v := normalizeSpace(f.Text()); v != "" {
			return v
		}
	}

	if v := labelValue(s, kw); v != "" {
		return v
	}
	return textScan(s.Text(), kw)
}

// labelValue scans dt/dd pairs and .label/.key elements followed by a
// sibling value.
func labelValue(s *goquery.Selection, kw string) string {
	var out string
	s.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(dt.Text()), kw) {
			return true
		}
		if dd := dt.Next(); dd.Is("dd") {
			out = normalizeSpace(dd.Text())
			return false
		}
		return true
	})
	if out != "" {
		return out
	}
	s.Find(".label, .key").EachWithBreak(func(_ int, label *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(label.Text()), kw) {
			return true
		}
		if next := label.Next(); next.Length() > 0 {
			out = normalizeSpace(next.Text())
			return false
		}
		return true
	})
	return out
}

// textScan locates the keyword in free text and returns what follows a
// ":" or "-" separator, up to the end of the line.
func textScan(text, kw string) string {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, kw)
	if idx < 0 {
		return ""
	}
	rest := text[idx+len(kw):]
	sep := strings.IndexAny(rest, ":-")
	if sep < 0 || sep > 3 {
		return ""
	}
	rest = rest[sep+1:]
	if end := strings.IndexByte(rest, '\n'); end >= 0 {
		rest = rest[:end]
	}
	return normalizeSpace(rest)
}

// yearFrom parses a field value into a plausible listing year.
func yearFrom(v string) int {
	if y, ok := lotscan.YearToken(v, lotscan.MinListingYear, lotscan.MaxListingYear); ok {
		return y
	}
	return 0
}

// headingText returns the container's most title-like text: first
// heading or anchor, falling back to the full container text.
func headingText(s *goquery.Selection, fallback string) string {
	if h := s.Find("h1, h2, h3, h4, a").First(); h.Length() > 0 {
		if t := normalizeSpace(h.Text()); t != "" {
			return t
		}
	}
	return fallback
}

// detailURL returns the first anchor whose href looks like a vehicle
// detail path, resolved against the page URL.
func detailURL(s *goquery.Selection, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	var out string
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		lower := strings.ToLower(href)
		for _, hint := range detailPathHints {
			if strings.Contains(lower, hint) {
				out = resolveHref(base, href)
				return false
			}
		}
		return true
	})
	return out
}

func resolveHref(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// fieldSelectors records best-effort per-field selectors from a sample
// container for the learned pattern. Only fields that actually resolve
// on the sample are recorded.
func fieldSelectors(sample *goquery.Selection) map[string]string {
	if sample == nil || sample.Length() == 0 {
		return nil
	}
	out := make(map[string]string)
	for _, kw := range fieldKeywords {
		q := fmt.Sprintf(`[class*=%q]`, kw)
		if f := sample.Find(q).First(); f.Length() > 0 && normalizeSpace(f.Text()) != "" {
			out[kw] = q
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
