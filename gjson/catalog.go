package gjson

import (
	"net/url"
	"strings"

	"github.com/lotscan/lotscan"
	"github.com/tidwall/gjson"
)

// Hosted storefronts expose a product catalog rather than a vehicle
// API: a "products" array whose elements carry title/variants/images.
// Dealerships running on such platforms encode year, make and model in
// the product title, so parsing is title-driven.

// looksLikeCatalog samples the products array for the catalog shape.
func looksLikeCatalog(products gjson.Result) bool {
	if !products.IsArray() {
		return false
	}
	elems := products.Array()
	if len(elems) == 0 {
		return false
	}
	sample := elems[0]
	if !sample.IsObject() || !sample.Get("title").Exists() {
		return false
	}
	return sample.Get("variants").Exists() || sample.Get("images").Exists()
}

// parseCatalog converts catalog products into vehicle records.
func parseCatalog(products gjson.Result, pageURL string) []lotscan.VehicleRecord {
	base := baseOf(pageURL)

	var records []lotscan.VehicleRecord
	for _, product := range products.Array() {
		if rec, ok := parseProduct(product, base, pageURL); ok {
			records = append(records, rec)
		}
	}
	return records
}

func parseProduct(product gjson.Result, base, pageURL string) (lotscan.VehicleRecord, bool) {
	title := strings.TrimSpace(product.Get("title").String())
	rec := lotscan.VehicleRecord{
		Title:     title,
		SourceURL: pageURL,
	}

	if y, ok := lotscan.YearToken(title, lotscan.MinTitleYear, lotscan.MaxTitleYear); ok {
		rec.Year = y
	}
	if make, ok := lotscan.MatchMake(title); ok {
		rec.Make = make
		rec.Model = lotscan.ModelAfterMake(title, make)
	}

	if variants := product.Get("variants").Array(); len(variants) > 0 {
		if n, ok := numeric(variants[0].Get("price")); ok && n > 0 {
			rec.Price = n
		}
	}

	body := product.Get("body_html").String()
	if m, ok := lotscan.ParseMileage(title); ok {
		rec.Mileage = m
	} else if m, ok := lotscan.ParseMileage(body); ok {
		rec.Mileage = m
	}
	if vin, ok := lotscan.FindVIN(body); ok {
		rec.VIN = vin
	}

	if images := product.Get("images").Array(); len(images) > 0 {
		rec.ImageURL = urlOf(images[0])
	}
	if handle := product.Get("handle").String(); handle != "" && base != "" {
		rec.DetailURL = base + "/products/" + handle
	}
	if date := product.Get("published_at").String(); date != "" {
		rec.ListingDate = date
	} else if date := product.Get("created_at").String(); date != "" {
		rec.ListingDate = date
	}
	if id := product.Get("id"); id.Exists() {
		rec.StockNumber = id.String()
	}

	// A product with neither a year nor a recognized make is not a
	// vehicle listing.
	if rec.Year == 0 && rec.Make == "" {
		return lotscan.VehicleRecord{}, false
	}
	return rec, true
}

func baseOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
