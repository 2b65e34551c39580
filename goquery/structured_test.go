package goquery_test

import (
	"testing"

	"github.com/lotscan/lotscan"
	"github.com/lotscan/lotscan/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageURL = "https://dealer.example.com/inventory"

func ldPage(blocks ...string) string {
	html := "<html><head>"
	for _, b := range blocks {
		html += `<script type="application/ld+json">` + b + `</script>`
	}
	return html + "</head><body></body></html>"
}

func TestStructuredExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts a schema.org Car", func(t *testing.T) {
		t.Parallel()

		html := ldPage(`{
			"@context": "https://schema.org",
			"@type": "Car",
			"brand": {"name": "Toyota"},
			"model": "Camry",
			"modelDate": "2021",
			"offers": {"price": "24999"}
		}`)

		result, err := goquery.NewStructuredExtractor().Extract(&lotscan.Snapshot{URL: pageURL, HTML: html})
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, lotscan.TierStructured, result.Tier)
		assert.Equal(t, lotscan.ConfidenceHigh, result.Confidence)
		require.Len(t, result.Records, 1)

		rec := result.Records[0]
		assert.Equal(t, 2021, rec.Year)
		assert.Equal(t, "Toyota", rec.Make)
		assert.Equal(t, "Camry", rec.Model)
		assert.Equal(t, 24999.0, rec.Price)
		assert.Equal(t, pageURL, rec.SourceURL)
	})

	t.Run("walks ItemList entries", func(t *testing.T) {
		t.Parallel()

		html := ldPage(`{
			"@type": "ItemList",
			"itemListElement": [
				{"@type": "ListItem", "item": {"@type": "Vehicle", "brand": "Ford", "model": "Escape", "vehicleModelDate": "2020"}},
				{"@type": "ListItem", "item": {"@type": "Vehicle", "brand": "Honda", "model": "CR-V", "vehicleModelDate": "2019"}}
			]
		}`)

		result, err := goquery.NewStructuredExtractor().Extract(&lotscan.Snapshot{URL: pageURL, HTML: html})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Len(t, result.Records, 2)
	})

	t.Run("walks @graph and handles @type arrays", func(t *testing.T) {
		t.Parallel()

		html := ldPage(`{
			"@graph": [
				{"@type": ["Product", "Car"], "brand": {"name": "Mazda"}, "model": "CX-5", "modelDate": "2022"}
			]
		}`)

		result, err := goquery.NewStructuredExtractor().Extract(&lotscan.Snapshot{URL: pageURL, HTML: html})
		require.NoError(t, err)
		require.NotNil(t, result)
		require.Len(t, result.Records, 1)
		assert.Equal(t, "Mazda", result.Records[0].Make)
	})

	t.Run("maps the full schema.org vocabulary", func(t *testing.T) {
		t.Parallel()

		html := ldPage(`{
			"@type": "Vehicle",
			"manufacturer": {"name": "Subaru"},
			"model": {"name": "Outback"},
			"vehicleModelDate": "2021-06-01",
			"vehicleIdentificationNumber": "4s4btgnd1m3159371",
			"mileageFromOdometer": {"@type": "QuantitativeValue", "value": "32,400"},
			"color": "Crystal White",
			"vehicleConfiguration": "Touring XT",
			"offers": [{"price": 35999}],
			"image": {"url": "https://cdn.example.com/outback.jpg"}
		}`)

		result, err := goquery.NewStructuredExtractor().Extract(&lotscan.Snapshot{URL: pageURL, HTML: html})
		require.NoError(t, err)
		require.NotNil(t, result)
		require.Len(t, result.Records, 1)

		rec := result.Records[0]
		assert.Equal(t, "Subaru", rec.Make)
		assert.Equal(t, "Outback", rec.Model)
		assert.Equal(t, 2021, rec.Year)
		assert.Equal(t, "4S4BTGND1M3159371", rec.VIN)
		assert.Equal(t, 32400, rec.Mileage)
		assert.Equal(t, "Crystal White", rec.Color)
		assert.Equal(t, "Touring XT", rec.Trim)
		assert.Equal(t, 35999.0, rec.Price)
		assert.Equal(t, "https://cdn.example.com/outback.jpg", rec.ImageURL)
	})

	t.Run("Product entries count only when vehicle-like", func(t *testing.T) {
		t.Parallel()

		html := ldPage(
			`{"@type": "Product", "name": "2019 Chevrolet Silverado LT", "offers": {"price": "31500"}}`,
			`{"@type": "Product", "name": "Floor mats", "offers": {"price": "49"}}`,
		)

		result, err := goquery.NewStructuredExtractor().Extract(&lotscan.Snapshot{URL: pageURL, HTML: html})
		require.NoError(t, err)
		require.NotNil(t, result)
		require.Len(t, result.Records, 1)

		rec := result.Records[0]
		assert.Equal(t, "Chevrolet", rec.Make)
		assert.Equal(t, 2019, rec.Year)
		assert.Equal(t, "SILVERADO", rec.Model)
	})

	t.Run("malformed blocks are skipped", func(t *testing.T) {
		t.Parallel()

		html := ldPage(
			`{not json`,
			`{"@type": "Car", "brand": "Kia", "model": "Sportage", "modelDate": "2023"}`,
		)

		result, err := goquery.NewStructuredExtractor().Extract(&lotscan.Snapshot{URL: pageURL, HTML: html})
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Len(t, result.Records, 1)
	})

	t.Run("no structured data yields nothing", func(t *testing.T) {
		t.Parallel()

		result, err := goquery.NewStructuredExtractor().Extract(&lotscan.Snapshot{
			URL:  pageURL,
			HTML: "<html><body><h1>Welcome</h1></body></html>",
		})
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("vehicle without year-make or vin is dropped", func(t *testing.T) {
		t.Parallel()

		html := ldPage(`{"@type": "Car", "model": "Unknown", "offers": {"price": "9999"}}`)

		result, err := goquery.NewStructuredExtractor().Extract(&lotscan.Snapshot{URL: pageURL, HTML: html})
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}
