package gjson_test

import (
	"testing"

	"github.com/lotscan/lotscan"
	"github.com/lotscan/lotscan/gjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageURL = "https://dealer.example.com/inventory"

func jsonResponse(url string, body string) lotscan.NetworkResponse {
	return lotscan.NetworkResponse{
		URL:         url,
		Method:      "GET",
		Status:      200,
		ContentType: "application/json",
		Body:        []byte(body),
	}
}

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts records from a vehicle API response", func(t *testing.T) {
		t.Parallel()

		body := `[
			{"year": 2021, "make": "Toyota", "model": "Camry", "price": 24999, "vin": "1HGCM82633A004352"},
			{"year": 2020, "make": "Ford", "model": "F-150", "price": 38500},
			{"year": 2019, "make": "Honda", "model": "Civic", "price": 18995},
			{"year": 2022, "make": "Kia", "model": "Telluride", "price": 41200},
			{"year": 2018, "make": "Mazda", "model": "CX-5", "price": 21750}
		]`
		snap := &lotscan.Snapshot{
			URL:       pageURL,
			Responses: []lotscan.NetworkResponse{jsonResponse("https://dealer.example.com/api/vehicles", body)},
		}

		result, err := gjson.NewExtractor().Extract(snap)
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, lotscan.TierAPI, result.Tier)
		assert.Equal(t, lotscan.ConfidenceHigh, result.Confidence)
		assert.Len(t, result.Records, 5)
		for _, r := range result.Records {
			assert.True(t, r.Usable())
			assert.Equal(t, pageURL, r.SourceURL)
		}

		require.NotNil(t, result.Learned)
		require.NotNil(t, result.Learned.API)
		assert.Equal(t, "https://dealer.example.com/api/vehicles", result.Learned.API.Endpoint)
		assert.Equal(t, "GET", result.Learned.API.Method)
	})

	t.Run("fuzzy key matching recognizes vehicle_mileage_miles", func(t *testing.T) {
		t.Parallel()

		body := `[{"year": 2020, "make": "Subaru", "vehicle_mileage_miles": 42000}]`
		snap := &lotscan.Snapshot{
			URL:       pageURL,
			Responses: []lotscan.NetworkResponse{jsonResponse("https://dealer.example.com/api/search", body)},
		}

		result, err := gjson.NewExtractor().Extract(snap)
		require.NoError(t, err)
		require.NotNil(t, result)
		require.Len(t, result.Records, 1)
		assert.Equal(t, 42000, result.Records[0].Mileage)
	})

	t.Run("finds vehicle array nested inside wrapper objects", func(t *testing.T) {
		t.Parallel()

		body := `{"data": {"results": [{"year": 2017, "make": "Jeep", "model": "Wrangler", "price": "27,500"}]}}`
		snap := &lotscan.Snapshot{
			URL:       pageURL,
			Responses: []lotscan.NetworkResponse{jsonResponse("https://dealer.example.com/graphql", body)},
		}

		result, err := gjson.NewExtractor().Extract(snap)
		require.NoError(t, err)
		require.NotNil(t, result)
		require.Len(t, result.Records, 1)
		assert.Equal(t, "Jeep", result.Records[0].Make)
		assert.Equal(t, 27500.0, result.Records[0].Price, "string price is stripped and parsed")
	})

	t.Run("picks the response with the most valid records", func(t *testing.T) {
		t.Parallel()

		small := `[{"year": 2019, "make": "Buick"}]`
		big := `[
			{"year": 2020, "make": "GMC", "model": "Sierra"},
			{"year": 2021, "make": "Ram", "model": "1500"}
		]`
		snap := &lotscan.Snapshot{
			URL: pageURL,
			Responses: []lotscan.NetworkResponse{
				jsonResponse("https://dealer.example.com/api/featured", small),
				jsonResponse("https://dealer.example.com/api/inventory", big),
			},
		}

		result, err := gjson.NewExtractor().Extract(snap)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Len(t, result.Records, 2)
		assert.Equal(t, "https://dealer.example.com/api/inventory", result.Learned.API.Endpoint)
	})

	t.Run("ignores responses that are not vehicle-shaped", func(t *testing.T) {
		t.Parallel()

		snap := &lotscan.Snapshot{
			URL: pageURL,
			Responses: []lotscan.NetworkResponse{
				jsonResponse("https://dealer.example.com/api/config", `{"theme": "dark", "locale": "en"}`),
				jsonResponse("https://dealer.example.com/api/events", `[{"event": "pageview", "ts": 12345}]`),
				{URL: "https://cdn.example.com/app.js", ContentType: "text/javascript", Body: []byte("var x=1")},
			},
		}

		result, err := gjson.NewExtractor().Extract(snap)
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("no responses yields nothing", func(t *testing.T) {
		t.Parallel()

		result, err := gjson.NewExtractor().Extract(&lotscan.Snapshot{URL: pageURL})
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("records failing minimal validity are dropped", func(t *testing.T) {
		t.Parallel()

		body := `[
			{"year": 2020, "make": "Lexus", "model": "RX"},
			{"model": "Mystery", "price": 9999}
		]`
		snap := &lotscan.Snapshot{
			URL:       pageURL,
			Responses: []lotscan.NetworkResponse{jsonResponse("https://dealer.example.com/listing.json", body)},
		}

		result, err := gjson.NewExtractor().Extract(snap)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Len(t, result.Records, 1)
		assert.Equal(t, "Lexus", result.Records[0].Make)
	})
}

func TestExtractor_Catalog(t *testing.T) {
	t.Parallel()

	body := `{"products": [
		{
			"id": 7731,
			"title": "2018 Ford F-150 XLT - 45,000 miles",
			"handle": "2018-ford-f150-xlt",
			"body_html": "<p>Clean truck. VIN: 1FTEW1EP5JFA12345</p>",
			"published_at": "2024-03-01T10:00:00Z",
			"variants": [{"price": "28995.00"}],
			"images": [{"src": "https://cdn.example.com/f150.jpg"}]
		},
		{
			"id": 7732,
			"title": "Branded mug",
			"variants": [{"price": "12.00"}]
		}
	]}`

	snap := &lotscan.Snapshot{
		URL:       "https://shop.example.com/collections/inventory",
		Responses: []lotscan.NetworkResponse{jsonResponse("https://shop.example.com/products.json", body)},
	}

	result, err := gjson.NewExtractor().Extract(snap)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Records, 1, "non-vehicle products are dropped")

	rec := result.Records[0]
	assert.Equal(t, 2018, rec.Year)
	assert.Equal(t, "Ford", rec.Make)
	assert.Equal(t, "F-150", rec.Model)
	assert.Equal(t, 28995.0, rec.Price)
	assert.Equal(t, 45000, rec.Mileage)
	assert.Equal(t, "1FTEW1EP5JFA12345", rec.VIN)
	assert.Equal(t, "https://cdn.example.com/f150.jpg", rec.ImageURL)
	assert.Equal(t, "https://shop.example.com/products/2018-ford-f150-xlt", rec.DetailURL)
	assert.Equal(t, "2024-03-01T10:00:00Z", rec.ListingDate)
	assert.Equal(t, "7731", rec.StockNumber)
}
