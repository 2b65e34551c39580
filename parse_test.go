package lotscan_test

import (
	"testing"

	"github.com/lotscan/lotscan"
	"github.com/stretchr/testify/assert"
)

func TestMatchMake(t *testing.T) {
	t.Parallel()

	t.Run("finds make anywhere in title", func(t *testing.T) {
		t.Parallel()
		make, ok := lotscan.MatchMake("2021 Toyota Camry SE - Low Miles!")
		assert.True(t, ok)
		assert.Equal(t, "Toyota", make)
	})

	t.Run("case insensitive", func(t *testing.T) {
		t.Parallel()
		make, ok := lotscan.MatchMake("certified FORD f-150")
		assert.True(t, ok)
		assert.Equal(t, "Ford", make)
	})

	t.Run("requires word boundaries", func(t *testing.T) {
		t.Parallel()
		_, ok := lotscan.MatchMake("visit our Kiama branch")
		assert.False(t, ok)
	})

	t.Run("no make", func(t *testing.T) {
		t.Parallel()
		_, ok := lotscan.MatchMake("great deals this weekend")
		assert.False(t, ok)
	})
}

func TestModelAfterMake(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CAMRY", lotscan.ModelAfterMake("2021 Toyota Camry SE", "Toyota"))
	assert.Equal(t, "F-150", lotscan.ModelAfterMake("Ford F-150 XLT", "Ford"))
	assert.Equal(t, "", lotscan.ModelAfterMake("Toyota", "Toyota"))
}

func TestYearToken(t *testing.T) {
	t.Parallel()

	t.Run("first in-range token wins", func(t *testing.T) {
		t.Parallel()
		y, ok := lotscan.YearToken("2021 Toyota Camry, serviced 2023", lotscan.MinTitleYear, lotscan.MaxTitleYear)
		assert.True(t, ok)
		assert.Equal(t, 2021, y)
	})

	t.Run("out-of-range tokens are skipped", func(t *testing.T) {
		t.Parallel()
		y, ok := lotscan.YearToken("stock 1899, model year 2020", 1990, 2039)
		assert.True(t, ok)
		assert.Equal(t, 2020, y)
	})

	t.Run("no token", func(t *testing.T) {
		t.Parallel()
		_, ok := lotscan.YearToken("no digits here", 1990, 2039)
		assert.False(t, ok)
	})
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	p, ok := lotscan.ParsePrice("Sale price: $24,999")
	assert.True(t, ok)
	assert.Equal(t, 24999.0, p)

	p, ok = lotscan.ParsePrice("$1,250.50 down")
	assert.True(t, ok)
	assert.Equal(t, 1250.50, p)

	_, ok = lotscan.ParsePrice("call for price")
	assert.False(t, ok)
}

func TestParseMileage(t *testing.T) {
	t.Parallel()

	m, ok := lotscan.ParseMileage("only 35,250 miles")
	assert.True(t, ok)
	assert.Equal(t, 35250, m)

	m, ok = lotscan.ParseMileage("98000 mi")
	assert.True(t, ok)
	assert.Equal(t, 98000, m)

	_, ok = lotscan.ParseMileage("5 miles from downtown")
	assert.False(t, ok, "below plausibility window")

	_, ok = lotscan.ParseMileage("no odometer reading")
	assert.False(t, ok)
}

func TestFindVIN(t *testing.T) {
	t.Parallel()

	vin, ok := lotscan.FindVIN("Clean title. VIN: 1HGCM82633A004352. One owner.")
	assert.True(t, ok)
	assert.Equal(t, "1HGCM82633A004352", vin)

	vin, ok = lotscan.FindVIN("vin# 1hgcm82633a004352")
	assert.True(t, ok)
	assert.Equal(t, "1HGCM82633A004352", vin)

	_, ok = lotscan.FindVIN("VIN: SHORT123")
	assert.False(t, ok)
}

func TestNumericValue(t *testing.T) {
	t.Parallel()

	v, ok := lotscan.NumericValue("$24,999")
	assert.True(t, ok)
	assert.Equal(t, 24999.0, v)

	v, ok = lotscan.NumericValue("24999.95 USD")
	assert.True(t, ok)
	assert.Equal(t, 24999.95, v)

	_, ok = lotscan.NumericValue("n/a")
	assert.False(t, ok)
}
