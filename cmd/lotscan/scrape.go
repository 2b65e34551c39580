package main

import (
	"encoding/json"
	"fmt"

	"github.com/lotscan/lotscan"
)

// Run executes the scrape command: one full pipeline run printed as
// indented JSON.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	req := lotscan.ScrapeRequest{
		URL:      c.URL,
		MaxPages: c.MaxPages,
	}
	if c.NoCache {
		disabled := false
		req.UseCachedPattern = &disabled
	}

	result, err := deps.Scraper.Scrape(deps.Ctx, req)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lotscan.ErrorMessage(err))
		return err
	}
	if result.Vehicles == nil {
		result.Vehicles = []lotscan.VehicleRecord{}
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
