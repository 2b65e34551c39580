package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/lotscan/lotscan"
)

// PatternLister enumerates cached patterns for the patterns command.
// Satisfied by *sqlite.PatternService.
type PatternLister interface {
	List(ctx context.Context) ([]*lotscan.DomainPattern, error)
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Config *Config

	Patterns lotscan.PatternService
	Lister   PatternLister
	Scraper  lotscan.Scraper
	Browser  lotscan.Browser
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config string `short:"c" help:"Path to yaml config file" type:"path"`

	Serve    ServeCmd    `cmd:"" help:"Run the scraping HTTP service"`
	Scrape   ScrapeCmd   `cmd:"" help:"Scrape one dealership site and print the result as JSON"`
	Patterns PatternsCmd `cmd:"" help:"Inspect or prune the per-domain pattern cache"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `help:"Listen address (overrides config)"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	URL      string `arg:"" help:"Inventory page URL"`
	MaxPages int    `default:"1" help:"Maximum inventory pages to scrape"`
	NoCache  bool   `help:"Skip the cached pattern and run the full tier sequence"`
}

// PatternsCmd groups the pattern cache subcommands.
type PatternsCmd struct {
	List  PatternsListCmd  `cmd:"" help:"List cached patterns, most trusted first"`
	Prune PatternsPruneCmd `cmd:"" help:"Delete patterns below a success rate threshold"`
}

// PatternsListCmd is the "patterns list" subcommand.
type PatternsListCmd struct{}

// PatternsPruneCmd is the "patterns prune" subcommand.
type PatternsPruneCmd struct {
	Threshold float64 `default:"-1" help:"Success rate floor (defaults to config prune_threshold)"`
}
