package main

import (
	lotscanhttp "github.com/lotscan/lotscan/http"
)

// Run executes the serve command. It blocks until the context is
// canceled, then shuts the server down gracefully.
func (c *ServeCmd) Run(deps *Dependencies) error {
	addr := c.Addr
	if addr == "" {
		addr = deps.Config.Addr
	}

	srv := lotscanhttp.NewServer(deps.Logger)
	srv.Addr = addr
	srv.Scraper = deps.Scraper
	srv.Browser = deps.Browser
	srv.Patterns = deps.Patterns

	if err := srv.Open(); err != nil {
		return err
	}

	<-deps.Ctx.Done()
	deps.Logger.Info("shutting down")
	return srv.Close()
}
