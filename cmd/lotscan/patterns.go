package main

import (
	"fmt"

	"github.com/lotscan/lotscan"
)

// Run executes the patterns list command.
func (c *PatternsListCmd) Run(deps *Dependencies) error {
	patterns, err := deps.Lister.List(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lotscan.ErrorMessage(err))
		return err
	}

	if len(patterns) == 0 {
		fmt.Fprintln(deps.Stdout, "No cached patterns.")
		return nil
	}

	for _, p := range patterns {
		fmt.Fprintf(deps.Stdout, "%s  %s  %.2f  %s\n",
			p.Domain, p.Tier, p.SuccessRate, p.LastUsedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// Run executes the patterns prune command.
func (c *PatternsPruneCmd) Run(deps *Dependencies) error {
	threshold := c.Threshold
	if threshold < 0 {
		threshold = deps.Config.PruneThreshold
	}

	n, err := deps.Patterns.Prune(deps.Ctx, threshold)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lotscan.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Pruned %d patterns below %.2f\n", n, threshold)
	return nil
}
