package preflight

import (
	"context"

	"examforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options controls which optional checks RunAll performs.
type Options struct {
	// CheckAPI enables the live API health check. Off by default because
	// it spends a network round trip.
	CheckAPI bool
}

// RunAll executes the preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Image directory", cfg.Paths.ImageDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckImages(cfg.Paths.ImageDir),
		CheckPromptFiles(cfg.Paths.PromptsDir),
		CheckExemplars(cfg.Paths.ExamplesDir),
		CheckAPIKey(cfg.LLM.APIKey),
	}

	if opts.CheckAPI {
		results = append(results, CheckLLM(ctx, cfg))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
