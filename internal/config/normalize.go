package config

import (
	"fmt"
	"strings"

	"examforge/internal/fileutil"
)

// Normalize expands home-relative paths and trims whitespace in string
// settings. It runs after loading and before validation.
func (c *Config) Normalize() error {
	fields := []*string{
		&c.Paths.ImageDir,
		&c.Paths.PromptsDir,
		&c.Paths.ExamplesDir,
		&c.Paths.OutputDir,
		&c.Paths.LogDir,
		&c.History.Path,
	}
	for _, field := range fields {
		expanded, err := fileutil.ExpandHome(*field)
		if err != nil {
			return fmt.Errorf("normalize path %q: %w", *field, err)
		}
		*field = expanded
	}

	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	return nil
}
