package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. It is called before any API
// usage so credential and path problems surface as startup errors.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePricing(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/examforge/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set %s (or %s) env var or edit %s (create with 'examforge config init')",
			EnvAPIKey, EnvOpenAIKey, defaultPath)
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.BaseURL == "" {
		return errors.New("llm.base_url must be set")
	}
	if c.LLM.TimeoutSeconds < 0 {
		return errors.New("llm.timeout_seconds must be non-negative")
	}
	budgets := map[string]int{
		"llm.transcribe_max_tokens": c.LLM.TranscribeMaxTokens,
		"llm.perturb_max_tokens":    c.LLM.PerturbMaxTokens,
		"llm.validate_max_tokens":   c.LLM.ValidateMaxTokens,
		"llm.extract_max_tokens":    c.LLM.ExtractMaxTokens,
	}
	for name, budget := range budgets {
		if budget <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	required := map[string]string{
		"paths.image_dir":    c.Paths.ImageDir,
		"paths.prompts_dir":  c.Paths.PromptsDir,
		"paths.examples_dir": c.Paths.ExamplesDir,
		"paths.output_dir":   c.Paths.OutputDir,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s must be set", name)
		}
	}
	return nil
}

func (c *Config) validatePricing() error {
	if c.Pricing.InputPerMillion < 0 || c.Pricing.OutputPerMillion < 0 {
		return errors.New("pricing rates must be non-negative")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.RequestDelaySeconds < 0 {
		return errors.New("pipeline.request_delay_seconds must be non-negative")
	}
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format: unsupported value %q", c.LogFormat)
	}
	return nil
}
