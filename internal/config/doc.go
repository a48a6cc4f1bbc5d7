// Package config loads, normalizes, and validates the examforge TOML
// configuration. Defaults are usable out of the box except for the model API
// key, which must come from the environment or the config file and is checked
// before any API usage.
package config
