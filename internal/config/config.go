package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Environment variables consulted for the API key, in order.
const (
	EnvAPIKey    = "EXAMFORGE_API_KEY"
	EnvOpenAIKey = "OPENAI_API_KEY"
)

// Paths contains the directory layout of a pipeline workspace.
type Paths struct {
	ImageDir    string `toml:"image_dir"`
	PromptsDir  string `toml:"prompts_dir"`
	ExamplesDir string `toml:"examples_dir"`
	OutputDir   string `toml:"output_dir"`
	LogDir      string `toml:"log_dir"`
}

// LLM contains the model API connection settings plus the per-stage
// completion budgets.
type LLM struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	Model               string `toml:"model"`
	Referer             string `toml:"referer"`
	Title               string `toml:"title"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	TranscribeMaxTokens int    `toml:"transcribe_max_tokens"`
	PerturbMaxTokens    int    `toml:"perturb_max_tokens"`
	ValidateMaxTokens   int    `toml:"validate_max_tokens"`
	ExtractMaxTokens    int    `toml:"extract_max_tokens"`
}

// Pricing contains the USD cost per million tokens used for cost reports.
type Pricing struct {
	InputPerMillion  float64 `toml:"input_per_million"`
	OutputPerMillion float64 `toml:"output_per_million"`
}

// Pipeline contains run-level behavior knobs.
type Pipeline struct {
	RequestDelaySeconds int  `toml:"request_delay_seconds"`
	ClearImagesDefault  bool `toml:"clear_images_default"`
}

// History contains the run-journal settings.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config is the root configuration document. The scalar fields come first
// so TOML marshalling keeps them out of the trailing tables.
type Config struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Pricing       Pricing       `toml:"pricing"`
	Pipeline      Pipeline      `toml:"pipeline"`
	History       History       `toml:"history"`
	Notifications Notifications `toml:"notifications"`
}

// Stage artifact filenames under the output directory.
const (
	TranscribedName   = "1_transcribed.jsonl"
	PerturbedName     = "2_perturbed.jsonl"
	ValidatedName     = "3_validated.jsonl"
	FinalDocumentName = "4_final_document.tex"
)

// TranscribedFile returns the transcription artifact path.
func (c *Config) TranscribedFile() string {
	return filepath.Join(c.Paths.OutputDir, TranscribedName)
}

// PerturbedFile returns the perturbation artifact path.
func (c *Config) PerturbedFile() string {
	return filepath.Join(c.Paths.OutputDir, PerturbedName)
}

// ValidatedFile returns the validation artifact path.
func (c *Config) ValidatedFile() string {
	return filepath.Join(c.Paths.OutputDir, ValidatedName)
}

// FinalDocumentFile returns the typeset document path.
func (c *Config) FinalDocumentFile() string {
	return filepath.Join(c.Paths.OutputDir, FinalDocumentName)
}

// ArtifactFiles lists every output artifact in stage order.
func (c *Config) ArtifactFiles() []string {
	return []string{
		c.TranscribedFile(),
		c.PerturbedFile(),
		c.ValidatedFile(),
		c.FinalDocumentFile(),
	}
}

// LockFile returns the run-exclusivity lock path.
func (c *Config) LockFile() string {
	return filepath.Join(c.Paths.OutputDir, "examforge.lock")
}

// HistoryDBPath resolves the run-journal database location.
func (c *Config) HistoryDBPath() string {
	if strings.TrimSpace(c.History.Path) != "" {
		return c.History.Path
	}
	return filepath.Join(c.Paths.LogDir, "history.db")
}

// RequestDelay returns the inter-request pause as a duration.
func (c *Config) RequestDelay() time.Duration {
	if c.Pipeline.RequestDelaySeconds <= 0 {
		return 0
	}
	return time.Duration(c.Pipeline.RequestDelaySeconds) * time.Second
}

// EnsureDirectories creates the writable directories the pipeline needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "examforge", "config.toml"), nil
}

// Load reads the configuration at path (or the default location when path is
// empty), layers it over the defaults, applies environment overrides, and
// normalizes paths. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved := strings.TrimSpace(path)
	if resolved == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		resolved = defaultPath
	}

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults apply.
	default:
		return nil, fmt.Errorf("read config %s: %w", resolved, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		cfg.LLM.APIKey = key
		return
	}
	if key := strings.TrimSpace(os.Getenv(EnvOpenAIKey)); key != "" && strings.TrimSpace(cfg.LLM.APIKey) == "" {
		cfg.LLM.APIKey = key
	}
}

// WriteSample writes the documented sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Render serializes the resolved configuration back to TOML for display.
func (c *Config) Render() (string, error) {
	out, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("render config: %w", err)
	}
	return string(out), nil
}
