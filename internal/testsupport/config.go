// Package testsupport provides shared fixtures for package tests: temp-dir
// backed configs and seeded prompt and image files.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"examforge/internal/config"
	"examforge/internal/prompts"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// All five directories exist; prompts and images are seeded via options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.LLM.APIKey = "test"
	cfgVal.Paths.ImageDir = filepath.Join(base, "img")
	cfgVal.Paths.PromptsDir = filepath.Join(base, "prompts")
	cfgVal.Paths.ExamplesDir = filepath.Join(base, "examples")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Pipeline.RequestDelaySeconds = 0
	cfgVal.History.Enabled = false

	for _, dir := range []string{
		cfgVal.Paths.ImageDir,
		cfgVal.Paths.PromptsDir,
		cfgVal.Paths.ExamplesDir,
		cfgVal.Paths.OutputDir,
		cfgVal.Paths.LogDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithPrompts seeds all four stage prompts plus the JSON template with
// minimal bodies.
func WithPrompts() ConfigOption {
	return func(b *configBuilder) {
		b.t.Helper()
		files := map[string]string{
			prompts.TranscribeFile: "Transcribe the questions. {special_prompt}",
			prompts.PerturbFile:    "Perturb the question. {special_prompt}",
			prompts.ValidateFile:   "Validate the question.",
			prompts.ExtractFile:    "Produce a LaTeX document. {special_prompt}",
			prompts.TemplateFile:   `{"id":"","exam":"","year":0,"difficulty":1,"topics":[],"question":"","marks":0}`,
		}
		for name, body := range files {
			path := filepath.Join(b.cfg.Paths.PromptsDir, name)
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				b.t.Fatalf("seed prompt %s: %v", name, err)
			}
		}
	}
}

// WithImages seeds the given image filenames with placeholder bytes.
func WithImages(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.t.Helper()
		for _, name := range names {
			path := filepath.Join(b.cfg.Paths.ImageDir, name)
			if err := os.WriteFile(path, []byte("image-bytes"), 0o644); err != nil {
				b.t.Fatalf("seed image %s: %v", name, err)
			}
		}
	}
}

// WithExemplars seeds the given .tex exemplar files.
func WithExemplars(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.t.Helper()
		for _, name := range names {
			path := filepath.Join(b.cfg.Paths.ExamplesDir, name)
			body := "\\documentclass{article}\n\\begin{document}\nSample\n\\end{document}\n"
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				b.t.Fatalf("seed exemplar %s: %v", name, err)
			}
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ImageDir)
}
