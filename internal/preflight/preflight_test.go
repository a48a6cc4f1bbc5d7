package preflight

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"examforge/internal/config"
	"examforge/internal/prompts"
)

func seedPrompts(t *testing.T, dir string) {
	t.Helper()
	for _, name := range prompts.StageFiles() {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("prompt body"), 0o644); err != nil {
			t.Fatalf("seed prompt %s: %v", name, err)
		}
	}
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := new(config.Config)
	*cfg = config.Default()
	cfg.Paths.ImageDir = filepath.Join(root, "img")
	cfg.Paths.PromptsDir = filepath.Join(root, "prompts")
	cfg.Paths.ExamplesDir = filepath.Join(root, "examples")
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	for _, dir := range []string{cfg.Paths.ImageDir, cfg.Paths.PromptsDir, cfg.Paths.ExamplesDir, cfg.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return cfg
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := CheckDirectoryAccess("Image directory", dir)
	if !result.Passed {
		t.Errorf("expected pass for %s: %s", dir, result.Detail)
	}

	result = CheckDirectoryAccess("Image directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Error("expected failure for missing directory")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Errorf("unexpected detail %q", result.Detail)
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result = CheckDirectoryAccess("Image directory", file)
	if result.Passed {
		t.Error("expected failure for regular file")
	}
}

func TestCheckImages(t *testing.T) {
	dir := t.TempDir()

	result := CheckImages(dir)
	if result.Passed {
		t.Error("expected failure for empty image dir")
	}

	if err := os.WriteFile(filepath.Join(dir, "page1.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	result = CheckImages(dir)
	if !result.Passed {
		t.Errorf("expected pass with image present: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "1 image(s)") {
		t.Errorf("unexpected detail %q", result.Detail)
	}
}

func TestCheckPromptFilesReportsMissing(t *testing.T) {
	dir := t.TempDir()
	seedPrompts(t, dir)
	if err := os.Remove(filepath.Join(dir, prompts.ValidateFile)); err != nil {
		t.Fatalf("remove prompt: %v", err)
	}

	result := CheckPromptFiles(dir)
	if result.Passed {
		t.Error("expected failure with missing prompt")
	}
	if !strings.Contains(result.Detail, prompts.ValidateFile) {
		t.Errorf("expected missing file named in detail, got %q", result.Detail)
	}

	seedPrompts(t, dir)
	result = CheckPromptFiles(dir)
	if !result.Passed {
		t.Errorf("expected pass with all prompts: %s", result.Detail)
	}
	// The template is part of the stage file list; it must not be counted twice.
	want := fmt.Sprintf("%d file(s) present", len(prompts.StageFiles()))
	if result.Detail != want {
		t.Errorf("detail = %q, want %q", result.Detail, want)
	}
}

func TestCheckExemplars(t *testing.T) {
	dir := t.TempDir()

	result := CheckExemplars(dir)
	if result.Passed {
		t.Error("expected failure without exemplars")
	}

	if err := os.WriteFile(filepath.Join(dir, "exam2024.tex"), []byte("\\documentclass{article}"), 0o644); err != nil {
		t.Fatalf("write exemplar: %v", err)
	}
	result = CheckExemplars(dir)
	if !result.Passed {
		t.Errorf("expected pass with exemplar: %s", result.Detail)
	}
}

func TestCheckAPIKey(t *testing.T) {
	result := CheckAPIKey("")
	if result.Passed {
		t.Error("expected failure for empty key")
	}
	if !strings.Contains(result.Detail, config.EnvAPIKey) {
		t.Errorf("expected env var hint, got %q", result.Detail)
	}

	result = CheckAPIKey("sk-test")
	if !result.Passed {
		t.Errorf("expected pass for set key: %s", result.Detail)
	}
}

func TestCheckLLMAgainstStubServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"status\":\"ok\"}"}}]}`))
	}))
	t.Cleanup(server.Close)

	cfg := new(config.Config)
	*cfg = config.Default()
	cfg.LLM.APIKey = "sk-test"
	cfg.LLM.BaseURL = server.URL

	result := CheckLLM(context.Background(), cfg)
	if !result.Passed {
		t.Errorf("expected pass against stub server: %s", result.Detail)
	}

	cfg.LLM.APIKey = ""
	result = CheckLLM(context.Background(), cfg)
	if result.Passed {
		t.Error("expected failure without key")
	}
}

func TestRunAllCollectsResults(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.LLM.APIKey = "sk-test"
	seedPrompts(t, cfg.Paths.PromptsDir)
	if err := os.WriteFile(filepath.Join(cfg.Paths.ImageDir, "q1.jpg"), []byte("jpg"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Paths.ExamplesDir, "sample.tex"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write exemplar: %v", err)
	}

	results := RunAll(context.Background(), cfg, Options{})
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	if !AllPassed(results) {
		for _, result := range results {
			if !result.Passed {
				t.Errorf("check %s failed: %s", result.Name, result.Detail)
			}
		}
	}

	// Removing the exemplar flips the aggregate.
	if err := os.Remove(filepath.Join(cfg.Paths.ExamplesDir, "sample.tex")); err != nil {
		t.Fatalf("remove exemplar: %v", err)
	}
	results = RunAll(context.Background(), cfg, Options{})
	if AllPassed(results) {
		t.Error("expected aggregate failure with missing exemplar")
	}
}
