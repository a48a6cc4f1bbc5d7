package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"examforge/internal/config"
	"examforge/internal/fileutil"
	"examforge/internal/prompts"
	"examforge/internal/services/llm"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckImages verifies that the image directory holds at least one image.
func CheckImages(dir string) Result {
	const name = "Source images"

	images, err := fileutil.ListImages(dir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("list images: %v", err)}
	}
	if len(images) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("no png/jpg images in %s", dir)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d image(s) found", len(images))}
}

// CheckPromptFiles verifies that every stage prompt and the JSON template exist.
func CheckPromptFiles(dir string) Result {
	const name = "Prompt files"

	required := prompts.StageFiles()
	var missing []string
	for _, file := range required {
		if _, err := os.Stat(filepath.Join(dir, file)); err != nil {
			missing = append(missing, file)
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("missing in %s: %s", dir, strings.Join(missing, ", "))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d file(s) present", len(required))}
}

// CheckExemplars verifies that the extraction stage has at least one LaTeX exemplar.
func CheckExemplars(dir string) Result {
	const name = "LaTeX exemplars"

	exemplars, err := prompts.LoadExemplars(dir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("load exemplars: %v", err)}
	}
	if len(exemplars) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("no .tex files in %s", dir)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d exemplar(s) found", len(exemplars))}
}

// CheckAPIKey verifies that a credential is configured without using it.
func CheckAPIKey(key string) Result {
	const name = "API key"

	if strings.TrimSpace(key) == "" {
		return Result{Name: name, Detail: "not set (export " + config.EnvAPIKey + " or " + config.EnvOpenAIKey + ")"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckLLM verifies that the model API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt.
func CheckLLM(ctx context.Context, cfg *config.Config) Result {
	const name = "Model API"

	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
