// Package transcriber converts exam page images into structured question
// records via a vision-capable model.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"examforge/internal/config"
	"examforge/internal/fileutil"
	"examforge/internal/ledger"
	"examforge/internal/logging"
	"examforge/internal/prompts"
	"examforge/internal/question"
	"examforge/internal/services"
	"examforge/internal/services/llm"
	"examforge/internal/stage"
)

const stageName = "transcribe"

// Generator is the model surface the transcriber needs.
type Generator interface {
	CompleteVision(ctx context.Context, systemPrompt, userPrompt string, image llm.Image, maxTokens int) (llm.Result, error)
}

// Transcriber reads every image in the configured directory and emits one
// JSONL line per extracted question.
type Transcriber struct {
	cfg    *config.Config
	gen    Generator
	costs  *ledger.Ledger
	logger *slog.Logger
	hint   string
}

// New constructs the transcription stage handler.
func New(cfg *config.Config, gen Generator, costs *ledger.Ledger, logger *slog.Logger, hint string) *Transcriber {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Transcriber{
		cfg:    cfg,
		gen:    gen,
		costs:  costs,
		logger: logger.With(logging.Stage(stageName)),
		hint:   hint,
	}
}

func (t *Transcriber) Name() string { return stageName }

// HealthCheck verifies the stage inputs without calling the API.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	if t.gen == nil {
		return stage.Unhealthy(stageName, "no generator configured")
	}
	images, err := fileutil.ListImages(t.cfg.Paths.ImageDir)
	if err != nil {
		return stage.Unhealthy(stageName, fmt.Sprintf("list images: %v", err))
	}
	if len(images) == 0 {
		return stage.Unhealthy(stageName, fmt.Sprintf("no images in %s", t.cfg.Paths.ImageDir))
	}
	if _, err := prompts.Load(t.cfg.Paths.PromptsDir, prompts.TranscribeFile); err != nil {
		return stage.Unhealthy(stageName, err.Error())
	}
	if _, err := prompts.Load(t.cfg.Paths.PromptsDir, prompts.TemplateFile); err != nil {
		return stage.Unhealthy(stageName, err.Error())
	}
	return stage.Healthy(stageName)
}

// Execute transcribes every image and writes the surviving records to the
// stage artifact in image order.
func (t *Transcriber) Execute(ctx context.Context, batch *stage.Batch) error {
	images, err := fileutil.ListImages(t.cfg.Paths.ImageDir)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "list images", "reading image directory failed", err)
	}
	if len(images) == 0 {
		return services.Wrap(services.ErrExhausted, stageName, "list images",
			fmt.Sprintf("no images found in %s", t.cfg.Paths.ImageDir), nil)
	}
	batch.SourceImages = len(images)

	promptText, err := prompts.Load(t.cfg.Paths.PromptsDir, prompts.TranscribeFile)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "load prompt", "transcription prompt unavailable", err)
	}
	template, err := prompts.Load(t.cfg.Paths.PromptsDir, prompts.TemplateFile)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "load prompt", "JSON template unavailable", err)
	}
	systemPrompt := prompts.WithHint(promptText, t.hint) + "\n\nTemplate structure for each question:\n" + template

	writer, err := question.NewWriter(t.cfg.TranscribedFile())
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "open output", "creating transcription artifact failed", err)
	}
	defer writer.Close()

	var records []question.Record
	for i, path := range images {
		if i > 0 {
			if err := stage.Pause(ctx, t.cfg.RequestDelay()); err != nil {
				return err
			}
		}

		extracted, err := t.transcribeImage(ctx, systemPrompt, path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			t.logger.Warn("skipping image",
				logging.String("image", filepath.Base(path)),
				logging.Error(err))
			continue
		}

		kept := 0
		for _, rec := range extracted {
			rec.Normalize()
			if err := rec.Validate(); err != nil {
				t.logger.Warn("dropping malformed record",
					logging.String("image", filepath.Base(path)),
					logging.Error(err))
				continue
			}
			if err := writer.Append(rec); err != nil {
				return services.Wrap(services.ErrConfiguration, stageName, "write output", "appending record failed", err)
			}
			records = append(records, rec)
			kept++
		}
		t.logger.Info("image transcribed",
			logging.String("image", filepath.Base(path)),
			logging.Int("questions", kept))
	}

	if len(records) == 0 {
		return services.Wrap(services.ErrExhausted, stageName, "transcribe",
			"no questions recovered from any image", nil)
	}
	batch.Records = records
	return nil
}

func (t *Transcriber) transcribeImage(ctx context.Context, systemPrompt, path string) ([]question.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	image := llm.Image{MIME: mimeForImage(path), Data: data}
	userPrompt := "Transcribe every exam question visible in this image. Respond with JSON only."
	result, err := t.gen.CompleteVision(ctx, systemPrompt, userPrompt, image, t.cfg.LLM.TranscribeMaxTokens)
	if t.costs != nil {
		t.costs.Add(stageName, result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Elapsed)
	}
	if err != nil {
		return nil, err
	}

	records, err := decodeRecords(result.Content)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w (content: %s)", err, llm.Snippet(result.Content))
	}
	return records, nil
}

// decodeRecords accepts the response shapes the model produces in practice:
// a bare array, an object wrapping a "questions" array, or a single record.
func decodeRecords(content string) ([]question.Record, error) {
	var records []question.Record
	if err := llm.DecodeJSON(content, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Questions []question.Record `json:"questions"`
	}
	if err := llm.DecodeJSON(content, &wrapped); err == nil && len(wrapped.Questions) > 0 {
		return wrapped.Questions, nil
	}

	var single question.Record
	if err := llm.DecodeJSON(content, &single); err == nil && strings.TrimSpace(single.Question) != "" {
		return []question.Record{single}, nil
	}
	return nil, errors.New("response is not a question array")
}

func mimeForImage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
