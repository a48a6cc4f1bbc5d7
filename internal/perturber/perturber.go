// Package perturber rewrites transcribed questions into fresh variants with
// altered values and context while preserving topic and difficulty.
package perturber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"examforge/internal/config"
	"examforge/internal/ledger"
	"examforge/internal/logging"
	"examforge/internal/prompts"
	"examforge/internal/question"
	"examforge/internal/services"
	"examforge/internal/services/llm"
	"examforge/internal/stage"
)

const stageName = "perturb"

// Generator is the model surface the perturber needs.
type Generator interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (llm.Result, error)
}

// Perturber transforms each incoming record into one or more variants.
type Perturber struct {
	cfg    *config.Config
	gen    Generator
	costs  *ledger.Ledger
	logger *slog.Logger
	hint   string
}

// New constructs the perturbation stage handler.
func New(cfg *config.Config, gen Generator, costs *ledger.Ledger, logger *slog.Logger, hint string) *Perturber {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Perturber{
		cfg:    cfg,
		gen:    gen,
		costs:  costs,
		logger: logger.With(logging.Stage(stageName)),
		hint:   hint,
	}
}

func (p *Perturber) Name() string { return stageName }

// HealthCheck verifies the stage inputs without calling the API.
func (p *Perturber) HealthCheck(ctx context.Context) stage.Health {
	if p.gen == nil {
		return stage.Unhealthy(stageName, "no generator configured")
	}
	if _, err := prompts.Load(p.cfg.Paths.PromptsDir, prompts.PerturbFile); err != nil {
		return stage.Unhealthy(stageName, err.Error())
	}
	return stage.Healthy(stageName)
}

// Execute perturbs every incoming record in order and writes the surviving
// variants to the stage artifact.
func (p *Perturber) Execute(ctx context.Context, batch *stage.Batch) error {
	if len(batch.Records) == 0 {
		return services.Wrap(services.ErrExhausted, stageName, "read input", "no records to perturb", nil)
	}

	promptText, err := prompts.Load(p.cfg.Paths.PromptsDir, prompts.PerturbFile)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "load prompt", "perturbation prompt unavailable", err)
	}
	systemPrompt := prompts.WithHint(promptText, p.hint)

	writer, err := question.NewWriter(p.cfg.PerturbedFile())
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "open output", "creating perturbation artifact failed", err)
	}
	defer writer.Close()

	var out []question.Record
	for i, source := range batch.Records {
		if i > 0 {
			if err := stage.Pause(ctx, p.cfg.RequestDelay()); err != nil {
				return err
			}
		}

		variants, err := p.perturbRecord(ctx, systemPrompt, source)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			p.logger.Warn("skipping record",
				logging.String("id", source.ID),
				logging.Error(err))
			continue
		}

		for _, variant := range variants {
			inheritMetadata(&variant, source)
			variant.Normalize()
			if err := variant.Validate(); err != nil {
				p.logger.Warn("dropping malformed variant",
					logging.String("source_id", source.ID),
					logging.Error(err))
				continue
			}
			if err := writer.Append(variant); err != nil {
				return services.Wrap(services.ErrConfiguration, stageName, "write output", "appending variant failed", err)
			}
			out = append(out, variant)
		}
	}

	if len(out) == 0 {
		return services.Wrap(services.ErrExhausted, stageName, "perturb",
			"no variants survived perturbation", nil)
	}
	batch.Records = out
	return nil
}

func (p *Perturber) perturbRecord(ctx context.Context, systemPrompt string, source question.Record) ([]question.Record, error) {
	payload, err := json.Marshal(source)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	userPrompt := "Rewrite the following question with new values and context. Respond with JSON only.\n\n" + string(payload)

	result, err := p.gen.CompleteJSON(ctx, systemPrompt, userPrompt, p.cfg.LLM.PerturbMaxTokens)
	if p.costs != nil {
		p.costs.Add(stageName, result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Elapsed)
	}
	if err != nil {
		return nil, err
	}

	variants, err := decodeVariants(result.Content)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w (content: %s)", err, llm.Snippet(result.Content))
	}
	return variants, nil
}

// decodeVariants accepts a bare array, an object wrapping a "questions"
// array, or a single record.
func decodeVariants(content string) ([]question.Record, error) {
	var variants []question.Record
	if err := llm.DecodeJSON(content, &variants); err == nil {
		return variants, nil
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
	return nil, errors.New("response is not a question record")
}

// inheritMetadata fills fields the model left empty from the source record.
// A fresh ID is always assigned so variants never collide with sources.
func inheritMetadata(variant *question.Record, source question.Record) {
	variant.ID = ""
	if variant.Exam == "" {
		variant.Exam = source.Exam
	}
	if variant.Year == 0 {
		variant.Year = source.Year
	}
	if variant.Difficulty == 0 {
		variant.Difficulty = source.Difficulty
	}
	if len(variant.Topics) == 0 {
		variant.Topics = source.Topics
	}
	if variant.Marks == 0 {
		variant.Marks = source.Marks
	}
}
