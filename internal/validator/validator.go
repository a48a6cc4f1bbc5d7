// Package validator filters perturbed questions down to the well-posed ones,
// merging any minor corrections the reviewer model suggests.
package validator

import (
	"context"
	"encoding/json"
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

const stageName = "validate"

// Generator is the model surface the validator needs.
type Generator interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (llm.Result, error)
}

// verdict is the reviewer model's judgement on one question.
type verdict struct {
	WellPosed         bool   `json:"well_posed"`
	Reasoning         string `json:"reasoning"`
	CorrectedQuestion string `json:"corrected_question"`
}

// Validator drops records the model judges ill-posed.
type Validator struct {
	cfg    *config.Config
	gen    Generator
	costs  *ledger.Ledger
	logger *slog.Logger
}

// New constructs the validation stage handler.
func New(cfg *config.Config, gen Generator, costs *ledger.Ledger, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Validator{
		cfg:    cfg,
		gen:    gen,
		costs:  costs,
		logger: logger.With(logging.Stage(stageName)),
	}
}

func (v *Validator) Name() string { return stageName }

// HealthCheck verifies the stage inputs without calling the API.
func (v *Validator) HealthCheck(ctx context.Context) stage.Health {
	if v.gen == nil {
		return stage.Unhealthy(stageName, "no generator configured")
	}
	if _, err := prompts.Load(v.cfg.Paths.PromptsDir, prompts.ValidateFile); err != nil {
		return stage.Unhealthy(stageName, err.Error())
	}
	return stage.Healthy(stageName)
}

// Execute checks every record and keeps only those judged well-posed,
// preserving input order.
func (v *Validator) Execute(ctx context.Context, batch *stage.Batch) error {
	if len(batch.Records) == 0 {
		return services.Wrap(services.ErrExhausted, stageName, "read input", "no records to validate", nil)
	}

	systemPrompt, err := prompts.Load(v.cfg.Paths.PromptsDir, prompts.ValidateFile)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "load prompt", "validation prompt unavailable", err)
	}

	writer, err := question.NewWriter(v.cfg.ValidatedFile())
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "open output", "creating validation artifact failed", err)
	}
	defer writer.Close()

	var kept []question.Record
	for i, rec := range batch.Records {
		if i > 0 {
			if err := stage.Pause(ctx, v.cfg.RequestDelay()); err != nil {
				return err
			}
		}

		judgement, err := v.judge(ctx, systemPrompt, rec)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			v.logger.Warn("skipping record",
				logging.String("id", rec.ID),
				logging.Error(err))
			continue
		}
		if !judgement.WellPosed {
			v.logger.Info("rejected question",
				logging.String("id", rec.ID),
				logging.String("reason", strings.TrimSpace(judgement.Reasoning)))
			continue
		}

		if corrected := strings.TrimSpace(judgement.CorrectedQuestion); corrected != "" {
			rec.Question = corrected
			rec.Normalize()
		}
		if err := rec.Validate(); err != nil {
			v.logger.Warn("dropping corrupted record",
				logging.String("id", rec.ID),
				logging.Error(err))
			continue
		}
		if err := writer.Append(rec); err != nil {
			return services.Wrap(services.ErrConfiguration, stageName, "write output", "appending record failed", err)
		}
		kept = append(kept, rec)
	}

	v.logger.Info("validation complete",
		logging.Int("kept", len(kept)),
		logging.Int("total", len(batch.Records)))

	if len(kept) == 0 {
		return services.Wrap(services.ErrExhausted, stageName, "validate",
			"every question was rejected", nil)
	}
	batch.Records = kept
	return nil
}

func (v *Validator) judge(ctx context.Context, systemPrompt string, rec question.Record) (verdict, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return verdict{}, fmt.Errorf("encode record: %w", err)
	}
	userPrompt := "Judge whether the following question is well-posed and solvable. Respond with JSON only.\n\n" + string(payload)

	result, err := v.gen.CompleteJSON(ctx, systemPrompt, userPrompt, v.cfg.LLM.ValidateMaxTokens)
	if v.costs != nil {
		v.costs.Add(stageName, result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Elapsed)
	}
	if err != nil {
		return verdict{}, err
	}

	var judgement verdict
	if err := llm.DecodeJSON(result.Content, &judgement); err != nil {
		return verdict{}, fmt.Errorf("parse verdict: %w (content: %s)", err, llm.Snippet(result.Content))
	}
	return judgement, nil
}
