// Package extractor assembles the validated questions into a single LaTeX
// document styled after the operator's exemplar papers.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"log/slog"

	"examforge/internal/config"
	"examforge/internal/ledger"
	"examforge/internal/logging"
	"examforge/internal/prompts"
	"examforge/internal/services"
	"examforge/internal/services/llm"
	"examforge/internal/stage"
)

const stageName = "extract"

// Generator is the model surface the extractor needs.
type Generator interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (llm.Result, error)
}

// documentResponse is the model's reply envelope for the final document.
type documentResponse struct {
	LatexDocument string `json:"latex_document"`
}

// Extractor produces the final document in one model call over the whole
// validated batch.
type Extractor struct {
	cfg    *config.Config
	gen    Generator
	costs  *ledger.Ledger
	logger *slog.Logger
	hint   string
}

// New constructs the extraction stage handler.
func New(cfg *config.Config, gen Generator, costs *ledger.Ledger, logger *slog.Logger, hint string) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{
		cfg:    cfg,
		gen:    gen,
		costs:  costs,
		logger: logger.With(logging.Stage(stageName)),
		hint:   hint,
	}
}

func (e *Extractor) Name() string { return stageName }

// HealthCheck verifies the stage inputs without calling the API.
func (e *Extractor) HealthCheck(ctx context.Context) stage.Health {
	if e.gen == nil {
		return stage.Unhealthy(stageName, "no generator configured")
	}
	if _, err := prompts.Load(e.cfg.Paths.PromptsDir, prompts.ExtractFile); err != nil {
		return stage.Unhealthy(stageName, err.Error())
	}
	exemplars, err := prompts.LoadExemplars(e.cfg.Paths.ExamplesDir)
	if err != nil {
		return stage.Unhealthy(stageName, fmt.Sprintf("load exemplars: %v", err))
	}
	if len(exemplars) == 0 {
		return stage.Unhealthy(stageName, fmt.Sprintf("no .tex exemplars in %s", e.cfg.Paths.ExamplesDir))
	}
	return stage.Healthy(stageName)
}

// Execute renders the validated questions into LaTeX and writes the document
// verbatim to the final artifact.
func (e *Extractor) Execute(ctx context.Context, batch *stage.Batch) error {
	if len(batch.Records) == 0 {
		return services.Wrap(services.ErrExhausted, stageName, "read input", "no validated questions to extract", nil)
	}

	promptText, err := prompts.Load(e.cfg.Paths.PromptsDir, prompts.ExtractFile)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "load prompt", "extraction prompt unavailable", err)
	}
	exemplars, err := prompts.LoadExemplars(e.cfg.Paths.ExamplesDir)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "load exemplars", "reading examples directory failed", err)
	}
	if len(exemplars) == 0 {
		return services.Wrap(services.ErrConfiguration, stageName, "load exemplars",
			fmt.Sprintf("no .tex exemplars in %s", e.cfg.Paths.ExamplesDir), nil)
	}

	questionsJSON, err := json.MarshalIndent(batch.Records, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "encode input", "marshalling questions failed", err)
	}

	systemPrompt := prompts.WithHint(promptText, e.hint)
	userPrompt := buildUserPrompt(exemplars, string(questionsJSON))

	result, err := e.gen.CompleteJSON(ctx, systemPrompt, userPrompt, e.cfg.LLM.ExtractMaxTokens)
	if e.costs != nil {
		e.costs.Add(stageName, result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Elapsed)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrTransient, stageName, "generate document", "model call failed", err)
	}

	var doc documentResponse
	if err := llm.DecodeJSON(result.Content, &doc); err != nil {
		return services.Wrap(services.ErrValidation, stageName, "parse response",
			fmt.Sprintf("decoding document failed (content: %s)", llm.Snippet(result.Content)), err)
	}
	if strings.TrimSpace(doc.LatexDocument) == "" {
		return services.Wrap(services.ErrExhausted, stageName, "parse response", "model returned an empty document", nil)
	}

	// The document is written byte for byte as the model produced it.
	if err := os.WriteFile(e.cfg.FinalDocumentFile(), []byte(doc.LatexDocument), 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "write output", "writing final document failed", err)
	}

	batch.Document = doc.LatexDocument
	e.logger.Info("document extracted",
		logging.Int("questions", len(batch.Records)),
		logging.Int("bytes", len(doc.LatexDocument)))
	return nil
}

func buildUserPrompt(exemplars []prompts.Exemplar, questionsJSON string) string {
	var b strings.Builder
	b.WriteString("Style exemplars:\n\n")
	b.WriteString(prompts.FormatExemplars(exemplars))
	b.WriteString("\n\nQuestions to include, in this exact order:\n\n")
	b.WriteString(questionsJSON)
	b.WriteString("\n\nProduce a complete LaTeX document that compiles with pdflatex without additional files. Respond with JSON only.")
	return b.String()
}
