package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"examforge/internal/config"
	"examforge/internal/extractor"
	"examforge/internal/ledger"
	"examforge/internal/perturber"
	"examforge/internal/question"
	"examforge/internal/services/llm"
	"examforge/internal/stage"
	"examforge/internal/transcriber"
	"examforge/internal/validator"
)

// newStageCommands returns one command per pipeline stage for stage-at-a-time
// reruns. Each reads the previous stage's artifact instead of the live batch.
func newStageCommands(ctx *commandContext) []*cobra.Command {
	var hintTranscribe string
	transcribeCmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Transcribe images into question records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingleStage(ctx, cmd, "", func(cfg *config.Config, gen *llm.Client, costs *ledger.Ledger) stage.Handler {
				return transcriber.New(cfg, gen, costs, ctx.ensureLogger(), hintTranscribe)
			})
		},
	}
	transcribeCmd.Flags().StringVar(&hintTranscribe, "hint", "", "Special instructions for this stage")

	var hintPerturb string
	perturbCmd := &cobra.Command{
		Use:   "perturb",
		Short: "Perturb transcribed questions into fresh variants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingleStage(ctx, cmd, "transcribed", func(cfg *config.Config, gen *llm.Client, costs *ledger.Ledger) stage.Handler {
				return perturber.New(cfg, gen, costs, ctx.ensureLogger(), hintPerturb)
			})
		},
	}
	perturbCmd.Flags().StringVar(&hintPerturb, "hint", "", "Special instructions for this stage")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Filter perturbed questions down to well-posed ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingleStage(ctx, cmd, "perturbed", func(cfg *config.Config, gen *llm.Client, costs *ledger.Ledger) stage.Handler {
				return validator.New(cfg, gen, costs, ctx.ensureLogger())
			})
		},
	}

	var hintExtract string
	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Assemble the validated questions into a LaTeX document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingleStage(ctx, cmd, "validated", func(cfg *config.Config, gen *llm.Client, costs *ledger.Ledger) stage.Handler {
				return extractor.New(cfg, gen, costs, ctx.ensureLogger(), hintExtract)
			})
		},
	}
	extractCmd.Flags().StringVar(&hintExtract, "hint", "", "Special instructions for this stage")

	return []*cobra.Command{transcribeCmd, perturbCmd, validateCmd, extractCmd}
}

type handlerFactory func(cfg *config.Config, gen *llm.Client, costs *ledger.Ledger) stage.Handler

// runSingleStage executes one stage, seeding the batch from the named
// upstream artifact ("" for the transcriber, which reads images directly).
func runSingleStage(ctx *commandContext, cmd *cobra.Command, input string, build handlerFactory) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	gen := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	costs := ledger.New(ledger.Pricing(cfg.Pricing))
	handler := build(cfg, gen, costs)

	batch := &stage.Batch{}
	if input != "" {
		path := artifactPath(cfg, input)
		records, err := question.ReadLines(path)
		if err != nil {
			return fmt.Errorf("read %s: %w (run the preceding stage first)", path, err)
		}
		batch.Records = records
	}

	if health := handler.HealthCheck(cmd.Context()); !health.Ready {
		return fmt.Errorf("%s: %s", health.Name, health.Detail)
	}

	runCtx, cancel := signalContext(cmd.Context())
	defer cancel()
	if err := handler.Execute(runCtx, batch); err != nil {
		return fmt.Errorf("%s stage: %w", handler.Name(), err)
	}

	printStageResult(cmd.OutOrStdout(), handler.Name(), batch, costs)
	return nil
}

func artifactPath(cfg *config.Config, input string) string {
	switch input {
	case "transcribed":
		return cfg.TranscribedFile()
	case "perturbed":
		return cfg.PerturbedFile()
	case "validated":
		return cfg.ValidatedFile()
	default:
		return ""
	}
}

func printStageResult(out io.Writer, name string, batch *stage.Batch, costs *ledger.Ledger) {
	fmt.Fprintln(out, costs.Report())
	if name == "extract" {
		fmt.Fprintf(out, "Document written (%d bytes)\n", len(batch.Document))
		return
	}
	fmt.Fprintf(out, "%d record(s) written\n", len(batch.Records))
}
