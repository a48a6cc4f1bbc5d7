package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"examforge/internal/interact"
	"examforge/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		yes            bool
		clearImages    bool
		hintTranscribe string
		hintPerturb    string
		hintExtract    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: transcribe, perturb, validate, extract",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			interactive := !yes && interact.StdinIsTerminal()
			prompter := interact.New(interactive)

			cleanup := clearImages
			if !cmd.Flags().Changed("clear-images") {
				cleanup, err = prompter.Confirm("Delete source images after transcription?", cfg.Pipeline.ClearImagesDefault)
				if err != nil {
					return interruptedOr(err)
				}
			}

			hints := pipeline.Hints{
				Transcribe: hintTranscribe,
				Perturb:    hintPerturb,
				Extract:    hintExtract,
			}
			if interactive {
				if hints.Transcribe == "" {
					hints.Transcribe, err = prompter.Input("Special instructions for transcription (empty for defaults):", "")
					if err != nil {
						return interruptedOr(err)
					}
				}
				if hints.Perturb == "" {
					hints.Perturb, err = prompter.Input("Special instructions for perturbation (empty for defaults):", "")
					if err != nil {
						return interruptedOr(err)
					}
				}
				if hints.Extract == "" {
					hints.Extract, err = prompter.Input("Special instructions for document extraction (empty for defaults):", "")
					if err != nil {
						return interruptedOr(err)
					}
				}
			}

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			manager := pipeline.NewManager(cfg, ctx.ensureLogger(), pipeline.Options{
				Out:         cmd.OutOrStdout(),
				ClearImages: cleanup,
				Hints:       hints,
			})
			if _, err := manager.Run(runCtx); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip interactive prompts and use defaults")
	cmd.Flags().BoolVar(&clearImages, "clear-images", false, "Delete source images after transcription")
	cmd.Flags().StringVar(&hintTranscribe, "hint-transcribe", "", "Special instructions for the transcription stage")
	cmd.Flags().StringVar(&hintPerturb, "hint-perturb", "", "Special instructions for the perturbation stage")
	cmd.Flags().StringVar(&hintExtract, "hint-extract", "", "Special instructions for the extraction stage")

	return cmd
}

func interruptedOr(err error) error {
	if errors.Is(err, interact.ErrInterrupted) {
		return fmt.Errorf("aborted")
	}
	return err
}
