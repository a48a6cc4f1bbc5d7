package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"examforge/internal/fileutil"
	"examforge/internal/interact"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Truncate output artifacts and optionally delete source images",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			interactive := !yes && interact.StdinIsTerminal()
			prompter := interact.New(interactive)

			fmt.Fprintln(out, "Output artifacts:")
			for _, path := range cfg.ArtifactFiles() {
				if _, statErr := os.Stat(path); statErr != nil {
					fmt.Fprintf(out, "  %s (missing)\n", filepath.Base(path))
					continue
				}
				fmt.Fprintf(out, "  %s (%d bytes)\n", filepath.Base(path), fileutil.FileSize(path))
			}

			confirm, err := prompter.Confirm("Truncate all output artifacts?", true)
			if err != nil {
				return interruptedOr(err)
			}
			if confirm {
				for _, path := range cfg.ArtifactFiles() {
					if err := fileutil.TruncateFile(path); err != nil {
						return fmt.Errorf("truncate %s: %w", path, err)
					}
				}
				fmt.Fprintf(out, "Truncated %d artifact(s)\n", len(cfg.ArtifactFiles()))
			} else {
				fmt.Fprintln(out, "Artifacts left untouched")
			}

			images, err := fileutil.ListImages(cfg.Paths.ImageDir)
			if err != nil {
				return fmt.Errorf("list images: %w", err)
			}
			if len(images) == 0 {
				fmt.Fprintln(out, "No source images to delete")
				return nil
			}

			confirm, err = prompter.Confirm(
				fmt.Sprintf("Delete %d source image(s) from %s?", len(images), cfg.Paths.ImageDir), false)
			if err != nil {
				return interruptedOr(err)
			}
			if !confirm {
				fmt.Fprintln(out, "Images left untouched")
				return nil
			}
			removed, err := fileutil.ClearDir(cfg.Paths.ImageDir)
			if err != nil {
				return fmt.Errorf("clear images: %w", err)
			}
			fmt.Fprintf(out, "Deleted %d image(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip prompts; truncate artifacts, keep images")
	return cmd
}
