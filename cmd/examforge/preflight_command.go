package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"examforge/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var checkAPI bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, prompts, and credentials before a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{CheckAPI: checkAPI})
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				rows = append(rows, []string{result.Name, passFail(result.Passed), result.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Check", "Status", "Detail"},
				rows,
			))

			if !preflight.AllPassed(results) {
				return fmt.Errorf("preflight failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All checks passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkAPI, "api", false, "Also ping the model API")
	return cmd
}
