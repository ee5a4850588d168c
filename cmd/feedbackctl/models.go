package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vocalis/llm-feedback-service/internal/ai/gemini"
)

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List Gemini models that support generateContent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			list, err := gemini.ListModels(cmd.Context(), cfg.AI.Gemini)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No models found.")
				return nil
			}

			fmt.Fprintf(out, "%-40s  %s\n", "Name", "Display name")
			fmt.Fprintln(out, strings.Repeat("─", 72))
			for _, m := range list {
				fmt.Fprintf(out, "%-40s  %s\n", strings.TrimPrefix(m.Name, "models/"), m.DisplayName)
			}
			return nil
		},
	}
}
