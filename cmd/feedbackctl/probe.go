package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vocalis/llm-feedback-service/internal/ai"
)

func newProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Send the health probe prompt to the configured provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			provider, err := ai.NewProvider(cmd.Context(), cfg.AI)
			if err != nil {
				return fmt.Errorf("create completion provider: %w", err)
			}

			state := ai.NewProber(provider, 0, cfg.AI.Timeout).Check(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "provider: %s\nmodel:    %s\nstate:    %s\n",
				provider.Name(), provider.ModelID(), state)
			return nil
		},
	}
}
