// Command feedbackctl is a developer tool for the feedback service: it lists
// Gemini models, probes the configured completion provider and previews the
// feedback produced for an attempt.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vocalis/llm-feedback-service/internal/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "feedbackctl",
		Short: "Inspect completion providers and preview feedback",
		Long: `feedbackctl reads the same environment (and .env file) as the feedback
server. Nothing is persisted and no HTTP server is started.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			return config.LoadDotEnv(envFile)
		},
	}

	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(newModelsCommand())
	rootCmd.AddCommand(newProbeCommand())
	rootCmd.AddCommand(newPreviewCommand())

	return rootCmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
