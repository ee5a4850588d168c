package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vocalis/llm-feedback-service/internal/ai"
	"github.com/vocalis/llm-feedback-service/internal/api/handler"
	"github.com/vocalis/llm-feedback-service/internal/feedback"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

func newPreviewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Generate feedback for an attempt read from a JSON file",
		Long: `Reads a POST /feedback/generate body from --file and prints the feedback
the service would return. With --show-prompt the completion prompts are
printed as well.`,
		RunE: runPreview,
	}

	cmd.Flags().StringP("file", "f", "", "JSON file with the attempt context (required)")
	cmd.Flags().String("strategy", "", "deterministic or external (default: FEEDBACK_STRATEGY)")
	cmd.Flags().Bool("show-prompt", false, "print the system and user prompts")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runPreview(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	strategyVal, _ := cmd.Flags().GetString("strategy")
	showPrompt, _ := cmd.Flags().GetBool("show-prompt")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if strategyVal == "" {
		strategyVal = cfg.Feedback.Strategy
	}
	strategy, err := feedback.ParseStrategy(strategyVal)
	if err != nil {
		return err
	}

	actx, err := readContext(path)
	if err != nil {
		return err
	}

	var provider models.CompletionProvider
	if strategy == feedback.StrategyExternal {
		p, err := ai.NewProvider(cmd.Context(), cfg.AI)
		if err != nil {
			return fmt.Errorf("create completion provider: %w", err)
		}
		provider = ai.Decorate(p, ai.Decorators{Retry: ai.DefaultRetryPolicy(cfg.AI.RetryDelay)})
	}

	svc := feedback.NewService(provider, feedback.Options{
		Strategy:       strategy,
		Temperature:    cfg.AI.Temperature,
		MaxTokens:      cfg.AI.MaxTokens,
		Timeout:        cfg.AI.Timeout,
		DetailedPrompt: cfg.Feedback.DetailedPrompt,
	})

	out := cmd.OutOrStdout()
	if showPrompt {
		user := feedback.BuildUserPrompt(actx)
		if cfg.Feedback.DetailedPrompt {
			user = feedback.BuildDetailedPrompt(actx)
		}
		fmt.Fprintf(out, "── System prompt ──\n%s\n\n── User prompt ──\n%s\n\n", feedback.SystemPrompt, user)
	}

	fb, err := svc.Generate(cmd.Context(), actx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "model: %s\n", fb.ModelUsed)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(fb)
}

// readContext decodes and validates a request body the same way the HTTP
// handler does.
func readContext(path string) (models.AnalysisContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.AnalysisContext{}, fmt.Errorf("read %s: %w", path, err)
	}

	var req handler.GenerateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return models.AnalysisContext{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := req.Validate(); err != nil {
		return models.AnalysisContext{}, err
	}
	return req.AnalysisContext()
}
