// Package gemini implements models.CompletionProvider on the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"google.golang.org/genai"

	"github.com/vocalis/llm-feedback-service/internal/config"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// PreferredModels is tried in order at construction; the first model the API
// resolves is used for every request.
var PreferredModels = []string{
	"gemini-2.5-pro",
	"gemini-pro-latest",
	"gemini-2.5-flash-lite",
	"gemini-flash-lite-latest",
	"gemini-2.0-flash",
}

// Base generation settings. Per-request temperature and token limits override
// the matching fields.
const (
	baseTemperature = 0.7
	baseTopP        = 0.95
	baseTopK        = 40
	baseMaxTokens   = 1024
)

// All four harm categories at BLOCK_NONE.
var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
}

// Provider implements models.CompletionProvider using Gemini.
type Provider struct {
	client *genai.Client
	model  string
}

// NewProvider creates the client and resolves the first available model from
// cfg.Model (when set) followed by PreferredModels.
func NewProvider(ctx context.Context, cfg config.GeminiConfig) (*Provider, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	candidates := PreferredModels
	if cfg.Model != "" {
		candidates = append([]string{cfg.Model}, PreferredModels...)
	}

	model, err := resolveModel(ctx, client, candidates)
	if err != nil {
		return nil, err
	}
	slog.Info("gemini model selected", "model", model)

	return &Provider{client: client, model: model}, nil
}

func newClient(ctx context.Context, cfg config.GeminiConfig) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w: GOOGLE_API_KEY is empty", models.ErrProviderNotConfigured)
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

func resolveModel(ctx context.Context, client *genai.Client, candidates []string) (string, error) {
	var lastErr error
	for _, name := range candidates {
		if _, err := client.Models.Get(ctx, name, nil); err != nil {
			slog.Debug("gemini model unavailable", "model", name, "error", err)
			lastErr = err
			continue
		}
		return name, nil
	}
	return "", fmt.Errorf("gemini: no model from %v is available: %w", candidates, lastErr)
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) ModelID() string { return p.model }

// Generate sends one request and returns whatever text the model produced.
// A response cut short by token limits still returns its partial text; an
// empty response blocked by the safety or recitation filters returns a
// *models.FilteredError.
func (p *Provider) Generate(ctx context.Context, req models.CompletionRequest) (string, error) {
	cfg := generationConfig(req)

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return "", mapError(err)
	}

	return extractText(result)
}

func generationConfig(req models.CompletionRequest) *genai.GenerateContentConfig {
	temperature := float32(baseTemperature)
	if req.Temperature != nil {
		temperature = float32(*req.Temperature)
	}
	maxTokens := int32(baseMaxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int32(req.MaxTokens)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		TopP:            genai.Ptr(float32(baseTopP)),
		TopK:            genai.Ptr(float32(baseTopK)),
		MaxOutputTokens: maxTokens,
		SafetySettings:  safetySettings,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	return cfg
}

func extractText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		if result != nil && result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
			return "", &models.FilteredError{FinishReason: string(result.PromptFeedback.BlockReason)}
		}
		return "", models.ErrEmptyCompletion
	}

	candidate := result.Candidates[0]
	var sb strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}
	text := sb.String()

	reason := candidate.FinishReason
	if text != "" {
		if reason != "" && reason != genai.FinishReasonStop {
			slog.Warn("gemini returned partial text", "finish_reason", string(reason))
		}
		return text, nil
	}

	if reason == genai.FinishReasonSafety || reason == genai.FinishReasonRecitation {
		return "", &models.FilteredError{FinishReason: string(reason)}
	}
	if reason != "" && reason != genai.FinishReasonStop {
		return "", &models.GenerationError{FinishReason: string(reason), Err: models.ErrEmptyCompletion}
	}
	return "", models.ErrEmptyCompletion
}

func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests, apiErr.Code >= 500:
			return fmt.Errorf("gemini (%d): %w: %v", apiErr.Code, models.ErrProviderUnavailable, apiErr.Message)
		default:
			return fmt.Errorf("gemini (%d): %s", apiErr.Code, apiErr.Message)
		}
	}
	return fmt.Errorf("gemini: %w: %v", models.ErrProviderUnavailable, err)
}

// Model describes one entry returned by ListModels.
type Model struct {
	Name        string
	DisplayName string
}

// ListModels returns the models visible to the API key that support
// generateContent.
func ListModels(ctx context.Context, cfg config.GeminiConfig) ([]Model, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var out []Model
	for m, err := range client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list gemini models: %w", mapError(err))
		}
		if !slices.Contains(m.SupportedActions, "generateContent") {
			continue
		}
		out = append(out, Model{Name: m.Name, DisplayName: m.DisplayName})
	}
	return out, nil
}

var _ models.CompletionProvider = (*Provider)(nil)
