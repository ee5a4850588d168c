// Package openai implements models.CompletionProvider for OpenAI and for
// OpenAI-compatible servers (Ollama, vLLM) reached through a base URL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vocalis/llm-feedback-service/internal/config"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// Provider implements models.CompletionProvider using the chat completions API.
type Provider struct {
	client *openai.Client
	name   string
	model  string
	// legacyMaxTokens sends max_tokens instead of max_completion_tokens;
	// self-hosted servers only understand the former.
	legacyMaxTokens bool
}

// NewProvider creates a provider for the OpenAI API.
func NewProvider(cfg config.OpenAIConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w: OPENAI_API_KEY is empty", models.ErrProviderNotConfigured)
	}
	return newCompatible("openai", cfg.APIKey, cfg.BaseURL, cfg.Model, false), nil
}

// NewOllama creates a provider for an Ollama server's OpenAI-compatible endpoint.
func NewOllama(cfg config.OllamaConfig) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ollama: %w: OLLAMA_BASE_URL is empty", models.ErrProviderNotConfigured)
	}
	return newCompatible("ollama", "ollama", cfg.BaseURL, cfg.Model, true), nil
}

// NewVLLM creates a provider for a vLLM server.
func NewVLLM(cfg config.VLLMConfig) (*Provider, error) {
	if cfg.BaseURL == "" || cfg.Model == "" {
		return nil, fmt.Errorf("vllm: %w: VLLM_BASE_URL and VLLM_MODEL are required", models.ErrProviderNotConfigured)
	}
	return newCompatible("vllm", cfg.APIKey, cfg.BaseURL, cfg.Model, true), nil
}

func newCompatible(name, apiKey, baseURL, model string, legacyMaxTokens bool) *Provider {
	cc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cc.BaseURL = baseURL
	}
	return &Provider{
		client:          openai.NewClientWithConfig(cc),
		name:            name,
		model:           model,
		legacyMaxTokens: legacyMaxTokens,
	}
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) ModelID() string { return p.model }

// Generate sends one chat completion. Truncated output is returned as partial
// text; an empty response stopped by the content filter returns a
// *models.FilteredError.
func (p *Provider) Generate(ctx context.Context, req models.CompletionRequest) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: buildMessages(req),
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
		// The client drops a zero temperature from the body.
		if chatReq.Temperature == 0 {
			chatReq.Temperature = math.SmallestNonzeroFloat32
		}
	}
	if req.MaxTokens > 0 {
		if p.legacyMaxTokens {
			chatReq.MaxTokens = req.MaxTokens
		} else {
			chatReq.MaxCompletionTokens = req.MaxTokens
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", p.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", p.name, models.ErrEmptyCompletion)
	}

	choice := resp.Choices[0]
	text := choice.Message.Content
	switch {
	case text != "" && choice.FinishReason == openai.FinishReasonLength:
		slog.Warn("completion truncated", "provider", p.name, "model", p.model)
		return text, nil
	case text != "":
		return text, nil
	case choice.FinishReason == openai.FinishReasonContentFilter:
		return "", &models.FilteredError{FinishReason: string(choice.FinishReason)}
	case choice.FinishReason != "" && choice.FinishReason != openai.FinishReasonStop:
		return "", &models.GenerationError{FinishReason: string(choice.FinishReason), Err: models.ErrEmptyCompletion}
	default:
		return "", fmt.Errorf("%s: %w", p.name, models.ErrEmptyCompletion)
	}
}

func buildMessages(req models.CompletionRequest) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})
}

func (p *Provider) mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests, apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%s (%d): %w: %s", p.name, apiErr.HTTPStatusCode, models.ErrProviderUnavailable, apiErr.Message)
		default:
			return fmt.Errorf("%s (%d): %s", p.name, apiErr.HTTPStatusCode, apiErr.Message)
		}
	}
	return fmt.Errorf("%s: %w: %v", p.name, models.ErrProviderUnavailable, err)
}

var _ models.CompletionProvider = (*Provider)(nil)
