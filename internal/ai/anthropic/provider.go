// Package anthropic implements models.CompletionProvider on the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/vocalis/llm-feedback-service/internal/config"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

const defaultMaxTokens = 1024

// Provider implements models.CompletionProvider using Claude.
type Provider struct {
	client *anthropic.Client
	model  string
}

// NewProvider creates a provider. SDK-level retries are disabled; the
// ai.RetryPolicy decorator owns retries.
func NewProvider(cfg config.AnthropicConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w: ANTHROPIC_API_KEY is empty", models.ErrProviderNotConfigured)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := anthropic.NewClient(opts...)
	return &Provider{client: &client, model: cfg.Model}, nil
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) ModelID() string { return p.model }

func (p *Provider) Generate(ctx context.Context, req models.CompletionRequest) (string, error) {
	maxTokens := int64(defaultMaxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", mapError(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if text := sb.String(); text != "" {
		return text, nil
	}

	switch msg.StopReason {
	case anthropic.StopReasonRefusal:
		return "", &models.FilteredError{FinishReason: string(msg.StopReason)}
	case anthropic.StopReasonMaxTokens:
		return "", &models.GenerationError{FinishReason: string(msg.StopReason), Err: models.ErrEmptyCompletion}
	default:
		return "", fmt.Errorf("anthropic: %w", models.ErrEmptyCompletion)
	}
}

func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests, apiErr.StatusCode >= 500:
			return fmt.Errorf("anthropic (%d): %w", apiErr.StatusCode, models.ErrProviderUnavailable)
		default:
			return fmt.Errorf("anthropic (%d): %w", apiErr.StatusCode, err)
		}
	}
	return fmt.Errorf("anthropic: %w: %v", models.ErrProviderUnavailable, err)
}

var _ models.CompletionProvider = (*Provider)(nil)
