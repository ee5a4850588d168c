package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/vocalis/llm-feedback-service/internal/ai/anthropic"
	"github.com/vocalis/llm-feedback-service/internal/ai/gemini"
	"github.com/vocalis/llm-feedback-service/internal/ai/mock"
	"github.com/vocalis/llm-feedback-service/internal/ai/openai"
	"github.com/vocalis/llm-feedback-service/internal/cache"
	"github.com/vocalis/llm-feedback-service/internal/config"
	"github.com/vocalis/llm-feedback-service/internal/metrics"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// NewProvider constructs the completion provider selected by cfg.Provider.
// Called once at server startup. Returns models.ErrProviderNotConfigured when
// the provider lacks credentials.
func NewProvider(ctx context.Context, cfg config.AIConfig) (models.CompletionProvider, error) {
	if !validProvider(cfg.Provider) {
		return nil, fmt.Errorf("%w %q: must be one of gemini, openai, anthropic, ollama, vllm, mock", ErrUnknownProvider, cfg.Provider)
	}
	if !cfg.Configured() {
		return nil, fmt.Errorf("%s: %w", cfg.Provider, models.ErrProviderNotConfigured)
	}

	switch cfg.Provider {
	case "gemini":
		return wrap(gemini.NewProvider(ctx, cfg.Gemini))
	case "openai":
		return wrap(openai.NewProvider(cfg.OpenAI))
	case "ollama":
		return wrap(openai.NewOllama(cfg.Ollama))
	case "vllm":
		return wrap(openai.NewVLLM(cfg.VLLM))
	case "anthropic":
		return wrap(anthropic.NewProvider(cfg.Anthropic))
	default:
		return mock.NewMockProvider(), nil
	}
}

func validProvider(name string) bool {
	switch name {
	case "gemini", "openai", "anthropic", "ollama", "vllm", "mock":
		return true
	}
	return false
}

// wrap avoids returning a typed nil inside a non-nil interface.
func wrap[P models.CompletionProvider](p P, err error) (models.CompletionProvider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Decorators configures the layers Decorate puts around a provider.
// Zero values disable the corresponding layer.
type Decorators struct {
	Metrics  *metrics.Metrics
	Cache    cache.Cache
	CacheTTL time.Duration
	// CacheAccept, when set, decides which completion texts are worth caching.
	CacheAccept       func(text string) bool
	Retry             RetryPolicy
	RequestsPerMinute int
}

// Decorate wraps p, from the outside in: completion cache, retry, rate limit,
// instrumentation. Cache hits skip every other layer, and each retry attempt
// is rate limited and measured.
func Decorate(p models.CompletionProvider, d Decorators) models.CompletionProvider {
	if p == nil {
		return nil
	}
	p = Instrument(p, d.Metrics)
	if d.RequestsPerMinute > 0 {
		p = WithRateLimit(p, d.RequestsPerMinute)
	}
	if d.Retry.MaxAttempts > 1 {
		p = WithRetry(p, d.Retry)
	}
	if d.Cache != nil && d.CacheTTL > 0 {
		p = WithCache(p, d.Cache, d.CacheTTL, d.Metrics, d.CacheAccept)
	}
	return p
}
