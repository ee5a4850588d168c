package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/vocalis/llm-feedback-service/internal/cache"
	"github.com/vocalis/llm-feedback-service/internal/metrics"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// CachedProvider serves repeated identical requests from Redis.
type CachedProvider struct {
	inner   models.CompletionProvider
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	accept  func(text string) bool
}

// WithCache wraps a provider with a completion cache. Only successful
// completions are stored, and when accept is non-nil only those it approves.
func WithCache(p models.CompletionProvider, c cache.Cache, ttl time.Duration, m *metrics.Metrics, accept func(text string) bool) *CachedProvider {
	return &CachedProvider{inner: p, cache: c, ttl: ttl, metrics: m, accept: accept}
}

func (c *CachedProvider) Name() string { return c.inner.Name() }

func (c *CachedProvider) ModelID() string { return c.inner.ModelID() }

// Generate looks the request up before calling the inner provider. Cache
// failures are logged and otherwise ignored.
func (c *CachedProvider) Generate(ctx context.Context, req models.CompletionRequest) (string, error) {
	var temperature float64
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	key := cache.CompletionKey(c.inner.ModelID(), req.System, req.Prompt, temperature, req.MaxTokens)

	cached, found, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		slog.Warn("completion cache read failed", "error", err)
	case found:
		c.metrics.RecordCacheLookup(true)
		return string(cached), nil
	default:
		c.metrics.RecordCacheLookup(false)
	}

	text, err := c.inner.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	if c.accept != nil && !c.accept(text) {
		slog.Debug("completion not cached", "provider", c.inner.Name(), "model", c.inner.ModelID())
		return text, nil
	}
	if err := c.cache.Set(ctx, key, []byte(text), c.ttl); err != nil {
		slog.Warn("completion cache write failed", "error", err)
	}
	return text, nil
}

var _ models.CompletionProvider = (*CachedProvider)(nil)
