package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/vocalis/llm-feedback-service/internal/metrics"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// InstrumentedProvider records latency and outcome of every call.
type InstrumentedProvider struct {
	inner   models.CompletionProvider
	metrics *metrics.Metrics
	now     func() time.Time
}

// Instrument wraps p. A nil m still logs.
func Instrument(p models.CompletionProvider, m *metrics.Metrics) *InstrumentedProvider {
	return &InstrumentedProvider{inner: p, metrics: m, now: time.Now}
}

func (i *InstrumentedProvider) Name() string { return i.inner.Name() }

func (i *InstrumentedProvider) ModelID() string { return i.inner.ModelID() }

func (i *InstrumentedProvider) Generate(ctx context.Context, req models.CompletionRequest) (string, error) {
	start := i.now()
	text, err := i.inner.Generate(ctx, req)
	elapsed := i.now().Sub(start)

	i.metrics.RecordProviderRequest(i.inner.Name(), i.inner.ModelID(), err == nil, elapsed)

	attrs := []any{
		"provider", i.inner.Name(),
		"model", i.inner.ModelID(),
		"duration_ms", elapsed.Milliseconds(),
	}
	if err != nil {
		attrs = append(attrs, "error", err)
		if reason := FinishReason(err); reason != "" {
			attrs = append(attrs, "finish_reason", reason)
		}
		slog.Warn("completion request failed", attrs...)
		return "", err
	}

	slog.Debug("completion request", append(attrs, "chars", len(text))...)
	return text, nil
}

var _ models.CompletionProvider = (*InstrumentedProvider)(nil)
