package ai

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vocalis/llm-feedback-service/pkg/models"
)

const (
	probePrompt    = "Hello, respond with 'OK'"
	probeMaxTokens = 10
)

// Prober checks provider connectivity with a minimal completion. Results are
// cached for ttl so health checks do not burn request quota.
type Prober struct {
	provider models.CompletionProvider
	ttl      time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu        sync.Mutex
	state     models.ProviderState
	checkedAt time.Time
}

// NewProber creates a Prober. provider may be nil, in which case every check
// reports ProviderUnknown.
func NewProber(provider models.CompletionProvider, ttl, timeout time.Duration) *Prober {
	return &Prober{
		provider: provider,
		ttl:      ttl,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Configured reports whether a provider is attached.
func (p *Prober) Configured() bool { return p.provider != nil }

// ProviderName returns the attached provider's name, or "" when none is.
func (p *Prober) ProviderName() string {
	if p.provider == nil {
		return ""
	}
	return p.provider.Name()
}

// Check returns the provider state. It never returns the underlying error;
// failures are logged and reported as ProviderUnreachable.
func (p *Prober) Check(ctx context.Context) models.ProviderState {
	if p.provider == nil {
		return models.ProviderUnknown
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != "" && p.ttl > 0 && p.now().Sub(p.checkedAt) < p.ttl {
		return p.state
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	state := models.ProviderReachable
	if _, err := p.provider.Generate(ctx, models.CompletionRequest{
		Prompt:    probePrompt,
		MaxTokens: probeMaxTokens,
	}); err != nil {
		slog.Warn("completion provider probe failed", "provider", p.provider.Name(), "error", err)
		state = models.ProviderUnreachable
	}

	p.state = state
	p.checkedAt = p.now()
	return state
}
