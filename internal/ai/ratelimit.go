package ai

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// RateLimitedProvider throttles outbound completions with a token bucket
// shared by every request.
type RateLimitedProvider struct {
	inner   models.CompletionProvider
	limiter *rate.Limiter
}

// WithRateLimit allows perMinute calls per minute with a burst of one.
func WithRateLimit(p models.CompletionProvider, perMinute int) *RateLimitedProvider {
	return &RateLimitedProvider{
		inner:   p,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (r *RateLimitedProvider) Name() string { return r.inner.Name() }

func (r *RateLimitedProvider) ModelID() string { return r.inner.ModelID() }

// Generate waits for a token, then calls the inner provider. A wait that
// would outlast ctx's deadline fails immediately.
func (r *RateLimitedProvider) Generate(ctx context.Context, req models.CompletionRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return r.inner.Generate(ctx, req)
}

var _ models.CompletionProvider = (*RateLimitedProvider)(nil)
