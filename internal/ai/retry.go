package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// RewordPrefix is prepended to the prompt on every retry attempt; recitation
// filters often let a reworded request through.
const RewordPrefix = "Generate original feedback:\n\n"

// RetryPolicy bounds how often a failed completion is attempted again.
type RetryPolicy struct {
	// MaxAttempts counts the first call.
	MaxAttempts int
	// Delay is waited before retrying a provider error. A filtered response
	// is retried immediately.
	Delay time.Duration
}

// DefaultRetryPolicy returns two attempts with the given delay.
func DefaultRetryPolicy(delay time.Duration) RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, Delay: delay}
}

// RetryProvider is a decorator that applies a RetryPolicy.
type RetryProvider struct {
	inner  models.CompletionProvider
	policy RetryPolicy
}

// WithRetry wraps a provider with retry logic.
func WithRetry(p models.CompletionProvider, policy RetryPolicy) *RetryProvider {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &RetryProvider{inner: p, policy: policy}
}

func (r *RetryProvider) Name() string { return r.inner.Name() }

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

// Generate calls the inner provider until it succeeds or the policy is
// exhausted. The terminal failure is returned as a *models.GenerationError.
// Context errors are returned as-is and never retried.
func (r *RetryProvider) Generate(ctx context.Context, req models.CompletionRequest) (string, error) {
	original := req.Prompt
	var lastErr error

	for attempt := range r.policy.MaxAttempts {
		if attempt > 0 {
			req.Prompt = RewordPrefix + original
		}

		text, err := r.inner.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if isContextErr(err) {
			return "", err
		}
		if attempt == r.policy.MaxAttempts-1 {
			break
		}

		var filtered *models.FilteredError
		if errors.As(err, &filtered) {
			slog.Warn("completion filtered, retrying with reworded prompt",
				"provider", r.inner.Name(), "finish_reason", filtered.FinishReason, "attempt", attempt+1)
			continue
		}

		slog.Warn("completion failed, retrying",
			"provider", r.inner.Name(), "error", err, "attempt", attempt+1, "delay", r.policy.Delay)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.policy.Delay):
		}
	}

	var genErr *models.GenerationError
	if errors.As(lastErr, &genErr) {
		return "", lastErr
	}
	return "", &models.GenerationError{FinishReason: FinishReason(lastErr), Err: lastErr}
}

var _ models.CompletionProvider = (*RetryProvider)(nil)
