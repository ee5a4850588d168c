package ai_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocalis/llm-feedback-service/internal/ai"
	"github.com/vocalis/llm-feedback-service/internal/ai/mock"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

func TestRateLimit_FirstCallPasses(t *testing.T) {
	inner := mock.NewStaticProvider("{}")
	p := ai.WithRateLimit(inner, 2)

	text, err := p.Generate(context.Background(), models.CompletionRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "{}", text)
	assert.Equal(t, "mock", p.Name())
}

func TestRateLimit_SecondCallExceedsDeadline(t *testing.T) {
	inner := mock.NewStaticProvider("{}")
	p := ai.WithRateLimit(inner, 2)

	_, err := p.Generate(context.Background(), models.CompletionRequest{Prompt: "x"})
	require.NoError(t, err)

	// The next token is 30s away; a 50ms deadline cannot wait for it.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = p.Generate(ctx, models.CompletionRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Len(t, inner.Requests(), 1)
}

func TestRateLimit_CancelledContext(t *testing.T) {
	inner := mock.NewStaticProvider("{}")
	p := ai.WithRateLimit(inner, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, models.CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, inner.Requests())
}
