package mock

import (
	"context"
	"sync"

	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// DefaultCompletion is the canned JSON returned by NewMockProvider.
const DefaultCompletion = `{
  "main_message": "¡Excelente trabajo con este ejercicio!",
  "strengths": ["Pronunciaste con claridad", "Mantuviste un buen ritmo"],
  "areas_to_improve": ["Puedes trabajar un poco más la fluidez"],
  "specific_tip": "Lee la frase en voz alta tres veces antes de grabarte.",
  "celebration": "¡Desbloqueaste el siguiente nivel!",
  "encouragement": "¡Sigue practicando, lo estás haciendo muy bien!"
}`

// MockProvider satisfies models.CompletionProvider for testing and local runs.
type MockProvider struct {
	Name_        string
	Model        string
	GenerateFunc func(ctx context.Context, req models.CompletionRequest) (string, error)

	mu       sync.Mutex
	requests []models.CompletionRequest
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) ModelID() string { return m.Model }

func (m *MockProvider) Generate(ctx context.Context, req models.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "", nil
}

// Requests returns a copy of every request received so far.
func (m *MockProvider) Requests() []models.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// NewMockProvider returns a MockProvider answering with DefaultCompletion.
func NewMockProvider() *MockProvider {
	return NewStaticProvider(DefaultCompletion)
}

// NewStaticProvider returns a MockProvider that always answers with text.
func NewStaticProvider(text string) *MockProvider {
	return &MockProvider{
		Name_: "mock",
		Model: "mock-v1",
		GenerateFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return text, nil
		},
	}
}

// NewSequenceProvider returns a MockProvider that replays the given results
// in order. Each entry is either a string or an error; once exhausted it
// keeps returning the last entry.
func NewSequenceProvider(results ...any) *MockProvider {
	var mu sync.Mutex
	i := 0
	return &MockProvider{
		Name_: "mock-sequence",
		Model: "mock-v1",
		GenerateFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			if len(results) == 0 {
				return "", models.ErrEmptyCompletion
			}
			r := results[min(i, len(results)-1)]
			i++
			if err, ok := r.(error); ok {
				return "", err
			}
			s, _ := r.(string)
			return s, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		Model: "mock-v1",
		GenerateFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		Model: "mock-v1",
		GenerateFunc: func(ctx context.Context, _ models.CompletionRequest) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
}

// Compile-time check that MockProvider implements CompletionProvider.
var _ models.CompletionProvider = (*MockProvider)(nil)
