package models

import "context"

// CompletionProvider is the narrow capability the feedback service needs from
// an external text generator. Never call specific SDKs directly; inject this.
type CompletionProvider interface {
	// Generate returns the completion text for the given instructions and prompt.
	Generate(ctx context.Context, req CompletionRequest) (string, error)
	// ModelID returns the model serving requests (e.g. "gemini-2.5-pro").
	ModelID() string
	// Name returns the provider identifier (e.g. "gemini", "openai").
	Name() string
}

// CompletionRequest carries one generation call. Zero or nil fields fall back
// to the provider's base configuration.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature *float64
	MaxTokens   int
}

// ProviderState is the tri-state result of a connectivity probe.
type ProviderState string

const (
	ProviderReachable   ProviderState = "reachable"
	ProviderUnreachable ProviderState = "unreachable"
	ProviderUnknown     ProviderState = "unknown"
)
