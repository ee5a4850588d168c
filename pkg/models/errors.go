package models

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable is returned when the completion provider cannot be reached.
	ErrProviderUnavailable = errors.New("completion provider unavailable")
	// ErrProviderNotConfigured is returned when no completion provider was set up.
	ErrProviderNotConfigured = errors.New("completion provider not configured")
	// ErrEmptyCompletion is returned when a provider produced no text at all.
	ErrEmptyCompletion = errors.New("completion provider returned no content")
)

// ValidationError reports an AnalysisContext invariant violation.
// Message is surfaced verbatim to API clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// FilteredError indicates the provider's safety or recitation filter
// suppressed the response.
type FilteredError struct {
	FinishReason string
}

func (e *FilteredError) Error() string {
	return fmt.Sprintf("completion blocked by provider filter (finish reason: %s)", e.FinishReason)
}

// GenerationError is raised when the external completion path cannot produce
// usable feedback: retries exhausted or the response could not be parsed.
type GenerationError struct {
	FinishReason string
	Err          error
}

func (e *GenerationError) Error() string {
	if e.FinishReason != "" {
		return fmt.Sprintf("feedback generation failed (finish reason: %s): %v", e.FinishReason, e.Err)
	}
	return fmt.Sprintf("feedback generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
