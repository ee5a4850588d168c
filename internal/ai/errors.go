package ai

import (
	"context"
	"errors"

	"github.com/vocalis/llm-feedback-service/pkg/models"
)

var (
	ErrUnknownProvider = errors.New("unknown completion provider")
	ErrRateLimited     = errors.New("completion rate limit wait aborted")
)

// FinishReason extracts the provider finish reason carried by err, if any.
func FinishReason(err error) string {
	var filtered *models.FilteredError
	if errors.As(err, &filtered) {
		return filtered.FinishReason
	}
	var genErr *models.GenerationError
	if errors.As(err, &genErr) {
		return genErr.FinishReason
	}
	return ""
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
