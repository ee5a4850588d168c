package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vocalis/llm-feedback-service/internal/metrics"
	"github.com/vocalis/llm-feedback-service/internal/telemetry"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// Strategy selects how feedback is produced.
type Strategy string

const (
	// StrategyDeterministic uses only the rule table.
	StrategyDeterministic Strategy = "deterministic"
	// StrategyExternal asks the completion provider first and falls back to
	// the rule table on any failure.
	StrategyExternal Strategy = "external"
)

// ParseStrategy validates a configured strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyDeterministic, StrategyExternal:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown feedback strategy %q: must be one of deterministic, external", s)
	}
}

// Options configures a Service.
type Options struct {
	Strategy       Strategy
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration
	DetailedPrompt bool
	Metrics        *metrics.Metrics
}

// Service produces Feedback for validated contexts.
type Service struct {
	engine   *Engine
	provider models.CompletionProvider
	opts     Options
}

// NewService creates a Service. provider may be nil, in which case the
// external strategy always falls back to the rule table.
func NewService(provider models.CompletionProvider, opts Options) *Service {
	if opts.Strategy == "" {
		opts.Strategy = StrategyDeterministic
	}
	return &Service{
		engine:   NewEngine(),
		provider: provider,
		opts:     opts,
	}
}

// Strategy returns the configured strategy.
func (s *Service) Strategy() Strategy { return s.opts.Strategy }

// Generate produces feedback for c. It fails only when ctx is done; every
// provider or parse failure degrades to the deterministic engine.
func (s *Service) Generate(ctx context.Context, c models.AnalysisContext) (models.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return models.Feedback{}, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, "feedback.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("feedback.strategy", string(s.opts.Strategy)),
		attribute.String("feedback.attempt_id", c.AttemptID),
		attribute.Float64("feedback.overall_score", c.OverallScore),
	)

	slog.Debug("generating feedback",
		"attempt_id", c.AttemptID,
		"strategy", s.opts.Strategy,
		"pronunciation", c.PronunciationScore,
		"fluency", c.FluencyScore,
		"rhythm", c.RhythmScore,
		"overall", c.OverallScore,
	)

	if s.opts.Strategy == StrategyExternal {
		fb, err := s.generateExternal(ctx, c)
		if err == nil {
			s.opts.Metrics.RecordFeedback(string(StrategyExternal), string(fb.Tone))
			return fb, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			span.SetStatus(codes.Error, ctxErr.Error())
			return models.Feedback{}, ctxErr
		}

		reason := fallbackReason(err)
		span.AddEvent("fallback", trace.WithAttributes(attribute.String("reason", reason)))
		slog.Warn("external feedback failed, using deterministic fallback",
			"attempt_id", c.AttemptID,
			"reason", reason,
			"error", err,
		)
		s.opts.Metrics.RecordFallback(reason)
	}

	fb := s.engine.Decide(c)
	s.opts.Metrics.RecordFeedback(string(StrategyDeterministic), string(fb.Tone))
	return fb, nil
}

func (s *Service) generateExternal(ctx context.Context, c models.AnalysisContext) (models.Feedback, error) {
	if s.provider == nil {
		return models.Feedback{}, models.ErrProviderNotConfigured
	}

	prompt := BuildUserPrompt(c)
	if s.opts.DetailedPrompt {
		prompt = BuildDetailedPrompt(c)
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	temperature := s.opts.Temperature
	req := models.CompletionRequest{
		System:      SystemPrompt,
		Prompt:      prompt,
		Temperature: &temperature,
		MaxTokens:   s.opts.MaxTokens,
	}

	text, err := s.provider.Generate(ctx, req)
	if err != nil {
		return models.Feedback{}, fmt.Errorf("%s completion: %w", s.provider.Name(), err)
	}

	parsed, err := ParseCompletion(text)
	if err != nil {
		return models.Feedback{}, err
	}

	return models.Feedback{
		MainMessage:    parsed.MainMessage,
		Strengths:      parsed.Strengths,
		AreasToImprove: parsed.AreasToImprove,
		SpecificTip:    parsed.SpecificTip,
		Celebration:    parsed.Celebration,
		Encouragement:  parsed.Encouragement,
		Tone:           ToneForScore(c.OverallScore),
		GeneratedAt:    time.Now().UTC(),
		ModelUsed:      s.provider.ModelID(),
	}, nil
}

// ToneForScore picks the tone of externally generated feedback.
func ToneForScore(overall float64) models.Tone {
	switch {
	case overall >= 80:
		return models.TonePositive
	case overall >= 60:
		return models.ToneEncouraging
	default:
		return models.ToneMotivational
	}
}

func fallbackReason(err error) string {
	var filtered *models.FilteredError
	var genErr *models.GenerationError
	switch {
	case errors.Is(err, models.ErrProviderNotConfigured):
		return "provider_not_configured"
	case errors.As(err, &filtered):
		return "filtered"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &genErr) && genErr.FinishReason == "parse":
		return "parse"
	default:
		return "provider_error"
	}
}
