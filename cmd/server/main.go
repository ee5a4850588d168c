// Package main is the entrypoint for the LLM feedback service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vocalis/llm-feedback-service/internal/ai"
	"github.com/vocalis/llm-feedback-service/internal/api"
	"github.com/vocalis/llm-feedback-service/internal/api/handler"
	mw "github.com/vocalis/llm-feedback-service/internal/api/middleware"
	"github.com/vocalis/llm-feedback-service/internal/cache"
	"github.com/vocalis/llm-feedback-service/internal/config"
	"github.com/vocalis/llm-feedback-service/internal/feedback"
	"github.com/vocalis/llm-feedback-service/internal/logging"
	"github.com/vocalis/llm-feedback-service/internal/metrics"
	"github.com/vocalis/llm-feedback-service/internal/telemetry"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// 1. Load config, fail fast on invalid values
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser := logging.New(cfg.Log, cfg.Server.Debug)
	defer logCloser.Close()
	slog.SetDefault(logger)

	printStartUpBanner(os.Stdout, cfg.Service)
	slog.Info("config loaded",
		"strategy", cfg.Feedback.Strategy,
		"llm_provider", cfg.AI.Provider,
		"addr", cfg.Server.Addr(),
	)

	// 2. Tracing
	shutdownTracing, err := telemetry.Init(ctx, cfg.Service.Name, cfg.Service.Version, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	// 3. Optional Redis
	var redisCache cache.Cache
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer rc.Close()

		if err := rc.Ping(ctx); err != nil {
			slog.Warn("redis unreachable, continuing without cache and rate limit", "error", err)
		} else {
			redisCache = rc
			slog.Info("redis connected")
		}
	}

	// 4. Build router with dependencies
	m := metrics.New()
	router, err := buildRouter(ctx, cfg, m, redisCache)
	if err != nil {
		return err
	}

	// 5. Start HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      otelhttp.NewHandler(router, cfg.Service.Name),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// buildRouter wires the completion provider, the feedback service and the
// handlers. c may be nil, which disables the completion cache and the
// request rate limiter.
func buildRouter(ctx context.Context, cfg *config.Config, m *metrics.Metrics, c cache.Cache) (http.Handler, error) {
	strategy, err := feedback.ParseStrategy(cfg.Feedback.Strategy)
	if err != nil {
		return nil, fmt.Errorf("feedback strategy: %w", err)
	}

	base, err := newBaseProvider(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}

	// The probe bypasses the cache and the rate limiter.
	var probeTarget models.CompletionProvider
	if base != nil {
		probeTarget = ai.Instrument(base, m)
	}
	prober := ai.NewProber(probeTarget, cfg.AI.HealthProbeTTL, cfg.AI.Timeout)

	provider := ai.Decorate(base, ai.Decorators{
		Metrics:           m,
		Cache:             c,
		CacheTTL:          cfg.Redis.CompletionCacheTTL,
		CacheAccept:       feedback.IsValidCompletion,
		Retry:             ai.DefaultRetryPolicy(cfg.AI.RetryDelay),
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
	})

	svc := feedback.NewService(provider, feedback.Options{
		Strategy:       strategy,
		Temperature:    cfg.AI.Temperature,
		MaxTokens:      cfg.AI.MaxTokens,
		Timeout:        cfg.AI.Timeout,
		DetailedPrompt: cfg.Feedback.DetailedPrompt,
		Metrics:        m,
	})

	var rateLimit *mw.RateLimit
	if c != nil {
		rateLimit = mw.NewRateLimit(c, cfg.Redis.RateLimitPerMinute)
	}

	info := handler.ServiceInfo{Name: cfg.Service.Name, Version: cfg.Service.Version}

	return api.NewRouter(api.Dependencies{
		Metrics:     m,
		RateLimit:   rateLimit,
		CORSOrigins: cfg.Server.CORSOrigins,

		RootHandler:     handler.NewRootHandler(info),
		HealthHandler:   handler.NewHealthHandler(info, prober),
		GenerateHandler: handler.NewGenerateHandler(svc),
	}), nil
}

// newBaseProvider returns nil without an error when the selected provider is
// missing credentials or cannot be reached at startup; feedback then comes
// from the rule table only.
func newBaseProvider(ctx context.Context, cfg config.AIConfig) (models.CompletionProvider, error) {
	p, err := ai.NewProvider(ctx, cfg)
	switch {
	case err == nil:
		slog.Info("completion provider initialized", "provider", p.Name(), "model", p.ModelID())
		return p, nil
	case errors.Is(err, ai.ErrUnknownProvider):
		return nil, fmt.Errorf("create completion provider: %w", err)
	case errors.Is(err, models.ErrProviderNotConfigured):
		slog.Warn("completion provider not configured", "provider", cfg.Provider)
		return nil, nil
	default:
		slog.Error("completion provider unavailable at startup", "provider", cfg.Provider, "error", err)
		return nil, nil
	}
}

func printStartUpBanner(w io.Writer, svc config.ServiceConfig) {
	banner := figure.NewFigure("FEEDBACK", "", true)
	fmt.Fprintln(w, banner.String())

	fmt.Fprintln(w, "======================================================")
	fmt.Fprintf(w, "%s (v%s)\n\n", svc.Name, svc.Version)
}
