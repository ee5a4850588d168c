package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	mw "github.com/vocalis/llm-feedback-service/internal/api/middleware"
	"github.com/vocalis/llm-feedback-service/internal/api/response"
	"github.com/vocalis/llm-feedback-service/internal/metrics"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Metrics     *metrics.Metrics
	RateLimit   *mw.RateLimit
	CORSOrigins []string

	RootHandler     http.HandlerFunc
	HealthHandler   http.HandlerFunc
	GenerateHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RealIP)
	r.Use(mw.RequestID)
	r.Use(mw.Logger(deps.Metrics))
	r.Use(mw.Recovery)
	r.Use(mw.CORS(deps.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, response.CodeNotFound, "Not Found")
	})

	r.Get("/", orNotImplemented(deps.RootHandler))
	r.Get("/feedback/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.Limit)
		r.Post("/feedback/generate", orNotImplemented(deps.GenerateHandler))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented")
	}
}
