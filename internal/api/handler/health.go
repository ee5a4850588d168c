package handler

import (
	"context"
	"net/http"

	"github.com/vocalis/llm-feedback-service/internal/api/response"
	"github.com/vocalis/llm-feedback-service/pkg/models"
)

// ServiceInfo identifies the running service.
type ServiceInfo struct {
	Name    string
	Version string
}

// ProviderProbe reports completion provider connectivity.
type ProviderProbe interface {
	Check(ctx context.Context) models.ProviderState
	Configured() bool
	ProviderName() string
}

type healthResponse struct {
	Status                      string               `json:"status"`
	Service                     string               `json:"service"`
	Version                     string               `json:"version"`
	CompletionProvider          *string              `json:"completion_provider"`
	CompletionProviderState     models.ProviderState `json:"completion_provider_state"`
	CompletionProviderConnected bool                 `json:"completion_provider_connected"`
}

// NewHealthHandler returns an http.HandlerFunc for GET /feedback/health.
// It always answers 200; "degraded" means a configured provider is unreachable.
func NewHealthHandler(info ServiceInfo, probe ProviderProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:                  "healthy",
			Service:                 info.Name,
			Version:                 info.Version,
			CompletionProviderState: models.ProviderUnknown,
		}

		if probe != nil && probe.Configured() {
			name := probe.ProviderName()
			resp.CompletionProvider = &name
			resp.CompletionProviderState = probe.Check(r.Context())
		}

		resp.CompletionProviderConnected = resp.CompletionProviderState == models.ProviderReachable
		if resp.CompletionProviderState == models.ProviderUnreachable {
			resp.Status = "degraded"
		}

		response.JSON(w, resp)
	}
}

// NewRootHandler returns an http.HandlerFunc for GET /.
func NewRootHandler(info ServiceInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, map[string]string{
			"service": info.Name,
			"version": info.Version,
			"status":  "running",
		})
	}
}
