// Package response writes JSON bodies in the shape Vocalis clients consume:
// success payloads are written flat, errors as {"detail", "code"}.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeInvalid     = "INVALID_REQUEST"
	CodeRateLimited = "RATE_LIMIT_EXCEEDED"
	CodeInternal    = "INTERNAL_ERROR"
	CodeNotFound    = "NOT_FOUND"
)

type errorBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// JSON writes data with status 200.
func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

// Error writes an error body.
func Error(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorBody{Detail: detail, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing response body", "error", err)
	}
}
