package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/vocalis/llm-feedback-service/internal/api/response"
)

// Recovery turns a handler panic into a 500 JSON error. http.ErrAbortHandler
// is re-raised so net/http can abort the connection quietly.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			slog.Error("handler panicked",
				"request_id", GetRequestID(r),
				"route", routePattern(r),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			response.Error(w, http.StatusInternalServerError, response.CodeInternal,
				"Error interno del servidor")
		}()
		next.ServeHTTP(w, r)
	})
}
