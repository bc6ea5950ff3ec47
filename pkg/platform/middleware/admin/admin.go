// Package admin guards operator-only endpoints.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	request "onboard/pkg/platform/middleware/request"
)

const HeaderOperatorToken = "X-Operator-Token"

// RequireOperatorToken rejects requests whose X-Operator-Token does not match
// expectedToken. An empty expectedToken rejects everything.
func RequireOperatorToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderOperatorToken)
			// Constant-time comparison.
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "operator token mismatch",
					"request_id", request.GetRequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"operator token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
