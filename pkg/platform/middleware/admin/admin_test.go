package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireOperatorToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		expected string
		sent     string
		status   int
	}{
		{name: "matching token passes", expected: "s3cret", sent: "s3cret", status: http.StatusNoContent},
		{name: "wrong token is rejected", expected: "s3cret", sent: "nope", status: http.StatusUnauthorized},
		{name: "missing token is rejected", expected: "s3cret", sent: "", status: http.StatusUnauthorized},
		{name: "unconfigured token rejects everything", expected: "", sent: "", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/applications/app-1/reject", nil)
			if tt.sent != "" {
				req.Header.Set(HeaderOperatorToken, tt.sent)
			}
			rec := httptest.NewRecorder()
			RequireOperatorToken(tt.expected, logger)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
