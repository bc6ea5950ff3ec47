package circuit

import (
	"errors"
	"log/slog"
	"net/http"
)

// ErrOpen is returned by Transport without contacting the backend.
var ErrOpen = errors.New("circuit open")

// Transport counts transport errors and 5xx responses as failures.
type Transport struct {
	Base    http.RoundTripper
	Breaker *Breaker
	Logger  *slog.Logger
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.Breaker.Allow() {
		return nil, ErrOpen
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode >= http.StatusInternalServerError {
		if _, change := t.Breaker.RecordFailure(); change.Opened {
			t.log().WarnContext(req.Context(), "circuit opened", "backend", t.Breaker.Name(), "host", req.URL.Host)
		}
		return resp, err
	}
	if _, change := t.Breaker.RecordSuccess(); change.Closed {
		t.log().InfoContext(req.Context(), "circuit closed", "backend", t.Breaker.Name(), "host", req.URL.Host)
	}
	return resp, nil
}

func (t *Transport) log() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}
