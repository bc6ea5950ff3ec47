package testutil

import (
	"context"
	"io"
	"log/slog"
	"time"

	"onboard/pkg/requestcontext"
)

// FixedNow is the instant most service tests pin as "now".
var FixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

// Context returns a background context carrying FixedNow and a request id.
func Context() context.Context {
	ctx := requestcontext.WithTime(context.Background(), FixedNow)
	return requestcontext.WithRequestID(ctx, "req-test")
}

// ContextAt returns a context whose request time is now.
func ContextAt(now time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), now)
}

// DiscardLogger drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
