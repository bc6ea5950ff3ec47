// Package httpclient builds outbound HTTP clients for the verifier and issuer
// backends.
package httpclient

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"onboard/internal/platform/config"
	"onboard/pkg/platform/circuit"
)

const defaultTimeout = 10 * time.Second

type options struct {
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*options)

// WithBreaker fails requests fast while the backend keeps erroring.
func WithBreaker(b *circuit.Breaker, logger *slog.Logger) Option {
	return func(o *options) {
		o.breaker = b
		o.logger = logger
	}
}

// New returns a client with the given timeout. When oauth.TokenURL is set, the
// client obtains and refreshes a client-credentials access token and sends it
// as a bearer token on every request.
func New(ctx context.Context, timeout time.Duration, oauth config.OAuth2, opts ...Option) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var transport http.RoundTripper = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	if o.breaker != nil {
		transport = &circuit.Transport{Base: transport, Breaker: o.breaker, Logger: o.logger}
	}
	base := &http.Client{Timeout: timeout, Transport: transport}
	if oauth.TokenURL == "" {
		return base
	}

	cc := clientcredentials.Config{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		TokenURL:     oauth.TokenURL,
		Scopes:       oauth.Scopes,
	}
	// Token requests reuse the base client's transport and timeout.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := cc.Client(ctx)
	client.Timeout = timeout
	return client
}
