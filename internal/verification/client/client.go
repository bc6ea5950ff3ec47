// Package client talks to the OpenID4VP verification backend: it starts
// presentation transactions and polls them for the wallet's response.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"onboard/internal/claims"
	"onboard/internal/platform/metrics"
	"onboard/internal/verification/dcql"
	dErrors "onboard/pkg/domain-errors"
)

const (
	DefaultWalletScheme = "eudi-openid4vp://"
	presentationsPath   = "/ui/presentations"
	maxResponseBytes    = 4 << 20
	backendName         = "verifier"
)

// Transaction is a started presentation request.
type Transaction struct {
	TransactionID string
	ClientID      string
	RequestURI    string
	// DeepLink opens the wallet on the same device or is rendered as a QR code.
	DeepLink string
}

// PollResult is the outcome of one status poll. Ready is false while the
// wallet has not answered yet.
type PollResult struct {
	Ready        bool
	Presentation claims.Presentation
	Entries      int
	Skipped      int
}

// Client is the verification backend HTTP client.
type Client struct {
	baseURL      string
	walletScheme string
	httpClient   *http.Client
	decoder      *claims.Decoder
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithWalletScheme(scheme string) Option {
	return func(c *Client) {
		if scheme != "" {
			c.walletScheme = scheme
		}
	}
}

func WithDecoder(d *claims.Decoder) Option {
	return func(c *Client) { c.decoder = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		walletScheme: DefaultWalletScheme,
		tracer:       otel.Tracer("onboard/verification/client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.decoder == nil {
		c.decoder = claims.NewDecoder(claims.WithLogger(c.logger))
	}
	return c
}

type initResponse struct {
	ClientID      string `json:"client_id"`
	RequestURI    string `json:"request_uri"`
	TransactionID string `json:"transaction_id"`
}

// InitPresentation starts a transaction for req.
func (c *Client) InitPresentation(ctx context.Context, req dcql.PresentationRequest) (*Transaction, error) {
	ctx, span := c.tracer.Start(ctx, "verifier.init_presentation",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("dcql.credentials", len(req.DCQLQuery.Credentials))),
	)
	defer span.End()
	start := time.Now()

	tx, err := c.initPresentation(ctx, req)
	c.observe(span, "init", start, err)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("verifier.transaction_id", tx.TransactionID))
	return tx, nil
}

func (c *Client) initPresentation(ctx context.Context, req dcql.PresentationRequest) (*Transaction, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode presentation request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+presentationsPath, bytes.NewReader(body))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build presentation request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "verification backend unreachable")
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "read verification backend response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.ErrorContext(ctx, "verification init rejected",
			"status", resp.StatusCode,
			"body", truncate(raw, 512),
		)
		return nil, dErrors.New(dErrors.CodeBadGateway, fmt.Sprintf("verification backend returned %d", resp.StatusCode))
	}

	var out initResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "decode verification backend response")
	}
	if out.TransactionID == "" || out.RequestURI == "" || out.ClientID == "" {
		return nil, dErrors.New(dErrors.CodeBadGateway, "verification backend response is incomplete")
	}
	return &Transaction{
		TransactionID: out.TransactionID,
		ClientID:      out.ClientID,
		RequestURI:    out.RequestURI,
		DeepLink:      c.DeepLink(out.ClientID, out.RequestURI),
	}, nil
}

// DeepLink builds `<scheme>?client_id=..&request_uri=..`.
func (c *Client) DeepLink(clientID, requestURI string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("request_uri", requestURI)
	return c.walletScheme + "?" + q.Encode()
}

type pollResponse struct {
	VPToken any `json:"vp_token"`
}

// PollPresentation fetches the wallet response for transactionID and decodes
// every presentation in it. The backend answers 400/404/425 until the wallet
// has responded; those map to Ready=false.
func (c *Client) PollPresentation(ctx context.Context, transactionID, responseCode string) (*PollResult, error) {
	ctx, span := c.tracer.Start(ctx, "verifier.poll_presentation",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("verifier.transaction_id", transactionID)),
	)
	defer span.End()
	start := time.Now()

	result, err := c.pollPresentation(ctx, transactionID, responseCode)
	c.observe(span, "poll", start, err)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("verifier.ready", result.Ready))
	return result, nil
}

func (c *Client) pollPresentation(ctx context.Context, transactionID, responseCode string) (*PollResult, error) {
	if transactionID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "transaction id is required")
	}
	endpoint := c.baseURL + presentationsPath + "/" + url.PathEscape(transactionID)
	if responseCode != "" {
		endpoint += "?" + url.Values{"response_code": {responseCode}}.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build poll request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "verification backend unreachable")
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "read verification backend response")
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusTooEarly:
		return &PollResult{Ready: false}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, dErrors.New(dErrors.CodeBadGateway, fmt.Sprintf("verification backend returned %d", resp.StatusCode))
	}

	var out pollResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "decode verification backend response")
	}
	entries := claims.FlattenVPToken(out.VPToken)
	if len(entries) == 0 {
		return &PollResult{Ready: false}, nil
	}
	decoded := c.decoder.DecodeAll(entries)
	if decoded.Skipped > 0 {
		c.metrics.AddClaimDecodeFailures(decoded.Skipped)
		c.logger.WarnContext(ctx, "some presentations could not be decoded",
			"transaction_id", transactionID,
			"skipped", decoded.Skipped,
			"entries", len(entries),
		)
	}
	return &PollResult{
		Ready:        true,
		Presentation: decoded.Namespaces,
		Entries:      len(entries),
		Skipped:      decoded.Skipped,
	}, nil
}

func (c *Client) observe(span trace.Span, operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	c.metrics.ObserveBackend(backendName, operation, outcome, time.Since(start))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
