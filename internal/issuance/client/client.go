// Package client requests credential offers from the OpenID4VCI issuer
// backend and turns them into wallet deep links.
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

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"onboard/internal/keystore"
	"onboard/internal/platform/metrics"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/requestcontext"
)

const (
	// PreAuthorizedCodeGrant is the only grant offered.
	PreAuthorizedCodeGrant = "urn:ietf:params:oauth:grant-type:pre-authorized_code"
	OfferScheme            = "openid-credential-offer://"
	offerPath              = "/credentialOfferReq2"
	requestTTL             = 5 * time.Minute
	maxResponseBytes       = 1 << 20
	backendName            = "issuer"
)

// OfferRequest asks the issuer for one credential.
type OfferRequest struct {
	CredentialConfigurationID string
	Data                      map[string]any
}

// Offer is a parsed credential offer. DeepLink never carries the OTP.
type Offer struct {
	PreAuthorizedCode string
	// OTP is the transaction code the candidate types into the wallet; empty
	// when the issuer did not require one.
	OTP      string
	DeepLink string
	// OfferJSON is the offer as embedded in DeepLink.
	OfferJSON string
}

type Client struct {
	baseURL    string
	issuerID   string
	audience   string
	keys       keystore.Keystore
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New builds a client. issuerID and audience become the iss and aud of the
// signed offer request.
func New(baseURL, issuerID, audience string, keys keystore.Keystore, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		issuerID: issuerID,
		audience: audience,
		keys:     keys,
		tracer:   otel.Tracer("onboard/issuance/client"),
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
	return c
}

type offerClaims struct {
	Grants      []string          `json:"grants"`
	Credentials []offerCredential `json:"credentials"`
	jwt.RegisteredClaims
}

type offerCredential struct {
	CredentialConfigurationID string         `json:"credential_configuration_id"`
	Data                      map[string]any `json:"data"`
}

// RequestOffer signs req and posts it to the issuer.
func (c *Client) RequestOffer(ctx context.Context, req OfferRequest) (*Offer, error) {
	ctx, span := c.tracer.Start(ctx, "issuer.request_offer",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("issuer.credential_configuration_id", req.CredentialConfigurationID)),
	)
	defer span.End()
	start := time.Now()

	offer, err := c.requestOffer(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	c.metrics.ObserveBackend(backendName, "offer", outcome, time.Since(start))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("issuer.otp", offer.OTP != ""))
	return offer, nil
}

// SignRequest builds the short-lived ES256 offer request JWT.
func (c *Client) SignRequest(ctx context.Context, req OfferRequest) (string, error) {
	if req.CredentialConfigurationID == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "credential configuration id is required")
	}
	material, err := c.keys.Material(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "signing key unavailable")
	}
	now := requestcontext.Now(ctx)
	token := jwt.NewWithClaims(jwt.SigningMethodES256, offerClaims{
		Grants: []string{PreAuthorizedCodeGrant},
		Credentials: []offerCredential{{
			CredentialConfigurationID: req.CredentialConfigurationID,
			Data:                      req.Data,
		}},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuerID,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(requestTTL)),
		},
	})
	token.Header["x5c"] = []string{material.CertificateBase64}
	signed, err := token.SignedString(material.PrivateKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign offer request")
	}
	return signed, nil
}

func (c *Client) requestOffer(ctx context.Context, req OfferRequest) (*Offer, error) {
	signed, err := c.SignRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	form := url.Values{"request": {signed}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+offerPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build offer request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "issuer unreachable")
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "read issuer response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.ErrorContext(ctx, "credential offer rejected",
			"status", resp.StatusCode,
			"body", truncate(raw, 512),
		)
		return nil, dErrors.New(dErrors.CodeBadGateway, fmt.Sprintf("issuer returned %d", resp.StatusCode))
	}
	return ParseOffer(raw)
}

// ParseOffer extracts the pre-authorized code and OTP from a credential offer
// and builds the deep link from the offer with the OTP value removed.
func ParseOffer(raw []byte) (*Offer, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var offer map[string]any
	if err := dec.Decode(&offer); err != nil || offer == nil {
		return nil, dErrors.New(dErrors.CodeBadGateway, "issuer returned an invalid credential offer")
	}
	grants, _ := offer["grants"].(map[string]any)
	grant, _ := grants[PreAuthorizedCodeGrant].(map[string]any)
	code, _ := grant["pre-authorized_code"].(string)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeBadGateway, "credential offer has no pre-authorized code")
	}

	otp := ""
	if txCode, ok := grant["tx_code"].(map[string]any); ok {
		switch v := txCode["value"].(type) {
		case string:
			otp = v
		case json.Number:
			otp = v.String()
		}
		delete(txCode, "value")
	}

	stripped, err := json.Marshal(offer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode credential offer")
	}
	return &Offer{
		PreAuthorizedCode: code,
		OTP:               otp,
		DeepLink:          OfferScheme + "?" + url.Values{"credential_offer": {string(stripped)}}.Encode(),
		OfferJSON:         string(stripped),
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
