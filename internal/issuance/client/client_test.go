package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"onboard/internal/keystore"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/testutil"
)

const offerWithOTP = `{
	"credential_issuer": "https://issuer.example",
	"credential_configuration_ids": ["eu.europa.ec.eudi.employee_mdoc"],
	"grants": {
		"urn:ietf:params:oauth:grant-type:pre-authorized_code": {
			"pre-authorized_code": "pac-123",
			"tx_code": {"input_mode": "numeric", "length": 6, "value": 482913}
		}
	}
}`

type IssuerClientSuite struct {
	suite.Suite
	keys *keystore.Static
}

func TestIssuerClientSuite(t *testing.T) {
	suite.Run(t, new(IssuerClientSuite))
}

func (s *IssuerClientSuite) SetupSuite() {
	keys, err := keystore.NewEphemeral("onboard.example", testutil.FixedNow)
	s.Require().NoError(err)
	s.keys = keys
}

func (s *IssuerClientSuite) TestRequestOffer() {
	material, err := s.keys.Material(context.Background())
	s.Require().NoError(err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/credentialOfferReq2", r.URL.Path)
		s.Equal("application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		s.Require().NoError(r.ParseForm())

		token, err := jwt.Parse(r.PostForm.Get("request"),
			func(*jwt.Token) (any, error) { return material.PublicKey, nil },
			jwt.WithValidMethods([]string{"ES256"}),
			jwt.WithAudience("https://issuer.example"),
			jwt.WithIssuer("onboard"),
			jwt.WithTimeFunc(func() time.Time { return testutil.FixedNow }),
		)
		s.Require().NoError(err)
		s.Equal([]any{material.CertificateBase64}, token.Header["x5c"])

		claims := token.Claims.(jwt.MapClaims)
		s.Equal([]any{PreAuthorizedCodeGrant}, claims["grants"])
		exp, _ := claims.GetExpirationTime()
		s.Equal(testutil.FixedNow.Add(5*time.Minute).Unix(), exp.Unix())
		creds := claims["credentials"].([]any)
		s.Require().Len(creds, 1)
		cred := creds[0].(map[string]any)
		s.Equal("eu.europa.ec.eudi.employee_mdoc", cred["credential_configuration_id"])
		s.Equal("Aino", cred["data"].(map[string]any)["given_name"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(offerWithOTP))
	}))
	defer server.Close()

	c := New(server.URL, "onboard", "https://issuer.example", s.keys, WithLogger(testutil.DiscardLogger()))
	offer, err := c.RequestOffer(testutil.Context(), OfferRequest{
		CredentialConfigurationID: "eu.europa.ec.eudi.employee_mdoc",
		Data:                      map[string]any{"given_name": "Aino"},
	})
	s.Require().NoError(err)
	s.Equal("pac-123", offer.PreAuthorizedCode)
	s.Equal("482913", offer.OTP)
	s.NotContains(offer.DeepLink, "482913")
	s.True(strings.HasPrefix(offer.DeepLink, "openid-credential-offer://?credential_offer="))
}

func (s *IssuerClientSuite) TestRequestOfferBackendFailure() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, "onboard", "aud", s.keys, WithLogger(testutil.DiscardLogger()))
	_, err := c.RequestOffer(testutil.Context(), OfferRequest{CredentialConfigurationID: "cfg"})
	s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))

	_, err = c.RequestOffer(testutil.Context(), OfferRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestParseOffer(t *testing.T) {
	t.Run("strips the OTP but keeps the rest of tx_code", func(t *testing.T) {
		offer, err := ParseOffer([]byte(offerWithOTP))
		require.NoError(t, err)

		link, err := url.Parse(offer.DeepLink)
		require.NoError(t, err)
		var embedded map[string]any
		require.NoError(t, json.Unmarshal([]byte(link.Query().Get("credential_offer")), &embedded))
		grant := embedded["grants"].(map[string]any)[PreAuthorizedCodeGrant].(map[string]any)
		txCode := grant["tx_code"].(map[string]any)
		assert.NotContains(t, txCode, "value")
		assert.Equal(t, "numeric", txCode["input_mode"])
		assert.Equal(t, "pac-123", grant["pre-authorized_code"])
		assert.Equal(t, "https://issuer.example", embedded["credential_issuer"])
	})

	t.Run("string OTP", func(t *testing.T) {
		offer, err := ParseOffer([]byte(`{"grants":{"` + PreAuthorizedCodeGrant + `":{"pre-authorized_code":"p","tx_code":{"value":"0042"}}}}`))
		require.NoError(t, err)
		assert.Equal(t, "0042", offer.OTP)
	})

	t.Run("no tx_code", func(t *testing.T) {
		offer, err := ParseOffer([]byte(`{"grants":{"` + PreAuthorizedCodeGrant + `":{"pre-authorized_code":"p"}}}`))
		require.NoError(t, err)
		assert.Empty(t, offer.OTP)
	})

	t.Run("missing code", func(t *testing.T) {
		_, err := ParseOffer([]byte(`{"grants":{}}`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadGateway))
		_, err = ParseOffer([]byte(`not json`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadGateway))
	})
}
