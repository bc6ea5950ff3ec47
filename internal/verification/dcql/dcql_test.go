package dcql

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboard/internal/credentials"
	dErrors "onboard/pkg/domain-errors"
)

func TestForTypePID(t *testing.T) {
	q, err := ForType(credentials.TypePID)
	require.NoError(t, err)

	assert.Equal(t, "mso_mdoc", q.Format)
	assert.Equal(t, credentials.NamespacePID, q.Meta.DocTypeValue)
	require.Len(t, q.Claims, 6)

	retained := map[string]bool{}
	for _, c := range q.Claims {
		require.Len(t, c.Path, 2)
		assert.Equal(t, credentials.NamespacePID, c.Path[0])
		retained[c.Path[1]] = c.IntentToRetain
	}
	assert.Equal(t, map[string]bool{
		"family_name":         true,
		"given_name":          true,
		"birth_date":          true,
		"nationality":         true,
		"email_address":       true,
		"mobile_phone_number": false,
	}, retained)
}

func TestForTypeQualifications(t *testing.T) {
	tests := []struct {
		typ     credentials.Type
		format  string
		docType string
		vct     []string
	}{
		{credentials.TypeDiploma, "dc+sd-jwt", "", []string{credentials.NamespaceDiploma}},
		{credentials.TypeTaxResidency, "dc+sd-jwt", "", []string{credentials.NamespaceTaxResidency}},
		{credentials.TypeSeafarer, "mso_mdoc", credentials.NamespaceSeafarer, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			q, err := ForType(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.format, q.Format)
			assert.Equal(t, tt.docType, q.Meta.DocTypeValue)
			assert.Equal(t, tt.vct, q.Meta.VctValues)
			assert.Empty(t, q.Claims, "whole credential is requested")
		})
	}
}

func TestForTypeRejectsUnrequestable(t *testing.T) {
	for _, typ := range []credentials.Type{credentials.TypeEmployee, credentials.TypeNone, "BOGUS"} {
		_, err := ForType(typ)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestBuildConcatenates(t *testing.T) {
	q, err := Build(credentials.TypeDiploma, credentials.TypeSeafarer, credentials.TypeDiploma)
	require.NoError(t, err)
	require.Len(t, q.Credentials, 2)
	assert.Equal(t, "diploma", q.Credentials[0].ID)
	assert.Equal(t, "seafarer", q.Credentials[1].ID)

	_, err = Build()
	require.Error(t, err)
}

func TestNewPresentationRequest(t *testing.T) {
	q, err := Build(credentials.TypePID)
	require.NoError(t, err)

	t.Run("cross device has no redirect template", func(t *testing.T) {
		req := NewPresentationRequest(q, "nonce-1", "")
		raw, err := json.Marshal(req)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "wallet_response_redirect_uri_template")
		assert.Equal(t, "vp_token", req.Type)
	})

	t.Run("same device carries the response code placeholder", func(t *testing.T) {
		req := NewPresentationRequest(q, "nonce-1", "https://onboard.example/apply/app-1")
		assert.Equal(t, "https://onboard.example/apply/app-1?response_code={RESPONSE_CODE}", req.WalletResponseRedirectURITemplate)

		req = NewPresentationRequest(q, "nonce-1", "https://onboard.example/apply?step=verify")
		assert.Equal(t, "https://onboard.example/apply?step=verify&response_code={RESPONSE_CODE}", req.WalletResponseRedirectURITemplate)
	})
}
