// Package dcql builds the Digital Credentials Query Language fragments sent to
// the verification backend.
package dcql

import (
	"strings"

	"onboard/internal/credentials"
	dErrors "onboard/pkg/domain-errors"
)

// ResponseCodePlaceholder is substituted by the verifier in the same-device
// redirect URI.
const ResponseCodePlaceholder = "{RESPONSE_CODE}"

type Query struct {
	Credentials []CredentialQuery `json:"credentials"`
}

type CredentialQuery struct {
	ID     string  `json:"id"`
	Format string  `json:"format"`
	Meta   Meta    `json:"meta"`
	Claims []Claim `json:"claims,omitempty"`
}

type Meta struct {
	DocTypeValue string   `json:"doctype_value,omitempty"`
	VctValues    []string `json:"vct_values,omitempty"`
}

type Claim struct {
	Path           []string `json:"path"`
	IntentToRetain bool     `json:"intent_to_retain"`
}

// PresentationRequest is the body of the verifier's presentation init call.
type PresentationRequest struct {
	Type                              string `json:"type"`
	DCQLQuery                         Query  `json:"dcql_query"`
	Nonce                             string `json:"nonce"`
	RequestURIMethod                  string `json:"request_uri_method"`
	WalletResponseRedirectURITemplate string `json:"wallet_response_redirect_uri_template,omitempty"`
}

// pidClaims lists the person identification claims requested, in order.
var pidClaims = []struct {
	name   string
	retain bool
}{
	{"family_name", true},
	{"given_name", true},
	{"birth_date", true},
	{"nationality", true},
	{"email_address", true},
	{"mobile_phone_number", false},
}

var builders = map[credentials.Type]func() CredentialQuery{
	credentials.TypePID: func() CredentialQuery {
		q := mdoc(credentials.TypePID, credentials.NamespacePID)
		for _, c := range pidClaims {
			q.Claims = append(q.Claims, Claim{
				Path:           []string{credentials.NamespacePID, c.name},
				IntentToRetain: c.retain,
			})
		}
		return q
	},
	credentials.TypeDiploma: func() CredentialQuery {
		return sdJWT(credentials.TypeDiploma, credentials.NamespaceDiploma)
	},
	credentials.TypeSeafarer: func() CredentialQuery {
		return mdoc(credentials.TypeSeafarer, credentials.NamespaceSeafarer)
	},
	credentials.TypeTaxResidency: func() CredentialQuery {
		return sdJWT(credentials.TypeTaxResidency, credentials.NamespaceTaxResidency)
	},
}

func mdoc(t credentials.Type, docType string) CredentialQuery {
	return CredentialQuery{
		ID:     strings.ToLower(string(t)),
		Format: string(credentials.FormatMdoc),
		Meta:   Meta{DocTypeValue: docType},
	}
}

func sdJWT(t credentials.Type, vct string) CredentialQuery {
	return CredentialQuery{
		ID:     strings.ToLower(string(t)),
		Format: string(credentials.FormatSDJWT),
		Meta:   Meta{VctValues: []string{vct}},
	}
}

// ForType returns the query fragment for one credential type.
func ForType(t credentials.Type) (CredentialQuery, error) {
	build, ok := builders[t]
	if !ok {
		return CredentialQuery{}, dErrors.New(dErrors.CodeInvalidInput, "credential type "+string(t)+" cannot be requested")
	}
	return build(), nil
}

// Build concatenates the fragments for types into one query. Duplicates are
// requested once.
func Build(types ...credentials.Type) (Query, error) {
	if len(types) == 0 {
		return Query{}, dErrors.New(dErrors.CodeInvalidInput, "at least one credential type is required")
	}
	seen := make(map[credentials.Type]bool, len(types))
	q := Query{}
	for _, t := range types {
		if seen[t] {
			continue
		}
		seen[t] = true
		fragment, err := ForType(t)
		if err != nil {
			return Query{}, err
		}
		q.Credentials = append(q.Credentials, fragment)
	}
	return q, nil
}

// NewPresentationRequest wraps query for the verifier. A non-empty
// redirectBaseURL selects the same-device flow: the wallet returns to it with
// the response code appended.
func NewPresentationRequest(query Query, nonce, redirectBaseURL string) PresentationRequest {
	req := PresentationRequest{
		Type:             "vp_token",
		DCQLQuery:        query,
		Nonce:            nonce,
		RequestURIMethod: "get",
	}
	if redirectBaseURL != "" {
		sep := "?"
		if strings.Contains(redirectBaseURL, "?") {
			sep = "&"
		}
		req.WalletResponseRedirectURITemplate = redirectBaseURL + sep + "response_code=" + ResponseCodePlaceholder
	}
	return req
}
