package models

// SHA256OID identifies the digest algorithm of DocumentDigests.
const SHA256OID = "2.16.840.1.101.3.4.2.1"

// RetrievalRequest is the payload a wallet fetches to learn what to sign.
type RetrievalRequest struct {
	ResponseType       string             `json:"response_type"`
	ClientIDScheme     string             `json:"client_id_scheme"`
	ResponseMode       string             `json:"response_mode"`
	SignatureQualifier string             `json:"signatureQualifier"`
	HashAlgorithmOID   string             `json:"hashAlgorithmOID"`
	DocumentDigests    []DocumentDigest   `json:"documentDigests"`
	DocumentLocations  []DocumentLocation `json:"documentLocations"`
	ClientID           string             `json:"client_id"`
	ResponseURI        string             `json:"response_uri"`
	Nonce              string             `json:"nonce"`
	State              string             `json:"state"`
}

type DocumentDigest struct {
	Hash  string `json:"hash"`
	Label string `json:"label"`
}

type DocumentLocation struct {
	URI    string         `json:"uri"`
	Method LocationMethod `json:"method"`
}

type LocationMethod struct {
	Type string `json:"type"`
}

// NewRetrievalRequest builds the fixed retrieval structure for a pending
// document. documentURI serves the bytes, responseURI receives the callback.
func (d *SignedDocument) NewRetrievalRequest(clientID, documentURI, responseURI string) RetrievalRequest {
	return RetrievalRequest{
		ResponseType:       "vp_token",
		ClientIDScheme:     "x509_san_dns",
		ResponseMode:       "direct_post",
		SignatureQualifier: "eu_eidas_qes",
		HashAlgorithmOID:   SHA256OID,
		DocumentDigests:    []DocumentDigest{{Hash: d.DocumentHash, Label: d.DocumentLabel}},
		DocumentLocations:  []DocumentLocation{{URI: documentURI, Method: LocationMethod{Type: "public"}}},
		ClientID:           clientID,
		ResponseURI:        responseURI,
		Nonce:              d.Nonce,
		State:              d.State,
	}
}
