package handler

import (
	"time"

	"onboard/internal/application/models"
	"onboard/internal/application/service"
	"onboard/internal/audit"
	"onboard/internal/credentials"
	issuancemodels "onboard/internal/issuance/models"
	signingmodels "onboard/internal/signing/models"
	verificationmodels "onboard/internal/verification/models"
)

type ApplicationResponse struct {
	ID        string                `json:"id"`
	VacancyID string                `json:"vacancy_id"`
	Status    models.Status         `json:"status"`
	Candidate *models.CandidateInfo `json:"candidate,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// CredentialResponse omits the disclosed claim values.
type CredentialResponse struct {
	ID             string                    `json:"id"`
	CredentialType credentials.Type          `json:"credential_type"`
	Status         verificationmodels.Status `json:"status"`
	FailureReason  string                    `json:"failure_reason,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	VerifiedAt     *time.Time                `json:"verified_at,omitempty"`
}

type DocumentResponse struct {
	ID           string               `json:"id"`
	DocumentType string               `json:"document_type"`
	DocumentHash string               `json:"document_hash"`
	Status       signingmodels.Status `json:"status"`
	ErrorCode    string               `json:"error_code,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	SignedAt     *time.Time           `json:"signed_at,omitempty"`
}

type OfferResponse struct {
	ID             string           `json:"id"`
	CredentialType credentials.Type `json:"credential_type"`
	Claimed        bool             `json:"claimed"`
	ExpiresAt      time.Time        `json:"expires_at"`
	CreatedAt      time.Time        `json:"created_at"`
}

type OverviewResponse struct {
	Application ApplicationResponse  `json:"application"`
	Credentials []CredentialResponse `json:"credentials"`
	Documents   []DocumentResponse   `json:"documents"`
	Offers      []OfferResponse      `json:"offers"`
	Audit       []audit.Entry        `json:"audit"`
}

func toApplicationResponse(app *models.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:        app.ID,
		VacancyID: app.VacancyID,
		Status:    app.Status,
		Candidate: app.Candidate,
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}
}

func toOverviewResponse(o *service.Overview) OverviewResponse {
	resp := OverviewResponse{
		Application: toApplicationResponse(o.Application),
		Credentials: make([]CredentialResponse, 0, len(o.Credentials)),
		Documents:   make([]DocumentResponse, 0, len(o.Documents)),
		Offers:      make([]OfferResponse, 0, len(o.Offers)),
		Audit:       o.Audit,
	}
	if resp.Audit == nil {
		resp.Audit = []audit.Entry{}
	}
	for _, c := range o.Credentials {
		resp.Credentials = append(resp.Credentials, toCredentialResponse(c))
	}
	for _, d := range o.Documents {
		resp.Documents = append(resp.Documents, toDocumentResponse(d))
	}
	for _, offer := range o.Offers {
		resp.Offers = append(resp.Offers, toOfferResponse(offer))
	}
	return resp
}

func toCredentialResponse(c *verificationmodels.VerifiedCredential) CredentialResponse {
	return CredentialResponse{
		ID:             c.ID,
		CredentialType: c.CredentialType,
		Status:         c.Status,
		FailureReason:  c.FailureReason,
		CreatedAt:      c.CreatedAt,
		VerifiedAt:     c.VerifiedAt,
	}
}

func toDocumentResponse(d *signingmodels.SignedDocument) DocumentResponse {
	return DocumentResponse{
		ID:           d.ID,
		DocumentType: d.DocumentType,
		DocumentHash: d.DocumentHash,
		Status:       d.Status,
		ErrorCode:    d.ErrorCode,
		CreatedAt:    d.CreatedAt,
		SignedAt:     d.SignedAt,
	}
}

func toOfferResponse(o *issuancemodels.IssuedCredential) OfferResponse {
	return OfferResponse{
		ID:             o.ID,
		CredentialType: o.CredentialType,
		Claimed:        o.Claimed,
		ExpiresAt:      o.ExpiresAt,
		CreatedAt:      o.CreatedAt,
	}
}
