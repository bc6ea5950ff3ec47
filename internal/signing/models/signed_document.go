package models

import (
	"crypto/sha256"
	"encoding/base64"
	"slices"
	"strings"
	"time"

	"onboard/internal/events"
	dErrors "onboard/pkg/domain-errors"
)

// Status is the lifecycle state of a signing attempt.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSigned  Status = "SIGNED"
	StatusFailed  Status = "FAILED"
)

// Failure codes set by callback validation. Wallet-reported codes are stored
// verbatim.
const (
	ErrorInvalidVPToken   = "invalid_vp_token"
	ErrorNonceMismatch    = "nonce_mismatch"
	ErrorMissingSignature = "missing_signature"
	ErrorSuperseded       = "superseded"
)

// SignedDocument is one signing attempt for a rendered document.
//
// Invariants:
//   - State and Nonce are fixed at creation and unique per attempt
//   - DocumentHash is base64(SHA-256(Content))
//   - leaves PENDING exactly once; SIGNED and FAILED are terminal
type SignedDocument struct {
	ID            string
	ApplicationID string
	DocumentType  string
	DocumentLabel string
	DocumentHash  string
	// Content is nil when loaded as metadata only.
	Content               []byte
	ContentType           string
	State                 string
	Nonce                 string
	DocumentWithSignature []string
	SignatureObject       []string
	Status                Status
	ErrorCode             string
	CreatedAt             time.Time
	SignedAt              *time.Time
	UpdatedAt             time.Time

	recorder events.Recorder
}

// Draft is the rendered document handed to the signing engine.
type Draft struct {
	DocumentType string
	Label        string
	ContentType  string
	Content      []byte
}

// HashContent returns base64(SHA-256(content)).
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func NewSignedDocument(id, applicationID string, draft Draft, state, nonce string, now time.Time) (*SignedDocument, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(applicationID) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document id and application id are required")
	}
	if state == "" || nonce == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "signing state and nonce are required")
	}
	if len(draft.Content) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document content cannot be empty")
	}
	return &SignedDocument{
		ID:            id,
		ApplicationID: applicationID,
		DocumentType:  draft.DocumentType,
		DocumentLabel: draft.Label,
		DocumentHash:  HashContent(draft.Content),
		Content:       slices.Clone(draft.Content),
		ContentType:   draft.ContentType,
		State:         state,
		Nonce:         nonce,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (d *SignedDocument) IsPending() bool { return d.Status == StatusPending }

// MarkAsSigned stores the signed artefacts returned by the wallet and raises
// DocumentSigned.
func (d *SignedDocument) MarkAsSigned(documentWithSignature, signatureObject []string, now time.Time) error {
	if !d.IsPending() {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot sign document in status "+string(d.Status))
	}
	d.Status = StatusSigned
	d.DocumentWithSignature = slices.Clone(documentWithSignature)
	d.SignatureObject = slices.Clone(signatureObject)
	d.SignedAt = &now
	d.UpdatedAt = now
	d.recorder.Record(events.DocumentSigned{
		ApplicationID: d.ApplicationID,
		DocumentID:    d.ID,
		DocumentType:  d.DocumentType,
		At:            now,
	})
	return nil
}

func (d *SignedDocument) MarkAsFailed(errorCode string, now time.Time) error {
	if !d.IsPending() {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot fail document in status "+string(d.Status))
	}
	d.Status = StatusFailed
	d.ErrorCode = errorCode
	d.UpdatedAt = now
	d.recorder.Record(events.DocumentSigningFailed{
		ApplicationID: d.ApplicationID,
		DocumentID:    d.ID,
		ErrorCode:     errorCode,
		At:            now,
	})
	return nil
}

func (d *SignedDocument) PullEvents() []events.Event {
	return d.recorder.PullEvents()
}

// Clone returns a copy without pending events.
func (d *SignedDocument) Clone() *SignedDocument {
	cp := *d
	cp.recorder = events.Recorder{}
	cp.Content = slices.Clone(d.Content)
	cp.DocumentWithSignature = slices.Clone(d.DocumentWithSignature)
	cp.SignatureObject = slices.Clone(d.SignatureObject)
	if d.SignedAt != nil {
		at := *d.SignedAt
		cp.SignedAt = &at
	}
	return &cp
}

// Metadata returns a copy without the content bytes.
func (d *SignedDocument) Metadata() *SignedDocument {
	cp := d.Clone()
	cp.Content = nil
	return cp
}
