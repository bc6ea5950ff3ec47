package models

import (
	"maps"
	"strings"
	"time"

	"onboard/internal/credentials"
	"onboard/internal/events"
	dErrors "onboard/pkg/domain-errors"
)

// Status is the lifecycle state of a verification request row.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusVerified Status = "VERIFIED"
	StatusFailed   Status = "FAILED"
)

// Failure reasons recorded by the workflow itself.
const (
	ReasonSuperseded = "superseded"
	ReasonCancelled  = "cancelled"
)

// VerifiedCredential is one requested credential within a verifier
// transaction. Several rows share a transaction when requested together.
//
// Invariants:
//   - created PENDING with a transaction id and request URI
//   - leaves PENDING exactly once; VERIFIED and FAILED are terminal
//   - never deleted; superseded requests are FAILED
type VerifiedCredential struct {
	ID                    string
	ApplicationID         string
	CredentialType        credentials.Type
	Namespace             string
	VerifierTransactionID string
	VerifierRequestURI    string
	CredentialData        map[string]any
	Status                Status
	FailureReason         string
	CreatedAt             time.Time
	VerifiedAt            *time.Time
	UpdatedAt             time.Time

	recorder events.Recorder
}

func NewVerifiedCredential(id, applicationID string, credentialType credentials.Type, transactionID, requestURI string, now time.Time) (*VerifiedCredential, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(applicationID) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "credential id and application id are required")
	}
	if transactionID == "" || requestURI == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "verifier transaction id and request uri are required")
	}
	namespace, ok := credentialType.Namespace()
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "credential type "+string(credentialType)+" cannot be verified")
	}
	return &VerifiedCredential{
		ID:                    id,
		ApplicationID:         applicationID,
		CredentialType:        credentialType,
		Namespace:             namespace,
		VerifierTransactionID: transactionID,
		VerifierRequestURI:    requestURI,
		Status:                StatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

func (c *VerifiedCredential) IsPending() bool { return c.Status == StatusPending }

// MarkAsVerified stores the decoded claims. Qualification credentials raise
// QualificationVerified; PID completion is an application-level fact and
// raises nothing here.
func (c *VerifiedCredential) MarkAsVerified(data map[string]any, now time.Time) error {
	if !c.IsPending() {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot verify credential in status "+string(c.Status))
	}
	c.Status = StatusVerified
	c.CredentialData = maps.Clone(data)
	c.VerifiedAt = &now
	c.UpdatedAt = now
	if c.CredentialType.IsQualification() {
		c.recorder.Record(events.QualificationVerified{
			ApplicationID:  c.ApplicationID,
			CredentialID:   c.ID,
			CredentialType: string(c.CredentialType),
			At:             now,
		})
	}
	return nil
}

func (c *VerifiedCredential) MarkAsFailed(reason string, now time.Time) error {
	if !c.IsPending() {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot fail credential in status "+string(c.Status))
	}
	c.Status = StatusFailed
	c.FailureReason = reason
	c.UpdatedAt = now
	return nil
}

// PullEvents drains the events raised since the last pull.
func (c *VerifiedCredential) PullEvents() []events.Event {
	return c.recorder.PullEvents()
}

// Clone returns a copy without pending events.
func (c *VerifiedCredential) Clone() *VerifiedCredential {
	cp := *c
	cp.recorder = events.Recorder{}
	cp.CredentialData = maps.Clone(c.CredentialData)
	if c.VerifiedAt != nil {
		at := *c.VerifiedAt
		cp.VerifiedAt = &at
	}
	return &cp
}
