package audit

import (
	"strconv"
	"time"

	"onboard/internal/events"
)

// Action names recorded in the trail.
const (
	ActionApplicationVerified    = "application_verified"
	ActionQualificationVerified  = "qualification_verified"
	ActionDocumentSigned         = "document_signed"
	ActionDocumentSigningFailed  = "document_signing_failed"
	ActionCredentialOfferCreated = "credential_offer_created"
	ActionCredentialClaimed      = "credential_claimed"
)

// Entry is one append-only audit record. Entries never carry claim values.
type Entry struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	Action        string    `json:"action"`
	Subject       string    `json:"subject,omitempty"`
	Decision      string    `json:"decision,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// FromEvent maps a domain event to its audit entry. Unknown events keep their
// event name as the action.
func FromEvent(e events.Event) Entry {
	entry := Entry{
		ApplicationID: e.AggregateID(),
		Action:        e.Name(),
		OccurredAt:    e.OccurredAt(),
	}
	switch ev := e.(type) {
	case events.ApplicationVerified:
		entry.Action = ActionApplicationVerified
		entry.Subject = "identity"
		entry.Decision = "verified"
	case events.QualificationVerified:
		entry.Action = ActionQualificationVerified
		entry.Subject = ev.CredentialType
		entry.Decision = "verified"
	case events.DocumentSigned:
		entry.Action = ActionDocumentSigned
		entry.Subject = ev.DocumentID
		entry.Decision = "signed"
	case events.DocumentSigningFailed:
		entry.Action = ActionDocumentSigningFailed
		entry.Subject = ev.DocumentID
		entry.Decision = "failed"
		entry.Reason = ev.ErrorCode
	case events.CredentialOfferCreated:
		entry.Action = ActionCredentialOfferCreated
		entry.Subject = ev.CredentialType
		entry.Decision = "offered"
		if ev.Superseded > 0 {
			entry.Reason = "superseded " + strconv.Itoa(ev.Superseded) + " live offer(s)"
		}
	case events.CredentialClaimed:
		entry.Action = ActionCredentialClaimed
		entry.Subject = ev.CredentialType
		entry.Decision = "claimed"
	}
	return entry
}
