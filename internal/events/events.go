// Package events holds the domain events raised by the workflow entities and
// the in-process dispatcher that fans them out to side effects.
package events

import "time"

// Event names.
const (
	NameApplicationVerified    = "application.verified"
	NameQualificationVerified  = "qualification.verified"
	NameDocumentSigned         = "document.signed"
	NameDocumentSigningFailed  = "document.signing_failed"
	NameCredentialOfferCreated = "credential_offer.created"
	NameCredentialClaimed      = "credential_offer.claimed"
)

// Event is a fact raised by an entity after a successful command.
type Event interface {
	Name() string
	AggregateID() string
	OccurredAt() time.Time
}

// ApplicationVerified is raised when the candidate's identity enters the
// application aggregate.
type ApplicationVerified struct {
	ApplicationID string    `json:"application_id"`
	FamilyName    string    `json:"family_name"`
	GivenName     string    `json:"given_name"`
	At            time.Time `json:"at"`
}

func (e ApplicationVerified) Name() string          { return NameApplicationVerified }
func (e ApplicationVerified) AggregateID() string   { return e.ApplicationID }
func (e ApplicationVerified) OccurredAt() time.Time { return e.At }

// QualificationVerified is raised by a qualification credential reaching VERIFIED.
type QualificationVerified struct {
	ApplicationID  string    `json:"application_id"`
	CredentialID   string    `json:"credential_id"`
	CredentialType string    `json:"credential_type"`
	At             time.Time `json:"at"`
}

func (e QualificationVerified) Name() string          { return NameQualificationVerified }
func (e QualificationVerified) AggregateID() string   { return e.ApplicationID }
func (e QualificationVerified) OccurredAt() time.Time { return e.At }

// DocumentSigned is raised when the wallet returns a valid signed document.
type DocumentSigned struct {
	ApplicationID string    `json:"application_id"`
	DocumentID    string    `json:"document_id"`
	DocumentType  string    `json:"document_type"`
	At            time.Time `json:"at"`
}

func (e DocumentSigned) Name() string          { return NameDocumentSigned }
func (e DocumentSigned) AggregateID() string   { return e.ApplicationID }
func (e DocumentSigned) OccurredAt() time.Time { return e.At }

// DocumentSigningFailed is raised when a signing attempt terminates in FAILED.
type DocumentSigningFailed struct {
	ApplicationID string    `json:"application_id"`
	DocumentID    string    `json:"document_id"`
	ErrorCode     string    `json:"error_code"`
	At            time.Time `json:"at"`
}

func (e DocumentSigningFailed) Name() string          { return NameDocumentSigningFailed }
func (e DocumentSigningFailed) AggregateID() string   { return e.ApplicationID }
func (e DocumentSigningFailed) OccurredAt() time.Time { return e.At }

// CredentialOfferCreated is raised when a new issuer offer becomes the live one.
type CredentialOfferCreated struct {
	ApplicationID  string    `json:"application_id"`
	OfferID        string    `json:"offer_id"`
	CredentialType string    `json:"credential_type"`
	Superseded     int       `json:"superseded"`
	At             time.Time `json:"at"`
}

func (e CredentialOfferCreated) Name() string          { return NameCredentialOfferCreated }
func (e CredentialOfferCreated) AggregateID() string   { return e.ApplicationID }
func (e CredentialOfferCreated) OccurredAt() time.Time { return e.At }

// CredentialClaimed is raised when the wallet redeems an offer.
type CredentialClaimed struct {
	ApplicationID  string    `json:"application_id"`
	OfferID        string    `json:"offer_id"`
	CredentialType string    `json:"credential_type"`
	At             time.Time `json:"at"`
}

func (e CredentialClaimed) Name() string          { return NameCredentialClaimed }
func (e CredentialClaimed) AggregateID() string   { return e.ApplicationID }
func (e CredentialClaimed) OccurredAt() time.Time { return e.At }

// Recorder is the pending-event buffer embedded by entities. Commands record
// events; the orchestration layer drains them after a successful write.
type Recorder struct {
	pending []Event
}

// Record appends an event to the pending buffer.
func (r *Recorder) Record(e Event) {
	r.pending = append(r.pending, e)
}

// PullEvents returns and clears the pending events.
func (r *Recorder) PullEvents() []Event {
	out := r.pending
	r.pending = nil
	return out
}

// PendingEvents returns the number of undrained events.
func (r *Recorder) PendingEvents() int {
	return len(r.pending)
}
