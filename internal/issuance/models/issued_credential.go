// Package models holds the IssuedCredential entity: one credential offer
// handed to the candidate's wallet.
package models

import (
	"maps"
	"strings"
	"time"

	"onboard/internal/credentials"
	"onboard/internal/events"
	dErrors "onboard/pkg/domain-errors"
)

// IssuedCredential is an offer made by the issuer backend.
//
// Invariants:
//   - PreAuthorizedCode is unique across offers
//   - at most one live offer per (application, credential type)
//   - Claimed only moves false to true
type IssuedCredential struct {
	ID                 string
	ApplicationID      string
	CredentialType     credentials.Type
	PreAuthorizedCode  string
	CredentialOfferURL string
	OTP                string
	CredentialData     map[string]any
	Claimed            bool
	ClaimedAt          *time.Time
	ExpiresAt          time.Time
	CreatedAt          time.Time

	recorder events.Recorder
}

// Offer carries what the issuer returned for a new credential offer.
type Offer struct {
	PreAuthorizedCode string
	DeepLink          string
	OTP               string
	Data              map[string]any
}

// NewIssuedCredential records a fresh offer valid for ttl. superseded is the
// number of earlier live offers it replaced; it is carried on the event.
func NewIssuedCredential(id, applicationID string, credentialType credentials.Type, offer Offer, ttl time.Duration, superseded int, now time.Time) (*IssuedCredential, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(applicationID) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "offer id and application id are required")
	}
	if offer.PreAuthorizedCode == "" || offer.DeepLink == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "pre-authorized code and offer url are required")
	}
	if ttl <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "offer ttl must be positive")
	}
	c := &IssuedCredential{
		ID:                 id,
		ApplicationID:      applicationID,
		CredentialType:     credentialType,
		PreAuthorizedCode:  offer.PreAuthorizedCode,
		CredentialOfferURL: offer.DeepLink,
		OTP:                offer.OTP,
		CredentialData:     maps.Clone(offer.Data),
		ExpiresAt:          now.Add(ttl),
		CreatedAt:          now,
	}
	c.recorder.Record(events.CredentialOfferCreated{
		ApplicationID:  applicationID,
		OfferID:        id,
		CredentialType: credentialType.String(),
		Superseded:     superseded,
		At:             now,
	})
	return c, nil
}

// IsLive reports whether the offer can still be redeemed.
func (c *IssuedCredential) IsLive(now time.Time) bool {
	return !c.Claimed && now.Before(c.ExpiresAt)
}

// Expire ends a live offer at now. Claimed or already expired offers are
// left alone.
func (c *IssuedCredential) Expire(now time.Time) bool {
	if !c.IsLive(now) {
		return false
	}
	c.ExpiresAt = now
	return true
}

func (c *IssuedCredential) MarkAsClaimed(now time.Time) error {
	if c.Claimed {
		return dErrors.New(dErrors.CodeInvariantViolation, "offer already claimed")
	}
	c.Claimed = true
	c.ClaimedAt = &now
	c.recorder.Record(events.CredentialClaimed{
		ApplicationID:  c.ApplicationID,
		OfferID:        c.ID,
		CredentialType: c.CredentialType.String(),
		At:             now,
	})
	return nil
}

func (c *IssuedCredential) PullEvents() []events.Event {
	return c.recorder.PullEvents()
}

// Clone returns a copy without pending events.
func (c *IssuedCredential) Clone() *IssuedCredential {
	cp := *c
	cp.recorder = events.Recorder{}
	cp.CredentialData = maps.Clone(c.CredentialData)
	if c.ClaimedAt != nil {
		at := *c.ClaimedAt
		cp.ClaimedAt = &at
	}
	return &cp
}
