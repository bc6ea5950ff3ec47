package models

import (
	"fmt"
	"strings"
	"time"

	"onboard/internal/events"
	dErrors "onboard/pkg/domain-errors"
)

// Employee credential constants.
const (
	EmployerName       = "Nordic Maritime Crewing"
	DefaultCountryCode = "FI"
)

// Application is the aggregate root for one candidate application.
//
// Invariants:
//   - Candidate is nil until Status reaches VERIFIED; once set it is never cleared
//   - every status change goes through a guarded command; a violated guard is
//     an invalid_state_transition error, never a silent no-op
//   - MarkAsVerified is the only command raising an event (ApplicationVerified)
type Application struct {
	ID        string
	VacancyID string
	Status    Status
	Candidate *CandidateInfo
	CreatedAt time.Time
	UpdatedAt time.Time

	recorder events.Recorder
}

// NewApplication creates an application in CREATED.
func NewApplication(id, vacancyID string, now time.Time) (*Application, error) {
	id = strings.TrimSpace(id)
	vacancyID = strings.TrimSpace(vacancyID)
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "application id cannot be empty")
	}
	if vacancyID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "vacancy id cannot be empty")
	}
	return &Application{
		ID:        id,
		VacancyID: vacancyID,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// PullEvents drains the events raised since the last pull.
func (a *Application) PullEvents() []events.Event {
	return a.recorder.PullEvents()
}

// Clone returns a copy that shares no mutable state and carries no pending events.
func (a *Application) Clone() *Application {
	cp := &Application{
		ID:        a.ID,
		VacancyID: a.VacancyID,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.Candidate != nil {
		candidate := *a.Candidate
		cp.Candidate = &candidate
	}
	return cp
}

func (a *Application) transition(allowed bool, command string, to Status, now time.Time) error {
	if !allowed {
		return invalidTransition(command, a.Status)
	}
	a.Status = to
	a.UpdatedAt = now
	return nil
}

func invalidTransition(command string, from Status) error {
	return dErrors.New(dErrors.CodeInvalidStateTransition,
		fmt.Sprintf("cannot %s application in status %s", command, from))
}

func (a *Application) MarkAsVerifying(now time.Time) error {
	return a.transition(a.Status.CanStartVerification(), "start verification of", StatusVerifying, now)
}

// MarkAsVerified attaches the verified candidate identity and raises
// ApplicationVerified.
func (a *Application) MarkAsVerified(info CandidateInfo, now time.Time) error {
	if !a.Status.CanCompleteVerification() {
		return invalidTransition("verify", a.Status)
	}
	if a.Candidate != nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "candidate info is already set")
	}
	if !info.Complete() {
		return dErrors.New(dErrors.CodeInvariantViolation, "candidate info is incomplete")
	}
	candidate := info
	a.Candidate = &candidate
	a.Status = StatusVerified
	a.UpdatedAt = now
	a.recorder.Record(events.ApplicationVerified{
		ApplicationID: a.ID,
		FamilyName:    info.FamilyName,
		GivenName:     info.GivenName,
		At:            now,
	})
	return nil
}

func (a *Application) MarkAsQualifying(now time.Time) error {
	return a.transition(a.Status.CanRequestQualifications(), "request qualifications for", StatusQualifying, now)
}

func (a *Application) MarkAsQualified(now time.Time) error {
	return a.transition(a.Status.CanCompleteQualification(), "qualify", StatusQualified, now)
}

// CancelQualification returns a QUALIFYING application to VERIFIED.
func (a *Application) CancelQualification(now time.Time) error {
	return a.transition(a.Status.CanCancelQualification(), "cancel qualification of", StatusVerified, now)
}

func (a *Application) Finalise(now time.Time) error {
	return a.transition(a.Status.CanFinalise(), "finalise", StatusFinalized, now)
}

func (a *Application) MarkAsSigning(now time.Time) error {
	return a.transition(a.Status == StatusFinalized, "start signing of", StatusSigning, now)
}

func (a *Application) MarkAsSigned(now time.Time) error {
	return a.transition(a.Status.CanCompleteSigning(), "mark signed", StatusSigned, now)
}

func (a *Application) MarkAsIssuing(now time.Time) error {
	return a.transition(a.Status == StatusSigned, "start issuance of", StatusIssuing, now)
}

func (a *Application) MarkAsIssued(now time.Time) error {
	return a.transition(a.Status.CanCompleteIssuance(), "mark issued", StatusIssued, now)
}

func (a *Application) Reject(now time.Time) error {
	return a.transition(a.Status.CanApplyOperatorAction(StatusRejected), "reject", StatusRejected, now)
}

func (a *Application) MarkAsError(now time.Time) error {
	return a.transition(a.Status.CanApplyOperatorAction(StatusError), "flag error on", StatusError, now)
}

func (a *Application) Archive(now time.Time) error {
	return a.transition(a.Status.CanApplyOperatorAction(StatusArchived), "archive", StatusArchived, now)
}

// EmployeeCredentialData is the payload of the issued employee credential.
type EmployeeCredentialData struct {
	GivenName           string `json:"given_name"`
	FamilyName          string `json:"family_name"`
	BirthDate           string `json:"birth_date"`
	Employer            string `json:"employer"`
	EmploymentStartDate string `json:"employment_start_date"`
	CountryCode         string `json:"country_code"`
}

// ToMap returns the payload as a claim map for the issuer request.
func (d EmployeeCredentialData) ToMap() map[string]any {
	return map[string]any{
		"given_name":            d.GivenName,
		"family_name":           d.FamilyName,
		"birth_date":            d.BirthDate,
		"employer":              d.Employer,
		"employment_start_date": d.EmploymentStartDate,
		"country_code":          d.CountryCode,
	}
}

// BuildEmployeeCredentialData derives the employee credential from the verified
// candidate. The start date is the day of issuance.
func (a *Application) BuildEmployeeCredentialData(now time.Time) (EmployeeCredentialData, error) {
	if a.Candidate == nil || !a.Candidate.Complete() {
		return EmployeeCredentialData{}, dErrors.New(dErrors.CodeInvariantViolation, "candidate info is incomplete")
	}
	country := a.Candidate.PrimaryNationality()
	if country == "" {
		country = DefaultCountryCode
	}
	return EmployeeCredentialData{
		GivenName:           a.Candidate.GivenName,
		FamilyName:          a.Candidate.FamilyName,
		BirthDate:           a.Candidate.DateOfBirth,
		Employer:            EmployerName,
		EmploymentStartDate: now.Format(dateLayout),
		CountryCode:         country,
	}, nil
}
