package models

// Status is the authoritative workflow state of an application.
//
// Main line:
//
//	CREATED → VERIFYING → VERIFIED → [QUALIFYING → QUALIFIED] → FINALIZED
//	        → SIGNING → SIGNED → ISSUING → ISSUED
//
// ERROR, REJECTED and ARCHIVED are side states set by operators.
type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusVerifying  Status = "VERIFYING"
	StatusVerified   Status = "VERIFIED"
	StatusQualifying Status = "QUALIFYING"
	StatusQualified  Status = "QUALIFIED"
	StatusFinalized  Status = "FINALIZED"
	StatusSigning    Status = "SIGNING"
	StatusSigned     Status = "SIGNED"
	StatusIssuing    Status = "ISSUING"
	StatusIssued     Status = "ISSUED"
	StatusError      Status = "ERROR"
	StatusRejected   Status = "REJECTED"
	StatusArchived   Status = "ARCHIVED"
)

// AllStatuses lists every state, main line first.
var AllStatuses = []Status{
	StatusCreated, StatusVerifying, StatusVerified, StatusQualifying, StatusQualified,
	StatusFinalized, StatusSigning, StatusSigned, StatusIssuing, StatusIssued,
	StatusError, StatusRejected, StatusArchived,
}

func (s Status) Valid() bool {
	for _, candidate := range AllStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

func (s Status) in(set ...Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

// Guards are pure predicates over the current status.

func (s Status) CanStartVerification() bool    { return s == StatusCreated }
func (s Status) CanCompleteVerification() bool { return s == StatusVerifying }

// CanRequestQualifications: qualifications are proven before signing.
func (s Status) CanRequestQualifications() bool { return s == StatusVerified }
func (s Status) CanCompleteQualification() bool { return s == StatusQualifying }
func (s Status) CanCancelQualification() bool   { return s == StatusQualifying }
func (s Status) CanFinalise() bool              { return s.in(StatusVerified, StatusQualified) }
func (s Status) CanStartSigning() bool          { return s.in(StatusFinalized, StatusSigning) }
func (s Status) CanCompleteSigning() bool       { return s == StatusSigning }
func (s Status) CanIssue() bool                 { return s.in(StatusSigned, StatusIssuing) }
func (s Status) CanCompleteIssuance() bool      { return s == StatusIssuing }

// CanRequestTaxResidency: tax residency is only proven after the contract is signed.
func (s Status) CanRequestTaxResidency() bool {
	return s.in(StatusSigned, StatusIssuing, StatusIssued)
}

// CanApplyOperatorAction reports whether an operator may move the application
// to the side state target.
func (s Status) CanApplyOperatorAction(target Status) bool {
	return s != StatusArchived && s != target
}
