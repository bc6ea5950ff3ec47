package models

import (
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	dErrors "onboard/pkg/domain-errors"
)

const (
	maxNameLength = 100
	dateLayout    = "2006-01-02"
)

var (
	countryCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)
	mobilePattern      = regexp.MustCompile(`^\+?[0-9][0-9 ]{5,19}$`)
)

// CandidateInput is the unvalidated candidate data extracted from an identity
// presentation.
type CandidateInput struct {
	FamilyName  string
	GivenName   string
	DateOfBirth string
	Nationality string
	Email       string
	Mobile      string
}

// CandidateInfo is the verified identity of the candidate. Fields are validated
// independently; optional ones may be empty.
type CandidateInfo struct {
	FamilyName  string `json:"family_name"`
	GivenName   string `json:"given_name"`
	DateOfBirth string `json:"date_of_birth"`
	Nationality string `json:"nationality,omitempty"`
	Email       string `json:"email,omitempty"`
	Mobile      string `json:"mobile,omitempty"`
}

// ValidationErrors maps a field name to the reason it was rejected.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v[field])
	}
	return "invalid candidate info: " + strings.Join(parts, "; ")
}

// ValidateCandidateInput validates every field independently and returns the
// normalised value together with the per-field failures.
func ValidateCandidateInput(in CandidateInput, now time.Time) (CandidateInfo, ValidationErrors) {
	errs := ValidationErrors{}
	info := CandidateInfo{
		FamilyName:  strings.TrimSpace(in.FamilyName),
		GivenName:   strings.TrimSpace(in.GivenName),
		DateOfBirth: strings.TrimSpace(in.DateOfBirth),
		Email:       strings.TrimSpace(in.Email),
		Mobile:      strings.TrimSpace(in.Mobile),
	}

	if msg := validateName(info.FamilyName); msg != "" {
		errs["family_name"] = msg
	}
	if msg := validateName(info.GivenName); msg != "" {
		errs["given_name"] = msg
	}
	if msg := validateDateOfBirth(info.DateOfBirth, now); msg != "" {
		errs["date_of_birth"] = msg
	}

	nationality, msg := normalizeNationality(in.Nationality)
	if msg != "" {
		errs["nationality"] = msg
	}
	info.Nationality = nationality

	if info.Email != "" {
		if addr, err := mail.ParseAddress(info.Email); err != nil || addr.Address != info.Email {
			errs["email"] = "must be a valid email address"
		}
	}
	if info.Mobile != "" && !mobilePattern.MatchString(info.Mobile) {
		errs["mobile"] = "must be a phone number"
	}

	if len(errs) == 0 {
		return info, nil
	}
	return info, errs
}

// NewCandidateInfo validates input and returns a validation error on failure.
func NewCandidateInfo(in CandidateInput, now time.Time) (CandidateInfo, error) {
	info, errs := ValidateCandidateInput(in, now)
	if errs != nil {
		return CandidateInfo{}, dErrors.Wrap(errs, dErrors.CodeValidation, "invalid candidate info")
	}
	return info, nil
}

// Complete reports whether the fields needed for an employee credential are set.
func (c CandidateInfo) Complete() bool {
	return c.FamilyName != "" && c.GivenName != "" && c.DateOfBirth != ""
}

// PrimaryNationality returns the first nationality code, if any.
func (c CandidateInfo) PrimaryNationality() string {
	first, _, _ := strings.Cut(c.Nationality, ",")
	return strings.TrimSpace(first)
}

func validateName(name string) string {
	if name == "" {
		return "is required"
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "must be 100 characters or less"
	}
	return ""
}

func validateDateOfBirth(value string, now time.Time) string {
	if value == "" {
		return "is required"
	}
	dob, err := time.Parse(dateLayout, value)
	if err != nil {
		return "must be a YYYY-MM-DD date"
	}
	if dob.After(now) {
		return "must not be in the future"
	}
	return ""
}

func normalizeNationality(value string) (string, string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ""
	}
	parts := strings.Split(value, ",")
	codes := make([]string, 0, len(parts))
	for _, part := range parts {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" {
			continue
		}
		if !countryCodePattern.MatchString(code) {
			return value, "must be ISO 3166-1 alpha-2 country codes"
		}
		codes = append(codes, code)
	}
	return strings.Join(codes, ","), ""
}
