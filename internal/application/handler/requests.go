package handler

import (
	"strings"

	dErrors "onboard/pkg/domain-errors"
)

type CreateApplicationRequest struct {
	VacancyID string `json:"vacancy_id"`
}

func (r *CreateApplicationRequest) Normalize() {
	if r == nil {
		return
	}
	r.VacancyID = strings.TrimSpace(r.VacancyID)
}

func (r *CreateApplicationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.VacancyID) > 128 {
		return dErrors.New(dErrors.CodeValidation, "vacancy_id must be 128 characters or less")
	}
	if r.VacancyID == "" {
		return dErrors.New(dErrors.CodeValidation, "vacancy_id is required")
	}
	return nil
}

// OperatorActionRequest carries the optional reason for reject, archive and
// error commands.
type OperatorActionRequest struct {
	Reason string `json:"reason"`
}

func (r *OperatorActionRequest) Normalize() {
	if r == nil {
		return
	}
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *OperatorActionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Reason) > 500 {
		return dErrors.New(dErrors.CodeValidation, "reason must be 500 characters or less")
	}
	return nil
}
