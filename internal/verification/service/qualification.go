package service

import (
	"context"
	"fmt"

	appmodels "onboard/internal/application/models"
	"onboard/internal/credentials"
	"onboard/internal/verification/models"
	dErrors "onboard/pkg/domain-errors"
)

const (
	stepQualifications = "qualifications"
	stepTaxResidency   = "tax-residency"
)

var qualificationTypes = isType(credentials.TypeDiploma, credentials.TypeSeafarer)

// RequestQualifications opens one presentation covering every requested
// qualification. Earlier pending qualification requests are superseded so
// at most one qualification transaction is live.
func (s *Service) RequestQualifications(ctx context.Context, applicationID string, types []credentials.Type, sameDevice bool) (*Session, error) {
	types, err := normalizeQualificationTypes(types)
	if err != nil {
		return nil, err
	}
	var session *Session
	err = s.locker.WithLock(ctx, "application:"+applicationID, func(ctx context.Context) error {
		app, err := s.findApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		expected := app.Status
		if err := app.MarkAsQualifying(nowFrom(ctx)); err != nil {
			return err
		}
		session, err = s.startTransaction(ctx, app, types, isQualification, sameDevice, stepQualifications)
		if err != nil {
			return err
		}
		saved, err := s.saveApplication(ctx, app, expected)
		if err != nil {
			return err
		}
		if !saved {
			return dErrors.New(dErrors.CodeConflict, "application changed while requesting qualifications")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func normalizeQualificationTypes(types []credentials.Type) ([]credentials.Type, error) {
	if len(types) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one qualification type is required")
	}
	seen := make(map[credentials.Type]bool, len(types))
	out := make([]credentials.Type, 0, len(types))
	for _, t := range types {
		if !qualificationTypes(t) {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("credential type %s cannot be requested as a qualification", t))
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

// CheckQualifications runs the batch check on the latest qualification
// transaction. Once every row of it is verified a QUALIFYING application
// becomes QUALIFIED.
func (s *Service) CheckQualifications(ctx context.Context, applicationID, responseCode string) (*Status, error) {
	app, st, err := s.checkLatest(ctx, applicationID, responseCode, qualificationTypes, "qualification verification has not been requested")
	if err != nil {
		return nil, err
	}
	if !st.Complete || app.Status != appmodels.StatusQualifying {
		return st, nil
	}

	if err := app.MarkAsQualified(nowFrom(ctx)); err != nil {
		return nil, err
	}
	saved, err := s.saveApplication(ctx, app, appmodels.StatusQualifying)
	if err != nil {
		return nil, err
	}
	if saved {
		s.logger.InfoContext(ctx, "candidate qualified", "application_id", app.ID)
		st.ApplicationStatus = app.Status
	} else if current, err := s.findApplication(ctx, app.ID); err == nil {
		st.ApplicationStatus = current.Status
	}
	return st, nil
}

// CancelQualifications abandons the live qualification request and returns
// the application to VERIFIED.
func (s *Service) CancelQualifications(ctx context.Context, applicationID string) error {
	return s.locker.WithLock(ctx, "application:"+applicationID, func(ctx context.Context) error {
		app, err := s.findApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		expected := app.Status
		if err := app.CancelQualification(nowFrom(ctx)); err != nil {
			return err
		}
		return s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.failPending(ctx, app.ID, isQualification, models.ReasonCancelled); err != nil {
				return err
			}
			saved, err := s.saveApplication(ctx, app, expected)
			if err != nil {
				return err
			}
			if !saved {
				return dErrors.New(dErrors.CodeConflict, "application changed while cancelling qualifications")
			}
			s.logger.InfoContext(ctx, "qualification request cancelled", "application_id", app.ID)
			return nil
		})
	})
}

// RequestTaxResidency opens a tax residency presentation. It is only allowed
// once the contract is signed and does not move the application.
func (s *Service) RequestTaxResidency(ctx context.Context, applicationID string, sameDevice bool) (*Session, error) {
	var session *Session
	err := s.locker.WithLock(ctx, "application:"+applicationID, func(ctx context.Context) error {
		app, err := s.findApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if !app.Status.CanRequestTaxResidency() {
			return dErrors.New(dErrors.CodeInvalidStateTransition,
				fmt.Sprintf("cannot request tax residency for application in status %s", app.Status))
		}
		session, err = s.startTransaction(ctx, app, []credentials.Type{credentials.TypeTaxResidency},
			isType(credentials.TypeTaxResidency), sameDevice, stepTaxResidency)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) CheckTaxResidency(ctx context.Context, applicationID, responseCode string) (*Status, error) {
	_, st, err := s.checkLatest(ctx, applicationID, responseCode, isType(credentials.TypeTaxResidency), "tax residency verification has not been requested")
	return st, err
}

// checkLatest batch-checks the latest transaction holding a matching type.
func (s *Service) checkLatest(ctx context.Context, applicationID, responseCode string, match func(credentials.Type) bool, notStarted string) (*appmodels.Application, *Status, error) {
	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.credentials.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verification requests")
	}
	transactionID, txRows := latestTransaction(rows, match)
	if transactionID == "" {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, notStarted)
	}

	backendError := ""
	if hasPending(txRows) {
		outcome, err := s.CheckTransaction(ctx, transactionID, responseCode)
		if err != nil {
			return nil, nil, err
		}
		txRows = outcome.Credentials
		backendError = outcome.Error
	}
	st := buildStatus(app, transactionID, txRows)
	st.Error = backendError
	return app, st, nil
}
