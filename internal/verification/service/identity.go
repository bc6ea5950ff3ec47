package service

import (
	"context"

	appmodels "onboard/internal/application/models"
	"onboard/internal/claims"
	"onboard/internal/credentials"
	"onboard/internal/verification/models"
	dErrors "onboard/pkg/domain-errors"
)

const stepIdentity = "identity"

// StartIdentityVerification opens a PID presentation for a CREATED
// application and moves it to VERIFYING.
func (s *Service) StartIdentityVerification(ctx context.Context, applicationID string, sameDevice bool) (*Session, error) {
	var session *Session
	err := s.locker.WithLock(ctx, "application:"+applicationID, func(ctx context.Context) error {
		app, err := s.findApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		expected := app.Status
		if err := app.MarkAsVerifying(nowFrom(ctx)); err != nil {
			return err
		}
		session, err = s.startTransaction(ctx, app, []credentials.Type{credentials.TypePID}, isType(credentials.TypePID), sameDevice, stepIdentity)
		if err != nil {
			return err
		}
		saved, err := s.saveApplication(ctx, app, expected)
		if err != nil {
			return err
		}
		if !saved {
			return dErrors.New(dErrors.CodeConflict, "application changed while starting verification")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// CheckIdentityVerification runs the batch check on the latest PID
// transaction and completes the application once the PID is verified. An
// application left VERIFYING next to an already VERIFIED PID row is completed
// as well.
func (s *Service) CheckIdentityVerification(ctx context.Context, applicationID, responseCode string) (*Status, error) {
	app, st, err := s.checkLatest(ctx, applicationID, responseCode, isType(credentials.TypePID), "identity verification has not been started")
	if err != nil {
		return nil, err
	}
	if app.Status != appmodels.StatusVerifying || !st.Complete {
		return st, nil
	}
	pid, err := s.verifiedPID(ctx, applicationID, st.TransactionID)
	if err != nil {
		return nil, err
	}
	if err := s.completeIdentity(ctx, app, pid); err != nil {
		return nil, err
	}
	st.ApplicationStatus = app.Status
	return st, nil
}

func (s *Service) verifiedPID(ctx context.Context, applicationID, transactionID string) (*models.VerifiedCredential, error) {
	rows, err := s.credentials.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification requests")
	}
	for _, row := range rows {
		if row.ApplicationID == applicationID && row.CredentialType == credentials.TypePID && row.Status == models.StatusVerified {
			return row, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeInternal, "verified PID row disappeared")
}

func (s *Service) completeIdentity(ctx context.Context, app *appmodels.Application, pid *models.VerifiedCredential) error {
	now := nowFrom(ctx)
	normalized := claims.NormalizePID(claims.Claims(pid.CredentialData))
	info, err := appmodels.NewCandidateInfo(appmodels.CandidateInput{
		FamilyName:  normalized.FamilyName,
		GivenName:   normalized.GivenName,
		DateOfBirth: normalized.BirthDate,
		Nationality: normalized.Nationality,
		Email:       normalized.Email,
		Mobile:      normalized.Mobile,
	}, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "verified PID does not yield valid candidate info",
			"application_id", app.ID,
			"credential_id", pid.ID,
			"error", err,
		)
		if markErr := app.MarkAsError(now); markErr != nil {
			return markErr
		}
		_, saveErr := s.saveApplication(ctx, app, appmodels.StatusVerifying)
		return saveErr
	}

	if err := app.MarkAsVerified(info, now); err != nil {
		return err
	}
	saved, err := s.saveApplication(ctx, app, appmodels.StatusVerifying)
	if err != nil {
		return err
	}
	if !saved {
		// A concurrent poll completed it; drop our copy of the event.
		app.PullEvents()
		if current, err := s.findApplication(ctx, app.ID); err == nil {
			*app = *current
		}
		return nil
	}
	s.logger.InfoContext(ctx, "candidate identity verified", "application_id", app.ID)
	s.dispatch(ctx, app.PullEvents())
	return nil
}

func hasPending(rows []*models.VerifiedCredential) bool {
	for _, row := range rows {
		if row.IsPending() {
			return true
		}
	}
	return false
}
