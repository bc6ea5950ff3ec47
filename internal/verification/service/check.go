package service

import (
	"context"
	"errors"
	"maps"
	"slices"

	"onboard/internal/credentials"
	"onboard/internal/events"
	"onboard/internal/verification/models"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/sentinel"
)

// Poll outcomes recorded in metrics.
const (
	pollNotReady = "not_ready"
	pollVerified = "verified"
	pollError    = "error"
	pollSettled  = "settled"
)

// CheckOutcome is the typed result of one batch check. Backend and decoding
// failures are reported through Error rather than as a Go error so pollers can
// keep polling.
type CheckOutcome struct {
	Success bool
	// Ready is false while the wallet has not answered.
	Ready bool
	Error string
	// Verified lists rows that moved to VERIFIED during this check.
	Verified []*models.VerifiedCredential
	// Pending counts rows of the transaction still PENDING afterwards.
	Pending int
	// Credentials is every row of the transaction after the check.
	Credentials []*models.VerifiedCredential
}

// CheckTransaction polls the verifier once for transactionID and verifies the
// matching PENDING rows. Re-polling a settled transaction is a no-op.
func (s *Service) CheckTransaction(ctx context.Context, transactionID, responseCode string) (*CheckOutcome, error) {
	if transactionID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "transaction id is required")
	}
	var outcome *CheckOutcome
	err := s.locker.WithLock(ctx, "verification:"+transactionID, func(ctx context.Context) error {
		var err error
		outcome, err = s.checkTransaction(ctx, transactionID, responseCode)
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *Service) checkTransaction(ctx context.Context, transactionID, responseCode string) (*CheckOutcome, error) {
	rows, err := s.credentials.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification requests")
	}
	if len(rows) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "verification transaction not found")
	}

	pending := make(map[credentials.Type]*models.VerifiedCredential, len(rows))
	for _, row := range rows {
		if row.IsPending() {
			pending[row.CredentialType] = row
		}
	}
	if len(pending) == 0 {
		s.metrics.IncVerificationPoll(pollSettled)
		return &CheckOutcome{Success: true, Ready: true, Credentials: rows}, nil
	}

	result, err := s.verifier.PollPresentation(ctx, transactionID, responseCode)
	if err != nil {
		s.metrics.IncVerificationPoll(pollError)
		s.logger.WarnContext(ctx, "verification poll failed",
			"transaction_id", transactionID,
			"error", err,
		)
		return &CheckOutcome{Error: err.Error(), Pending: len(pending), Credentials: rows}, nil
	}
	if !result.Ready {
		s.metrics.IncVerificationPoll(pollNotReady)
		return &CheckOutcome{Success: true, Pending: len(pending), Credentials: rows}, nil
	}

	now := nowFrom(ctx)
	outcome := &CheckOutcome{Success: true, Ready: true, Credentials: rows}
	var raised []events.Event
	conflicted := false
	for _, namespace := range slices.Sorted(maps.Keys(result.Presentation)) {
		claimSet := result.Presentation[namespace]
		credentialType, ok := credentials.TypeForNamespace(namespace)
		if !ok {
			s.logger.InfoContext(ctx, "presentation carries unrequested namespace",
				"transaction_id", transactionID,
				"namespace", namespace,
			)
			continue
		}
		row, ok := pending[credentialType]
		if !ok {
			continue
		}
		if err := row.MarkAsVerified(claimSet, now); err != nil {
			return nil, err
		}
		if err := s.credentials.Update(ctx, row); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Resolved by a concurrent supersede or cancel; the stored row wins.
				s.logger.WarnContext(ctx, "verified credential lost a concurrent update",
					"credential_id", row.ID,
					"transaction_id", transactionID,
				)
				row.PullEvents()
				delete(pending, credentialType)
				conflicted = true
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist verified credential")
		}
		delete(pending, credentialType)
		outcome.Verified = append(outcome.Verified, row)
		raised = append(raised, row.PullEvents()...)
		s.logger.InfoContext(ctx, "credential verified",
			"application_id", row.ApplicationID,
			"credential_id", row.ID,
			"credential_type", row.CredentialType,
			"transaction_id", transactionID,
		)
	}
	outcome.Pending = len(pending)
	if conflicted {
		stored, err := s.credentials.ListByTransaction(ctx, transactionID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reload verification requests")
		}
		outcome.Credentials = stored
		outcome.Pending = 0
		for _, row := range stored {
			if row.IsPending() {
				outcome.Pending++
			}
		}
	}
	if len(pending) > 0 {
		s.logger.WarnContext(ctx, "wallet response missing requested credentials",
			"transaction_id", transactionID,
			"missing", len(pending),
		)
	}
	s.metrics.IncVerificationPoll(pollVerified)
	s.dispatch(ctx, raised)
	return outcome, nil
}
