// Package service orchestrates identity, qualification and tax residency
// verification: it starts verifier transactions, runs the batch check when
// the candidate's browser polls, and moves the application along.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	appmodels "onboard/internal/application/models"
	"onboard/internal/credentials"
	"onboard/internal/events"
	"onboard/internal/platform/lock"
	"onboard/internal/platform/metrics"
	"onboard/internal/verification/client"
	"onboard/internal/verification/dcql"
	"onboard/internal/verification/models"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/sentinel"
	txcontext "onboard/pkg/platform/tx"
)

// Verifier is the verification backend.
type Verifier interface {
	InitPresentation(ctx context.Context, req dcql.PresentationRequest) (*client.Transaction, error)
	PollPresentation(ctx context.Context, transactionID, responseCode string) (*client.PollResult, error)
}

type ApplicationStore interface {
	FindByID(ctx context.Context, id string) (*appmodels.Application, error)
	Update(ctx context.Context, app *appmodels.Application, expected appmodels.Status) error
}

type CredentialStore interface {
	Create(ctx context.Context, c *models.VerifiedCredential) error
	Update(ctx context.Context, c *models.VerifiedCredential) error
	ListByTransaction(ctx context.Context, transactionID string) ([]*models.VerifiedCredential, error)
	ListByApplication(ctx context.Context, applicationID string) ([]*models.VerifiedCredential, error)
}

// EventDispatcher delivers domain events after they are persisted.
type EventDispatcher interface {
	Dispatch(ctx context.Context, evts ...events.Event) error
}

// Service runs the verification flows.
type Service struct {
	apps            ApplicationStore
	credentials     CredentialStore
	verifier        Verifier
	dispatcher      EventDispatcher
	locker          lock.Locker
	tx              txcontext.Runner
	logger          *slog.Logger
	metrics         *metrics.Metrics
	redirectBaseURL string
	newID           func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLocker(l lock.Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) { s.tx = r }
}

// WithRedirectBaseURL sets the browser page wallets return to in the
// same-device flow.
func WithRedirectBaseURL(base string) Option {
	return func(s *Service) { s.redirectBaseURL = strings.TrimRight(base, "/") }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func New(apps ApplicationStore, creds CredentialStore, verifier Verifier, dispatcher EventDispatcher, opts ...Option) *Service {
	s := &Service{
		apps:        apps,
		credentials: creds,
		verifier:    verifier,
		dispatcher:  dispatcher,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.locker == nil {
		s.locker = lock.NewSharded()
	}
	if s.tx == nil {
		s.tx = txcontext.NoopRunner{}
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Session is a started wallet interaction.
type Session struct {
	ApplicationID   string             `json:"application_id"`
	TransactionID   string             `json:"transaction_id"`
	RequestURI      string             `json:"request_uri"`
	DeepLink        string             `json:"deep_link"`
	CredentialTypes []credentials.Type `json:"credential_types"`
	SameDevice      bool               `json:"same_device"`
}

// CredentialStatus is the public view of one verification row.
type CredentialStatus struct {
	ID             string           `json:"id"`
	CredentialType credentials.Type `json:"credential_type"`
	Status         models.Status    `json:"status"`
	FailureReason  string           `json:"failure_reason,omitempty"`
}

// Status answers a poll.
type Status struct {
	ApplicationID     string             `json:"application_id"`
	ApplicationStatus appmodels.Status   `json:"application_status"`
	TransactionID     string             `json:"transaction_id"`
	Credentials       []CredentialStatus `json:"credentials"`
	// Complete is true once every requested credential is verified.
	Complete bool `json:"complete"`
	// Error carries a backend failure; polling may continue.
	Error string `json:"error,omitempty"`
}

func (s *Service) findApplication(ctx context.Context, id string) (*appmodels.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	return app, nil
}

// saveApplication persists app if its stored status is still expected. A
// conflict means a concurrent request already moved it; that is a lost race,
// reported as (false, nil).
func (s *Service) saveApplication(ctx context.Context, app *appmodels.Application, expected appmodels.Status) (bool, error) {
	err := s.apps.Update(ctx, app, expected)
	switch {
	case err == nil:
		s.metrics.IncApplicationTransition(string(app.Status))
		return true, nil
	case errors.Is(err, sentinel.ErrConflict):
		s.logger.InfoContext(ctx, "application moved concurrently; transition skipped",
			"application_id", app.ID,
			"expected_status", expected,
			"target_status", app.Status,
		)
		return false, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return false, dErrors.New(dErrors.CodeNotFound, "application not found")
	default:
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
	}
}

func (s *Service) dispatch(ctx context.Context, evts []events.Event) {
	if len(evts) == 0 || s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, evts...); err != nil {
		s.logger.ErrorContext(ctx, "event dispatch failed", "error", err)
	}
}

// startTransaction supersedes pending rows of the given kinds, opens a
// verifier transaction for types and records one PENDING row per type.
func (s *Service) startTransaction(ctx context.Context, app *appmodels.Application, types []credentials.Type, supersede func(credentials.Type) bool, sameDevice bool, step string) (*Session, error) {
	query, err := dcql.Build(types...)
	if err != nil {
		return nil, err
	}
	redirect := ""
	if sameDevice && s.redirectBaseURL != "" {
		redirect = s.redirectBaseURL + "/applications/" + url.PathEscape(app.ID) + "/" + step
	}
	tx, err := s.verifier.InitPresentation(ctx, dcql.NewPresentationRequest(query, s.newID(), redirect))
	if err != nil {
		return nil, err
	}

	now := nowFrom(ctx)
	rows := make([]*models.VerifiedCredential, 0, len(types))
	for _, t := range types {
		row, err := models.NewVerifiedCredential(s.newID(), app.ID, t, tx.TransactionID, tx.RequestURI, now)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.failPending(ctx, app.ID, supersede, models.ReasonSuperseded); err != nil {
			return err
		}
		for _, row := range rows {
			if err := s.credentials.Create(ctx, row); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record verification request")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "verification transaction started",
		"application_id", app.ID,
		"transaction_id", tx.TransactionID,
		"credential_types", types,
		"same_device", sameDevice,
	)
	return &Session{
		ApplicationID:   app.ID,
		TransactionID:   tx.TransactionID,
		RequestURI:      tx.RequestURI,
		DeepLink:        tx.DeepLink,
		CredentialTypes: types,
		SameDevice:      sameDevice,
	}, nil
}

// failPending marks every PENDING row of the application whose type matches
// as FAILED with reason. Rows are kept for the audit trail.
func (s *Service) failPending(ctx context.Context, applicationID string, match func(credentials.Type) bool, reason string) error {
	rows, err := s.credentials.ListByApplication(ctx, applicationID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verification requests")
	}
	now := nowFrom(ctx)
	for _, row := range rows {
		if !row.IsPending() || !match(row.CredentialType) {
			continue
		}
		if err := row.MarkAsFailed(reason, now); err != nil {
			return err
		}
		if err := s.credentials.Update(ctx, row); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Already resolved by a concurrent poll.
				continue
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to supersede verification request")
		}
		s.logger.InfoContext(ctx, "verification request closed",
			"application_id", applicationID,
			"credential_id", row.ID,
			"transaction_id", row.VerifierTransactionID,
			"reason", reason,
		)
	}
	return nil
}

// latestTransaction returns the rows of the most recently started transaction
// containing a credential of a matching type. Rows created in the same instant
// prefer PENDING, then VERIFIED.
func latestTransaction(rows []*models.VerifiedCredential, match func(credentials.Type) bool) (string, []*models.VerifiedCredential) {
	var latest *models.VerifiedCredential
	for _, row := range rows {
		if !match(row.CredentialType) {
			continue
		}
		if latest == nil || row.CreatedAt.After(latest.CreatedAt) ||
			(row.CreatedAt.Equal(latest.CreatedAt) && statusRank(row.Status) >= statusRank(latest.Status)) {
			latest = row
		}
	}
	if latest == nil {
		return "", nil
	}
	var out []*models.VerifiedCredential
	for _, row := range rows {
		if row.VerifierTransactionID == latest.VerifierTransactionID {
			out = append(out, row)
		}
	}
	return latest.VerifierTransactionID, out
}

func statusRank(s models.Status) int {
	switch s {
	case models.StatusPending:
		return 2
	case models.StatusVerified:
		return 1
	}
	return 0
}

func buildStatus(app *appmodels.Application, transactionID string, rows []*models.VerifiedCredential) *Status {
	st := &Status{
		ApplicationID:     app.ID,
		ApplicationStatus: app.Status,
		TransactionID:     transactionID,
		Credentials:       make([]CredentialStatus, 0, len(rows)),
		Complete:          len(rows) > 0,
	}
	for _, row := range rows {
		st.Credentials = append(st.Credentials, CredentialStatus{
			ID:             row.ID,
			CredentialType: row.CredentialType,
			Status:         row.Status,
			FailureReason:  row.FailureReason,
		})
		if row.Status != models.StatusVerified {
			st.Complete = false
		}
	}
	return st
}

func isType(types ...credentials.Type) func(credentials.Type) bool {
	return func(t credentials.Type) bool {
		for _, candidate := range types {
			if t == candidate {
				return true
			}
		}
		return false
	}
}

func isQualification(t credentials.Type) bool { return t.IsQualification() }
