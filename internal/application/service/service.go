// Package service owns the application lifecycle commands that are not part
// of a credential flow: creation, finalisation, operator actions and the
// aggregated overview.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"onboard/internal/application/models"
	"onboard/internal/audit"
	issuancemodels "onboard/internal/issuance/models"
	"onboard/internal/platform/lock"
	"onboard/internal/platform/metrics"
	signingmodels "onboard/internal/signing/models"
	verificationmodels "onboard/internal/verification/models"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/sentinel"
	"onboard/pkg/requestcontext"
)

const (
	overviewTimeout = 5 * time.Second
	maxReasonLength = 500
)

type Store interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id string) (*models.Application, error)
	Update(ctx context.Context, app *models.Application, expected models.Status) error
}

type CredentialLister interface {
	ListByApplication(ctx context.Context, applicationID string) ([]*verificationmodels.VerifiedCredential, error)
}

type DocumentLister interface {
	ListByApplication(ctx context.Context, applicationID string) ([]*signingmodels.SignedDocument, error)
}

type OfferLister interface {
	ListByApplication(ctx context.Context, applicationID string) ([]*issuancemodels.IssuedCredential, error)
}

// AuditTrail records operator actions and reads an application's trail.
type AuditTrail interface {
	Emit(ctx context.Context, entry audit.Entry) error
	List(ctx context.Context, applicationID string) ([]audit.Entry, error)
}

type Service struct {
	apps        Store
	credentials CredentialLister
	documents   DocumentLister
	offers      OfferLister
	trail       AuditTrail
	locker      lock.Locker
	logger      *slog.Logger
	metrics     *metrics.Metrics
	newID       func() string
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

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func New(apps Store, creds CredentialLister, docs DocumentLister, offers OfferLister, trail AuditTrail, opts ...Option) *Service {
	s := &Service{
		apps:        apps,
		credentials: creds,
		documents:   docs,
		offers:      offers,
		trail:       trail,
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
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Overview is an application with everything recorded against it.
type Overview struct {
	Application *models.Application
	Credentials []*verificationmodels.VerifiedCredential
	Documents   []*signingmodels.SignedDocument
	Offers      []*issuancemodels.IssuedCredential
	Audit       []audit.Entry
}

// Create opens a new application for a vacancy.
func (s *Service) Create(ctx context.Context, vacancyID string) (*models.Application, error) {
	vacancyID = strings.TrimSpace(vacancyID)
	if vacancyID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "vacancy_id is required")
	}
	app, err := models.NewApplication(s.newID(), vacancyID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.apps.Create(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "application already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}
	s.metrics.IncApplicationTransition(string(app.Status))
	s.logger.InfoContext(ctx, "application created",
		"application_id", app.ID,
		"vacancy_id", app.VacancyID,
	)
	return app, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	return app, nil
}

// Finalise closes the verification phase so the contract can be signed.
func (s *Service) Finalise(ctx context.Context, id string) (*models.Application, error) {
	return s.command(ctx, id, "finalised", "", (*models.Application).Finalise)
}

// Reject, Archive and MarkAsError are operator actions. Every command is
// recorded in the audit trail with the operator's reason.
func (s *Service) Reject(ctx context.Context, id, reason string) (*models.Application, error) {
	return s.command(ctx, id, "rejected", reason, (*models.Application).Reject)
}

func (s *Service) Archive(ctx context.Context, id, reason string) (*models.Application, error) {
	return s.command(ctx, id, "archived", reason, (*models.Application).Archive)
}

func (s *Service) MarkAsError(ctx context.Context, id, reason string) (*models.Application, error) {
	return s.command(ctx, id, "marked_error", reason, (*models.Application).MarkAsError)
}

func (s *Service) command(ctx context.Context, id, action, reason string, apply func(*models.Application, time.Time) error) (*models.Application, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonLength {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("reason must be %d characters or less", maxReasonLength))
	}
	var result *models.Application
	err := s.locker.WithLock(ctx, "application:"+id, func(ctx context.Context) error {
		app, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		from := app.Status
		if err := apply(app, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.apps.Update(ctx, app, from); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrConflict):
				return dErrors.New(dErrors.CodeConflict, "application changed concurrently")
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotFound, "application not found")
			default:
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
			}
		}
		s.metrics.IncApplicationTransition(string(app.Status))
		s.logger.InfoContext(ctx, "application "+action,
			"application_id", app.ID,
			"from", from,
			"to", app.Status,
		)
		s.record(ctx, app, action, string(from), reason)
		result = app
		return nil
	})
	return result, err
}

func (s *Service) record(ctx context.Context, app *models.Application, action, from, reason string) {
	if s.trail == nil {
		return
	}
	err := s.trail.Emit(ctx, audit.Entry{
		ApplicationID: app.ID,
		Action:        "application_" + action,
		Subject:       from,
		Decision:      string(app.Status),
		Reason:        reason,
		RequestID:     requestcontext.RequestID(ctx),
		OccurredAt:    requestcontext.Now(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record operator action",
			"application_id", app.ID,
			"action", action,
			"error", err,
		)
	}
}

// Overview loads the application and its credentials, documents, offers and
// audit trail concurrently.
func (s *Service) Overview(ctx context.Context, id string) (*Overview, error) {
	ctx, cancel := context.WithTimeout(ctx, overviewTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	out := &Overview{}

	g.Go(func() error {
		app, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		out.Application = app
		return nil
	})
	g.Go(func() error {
		creds, err := s.credentials.ListByApplication(ctx, id)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
		}
		out.Credentials = creds
		return nil
	})
	g.Go(func() error {
		docs, err := s.documents.ListByApplication(ctx, id)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list signed documents")
		}
		out.Documents = docs
		return nil
	})
	g.Go(func() error {
		offers, err := s.offers.ListByApplication(ctx, id)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credential offers")
		}
		out.Offers = offers
		return nil
	})
	if s.trail != nil {
		g.Go(func() error {
			entries, err := s.trail.List(ctx, id)
			if err != nil {
				// The trail is informational; the overview still renders.
				s.logger.WarnContext(ctx, "audit trail unavailable", "application_id", id, "error", err)
				return nil
			}
			out.Audit = entries
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
