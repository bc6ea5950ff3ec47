// Package service issues the employee credential once the contract is signed
// and completes the application when the wallet redeems the offer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appmodels "onboard/internal/application/models"
	"onboard/internal/credentials"
	"onboard/internal/events"
	"onboard/internal/issuance/client"
	"onboard/internal/issuance/models"
	"onboard/internal/platform/lock"
	"onboard/internal/platform/metrics"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/sentinel"
	txcontext "onboard/pkg/platform/tx"
	"onboard/pkg/requestcontext"
)

const DefaultOfferTTL = 24 * time.Hour

type ApplicationStore interface {
	FindByID(ctx context.Context, id string) (*appmodels.Application, error)
	Update(ctx context.Context, app *appmodels.Application, expected appmodels.Status) error
}

type OfferStore interface {
	Create(ctx context.Context, offer *models.IssuedCredential) error
	Update(ctx context.Context, offer *models.IssuedCredential) error
	FindByID(ctx context.Context, id string) (*models.IssuedCredential, error)
	FindByPreAuthorizedCode(ctx context.Context, code string) (*models.IssuedCredential, error)
	ExpireLive(ctx context.Context, applicationID string, credentialType credentials.Type, now time.Time) (int, error)
}

// Issuer requests credential offers from the issuer backend.
type Issuer interface {
	RequestOffer(ctx context.Context, req client.OfferRequest) (*client.Offer, error)
}

type EventDispatcher interface {
	Dispatch(ctx context.Context, evts ...events.Event) error
}

type Config struct {
	CredentialConfigurationID string
	OfferTTL                  time.Duration
	// Employer and DefaultCountryCode override the built-in employee
	// credential values when set.
	Employer           string
	DefaultCountryCode string
}

type Service struct {
	apps       ApplicationStore
	offers     OfferStore
	issuer     Issuer
	dispatcher EventDispatcher
	cfg        Config
	locker     lock.Locker
	tx         txcontext.Runner
	logger     *slog.Logger
	metrics    *metrics.Metrics
	newID      func() string
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

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func New(apps ApplicationStore, offers OfferStore, issuer Issuer, dispatcher EventDispatcher, cfg Config, opts ...Option) *Service {
	if cfg.OfferTTL <= 0 {
		cfg.OfferTTL = DefaultOfferTTL
	}
	s := &Service{
		apps:       apps,
		offers:     offers,
		issuer:     issuer,
		dispatcher: dispatcher,
		cfg:        cfg,
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

// Offer is the candidate-facing view of an issued credential offer.
type Offer struct {
	ID                 string           `json:"id"`
	ApplicationID      string           `json:"application_id"`
	CredentialType     credentials.Type `json:"credential_type"`
	CredentialOfferURL string           `json:"credential_offer_url"`
	OTP                string           `json:"otp,omitempty"`
	Claimed            bool             `json:"claimed"`
	ClaimedAt          *time.Time       `json:"claimed_at,omitempty"`
	ExpiresAt          time.Time        `json:"expires_at"`
	Live               bool             `json:"live"`
}

func toOffer(c *models.IssuedCredential, now time.Time) *Offer {
	return &Offer{
		ID:                 c.ID,
		ApplicationID:      c.ApplicationID,
		CredentialType:     c.CredentialType,
		CredentialOfferURL: c.CredentialOfferURL,
		OTP:                c.OTP,
		Claimed:            c.Claimed,
		ClaimedAt:          c.ClaimedAt,
		ExpiresAt:          c.ExpiresAt,
		Live:               c.IsLive(now),
	}
}

// IssueEmployeeCredential requests a fresh employee credential offer. Earlier
// live offers for the application are expired in the same transaction that
// stores the new one. A SIGNED application moves to ISSUING.
func (s *Service) IssueEmployeeCredential(ctx context.Context, applicationID string) (*Offer, error) {
	var result *Offer
	err := s.locker.WithLock(ctx, "application:"+applicationID, func(ctx context.Context) error {
		var err error
		result, err = s.issue(ctx, applicationID)
		return err
	})
	return result, err
}

func (s *Service) issue(ctx context.Context, applicationID string) (*Offer, error) {
	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.Status.CanIssue() {
		return nil, dErrors.New(dErrors.CodeInvalidStateTransition,
			fmt.Sprintf("cannot issue credential for application in status %s", app.Status))
	}
	now := requestcontext.Now(ctx)
	data, err := s.employeeData(app, now)
	if err != nil {
		return nil, err
	}

	// The backend call happens outside the transaction; an offer that never
	// gets stored simply goes unused.
	offer, err := s.issuer.RequestOffer(ctx, client.OfferRequest{
		CredentialConfigurationID: s.cfg.CredentialConfigurationID,
		Data:                      data,
	})
	if err != nil {
		return nil, err
	}

	var issued *models.IssuedCredential
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		superseded, err := s.offers.ExpireLive(ctx, app.ID, credentials.TypeEmployee, now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to expire previous offers")
		}
		issued, err = models.NewIssuedCredential(s.newID(), app.ID, credentials.TypeEmployee, models.Offer{
			PreAuthorizedCode: offer.PreAuthorizedCode,
			DeepLink:          offer.DeepLink,
			OTP:               offer.OTP,
			Data:              data,
		}, s.cfg.OfferTTL, superseded, now)
		if err != nil {
			return err
		}
		if err := s.offers.Create(ctx, issued); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "credential offer already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential offer")
		}
		if app.Status != appmodels.StatusSigned {
			return nil
		}
		if err := app.MarkAsIssuing(now); err != nil {
			return err
		}
		return s.saveApplication(ctx, app, appmodels.StatusSigned)
	})
	if errors.Is(err, sentinel.ErrConflict) {
		return nil, dErrors.New(dErrors.CodeConflict, "application changed during issuance")
	}
	if err != nil {
		return nil, err
	}

	s.metrics.IncOffersIssued()
	s.logger.InfoContext(ctx, "credential offer issued",
		"application_id", app.ID,
		"offer_id", issued.ID,
		"otp", issued.OTP != "",
	)
	s.dispatch(ctx, issued.PullEvents())
	return toOffer(issued, now), nil
}

func (s *Service) employeeData(app *appmodels.Application, now time.Time) (map[string]any, error) {
	data, err := app.BuildEmployeeCredentialData(now)
	if err != nil {
		return nil, err
	}
	if s.cfg.Employer != "" {
		data.Employer = s.cfg.Employer
	}
	if s.cfg.DefaultCountryCode != "" && app.Candidate.PrimaryNationality() == "" {
		data.CountryCode = s.cfg.DefaultCountryCode
	}
	return data.ToMap(), nil
}

// MarkOfferClaimed records the issuer's notification that the wallet redeemed
// the offer. Repeated notifications return the claimed offer without side
// effects.
func (s *Service) MarkOfferClaimed(ctx context.Context, preAuthorizedCode string) (*Offer, error) {
	if preAuthorizedCode == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "pre-authorized code is required")
	}
	var result *Offer
	err := s.locker.WithLock(ctx, "issuance:"+preAuthorizedCode, func(ctx context.Context) error {
		var err error
		result, err = s.markClaimed(ctx, preAuthorizedCode)
		return err
	})
	return result, err
}

func (s *Service) markClaimed(ctx context.Context, code string) (*Offer, error) {
	now := requestcontext.Now(ctx)
	offer, err := s.offers.FindByPreAuthorizedCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential offer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential offer")
	}
	if offer.Claimed {
		return toOffer(offer, now), nil
	}
	if !offer.IsLive(now) {
		s.logger.WarnContext(ctx, "claim notification for expired offer",
			"application_id", offer.ApplicationID,
			"offer_id", offer.ID,
		)
	}
	if err := offer.MarkAsClaimed(now); err != nil {
		return nil, err
	}

	lost := false
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.offers.Update(ctx, offer); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				lost = true
				return nil
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store claim")
		}
		return s.completeApplication(ctx, offer.ApplicationID, now)
	})
	if err != nil {
		return nil, err
	}
	if lost {
		current, err := s.offers.FindByID(ctx, offer.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential offer")
		}
		return toOffer(current, now), nil
	}
	s.dispatch(ctx, offer.PullEvents())
	return toOffer(offer, now), nil
}

func (s *Service) completeApplication(ctx context.Context, applicationID string, now time.Time) error {
	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if !app.Status.CanCompleteIssuance() {
		s.logger.WarnContext(ctx, "claimed offer for application not in issuance",
			"application_id", app.ID,
			"status", app.Status,
		)
		return nil
	}
	if err := app.MarkAsIssued(now); err != nil {
		return err
	}
	err = s.saveApplication(ctx, app, appmodels.StatusIssuing)
	if errors.Is(err, sentinel.ErrConflict) {
		return nil
	}
	return err
}

// GetOffer returns an offer of the application with its current liveness.
func (s *Service) GetOffer(ctx context.Context, applicationID, offerID string) (*Offer, error) {
	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential offer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential offer")
	}
	if offer.ApplicationID != applicationID {
		return nil, dErrors.New(dErrors.CodeNotFound, "credential offer not found")
	}
	return toOffer(offer, requestcontext.Now(ctx)), nil
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

// saveApplication returns sentinel.ErrConflict untouched.
func (s *Service) saveApplication(ctx context.Context, app *appmodels.Application, expected appmodels.Status) error {
	err := s.apps.Update(ctx, app, expected)
	switch {
	case err == nil:
		s.metrics.IncApplicationTransition(string(app.Status))
		return nil
	case errors.Is(err, sentinel.ErrConflict):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
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
