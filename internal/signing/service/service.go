// Package service runs the qualified electronic signature flow: it renders the
// contract, serves the signed retrieval request and document to the wallet,
// and validates the wallet's callback.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	appmodels "onboard/internal/application/models"
	"onboard/internal/claims"
	"onboard/internal/events"
	"onboard/internal/keystore"
	"onboard/internal/platform/lock"
	"onboard/internal/platform/metrics"
	"onboard/internal/signing/models"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/sentinel"
	txcontext "onboard/pkg/platform/tx"
	"onboard/pkg/requestcontext"
)

const (
	DefaultWalletScheme = "eudi-openid4vp://"
	DefaultRequestTTL   = 5 * time.Minute
	requestTokenType    = "oauth-authz-req+jwt"
)

type ApplicationStore interface {
	FindByID(ctx context.Context, id string) (*appmodels.Application, error)
	Update(ctx context.Context, app *appmodels.Application, expected appmodels.Status) error
}

type DocumentStore interface {
	Create(ctx context.Context, doc *models.SignedDocument) error
	Update(ctx context.Context, doc *models.SignedDocument) error
	FindByID(ctx context.Context, id string) (*models.SignedDocument, error)
	FindByState(ctx context.Context, state string) (*models.SignedDocument, error)
	Content(ctx context.Context, state string) ([]byte, string, error)
	ListByApplication(ctx context.Context, applicationID string) ([]*models.SignedDocument, error)
}

// Renderer produces the document to sign for an application.
type Renderer interface {
	Render(ctx context.Context, app *appmodels.Application) (models.Draft, error)
}

type EventDispatcher interface {
	Dispatch(ctx context.Context, evts ...events.Event) error
}

// Config holds the wallet-facing identity of the signing endpoint.
type Config struct {
	// ClientID is the x509_san_dns client id; it must match the certificate SAN.
	ClientID string
	// PublicBaseURL is where wallets reach the retrieval, document and
	// callback endpoints.
	PublicBaseURL string
	WalletScheme  string
	RequestTTL    time.Duration
}

type Service struct {
	apps       ApplicationStore
	documents  DocumentStore
	renderer   Renderer
	keys       keystore.Keystore
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

func New(apps ApplicationStore, documents DocumentStore, renderer Renderer, keys keystore.Keystore, dispatcher EventDispatcher, cfg Config, opts ...Option) *Service {
	if cfg.WalletScheme == "" {
		cfg.WalletScheme = DefaultWalletScheme
	}
	if cfg.RequestTTL <= 0 {
		cfg.RequestTTL = DefaultRequestTTL
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	s := &Service{
		apps:       apps,
		documents:  documents,
		renderer:   renderer,
		keys:       keys,
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

// Session is a started signing attempt.
type Session struct {
	ApplicationID string `json:"application_id"`
	DocumentID    string `json:"document_id"`
	State         string `json:"state"`
	DocumentHash  string `json:"document_hash"`
	RequestURI    string `json:"request_uri"`
	DeepLink      string `json:"deep_link"`
}

// Callback is the wallet's direct_post response.
type Callback struct {
	State                 string
	Error                 string
	VPToken               string
	DocumentWithSignature []string
	SignatureObject       []string
}

// Status answers a signing status poll.
type Status struct {
	ApplicationID     string           `json:"application_id"`
	ApplicationStatus appmodels.Status `json:"application_status"`
	DocumentID        string           `json:"document_id"`
	Status            models.Status    `json:"status"`
	ErrorCode         string           `json:"error_code,omitempty"`
}

// Document is the unsigned content served to the wallet.
type Document struct {
	Content     []byte
	ContentType string
	Label       string
}

func (s *Service) requestURI(state string) string {
	return s.cfg.PublicBaseURL + "/signing/requests/" + url.PathEscape(state)
}

func (s *Service) documentURI(state string) string {
	return s.cfg.PublicBaseURL + "/signing/documents/" + url.PathEscape(state)
}

func (s *Service) responseURI() string {
	return s.cfg.PublicBaseURL + "/signing/callback"
}

// DeepLink builds `<scheme>?request_uri=..&client_id=..`.
func (s *Service) DeepLink(requestURI string) string {
	q := url.Values{}
	q.Set("request_uri", requestURI)
	q.Set("client_id", s.cfg.ClientID)
	return s.cfg.WalletScheme + "?" + q.Encode()
}

// InitDocumentSigning renders the contract and opens a signing attempt. A
// FINALIZED application moves to SIGNING; a new attempt on a SIGNING
// application supersedes the pending one.
func (s *Service) InitDocumentSigning(ctx context.Context, applicationID string) (*Session, error) {
	var session *Session
	err := s.locker.WithLock(ctx, "application:"+applicationID, func(ctx context.Context) error {
		app, err := s.findApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if !app.Status.CanStartSigning() {
			return dErrors.New(dErrors.CodeInvalidStateTransition,
				fmt.Sprintf("cannot start signing of application in status %s", app.Status))
		}
		now := requestcontext.Now(ctx)
		expected := app.Status
		if app.Status == appmodels.StatusFinalized {
			if err := app.MarkAsSigning(now); err != nil {
				return err
			}
		}

		draft, err := s.renderer.Render(ctx, app)
		if err != nil {
			return err
		}
		doc, err := models.NewSignedDocument(s.newID(), app.ID, draft, s.newID(), s.newID(), now)
		if err != nil {
			return err
		}

		var raised []events.Event
		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			superseded, err := s.supersedePending(ctx, app.ID, now)
			if err != nil {
				return err
			}
			raised = superseded
			if err := s.documents.Create(ctx, doc); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record signing request")
			}
			if expected == app.Status {
				return nil
			}
			return s.saveApplication(ctx, app, expected)
		})
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "application changed while starting signing")
		}
		if err != nil {
			return err
		}
		s.dispatch(ctx, raised)

		requestURI := s.requestURI(doc.State)
		session = &Session{
			ApplicationID: app.ID,
			DocumentID:    doc.ID,
			State:         doc.State,
			DocumentHash:  doc.DocumentHash,
			RequestURI:    requestURI,
			DeepLink:      s.DeepLink(requestURI),
		}
		s.logger.InfoContext(ctx, "document signing started",
			"application_id", app.ID,
			"document_id", doc.ID,
			"document_type", doc.DocumentType,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) supersedePending(ctx context.Context, applicationID string, now time.Time) ([]events.Event, error) {
	docs, err := s.documents.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list signing requests")
	}
	var raised []events.Event
	for _, doc := range docs {
		if !doc.IsPending() {
			continue
		}
		if err := doc.MarkAsFailed(models.ErrorSuperseded, now); err != nil {
			return nil, err
		}
		if err := s.documents.Update(ctx, doc); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to supersede signing request")
		}
		raised = append(raised, doc.PullEvents()...)
	}
	return raised, nil
}

// RetrievalRequest returns the signed JWT a wallet fetches from request_uri.
func (s *Service) RetrievalRequest(ctx context.Context, state string) (string, error) {
	doc, err := s.findByState(ctx, state)
	if err != nil {
		return "", err
	}
	if !doc.IsPending() {
		return "", dErrors.New(dErrors.CodeConflict, "signing request is no longer pending")
	}
	material, err := s.keys.Material(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "signing key unavailable")
	}

	now := requestcontext.Now(ctx)
	token := jwt.NewWithClaims(jwt.SigningMethodES256, retrievalClaims{
		RetrievalRequest: doc.NewRetrievalRequest(s.cfg.ClientID, s.documentURI(state), s.responseURI()),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RequestTTL)),
		},
	})
	token.Header["typ"] = requestTokenType
	token.Header["x5c"] = []string{material.CertificateBase64}

	signed, err := token.SignedString(material.PrivateKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign retrieval request")
	}
	return signed, nil
}

type retrievalClaims struct {
	models.RetrievalRequest
	jwt.RegisteredClaims
}

// DocumentMetadata loads the signing attempt without its content.
func (s *Service) DocumentMetadata(ctx context.Context, state string) (*models.SignedDocument, error) {
	return s.findByState(ctx, state)
}

// DocumentContent loads the bytes to sign. Only pending attempts serve
// content.
func (s *Service) DocumentContent(ctx context.Context, state string) (*Document, error) {
	doc, err := s.findByState(ctx, state)
	if err != nil {
		return nil, err
	}
	if !doc.IsPending() {
		return nil, dErrors.New(dErrors.CodeConflict, "signing request is no longer pending")
	}
	content, contentType, err := s.documents.Content(ctx, state)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "signing request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document content")
	}
	return &Document{Content: content, ContentType: contentType, Label: doc.DocumentLabel}, nil
}

// SigningStatus reports the attempt and advances an application left in
// SIGNING next to an already SIGNED document.
func (s *Service) SigningStatus(ctx context.Context, applicationID, documentID string) (*Status, error) {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "signing request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load signing request")
	}
	if doc.ApplicationID != applicationID {
		return nil, dErrors.New(dErrors.CodeNotFound, "signing request not found")
	}
	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if doc.Status == models.StatusSigned && app.Status == appmodels.StatusSigning {
		if err := s.completeApplication(ctx, app); err != nil {
			return nil, err
		}
	}
	return &Status{
		ApplicationID:     app.ID,
		ApplicationStatus: app.Status,
		DocumentID:        doc.ID,
		Status:            doc.Status,
		ErrorCode:         doc.ErrorCode,
	}, nil
}

// ProcessSignedDocument validates the wallet callback in order: wallet error,
// VP token nonce, signature presence. A terminal attempt is returned
// unchanged.
func (s *Service) ProcessSignedDocument(ctx context.Context, cb Callback) (*models.SignedDocument, error) {
	if cb.State == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "state is required")
	}
	var result *models.SignedDocument
	err := s.locker.WithLock(ctx, "signing:"+cb.State, func(ctx context.Context) error {
		var err error
		result, err = s.processSignedDocument(ctx, cb)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) processSignedDocument(ctx context.Context, cb Callback) (*models.SignedDocument, error) {
	doc, err := s.findByState(ctx, cb.State)
	if err != nil {
		return nil, err
	}
	if !doc.IsPending() {
		s.logger.InfoContext(ctx, "signing callback for settled document ignored",
			"document_id", doc.ID,
			"status", doc.Status,
		)
		return doc, nil
	}

	now := requestcontext.Now(ctx)
	if code := s.validateCallback(ctx, doc, cb); code != "" {
		if err := doc.MarkAsFailed(code, now); err != nil {
			return nil, err
		}
	} else if err := doc.MarkAsSigned(cb.DocumentWithSignature, cb.SignatureObject, now); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.documents.Update(ctx, doc); err != nil {
			return err
		}
		if doc.Status != models.StatusSigned {
			return nil
		}
		return s.advanceApplication(ctx, doc.ApplicationID, now)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Settled concurrently by another instance.
			return s.findByState(ctx, cb.State)
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist signing result")
	}

	s.metrics.IncSigningOutcome(string(doc.Status), doc.ErrorCode)
	s.logger.InfoContext(ctx, "signing callback processed",
		"application_id", doc.ApplicationID,
		"document_id", doc.ID,
		"status", doc.Status,
		"error_code", doc.ErrorCode,
	)
	s.dispatch(ctx, doc.PullEvents())
	return doc, nil
}

// validateCallback returns the failure code for cb, or "" when the document
// may be marked signed.
func (s *Service) validateCallback(ctx context.Context, doc *models.SignedDocument, cb Callback) string {
	if cb.Error != "" {
		return cb.Error
	}
	if cb.VPToken != "" {
		payload, err := claims.DecodeJWTPayload(cb.VPToken)
		if err != nil {
			return models.ErrorInvalidVPToken
		}
		nonce, ok := payload["nonce"].(string)
		if !ok || nonce == "" {
			return models.ErrorInvalidVPToken
		}
		if subtle.ConstantTimeCompare([]byte(nonce), []byte(doc.Nonce)) != 1 {
			s.logger.WarnContext(ctx, "signing callback nonce mismatch",
				"document_id", doc.ID,
				"application_id", doc.ApplicationID,
			)
			return models.ErrorNonceMismatch
		}
	} else {
		s.logger.WarnContext(ctx, "signing callback without vp_token; nonce not checked",
			"document_id", doc.ID,
		)
	}
	if len(cb.DocumentWithSignature) == 0 && len(cb.SignatureObject) == 0 {
		return models.ErrorMissingSignature
	}
	return ""
}

// advanceApplication moves the owning application SIGNING -> SIGNED. Any other
// status, or losing the race to a concurrent writer, leaves it alone.
func (s *Service) advanceApplication(ctx context.Context, applicationID string, now time.Time) error {
	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.Status != appmodels.StatusSigning {
		s.logger.WarnContext(ctx, "document signed for application not in SIGNING",
			"application_id", app.ID,
			"status", app.Status,
		)
		return nil
	}
	if err := app.MarkAsSigned(now); err != nil {
		return err
	}
	if err := s.saveApplication(ctx, app, appmodels.StatusSigning); err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return err
	}
	return nil
}

func (s *Service) completeApplication(ctx context.Context, app *appmodels.Application) error {
	if err := app.MarkAsSigned(requestcontext.Now(ctx)); err != nil {
		return err
	}
	err := s.saveApplication(ctx, app, appmodels.StatusSigning)
	if errors.Is(err, sentinel.ErrConflict) {
		current, findErr := s.findApplication(ctx, app.ID)
		if findErr != nil {
			return findErr
		}
		*app = *current
		return nil
	}
	return err
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

func (s *Service) findByState(ctx context.Context, state string) (*models.SignedDocument, error) {
	doc, err := s.documents.FindByState(ctx, state)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "signing request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load signing request")
	}
	return doc, nil
}

// saveApplication returns sentinel.ErrConflict untouched so callers inside a
// transaction can tell a lost race from a failure.
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
