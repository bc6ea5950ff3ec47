package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"onboard/internal/application/models"
	"onboard/internal/application/store"
	"onboard/internal/audit"
	auditstore "onboard/internal/audit/store"
	"onboard/internal/credentials"
	issuancemodels "onboard/internal/issuance/models"
	issuancestore "onboard/internal/issuance/store"
	signingstore "onboard/internal/signing/store"
	verificationmodels "onboard/internal/verification/models"
	verificationstore "onboard/internal/verification/store"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/requestcontext"
	"onboard/pkg/testutil"
)

type failingLister struct{}

func (failingLister) ListByApplication(context.Context, string) ([]*verificationmodels.VerifiedCredential, error) {
	return nil, errors.New("connection reset")
}

type ApplicationServiceSuite struct {
	suite.Suite
	apps    *store.InMemory
	creds   *verificationstore.InMemory
	offers  *issuancestore.InMemory
	trail   *audit.Publisher
	service *Service
	now     time.Time
	ids     int
}

func TestApplicationServiceSuite(t *testing.T) {
	suite.Run(t, new(ApplicationServiceSuite))
}

func (s *ApplicationServiceSuite) SetupTest() {
	s.apps = store.NewInMemory()
	s.creds = verificationstore.NewInMemory()
	s.offers = issuancestore.NewInMemory()
	s.trail = audit.NewPublisher(auditstore.NewInMemory())
	s.now = testutil.FixedNow
	s.ids = 0
	s.service = New(s.apps, s.creds, signingstore.NewInMemory(), s.offers, s.trail,
		WithLogger(testutil.DiscardLogger()),
		WithIDGenerator(func() string {
			s.ids++
			return fmt.Sprintf("app-%d", s.ids)
		}),
	)
}

func (s *ApplicationServiceSuite) ctx() context.Context {
	s.now = s.now.Add(time.Second)
	return requestcontext.WithRequestID(testutil.ContextAt(s.now), "req-1")
}

func (s *ApplicationServiceSuite) withStatus(status models.Status) *models.Application {
	app, err := s.service.Create(s.ctx(), "vacancy-1")
	s.Require().NoError(err)
	app.Status = status
	s.Require().NoError(s.apps.Update(context.Background(), app, models.StatusCreated))
	return app
}

func (s *ApplicationServiceSuite) TestCreate() {
	app, err := s.service.Create(s.ctx(), "  vacancy-7 ")
	s.Require().NoError(err)
	s.Equal("app-1", app.ID)
	s.Equal("vacancy-7", app.VacancyID)
	s.Equal(models.StatusCreated, app.Status)

	found, err := s.service.Get(s.ctx(), "app-1")
	s.Require().NoError(err)
	s.Equal(app.CreatedAt, found.CreatedAt)

	_, err = s.service.Create(s.ctx(), " ")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = s.service.Get(s.ctx(), "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ApplicationServiceSuite) TestFinalise() {
	s.Run("from VERIFIED", func() {
		s.SetupTest()
		app := s.withStatus(models.StatusVerified)
		finalised, err := s.service.Finalise(s.ctx(), app.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusFinalized, finalised.Status)
	})

	s.Run("from QUALIFIED", func() {
		s.SetupTest()
		app := s.withStatus(models.StatusQualified)
		_, err := s.service.Finalise(s.ctx(), app.ID)
		s.Require().NoError(err)
	})

	s.Run("guard", func() {
		s.SetupTest()
		app := s.withStatus(models.StatusQualifying)
		_, err := s.service.Finalise(s.ctx(), app.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))

		stored, err := s.service.Get(s.ctx(), app.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusQualifying, stored.Status)
	})
}

func (s *ApplicationServiceSuite) TestOperatorActions() {
	s.Run("reject is recorded with its reason", func() {
		s.SetupTest()
		app := s.withStatus(models.StatusSigning)
		rejected, err := s.service.Reject(s.ctx(), app.ID, " failed background check ")
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, rejected.Status)

		entries, err := s.trail.List(context.Background(), app.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal("application_rejected", entries[0].Action)
		s.Equal("SIGNING", entries[0].Subject)
		s.Equal("REJECTED", entries[0].Decision)
		s.Equal("failed background check", entries[0].Reason)
		s.Equal("req-1", entries[0].RequestID)
	})

	s.Run("archived applications accept no further actions", func() {
		s.SetupTest()
		app := s.withStatus(models.StatusIssued)
		_, err := s.service.Archive(s.ctx(), app.ID, "")
		s.Require().NoError(err)

		_, err = s.service.MarkAsError(s.ctx(), app.ID, "late failure")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))
		_, err = s.service.Archive(s.ctx(), app.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))
	})

	s.Run("same state is not a transition", func() {
		s.SetupTest()
		app := s.withStatus(models.StatusError)
		_, err := s.service.MarkAsError(s.ctx(), app.ID, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))
	})

	s.Run("oversized reason", func() {
		s.SetupTest()
		app := s.withStatus(models.StatusCreated)
		_, err := s.service.Reject(s.ctx(), app.ID, strings.Repeat("x", 501))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown application", func() {
		s.SetupTest()
		_, err := s.service.Reject(s.ctx(), "missing", "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ApplicationServiceSuite) TestOverview() {
	app := s.withStatus(models.StatusIssuing)
	cred, err := verificationmodels.NewVerifiedCredential("vc-1", app.ID, credentials.TypePID, "tx-1", "https://verifier/req", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.creds.Create(context.Background(), cred))
	offer, err := issuancemodels.NewIssuedCredential("offer-1", app.ID, credentials.TypeEmployee, issuancemodels.Offer{
		PreAuthorizedCode: "pac-1",
		DeepLink:          "openid-credential-offer://?credential_offer=x",
	}, time.Hour, 0, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.offers.Create(context.Background(), offer))
	_, err = s.service.Reject(s.ctx(), app.ID, "duplicate candidate")
	s.Require().NoError(err)

	overview, err := s.service.Overview(s.ctx(), app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, overview.Application.Status)
	s.Len(overview.Credentials, 1)
	s.Empty(overview.Documents)
	s.Len(overview.Offers, 1)
	s.Len(overview.Audit, 1)

	_, err = s.service.Overview(s.ctx(), "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ApplicationServiceSuite) TestOverviewFailsWhenAListFails() {
	svc := New(s.apps, failingLister{}, signingstore.NewInMemory(), s.offers, nil, WithLogger(testutil.DiscardLogger()))
	app := s.withStatus(models.StatusCreated)

	_, err := svc.Overview(s.ctx(), app.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
