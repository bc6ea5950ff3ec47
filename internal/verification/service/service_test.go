package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	appmodels "onboard/internal/application/models"
	appstore "onboard/internal/application/store"
	"onboard/internal/claims"
	"onboard/internal/credentials"
	"onboard/internal/events"
	"onboard/internal/verification/client"
	"onboard/internal/verification/dcql"
	"onboard/internal/verification/models"
	"onboard/internal/verification/service/mocks"
	verificationstore "onboard/internal/verification/store"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/testutil"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Verifier
type VerificationServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	verifier *mocks.MockVerifier
	apps     *appstore.InMemory
	rows     *verificationstore.InMemory
	service  *Service
	now      time.Time

	mu     sync.Mutex
	events []events.Event
	seq    int
}

func TestVerificationServiceSuite(t *testing.T) {
	suite.Run(t, new(VerificationServiceSuite))
}

func (s *VerificationServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.verifier = mocks.NewMockVerifier(s.ctrl)
	s.apps = appstore.NewInMemory()
	s.rows = verificationstore.NewInMemory()
	s.now = testutil.FixedNow
	s.events = nil
	s.seq = 0

	dispatcher := events.NewDispatcher(events.WithLogger(testutil.DiscardLogger()))
	dispatcher.SubscribeAll(func(_ context.Context, e events.Event) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = append(s.events, e)
		return nil
	})

	s.service = New(s.apps, s.rows, s.verifier, dispatcher,
		WithLogger(testutil.DiscardLogger()),
		WithRedirectBaseURL("https://onboard.example/"),
		WithIDGenerator(func() string {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.seq++
			return fmt.Sprintf("id-%03d", s.seq)
		}),
	)
}

func (s *VerificationServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

// tick returns a context one second later than the previous call.
func (s *VerificationServiceSuite) tick() context.Context {
	s.now = s.now.Add(time.Second)
	return testutil.ContextAt(s.now)
}

func (s *VerificationServiceSuite) seedApplication(id string, status appmodels.Status) *appmodels.Application {
	app, err := appmodels.NewApplication(id, "vacancy-1", s.now)
	s.Require().NoError(err)
	app.Status = status
	if status != appmodels.StatusCreated && status != appmodels.StatusVerifying {
		app.Candidate = &appmodels.CandidateInfo{FamilyName: "Virtanen", GivenName: "Aino", DateOfBirth: "1990-04-12"}
	}
	s.Require().NoError(s.apps.Create(context.Background(), app))
	return app
}

func (s *VerificationServiceSuite) expectInit(txID string) {
	s.verifier.EXPECT().InitPresentation(gomock.Any(), gomock.Any()).
		Return(&client.Transaction{
			TransactionID: txID,
			ClientID:      "verifier.example",
			RequestURI:    "https://verifier.example/wallet/request.jwt/" + txID,
			DeepLink:      "eudi-openid4vp://?client_id=verifier.example&request_uri=x",
		}, nil)
}

func (s *VerificationServiceSuite) application(id string) *appmodels.Application {
	app, err := s.apps.FindByID(context.Background(), id)
	s.Require().NoError(err)
	return app
}

func (s *VerificationServiceSuite) applicationRows(id string) []*models.VerifiedCredential {
	rows, err := s.rows.ListByApplication(context.Background(), id)
	s.Require().NoError(err)
	return rows
}

func (s *VerificationServiceSuite) eventNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.events))
	for _, e := range s.events {
		names = append(names, e.Name())
	}
	return names
}

func pidClaims() claims.Claims {
	return claims.Claims{
		"family_name":         "Virtanen",
		"given_name":          "Aino",
		"birth_date":          map[string]any{"value": "1990-04-12"},
		"nationality":         []any{map[string]any{"country_code": "fi"}},
		"email_address":       "aino@example.fi",
		"mobile_phone_number": "+358401234567",
	}
}

func (s *VerificationServiceSuite) TestStartIdentityVerification() {
	s.Run("opens a PID transaction and moves the application to VERIFYING", func() {
		s.SetupTest()
		s.seedApplication("app-1", appmodels.StatusCreated)
		s.verifier.EXPECT().InitPresentation(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req dcql.PresentationRequest) (*client.Transaction, error) {
				s.Require().Len(req.DCQLQuery.Credentials, 1)
				s.Equal("pid", req.DCQLQuery.Credentials[0].ID)
				s.Equal("https://onboard.example/applications/app-1/identity?response_code={RESPONSE_CODE}", req.WalletResponseRedirectURITemplate)
				return &client.Transaction{TransactionID: "tx-1", RequestURI: "https://verifier.example/r/tx-1", DeepLink: "eudi-openid4vp://?x"}, nil
			})

		session, err := s.service.StartIdentityVerification(s.tick(), "app-1", true)
		s.Require().NoError(err)
		s.Equal("tx-1", session.TransactionID)
		s.Equal("eudi-openid4vp://?x", session.DeepLink)
		s.True(session.SameDevice)

		s.Equal(appmodels.StatusVerifying, s.application("app-1").Status)
		rows := s.applicationRows("app-1")
		s.Require().Len(rows, 1)
		s.Equal(models.StatusPending, rows[0].Status)
		s.Equal("tx-1", rows[0].VerifierTransactionID)
		s.Equal(credentials.NamespacePID, rows[0].Namespace)
	})

	s.Run("cross-device flow carries no redirect template", func() {
		s.SetupTest()
		s.seedApplication("app-1", appmodels.StatusCreated)
		s.verifier.EXPECT().InitPresentation(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req dcql.PresentationRequest) (*client.Transaction, error) {
				s.Empty(req.WalletResponseRedirectURITemplate)
				return &client.Transaction{TransactionID: "tx-1", RequestURI: "https://verifier.example/r/tx-1"}, nil
			})

		_, err := s.service.StartIdentityVerification(s.tick(), "app-1", false)
		s.Require().NoError(err)
	})

	s.Run("guard violation never reaches the verifier", func() {
		s.SetupTest()
		s.seedApplication("app-1", appmodels.StatusVerified)

		_, err := s.service.StartIdentityVerification(s.tick(), "app-1", false)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))
		s.Empty(s.applicationRows("app-1"))
	})

	s.Run("unknown application is not found", func() {
		s.SetupTest()
		_, err := s.service.StartIdentityVerification(s.tick(), "missing", false)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("verifier failure leaves the application untouched", func() {
		s.SetupTest()
		s.seedApplication("app-1", appmodels.StatusCreated)
		s.verifier.EXPECT().InitPresentation(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeBadGateway, "verifier unavailable"))

		_, err := s.service.StartIdentityVerification(s.tick(), "app-1", false)
		s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))
		s.Equal(appmodels.StatusCreated, s.application("app-1").Status)
		s.Empty(s.applicationRows("app-1"))
	})
}

func (s *VerificationServiceSuite) startIdentity(appID, txID string) {
	s.seedApplication(appID, appmodels.StatusCreated)
	s.expectInit(txID)
	_, err := s.service.StartIdentityVerification(s.tick(), appID, false)
	s.Require().NoError(err)
}

func (s *VerificationServiceSuite) TestCheckIdentityVerification() {
	s.Run("wallet has not answered yet", func() {
		s.SetupTest()
		s.startIdentity("app-1", "tx-1")
		s.verifier.EXPECT().PollPresentation(gomock.Any(), "tx-1", "").Return(&client.PollResult{Ready: false}, nil)

		st, err := s.service.CheckIdentityVerification(s.tick(), "app-1", "")
		s.Require().NoError(err)
		s.False(st.Complete)
		s.Empty(st.Error)
		s.Equal(appmodels.StatusVerifying, st.ApplicationStatus)
		s.Require().Len(st.Credentials, 1)
		s.Equal(models.StatusPending, st.Credentials[0].Status)
		s.Empty(s.eventNames())
	})

	s.Run("verified PID completes the application exactly once", func() {
		s.SetupTest()
		s.startIdentity("app-1", "tx-1")
		s.verifier.EXPECT().PollPresentation(gomock.Any(), "tx-1", "code-1").Return(&client.PollResult{
			Ready:        true,
			Presentation: claims.Presentation{credentials.NamespacePID: pidClaims()},
			Entries:      1,
		}, nil).Times(1)

		st, err := s.service.CheckIdentityVerification(s.tick(), "app-1", "code-1")
		s.Require().NoError(err)
		s.True(st.Complete)
		s.Equal(appmodels.StatusVerified, st.ApplicationStatus)

		app := s.application("app-1")
		s.Equal(appmodels.StatusVerified, app.Status)
		s.Require().NotNil(app.Candidate)
		s.Equal("Virtanen", app.Candidate.FamilyName)
		s.Equal("1990-04-12", app.Candidate.DateOfBirth)
		s.Equal("FI", app.Candidate.Nationality)
		s.Equal([]string{events.NameApplicationVerified}, s.eventNames())

		// Re-polling a settled transaction neither calls the verifier nor raises events.
		st, err = s.service.CheckIdentityVerification(s.tick(), "app-1", "code-1")
		s.Require().NoError(err)
		s.True(st.Complete)
		s.Equal([]string{events.NameApplicationVerified}, s.eventNames())
	})

	s.Run("application left VERIFYING next to a verified PID is completed", func() {
		s.SetupTest()
		s.seedApplication("app-1", appmodels.StatusVerifying)
		row, err := models.NewVerifiedCredential("row-1", "app-1", credentials.TypePID, "tx-1", "https://verifier.example/r", s.now)
		s.Require().NoError(err)
		s.Require().NoError(row.MarkAsVerified(pidClaims(), s.now))
		s.Require().NoError(s.rows.Create(context.Background(), row))

		st, err := s.service.CheckIdentityVerification(s.tick(), "app-1", "")
		s.Require().NoError(err)
		s.Equal(appmodels.StatusVerified, st.ApplicationStatus)
		s.Equal(appmodels.StatusVerified, s.application("app-1").Status)
		s.Equal([]string{events.NameApplicationVerified}, s.eventNames())
	})

	s.Run("unusable PID data flags the application as ERROR", func() {
		s.SetupTest()
		s.startIdentity("app-1", "tx-1")
		bad := pidClaims()
		bad["birth_date"] = "not-a-date"
		s.verifier.EXPECT().PollPresentation(gomock.Any(), "tx-1", "").Return(&client.PollResult{
			Ready:        true,
			Presentation: claims.Presentation{credentials.NamespacePID: bad},
		}, nil)

		st, err := s.service.CheckIdentityVerification(s.tick(), "app-1", "")
		s.Require().NoError(err)
		s.Equal(appmodels.StatusError, st.ApplicationStatus)
		s.Nil(s.application("app-1").Candidate)
		s.Empty(s.eventNames())
	})

	s.Run("backend failure is reported as an outcome", func() {
		s.SetupTest()
		s.startIdentity("app-1", "tx-1")
		s.verifier.EXPECT().PollPresentation(gomock.Any(), "tx-1", "").
			Return(nil, dErrors.New(dErrors.CodeBadGateway, "verifier returned status 502"))

		st, err := s.service.CheckIdentityVerification(s.tick(), "app-1", "")
		s.Require().NoError(err)
		s.Contains(st.Error, "502")
		s.False(st.Complete)
		s.Equal(appmodels.StatusVerifying, s.application("app-1").Status)
	})

	s.Run("not started", func() {
		s.SetupTest()
		s.seedApplication("app-1", appmodels.StatusCreated)
		_, err := s.service.CheckIdentityVerification(s.tick(), "app-1", "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *VerificationServiceSuite) TestRequestQualifications() {
	s.Run("rejects types that are not qualifications", func() {
		s.SetupTest()
		s.seedApplication("app-1", appmodels.StatusVerified)
		for _, types := range [][]credentials.Type{nil, {credentials.TypePID}, {credentials.TypeTaxResidency}, {credentials.TypeDiploma, credentials.TypeEmployee}} {
			_, err := s.service.RequestQualifications(s.tick(), "app-1", types, false)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "types %v", types)
		}
		s.Equal(appmodels.StatusVerified, s.application("app-1").Status)
	})

	s.Run("one transaction covers every requested type", func() {
		s.SetupTest()
		s.seedApplication("app-1", appmodels.StatusVerified)
		s.verifier.EXPECT().InitPresentation(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req dcql.PresentationRequest) (*client.Transaction, error) {
				s.Len(req.DCQLQuery.Credentials, 2)
				return &client.Transaction{TransactionID: "tx-q", RequestURI: "https://verifier.example/r/tx-q"}, nil
			})

		session, err := s.service.RequestQualifications(s.tick(), "app-1",
			[]credentials.Type{credentials.TypeDiploma, credentials.TypeSeafarer, credentials.TypeDiploma}, false)
		s.Require().NoError(err)
		s.Equal([]credentials.Type{credentials.TypeDiploma, credentials.TypeSeafarer}, session.CredentialTypes)
		s.Equal(appmodels.StatusQualifying, s.application("app-1").Status)

		rows := s.applicationRows("app-1")
		s.Require().Len(rows, 2)
		for _, row := range rows {
			s.Equal("tx-q", row.VerifierTransactionID)
			s.Equal(models.StatusPending, row.Status)
		}
	})

	s.Run("earlier pending qualification rows are superseded", func() {
		s.SetupTest()
		s.seedApplication("app-1", appmodels.StatusVerified)
		stale, err := models.NewVerifiedCredential("stale", "app-1", credentials.TypeSeafarer, "tx-old", "https://verifier.example/r/old", s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.rows.Create(context.Background(), stale))
		s.expectInit("tx-new")

		_, err = s.service.RequestQualifications(s.tick(), "app-1", []credentials.Type{credentials.TypeDiploma}, false)
		s.Require().NoError(err)

		pending := 0
		for _, row := range s.applicationRows("app-1") {
			switch row.ID {
			case "stale":
				s.Equal(models.StatusFailed, row.Status)
				s.Equal(models.ReasonSuperseded, row.FailureReason)
			default:
				s.Equal(models.StatusPending, row.Status)
				pending++
			}
		}
		s.Equal(1, pending)
	})

	s.Run("requires a VERIFIED application", func() {
		s.SetupTest()
		s.seedApplication("app-1", appmodels.StatusFinalized)
		_, err := s.service.RequestQualifications(s.tick(), "app-1", []credentials.Type{credentials.TypeDiploma}, false)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))
	})
}

func (s *VerificationServiceSuite) requestQualifications(appID, txID string, types ...credentials.Type) {
	s.seedApplication(appID, appmodels.StatusVerified)
	s.expectInit(txID)
	_, err := s.service.RequestQualifications(s.tick(), appID, types, false)
	s.Require().NoError(err)
}

func (s *VerificationServiceSuite) TestCheckQualifications() {
	s.Run("a verified diploma raises one QualificationVerified", func() {
		s.SetupTest()
		s.requestQualifications("app-1", "tx-q", credentials.TypeDiploma)
		s.verifier.EXPECT().PollPresentation(gomock.Any(), "tx-q", "").Return(&client.PollResult{
			Ready:        true,
			Presentation: claims.Presentation{credentials.NamespaceDiploma: {"title": "Master Mariner"}},
		}, nil).Times(1)

		st, err := s.service.CheckQualifications(s.tick(), "app-1", "")
		s.Require().NoError(err)
		s.True(st.Complete)
		s.Equal(appmodels.StatusQualified, st.ApplicationStatus)
		s.Equal(appmodels.StatusQualified, s.application("app-1").Status)
		s.Equal([]string{events.NameQualificationVerified}, s.eventNames())

		rows := s.applicationRows("app-1")
		s.Require().Len(rows, 1)
		s.Equal("Master Mariner", rows[0].CredentialData["title"])

		_, err = s.service.CheckQualifications(s.tick(), "app-1", "")
		s.Require().NoError(err)
		s.Len(s.eventNames(), 1)
	})

	s.Run("partial answer keeps the application QUALIFYING", func() {
		s.SetupTest()
		s.requestQualifications("app-1", "tx-q", credentials.TypeDiploma, credentials.TypeSeafarer)
		s.verifier.EXPECT().PollPresentation(gomock.Any(), "tx-q", "").Return(&client.PollResult{
			Ready: true,
			Presentation: claims.Presentation{
				credentials.NamespaceDiploma: {"title": "Master Mariner"},
				"org.example.unknown":        {"x": "y"},
			},
		}, nil)

		st, err := s.service.CheckQualifications(s.tick(), "app-1", "")
		s.Require().NoError(err)
		s.False(st.Complete)
		s.Equal(appmodels.StatusQualifying, st.ApplicationStatus)
		s.Equal([]string{events.NameQualificationVerified}, s.eventNames())
	})

	s.Run("both credentials verify together", func() {
		s.SetupTest()
		s.requestQualifications("app-1", "tx-q", credentials.TypeDiploma, credentials.TypeSeafarer)
		s.verifier.EXPECT().PollPresentation(gomock.Any(), "tx-q", "").Return(&client.PollResult{
			Ready: true,
			Presentation: claims.Presentation{
				credentials.NamespaceDiploma:  {"title": "Master Mariner"},
				credentials.NamespaceSeafarer: {"certificate": "STCW II/2"},
			},
		}, nil)

		st, err := s.service.CheckQualifications(s.tick(), "app-1", "")
		s.Require().NoError(err)
		s.True(st.Complete)
		s.Equal(appmodels.StatusQualified, s.application("app-1").Status)
		s.Equal([]string{events.NameQualificationVerified, events.NameQualificationVerified}, s.eventNames())
	})

	s.Run("row cancelled during the poll reports the stored state", func() {
		s.SetupTest()
		s.requestQualifications("app-1", "tx-q", credentials.TypeDiploma)
		s.verifier.EXPECT().PollPresentation(gomock.Any(), "tx-q", "").
			DoAndReturn(func(ctx context.Context, _, _ string) (*client.PollResult, error) {
				rows, err := s.rows.ListByTransaction(ctx, "tx-q")
				s.Require().NoError(err)
				s.Require().Len(rows, 1)
				s.Require().NoError(rows[0].MarkAsFailed(models.ReasonCancelled, s.now))
				s.Require().NoError(s.rows.Update(ctx, rows[0]))
				return &client.PollResult{
					Ready:        true,
					Presentation: claims.Presentation{credentials.NamespaceDiploma: {"title": "Master Mariner"}},
				}, nil
			})

		st, err := s.service.CheckQualifications(s.tick(), "app-1", "")
		s.Require().NoError(err)
		s.False(st.Complete)
		s.Require().Len(st.Credentials, 1)
		s.Equal(models.StatusFailed, st.Credentials[0].Status)
		s.Equal(models.ReasonCancelled, st.Credentials[0].FailureReason)
		s.Equal(appmodels.StatusQualifying, s.application("app-1").Status)
		s.Empty(s.eventNames())

		rows := s.applicationRows("app-1")
		s.Require().Len(rows, 1)
		s.Equal(models.StatusFailed, rows[0].Status)
	})
}

func (s *VerificationServiceSuite) TestCancelQualifications() {
	s.SetupTest()
	s.requestQualifications("app-1", "tx-q", credentials.TypeDiploma)

	s.Require().NoError(s.service.CancelQualifications(s.tick(), "app-1"))

	s.Equal(appmodels.StatusVerified, s.application("app-1").Status)
	rows := s.applicationRows("app-1")
	s.Require().Len(rows, 1)
	s.Equal(models.StatusFailed, rows[0].Status)
	s.Equal(models.ReasonCancelled, rows[0].FailureReason)

	err := s.service.CancelQualifications(s.tick(), "app-1")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))
}

func (s *VerificationServiceSuite) TestTaxResidency() {
	s.Run("not allowed before signing", func() {
		s.SetupTest()
		s.seedApplication("app-1", appmodels.StatusQualified)
		_, err := s.service.RequestTaxResidency(s.tick(), "app-1", false)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))
	})

	s.Run("signed application proves tax residency without moving", func() {
		s.SetupTest()
		s.seedApplication("app-1", appmodels.StatusSigned)
		s.expectInit("tx-t")
		_, err := s.service.RequestTaxResidency(s.tick(), "app-1", true)
		s.Require().NoError(err)
		s.Equal(appmodels.StatusSigned, s.application("app-1").Status)

		s.verifier.EXPECT().PollPresentation(gomock.Any(), "tx-t", "rc").Return(&client.PollResult{
			Ready:        true,
			Presentation: claims.Presentation{credentials.NamespaceTaxResidency: {"country": "FI"}},
		}, nil)
		st, err := s.service.CheckTaxResidency(s.tick(), "app-1", "rc")
		s.Require().NoError(err)
		s.True(st.Complete)
		s.Equal(appmodels.StatusSigned, st.ApplicationStatus)
		s.Equal([]string{events.NameQualificationVerified}, s.eventNames())
	})
}

func (s *VerificationServiceSuite) TestCheckTransactionConcurrentPolls() {
	s.SetupTest()
	s.requestQualifications("app-1", "tx-q", credentials.TypeDiploma)
	s.verifier.EXPECT().PollPresentation(gomock.Any(), "tx-q", "").Return(&client.PollResult{
		Ready:        true,
		Presentation: claims.Presentation{credentials.NamespaceDiploma: {"title": "Master Mariner"}},
	}, nil).Times(1)

	ctx := s.tick()
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.service.CheckTransaction(ctx, "tx-q", ""); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}
	s.Equal([]string{events.NameQualificationVerified}, s.eventNames())
}

func TestCheckTransactionUnknown(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := New(appstore.NewInMemory(), verificationstore.NewInMemory(), mocks.NewMockVerifier(ctrl), nil,
		WithLogger(testutil.DiscardLogger()))

	_, err := svc.CheckTransaction(testutil.Context(), "tx-missing", "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = svc.CheckTransaction(testutil.Context(), "", "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestLatestTransactionPrefersNewest(t *testing.T) {
	base := testutil.FixedNow
	mk := func(id, tx string, status models.Status, at time.Time) *models.VerifiedCredential {
		return &models.VerifiedCredential{ID: id, VerifierTransactionID: tx, CredentialType: credentials.TypeDiploma, Status: status, CreatedAt: at}
	}
	rows := []*models.VerifiedCredential{
		mk("a", "tx-1", models.StatusFailed, base),
		mk("b", "tx-2", models.StatusPending, base.Add(time.Minute)),
		mk("c", "tx-1", models.StatusFailed, base),
	}
	txID, got := latestTransaction(rows, qualificationTypes)
	assert.Equal(t, "tx-2", txID)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	txID, _ = latestTransaction(rows, isType(credentials.TypePID))
	assert.Empty(t, txID)
}
