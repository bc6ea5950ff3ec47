package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"onboard/internal/credentials"
	"onboard/internal/events"
	"onboard/internal/verification/models"
	dErrors "onboard/pkg/domain-errors"
)

type VerifiedCredentialSuite struct {
	suite.Suite
	now time.Time
}

func TestVerifiedCredentialSuite(t *testing.T) {
	suite.Run(t, new(VerifiedCredentialSuite))
}

func (s *VerifiedCredentialSuite) SetupTest() {
	s.now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
}

func (s *VerifiedCredentialSuite) newCredential(t credentials.Type) *models.VerifiedCredential {
	c, err := models.NewVerifiedCredential("vc-1", "app-1", t, "tx-1", "https://verifier.example/r/tx-1", s.now)
	s.Require().NoError(err)
	return c
}

func (s *VerifiedCredentialSuite) TestConstruction() {
	s.Run("starts pending with namespace from type", func() {
		c := s.newCredential(credentials.TypeSeafarer)
		s.Equal(models.StatusPending, c.Status)
		s.Equal(credentials.NamespaceSeafarer, c.Namespace)
	})

	s.Run("requires transaction id and request uri", func() {
		_, err := models.NewVerifiedCredential("vc-1", "app-1", credentials.TypePID, "", "uri", s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		_, err = models.NewVerifiedCredential("vc-1", "app-1", credentials.TypePID, "tx", "", s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects types without a namespace", func() {
		_, err := models.NewVerifiedCredential("vc-1", "app-1", credentials.TypeEmployee, "tx", "uri", s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *VerifiedCredentialSuite) TestDiplomaVerificationRaisesOneEvent() {
	c := s.newCredential(credentials.TypeDiploma)

	s.Require().NoError(c.MarkAsVerified(map[string]any{"grade": "A"}, s.now))

	evts := c.PullEvents()
	s.Require().Len(evts, 1)
	qv, ok := evts[0].(events.QualificationVerified)
	s.Require().True(ok)
	s.Equal("DIPLOMA", qv.CredentialType)
	s.Equal("app-1", qv.ApplicationID)
	s.Equal(models.StatusVerified, c.Status)
	s.Equal("A", c.CredentialData["grade"])
	s.Require().NotNil(c.VerifiedAt)
	s.Empty(c.PullEvents(), "events are drained")
}

func (s *VerifiedCredentialSuite) TestPIDVerificationRaisesNothing() {
	c := s.newCredential(credentials.TypePID)
	s.Require().NoError(c.MarkAsVerified(map[string]any{"family_name": "Virtanen"}, s.now))
	s.Empty(c.PullEvents())
}

func (s *VerifiedCredentialSuite) TestTerminalStatesRejectCommands() {
	verified := s.newCredential(credentials.TypeSeafarer)
	s.Require().NoError(verified.MarkAsVerified(nil, s.now))
	failed := s.newCredential(credentials.TypeSeafarer)
	s.Require().NoError(failed.MarkAsFailed(models.ReasonSuperseded, s.now))
	s.Equal(models.ReasonSuperseded, failed.FailureReason)

	for name, c := range map[string]*models.VerifiedCredential{"verified": verified, "failed": failed} {
		s.Run(name, func() {
			s.True(dErrors.HasCode(c.MarkAsVerified(nil, s.now), dErrors.CodeInvariantViolation))
			s.True(dErrors.HasCode(c.MarkAsFailed("x", s.now), dErrors.CodeInvariantViolation))
		})
	}
}

func (s *VerifiedCredentialSuite) TestCloneDropsEventsAndCopiesData() {
	c := s.newCredential(credentials.TypeDiploma)
	s.Require().NoError(c.MarkAsVerified(map[string]any{"grade": "A"}, s.now))

	cp := c.Clone()
	cp.CredentialData["grade"] = "B"

	s.Empty(cp.PullEvents())
	s.Equal("A", c.CredentialData["grade"])
	s.Len(c.PullEvents(), 1)
}
