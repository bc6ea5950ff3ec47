package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	appmodels "onboard/internal/application/models"
	"onboard/internal/credentials"
	"onboard/internal/verification/handler/mocks"
	"onboard/internal/verification/service"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type VerificationHandlerSuite struct {
	suite.Suite
}

func TestVerificationHandlerSuite(t *testing.T) {
	suite.Run(t, new(VerificationHandlerSuite))
}

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(svc, testutil.DiscardLogger()).Register(r)
	return r, svc
}

const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

func (s *VerificationHandlerSuite) TestStartIdentity() {
	s.Run("mobile browser selects the same-device flow", func() {
		router, svc := newTestRouter(s.T())
		svc.EXPECT().StartIdentityVerification(gomock.Any(), "app-1", true).
			Return(&service.Session{ApplicationID: "app-1", TransactionID: "tx-1", DeepLink: "eudi-openid4vp://?x", SameDevice: true}, nil)

		req := httptest.NewRequest(http.MethodPost, "/applications/app-1/verification", nil)
		req.Header.Set("User-Agent", iphoneUA)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		s.Equal(http.StatusCreated, w.Code)
		var body map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Equal("tx-1", body["transaction_id"])
		s.Equal(true, body["same_device"])
	})

	s.Run("query parameter overrides the user agent", func() {
		router, svc := newTestRouter(s.T())
		svc.EXPECT().StartIdentityVerification(gomock.Any(), "app-1", false).
			Return(&service.Session{ApplicationID: "app-1"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/applications/app-1/verification?same_device=false", nil)
		req.Header.Set("User-Agent", iphoneUA)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		s.Equal(http.StatusCreated, w.Code)
	})

	s.Run("guard violation maps to 409", func() {
		router, svc := newTestRouter(s.T())
		svc.EXPECT().StartIdentityVerification(gomock.Any(), "app-1", false).
			Return(nil, dErrors.New(dErrors.CodeInvalidStateTransition, "cannot start verification of application in status VERIFIED"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/applications/app-1/verification", nil))

		s.Equal(http.StatusConflict, w.Code)
		s.Contains(w.Body.String(), "invalid_state_transition")
	})
}

func (s *VerificationHandlerSuite) TestIdentityStatus() {
	router, svc := newTestRouter(s.T())
	svc.EXPECT().CheckIdentityVerification(gomock.Any(), "app-1", "rc-9").
		Return(&service.Status{ApplicationID: "app-1", ApplicationStatus: appmodels.StatusVerified, Complete: true}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/applications/app-1/verification/status?response_code=rc-9", nil))

	s.Equal(http.StatusOK, w.Code)
	var body map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("VERIFIED", body["application_status"])
	s.Equal(true, body["complete"])
}

func (s *VerificationHandlerSuite) TestRequestQualifications() {
	s.Run("parses credential types", func() {
		router, svc := newTestRouter(s.T())
		svc.EXPECT().RequestQualifications(gomock.Any(), "app-1",
			[]credentials.Type{credentials.TypeDiploma, credentials.TypeSeafarer}, false).
			Return(&service.Session{ApplicationID: "app-1", TransactionID: "tx-q"}, nil)

		body := bytes.NewBufferString(`{"types":["diploma","SEAFARER"]}`)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/applications/app-1/qualifications", body))
		s.Equal(http.StatusCreated, w.Code)
	})

	s.Run("unknown type is a validation error", func() {
		router, _ := newTestRouter(s.T())
		body := bytes.NewBufferString(`{"types":["passport"]}`)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/applications/app-1/qualifications", body))
		s.Equal(http.StatusBadRequest, w.Code)
		s.Contains(w.Body.String(), "validation_error")
	})

	s.Run("malformed body", func() {
		router, _ := newTestRouter(s.T())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/applications/app-1/qualifications", bytes.NewBufferString(`{`)))
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *VerificationHandlerSuite) TestCancelAndTaxResidency() {
	router, svc := newTestRouter(s.T())
	svc.EXPECT().CancelQualifications(gomock.Any(), "app-1").Return(nil)
	svc.EXPECT().RequestTaxResidency(gomock.Any(), "app-2", false).
		Return(nil, dErrors.New(dErrors.CodeInvalidStateTransition, "cannot request tax residency for application in status VERIFIED"))
	svc.EXPECT().CheckTaxResidency(gomock.Any(), "app-3", "").
		Return(nil, dErrors.New(dErrors.CodeNotFound, "tax residency verification has not been requested"))
	svc.EXPECT().CheckQualifications(gomock.Any(), "app-4", "").
		Return(nil, dErrors.New(dErrors.CodeInternal, "failed to list verification requests"))

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodPost, "/applications/app-1/qualifications/cancel", http.StatusNoContent},
		{http.MethodPost, "/applications/app-2/tax-residency", http.StatusConflict},
		{http.MethodGet, "/applications/app-3/tax-residency/status", http.StatusNotFound},
		{http.MethodGet, "/applications/app-4/qualifications/status", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(s.T(), tc.want, w.Code, tc.path)
	}
}

func TestInternalErrorsHideDetails(t *testing.T) {
	router, svc := newTestRouter(t)
	svc.EXPECT().CheckQualifications(gomock.Any(), "app-1", "").
		Return(nil, dErrors.New(dErrors.CodeInternal, "pq: connection refused"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/applications/app-1/qualifications/status", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
