package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"onboard/internal/credentials"
	"onboard/internal/verification/service"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/httputil"
	"onboard/pkg/platform/middleware/device"
	request "onboard/pkg/platform/middleware/request"
)

// Service defines the verification operations exposed over HTTP.
type Service interface {
	StartIdentityVerification(ctx context.Context, applicationID string, sameDevice bool) (*service.Session, error)
	CheckIdentityVerification(ctx context.Context, applicationID, responseCode string) (*service.Status, error)
	RequestQualifications(ctx context.Context, applicationID string, types []credentials.Type, sameDevice bool) (*service.Session, error)
	CheckQualifications(ctx context.Context, applicationID, responseCode string) (*service.Status, error)
	CancelQualifications(ctx context.Context, applicationID string) error
	RequestTaxResidency(ctx context.Context, applicationID string, sameDevice bool) (*service.Session, error)
	CheckTaxResidency(ctx context.Context, applicationID, responseCode string) (*service.Status, error)
}

// Handler serves the candidate-facing verification endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the routes under /applications/{id}.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications/{id}/verification", h.handleStartIdentity)
	r.Get("/applications/{id}/verification/status", h.handleIdentityStatus)
	r.Post("/applications/{id}/qualifications", h.handleRequestQualifications)
	r.Get("/applications/{id}/qualifications/status", h.handleQualificationStatus)
	r.Post("/applications/{id}/qualifications/cancel", h.handleCancelQualifications)
	r.Post("/applications/{id}/tax-residency", h.handleRequestTaxResidency)
	r.Get("/applications/{id}/tax-residency/status", h.handleTaxResidencyStatus)
}

type qualificationsRequest struct {
	Types []string `json:"types"`
}

func (h *Handler) handleStartIdentity(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.StartIdentityVerification(r.Context(), chi.URLParam(r, "id"), device.SameDevice(r))
	if err != nil {
		h.fail(w, r, "start identity verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleIdentityStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.CheckIdentityVerification(r.Context(), chi.URLParam(r, "id"), responseCode(r))
	if err != nil {
		h.fail(w, r, "check identity verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) handleRequestQualifications(w http.ResponseWriter, r *http.Request) {
	var req qualificationsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "request qualifications", err)
		return
	}
	types := make([]credentials.Type, 0, len(req.Types))
	for _, raw := range req.Types {
		t, err := credentials.ParseType(raw)
		if err != nil {
			h.fail(w, r, "request qualifications", dErrors.Wrap(err, dErrors.CodeValidation, "unknown credential type: "+raw))
			return
		}
		types = append(types, t)
	}
	session, err := h.service.RequestQualifications(r.Context(), chi.URLParam(r, "id"), types, device.SameDevice(r))
	if err != nil {
		h.fail(w, r, "request qualifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleQualificationStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.CheckQualifications(r.Context(), chi.URLParam(r, "id"), responseCode(r))
	if err != nil {
		h.fail(w, r, "check qualifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) handleCancelQualifications(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelQualifications(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "cancel qualifications", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRequestTaxResidency(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.RequestTaxResidency(r.Context(), chi.URLParam(r, "id"), device.SameDevice(r))
	if err != nil {
		h.fail(w, r, "request tax residency", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleTaxResidencyStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.CheckTaxResidency(r.Context(), chi.URLParam(r, "id"), responseCode(r))
	if err != nil {
		h.fail(w, r, "check tax residency", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func responseCode(r *http.Request) string {
	return r.URL.Query().Get("response_code")
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	ctx := r.Context()
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "failed to "+action,
		"request_id", request.GetRequestID(ctx),
		"application_id", chi.URLParam(r, "id"),
		"error", err,
	)
	httputil.WriteError(w, err)
}
