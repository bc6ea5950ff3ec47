package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"onboard/internal/issuance/service"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/httputil"
	request "onboard/pkg/platform/middleware/request"
)

// Service defines the issuance operations exposed over HTTP.
type Service interface {
	IssueEmployeeCredential(ctx context.Context, applicationID string) (*service.Offer, error)
	GetOffer(ctx context.Context, applicationID, offerID string) (*service.Offer, error)
	MarkOfferClaimed(ctx context.Context, preAuthorizedCode string) (*service.Offer, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/applications/{id}/issuance", h.handleIssue)
	r.Get("/applications/{id}/issuance/{offerID}", h.handleGetOffer)
	r.Post("/issuance/notifications", h.handleNotification)
}

// ClaimNotificationRequest is the issuer's notice that an offer was redeemed.
type ClaimNotificationRequest struct {
	PreAuthorizedCode string `json:"pre-authorized_code"`
	Event             string `json:"event,omitempty"`
}

func (r *ClaimNotificationRequest) Normalize() {
	if r == nil {
		return
	}
	r.PreAuthorizedCode = strings.TrimSpace(r.PreAuthorizedCode)
	r.Event = strings.TrimSpace(strings.ToLower(r.Event))
}

// Validate accepts an empty event as a claim for issuers that do not send one.
func (r *ClaimNotificationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.PreAuthorizedCode) > 512 {
		return dErrors.New(dErrors.CodeValidation, "pre-authorized_code must be 512 characters or less")
	}
	if r.PreAuthorizedCode == "" {
		return dErrors.New(dErrors.CodeValidation, "pre-authorized_code is required")
	}
	if r.Event != "" && r.Event != "credential_accepted" {
		return dErrors.New(dErrors.CodeValidation, "event must be 'credential_accepted'")
	}
	return nil
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	offer, err := h.service.IssueEmployeeCredential(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "issue employee credential", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, offer)
}

func (h *Handler) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := h.service.GetOffer(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "offerID"))
	if err != nil {
		h.fail(w, r, "load credential offer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, offer)
}

func (h *Handler) handleNotification(w http.ResponseWriter, r *http.Request) {
	var req ClaimNotificationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "decode claim notification", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(w, r, "validate claim notification", err)
		return
	}
	if _, err := h.service.MarkOfferClaimed(r.Context(), req.PreAuthorizedCode); err != nil {
		h.fail(w, r, "record claim", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	ctx := r.Context()
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "failed to "+action,
		"request_id", request.GetRequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
