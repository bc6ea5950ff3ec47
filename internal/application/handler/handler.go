package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"onboard/internal/application/models"
	"onboard/internal/application/service"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/httputil"
	request "onboard/pkg/platform/middleware/request"
)

// Service defines the application lifecycle operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, vacancyID string) (*models.Application, error)
	Overview(ctx context.Context, id string) (*service.Overview, error)
	Finalise(ctx context.Context, id string) (*models.Application, error)
	Reject(ctx context.Context, id, reason string) (*models.Application, error)
	Archive(ctx context.Context, id, reason string) (*models.Application, error)
	MarkAsError(ctx context.Context, id, reason string) (*models.Application, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the candidate-facing routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applications", h.handleCreate)
	r.Get("/applications/{id}", h.handleOverview)
	r.Post("/applications/{id}/finalise", h.handleFinalise)
}

// RegisterOperator mounts the operator commands. The caller is expected to
// guard the router with the operator token.
func (h *Handler) RegisterOperator(r chi.Router) {
	r.Post("/applications/{id}/reject", h.operatorAction("reject application", h.service.Reject))
	r.Post("/applications/{id}/archive", h.operatorAction("archive application", h.service.Archive))
	r.Post("/applications/{id}/error", h.operatorAction("mark application as error", h.service.MarkAsError))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateApplicationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "decode create request", err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.fail(w, r, "validate create request", err)
		return
	}
	app, err := h.service.Create(r.Context(), req.VacancyID)
	if err != nil {
		h.fail(w, r, "create application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toApplicationResponse(app))
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "load application overview", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOverviewResponse(overview))
}

func (h *Handler) handleFinalise(w http.ResponseWriter, r *http.Request) {
	app, err := h.service.Finalise(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "finalise application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

// operatorAction accepts an empty body as "no reason".
func (h *Handler) operatorAction(action string, fn func(ctx context.Context, id, reason string) (*models.Application, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OperatorActionRequest
		if r.ContentLength != 0 {
			if err := httputil.DecodeJSON(r, &req); err != nil {
				h.fail(w, r, action, err)
				return
			}
		}
		req.Normalize()
		if err := req.Validate(); err != nil {
			h.fail(w, r, action, err)
			return
		}
		app, err := fn(r.Context(), chi.URLParam(r, "id"), req.Reason)
		if err != nil {
			h.fail(w, r, action, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
	}
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
