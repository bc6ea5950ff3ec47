package handler

import (
	"context"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"onboard/internal/signing/models"
	"onboard/internal/signing/service"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/httputil"
	request "onboard/pkg/platform/middleware/request"
)

const (
	contentTypeRequestObject = "application/oauth-authz-req+jwt"
	maxCallbackBytes         = 32 << 20
)

// Service defines the signing operations exposed over HTTP.
type Service interface {
	InitDocumentSigning(ctx context.Context, applicationID string) (*service.Session, error)
	SigningStatus(ctx context.Context, applicationID, documentID string) (*service.Status, error)
	RetrievalRequest(ctx context.Context, state string) (string, error)
	DocumentContent(ctx context.Context, state string) (*service.Document, error)
	ProcessSignedDocument(ctx context.Context, cb service.Callback) (*models.SignedDocument, error)
}

// Handler serves the candidate-facing signing endpoints and the wallet-facing
// retrieval, document and callback endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/applications/{id}/signing", h.handleInit)
	r.Get("/applications/{id}/signing/{documentID}/status", h.handleStatus)
	r.Get("/signing/requests/{state}", h.handleRetrievalRequest)
	r.Get("/signing/documents/{state}", h.handleDocument)
	r.Post("/signing/callback", h.handleCallback)
}

type callbackResponse struct {
	DocumentID string        `json:"document_id"`
	Status     models.Status `json:"status"`
	ErrorCode  string        `json:"error_code,omitempty"`
}

func (h *Handler) handleInit(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.InitDocumentSigning(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "start document signing", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.SigningStatus(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "documentID"))
	if err != nil {
		h.fail(w, r, "load signing status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) handleRetrievalRequest(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.RetrievalRequest(r.Context(), chi.URLParam(r, "state"))
	if err != nil {
		h.fail(w, r, "serve retrieval request", err)
		return
	}
	w.Header().Set("Content-Type", contentTypeRequestObject)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(token))
}

func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.DocumentContent(r.Context(), chi.URLParam(r, "state"))
	if err != nil {
		h.fail(w, r, "serve document", err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": doc.Label}))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Content)
}

// handleCallback accepts the wallet's direct_post form. Validation failures
// still answer 200: the outcome is recorded on the document.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCallbackBytes)
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, "parse signing callback", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid form body"))
		return
	}
	cb := service.Callback{
		State:                 r.PostForm.Get("state"),
		Error:                 r.PostForm.Get("error"),
		VPToken:               r.PostForm.Get("vp_token"),
		DocumentWithSignature: formList(r, "documentWithSignature"),
		SignatureObject:       formList(r, "signatureObject"),
	}
	doc, err := h.service.ProcessSignedDocument(r.Context(), cb)
	if err != nil {
		h.fail(w, r, "process signing callback", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, callbackResponse{
		DocumentID: doc.ID,
		Status:     doc.Status,
		ErrorCode:  doc.ErrorCode,
	})
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

// formList reads a repeated form field. Wallets post it as `name[]`; the bare
// name is accepted too.
func formList(r *http.Request, name string) []string {
	return append(r.PostForm[name+"[]"], r.PostForm[name]...)
}
