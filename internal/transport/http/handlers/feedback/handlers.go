package feedbackhandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/feedback"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
	"perfhub/internal/transport/http/shared"
)

type Handler struct {
	Service *feedback.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *feedback.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/feedback-requests", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermFeedbackWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermFeedbackRead, h.Perms)).Get("/pending", h.handleListPending)
		r.With(middleware.RequirePermission(auth.PermFeedbackWrite, h.Perms)).Post("/{requestID}/respond", h.handleRespond)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload feedback.CreateInput
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}

	req, err := h.Service.Create(r.Context(), user.OrganisationID, user.UserID, payload)
	if err != nil {
		h.fail(w, r, err, "feedback_create_failed", "failed to request feedback")
		return
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	items, err := h.Service.ListPending(r.Context(), user.OrganisationID, user.UserID)
	if err != nil {
		h.fail(w, r, err, "feedback_list_failed", "failed to list feedback requests")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload feedback.RespondInput
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}

	answered, err := h.Service.Respond(r.Context(), user.OrganisationID, user.UserID, chi.URLParam(r, "requestID"), payload)
	if err != nil {
		h.fail(w, r, err, "feedback_respond_failed", "failed to respond to feedback request")
		return
	}
	api.Success(w, answered, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, feedback.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, feedback.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, feedback.ErrAlreadyResponded):
		api.Fail(w, http.StatusConflict, "already_responded", err.Error(), requestID)
	case errors.Is(err, feedback.ErrSelfRequest), errors.Is(err, feedback.ErrUnknownUser):
		api.Fail(w, http.StatusBadRequest, "invalid_requestee", err.Error(), requestID)
	default:
		slog.Error(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
