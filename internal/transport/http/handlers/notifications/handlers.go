package notificationshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/notifications"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
	"perfhub/internal/transport/http/shared"
)

// Inbox is what the handler needs from the notification service.
type Inbox interface {
	List(ctx context.Context, orgID, userID string, limit, offset int) ([]notifications.Notification, error)
	Count(ctx context.Context, orgID, userID string) (int, error)
	MarkRead(ctx context.Context, orgID, userID, notificationID string) error
	GetSettings(ctx context.Context, orgID string) (notifications.Settings, error)
	UpdateSettings(ctx context.Context, orgID string, settings notifications.Settings) error
}

type Handler struct {
	Service Inbox
	Perms   middleware.PermissionStore
}

func NewHandler(service Inbox, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

type settingsRequest struct {
	EmailEnabled     bool   `json:"emailEnabled"`
	EmailFrom        string `json:"emailFrom" validate:"omitempty,email"`
	SlackWebhookURL  string `json:"slackWebhookUrl" validate:"omitempty,url"`
	BroadcastEnabled bool   `json:"feedbackBroadcastEnabled"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/{notificationID}/read", h.handleMarkRead)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Get("/settings", h.handleSettings)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Put("/settings", h.handleUpdateSettings)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	total, err := h.Service.Count(r.Context(), user.OrganisationID, user.UserID)
	if err != nil {
		slog.Warn("notification count failed", "err", err)
	}

	items, err := h.Service.List(r.Context(), user.OrganisationID, user.UserID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	notificationID := chi.URLParam(r, "notificationID")
	err := h.Service.MarkRead(r.Context(), user.OrganisationID, user.UserID, notificationID)
	switch {
	case errors.Is(err, notifications.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "notification not found", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		slog.Error("notification mark read failed", "organisationId", user.OrganisationID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "notification_update_failed", "failed to update notification", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"status": "read"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	settings, err := h.Service.GetSettings(r.Context(), user.OrganisationID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload settingsRequest
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}

	settings := notifications.Settings{
		EmailEnabled:     payload.EmailEnabled,
		EmailFrom:        payload.EmailFrom,
		SlackWebhookURL:  payload.SlackWebhookURL,
		BroadcastEnabled: payload.BroadcastEnabled,
	}
	if err := h.Service.UpdateSettings(r.Context(), user.OrganisationID, settings); err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to update settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}
