package orghandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/audit"
	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/org"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
	"perfhub/internal/transport/http/shared"
)

type Auditor interface {
	Record(ctx context.Context, e audit.Entry) error
}

type Handler struct {
	Service *org.Service
	Perms   middleware.PermissionStore
	Audit   Auditor
}

func NewHandler(service *org.Service, perms middleware.PermissionStore, auditor Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor}
}

type unitRequest struct {
	Name     string `json:"name" validate:"required,max=100,orgname"`
	ParentID string `json:"parentId"`
}

type statusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type timeZoneRequest struct {
	TimeZone string `json:"timeZone" validate:"required,timezone"`
}

var kindPaths = map[string]org.Kind{
	"departments":  org.KindDepartment,
	"teams":        org.KindTeam,
	"designations": org.KindDesignation,
	"kras":         org.KindKRA,
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermOrgRead, h.Perms)
	write := middleware.RequirePermission(auth.PermOrgWrite, h.Perms)

	r.Route("/organisation", func(r chi.Router) {
		r.With(read).Get("/", h.handleGetOrganisation)
		r.With(write).Put("/time-zone", h.handleSetTimeZone)
		r.With(read).Get("/{kind}", h.handleListUnits)
		r.With(write).Post("/{kind}", h.handleCreateUnit)
		r.With(write).Patch("/{kind}/{unitID}/status", h.handleSetStatus)
	})
}

func (h *Handler) handleGetOrganisation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	organisation, err := h.Service.Organisation(r.Context(), user.OrganisationID)
	if err != nil {
		h.fail(w, r, err, "organisation_failed", "failed to load organisation")
		return
	}
	api.Success(w, organisation, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetTimeZone(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload timeZoneRequest
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	if err := h.Service.SetTimeZone(r.Context(), user.OrganisationID, payload.TimeZone); err != nil {
		h.fail(w, r, err, "time_zone_failed", "failed to update time zone")
		return
	}
	api.Success(w, map[string]string{"timeZone": payload.TimeZone}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUnits(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	kind, ok := kindPaths[chi.URLParam(r, "kind")]
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "unknown unit kind", middleware.GetRequestID(r.Context()))
		return
	}

	filter := org.ListFilter{
		ParentID:        r.URL.Query().Get("parentId"),
		IncludeInactive: r.URL.Query().Get("includeInactive") == "true",
	}
	units, err := h.Service.List(r.Context(), user.OrganisationID, kind, filter)
	if err != nil {
		h.fail(w, r, err, "unit_list_failed", "failed to list "+string(kind)+"s")
		return
	}
	api.Success(w, units, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	kind, ok := kindPaths[chi.URLParam(r, "kind")]
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "unknown unit kind", middleware.GetRequestID(r.Context()))
		return
	}
	var payload unitRequest
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}

	var (
		unit org.Unit
		err  error
	)
	switch kind {
	case org.KindDepartment:
		unit, err = h.Service.CreateDepartment(r.Context(), user.OrganisationID, payload.Name)
	case org.KindTeam:
		unit, err = h.Service.CreateTeam(r.Context(), user.OrganisationID, payload.ParentID, payload.Name)
	case org.KindDesignation:
		unit, err = h.Service.CreateDesignation(r.Context(), user.OrganisationID, payload.ParentID, payload.Name)
	case org.KindKRA:
		unit, err = h.Service.CreateKRA(r.Context(), user.OrganisationID, payload.Name)
	}
	if err != nil {
		h.fail(w, r, err, "unit_create_failed", "failed to create "+string(kind))
		return
	}

	h.record(r.Context(), audit.Entry{
		OrganisationID: user.OrganisationID,
		ActorID:        user.UserID,
		Action:         audit.ActionOrgUnitCreate,
		EntityType:     string(kind),
		EntityID:       unit.ID,
		After:          unit,
	})
	api.Created(w, unit, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	kind, ok := kindPaths[chi.URLParam(r, "kind")]
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "unknown unit kind", middleware.GetRequestID(r.Context()))
		return
	}
	var payload statusRequest
	if !shared.DecodeAndValidate(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}

	unitID := chi.URLParam(r, "unitID")
	if err := h.Service.SetActive(r.Context(), user.OrganisationID, kind, unitID, *payload.Active); err != nil {
		h.fail(w, r, err, "unit_update_failed", "failed to update "+string(kind))
		return
	}
	h.record(r.Context(), audit.Entry{
		OrganisationID: user.OrganisationID,
		ActorID:        user.UserID,
		Action:         audit.ActionOrgUnitStatus,
		EntityType:     string(kind),
		EntityID:       unitID,
		After:          map[string]bool{"active": *payload.Active},
	})
	api.Success(w, map[string]any{"id": unitID, "active": *payload.Active}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, org.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, org.ErrDuplicateName):
		api.Fail(w, http.StatusConflict, "duplicate_name", err.Error(), requestID)
	case errors.Is(err, org.ErrInvalidName), errors.Is(err, org.ErrInvalidKind), errors.Is(err, org.ErrInvalidTimeZone):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, org.ErrParentNotFound), errors.Is(err, org.ErrParentInactive):
		api.Fail(w, http.StatusUnprocessableEntity, "invalid_parent", err.Error(), requestID)
	default:
		slog.Error(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

func (h *Handler) record(ctx context.Context, e audit.Entry) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(ctx, e); err != nil {
		slog.Warn("audit "+e.Action+" failed", "err", err)
	}
}
