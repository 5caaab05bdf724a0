package reviewcyclehandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/audit"
	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/org"
	"perfhub/internal/domain/reviewcycle"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
	"perfhub/internal/transport/http/shared"
)

type Service interface {
	Create(ctx context.Context, orgID string, in reviewcycle.Input) (reviewcycle.ReviewCycle, error)
	Update(ctx context.Context, orgID, cycleID string, in reviewcycle.Input) (reviewcycle.ReviewCycle, error)
	Get(ctx context.Context, orgID, cycleID string) (reviewcycle.ReviewCycle, error)
	List(ctx context.Context, orgID string, filter reviewcycle.ListFilter) ([]reviewcycle.ReviewCycle, error)
	SetPublished(ctx context.Context, orgID, cycleID string, published bool) error
	Today(ctx context.Context, orgID string) (time.Time, error)
}

type Organisations interface {
	Organisation(ctx context.Context, orgID string) (org.Organisation, error)
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry) error
}

type Handler struct {
	Service       Service
	Organisations Organisations
	Perms         middleware.PermissionStore
	Audit         Auditor
}

func NewHandler(service Service, organisations Organisations, perms middleware.PermissionStore, auditor Auditor) *Handler {
	return &Handler{Service: service, Organisations: organisations, Perms: perms, Audit: auditor}
}

type cycleRequest struct {
	Name                   string `json:"name"`
	StartDate              string `json:"startDate"`
	EndDate                string `json:"endDate"`
	SelfReviewStartDate    string `json:"selfReviewStartDate"`
	SelfReviewEndDate      string `json:"selfReviewEndDate"`
	ManagerReviewStartDate string `json:"managerReviewStartDate"`
	ManagerReviewEndDate   string `json:"managerReviewEndDate"`
	CheckInStartDate       string `json:"checkInWithManagerStartDate"`
	CheckInEndDate         string `json:"checkInWithManagerEndDate"`
	Published              bool   `json:"publish"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermReviewCycleRead, h.Perms)
	write := middleware.RequirePermission(auth.PermReviewCycleWrite, h.Perms)

	r.Route("/review-cycles", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.With(read).Get("/{cycleID}", h.handleGet)
		r.With(write).Put("/{cycleID}", h.handleUpdate)
		r.With(write).Post("/{cycleID}/publish", h.handlePublish(true))
		r.With(write).Post("/{cycleID}/unpublish", h.handlePublish(false))
		r.With(read).Get("/{cycleID}/timeline.pdf", h.handleTimelinePDF)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	filter := reviewcycle.ListFilter{Limit: page.Limit, Offset: page.Offset}
	if raw := r.URL.Query().Get("published"); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "published", Reason: "must be true or false"}})
			return
		}
		filter.Published = &published
	}

	cycles, err := h.Service.List(r.Context(), user.OrganisationID, filter)
	if err != nil {
		h.fail(w, r, err, "review_cycle_list_failed", "failed to list review cycles")
		return
	}
	api.Success(w, cycles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	in, ok := decodeCycle(w, r)
	if !ok {
		return
	}

	cycle, err := h.Service.Create(r.Context(), user.OrganisationID, in)
	if err != nil {
		h.fail(w, r, err, "review_cycle_create_failed", "failed to create review cycle")
		return
	}
	h.record(r.Context(), user, audit.ActionReviewCycleCreate, cycle.ID, nil, cycle)
	api.Created(w, cycle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	cycle, err := h.Service.Get(r.Context(), user.OrganisationID, chi.URLParam(r, "cycleID"))
	if err != nil {
		h.fail(w, r, err, "review_cycle_get_failed", "failed to load review cycle")
		return
	}
	api.Success(w, cycle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	in, ok := decodeCycle(w, r)
	if !ok {
		return
	}

	cycleID := chi.URLParam(r, "cycleID")
	before, err := h.Service.Get(r.Context(), user.OrganisationID, cycleID)
	if err != nil {
		h.fail(w, r, err, "review_cycle_update_failed", "failed to update review cycle")
		return
	}
	cycle, err := h.Service.Update(r.Context(), user.OrganisationID, cycleID, in)
	if err != nil {
		h.fail(w, r, err, "review_cycle_update_failed", "failed to update review cycle")
		return
	}
	h.record(r.Context(), user, audit.ActionReviewCycleUpdate, cycleID, before, cycle)
	api.Success(w, cycle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePublish(published bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.GetUser(r.Context())
		if !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
			return
		}
		cycleID := chi.URLParam(r, "cycleID")
		if err := h.Service.SetPublished(r.Context(), user.OrganisationID, cycleID, published); err != nil {
			h.fail(w, r, err, "review_cycle_publish_failed", "failed to change review cycle visibility")
			return
		}
		h.record(r.Context(), user, audit.ActionReviewCyclePublish, cycleID, nil, map[string]bool{"published": published})
		api.Success(w, map[string]any{"id": cycleID, "published": published}, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleTimelinePDF(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	cycle, err := h.Service.Get(r.Context(), user.OrganisationID, chi.URLParam(r, "cycleID"))
	if err != nil {
		h.fail(w, r, err, "review_cycle_pdf_failed", "failed to export review cycle")
		return
	}
	today, err := h.Service.Today(r.Context(), user.OrganisationID)
	if err != nil {
		h.fail(w, r, err, "review_cycle_pdf_failed", "failed to export review cycle")
		return
	}
	organisation, err := h.Organisations.Organisation(r.Context(), user.OrganisationID)
	if err != nil {
		h.fail(w, r, err, "review_cycle_pdf_failed", "failed to export review cycle")
		return
	}

	data, err := reviewcycle.RenderTimelinePDF(cycle, organisation.Name, today)
	if err != nil {
		h.fail(w, r, err, "review_cycle_pdf_failed", "failed to export review cycle")
		return
	}
	api.Attachment(w, http.StatusOK, "review-cycle-"+cycle.ID+".pdf", "application/pdf", data, "")
}

func decodeCycle(w http.ResponseWriter, r *http.Request) (reviewcycle.Input, bool) {
	requestID := middleware.GetRequestID(r.Context())
	var payload cycleRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return reviewcycle.Input{}, false
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	window := func(startField, start, endField, end string) reviewcycle.Window {
		s, _ := v.Date(startField, start)
		e, _ := v.Date(endField, end)
		v.DateOrder(startField, s, endField, e)
		return reviewcycle.Window{Start: s, End: e}
	}
	in := reviewcycle.Input{
		Name:          payload.Name,
		Overall:       window("startDate", payload.StartDate, "endDate", payload.EndDate),
		SelfReview:    window("selfReviewStartDate", payload.SelfReviewStartDate, "selfReviewEndDate", payload.SelfReviewEndDate),
		ManagerReview: window("managerReviewStartDate", payload.ManagerReviewStartDate, "managerReviewEndDate", payload.ManagerReviewEndDate),
		CheckIn:       window("checkInWithManagerStartDate", payload.CheckInStartDate, "checkInWithManagerEndDate", payload.CheckInEndDate),
		Published:     payload.Published,
	}
	if v.Reject(w, requestID) {
		return reviewcycle.Input{}, false
	}
	return in, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	var invalid *reviewcycle.ValidationError
	switch {
	case errors.As(err, &invalid):
		issues := make([]shared.ValidationIssue, 0, len(invalid.Problems))
		for _, p := range invalid.Problems {
			issues = append(issues, shared.ValidationIssue{Reason: p})
		}
		shared.FailValidation(w, requestID, issues)
	case errors.Is(err, reviewcycle.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "review cycle not found", requestID)
	default:
		slog.Error(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

func (h *Handler) record(ctx context.Context, user auth.UserContext, action, cycleID string, before, after any) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Record(ctx, audit.Entry{
		OrganisationID: user.OrganisationID,
		ActorID:        user.UserID,
		Action:         action,
		EntityType:     "review_cycle",
		EntityID:       cycleID,
		Before:         before,
		After:          after,
	})
	if err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}
