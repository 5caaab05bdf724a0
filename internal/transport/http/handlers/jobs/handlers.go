package jobshandler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/reminders"
	"perfhub/internal/platform/jobs"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
	"perfhub/internal/transport/http/shared"
)

type Runner interface {
	RunNow(ctx context.Context, jobType, orgID string, run jobs.Func) (any, error)
}

type RunLister interface {
	Count(ctx context.Context, orgID string, filter jobs.RunFilter) (int, error)
	List(ctx context.Context, orgID string, filter jobs.RunFilter, limit, offset int) ([]jobs.Run, error)
}

type Reminders interface {
	RunOnce(ctx context.Context, orgID string) (reminders.OrganisationResult, error)
}

type Handler struct {
	Runner    Runner
	Runs      RunLister
	Reminders Reminders
	Perms     middleware.PermissionStore
}

func NewHandler(runner Runner, runs RunLister, rem Reminders, perms middleware.PermissionStore) *Handler {
	return &Handler{Runner: runner, Runs: runs, Reminders: rem, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermJobsRun, h.Perms)).Post("/reminders/run", h.handleRunReminders)
		r.With(middleware.RequirePermission(auth.PermJobsRun, h.Perms)).Get("/runs", h.handleListRuns)
	})
}

func (h *Handler) handleRunReminders(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	details, err := h.Runner.RunNow(r.Context(), jobs.JobReminderRun, user.OrganisationID, func(ctx context.Context) (any, error) {
		return h.Reminders.RunOnce(ctx, user.OrganisationID)
	})
	if err != nil {
		slog.Error("reminder run failed", "organisationId", user.OrganisationID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "job_failed", "reminder run failed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	filter := jobs.RunFilter{JobType: r.URL.Query().Get("jobType"), Status: r.URL.Query().Get("status")}
	v := shared.NewValidator()
	v.Enum("status", filter.Status, []string{jobs.StatusRunning, jobs.StatusCompleted, jobs.StatusFailed}, "must be running, completed or failed")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	total, err := h.Runs.Count(r.Context(), user.OrganisationID, filter)
	if err != nil {
		slog.Warn("job run count failed", "err", err)
	}
	runs, err := h.Runs.List(r.Context(), user.OrganisationID, filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}
