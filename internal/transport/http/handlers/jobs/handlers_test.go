package jobshandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/reminders"
	"perfhub/internal/platform/jobs"
	"perfhub/internal/transport/http/middleware"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type directRunner struct {
	jobType, orgID string
}

func (d *directRunner) RunNow(ctx context.Context, jobType, orgID string, run jobs.Func) (any, error) {
	d.jobType, d.orgID = jobType, orgID
	return run(ctx)
}

type stubReminders struct {
	err error
}

func (s stubReminders) RunOnce(context.Context, string) (reminders.OrganisationResult, error) {
	return reminders.OrganisationResult{Sent: 4, Unpublished: 1}, s.err
}

type stubRuns struct {
	filter jobs.RunFilter
}

func (s *stubRuns) Count(_ context.Context, _ string, filter jobs.RunFilter) (int, error) {
	s.filter = filter
	return 12, nil
}

func (s *stubRuns) List(context.Context, string, jobs.RunFilter, int, int) ([]jobs.Run, error) {
	return []jobs.Run{{ID: "r1", JobType: jobs.JobReminderTick, Status: jobs.StatusCompleted}}, nil
}

func serve(h *Handler, method, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	ctx := middleware.WithUser(context.Background(), auth.UserContext{UserID: "u1", OrganisationID: "o1"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil).WithContext(ctx))
	return rec
}

func TestRunReminders(t *testing.T) {
	runner := &directRunner{}
	rec := serve(NewHandler(runner, &stubRuns{}, stubReminders{}, allowAll{}), http.MethodPost, "/jobs/reminders/run")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"sent":4`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if runner.jobType != jobs.JobReminderRun || runner.orgID != "o1" {
		t.Fatalf("unexpected run %s/%s", runner.jobType, runner.orgID)
	}

	rec = serve(NewHandler(runner, &stubRuns{}, stubReminders{err: errors.New("bad zone")}, allowAll{}), http.MethodPost, "/jobs/reminders/run")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestListRuns(t *testing.T) {
	runs := &stubRuns{}
	h := NewHandler(&directRunner{}, runs, stubReminders{}, allowAll{})

	rec := serve(h, http.MethodGet, "/jobs/runs?status=failed&jobType=reminder_tick")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Total-Count") != "12" {
		t.Fatalf("unexpected response %d total=%s", rec.Code, rec.Header().Get("X-Total-Count"))
	}
	if runs.filter.Status != jobs.StatusFailed || runs.filter.JobType != jobs.JobReminderTick {
		t.Fatalf("unexpected filter %+v", runs.filter)
	}

	rec = serve(h, http.MethodGet, "/jobs/runs?status=exploded")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
}
