package audithandler

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/audit"
	"perfhub/internal/domain/auth"
	"perfhub/internal/transport/http/middleware"
)

type allowAll struct{}

func (allowAll) HasPermission(context.Context, string, string) (bool, error) { return true, nil }

type fakeEvents struct {
	events  []audit.Event
	filter  audit.Filter
	details bool
	limit   int
	err     error
}

func (f *fakeEvents) Count(_ context.Context, _ string, filter audit.Filter) (int, error) {
	return len(f.events), nil
}

func (f *fakeEvents) List(_ context.Context, orgID string, filter audit.Filter, includeDetails bool, limit, _ int) ([]audit.Event, error) {
	f.filter, f.details, f.limit = filter, includeDetails, limit
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func newRouter(events EventReader) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithUser(r.Context(), auth.UserContext{UserID: "u1", OrganisationID: "o1", RoleID: "r1"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	NewHandler(events, allowAll{}).RegisterRoutes(r)
	return r
}

func sampleEvents() []audit.Event {
	at := time.Date(2025, 7, 1, 9, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	return []audit.Event{
		{ID: "e1", ActorID: "u1", Action: audit.ActionKPIImport, EntityType: "kpi_import", EntityID: "kpis.csv", RequestID: "req-1", CreatedAt: at},
		{ID: "e2", Action: audit.ActionReviewCyclePublish, EntityType: "review_cycle", EntityID: "c1", CreatedAt: at},
	}
}

func TestListEventsPassesFilters(t *testing.T) {
	events := &fakeEvents{events: sampleEvents()}
	rec := httptest.NewRecorder()
	newRouter(events).ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/audit/events?action=kpi.import&entityType=kpi_import&actorUserId=u1&includeDetails=true&limit=1000", nil))

	if rec.Code != http.StatusOK || rec.Header().Get("X-Total-Count") != "2" {
		t.Fatalf("unexpected response %d total=%s", rec.Code, rec.Header().Get("X-Total-Count"))
	}
	want := audit.Filter{Action: "kpi.import", EntityType: "kpi_import", ActorUser: "u1"}
	if events.filter != want || !events.details {
		t.Fatalf("filters not passed through: %+v details=%v", events.filter, events.details)
	}
	if events.limit != 500 {
		t.Fatalf("limit should be capped at 500, got %d", events.limit)
	}
}

func TestListEventsFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeEvents{err: errors.New("db down")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events", nil))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "audit_list_failed") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestExportEventsAsCSV(t *testing.T) {
	events := &fakeEvents{events: sampleEvents()}
	rec := httptest.NewRecorder()
	newRouter(events).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/events/export?action=kpi.import", nil))

	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if events.limit != exportLimit || events.details {
		t.Fatalf("export should read up to %d events without details, got limit=%d details=%v", exportLimit, events.limit, events.details)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid csv: %v", err)
	}
	if len(records) != 3 || records[0][2] != "action" {
		t.Fatalf("unexpected export: %v", records)
	}
	if records[1][0] != "e1" || records[1][7] != "2025-07-01T04:00:00Z" {
		t.Fatalf("timestamps should be exported in UTC: %v", records[1])
	}
	if records[2][1] != "" {
		t.Fatalf("system events have no actor: %v", records[2])
	}
}
