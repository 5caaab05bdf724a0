package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	c := New()
	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/kpis/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/kpis/42", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.requests.WithLabelValues("/kpis/{id}", http.MethodGet, "404")))
}

func TestImportAndReminderCounters(t *testing.T) {
	c := New()
	c.ImportFinished("partial", 3, 2)
	c.ReminderDelivered("five_day", true)
	c.ReminderDelivered("five_day", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.imports.WithLabelValues("partial")))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.importRow.WithLabelValues("created")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.importRow.WithLabelValues("failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.reminders.WithLabelValues("five_day", "failed")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	c := New()
	c.JobFinished("reminders", "completed")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `job_runs_total{job="reminders",status="completed"} 1`))
}
