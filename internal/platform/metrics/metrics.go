package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several instances can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	imports   *prometheus.CounterVec
	importRow *prometheus.CounterVec
	reminders *prometheus.CounterVec
	jobs      *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kpi_imports_total",
			Help: "KPI bulk imports by outcome",
		}, []string{"outcome"}),
		importRow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kpi_import_rows_total",
			Help: "KPI import rows by result",
		}, []string{"result"}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Reminder deliveries by kind and result",
		}, []string{"kind", "result"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Background job runs by type and status",
		}, []string{"job", "status"}),
	}
	c.registry.MustRegister(c.requests, c.duration, c.imports, c.importRow, c.reminders, c.jobs)
	return c
}

func (c *Collector) Record(route, method string, status int, d time.Duration) {
	c.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(route, method).Observe(d.Seconds())
}

// ImportFinished counts one upload and its row split.
func (c *Collector) ImportFinished(outcome string, created, failed int) {
	c.imports.WithLabelValues(outcome).Inc()
	c.importRow.WithLabelValues("created").Add(float64(created))
	c.importRow.WithLabelValues("failed").Add(float64(failed))
}

func (c *Collector) ReminderDelivered(kind string, ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	c.reminders.WithLabelValues(kind, result).Inc()
}

func (c *Collector) JobFinished(job, status string) {
	c.jobs.WithLabelValues(job, status).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware records every request under its chi route pattern, falling back to the
// raw path when no route matched.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		c.Record(route, r.Method, rec.status, time.Since(start))
	})
}
