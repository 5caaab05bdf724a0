package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"perfhub/internal/app/seed"
	"perfhub/internal/domain/audit"
	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/feedback"
	"perfhub/internal/domain/kpi"
	"perfhub/internal/domain/kpiimport"
	"perfhub/internal/domain/notifications"
	"perfhub/internal/domain/org"
	"perfhub/internal/domain/reminders"
	"perfhub/internal/domain/reviewcycle"
	"perfhub/internal/platform/clock"
	"perfhub/internal/platform/config"
	"perfhub/internal/platform/db"
	"perfhub/internal/platform/email"
	"perfhub/internal/platform/jobs"
	"perfhub/internal/platform/metrics"
	"perfhub/internal/platform/slack"
	audithandler "perfhub/internal/transport/http/handlers/audit"
	authhandler "perfhub/internal/transport/http/handlers/auth"
	feedbackhandler "perfhub/internal/transport/http/handlers/feedback"
	jobshandler "perfhub/internal/transport/http/handlers/jobs"
	kpihandler "perfhub/internal/transport/http/handlers/kpi"
	notificationshandler "perfhub/internal/transport/http/handlers/notifications"
	orghandler "perfhub/internal/transport/http/handlers/org"
	reviewcyclehandler "perfhub/internal/transport/http/handlers/reviewcycle"
	"perfhub/internal/transport/http/middleware"
)

type App struct {
	Config    config.Config
	DB        *pgxpool.Pool
	Router    http.Handler
	Metrics   *metrics.Collector
	Jobs      *jobs.Service
	Reminders *reminders.Scheduler
	Importer  *kpiimport.Importer

	cancel context.CancelFunc
}

// New connects to the database, applies migrations and seed data as configured and
// wires every service behind the router. Background jobs start with Start.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := seed.Run(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	return NewWithPool(pool, cfg, clock.System{}), nil
}

// NewWithPool wires the app on an existing pool. Tests use it to inject a clock.
func NewWithPool(pool *pgxpool.Pool, cfg config.Config, clk clock.Clock) *App {
	collector := metrics.New()

	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret)
	auditSvc := audit.New(pool)
	orgStore := org.NewStore(pool)
	orgSvc := org.NewService(orgStore)
	notifySvc := notifications.New(notifications.NewStore(pool), email.New(cfg), slack.New(cfg.SlackEnabled))
	cycleSvc := reviewcycle.NewService(reviewcycle.NewStore(pool), clk)
	kpiSvc := kpi.NewService(kpi.NewStore(pool), auditSvc)
	feedbackSvc := feedback.NewService(feedback.NewStore(pool), notifySvc)

	importer := kpiimport.NewImporter(org.NewLookups(orgStore), kpiSvc, auditSvc).WithObserver(collector)
	scheduler := reminders.NewScheduler(reminders.NewStore(pool), cycleSvc, notifySvc, clk, reminders.Settings{
		ReminderHour:     cfg.ReminderHour,
		Tick:             cfg.ReminderTick,
		BroadcastWeekday: time.Weekday(cfg.BroadcastWeekday),
		BroadcastHour:    cfg.BroadcastHour,
	}).WithObserver(collector)
	runStore := jobs.NewStore(pool)
	jobSvc := jobs.New(runStore, cfg.ReminderTick).WithObserver(collector)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
	if cfg.MetricsEnabled {
		router.Use(collector.Middleware)
		router.Handle("/metrics", collector.Handler())
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authSvc)
		authHandler.RegisterPublicRoutes(r)
		authHandler.RegisterRoutes(r)

		orghandler.NewHandler(orgSvc, authSvc, auditSvc).RegisterRoutes(r)
		kpihandler.NewHandler(kpiSvc, importer, authSvc, middleware.NewIdempotencyStore(pool), cfg.MaxUploadBytes).RegisterRoutes(r)
		reviewcyclehandler.NewHandler(cycleSvc, orgSvc, authSvc, auditSvc).RegisterRoutes(r)
		feedbackhandler.NewHandler(feedbackSvc, authSvc).RegisterRoutes(r)
		notificationshandler.NewHandler(notifySvc, authSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, authSvc).RegisterRoutes(r)
		jobshandler.NewHandler(jobSvc, runStore, scheduler, authSvc).RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	return &App{
		Config:    cfg,
		DB:        pool,
		Router:    router,
		Metrics:   collector,
		Jobs:      jobSvc,
		Reminders: scheduler,
		Importer:  importer,
	}
}

// Start runs the job worker and the periodic reminder tick until Close.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.Jobs.Start(ctx, func(ctx context.Context) (any, error) {
		return a.Reminders.Tick(ctx)
	})
}

func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	a.DB.Close()
}

// Run serves until ctx is cancelled and then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	app.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("perfhub server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
