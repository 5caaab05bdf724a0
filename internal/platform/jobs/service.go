package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const (
	JobReminderTick = "reminder_tick"
	JobReminderRun  = "reminder_run"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Func is one unit of background work. Its result is stored as the run's details.
type Func func(ctx context.Context) (any, error)

// RunStore persists the job_runs trail.
type RunStore interface {
	StartRun(ctx context.Context, orgID, jobType string) (string, error)
	FinishRun(ctx context.Context, runID, status string, details []byte) error
}

type Observer interface {
	JobFinished(job, status string)
}

type Service struct {
	runs     RunStore
	interval time.Duration
	queue    chan job
	observer Observer
}

type job struct {
	Type           string
	OrganisationID string
	Run            Func
}

func New(runs RunStore, interval time.Duration) *Service {
	return &Service{
		runs:     runs,
		interval: interval,
		queue:    make(chan job, 128),
	}
}

func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// Start launches the worker and, when the interval is positive, enqueues tick as a
// reminder tick on every interval until ctx is done.
func (s *Service) Start(ctx context.Context, tick Func) {
	go s.worker(ctx)
	if s.interval > 0 && tick != nil {
		go s.schedule(ctx, tick)
	}
}

func (s *Service) Enqueue(jobType, orgID string, run Func) {
	select {
	case s.queue <- job{Type: jobType, OrganisationID: orgID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "organisationId", orgID)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, orgID string, run Func) (any, error) {
	return s.runJob(ctx, job{Type: jobType, OrganisationID: orgID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "organisationId", j.OrganisationID, "err", err)
			}
		}
	}
}

func (s *Service) schedule(ctx context.Context, tick Func) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobReminderTick, "", tick)
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID, err := s.runs.StartRun(ctx, j.OrganisationID, j.Type)
	if err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]any{"error": err.Error(), "result": details}
	}
	if s.observer != nil {
		s.observer.JobFinished(j.Type, status)
	}

	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.runs.FinishRun(ctx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}
