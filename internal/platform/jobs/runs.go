package jobs

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"

	"perfhub/internal/platform/db"
)

type Run struct {
	ID          string         `json:"id"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Details     map[string]any `json:"details"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt"`
}

type RunFilter struct {
	JobType string
	Status  string
}

// Store keeps job_runs rows. Runs started without an organisation are shared by all.
type Store struct {
	DB db.Querier
	sq sq.StatementBuilderType
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q, sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

func (s *Store) StartRun(ctx context.Context, orgID, jobType string) (string, error) {
	var org any
	if orgID != "" {
		org = orgID
	}
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (organisation_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, org, jobType, StatusRunning).Scan(&id)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID, status string, details []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, details, runID)
	return err
}

func (s *Store) Count(ctx context.Context, orgID string, filter RunFilter) (int, error) {
	query, args, err := s.filtered(s.sq.Select("COUNT(1)"), orgID, filter).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) List(ctx context.Context, orgID string, filter RunFilter, limit, offset int) ([]Run, error) {
	query, args, err := s.filtered(s.sq.Select(
		"id", "job_type", "status", "COALESCE(details_json, '{}'::jsonb)", "started_at", "completed_at",
	), orgID, filter).
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var raw []byte
		if err := rows.Scan(&run.ID, &run.JobType, &run.Status, &raw, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		run.Details = decodeDetails(raw)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *Store) filtered(b sq.SelectBuilder, orgID string, filter RunFilter) sq.SelectBuilder {
	b = b.From("job_runs").Where(sq.Or{sq.Eq{"organisation_id": orgID}, sq.Eq{"organisation_id": nil}})
	if filter.JobType != "" {
		b = b.Where(sq.Eq{"job_type": filter.JobType})
	}
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": filter.Status})
	}
	return b
}

func decodeDetails(raw []byte) map[string]any {
	details := map[string]any{}
	if len(raw) == 0 {
		return details
	}
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return details
}
