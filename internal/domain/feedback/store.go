package feedback

import (
	"context"

	"github.com/jackc/pgx/v5"

	"perfhub/internal/platform/db"
)

const requestColumns = `id, requester_id::text, requestee_id::text, COALESCE(about_id::text, ''),
  message, status, COALESCE(response, ''), created_at, responded_at`

type Store struct {
	DB db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q}
}

func (s *Store) UserActive(ctx context.Context, orgID, userID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM users WHERE organisation_id = $1 AND id::text = $2 AND status = 'active'",
		orgID, userID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateRequest(ctx context.Context, orgID, requesterID string, in CreateInput) (Request, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO feedback_requests (organisation_id, requester_id, requestee_id, about_id, message)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING `+requestColumns,
		orgID, requesterID, in.RequesteeID, nullIfEmpty(in.AboutID), in.Message)
	r, err := scanRequest(row)
	if err != nil {
		return Request{}, db.Classify(err)
	}
	return r, nil
}

func (s *Store) GetRequest(ctx context.Context, orgID, requestID string) (Request, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+requestColumns+" FROM feedback_requests WHERE organisation_id = $1 AND id::text = $2", orgID, requestID)
	r, err := scanRequest(row)
	if err != nil {
		return Request{}, db.Classify(err)
	}
	return r, nil
}

func (s *Store) ListPending(ctx context.Context, orgID, requesteeID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM feedback_requests
    WHERE organisation_id = $1 AND requestee_id = $2 AND status = 'pending'
    ORDER BY created_at
  `, orgID, requesteeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Respond only answers a request that is still pending. A request answered
// concurrently yields db.ErrNotFound.
func (s *Store) Respond(ctx context.Context, orgID, requestID, response string) (Request, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE feedback_requests
    SET status = 'responded', response = $3, responded_at = now()
    WHERE organisation_id = $1 AND id::text = $2 AND status = 'pending'
    RETURNING `+requestColumns,
		orgID, requestID, response)
	r, err := scanRequest(row)
	if err != nil {
		return Request{}, db.Classify(err)
	}
	return r, nil
}

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.RequesterID, &r.RequesteeID, &r.AboutID, &r.Message, &r.Status, &r.Response, &r.CreatedAt, &r.RespondedAt)
	return r, err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
