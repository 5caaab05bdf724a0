package reminders

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"perfhub/internal/domain/reviewcycle"
	"perfhub/internal/platform/db"
)

type Store struct {
	DB db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q}
}

const organisationColumns = `id, name, time_zone, COALESCE(slack_webhook_url, ''), feedback_broadcast_enabled, last_feedback_reminder_sent_at`

func (s *Store) ListOrganisations(ctx context.Context) ([]Organisation, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+organisationColumns+" FROM organisations ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Organisation
	for rows.Next() {
		o, err := scanOrganisation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) GetOrganisation(ctx context.Context, orgID string) (Organisation, error) {
	o, err := scanOrganisation(s.DB.QueryRow(ctx, "SELECT "+organisationColumns+" FROM organisations WHERE id = $1", orgID))
	if err != nil {
		return Organisation{}, db.Classify(err)
	}
	return o, nil
}

func scanOrganisation(row pgx.Row) (Organisation, error) {
	var o Organisation
	err := row.Scan(&o.ID, &o.Name, &o.TimeZone, &o.SlackWebhookURL, &o.BroadcastEnabled, &o.LastFeedbackReminderSentAt)
	return o, err
}

// Recipients lists who must act in a phase: managers with direct reports for the
// manager review, every active user otherwise.
func (s *Store) Recipients(ctx context.Context, orgID string, phase reviewcycle.Phase) ([]string, error) {
	if phase == reviewcycle.PhaseManagerReview {
		return s.ids(ctx, `
      SELECT DISTINCT m.id
      FROM users m
      JOIN users r ON r.manager_id = m.id AND r.status = 'active'
      WHERE m.organisation_id = $1 AND m.status = 'active'
    `, orgID)
	}
	return s.ActiveUserIDs(ctx, orgID)
}

func (s *Store) ActiveUserIDs(ctx context.Context, orgID string) ([]string, error) {
	return s.ids(ctx, "SELECT id FROM users WHERE organisation_id = $1 AND status = 'active'", orgID)
}

func (s *Store) PendingFeedbackRequests(ctx context.Context, orgID string, since time.Time) ([]PendingFeedback, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, requester_id, requestee_id, created_at
    FROM feedback_requests
    WHERE organisation_id = $1 AND status = 'pending' AND created_at >= $2
  `, orgID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingFeedback
	for rows.Next() {
		var p PendingFeedback
		if err := rows.Scan(&p.ID, &p.RequesterID, &p.RequesteeID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) MarkerExists(ctx context.Context, m Marker) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM reminder_deliveries
    WHERE organisation_id = $1 AND subject_id = $2 AND phase = $3 AND kind = $4 AND sent_on = $5
  `, m.OrganisationID, m.Subject, m.Phase, m.Kind, m.SentOn).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) RecordMarker(ctx context.Context, m Marker) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO reminder_deliveries (organisation_id, subject_id, phase, kind, sent_on)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT DO NOTHING
  `, m.OrganisationID, m.Subject, m.Phase, m.Kind, m.SentOn)
	return err
}

func (s *Store) SetLastFeedbackReminderSentAt(ctx context.Context, orgID string, at time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE organisations SET last_feedback_reminder_sent_at = $2, updated_at = now() WHERE id = $1
  `, orgID, at)
	return err
}

func (s *Store) ids(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
