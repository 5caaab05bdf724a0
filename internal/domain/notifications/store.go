package notifications

import (
	"context"

	"perfhub/internal/platform/db"
)

type Store struct {
	DB db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q}
}

func (s *Store) CreateNotification(ctx context.Context, orgID, userID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (organisation_id, user_id, type, title, body)
    VALUES ($1,$2,$3,$4,$5)
  `, orgID, userID, ntype, title, body)
	return err
}

func (s *Store) UserEmail(ctx context.Context, orgID, userID string) (string, error) {
	var email string
	if err := s.DB.QueryRow(ctx, "SELECT email FROM users WHERE organisation_id = $1 AND id = $2", orgID, userID).Scan(&email); err != nil {
		return "", db.Classify(err)
	}
	return email, nil
}

func (s *Store) ListNotifications(ctx context.Context, orgID, userID string, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, title, body, read_at, created_at
    FROM notifications
    WHERE organisation_id = $1 AND user_id = $2
    ORDER BY created_at DESC
    LIMIT $3 OFFSET $4
  `, orgID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountNotifications(ctx context.Context, orgID, userID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM notifications WHERE organisation_id = $1 AND user_id = $2", orgID, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, orgID, userID, notificationID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE organisation_id = $1 AND user_id = $2 AND id = $3
  `, orgID, userID, notificationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (s *Store) Settings(ctx context.Context, orgID string) (Settings, error) {
	var st Settings
	if err := s.DB.QueryRow(ctx, `
    SELECT email_notifications_enabled, COALESCE(email_from, ''), COALESCE(slack_webhook_url, ''), feedback_broadcast_enabled
    FROM organisations
    WHERE id = $1
  `, orgID).Scan(&st.EmailEnabled, &st.EmailFrom, &st.SlackWebhookURL, &st.BroadcastEnabled); err != nil {
		return Settings{}, db.Classify(err)
	}
	return st, nil
}

func (s *Store) UpdateSettings(ctx context.Context, orgID string, st Settings) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE organisations
    SET email_notifications_enabled = $2,
        email_from = $3,
        slack_webhook_url = $4,
        feedback_broadcast_enabled = $5,
        updated_at = now()
    WHERE id = $1
  `, orgID, st.EmailEnabled, nullIfEmpty(st.EmailFrom), nullIfEmpty(st.SlackWebhookURL), st.BroadcastEnabled)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
