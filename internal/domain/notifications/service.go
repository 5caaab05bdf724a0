package notifications

import (
	"context"
	"errors"
	"log/slog"

	"perfhub/internal/platform/db"
	"perfhub/internal/platform/slack"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	Slack       slack.Poster
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer, poster slack.Poster) *Service {
	return &Service{store: store, Mailer: mailer, Slack: poster, DefaultFrom: "no-reply@example.com"}
}

// Create stores an in-app notification and mails it when the organisation has email
// enabled. Mail failures are logged, never returned.
func (s *Service) Create(ctx context.Context, orgID, userID, ntype, title, body string) error {
	if err := s.store.CreateNotification(ctx, orgID, userID, ntype, title, body); err != nil {
		return err
	}
	if s.Mailer == nil {
		return nil
	}

	settings, err := s.store.Settings(ctx, orgID)
	if err != nil || !settings.EmailEnabled {
		return nil
	}
	from := settings.EmailFrom
	if from == "" {
		from = s.DefaultFrom
	}

	email, err := s.store.UserEmail(ctx, orgID, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, from, email, title, body); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
	return nil
}

// NotifyUsers creates the same notification for every user and reports whether all
// of them were stored. No recipients means nothing was delivered.
func (s *Service) NotifyUsers(ctx context.Context, orgID string, userIDs []string, ntype, title, body string) bool {
	if len(userIDs) == 0 {
		return false
	}
	ok := true
	for _, userID := range userIDs {
		if err := s.Create(ctx, orgID, userID, ntype, title, body); err != nil {
			slog.Warn("notification create failed", "organisationId", orgID, "userId", userID, "err", err)
			ok = false
		}
	}
	return ok
}

// PostChannel posts text to an organisation's Slack webhook and reports success.
func (s *Service) PostChannel(ctx context.Context, webhookURL, text string) bool {
	if s.Slack == nil {
		return false
	}
	err := s.Slack.Post(ctx, webhookURL, text)
	if errors.Is(err, slack.ErrDisabled) {
		return false
	}
	if err != nil {
		slog.Warn("slack post failed", "err", err)
		return false
	}
	return true
}

func (s *Service) List(ctx context.Context, orgID, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, orgID, userID, limit, offset)
}

func (s *Service) Count(ctx context.Context, orgID, userID string) (int, error) {
	return s.store.CountNotifications(ctx, orgID, userID)
}

// MarkRead only touches the caller's own notifications; anything else is ErrNotFound.
func (s *Service) MarkRead(ctx context.Context, orgID, userID, notificationID string) error {
	err := s.store.MarkRead(ctx, orgID, userID, notificationID)
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Service) GetSettings(ctx context.Context, orgID string) (Settings, error) {
	return s.store.Settings(ctx, orgID)
}

func (s *Service) UpdateSettings(ctx context.Context, orgID string, settings Settings) error {
	return s.store.UpdateSettings(ctx, orgID, settings)
}
