package feedback

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"perfhub/internal/domain/notifications"
	"perfhub/internal/platform/db"
)

type Service struct {
	store    StoreAPI
	notifier Notifier
}

func NewService(store StoreAPI, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Create opens a request and tells the requestee. Notification failure does not undo
// the request; the cadence reminders will follow up.
func (s *Service) Create(ctx context.Context, orgID, requesterID string, in CreateInput) (Request, error) {
	in.Message = strings.TrimSpace(in.Message)
	if in.RequesteeID == requesterID {
		return Request{}, ErrSelfRequest
	}
	active, err := s.store.UserActive(ctx, orgID, in.RequesteeID)
	if err != nil {
		return Request{}, err
	}
	if !active {
		return Request{}, ErrUnknownUser
	}

	req, err := s.store.CreateRequest(ctx, orgID, requesterID, in)
	if err != nil {
		return Request{}, err
	}

	body := "A colleague asked for your feedback."
	if in.Message != "" {
		body += " " + in.Message
	}
	if !s.notifier.NotifyUsers(ctx, orgID, []string{in.RequesteeID}, notifications.TypeFeedbackRequested, "Feedback requested", body) {
		slog.Warn("feedback request notification failed", "organisationId", orgID, "requestId", req.ID)
	}
	return req, nil
}

func (s *Service) ListPending(ctx context.Context, orgID, userID string) ([]Request, error) {
	return s.store.ListPending(ctx, orgID, userID)
}

func (s *Service) Respond(ctx context.Context, orgID, userID, requestID string, in RespondInput) (Request, error) {
	current, err := s.store.GetRequest(ctx, orgID, requestID)
	if errors.Is(err, db.ErrNotFound) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	if current.RequesteeID != userID {
		return Request{}, ErrForbidden
	}
	if current.Status != StatusPending {
		return Request{}, ErrAlreadyResponded
	}

	answered, err := s.store.Respond(ctx, orgID, requestID, strings.TrimSpace(in.Response))
	if errors.Is(err, db.ErrNotFound) {
		return Request{}, ErrAlreadyResponded
	}
	if err != nil {
		return Request{}, err
	}

	if !s.notifier.NotifyUsers(ctx, orgID, []string{answered.RequesterID}, notifications.TypeFeedbackReceived, "Feedback received", "Your feedback request has been answered.") {
		slog.Warn("feedback response notification failed", "organisationId", orgID, "requestId", requestID)
	}
	return answered, nil
}
