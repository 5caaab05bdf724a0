package reminders

import (
	"context"
	"time"

	"perfhub/internal/domain/reviewcycle"
)

type StoreAPI interface {
	ListOrganisations(ctx context.Context) ([]Organisation, error)
	GetOrganisation(ctx context.Context, orgID string) (Organisation, error)
	Recipients(ctx context.Context, orgID string, phase reviewcycle.Phase) ([]string, error)
	ActiveUserIDs(ctx context.Context, orgID string) ([]string, error)
	PendingFeedbackRequests(ctx context.Context, orgID string, since time.Time) ([]PendingFeedback, error)
	MarkerExists(ctx context.Context, m Marker) (bool, error)
	RecordMarker(ctx context.Context, m Marker) error
	SetLastFeedbackReminderSentAt(ctx context.Context, orgID string, at time.Time) error
}

// Cycles is the review cycle behaviour the scheduler relies on.
type Cycles interface {
	UnpublishExpired(ctx context.Context, orgID string, today time.Time) (int64, error)
	List(ctx context.Context, orgID string, filter reviewcycle.ListFilter) ([]reviewcycle.ReviewCycle, error)
}

// Sender delivers reminders and reports whether delivery succeeded.
type Sender interface {
	NotifyUsers(ctx context.Context, orgID string, userIDs []string, ntype, title, body string) bool
	PostChannel(ctx context.Context, webhookURL, text string) bool
}

type Observer interface {
	ReminderDelivered(kind string, ok bool)
}
