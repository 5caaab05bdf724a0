package reminders

import "time"

type Organisation struct {
	ID                         string
	Name                       string
	TimeZone                   string
	SlackWebhookURL            string
	BroadcastEnabled           bool
	LastFeedbackReminderSentAt *time.Time
}

type PendingFeedback struct {
	ID          string
	RequesterID string
	RequesteeID string
	CreatedAt   time.Time
}

// Marker records one delivered reminder. Subject is the cycle or request it was about.
type Marker struct {
	OrganisationID string
	Subject        string
	Phase          string
	Kind           string
	SentOn         time.Time
}

// Settings configures when reminders go out, in each organisation's local time.
type Settings struct {
	ReminderHour     int
	Tick             time.Duration
	BroadcastWeekday time.Weekday
	BroadcastHour    int
}

// Summary is what one tick did across all organisations.
type Summary struct {
	Organisations int      `json:"organisations"`
	Failed        int      `json:"failed"`
	Sent          int      `json:"sent"`
	Unpublished   int64    `json:"unpublished"`
	Errors        []string `json:"errors,omitempty"`
}

type OrganisationResult struct {
	Sent        int   `json:"sent"`
	Unpublished int64 `json:"unpublished"`
}
