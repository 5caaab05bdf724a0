package notifications

import "time"

type Notification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Settings struct {
	EmailEnabled     bool   `json:"emailEnabled"`
	EmailFrom        string `json:"emailFrom"`
	SlackWebhookURL  string `json:"slackWebhookUrl"`
	BroadcastEnabled bool   `json:"feedbackBroadcastEnabled"`
}
