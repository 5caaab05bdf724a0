package org

import "time"

type Organisation struct {
	ID                         string     `json:"id"`
	Name                       string     `json:"name"`
	TimeZone                   string     `json:"timeZone"`
	SlackWebhookURL            string     `json:"slackWebhookUrl,omitempty"`
	BroadcastEnabled           bool       `json:"feedbackBroadcastEnabled"`
	LastFeedbackReminderSentAt *time.Time `json:"lastFeedbackReminderSentAt,omitempty"`
	CreatedAt                  time.Time  `json:"createdAt"`
}

// Unit is a department, team, designation or KRA. ParentID is the owning department
// for a team and the owning team for a designation.
type Unit struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	ParentID  string    `json:"parentId,omitempty"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ref is the answer to a by-name lookup.
type Ref struct {
	ID     string
	Exists bool
	Active bool
}

// Usable reports whether the referenced unit exists and is active.
func (r Ref) Usable() bool {
	return r.Exists && r.Active
}

type ListFilter struct {
	ParentID        string
	IncludeInactive bool
}
