package feedback

import "time"

const (
	StatusPending   = "pending"
	StatusResponded = "responded"
)

type Request struct {
	ID          string     `json:"id"`
	RequesterID string     `json:"requesterId"`
	RequesteeID string     `json:"requesteeId"`
	AboutID     string     `json:"aboutId,omitempty"`
	Message     string     `json:"message"`
	Status      string     `json:"status"`
	Response    string     `json:"response,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

type CreateInput struct {
	RequesteeID string `json:"requesteeId" validate:"required,uuid"`
	AboutID     string `json:"aboutId" validate:"omitempty,uuid"`
	Message     string `json:"message" validate:"max=2000"`
}

type RespondInput struct {
	Response string `json:"response" validate:"required,max=5000"`
}
