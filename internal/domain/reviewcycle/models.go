package reviewcycle

import "time"

// Window is an inclusive range of calendar dates.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type PhaseStatus struct {
	Phase          Phase  `json:"phase"`
	Window         Window `json:"window"`
	State          State  `json:"state"`
	DeadlinePassed bool   `json:"deadlinePassed"`
}

type ReviewCycle struct {
	ID             string    `json:"id"`
	OrganisationID string    `json:"organisationId"`
	Name           string    `json:"name"`
	Overall        Window    `json:"overall"`
	SelfReview     Window    `json:"selfReview"`
	ManagerReview  Window    `json:"managerReview"`
	CheckIn        Window    `json:"checkInWithManager"`
	Published      bool      `json:"published"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	IsSelfReviewActive         bool          `json:"isSelfReviewActive"`
	IsManagerReviewActive      bool          `json:"isManagerReviewActive"`
	IsCheckInWithManagerActive bool          `json:"isCheckInWithManagerActive"`
	Phases                     []PhaseStatus `json:"phases,omitempty"`
}

// Input carries the writable fields of a cycle.
type Input struct {
	Name          string
	Overall       Window
	SelfReview    Window
	ManagerReview Window
	CheckIn       Window
	Published     bool
}

type ListFilter struct {
	Published *bool
	Limit     int
	Offset    int
}
