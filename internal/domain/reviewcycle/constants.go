package reviewcycle

type Phase string

const (
	PhaseSelfReview    Phase = "self_review"
	PhaseManagerReview Phase = "manager_review"
	PhaseCheckIn       Phase = "check_in_with_manager"
)

var AllPhases = []Phase{PhaseSelfReview, PhaseManagerReview, PhaseCheckIn}

func (p Phase) Label() string {
	switch p {
	case PhaseSelfReview:
		return "Self review"
	case PhaseManagerReview:
		return "Manager review"
	case PhaseCheckIn:
		return "Check-in with manager"
	}
	return string(p)
}

type State string

const (
	StateUpcoming State = "upcoming"
	StateActive   State = "active"
	StateClosed   State = "closed"
)
