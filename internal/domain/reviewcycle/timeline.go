package reviewcycle

import (
	"time"

	"perfhub/internal/platform/clock"
)

// Contains reports whether day falls within the window, both ends inclusive.
func (w Window) Contains(day time.Time) bool {
	d := clock.DateOf(day)
	return !d.Before(clock.DateOf(w.Start)) && !d.After(clock.DateOf(w.End))
}

func (w Window) StateOn(today time.Time) State {
	d := clock.DateOf(today)
	switch {
	case d.Before(clock.DateOf(w.Start)):
		return StateUpcoming
	case d.After(clock.DateOf(w.End)):
		return StateClosed
	default:
		return StateActive
	}
}

func (c ReviewCycle) PhaseWindow(p Phase) Window {
	switch p {
	case PhaseSelfReview:
		return c.SelfReview
	case PhaseManagerReview:
		return c.ManagerReview
	default:
		return c.CheckIn
	}
}

// WithActiveFlags resolves today in zone from now and returns a copy of c with the
// derived phase flags set. An unresolvable zone is returned as is.
func (c ReviewCycle) WithActiveFlags(now time.Time, zone string) (ReviewCycle, error) {
	loc, err := clock.LoadZone(zone)
	if err != nil {
		return ReviewCycle{}, err
	}
	return c.ActiveOn(clock.TodayIn(now, loc)), nil
}

// ActiveOn returns a copy of c with the derived flags computed for the given date.
func (c ReviewCycle) ActiveOn(today time.Time) ReviewCycle {
	out := c
	out.IsSelfReviewActive = c.SelfReview.Contains(today)
	out.IsManagerReviewActive = c.ManagerReview.Contains(today)
	out.IsCheckInWithManagerActive = c.CheckIn.Contains(today)

	out.Phases = make([]PhaseStatus, 0, len(AllPhases))
	for _, p := range AllPhases {
		w := c.PhaseWindow(p)
		state := w.StateOn(today)
		out.Phases = append(out.Phases, PhaseStatus{
			Phase:          p,
			Window:         w,
			State:          state,
			DeadlinePassed: state == StateClosed,
		})
	}
	return out
}

// Ended reports whether the whole cycle finished before today.
func (c ReviewCycle) Ended(today time.Time) bool {
	return c.Overall.StateOn(today) == StateClosed
}
