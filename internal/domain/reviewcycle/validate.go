package reviewcycle

import (
	"fmt"
	"strings"

	"perfhub/internal/platform/clock"
)

// Validate checks that every window is ordered, that the phases sit inside the
// overall cycle and that no two phases share a day.
func (in Input) Validate() error {
	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "name is required")
	}

	named := []struct {
		label string
		w     Window
	}{
		{"Review cycle", in.Overall},
		{PhaseSelfReview.Label(), in.SelfReview},
		{PhaseManagerReview.Label(), in.ManagerReview},
		{PhaseCheckIn.Label(), in.CheckIn},
	}
	ordered := true
	for _, n := range named {
		if n.w.Start.IsZero() || n.w.End.IsZero() {
			problems = append(problems, fmt.Sprintf("%s start and end dates are required", n.label))
			ordered = false
			continue
		}
		if clock.DateOf(n.w.End).Before(clock.DateOf(n.w.Start)) {
			problems = append(problems, fmt.Sprintf("%s end date must not be before its start date", n.label))
			ordered = false
		}
	}
	if !ordered {
		return &ValidationError{Problems: problems}
	}

	phases := named[1:]
	for _, p := range phases {
		if !in.Overall.Contains(p.w.Start) || !in.Overall.Contains(p.w.End) {
			problems = append(problems, fmt.Sprintf("%s must fall within the review cycle", p.label))
		}
	}
	for i := 0; i < len(phases); i++ {
		for j := i + 1; j < len(phases); j++ {
			if overlaps(phases[i].w, phases[j].w) {
				problems = append(problems, fmt.Sprintf("%s overlaps %s", phases[i].label, phases[j].label))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func overlaps(a, b Window) bool {
	return !clock.DateOf(a.End).Before(clock.DateOf(b.Start)) && !clock.DateOf(b.End).Before(clock.DateOf(a.Start))
}
