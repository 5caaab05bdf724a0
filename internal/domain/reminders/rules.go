// Package reminders decides when review and feedback reminders are due and walks
// organisations on every scheduler tick to deliver them.
//
// All rules are pure functions of an explicit instant or calendar date. Callers
// resolve the organisation's zone first.
package reminders

import (
	"time"

	"perfhub/internal/platform/clock"
)

type Reminder string

const (
	None            Reminder = ""
	FiveDayReminder Reminder = "five_day"
	LastDayReminder Reminder = "last_day"
)

const (
	fiveDayLead = 5

	feedbackCadenceDays = 7
	feedbackMinDays     = 7
	feedbackMaxDays     = 21

	broadcastIntervalDays = 14
)

// ShouldRemind compares two calendar dates: five days before end yields
// FiveDayReminder, end itself yields LastDayReminder.
func ShouldRemind(today, end time.Time) Reminder {
	switch clock.DaysBetween(today, end) {
	case fiveDayLead:
		return FiveDayReminder
	case 0:
		return LastDayReminder
	}
	return None
}

// JustCrossedTargetHour is true on the single tick whose local hour equals target
// while the hour one tick earlier was still below it.
func JustCrossedTargetHour(now time.Time, loc *time.Location, target int, tick time.Duration) bool {
	current := now.In(loc)
	previous := now.Add(-tick).In(loc)
	if current.Hour() != target {
		return false
	}
	// A previous tick on an earlier local date counts as below the target hour.
	if clock.DateOf(previous).Before(clock.DateOf(current)) {
		return true
	}
	return previous.Hour() < target
}

// FeedbackRequestReminderDue fires on days 7, 14 and 21 after the request was made.
func FeedbackRequestReminderDue(createdOn, today time.Time) bool {
	days := clock.DaysBetween(createdOn, today)
	return days >= feedbackMinDays && days <= feedbackMaxDays && days%feedbackCadenceDays == 0
}

type BroadcastSettings struct {
	Enabled bool
	Weekday time.Weekday
	Hour    int
}

// BroadcastDue reports whether the organisation-wide feedback broadcast should go out
// now. lastSent is the instant of the last confirmed delivery, nil if never sent.
func BroadcastDue(now time.Time, loc *time.Location, settings BroadcastSettings, lastSent *time.Time) bool {
	if !settings.Enabled {
		return false
	}
	local := now.In(loc)
	if local.Weekday() != settings.Weekday || local.Hour() != settings.Hour {
		return false
	}
	if lastSent == nil {
		return true
	}
	return clock.DaysBetween(lastSent.In(loc), local) >= broadcastIntervalDays
}
