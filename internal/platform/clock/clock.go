// Package clock provides the current instant and organisation-local calendar dates.
//
// Nothing in the domain packages calls time.Now directly; they receive a Clock so that
// date logic can be pinned in tests. Calendar dates are represented as time.Time values
// at midnight UTC so they compare with Equal/Before/After regardless of the zone the
// instant was observed in.
package clock

import (
	"time"
)

type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}

// LoadZone resolves an IANA zone id. The empty string is rejected rather than treated as UTC.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, &time.ParseError{Layout: "IANA zone", Value: name, Message: ": empty time zone"}
	}
	return time.LoadLocation(name)
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TodayIn returns the calendar date of now as observed in loc.
func TodayIn(now time.Time, loc *time.Location) time.Time {
	return DateOf(now.In(loc))
}

// Today resolves zone and returns the calendar date of now in it.
func Today(now time.Time, zone string) (time.Time, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	return TodayIn(now, loc), nil
}

// DaysBetween counts whole calendar days from a to b (b - a).
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
