// Package timeutil provides calendar-day utilities for streak and progress
// tracking. All day arithmetic is done in the learner's local timezone so
// that "today" matches what the learner sees on their device.
// No external dependencies - uses only standard library.
package timeutil

import (
	"math"
	"time"
)

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the wire datetime format (ISO-8601 / RFC 3339).
	FormatDateTime = time.RFC3339
	// FormatDateTimeNanos preserves sub-second precision on the wire.
	FormatDateTimeNanos = time.RFC3339Nano
)

// Clock abstracts the current time so that streak transitions and
// day-boundary logic can be tested against fixed instants.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock backed by time.Now.
type SystemClock struct {
	// Location overrides the timezone for day arithmetic. Nil means time.Local.
	Location *time.Location
}

// Now returns the current time in the configured location.
func (c SystemClock) Now() time.Time {
	now := time.Now()
	if c.Location != nil {
		return now.In(c.Location)
	}
	return now
}

// FixedClock always returns the same instant. Intended for tests.
type FixedClock struct {
	Instant time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return c.Instant
}

// StartOfDay returns midnight of the day containing t, in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of the day containing t.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// IsSameDay checks if two times fall on the same calendar day.
// t2 is converted into t1's location before comparing.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := t1, t2.In(t1.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// IsNextDay checks if t2 falls on the calendar day immediately after t1.
func IsNextDay(t1, t2 time.Time) bool {
	return IsSameDay(t1.AddDate(0, 0, 1), t2)
}

// DaysBetween returns the signed number of calendar-day boundaries crossed
// going from t1 to t2. Negative means t2 is earlier than t1 (clock skew).
// The elapsed time between two local midnights is not always a multiple
// of 24 hours (DST shifts a day by an hour), so the quotient is rounded.
func DaysBetween(t1, t2 time.Time) int {
	a := StartOfDay(t1)
	b := StartOfDay(t2.In(t1.Location()))
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// DaysSince returns how many calendar days have passed between t and now.
func DaysSince(t time.Time, now time.Time) int {
	return DaysBetween(t, now)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD).
func FormatDateStr(t time.Time) string {
	return t.Format(FormatDate)
}

// ParseDate parses a date string (YYYY-MM-DD) in the given location.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(FormatDate, value, loc)
}
