package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDay(t *testing.T) {
	moment := time.Date(2026, 3, 10, 17, 45, 30, 123, time.UTC)
	midnight := StartOfDay(moment)

	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), midnight)
}

func TestIsSameDay(t *testing.T) {
	morning := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)

	assert.True(t, IsSameDay(morning, evening))
	assert.False(t, IsSameDay(evening, tomorrow))
}

func TestIsSameDay_ConvertsLocations(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 23:30 UTC March 10th is already March 11th in Tokyo; compared in
	// UTC's frame they are the same day.
	utcTime := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	tokyoTime := time.Date(2026, 3, 11, 8, 30, 0, 0, tokyo)

	assert.True(t, IsSameDay(utcTime, tokyoTime))
}

func TestIsNextDay(t *testing.T) {
	monday := time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC)
	tuesday := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	wednesday := time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC)

	assert.True(t, IsNextDay(monday, tuesday))
	assert.False(t, IsNextDay(monday, wednesday))
	assert.False(t, IsNextDay(tuesday, monday))
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	// Clock time does not matter, only day boundaries
	assert.Equal(t, 0, DaysBetween(base, base.Add(3*time.Hour)))
	assert.Equal(t, 1, DaysBetween(base, base.Add(7*time.Hour)))
	assert.Equal(t, 3, DaysBetween(base, base.AddDate(0, 0, 3)))
	assert.Equal(t, -2, DaysBetween(base, base.AddDate(0, 0, -2)))
}

func TestFixedClock(t *testing.T) {
	instant := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := FixedClock{Instant: instant}

	assert.Equal(t, instant, clock.Now())
	assert.Equal(t, instant, clock.Now())
}

func TestParseAndFormatDate(t *testing.T) {
	parsed, err := ParseDate("2026-03-10", time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), parsed)
	assert.Equal(t, "2026-03-10", FormatDateStr(parsed))

	_, err = ParseDate("10/03/2026", time.UTC)
	assert.Error(t, err)
}

func TestDaysBetween_MidnightBoundary(t *testing.T) {
	start := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(start, start.Add(10*time.Minute)))
	assert.Equal(t, 1, DaysBetween(start, start.Add(time.Hour)))
	assert.Equal(t, -2, DaysBetween(start, start.AddDate(0, 0, -2)))
}

func TestDaysBetween_DSTDayStillCountsAsOne(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skip("tzdata not available")
	}

	// March 29th 2026 is 23 hours long in Madrid; the boundary
	// crossing must still count as exactly one day.
	before := time.Date(2026, 3, 29, 1, 0, 0, 0, madrid)
	after := time.Date(2026, 3, 30, 1, 0, 0, 0, madrid)

	assert.Equal(t, 1, DaysBetween(before, after))
	assert.Equal(t, -1, DaysBetween(after, before))
}
