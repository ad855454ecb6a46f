package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

func day(d int) time.Time {
	// March 2026 starts on a Sunday; day(2) is Monday March 2nd.
	return time.Date(2026, 3, d, 15, 30, 0, 0, time.UTC)
}

func TestStreak_FirstActivity(t *testing.T) {
	s := NewStreak()
	outcome := s.RecordActivity(day(2))

	assert.True(t, outcome.Extended)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 1, s.Longest)
}

func TestStreak_NextDayExtends(t *testing.T) {
	s := NewStreak()
	s.RecordActivity(day(2)) // Monday
	outcome := s.RecordActivity(day(3))

	assert.True(t, outcome.Extended)
	assert.False(t, outcome.FreezeConsumed)
	assert.Equal(t, 2, s.Current)
}

func TestStreak_SameDayIsNoOp(t *testing.T) {
	s := NewStreak()
	s.RecordActivity(day(2))
	outcome := s.RecordActivity(day(2).Add(4 * time.Hour))

	assert.False(t, outcome.Changed())
	assert.Equal(t, 1, s.Current)
}

func TestStreak_OneMissedDayWithFreeze(t *testing.T) {
	s := NewStreak()
	s.GrantFreeze(1)
	s.RecordActivity(day(2)) // Monday
	outcome := s.RecordActivity(day(4)) // Wednesday, Tuesday missed

	assert.True(t, outcome.Extended)
	assert.True(t, outcome.FreezeConsumed)
	assert.Equal(t, 2, s.Current)
	assert.Equal(t, 0, s.FreezesAvailable)
	// The consumption day is recorded alongside the spend
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), s.LastFreezeUsed)
}

func TestStreak_ExtendsAcrossSpringForward(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skip("tzdata not available")
	}

	// Clocks jump forward on March 29th 2026, leaving a 23-hour day.
	s := NewStreak()
	s.RecordActivity(time.Date(2026, 3, 28, 21, 0, 0, 0, madrid))
	outcome := s.RecordActivity(time.Date(2026, 3, 29, 9, 0, 0, 0, madrid))

	assert.True(t, outcome.Extended)
	assert.Equal(t, 2, s.Current)

	outcome = s.RecordActivity(time.Date(2026, 3, 30, 9, 0, 0, 0, madrid))
	assert.True(t, outcome.Extended)
	assert.Equal(t, 3, s.Current)
}

func TestStreak_OneMissedDayWithoutFreeze(t *testing.T) {
	s := NewStreak()
	s.RecordActivity(day(2))
	outcome := s.RecordActivity(day(4))

	assert.True(t, outcome.Broken)
	assert.Equal(t, 1, outcome.PreviousStreak)
	assert.Equal(t, 1, outcome.DaysMissed)
	assert.Equal(t, 1, s.Current)
}

func TestStreak_LongGapBreaksEvenWithFreeze(t *testing.T) {
	s := NewStreak()
	s.GrantFreeze(3)
	s.RecordActivity(day(2)) // Monday
	s.RecordActivity(day(3))
	outcome := s.RecordActivity(day(6)) // Friday, gap of 3 days

	assert.True(t, outcome.Broken)
	assert.Equal(t, 2, outcome.PreviousStreak)
	assert.Equal(t, 2, outcome.DaysMissed)
	assert.Equal(t, 1, s.Current)
	// One freeze covers exactly one missed day; a longer gap never
	// consumes any.
	assert.Equal(t, 3, s.FreezesAvailable)
}

func TestStreak_LongestIsPreservedAcrossBreak(t *testing.T) {
	s := NewStreak()
	for d := 2; d <= 6; d++ {
		s.RecordActivity(day(d))
	}
	assert.Equal(t, 5, s.Longest)

	s.RecordActivity(day(20))
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 5, s.Longest)
}

func TestStreak_ClockSetBackIsNoOp(t *testing.T) {
	s := NewStreak()
	s.RecordActivity(day(10))
	outcome := s.RecordActivity(day(8))

	assert.False(t, outcome.Changed())
	assert.Equal(t, 1, s.Current)
}

func TestStreak_MultiplierTiers(t *testing.T) {
	tests := []struct {
		days int
		want shared.Multiplier
	}{
		{0, 1.0},
		{1, 1.0},
		{6, 1.0},
		{7, 1.15},
		{13, 1.15},
		{14, 1.3},
		{29, 1.3},
		{30, 1.5},
		{59, 1.5},
		{60, 1.75},
		{99, 1.75},
		{100, 2.0},
		{365, 2.0},
	}

	for _, tt := range tests {
		s := &Streak{Current: tt.days}
		assert.Equal(t, tt.want, s.Multiplier(), "streak of %d days", tt.days)
	}
}

func TestStreak_GrantFreeze_IgnoresNonPositive(t *testing.T) {
	s := NewStreak()
	s.GrantFreeze(2)
	s.GrantFreeze(0)
	s.GrantFreeze(-1)
	assert.Equal(t, 2, s.FreezesAvailable)
}
