package scheduler

import (
	"fmt"
	"time"
)

// MinInterval is the smallest usable interval: the run loop ticks once
// a second, so finer schedules would silently collapse into it.
const MinInterval = time.Second

// IntervalSchedule runs a job at a fixed interval, counted from the
// start of the previous run.
type IntervalSchedule struct {
	interval time.Duration
}

// NewIntervalSchedule creates a fixed-interval schedule.
// Intervals below MinInterval are clamped up to it.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	if interval < MinInterval {
		interval = MinInterval
	}
	return &IntervalSchedule{interval: interval}
}

// Next returns the next due time after t.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.interval)
}

// String renders the schedule for logs ("@every 15m0s").
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.interval)
}
