// Package srs implements the spaced-repetition scheduler for vocabulary
// cards. It is a simplified SuperMemo-style ladder: early reviews walk a
// fixed interval table, later ones grow the interval geometrically.
// Card mastery itself is a domain rule (progress.MasteryIntervalDays);
// the scheduler only moves intervals.
package srs

import (
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
)

// Quality grades a review answer.
type Quality int

const (
	// QualityBlackout - unable to recall at all.
	QualityBlackout Quality = 0
	// QualityWrong - wrong, but recognized the correct answer.
	QualityWrong Quality = 1
	// QualityWrongFamiliar - wrong, the answer felt familiar.
	QualityWrongFamiliar Quality = 2
	// QualityHard - correct with significant effort.
	QualityHard Quality = 3
	// QualityGood - correct after some hesitation.
	QualityGood Quality = 4
	// QualityPerfect - instant correct answer.
	QualityPerfect Quality = 5
)

// Passed reports whether the grade counts as a successful recall.
func (q Quality) Passed() bool {
	return q >= QualityHard
}

// Scheduler computes review intervals. It is stateless and safe for
// concurrent use.
type Scheduler struct {
	// PassThreshold - grades at or above count as success.
	PassThreshold Quality
	// MaxIntervalDays caps interval growth.
	MaxIntervalDays int
	// InitialIntervals - the ladder walked before geometric growth.
	InitialIntervals []int
	// GrowthFactor multiplies the interval once past the ladder.
	GrowthFactor float64
}

// NewScheduler returns a scheduler with the default ladder.
func NewScheduler() *Scheduler {
	return &Scheduler{
		PassThreshold:    QualityHard,
		MaxIntervalDays:  365,
		InitialIntervals: []int{1, 2, 4, 7, 12, 21},
		GrowthFactor:     2.0,
	}
}

// NextInterval computes the interval that follows current given a grade.
// Failure drops the card back to a one-day interval.
func (s *Scheduler) NextInterval(current int, quality Quality) int {
	if quality < s.PassThreshold {
		return 1
	}

	for _, step := range s.InitialIntervals {
		if current < step {
			return step
		}
	}

	next := int(float64(current) * s.GrowthFactor)
	if next <= current {
		next = current + 1
	}
	if next > s.MaxIntervalDays {
		next = s.MaxIntervalDays
	}
	return next
}

// Review applies a graded answer to a card in one direction. The grade
// is taken as a plain int so callers stay decoupled from the Quality
// constants. Returns true if the card just crossed the mastery
// threshold in that direction.
func (s *Scheduler) Review(card *progress.CardProgress, dir progress.ReviewDirection, quality int, now time.Time) bool {
	wasMastered := card.IsMastered(dir)
	card.SetInterval(dir, s.NextInterval(card.Interval(dir), Quality(quality)), now)
	return !wasMastered && card.IsMastered(dir)
}

// Passed reports whether an int grade counts as a successful recall.
func (s *Scheduler) Passed(quality int) bool {
	return Quality(quality) >= s.PassThreshold
}

// DueForReview reports whether a card should be shown again in the
// given direction. A card with interval zero has never been reviewed
// and is always due.
func (s *Scheduler) DueForReview(card *progress.CardProgress, dir progress.ReviewDirection, now time.Time) bool {
	interval := card.Interval(dir)
	if interval == 0 || card.LastReviewedAt.IsZero() {
		return true
	}
	return !now.Before(card.LastReviewedAt.AddDate(0, 0, interval))
}
