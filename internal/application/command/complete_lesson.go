package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/curriculum"
	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON COMMAND
// Records a finished lesson attempt: ratchets the best score, extends the
// streak and awards XP on first completion, and reports newly unlocked units.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonCommand contains the data of a finished lesson attempt.
type CompleteLessonCommand struct {
	// UserID is the learner's ID.
	UserID string

	// LessonID is the catalog ID of the attempted lesson.
	LessonID string

	// Score is the attempt score (0-100).
	Score int

	// Timestamp is when the attempt finished (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteLessonCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("complete_lesson: user_id is required")
	}
	if c.LessonID == "" {
		return errors.New("complete_lesson: lesson_id is required")
	}
	if c.Score < 0 || c.Score > 100 {
		return fmt.Errorf("complete_lesson: score out of range: %d", c.Score)
	}
	return nil
}

// CompleteLessonResult contains the result of a lesson attempt.
type CompleteLessonResult struct {
	// Attempt describes what the ratchet changed.
	Attempt progress.AttemptResult

	// Passed indicates the score cleared the lesson's pass threshold.
	Passed bool

	// Award is the XP credited; zero unless the lesson just completed.
	Award progress.XPAward

	// Streak describes the streak transition on first completion.
	Streak progress.StreakOutcome

	// UnlockedUnits lists units this completion unlocked.
	UnlockedUnits []string

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonHandler handles the CompleteLessonCommand.
type CompleteLessonHandler struct {
	repo           progress.Repository
	catalog        *curriculum.Catalog
	resolver       *curriculum.Resolver
	eventPublisher shared.EventPublisher
}

// NewCompleteLessonHandler creates a new CompleteLessonHandler.
func NewCompleteLessonHandler(
	repo progress.Repository,
	catalog *curriculum.Catalog,
	resolver *curriculum.Resolver,
	eventPublisher shared.EventPublisher,
) *CompleteLessonHandler {
	return &CompleteLessonHandler{
		repo:           repo,
		catalog:        catalog,
		resolver:       resolver,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the complete lesson command.
func (h *CompleteLessonHandler) Handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("complete_lesson: validation failed: %w", err)
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: %w", err)
	}

	lessonDef, err := h.catalog.LessonDef(shared.LessonID(cmd.LessonID))
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: unknown lesson %s: %w", cmd.LessonID, err)
	}

	state, err := h.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: failed to load state: %w", err)
	}

	completedBefore := state.CompletedLessons()
	if !h.resolver.IsUnlocked(lessonDef.UnitID, completedBefore) {
		return nil, fmt.Errorf("complete_lesson: unit %s: %w", lessonDef.UnitID, shared.ErrUnitLocked)
	}

	score, err := shared.NewScore(cmd.Score)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: %w", err)
	}
	passed := score >= lessonDef.PassScore

	lp := state.Lesson(lessonDef.ID, lessonDef.UnitID)
	attempt, err := lp.RecordAttempt(score, passed, timestamp)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: %w", err)
	}

	result := &CompleteLessonResult{
		Attempt: attempt,
		Passed:  passed,
		Events:  make([]shared.Event, 0, 4),
	}

	if attempt.ScoreImproved {
		result.Events = append(result.Events,
			shared.NewScoreImprovedEvent(cmd.UserID, cmd.LessonID,
				attempt.PreviousBest.Int(), score.Int()))
	}

	if attempt.JustCompleted {
		// Streak first: the XP multiplier reflects today's activity.
		outcome := state.Streak.RecordActivity(timestamp)
		result.Streak = outcome
		h.appendStreakEvents(result, cmd.UserID, outcome, state)

		award, err := state.AwardXP(lessonDef.BaseXP, timestamp)
		if err != nil {
			return nil, fmt.Errorf("complete_lesson: %w", err)
		}
		result.Award = award
		result.Events = append(result.Events,
			shared.NewXPGainedEvent(cmd.UserID, award.Amount, award.Base,
				float64(award.Multiplier), award.NewTotal.Int(), "lesson", cmd.LessonID))
		if award.LeveledUp() {
			result.Events = append(result.Events,
				shared.NewLevelUpEvent(cmd.UserID, award.OldLevel.Int(),
					award.NewLevel.Int(), award.NewTotal.Int()))
		}

		state.RecordFirstAction(progress.FirstActionLesson, timestamp)

		for _, unitID := range h.resolver.NewlyUnlocked(completedBefore, state.CompletedLessons()) {
			result.UnlockedUnits = append(result.UnlockedUnits, unitID.String())
			result.Events = append(result.Events,
				shared.NewUnitUnlockedEvent(cmd.UserID, unitID.String()))
		}

		result.Events = append(result.Events,
			shared.NewLessonCompletedEvent(cmd.UserID, cmd.LessonID,
				lessonDef.UnitID.String(), score.Int(), result.Award.Amount))
	}

	if err := h.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("complete_lesson: failed to save state: %w", err)
	}

	result.Events = append(result.Events,
		shared.NewStateChangedEvent(cmd.UserID, "lesson_attempt"))
	for _, event := range result.Events {
		_ = h.eventPublisher.Publish(event)
	}

	return result, nil
}

func (h *CompleteLessonHandler) appendStreakEvents(result *CompleteLessonResult, userID string, outcome progress.StreakOutcome, state *progress.UserState) {
	switch {
	case outcome.FreezeConsumed:
		result.Events = append(result.Events,
			shared.NewStreakFrozenEvent(userID, state.Streak.Current, state.Streak.FreezesAvailable))
	case outcome.Broken:
		result.Events = append(result.Events,
			shared.NewStreakBrokenEvent(userID, outcome.PreviousStreak, outcome.DaysMissed))
	case outcome.Extended:
		result.Events = append(result.Events,
			shared.NewStreakExtendedEvent(userID, state.Streak.Current, state.Streak.Longest,
				float64(state.Streak.Multiplier())))
	}
}
