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
// COMPLETE EXERCISE COMMAND
// Records the outcome of one exercise inside a lesson. The lesson's running
// percentage of correct exercises feeds its best score through the ratchet;
// the lesson itself is completed only by CompleteLessonCommand.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteExerciseCommand contains the outcome of one lesson exercise.
type CompleteExerciseCommand struct {
	// UserID is the learner's ID.
	UserID string

	// LessonID is the catalog ID of the lesson being worked through.
	LessonID string

	// ExerciseID identifies the exercise inside the lesson.
	ExerciseID string

	// Correct indicates the learner answered the exercise correctly.
	Correct bool

	// Timestamp is when the exercise was answered (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteExerciseCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("complete_exercise: user_id is required")
	}
	if c.LessonID == "" {
		return errors.New("complete_exercise: lesson_id is required")
	}
	if c.ExerciseID == "" {
		return errors.New("complete_exercise: exercise_id is required")
	}
	return nil
}

// CompleteExerciseResult contains the result of recording one exercise.
type CompleteExerciseResult struct {
	// Percentage is the lesson's running percentage of correct exercises.
	Percentage int

	// BestScore is the lesson's best score after the ratchet.
	BestScore int

	// ScoreImproved indicates the running percentage raised the best score.
	ScoreImproved bool

	// Overwritten indicates a prior outcome for the same exercise
	// was replaced.
	Overwritten bool

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteExerciseHandler handles the CompleteExerciseCommand.
type CompleteExerciseHandler struct {
	repo           progress.Repository
	catalog        *curriculum.Catalog
	resolver       *curriculum.Resolver
	eventPublisher shared.EventPublisher
}

// NewCompleteExerciseHandler creates a new CompleteExerciseHandler.
func NewCompleteExerciseHandler(
	repo progress.Repository,
	catalog *curriculum.Catalog,
	resolver *curriculum.Resolver,
	eventPublisher shared.EventPublisher,
) *CompleteExerciseHandler {
	return &CompleteExerciseHandler{
		repo:           repo,
		catalog:        catalog,
		resolver:       resolver,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the complete exercise command.
func (h *CompleteExerciseHandler) Handle(ctx context.Context, cmd CompleteExerciseCommand) (*CompleteExerciseResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("complete_exercise: validation failed: %w", err)
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("complete_exercise: %w", err)
	}

	lessonDef, err := h.catalog.LessonDef(shared.LessonID(cmd.LessonID))
	if err != nil {
		return nil, fmt.Errorf("complete_exercise: unknown lesson %s: %w", cmd.LessonID, err)
	}

	state, err := h.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("complete_exercise: failed to load state: %w", err)
	}

	if !h.resolver.IsUnlocked(lessonDef.UnitID, state.CompletedLessons()) {
		return nil, fmt.Errorf("complete_exercise: unit %s: %w", lessonDef.UnitID, shared.ErrUnitLocked)
	}

	lp := state.Lesson(lessonDef.ID, lessonDef.UnitID)
	outcome := lp.RecordExercise(shared.ExerciseID(cmd.ExerciseID), cmd.Correct, timestamp)

	if err := h.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("complete_exercise: failed to save state: %w", err)
	}

	result := &CompleteExerciseResult{
		Percentage:    outcome.Percentage.Int(),
		BestScore:     lp.BestScore.Int(),
		ScoreImproved: outcome.ScoreImproved,
		Overwritten:   outcome.Overwritten,
		Events: []shared.Event{
			shared.NewStateChangedEvent(cmd.UserID, "exercise_completed"),
		},
	}
	if outcome.ScoreImproved {
		result.Events = append(result.Events,
			shared.NewScoreImprovedEvent(cmd.UserID, cmd.LessonID,
				outcome.PreviousBest.Int(), lp.BestScore.Int()))
	}
	for _, event := range result.Events {
		_ = h.eventPublisher.Publish(event)
	}

	return result, nil
}
