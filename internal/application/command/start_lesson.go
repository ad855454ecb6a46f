// Package command contains write operations (CQRS - Commands).
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
// START LESSON COMMAND
// Marks a lesson as opened. Every open counts as one attempt; the status
// transition itself happens once and completed never rolls back.
// ══════════════════════════════════════════════════════════════════════════════

// StartLessonCommand contains the data to open a lesson.
type StartLessonCommand struct {
	// UserID is the learner's ID.
	UserID string

	// LessonID is the catalog ID of the lesson being opened.
	LessonID string

	// Timestamp is when the lesson was opened (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c StartLessonCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("start_lesson: user_id is required")
	}
	if c.LessonID == "" {
		return errors.New("start_lesson: lesson_id is required")
	}
	return nil
}

// StartLessonResult contains the result of opening a lesson.
type StartLessonResult struct {
	// Started indicates the lesson transitioned into in_progress.
	// False means it had been opened before.
	Started bool

	// LessonID is the opened lesson.
	LessonID string

	// UnitID is the unit the lesson belongs to.
	UnitID string

	// Attempts is the lesson's attempt count after this open.
	Attempts int

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// StartLessonHandler handles the StartLessonCommand.
type StartLessonHandler struct {
	repo           progress.Repository
	catalog        *curriculum.Catalog
	resolver       *curriculum.Resolver
	eventPublisher shared.EventPublisher
}

// NewStartLessonHandler creates a new StartLessonHandler.
func NewStartLessonHandler(
	repo progress.Repository,
	catalog *curriculum.Catalog,
	resolver *curriculum.Resolver,
	eventPublisher shared.EventPublisher,
) *StartLessonHandler {
	return &StartLessonHandler{
		repo:           repo,
		catalog:        catalog,
		resolver:       resolver,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the start lesson command.
func (h *StartLessonHandler) Handle(ctx context.Context, cmd StartLessonCommand) (*StartLessonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("start_lesson: validation failed: %w", err)
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("start_lesson: %w", err)
	}

	lessonDef, err := h.catalog.LessonDef(shared.LessonID(cmd.LessonID))
	if err != nil {
		return nil, fmt.Errorf("start_lesson: unknown lesson %s: %w", cmd.LessonID, err)
	}

	state, err := h.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("start_lesson: failed to load state: %w", err)
	}

	if !h.resolver.IsUnlocked(lessonDef.UnitID, state.CompletedLessons()) {
		return nil, fmt.Errorf("start_lesson: unit %s: %w", lessonDef.UnitID, shared.ErrUnitLocked)
	}

	lp := state.Lesson(lessonDef.ID, lessonDef.UnitID)
	started := lp.RecordStart(timestamp)

	result := &StartLessonResult{
		Started:  started,
		LessonID: cmd.LessonID,
		UnitID:   lessonDef.UnitID.String(),
		Attempts: lp.Attempts,
		Events:   make([]shared.Event, 0, 1),
	}

	// Каждое открытие считается попыткой, поэтому сохраняем всегда
	if err := h.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("start_lesson: failed to save state: %w", err)
	}

	if !started {
		return result, nil
	}

	result.Events = append(result.Events,
		shared.NewLessonStartedEvent(cmd.UserID, cmd.LessonID, result.UnitID))
	for _, event := range result.Events {
		_ = h.eventPublisher.Publish(event)
	}

	return result, nil
}
