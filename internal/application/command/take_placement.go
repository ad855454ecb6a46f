package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/placement"
	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TAKE PLACEMENT COMMAND
// Scores the CEFR placement test and applies the assigned level. A retake
// never lowers a level already assigned.
// ══════════════════════════════════════════════════════════════════════════════

// TakePlacementCommand contains the learner's placement answers.
type TakePlacementCommand struct {
	// UserID is the learner's ID.
	UserID string

	// Answers maps question IDs to the chosen options.
	Answers []placement.Answer

	// Timestamp is when the test finished (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c TakePlacementCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("take_placement: user_id is required")
	}
	if len(c.Answers) == 0 {
		return errors.New("take_placement: answers are required")
	}
	return nil
}

// TakePlacementResult contains the scored placement outcome.
type TakePlacementResult struct {
	// Result is the scorer's verdict.
	Result *placement.Result

	// Applied indicates the assigned level became the learner's level.
	// False means a previous result already assigned the same or a
	// higher level.
	Applied bool

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// TakePlacementHandler handles the TakePlacementCommand.
type TakePlacementHandler struct {
	repo           progress.Repository
	scorer         *placement.Scorer
	eventPublisher shared.EventPublisher
}

// NewTakePlacementHandler creates a new TakePlacementHandler.
func NewTakePlacementHandler(
	repo progress.Repository,
	scorer *placement.Scorer,
	eventPublisher shared.EventPublisher,
) *TakePlacementHandler {
	return &TakePlacementHandler{
		repo:           repo,
		scorer:         scorer,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the take placement command.
func (h *TakePlacementHandler) Handle(ctx context.Context, cmd TakePlacementCommand) (*TakePlacementResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("take_placement: validation failed: %w", err)
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("take_placement: %w", err)
	}

	scored, err := h.scorer.Score(cmd.Answers, timestamp)
	if err != nil {
		return nil, fmt.Errorf("take_placement: %w", err)
	}

	state, err := h.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("take_placement: failed to load state: %w", err)
	}

	applied := state.RecordPlacement(scored.AssignedLevel, timestamp)
	state.RecordFirstAction(progress.FirstActionPlacement, timestamp)

	if err := h.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("take_placement: failed to save state: %w", err)
	}

	result := &TakePlacementResult{
		Result:  scored,
		Applied: applied,
		Events: []shared.Event{
			shared.NewPlacementCompletedEvent(cmd.UserID, scored.AssignedLevel.String(),
				scored.TotalCorrect, scored.TotalAnswered),
			shared.NewStateChangedEvent(cmd.UserID, "placement_completed"),
		},
	}
	for _, event := range result.Events {
		_ = h.eventPublisher.Publish(event)
	}

	return result, nil
}
