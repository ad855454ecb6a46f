package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW CARD COMMAND
// Records one graded vocabulary card review. Interval arithmetic lives in
// the spaced-repetition collaborator; this handler only routes the grade
// and keeps the review counters.
// ══════════════════════════════════════════════════════════════════════════════

// ReviewScheduler advances the spaced-repetition interval of a card.
// Grades run 0-5; the scheduler decides what counts as a pass.
type ReviewScheduler interface {
	// Review applies a graded answer in one direction and reports
	// whether the card just crossed the mastery threshold there.
	Review(card *progress.CardProgress, dir progress.ReviewDirection, quality int, now time.Time) bool

	// Passed reports whether the grade counts as a successful recall.
	Passed(quality int) bool
}

// ReviewCardCommand contains the data of one card review.
type ReviewCardCommand struct {
	// UserID is the learner's ID.
	UserID string

	// CardID is the reviewed card.
	CardID string

	// Category is the card's catalog category ("food", "travel").
	Category string

	// Direction is "forward" or "reverse" (defaults to forward).
	Direction string

	// Quality is the review grade, 0-5.
	Quality int

	// Timestamp is when the review happened (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c ReviewCardCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("review_card: user_id is required")
	}
	if c.CardID == "" {
		return errors.New("review_card: card_id is required")
	}
	if c.Quality < 0 || c.Quality > 5 {
		return fmt.Errorf("review_card: quality out of range: %d", c.Quality)
	}
	switch c.Direction {
	case "", string(progress.DirectionForward), string(progress.DirectionReverse):
	default:
		return fmt.Errorf("review_card: unknown direction: %s", c.Direction)
	}
	return nil
}

func (c ReviewCardCommand) direction() progress.ReviewDirection {
	if c.Direction == string(progress.DirectionReverse) {
		return progress.DirectionReverse
	}
	return progress.DirectionForward
}

// ReviewCardResult contains the result of one card review.
type ReviewCardResult struct {
	// Correct indicates the grade counted as a successful recall.
	Correct bool

	// Mastered indicates the card just crossed the mastery threshold
	// in the reviewed direction.
	Mastered bool

	// IntervalDays is the card's new interval in the reviewed direction.
	IntervalDays int

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ReviewCardHandler handles the ReviewCardCommand.
type ReviewCardHandler struct {
	repo           progress.Repository
	scheduler      ReviewScheduler
	eventPublisher shared.EventPublisher
}

// NewReviewCardHandler creates a new ReviewCardHandler.
func NewReviewCardHandler(
	repo progress.Repository,
	scheduler ReviewScheduler,
	eventPublisher shared.EventPublisher,
) *ReviewCardHandler {
	return &ReviewCardHandler{
		repo:           repo,
		scheduler:      scheduler,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the complete exercise command.
func (h *ReviewCardHandler) Handle(ctx context.Context, cmd ReviewCardCommand) (*ReviewCardResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("review_card: validation failed: %w", err)
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("review_card: %w", err)
	}

	state, err := h.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("review_card: failed to load state: %w", err)
	}

	dir := cmd.direction()
	card := state.Card(shared.CardID(cmd.CardID), cmd.Category)
	mastered := h.scheduler.Review(card, dir, cmd.Quality, timestamp)
	correct := h.scheduler.Passed(cmd.Quality)

	state.RecordReview(correct, timestamp)
	state.RecordFirstAction(progress.FirstActionReview, timestamp)

	if err := h.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("review_card: failed to save state: %w", err)
	}

	result := &ReviewCardResult{
		Correct:      correct,
		Mastered:     mastered,
		IntervalDays: card.Interval(dir),
		Events: []shared.Event{
			shared.NewStateChangedEvent(cmd.UserID, "card_reviewed"),
		},
	}
	for _, event := range result.Events {
		_ = h.eventPublisher.Publish(event)
	}

	return result, nil
}
