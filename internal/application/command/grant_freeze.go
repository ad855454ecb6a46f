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
// GRANT FREEZE COMMAND
// Credits streak freezes. Rewards decide when to grant; this core only
// stores and later consumes them.
// ══════════════════════════════════════════════════════════════════════════════

// GrantFreezeCommand credits streak freezes to a learner.
type GrantFreezeCommand struct {
	// UserID is the learner's ID.
	UserID string

	// Count is how many freezes to credit.
	Count int

	// Timestamp is when the grant happened (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c GrantFreezeCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("grant_freeze: user_id is required")
	}
	if c.Count <= 0 {
		return fmt.Errorf("grant_freeze: count must be positive: %d", c.Count)
	}
	return nil
}

// GrantFreezeResult contains the result of a freeze grant.
type GrantFreezeResult struct {
	// FreezesAvailable is the balance after the grant.
	FreezesAvailable int

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GrantFreezeHandler handles the GrantFreezeCommand.
type GrantFreezeHandler struct {
	repo           progress.Repository
	eventPublisher shared.EventPublisher
}

// NewGrantFreezeHandler creates a new GrantFreezeHandler.
func NewGrantFreezeHandler(repo progress.Repository, eventPublisher shared.EventPublisher) *GrantFreezeHandler {
	return &GrantFreezeHandler{repo: repo, eventPublisher: eventPublisher}
}

// Handle executes the grant freeze command.
func (h *GrantFreezeHandler) Handle(ctx context.Context, cmd GrantFreezeCommand) (*GrantFreezeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("grant_freeze: validation failed: %w", err)
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("grant_freeze: %w", err)
	}

	state, err := h.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("grant_freeze: failed to load state: %w", err)
	}

	state.Streak.GrantFreeze(cmd.Count)

	if err := h.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("grant_freeze: failed to save state: %w", err)
	}

	result := &GrantFreezeResult{
		FreezesAvailable: state.Streak.FreezesAvailable,
		Events: []shared.Event{
			shared.NewStateChangedEvent(cmd.UserID, "freeze_granted"),
		},
	}
	for _, event := range result.Events {
		_ = h.eventPublisher.Publish(event)
	}

	return result, nil
}
