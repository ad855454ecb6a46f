package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
	"github.com/lingotrail/lingotrail-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC STATE COMMAND
// Sign-in-time merge of the local snapshot with the remote one. Remote
// failures are logged and swallowed: local state stays authoritative and
// the learner is never blocked on the network.
// ══════════════════════════════════════════════════════════════════════════════

// SyncStateCommand requests a merge with the remote snapshot.
type SyncStateCommand struct {
	// UserID is the learner's ID.
	UserID string

	// Timestamp is when the sync started (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SyncStateCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("sync_state: user_id is required")
	}
	return nil
}

// SyncStateResult contains the outcome of a sync.
type SyncStateResult struct {
	// Report describes what the merge changed.
	Report progress.MergeReport

	// Bootstrapped indicates the remote had no snapshot and the local
	// one was pushed as the initial copy.
	Bootstrapped bool

	// RemoteUnavailable indicates the fetch failed and was swallowed.
	RemoteUnavailable bool

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SyncStateHandler handles the SyncStateCommand.
type SyncStateHandler struct {
	repo           progress.Repository
	remote         progress.RemoteStore
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewSyncStateHandler creates a new SyncStateHandler.
func NewSyncStateHandler(
	repo progress.Repository,
	remote progress.RemoteStore,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *SyncStateHandler {
	if log == nil {
		log = logger.Default()
	}
	return &SyncStateHandler{
		repo:           repo,
		remote:         remote,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("sync")),
	}
}

// Handle executes the sync state command.
func (h *SyncStateHandler) Handle(ctx context.Context, cmd SyncStateCommand) (*SyncStateResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("sync_state: validation failed: %w", err)
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	userID, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("sync_state: %w", err)
	}

	state, err := h.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sync_state: failed to load state: %w", err)
	}
	if state.SyncStatus == progress.SyncMerging {
		return nil, fmt.Errorf("sync_state: %w", shared.ErrSyncInProgress)
	}

	state.SyncStatus = progress.SyncMerging
	result := &SyncStateResult{Events: make([]shared.Event, 0, 2)}

	remoteState, err := h.remote.Fetch(ctx, userID)
	switch {
	case err == nil:
		result.Report = state.MergeRemote(remoteState, timestamp)
		// The merged snapshot may hold local-only progress the remote
		// has never seen, so push it back regardless of who won.
		result.Events = append(result.Events,
			shared.NewStateChangedEvent(cmd.UserID, "sync_merged"))

	case shared.IsNotFound(err):
		// First device for this account: local becomes the initial copy.
		result.Bootstrapped = true
		state.SyncStatus = progress.SyncSynced
		state.LastSyncedAt = timestamp
		result.Events = append(result.Events,
			shared.NewStateChangedEvent(cmd.UserID, "sync_bootstrap"))

	default:
		// Swallowed: the learner proceeds on local state alone.
		h.log.Warn("remote fetch failed, continuing offline",
			logger.UserID(cmd.UserID), logger.Err(err))
		result.RemoteUnavailable = true
		state.SyncStatus = progress.SyncSynced
	}

	if err := h.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("sync_state: failed to save state: %w", err)
	}

	result.Events = append(result.Events,
		shared.NewSyncCompletedEvent(cmd.UserID, result.Report.LessonsMerged, result.Report.RemoteWins))
	for _, event := range result.Events {
		_ = h.eventPublisher.Publish(event)
	}

	return result, nil
}
