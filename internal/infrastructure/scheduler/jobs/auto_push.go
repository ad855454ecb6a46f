// Package jobs contains implementations of scheduled jobs for the engine.
// Each job keeps the local snapshot and the progress backend converging
// without blocking the learner's session.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTO PUSH JOB
// ══════════════════════════════════════════════════════════════════════════════

// AutoPushJob periodically pushes the signed-in learner's snapshot to the
// progress backend. Mutations already push on their own; this job covers
// the pushes lost to dead connectivity, so a device that went offline
// mid-session converges once the network returns.
//
// Push failures are logged and dropped. The local snapshot stays the
// source of truth, the next tick tries again.
type AutoPushJob struct {
	repo   progress.Repository
	remote progress.RemoteStore
	userID shared.UserID
	logger *slog.Logger

	config AutoPushConfig
}

// AutoPushConfig contains configuration for the auto push job.
type AutoPushConfig struct {
	// PushTimeout bounds a single push.
	PushTimeout time.Duration
}

// DefaultAutoPushConfig returns sensible defaults.
func DefaultAutoPushConfig() AutoPushConfig {
	return AutoPushConfig{
		PushTimeout: 15 * time.Second,
	}
}

// NewAutoPushJob creates a new auto push job for one learner.
func NewAutoPushJob(
	repo progress.Repository,
	remote progress.RemoteStore,
	userID shared.UserID,
	logger *slog.Logger,
	config AutoPushConfig,
) *AutoPushJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.PushTimeout == 0 {
		config = DefaultAutoPushConfig()
	}
	return &AutoPushJob{
		repo:   repo,
		remote: remote,
		userID: userID,
		logger: logger,
		config: config,
	}
}

// Name returns the unique name of the job.
func (j *AutoPushJob) Name() string {
	return "auto_push"
}

// Description returns a human-readable description of the job.
func (j *AutoPushJob) Description() string {
	return "Pushes the local progress snapshot to the backend"
}

// Run executes the job.
func (j *AutoPushJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.PushTimeout)
	defer cancel()

	state, err := j.repo.Load(ctx, j.userID)
	if err != nil {
		j.logger.Warn("auto push skipped: cannot load snapshot",
			"user_id", j.userID.String(), "error", err)
		return err
	}

	if err := j.remote.Push(ctx, state); err != nil {
		j.logger.Warn("auto push failed",
			"user_id", j.userID.String(), "error", err)
		return err
	}

	j.logger.Debug("auto push completed", "user_id", j.userID.String())
	return nil
}
