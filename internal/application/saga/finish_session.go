// Package saga contains complex business processes that orchestrate
// multiple domain operations in a coordinated manner.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/achievement"
	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FINISH SESSION SAGA
// Business process: closing one study session.
// Flow: Record Session Counters → Update Streak → Award Session XP →
//
//	Check Achievements → Credit Achievement Rewards → Publish Events
//
// The session boundary is the natural checkpoint for the achievement
// engine: every fact it evaluates is final for the day by this point.
// ══════════════════════════════════════════════════════════════════════════════

// FinishSessionInput contains the summary of one study session.
type FinishSessionInput struct {
	// UserID - the learner who finished the session.
	UserID string

	// CardsReviewed - cards reviewed during the session.
	CardsReviewed int

	// CardsCorrect - of those, answered with a passing grade.
	CardsCorrect int

	// ElapsedMs - session length in milliseconds.
	ElapsedMs int64

	// Timestamp - when the session ended (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks if the input is valid.
func (i FinishSessionInput) Validate() error {
	if i.UserID == "" {
		return errors.New("finish_session: user ID is required")
	}
	if i.CardsReviewed < 0 || i.CardsCorrect < 0 || i.ElapsedMs < 0 {
		return errors.New("finish_session: counters cannot be negative")
	}
	if i.CardsCorrect > i.CardsReviewed {
		return errors.New("finish_session: correct count exceeds reviewed count")
	}
	return nil
}

// FinishSessionResult contains the result of closing a session.
type FinishSessionResult struct {
	// UserID - the learner.
	UserID string

	// Perfect - the session had no wrong answers.
	Perfect bool

	// Streak - the streak transition this session caused.
	Streak progress.StreakOutcome

	// SessionAward - XP credited for the session itself.
	SessionAward progress.XPAward

	// NewAchievements - achievements unlocked at this checkpoint.
	NewAchievements []achievement.Definition

	// AchievementXP - total XP credited by achievement rewards.
	AchievementXP int

	// Events - domain events generated.
	Events []shared.Event

	// ProcessedAt - when the flow completed.
	ProcessedAt time.Time
}

// HasNewAchievements returns true if any achievements were unlocked.
func (r *FinishSessionResult) HasNewAchievements() bool {
	return len(r.NewAchievements) > 0
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA
// ══════════════════════════════════════════════════════════════════════════════

// FinishSessionConfig contains XP tuning for session rewards.
type FinishSessionConfig struct {
	// XPPerCorrectCard - base XP per correctly answered card.
	XPPerCorrectCard int

	// PerfectBonus - extra base XP for a session with no mistakes.
	PerfectBonus int
}

// DefaultFinishSessionConfig returns default session XP tuning.
func DefaultFinishSessionConfig() FinishSessionConfig {
	return FinishSessionConfig{
		XPPerCorrectCard: 2,
		PerfectBonus:     10,
	}
}

// FinishSessionFlow orchestrates the end-of-session process.
type FinishSessionFlow struct {
	repo            progress.Repository
	engine          *achievement.Engine
	cardsByCategory map[string][]shared.CardID
	eventPublisher  shared.EventPublisher
	config          FinishSessionConfig
}

// NewFinishSessionFlow creates a new FinishSessionFlow.
// cardsByCategory is the full card catalog grouped by category; the
// achievement engine measures category mastery against it.
func NewFinishSessionFlow(
	repo progress.Repository,
	engine *achievement.Engine,
	cardsByCategory map[string][]shared.CardID,
	eventPublisher shared.EventPublisher,
	config FinishSessionConfig,
) *FinishSessionFlow {
	if config.XPPerCorrectCard == 0 {
		config = DefaultFinishSessionConfig()
	}
	return &FinishSessionFlow{
		repo:            repo,
		engine:          engine,
		cardsByCategory: cardsByCategory,
		eventPublisher:  eventPublisher,
		config:          config,
	}
}

// Execute runs the finish session flow.
func (f *FinishSessionFlow) Execute(ctx context.Context, input FinishSessionInput) (*FinishSessionResult, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("finish_session: validation failed: %w", err)
	}

	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	userID, err := shared.NewUserID(input.UserID)
	if err != nil {
		return nil, fmt.Errorf("finish_session: %w", err)
	}

	state, err := f.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("finish_session: failed to load state: %w", err)
	}

	summary := progress.SessionSummary{
		CardsReviewed: input.CardsReviewed,
		CardsCorrect:  input.CardsCorrect,
		ElapsedMs:     input.ElapsedMs,
	}

	result := &FinishSessionResult{
		UserID:      input.UserID,
		Perfect:     summary.Perfect(),
		Events:      make([]shared.Event, 0, 4),
		ProcessedAt: timestamp,
	}

	// Step 1: session counters (perfect-streak bookkeeping included).
	state.RecordSession(summary, timestamp)
	state.RecordFirstAction(progress.FirstActionSession, timestamp)

	// Step 2: streak. A session with no reviews still counts as showing up.
	outcome := state.Streak.RecordActivity(timestamp)
	result.Streak = outcome
	f.appendStreakEvents(result, input.UserID, outcome, state)

	// Step 3: session XP.
	base := input.CardsCorrect * f.config.XPPerCorrectCard
	if result.Perfect {
		base += f.config.PerfectBonus
	}
	if base > 0 {
		award, err := state.AwardXP(base, timestamp)
		if err != nil {
			return nil, fmt.Errorf("finish_session: %w", err)
		}
		result.SessionAward = award
		result.Events = append(result.Events,
			shared.NewXPGainedEvent(input.UserID, award.Amount, award.Base,
				float64(award.Multiplier), award.NewTotal.Int(), "session", ""))
		if award.LeveledUp() {
			result.Events = append(result.Events,
				shared.NewLevelUpEvent(input.UserID, award.OldLevel.Int(),
					award.NewLevel.Int(), award.NewTotal.Int()))
		}
	}

	// Step 4: achievements, exactly once per ID.
	if err := f.checkAchievements(state, result, timestamp); err != nil {
		return nil, err
	}

	if err := f.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("finish_session: failed to save state: %w", err)
	}

	result.Events = append(result.Events,
		shared.NewStateChangedEvent(input.UserID, "session_finished"))
	for _, event := range result.Events {
		_ = f.eventPublisher.Publish(event)
	}

	return result, nil
}

func (f *FinishSessionFlow) checkAchievements(state *progress.UserState, result *FinishSessionResult, timestamp time.Time) error {
	facts := achievement.BuildFacts(state, f.cardsByCategory)
	fresh, err := f.engine.CheckNewlyUnlocked(facts, state.Achievements)
	if err != nil {
		return fmt.Errorf("finish_session: achievement check failed: %w", err)
	}

	for _, def := range fresh {
		if !state.UnlockAchievement(def.ID, timestamp) {
			continue
		}
		result.NewAchievements = append(result.NewAchievements, def)
		result.Events = append(result.Events,
			shared.NewAchievementUnlockedEvent(result.UserID, def.ID.String(), def.Title, timestamp))

		if def.XPReward > 0 {
			award, err := state.AwardXP(def.XPReward, timestamp)
			if err != nil {
				return fmt.Errorf("finish_session: achievement reward failed: %w", err)
			}
			result.AchievementXP += award.Amount
			result.Events = append(result.Events,
				shared.NewXPGainedEvent(result.UserID, award.Amount, award.Base,
					float64(award.Multiplier), award.NewTotal.Int(), "achievement", ""))
			if award.LeveledUp() {
				result.Events = append(result.Events,
					shared.NewLevelUpEvent(result.UserID, award.OldLevel.Int(),
						award.NewLevel.Int(), award.NewTotal.Int()))
			}
		}
	}
	return nil
}

func (f *FinishSessionFlow) appendStreakEvents(result *FinishSessionResult, userID string, outcome progress.StreakOutcome, state *progress.UserState) {
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
