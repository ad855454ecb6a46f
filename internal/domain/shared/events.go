// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Progress events
	EventLessonStarted   EventType = "progress.lesson_started"
	EventLessonCompleted EventType = "progress.lesson_completed"
	EventScoreImproved   EventType = "progress.score_improved"
	EventXPGained        EventType = "progress.xp_gained"
	EventLevelUp         EventType = "progress.level_up"

	// Streak events
	EventStreakExtended EventType = "streak.extended"
	EventStreakFrozen   EventType = "streak.freeze_consumed"
	EventStreakBroken   EventType = "streak.broken"

	// Curriculum events
	EventUnitUnlocked EventType = "curriculum.unit_unlocked"

	// Placement events
	EventPlacementCompleted EventType = "placement.completed"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// Sync events
	EventStateChanged  EventType = "sync.state_changed"
	EventSyncCompleted EventType = "sync.completed"
	EventPushFailed    EventType = "sync.push_failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	EventID       string    `json:"event_id"`
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event with a fresh unique ID.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonStartedEvent is emitted the first time a learner opens a lesson.
type LessonStartedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	LessonID string `json:"lesson_id"`
	UnitID   string `json:"unit_id"`
}

// Payload implements Event interface.
func (e LessonStartedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"lesson_id": e.LessonID,
		"unit_id":   e.UnitID,
	}
}

// NewLessonStartedEvent creates a new LessonStartedEvent.
func NewLessonStartedEvent(userID, lessonID, unitID string) LessonStartedEvent {
	return LessonStartedEvent{
		BaseEvent: NewBaseEvent(EventLessonStarted, userID),
		UserID:    userID,
		LessonID:  lessonID,
		UnitID:    unitID,
	}
}

// LessonCompletedEvent is emitted when a lesson transitions to completed.
// Completion is one-way: this event fires at most once per lesson.
type LessonCompletedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	LessonID string `json:"lesson_id"`
	UnitID   string `json:"unit_id"`
	Score    int    `json:"score"`
	XPEarned int    `json:"xp_earned"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"lesson_id": e.LessonID,
		"unit_id":   e.UnitID,
		"score":     e.Score,
		"xp_earned": e.XPEarned,
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(userID, lessonID, unitID string, score, xpEarned int) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent: NewBaseEvent(EventLessonCompleted, userID),
		UserID:    userID,
		LessonID:  lessonID,
		UnitID:    unitID,
		Score:     score,
		XPEarned:  xpEarned,
	}
}

// ScoreImprovedEvent is emitted when a repeat attempt beats the best score.
type ScoreImprovedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	LessonID string `json:"lesson_id"`
	OldScore int    `json:"old_score"`
	NewScore int    `json:"new_score"`
}

// Payload implements Event interface.
func (e ScoreImprovedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"lesson_id": e.LessonID,
		"old_score": e.OldScore,
		"new_score": e.NewScore,
	}
}

// NewScoreImprovedEvent creates a new ScoreImprovedEvent.
func NewScoreImprovedEvent(userID, lessonID string, oldScore, newScore int) ScoreImprovedEvent {
	return ScoreImprovedEvent{
		BaseEvent: NewBaseEvent(EventScoreImproved, userID),
		UserID:    userID,
		LessonID:  lessonID,
		OldScore:  oldScore,
		NewScore:  newScore,
	}
}

// XPGainedEvent is emitted when a learner gains XP.
type XPGainedEvent struct {
	BaseEvent
	UserID     string  `json:"user_id"`
	Amount     int     `json:"amount"`
	BaseAmount int     `json:"base_amount"`
	Multiplier float64 `json:"multiplier"`
	NewTotal   int     `json:"new_total"`
	Source     string  `json:"source"` // e.g., "lesson_completion", "placement_bonus"
	LessonID   string  `json:"lesson_id,omitempty"`
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"amount":      e.Amount,
		"base_amount": e.BaseAmount,
		"multiplier":  e.Multiplier,
		"new_total":   e.NewTotal,
		"source":      e.Source,
		"lesson_id":   e.LessonID,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(userID string, amount, baseAmount int, multiplier float64, newTotal int, source, lessonID string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent:  NewBaseEvent(EventXPGained, userID),
		UserID:     userID,
		Amount:     amount,
		BaseAmount: baseAmount,
		Multiplier: multiplier,
		NewTotal:   newTotal,
		Source:     source,
		LessonID:   lessonID,
	}
}

// LevelUpEvent is emitted when lifetime XP crosses a level threshold.
type LevelUpEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
	TotalXP  int    `json:"total_xp"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"total_xp":  e.TotalXP,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel, totalXP int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		TotalXP:   totalXP,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Events
// ═══════════════════════════════════════════════════════════════════════════

// StreakExtendedEvent is emitted when the daily streak grows by one day.
type StreakExtendedEvent struct {
	BaseEvent
	UserID     string  `json:"user_id"`
	Current    int     `json:"current"`
	Longest    int     `json:"longest"`
	Multiplier float64 `json:"multiplier"`
}

// Payload implements Event interface.
func (e StreakExtendedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"current":    e.Current,
		"longest":    e.Longest,
		"multiplier": e.Multiplier,
	}
}

// NewStreakExtendedEvent creates a new StreakExtendedEvent.
func NewStreakExtendedEvent(userID string, current, longest int, multiplier float64) StreakExtendedEvent {
	return StreakExtendedEvent{
		BaseEvent:  NewBaseEvent(EventStreakExtended, userID),
		UserID:     userID,
		Current:    current,
		Longest:    longest,
		Multiplier: multiplier,
	}
}

// StreakFrozenEvent is emitted when a streak freeze covers a missed day.
type StreakFrozenEvent struct {
	BaseEvent
	UserID           string `json:"user_id"`
	Current          int    `json:"current"`
	FreezesRemaining int    `json:"freezes_remaining"`
}

// Payload implements Event interface.
func (e StreakFrozenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":           e.UserID,
		"current":           e.Current,
		"freezes_remaining": e.FreezesRemaining,
	}
}

// NewStreakFrozenEvent creates a new StreakFrozenEvent.
func NewStreakFrozenEvent(userID string, current, freezesRemaining int) StreakFrozenEvent {
	return StreakFrozenEvent{
		BaseEvent:        NewBaseEvent(EventStreakFrozen, userID),
		UserID:           userID,
		Current:          current,
		FreezesRemaining: freezesRemaining,
	}
}

// StreakBrokenEvent is emitted when a learner's daily streak resets.
type StreakBrokenEvent struct {
	BaseEvent
	UserID         string `json:"user_id"`
	PreviousStreak int    `json:"previous_streak"`
	DaysMissed     int    `json:"days_missed"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"previous_streak": e.PreviousStreak,
		"days_missed":     e.DaysMissed,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(userID string, previousStreak, daysMissed int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, userID),
		UserID:         userID,
		PreviousStreak: previousStreak,
		DaysMissed:     daysMissed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Curriculum Events
// ═══════════════════════════════════════════════════════════════════════════

// UnitUnlockedEvent is emitted when a unit's prerequisites become satisfied.
type UnitUnlockedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	UnitID string `json:"unit_id"`
}

// Payload implements Event interface.
func (e UnitUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"unit_id": e.UnitID,
	}
}

// NewUnitUnlockedEvent creates a new UnitUnlockedEvent.
func NewUnitUnlockedEvent(userID, unitID string) UnitUnlockedEvent {
	return UnitUnlockedEvent{
		BaseEvent: NewBaseEvent(EventUnitUnlocked, userID),
		UserID:    userID,
		UnitID:    unitID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Placement Events
// ═══════════════════════════════════════════════════════════════════════════

// PlacementCompletedEvent is emitted when a placement test is scored.
type PlacementCompletedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	AssignedLevel string `json:"assigned_level"`
	TotalCorrect  int    `json:"total_correct"`
	TotalAnswered int    `json:"total_answered"`
}

// Payload implements Event interface.
func (e PlacementCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"assigned_level": e.AssignedLevel,
		"total_correct":  e.TotalCorrect,
		"total_answered": e.TotalAnswered,
	}
}

// NewPlacementCompletedEvent creates a new PlacementCompletedEvent.
func NewPlacementCompletedEvent(userID, assignedLevel string, totalCorrect, totalAnswered int) PlacementCompletedEvent {
	return PlacementCompletedEvent{
		BaseEvent:     NewBaseEvent(EventPlacementCompleted, userID),
		UserID:        userID,
		AssignedLevel: assignedLevel,
		TotalCorrect:  totalCorrect,
		TotalAnswered: totalAnswered,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted exactly once per achievement.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID        string    `json:"user_id"`
	AchievementID string    `json:"achievement_id"`
	Title         string    `json:"title"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"achievement_id": e.AchievementID,
		"title":          e.Title,
		"unlocked_at":    e.UnlockedAt.Format(time.RFC3339),
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, achievementID, title string, unlockedAt time.Time) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, userID),
		UserID:        userID,
		AchievementID: achievementID,
		Title:         title,
		UnlockedAt:    unlockedAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Sync Events
// ═══════════════════════════════════════════════════════════════════════════

// StateChangedEvent is emitted whenever local progress state mutates.
// The sync coordinator subscribes to it to push a fresh snapshot upstream.
type StateChangedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Reason string `json:"reason"` // event type that triggered the change
}

// Payload implements Event interface.
func (e StateChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"reason":  e.Reason,
	}
}

// NewStateChangedEvent creates a new StateChangedEvent.
func NewStateChangedEvent(userID, reason string) StateChangedEvent {
	return StateChangedEvent{
		BaseEvent: NewBaseEvent(EventStateChanged, userID),
		UserID:    userID,
		Reason:    reason,
	}
}

// SyncCompletedEvent is emitted after a successful bootstrap merge.
type SyncCompletedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	LessonsMerged int    `json:"lessons_merged"`
	RemoteWins    int    `json:"remote_wins"`
}

// Payload implements Event interface.
func (e SyncCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"lessons_merged": e.LessonsMerged,
		"remote_wins":    e.RemoteWins,
	}
}

// NewSyncCompletedEvent creates a new SyncCompletedEvent.
func NewSyncCompletedEvent(userID string, lessonsMerged, remoteWins int) SyncCompletedEvent {
	return SyncCompletedEvent{
		BaseEvent:     NewBaseEvent(EventSyncCompleted, userID),
		UserID:        userID,
		LessonsMerged: lessonsMerged,
		RemoteWins:    remoteWins,
	}
}

// PushFailedEvent is emitted when a fire-and-forget push does not land.
// Local state is already durable at this point, so the failure is
// informational only.
type PushFailedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// Payload implements Event interface.
func (e PushFailedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"reason":  e.Reason,
	}
}

// NewPushFailedEvent creates a new PushFailedEvent.
func NewPushFailedEvent(userID, reason string) PushFailedEvent {
	return PushFailedEvent{
		BaseEvent: NewBaseEvent(EventPushFailed, userID),
		UserID:    userID,
		Reason:    reason,
	}
}
