// Package snapshot implements the durable encoding of learner progress.
// The same encoding is used for the local store and for pushes to the
// remote backend, so the two sides always agree on the wire format.
//
// Maps are encoded as key-sorted [key, value] pair lists and timestamps
// as ISO-8601 strings: the snapshot stays byte-stable for identical
// state and diffable by humans.
package snapshot

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// Version is bumped when the snapshot layout changes incompatibly.
const Version = 1

// ─────────────────────────────────────────────────────────────────────────
// Wire DTOs
// ─────────────────────────────────────────────────────────────────────────

type lessonDTO struct {
	LessonID       string     `json:"lesson_id"`
	UnitID         string     `json:"unit_id"`
	Status         string     `json:"status"`
	BestScore      int        `json:"best_score"`
	Attempts       int        `json:"attempts"`
	ExerciseScores []boolPair `json:"exercise_scores,omitempty"`
	FirstStartedAt string     `json:"first_started_at,omitempty"`
	CompletedAt    string     `json:"completed_at,omitempty"`
	LastAttemptAt  string     `json:"last_attempt_at,omitempty"`
}

type cardDTO struct {
	CardID          string `json:"card_id"`
	Category        string `json:"category"`
	ForwardInterval int    `json:"forward_interval_days"`
	ReverseInterval int    `json:"reverse_interval_days"`
	LastReviewedAt  string `json:"last_reviewed_at,omitempty"`
}

type streakDTO struct {
	Current          int    `json:"current"`
	Longest          int    `json:"longest"`
	LastActiveDate   string `json:"last_active_date,omitempty"`
	StartedAt        string `json:"started_at,omitempty"`
	FreezesAvailable int    `json:"freezes_available"`
	LastFreezeUsed   string `json:"last_freeze_used,omitempty"`
}

type lessonPair struct {
	Key   string    `json:"key"`
	Value lessonDTO `json:"value"`
}

type cardPair struct {
	Key   string  `json:"key"`
	Value cardDTO `json:"value"`
}

type stringPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type boolPair struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

type snapshotDTO struct {
	Version          int          `json:"version"`
	UserID           string       `json:"user_id"`
	Lessons          []lessonPair `json:"lessons"`
	Cards            []cardPair   `json:"cards"`
	TotalXP          int          `json:"total_xp"`
	Streak           streakDTO    `json:"streak"`
	PlacementLevel   string       `json:"placement_level,omitempty"`
	PlacementTakenAt string       `json:"placement_taken_at,omitempty"`
	Achievements     []stringPair `json:"achievements"`
	SessionsFinished int          `json:"sessions_finished"`
	PerfectSessions  int          `json:"perfect_sessions"`
	PerfectStreak    int          `json:"perfect_streak"`
	CardsReviewed    int          `json:"cards_reviewed"`
	CardsCorrect     int          `json:"cards_correct"`
	TimeSpentMs      int64        `json:"time_spent_ms"`
	FirstActions     []stringPair `json:"first_actions"`
	SyncStatus       string       `json:"sync_status"`
	LastSyncedAt     string       `json:"last_synced_at,omitempty"`
	UpdatedAt        string       `json:"updated_at,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────
// Encoding
// ─────────────────────────────────────────────────────────────────────────

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func decodeTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Encode serializes a user state into its durable form.
func Encode(state *progress.UserState) ([]byte, error) {
	dto := snapshotDTO{
		Version:          Version,
		UserID:           state.UserID.String(),
		TotalXP:          state.TotalXP.Int(),
		PlacementLevel:   state.PlacementLevel.String(),
		PlacementTakenAt: encodeTime(state.PlacementTakenAt),
		SessionsFinished: state.SessionsFinished,
		PerfectSessions:  state.PerfectSessions,
		PerfectStreak:    state.PerfectStreak,
		CardsReviewed:    state.CardsReviewed,
		CardsCorrect:     state.CardsCorrect,
		TimeSpentMs:      state.TimeSpentMs,
		SyncStatus:       string(state.SyncStatus),
		LastSyncedAt:     encodeTime(state.LastSyncedAt),
		UpdatedAt:        encodeTime(state.UpdatedAt),
	}

	if state.Streak != nil {
		dto.Streak = streakDTO{
			Current:          state.Streak.Current,
			Longest:          state.Streak.Longest,
			LastActiveDate:   encodeTime(state.Streak.LastActiveDate),
			StartedAt:        encodeTime(state.Streak.StartedAt),
			FreezesAvailable: state.Streak.FreezesAvailable,
			LastFreezeUsed:   encodeTime(state.Streak.LastFreezeUsed),
		}
	}

	dto.Lessons = make([]lessonPair, 0, len(state.Lessons))
	for id, lp := range state.Lessons {
		var exercises []boolPair
		if len(lp.ExerciseScores) > 0 {
			exercises = make([]boolPair, 0, len(lp.ExerciseScores))
			for exID, correct := range lp.ExerciseScores {
				exercises = append(exercises, boolPair{Key: exID.String(), Value: correct})
			}
			sort.Slice(exercises, func(i, j int) bool { return exercises[i].Key < exercises[j].Key })
		}
		dto.Lessons = append(dto.Lessons, lessonPair{
			Key: id.String(),
			Value: lessonDTO{
				LessonID:       lp.LessonID.String(),
				UnitID:         lp.UnitID.String(),
				Status:         string(lp.Status),
				BestScore:      lp.BestScore.Int(),
				Attempts:       lp.Attempts,
				ExerciseScores: exercises,
				FirstStartedAt: encodeTime(lp.FirstStartedAt),
				CompletedAt:    encodeTime(lp.CompletedAt),
				LastAttemptAt:  encodeTime(lp.LastAttemptAt),
			},
		})
	}
	sort.Slice(dto.Lessons, func(i, j int) bool { return dto.Lessons[i].Key < dto.Lessons[j].Key })

	dto.Cards = make([]cardPair, 0, len(state.Cards))
	for id, cp := range state.Cards {
		dto.Cards = append(dto.Cards, cardPair{
			Key: id.String(),
			Value: cardDTO{
				CardID:          cp.CardID.String(),
				Category:        cp.Category,
				ForwardInterval: cp.ForwardIntervalDays,
				ReverseInterval: cp.ReverseIntervalDays,
				LastReviewedAt:  encodeTime(cp.LastReviewedAt),
			},
		})
	}
	sort.Slice(dto.Cards, func(i, j int) bool { return dto.Cards[i].Key < dto.Cards[j].Key })

	dto.Achievements = make([]stringPair, 0, len(state.Achievements))
	for id, at := range state.Achievements {
		dto.Achievements = append(dto.Achievements, stringPair{Key: id.String(), Value: encodeTime(at)})
	}
	sort.Slice(dto.Achievements, func(i, j int) bool { return dto.Achievements[i].Key < dto.Achievements[j].Key })

	dto.FirstActions = make([]stringPair, 0, len(state.FirstActions))
	for kind, at := range state.FirstActions {
		dto.FirstActions = append(dto.FirstActions, stringPair{Key: kind, Value: encodeTime(at)})
	}
	sort.Slice(dto.FirstActions, func(i, j int) bool { return dto.FirstActions[i].Key < dto.FirstActions[j].Key })

	return json.Marshal(dto)
}

// Decode parses a durable snapshot back into a user state.
// Any structural problem is reported as shared.ErrSnapshotCorrupt;
// callers fall back to a zero state.
func Decode(data []byte) (*progress.UserState, error) {
	var dto snapshotDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, shared.WrapError("progress", "Decode", shared.ErrCorruptData,
			"progress snapshot is corrupt", err)
	}
	if dto.Version != Version || dto.UserID == "" {
		return nil, shared.ErrSnapshotCorrupt
	}

	userID, err := shared.NewUserID(dto.UserID)
	if err != nil {
		return nil, shared.ErrSnapshotCorrupt
	}

	state := progress.NewUserState(userID)
	state.TotalXP = shared.XP(dto.TotalXP)
	state.PlacementLevel = shared.CEFRLevel(dto.PlacementLevel)
	state.PlacementTakenAt = decodeTime(dto.PlacementTakenAt)
	state.SessionsFinished = dto.SessionsFinished
	state.PerfectSessions = dto.PerfectSessions
	state.PerfectStreak = dto.PerfectStreak
	state.CardsReviewed = dto.CardsReviewed
	state.CardsCorrect = dto.CardsCorrect
	state.TimeSpentMs = dto.TimeSpentMs
	state.LastSyncedAt = decodeTime(dto.LastSyncedAt)
	state.UpdatedAt = decodeTime(dto.UpdatedAt)

	status := progress.SyncStatus(dto.SyncStatus)
	if !status.IsValid() {
		status = progress.SyncUninitialized
	}
	state.SyncStatus = status

	state.Streak = &progress.Streak{
		Current:          dto.Streak.Current,
		Longest:          dto.Streak.Longest,
		LastActiveDate:   decodeTime(dto.Streak.LastActiveDate),
		StartedAt:        decodeTime(dto.Streak.StartedAt),
		FreezesAvailable: dto.Streak.FreezesAvailable,
		LastFreezeUsed:   decodeTime(dto.Streak.LastFreezeUsed),
	}

	for _, pair := range dto.Lessons {
		ls := progress.LessonStatus(pair.Value.Status)
		if !ls.IsValid() {
			return nil, shared.ErrSnapshotCorrupt
		}
		score, err := shared.NewScore(pair.Value.BestScore)
		if err != nil {
			return nil, shared.ErrSnapshotCorrupt
		}
		var exercises map[shared.ExerciseID]bool
		if len(pair.Value.ExerciseScores) > 0 {
			exercises = make(map[shared.ExerciseID]bool, len(pair.Value.ExerciseScores))
			for _, ex := range pair.Value.ExerciseScores {
				exercises[shared.ExerciseID(ex.Key)] = ex.Value
			}
		}
		state.Lessons[shared.LessonID(pair.Key)] = &progress.LessonProgress{
			LessonID:       shared.LessonID(pair.Value.LessonID),
			UnitID:         shared.UnitID(pair.Value.UnitID),
			Status:         ls,
			BestScore:      score,
			Attempts:       pair.Value.Attempts,
			ExerciseScores: exercises,
			FirstStartedAt: decodeTime(pair.Value.FirstStartedAt),
			CompletedAt:    decodeTime(pair.Value.CompletedAt),
			LastAttemptAt:  decodeTime(pair.Value.LastAttemptAt),
		}
	}

	for _, pair := range dto.Cards {
		state.Cards[shared.CardID(pair.Key)] = &progress.CardProgress{
			CardID:              shared.CardID(pair.Value.CardID),
			Category:            pair.Value.Category,
			ForwardIntervalDays: pair.Value.ForwardInterval,
			ReverseIntervalDays: pair.Value.ReverseInterval,
			LastReviewedAt:      decodeTime(pair.Value.LastReviewedAt),
		}
	}

	for _, pair := range dto.Achievements {
		state.Achievements[shared.AchievementID(pair.Key)] = decodeTime(pair.Value)
	}
	for _, pair := range dto.FirstActions {
		state.FirstActions[pair.Key] = decodeTime(pair.Value)
	}

	return state, nil
}
