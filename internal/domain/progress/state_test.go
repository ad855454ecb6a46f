package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

const testUserID = shared.UserID("a1b2c3d4-0000-4000-8000-000000000001")

func TestUserState_AwardXP_AppliesStreakMultiplier(t *testing.T) {
	now := time.Now()
	st := NewUserState(testUserID)
	st.Streak.Current = 30 // 1.5x tier

	award, err := st.AwardXP(100, now)
	assert.NoError(t, err)
	assert.Equal(t, 100, award.Base)
	assert.Equal(t, shared.Multiplier(1.5), award.Multiplier)
	assert.Equal(t, 150, award.Amount)
	assert.Equal(t, shared.XP(150), st.TotalXP)
}

func TestUserState_AwardXP_RejectsNegative(t *testing.T) {
	st := NewUserState(testUserID)
	_, err := st.AwardXP(-10, time.Now())
	assert.ErrorIs(t, err, shared.ErrNegativeXP)
	assert.Equal(t, shared.XP(0), st.TotalXP)
}

func TestUserState_AwardXP_LevelUp(t *testing.T) {
	st := NewUserState(testUserID)

	award, err := st.AwardXP(120, time.Now())
	assert.NoError(t, err)
	assert.True(t, award.LeveledUp())
	assert.Equal(t, shared.Level(1), award.OldLevel)
	assert.Equal(t, shared.Level(2), award.NewLevel)
}

func TestUserState_RecordSession_PerfectStreak(t *testing.T) {
	now := time.Now()
	st := NewUserState(testUserID)

	st.RecordSession(SessionSummary{CardsReviewed: 10, CardsCorrect: 10, ElapsedMs: 60000}, now)
	st.RecordSession(SessionSummary{CardsReviewed: 5, CardsCorrect: 5, ElapsedMs: 30000}, now)
	assert.Equal(t, 2, st.PerfectStreak)
	assert.Equal(t, 2, st.PerfectSessions)

	// One mistake resets the consecutive counter but not the lifetime one
	st.RecordSession(SessionSummary{CardsReviewed: 8, CardsCorrect: 7, ElapsedMs: 45000}, now)
	assert.Equal(t, 0, st.PerfectStreak)
	assert.Equal(t, 2, st.PerfectSessions)
	assert.Equal(t, 3, st.SessionsFinished)
	assert.Equal(t, int64(135000), st.TimeSpentMs)
}

func TestSessionSummary_EmptySessionIsNotPerfect(t *testing.T) {
	assert.False(t, SessionSummary{}.Perfect())
	assert.True(t, SessionSummary{CardsReviewed: 1, CardsCorrect: 1}.Perfect())
}

func TestUserState_UnlockAchievement_ExactlyOnce(t *testing.T) {
	now := time.Now()
	st := NewUserState(testUserID)

	assert.True(t, st.UnlockAchievement("first-steps", now))
	assert.False(t, st.UnlockAchievement("first-steps", now.Add(time.Hour)))
	assert.Equal(t, now, st.Achievements["first-steps"])
}

func TestUserState_RecordFirstAction_OnlyFirst(t *testing.T) {
	now := time.Now()
	st := NewUserState(testUserID)

	assert.True(t, st.RecordFirstAction(FirstActionLesson, now))
	assert.False(t, st.RecordFirstAction(FirstActionLesson, now.Add(time.Hour)))
	assert.Equal(t, now, st.FirstActions[FirstActionLesson])
}

func TestUserState_RecordPlacement_NeverLowers(t *testing.T) {
	now := time.Now()
	st := NewUserState(testUserID)

	assert.True(t, st.RecordPlacement(shared.CEFRB1, now))
	assert.Equal(t, shared.CEFRB1, st.PlacementLevel)

	// A worse retake does not demote
	assert.False(t, st.RecordPlacement(shared.CEFRA1, now.Add(time.Hour)))
	assert.Equal(t, shared.CEFRB1, st.PlacementLevel)

	// A better retake upgrades
	assert.True(t, st.RecordPlacement(shared.CEFRB2, now.Add(2*time.Hour)))
	assert.Equal(t, shared.CEFRB2, st.PlacementLevel)
}

func TestUserState_MergeRemote_CompletedWins(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	local := NewUserState(testUserID)
	lp := local.Lesson("greet-01", "unit-greetings")
	_, _ = lp.RecordAttempt(50, false, now)

	remote := NewUserState(testUserID)
	rp := remote.Lesson("greet-01", "unit-greetings")
	_, _ = rp.RecordAttempt(90, true, now.Add(-time.Hour))
	rp2 := remote.Lesson("greet-02", "unit-greetings")
	_, _ = rp2.RecordAttempt(80, true, now.Add(-time.Hour))

	report := local.MergeRemote(remote, now)

	assert.Equal(t, 2, report.LessonsMerged)
	assert.Equal(t, 2, report.RemoteWins)
	assert.True(t, local.Lessons["greet-01"].IsCompleted())
	assert.True(t, local.Lessons["greet-02"].IsCompleted())
	assert.Equal(t, SyncSynced, local.SyncStatus)
	assert.Equal(t, now, local.LastSyncedAt)
}

func TestUserState_MergeRemote_LocalCompletedKept(t *testing.T) {
	now := time.Now()

	local := NewUserState(testUserID)
	lp := local.Lesson("greet-01", "unit-greetings")
	_, _ = lp.RecordAttempt(95, true, now)

	// Remote has never seen this lesson
	remote := NewUserState(testUserID)

	report := local.MergeRemote(remote, now)

	assert.Equal(t, 0, report.RemoteWins)
	assert.True(t, local.Lessons["greet-01"].IsCompleted())
	assert.Equal(t, shared.Score(95), local.Lessons["greet-01"].BestScore)
}

func TestUserState_MergeRemote_CountersTakeMax(t *testing.T) {
	now := time.Now()

	local := NewUserState(testUserID)
	local.TotalXP = 500
	local.CardsReviewed = 120
	local.SessionsFinished = 10

	remote := NewUserState(testUserID)
	remote.TotalXP = 300
	remote.CardsReviewed = 200
	remote.SessionsFinished = 8
	remote.Streak.Longest = 14

	local.MergeRemote(remote, now)

	assert.Equal(t, shared.XP(500), local.TotalXP)
	assert.Equal(t, 200, local.CardsReviewed)
	assert.Equal(t, 10, local.SessionsFinished)
	assert.Equal(t, 14, local.Streak.Longest)
}

func TestUserState_MergeRemote_CardIntervalsTakeMax(t *testing.T) {
	now := time.Now()

	local := NewUserState(testUserID)
	lc := local.Card("word-apple", "food")
	lc.ForwardIntervalDays = 7
	lc.ReverseIntervalDays = 12

	remote := NewUserState(testUserID)
	rc := remote.Card("word-apple", "food")
	rc.ForwardIntervalDays = 21
	rc.ReverseIntervalDays = 4

	local.MergeRemote(remote, now)

	assert.Equal(t, 21, local.Cards["word-apple"].ForwardIntervalDays)
	assert.Equal(t, 12, local.Cards["word-apple"].ReverseIntervalDays)
}

func TestUserState_MergeRemote_PlacementHigherBandWins(t *testing.T) {
	now := time.Now()

	local := NewUserState(testUserID)
	local.RecordPlacement(shared.CEFRA2, now)

	// A higher remote band upgrades the local level
	remote := NewUserState(testUserID)
	remote.RecordPlacement(shared.CEFRB1, now.Add(time.Hour))

	local.MergeRemote(remote, now)
	assert.Equal(t, shared.CEFRB1, local.PlacementLevel)
	assert.Equal(t, remote.PlacementTakenAt, local.PlacementTakenAt)

	// A lower remote band never demotes
	lower := NewUserState(testUserID)
	lower.RecordPlacement(shared.CEFRA1, now.Add(2*time.Hour))

	local.MergeRemote(lower, now)
	assert.Equal(t, shared.CEFRB1, local.PlacementLevel)
}

func TestUserState_MergeRemote_StreakFreezeSpendCarriesOver(t *testing.T) {
	now := time.Now()
	spent := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	local := NewUserState(testUserID)

	remote := NewUserState(testUserID)
	remote.Streak.LastFreezeUsed = spent

	local.MergeRemote(remote, now)
	assert.Equal(t, spent, local.Streak.LastFreezeUsed)
}

func TestUserState_MergeRemote_NilRemote(t *testing.T) {
	local := NewUserState(testUserID)
	report := local.MergeRemote(nil, time.Now())
	assert.Equal(t, MergeReport{}, report)
}

func TestUserState_MasteredCardCount_AnyDirection(t *testing.T) {
	now := time.Now()
	st := NewUserState(testUserID)

	st.Card("word-apple", "food").SetInterval(DirectionForward, 21, now)
	st.Card("word-bread", "food").SetInterval(DirectionReverse, 25, now)
	st.Card("word-milk", "food").SetInterval(DirectionForward, 7, now)

	assert.Equal(t, 2, st.MasteredCardCount())
}
