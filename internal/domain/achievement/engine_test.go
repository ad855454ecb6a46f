package achievement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

func testDefinitions() []Definition {
	return []Definition{
		{ID: "week-warrior", Title: "Week Warrior",
			Requirement: Requirement{Type: ReqStreak, Threshold: 7}, XPReward: 50},
		{ID: "reviewer-100", Title: "Centurion",
			Requirement: Requirement{Type: ReqCardsReviewed, Threshold: 100}, XPReward: 25},
		{ID: "scholar-10", Title: "Scholar",
			Requirement: Requirement{Type: ReqCardsMastered, Threshold: 10}, XPReward: 40},
		{ID: "flawless-5", Title: "Flawless",
			Requirement: Requirement{Type: ReqPerfectStreak, Threshold: 5}, XPReward: 30},
		{ID: "level-5", Title: "Climber",
			Requirement: Requirement{Type: ReqLevel, Threshold: 5}, XPReward: 20},
		{ID: "xp-1000", Title: "Collector",
			Requirement: Requirement{Type: ReqXP, Threshold: 1000}, XPReward: 20},
		{ID: "first-lesson", Title: "First Steps",
			Requirement: Requirement{Type: ReqFirstAction, Action: "lesson_completed"}, XPReward: 10},
		{ID: "foodie", Title: "Foodie",
			Requirement: Requirement{Type: ReqCategoryMastered, Category: "food"}, XPReward: 60},
	}
}

func TestNewEngine_RejectsInvalidDefinition(t *testing.T) {
	_, err := NewEngine([]Definition{
		{ID: "bad", Requirement: Requirement{Type: "unknown_kind", Threshold: 1}},
	})
	assert.ErrorIs(t, err, shared.ErrUnknownRequirement)

	_, err = NewEngine([]Definition{
		{ID: "bad", Requirement: Requirement{Type: ReqStreak, Threshold: 0}},
	})
	assert.Error(t, err)

	_, err = NewEngine([]Definition{
		{ID: "bad", Requirement: Requirement{Type: ReqFirstAction}},
	})
	assert.Error(t, err)

	_, err = NewEngine([]Definition{
		{ID: "bad", Requirement: Requirement{Type: ReqCategoryMastered}},
	})
	assert.Error(t, err)
}

func TestEngine_Evaluate_EachRequirementKind(t *testing.T) {
	engine, err := NewEngine(testDefinitions())
	require.NoError(t, err)

	facts := Facts{
		TotalXP:       1200,
		Level:         5,
		CurrentStreak: 4,
		CardsReviewed: 100,
		CardsMastered: 3,
		PerfectStreak: 6,
		CategoryMastery: map[string]CategoryMastery{
			"food": {MasteredBoth: 8, Total: 10},
		},
		FirstActions: map[string]bool{"lesson_completed": true},
	}

	evals, err := engine.EvaluateAll(facts)
	require.NoError(t, err)
	require.Len(t, evals, 8)

	byID := make(map[shared.AchievementID]Evaluation)
	for _, ev := range evals {
		byID[ev.Definition.ID] = ev
	}

	assert.False(t, byID["week-warrior"].Unlocked)
	assert.Equal(t, 57, byID["week-warrior"].Progress) // 4/7

	assert.True(t, byID["reviewer-100"].Unlocked)
	assert.Equal(t, 100, byID["reviewer-100"].Progress)

	assert.False(t, byID["scholar-10"].Unlocked)
	assert.Equal(t, 30, byID["scholar-10"].Progress)

	assert.True(t, byID["flawless-5"].Unlocked)
	assert.True(t, byID["level-5"].Unlocked)
	assert.True(t, byID["xp-1000"].Unlocked)
	assert.True(t, byID["first-lesson"].Unlocked)

	assert.False(t, byID["foodie"].Unlocked)
	assert.Equal(t, 80, byID["foodie"].Progress)
}

func TestEngine_Evaluate_ProgressHundredOnlyWhenUnlocked(t *testing.T) {
	engine, err := NewEngine([]Definition{
		{ID: "xp-1000", Requirement: Requirement{Type: ReqXP, Threshold: 1000}},
	})
	require.NoError(t, err)

	// 999 of 1000 would floor to 99 anyway; 9999 of 10000 must still cap
	ev, err := engine.Evaluate(engine.Definitions()[0], Facts{TotalXP: 999})
	require.NoError(t, err)
	assert.False(t, ev.Unlocked)
	assert.Equal(t, 99, ev.Progress)

	ev, err = engine.Evaluate(engine.Definitions()[0], Facts{TotalXP: 1000})
	require.NoError(t, err)
	assert.True(t, ev.Unlocked)
	assert.Equal(t, 100, ev.Progress)
}

func TestEngine_Evaluate_EmptyCategoryNeverUnlocks(t *testing.T) {
	engine, err := NewEngine([]Definition{
		{ID: "ghost-cat", Requirement: Requirement{Type: ReqCategoryMastered, Category: "ghost"}},
	})
	require.NoError(t, err)

	ev, err := engine.Evaluate(engine.Definitions()[0], Facts{
		CategoryMastery: map[string]CategoryMastery{},
	})
	require.NoError(t, err)
	assert.False(t, ev.Unlocked)
	assert.Equal(t, 0, ev.Progress)
}

func TestEngine_CheckNewlyUnlocked_ExactlyOnce(t *testing.T) {
	engine, err := NewEngine(testDefinitions())
	require.NoError(t, err)

	facts := Facts{CurrentStreak: 7, FirstActions: map[string]bool{"lesson_completed": true}}
	existing := make(map[shared.AchievementID]time.Time)

	fresh, err := engine.CheckNewlyUnlocked(facts, existing)
	require.NoError(t, err)
	require.Len(t, fresh, 2)

	// Caller records the unlocks, second check returns nothing
	for _, def := range fresh {
		existing[def.ID] = time.Now()
	}
	fresh, err = engine.CheckNewlyUnlocked(facts, existing)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}
