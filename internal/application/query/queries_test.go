package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingotrail/lingotrail-core/internal/domain/achievement"
	"github.com/lingotrail/lingotrail-core/internal/domain/curriculum"
	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

const testUser = "a1b2c3d4-0000-4000-8000-000000000001"

type memoryRepo struct {
	states map[shared.UserID]*progress.UserState
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{states: make(map[shared.UserID]*progress.UserState)}
}

func (r *memoryRepo) Load(ctx context.Context, userID shared.UserID) (*progress.UserState, error) {
	if state, ok := r.states[userID]; ok {
		return state, nil
	}
	return progress.NewUserState(userID), nil
}

func (r *memoryRepo) Save(ctx context.Context, state *progress.UserState) error {
	r.states[state.UserID] = state
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, userID shared.UserID) error {
	delete(r.states, userID)
	return nil
}

func (r *memoryRepo) seed(state *progress.UserState) {
	r.states[state.UserID] = state
}

func testCatalog(t *testing.T) *curriculum.Catalog {
	t.Helper()
	catalog, err := curriculum.NewCatalog([]curriculum.Unit{
		{
			ID: "unit-greetings", Title: "Greetings", CEFR: shared.CEFRA1,
			Lessons: []curriculum.Lesson{
				{ID: "greet-01", UnitID: "unit-greetings", Title: "Hello", BaseXP: 20, PassScore: 70},
				{ID: "greet-02", UnitID: "unit-greetings", Title: "Goodbye", BaseXP: 20, PassScore: 70},
			},
		},
		{
			ID: "unit-food", Title: "Food", CEFR: shared.CEFRA1,
			Prerequisites: []shared.UnitID{"unit-greetings"},
			Lessons: []curriculum.Lesson{
				{ID: "food-01", UnitID: "unit-food", Title: "At the Market", BaseXP: 25, PassScore: 70},
			},
		},
		{
			ID: "unit-travel", Title: "Travel", CEFR: shared.CEFRA2,
			Prerequisites: []shared.UnitID{"unit-food"},
			Lessons: []curriculum.Lesson{
				{ID: "travel-01", UnitID: "unit-travel", Title: "At the Airport", BaseXP: 30, PassScore: 75},
			},
		},
	})
	require.NoError(t, err)
	return catalog
}

func completeLesson(t *testing.T, state *progress.UserState, lessonID shared.LessonID, unitID shared.UnitID) {
	t.Helper()
	lp := state.Lesson(lessonID, unitID)
	_, err := lp.RecordAttempt(90, true, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Next lesson
// ─────────────────────────────────────────────────────────────────────────────

func TestNextLesson_WalksCatalogOrder(t *testing.T) {
	catalog := testCatalog(t)
	resolver := curriculum.NewResolver(catalog)
	repo := newMemoryRepo()
	handler := NewGetNextLessonHandler(repo, catalog, resolver)
	ctx := context.Background()

	result, err := handler.Handle(ctx, GetNextLessonQuery{UserID: testUser})
	require.NoError(t, err)
	require.NotNil(t, result.Lesson)
	assert.Equal(t, shared.LessonID("greet-01"), result.Lesson.ID)
	assert.Equal(t, "Greetings", result.UnitTitle)
	assert.False(t, result.CourseCompleted)

	state := progress.NewUserState(shared.UserID(testUser))
	completeLesson(t, state, "greet-01", "unit-greetings")
	repo.seed(state)

	result, err = handler.Handle(ctx, GetNextLessonQuery{UserID: testUser})
	require.NoError(t, err)
	assert.Equal(t, shared.LessonID("greet-02"), result.Lesson.ID)

	completeLesson(t, state, "greet-02", "unit-greetings")

	result, err = handler.Handle(ctx, GetNextLessonQuery{UserID: testUser})
	require.NoError(t, err)
	assert.Equal(t, shared.LessonID("food-01"), result.Lesson.ID)
	assert.Equal(t, "Food", result.UnitTitle)
}

func TestNextLesson_StartsAtPlacementLevel(t *testing.T) {
	catalog := testCatalog(t)
	repo := newMemoryRepo()
	handler := NewGetNextLessonHandler(repo, catalog, curriculum.NewResolver(catalog))
	ctx := context.Background()

	// An A2-placed learner with the A1 chain done is pointed at the
	// A2 unit, not back at remaining A1 content
	state := progress.NewUserState(shared.UserID(testUser))
	state.RecordPlacement(shared.CEFRA2, time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC))
	completeLesson(t, state, "greet-01", "unit-greetings")
	completeLesson(t, state, "greet-02", "unit-greetings")
	completeLesson(t, state, "food-01", "unit-food")
	repo.seed(state)

	result, err := handler.Handle(ctx, GetNextLessonQuery{UserID: testUser})
	require.NoError(t, err)
	require.NotNil(t, result.Lesson)
	assert.Equal(t, shared.LessonID("travel-01"), result.Lesson.ID)
	assert.Equal(t, "Travel", result.UnitTitle)

	// With the single A2 unit finished the walk is complete for them
	completeLesson(t, state, "travel-01", "unit-travel")
	result, err = handler.Handle(ctx, GetNextLessonQuery{UserID: testUser})
	require.NoError(t, err)
	assert.True(t, result.CourseCompleted)
}

func TestNextLesson_CourseCompleted(t *testing.T) {
	catalog := testCatalog(t)
	repo := newMemoryRepo()
	handler := NewGetNextLessonHandler(repo, catalog, curriculum.NewResolver(catalog))

	state := progress.NewUserState(shared.UserID(testUser))
	completeLesson(t, state, "greet-01", "unit-greetings")
	completeLesson(t, state, "greet-02", "unit-greetings")
	completeLesson(t, state, "food-01", "unit-food")
	completeLesson(t, state, "travel-01", "unit-travel")
	repo.seed(state)

	result, err := handler.Handle(context.Background(), GetNextLessonQuery{UserID: testUser})
	require.NoError(t, err)
	assert.True(t, result.CourseCompleted)
	assert.Nil(t, result.Lesson)
}

func TestNextLesson_Validation(t *testing.T) {
	catalog := testCatalog(t)
	handler := NewGetNextLessonHandler(newMemoryRepo(), catalog, curriculum.NewResolver(catalog))

	_, err := handler.Handle(context.Background(), GetNextLessonQuery{})
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Unit overview
// ─────────────────────────────────────────────────────────────────────────────

func TestUnitOverview_RollupsAndTotals(t *testing.T) {
	catalog := testCatalog(t)
	repo := newMemoryRepo()
	handler := NewGetUnitOverviewHandler(repo, catalog, curriculum.NewResolver(catalog))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	state := progress.NewUserState(shared.UserID(testUser))
	completeLesson(t, state, "greet-01", "unit-greetings")
	completeLesson(t, state, "greet-02", "unit-greetings")
	_, err := state.AwardXP(150, now)
	require.NoError(t, err)
	state.Streak.RecordActivity(now)
	repo.seed(state)

	result, err := handler.Handle(context.Background(), GetUnitOverviewQuery{UserID: testUser})
	require.NoError(t, err)

	require.Len(t, result.Units, 3)
	greetings := result.Units[0]
	assert.Equal(t, shared.UnitID("unit-greetings"), greetings.UnitID)
	assert.True(t, greetings.Unlocked)
	assert.Equal(t, 2, greetings.LessonsCompleted)
	assert.True(t, greetings.Completed())

	food := result.Units[1]
	assert.True(t, food.Unlocked)
	assert.Equal(t, 0, food.LessonsCompleted)

	travel := result.Units[2]
	assert.False(t, travel.Unlocked)

	require.Len(t, result.Levels, 2)
	assert.Equal(t, LevelRollup{Level: shared.CEFRA1, UnitsCompleted: 1, UnitsTotal: 2}, result.Levels[0])
	assert.Equal(t, LevelRollup{Level: shared.CEFRA2, UnitsCompleted: 0, UnitsTotal: 1}, result.Levels[1])

	assert.Equal(t, 150, result.TotalXP)
	assert.Equal(t, 2, result.Level)
	assert.Equal(t, 1, result.CurrentStreak)
}

func TestUnitOverview_FreshUser(t *testing.T) {
	catalog := testCatalog(t)
	handler := NewGetUnitOverviewHandler(newMemoryRepo(), catalog, curriculum.NewResolver(catalog))

	result, err := handler.Handle(context.Background(), GetUnitOverviewQuery{UserID: testUser})
	require.NoError(t, err)

	require.Len(t, result.Units, 3)
	assert.True(t, result.Units[0].Unlocked)
	assert.False(t, result.Units[1].Unlocked)
	assert.Equal(t, 0, result.TotalXP)
	assert.Equal(t, 1, result.Level)
}

// ─────────────────────────────────────────────────────────────────────────────
// Achievement progress
// ─────────────────────────────────────────────────────────────────────────────

func achievementFixtures(t *testing.T) (*achievement.Engine, map[string][]shared.CardID) {
	t.Helper()
	engine, err := achievement.NewEngine([]achievement.Definition{
		{ID: "week-streak", Title: "One Week",
			Requirement: achievement.Requirement{Type: achievement.ReqStreak, Threshold: 7}},
		{ID: "reviewer-100", Title: "Reviewer",
			Requirement: achievement.Requirement{Type: achievement.ReqCardsReviewed, Threshold: 100}},
	})
	require.NoError(t, err)
	return engine, map[string][]shared.CardID{"food": {"word-apple"}}
}

func TestAchievementProgress_ReportsPartialProgress(t *testing.T) {
	engine, cards := achievementFixtures(t)
	repo := newMemoryRepo()
	handler := NewGetAchievementProgressHandler(repo, engine, cards)
	unlockedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	state := progress.NewUserState(shared.UserID(testUser))
	state.Streak.Current = 7
	state.CardsReviewed = 40
	require.True(t, state.UnlockAchievement("week-streak", unlockedAt))
	repo.seed(state)

	result, err := handler.Handle(context.Background(), GetAchievementProgressQuery{UserID: testUser})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, 1, result.UnlockedCount)

	week := result.Items[0]
	assert.Equal(t, shared.AchievementID("week-streak"), week.Definition.ID)
	assert.True(t, week.Unlocked)
	assert.Equal(t, 100, week.Progress)
	assert.Equal(t, unlockedAt, week.UnlockedAt)

	reviewer := result.Items[1]
	assert.False(t, reviewer.Unlocked)
	assert.Equal(t, 40, reviewer.Progress)
	assert.True(t, reviewer.UnlockedAt.IsZero())
}

func TestAchievementProgress_OnlyLockedFilter(t *testing.T) {
	engine, cards := achievementFixtures(t)
	repo := newMemoryRepo()
	handler := NewGetAchievementProgressHandler(repo, engine, cards)

	state := progress.NewUserState(shared.UserID(testUser))
	state.UnlockAchievement("week-streak", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	repo.seed(state)

	result, err := handler.Handle(context.Background(),
		GetAchievementProgressQuery{UserID: testUser, OnlyLocked: true})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, shared.AchievementID("reviewer-100"), result.Items[0].Definition.ID)
	assert.Equal(t, 1, result.UnlockedCount)
}
