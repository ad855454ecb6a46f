package curriculum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// testCatalog builds a small three-unit chain:
// greetings -> food -> travel, plus a standalone "numbers" unit.
func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog([]Unit{
		{
			ID: "unit-greetings", Title: "Greetings", CEFR: shared.CEFRA1,
			Lessons: []Lesson{
				{ID: "greet-01", UnitID: "unit-greetings", BaseXP: 20, PassScore: 70},
				{ID: "greet-02", UnitID: "unit-greetings", BaseXP: 20, PassScore: 70},
			},
		},
		{
			ID: "unit-food", Title: "Food", CEFR: shared.CEFRA1,
			Prerequisites: []shared.UnitID{"unit-greetings"},
			Lessons: []Lesson{
				{ID: "food-01", UnitID: "unit-food", BaseXP: 25, PassScore: 70},
			},
		},
		{
			ID: "unit-travel", Title: "Travel", CEFR: shared.CEFRA2,
			Prerequisites: []shared.UnitID{"unit-food"},
			Lessons: []Lesson{
				{ID: "travel-01", UnitID: "unit-travel", BaseXP: 30, PassScore: 75},
			},
		},
		{
			ID: "unit-numbers", Title: "Numbers", CEFR: shared.CEFRA1,
			Lessons: []Lesson{
				{ID: "num-01", UnitID: "unit-numbers", BaseXP: 20, PassScore: 70},
			},
		},
	})
	require.NoError(t, err)
	return catalog
}

func TestNewCatalog_RejectsEmpty(t *testing.T) {
	_, err := NewCatalog(nil)
	assert.ErrorIs(t, err, shared.ErrEmptyCatalog)
}

func TestNewCatalog_RejectsUnknownPrerequisite(t *testing.T) {
	_, err := NewCatalog([]Unit{
		{ID: "unit-a", Prerequisites: []shared.UnitID{"unit-ghost"},
			Lessons: []Lesson{{ID: "a-01", UnitID: "unit-a"}}},
	})
	assert.ErrorIs(t, err, shared.ErrUnknownPrereq)
}

func TestNewCatalog_RejectsCycle(t *testing.T) {
	_, err := NewCatalog([]Unit{
		{ID: "unit-a", Prerequisites: []shared.UnitID{"unit-b"},
			Lessons: []Lesson{{ID: "a-01", UnitID: "unit-a"}}},
		{ID: "unit-b", Prerequisites: []shared.UnitID{"unit-c"},
			Lessons: []Lesson{{ID: "b-01", UnitID: "unit-b"}}},
		{ID: "unit-c", Prerequisites: []shared.UnitID{"unit-a"},
			Lessons: []Lesson{{ID: "c-01", UnitID: "unit-c"}}},
	})
	assert.ErrorIs(t, err, shared.ErrCyclicCatalog)
}

func TestResolver_NoPrerequisitesAlwaysUnlocked(t *testing.T) {
	r := NewResolver(testCatalog(t))
	none := map[shared.LessonID]bool{}

	assert.True(t, r.IsUnlocked("unit-greetings", none))
	assert.True(t, r.IsUnlocked("unit-numbers", none))
	assert.False(t, r.IsUnlocked("unit-food", none))
	assert.False(t, r.IsUnlocked("unit-travel", none))
}

func TestResolver_UnlocksWhenPrerequisiteCompleted(t *testing.T) {
	r := NewResolver(testCatalog(t))

	// Half of greetings done: food stays locked
	partial := map[shared.LessonID]bool{"greet-01": true}
	assert.False(t, r.IsUnlocked("unit-food", partial))

	done := map[shared.LessonID]bool{"greet-01": true, "greet-02": true}
	assert.True(t, r.IsUnlocked("unit-food", done))
	// Transitive prerequisite still incomplete
	assert.False(t, r.IsUnlocked("unit-travel", done))
}

func TestResolver_NewlyUnlocked(t *testing.T) {
	r := NewResolver(testCatalog(t))

	before := map[shared.LessonID]bool{"greet-01": true}
	after := map[shared.LessonID]bool{"greet-01": true, "greet-02": true}

	fresh := r.NewlyUnlocked(before, after)
	assert.Equal(t, []shared.UnitID{"unit-food"}, fresh)

	// No change means nothing fresh
	assert.Empty(t, r.NewlyUnlocked(after, after))
}

func TestResolver_NextLesson_WalksCatalogOrder(t *testing.T) {
	r := NewResolver(testCatalog(t))

	lesson, err := r.NextLesson("", map[shared.LessonID]bool{})
	assert.NoError(t, err)
	assert.Equal(t, shared.LessonID("greet-01"), lesson.ID)

	lesson, err = r.NextLesson("", map[shared.LessonID]bool{"greet-01": true})
	assert.NoError(t, err)
	assert.Equal(t, shared.LessonID("greet-02"), lesson.ID)

	lesson, err = r.NextLesson("", map[shared.LessonID]bool{"greet-01": true, "greet-02": true})
	assert.NoError(t, err)
	assert.Equal(t, shared.LessonID("food-01"), lesson.ID)
}

func TestResolver_NextLesson_StartsAtLearnerLevel(t *testing.T) {
	r := NewResolver(testCatalog(t))
	none := map[shared.LessonID]bool{}

	// An A1 learner starts at the very first unit
	lesson, err := r.NextLesson(shared.CEFRA1, none)
	assert.NoError(t, err)
	assert.Equal(t, shared.LessonID("greet-01"), lesson.ID)

	// An A2 learner skips the A1 units; the A2 unit is gated only by
	// their completion, so without them it reports locked
	_, err = r.NextLesson(shared.CEFRA2, none)
	assert.ErrorIs(t, err, shared.ErrUnitLocked)

	done := map[shared.LessonID]bool{"greet-01": true, "greet-02": true, "food-01": true}
	lesson, err = r.NextLesson(shared.CEFRA2, done)
	assert.NoError(t, err)
	assert.Equal(t, shared.LessonID("travel-01"), lesson.ID)
}

func TestResolver_NextLesson_LevelScopedCompletion(t *testing.T) {
	r := NewResolver(testCatalog(t))

	// All A2 content finished: the walk for an A2 learner is complete
	// even though A1 lessons remain untouched
	a2Done := map[shared.LessonID]bool{
		"greet-01": true, "greet-02": true, "food-01": true, "travel-01": true,
	}
	_, err := r.NextLesson(shared.CEFRA2, a2Done)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	lesson, err := r.NextLesson("", a2Done)
	assert.NoError(t, err)
	assert.Equal(t, shared.LessonID("num-01"), lesson.ID)
}

func TestResolver_NextLesson_CourseCompleted(t *testing.T) {
	r := NewResolver(testCatalog(t))

	all := map[shared.LessonID]bool{
		"greet-01": true, "greet-02": true,
		"food-01": true, "travel-01": true, "num-01": true,
	}
	_, err := r.NextLesson("", all)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolver_Overview(t *testing.T) {
	r := NewResolver(testCatalog(t))

	completed := map[shared.LessonID]bool{"greet-01": true}
	overviews := r.Overview(completed)
	assert.Len(t, overviews, 4)

	greetings := overviews[0]
	assert.Equal(t, shared.UnitID("unit-greetings"), greetings.UnitID)
	assert.True(t, greetings.Unlocked)
	assert.Equal(t, 2, greetings.LessonsTotal)
	assert.Equal(t, 1, greetings.LessonsCompleted)
	assert.False(t, greetings.Completed())

	food := overviews[1]
	assert.False(t, food.Unlocked)
}

func TestCatalog_LessonDef(t *testing.T) {
	c := testCatalog(t)

	lesson, err := c.LessonDef("food-01")
	assert.NoError(t, err)
	assert.Equal(t, shared.UnitID("unit-food"), lesson.UnitID)
	assert.Equal(t, 25, lesson.BaseXP)

	_, err = c.LessonDef("ghost-lesson")
	assert.Error(t, err)
}
