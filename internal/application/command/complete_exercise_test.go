package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingotrail/lingotrail-core/internal/domain/curriculum"
	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

func newCompleteExerciseHandler(repo *memoryRepo, publisher *recordingPublisher) *CompleteExerciseHandler {
	catalog := fixtureCatalog()
	return NewCompleteExerciseHandler(repo, catalog, curriculum.NewResolver(catalog), publisher)
}

func TestCompleteExercise_TracksRunningPercentage(t *testing.T) {
	repo := newMemoryRepo()
	publisher := &recordingPublisher{}
	handler := newCompleteExerciseHandler(repo, publisher)
	ctx := context.Background()

	result, err := handler.Handle(ctx, CompleteExerciseCommand{
		UserID:     testUser,
		LessonID:   "greet-01",
		ExerciseID: "ex-1",
		Correct:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, 100, result.Percentage)
	assert.Equal(t, 100, result.BestScore)
	assert.True(t, result.ScoreImproved)

	result, err = handler.Handle(ctx, CompleteExerciseCommand{
		UserID:     testUser,
		LessonID:   "greet-01",
		ExerciseID: "ex-2",
		Correct:    false,
	})
	require.NoError(t, err)

	// 1 of 2 correct, but the best score never drops
	assert.Equal(t, 50, result.Percentage)
	assert.Equal(t, 100, result.BestScore)
	assert.False(t, result.ScoreImproved)

	state, _ := repo.Load(ctx, shared.UserID(testUser))
	lp := state.Lessons["greet-01"]
	assert.Equal(t, progress.StatusInProgress, lp.Status)
	assert.Len(t, lp.ExerciseScores, 2)
	assert.Len(t, publisher.byType(shared.EventStateChanged), 2)
}

func TestCompleteExercise_RedoOverwritesAnswer(t *testing.T) {
	repo := newMemoryRepo()
	handler := newCompleteExerciseHandler(repo, &recordingPublisher{})
	ctx := context.Background()

	_, err := handler.Handle(ctx, CompleteExerciseCommand{
		UserID: testUser, LessonID: "greet-01", ExerciseID: "ex-1", Correct: false,
	})
	require.NoError(t, err)

	result, err := handler.Handle(ctx, CompleteExerciseCommand{
		UserID: testUser, LessonID: "greet-01", ExerciseID: "ex-1", Correct: true,
	})
	require.NoError(t, err)

	assert.True(t, result.Overwritten)
	assert.Equal(t, 100, result.Percentage)

	state, _ := repo.Load(ctx, shared.UserID(testUser))
	assert.Len(t, state.Lessons["greet-01"].ExerciseScores, 1)
}

func TestCompleteExercise_DoesNotCompleteLesson(t *testing.T) {
	repo := newMemoryRepo()
	handler := newCompleteExerciseHandler(repo, &recordingPublisher{})
	ctx := context.Background()

	_, err := handler.Handle(ctx, CompleteExerciseCommand{
		UserID: testUser, LessonID: "greet-01", ExerciseID: "ex-1", Correct: true,
	})
	require.NoError(t, err)

	state, _ := repo.Load(ctx, shared.UserID(testUser))
	assert.False(t, state.Lessons["greet-01"].IsCompleted())
}

func TestCompleteExercise_LockedUnitRejected(t *testing.T) {
	repo := newMemoryRepo()
	handler := newCompleteExerciseHandler(repo, &recordingPublisher{})

	_, err := handler.Handle(context.Background(), CompleteExerciseCommand{
		UserID: testUser, LessonID: "travel-01", ExerciseID: "ex-1", Correct: true,
	})
	assert.ErrorIs(t, err, shared.ErrUnitLocked)
	assert.Equal(t, 0, repo.saves)
}

func TestCompleteExercise_Validation(t *testing.T) {
	handler := newCompleteExerciseHandler(newMemoryRepo(), &recordingPublisher{})
	ctx := context.Background()

	_, err := handler.Handle(ctx, CompleteExerciseCommand{LessonID: "greet-01", ExerciseID: "ex-1"})
	assert.Error(t, err)

	_, err = handler.Handle(ctx, CompleteExerciseCommand{UserID: testUser, ExerciseID: "ex-1"})
	assert.Error(t, err)

	_, err = handler.Handle(ctx, CompleteExerciseCommand{UserID: testUser, LessonID: "greet-01"})
	assert.Error(t, err)

	_, err = handler.Handle(ctx, CompleteExerciseCommand{
		UserID: testUser, LessonID: "ghost-01", ExerciseID: "ex-1",
	})
	assert.Error(t, err)
}
