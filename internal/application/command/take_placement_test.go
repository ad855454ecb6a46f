package command

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingotrail/lingotrail-core/internal/domain/placement"
	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

func placementScorer() *placement.Scorer {
	bands := []shared.CEFRLevel{shared.CEFRA1, shared.CEFRA2, shared.CEFRB1, shared.CEFRB2}
	var questions []placement.Question
	for _, band := range bands {
		for i := 1; i <= 5; i++ {
			questions = append(questions, placement.Question{
				ID:            fmt.Sprintf("%s-q%d", band, i),
				Band:          band,
				Choices:       []string{"right", "wrong"},
				CorrectChoice: 0,
			})
		}
	}
	return placement.NewScorer(questions)
}

func answersFor(band shared.CEFRLevel, correct int) []placement.Answer {
	answers := make([]placement.Answer, 0, 5)
	for i := 1; i <= 5; i++ {
		choice := 1
		if i <= correct {
			choice = 0
		}
		answers = append(answers, placement.Answer{
			QuestionID: fmt.Sprintf("%s-q%d", band, i),
			Choice:     choice,
		})
	}
	return answers
}

func TestTakePlacement_AssignsLevel(t *testing.T) {
	repo := newMemoryRepo()
	publisher := &recordingPublisher{}
	handler := NewTakePlacementHandler(repo, placementScorer(), publisher)
	ctx := context.Background()

	answers := append(answersFor(shared.CEFRA1, 5), answersFor(shared.CEFRA2, 4)...)
	result, err := handler.Handle(ctx, TakePlacementCommand{UserID: testUser, Answers: answers})
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.Equal(t, shared.CEFRA2, result.Result.AssignedLevel)

	state, _ := repo.Load(ctx, shared.UserID(testUser))
	assert.Equal(t, shared.CEFRA2, state.PlacementLevel)
	assert.Contains(t, state.FirstActions, "placement_taken")
	assert.Len(t, publisher.byType(shared.EventPlacementCompleted), 1)
	assert.Len(t, publisher.byType(shared.EventStateChanged), 1)
}

func TestTakePlacement_RetakeNeverLowers(t *testing.T) {
	repo := newMemoryRepo()
	handler := NewTakePlacementHandler(repo, placementScorer(), &recordingPublisher{})
	ctx := context.Background()

	state := progress.NewUserState(shared.UserID(testUser))
	state.RecordPlacement(shared.CEFRB2, state.UpdatedAt)
	require.NoError(t, repo.Save(ctx, state))

	// A weak retake scores A1
	result, err := handler.Handle(ctx, TakePlacementCommand{
		UserID:  testUser,
		Answers: answersFor(shared.CEFRA1, 2),
	})
	require.NoError(t, err)

	assert.False(t, result.Applied)
	assert.Equal(t, shared.CEFRA1, result.Result.AssignedLevel)

	loaded, _ := repo.Load(ctx, shared.UserID(testUser))
	assert.Equal(t, shared.CEFRB2, loaded.PlacementLevel)
}

func TestTakePlacement_EmptyAnswersRejected(t *testing.T) {
	handler := NewTakePlacementHandler(newMemoryRepo(), placementScorer(), &recordingPublisher{})

	_, err := handler.Handle(context.Background(), TakePlacementCommand{UserID: testUser})
	assert.Error(t, err)
}
