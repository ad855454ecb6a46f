package query

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
// GET ACHIEVEMENT PROGRESS QUERY
// Прогресс по всем достижениям каталога: 0-100 для каждого, причём 100
// выдаётся тогда и только тогда, когда условие достижения выполнено.
// Оценка идёт по той же арифметике, что и разблокировка.
// ══════════════════════════════════════════════════════════════════════════════

// GetAchievementProgressQuery содержит параметры запроса.
type GetAchievementProgressQuery struct {
	// UserID - идентификатор ученика.
	UserID string

	// OnlyLocked - вернуть только ещё не разблокированные достижения.
	OnlyLocked bool
}

// Validate проверяет корректность параметров.
func (q *GetAchievementProgressQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id must be provided")
	}
	return nil
}

// AchievementProgressItem - прогресс по одному достижению.
type AchievementProgressItem struct {
	// Evaluation - оценка движка (определение, прогресс, выполненность).
	achievement.Evaluation

	// UnlockedAt - момент разблокировки (нулевое время, если заперто).
	UnlockedAt time.Time
}

// AchievementProgressResult - результат запроса.
type AchievementProgressResult struct {
	// Items - прогресс по достижениям в порядке каталога.
	Items []AchievementProgressItem
	// UnlockedCount - сколько достижений уже разблокировано.
	UnlockedCount int
}

// GetAchievementProgressHandler обрабатывает GetAchievementProgressQuery.
type GetAchievementProgressHandler struct {
	repo            progress.Repository
	engine          *achievement.Engine
	cardsByCategory map[string][]shared.CardID
}

// NewGetAchievementProgressHandler создаёт обработчик запроса.
func NewGetAchievementProgressHandler(
	repo progress.Repository,
	engine *achievement.Engine,
	cardsByCategory map[string][]shared.CardID,
) *GetAchievementProgressHandler {
	return &GetAchievementProgressHandler{
		repo:            repo,
		engine:          engine,
		cardsByCategory: cardsByCategory,
	}
}

// Handle выполняет запрос прогресса по достижениям.
func (h *GetAchievementProgressHandler) Handle(ctx context.Context, q GetAchievementProgressQuery) (*AchievementProgressResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("achievement_progress: %w", err)
	}

	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, fmt.Errorf("achievement_progress: %w", err)
	}

	state, err := h.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("achievement_progress: failed to load state: %w", err)
	}

	facts := achievement.BuildFacts(state, h.cardsByCategory)
	evals, err := h.engine.EvaluateAll(facts)
	if err != nil {
		return nil, fmt.Errorf("achievement_progress: %w", err)
	}

	result := &AchievementProgressResult{
		Items:         make([]AchievementProgressItem, 0, len(evals)),
		UnlockedCount: len(state.Achievements),
	}
	for _, ev := range evals {
		unlockedAt, unlocked := state.Achievements[ev.Definition.ID]
		if q.OnlyLocked && unlocked {
			continue
		}
		result.Items = append(result.Items, AchievementProgressItem{
			Evaluation: ev,
			UnlockedAt: unlockedAt,
		})
	}

	return result, nil
}
