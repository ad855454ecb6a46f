// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/lingotrail/lingotrail-core/internal/domain/curriculum"
	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET NEXT LESSON QUERY
// Возвращает следующий урок ученика: первый незавершённый урок первого
// разблокированного юнита в порядке объявления каталога, начиная с
// уровня CEFR из вступительного теста. Результат детерминирован -
// никакой случайности, ничего не хранится.
// ══════════════════════════════════════════════════════════════════════════════

// GetNextLessonQuery содержит параметры запроса следующего урока.
type GetNextLessonQuery struct {
	// UserID - идентификатор ученика.
	UserID string
}

// Validate проверяет корректность параметров.
func (q *GetNextLessonQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id must be provided")
	}
	return nil
}

// NextLessonResult - результат запроса следующего урока.
type NextLessonResult struct {
	// Lesson - следующий урок (nil, если курс пройден целиком).
	Lesson *curriculum.Lesson
	// UnitTitle - название юнита следующего урока.
	UnitTitle string
	// CourseCompleted - все уроки всех юнитов завершены.
	CourseCompleted bool
}

// GetNextLessonHandler обрабатывает GetNextLessonQuery.
type GetNextLessonHandler struct {
	repo     progress.Repository
	catalog  *curriculum.Catalog
	resolver *curriculum.Resolver
}

// NewGetNextLessonHandler создаёт обработчик запроса.
func NewGetNextLessonHandler(repo progress.Repository, catalog *curriculum.Catalog, resolver *curriculum.Resolver) *GetNextLessonHandler {
	return &GetNextLessonHandler{repo: repo, catalog: catalog, resolver: resolver}
}

// Handle выполняет запрос следующего урока.
func (h *GetNextLessonHandler) Handle(ctx context.Context, q GetNextLessonQuery) (*NextLessonResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("next_lesson: %w", err)
	}

	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, fmt.Errorf("next_lesson: %w", err)
	}

	state, err := h.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("next_lesson: failed to load state: %w", err)
	}

	lesson, err := h.resolver.NextLesson(state.PlacementLevel, state.CompletedLessons())
	if err != nil {
		if shared.IsNotFound(err) {
			return &NextLessonResult{CourseCompleted: true}, nil
		}
		return nil, fmt.Errorf("next_lesson: %w", err)
	}

	result := &NextLessonResult{Lesson: lesson}
	if unit, err := h.catalog.Unit(lesson.UnitID); err == nil {
		result.UnitTitle = unit.Title
	}
	return result, nil
}
