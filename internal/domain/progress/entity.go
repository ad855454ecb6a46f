// Package progress содержит доменную модель прогресса ученика LingoTrail.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package progress

import (
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// LessonStatus определяет статус прохождения урока.
type LessonStatus string

const (
	// StatusNotStarted - ученик ещё не открывал урок.
	StatusNotStarted LessonStatus = "not_started"
	// StatusInProgress - урок начат, но не завершён.
	StatusInProgress LessonStatus = "in_progress"
	// StatusCompleted - урок завершён. Переход односторонний.
	StatusCompleted LessonStatus = "completed"
)

// IsValid проверяет, что статус корректен.
func (s LessonStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// LessonProgress представляет прогресс по одному уроку.
//
// Инвариант храповика: BestScore никогда не уменьшается,
// а статус completed никогда не откатывается.
type LessonProgress struct {
	// LessonID - идентификатор урока в каталоге.
	LessonID shared.LessonID
	// UnitID - юнит, к которому относится урок.
	UnitID shared.UnitID
	// Status - текущий статус прохождения.
	Status LessonStatus
	// BestScore - лучший результат за все попытки (0-100).
	BestScore shared.Score
	// Attempts - количество открытий урока. Растёт на каждом старте,
	// в том числе для уже завершённого урока.
	Attempts int
	// ExerciseScores - результат последнего прохождения каждого
	// упражнения урока. Повторное прохождение перезаписывает запись.
	ExerciseScores map[shared.ExerciseID]bool
	// FirstStartedAt - момент первого открытия урока.
	FirstStartedAt time.Time
	// CompletedAt - момент первого завершения (нулевое время, если не завершён).
	CompletedAt time.Time
	// LastAttemptAt - момент последней попытки.
	LastAttemptAt time.Time
}

// NewLessonProgress создаёт запись прогресса для урока.
func NewLessonProgress(lessonID shared.LessonID, unitID shared.UnitID) *LessonProgress {
	return &LessonProgress{
		LessonID: lessonID,
		UnitID:   unitID,
		Status:   StatusNotStarted,
	}
}

// IsCompleted возвращает true, если урок завершён.
func (lp *LessonProgress) IsCompleted() bool {
	return lp.Status == StatusCompleted
}

// RecordStart отмечает открытие урока. Каждый вызов увеличивает
// Attempts ровно на единицу; статус completed при этом никогда
// не откатывается в in_progress.
func (lp *LessonProgress) RecordStart(now time.Time) bool {
	lp.Attempts++
	if lp.Status != StatusNotStarted {
		return false
	}
	lp.Status = StatusInProgress
	lp.FirstStartedAt = now
	return true
}

// AttemptResult описывает, что изменилось после попытки.
type AttemptResult struct {
	// ScoreImproved - попытка улучшила лучший результат.
	ScoreImproved bool
	// PreviousBest - лучший результат до попытки.
	PreviousBest shared.Score
	// JustCompleted - урок впервые перешёл в completed.
	JustCompleted bool
}

// RecordAttempt фиксирует завершённую попытку с результатом score.
// Attempts здесь не трогается: попытки считает RecordStart.
//
// Правила храповика:
//   - BestScore = max(BestScore, score), никогда не уменьшается
//   - passed=true переводит урок в completed; обратного перехода нет
//   - повторная попытка с худшим результатом меняет только LastAttemptAt
func (lp *LessonProgress) RecordAttempt(score shared.Score, passed bool, now time.Time) (AttemptResult, error) {
	if !score.IsValid() {
		return AttemptResult{}, shared.ErrInvalidScore
	}

	result := AttemptResult{PreviousBest: lp.BestScore}

	if lp.Status == StatusNotStarted {
		lp.Status = StatusInProgress
		lp.FirstStartedAt = now
	}

	lp.LastAttemptAt = now

	if score > lp.BestScore {
		lp.BestScore = score
		result.ScoreImproved = true
	}

	if passed && lp.Status != StatusCompleted {
		lp.Status = StatusCompleted
		lp.CompletedAt = now
		result.JustCompleted = true
	}

	return result, nil
}

// ExerciseOutcome описывает, что изменилось после одного упражнения.
type ExerciseOutcome struct {
	// Percentage - текущий процент правильных упражнений урока.
	Percentage shared.Score
	// ScoreImproved - процент улучшил лучший результат урока.
	ScoreImproved bool
	// PreviousBest - лучший результат до записи упражнения.
	PreviousBest shared.Score
	// Overwritten - упражнение уже проходилось, результат перезаписан.
	Overwritten bool
}

// RecordExercise фиксирует результат одного упражнения урока.
//
// Результат перезаписывает прежний ответ на то же упражнение, после
// чего процент правильных пересчитывается по всем записанным
// упражнениям. Лучший результат урока растёт по храповику:
// BestScore = max(BestScore, процент). Статус completed упражнения
// не трогают - завершает урок только RecordAttempt.
func (lp *LessonProgress) RecordExercise(exerciseID shared.ExerciseID, correct bool, now time.Time) ExerciseOutcome {
	if lp.Status == StatusNotStarted {
		lp.Status = StatusInProgress
		lp.FirstStartedAt = now
	}
	if lp.ExerciseScores == nil {
		lp.ExerciseScores = make(map[shared.ExerciseID]bool)
	}

	_, overwritten := lp.ExerciseScores[exerciseID]
	lp.ExerciseScores[exerciseID] = correct
	lp.LastAttemptAt = now

	correctCount := 0
	for _, ok := range lp.ExerciseScores {
		if ok {
			correctCount++
		}
	}
	total := len(lp.ExerciseScores)
	// Округление к ближайшему
	pct := shared.Score((100*correctCount + total/2) / total)

	outcome := ExerciseOutcome{Percentage: pct, Overwritten: overwritten, PreviousBest: lp.BestScore}
	if pct > lp.BestScore {
		lp.BestScore = pct
		outcome.ScoreImproved = true
	}
	return outcome
}

// MergeRemote применяет запись с сервера по правилу "completed побеждает".
//
// Удалённая запись замещает локальную только если она completed.
// При равном статусе берётся максимум по BestScore и Attempts,
// чтобы храповик не откатывался ни в одну сторону.
// Возвращает true, если локальная запись изменилась.
func (lp *LessonProgress) MergeRemote(remote *LessonProgress) bool {
	if remote == nil {
		return false
	}

	changed := false

	if remote.IsCompleted() && !lp.IsCompleted() {
		lp.Status = StatusCompleted
		lp.CompletedAt = remote.CompletedAt
		changed = true
	}

	if remote.BestScore > lp.BestScore {
		lp.BestScore = remote.BestScore
		changed = true
	}
	if remote.Attempts > lp.Attempts {
		lp.Attempts = remote.Attempts
		changed = true
	}
	for id, correct := range remote.ExerciseScores {
		if _, ok := lp.ExerciseScores[id]; ok {
			// Локальный ответ свежее серверного снимка
			continue
		}
		if lp.ExerciseScores == nil {
			lp.ExerciseScores = make(map[shared.ExerciseID]bool)
		}
		lp.ExerciseScores[id] = correct
		changed = true
	}
	if lp.FirstStartedAt.IsZero() && !remote.FirstStartedAt.IsZero() {
		lp.FirstStartedAt = remote.FirstStartedAt
		if lp.Status == StatusNotStarted {
			lp.Status = StatusInProgress
		}
		changed = true
	}
	if remote.LastAttemptAt.After(lp.LastAttemptAt) {
		lp.LastAttemptAt = remote.LastAttemptAt
		changed = true
	}

	return changed
}

// ══════════════════════════════════════════════════════════════════════════════
// CARD PROGRESS (словарные карточки)
// ══════════════════════════════════════════════════════════════════════════════

// ReviewDirection определяет направление повторения карточки.
type ReviewDirection string

const (
	// DirectionForward - с родного языка на изучаемый.
	DirectionForward ReviewDirection = "forward"
	// DirectionReverse - с изучаемого языка на родной.
	DirectionReverse ReviewDirection = "reverse"
)

// MasteryIntervalDays - интервал повторения, при котором карточка
// считается освоенной.
const MasteryIntervalDays = 21

// CardProgress представляет состояние интервального повторения карточки.
// Интервалы по направлениям независимы.
type CardProgress struct {
	// CardID - идентификатор карточки.
	CardID shared.CardID
	// Category - тематическая категория ("food", "travel").
	Category string
	// ForwardIntervalDays - текущий интервал в направлении forward.
	ForwardIntervalDays int
	// ReverseIntervalDays - текущий интервал в направлении reverse.
	ReverseIntervalDays int
	// LastReviewedAt - момент последнего повторения в любом направлении.
	LastReviewedAt time.Time
}

// NewCardProgress создаёт запись для новой карточки.
func NewCardProgress(cardID shared.CardID, category string) *CardProgress {
	return &CardProgress{CardID: cardID, Category: category}
}

// Interval возвращает текущий интервал в указанном направлении.
func (cp *CardProgress) Interval(dir ReviewDirection) int {
	if dir == DirectionReverse {
		return cp.ReverseIntervalDays
	}
	return cp.ForwardIntervalDays
}

// SetInterval обновляет интервал в указанном направлении.
func (cp *CardProgress) SetInterval(dir ReviewDirection, days int, now time.Time) {
	if days < 0 {
		days = 0
	}
	if dir == DirectionReverse {
		cp.ReverseIntervalDays = days
	} else {
		cp.ForwardIntervalDays = days
	}
	cp.LastReviewedAt = now
}

// IsMastered возвращает true, если интервал в направлении dir достиг порога.
func (cp *CardProgress) IsMastered(dir ReviewDirection) bool {
	return cp.Interval(dir) >= MasteryIntervalDays
}

// IsMasteredAny возвращает true, если карточка освоена хотя бы
// в одном направлении. Именно это определение "освоенной" карточки
// использует движок достижений для cards_mastered.
func (cp *CardProgress) IsMasteredAny() bool {
	return cp.IsMastered(DirectionForward) || cp.IsMastered(DirectionReverse)
}

// IsFullyMastered возвращает true, если карточка освоена в обоих
// направлениях. Более строгий порог для category_mastered.
func (cp *CardProgress) IsFullyMastered() bool {
	return cp.IsMastered(DirectionForward) && cp.IsMastered(DirectionReverse)
}
