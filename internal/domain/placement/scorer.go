// Package placement содержит скоринг вступительного теста CEFR.
// Скоринг детерминирован: один и тот же набор ответов всегда даёт
// один и тот же уровень.
package placement

import (
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// PassPerBand - минимальное число правильных ответов в полосе,
// чтобы полоса считалась пройденной. Порог абсолютный и не зависит
// от количества отвеченных вопросов.
const PassPerBand = 3

// Полосы, которые может назначить вступительный тест.
// C1/C2 не назначаются: для них теста недостаточно.
var assignableBands = []shared.CEFRLevel{
	shared.CEFRB2,
	shared.CEFRB1,
	shared.CEFRA2,
	shared.CEFRA1,
}

// Question описывает вопрос вступительного теста.
type Question struct {
	// ID - идентификатор вопроса.
	ID string
	// Band - полоса CEFR, к которой относится вопрос.
	Band shared.CEFRLevel
	// Prompt - текст вопроса.
	Prompt string
	// Choices - варианты ответа.
	Choices []string
	// CorrectChoice - индекс правильного варианта.
	CorrectChoice int
}

// Answer - ответ ученика на вопрос теста.
type Answer struct {
	// QuestionID - идентификатор вопроса.
	QuestionID string
	// Choice - выбранный вариант.
	Choice int
}

// BandTally - итог по одной полосе.
type BandTally struct {
	// Correct - число правильных ответов.
	Correct int
	// Answered - число отвеченных вопросов полосы.
	Answered int
}

// Passed возвращает true, если полоса пройдена.
func (t BandTally) Passed() bool {
	return t.Correct >= PassPerBand
}

// Result - результат скоринга вступительного теста.
type Result struct {
	// AssignedLevel - назначенный уровень CEFR.
	AssignedLevel shared.CEFRLevel
	// Tallies - итоги по полосам.
	Tallies map[shared.CEFRLevel]BandTally
	// TotalCorrect и TotalAnswered - суммарные итоги.
	TotalCorrect  int
	TotalAnswered int
	// Score - общий балл: round(100 * TotalCorrect / TotalAnswered).
	Score int
	// ScoredAt - момент скоринга.
	ScoredAt time.Time
}

// Scorer считает результат вступительного теста по банку вопросов.
type Scorer struct {
	questions map[string]*Question
}

// NewScorer создаёт скорер над банком вопросов.
func NewScorer(questions []Question) *Scorer {
	s := &Scorer{questions: make(map[string]*Question, len(questions))}
	for i := range questions {
		s.questions[questions[i].ID] = &questions[i]
	}
	return s
}

// Score считает итоги по полосам и назначает уровень.
//
// Сканирование идёт сверху вниз: B2, B1, A2, A1. Назначается первая
// полоса с Correct >= PassPerBand. Если ни одна полоса не пройдена,
// назначается A1: тест никогда не оставляет ученика без уровня.
//
// Ввод логически является отображением вопрос -> ответ, поэтому
// ответ на неизвестный вопрос и повторный ответ на тот же вопрос -
// ошибки: банк вопросов статичен, рассинхронизация означает
// повреждённый ввод.
func (s *Scorer) Score(answers []Answer, now time.Time) (*Result, error) {
	if len(answers) == 0 {
		return nil, shared.ErrPlacementEmpty
	}

	result := &Result{
		AssignedLevel: shared.CEFRA1,
		Tallies:       make(map[shared.CEFRLevel]BandTally),
		ScoredAt:      now,
	}

	seen := make(map[string]bool, len(answers))
	for _, answer := range answers {
		q, ok := s.questions[answer.QuestionID]
		if !ok {
			return nil, shared.ErrPlacementQuestion
		}
		if seen[answer.QuestionID] {
			return nil, shared.ErrPlacementRepeat
		}
		seen[answer.QuestionID] = true
		tally := result.Tallies[q.Band]
		tally.Answered++
		result.TotalAnswered++
		if answer.Choice == q.CorrectChoice {
			tally.Correct++
			result.TotalCorrect++
		}
		result.Tallies[q.Band] = tally
	}

	for _, band := range assignableBands {
		if result.Tallies[band].Passed() {
			result.AssignedLevel = band
			break
		}
	}

	// Округление к ближайшему
	result.Score = (100*result.TotalCorrect + result.TotalAnswered/2) / result.TotalAnswered

	return result, nil
}
