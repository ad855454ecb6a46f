package achievement

import (
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RULE ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// CategoryMastery - срез освоения одной категории карточек.
type CategoryMastery struct {
	// MasteredBoth - карточки, освоенные в обоих направлениях.
	MasteredBoth int
	// Total - всего карточек в категории по каталогу.
	Total int
}

// Facts - снимок фактов о прогрессе, по которому движок оценивает
// требования. Факты вычисляет вызывающая сторона: движок не знает
// ни про агрегат состояния, ни про каталог.
type Facts struct {
	TotalXP       int
	Level         int
	CurrentStreak int
	// CardsReviewed - всего повторений карточек за всё время.
	CardsReviewed int
	// CardsMastered - карточки, освоенные хотя бы в одном направлении.
	CardsMastered int
	// PerfectStreak - идущие подряд сессии без ошибок.
	PerfectStreak int
	// CategoryMastery - освоение по категориям (оба направления).
	CategoryMastery map[string]CategoryMastery
	// FirstActions - виды действий, выполненные хотя бы однажды.
	FirstActions map[string]bool
}

// Evaluation - результат оценки одного достижения.
type Evaluation struct {
	// Definition - оценённое достижение.
	Definition Definition
	// Progress - прогресс к разблокировке, 0-100.
	// Progress == 100 тогда и только тогда, когда условие выполнено.
	Progress int
	// Unlocked - условие выполнено.
	Unlocked bool
}

// Engine интерпретирует декларативные требования достижений.
type Engine struct {
	definitions []Definition
}

// NewEngine создаёт движок над каталогом достижений.
// Некорректные определения отбрасываются на этапе создания.
func NewEngine(definitions []Definition) (*Engine, error) {
	for _, d := range definitions {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return &Engine{definitions: definitions}, nil
}

// Definitions возвращает каталог достижений.
func (e *Engine) Definitions() []Definition {
	return e.definitions
}

// Evaluate оценивает одно достижение по фактам.
func (e *Engine) Evaluate(def Definition, facts Facts) (Evaluation, error) {
	current, target, err := requirementCounts(def.Requirement, facts)
	if err != nil {
		return Evaluation{}, err
	}

	ev := Evaluation{Definition: def}
	if target <= 0 {
		// Категория без карточек: условие невыполнимо
		return ev, nil
	}

	ev.Unlocked = current >= target
	if ev.Unlocked {
		ev.Progress = 100
	} else {
		ev.Progress = current * 100 / target
		// Прогресс 100 зарезервирован за выполненным условием
		if ev.Progress > 99 {
			ev.Progress = 99
		}
	}
	return ev, nil
}

// EvaluateAll оценивает все достижения каталога.
func (e *Engine) EvaluateAll(facts Facts) ([]Evaluation, error) {
	evals := make([]Evaluation, 0, len(e.definitions))
	for _, def := range e.definitions {
		ev, err := e.Evaluate(def, facts)
		if err != nil {
			return nil, err
		}
		evals = append(evals, ev)
	}
	return evals, nil
}

// CheckNewlyUnlocked возвращает достижения, условие которых выполнено,
// но которых ещё нет в existing. Момент разблокировки фиксирует
// вызывающая сторона через UserState.UnlockAchievement: это
// гарантирует ровно одну разблокировку.
func (e *Engine) CheckNewlyUnlocked(facts Facts, existing map[shared.AchievementID]time.Time) ([]Definition, error) {
	var fresh []Definition
	for _, def := range e.definitions {
		if _, ok := existing[def.ID]; ok {
			continue
		}
		ev, err := e.Evaluate(def, facts)
		if err != nil {
			return nil, err
		}
		if ev.Unlocked {
			fresh = append(fresh, def)
		}
	}
	return fresh, nil
}

// requirementCounts сводит требование к паре (текущее, целевое).
func requirementCounts(req Requirement, facts Facts) (int, int, error) {
	switch req.Type {
	case ReqStreak:
		return facts.CurrentStreak, req.Threshold, nil
	case ReqCardsReviewed:
		return facts.CardsReviewed, req.Threshold, nil
	case ReqCardsMastered:
		return facts.CardsMastered, req.Threshold, nil
	case ReqPerfectStreak:
		return facts.PerfectStreak, req.Threshold, nil
	case ReqLevel:
		return facts.Level, req.Threshold, nil
	case ReqXP:
		return facts.TotalXP, req.Threshold, nil
	case ReqFirstAction:
		if facts.FirstActions[req.Action] {
			return 1, 1, nil
		}
		return 0, 1, nil
	case ReqCategoryMastered:
		mastery := facts.CategoryMastery[req.Category]
		return mastery.MasteredBoth, mastery.Total, nil
	default:
		return 0, 0, shared.ErrUnknownRequirement
	}
}
