package progress

import (
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
	"github.com/lingotrail/lingotrail-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK (серия активных дней)
// ══════════════════════════════════════════════════════════════════════════════

// Streak представляет серию дней с хотя бы одним завершённым уроком.
type Streak struct {
	// Current - текущая длина серии в днях.
	Current int
	// Longest - рекордная длина серии.
	Longest int
	// LastActiveDate - последний день с активностью (полночь локального дня).
	LastActiveDate time.Time
	// StartedAt - первый день текущей серии.
	StartedAt time.Time
	// FreezesAvailable - количество доступных заморозок.
	// Одна заморозка покрывает ровно один пропущенный день.
	FreezesAvailable int
	// LastFreezeUsed - день последнего списания заморозки
	// (нулевое время, если заморозка ни разу не списывалась).
	LastFreezeUsed time.Time
}

// NewStreak создаёт пустую серию.
func NewStreak() *Streak {
	return &Streak{}
}

// StreakOutcome описывает результат обновления серии.
type StreakOutcome struct {
	// Extended - серия выросла на один день.
	Extended bool
	// FreezeConsumed - пропущенный день покрыт заморозкой.
	FreezeConsumed bool
	// Broken - серия сброшена.
	Broken bool
	// PreviousStreak - длина серии до сброса (для события).
	PreviousStreak int
	// DaysMissed - сколько дней было пропущено при сбросе.
	DaysMissed int
}

// Changed возвращает true, если серия изменилась.
func (o StreakOutcome) Changed() bool {
	return o.Extended || o.FreezeConsumed || o.Broken
}

// RecordActivity записывает активность и обновляет серию.
//
// Переходы по числу пропущенных календарных дней:
//   - 0: тот же день, ничего не меняем
//   - 1: следующий день, серия растёт
//   - 2 при наличии заморозки: заморозка списывается, серия растёт
//   - иначе: серия сбрасывается до 1
//
// Отрицательная разница (перевод часов назад) трактуется как тот же день.
func (s *Streak) RecordActivity(date time.Time) StreakOutcome {
	dateOnly := timeutil.StartOfDay(date)

	// Первая активность
	if s.LastActiveDate.IsZero() {
		s.Current = 1
		s.Longest = 1
		s.LastActiveDate = dateOnly
		s.StartedAt = dateOnly
		return StreakOutcome{Extended: true}
	}

	// Календарная разница в днях по часовому поясу устройства.
	// Вычисление устойчиво к переводам часов: сутки с переходом
	// на летнее время всё равно считаются одним днём.
	daysDiff := timeutil.DaysBetween(s.LastActiveDate.In(dateOnly.Location()), dateOnly)

	var outcome StreakOutcome

	switch {
	case daysDiff <= 0:
		// Тот же день или перевод часов - ничего не меняем
		return StreakOutcome{}
	case daysDiff == 1:
		s.Current++
		outcome.Extended = true
	case daysDiff == 2 && s.FreezesAvailable > 0:
		// Один пропущенный день покрыт заморозкой
		s.FreezesAvailable--
		s.LastFreezeUsed = dateOnly
		s.Current++
		outcome.Extended = true
		outcome.FreezeConsumed = true
	default:
		outcome.Broken = true
		outcome.PreviousStreak = s.Current
		outcome.DaysMissed = daysDiff - 1
		s.Current = 1
		s.StartedAt = dateOnly
	}

	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastActiveDate = dateOnly

	return outcome
}

// Multiplier возвращает текущий множитель XP по длине серии.
func (s *Streak) Multiplier() shared.Multiplier {
	return shared.MultiplierForStreak(s.Current)
}

// GrantFreeze добавляет заморозки (покупка или награда).
func (s *Streak) GrantFreeze(count int) {
	if count > 0 {
		s.FreezesAvailable += count
	}
}

// IsActiveOn возвращает true, если в указанный день уже была активность.
func (s *Streak) IsActiveOn(date time.Time) bool {
	if s.LastActiveDate.IsZero() {
		return false
	}
	return s.LastActiveDate.Year() == date.Year() && s.LastActiveDate.YearDay() == date.YearDay()
}
