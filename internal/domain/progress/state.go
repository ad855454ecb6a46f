package progress

import (
	"time"

	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER STATE (агрегат всего локального прогресса)
// ══════════════════════════════════════════════════════════════════════════════

// SyncStatus определяет состояние синхронизации локального прогресса.
type SyncStatus string

const (
	// SyncUninitialized - локальное состояние ещё не сливалось с сервером.
	SyncUninitialized SyncStatus = "uninitialized"
	// SyncMerging - идёт слияние с серверным снимком.
	SyncMerging SyncStatus = "merging"
	// SyncSynced - состояние слито, дальнейшие изменения отправляются fire-and-forget.
	SyncSynced SyncStatus = "synced"
)

// IsValid проверяет, что статус корректен.
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncUninitialized, SyncMerging, SyncSynced:
		return true
	default:
		return false
	}
}

// Виды действий для журнала первых действий.
const (
	FirstActionLesson    = "lesson_completed"
	FirstActionPlacement = "placement_taken"
	FirstActionReview    = "card_reviewed"
	FirstActionSession   = "session_finished"
)

// UserState - агрегат всего локального прогресса одного ученика.
// Все мутации проходят через методы агрегата, чтобы инварианты
// храповика нельзя было обойти.
type UserState struct {
	// UserID - идентификатор ученика.
	UserID shared.UserID
	// Lessons - прогресс по урокам.
	Lessons map[shared.LessonID]*LessonProgress
	// Cards - состояние интервального повторения карточек.
	Cards map[shared.CardID]*CardProgress
	// TotalXP - накопленный за всё время опыт. Никогда не уменьшается.
	TotalXP shared.XP
	// Streak - серия активных дней.
	Streak *Streak
	// PlacementLevel - уровень CEFR по результатам вступительного теста
	// (пустая строка, если тест не пройден).
	PlacementLevel shared.CEFRLevel
	// PlacementTakenAt - момент прохождения вступительного теста.
	PlacementTakenAt time.Time
	// Achievements - разблокированные достижения и момент разблокировки.
	Achievements map[shared.AchievementID]time.Time
	// SessionsFinished - количество завершённых учебных сессий.
	SessionsFinished int
	// PerfectSessions - сессии без единой ошибки за всё время.
	PerfectSessions int
	// PerfectStreak - идущие подряд сессии без ошибок.
	// Сбрасывается первой же несовершенной сессией.
	PerfectStreak int
	// CardsReviewed - всего повторений карточек за всё время.
	CardsReviewed int
	// CardsCorrect - повторения с проходной оценкой.
	CardsCorrect int
	// TimeSpentMs - суммарное время сессий в миллисекундах.
	TimeSpentMs int64
	// FirstActions - журнал первых действий: вид действия -> момент.
	FirstActions map[string]time.Time
	// SyncStatus - состояние синхронизации с сервером.
	SyncStatus SyncStatus
	// LastSyncedAt - момент последнего успешного слияния.
	LastSyncedAt time.Time
	// UpdatedAt - момент последней мутации агрегата.
	UpdatedAt time.Time
}

// NewUserState создаёт пустое состояние для ученика.
func NewUserState(userID shared.UserID) *UserState {
	return &UserState{
		UserID:       userID,
		Lessons:      make(map[shared.LessonID]*LessonProgress),
		Cards:        make(map[shared.CardID]*CardProgress),
		Streak:       NewStreak(),
		Achievements: make(map[shared.AchievementID]time.Time),
		FirstActions: make(map[string]time.Time),
		SyncStatus:   SyncUninitialized,
	}
}

// Lesson возвращает запись прогресса по уроку, создавая её при необходимости.
func (st *UserState) Lesson(lessonID shared.LessonID, unitID shared.UnitID) *LessonProgress {
	if lp, ok := st.Lessons[lessonID]; ok {
		return lp
	}
	lp := NewLessonProgress(lessonID, unitID)
	st.Lessons[lessonID] = lp
	return lp
}

// Card возвращает запись прогресса по карточке, создавая её при необходимости.
func (st *UserState) Card(cardID shared.CardID, category string) *CardProgress {
	if cp, ok := st.Cards[cardID]; ok {
		return cp
	}
	cp := NewCardProgress(cardID, category)
	st.Cards[cardID] = cp
	return cp
}

// CompletedLessons возвращает множество завершённых уроков.
func (st *UserState) CompletedLessons() map[shared.LessonID]bool {
	done := make(map[shared.LessonID]bool)
	for id, lp := range st.Lessons {
		if lp.IsCompleted() {
			done[id] = true
		}
	}
	return done
}

// CompletedLessonCount возвращает число завершённых уроков.
func (st *UserState) CompletedLessonCount() int {
	count := 0
	for _, lp := range st.Lessons {
		if lp.IsCompleted() {
			count++
		}
	}
	return count
}

// MasteredCardCount возвращает число карточек, освоенных хотя бы
// в одном направлении.
func (st *UserState) MasteredCardCount() int {
	count := 0
	for _, cp := range st.Cards {
		if cp.IsMasteredAny() {
			count++
		}
	}
	return count
}

// RecordReview учитывает одно повторение карточки в счётчиках.
func (st *UserState) RecordReview(correct bool, now time.Time) {
	st.CardsReviewed++
	if correct {
		st.CardsCorrect++
	}
	st.touch(now)
}

// SessionSummary описывает завершённую учебную сессию.
type SessionSummary struct {
	// CardsReviewed - повторений за сессию.
	CardsReviewed int
	// CardsCorrect - из них с проходной оценкой.
	CardsCorrect int
	// ElapsedMs - длительность сессии в миллисекундах.
	ElapsedMs int64
}

// Perfect возвращает true для непустой сессии без единой ошибки.
func (s SessionSummary) Perfect() bool {
	return s.CardsReviewed > 0 && s.CardsCorrect == s.CardsReviewed
}

// RecordSession учитывает завершённую сессию. Совершенная сессия
// продлевает PerfectStreak, несовершенная обнуляет его.
func (st *UserState) RecordSession(s SessionSummary, now time.Time) {
	st.SessionsFinished++
	st.TimeSpentMs += s.ElapsedMs
	if s.Perfect() {
		st.PerfectSessions++
		st.PerfectStreak++
	} else {
		st.PerfectStreak = 0
	}
	st.touch(now)
}

// ──────────────────────────────────────────────────────────────────────────────
// XP
// ──────────────────────────────────────────────────────────────────────────────

// XPAward описывает начисление опыта.
type XPAward struct {
	// Base - базовая сумма до множителя.
	Base int
	// Multiplier - применённый множитель серии.
	Multiplier shared.Multiplier
	// Amount - фактически начисленный опыт.
	Amount int
	// NewTotal - накопленный опыт после начисления.
	NewTotal shared.XP
	// OldLevel и NewLevel - уровни до и после начисления.
	OldLevel shared.Level
	NewLevel shared.Level
}

// LeveledUp возвращает true, если начисление подняло уровень.
func (a XPAward) LeveledUp() bool {
	return a.NewLevel > a.OldLevel
}

// AwardXP начисляет опыт с учётом множителя текущей серии.
// Отрицательные начисления запрещены: опыт только растёт.
func (st *UserState) AwardXP(base int, now time.Time) (XPAward, error) {
	if base < 0 {
		return XPAward{}, shared.ErrNegativeXP
	}

	mult := st.Streak.Multiplier()
	amount := mult.Apply(base)
	oldLevel := st.TotalXP.Level()
	st.TotalXP = st.TotalXP.Add(amount)
	st.touch(now)

	return XPAward{
		Base:       base,
		Multiplier: mult,
		Amount:     amount,
		NewTotal:   st.TotalXP,
		OldLevel:   oldLevel,
		NewLevel:   st.TotalXP.Level(),
	}, nil
}

// Level возвращает текущий уровень. Уровень не хранится:
// он всегда выводится из накопленного опыта.
func (st *UserState) Level() shared.Level {
	return st.TotalXP.Level()
}

// ──────────────────────────────────────────────────────────────────────────────
// Достижения и журнал первых действий
// ──────────────────────────────────────────────────────────────────────────────

// UnlockAchievement разблокирует достижение ровно один раз.
// Повторный вызов возвращает false и ничего не меняет.
func (st *UserState) UnlockAchievement(id shared.AchievementID, now time.Time) bool {
	if _, ok := st.Achievements[id]; ok {
		return false
	}
	st.Achievements[id] = now
	st.touch(now)
	return true
}

// HasAchievement возвращает true, если достижение уже разблокировано.
func (st *UserState) HasAchievement(id shared.AchievementID) bool {
	_, ok := st.Achievements[id]
	return ok
}

// RecordFirstAction отмечает первое действие указанного вида.
// Возвращает true только при первом вызове для данного вида.
func (st *UserState) RecordFirstAction(kind string, now time.Time) bool {
	if _, ok := st.FirstActions[kind]; ok {
		return false
	}
	st.FirstActions[kind] = now
	st.touch(now)
	return true
}

// ──────────────────────────────────────────────────────────────────────────────
// Вступительный тест
// ──────────────────────────────────────────────────────────────────────────────

// RecordPlacement сохраняет результат вступительного теста.
// Результат записывается один раз; повторное тестирование не
// понижает уже назначенный уровень.
func (st *UserState) RecordPlacement(level shared.CEFRLevel, now time.Time) bool {
	if st.PlacementLevel != "" && st.PlacementLevel.AtLeast(level) {
		return false
	}
	st.PlacementLevel = level
	st.PlacementTakenAt = now
	st.touch(now)
	return true
}

// ──────────────────────────────────────────────────────────────────────────────
// Слияние с серверным снимком
// ──────────────────────────────────────────────────────────────────────────────

// MergeReport описывает результат слияния с серверным снимком.
type MergeReport struct {
	// LessonsMerged - сколько записей уроков рассматривалось.
	LessonsMerged int
	// RemoteWins - сколько локальных записей изменилось в пользу сервера.
	RemoteWins int
}

// MergeRemote сливает серверный снимок в локальное состояние.
//
// Правило "completed побеждает": серверная запись урока замещает
// локальную, только если она completed или локальной записи нет.
// Скалярные счётчики сливаются по максимуму - храповик не откатывается.
func (st *UserState) MergeRemote(remote *UserState, now time.Time) MergeReport {
	var report MergeReport
	if remote == nil {
		return report
	}

	for id, rlp := range remote.Lessons {
		report.LessonsMerged++
		local, ok := st.Lessons[id]
		if !ok {
			// Нет локальной записи - серверная побеждает целиком
			clone := *rlp
			st.Lessons[id] = &clone
			report.RemoteWins++
			continue
		}
		if local.MergeRemote(rlp) {
			report.RemoteWins++
		}
	}

	for id, rcp := range remote.Cards {
		local, ok := st.Cards[id]
		if !ok {
			clone := *rcp
			st.Cards[id] = &clone
			continue
		}
		if rcp.ForwardIntervalDays > local.ForwardIntervalDays {
			local.ForwardIntervalDays = rcp.ForwardIntervalDays
		}
		if rcp.ReverseIntervalDays > local.ReverseIntervalDays {
			local.ReverseIntervalDays = rcp.ReverseIntervalDays
		}
		if rcp.LastReviewedAt.After(local.LastReviewedAt) {
			local.LastReviewedAt = rcp.LastReviewedAt
		}
	}

	if remote.TotalXP > st.TotalXP {
		st.TotalXP = remote.TotalXP
	}
	if remote.Streak != nil {
		if remote.Streak.Longest > st.Streak.Longest {
			st.Streak.Longest = remote.Streak.Longest
		}
		if remote.Streak.LastActiveDate.After(st.Streak.LastActiveDate) {
			st.Streak.Current = remote.Streak.Current
			st.Streak.LastActiveDate = remote.Streak.LastActiveDate
			st.Streak.StartedAt = remote.Streak.StartedAt
		}
		if remote.Streak.FreezesAvailable > st.Streak.FreezesAvailable {
			st.Streak.FreezesAvailable = remote.Streak.FreezesAvailable
		}
		if remote.Streak.LastFreezeUsed.After(st.Streak.LastFreezeUsed) {
			st.Streak.LastFreezeUsed = remote.Streak.LastFreezeUsed
		}
	}

	for id, unlockedAt := range remote.Achievements {
		existing, ok := st.Achievements[id]
		if !ok || unlockedAt.Before(existing) {
			st.Achievements[id] = unlockedAt
		}
	}

	for kind, at := range remote.FirstActions {
		existing, ok := st.FirstActions[kind]
		if !ok || at.Before(existing) {
			st.FirstActions[kind] = at
		}
	}

	if remote.SessionsFinished > st.SessionsFinished {
		st.SessionsFinished = remote.SessionsFinished
	}
	if remote.PerfectSessions > st.PerfectSessions {
		st.PerfectSessions = remote.PerfectSessions
	}
	if remote.PerfectStreak > st.PerfectStreak {
		st.PerfectStreak = remote.PerfectStreak
	}
	if remote.CardsReviewed > st.CardsReviewed {
		st.CardsReviewed = remote.CardsReviewed
	}
	if remote.CardsCorrect > st.CardsCorrect {
		st.CardsCorrect = remote.CardsCorrect
	}
	if remote.TimeSpentMs > st.TimeSpentMs {
		st.TimeSpentMs = remote.TimeSpentMs
	}
	// Уровень теста сливается тем же храповиком, что и RecordPlacement:
	// более высокая серверная полоса побеждает, более низкая игнорируется.
	if remote.PlacementLevel != "" &&
		(st.PlacementLevel == "" || !st.PlacementLevel.AtLeast(remote.PlacementLevel)) {
		st.PlacementLevel = remote.PlacementLevel
		st.PlacementTakenAt = remote.PlacementTakenAt
	}

	st.SyncStatus = SyncSynced
	st.LastSyncedAt = now
	st.touch(now)

	return report
}

func (st *UserState) touch(now time.Time) {
	st.UpdatedAt = now
}
