package curriculum

import (
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNLOCK RESOLVER
// ══════════════════════════════════════════════════════════════════════════════

// Resolver отвечает на вопросы о разблокировке юнитов по графу
// пререквизитов. Резолвер не хранит состояния: ответ всегда выводится
// из каталога и множества завершённых уроков.
type Resolver struct {
	catalog *Catalog
}

// NewResolver создаёт резолвер над каталогом.
func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// IsUnitCompleted возвращает true, если все уроки юнита завершены.
// Юнит без уроков считается незавершённым, чтобы пустой юнит
// не разблокировал свои зависимые юниты.
func (r *Resolver) IsUnitCompleted(unitID shared.UnitID, completed map[shared.LessonID]bool) bool {
	u, err := r.catalog.Unit(unitID)
	if err != nil || len(u.Lessons) == 0 {
		return false
	}
	for _, lesson := range u.Lessons {
		if !completed[lesson.ID] {
			return false
		}
	}
	return true
}

// IsUnlocked возвращает true, если все пререквизиты юнита завершены.
// Юнит без пререквизитов разблокирован всегда.
func (r *Resolver) IsUnlocked(unitID shared.UnitID, completed map[shared.LessonID]bool) bool {
	u, err := r.catalog.Unit(unitID)
	if err != nil {
		return false
	}
	for _, prereq := range u.Prerequisites {
		if !r.IsUnitCompleted(prereq, completed) {
			return false
		}
	}
	return true
}

// UnlockedUnits возвращает идентификаторы разблокированных юнитов
// в авторском порядке каталога.
func (r *Resolver) UnlockedUnits(completed map[shared.LessonID]bool) []shared.UnitID {
	var unlocked []shared.UnitID
	for _, u := range r.catalog.Units() {
		if r.IsUnlocked(u.ID, completed) {
			unlocked = append(unlocked, u.ID)
		}
	}
	return unlocked
}

// NewlyUnlocked возвращает юниты, которые стали доступны после
// завершения урока: разблокированы сейчас, но не были разблокированы
// до мутации.
func (r *Resolver) NewlyUnlocked(before, after map[shared.LessonID]bool) []shared.UnitID {
	var fresh []shared.UnitID
	for _, u := range r.catalog.Units() {
		if r.IsUnlocked(u.ID, after) && !r.IsUnlocked(u.ID, before) {
			fresh = append(fresh, u.ID)
		}
	}
	return fresh
}

// NextLesson возвращает первый незавершённый урок первого
// разблокированного юнита, начиная с уровня CEFR ученика: юниты
// ниже уровня level в обход не входят. Пустой или неизвестный
// level означает обход с самого начала каталога.
// Возвращает shared.ErrUnitLocked, если незавершённые уроки есть
// только в заблокированных юнитах, и shared.ErrNotFound, если все
// уроки обхода завершены.
func (r *Resolver) NextLesson(level shared.CEFRLevel, completed map[shared.LessonID]bool) (*Lesson, error) {
	sawLocked := false
	for _, u := range r.catalog.Units() {
		if level.IsValid() && !u.CEFR.AtLeast(level) {
			continue
		}
		if !r.IsUnlocked(u.ID, completed) {
			for _, lesson := range u.Lessons {
				if !completed[lesson.ID] {
					sawLocked = true
					break
				}
			}
			continue
		}
		for i := range u.Lessons {
			if !completed[u.Lessons[i].ID] {
				return &u.Lessons[i], nil
			}
		}
	}
	if sawLocked {
		return nil, shared.ErrUnitLocked
	}
	return nil, shared.ErrNotFound
}

// UnitOverview описывает видимое ученику состояние юнита.
type UnitOverview struct {
	// UnitID - идентификатор юнита.
	UnitID shared.UnitID
	// Title - название юнита.
	Title string
	// CEFR - уровень сложности.
	CEFR shared.CEFRLevel
	// Unlocked - доступен ли юнит.
	Unlocked bool
	// LessonsTotal и LessonsCompleted - прогресс по урокам юнита.
	LessonsTotal     int
	LessonsCompleted int
}

// Completed возвращает true, если юнит завершён целиком.
func (o UnitOverview) Completed() bool {
	return o.LessonsTotal > 0 && o.LessonsCompleted == o.LessonsTotal
}

// Overview строит сводку по всем юнитам каталога.
func (r *Resolver) Overview(completed map[shared.LessonID]bool) []UnitOverview {
	overviews := make([]UnitOverview, 0, len(r.catalog.Units()))
	for _, u := range r.catalog.Units() {
		o := UnitOverview{
			UnitID:       u.ID,
			Title:        u.Title,
			CEFR:         u.CEFR,
			Unlocked:     r.IsUnlocked(u.ID, completed),
			LessonsTotal: len(u.Lessons),
		}
		for _, lesson := range u.Lessons {
			if completed[lesson.ID] {
				o.LessonsCompleted++
			}
		}
		overviews = append(overviews, o)
	}
	return overviews
}
