// Package curriculum содержит каталог юнитов и резолвер графа разблокировок.
// Каталог статичен: он загружается один раз и никогда не мутирует.
package curriculum

import (
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// Lesson описывает урок в каталоге.
type Lesson struct {
	// ID - идентификатор урока.
	ID shared.LessonID
	// UnitID - юнит, к которому относится урок.
	UnitID shared.UnitID
	// Title - название урока.
	Title string
	// BaseXP - базовый опыт за завершение (до множителя серии).
	BaseXP int
	// PassScore - минимальный результат для завершения урока.
	PassScore shared.Score
}

// Unit описывает юнит каталога с его пререквизитами.
type Unit struct {
	// ID - идентификатор юнита.
	ID shared.UnitID
	// Title - название юнита.
	Title string
	// CEFR - уровень сложности юнита.
	CEFR shared.CEFRLevel
	// Prerequisites - юниты, которые должны быть завершены до разблокировки.
	Prerequisites []shared.UnitID
	// Lessons - уроки юнита в авторском порядке.
	Lessons []Lesson
}

// Catalog - полный каталог курса. Порядок юнитов - авторский
// порядок отображения, он же используется для выбора следующего урока.
type Catalog struct {
	units    []Unit
	byID     map[shared.UnitID]*Unit
	byLesson map[shared.LessonID]*Unit
}

// NewCatalog строит каталог и проверяет целостность графа пререквизитов.
//
// Возвращает ошибку, если каталог пуст, пререквизит ссылается на
// несуществующий юнит или граф содержит цикл.
func NewCatalog(units []Unit) (*Catalog, error) {
	if len(units) == 0 {
		return nil, shared.ErrEmptyCatalog
	}

	c := &Catalog{
		units:    units,
		byID:     make(map[shared.UnitID]*Unit, len(units)),
		byLesson: make(map[shared.LessonID]*Unit),
	}
	for i := range c.units {
		u := &c.units[i]
		c.byID[u.ID] = u
		for _, lesson := range u.Lessons {
			c.byLesson[lesson.ID] = u
		}
	}

	for i := range c.units {
		for _, prereq := range c.units[i].Prerequisites {
			if _, ok := c.byID[prereq]; !ok {
				return nil, shared.WrapError("curriculum", "NewCatalog", shared.ErrInvalidID,
					"prerequisite references unknown unit: "+prereq.String(), shared.ErrUnknownPrereq)
			}
		}
	}

	if err := c.checkAcyclic(); err != nil {
		return nil, err
	}

	return c, nil
}

// checkAcyclic проверяет отсутствие циклов обходом в глубину.
func (c *Catalog) checkAcyclic() error {
	const (
		white = 0 // не посещён
		gray  = 1 // в текущем пути
		black = 2 // обработан
	)
	colors := make(map[shared.UnitID]int, len(c.units))

	var visit func(id shared.UnitID) bool
	visit = func(id shared.UnitID) bool {
		colors[id] = gray
		for _, prereq := range c.byID[id].Prerequisites {
			switch colors[prereq] {
			case gray:
				return false
			case white:
				if !visit(prereq) {
					return false
				}
			}
		}
		colors[id] = black
		return true
	}

	for i := range c.units {
		if colors[c.units[i].ID] == white {
			if !visit(c.units[i].ID) {
				return shared.ErrCyclicCatalog
			}
		}
	}
	return nil
}

// Units возвращает юниты в авторском порядке.
func (c *Catalog) Units() []Unit {
	return c.units
}

// Unit возвращает юнит по идентификатору.
func (c *Catalog) Unit(id shared.UnitID) (*Unit, error) {
	u, ok := c.byID[id]
	if !ok {
		return nil, shared.ErrUnitNotFound
	}
	return u, nil
}

// UnitOfLesson возвращает юнит, содержащий урок.
func (c *Catalog) UnitOfLesson(lessonID shared.LessonID) (*Unit, error) {
	u, ok := c.byLesson[lessonID]
	if !ok {
		return nil, shared.ErrInvalidLessonID
	}
	return u, nil
}

// LessonDef возвращает описание урока из каталога.
func (c *Catalog) LessonDef(lessonID shared.LessonID) (*Lesson, error) {
	u, err := c.UnitOfLesson(lessonID)
	if err != nil {
		return nil, err
	}
	for i := range u.Lessons {
		if u.Lessons[i].ID == lessonID {
			return &u.Lessons[i], nil
		}
	}
	return nil, shared.ErrInvalidLessonID
}
