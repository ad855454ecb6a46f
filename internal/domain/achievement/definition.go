// Package achievement содержит декларативный движок достижений.
// Достижение описывается данными (Requirement), а не кодом: движок
// интерпретирует требование по его типу.
package achievement

import (
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// RequirementType определяет вид требования достижения.
// Набор закрытый: неизвестный тип отклоняется при загрузке каталога.
type RequirementType string

const (
	// ReqStreak - достичь серии активных дней длиной N.
	ReqStreak RequirementType = "streak"
	// ReqCardsReviewed - выполнить N повторений карточек за всё время.
	ReqCardsReviewed RequirementType = "cards_reviewed"
	// ReqCardsMastered - освоить N карточек (достаточно одного направления).
	ReqCardsMastered RequirementType = "cards_mastered"
	// ReqPerfectStreak - провести N сессий без ошибок подряд.
	ReqPerfectStreak RequirementType = "perfect_streak"
	// ReqLevel - достичь уровня N.
	ReqLevel RequirementType = "level"
	// ReqXP - накопить N опыта за всё время.
	ReqXP RequirementType = "xp"
	// ReqFirstAction - впервые выполнить действие указанного вида.
	ReqFirstAction RequirementType = "first_action"
	// ReqCategoryMastered - освоить все карточки категории в обоих
	// направлениях. Порог жёстче, чем у cards_mastered: одного
	// направления недостаточно.
	ReqCategoryMastered RequirementType = "category_mastered"
)

// IsValid проверяет, что тип требования известен движку.
func (t RequirementType) IsValid() bool {
	switch t {
	case ReqStreak, ReqCardsReviewed, ReqCardsMastered, ReqPerfectStreak,
		ReqLevel, ReqXP, ReqFirstAction, ReqCategoryMastered:
		return true
	default:
		return false
	}
}

// Requirement - декларативное требование достижения.
// Используются только поля, относящиеся к типу: Threshold для
// счётных требований, Action для first_action, Category для
// category_mastered.
type Requirement struct {
	// Type - вид требования.
	Type RequirementType
	// Threshold - числовой порог для счётных требований.
	Threshold int
	// Action - вид первого действия для first_action.
	Action string
	// Category - категория карточек для category_mastered.
	Category string
}

// Definition описывает одно достижение каталога.
type Definition struct {
	// ID - идентификатор достижения.
	ID shared.AchievementID
	// Title - название для отображения.
	Title string
	// Description - описание условия.
	Description string
	// Requirement - условие разблокировки.
	Requirement Requirement
	// XPReward - опыт, начисляемый при разблокировке.
	XPReward int
}

// Validate проверяет корректность определения.
func (d Definition) Validate() error {
	if !d.ID.IsValid() {
		return shared.NewDomainError("achievement", "Validate", shared.ErrInvalidID,
			"invalid achievement ID: "+string(d.ID))
	}
	if !d.Requirement.Type.IsValid() {
		return shared.ErrUnknownRequirement
	}
	if d.XPReward < 0 {
		return shared.NewDomainError("achievement", "Validate", shared.ErrNegativeValue,
			"xp reward cannot be negative")
	}
	switch d.Requirement.Type {
	case ReqFirstAction:
		if d.Requirement.Action == "" {
			return shared.NewDomainError("achievement", "Validate", shared.ErrEmptyValue,
				"first_action requires an action kind")
		}
	case ReqCategoryMastered:
		if d.Requirement.Category == "" {
			return shared.NewDomainError("achievement", "Validate", shared.ErrEmptyValue,
				"category_mastered requires a category")
		}
	default:
		if d.Requirement.Threshold <= 0 {
			return shared.NewDomainError("achievement", "Validate", shared.ErrValueOutOfRange,
				"threshold must be positive")
		}
	}
	return nil
}
