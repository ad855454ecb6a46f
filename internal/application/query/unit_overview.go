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
// GET UNIT OVERVIEW QUERY
// Сводка по юнитам для экрана карты курса: завершённость, доступность
// и свод по уровням CEFR. Всё выводится из каталога и снимка прогресса,
// ничего не хранится.
// ══════════════════════════════════════════════════════════════════════════════

// GetUnitOverviewQuery содержит параметры запроса сводки.
type GetUnitOverviewQuery struct {
	// UserID - идентификатор ученика.
	UserID string
}

// Validate проверяет корректность параметров.
func (q *GetUnitOverviewQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id must be provided")
	}
	return nil
}

// LevelRollup - свод по одному уровню CEFR.
type LevelRollup struct {
	// Level - уровень CEFR.
	Level shared.CEFRLevel
	// UnitsCompleted - завершённых юнитов уровня.
	UnitsCompleted int
	// UnitsTotal - всего юнитов уровня.
	UnitsTotal int
}

// UnitOverviewResult - результат запроса сводки.
type UnitOverviewResult struct {
	// Units - сводка по юнитам в порядке каталога.
	Units []curriculum.UnitOverview
	// Levels - свод по уровням CEFR в порядке возрастания.
	Levels []LevelRollup
	// TotalXP и Level - текущие показатели ученика.
	TotalXP int
	Level   int
	// CurrentStreak - текущая серия активных дней.
	CurrentStreak int
}

// GetUnitOverviewHandler обрабатывает GetUnitOverviewQuery.
type GetUnitOverviewHandler struct {
	repo     progress.Repository
	catalog  *curriculum.Catalog
	resolver *curriculum.Resolver
}

// NewGetUnitOverviewHandler создаёт обработчик запроса.
func NewGetUnitOverviewHandler(repo progress.Repository, catalog *curriculum.Catalog, resolver *curriculum.Resolver) *GetUnitOverviewHandler {
	return &GetUnitOverviewHandler{repo: repo, catalog: catalog, resolver: resolver}
}

// Handle выполняет запрос сводки.
func (h *GetUnitOverviewHandler) Handle(ctx context.Context, q GetUnitOverviewQuery) (*UnitOverviewResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("unit_overview: %w", err)
	}

	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, fmt.Errorf("unit_overview: %w", err)
	}

	state, err := h.repo.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("unit_overview: failed to load state: %w", err)
	}

	completed := state.CompletedLessons()
	overviews := h.resolver.Overview(completed)

	result := &UnitOverviewResult{
		Units:         overviews,
		TotalXP:       state.TotalXP.Int(),
		Level:         state.Level().Int(),
		CurrentStreak: state.Streak.Current,
	}

	rollups := make(map[shared.CEFRLevel]*LevelRollup)
	var order []shared.CEFRLevel
	for _, unit := range h.catalog.Units() {
		r, ok := rollups[unit.CEFR]
		if !ok {
			r = &LevelRollup{Level: unit.CEFR}
			rollups[unit.CEFR] = r
			order = append(order, unit.CEFR)
		}
		r.UnitsTotal++
		if h.resolver.IsUnitCompleted(unit.ID, completed) {
			r.UnitsCompleted++
		}
	}
	for _, level := range order {
		result.Levels = append(result.Levels, *rollups[level])
	}

	return result, nil
}
