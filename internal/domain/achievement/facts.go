package achievement

import (
	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// BuildFacts проецирует состояние ученика на факты, по которым движок
// оценивает требования. cardsByCategory - полный каталог карточек по
// категориям: освоение категории измеряется относительно каталога,
// а не относительно уже просмотренных карточек.
func BuildFacts(st *progress.UserState, cardsByCategory map[string][]shared.CardID) Facts {
	facts := Facts{
		TotalXP:         st.TotalXP.Int(),
		Level:           st.Level().Int(),
		CurrentStreak:   st.Streak.Current,
		CardsReviewed:   st.CardsReviewed,
		CardsMastered:   st.MasteredCardCount(),
		PerfectStreak:   st.PerfectStreak,
		CategoryMastery: make(map[string]CategoryMastery, len(cardsByCategory)),
		FirstActions:    make(map[string]bool, len(st.FirstActions)),
	}

	for kind := range st.FirstActions {
		facts.FirstActions[kind] = true
	}

	for category, ids := range cardsByCategory {
		mastery := CategoryMastery{Total: len(ids)}
		for _, id := range ids {
			if cp, ok := st.Cards[id]; ok && cp.IsFullyMastered() {
				mastery.MasteredBoth++
			}
		}
		facts.CategoryMastery[category] = mastery
	}

	return facts
}
