package ranking

import (
	"sort"

	"github.com/ougirez/restorank/internal/domain"
)

// AssignRanks orders every score by composite descending and numbers them
// 1..N. The sort is stable, so ties keep the order they were given in.
// Only rows whose rank changes are returned.
func AssignRanks(scores []*domain.RankScore) map[int64]int {
	ordered := append([]*domain.RankScore(nil), scores...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CompositeScore > ordered[j].CompositeScore
	})

	changed := make(map[int64]int)
	for i, s := range ordered {
		if s.AutoRank != i+1 {
			changed[s.RestaurantID] = i + 1
		}
	}
	return changed
}
