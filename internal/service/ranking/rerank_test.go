package ranking

import (
	"testing"

	"github.com/ougirez/restorank/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAssignRanks(t *testing.T) {
	scores := []*domain.RankScore{
		{RestaurantID: 1, CompositeScore: 3.5},
		{RestaurantID: 2, CompositeScore: 4.5},
		{RestaurantID: 3, CompositeScore: 4.0},
	}

	assert.Equal(t, map[int64]int{2: 1, 3: 2, 1: 3}, AssignRanks(scores))
	// input order is untouched
	assert.Equal(t, int64(1), scores[0].RestaurantID)
}

func TestAssignRanks_TiesKeepInputOrder(t *testing.T) {
	scores := []*domain.RankScore{
		{RestaurantID: 7, CompositeScore: 4.0},
		{RestaurantID: 3, CompositeScore: 4.0},
		{RestaurantID: 5, CompositeScore: 4.0},
	}

	assert.Equal(t, map[int64]int{7: 1, 3: 2, 5: 3}, AssignRanks(scores))
}

func TestAssignRanks_OnlyChanged(t *testing.T) {
	scores := []*domain.RankScore{
		{RestaurantID: 1, CompositeScore: 4.5, AutoRank: 1},
		{RestaurantID: 2, CompositeScore: 3.0, AutoRank: 3},
		{RestaurantID: 3, CompositeScore: 4.0, AutoRank: 2},
	}
	assert.Empty(t, AssignRanks(scores))

	scores[1].CompositeScore = 5
	assert.Equal(t, map[int64]int{2: 1, 1: 2, 3: 3}, AssignRanks(scores))
}

func TestAssignRanks_Empty(t *testing.T) {
	assert.Empty(t, AssignRanks(nil))
}
