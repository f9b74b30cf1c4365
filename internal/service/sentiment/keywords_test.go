package sentiment

import (
	"testing"

	"github.com/ougirez/restorank/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAspects_AbsentWithoutHits(t *testing.T) {
	set := NewKeywordSet(nil)

	aspects := set.Aspects("We came by train")
	assert.Empty(t, aspects)
}

func TestAspects_EqualHitsScoreZero(t *testing.T) {
	set := NewKeywordSet(nil)

	// food: delicious (+), bland (-)
	aspects := set.Aspects("The soup was DELICIOUS but the bread bland")
	assert.Contains(t, aspects, domain.AspectFood)
	assert.Equal(t, 0.0, aspects[domain.AspectFood])
}

func TestAspects_RoundedToTwoDecimals(t *testing.T) {
	set := NewKeywordSet(nil)

	// food: delicious, tasty (+), greasy (-)
	aspects := set.Aspects("delicious and tasty, a bit greasy")
	assert.Equal(t, 0.33, aspects[domain.AspectFood])
}

func TestAspects_SubstringMatching(t *testing.T) {
	set := NewKeywordSet(nil)

	// "not worth" and "worth it" both match; no negation handling
	aspects := set.Aspects("not worth it")
	assert.Equal(t, 0.0, aspects[domain.AspectValue])
}

func TestNewKeywordSet_MergesCustomKeywords(t *testing.T) {
	set := NewKeywordSet([]*domain.CustomKeyword{
		{Category: "food", Sentiment: domain.KeywordPositive, Keyword: "DELICIOUS", IsActive: true},
		{Category: "food", Sentiment: domain.KeywordNegative, Keyword: "microwaved", IsActive: true},
		{Category: "Parking", Sentiment: domain.KeywordNegative, Keyword: "no parking", IsActive: true},
		{Category: "food", Sentiment: domain.KeywordPositive, Keyword: "umami", IsActive: false},
	})

	assert.Equal(t, []string{"food", "service", "ambiance", "value", "parking"}, set.Categories())

	// duplicate "DELICIOUS" is not counted twice
	aspects := set.Aspects("delicious but microwaved, and no parking")
	assert.Equal(t, 0.0, aspects[domain.AspectFood])
	assert.Equal(t, -1.0, aspects["parking"])

	// inactive keywords are ignored
	assert.NotContains(t, set.Aspects("umami"), domain.AspectFood)
}

func TestNewKeywordSet_DoesNotMutateBuiltins(t *testing.T) {
	before := len(builtinKeywords.Aspects[domain.AspectFood].Positive)

	NewKeywordSet([]*domain.CustomKeyword{
		{Category: "food", Sentiment: domain.KeywordPositive, Keyword: "sublime", IsActive: true},
	})

	assert.Len(t, builtinKeywords.Aspects[domain.AspectFood].Positive, before)
	assert.NotContains(t, NewKeywordSet(nil).Aspects("sublime"), domain.AspectFood)
}
