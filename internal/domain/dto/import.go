package dto

import (
	"sync"

	"github.com/ougirez/restorank/internal/domain"
)

// ImportedPlace is one place ready to be written to the store.
type ImportedPlace struct {
	Restaurant domain.Restaurant
	Rating     domain.SourceRating
	Reviews    []domain.Review
}

// ImportBatch collects places parsed concurrently for one region.
type ImportBatch struct {
	RegionCode string
	places     map[string]*ImportedPlace
	placesMx   sync.Mutex
}

func NewImportBatch(regionCode string) *ImportBatch {
	return &ImportBatch{
		RegionCode: regionCode,
		places:     make(map[string]*ImportedPlace),
	}
}

// Put stores a place keyed by its external id; a later put for the same id wins.
func (b *ImportBatch) Put(externalID string, place *ImportedPlace) {
	b.placesMx.Lock()
	defer b.placesMx.Unlock()

	b.places[externalID] = place
}

func (b *ImportBatch) Len() int {
	b.placesMx.Lock()
	defer b.placesMx.Unlock()

	return len(b.places)
}

func (b *ImportBatch) Places() []*ImportedPlace {
	b.placesMx.Lock()
	defer b.placesMx.Unlock()

	res := make([]*ImportedPlace, 0, len(b.places))
	for _, p := range b.places {
		res = append(res, p)
	}
	return res
}
