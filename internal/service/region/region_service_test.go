package region

import (
	"context"
	"testing"

	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/constants"
	"github.com/ougirez/restorank/internal/pkg/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	svc := NewRegionService(st)

	_, err := svc.SaveRegion(ctx, &domain.Region{Code: "SF", Name: "San Francisco"})
	require.NoError(t, err)

	byArea := storetest.Restaurant(t, st, "Area coded", "Oakland", "sf")
	byName := storetest.Restaurant(t, st, "Named city", "san francisco", "")
	byCode := storetest.Restaurant(t, st, "Coded city", "SF", "")
	storetest.Restaurant(t, st, "Elsewhere", "Los Angeles", "LA")

	ids, err := svc.Resolve(ctx, "sf")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{byArea, byName, byCode}, ids)
}

func TestResolve_UnknownRegionMatchesCodeOnly(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	svc := NewRegionService(st)

	id := storetest.Restaurant(t, st, "Pier", "Pier Town", "PT")

	ids, err := svc.Resolve(ctx, "PT")
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, ids)

	ids, err = svc.Resolve(ctx, "GVA")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = svc.Resolve(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSaveRegion_Validation(t *testing.T) {
	svc := NewRegionService(storetest.New(t))

	_, err := svc.SaveRegion(context.Background(), &domain.Region{Code: "SF"})
	require.ErrorIs(t, err, constants.ErrBadRequest)
}
