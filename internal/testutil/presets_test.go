package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithSceneCatalog(t *testing.T) {
	db := MemoryCatalogDB(t)
	registry, types, _ := Services(t, db)

	NewBuilder(t, registry, types).WithSceneCatalog().Build()

	dims, err := registry.ListDimensions()
	require.NoError(t, err)
	require.Len(t, dims, 4)

	dt, err := types.DatasetType("level1-scene")
	require.NoError(t, err)
	require.Len(t, dt.Dims, 4)

	st, err := types.StorageType("tiled-annual")
	require.NoError(t, err)
	require.Len(t, st.Dims, 3)
}

func TestSceneDataset_IngestsIntoOneTile(t *testing.T) {
	db := MemoryCatalogDB(t)
	registry, types, ingest := Services(t, db)
	NewBuilder(t, registry, types).WithSceneCatalog().Build()

	ds := SceneDataset(1000, 2000)
	require.NoError(t, ingest.RegisterDataset(context.Background(), ds))

	units, err := ingest.StorageUnits("tiled-annual")
	require.NoError(t, err)
	require.Len(t, units, 1)
	require.Equal(t, []int64{ds.ID}, units[0].DatasetIDs)
}
