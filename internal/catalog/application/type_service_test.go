package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

func TestTypeService_DefineDatasetType_DimensionNotInDomain(t *testing.T) {
	registry, types, _ := setupServices(t)
	registerBaseCatalog(t, registry, types)
	ctx := context.Background()

	dt := &domain.DatasetType{
		Name: "broken",
		Dims: []domain.DatasetDimension{
			// time is not a member of the spatial-xy domain.
			{DomainTag: "spatial-xy", DimensionTag: "time", ReferenceSystemTag: "seconds-since-epoch", Direction: domain.Ascending},
		},
	}
	err := types.DefineDatasetType(ctx, dt)
	var consistency *domain.DimensionConsistencyError
	require.True(t, errors.As(err, &consistency))
	require.Equal(t, "time", consistency.DimensionTag)
}

func TestTypeService_DefineDatasetType_Idempotent(t *testing.T) {
	registry, types, _ := setupServices(t)
	registerBaseCatalog(t, registry, types)
	ctx := context.Background()

	existing, err := types.DatasetType("level1-scene")
	require.NoError(t, err)

	// Re-defining the identical type is a no-op.
	clone := *existing
	clone.ID = 0
	require.NoError(t, types.DefineDatasetType(ctx, &clone))
	require.Equal(t, existing.ID, clone.ID)

	// A differing definition under the same name is rejected.
	differing := *existing
	differing.ID = 0
	differing.Measurements = differing.Measurements[:1]
	err = types.DefineDatasetType(ctx, &differing)
	var conflict *domain.ConflictingDefinitionError
	require.True(t, errors.As(err, &conflict))
}

func TestTypeService_DefineStorageType_UnknownSource(t *testing.T) {
	registry, types, _ := setupServices(t)
	registerBaseCatalog(t, registry, types)
	ctx := context.Background()

	st := &domain.StorageType{
		Name:            "orphan",
		DatasetTypeName: "no-such-type",
		Dims: []domain.StorageDimension{
			{DimensionTag: "lon", DomainTag: "spatial-xy", ReferenceSystemTag: "epsg-4326",
				Regime: domain.RegimeRegular, Extent: 1, Elements: 4000, Direction: domain.Ascending},
		},
	}
	err := types.DefineStorageType(ctx, st)
	require.True(t, domain.IsNotFound(err))
}

func TestTypeService_DefineStorageType_FixedRequiresIndexedSystem(t *testing.T) {
	registry, types, _ := setupServices(t)
	registerBaseCatalog(t, registry, types)
	ctx := context.Background()

	st := &domain.StorageType{
		Name:            "broken-fixed",
		DatasetTypeName: "level1-scene",
		Dims: []domain.StorageDimension{
			// epsg-4326 has no indexing table, so it cannot back a fixed axis.
			{DimensionTag: "lon", DomainTag: "spatial-xy", ReferenceSystemTag: "epsg-4326",
				Regime: domain.RegimeFixed, Direction: domain.Ascending},
		},
	}
	err := types.DefineStorageType(ctx, st)
	var consistency *domain.DimensionConsistencyError
	require.True(t, errors.As(err, &consistency))
}

func TestTypeService_DefineStorageType_DimensionNotInDomain(t *testing.T) {
	registry, types, _ := setupServices(t)
	registerBaseCatalog(t, registry, types)
	ctx := context.Background()

	require.NoError(t, registry.RegisterDimension(ctx, &domain.Dimension{Name: "Elevation", Tag: "elevation"}))

	st := &domain.StorageType{
		Name:            "broken-membership",
		DatasetTypeName: "level1-scene",
		Dims: []domain.StorageDimension{
			// elevation is registered but not a member of spatial-xy.
			{DimensionTag: "elevation", DomainTag: "spatial-xy", ReferenceSystemTag: "epsg-4326",
				Regime: domain.RegimeRegular, Extent: 1, Elements: 4000, Direction: domain.Ascending},
		},
	}
	err := types.DefineStorageType(ctx, st)
	var consistency *domain.DimensionConsistencyError
	require.True(t, errors.As(err, &consistency))
	require.Equal(t, "elevation", consistency.DimensionTag)
}

func TestTypeService_DefineStorageType_RegularNeedsExtentAndElements(t *testing.T) {
	registry, types, _ := setupServices(t)
	registerBaseCatalog(t, registry, types)
	ctx := context.Background()

	st := &domain.StorageType{
		Name:            "broken-regular",
		DatasetTypeName: "level1-scene",
		Dims: []domain.StorageDimension{
			{DimensionTag: "lon", DomainTag: "spatial-xy", ReferenceSystemTag: "epsg-4326",
				Regime: domain.RegimeRegular, Extent: 1, Direction: domain.Ascending},
		},
	}
	err := types.DefineStorageType(ctx, st)
	var consistency *domain.DimensionConsistencyError
	require.True(t, errors.As(err, &consistency), "Regular regime without elements should be rejected at definition time")
}

func TestTypeService_DefineStorageType_Idempotent(t *testing.T) {
	registry, types, _ := setupServices(t)
	registerBaseCatalog(t, registry, types)
	ctx := context.Background()

	existing, err := types.StorageType("tiled-annual")
	require.NoError(t, err)

	clone := *existing
	clone.ID = 0
	require.NoError(t, types.DefineStorageType(ctx, &clone))
	require.Equal(t, existing.ID, clone.ID)

	differing := *existing
	differing.ID = 0
	differing.Dims = append([]domain.StorageDimension{}, differing.Dims...)
	differing.Dims[0].Extent = 2.0
	err = types.DefineStorageType(ctx, &differing)
	var conflict *domain.ConflictingDefinitionError
	require.True(t, errors.As(err, &conflict))
}

func TestTypeService_StorageTypesFor(t *testing.T) {
	registry, types, _ := setupServices(t)
	registerBaseCatalog(t, registry, types)

	derived, err := types.StorageTypesFor("level1-scene")
	require.NoError(t, err)
	require.Len(t, derived, 2)
	require.Equal(t, "spectral-stack", derived[0].Name)
	require.Equal(t, "tiled-annual", derived[1].Name)
}
