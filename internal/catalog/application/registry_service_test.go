package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

func TestRegistryService_RegisterDimension_Idempotent(t *testing.T) {
	registry, _, _ := setupServices(t)
	ctx := context.Background()

	first := &domain.Dimension{Name: "Longitude", Tag: "lon"}
	require.NoError(t, registry.RegisterDimension(ctx, first))

	again := &domain.Dimension{Name: "Longitude", Tag: "lon"}
	require.NoError(t, registry.RegisterDimension(ctx, again), "Identical re-registration should be a no-op")
	require.Equal(t, first.ID, again.ID, "Re-registration should resolve to the existing record")
}

func TestRegistryService_RegisterDimension_Conflicting(t *testing.T) {
	registry, _, _ := setupServices(t)
	ctx := context.Background()

	require.NoError(t, registry.RegisterDimension(ctx, &domain.Dimension{Name: "Longitude", Tag: "lon"}))

	err := registry.RegisterDimension(ctx, &domain.Dimension{Name: "X Coordinate", Tag: "lon"})
	var conflict *domain.ConflictingDefinitionError
	require.True(t, errors.As(err, &conflict), "Differing re-registration should be rejected")
	require.Equal(t, "lon", conflict.Tag)
}

func TestRegistryService_RegisterDomain_UnknownDimension(t *testing.T) {
	registry, _, _ := setupServices(t)
	ctx := context.Background()

	err := registry.RegisterDomain(ctx, &domain.Domain{
		Name: "Geographic", Tag: "spatial-xy", DimensionTags: []string{"lon"},
	})
	require.True(t, domain.IsNotFound(err), "Domain over an unregistered dimension should be rejected")
}

func TestRegistryService_RegisterReferenceSystem_MalformedIndexing(t *testing.T) {
	registry, _, _ := setupServices(t)
	ctx := context.Background()

	err := registry.RegisterReferenceSystem(ctx, &domain.ReferenceSystem{
		Name: "Bands", Tag: "bands",
		Indexing: []domain.IndexingEntry{
			{ArrayIndex: 0, Label: "blue"},
			{ArrayIndex: 2, Label: "red"}, // gap at 1
		},
	})
	var malformed *domain.MalformedIndexingTableError
	require.True(t, errors.As(err, &malformed), "Gapped indexing table should be rejected")
}

func TestRegistryService_RegisterReferenceSystem_Idempotent(t *testing.T) {
	registry, _, _ := setupServices(t)
	ctx := context.Background()

	rs := &domain.ReferenceSystem{Name: "WGS 84", Unit: "degrees", Tag: "epsg-4326"}
	require.NoError(t, registry.RegisterReferenceSystem(ctx, rs))

	same := &domain.ReferenceSystem{Name: "WGS 84", Unit: "degrees", Tag: "epsg-4326"}
	require.NoError(t, registry.RegisterReferenceSystem(ctx, same))
	require.Equal(t, rs.ID, same.ID)

	different := &domain.ReferenceSystem{Name: "WGS 84", Unit: "meters", Tag: "epsg-4326"}
	err := registry.RegisterReferenceSystem(ctx, different)
	var conflict *domain.ConflictingDefinitionError
	require.True(t, errors.As(err, &conflict))
}

func TestRegistryService_DeleteDimension_ReferencedByType(t *testing.T) {
	registry, types, _ := setupServices(t)
	registerBaseCatalog(t, registry, types)
	ctx := context.Background()

	err := registry.DeleteDimension(ctx, "lon")
	var immutable *domain.ReferencedEntityImmutableError
	require.True(t, errors.As(err, &immutable), "Referenced dimension should be immutable")
	require.Equal(t, "lon", immutable.Tag)

	_, err = registry.Dimension("lon")
	require.NoError(t, err, "Dimension should still exist after rejected delete")
}

func TestRegistryService_DeleteDimension_ReferencedByDomain(t *testing.T) {
	registry, _, _ := setupServices(t)
	ctx := context.Background()

	require.NoError(t, registry.RegisterDimension(ctx, &domain.Dimension{Name: "Longitude", Tag: "lon"}))
	require.NoError(t, registry.RegisterDomain(ctx, &domain.Domain{
		Name: "Geographic", Tag: "spatial-xy", DimensionTags: []string{"lon"},
	}))

	err := registry.DeleteDimension(ctx, "lon")
	var immutable *domain.ReferencedEntityImmutableError
	require.True(t, errors.As(err, &immutable), "Domain membership should also pin the dimension")
}

func TestRegistryService_DeleteDimension_Unreferenced(t *testing.T) {
	registry, _, _ := setupServices(t)
	ctx := context.Background()

	require.NoError(t, registry.RegisterDimension(ctx, &domain.Dimension{Name: "Depth", Tag: "depth"}))
	require.NoError(t, registry.DeleteDimension(ctx, "depth"))

	_, err := registry.Dimension("depth")
	require.True(t, domain.IsNotFound(err))
}

func TestRegistryService_DeleteReferenceSystem_Referenced(t *testing.T) {
	registry, types, _ := setupServices(t)
	registerBaseCatalog(t, registry, types)
	ctx := context.Background()

	err := registry.DeleteReferenceSystem(ctx, "epsg-4326")
	var immutable *domain.ReferencedEntityImmutableError
	require.True(t, errors.As(err, &immutable))
}

func TestRegistryService_ReferenceSystem_CachedLookup(t *testing.T) {
	registry, _, _ := setupServices(t)
	ctx := context.Background()

	require.NoError(t, registry.RegisterReferenceSystem(ctx, &domain.ReferenceSystem{
		Name: "WGS 84", Unit: "degrees", Tag: "epsg-4326",
	}))

	first, err := registry.ReferenceSystem(ctx, "epsg-4326")
	require.NoError(t, err)

	// Second lookup is served from the cache and must agree.
	second, err := registry.ReferenceSystem(ctx, "epsg-4326")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.Tag, second.Tag)

	_, err = registry.ReferenceSystem(ctx, "missing")
	require.True(t, domain.IsNotFound(err))
}
