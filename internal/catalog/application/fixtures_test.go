package application

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/gridcat/gridcat/internal/cachemanager"
	"github.com/gridcat/gridcat/internal/catalog/domain"
	"github.com/gridcat/gridcat/internal/infrastructure/sqlite"
	"github.com/gridcat/gridcat/internal/pubsub"
)

// setupServices wires the full service stack over an in-memory database.
func setupServices(t *testing.T) (*RegistryService, *TypeService, *IngestService) {
	t.Helper()
	db, err := sqlite.NewDB(":memory:")
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { db.Close() })

	cache := cachemanager.NewInMemoryCacheManager[string, *domain.ReferenceSystem](
		"refsystems", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	broker := pubsub.NewBroker[pubsub.CatalogChange]()
	t.Cleanup(broker.Close)

	registry := NewRegistryService(db.RegistryRepository(), cache, broker)
	types := NewTypeService(db.TypeRepository(), registry, broker)
	ingest := NewIngestService(registry, types, db.DatasetRepository(), db.StorageUnitRepository(), broker, nil)
	return registry, types, ingest
}

// registerBaseCatalog populates the registries and types most tests work
// against: a geographic/temporal/spectral scene type with a regular+irregular
// tiled storage type and a fixed-regime spectral stack.
func registerBaseCatalog(t *testing.T, registry *RegistryService, types *TypeService) {
	t.Helper()
	ctx := context.Background()

	for _, d := range []domain.Dimension{
		{Name: "Longitude", Tag: "lon"},
		{Name: "Latitude", Tag: "lat"},
		{Name: "Time", Tag: "time"},
		{Name: "Spectral Band", Tag: "band"},
	} {
		dim := d
		require.NoError(t, registry.RegisterDimension(ctx, &dim))
	}

	for _, d := range []domain.Domain{
		{Name: "Geographic", Tag: "spatial-xy", DimensionTags: []string{"lon", "lat"}},
		{Name: "Temporal", Tag: "temporal", DimensionTags: []string{"time"}},
		{Name: "Spectral", Tag: "spectral", DimensionTags: []string{"band"}},
	} {
		dom := d
		require.NoError(t, registry.RegisterDomain(ctx, &dom))
	}

	for _, rs := range []domain.ReferenceSystem{
		{Name: "WGS 84", Unit: "degrees", Tag: "epsg-4326"},
		{Name: "Unix Time", Unit: "seconds since 1970-01-01", Tag: "seconds-since-epoch"},
		{Name: "Landsat Bands", Tag: "ls-bands", Indexing: []domain.IndexingEntry{
			{ArrayIndex: 0, Label: "blue", MeasurementID: "band_1"},
			{ArrayIndex: 1, Label: "green", MeasurementID: "band_2"},
			{ArrayIndex: 2, Label: "red", MeasurementID: "band_3"},
		}},
	} {
		system := rs
		require.NoError(t, registry.RegisterReferenceSystem(ctx, &system))
	}

	dt := &domain.DatasetType{
		Name: "level1-scene",
		Dims: []domain.DatasetDimension{
			{DomainTag: "spatial-xy", DimensionTag: "lat", ReferenceSystemTag: "epsg-4326", Order: 0, Direction: domain.Descending},
			{DomainTag: "spatial-xy", DimensionTag: "lon", ReferenceSystemTag: "epsg-4326", Order: 1, Direction: domain.Ascending},
			{DomainTag: "temporal", DimensionTag: "time", ReferenceSystemTag: "seconds-since-epoch", Order: 2, Direction: domain.Ascending},
			{DomainTag: "spectral", DimensionTag: "band", ReferenceSystemTag: "ls-bands", Order: 3, Direction: domain.Ascending},
		},
		Measurements: []domain.Measurement{
			{ID: "band_1", Name: "Blue", DataType: "int16"},
			{ID: "band_2", Name: "Green", DataType: "int16"},
			{ID: "band_3", Name: "Red", DataType: "int16"},
		},
	}
	require.NoError(t, types.DefineDatasetType(ctx, dt))

	tiled := &domain.StorageType{
		Name:            "tiled-annual",
		DatasetTypeName: "level1-scene",
		Dims: []domain.StorageDimension{
			{DimensionTag: "lon", DomainTag: "spatial-xy", ReferenceSystemTag: "epsg-4326",
				Regime: domain.RegimeRegular, Extent: 1.0, Elements: 4000, ChunkSize: 500, Origin: 110.0, Direction: domain.Ascending},
			{DimensionTag: "lat", DomainTag: "spatial-xy", ReferenceSystemTag: "epsg-4326",
				Regime: domain.RegimeRegular, Extent: 1.0, Elements: 4000, ChunkSize: 500, Origin: -10.0, Direction: domain.Descending},
			{DimensionTag: "time", DomainTag: "temporal", ReferenceSystemTag: "seconds-since-epoch",
				Regime: domain.RegimeIrregular, Direction: domain.Ascending},
		},
		Measurements: []domain.StorageMeasurement{
			{ID: "band_1", Name: "Blue", DataType: "int16", NoDataValue: -999},
		},
	}
	require.NoError(t, types.DefineStorageType(ctx, tiled))

	spectral := &domain.StorageType{
		Name:            "spectral-stack",
		DatasetTypeName: "level1-scene",
		Dims: []domain.StorageDimension{
			{DimensionTag: "band", DomainTag: "spectral", ReferenceSystemTag: "ls-bands",
				Regime: domain.RegimeFixed, Direction: domain.Ascending},
		},
		Measurements: []domain.StorageMeasurement{
			{ID: "band_1", Name: "Blue", DataType: "int16", NoDataValue: -999},
		},
	}
	require.NoError(t, types.DefineStorageType(ctx, spectral))
}

// sceneDataset builds a dataset covering one longitude/latitude tile of the
// tiled-annual storage type and all three spectral bands.
func sceneDataset(timeMin, timeMax float64) *domain.Dataset {
	return &domain.Dataset{
		TypeName:  "level1-scene",
		Location:  "/data/scenes/scene.tar",
		Checksum:  "sha256:cafe",
		SizeBytes: 1 << 20,
		Extents: []domain.DimensionExtent{
			{DimensionTag: "lon", Min: 110.3, Max: 110.7},
			{DimensionTag: "lat", Min: -35.6, Max: -35.4},
			{DimensionTag: "time", Min: timeMin, Max: timeMax},
			{DimensionTag: "band", Min: 0, Max: 2},
		},
		Footprint: domain.FootprintFromBound(orb.Bound{
			Min: orb.Point{110.3, -35.6}, Max: orb.Point{110.7, -35.4},
		}),
	}
}
