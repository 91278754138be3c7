package testutil

import (
	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// WithSceneCatalog adds a complete scene catalog: geographic, temporal, and
// spectral dimensions, a level1-scene dataset type, and a tiled-annual
// storage type with regular spatial axes and an irregular time axis.
func (b *Builder) WithSceneCatalog() *Builder {
	return b.
		WithDimension("Longitude", "lon").
		WithDimension("Latitude", "lat").
		WithDimension("Time", "time").
		WithDimension("Spectral Band", "band").
		WithDomain("Geographic", "spatial-xy", "lon", "lat").
		WithDomain("Temporal", "temporal", "time").
		WithDomain("Spectral", "spectral", "band").
		WithReferenceSystem("WGS 84", "degrees", "epsg-4326").
		WithReferenceSystem("Unix Time", "seconds since 1970-01-01", "seconds-since-epoch").
		WithReferenceSystem("Landsat Bands", "", "ls-bands",
			domain.IndexingEntry{ArrayIndex: 0, Label: "blue", MeasurementID: "band_1"},
			domain.IndexingEntry{ArrayIndex: 1, Label: "green", MeasurementID: "band_2"},
			domain.IndexingEntry{ArrayIndex: 2, Label: "red", MeasurementID: "band_3"},
		).
		WithDatasetType(&domain.DatasetType{
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
		}).
		WithStorageType(&domain.StorageType{
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
		})
}

// SceneDataset builds a dataset covering a single longitude/latitude tile of
// the tiled-annual storage type over the given time range.
func SceneDataset(timeMin, timeMax float64) *domain.Dataset {
	return NewDataset("level1-scene",
		Location("/data/scenes/scene.tar"),
		Checksum("sha256:cafe"),
		Extent("lon", 110.3, 110.7),
		Extent("lat", -35.6, -35.4),
		Extent("time", timeMin, timeMax),
		Extent("band", 0, 2),
		BoundFootprint(110.3, -35.6, 110.7, -35.4),
	)
}
