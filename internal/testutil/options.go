package testutil

import (
	"encoding/json"

	"github.com/paulmach/orb"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// DatasetOption configures a dataset under construction.
type DatasetOption func(*domain.Dataset)

// NewDataset builds a dataset of the given type with optional configuration.
func NewDataset(typeName string, opts ...DatasetOption) *domain.Dataset {
	ds := &domain.Dataset{
		TypeName:  typeName,
		Location:  "/data/test/dataset.tar",
		Checksum:  "sha256:0000",
		SizeBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

// GUID sets the dataset GUID.
func GUID(guid string) DatasetOption {
	return func(ds *domain.Dataset) { ds.GUID = guid }
}

// Location sets the dataset location.
func Location(location string) DatasetOption {
	return func(ds *domain.Dataset) { ds.Location = location }
}

// Checksum sets the dataset checksum.
func Checksum(checksum string) DatasetOption {
	return func(ds *domain.Dataset) { ds.Checksum = checksum }
}

// Extent appends a coverage range along one dimension.
func Extent(tag string, min, max float64) DatasetOption {
	return func(ds *domain.Dataset) {
		ds.Extents = append(ds.Extents, domain.DimensionExtent{DimensionTag: tag, Min: min, Max: max})
	}
}

// IndexedExtent appends a coverage range carrying an explicit indexing
// coordinate, as irregular axes use.
func IndexedExtent(tag string, min, max, index float64) DatasetOption {
	return func(ds *domain.Dataset) {
		ds.Extents = append(ds.Extents, domain.DimensionExtent{
			DimensionTag: tag, Min: min, Max: max, IndexValue: &index,
		})
	}
}

// BoundFootprint sets a rectangular footprint.
func BoundFootprint(minLon, minLat, maxLon, maxLat float64) DatasetOption {
	return func(ds *domain.Dataset) {
		ds.Footprint = domain.FootprintFromBound(orb.Bound{
			Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat},
		})
	}
}

// Metadata sets the vendor metadata document.
func Metadata(doc string) DatasetOption {
	return func(ds *domain.Dataset) { ds.Metadata = json.RawMessage(doc) }
}
