package domain

import (
	"encoding/json"
	"time"
)

// DimensionExtent is a dataset's coverage along one dimension.
type DimensionExtent struct {
	DimensionTag string
	Min          float64
	Max          float64

	// IndexValue is populated only for irregularly indexed axes such as
	// time, where it carries the canonical indexing coordinate. Nil
	// otherwise.
	IndexValue *float64
}

// Dataset is one ingested source artifact. Datasets are immutable after
// registration; re-processed data registers a new record rather than
// overwriting an existing one.
type Dataset struct {
	ID        int64
	GUID      string
	TypeName  string
	Location  string
	Checksum  string
	SizeBytes int64
	CreatedAt time.Time

	Extents   []DimensionExtent
	Footprint Footprint

	// Metadata is the vendor metadata document, opaque to the indexing
	// engine.
	Metadata json.RawMessage
}

// Extent returns the dataset's extent along the given dimension, or nil.
func (ds *Dataset) Extent(tag string) *DimensionExtent {
	for i := range ds.Extents {
		if ds.Extents[i].DimensionTag == tag {
			return &ds.Extents[i]
		}
	}
	return nil
}

// DatasetFilter provides filtering options for listing datasets.
type DatasetFilter struct {
	// TypeName filters by dataset type. Empty includes all types.
	TypeName string

	// Dimension range filter; applied only when DimensionTag is set.
	DimensionTag string
	Min          float64
	Max          float64

	// Limit restricts the number of records returned. 0 means no limit.
	Limit int
}
