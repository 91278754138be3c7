package domain

import (
	"fmt"
	"time"
)

// Regime is the tiling strategy for a storage dimension.
type Regime string

const (
	// RegimeRegular tiles the axis on a fixed lattice of origin + i*extent.
	RegimeRegular Regime = "regular"

	// RegimeIrregular leaves tile ranges open-ended; each storage unit
	// carries its own explicit min/max, e.g. for time.
	RegimeIrregular Regime = "irregular"

	// RegimeFixed resolves positions through the reference system's
	// indexing table, e.g. for spectral bands.
	RegimeFixed Regime = "fixed"
)

// IsValid returns true if the regime is recognized.
func (r Regime) IsValid() bool {
	switch r {
	case RegimeRegular, RegimeIrregular, RegimeFixed:
		return true
	default:
		return false
	}
}

// StorageDimension declares how a storage type tiles one axis.
type StorageDimension struct {
	DimensionTag       string
	DomainTag          string
	ReferenceSystemTag string
	Regime             Regime

	// Extent is the size of one storage unit along the axis, in reference
	// system units. Required for regular, meaningless for fixed.
	Extent float64

	// Elements is the raster element count inside one tile along the axis.
	// Required for regular, forbidden for irregular.
	Elements int64

	// ChunkSize is the internal blocking granularity consumed by format
	// writers. Zero means writer default.
	ChunkSize int64

	// Origin is the coordinate of the tile-index-zero boundary.
	Origin float64

	Direction AxisDirection
}

// StorageMeasurement binds a measurement to its storage datatype and no-data
// value.
type StorageMeasurement struct {
	ID          string
	Name        string
	DataType    string
	NoDataValue float64
}

// StorageType is a category of derived, tiled storage: per-dimension tiling
// parameters plus measurement bindings.
type StorageType struct {
	ID        int64
	Name      string
	CreatedAt time.Time

	// DatasetTypeName names the source dataset type this storage derives from.
	DatasetTypeName string

	Dims         []StorageDimension
	Measurements []StorageMeasurement
}

// Dimension returns the storage binding for the given dimension tag, or nil.
func (st *StorageType) Dimension(tag string) *StorageDimension {
	for i := range st.Dims {
		if st.Dims[i].DimensionTag == tag {
			return &st.Dims[i]
		}
	}
	return nil
}

// Validate enforces the definition-time rules for storage types. Validation
// happens when the type is defined, not when the first dataset is tiled, so a
// broken definition never reaches the indexing engine.
//
// Per-regime rules:
//   - regular requires positive extent and elements
//   - irregular forbids elements (tile count along the axis is open-ended)
//   - fixed requires an indexed reference system and forbids extent and origin
//
// Every dimension must also be valid for at least one domain the source
// dataset type declares: storage indexing cannot be defined on an axis the
// source data does not have.
func (st *StorageType) Validate(source *DatasetType, refSystems map[string]*ReferenceSystem) error {
	if st.Name == "" {
		return &ConflictingDefinitionError{Entity: "storage type", Tag: st.Name, Detail: "empty name"}
	}
	if len(st.Dims) == 0 {
		return &DimensionConsistencyError{
			StorageTypeName: st.Name,
			Detail:          "storage type declares no dimensions",
		}
	}

	sourceDomains := make(map[string]bool)
	for _, d := range source.Dims {
		sourceDomains[d.DomainTag] = true
	}

	seen := make(map[string]bool, len(st.Dims))
	for _, d := range st.Dims {
		if seen[d.DimensionTag] {
			return &DimensionConsistencyError{
				StorageTypeName: st.Name,
				DimensionTag:    d.DimensionTag,
				Detail:          "dimension bound twice",
			}
		}
		seen[d.DimensionTag] = true

		if !d.Regime.IsValid() {
			return &DimensionConsistencyError{
				StorageTypeName: st.Name,
				DimensionTag:    d.DimensionTag,
				Detail:          fmt.Sprintf("unknown regime %q", d.Regime),
			}
		}
		if !d.Direction.IsValid() {
			return &DimensionConsistencyError{
				StorageTypeName: st.Name,
				DimensionTag:    d.DimensionTag,
				Detail:          "invalid axis direction",
			}
		}
		if !sourceDomains[d.DomainTag] {
			return &DimensionConsistencyError{
				StorageTypeName: st.Name,
				DimensionTag:    d.DimensionTag,
				Detail: fmt.Sprintf("domain %q is not declared by source dataset type %q",
					d.DomainTag, source.Name),
			}
		}

		switch d.Regime {
		case RegimeRegular:
			if d.Extent <= 0 {
				return &DimensionConsistencyError{
					StorageTypeName: st.Name,
					DimensionTag:    d.DimensionTag,
					Detail:          "regular regime requires a positive extent",
				}
			}
			if d.Elements <= 0 {
				return &DimensionConsistencyError{
					StorageTypeName: st.Name,
					DimensionTag:    d.DimensionTag,
					Detail:          "regular regime requires a positive element count",
				}
			}
		case RegimeIrregular:
			if d.Elements != 0 {
				return &DimensionConsistencyError{
					StorageTypeName: st.Name,
					DimensionTag:    d.DimensionTag,
					Detail:          "irregular regime forbids an element count",
				}
			}
		case RegimeFixed:
			if d.Extent != 0 || d.Origin != 0 {
				return &DimensionConsistencyError{
					StorageTypeName: st.Name,
					DimensionTag:    d.DimensionTag,
					Detail:          "fixed regime forbids extent and origin",
				}
			}
			rs, ok := refSystems[d.ReferenceSystemTag]
			if !ok {
				return &DimensionConsistencyError{
					StorageTypeName: st.Name,
					DimensionTag:    d.DimensionTag,
					Detail:          fmt.Sprintf("unknown reference system %q", d.ReferenceSystemTag),
				}
			}
			if !rs.IsIndexed() {
				return &DimensionConsistencyError{
					StorageTypeName: st.Name,
					DimensionTag:    d.DimensionTag,
					Detail: fmt.Sprintf("fixed regime requires an indexed reference system, %q has no indexing table",
						d.ReferenceSystemTag),
				}
			}
		}
	}

	for _, m := range st.Measurements {
		if m.ID == "" || m.DataType == "" {
			return &ConflictingDefinitionError{
				Entity: "storage type",
				Tag:    st.Name,
				Detail: "measurement binding missing id or datatype",
			}
		}
	}
	return nil
}
