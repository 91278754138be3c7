// Package domain provides the pure domain layer for the catalog with no
// infrastructure dependencies. It defines the registry entities (dimensions,
// domains, reference systems), the type catalogs, the operational records
// (datasets, storage units), and the repository interfaces the persistence
// layer implements.
package domain

import "time"

// AxisDirection is the storage direction of values along an axis.
// It replaces the historical reverse-index boolean so that tile boundary
// computations never juggle raw sign conventions.
type AxisDirection string

const (
	// Ascending means coordinate values increase with array position.
	Ascending AxisDirection = "ascending"

	// Descending means coordinate values decrease with array position,
	// e.g. latitude increasing downward in north-up rasters.
	Descending AxisDirection = "descending"
)

// IsValid returns true if the direction is a recognized axis direction.
func (d AxisDirection) IsValid() bool {
	return d == Ascending || d == Descending
}

// Sign returns +1 for ascending axes and -1 for descending axes.
func (d AxisDirection) Sign() float64 {
	if d == Descending {
		return -1
	}
	return 1
}

// Dimension is a named axis, e.g. longitude or time.
// Identity is by Tag; a dimension is immutable once referenced by a
// dataset type or storage type.
type Dimension struct {
	ID        int64
	Name      string
	Tag       string
	CreatedAt time.Time
}

// Domain groups dimensions that are treated together, e.g. a spatial XY
// domain holding longitude and latitude. A dimension may belong to more
// than one domain.
type Domain struct {
	ID        int64
	Name      string
	Tag       string
	CreatedAt time.Time

	// DimensionTags lists member dimensions in declaration order.
	DimensionTags []string
}

// HasDimension reports whether the domain contains the given dimension tag.
func (d *Domain) HasDimension(tag string) bool {
	for _, t := range d.DimensionTags {
		if t == tag {
			return true
		}
	}
	return false
}
