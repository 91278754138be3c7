package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// StorageCoordinate is a storage unit's position and coverage along one
// dimension: the tile index plus the explicit min/max it covers.
type StorageCoordinate struct {
	DimensionTag string
	TileIndex    int64
	Min          float64
	Max          float64
}

// StorageUnit is one derived, tiled artifact. Its per-dimension min/max is
// always contained in the tile boundary the indexing engine computes for its
// (storage type, tile index) pair; boundaries are derived, never chosen.
type StorageUnit struct {
	ID       int64
	GUID     string
	TypeName string

	// Version is 0 for the current unit; superseded versions count up.
	Version int

	Location  string
	Checksum  string
	SizeBytes int64
	CreatedAt time.Time
	UpdatedAt time.Time

	Coords    []StorageCoordinate
	Footprint Footprint

	// DatasetIDs holds the contributing datasets. The association grows
	// monotonically; a tile is never finished.
	DatasetIDs []int64

	// RowVersion backs the optimistic compare-and-swap on concurrent
	// contributions to the same tile.
	RowVersion int64
}

// Coord returns the coordinate along the given dimension, or nil.
func (su *StorageUnit) Coord(tag string) *StorageCoordinate {
	for i := range su.Coords {
		if su.Coords[i].DimensionTag == tag {
			return &su.Coords[i]
		}
	}
	return nil
}

// TileKey is the canonical serialization of a tile index tuple, used as the
// natural key of a storage unit within its type.
func (su *StorageUnit) TileKey() string {
	return TileKeyFor(su.Coords)
}

// TileKeyFor serializes coordinates as "dim:index" pairs sorted by dimension
// tag, independent of declaration order.
func TileKeyFor(coords []StorageCoordinate) string {
	parts := make([]string, len(coords))
	sorted := make([]StorageCoordinate, len(coords))
	copy(sorted, coords)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DimensionTag < sorted[j].DimensionTag })
	for i, c := range sorted {
		parts[i] = fmt.Sprintf("%s:%d", c.DimensionTag, c.TileIndex)
	}
	return strings.Join(parts, "/")
}

// HasDataset reports whether the dataset already contributes to this unit.
func (su *StorageUnit) HasDataset(id int64) bool {
	for _, d := range su.DatasetIDs {
		if d == id {
			return true
		}
	}
	return false
}

// ExtendCoord unions the coordinate range along a dimension with the given
// extent. Returns true when the stored range changed.
func (su *StorageUnit) ExtendCoord(tag string, min, max float64) bool {
	c := su.Coord(tag)
	if c == nil {
		return false
	}
	changed := false
	if min < c.Min {
		c.Min = min
		changed = true
	}
	if max > c.Max {
		c.Max = max
		changed = true
	}
	return changed
}
