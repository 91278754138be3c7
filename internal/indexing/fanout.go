package indexing

import (
	"fmt"
	"math"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// AxisTiles is the fan-out of a dataset extent along one storage dimension:
// every candidate tile coordinate the extent intersects. Fan-out is computed
// dimension by dimension so total work stays linear in the sum of tiles per
// axis; only the final cross product materializes tuples.
type AxisTiles struct {
	Dim    domain.StorageDimension
	Coords []domain.StorageCoordinate
}

// AxisFanOut computes the candidate tile coordinates along one axis.
//
// Regular: one coordinate per intersected lattice tile, with min/max clipped
// to the tile boundary. Fixed: one coordinate per array index covered by the
// extent, resolved through the indexing table. Irregular: a single candidate
// carrying the raw extent and its canonical index; the ingest layer resolves
// it against existing units.
func AxisFanOut(dim domain.StorageDimension, ext domain.DimensionExtent, table *Table) (AxisTiles, error) {
	switch dim.Regime {
	case domain.RegimeRegular:
		return regularFanOut(dim, ext)
	case domain.RegimeFixed:
		return fixedFanOut(dim, ext, table)
	case domain.RegimeIrregular:
		min, max := ext.Min, ext.Max
		if ext.IndexValue != nil {
			// Irregular axes may carry an explicit indexing value; it
			// overrides the derived canonical key.
			return AxisTiles{Dim: dim, Coords: []domain.StorageCoordinate{{
				DimensionTag: dim.DimensionTag,
				TileIndex:    int64(*ext.IndexValue),
				Min:          min,
				Max:          max,
			}}}, nil
		}
		return AxisTiles{Dim: dim, Coords: []domain.StorageCoordinate{{
			DimensionTag: dim.DimensionTag,
			TileIndex:    CanonicalIndex(min),
			Min:          min,
			Max:          max,
		}}}, nil
	default:
		return AxisTiles{}, &domain.DimensionConsistencyError{
			DimensionTag: dim.DimensionTag,
			Detail:       fmt.Sprintf("unknown regime %q", dim.Regime),
		}
	}
}

func regularFanOut(dim domain.StorageDimension, ext domain.DimensionExtent) (AxisTiles, error) {
	indices, err := TileRange(&dim, ext.Min, ext.Max)
	if err != nil {
		return AxisTiles{}, err
	}
	coords := make([]domain.StorageCoordinate, 0, len(indices))
	for _, i := range indices {
		tileMin, tileMax := TileBounds(&dim, i)
		coords = append(coords, domain.StorageCoordinate{
			DimensionTag: dim.DimensionTag,
			TileIndex:    i,
			Min:          math.Max(tileMin, ext.Min),
			Max:          math.Min(tileMax, ext.Max),
		})
	}
	return AxisTiles{Dim: dim, Coords: coords}, nil
}

func fixedFanOut(dim domain.StorageDimension, ext domain.DimensionExtent, table *Table) (AxisTiles, error) {
	if table == nil {
		return AxisTiles{}, &domain.DimensionConsistencyError{
			DimensionTag: dim.DimensionTag,
			Detail:       "fixed regime requires a loaded indexing table",
		}
	}
	lo := int(ext.Min)
	hi := int(ext.Max)
	if lo > hi || lo < 0 || hi >= table.Len() {
		return AxisTiles{}, &domain.OutOfDomainCoordinateError{
			DimensionTag: dim.DimensionTag,
			Value:        fmt.Sprintf("array index range [%d, %d] of table length %d", lo, hi, table.Len()),
		}
	}
	coords := make([]domain.StorageCoordinate, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		coords = append(coords, domain.StorageCoordinate{
			DimensionTag: dim.DimensionTag,
			TileIndex:    int64(i),
			Min:          float64(i),
			Max:          float64(i),
		})
	}
	return AxisTiles{Dim: dim, Coords: coords}, nil
}

// CrossProduct materializes the tile tuples from the per-axis fan-outs.
// The tuple count is the product of per-axis candidate counts; in practice
// datasets intersect only a handful of tiles per axis.
func CrossProduct(axes []AxisTiles) [][]domain.StorageCoordinate {
	if len(axes) == 0 {
		return nil
	}
	total := 1
	for _, a := range axes {
		total *= len(a.Coords)
	}
	if total == 0 {
		return nil
	}

	tuples := make([][]domain.StorageCoordinate, 0, total)
	current := make([]domain.StorageCoordinate, len(axes))

	var walk func(axis int)
	walk = func(axis int) {
		if axis == len(axes) {
			tuple := make([]domain.StorageCoordinate, len(current))
			copy(tuple, current)
			tuples = append(tuples, tuple)
			return
		}
		for _, c := range axes[axis].Coords {
			current[axis] = c
			walk(axis + 1)
		}
	}
	walk(0)
	return tuples
}
