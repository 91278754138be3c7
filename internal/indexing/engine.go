// Package indexing maps between coordinate space and tile-index space for the
// three tiling regimes (regular, irregular, fixed) and computes the tile
// fan-out of a dataset extent.
package indexing

import (
	"fmt"
	"math"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// TileOf resolves a coordinate to a tile index along a regular axis.
// Ascending axes use floor((c - origin) / extent); descending axes apply the
// same formula to the sign-flipped coordinate so indexing direction always
// matches storage direction.
func TileOf(dim *domain.StorageDimension, c float64) (int64, error) {
	if dim.Regime != domain.RegimeRegular {
		return 0, &domain.DimensionConsistencyError{
			DimensionTag: dim.DimensionTag,
			Detail:       fmt.Sprintf("TileOf called on %s regime", dim.Regime),
		}
	}
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0, &domain.OutOfDomainCoordinateError{
			DimensionTag: dim.DimensionTag,
			Value:        fmt.Sprintf("%v", c),
		}
	}
	if dim.Direction == domain.Descending {
		return int64(math.Floor((dim.Origin - c) / dim.Extent)), nil
	}
	return int64(math.Floor((c - dim.Origin) / dim.Extent)), nil
}

// TileBounds returns the coordinate boundary of tile i along a regular axis.
// Ascending tiles cover [min, max); descending tiles cover (min, max], so the
// half-open side flips with the axis direction. Adjacent tiles always share
// exactly one boundary coordinate.
func TileBounds(dim *domain.StorageDimension, i int64) (min, max float64) {
	if dim.Direction == domain.Descending {
		max = dim.Origin - float64(i)*dim.Extent
		min = dim.Origin - float64(i+1)*dim.Extent
		return min, max
	}
	min = dim.Origin + float64(i)*dim.Extent
	max = dim.Origin + float64(i+1)*dim.Extent
	return min, max
}

// TileRange returns every tile index whose boundary intersects [min, max]
// along a regular axis, in ascending index order. An extent endpoint that
// falls exactly on the open side of a tile boundary does not pull in the
// neighbouring tile.
func TileRange(dim *domain.StorageDimension, min, max float64) ([]int64, error) {
	if min > max {
		return nil, &domain.OutOfDomainCoordinateError{
			DimensionTag: dim.DimensionTag,
			Value:        fmt.Sprintf("inverted extent [%v, %v]", min, max),
		}
	}

	var lo, hi int64
	var err error
	if dim.Direction == domain.Descending {
		// Tile indices increase as coordinates decrease.
		lo, err = TileOf(dim, max)
		if err != nil {
			return nil, err
		}
		hi, err = TileOf(dim, min)
		if err != nil {
			return nil, err
		}
		// min exactly on a boundary belongs to the tile above it.
		if min < max && onBoundary(dim, min) {
			hi--
		}
	} else {
		lo, err = TileOf(dim, min)
		if err != nil {
			return nil, err
		}
		hi, err = TileOf(dim, max)
		if err != nil {
			return nil, err
		}
		// max exactly on a boundary belongs to the tile above it.
		if min < max && onBoundary(dim, max) {
			hi--
		}
	}

	indices := make([]int64, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		indices = append(indices, i)
	}
	return indices, nil
}

// onBoundary reports whether c sits exactly on a tile boundary.
func onBoundary(dim *domain.StorageDimension, c float64) bool {
	offset := (c - dim.Origin) / dim.Extent
	if dim.Direction == domain.Descending {
		offset = (dim.Origin - c) / dim.Extent
	}
	return offset == math.Trunc(offset)
}

// ValidateResolution checks that a caller-supplied resolution is consistent
// with the tile geometry: elements * resolution must equal extent within one
// part in a million. A mismatch means the raster inside the tile would not
// line up with the tile boundary, which is never silently tolerated.
func ValidateResolution(st *domain.StorageType, dimensionTag string, resolution float64) error {
	dim := st.Dimension(dimensionTag)
	if dim == nil {
		return &domain.NotFoundError{Entity: "storage dimension", Key: dimensionTag}
	}
	if dim.Regime != domain.RegimeRegular {
		return &domain.DimensionConsistencyError{
			StorageTypeName: st.Name,
			DimensionTag:    dimensionTag,
			Detail:          "resolution is only meaningful for the regular regime",
		}
	}
	if resolution <= 0 {
		return &domain.DimensionConsistencyError{
			StorageTypeName: st.Name,
			DimensionTag:    dimensionTag,
			Detail:          "resolution must be positive",
		}
	}
	expected := dim.Extent / float64(dim.Elements)
	if math.Abs(expected-resolution) > expected*1e-6 {
		return &domain.DimensionConsistencyError{
			StorageTypeName: st.Name,
			DimensionTag:    dimensionTag,
			Detail: fmt.Sprintf("resolution %v is inconsistent with extent %v / elements %d",
				resolution, dim.Extent, dim.Elements),
		}
	}
	return nil
}
