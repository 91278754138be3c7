package domain

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Footprint is the spatial outline of a dataset or storage unit, stored as
// GeoJSON in the catalog. Unions accumulate into a multi-polygon; precise
// polygon dissolve is left to the query layer, the catalog only guarantees
// the footprint covers every contributing geometry.
type Footprint struct {
	geometry orb.Geometry
}

// NewFootprint wraps a polygon as a footprint.
func NewFootprint(poly orb.Polygon) Footprint {
	return Footprint{geometry: poly}
}

// FootprintFromBound builds a rectangular footprint from a bounding box.
func FootprintFromBound(b orb.Bound) Footprint {
	return Footprint{geometry: b.ToPolygon()}
}

// FootprintFromGeoJSON parses a GeoJSON geometry document.
func FootprintFromGeoJSON(data []byte) (Footprint, error) {
	if len(data) == 0 {
		return Footprint{}, nil
	}
	geom, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return Footprint{}, fmt.Errorf("parse footprint geojson: %w", err)
	}
	switch geom.Geometry().(type) {
	case orb.Polygon, orb.MultiPolygon:
		return Footprint{geometry: geom.Geometry()}, nil
	default:
		return Footprint{}, fmt.Errorf("footprint must be a Polygon or MultiPolygon, got %s", geom.Type)
	}
}

// IsZero reports whether the footprint carries no geometry.
func (f Footprint) IsZero() bool {
	return f.geometry == nil
}

// Geometry returns the underlying orb geometry, or nil.
func (f Footprint) Geometry() orb.Geometry {
	return f.geometry
}

// Bound returns the bounding box of the footprint.
func (f Footprint) Bound() orb.Bound {
	if f.geometry == nil {
		return orb.Bound{}
	}
	return f.geometry.Bound()
}

// Area returns the planar area of the footprint in squared axis units.
func (f Footprint) Area() float64 {
	switch g := f.geometry.(type) {
	case orb.Polygon:
		return planar.Area(g)
	case orb.MultiPolygon:
		return planar.Area(g)
	default:
		return 0
	}
}

// Union combines two footprints into one covering both.
func (f Footprint) Union(other Footprint) Footprint {
	if f.geometry == nil {
		return other
	}
	if other.geometry == nil {
		return f
	}
	var mp orb.MultiPolygon
	mp = appendPolygons(mp, f.geometry)
	mp = appendPolygons(mp, other.geometry)
	return Footprint{geometry: mp}
}

func appendPolygons(mp orb.MultiPolygon, g orb.Geometry) orb.MultiPolygon {
	switch geom := g.(type) {
	case orb.Polygon:
		return append(mp, geom)
	case orb.MultiPolygon:
		return append(mp, geom...)
	default:
		return mp
	}
}

// MarshalGeoJSON serializes the footprint as a GeoJSON geometry document.
// A zero footprint marshals to nil.
func (f Footprint) MarshalGeoJSON() ([]byte, error) {
	if f.geometry == nil {
		return nil, nil
	}
	data, err := geojson.NewGeometry(f.geometry).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal footprint geojson: %w", err)
	}
	return data, nil
}

// Intersects reports whether the bounding boxes of two footprints intersect.
func (f Footprint) Intersects(other Footprint) bool {
	if f.geometry == nil || other.geometry == nil {
		return false
	}
	return f.Bound().Intersects(other.Bound())
}
