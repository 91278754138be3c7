package indexing

import "math"

// Overlaps reports whether two ranges strictly overlap. A shared boundary
// coordinate is not overlap: [a, b] and [b, c] are adjacent, not overlapping.
func Overlaps(aMin, aMax, bMin, bMax float64) bool {
	return aMin < bMax && bMin < aMax
}

// TouchesOrOverlaps reports whether two ranges overlap or share a boundary.
// Touching ranges on an irregular axis merge into one storage unit rather
// than coexisting.
func TouchesOrOverlaps(aMin, aMax, bMin, bMax float64) bool {
	return aMin <= bMax && bMin <= aMax
}

// CanonicalIndex derives the opaque sort key for a new irregular tile from
// the lower bound of its range, e.g. a period start timestamp. The key is
// only used for ordering and lookup; range containment is always decided on
// the explicit min/max.
func CanonicalIndex(min float64) int64 {
	return int64(math.Floor(min))
}
