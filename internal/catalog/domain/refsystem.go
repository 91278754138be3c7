package domain

import "time"

// ReferenceSystem defines the coordinate or unit system for values along a
// dimension: a geographic CRS, a "seconds since epoch" temporal system, or a
// discrete band-index system. Identity is by Tag.
type ReferenceSystem struct {
	ID        int64
	Name      string
	Unit      string
	Definition string // CRS WKT, units string, or similar textual definition
	Tag       string
	CreatedAt time.Time

	// Indexing is the ordered lookup table for discrete ("indexed") systems.
	// Empty for continuous systems.
	Indexing []IndexingEntry
}

// IndexingEntry maps an integer array position to a semantic measurement
// identity, e.g. (0, "blue", "band_1").
type IndexingEntry struct {
	ArrayIndex    int
	Label         string
	MeasurementID string
}

// IsIndexed reports whether the reference system owns an indexing table.
func (rs *ReferenceSystem) IsIndexed() bool {
	return len(rs.Indexing) > 0
}

// ValidateIndexing checks the indexing table is dense, zero-based, and free of
// duplicate positions or labels. Gaps would break O(1) position lookup, so a
// malformed table is rejected at registration time rather than tolerated.
func (rs *ReferenceSystem) ValidateIndexing() error {
	if len(rs.Indexing) == 0 {
		return nil
	}

	seenLabels := make(map[string]bool, len(rs.Indexing))
	seenIndexes := make(map[int]bool, len(rs.Indexing))
	maxIndex := -1
	for _, entry := range rs.Indexing {
		if entry.ArrayIndex < 0 {
			return &MalformedIndexingTableError{
				ReferenceSystemTag: rs.Tag,
				Detail:             "negative array index",
			}
		}
		if entry.Label == "" {
			return &MalformedIndexingTableError{
				ReferenceSystemTag: rs.Tag,
				Detail:             "empty label",
			}
		}
		if seenIndexes[entry.ArrayIndex] {
			return &MalformedIndexingTableError{
				ReferenceSystemTag: rs.Tag,
				Detail:             "duplicate array index",
			}
		}
		if seenLabels[entry.Label] {
			return &MalformedIndexingTableError{
				ReferenceSystemTag: rs.Tag,
				Detail:             "duplicate label " + entry.Label,
			}
		}
		seenIndexes[entry.ArrayIndex] = true
		seenLabels[entry.Label] = true
		if entry.ArrayIndex > maxIndex {
			maxIndex = entry.ArrayIndex
		}
	}

	// Dense and zero-based: indexes must be exactly 0..len-1.
	if maxIndex != len(rs.Indexing)-1 {
		return &MalformedIndexingTableError{
			ReferenceSystemTag: rs.Tag,
			Detail:             "gap in array indexes",
		}
	}
	return nil
}

// SameDefinition reports whether another registration carries identical
// attributes, which makes re-registration a no-op.
func (rs *ReferenceSystem) SameDefinition(other *ReferenceSystem) bool {
	if rs.Name != other.Name || rs.Unit != other.Unit || rs.Definition != other.Definition {
		return false
	}
	if len(rs.Indexing) != len(other.Indexing) {
		return false
	}
	for i, entry := range rs.Indexing {
		if entry != other.Indexing[i] {
			return false
		}
	}
	return true
}
