package domain

import (
	"errors"
	"fmt"
)

// ErrVersionConflict signals an optimistic concurrency failure on a storage
// unit update. The ingest service retries on it; it never escapes to callers.
var ErrVersionConflict = errors.New("storage unit row version conflict")

// DuplicateTagError indicates a registration collided with an existing tag.
type DuplicateTagError struct {
	Entity string
	Tag    string
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("%s with tag %q already registered", e.Entity, e.Tag)
}

// ConflictingDefinitionError indicates a re-registration under an existing tag
// with different attributes. Identical re-registration is a no-op instead.
type ConflictingDefinitionError struct {
	Entity string
	Tag    string
	Detail string
}

func (e *ConflictingDefinitionError) Error() string {
	return fmt.Sprintf("conflicting definition for %s %q: %s", e.Entity, e.Tag, e.Detail)
}

// ReferencedEntityImmutableError indicates an attempt to delete or mutate a
// registry entry that a dataset type or storage type still references.
type ReferencedEntityImmutableError struct {
	Entity       string
	Tag          string
	ReferencedBy string
}

func (e *ReferencedEntityImmutableError) Error() string {
	return fmt.Sprintf("%s %q is referenced by %s and cannot be changed", e.Entity, e.Tag, e.ReferencedBy)
}

// DimensionConsistencyError indicates a storage type definition or a
// resolution check violated the per-regime rules.
type DimensionConsistencyError struct {
	StorageTypeName string
	DimensionTag    string
	Detail          string
}

func (e *DimensionConsistencyError) Error() string {
	if e.DimensionTag == "" {
		return fmt.Sprintf("storage type %q: %s", e.StorageTypeName, e.Detail)
	}
	return fmt.Sprintf("storage type %q dimension %q: %s", e.StorageTypeName, e.DimensionTag, e.Detail)
}

// MalformedIndexingTableError indicates a discrete reference system's lookup
// table is not a dense, zero-based, duplicate-free sequence.
type MalformedIndexingTableError struct {
	ReferenceSystemTag string
	Detail             string
}

func (e *MalformedIndexingTableError) Error() string {
	return fmt.Sprintf("reference system %q has a malformed indexing table: %s", e.ReferenceSystemTag, e.Detail)
}

// TemporalOverlapError indicates an incoming dataset would leave two storage
// units of the same type with overlapping ranges on an irregular axis. The
// caller must re-aggregate the affected tiles or reject the dataset; the
// catalog never auto-resolves it.
type TemporalOverlapError struct {
	StorageTypeName string
	DimensionTag    string
	ExistingKeys    []string
	IncomingMin     float64
	IncomingMax     float64
}

func (e *TemporalOverlapError) Error() string {
	return fmt.Sprintf("storage type %q dimension %q: incoming range [%v, %v] overlaps %d existing storage units",
		e.StorageTypeName, e.DimensionTag, e.IncomingMin, e.IncomingMax, len(e.ExistingKeys))
}

// OutOfDomainCoordinateError indicates a dataset extent value that no tile can
// represent, e.g. an unknown label on a fixed axis or a NaN coordinate.
// Values are surfaced, never silently clamped.
type OutOfDomainCoordinateError struct {
	DimensionTag string
	Value        string
}

func (e *OutOfDomainCoordinateError) Error() string {
	return fmt.Sprintf("dimension %q: coordinate %s is outside any representable tile", e.DimensionTag, e.Value)
}

// TileContentionExhaustedError indicates the optimistic retry loop on one
// storage unit ran out of attempts under concurrent contention.
type TileContentionExhaustedError struct {
	StorageTypeName string
	TileKey         string
	Attempts        int
}

func (e *TileContentionExhaustedError) Error() string {
	return fmt.Sprintf("storage type %q tile %s: contention not resolved after %d attempts",
		e.StorageTypeName, e.TileKey, e.Attempts)
}

// NotFoundError indicates a catalog entity lookup failed.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
