package indexing

import (
	"fmt"
	"sort"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// Table is a loaded indexing table for a fixed-regime axis. Both lookup
// directions are O(1): labels and measurement identities hash to positions,
// positions index a dense slice.
type Table struct {
	refSystemTag  string
	entries       []domain.IndexingEntry
	byLabel       map[string]int
	byMeasurement map[string]int
}

// NewTable validates and indexes a reference system's indexing table.
// The reference system must be indexed; gaps or duplicates are configuration
// errors surfaced here.
func NewTable(rs *domain.ReferenceSystem) (*Table, error) {
	if !rs.IsIndexed() {
		return nil, &domain.MalformedIndexingTableError{
			ReferenceSystemTag: rs.Tag,
			Detail:             "reference system has no indexing table",
		}
	}
	if err := rs.ValidateIndexing(); err != nil {
		return nil, err
	}

	entries := make([]domain.IndexingEntry, len(rs.Indexing))
	copy(entries, rs.Indexing)
	sort.Slice(entries, func(i, j int) bool { return entries[i].ArrayIndex < entries[j].ArrayIndex })

	t := &Table{
		refSystemTag:  rs.Tag,
		entries:       entries,
		byLabel:       make(map[string]int, len(entries)),
		byMeasurement: make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		t.byLabel[e.Label] = e.ArrayIndex
		if e.MeasurementID != "" {
			t.byMeasurement[e.MeasurementID] = e.ArrayIndex
		}
	}
	return t, nil
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// IndexOfLabel resolves a label to its array index.
func (t *Table) IndexOfLabel(label string) (int, error) {
	i, ok := t.byLabel[label]
	if !ok {
		return 0, &domain.OutOfDomainCoordinateError{
			DimensionTag: t.refSystemTag,
			Value:        fmt.Sprintf("label %q", label),
		}
	}
	return i, nil
}

// IndexOfMeasurement resolves a measurement identity to its array index.
func (t *Table) IndexOfMeasurement(id string) (int, error) {
	i, ok := t.byMeasurement[id]
	if !ok {
		return 0, &domain.OutOfDomainCoordinateError{
			DimensionTag: t.refSystemTag,
			Value:        fmt.Sprintf("measurement %q", id),
		}
	}
	return i, nil
}

// LabelAt resolves an array index to its label.
func (t *Table) LabelAt(i int) (string, error) {
	if i < 0 || i >= len(t.entries) {
		return "", &domain.OutOfDomainCoordinateError{
			DimensionTag: t.refSystemTag,
			Value:        fmt.Sprintf("array index %d", i),
		}
	}
	return t.entries[i].Label, nil
}

// EntryAt resolves an array index to its full entry.
func (t *Table) EntryAt(i int) (domain.IndexingEntry, error) {
	if i < 0 || i >= len(t.entries) {
		return domain.IndexingEntry{}, &domain.OutOfDomainCoordinateError{
			DimensionTag: t.refSystemTag,
			Value:        fmt.Sprintf("array index %d", i),
		}
	}
	return t.entries[i], nil
}
