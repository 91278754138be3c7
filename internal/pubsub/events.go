// Package pubsub provides a generic publish/subscribe event system.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}

// CatalogChangeKind identifies which part of the catalog changed.
type CatalogChangeKind string

const (
	ChangeRegistry    CatalogChangeKind = "registry"     // dimension/domain/reference-system mutation
	ChangeDatasetType CatalogChangeKind = "dataset_type" // dataset type defined
	ChangeStorageType CatalogChangeKind = "storage_type" // storage type defined
	ChangeDataset     CatalogChangeKind = "dataset"      // dataset registered or removed
	ChangeStorageUnit CatalogChangeKind = "storage_unit" // storage unit created or extended
)

// CatalogChange is the payload published on catalog mutations.
// Query layers subscribe to these to invalidate derived state.
type CatalogChange struct {
	Kind CatalogChangeKind

	// Key is the tag or GUID of the affected entity, depending on Kind.
	Key string

	// StorageUnitKeys lists the storage unit GUIDs touched by a dataset event.
	StorageUnitKeys []string
}
