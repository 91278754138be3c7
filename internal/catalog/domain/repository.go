package domain

// RegistryRepository persists dimensions, domains, and reference systems.
// Implementations may use SQLite, in-memory storage, or other backends.
type RegistryRepository interface {
	// SaveDimension inserts a dimension and assigns its ID.
	SaveDimension(d *Dimension) error

	// FindDimensionByTag returns NotFoundError when the tag is unknown.
	FindDimensionByTag(tag string) (*Dimension, error)

	// ListDimensions returns all dimensions ordered by tag.
	ListDimensions() ([]*Dimension, error)

	// SaveDomain inserts a domain with its dimension memberships.
	SaveDomain(d *Domain) error

	// FindDomainByTag returns NotFoundError when the tag is unknown.
	FindDomainByTag(tag string) (*Domain, error)

	// ListDomains returns all domains ordered by tag.
	ListDomains() ([]*Domain, error)

	// SaveReferenceSystem inserts a reference system with its indexing table.
	SaveReferenceSystem(rs *ReferenceSystem) error

	// FindReferenceSystemByTag returns NotFoundError when the tag is unknown.
	FindReferenceSystemByTag(tag string) (*ReferenceSystem, error)

	// ListReferenceSystems returns all reference systems ordered by tag.
	ListReferenceSystems() ([]*ReferenceSystem, error)

	// DimensionReferencedBy returns the name of a dataset or storage type
	// referencing the dimension, or "" when unreferenced.
	DimensionReferencedBy(tag string) (string, error)

	// ReferenceSystemReferencedBy returns the name of a dataset or storage
	// type referencing the reference system, or "" when unreferenced.
	ReferenceSystemReferencedBy(tag string) (string, error)

	// DeleteDimension removes an unreferenced dimension. The service layer
	// enforces the reference guard before calling this.
	DeleteDimension(tag string) error

	// DeleteReferenceSystem removes an unreferenced reference system.
	DeleteReferenceSystem(tag string) error
}

// TypeRepository persists dataset types and storage types.
type TypeRepository interface {
	SaveDatasetType(dt *DatasetType) error
	FindDatasetTypeByName(name string) (*DatasetType, error)
	ListDatasetTypes() ([]*DatasetType, error)

	SaveStorageType(st *StorageType) error
	FindStorageTypeByName(name string) (*StorageType, error)
	ListStorageTypes() ([]*StorageType, error)

	// StorageTypesForDatasetType returns the storage types deriving from the
	// named dataset type, the set the ingest fan-out walks.
	StorageTypesForDatasetType(name string) ([]*StorageType, error)
}

// DatasetRepository persists dataset records.
type DatasetRepository interface {
	// Save inserts a dataset and assigns its ID. Datasets are never updated.
	Save(ds *Dataset) error

	// FindByGUID returns NotFoundError when the GUID is unknown.
	FindByGUID(guid string) (*Dataset, error)

	// List returns datasets matching the filter, newest first.
	List(filter DatasetFilter) ([]*Dataset, error)

	// Delete removes a dataset record and its storage unit associations.
	// Storage unit extents and footprints are not shrunk; they are
	// recomputed lazily on the next update.
	Delete(guid string) error
}

// StorageUnitRepository persists storage units and their dataset
// associations.
type StorageUnitRepository interface {
	// FindByTileKey looks up the current (version 0) unit for a tile key.
	// Returns NotFoundError when no unit exists for the key.
	FindByTileKey(typeName, tileKey string) (*StorageUnit, error)

	// FindOverlapping returns current units of the type whose range along
	// the dimension strictly overlaps (min, max). Touching boundaries do
	// not count as overlap.
	FindOverlapping(typeName, dimensionTag string, min, max float64) ([]*StorageUnit, error)

	// Apply atomically persists a unit and links a dataset to it in one
	// transaction. New units (ID == 0) are inserted; existing units are
	// updated with a compare-and-swap on expectedRowVersion, returning
	// ErrVersionConflict when another writer got there first.
	Apply(su *StorageUnit, datasetID int64, expectedRowVersion int64) error

	// FindByGUID returns NotFoundError when the GUID is unknown.
	FindByGUID(guid string) (*StorageUnit, error)

	// ListByType returns current units of a type ordered by tile key.
	ListByType(typeName string) ([]*StorageUnit, error)

	// ListByDimensionRange returns current units of a type whose coverage
	// along the dimension intersects [min, max].
	ListByDimensionRange(typeName, dimensionTag string, min, max float64) ([]*StorageUnit, error)

	// UnitsForDataset returns the GUIDs of units a dataset contributes to.
	UnitsForDataset(datasetID int64) ([]string, error)
}
