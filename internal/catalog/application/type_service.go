package application

import (
	"context"
	"reflect"

	"github.com/gridcat/gridcat/internal/catalog/domain"
	"github.com/gridcat/gridcat/internal/log"
	"github.com/gridcat/gridcat/internal/pubsub"
)

// TypeService handles dataset type and storage type definition. All tiling
// rules are enforced here, at definition time, so a broken type never reaches
// the indexing engine.
type TypeService struct {
	types    domain.TypeRepository
	registry *RegistryService
	broker   *pubsub.Broker[pubsub.CatalogChange]
}

// NewTypeService creates a type service.
func NewTypeService(
	types domain.TypeRepository,
	registry *RegistryService,
	broker *pubsub.Broker[pubsub.CatalogChange],
) *TypeService {
	return &TypeService{types: types, registry: registry, broker: broker}
}

// DefineDatasetType registers a dataset type. Every referenced domain,
// dimension, and reference system must already exist, and each dimension must
// belong to the domain it is declared through.
func (s *TypeService) DefineDatasetType(ctx context.Context, dt *domain.DatasetType) error {
	if err := dt.Validate(); err != nil {
		return err
	}
	for _, d := range dt.Dims {
		dom, err := s.registry.Domain(d.DomainTag)
		if err != nil {
			return err
		}
		if !dom.HasDimension(d.DimensionTag) {
			return &domain.DimensionConsistencyError{
				DimensionTag: d.DimensionTag,
				Detail:       "dimension is not a member of domain " + d.DomainTag,
			}
		}
		if _, err := s.registry.ReferenceSystem(ctx, d.ReferenceSystemTag); err != nil {
			return err
		}
	}

	existing, err := s.types.FindDatasetTypeByName(dt.Name)
	if err == nil {
		if sameDatasetType(existing, dt) {
			*dt = *existing
			return nil
		}
		return &domain.ConflictingDefinitionError{
			Entity: "dataset type",
			Tag:    dt.Name,
			Detail: "registered definition differs",
		}
	}
	if !domain.IsNotFound(err) {
		return err
	}

	if err := s.types.SaveDatasetType(dt); err != nil {
		return err
	}
	log.Info(log.CatCatalog, "Defined dataset type", "name", dt.Name,
		"dimensions", len(dt.Dims), "measurements", len(dt.Measurements))
	s.publish(pubsub.ChangeDatasetType, dt.Name)
	return nil
}

// DefineStorageType registers a storage type against its source dataset type,
// enforcing the per-regime tiling rules.
func (s *TypeService) DefineStorageType(ctx context.Context, st *domain.StorageType) error {
	source, err := s.types.FindDatasetTypeByName(st.DatasetTypeName)
	if err != nil {
		return err
	}

	refSystems := make(map[string]*domain.ReferenceSystem, len(st.Dims))
	for _, d := range st.Dims {
		dom, err := s.registry.Domain(d.DomainTag)
		if err != nil {
			return err
		}
		if !dom.HasDimension(d.DimensionTag) {
			return &domain.DimensionConsistencyError{
				StorageTypeName: st.Name,
				DimensionTag:    d.DimensionTag,
				Detail:          "dimension is not a member of domain " + d.DomainTag,
			}
		}
		rs, err := s.registry.ReferenceSystem(ctx, d.ReferenceSystemTag)
		if err != nil {
			return err
		}
		refSystems[d.ReferenceSystemTag] = rs
	}
	if err := st.Validate(source, refSystems); err != nil {
		return err
	}

	existing, err := s.types.FindStorageTypeByName(st.Name)
	if err == nil {
		if sameStorageType(existing, st) {
			*st = *existing
			return nil
		}
		return &domain.ConflictingDefinitionError{
			Entity: "storage type",
			Tag:    st.Name,
			Detail: "registered definition differs",
		}
	}
	if !domain.IsNotFound(err) {
		return err
	}

	if err := s.types.SaveStorageType(st); err != nil {
		return err
	}
	log.Info(log.CatCatalog, "Defined storage type", "name", st.Name, "source", st.DatasetTypeName)
	s.publish(pubsub.ChangeStorageType, st.Name)
	return nil
}

// DatasetType looks up a dataset type by name.
func (s *TypeService) DatasetType(name string) (*domain.DatasetType, error) {
	return s.types.FindDatasetTypeByName(name)
}

// StorageType looks up a storage type by name.
func (s *TypeService) StorageType(name string) (*domain.StorageType, error) {
	return s.types.FindStorageTypeByName(name)
}

// StorageTypesFor returns the storage types deriving from a dataset type.
func (s *TypeService) StorageTypesFor(datasetTypeName string) ([]*domain.StorageType, error) {
	return s.types.StorageTypesForDatasetType(datasetTypeName)
}

// ListDatasetTypes returns all dataset types ordered by name.
func (s *TypeService) ListDatasetTypes() ([]*domain.DatasetType, error) {
	return s.types.ListDatasetTypes()
}

// ListStorageTypes returns all storage types ordered by name.
func (s *TypeService) ListStorageTypes() ([]*domain.StorageType, error) {
	return s.types.ListStorageTypes()
}

func (s *TypeService) publish(kind pubsub.CatalogChangeKind, key string) {
	if s.broker != nil {
		s.broker.Publish(pubsub.CreatedEvent, pubsub.CatalogChange{Kind: kind, Key: key})
	}
}

func sameDatasetType(a, b *domain.DatasetType) bool {
	return a.Name == b.Name &&
		reflect.DeepEqual(a.Dims, b.Dims) &&
		reflect.DeepEqual(a.Measurements, b.Measurements)
}

func sameStorageType(a, b *domain.StorageType) bool {
	return a.Name == b.Name &&
		a.DatasetTypeName == b.DatasetTypeName &&
		reflect.DeepEqual(a.Dims, b.Dims) &&
		reflect.DeepEqual(a.Measurements, b.Measurements)
}
