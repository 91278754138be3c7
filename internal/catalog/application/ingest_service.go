package application

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gridcat/gridcat/internal/catalog/domain"
	"github.com/gridcat/gridcat/internal/indexing"
	"github.com/gridcat/gridcat/internal/log"
	"github.com/gridcat/gridcat/internal/pubsub"
)

// defaultMaxRetries bounds the optimistic retry loop on one tile. Contention
// beyond this is surfaced as TileContentionExhaustedError rather than looping
// forever against a pathological writer.
const defaultMaxRetries = 5

// IngestService registers datasets and fans them out to storage units across
// every storage type deriving from the dataset's type.
type IngestService struct {
	registry *RegistryService
	types    *TypeService
	datasets domain.DatasetRepository
	units    domain.StorageUnitRepository
	broker   *pubsub.Broker[pubsub.CatalogChange]
	tracer   trace.Tracer

	maxRetries int
}

// NewIngestService creates an ingest service. tracer may be nil, in which case
// the global tracer provider is used.
func NewIngestService(
	registry *RegistryService,
	types *TypeService,
	datasets domain.DatasetRepository,
	units domain.StorageUnitRepository,
	broker *pubsub.Broker[pubsub.CatalogChange],
	tracer trace.Tracer,
) *IngestService {
	if tracer == nil {
		tracer = otel.Tracer("gridcat/ingest")
	}
	return &IngestService{
		registry:   registry,
		types:      types,
		datasets:   datasets,
		units:      units,
		broker:     broker,
		tracer:     tracer,
		maxRetries: defaultMaxRetries,
	}
}

// RegisterDataset registers a dataset and contributes it to every storage
// unit its extents intersect, creating units that do not exist yet.
// Re-registering a dataset with an unchanged checksum is a no-op.
func (s *IngestService) RegisterDataset(ctx context.Context, ds *domain.Dataset) error {
	ctx, span := s.tracer.Start(ctx, "ingest.register_dataset")
	defer span.End()

	if ds.GUID == "" {
		ds.GUID = uuid.NewString()
	}
	span.SetAttributes(
		attribute.String("dataset.guid", ds.GUID),
		attribute.String("dataset.type", ds.TypeName),
	)

	dt, err := s.types.DatasetType(ds.TypeName)
	if err != nil {
		return err
	}
	for _, d := range dt.Dims {
		if ds.Extent(d.DimensionTag) == nil {
			return &domain.DimensionConsistencyError{
				DimensionTag: d.DimensionTag,
				Detail:       "dataset carries no extent for a dimension its type declares",
			}
		}
	}

	existing, err := s.datasets.FindByGUID(ds.GUID)
	if err == nil {
		if existing.Checksum == ds.Checksum {
			*ds = *existing
			return nil
		}
		return &domain.DuplicateTagError{Entity: "dataset", Tag: ds.GUID}
	}
	if !domain.IsNotFound(err) {
		return err
	}

	if err := s.datasets.Save(ds); err != nil {
		return err
	}

	storageTypes, err := s.types.StorageTypesFor(ds.TypeName)
	if err != nil {
		return err
	}

	var unitGUIDs []string
	for _, st := range storageTypes {
		guids, err := s.fanOut(ctx, st, ds)
		if err != nil {
			return err
		}
		unitGUIDs = append(unitGUIDs, guids...)
	}
	span.SetAttributes(attribute.Int("ingest.storage_units", len(unitGUIDs)))

	log.Info(log.CatIngest, "Registered dataset",
		"guid", ds.GUID, "type", ds.TypeName, "units", len(unitGUIDs))
	if s.broker != nil {
		s.broker.Publish(pubsub.CreatedEvent, pubsub.CatalogChange{
			Kind:            pubsub.ChangeDataset,
			Key:             ds.GUID,
			StorageUnitKeys: unitGUIDs,
		})
	}
	return nil
}

// fanOut computes the tile tuples a dataset intersects for one storage type
// and applies the dataset's contribution to each.
func (s *IngestService) fanOut(ctx context.Context, st *domain.StorageType, ds *domain.Dataset) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.fan_out",
		trace.WithAttributes(attribute.String("storage.type", st.Name)))
	defer span.End()

	axes := make([]indexing.AxisTiles, 0, len(st.Dims))
	for _, dim := range st.Dims {
		ext := ds.Extent(dim.DimensionTag)
		if ext == nil {
			// The storage type tiles an axis the dataset type never binds,
			// e.g. a dimension reached only through a shared domain.
			return nil, &domain.DimensionConsistencyError{
				StorageTypeName: st.Name,
				DimensionTag:    dim.DimensionTag,
				Detail:          "dataset carries no extent for a storage dimension",
			}
		}

		var table *indexing.Table
		if dim.Regime == domain.RegimeFixed {
			rs, err := s.registry.ReferenceSystem(ctx, dim.ReferenceSystemTag)
			if err != nil {
				return nil, err
			}
			table, err = indexing.NewTable(rs)
			if err != nil {
				return nil, err
			}
		}

		axis, err := indexing.AxisFanOut(dim, *ext, table)
		if err != nil {
			return nil, err
		}
		axes = append(axes, axis)
	}

	tuples := indexing.CrossProduct(axes)
	span.SetAttributes(attribute.Int("ingest.tiles", len(tuples)))
	log.Debug(log.CatIndex, "Computed tile fan-out",
		"storage_type", st.Name, "dataset", ds.GUID, "tiles", len(tuples))

	guids := make([]string, 0, len(tuples))
	for _, tuple := range tuples {
		guid, err := s.applyTuple(st, ds, tuple)
		if err != nil {
			return nil, err
		}
		guids = append(guids, guid)
	}
	return guids, nil
}

// applyTuple contributes the dataset to the storage unit for one tile tuple,
// retrying on optimistic concurrency conflicts with a fresh resolution each
// attempt.
func (s *IngestService) applyTuple(st *domain.StorageType, ds *domain.Dataset, tuple []domain.StorageCoordinate) (string, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		su, expected, err := s.resolveUnit(st, tuple)
		if err != nil {
			return "", err
		}

		created := su.ID == 0
		for _, c := range tuple {
			su.ExtendCoord(c.DimensionTag, c.Min, c.Max)
		}
		su.Footprint = su.Footprint.Union(ds.Footprint)

		err = s.units.Apply(su, ds.ID, expected)
		if errors.Is(err, domain.ErrVersionConflict) {
			log.Debug(log.CatIngest, "Tile contention, retrying",
				"storage_type", st.Name, "tile", su.TileKey(), "attempt", attempt+1)
			continue
		}
		if err != nil {
			return "", err
		}

		if s.broker != nil {
			eventType := pubsub.UpdatedEvent
			if created {
				eventType = pubsub.CreatedEvent
			}
			s.broker.Publish(eventType, pubsub.CatalogChange{
				Kind: pubsub.ChangeStorageUnit,
				Key:  su.GUID,
			})
		}
		return su.GUID, nil
	}
	return "", &domain.TileContentionExhaustedError{
		StorageTypeName: st.Name,
		TileKey:         domain.TileKeyFor(tuple),
		Attempts:        s.maxRetries,
	}
}

// resolveUnit finds the storage unit a tile tuple lands in, or prepares a new
// one. On irregular axes an existing unit whose range touches or overlaps the
// incoming range absorbs it; two or more candidates mean the tuple cannot be
// resolved without re-aggregation and is rejected.
func (s *IngestService) resolveUnit(st *domain.StorageType, tuple []domain.StorageCoordinate) (*domain.StorageUnit, int64, error) {
	su, err := s.units.FindByTileKey(st.Name, domain.TileKeyFor(tuple))
	if err == nil {
		// A tile-key hit means the incoming canonical index matches an
		// existing unit, but the absorbed range may still grow into a
		// neighbour with a different key. Check the extended range before
		// committing to this unit.
		if err := s.checkIrregularExtension(st, su, tuple); err != nil {
			return nil, 0, err
		}
		return su, su.RowVersion, nil
	}
	if !domain.IsNotFound(err) {
		return nil, 0, err
	}

	for _, c := range tuple {
		dim := st.Dimension(c.DimensionTag)
		if dim == nil || dim.Regime != domain.RegimeIrregular {
			continue
		}

		neighbours, err := s.units.ListByDimensionRange(st.Name, c.DimensionTag, c.Min, c.Max)
		if err != nil {
			return nil, 0, err
		}
		matched := matchingUnits(st, tuple, c.DimensionTag, neighbours)

		if len(matched) > 1 {
			keys := make([]string, len(matched))
			for i, m := range matched {
				keys[i] = m.TileKey()
			}
			return nil, 0, &domain.TemporalOverlapError{
				StorageTypeName: st.Name,
				DimensionTag:    c.DimensionTag,
				ExistingKeys:    keys,
				IncomingMin:     c.Min,
				IncomingMax:     c.Max,
			}
		}
		if len(matched) == 1 {
			return matched[0], matched[0].RowVersion, nil
		}
	}

	coords := make([]domain.StorageCoordinate, len(tuple))
	copy(coords, tuple)
	return &domain.StorageUnit{
		GUID:     uuid.NewString(),
		TypeName: st.Name,
		Coords:   coords,
	}, 0, nil
}

// checkIrregularExtension rejects an absorption that would extend an existing
// unit's irregular range over a neighbouring unit. The check runs against the
// union of the unit's stored range and the incoming range; touching boundaries
// are not overlap.
func (s *IngestService) checkIrregularExtension(st *domain.StorageType, su *domain.StorageUnit, tuple []domain.StorageCoordinate) error {
	for _, c := range tuple {
		dim := st.Dimension(c.DimensionTag)
		if dim == nil || dim.Regime != domain.RegimeIrregular {
			continue
		}

		extMin, extMax := c.Min, c.Max
		if stored := su.Coord(c.DimensionTag); stored != nil {
			extMin = math.Min(extMin, stored.Min)
			extMax = math.Max(extMax, stored.Max)
		}

		overlapping, err := s.units.FindOverlapping(st.Name, c.DimensionTag, extMin, extMax)
		if err != nil {
			return err
		}

		keys := []string{su.TileKey()}
		for _, u := range matchingUnits(st, tuple, c.DimensionTag, overlapping) {
			if u.GUID == su.GUID {
				continue
			}
			keys = append(keys, u.TileKey())
		}
		if len(keys) > 1 {
			return &domain.TemporalOverlapError{
				StorageTypeName: st.Name,
				DimensionTag:    c.DimensionTag,
				ExistingKeys:    keys,
				IncomingMin:     c.Min,
				IncomingMax:     c.Max,
			}
		}
	}
	return nil
}

// matchingUnits filters range neighbours down to units occupying the same tile
// on every non-irregular axis of the tuple.
func matchingUnits(st *domain.StorageType, tuple []domain.StorageCoordinate, irregularTag string, units []*domain.StorageUnit) []*domain.StorageUnit {
	var matched []*domain.StorageUnit
	for _, u := range units {
		ok := true
		for _, c := range tuple {
			if c.DimensionTag == irregularTag {
				continue
			}
			uc := u.Coord(c.DimensionTag)
			if uc == nil || uc.TileIndex != c.TileIndex {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, u)
		}
	}
	return matched
}

// RemoveDataset deletes a dataset record and its storage unit associations.
// The units themselves keep their accumulated extents; shrinking is deferred
// to the next contribution.
func (s *IngestService) RemoveDataset(ctx context.Context, guid string) error {
	_, span := s.tracer.Start(ctx, "ingest.remove_dataset",
		trace.WithAttributes(attribute.String("dataset.guid", guid)))
	defer span.End()

	ds, err := s.datasets.FindByGUID(guid)
	if err != nil {
		return err
	}
	unitGUIDs, err := s.units.UnitsForDataset(ds.ID)
	if err != nil {
		return err
	}
	if err := s.datasets.Delete(guid); err != nil {
		return err
	}

	log.Info(log.CatIngest, "Removed dataset", "guid", guid, "units", len(unitGUIDs))
	if s.broker != nil {
		s.broker.Publish(pubsub.DeletedEvent, pubsub.CatalogChange{
			Kind:            pubsub.ChangeDataset,
			Key:             guid,
			StorageUnitKeys: unitGUIDs,
		})
	}
	return nil
}

// Dataset looks up a dataset by GUID.
func (s *IngestService) Dataset(guid string) (*domain.Dataset, error) {
	return s.datasets.FindByGUID(guid)
}

// ListDatasets returns datasets matching the filter, newest first.
func (s *IngestService) ListDatasets(filter domain.DatasetFilter) ([]*domain.Dataset, error) {
	return s.datasets.List(filter)
}

// StorageUnit looks up a storage unit by GUID.
func (s *IngestService) StorageUnit(guid string) (*domain.StorageUnit, error) {
	return s.units.FindByGUID(guid)
}

// StorageUnits returns the current units of a storage type ordered by tile key.
func (s *IngestService) StorageUnits(typeName string) ([]*domain.StorageUnit, error) {
	return s.units.ListByType(typeName)
}

// StorageUnitsInRange returns current units of a type whose coverage along the
// dimension intersects [min, max].
func (s *IngestService) StorageUnitsInRange(typeName, dimensionTag string, min, max float64) ([]*domain.StorageUnit, error) {
	return s.units.ListByDimensionRange(typeName, dimensionTag, min, max)
}

// UnitsForDataset returns the GUIDs of the units a dataset contributes to.
func (s *IngestService) UnitsForDataset(guid string) ([]string, error) {
	ds, err := s.datasets.FindByGUID(guid)
	if err != nil {
		return nil, err
	}
	return s.units.UnitsForDataset(ds.ID)
}
