// Package application implements the catalog use cases on top of the domain
// repositories: registry and type registration, dataset ingest with tile
// fan-out, and YAML definition loading.
package application

import (
	"context"
	"time"

	"github.com/gridcat/gridcat/internal/cachemanager"
	"github.com/gridcat/gridcat/internal/catalog/domain"
	"github.com/gridcat/gridcat/internal/log"
	"github.com/gridcat/gridcat/internal/pubsub"
)

const refSystemCacheTTL = 5 * time.Minute

// RegistryService handles dimension, domain, and reference system
// registration. Registration is idempotent by tag: re-registering an identical
// definition is a no-op, a differing definition is rejected.
type RegistryService struct {
	repo   domain.RegistryRepository
	cache  cachemanager.CacheManager[string, *domain.ReferenceSystem]
	broker *pubsub.Broker[pubsub.CatalogChange]

	refSystems *cachemanager.ReadThroughCache[string, *domain.ReferenceSystem, string]
}

// NewRegistryService creates a registry service. broker may be nil when no
// subscriber cares about catalog change events.
func NewRegistryService(
	repo domain.RegistryRepository,
	cache cachemanager.CacheManager[string, *domain.ReferenceSystem],
	broker *pubsub.Broker[pubsub.CatalogChange],
) *RegistryService {
	s := &RegistryService{repo: repo, cache: cache, broker: broker}
	s.refSystems = cachemanager.NewReadThroughCache(
		cache,
		func(_ context.Context, tag string) (*domain.ReferenceSystem, error) {
			return repo.FindReferenceSystemByTag(tag)
		},
		cache == nil,
	)
	return s
}

// RegisterDimension registers a dimension under its tag.
func (s *RegistryService) RegisterDimension(ctx context.Context, d *domain.Dimension) error {
	existing, err := s.repo.FindDimensionByTag(d.Tag)
	if err == nil {
		if existing.Name == d.Name {
			*d = *existing
			return nil
		}
		return &domain.ConflictingDefinitionError{
			Entity: "dimension",
			Tag:    d.Tag,
			Detail: "registered name " + existing.Name + " differs from " + d.Name,
		}
	}
	if !domain.IsNotFound(err) {
		return err
	}

	if err := s.repo.SaveDimension(d); err != nil {
		return err
	}
	log.Info(log.CatCatalog, "Registered dimension", "tag", d.Tag)
	s.flush(ctx, d.Tag)
	return nil
}

// RegisterDomain registers a domain and its member dimensions. Every member
// dimension must already be registered.
func (s *RegistryService) RegisterDomain(ctx context.Context, d *domain.Domain) error {
	for _, tag := range d.DimensionTags {
		if _, err := s.repo.FindDimensionByTag(tag); err != nil {
			return err
		}
	}

	existing, err := s.repo.FindDomainByTag(d.Tag)
	if err == nil {
		if sameDomain(existing, d) {
			*d = *existing
			return nil
		}
		return &domain.ConflictingDefinitionError{
			Entity: "domain",
			Tag:    d.Tag,
			Detail: "registered definition differs",
		}
	}
	if !domain.IsNotFound(err) {
		return err
	}

	if err := s.repo.SaveDomain(d); err != nil {
		return err
	}
	log.Info(log.CatCatalog, "Registered domain", "tag", d.Tag, "dimensions", len(d.DimensionTags))
	s.flush(ctx, d.Tag)
	return nil
}

// RegisterReferenceSystem registers a reference system, validating its
// indexing table when present.
func (s *RegistryService) RegisterReferenceSystem(ctx context.Context, rs *domain.ReferenceSystem) error {
	if err := rs.ValidateIndexing(); err != nil {
		return err
	}

	existing, err := s.repo.FindReferenceSystemByTag(rs.Tag)
	if err == nil {
		if existing.SameDefinition(rs) {
			*rs = *existing
			return nil
		}
		return &domain.ConflictingDefinitionError{
			Entity: "reference system",
			Tag:    rs.Tag,
			Detail: "registered definition differs",
		}
	}
	if !domain.IsNotFound(err) {
		return err
	}

	if err := s.repo.SaveReferenceSystem(rs); err != nil {
		return err
	}
	log.Info(log.CatCatalog, "Registered reference system", "tag", rs.Tag, "indexed", rs.IsIndexed())
	s.flush(ctx, rs.Tag)
	return nil
}

// DeleteDimension removes a dimension. Dimensions referenced by any type or
// domain are immutable.
func (s *RegistryService) DeleteDimension(ctx context.Context, tag string) error {
	if referrer, err := s.repo.DimensionReferencedBy(tag); err != nil {
		return err
	} else if referrer != "" {
		return &domain.ReferencedEntityImmutableError{Entity: "dimension", Tag: tag, ReferencedBy: referrer}
	}

	domains, err := s.repo.ListDomains()
	if err != nil {
		return err
	}
	for _, d := range domains {
		if d.HasDimension(tag) {
			return &domain.ReferencedEntityImmutableError{
				Entity: "dimension", Tag: tag, ReferencedBy: "domain " + d.Tag,
			}
		}
	}

	if err := s.repo.DeleteDimension(tag); err != nil {
		return err
	}
	log.Info(log.CatCatalog, "Deleted dimension", "tag", tag)
	s.flush(ctx, tag)
	return nil
}

// DeleteReferenceSystem removes a reference system. Systems referenced by any
// type are immutable.
func (s *RegistryService) DeleteReferenceSystem(ctx context.Context, tag string) error {
	if referrer, err := s.repo.ReferenceSystemReferencedBy(tag); err != nil {
		return err
	} else if referrer != "" {
		return &domain.ReferencedEntityImmutableError{Entity: "reference system", Tag: tag, ReferencedBy: referrer}
	}

	if err := s.repo.DeleteReferenceSystem(tag); err != nil {
		return err
	}
	log.Info(log.CatCatalog, "Deleted reference system", "tag", tag)
	s.flush(ctx, tag)
	return nil
}

// Dimension looks up a dimension by tag.
func (s *RegistryService) Dimension(tag string) (*domain.Dimension, error) {
	return s.repo.FindDimensionByTag(tag)
}

// Domain looks up a domain by tag.
func (s *RegistryService) Domain(tag string) (*domain.Domain, error) {
	return s.repo.FindDomainByTag(tag)
}

// ReferenceSystem looks up a reference system by tag through the read-through
// cache.
func (s *RegistryService) ReferenceSystem(ctx context.Context, tag string) (*domain.ReferenceSystem, error) {
	return s.refSystems.Get(ctx, tag, tag, refSystemCacheTTL)
}

// ListDimensions returns all dimensions ordered by tag.
func (s *RegistryService) ListDimensions() ([]*domain.Dimension, error) {
	return s.repo.ListDimensions()
}

// ListDomains returns all domains ordered by tag.
func (s *RegistryService) ListDomains() ([]*domain.Domain, error) {
	return s.repo.ListDomains()
}

// ListReferenceSystems returns all reference systems ordered by tag.
func (s *RegistryService) ListReferenceSystems() ([]*domain.ReferenceSystem, error) {
	return s.repo.ListReferenceSystems()
}

// flush drops cached registry lookups and publishes the change.
func (s *RegistryService) flush(ctx context.Context, key string) {
	if s.cache != nil {
		if err := s.cache.Flush(ctx); err != nil {
			log.ErrorErr(log.CatCache, "Failed to flush registry cache", err)
		}
	}
	if s.broker != nil {
		s.broker.Publish(pubsub.UpdatedEvent, pubsub.CatalogChange{Kind: pubsub.ChangeRegistry, Key: key})
	}
}

func sameDomain(a, b *domain.Domain) bool {
	if a.Name != b.Name || len(a.DimensionTags) != len(b.DimensionTags) {
		return false
	}
	for i, tag := range a.DimensionTags {
		if b.DimensionTags[i] != tag {
			return false
		}
	}
	return true
}
