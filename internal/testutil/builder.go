package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridcat/gridcat/internal/catalog/application"
	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// Builder accumulates catalog definitions and registers them in the correct
// order: dimensions, domains, reference systems, dataset types, storage types.
type Builder struct {
	t        *testing.T
	registry *application.RegistryService
	types    *application.TypeService

	dims         []domain.Dimension
	domains      []domain.Domain
	systems      []domain.ReferenceSystem
	datasetTypes []*domain.DatasetType
	storageTypes []*domain.StorageType
}

// NewBuilder creates a builder over the given services.
func NewBuilder(t *testing.T, registry *application.RegistryService, types *application.TypeService) *Builder {
	t.Helper()
	return &Builder{t: t, registry: registry, types: types}
}

// WithDimension adds a dimension to register.
func (b *Builder) WithDimension(name, tag string) *Builder {
	b.dims = append(b.dims, domain.Dimension{Name: name, Tag: tag})
	return b
}

// WithDomain adds a domain over previously added dimensions.
func (b *Builder) WithDomain(name, tag string, dimensionTags ...string) *Builder {
	b.domains = append(b.domains, domain.Domain{Name: name, Tag: tag, DimensionTags: dimensionTags})
	return b
}

// WithReferenceSystem adds a reference system, optionally with an indexing table.
func (b *Builder) WithReferenceSystem(name, unit, tag string, indexing ...domain.IndexingEntry) *Builder {
	b.systems = append(b.systems, domain.ReferenceSystem{Name: name, Unit: unit, Tag: tag, Indexing: indexing})
	return b
}

// WithDatasetType adds a dataset type definition.
func (b *Builder) WithDatasetType(dt *domain.DatasetType) *Builder {
	b.datasetTypes = append(b.datasetTypes, dt)
	return b
}

// WithStorageType adds a storage type definition.
func (b *Builder) WithStorageType(st *domain.StorageType) *Builder {
	b.storageTypes = append(b.storageTypes, st)
	return b
}

// Build registers all accumulated definitions, failing the test on any error.
func (b *Builder) Build() {
	b.t.Helper()
	ctx := context.Background()

	for i := range b.dims {
		require.NoError(b.t, b.registry.RegisterDimension(ctx, &b.dims[i]),
			"failed to register dimension %s", b.dims[i].Tag)
	}
	for i := range b.domains {
		require.NoError(b.t, b.registry.RegisterDomain(ctx, &b.domains[i]),
			"failed to register domain %s", b.domains[i].Tag)
	}
	for i := range b.systems {
		require.NoError(b.t, b.registry.RegisterReferenceSystem(ctx, &b.systems[i]),
			"failed to register reference system %s", b.systems[i].Tag)
	}
	for _, dt := range b.datasetTypes {
		require.NoError(b.t, b.types.DefineDatasetType(ctx, dt),
			"failed to define dataset type %s", dt.Name)
	}
	for _, st := range b.storageTypes {
		require.NoError(b.t, b.types.DefineStorageType(ctx, st),
			"failed to define storage type %s", st.Name)
	}
}
