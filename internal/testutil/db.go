// Package testutil provides catalog setup helpers for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridcat/gridcat/internal/cachemanager"
	"github.com/gridcat/gridcat/internal/catalog/application"
	"github.com/gridcat/gridcat/internal/catalog/domain"
	"github.com/gridcat/gridcat/internal/infrastructure/sqlite"
	"github.com/gridcat/gridcat/internal/pubsub"
)

// MemoryCatalogDB creates a migrated in-memory catalog database.
func MemoryCatalogDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.NewDB(":memory:")
	require.NoError(t, err, "failed to create in-memory catalog database")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TempCatalogDB creates a migrated file-backed catalog database in a temp
// directory and returns it with its path. Use this when the code under test
// needs a real database file (CLI commands, the watcher).
func TempCatalogDB(t *testing.T) (*sqlite.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sqlite.NewDB(path)
	require.NoError(t, err, "failed to create catalog database at %s", path)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

// Services wires the full service stack over the given database.
func Services(t *testing.T, db *sqlite.DB) (*application.RegistryService, *application.TypeService, *application.IngestService) {
	t.Helper()
	cache := cachemanager.NewInMemoryCacheManager[string, *domain.ReferenceSystem](
		"refsystems", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	broker := pubsub.NewBroker[pubsub.CatalogChange]()
	t.Cleanup(broker.Close)

	registry := application.NewRegistryService(db.RegistryRepository(), cache, broker)
	types := application.NewTypeService(db.TypeRepository(), registry, broker)
	ingest := application.NewIngestService(registry, types, db.DatasetRepository(), db.StorageUnitRepository(), broker, nil)
	return registry, types, ingest
}
