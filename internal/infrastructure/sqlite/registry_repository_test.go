package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// setupTestDB creates an in-memory catalog database for repository tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRegistryRepository_SaveDimension(t *testing.T) {
	repo := setupTestDB(t).RegistryRepository()

	dim := &domain.Dimension{Name: "Longitude", Tag: "lon"}
	err := repo.SaveDimension(dim)
	require.NoError(t, err, "SaveDimension should succeed")
	require.Greater(t, dim.ID, int64(0), "Dimension should have ID assigned after insert")

	found, err := repo.FindDimensionByTag("lon")
	require.NoError(t, err)
	require.Equal(t, dim.ID, found.ID)
	require.Equal(t, "Longitude", found.Name)
	require.False(t, found.CreatedAt.IsZero())
}

func TestRegistryRepository_FindDimensionByTag_NotFound(t *testing.T) {
	repo := setupTestDB(t).RegistryRepository()

	_, err := repo.FindDimensionByTag("missing")
	require.Error(t, err)
	require.True(t, domain.IsNotFound(err), "Error should be NotFoundError")
}

func TestRegistryRepository_SaveDimension_DuplicateTag(t *testing.T) {
	repo := setupTestDB(t).RegistryRepository()

	require.NoError(t, repo.SaveDimension(&domain.Dimension{Name: "Longitude", Tag: "lon"}))
	err := repo.SaveDimension(&domain.Dimension{Name: "Other", Tag: "lon"})
	require.Error(t, err, "Second insert with the same tag should hit the UNIQUE constraint")
}

func TestRegistryRepository_ListDimensions_OrderedByTag(t *testing.T) {
	repo := setupTestDB(t).RegistryRepository()

	for _, tag := range []string{"time", "lat", "lon"} {
		require.NoError(t, repo.SaveDimension(&domain.Dimension{Name: tag, Tag: tag}))
	}

	dims, err := repo.ListDimensions()
	require.NoError(t, err)
	require.Len(t, dims, 3)
	require.Equal(t, "lat", dims[0].Tag)
	require.Equal(t, "lon", dims[1].Tag)
	require.Equal(t, "time", dims[2].Tag)
}

func TestRegistryRepository_SaveDomain_PreservesDimensionOrder(t *testing.T) {
	repo := setupTestDB(t).RegistryRepository()

	require.NoError(t, repo.SaveDimension(&domain.Dimension{Name: "Longitude", Tag: "lon"}))
	require.NoError(t, repo.SaveDimension(&domain.Dimension{Name: "Latitude", Tag: "lat"}))

	d := &domain.Domain{Name: "Geographic", Tag: "geo", DimensionTags: []string{"lon", "lat"}}
	require.NoError(t, repo.SaveDomain(d))
	require.Greater(t, d.ID, int64(0))

	found, err := repo.FindDomainByTag("geo")
	require.NoError(t, err)
	require.Equal(t, []string{"lon", "lat"}, found.DimensionTags, "Declaration order should survive round trip")
}

func TestRegistryRepository_SaveReferenceSystem_WithIndexing(t *testing.T) {
	repo := setupTestDB(t).RegistryRepository()

	rs := &domain.ReferenceSystem{
		Name: "Landsat Bands",
		Tag:  "bands",
		Indexing: []domain.IndexingEntry{
			{ArrayIndex: 0, Label: "blue", MeasurementID: "band_1"},
			{ArrayIndex: 1, Label: "green", MeasurementID: "band_2"},
			{ArrayIndex: 2, Label: "red", MeasurementID: "band_3"},
		},
	}
	require.NoError(t, repo.SaveReferenceSystem(rs))

	found, err := repo.FindReferenceSystemByTag("bands")
	require.NoError(t, err)
	require.Len(t, found.Indexing, 3)
	require.Equal(t, "green", found.Indexing[1].Label)
	require.True(t, found.IsIndexed())
}

func TestRegistryRepository_SaveReferenceSystem_NoIndexing(t *testing.T) {
	repo := setupTestDB(t).RegistryRepository()

	rs := &domain.ReferenceSystem{Name: "WGS 84", Unit: "degrees", Tag: "epsg4326"}
	require.NoError(t, repo.SaveReferenceSystem(rs))

	found, err := repo.FindReferenceSystemByTag("epsg4326")
	require.NoError(t, err)
	require.Empty(t, found.Indexing)
	require.False(t, found.IsIndexed())
}

func TestRegistryRepository_DimensionReferencedBy(t *testing.T) {
	db := setupTestDB(t)
	registry := db.RegistryRepository()
	types := db.TypeRepository()

	require.NoError(t, registry.SaveDimension(&domain.Dimension{Name: "Longitude", Tag: "lon"}))

	name, err := registry.DimensionReferencedBy("lon")
	require.NoError(t, err)
	require.Empty(t, name, "Unreferenced dimension should report no referrer")

	dt := &domain.DatasetType{
		Name: "level1",
		Dims: []domain.DatasetDimension{
			{DomainTag: "geo", DimensionTag: "lon", ReferenceSystemTag: "epsg4326", Direction: domain.Ascending},
		},
	}
	require.NoError(t, types.SaveDatasetType(dt))

	name, err = registry.DimensionReferencedBy("lon")
	require.NoError(t, err)
	require.Equal(t, "level1", name)
}

func TestRegistryRepository_DeleteDimension(t *testing.T) {
	repo := setupTestDB(t).RegistryRepository()

	require.NoError(t, repo.SaveDimension(&domain.Dimension{Name: "Longitude", Tag: "lon"}))
	require.NoError(t, repo.DeleteDimension("lon"))

	_, err := repo.FindDimensionByTag("lon")
	require.True(t, domain.IsNotFound(err))

	err = repo.DeleteDimension("lon")
	require.True(t, domain.IsNotFound(err), "Deleting twice should report not found")
}

func TestRegistryRepository_DeleteReferenceSystem_RemovesIndexing(t *testing.T) {
	db := setupTestDB(t)
	repo := db.RegistryRepository()

	rs := &domain.ReferenceSystem{
		Name: "Landsat Bands",
		Tag:  "bands",
		Indexing: []domain.IndexingEntry{
			{ArrayIndex: 0, Label: "blue", MeasurementID: "band_1"},
		},
	}
	require.NoError(t, repo.SaveReferenceSystem(rs))
	require.NoError(t, repo.DeleteReferenceSystem("bands"))

	_, err := repo.FindReferenceSystemByTag("bands")
	require.True(t, domain.IsNotFound(err))

	var count int
	err = db.Connection().QueryRow("SELECT COUNT(*) FROM reference_system_indexing").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 0, count, "Indexing entries should be removed with their reference system")
}
