package sqlite

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// setupDatasetRepo prepares a database with the level1-scene dataset type
// registered so dataset inserts pass the foreign key check.
func setupDatasetRepo(t *testing.T) (*DB, domain.DatasetRepository) {
	t.Helper()
	db := setupTestDB(t)
	require.NoError(t, db.TypeRepository().SaveDatasetType(testDatasetType("level1-scene")))
	return db, db.DatasetRepository()
}

func testDataset(typeName string) *domain.Dataset {
	canonical := 1262304000.0 // 2010-01-01T00:00:00Z
	return &domain.Dataset{
		GUID:      uuid.NewString(),
		TypeName:  typeName,
		Location:  "/data/scenes/LS8_2010-01-01.tar",
		Checksum:  "sha256:deadbeef",
		SizeBytes: 1 << 20,
		Extents: []domain.DimensionExtent{
			{DimensionTag: "longitude", Min: 110.3, Max: 111.7},
			{DimensionTag: "latitude", Min: -36.2, Max: -35.4},
			{DimensionTag: "time", Min: 1262304000, Max: 1262307600, IndexValue: &canonical},
		},
		Footprint: domain.FootprintFromBound(orb.Bound{Min: orb.Point{110.3, -36.2}, Max: orb.Point{111.7, -35.4}}),
		Metadata:  json.RawMessage(`{"platform":"LANDSAT_8"}`),
	}
}

func TestDatasetRepository_Save_RoundTrip(t *testing.T) {
	_, repo := setupDatasetRepo(t)

	ds := testDataset("level1-scene")
	require.NoError(t, repo.Save(ds))
	require.Greater(t, ds.ID, int64(0), "Dataset should have ID assigned after insert")

	found, err := repo.FindByGUID(ds.GUID)
	require.NoError(t, err)
	require.Equal(t, ds.ID, found.ID)
	require.Equal(t, ds.Location, found.Location)
	require.Equal(t, ds.Checksum, found.Checksum)
	require.Equal(t, ds.SizeBytes, found.SizeBytes)
	require.JSONEq(t, `{"platform":"LANDSAT_8"}`, string(found.Metadata))
	require.False(t, found.Footprint.IsZero(), "Footprint should survive the round trip")

	require.Len(t, found.Extents, 3)
	tm := found.Extent("time")
	require.NotNil(t, tm)
	require.NotNil(t, tm.IndexValue, "Irregular axis should keep its canonical index value")
	require.Equal(t, 1262304000.0, *tm.IndexValue)

	lon := found.Extent("longitude")
	require.NotNil(t, lon)
	require.Nil(t, lon.IndexValue, "Regular axis carries no index value")
}

func TestDatasetRepository_FindByGUID_NotFound(t *testing.T) {
	_, repo := setupDatasetRepo(t)

	_, err := repo.FindByGUID("nonexistent")
	require.True(t, domain.IsNotFound(err), "Error should be NotFoundError")
}

func TestDatasetRepository_Save_DuplicateGUID(t *testing.T) {
	_, repo := setupDatasetRepo(t)

	ds := testDataset("level1-scene")
	require.NoError(t, repo.Save(ds))

	dup := testDataset("level1-scene")
	dup.GUID = ds.GUID
	err := repo.Save(dup)
	require.Error(t, err, "Second insert with the same GUID should hit the UNIQUE constraint")
}

func TestDatasetRepository_List_ByType(t *testing.T) {
	db, repo := setupDatasetRepo(t)
	require.NoError(t, db.TypeRepository().SaveDatasetType(testDatasetType("level2-scene")))

	require.NoError(t, repo.Save(testDataset("level1-scene")))
	require.NoError(t, repo.Save(testDataset("level1-scene")))
	require.NoError(t, repo.Save(testDataset("level2-scene")))

	datasets, err := repo.List(domain.DatasetFilter{TypeName: "level1-scene"})
	require.NoError(t, err)
	require.Len(t, datasets, 2)
	for _, ds := range datasets {
		require.Equal(t, "level1-scene", ds.TypeName)
		require.Len(t, ds.Extents, 3, "Listing should hydrate extents")
	}
}

func TestDatasetRepository_List_DimensionRange(t *testing.T) {
	_, repo := setupDatasetRepo(t)

	inside := testDataset("level1-scene")
	require.NoError(t, repo.Save(inside))

	outside := testDataset("level1-scene")
	outside.Extents[0].Min = 150.0
	outside.Extents[0].Max = 151.0
	require.NoError(t, repo.Save(outside))

	datasets, err := repo.List(domain.DatasetFilter{
		DimensionTag: "longitude", Min: 110.0, Max: 112.0,
	})
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	require.Equal(t, inside.GUID, datasets[0].GUID)
}

func TestDatasetRepository_List_Limit(t *testing.T) {
	_, repo := setupDatasetRepo(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(testDataset("level1-scene")))
	}

	datasets, err := repo.List(domain.DatasetFilter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, datasets, 3)
}

func TestDatasetRepository_Delete_CascadesExtents(t *testing.T) {
	db, repo := setupDatasetRepo(t)

	ds := testDataset("level1-scene")
	require.NoError(t, repo.Save(ds))
	require.NoError(t, repo.Delete(ds.GUID))

	_, err := repo.FindByGUID(ds.GUID)
	require.True(t, domain.IsNotFound(err))

	var count int
	err = db.Connection().QueryRow("SELECT COUNT(*) FROM dataset_extents").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 0, count, "Extents should be removed with their dataset")

	err = repo.Delete(ds.GUID)
	require.True(t, domain.IsNotFound(err), "Deleting twice should report not found")
}
