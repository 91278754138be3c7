package sqlite

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// setupStorageUnitRepo prepares a database with the type chain registered so
// storage unit inserts pass the foreign key checks.
func setupStorageUnitRepo(t *testing.T) (*DB, domain.StorageUnitRepository) {
	t.Helper()
	db := setupTestDB(t)
	require.NoError(t, db.TypeRepository().SaveDatasetType(testDatasetType("level1-scene")))
	require.NoError(t, db.TypeRepository().SaveStorageType(testStorageType("tiled-annual", "level1-scene")))
	return db, db.StorageUnitRepository()
}

func testStorageUnit(typeName string, lonIdx, latIdx int64) *domain.StorageUnit {
	return &domain.StorageUnit{
		GUID:     uuid.NewString(),
		TypeName: typeName,
		Location: "/data/tiles/placeholder.nc",
		Coords: []domain.StorageCoordinate{
			{DimensionTag: "longitude", TileIndex: lonIdx, Min: 110.0 + float64(lonIdx), Max: 111.0 + float64(lonIdx)},
			{DimensionTag: "latitude", TileIndex: latIdx, Min: -11.0 - float64(latIdx), Max: -10.0 - float64(latIdx)},
			{DimensionTag: "time", TileIndex: 1262304000, Min: 1262304000, Max: 1262307600},
		},
	}
}

func insertDataset(t *testing.T, db *DB) *domain.Dataset {
	t.Helper()
	ds := testDataset("level1-scene")
	require.NoError(t, db.DatasetRepository().Save(ds))
	return ds
}

func TestStorageUnitRepository_Apply_Insert(t *testing.T) {
	db, repo := setupStorageUnitRepo(t)
	ds := insertDataset(t, db)

	su := testStorageUnit("tiled-annual", 0, 25)
	err := repo.Apply(su, ds.ID, 0)
	require.NoError(t, err, "Apply should insert a new unit")
	require.Greater(t, su.ID, int64(0))
	require.Equal(t, int64(1), su.RowVersion)

	found, err := repo.FindByTileKey("tiled-annual", su.TileKey())
	require.NoError(t, err)
	require.Equal(t, su.GUID, found.GUID)
	require.Len(t, found.Coords, 3)
	require.Equal(t, []int64{ds.ID}, found.DatasetIDs)
}

func TestStorageUnitRepository_FindByTileKey_NotFound(t *testing.T) {
	_, repo := setupStorageUnitRepo(t)

	_, err := repo.FindByTileKey("tiled-annual", "latitude:0/longitude:0")
	require.True(t, domain.IsNotFound(err), "Error should be NotFoundError")
}

func TestStorageUnitRepository_Apply_CASUpdate(t *testing.T) {
	db, repo := setupStorageUnitRepo(t)
	ds1 := insertDataset(t, db)
	ds2 := insertDataset(t, db)

	su := testStorageUnit("tiled-annual", 0, 25)
	require.NoError(t, repo.Apply(su, ds1.ID, 0))

	// Extend the time coverage and add a second contributor.
	su.ExtendCoord("time", 1262304000, 1262400000)
	err := repo.Apply(su, ds2.ID, su.RowVersion)
	require.NoError(t, err, "CAS update with the current row version should succeed")
	require.Equal(t, int64(2), su.RowVersion)

	found, err := repo.FindByTileKey("tiled-annual", su.TileKey())
	require.NoError(t, err)
	require.Equal(t, int64(2), found.RowVersion)
	require.Equal(t, []int64{ds1.ID, ds2.ID}, found.DatasetIDs)
	require.Equal(t, 1262400000.0, found.Coord("time").Max, "Extended coverage should persist")
}

func TestStorageUnitRepository_Apply_StaleRowVersion(t *testing.T) {
	db, repo := setupStorageUnitRepo(t)
	ds := insertDataset(t, db)

	su := testStorageUnit("tiled-annual", 0, 25)
	require.NoError(t, repo.Apply(su, ds.ID, 0))

	// A second writer moves the row version.
	other, err := repo.FindByTileKey("tiled-annual", su.TileKey())
	require.NoError(t, err)
	require.NoError(t, repo.Apply(other, ds.ID, other.RowVersion))

	// The first writer's snapshot is now stale.
	err = repo.Apply(su, ds.ID, 1)
	require.True(t, errors.Is(err, domain.ErrVersionConflict), "Stale CAS should report ErrVersionConflict")
}

func TestStorageUnitRepository_Apply_ConcurrentInsertSameTile(t *testing.T) {
	db, repo := setupStorageUnitRepo(t)
	ds := insertDataset(t, db)

	first := testStorageUnit("tiled-annual", 0, 25)
	require.NoError(t, repo.Apply(first, ds.ID, 0))

	// Another writer races to create the same tile.
	second := testStorageUnit("tiled-annual", 0, 25)
	err := repo.Apply(second, ds.ID, 0)
	require.True(t, errors.Is(err, domain.ErrVersionConflict),
		"Insert racing an existing tile key should surface as a version conflict")
}

func TestStorageUnitRepository_Apply_LinkIsIdempotent(t *testing.T) {
	db, repo := setupStorageUnitRepo(t)
	ds := insertDataset(t, db)

	su := testStorageUnit("tiled-annual", 0, 25)
	require.NoError(t, repo.Apply(su, ds.ID, 0))
	require.NoError(t, repo.Apply(su, ds.ID, su.RowVersion))

	found, err := repo.FindByTileKey("tiled-annual", su.TileKey())
	require.NoError(t, err)
	require.Equal(t, []int64{ds.ID}, found.DatasetIDs, "Relinking the same dataset should not duplicate the association")
}

func TestStorageUnitRepository_Apply_RejectsOverlappingRange(t *testing.T) {
	db, repo := setupStorageUnitRepo(t)
	ds := insertDataset(t, db)

	first := testStorageUnit("tiled-annual", 0, 25)
	require.NoError(t, repo.Apply(first, ds.ID, 0))

	// A writer that resolved a distinct canonical time index for the same
	// spatial tile, with a range strictly overlapping the first unit's.
	second := testStorageUnit("tiled-annual", 0, 25)
	second.Coords[2] = domain.StorageCoordinate{
		DimensionTag: "time", TileIndex: 1262305000, Min: 1262305000, Max: 1262400000,
	}
	err := repo.Apply(second, ds.ID, 0)
	var overlap *domain.TemporalOverlapError
	require.True(t, errors.As(err, &overlap), "Overlapping range must not commit")
	require.Equal(t, "time", overlap.DimensionTag)

	units, err := repo.ListByType("tiled-annual")
	require.NoError(t, err)
	require.Len(t, units, 1, "Rejected insert must roll back completely")

	// Touching at the boundary is not overlap.
	third := testStorageUnit("tiled-annual", 0, 25)
	third.Coords[2] = domain.StorageCoordinate{
		DimensionTag: "time", TileIndex: 1262307600, Min: 1262307600, Max: 1262400000,
	}
	require.NoError(t, repo.Apply(third, ds.ID, 0))

	// Same range on a different spatial tile is legitimate coexistence.
	fourth := testStorageUnit("tiled-annual", 1, 25)
	fourth.Coords[2] = domain.StorageCoordinate{
		DimensionTag: "time", TileIndex: 1262305000, Min: 1262305000, Max: 1262400000,
	}
	require.NoError(t, repo.Apply(fourth, ds.ID, 0))
}

func TestStorageUnitRepository_FindOverlapping_StrictOnly(t *testing.T) {
	db, repo := setupStorageUnitRepo(t)
	ds := insertDataset(t, db)

	su := testStorageUnit("tiled-annual", 0, 25)
	require.NoError(t, repo.Apply(su, ds.ID, 0))

	// Strict overlap with the unit's time range [1262304000, 1262307600].
	units, err := repo.FindOverlapping("tiled-annual", "time", 1262305000, 1262400000)
	require.NoError(t, err)
	require.Len(t, units, 1)
	require.Equal(t, su.GUID, units[0].GUID)

	// Touching at the boundary is not overlap.
	units, err = repo.FindOverlapping("tiled-annual", "time", 1262307600, 1262400000)
	require.NoError(t, err)
	require.Empty(t, units, "Shared boundary should not count as overlap")

	// Disjoint.
	units, err = repo.FindOverlapping("tiled-annual", "time", 1262400000, 1262500000)
	require.NoError(t, err)
	require.Empty(t, units)
}

func TestStorageUnitRepository_ListByDimensionRange_Inclusive(t *testing.T) {
	db, repo := setupStorageUnitRepo(t)
	ds := insertDataset(t, db)

	su := testStorageUnit("tiled-annual", 0, 25)
	require.NoError(t, repo.Apply(su, ds.ID, 0))

	// Touching at the boundary counts for the inclusive listing.
	units, err := repo.ListByDimensionRange("tiled-annual", "time", 1262307600, 1262400000)
	require.NoError(t, err)
	require.Len(t, units, 1)
}

func TestStorageUnitRepository_ListByType_OrderedByTileKey(t *testing.T) {
	db, repo := setupStorageUnitRepo(t)
	ds := insertDataset(t, db)

	require.NoError(t, repo.Apply(testStorageUnit("tiled-annual", 1, 25), ds.ID, 0))
	require.NoError(t, repo.Apply(testStorageUnit("tiled-annual", 0, 25), ds.ID, 0))

	units, err := repo.ListByType("tiled-annual")
	require.NoError(t, err)
	require.Len(t, units, 2)
	require.Equal(t, int64(0), units[0].Coord("longitude").TileIndex)
	require.Equal(t, int64(1), units[1].Coord("longitude").TileIndex)
}

func TestStorageUnitRepository_UnitsForDataset(t *testing.T) {
	db, repo := setupStorageUnitRepo(t)
	ds := insertDataset(t, db)

	a := testStorageUnit("tiled-annual", 0, 25)
	b := testStorageUnit("tiled-annual", 1, 25)
	require.NoError(t, repo.Apply(a, ds.ID, 0))
	require.NoError(t, repo.Apply(b, ds.ID, 0))

	guids, err := repo.UnitsForDataset(ds.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{a.GUID, b.GUID}, guids)
}

func TestStorageUnitRepository_DatasetDelete_RemovesAssociation(t *testing.T) {
	db, repo := setupStorageUnitRepo(t)
	ds := insertDataset(t, db)

	su := testStorageUnit("tiled-annual", 0, 25)
	require.NoError(t, repo.Apply(su, ds.ID, 0))
	require.NoError(t, db.DatasetRepository().Delete(ds.GUID))

	found, err := repo.FindByTileKey("tiled-annual", su.TileKey())
	require.NoError(t, err, "Unit should survive deletion of a contributing dataset")
	require.Empty(t, found.DatasetIDs, "Association should be removed with the dataset")
}
