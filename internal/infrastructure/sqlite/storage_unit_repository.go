package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// storageUnitRepository implements domain.StorageUnitRepository using SQLite.
type storageUnitRepository struct {
	db *sql.DB
}

// newStorageUnitRepository creates a new storageUnitRepository instance.
func newStorageUnitRepository(db *sql.DB) *storageUnitRepository {
	return &storageUnitRepository{db: db}
}

// Ensure storageUnitRepository implements domain.StorageUnitRepository.
var _ domain.StorageUnitRepository = (*storageUnitRepository)(nil)

const storageUnitColumns = `id, guid, type_name, tile_key, version, location, checksum,
	size_bytes, row_version, footprint, created_at, updated_at`

func scanStorageUnit(row interface{ Scan(...any) error }) (*domain.StorageUnit, error) {
	var m StorageUnitModel
	err := row.Scan(&m.ID, &m.GUID, &m.TypeName, &m.TileKey, &m.Version, &m.Location,
		&m.Checksum, &m.SizeBytes, &m.RowVersion, &m.Footprint, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m.toDomain()
}

func (r *storageUnitRepository) FindByTileKey(typeName, tileKey string) (*domain.StorageUnit, error) {
	row := r.db.QueryRow(
		`SELECT `+storageUnitColumns+` FROM storage_units
		 WHERE type_name = ? AND tile_key = ? AND version = 0`, typeName, tileKey)
	su, err := scanStorageUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "storage unit", Key: typeName + "/" + tileKey}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find storage unit by tile key: %w", err)
	}
	if err := r.loadAssociations(su); err != nil {
		return nil, err
	}
	return su, nil
}

func (r *storageUnitRepository) FindByGUID(guid string) (*domain.StorageUnit, error) {
	row := r.db.QueryRow(
		`SELECT `+storageUnitColumns+` FROM storage_units WHERE guid = ?`, guid)
	su, err := scanStorageUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "storage unit", Key: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find storage unit by guid: %w", err)
	}
	if err := r.loadAssociations(su); err != nil {
		return nil, err
	}
	return su, nil
}

// loadAssociations fills a unit's coordinates and contributing dataset ids.
func (r *storageUnitRepository) loadAssociations(su *domain.StorageUnit) error {
	rows, err := r.db.Query(
		`SELECT dimension_tag, tile_index, min_value, max_value
		 FROM storage_unit_coords WHERE storage_unit_id = ? ORDER BY dimension_tag`, su.ID)
	if err != nil {
		return fmt.Errorf("failed to load storage unit coords: %w", err)
	}
	for rows.Next() {
		var c domain.StorageCoordinate
		if err := rows.Scan(&c.DimensionTag, &c.TileIndex, &c.Min, &c.Max); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan storage unit coord: %w", err)
		}
		su.Coords = append(su.Coords, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	rows, err = r.db.Query(
		`SELECT dataset_id FROM storage_unit_datasets WHERE storage_unit_id = ? ORDER BY dataset_id`, su.ID)
	if err != nil {
		return fmt.Errorf("failed to load storage unit datasets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan dataset link: %w", err)
		}
		su.DatasetIDs = append(su.DatasetIDs, id)
	}
	return rows.Err()
}

// Apply persists a unit and its dataset association atomically. New units are
// inserted with row_version 1; existing units compare-and-swap on
// expectedRowVersion and return domain.ErrVersionConflict when the stored
// version moved, so callers can reload and retry.
func (r *storageUnitRepository) Apply(su *domain.StorageUnit, datasetID int64, expectedRowVersion int64) error {
	now := time.Now()
	if su.CreatedAt.IsZero() {
		su.CreatedAt = now
	}
	su.UpdatedAt = now
	m, err := toStorageUnitModel(su)
	if err != nil {
		return fmt.Errorf("failed to encode storage unit: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin storage unit apply: %w", err)
	}

	if su.ID == 0 {
		result, err := tx.Exec(
			`INSERT INTO storage_units
			 (guid, type_name, tile_key, version, location, checksum, size_bytes, row_version, footprint, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)`,
			m.GUID, m.TypeName, m.TileKey, m.Version, m.Location, m.Checksum,
			m.SizeBytes, m.Footprint, m.CreatedAt, m.UpdatedAt,
		)
		if err != nil {
			_ = tx.Rollback()
			// A concurrent writer may have claimed the tile key between the
			// caller's lookup and this insert.
			if isUniqueViolation(err) {
				return domain.ErrVersionConflict
			}
			return fmt.Errorf("failed to insert storage unit: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		su.ID = id
		su.RowVersion = 1
	} else {
		result, err := tx.Exec(
			`UPDATE storage_units
			 SET location = ?, checksum = ?, size_bytes = ?, footprint = ?, updated_at = ?,
			     row_version = row_version + 1
			 WHERE id = ? AND row_version = ?`,
			m.Location, m.Checksum, m.SizeBytes, m.Footprint, m.UpdatedAt,
			su.ID, expectedRowVersion,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update storage unit: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			_ = tx.Rollback()
			return domain.ErrVersionConflict
		}
		su.RowVersion = expectedRowVersion + 1
	}

	for _, c := range su.Coords {
		if _, err := tx.Exec(
			`INSERT INTO storage_unit_coords (storage_unit_id, dimension_tag, tile_index, min_value, max_value)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (storage_unit_id, dimension_tag)
			 DO UPDATE SET tile_index = excluded.tile_index,
			               min_value = excluded.min_value,
			               max_value = excluded.max_value`,
			su.ID, c.DimensionTag, c.TileIndex, c.Min, c.Max,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to upsert storage unit coord %s: %w", c.DimensionTag, err)
		}
	}

	if err := guardRangeOverlap(tx, su); err != nil {
		_ = tx.Rollback()
		return err
	}

	if datasetID != 0 {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO storage_unit_datasets (storage_unit_id, dataset_id) VALUES (?, ?)`,
			su.ID, datasetID,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to link dataset to storage unit: %w", err)
		}
		if !su.HasDataset(datasetID) {
			su.DatasetIDs = append(su.DatasetIDs, datasetID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit storage unit apply: %w", err)
	}
	return nil
}

// guardRangeOverlap rejects a commit that would leave two current units of the
// same type with strictly overlapping coverage on an axis while occupying the
// same tile on every other axis. Regular coverage is clipped to tile bounds
// and fixed coverage is a point in index space, so only an irregular axis can
// trip this; the check closes the race where two writers resolve distinct tile
// keys for overlapping ranges and neither sees the other before insert.
func guardRangeOverlap(tx *sql.Tx, su *domain.StorageUnit) error {
	for _, c := range su.Coords {
		rows, err := tx.Query(
			`SELECT u2.tile_key FROM storage_units u2
			 JOIN storage_unit_coords c2 ON c2.storage_unit_id = u2.id
			 WHERE u2.type_name = ? AND u2.version = 0 AND u2.id <> ?
			   AND c2.dimension_tag = ? AND c2.min_value < ? AND ? < c2.max_value
			   AND NOT EXISTS (
			       SELECT 1 FROM storage_unit_coords a
			       JOIN storage_unit_coords b
			         ON b.storage_unit_id = u2.id AND b.dimension_tag = a.dimension_tag
			       WHERE a.storage_unit_id = ? AND a.dimension_tag <> ?
			         AND a.tile_index <> b.tile_index
			   )
			 ORDER BY u2.tile_key`,
			su.TypeName, su.ID, c.DimensionTag, c.Max, c.Min, su.ID, c.DimensionTag)
		if err != nil {
			return fmt.Errorf("failed to check range overlap: %w", err)
		}
		keys, err := scanNames(rows)
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			return &domain.TemporalOverlapError{
				StorageTypeName: su.TypeName,
				DimensionTag:    c.DimensionTag,
				ExistingKeys:    append(keys, su.TileKey()),
				IncomingMin:     c.Min,
				IncomingMax:     c.Max,
			}
		}
	}
	return nil
}

// FindOverlapping returns current units whose coverage along the dimension
// strictly overlaps (min, max). Touching boundaries do not count.
func (r *storageUnitRepository) FindOverlapping(typeName, dimensionTag string, min, max float64) ([]*domain.StorageUnit, error) {
	return r.queryUnitsByRange(
		`SELECT u.id, u.guid, u.type_name, u.tile_key, u.version, u.location, u.checksum,
		        u.size_bytes, u.row_version, u.footprint, u.created_at, u.updated_at
		 FROM storage_units u
		 JOIN storage_unit_coords c ON c.storage_unit_id = u.id
		 WHERE u.type_name = ? AND u.version = 0 AND c.dimension_tag = ?
		   AND c.min_value < ? AND ? < c.max_value
		 ORDER BY c.min_value`,
		typeName, dimensionTag, max, min)
}

// ListByDimensionRange returns current units whose coverage intersects the
// closed interval [min, max].
func (r *storageUnitRepository) ListByDimensionRange(typeName, dimensionTag string, min, max float64) ([]*domain.StorageUnit, error) {
	return r.queryUnitsByRange(
		`SELECT u.id, u.guid, u.type_name, u.tile_key, u.version, u.location, u.checksum,
		        u.size_bytes, u.row_version, u.footprint, u.created_at, u.updated_at
		 FROM storage_units u
		 JOIN storage_unit_coords c ON c.storage_unit_id = u.id
		 WHERE u.type_name = ? AND u.version = 0 AND c.dimension_tag = ?
		   AND c.min_value <= ? AND ? <= c.max_value
		 ORDER BY c.min_value`,
		typeName, dimensionTag, max, min)
}

func (r *storageUnitRepository) queryUnitsByRange(query string, args ...any) ([]*domain.StorageUnit, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage units: %w", err)
	}
	units, err := collectUnits(rows)
	if err != nil {
		return nil, err
	}
	for _, su := range units {
		if err := r.loadAssociations(su); err != nil {
			return nil, err
		}
	}
	return units, nil
}

func (r *storageUnitRepository) ListByType(typeName string) ([]*domain.StorageUnit, error) {
	rows, err := r.db.Query(
		`SELECT `+storageUnitColumns+` FROM storage_units
		 WHERE type_name = ? AND version = 0 ORDER BY tile_key`, typeName)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage units: %w", err)
	}
	units, err := collectUnits(rows)
	if err != nil {
		return nil, err
	}
	for _, su := range units {
		if err := r.loadAssociations(su); err != nil {
			return nil, err
		}
	}
	return units, nil
}

func (r *storageUnitRepository) UnitsForDataset(datasetID int64) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT u.guid FROM storage_units u
		 JOIN storage_unit_datasets l ON l.storage_unit_id = u.id
		 WHERE l.dataset_id = ? ORDER BY u.guid`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list units for dataset: %w", err)
	}
	return scanNames(rows)
}

func collectUnits(rows *sql.Rows) ([]*domain.StorageUnit, error) {
	defer rows.Close()
	var units []*domain.StorageUnit
	for rows.Next() {
		su, err := scanStorageUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan storage unit: %w", err)
		}
		units = append(units, su)
	}
	return units, rows.Err()
}

// isUniqueViolation reports whether an error is a sqlite unique constraint
// failure, matched on message text to stay driver-agnostic.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}
