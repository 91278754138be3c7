package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// typeRepository implements domain.TypeRepository using SQLite.
type typeRepository struct {
	db *sql.DB
}

// newTypeRepository creates a new typeRepository instance.
func newTypeRepository(db *sql.DB) *typeRepository {
	return &typeRepository{db: db}
}

// Ensure typeRepository implements domain.TypeRepository.
var _ domain.TypeRepository = (*typeRepository)(nil)

// SaveDatasetType persists a dataset type with its dimension bindings and
// measurements in one transaction.
func (r *typeRepository) SaveDatasetType(dt *domain.DatasetType) error {
	if dt.CreatedAt.IsZero() {
		dt.CreatedAt = time.Now()
	}
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin dataset type insert: %w", err)
	}
	result, err := tx.Exec(
		`INSERT INTO dataset_types (name, created_at) VALUES (?, ?)`,
		dt.Name, dt.CreatedAt.Unix(),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert dataset type: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	for _, d := range dt.Dims {
		if _, err := tx.Exec(
			`INSERT INTO dataset_type_dimensions
			 (dataset_type_id, domain_tag, dimension_tag, reference_system_tag, dimension_order, direction)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, d.DomainTag, d.DimensionTag, d.ReferenceSystemTag, d.Order, string(d.Direction),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert dataset type dimension %s: %w", d.DimensionTag, err)
		}
	}
	for _, m := range dt.Measurements {
		if _, err := tx.Exec(
			`INSERT INTO dataset_type_measurements (dataset_type_id, measurement_id, name, datatype)
			 VALUES (?, ?, ?, ?)`,
			id, m.ID, m.Name, m.DataType,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert dataset type measurement %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset type insert: %w", err)
	}
	dt.ID = id
	return nil
}

func (r *typeRepository) FindDatasetTypeByName(name string) (*domain.DatasetType, error) {
	row := r.db.QueryRow(`SELECT id, name, created_at FROM dataset_types WHERE name = ?`, name)
	var dt domain.DatasetType
	var createdAt int64
	err := row.Scan(&dt.ID, &dt.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "dataset type", Key: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dataset type by name: %w", err)
	}
	dt.CreatedAt = time.Unix(createdAt, 0)

	if dt.Dims, err = r.loadDatasetTypeDims(dt.ID); err != nil {
		return nil, err
	}
	if dt.Measurements, err = r.loadDatasetTypeMeasurements(dt.ID); err != nil {
		return nil, err
	}
	return &dt, nil
}

func (r *typeRepository) loadDatasetTypeDims(typeID int64) ([]domain.DatasetDimension, error) {
	rows, err := r.db.Query(
		`SELECT domain_tag, dimension_tag, reference_system_tag, dimension_order, direction
		 FROM dataset_type_dimensions WHERE dataset_type_id = ? ORDER BY dimension_order, dimension_tag`,
		typeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset type dimensions: %w", err)
	}
	defer rows.Close()

	var dims []domain.DatasetDimension
	for rows.Next() {
		var d domain.DatasetDimension
		var direction string
		if err := rows.Scan(&d.DomainTag, &d.DimensionTag, &d.ReferenceSystemTag, &d.Order, &direction); err != nil {
			return nil, fmt.Errorf("failed to scan dataset type dimension: %w", err)
		}
		d.Direction = domain.AxisDirection(direction)
		dims = append(dims, d)
	}
	return dims, rows.Err()
}

func (r *typeRepository) loadDatasetTypeMeasurements(typeID int64) ([]domain.Measurement, error) {
	rows, err := r.db.Query(
		`SELECT measurement_id, name, datatype FROM dataset_type_measurements
		 WHERE dataset_type_id = ? ORDER BY measurement_id`, typeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset type measurements: %w", err)
	}
	defer rows.Close()

	var measurements []domain.Measurement
	for rows.Next() {
		var m domain.Measurement
		if err := rows.Scan(&m.ID, &m.Name, &m.DataType); err != nil {
			return nil, fmt.Errorf("failed to scan dataset type measurement: %w", err)
		}
		measurements = append(measurements, m)
	}
	return measurements, rows.Err()
}

func (r *typeRepository) ListDatasetTypes() ([]*domain.DatasetType, error) {
	names, err := r.listNames(`SELECT name FROM dataset_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	types := make([]*domain.DatasetType, 0, len(names))
	for _, name := range names {
		dt, err := r.FindDatasetTypeByName(name)
		if err != nil {
			return nil, err
		}
		types = append(types, dt)
	}
	return types, nil
}

// SaveStorageType persists a storage type with its tiling parameters and
// measurement bindings in one transaction.
func (r *typeRepository) SaveStorageType(st *domain.StorageType) error {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now()
	}
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin storage type insert: %w", err)
	}
	result, err := tx.Exec(
		`INSERT INTO storage_types (name, dataset_type_name, created_at) VALUES (?, ?, ?)`,
		st.Name, st.DatasetTypeName, st.CreatedAt.Unix(),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert storage type: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	for _, d := range st.Dims {
		if _, err := tx.Exec(
			`INSERT INTO storage_type_dimensions
			 (storage_type_id, dimension_tag, domain_tag, reference_system_tag, regime,
			  extent, elements, chunk_size, origin, direction)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, d.DimensionTag, d.DomainTag, d.ReferenceSystemTag, string(d.Regime),
			d.Extent, d.Elements, d.ChunkSize, d.Origin, string(d.Direction),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert storage type dimension %s: %w", d.DimensionTag, err)
		}
	}
	for _, m := range st.Measurements {
		if _, err := tx.Exec(
			`INSERT INTO storage_type_measurements (storage_type_id, measurement_id, name, datatype, nodata_value)
			 VALUES (?, ?, ?, ?, ?)`,
			id, m.ID, m.Name, m.DataType, m.NoDataValue,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert storage type measurement %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit storage type insert: %w", err)
	}
	st.ID = id
	return nil
}

func (r *typeRepository) FindStorageTypeByName(name string) (*domain.StorageType, error) {
	row := r.db.QueryRow(
		`SELECT id, name, dataset_type_name, created_at FROM storage_types WHERE name = ?`, name)
	var st domain.StorageType
	var createdAt int64
	err := row.Scan(&st.ID, &st.Name, &st.DatasetTypeName, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "storage type", Key: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find storage type by name: %w", err)
	}
	st.CreatedAt = time.Unix(createdAt, 0)

	if st.Dims, err = r.loadStorageTypeDims(st.ID); err != nil {
		return nil, err
	}
	if st.Measurements, err = r.loadStorageTypeMeasurements(st.ID); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *typeRepository) loadStorageTypeDims(typeID int64) ([]domain.StorageDimension, error) {
	rows, err := r.db.Query(
		`SELECT dimension_tag, domain_tag, reference_system_tag, regime,
		        extent, elements, chunk_size, origin, direction
		 FROM storage_type_dimensions WHERE storage_type_id = ? ORDER BY dimension_tag`,
		typeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage type dimensions: %w", err)
	}
	defer rows.Close()

	var dims []domain.StorageDimension
	for rows.Next() {
		var d domain.StorageDimension
		var regime, direction string
		if err := rows.Scan(&d.DimensionTag, &d.DomainTag, &d.ReferenceSystemTag, &regime,
			&d.Extent, &d.Elements, &d.ChunkSize, &d.Origin, &direction); err != nil {
			return nil, fmt.Errorf("failed to scan storage type dimension: %w", err)
		}
		d.Regime = domain.Regime(regime)
		d.Direction = domain.AxisDirection(direction)
		dims = append(dims, d)
	}
	return dims, rows.Err()
}

func (r *typeRepository) loadStorageTypeMeasurements(typeID int64) ([]domain.StorageMeasurement, error) {
	rows, err := r.db.Query(
		`SELECT measurement_id, name, datatype, nodata_value FROM storage_type_measurements
		 WHERE storage_type_id = ? ORDER BY measurement_id`, typeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage type measurements: %w", err)
	}
	defer rows.Close()

	var measurements []domain.StorageMeasurement
	for rows.Next() {
		var m domain.StorageMeasurement
		if err := rows.Scan(&m.ID, &m.Name, &m.DataType, &m.NoDataValue); err != nil {
			return nil, fmt.Errorf("failed to scan storage type measurement: %w", err)
		}
		measurements = append(measurements, m)
	}
	return measurements, rows.Err()
}

func (r *typeRepository) ListStorageTypes() ([]*domain.StorageType, error) {
	names, err := r.listNames(`SELECT name FROM storage_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return r.findStorageTypes(names)
}

func (r *typeRepository) StorageTypesForDatasetType(name string) ([]*domain.StorageType, error) {
	rows, err := r.db.Query(
		`SELECT name FROM storage_types WHERE dataset_type_name = ? ORDER BY name`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage types for dataset type: %w", err)
	}
	names, err := scanNames(rows)
	if err != nil {
		return nil, err
	}
	return r.findStorageTypes(names)
}

func (r *typeRepository) findStorageTypes(names []string) ([]*domain.StorageType, error) {
	types := make([]*domain.StorageType, 0, len(names))
	for _, name := range names {
		st, err := r.FindStorageTypeByName(name)
		if err != nil {
			return nil, err
		}
		types = append(types, st)
	}
	return types, nil
}

func (r *typeRepository) listNames(query string) ([]string, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list names: %w", err)
	}
	return scanNames(rows)
}

func scanNames(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
