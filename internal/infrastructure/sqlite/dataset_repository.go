package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// datasetRepository implements domain.DatasetRepository using SQLite.
type datasetRepository struct {
	db *sql.DB
}

// newDatasetRepository creates a new datasetRepository instance.
func newDatasetRepository(db *sql.DB) *datasetRepository {
	return &datasetRepository{db: db}
}

// Ensure datasetRepository implements domain.DatasetRepository.
var _ domain.DatasetRepository = (*datasetRepository)(nil)

// Save persists a dataset and its extents in one transaction.
func (r *datasetRepository) Save(ds *domain.Dataset) error {
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now()
	}
	m, err := toDatasetModel(ds)
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin dataset insert: %w", err)
	}
	result, err := tx.Exec(
		`INSERT INTO datasets (guid, type_name, location, checksum, size_bytes, created_at, footprint, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.GUID, m.TypeName, m.Location, m.Checksum, m.SizeBytes, m.CreatedAt, m.Footprint, m.Metadata,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert dataset: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	for _, ext := range ds.Extents {
		if _, err := tx.Exec(
			`INSERT INTO dataset_extents (dataset_id, dimension_tag, min_value, max_value, index_value)
			 VALUES (?, ?, ?, ?, ?)`,
			id, ext.DimensionTag, ext.Min, ext.Max, ext.IndexValue,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert dataset extent %s: %w", ext.DimensionTag, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset insert: %w", err)
	}
	ds.ID = id
	return nil
}

const datasetColumns = `id, guid, type_name, location, checksum, size_bytes, created_at, footprint, metadata`

func scanDataset(row interface{ Scan(...any) error }) (*domain.Dataset, error) {
	var m DatasetModel
	err := row.Scan(&m.ID, &m.GUID, &m.TypeName, &m.Location, &m.Checksum,
		&m.SizeBytes, &m.CreatedAt, &m.Footprint, &m.Metadata)
	if err != nil {
		return nil, err
	}
	return m.toDomain()
}

func (r *datasetRepository) FindByGUID(guid string) (*domain.Dataset, error) {
	row := r.db.QueryRow(`SELECT `+datasetColumns+` FROM datasets WHERE guid = ?`, guid)
	ds, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "dataset", Key: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dataset by guid: %w", err)
	}
	if ds.Extents, err = r.loadExtents(ds.ID); err != nil {
		return nil, err
	}
	return ds, nil
}

func (r *datasetRepository) loadExtents(datasetID int64) ([]domain.DimensionExtent, error) {
	rows, err := r.db.Query(
		`SELECT dimension_tag, min_value, max_value, index_value
		 FROM dataset_extents WHERE dataset_id = ? ORDER BY dimension_tag`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset extents: %w", err)
	}
	defer rows.Close()

	var extents []domain.DimensionExtent
	for rows.Next() {
		var ext domain.DimensionExtent
		var indexValue sql.NullFloat64
		if err := rows.Scan(&ext.DimensionTag, &ext.Min, &ext.Max, &indexValue); err != nil {
			return nil, fmt.Errorf("failed to scan dataset extent: %w", err)
		}
		if indexValue.Valid {
			v := indexValue.Float64
			ext.IndexValue = &v
		}
		extents = append(extents, ext)
	}
	return extents, rows.Err()
}

// List returns datasets matching the filter, newest first. Range filtering
// joins dataset_extents so only datasets covering the requested interval along
// the dimension are returned.
func (r *datasetRepository) List(filter domain.DatasetFilter) ([]*domain.Dataset, error) {
	query := `SELECT d.id, d.guid, d.type_name, d.location, d.checksum, d.size_bytes,
	                 d.created_at, d.footprint, d.metadata
	          FROM datasets d`
	var args []any
	var where []string

	if filter.DimensionTag != "" {
		query += ` JOIN dataset_extents de ON de.dataset_id = d.id AND de.dimension_tag = ?`
		args = append(args, filter.DimensionTag)
		where = append(where, `de.min_value <= ? AND de.max_value >= ?`)
		args = append(args, filter.Max, filter.Min)
	}
	if filter.TypeName != "" {
		where = append(where, `d.type_name = ?`)
		args = append(args, filter.TypeName)
	}
	for i, clause := range where {
		if i == 0 {
			query += ` WHERE ` + clause
		} else {
			query += ` AND ` + clause
		}
	}
	query += ` ORDER BY d.created_at DESC, d.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*domain.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, ds := range datasets {
		if ds.Extents, err = r.loadExtents(ds.ID); err != nil {
			return nil, err
		}
	}
	return datasets, nil
}

// Delete removes a dataset record. Extents and storage unit associations go
// with it via ON DELETE CASCADE; the units themselves stay.
func (r *datasetRepository) Delete(guid string) error {
	result, err := r.db.Exec(`DELETE FROM datasets WHERE guid = ?`, guid)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: "dataset", Key: guid}
	}
	return nil
}
