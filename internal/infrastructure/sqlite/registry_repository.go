package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// registryRepository implements domain.RegistryRepository using SQLite.
type registryRepository struct {
	db *sql.DB
}

// newRegistryRepository creates a new registryRepository instance.
func newRegistryRepository(db *sql.DB) *registryRepository {
	return &registryRepository{db: db}
}

// Ensure registryRepository implements domain.RegistryRepository.
var _ domain.RegistryRepository = (*registryRepository)(nil)

// Save persists a dimension and assigns its ID.
func (r *registryRepository) SaveDimension(d *domain.Dimension) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	result, err := r.db.Exec(
		`INSERT INTO dimensions (name, tag, created_at) VALUES (?, ?, ?)`,
		d.Name, d.Tag, d.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert dimension: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	d.ID = id
	return nil
}

func (r *registryRepository) FindDimensionByTag(tag string) (*domain.Dimension, error) {
	row := r.db.QueryRow(`SELECT id, name, tag, created_at FROM dimensions WHERE tag = ?`, tag)
	var d domain.Dimension
	var createdAt int64
	err := row.Scan(&d.ID, &d.Name, &d.Tag, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "dimension", Key: tag}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dimension by tag: %w", err)
	}
	d.CreatedAt = time.Unix(createdAt, 0)
	return &d, nil
}

func (r *registryRepository) ListDimensions() ([]*domain.Dimension, error) {
	rows, err := r.db.Query(`SELECT id, name, tag, created_at FROM dimensions ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dimensions: %w", err)
	}
	defer rows.Close()

	var dims []*domain.Dimension
	for rows.Next() {
		var d domain.Dimension
		var createdAt int64
		if err := rows.Scan(&d.ID, &d.Name, &d.Tag, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan dimension: %w", err)
		}
		d.CreatedAt = time.Unix(createdAt, 0)
		dims = append(dims, &d)
	}
	return dims, rows.Err()
}

// SaveDomain persists a domain and its dimension memberships in one
// transaction.
func (r *registryRepository) SaveDomain(d *domain.Domain) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin domain insert: %w", err)
	}
	result, err := tx.Exec(
		`INSERT INTO domains (name, tag, created_at) VALUES (?, ?, ?)`,
		d.Name, d.Tag, d.CreatedAt.Unix(),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert domain: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	for i, tag := range d.DimensionTags {
		if _, err := tx.Exec(
			`INSERT INTO domain_dimensions (domain_id, dimension_tag, position) VALUES (?, ?, ?)`,
			id, tag, i,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert domain dimension %s: %w", tag, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit domain insert: %w", err)
	}
	d.ID = id
	return nil
}

func (r *registryRepository) FindDomainByTag(tag string) (*domain.Domain, error) {
	row := r.db.QueryRow(`SELECT id, name, tag, created_at FROM domains WHERE tag = ?`, tag)
	var d domain.Domain
	var createdAt int64
	err := row.Scan(&d.ID, &d.Name, &d.Tag, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "domain", Key: tag}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find domain by tag: %w", err)
	}
	d.CreatedAt = time.Unix(createdAt, 0)

	rows, err := r.db.Query(
		`SELECT dimension_tag FROM domain_dimensions WHERE domain_id = ? ORDER BY position`, d.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load domain dimensions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dimTag string
		if err := rows.Scan(&dimTag); err != nil {
			return nil, fmt.Errorf("failed to scan domain dimension: %w", err)
		}
		d.DimensionTags = append(d.DimensionTags, dimTag)
	}
	return &d, rows.Err()
}

func (r *registryRepository) ListDomains() ([]*domain.Domain, error) {
	rows, err := r.db.Query(`SELECT tag FROM domains ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan domain tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	domains := make([]*domain.Domain, 0, len(tags))
	for _, tag := range tags {
		d, err := r.FindDomainByTag(tag)
		if err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, nil
}

// SaveReferenceSystem persists a reference system and its indexing table in
// one transaction.
func (r *registryRepository) SaveReferenceSystem(rs *domain.ReferenceSystem) error {
	if rs.CreatedAt.IsZero() {
		rs.CreatedAt = time.Now()
	}
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin reference system insert: %w", err)
	}
	result, err := tx.Exec(
		`INSERT INTO reference_systems (name, unit, definition, tag, created_at) VALUES (?, ?, ?, ?, ?)`,
		rs.Name, rs.Unit, rs.Definition, rs.Tag, rs.CreatedAt.Unix(),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert reference system: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	for _, entry := range rs.Indexing {
		if _, err := tx.Exec(
			`INSERT INTO reference_system_indexing (reference_system_id, array_index, label, measurement_id) VALUES (?, ?, ?, ?)`,
			id, entry.ArrayIndex, entry.Label, entry.MeasurementID,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert indexing entry %q: %w", entry.Label, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reference system insert: %w", err)
	}
	rs.ID = id
	return nil
}

func (r *registryRepository) FindReferenceSystemByTag(tag string) (*domain.ReferenceSystem, error) {
	row := r.db.QueryRow(
		`SELECT id, name, unit, definition, tag, created_at FROM reference_systems WHERE tag = ?`, tag)
	var rs domain.ReferenceSystem
	var createdAt int64
	err := row.Scan(&rs.ID, &rs.Name, &rs.Unit, &rs.Definition, &rs.Tag, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "reference system", Key: tag}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find reference system by tag: %w", err)
	}
	rs.CreatedAt = time.Unix(createdAt, 0)

	rows, err := r.db.Query(
		`SELECT array_index, label, measurement_id FROM reference_system_indexing
		 WHERE reference_system_id = ? ORDER BY array_index`, rs.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load indexing table: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var entry domain.IndexingEntry
		if err := rows.Scan(&entry.ArrayIndex, &entry.Label, &entry.MeasurementID); err != nil {
			return nil, fmt.Errorf("failed to scan indexing entry: %w", err)
		}
		rs.Indexing = append(rs.Indexing, entry)
	}
	return &rs, rows.Err()
}

func (r *registryRepository) ListReferenceSystems() ([]*domain.ReferenceSystem, error) {
	rows, err := r.db.Query(`SELECT tag FROM reference_systems ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reference systems: %w", err)
	}
	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan reference system tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	systems := make([]*domain.ReferenceSystem, 0, len(tags))
	for _, tag := range tags {
		rs, err := r.FindReferenceSystemByTag(tag)
		if err != nil {
			return nil, err
		}
		systems = append(systems, rs)
	}
	return systems, nil
}

// DimensionReferencedBy returns the first dataset or storage type using the
// dimension, or "" when unreferenced.
func (r *registryRepository) DimensionReferencedBy(tag string) (string, error) {
	row := r.db.QueryRow(
		`SELECT dt.name FROM dataset_type_dimensions dtd
		 JOIN dataset_types dt ON dt.id = dtd.dataset_type_id
		 WHERE dtd.dimension_tag = ?
		 UNION
		 SELECT st.name FROM storage_type_dimensions std
		 JOIN storage_types st ON st.id = std.storage_type_id
		 WHERE std.dimension_tag = ?
		 LIMIT 1`, tag, tag)
	var name string
	err := row.Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check dimension references: %w", err)
	}
	return name, nil
}

// ReferenceSystemReferencedBy returns the first dataset or storage type using
// the reference system, or "" when unreferenced.
func (r *registryRepository) ReferenceSystemReferencedBy(tag string) (string, error) {
	row := r.db.QueryRow(
		`SELECT dt.name FROM dataset_type_dimensions dtd
		 JOIN dataset_types dt ON dt.id = dtd.dataset_type_id
		 WHERE dtd.reference_system_tag = ?
		 UNION
		 SELECT st.name FROM storage_type_dimensions std
		 JOIN storage_types st ON st.id = std.storage_type_id
		 WHERE std.reference_system_tag = ?
		 LIMIT 1`, tag, tag)
	var name string
	err := row.Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check reference system references: %w", err)
	}
	return name, nil
}

func (r *registryRepository) DeleteDimension(tag string) error {
	result, err := r.db.Exec(`DELETE FROM dimensions WHERE tag = ?`, tag)
	if err != nil {
		return fmt.Errorf("failed to delete dimension: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: "dimension", Key: tag}
	}
	return nil
}

func (r *registryRepository) DeleteReferenceSystem(tag string) error {
	rs, err := r.FindReferenceSystemByTag(tag)
	if err != nil {
		return err
	}
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin reference system delete: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM reference_system_indexing WHERE reference_system_id = ?`, rs.ID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete indexing entries: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM reference_systems WHERE id = ?`, rs.ID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete reference system: %w", err)
	}
	return tx.Commit()
}
