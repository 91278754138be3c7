package sqlite

import (
	"encoding/json"
	"time"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// DatasetModel represents the database row for the datasets table.
// Fields map directly to SQL columns with Unix timestamps for time values.
type DatasetModel struct {
	ID        int64
	GUID      string
	TypeName  string
	Location  string
	Checksum  string
	SizeBytes int64
	CreatedAt int64
	Footprint *string // nullable, GeoJSON encoded
	Metadata  *string // nullable, opaque JSON document
}

// toDatasetModel converts a domain Dataset to a database DatasetModel.
func toDatasetModel(ds *domain.Dataset) (*DatasetModel, error) {
	m := &DatasetModel{
		ID:        ds.ID,
		GUID:      ds.GUID,
		TypeName:  ds.TypeName,
		Location:  ds.Location,
		Checksum:  ds.Checksum,
		SizeBytes: ds.SizeBytes,
		CreatedAt: ds.CreatedAt.Unix(),
	}
	if !ds.Footprint.IsZero() {
		data, err := ds.Footprint.MarshalGeoJSON()
		if err != nil {
			return nil, err
		}
		footprint := string(data)
		m.Footprint = &footprint
	}
	if len(ds.Metadata) > 0 {
		metadata := string(ds.Metadata)
		m.Metadata = &metadata
	}
	return m, nil
}

// toDomain converts a database DatasetModel to a domain Dataset.
// Extents are loaded separately from the dataset_extents table.
func (m *DatasetModel) toDomain() (*domain.Dataset, error) {
	ds := &domain.Dataset{
		ID:        m.ID,
		GUID:      m.GUID,
		TypeName:  m.TypeName,
		Location:  m.Location,
		Checksum:  m.Checksum,
		SizeBytes: m.SizeBytes,
		CreatedAt: time.Unix(m.CreatedAt, 0),
	}
	if m.Footprint != nil {
		footprint, err := domain.FootprintFromGeoJSON([]byte(*m.Footprint))
		if err != nil {
			return nil, err
		}
		ds.Footprint = footprint
	}
	if m.Metadata != nil {
		ds.Metadata = json.RawMessage(*m.Metadata)
	}
	return ds, nil
}

// StorageUnitModel represents the database row for the storage_units table.
type StorageUnitModel struct {
	ID         int64
	GUID       string
	TypeName   string
	TileKey    string
	Version    int
	Location   string
	Checksum   string
	SizeBytes  int64
	RowVersion int64
	Footprint  *string // nullable, GeoJSON encoded
	CreatedAt  int64
	UpdatedAt  int64
}

// toStorageUnitModel converts a domain StorageUnit to its database row.
func toStorageUnitModel(su *domain.StorageUnit) (*StorageUnitModel, error) {
	m := &StorageUnitModel{
		ID:         su.ID,
		GUID:       su.GUID,
		TypeName:   su.TypeName,
		TileKey:    su.TileKey(),
		Version:    su.Version,
		Location:   su.Location,
		Checksum:   su.Checksum,
		SizeBytes:  su.SizeBytes,
		RowVersion: su.RowVersion,
		CreatedAt:  su.CreatedAt.Unix(),
		UpdatedAt:  su.UpdatedAt.Unix(),
	}
	if !su.Footprint.IsZero() {
		data, err := su.Footprint.MarshalGeoJSON()
		if err != nil {
			return nil, err
		}
		footprint := string(data)
		m.Footprint = &footprint
	}
	return m, nil
}

// toDomain converts a database StorageUnitModel to a domain StorageUnit.
// Coordinates and dataset links are loaded separately.
func (m *StorageUnitModel) toDomain() (*domain.StorageUnit, error) {
	su := &domain.StorageUnit{
		ID:         m.ID,
		GUID:       m.GUID,
		TypeName:   m.TypeName,
		Version:    m.Version,
		Location:   m.Location,
		Checksum:   m.Checksum,
		SizeBytes:  m.SizeBytes,
		RowVersion: m.RowVersion,
		CreatedAt:  time.Unix(m.CreatedAt, 0),
		UpdatedAt:  time.Unix(m.UpdatedAt, 0),
	}
	if m.Footprint != nil {
		footprint, err := domain.FootprintFromGeoJSON([]byte(*m.Footprint))
		if err != nil {
			return nil, err
		}
		su.Footprint = footprint
	}
	return su, nil
}
