package presentation

import (
	"encoding/json"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// DimensionDTO represents a registered dimension for presentation.
type DimensionDTO struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

// DomainDTO represents a dimension domain for presentation.
type DomainDTO struct {
	Tag        string   `json:"tag"`
	Name       string   `json:"name"`
	Dimensions []string `json:"dimensions"`
}

// ReferenceSystemDTO represents a reference system for presentation.
type ReferenceSystemDTO struct {
	Tag      string             `json:"tag"`
	Name     string             `json:"name"`
	Unit     string             `json:"unit,omitempty"`
	Indexing []IndexingEntryDTO `json:"indexing,omitempty"`
}

// IndexingEntryDTO is one row of a reference system's indexing table.
type IndexingEntryDTO struct {
	Index       int64  `json:"index"`
	Label       string `json:"label"`
	Measurement string `json:"measurement,omitempty"`
}

// DatasetTypeDTO represents a dataset type for presentation.
type DatasetTypeDTO struct {
	Name         string           `json:"name"`
	Dimensions   []DatasetDimDTO  `json:"dimensions"`
	Measurements []MeasurementDTO `json:"measurements"`
	StorageTypes []string         `json:"storage_types,omitempty"`
}

// DatasetDimDTO is one dimension binding of a dataset type.
type DatasetDimDTO struct {
	Dimension       string `json:"dimension"`
	Domain          string `json:"domain"`
	ReferenceSystem string `json:"reference_system"`
	Order           int    `json:"order"`
	Direction       string `json:"direction"`
}

// MeasurementDTO is one measurement of a dataset type.
type MeasurementDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	DataType string `json:"datatype"`
}

// StorageTypeDTO represents a storage type for presentation.
type StorageTypeDTO struct {
	Name        string          `json:"name"`
	DatasetType string          `json:"dataset_type"`
	Dimensions  []StorageDimDTO `json:"dimensions"`
}

// StorageDimDTO is one tiled axis of a storage type.
type StorageDimDTO struct {
	Dimension string  `json:"dimension"`
	Regime    string  `json:"regime"`
	Extent    float64 `json:"extent,omitempty"`
	Elements  int64   `json:"elements,omitempty"`
	ChunkSize int64   `json:"chunk_size,omitempty"`
	Origin    float64 `json:"origin,omitempty"`
	Direction string  `json:"direction"`
}

// DatasetDTO represents a registered dataset for presentation.
type DatasetDTO struct {
	GUID      string          `json:"guid"`
	Type      string          `json:"type"`
	Location  string          `json:"location"`
	Checksum  string          `json:"checksum,omitempty"`
	SizeBytes int64           `json:"size_bytes,omitempty"`
	Extents   []ExtentDTO     `json:"extents"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// ExtentDTO is a dataset's coverage along one dimension.
type ExtentDTO struct {
	Dimension string   `json:"dimension"`
	Min       float64  `json:"min"`
	Max       float64  `json:"max"`
	Index     *float64 `json:"index,omitempty"`
}

// StorageUnitDTO represents a storage unit for presentation.
type StorageUnitDTO struct {
	GUID     string     `json:"guid"`
	Type     string     `json:"type"`
	TileKey  string     `json:"tile_key"`
	Coords   []CoordDTO `json:"coords"`
	Datasets []int64    `json:"dataset_ids,omitempty"`
}

// CoordDTO is a storage unit's position and coverage along one dimension.
type CoordDTO struct {
	Dimension string  `json:"dimension"`
	TileIndex int64   `json:"tile_index"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// FromDimension converts a domain dimension to a DTO.
func FromDimension(d *domain.Dimension) DimensionDTO {
	return DimensionDTO{Tag: d.Tag, Name: d.Name}
}

// FromDimensions converts a slice of dimensions to DTOs.
func FromDimensions(dims []*domain.Dimension) []DimensionDTO {
	dtos := make([]DimensionDTO, len(dims))
	for i, d := range dims {
		dtos[i] = FromDimension(d)
	}
	return dtos
}

// FromDomainGroup converts a dimension domain to a DTO.
func FromDomainGroup(d *domain.Domain) DomainDTO {
	return DomainDTO{Tag: d.Tag, Name: d.Name, Dimensions: d.DimensionTags}
}

// FromDomainGroups converts a slice of domains to DTOs.
func FromDomainGroups(domains []*domain.Domain) []DomainDTO {
	dtos := make([]DomainDTO, len(domains))
	for i, d := range domains {
		dtos[i] = FromDomainGroup(d)
	}
	return dtos
}

// FromReferenceSystem converts a reference system to a DTO.
func FromReferenceSystem(rs *domain.ReferenceSystem) ReferenceSystemDTO {
	dto := ReferenceSystemDTO{Tag: rs.Tag, Name: rs.Name, Unit: rs.Unit}
	for _, e := range rs.Indexing {
		dto.Indexing = append(dto.Indexing, IndexingEntryDTO{
			Index:       int64(e.ArrayIndex),
			Label:       e.Label,
			Measurement: e.MeasurementID,
		})
	}
	return dto
}

// FromReferenceSystems converts a slice of reference systems to DTOs.
func FromReferenceSystems(systems []*domain.ReferenceSystem) []ReferenceSystemDTO {
	dtos := make([]ReferenceSystemDTO, len(systems))
	for i, rs := range systems {
		dtos[i] = FromReferenceSystem(rs)
	}
	return dtos
}

// FromDatasetType converts a dataset type to a DTO. The storageTypes list
// names the storage types derived from it.
func FromDatasetType(dt *domain.DatasetType, storageTypes []string) DatasetTypeDTO {
	dto := DatasetTypeDTO{Name: dt.Name, StorageTypes: storageTypes}
	for _, d := range dt.Dims {
		dto.Dimensions = append(dto.Dimensions, DatasetDimDTO{
			Dimension:       d.DimensionTag,
			Domain:          d.DomainTag,
			ReferenceSystem: d.ReferenceSystemTag,
			Order:           d.Order,
			Direction:       string(d.Direction),
		})
	}
	for _, m := range dt.Measurements {
		dto.Measurements = append(dto.Measurements, MeasurementDTO{ID: m.ID, Name: m.Name, DataType: m.DataType})
	}
	return dto
}

// FromStorageType converts a storage type to a DTO.
func FromStorageType(st *domain.StorageType) StorageTypeDTO {
	dto := StorageTypeDTO{Name: st.Name, DatasetType: st.DatasetTypeName}
	for _, d := range st.Dims {
		dto.Dimensions = append(dto.Dimensions, StorageDimDTO{
			Dimension: d.DimensionTag,
			Regime:    string(d.Regime),
			Extent:    d.Extent,
			Elements:  d.Elements,
			ChunkSize: d.ChunkSize,
			Origin:    d.Origin,
			Direction: string(d.Direction),
		})
	}
	return dto
}

// FromStorageTypes converts a slice of storage types to DTOs.
func FromStorageTypes(types []*domain.StorageType) []StorageTypeDTO {
	dtos := make([]StorageTypeDTO, len(types))
	for i, st := range types {
		dtos[i] = FromStorageType(st)
	}
	return dtos
}

// FromDataset converts a dataset to a DTO.
func FromDataset(ds *domain.Dataset) DatasetDTO {
	dto := DatasetDTO{
		GUID:      ds.GUID,
		Type:      ds.TypeName,
		Location:  ds.Location,
		Checksum:  ds.Checksum,
		SizeBytes: ds.SizeBytes,
		Metadata:  ds.Metadata,
	}
	for _, e := range ds.Extents {
		dto.Extents = append(dto.Extents, ExtentDTO{
			Dimension: e.DimensionTag,
			Min:       e.Min,
			Max:       e.Max,
			Index:     e.IndexValue,
		})
	}
	return dto
}

// FromDatasets converts a slice of datasets to DTOs.
func FromDatasets(datasets []*domain.Dataset) []DatasetDTO {
	dtos := make([]DatasetDTO, len(datasets))
	for i, ds := range datasets {
		dtos[i] = FromDataset(ds)
	}
	return dtos
}

// FromStorageUnit converts a storage unit to a DTO.
func FromStorageUnit(su *domain.StorageUnit) StorageUnitDTO {
	dto := StorageUnitDTO{
		GUID:     su.GUID,
		Type:     su.TypeName,
		TileKey:  su.TileKey(),
		Datasets: su.DatasetIDs,
	}
	for _, c := range su.Coords {
		dto.Coords = append(dto.Coords, CoordDTO{
			Dimension: c.DimensionTag,
			TileIndex: c.TileIndex,
			Min:       c.Min,
			Max:       c.Max,
		})
	}
	return dto
}

// FromStorageUnits converts a slice of storage units to DTOs.
func FromStorageUnits(units []*domain.StorageUnit) []StorageUnitDTO {
	dtos := make([]StorageUnitDTO, len(units))
	for i, su := range units {
		dtos[i] = FromStorageUnit(su)
	}
	return dtos
}
