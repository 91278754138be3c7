package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gridcat/gridcat/internal/catalog/domain"
)

// DefinitionFile is the root structure of a catalog definition document, the
// input to `gridcat apply`. Sections may appear in any combination; they are
// applied in dependency order (dimensions, domains, reference systems, dataset
// types, storage types).
type DefinitionFile struct {
	Dimensions       []DimensionDef       `yaml:"dimensions"`
	Domains          []DomainDef          `yaml:"domains"`
	ReferenceSystems []ReferenceSystemDef `yaml:"reference_systems"`
	DatasetTypes     []DatasetTypeDef     `yaml:"dataset_types"`
	StorageTypes     []StorageTypeDef     `yaml:"storage_types"`
}

// DimensionDef defines a single dimension registration in YAML.
type DimensionDef struct {
	Name string `yaml:"name"` // Human-readable name
	Tag  string `yaml:"tag"`  // Unique tag, e.g. "lon"
}

// DomainDef defines a domain and its member dimensions.
type DomainDef struct {
	Name       string   `yaml:"name"`
	Tag        string   `yaml:"tag"`
	Dimensions []string `yaml:"dimensions"` // Member dimension tags, ordered
}

// ReferenceSystemDef defines a reference system; indexing entries make it a
// discrete system usable by fixed-regime storage dimensions.
type ReferenceSystemDef struct {
	Name       string        `yaml:"name"`
	Unit       string        `yaml:"unit"`
	Definition string        `yaml:"definition"` // CRS WKT or similar
	Tag        string        `yaml:"tag"`
	Indexing   []IndexingDef `yaml:"indexing"`
}

// IndexingDef is one entry of a discrete reference system's lookup table.
type IndexingDef struct {
	Index       int    `yaml:"index"`
	Label       string `yaml:"label"`
	Measurement string `yaml:"measurement"`
}

// DatasetTypeDef defines a dataset type: which dimensions apply and which
// measurements the data carries.
type DatasetTypeDef struct {
	Name         string           `yaml:"name"`
	Dimensions   []DatasetDimDef  `yaml:"dimensions"`
	Measurements []MeasurementDef `yaml:"measurements"`
}

// DatasetDimDef binds one dimension to a dataset type.
type DatasetDimDef struct {
	Domain          string `yaml:"domain"`
	Dimension       string `yaml:"dimension"`
	ReferenceSystem string `yaml:"reference_system"`
	Order           int    `yaml:"order"`
	Direction       string `yaml:"direction"` // "ascending" (default) or "descending"
}

// MeasurementDef binds a measurement identity to its datatype.
type MeasurementDef struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	DataType string `yaml:"datatype"`
}

// StorageTypeDef defines a storage type: per-dimension tiling parameters plus
// measurement bindings.
type StorageTypeDef struct {
	Name         string                  `yaml:"name"`
	DatasetType  string                  `yaml:"dataset_type"`
	Dimensions   []StorageDimDef         `yaml:"dimensions"`
	Measurements []StorageMeasurementDef `yaml:"measurements"`
}

// StorageDimDef declares how one axis is tiled.
type StorageDimDef struct {
	Dimension       string  `yaml:"dimension"`
	Domain          string  `yaml:"domain"`
	ReferenceSystem string  `yaml:"reference_system"`
	Regime          string  `yaml:"regime"` // regular | irregular | fixed
	Extent          float64 `yaml:"extent"`
	Elements        int64   `yaml:"elements"`
	ChunkSize       int64   `yaml:"chunk_size"`
	Origin          float64 `yaml:"origin"`
	Direction       string  `yaml:"direction"`
}

// StorageMeasurementDef adds the storage datatype and no-data value.
type StorageMeasurementDef struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	DataType string  `yaml:"datatype"`
	NoData   float64 `yaml:"nodata"`
}

// DatasetDescriptor is the root structure of a dataset descriptor document,
// the input to `gridcat ingest`. It mirrors what a prepare script emits for
// one source artifact.
type DatasetDescriptor struct {
	GUID      string         `yaml:"guid"` // Optional; generated when empty
	Type      string         `yaml:"type"`
	Location  string         `yaml:"location"`
	Checksum  string         `yaml:"checksum"`
	SizeBytes int64          `yaml:"size_bytes"`
	Extents   []ExtentDef    `yaml:"extents"`
	Footprint yaml.Node      `yaml:"footprint"` // Inline GeoJSON geometry
	Metadata  map[string]any `yaml:"metadata"`  // Opaque vendor metadata
}

// ExtentDef is the dataset's coverage along one dimension.
type ExtentDef struct {
	Dimension string   `yaml:"dimension"`
	Min       float64  `yaml:"min"`
	Max       float64  `yaml:"max"`
	Index     *float64 `yaml:"index"` // Canonical index value for irregular axes
}

// LoadDefinitions parses a definition document.
func LoadDefinitions(r io.Reader) (*DefinitionFile, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	var file DefinitionFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}
	return &file, nil
}

// LoadDefinitionsFile parses a definition document from a path.
func LoadDefinitionsFile(path string) (*DefinitionFile, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is the user-selected definitions file
	if err != nil {
		return nil, fmt.Errorf("open definitions %s: %w", path, err)
	}
	defer f.Close()
	return LoadDefinitions(f)
}

// Apply registers every definition in the document in dependency order.
func (f *DefinitionFile) Apply(ctx context.Context, registry *RegistryService, types *TypeService) error {
	for _, def := range f.Dimensions {
		if err := registry.RegisterDimension(ctx, &domain.Dimension{Name: def.Name, Tag: def.Tag}); err != nil {
			return fmt.Errorf("dimension %s: %w", def.Tag, err)
		}
	}
	for _, def := range f.Domains {
		d := &domain.Domain{Name: def.Name, Tag: def.Tag, DimensionTags: def.Dimensions}
		if err := registry.RegisterDomain(ctx, d); err != nil {
			return fmt.Errorf("domain %s: %w", def.Tag, err)
		}
	}
	for _, def := range f.ReferenceSystems {
		rs := &domain.ReferenceSystem{
			Name:       def.Name,
			Unit:       def.Unit,
			Definition: def.Definition,
			Tag:        def.Tag,
		}
		for _, e := range def.Indexing {
			rs.Indexing = append(rs.Indexing, domain.IndexingEntry{
				ArrayIndex:    e.Index,
				Label:         e.Label,
				MeasurementID: e.Measurement,
			})
		}
		if err := registry.RegisterReferenceSystem(ctx, rs); err != nil {
			return fmt.Errorf("reference system %s: %w", def.Tag, err)
		}
	}
	for _, def := range f.DatasetTypes {
		dt, err := buildDatasetType(def)
		if err != nil {
			return fmt.Errorf("dataset type %s: %w", def.Name, err)
		}
		if err := types.DefineDatasetType(ctx, dt); err != nil {
			return fmt.Errorf("dataset type %s: %w", def.Name, err)
		}
	}
	for _, def := range f.StorageTypes {
		st, err := buildStorageType(def)
		if err != nil {
			return fmt.Errorf("storage type %s: %w", def.Name, err)
		}
		if err := types.DefineStorageType(ctx, st); err != nil {
			return fmt.Errorf("storage type %s: %w", def.Name, err)
		}
	}
	return nil
}

func buildDatasetType(def DatasetTypeDef) (*domain.DatasetType, error) {
	dt := &domain.DatasetType{Name: def.Name}
	for _, d := range def.Dimensions {
		direction, err := parseDirection(d.Direction)
		if err != nil {
			return nil, err
		}
		dt.Dims = append(dt.Dims, domain.DatasetDimension{
			DomainTag:          d.Domain,
			DimensionTag:       d.Dimension,
			ReferenceSystemTag: d.ReferenceSystem,
			Order:              d.Order,
			Direction:          direction,
		})
	}
	for _, m := range def.Measurements {
		dt.Measurements = append(dt.Measurements, domain.Measurement{
			ID: m.ID, Name: m.Name, DataType: m.DataType,
		})
	}
	return dt, nil
}

func buildStorageType(def StorageTypeDef) (*domain.StorageType, error) {
	st := &domain.StorageType{Name: def.Name, DatasetTypeName: def.DatasetType}
	for _, d := range def.Dimensions {
		direction, err := parseDirection(d.Direction)
		if err != nil {
			return nil, err
		}
		st.Dims = append(st.Dims, domain.StorageDimension{
			DimensionTag:       d.Dimension,
			DomainTag:          d.Domain,
			ReferenceSystemTag: d.ReferenceSystem,
			Regime:             domain.Regime(d.Regime),
			Extent:             d.Extent,
			Elements:           d.Elements,
			ChunkSize:          d.ChunkSize,
			Origin:             d.Origin,
			Direction:          direction,
		})
	}
	for _, m := range def.Measurements {
		st.Measurements = append(st.Measurements, domain.StorageMeasurement{
			ID: m.ID, Name: m.Name, DataType: m.DataType, NoDataValue: m.NoData,
		})
	}
	return st, nil
}

func parseDirection(s string) (domain.AxisDirection, error) {
	switch s {
	case "", string(domain.Ascending):
		return domain.Ascending, nil
	case string(domain.Descending):
		return domain.Descending, nil
	default:
		return "", fmt.Errorf("unknown axis direction %q", s)
	}
}

// LoadDatasetDescriptor parses a dataset descriptor document.
func LoadDatasetDescriptor(r io.Reader) (*DatasetDescriptor, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset descriptor: %w", err)
	}
	var desc DatasetDescriptor
	if err := yaml.Unmarshal(content, &desc); err != nil {
		return nil, fmt.Errorf("parse dataset descriptor: %w", err)
	}
	if desc.Type == "" {
		return nil, fmt.Errorf("dataset descriptor missing 'type'")
	}
	if desc.Location == "" {
		return nil, fmt.Errorf("dataset descriptor missing 'location'")
	}
	return &desc, nil
}

// LoadDatasetDescriptorFile parses a dataset descriptor from a path.
func LoadDatasetDescriptorFile(path string) (*DatasetDescriptor, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is the user-selected descriptor file
	if err != nil {
		return nil, fmt.Errorf("open dataset descriptor %s: %w", path, err)
	}
	defer f.Close()
	return LoadDatasetDescriptor(f)
}

// ToDataset converts the descriptor into a domain dataset.
func (d *DatasetDescriptor) ToDataset() (*domain.Dataset, error) {
	ds := &domain.Dataset{
		GUID:      d.GUID,
		TypeName:  d.Type,
		Location:  d.Location,
		Checksum:  d.Checksum,
		SizeBytes: d.SizeBytes,
	}
	for _, e := range d.Extents {
		ds.Extents = append(ds.Extents, domain.DimensionExtent{
			DimensionTag: e.Dimension,
			Min:          e.Min,
			Max:          e.Max,
			IndexValue:   e.Index,
		})
	}

	if !d.Footprint.IsZero() {
		// The footprint arrives as inline YAML; round-trip through a generic
		// map to JSON so the GeoJSON parser can consume it.
		var raw map[string]any
		if err := d.Footprint.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode footprint: %w", err)
		}
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("encode footprint: %w", err)
		}
		fp, err := domain.FootprintFromGeoJSON(data)
		if err != nil {
			return nil, err
		}
		ds.Footprint = fp
	}

	if len(d.Metadata) > 0 {
		data, err := json.Marshal(d.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		ds.Metadata = data
	}
	return ds, nil
}
