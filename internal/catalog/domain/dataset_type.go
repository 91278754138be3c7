package domain

import "time"

// Measurement binds a physical variable or band to a dataset type and its
// on-disk datatype, e.g. ("band_1", "int16").
type Measurement struct {
	ID       string
	Name     string
	DataType string
}

// DatasetDimension declares that a dimension applies to a dataset type,
// through which domain, against which reference system, and in which storage
// order and direction.
type DatasetDimension struct {
	DomainTag          string
	DimensionTag       string
	ReferenceSystemTag string

	// Order is the serialization position of the axis in on-disk arrays.
	// It is a layout detail only; indexing math never consults it.
	Order int

	Direction AxisDirection
}

// DatasetType is a category of source data, e.g. Level-1 imagery. It declares
// which dimensions apply and which measurements the data carries.
type DatasetType struct {
	ID        int64
	Name      string
	CreatedAt time.Time

	Dims         []DatasetDimension
	Measurements []Measurement
}

// Dimension returns the binding for the given dimension tag, or nil.
func (dt *DatasetType) Dimension(tag string) *DatasetDimension {
	for i := range dt.Dims {
		if dt.Dims[i].DimensionTag == tag {
			return &dt.Dims[i]
		}
	}
	return nil
}

// DomainTags returns the distinct domain tags the type declares.
func (dt *DatasetType) DomainTags() []string {
	seen := make(map[string]bool, len(dt.Dims))
	var tags []string
	for _, d := range dt.Dims {
		if !seen[d.DomainTag] {
			seen[d.DomainTag] = true
			tags = append(tags, d.DomainTag)
		}
	}
	return tags
}

// Validate checks structural consistency of the type definition.
func (dt *DatasetType) Validate() error {
	if dt.Name == "" {
		return &ConflictingDefinitionError{Entity: "dataset type", Tag: dt.Name, Detail: "empty name"}
	}
	seen := make(map[string]bool, len(dt.Dims))
	for _, d := range dt.Dims {
		if d.DimensionTag == "" || d.DomainTag == "" || d.ReferenceSystemTag == "" {
			return &ConflictingDefinitionError{
				Entity: "dataset type",
				Tag:    dt.Name,
				Detail: "dimension binding missing domain, dimension, or reference system",
			}
		}
		if seen[d.DimensionTag] {
			return &ConflictingDefinitionError{
				Entity: "dataset type",
				Tag:    dt.Name,
				Detail: "dimension " + d.DimensionTag + " bound twice",
			}
		}
		seen[d.DimensionTag] = true
		if !d.Direction.IsValid() {
			return &ConflictingDefinitionError{
				Entity: "dataset type",
				Tag:    dt.Name,
				Detail: "invalid axis direction for " + d.DimensionTag,
			}
		}
	}
	return nil
}
