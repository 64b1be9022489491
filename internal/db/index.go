package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StorageHash is the only document layout the indexes use.
const StorageHash = "HASH"

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
)

// ParseDistance maps a config value such as "cosine" onto a DistanceMetric.
func ParseDistance(s string) (DistanceMetric, bool) {
	switch d := DistanceMetric(strings.ToUpper(s)); d {
	case DistanceL2, DistanceIP, DistanceCosine:
		return d, true
	}
	return "", false
}

// VectorAlgorithm selects the indexing algorithm for vector fields in FT.CREATE.
type VectorAlgorithm string

const (
	// VectorHNSW uses the HNSW algorithm.
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat uses the FLAT (brute-force) algorithm.
	VectorFlat VectorAlgorithm = "FLAT"
)

// ParseAlgorithm maps a config value onto a VectorAlgorithm. Empty selects HNSW.
func ParseAlgorithm(s string) (VectorAlgorithm, bool) {
	switch a := VectorAlgorithm(strings.ToUpper(s)); a {
	case "":
		return VectorHNSW, true
	case VectorHNSW, VectorFlat:
		return a, true
	}
	return "", false
}

// VectorSpec describes the embedding column of a collection.
type VectorSpec struct {
	Dim       int
	Distance  DistanceMetric
	Algorithm VectorAlgorithm
	// HNSW graph parameters; zero keeps the server default.
	M           int
	EFConstruct int
}

func (v *VectorSpec) args() []string {
	algo := v.Algorithm
	if algo == "" {
		algo = VectorHNSW
	}
	distance := v.Distance
	if distance == "" {
		distance = DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(v.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	if algo == VectorHNSW {
		if v.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(v.M))
		}
		if v.EFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(v.EFConstruct))
		}
	}
	return append([]string{"VECTOR", string(algo), strconv.Itoa(len(attrs))}, attrs...)
}

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldNumeric is a numeric field (line numbers).
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is an exact-match field (doc id, language, list metadata).
	IndexFieldTag
	// IndexFieldVector is the embedding field of a collection.
	IndexFieldVector
)

// IndexField is one column of a collection index.
type IndexField struct {
	Name string
	Type IndexFieldType
	// Separator splits list-valued TAG fields stored comma-joined.
	Separator string
	Vector    *VectorSpec
}

func (f *IndexField) args() []string {
	switch f.Type {
	case IndexFieldNumeric:
		return []string{f.Name, "NUMERIC"}
	case IndexFieldTag:
		if f.Separator != "" {
			return []string{f.Name, "TAG", "SEPARATOR", f.Separator}
		}
		return []string{f.Name, "TAG"}
	default:
		return append([]string{f.Name}, f.Vector.args()...)
	}
}

// IndexDefinition is the FT index over one collection's hashes.
type IndexDefinition struct {
	Name   string
	Prefix string
	Fields []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i))
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + f.Name)
		}
		seen[f.Name] = true

		switch f.Type {
		case IndexFieldNumeric, IndexFieldTag:
		case IndexFieldVector:
			if f.Vector == nil || f.Vector.Dim <= 0 {
				return fmt.Errorf("vector field %s requires positive DIM", f.Name)
			}
		default:
			return fmt.Errorf("field %s has unknown type %d", f.Name, f.Type)
		}
	}
	return nil
}

// CreateArgs renders the FT.CREATE arguments that follow the command name.
func (idx *IndexDefinition) CreateArgs() ([]string, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}
	args := []string{idx.Name, "ON", StorageHash}
	if idx.Prefix != "" {
		args = append(args, "PREFIX", "1", idx.Prefix)
	}
	args = append(args, "SCHEMA")
	for i := range idx.Fields {
		args = append(args, idx.Fields[i].args()...)
	}
	return args, nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
