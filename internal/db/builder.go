package db

import "strings"

// IndexBuilder assembles the index of one collection: every hash under a
// single key prefix, exact-match tags, numeric line columns and at most one
// embedding column.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts an index named name over the hashes whose keys start with prefix.
func NewIndex(name, prefix string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name, Prefix: prefix}}
}

// Tags adds exact-match TAG columns.
func (b *IndexBuilder) Tags(names ...string) *IndexBuilder {
	for _, n := range names {
		b.def.Fields = append(b.def.Fields, IndexField{Name: n, Type: IndexFieldTag})
	}
	return b
}

// ListTag adds a TAG column over a comma-joined list, matching any element.
func (b *IndexBuilder) ListTag(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: IndexFieldTag, Separator: ","})
	return b
}

// Numerics adds NUMERIC columns.
func (b *IndexBuilder) Numerics(names ...string) *IndexBuilder {
	for _, n := range names {
		b.def.Fields = append(b.def.Fields, IndexField{Name: n, Type: IndexFieldNumeric})
	}
	return b
}

// Vector adds the embedding column.
func (b *IndexBuilder) Vector(name string, spec VectorSpec) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: IndexFieldVector, Vector: &spec})
	return b
}

// Build validates and returns a copy of the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	def.Fields = append([]IndexField(nil), b.def.Fields...)
	return &def, nil
}

// String renders the FT.CREATE command for logs.
func (idx *IndexDefinition) String() string {
	args, err := idx.CreateArgs()
	if err != nil {
		return "FT.CREATE " + idx.Name + " (invalid: " + err.Error() + ")"
	}
	return "FT.CREATE " + strings.Join(args, " ")
}
