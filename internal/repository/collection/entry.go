package collection

import (
	"github.com/kailas-cloud/neumann/internal/db"
	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/meta"
)

// ReturnFields lists the hash fields read back from searches. The vector
// blob is left out.
var ReturnFields = append([]string{
	FieldText,
	meta.KeyDocID,
	meta.KeySourcePath,
	meta.KeyLang,
	meta.KeyLineStart,
	meta.KeyLineEnd,
	meta.KeyLastUpdated,
}, meta.ListKeys...)

// EncodeEntry flattens an entry into hash fields.
func EncodeEntry(e *domain.Entry) map[string]string {
	fields := e.Metadata.Fields()
	fields[FieldText] = e.Text
	if len(e.Vector) > 0 {
		fields[FieldVector] = string(db.EncodeVector(e.Vector))
	}
	return fields
}

// DecodeEntry hydrates an entry from hash fields of a record in collection.
func DecodeEntry(collection, key string, fields map[string]string) domain.Entry {
	e := domain.Entry{ID: IDFromKey(collection, key)}

	rest := make(map[string]string, len(fields))
	for k, v := range fields {
		switch k {
		case FieldText:
			e.Text = v
		case FieldVector:
			if vec, err := db.DecodeVector([]byte(v)); err == nil {
				e.Vector = vec
			}
		default:
			rest[k] = v
		}
	}
	e.Metadata = meta.FromFields(rest)
	return e
}
