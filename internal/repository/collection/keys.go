package collection

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/neumann/internal/domain"
)

// Key patterns: neumann:{collection}:{id} for records, neumann:{collection}:idx for the FT index.

// IndexName returns the FT index name of a collection.
func IndexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, collection)
}

// Prefix returns the key prefix every record of a collection shares.
func Prefix(collection string) string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, collection)
}

// Key returns the record key of id within a collection.
func Key(collection, id string) string {
	return Prefix(collection) + id
}

// IDFromKey strips the collection prefix from a record key.
func IDFromKey(collection, key string) string {
	return strings.TrimPrefix(key, Prefix(collection))
}
