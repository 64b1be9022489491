// Package meta converts document metadata between its typed form and the
// flat scalar form accepted by the index, where list fields are stored as
// comma-joined strings.
package meta

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Metadata keys.
const (
	KeyDocID            = "doc_id"
	KeySourcePath       = "source_path"
	KeyLang             = "lang"
	KeyLineStart        = "line_start"
	KeyLineEnd          = "line_end"
	KeyLastUpdated      = "last_updated"
	KeyProductTags      = "product_tags"
	KeyKeyTopics        = "key_topics"
	KeyAPISymbols       = "api_symbols"
	KeyRelatedFiles     = "related_files"
	KeySuggestedQueries = "suggested_queries"
	KeyPageURIs         = "page_uris"
)

// ListKeys are the metadata fields holding lists of strings.
var ListKeys = []string{
	KeyProductTags,
	KeyKeyTopics,
	KeyAPISymbols,
	KeyRelatedFiles,
	KeySuggestedQueries,
	KeyPageURIs,
}

// IsListKey reports whether key holds a list.
func IsListKey(key string) bool {
	for _, k := range ListKeys {
		if k == key {
			return true
		}
	}
	return false
}

// IsSchemaKey reports whether key is part of the fixed Record schema.
func IsSchemaKey(key string) bool {
	switch key {
	case KeyDocID, KeySourcePath, KeyLang, KeyLineStart, KeyLineEnd, KeyLastUpdated:
		return true
	}
	return IsListKey(key)
}

// Flatten converts a metadata map to storage form: lists become comma-joined
// strings (empty list to ""), primitives pass through, anything else is
// stringified. A nil map yields an empty map.
func Flatten(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = flattenValue(v)
	}
	return out
}

func flattenValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return x
	case []string:
		return JoinList(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ",")
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		if b, err := json.Marshal(x); err == nil {
			return string(b)
		}
		return fmt.Sprint(x)
	}
}

// JoinList joins a list for storage.
func JoinList(list []string) string {
	return strings.Join(list, ",")
}

// ParseList hydrates a stored list. A comma-separated string or a list is
// trimmed, stripped of empties and deduplicated preserving order; any other
// input yields an empty list.
func ParseList(v any) []string {
	switch x := v.(type) {
	case string:
		return dedupe(strings.Split(x, ","))
	case []string:
		return dedupe(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				continue
			}
			parts = append(parts, s)
		}
		return dedupe(parts)
	default:
		return []string{}
	}
}

func dedupe(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// MergeLists returns the order-preserving deduplicated union of lists.
func MergeLists(lists ...[]string) []string {
	var all []string
	for _, l := range lists {
		all = append(all, l...)
	}
	return dedupe(all)
}
