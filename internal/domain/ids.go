package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MakeDocID derives the canonical document identifier from a file path.
// With a non-empty root the path is made relative to it first. Path parts
// have spaces replaced by underscores and are joined with "__".
func MakeDocID(path, root string) (string, error) {
	p := path
	if root != "" {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return "", fmt.Errorf("%w: %s is not under %s", ErrValidation, path, root)
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: %s is not under %s", ErrValidation, path, root)
		}
		p = rel
	}
	p = strings.TrimPrefix(p, filepath.VolumeName(p))

	var parts []string
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == "" || part == "." {
			continue
		}
		parts = append(parts, strings.ReplaceAll(part, " ", "_"))
	}
	return strings.Join(parts, "__"), nil
}

// ChunkID returns the storage key of a chunk: {doc_id}#L{start}-{end}.
func ChunkID(docID string, lineStart, lineEnd int) string {
	return fmt.Sprintf("%s#L%d-%d", docID, lineStart, lineEnd)
}
