package chunk

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ManifestName is the per-document page manifest written by the renderer.
const ManifestName = "pages.jsonl"

// Page is one rendered page image listed in a manifest.
type Page struct {
	DocID      string `json:"doc_id,omitempty"`
	Page       int    `json:"page"`
	URI        string `json:"uri"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Bytes      *int64 `json:"bytes,omitempty"`
	SHA256     string `json:"sha256,omitempty"`
	SourceFile string `json:"source_file,omitempty"`
}

// LoadPages reads a pages.jsonl manifest ordered by page number. Blank,
// malformed and URI-less rows are skipped.
func LoadPages(path string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	var pages []Page
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var p Page
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			continue
		}
		if p.URI == "" {
			continue
		}
		pages = append(pages, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Page < pages[j].Page })
	return pages, nil
}

// LoadPageURIs returns the manifest's page URIs ordered by page number,
// deduplicated. A missing or unreadable manifest yields an empty list.
func LoadPageURIs(path string) []string {
	pages, err := LoadPages(path)
	if err != nil {
		return []string{}
	}

	out := make([]string, 0, len(pages))
	seen := make(map[string]struct{}, len(pages))
	for _, p := range pages {
		if _, ok := seen[p.URI]; ok {
			continue
		}
		seen[p.URI] = struct{}{}
		out = append(out, p.URI)
	}
	return out
}

// ResolveURI prefixes root-relative page URIs with baseURL. Absolute URIs
// and an empty baseURL leave uri unchanged.
func ResolveURI(baseURL, uri string) string {
	if baseURL == "" || !strings.HasPrefix(uri, "/") || strings.HasPrefix(uri, "//") {
		return uri
	}
	return strings.TrimRight(baseURL, "/") + uri
}

// SplitFile chunks text and attaches the page URIs found in manifestPath.
func SplitFile(text, manifestPath string, perChunk, overlap int) ([]Chunk, error) {
	if err := ValidateParams(perChunk, overlap); err != nil {
		return nil, err
	}
	return Split(text, LoadPageURIs(manifestPath), perChunk, overlap)
}
