// Package summary parses per-document summary files: YAML front matter
// followed by a markdown body.
package summary

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/meta"
)

// FileSuffix marks summary files next to rendered documents.
const FileSuffix = ".summary.md"

// Body word bounds enforced by Validate.
const (
	MinWords = 200
	MaxWords = 400
)

const (
	keyLanguage = "language"
	delimiter   = "---"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Summary is a parsed summary file.
type Summary struct {
	front map[string]any
	body  string
}

// Parse splits data into front matter and body. A file without front
// matter is all body.
func Parse(data []byte) (*Summary, error) {
	text := string(bytes.TrimPrefix(data, []byte("\ufeff")))
	s := &Summary{front: map[string]any{}}

	if !strings.HasPrefix(text, delimiter+"\n") && !strings.HasPrefix(text, delimiter+"\r\n") {
		s.body = strings.TrimSpace(text)
		return s, nil
	}

	rest := text[strings.Index(text, "\n")+1:]
	head, body, ok := cutDelimiter(rest)
	if !ok {
		return nil, fmt.Errorf("%w: unterminated front matter", domain.ErrValidation)
	}
	if err := yaml.Unmarshal([]byte(head), &s.front); err != nil {
		return nil, fmt.Errorf("%w: front matter: %w", domain.ErrValidation, err)
	}
	if s.front == nil {
		s.front = map[string]any{}
	}
	s.body = strings.TrimSpace(body)
	return s, nil
}

// cutDelimiter finds the closing "---" line.
func cutDelimiter(s string) (head, body string, ok bool) {
	offset := 0
	for offset <= len(s) {
		line, _, _ := strings.Cut(s[offset:], "\n")
		if strings.TrimRight(line, "\r") == delimiter {
			end := min(len(s), offset+len(line)+1)
			return s[:offset], s[end:], true
		}
		if offset+len(line) >= len(s) {
			break
		}
		offset += len(line) + 1
	}
	return "", "", false
}

// Body returns the markdown body.
func (s *Summary) Body() string { return s.body }

// Words counts whitespace-separated words of the body.
func (s *Summary) Words() int { return len(strings.Fields(s.body)) }

// Validate checks the required front matter keys and the body length.
func (s *Summary) Validate() error {
	for _, k := range []string{meta.KeyDocID, meta.KeySourcePath, keyLanguage} {
		if s.scalar(k) == "" && (k != keyLanguage || s.scalar(meta.KeyLang) == "") {
			return fmt.Errorf("%w: front matter %s is required", domain.ErrValidation, k)
		}
	}
	if n := s.Words(); n < MinWords || n > MaxWords {
		return fmt.Errorf("%w: summary body must be %d-%d words (got %d)",
			domain.ErrValidation, MinWords, MaxWords, n)
	}
	return nil
}

// Record converts the front matter to index metadata. docID and pageURIs
// override the front matter; "language" becomes "lang" and last_updated is
// normalised to RFC3339 UTC, defaulting to now.
func (s *Summary) Record(docID string, pageURIs []string, now time.Time) (meta.Record, error) {
	updated, err := s.lastUpdated(now)
	if err != nil {
		return meta.Record{}, err
	}

	lang := s.scalar(meta.KeyLang)
	if lang == "" {
		lang = s.scalar(keyLanguage)
	}

	r := meta.Record{
		DocID:            docID,
		SourcePath:       s.scalar(meta.KeySourcePath),
		Lang:             lang,
		LastUpdated:      updated,
		ProductTags:      meta.ParseList(s.front[meta.KeyProductTags]),
		KeyTopics:        meta.ParseList(s.front[meta.KeyKeyTopics]),
		APISymbols:       meta.ParseList(s.front[meta.KeyAPISymbols]),
		RelatedFiles:     meta.ParseList(s.front[meta.KeyRelatedFiles]),
		SuggestedQueries: meta.ParseList(s.front[meta.KeySuggestedQueries]),
		PageURIs:         pageURIs,
	}
	if r.DocID == "" {
		r.DocID = s.scalar(meta.KeyDocID)
	}
	if r.PageURIs == nil {
		r.PageURIs = []string{}
	}

	for k, v := range meta.Flatten(s.front) {
		if k == keyLanguage || meta.IsSchemaKey(k) || v == nil {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[k] = fmt.Sprint(v)
	}
	return r, nil
}

func (s *Summary) lastUpdated(now time.Time) (string, error) {
	switch v := s.front[meta.KeyLastUpdated].(type) {
	case nil:
		return now.UTC().Format(time.RFC3339), nil
	case time.Time:
		return v.UTC().Format(time.RFC3339), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return now.UTC().Format(time.RFC3339), nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return t.UTC().Format(time.RFC3339), nil
			}
		}
		return "", fmt.Errorf("%w: last_updated %q is not a timestamp", domain.ErrValidation, v)
	default:
		return "", fmt.Errorf("%w: last_updated has unsupported type %T", domain.ErrValidation, v)
	}
}

func (s *Summary) scalar(key string) string {
	switch v := s.front[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return fmt.Sprint(v)
	}
}
