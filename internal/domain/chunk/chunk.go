// Package chunk splits source text into overlapping, byte-bounded line windows.
package chunk

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/neumann/internal/domain"
)

// MaxBytes is the hard per-chunk ceiling imposed by the index document size limit.
const MaxBytes = 16384

// Default window parameters.
const (
	DefaultLinesPerChunk = 180
	DefaultOverlap       = 30
)

// Chunk is a contiguous slice of a document's lines.
type Chunk struct {
	Text      string
	LineStart int // 1-indexed, inclusive
	LineEnd   int // 1-indexed, inclusive
	PageURIs  []string
}

// ValidateParams checks window parameters: perChunk > 0 and 0 <= overlap < perChunk.
func ValidateParams(perChunk, overlap int) error {
	switch {
	case perChunk <= 0:
		return fmt.Errorf("%w: per_chunk must be positive", domain.ErrValidation)
	case overlap < 0:
		return fmt.Errorf("%w: overlap must be non-negative", domain.ErrValidation)
	case overlap >= perChunk:
		return fmt.Errorf("%w: overlap must be less than per_chunk", domain.ErrValidation)
	}
	return nil
}

// Split walks a window of perChunk lines over text, advancing by the window
// size minus overlap. Windows over MaxBytes are shrunk from the end; a single
// line over MaxBytes is cut into byte-safe segments sharing its line number.
// Every chunk carries a copy of pageURIs.
func Split(text string, pageURIs []string, perChunk, overlap int) ([]Chunk, error) {
	if err := ValidateParams(perChunk, overlap); err != nil {
		return nil, err
	}
	pageURIs = slices.Clone(pageURIs)

	lines := SplitLines(text)
	n := len(lines)
	if n == 0 {
		return nil, nil
	}

	var chunks []Chunk
	start := 0
	for start < n {
		end := min(n, start+perChunk)

		size := 0
		for _, l := range lines[start:end] {
			size += len(l)
		}
		for size > MaxBytes && end > start+1 {
			end--
			size -= len(lines[end])
		}

		if size > MaxBytes {
			for _, seg := range splitByBytes(lines[start], MaxBytes) {
				chunks = append(chunks, Chunk{
					Text:      seg,
					LineStart: start + 1,
					LineEnd:   start + 1,
					PageURIs:  pageURIs,
				})
			}
			start++
			continue
		}

		chunks = append(chunks, Chunk{
			Text:      strings.Join(lines[start:end], ""),
			LineStart: start + 1,
			LineEnd:   end,
			PageURIs:  pageURIs,
		})
		if end >= n {
			break
		}
		start += max(1, end-start-overlap)
	}
	return chunks, nil
}

// SplitLines splits s into physical lines, keeping each line's terminator.
// "\r\n" ends a line as one terminator; so does any single rune for which
// isLineBreak holds.
func SplitLines(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexFunc(s, isLineBreak)
		if i < 0 {
			lines = append(lines, s)
			break
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		j := i + size
		if r == '\r' && j < len(s) && s[j] == '\n' {
			j++
		}
		lines = append(lines, s[:j])
		s = s[j:]
	}
	return lines
}

// isLineBreak reports the line boundaries of the universal-newlines model:
// LF, CR, VT, FF, the FS/GS/RS separators, NEL and the Unicode line and
// paragraph separators.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// splitByBytes cuts s into segments of at most limit bytes without
// bisecting a UTF-8 sequence.
func splitByBytes(s string, limit int) []string {
	var out []string
	for i := 0; i < len(s); {
		j := min(len(s), i+limit)
		if j < len(s) {
			// back off while the cut lands inside a multi-byte sequence
			for j > i && isContinuation(s[j]) {
				j--
			}
			if j == i {
				j = min(len(s), i+limit)
			}
		}
		out = append(out, s[i:j])
		i = j
	}
	return out
}

func isContinuation(b byte) bool { return b&0xC0 == 0x80 }
