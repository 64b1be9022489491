package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/domain/search/mode"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("", "hello", Filters{}, DefaultK, DefaultSemanticWeight, DefaultLexicalWeight)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Mode() != mode.Hybrid {
		t.Errorf("Mode() = %q, want hybrid (default)", r.Mode())
	}
	if r.K() != DefaultK {
		t.Errorf("K() = %d", r.K())
	}
	ws, wl := r.Weights()
	if ws != 0.6 || wl != 0.4 {
		t.Errorf("Weights() = %f, %f", ws, wl)
	}
	if !r.HasSemantic() || r.HasLexical() {
		t.Errorf("channels: sem=%v lex=%v", r.HasSemantic(), r.HasLexical())
	}
}

func TestNew_NormalizesFilters(t *testing.T) {
	r, err := New(mode.Lexical, "ignored", Filters{
		MustTerms: []string{" auth ", "", "   "},
		Regexes:   []string{"", "x+"},
		PathLike:  "  src/ ",
	}, 5, 0.6, 0.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := r.Filters()
	if len(f.MustTerms) != 1 || f.MustTerms[0] != "auth" {
		t.Errorf("MustTerms = %q", f.MustTerms)
	}
	if len(f.Regexes) != 1 || f.PathLike != "src/" {
		t.Errorf("filters = %+v", f)
	}
	if r.Query() != "" || r.HasSemantic() {
		t.Error("lexical mode must drop the query")
	}
}

func TestNew_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		m       mode.Mode
		query   string
		filters Filters
		k       int
		ws, wl  float64
	}{
		{"invalid mode", "geo", "q", Filters{}, 5, 0.6, 0.4},
		{"lexical without filters", mode.Lexical, "q", Filters{MustTerms: []string{" "}}, 5, 0.6, 0.4},
		{"semantic without query", mode.Semantic, "  ", Filters{}, 5, 0.6, 0.4},
		{"zero k", mode.Hybrid, "q", Filters{}, 0, 0.6, 0.4},
		{"negative k", mode.Hybrid, "q", Filters{}, -1, 0.6, 0.4},
		{"negative weight", mode.Hybrid, "q", Filters{}, 5, -0.1, 0.4},
		{"zero weights", mode.Hybrid, "q", Filters{}, 5, 0, 0},
		{"long query", mode.Hybrid, strings.Repeat("a", MaxQueryLength+1), Filters{}, 5, 0.6, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.m, tt.query, tt.filters, tt.k, tt.ws, tt.wl)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNew_ClampsK(t *testing.T) {
	r, err := New(mode.Semantic, "q", Filters{}, MaxK+100, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.K() != MaxK {
		t.Errorf("K() = %d, want %d", r.K(), MaxK)
	}
}

func TestNew_HybridDegenerate(t *testing.T) {
	r, err := New(mode.Hybrid, "", Filters{}, 5, 0.6, 0.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.HasSemantic() || r.HasLexical() {
		t.Error("no channel should be active")
	}
}

func TestLexicalQuery_DropsInvalid(t *testing.T) {
	r, err := New(mode.Lexical, "", Filters{Regexes: []string{"[", "ok"}}, 5, 0.6, 0.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q, invalid := r.LexicalQuery()
	if len(q.Patterns) != 1 || len(invalid) != 1 || invalid[0] != "[" {
		t.Errorf("patterns = %v, invalid = %v", q.Patterns, invalid)
	}
}
