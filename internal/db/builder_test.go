package db

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestIndexBuilder_TagsAndNumerics(t *testing.T) {
	idx, err := NewIndex("code-idx", "neumann:code:").
		Tags("doc_id", "lang").
		Numerics("line_start", "line_end").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "code-idx" || idx.Prefix != "neumann:code:" {
		t.Errorf("index = %q on %q", idx.Name, idx.Prefix)
	}
	want := []IndexField{
		{Name: "doc_id", Type: IndexFieldTag},
		{Name: "lang", Type: IndexFieldTag},
		{Name: "line_start", Type: IndexFieldNumeric},
		{Name: "line_end", Type: IndexFieldNumeric},
	}
	if !slices.Equal(idx.Fields, want) {
		t.Errorf("fields = %+v, want %+v", idx.Fields, want)
	}
}

func TestCreateArgs(t *testing.T) {
	tests := []struct {
		name string
		b    *IndexBuilder
		want string
	}{
		{
			name: "defaults",
			b:    NewIndex("idx", "p:").Tags("doc_id").Numerics("n").Vector("vector", VectorSpec{Dim: 4}),
			want: "idx ON HASH PREFIX 1 p: SCHEMA doc_id TAG n NUMERIC vector VECTOR HNSW 6 TYPE FLOAT32 DIM 4 DISTANCE_METRIC COSINE",
		},
		{
			name: "hnsw params",
			b: NewIndex("idx", "p:").Vector("vector", VectorSpec{
				Dim: 1536, Distance: DistanceIP, Algorithm: VectorHNSW, M: 16, EFConstruct: 200,
			}),
			want: "idx ON HASH PREFIX 1 p: SCHEMA vector VECTOR HNSW 10 TYPE FLOAT32 DIM 1536 DISTANCE_METRIC IP M 16 EF_CONSTRUCTION 200",
		},
		{
			name: "flat ignores graph params",
			b:    NewIndex("idx", "p:").Vector("vector", VectorSpec{Dim: 3, Distance: DistanceL2, Algorithm: VectorFlat, M: 16}),
			want: "idx ON HASH PREFIX 1 p: SCHEMA vector VECTOR FLAT 6 TYPE FLOAT32 DIM 3 DISTANCE_METRIC L2",
		},
		{
			name: "list tag",
			b:    NewIndex("idx", "p:").ListTag("product_tags"),
			want: "idx ON HASH PREFIX 1 p: SCHEMA product_tags TAG SEPARATOR ,",
		},
		{
			name: "no prefix",
			b:    NewIndex("idx", "").Tags("doc_id"),
			want: "idx ON HASH SCHEMA doc_id TAG",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			idx, err := tc.b.Build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			args, err := idx.CreateArgs()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := strings.Join(args, " "); got != tc.want {
				t.Errorf("args = %q\nwant   %q", got, tc.want)
			}
		})
	}
}

func TestIndexBuilder_BuildReturnsCopy(t *testing.T) {
	b := NewIndex("idx", "p:").Tags("a")
	first, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.Tags("b")
	if len(first.Fields) != 1 {
		t.Errorf("built definition changed after builder reuse: %+v", first.Fields)
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		b       *IndexBuilder
		wantErr string
	}{
		{"empty name", NewIndex("", "p:").Tags("a"), "name is required"},
		{"bad name", NewIndex("bad name", "p:").Tags("a"), "invalid characters"},
		{"no fields", NewIndex("idx", "p:"), "at least one field"},
		{"empty field", NewIndex("idx", "p:").Tags(""), "field name is required"},
		{"duplicate", NewIndex("idx", "p:").Tags("a").Numerics("a"), "duplicate field name"},
		{"zero dim", NewIndex("idx", "p:").Vector("v", VectorSpec{}), "positive DIM"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.b.Build()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Build() error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestIndexDefinition_CreateArgsValidates(t *testing.T) {
	idx := &IndexDefinition{Name: "idx", Fields: []IndexField{{Name: "v", Type: IndexFieldVector}}}
	if _, err := idx.CreateArgs(); err == nil {
		t.Fatal("expected vector field without a spec to be rejected")
	}
	if got := idx.String(); !strings.Contains(got, "invalid") {
		t.Errorf("String() = %q, want invalid marker", got)
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx, err := NewIndex("idx", "p:").Tags("doc_id").Numerics("n").Vector("vector", VectorSpec{Dim: 4}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "FT.CREATE idx ON HASH PREFIX 1 p: SCHEMA doc_id TAG n NUMERIC vector VECTOR HNSW 6 TYPE FLOAT32 DIM 4 DISTANCE_METRIC COSINE"
	if got := idx.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseAlgorithm(t *testing.T) {
	for in, want := range map[string]VectorAlgorithm{"": VectorHNSW, "hnsw": VectorHNSW, "FLAT": VectorFlat} {
		got, ok := ParseAlgorithm(in)
		if !ok || got != want {
			t.Errorf("ParseAlgorithm(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseAlgorithm("ivf"); ok {
		t.Error("expected unknown algorithm to be rejected")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(OpGet, "k", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
	cause := errors.New("boom")
	err := Wrap(OpGet, "k", cause)
	if err.Error() != "GET k: boom" {
		t.Errorf("message = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("cause not unwrapped")
	}
	if got := Wrap(OpDel, "", cause).Error(); got != "DEL: boom" {
		t.Errorf("message without target = %q", got)
	}
}

func TestParseDistance(t *testing.T) {
	for in, want := range map[string]DistanceMetric{"cosine": DistanceCosine, "L2": DistanceL2, "ip": DistanceIP} {
		got, ok := ParseDistance(in)
		if !ok || got != want {
			t.Errorf("ParseDistance(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseDistance("manhattan"); ok {
		t.Error("expected unknown metric to be rejected")
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name    string
		matches []TagMatch
		want    string
	}{
		{"none", nil, "*"},
		{"empty values", []TagMatch{{Field: "doc_id"}}, "*"},
		{"single", []TagMatch{{Field: "lang", Values: []string{"go"}}}, "@lang:{go}"},
		{"any of", []TagMatch{{Field: "lang", Values: []string{"go", "", "py"}}}, "@lang:{go | py}"},
		{"and", []TagMatch{
			{Field: "doc_id", Values: []string{"a"}},
			{Field: "lang", Values: []string{"go"}},
		}, "@doc_id:{a} @lang:{go}"},
		{"escaped", []TagMatch{{Field: "doc_id", Values: []string{"src__main.go"}}}, `@doc_id:{src__main\.go}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildQuery(tc.matches); got != tc.want {
				t.Errorf("BuildQuery() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEscapeTag(t *testing.T) {
	got := EscapeTag("a b-c/d.e")
	want := `a\ b\-c\/d\.e`
	if got != want {
		t.Errorf("EscapeTag() = %q, want %q", got, want)
	}
}

func TestVectorCodec(t *testing.T) {
	in := []float32{0.5, -1, 3.25}
	out, err := DecodeVector(EncodeVector(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}
