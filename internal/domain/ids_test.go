package domain

import (
	"errors"
	"testing"
)

func TestMakeDocID(t *testing.T) {
	tests := []struct {
		name string
		path string
		root string
		want string
	}{
		{"relative to root", "a/b c.md", "a", "b_c.md"},
		{"no root", "docs/hello world.py", "", "docs__hello_world.py"},
		{"absolute drops anchor", "/srv/in/x.go", "", "srv__in__x.go"},
		{"nested under root", "/in/pkg/sub dir/f.go", "/in", "pkg__sub_dir__f.go"},
		{"dot segments", "./a/./b.txt", "", "a__b.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MakeDocID(tt.path, tt.root)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("MakeDocID(%q, %q) = %q, want %q", tt.path, tt.root, got, tt.want)
			}
		})
	}
}

func TestMakeDocID_OutsideRoot(t *testing.T) {
	_, err := MakeDocID("/other/x.go", "/in")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestChunkID(t *testing.T) {
	if got := ChunkID("docs__a.py", 1, 180); got != "docs__a.py#L1-180" {
		t.Errorf("ChunkID() = %q", got)
	}
}
