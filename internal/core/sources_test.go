package core

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("name: p\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveSources(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "nested", "b.yml")
	c := filepath.Join(dir, "nested", "deep", "c.yaml")
	touch(t, a)
	touch(t, b)
	touch(t, c)
	touch(t, filepath.Join(dir, "notes.txt"))

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"plain file", []string{a}, []string{a}},
		{"missing file kept", []string{filepath.Join(dir, "missing.yaml")}, []string{filepath.Join(dir, "missing.yaml")}},
		{"single star", []string{filepath.Join(dir, "*.yaml")}, []string{a}},
		{"double star", []string{filepath.Join(dir, "**", "*.yaml")}, []string{a, c}},
		{"directory", []string{dir}, []string{a, b, c}},
		{"duplicates dropped", []string{a, filepath.Join(dir, "*.yaml")}, []string{a}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSources(tt.patterns)
			if err != nil {
				t.Fatalf("ResolveSources() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveSources() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveSources_NoMatches(t *testing.T) {
	dir := t.TempDir()
	if _, err := ResolveSources([]string{filepath.Join(dir, "*.yaml")}); err == nil {
		t.Error("expected error for a pattern without matches")
	}
	if _, err := ResolveSources([]string{dir}); err == nil {
		t.Error("expected error for a directory without problem files")
	}
}

func TestResolveSources_BadPattern(t *testing.T) {
	if _, err := ResolveSources([]string{"problems/[a-"}); err == nil {
		t.Error("expected error for a malformed pattern")
	}
}
