package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// problemGlob selects problem files below a directory argument.
const problemGlob = "**/*.{yaml,yml}"

// ResolveSources expands problem file arguments. A glob pattern (with **
// support) becomes its sorted matches and must match at least one file. A
// directory becomes every YAML file below it. Any other argument is kept
// as given so that a missing file is reported by the conversion itself.
// Duplicates are dropped; the first occurrence wins.
func ResolveSources(patterns []string) ([]string, error) {
	var resolved []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := filepath.Clean(p)
		if !seen[key] {
			seen[key] = true
			resolved = append(resolved, p)
		}
	}

	for _, pattern := range patterns {
		matches, err := resolvePattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", pattern, err)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return resolved, nil
}

func resolvePattern(pattern string) ([]string, error) {
	if info, err := os.Stat(pattern); err == nil && info.IsDir() {
		matches, err := doublestar.FilepathGlob(filepath.Join(pattern, problemGlob), doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no problem files in directory")
		}
		sort.Strings(matches)
		return matches, nil
	}

	if !containsGlob(pattern) {
		return []string{pattern}, nil
	}
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pattern matched no files")
	}
	sort.Strings(matches)
	return matches, nil
}

func containsGlob(pattern string) bool {
	for _, r := range pattern {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
