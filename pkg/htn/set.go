package htn

import (
	"slices"
	"strings"
)

// Keyed is implemented by every entity: Key is its structural identity.
type Keyed interface {
	Key() string
}

// Set is a set of entities keyed by structural identity. Items iterates in
// key order so everything derived from a Set is reproducible. The zero value
// is an empty set ready for use.
type Set[T Keyed] struct {
	items map[string]T
}

// NewSet returns a set holding items.
func NewSet[T Keyed](items ...T) Set[T] {
	s := Set[T]{items: make(map[string]T, len(items))}
	s.Add(items...)
	return s
}

// Add inserts items, keeping the first of any structurally equal pair.
func (s *Set[T]) Add(items ...T) {
	if s.items == nil {
		s.items = make(map[string]T, len(items))
	}
	for _, it := range items {
		k := it.Key()
		if _, ok := s.items[k]; !ok {
			s.items[k] = it
		}
	}
}

// Remove deletes item if present.
func (s *Set[T]) Remove(item T) {
	delete(s.items, item.Key())
}

// Merge adds every element of other to s.
func (s *Set[T]) Merge(other Set[T]) {
	for _, it := range other.Items() {
		s.Add(it)
	}
}

func (s Set[T]) Has(item T) bool {
	_, ok := s.items[item.Key()]
	return ok
}

func (s Set[T]) Len() int { return len(s.items) }

// Items returns the elements sorted by key.
func (s Set[T]) Items() []T {
	keys := s.keys()
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.items[k])
	}
	return out
}

func (s Set[T]) keys() []string {
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Clone returns an independent copy.
func (s Set[T]) Clone() Set[T] {
	out := Set[T]{items: make(map[string]T, len(s.items))}
	for k, v := range s.items {
		out.items[k] = v
	}
	return out
}

// Union returns a new set holding the elements of s and other.
func (s Set[T]) Union(other Set[T]) Set[T] {
	out := s.Clone()
	out.Merge(other)
	return out
}

// Intersect returns the elements of s also in other.
func (s Set[T]) Intersect(other Set[T]) Set[T] {
	out := Set[T]{items: make(map[string]T)}
	for k, v := range s.items {
		if _, ok := other.items[k]; ok {
			out.items[k] = v
		}
	}
	return out
}

func (s Set[T]) Equal(other Set[T]) bool {
	if len(s.items) != len(other.items) {
		return false
	}
	for k := range s.items {
		if _, ok := other.items[k]; !ok {
			return false
		}
	}
	return true
}

func (s Set[T]) Key() string {
	return "{" + strings.Join(s.keys(), ";") + "}"
}

// cloneAny and unionAny let CopyWith and CopyAndExtendWith handle sets
// without knowing their element type.
func (s Set[T]) cloneAny() any { return s.Clone() }

func (s Set[T]) unionAny(v any) (any, bool) {
	switch x := v.(type) {
	case Set[T]:
		return s.Union(x), true
	case []T:
		out := s.Clone()
		out.Add(x...)
		return out, true
	case T:
		out := s.Clone()
		out.Add(x)
		return out, true
	}
	return nil, false
}
