// Package htn implements a temporal Hierarchical Task Network formalism:
// types, typed objects, timepoints and intervals, symbols, state variables,
// conditions, effects, constraints, tasks, methods, task networks, and the
// language, domain and problem registries built from them.
//
// Entities are values. Updating one always produces a new value, either
// through plain struct copies or through CopyWith and CopyAndExtendWith.
package htn

// Type is a named type, optionally with a parent. Types form a
// single-inheritance tree used to tag every typed object.
type Type struct {
	Name   string
	Parent *Type
}

// Builtin types.
var (
	TimepointType = &Type{Name: "__timepoint__"}
	BooleanType   = &Type{Name: "__boolean__"}
	IntegerType   = &Type{Name: "__integer__"}
)

// NewType creates a type. parent may be nil for a root type.
func NewType(name string, parent *Type) *Type {
	return &Type{Name: name, Parent: parent}
}

func (t *Type) String() string {
	if t == nil {
		return ""
	}
	return t.Name
}

// Key identifies a type by its name and its whole parent chain.
func (t *Type) Key() string {
	if t == nil {
		return ""
	}
	if t.Parent == nil {
		return t.Name
	}
	return t.Name + "<" + t.Parent.Key()
}

// Equal reports whether both types have the same name and parent chain.
func (t *Type) Equal(other *Type) bool {
	return t.Key() == other.Key()
}

// IsSubtypeOf reports whether t is other or inherits from it.
func (t *Type) IsSubtypeOf(other *Type) bool {
	for cur := t; cur != nil; cur = cur.Parent {
		if cur.Equal(other) {
			return true
		}
	}
	return false
}

// Lineage returns t followed by its ancestors up to the root.
func (t *Type) Lineage() []*Type {
	var out []*Type
	for cur := t; cur != nil; cur = cur.Parent {
		out = append(out, cur)
	}
	return out
}
