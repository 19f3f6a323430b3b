package htn

import (
	"reflect"
)

// Attrs maps exported field names to new values, e.g.
// Attrs{"Params": []TypedObject{r, l}}.
type Attrs map[string]any

type cloner interface {
	cloneAny() any
}

type unioner interface {
	unionAny(v any) (any, bool)
}

// CopyWith returns a copy of e with the named fields replaced. e must be a
// struct or a pointer to a struct; a pointer yields a pointer to a fresh
// struct. Slice, map and Set fields of the copy never alias those of e.
func CopyWith[E any](e E, attrs Attrs) (E, error) {
	return copyEntity(e, attrs, false)
}

// CopyAndExtendWith is like CopyWith, but Set and map fields are unioned
// with the given value and slice fields are appended to (either a slice or
// a single element). Other fields are overridden.
func CopyAndExtendWith[E any](e E, attrs Attrs) (E, error) {
	return copyEntity(e, attrs, true)
}

func copyEntity[E any](e E, attrs Attrs, extend bool) (E, error) {
	var zero E
	v := reflect.ValueOf(&e).Elem()
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	isPtr := v.Kind() == reflect.Pointer
	if isPtr {
		if v.IsNil() {
			return zero, argumentf(ErrInvalidAttribute, "cannot copy a nil %T", e)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return zero, argumentf(ErrInvalidAttribute, "cannot copy a %T", e)
	}

	cp := reflect.New(v.Type())
	cp.Elem().Set(v)
	detach(cp.Elem())

	for name, val := range attrs {
		field := cp.Elem().FieldByName(name)
		if !field.IsValid() || !field.CanSet() {
			return zero, argumentf(ErrInvalidAttribute, "%s has no field %q", v.Type().Name(), name)
		}
		if err := assign(field, name, val, extend); err != nil {
			return zero, err
		}
	}

	var out any = cp.Elem().Interface()
	if isPtr {
		out = cp.Interface()
	}
	res, ok := out.(E)
	if !ok {
		return zero, argumentf(ErrInvalidAttribute, "copy of %T has type %T", e, out)
	}
	return res, nil
}

// detach replaces every aliasing field of the struct s with a fresh copy.
func detach(s reflect.Value) {
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if !f.CanSet() {
			continue
		}
		if fresh, ok := cloneField(f); ok {
			f.Set(fresh)
		}
	}
}

func cloneField(f reflect.Value) (reflect.Value, bool) {
	if f.CanInterface() {
		if c, ok := f.Interface().(cloner); ok && !isNilValue(f) {
			if out := reflect.ValueOf(c.cloneAny()); out.Type() == f.Type() {
				return out, true
			}
		}
	}
	switch f.Kind() {
	case reflect.Slice:
		if f.IsNil() {
			return f, false
		}
		out := reflect.MakeSlice(f.Type(), f.Len(), f.Len())
		reflect.Copy(out, f)
		return out, true
	case reflect.Map:
		if f.IsNil() {
			return f, false
		}
		out := reflect.MakeMapWithSize(f.Type(), f.Len())
		iter := f.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out, true
	}
	return f, false
}

func assign(field reflect.Value, name string, val any, extend bool) error {
	if val == nil {
		switch field.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map:
			if !extend {
				field.Set(reflect.Zero(field.Type()))
			}
			return nil
		}
		return argumentf(ErrInvalidAttribute, "%s cannot be nil", name)
	}
	rv := reflect.ValueOf(val)

	if extend {
		if u, ok := field.Interface().(unioner); ok && !isNilValue(field) {
			res, ok := u.unionAny(val)
			if !ok {
				return argumentf(ErrInvalidAttribute, "cannot extend %s with %T", name, val)
			}
			field.Set(reflect.ValueOf(res))
			return nil
		}
		switch field.Kind() {
		case reflect.Slice:
			if rv.Type().AssignableTo(field.Type()) {
				field.Set(reflect.AppendSlice(field, rv))
				return nil
			}
			if rv.Type().AssignableTo(field.Type().Elem()) {
				field.Set(reflect.Append(field, rv))
				return nil
			}
			return argumentf(ErrInvalidAttribute, "cannot append %T to %s", val, name)
		case reflect.Map:
			if !rv.Type().AssignableTo(field.Type()) {
				return argumentf(ErrInvalidAttribute, "cannot merge %T into %s", val, name)
			}
			if field.IsNil() {
				field.Set(reflect.MakeMapWithSize(field.Type(), rv.Len()))
			}
			iter := rv.MapRange()
			for iter.Next() {
				field.SetMapIndex(iter.Key(), iter.Value())
			}
			return nil
		}
	}

	if !rv.Type().AssignableTo(field.Type()) {
		return argumentf(ErrInvalidAttribute, "%s expects %s, got %T", name, field.Type(), val)
	}
	if fresh, ok := cloneField(rv); ok && rv.Kind() != reflect.Pointer {
		rv = fresh
	}
	field.Set(rv)
	return nil
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}
