package engine

import "reflect"

// Identity is the reference identity of a Go value. Two values share an
// identity when they are the same map, the same slice view or the same
// pointer.
type Identity struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// IdentityOf returns the identity of v. ok is false for values without
// reference semantics (scalars, strings, structs, nil references).
func IdentityOf(v any) (id Identity, ok bool) {
	if v == nil {
		return Identity{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer:
		if rv.IsNil() {
			return Identity{}, false
		}
		return Identity{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		if rv.IsNil() || rv.Len() == 0 {
			return Identity{}, false
		}
		return Identity{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}, true
	default:
		return Identity{}, false
	}
}
