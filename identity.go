package carbon

import (
	"math"
	"reflect"
)

// identity is the address-based key of a reference value.
// len and cap separate sub-slices that share a backing array.
type identity struct {
	typ reflect.Type
	ptr uintptr
	len int
	cap int
}

// identityOf returns the identity of v, or false when v carries none.
//
// Non-nil pointers, maps and slices have identity. Arrays have one only while
// addressable. Empty slices and pointers to zero-size values may share the
// runtime's zero-size base address, so they are treated as identity-free.
func identityOf(v reflect.Value) (identity, bool) {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || v.Type().Elem().Size() == 0 {
			return identity{}, false
		}
		return identity{typ: v.Type(), ptr: v.Pointer()}, true
	case reflect.Map:
		if v.IsNil() {
			return identity{}, false
		}
		return identity{typ: v.Type(), ptr: v.Pointer()}, true
	case reflect.Slice:
		if v.IsNil() || v.Cap() == 0 || v.Type().Elem().Size() == 0 {
			return identity{}, false
		}
		return identity{typ: v.Type(), ptr: v.Pointer(), len: v.Len(), cap: v.Cap()}, true
	case reflect.Array:
		if !v.CanAddr() || v.Type().Size() == 0 {
			return identity{}, false
		}
		return identity{typ: v.Type(), ptr: v.UnsafeAddr(), len: -1, cap: -1}, true
	}
	return identity{}, false
}

// isNilRef reports whether v is a nil reference of any kind.
func isNilRef(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return v.IsNil()
	}
	return false
}

// identical reports whether y is the same object as x, or for value kinds,
// holds the same objects. A copy identical to its source is never memoized.
func identical(x, y reflect.Value) bool {
	if !x.IsValid() || !y.IsValid() {
		return x.IsValid() == y.IsValid()
	}
	if x.Type() != y.Type() {
		return false
	}
	switch x.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return x.Pointer() == y.Pointer()
	case reflect.Slice:
		return x.Pointer() == y.Pointer() && x.Len() == y.Len() && x.Cap() == y.Cap()
	case reflect.Interface:
		if x.IsNil() || y.IsNil() {
			return x.IsNil() == y.IsNil()
		}
		return identical(x.Elem(), y.Elem())
	case reflect.Array:
		for i := 0; i < x.Len(); i++ {
			if !identical(x.Index(i), y.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < x.NumField(); i++ {
			if !identical(x.Field(i), y.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Bool:
		return x.Bool() == y.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return x.Int() == y.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return x.Uint() == y.Uint()
	case reflect.Float32, reflect.Float64:
		return math.Float64bits(x.Float()) == math.Float64bits(y.Float())
	case reflect.Complex64, reflect.Complex128:
		cx, cy := x.Complex(), y.Complex()
		return math.Float64bits(real(cx)) == math.Float64bits(real(cy)) &&
			math.Float64bits(imag(cx)) == math.Float64bits(imag(cy))
	case reflect.String:
		return x.String() == y.String()
	}
	return false
}

// reusable reports whether a map key or value can be stored in a copy without
// recursion. The dynamic kinds accepted are fixed: nil, booleans, integers,
// floats and strings.
func reusable(v reflect.Value) bool {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	}
	return false
}
