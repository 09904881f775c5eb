package carbon

import (
	"reflect"
	"sync"
)

var (
	defaultCopier *Copier
	defaultOnce   sync.Once
)

// Default returns the copier behind the package-level functions.
// It is built on first use with the built-in registry.
func Default() *Copier {
	defaultOnce.Do(func() {
		defaultCopier = New()
	})
	return defaultCopier
}

// Copy returns a shallow copy of v using the default copier.
func Copy(v any) (any, error) {
	return Default().Copy(v)
}

// DeepCopy returns a deep copy of v using the default copier.
func DeepCopy(v any) (any, error) {
	return Default().DeepCopy(v)
}

// Clone returns a deep copy of v with its static type.
//
// Clone works for interface types as well: the dynamic value is copied and
// returned through the same interface.
//
//	orig := map[string][]int{"a": {1, 2}}
//	c, err := carbon.Clone(orig)
func Clone[T any](v T) (T, error) {
	return CloneUsing(Default(), v)
}

// CloneUsing returns a deep copy of v made by c.
func CloneUsing[T any](c *Copier, v T) (T, error) {
	var zero T
	x := reflect.ValueOf(&v).Elem()
	y, err := c.deepValue(x)
	if err != nil {
		return zero, err
	}
	return typed[T](x.Type(), y), nil
}

// Shallow returns a shallow copy of v with its static type.
func Shallow[T any](v T) (T, error) {
	return ShallowUsing(Default(), v)
}

// ShallowUsing returns a shallow copy of v made by c.
func ShallowUsing[T any](c *Copier, v T) (T, error) {
	var zero T
	x := reflect.ValueOf(&v).Elem()
	if x.Kind() == reflect.Interface {
		x = unwrap(x)
	}
	y, err := c.shallowValue(x)
	if err != nil {
		return zero, err
	}
	return typed[T](reflect.TypeFor[T](), y), nil
}

// MustClone is like Clone but panics on error.
// It is intended for values known to be copyable, such as test fixtures.
func MustClone[T any](v T) T {
	c, err := Clone(v)
	if err != nil {
		panic(err)
	}
	return c
}

// typed stores y in a fresh T.
func typed[T any](t reflect.Type, y reflect.Value) T {
	var zero T
	if !y.IsValid() {
		return zero
	}
	out := reflect.New(t).Elem()
	out.Set(y)
	result, _ := out.Interface().(T)
	return result
}
