package carbon

import (
	"maps"
	"reflect"
	"slices"
)

// strategy is the resolved way to copy values of one type.
// Atomic strategies leave shallow and deep unset: the value is its own copy.
type strategy struct {
	atomic  bool
	shallow func(c *Copier, x reflect.Value) (reflect.Value, error)
	deep    func(m *Memo, x reflect.Value) (reflect.Value, error)
}

var atomicStrategy = &strategy{atomic: true}

// unsupportedStrategy fails every copy of its type.
var unsupportedStrategy = &strategy{
	shallow: func(_ *Copier, x reflect.Value) (reflect.Value, error) {
		return reflect.Value{}, newUncopyableError(x.Type(), ModeShallow)
	},
	deep: func(_ *Memo, x reflect.Value) (reflect.Value, error) {
		return reflect.Value{}, newUncopyableError(x.Type(), ModeDeep)
	},
}

// errorStrategy fails every copy of its type with err.
func errorStrategy(err error) *strategy {
	return &strategy{
		shallow: func(_ *Copier, _ reflect.Value) (reflect.Value, error) { return reflect.Value{}, err },
		deep:    func(_ *Memo, _ reflect.Value) (reflect.Value, error) { return reflect.Value{}, err },
	}
}

func keepShallow(_ *Copier, x reflect.Value) (reflect.Value, error) { return x, nil }

func keepDeep(_ *Memo, x reflect.Value) (reflect.Value, error) { return x, nil }

var podSliceStrategy = &strategy{shallow: shallowSlice, deep: deepPODSlice}

// Strategies that recurse through the memo reach byKind, which reads them,
// so they are assigned in init.
var (
	sliceStrategy     *strategy
	mapStrategy       *strategy
	arrayStrategy     *strategy
	pointerStrategy   *strategy
	interfaceStrategy *strategy
)

func init() {
	sliceStrategy = &strategy{shallow: shallowSlice, deep: deepSlice}
	mapStrategy = &strategy{shallow: shallowMap, deep: deepMap}
	arrayStrategy = &strategy{shallow: keepShallow, deep: deepArray}
	pointerStrategy = &strategy{shallow: shallowPointer, deep: deepPointer}
	interfaceStrategy = &strategy{shallow: keepShallow, deep: deepInterface}
}

// deepInterface copies the dynamic value of an interface.
func deepInterface(m *Memo, x reflect.Value) (reflect.Value, error) {
	return m.deep(x.Elem())
}

// shallowSlice returns a new slice holding the same elements.
func shallowSlice(_ *Copier, x reflect.Value) (reflect.Value, error) {
	y := reflect.MakeSlice(x.Type(), x.Len(), x.Len())
	reflect.Copy(y, x)
	return y, nil
}

// deepSlice allocates the copy and memoizes it before copying elements,
// so an element referring back to the slice resolves to the copy.
func deepSlice(m *Memo, x reflect.Value) (reflect.Value, error) {
	n := x.Len()
	y := reflect.MakeSlice(x.Type(), n, n)
	m.remember(x, y)
	for i := 0; i < n; i++ {
		c, err := m.deep(x.Index(i))
		if err != nil {
			return reflect.Value{}, err
		}
		y.Index(i).Set(c)
	}
	return y, nil
}

// deepPODSlice copies a slice whose elements hold no references.
func deepPODSlice(m *Memo, x reflect.Value) (reflect.Value, error) {
	y := reflect.MakeSlice(x.Type(), x.Len(), x.Len())
	reflect.Copy(y, x)
	m.remember(x, y)
	return y, nil
}

// shallowMap returns a new map holding the same entries.
func shallowMap(_ *Copier, x reflect.Value) (reflect.Value, error) {
	y := reflect.MakeMapWithSize(x.Type(), x.Len())
	iter := x.MapRange()
	for iter.Next() {
		y.SetMapIndex(iter.Key(), iter.Value())
	}
	return y, nil
}

// deepMap memoizes the new map before copying entries. Keys and values of
// plain scalar kinds are stored as they are.
func deepMap(m *Memo, x reflect.Value) (reflect.Value, error) {
	y := reflect.MakeMapWithSize(x.Type(), x.Len())
	m.remember(x, y)
	iter := x.MapRange()
	for iter.Next() {
		k, v := iter.Key(), iter.Value()
		if !reusable(k) {
			c, err := m.deep(k)
			if err != nil {
				return reflect.Value{}, err
			}
			k = c
		}
		if !reusable(v) {
			c, err := m.deep(v)
			if err != nil {
				return reflect.Value{}, err
			}
			v = c
		}
		setMapIndex(y, k, v)
	}
	return y, nil
}

// setMapIndex stores k and v, substituting typed zero values for nil copies
// so a nil element is never mistaken for a deletion.
func setMapIndex(y, k, v reflect.Value) {
	if !k.IsValid() {
		k = reflect.Zero(y.Type().Key())
	}
	if !v.IsValid() {
		v = reflect.Zero(y.Type().Elem())
	}
	y.SetMapIndex(k, v)
}

// deepArray copies the elements first and only builds a new array when one of
// them changed. The memo is consulted afterwards because an element may have
// copied the array through a pointer to it.
func deepArray(m *Memo, x reflect.Value) (reflect.Value, error) {
	n := x.Len()
	elems := make([]reflect.Value, n)
	changed := false
	for i := 0; i < n; i++ {
		e := x.Index(i)
		c, err := m.deep(e)
		if err != nil {
			return reflect.Value{}, err
		}
		elems[i] = c
		if !changed && !identical(unwrap(e), c) {
			changed = true
		}
	}

	if id, ok := identityOf(x); ok {
		if y, hit := m.entries[id]; hit {
			return y, nil
		}
	}
	if !changed {
		return x, nil
	}

	y := reflect.New(x.Type()).Elem()
	for i, c := range elems {
		if c.IsValid() {
			y.Index(i).Set(c)
		}
	}
	return y, nil
}

// unwrap returns the dynamic value of an interface.
func unwrap(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Interface && !v.IsNil() {
		return v.Elem()
	}
	return v
}

// shallowPointer returns a new pointer to a value copy of the pointee.
func shallowPointer(_ *Copier, x reflect.Value) (reflect.Value, error) {
	y := newPointer(x.Type())
	y.Elem().Set(x.Elem())
	return y, nil
}

// deepPointer memoizes the new pointer before copying the pointee.
func deepPointer(m *Memo, x reflect.Value) (reflect.Value, error) {
	y := newPointer(x.Type())
	m.remember(x, y)
	c, err := m.deep(x.Elem())
	if err != nil {
		return reflect.Value{}, err
	}
	if c.IsValid() {
		y.Elem().Set(c)
	}
	return y, nil
}

// newPointer allocates a pointer of type t, which may be a named pointer type.
func newPointer(t reflect.Type) reflect.Value {
	p := reflect.New(t.Elem())
	if p.Type() != t {
		p = p.Convert(t)
	}
	return p
}

// Hand-tuned strategies for the most common generic containers.

var anySliceStrategy = &strategy{
	shallow: func(_ *Copier, x reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf(slices.Clone(x.Interface().([]any))), nil
	},
	deep: func(m *Memo, x reflect.Value) (reflect.Value, error) {
		s := x.Interface().([]any)
		out := make([]any, len(s))
		y := reflect.ValueOf(out)
		m.remember(x, y)
		for i, e := range s {
			c, err := m.deepAny(e)
			if err != nil {
				return reflect.Value{}, err
			}
			out[i] = c
		}
		return y, nil
	},
}

var anyMapStrategy = &strategy{
	shallow: func(_ *Copier, x reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf(maps.Clone(x.Interface().(map[string]any))), nil
	},
	deep: func(m *Memo, x reflect.Value) (reflect.Value, error) {
		src := x.Interface().(map[string]any)
		out := make(map[string]any, len(src))
		y := reflect.ValueOf(out)
		m.remember(x, y)
		if err := copyEntries(m, src, out); err != nil {
			return reflect.Value{}, err
		}
		return y, nil
	},
}

var fieldsStrategy = &strategy{
	shallow: func(_ *Copier, x reflect.Value) (reflect.Value, error) {
		return reflect.ValueOf(maps.Clone(x.Interface().(Fields))), nil
	},
	deep: func(m *Memo, x reflect.Value) (reflect.Value, error) {
		src := x.Interface().(Fields)
		out := make(Fields, len(src))
		y := reflect.ValueOf(out)
		m.remember(x, y)
		if err := copyEntries(m, src, out); err != nil {
			return reflect.Value{}, err
		}
		return y, nil
	},
}

// copyEntries deep-copies the values of a string-keyed generic map.
func copyEntries[M ~map[string]any](m *Memo, src, dst M) error {
	for k, v := range src {
		switch v.(type) {
		case nil, bool, string, int, int64, float64:
			dst[k] = v
			continue
		}
		c, err := m.deepAny(v)
		if err != nil {
			return err
		}
		dst[k] = c
	}
	return nil
}
