package carbon

import (
	"reflect"
)

// Memo records the copies made during one deep copy pass.
//
// Entries are keyed by the identity of the source value. The most recent
// lookup is cached separately so runs of references to one object skip the
// table. Every memoized source is also held in a keep-alive list: keys are raw
// addresses, and a transient value released mid-pass could have its address
// reused by a later allocation.
//
// A Memo is owned by a single pass and is not safe for concurrent use.
type Memo struct {
	copier  *Copier
	entries map[identity]reflect.Value
	keep    []reflect.Value

	last    identity
	lastVal reflect.Value
	hasLast bool
}

// newMemo creates an empty memo bound to a copier.
func newMemo(c *Copier) *Memo {
	return &Memo{
		copier:  c,
		entries: make(map[identity]reflect.Value),
	}
}

// Copy deep-copies v within the current pass.
// Overrides use it to copy their children so shared references stay shared.
func (m *Memo) Copy(v any) (any, error) {
	y, err := m.deep(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return valueInterface(y), nil
}

// Lookup returns the copy already made for v, if any.
func (m *Memo) Lookup(v any) (any, bool) {
	id, ok := identityOf(reflect.ValueOf(v))
	if !ok {
		return nil, false
	}
	y, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	return valueInterface(y), true
}

// Remember records dst as the copy of src.
// Values without identity (structs, scalars, nil references) are ignored.
func (m *Memo) Remember(src, dst any) {
	m.remember(reflect.ValueOf(src), reflect.ValueOf(dst))
}

// Len returns the number of memoized copies.
func (m *Memo) Len() int {
	return len(m.entries)
}

// CloneWith deep-copies v within the pass driven by m and returns it with its static type.
func CloneWith[T any](m *Memo, v T) (T, error) {
	var zero T
	x := reflect.ValueOf(&v).Elem()
	y, err := m.deep(x)
	if err != nil {
		return zero, err
	}
	if !y.IsValid() {
		return zero, nil
	}
	out := reflect.New(x.Type()).Elem()
	out.Set(y)
	result, _ := out.Interface().(T)
	return result, nil
}

// remember stores y as the copy of x when x has identity.
func (m *Memo) remember(x, y reflect.Value) {
	id, ok := identityOf(x)
	if !ok {
		return
	}
	if _, seen := m.entries[id]; !seen {
		m.keep = append(m.keep, x)
	}
	m.entries[id] = y
	if m.hasLast && m.last == id {
		m.lastVal = y
	}
}

// setLast updates the single-entry fast path.
func (m *Memo) setLast(id identity, y reflect.Value) {
	m.last = id
	m.lastVal = y
	m.hasLast = true
}

// deep copies x, consulting and updating the memo.
func (m *Memo) deep(x reflect.Value) (reflect.Value, error) {
	if !x.IsValid() || isNilRef(x) {
		return x, nil
	}
	if x.Kind() == reflect.Interface {
		return m.deep(x.Elem())
	}

	id, hasID := identityOf(x)
	if hasID {
		if m.hasLast && m.last == id {
			return m.lastVal, nil
		}
		if y, ok := m.entries[id]; ok {
			m.setLast(id, y)
			return y, nil
		}
	}

	s := m.copier.registry.resolve(x.Type())
	if s.atomic {
		return x, nil
	}
	y, err := s.deep(m, x)
	if err != nil {
		return reflect.Value{}, err
	}

	if hasID {
		if !identical(x, y) {
			m.remember(x, y)
		}
		m.setLast(id, y)
	}
	return y, nil
}

// deepAny copies a boxed value and returns it boxed.
func (m *Memo) deepAny(v any) (any, error) {
	y, err := m.deep(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return valueInterface(y), nil
}

// valueInterface unboxes v, mapping the zero Value to nil.
func valueInterface(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}
