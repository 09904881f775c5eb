package carbon

import (
	"reflect"
	"slices"
)

// applyState hands state to the value behind target.
func applyState(c *Copier, target reflect.Value, state any) error {
	if sa, ok := target.Interface().(StateApplier); ok {
		return sa.ApplyState(state)
	}

	switch s := state.(type) {
	case Fields:
		return setFields(c, target, s)
	case map[string]any:
		return setFields(c, target, s)
	case SlotState:
		if err := setFields(c, target, s.Fields); err != nil {
			return err
		}
		for _, name := range sortedKeys(s.Slots) {
			if err := setAttr(c, target, name, s.Slots[name]); err != nil {
				return err
			}
		}
		return nil
	case *SlotState:
		if s == nil {
			return nil
		}
		return applyState(c, target, *s)
	case []Assignment:
		for _, a := range s {
			if err := setAttr(c, target, a.Name, a.Value); err != nil {
				return err
			}
		}
		return nil
	}

	return newFieldError(ErrStateShape, target.Type().Elem(), "", reflect.TypeOf(state))
}

// setFields assigns each named value directly, in name order.
func setFields[M ~map[string]any](c *Copier, target reflect.Value, fields M) error {
	for _, name := range sortedKeys(fields) {
		if err := setField(c, target, name, fields[name]); err != nil {
			return err
		}
	}
	return nil
}

// setAttr assigns through AttrSetter when implemented, else directly.
func setAttr(c *Copier, target reflect.Value, name string, value any) error {
	if as, ok := target.Interface().(AttrSetter); ok {
		return as.SetAttr(name, value)
	}
	return setField(c, target, name, value)
}

// setField stores value in the named field of the struct behind target.
// Unexported fields are writable only when the copier allows them.
func setField(c *Copier, target reflect.Value, name string, value any) error {
	sv := target.Elem()
	if sv.Kind() != reflect.Struct {
		return newFieldError(ErrStateShape, sv.Type(), name, nil)
	}
	sf, ok := sv.Type().FieldByName(name)
	if !ok || len(sf.Index) != 1 {
		return newFieldError(ErrNoField, sv.Type(), name, nil)
	}
	if !sf.IsExported() && !c.unexported {
		return newFieldError(ErrNoField, sv.Type(), name, nil)
	}

	f := writable(sv.Field(sf.Index[0]))
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		f.SetZero()
		return nil
	}
	y, ok := adapt(v, f.Type())
	if !ok {
		return newFieldError(ErrUnassignable, sv.Type(), name, v.Type())
	}
	f.Set(y)
	return nil
}

// appendItems extends the value behind target with items.
func appendItems(target reflect.Value, items []any) error {
	if ap, ok := target.Interface().(Appender); ok {
		return ap.Append(items...)
	}

	sv := target.Elem()
	if sv.Kind() != reflect.Slice {
		return newFieldError(ErrStateShape, sv.Type(), "", nil)
	}
	for _, item := range items {
		v, ok := adapt(reflect.ValueOf(item), sv.Type().Elem())
		if !ok {
			return newFieldError(ErrUnassignable, sv.Type(), "", reflect.TypeOf(item))
		}
		sv.Set(reflect.Append(sv, v))
	}
	return nil
}

// insertEntry stores one key and value in the mapping behind target.
func insertEntry(target reflect.Value, key, value any) error {
	if in, ok := target.Interface().(Inserter); ok {
		return in.Insert(key, value)
	}

	mv := target.Elem()
	if mv.Kind() != reflect.Map {
		return newFieldError(ErrStateShape, mv.Type(), "", nil)
	}
	k, ok := adapt(reflect.ValueOf(key), mv.Type().Key())
	if !ok {
		return newFieldError(ErrUnassignable, mv.Type(), "", reflect.TypeOf(key))
	}
	v, ok := adapt(reflect.ValueOf(value), mv.Type().Elem())
	if !ok {
		return newFieldError(ErrUnassignable, mv.Type(), "", reflect.TypeOf(value))
	}
	if mv.IsNil() {
		mv.Set(reflect.MakeMap(mv.Type()))
	}
	mv.SetMapIndex(k, v)
	return nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
