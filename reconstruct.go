package carbon

import (
	"reflect"
)

// reconstructibleStrategy rebuilds values that describe themselves through
// Reduce. It is assigned in init because its deep path recurses into the
// registry that returns it.
var reconstructibleStrategy *strategy

func init() {
	reconstructibleStrategy = &strategy{shallow: shallowReconstruct, deep: deepReconstruct}
}

func shallowReconstruct(c *Copier, x reflect.Value) (reflect.Value, error) {
	r, err := receiver(x, reconstructibleType).(Reconstructible).Reduce()
	if err != nil {
		return reflect.Value{}, err
	}
	return reconstruct(c, nil, x, r)
}

func deepReconstruct(m *Memo, x reflect.Value) (reflect.Value, error) {
	r, err := receiver(x, reconstructibleType).(Reconstructible).Reduce()
	if err != nil {
		return reflect.Value{}, err
	}
	return reconstruct(m.copier, m, x, r)
}

// reducerStrategy rebuilds values through a registered reducer.
func reducerStrategy(fn Reducer) *strategy {
	return &strategy{
		shallow: func(c *Copier, x reflect.Value) (reflect.Value, error) {
			r, err := fn(x.Interface())
			if err != nil {
				return reflect.Value{}, err
			}
			return reconstruct(c, nil, x, r)
		},
		deep: func(m *Memo, x reflect.Value) (reflect.Value, error) {
			r, err := fn(x.Interface())
			if err != nil {
				return reflect.Value{}, err
			}
			return reconstruct(m.copier, m, x, r)
		},
	}
}

// reconstruct builds a copy of x from r. A nil memo makes a shallow copy:
// arguments, state and streams are used as they are.
//
// For a deep copy the new value is memoized under x's identity before its
// state is copied, so state referring back to x resolves to the new value.
func reconstruct(c *Copier, m *Memo, x reflect.Value, r Recipe) (reflect.Value, error) {
	deep := m != nil
	mode := ModeShallow
	if deep {
		mode = ModeDeep
	}

	if r.Shared {
		return x, nil
	}
	if r.Factory == nil {
		return reflect.Value{}, newUncopyableError(x.Type(), mode)
	}

	args := r.Args
	if deep && len(args) > 0 {
		args = make([]any, len(r.Args))
		for i, a := range r.Args {
			ca, err := m.deepAny(a)
			if err != nil {
				return reflect.Value{}, err
			}
			args[i] = ca
		}
	}

	out, err := r.Factory(args...)
	if err != nil {
		return reflect.Value{}, err
	}
	y, err := adaptResult(out, x.Type())
	if err != nil {
		return reflect.Value{}, err
	}

	// A plain slice is grown to its final length before it is memoized, so
	// items referring back to x resolve to the slice that holds them.
	base, inPlace := 0, deep && len(r.Items) > 0 && growsInPlace(y.Type())
	if inPlace {
		base = y.Len()
		grown := reflect.MakeSlice(y.Type(), base+len(r.Items), base+len(r.Items))
		reflect.Copy(grown, y)
		y = grown
	}
	if deep {
		m.remember(x, y)
	}

	if r.State == nil && len(r.Items) == 0 && len(r.Entries) == 0 {
		return y, nil
	}

	// State is applied through a pointer so setters with pointer receivers work.
	target := y
	if y.Kind() != reflect.Pointer {
		target = reflect.New(y.Type())
		target.Elem().Set(y)
	} else if y.IsNil() {
		return reflect.Value{}, newFieldError(ErrStateShape, x.Type(), "", nil)
	}

	if r.State != nil {
		state := r.State
		if deep {
			if state, err = m.deepAny(r.State); err != nil {
				return reflect.Value{}, err
			}
		}
		if err := applyState(c, target, state); err != nil {
			return reflect.Value{}, err
		}
	}

	if inPlace {
		sv := target.Elem()
		for i, item := range r.Items {
			ci, err := m.deepAny(item)
			if err != nil {
				return reflect.Value{}, err
			}
			v, ok := adapt(reflect.ValueOf(ci), sv.Type().Elem())
			if !ok {
				return reflect.Value{}, newFieldError(ErrUnassignable, sv.Type(), "", reflect.TypeOf(ci))
			}
			sv.Index(base + i).Set(v)
		}
	} else if len(r.Items) > 0 {
		items := r.Items
		if deep {
			items = make([]any, len(r.Items))
			for i, item := range r.Items {
				ci, err := m.deepAny(item)
				if err != nil {
					return reflect.Value{}, err
				}
				items[i] = ci
			}
		}
		if err := appendItems(target, items); err != nil {
			return reflect.Value{}, err
		}
	}

	for _, e := range r.Entries {
		k, v := e.Key, e.Value
		if deep {
			if k, err = m.deepAny(e.Key); err != nil {
				return reflect.Value{}, err
			}
			if v, err = m.deepAny(e.Value); err != nil {
				return reflect.Value{}, err
			}
		}
		if err := insertEntry(target, k, v); err != nil {
			return reflect.Value{}, err
		}
	}

	if y.Kind() == reflect.Pointer {
		return y, nil
	}
	result := target.Elem()
	if deep {
		// Appending may have moved a slice to a new backing array.
		m.remember(x, result)
	}
	return result, nil
}

// growsInPlace reports whether items for t are stored by index rather than
// through an Appender.
func growsInPlace(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && !t.Implements(appenderType) && !reflect.PointerTo(t).Implements(appenderType)
}
