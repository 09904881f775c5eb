package carbon

import (
	"reflect"
)

// Override hooks let a type bypass structural copying.
// A type may implement either hook alone: the other copy mode keeps using
// the strategy the type would resolve to without the hook.
//
// Methods declared on *T are honoured for T values. The hook is called on an
// addressable copy, so it cannot observe or mutate the original.

// shallowOverride delegates to ShallowCopyable.
func shallowOverride(_ *Copier, x reflect.Value) (reflect.Value, error) {
	out, err := receiver(x, shallowCopyableType).(ShallowCopyable).ShallowCopy()
	if err != nil {
		return reflect.Value{}, err
	}
	return adaptResult(out, x.Type())
}

// deepOverride delegates to DeepCopyable with the current memo.
func deepOverride(m *Memo, x reflect.Value) (reflect.Value, error) {
	out, err := receiver(x, deepCopyableType).(DeepCopyable).DeepCopy(m)
	if err != nil {
		return reflect.Value{}, err
	}
	return adaptResult(out, x.Type())
}

// adaptResult converts a hook or factory result to the source's static type.
func adaptResult(out any, t reflect.Type) (reflect.Value, error) {
	v := reflect.ValueOf(out)
	y, ok := adapt(v, t)
	if !ok {
		return reflect.Value{}, newFieldError(ErrUnassignable, t, "", v.Type())
	}
	return y, nil
}

// adapt returns v as a value of type t. A T is accepted for *T and a *T for T.
func adapt(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Zero(t), true
	}
	vt := v.Type()
	switch {
	case vt == t:
		return v, true
	case vt.AssignableTo(t):
		if t.Kind() == reflect.Interface {
			return v, true
		}
		return v.Convert(t), true
	case vt.Kind() == reflect.Pointer && vt.Elem() == t:
		if v.IsNil() {
			return reflect.Value{}, false
		}
		return v.Elem(), true
	case t.Kind() == reflect.Pointer && t.Elem() == vt:
		p := newPointer(t)
		p.Elem().Set(v)
		return p, true
	case vt.Kind() == t.Kind() && vt.ConvertibleTo(t):
		return v.Convert(t), true
	}
	return reflect.Value{}, false
}
