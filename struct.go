package carbon

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Register the copy tag with sentinel
	sentinel.Tag("copy")
}

// structPlan describes how the default reducer rebuilds a struct type.
type structPlan struct {
	typeName string
	state    []fieldPlan // exported fields copied into the new value
	hidden   []fieldPlan // unexported fields, copied only when enabled
	skip     []fieldPlan // fields left at their zero value
	pod      bool        // no field can reach another object
}

// fieldPlan describes a single struct field.
type fieldPlan struct {
	index int
	name  string
	typ   reflect.Type
}

var (
	plans   = make(map[reflect.Type]*structPlan)
	plansMu sync.RWMutex
)

// Prepare scans T ahead of its first copy and validates its copy tags.
// Calling it is optional; plans are otherwise built on first use.
func Prepare[T any]() error {
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Struct {
		return nil
	}
	sentinel.Scan[T]()
	_, err := planFor(rt)
	return err
}

// planFor returns the cached plan for a struct type or builds a new one.
func planFor(rt reflect.Type) (*structPlan, error) {
	// Fast path: read-lock cache check
	plansMu.RLock()
	if plan, ok := plans[rt]; ok {
		plansMu.RUnlock()
		return plan, nil
	}
	plansMu.RUnlock()

	// Slow path: build and cache with write-lock
	plansMu.Lock()
	defer plansMu.Unlock()

	// Double-check pattern
	if plan, ok := plans[rt]; ok {
		return plan, nil
	}

	plan, err := buildStructPlan(rt)
	if err != nil {
		return nil, err
	}
	plans[rt] = plan
	return plan, nil
}

// buildStructPlan classifies each field of rt by its copy tag.
func buildStructPlan(rt reflect.Type) (*structPlan, error) {
	meta := scanStructType(rt)
	tags := make(map[string]string, len(meta.Fields))
	for _, field := range meta.Fields {
		if val, ok := field.Tags["copy"]; ok {
			tags[field.Name] = val
		}
	}

	plan := &structPlan{
		typeName: typeName(rt),
		pod:      isPlainOldData(rt),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fp := fieldPlan{index: i, name: sf.Name, typ: sf.Type}

		val, ok := tags[sf.Name]
		if !sf.IsExported() {
			val, ok = sf.Tag.Lookup("copy")
		}
		if ok && !IsValidCopyTag(CopyTag(val)) {
			return nil, fmt.Errorf("%w %q for field %s.%s", ErrInvalidTag, val, plan.typeName, sf.Name)
		}

		switch {
		case ok && CopyTag(val) == TagSkip:
			plan.skip = append(plan.skip, fp)
			plan.pod = false
		case ok && CopyTag(val) == TagShallow:
			// Shared through the value copy that seeds the new struct
		case !sf.IsExported():
			plan.hidden = append(plan.hidden, fp)
		default:
			plan.state = append(plan.state, fp)
		}
	}

	return plan, nil
}

// scanStructType returns sentinel metadata for a struct type, scanning the
// exported fields directly when sentinel has not seen the type.
func scanStructType(rt reflect.Type) sentinel.Metadata {
	if meta, ok := sentinel.Lookup(rt.String()); ok {
		return meta
	}

	meta := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        make(map[string]string),
		}
		if val, ok := sf.Tag.Lookup("copy"); ok {
			fm.Tags["copy"] = val
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		meta.Fields = append(meta.Fields, fm)
	}

	return meta
}

// isPlainOldData reports whether values of rt hold no references, so a value
// copy is already a deep copy.
func isPlainOldData(rt reflect.Type) bool {
	switch rt.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	case reflect.Array:
		return isPlainOldData(rt.Elem())
	case reflect.Struct:
		for i := 0; i < rt.NumField(); i++ {
			if !isPlainOldData(rt.Field(i).Type) {
				return false
			}
		}
		return true
	}
	return false
}

// shallow copies a struct value, sharing every field except skipped ones.
func (p *structPlan) shallow(_ *Copier, x reflect.Value) (reflect.Value, error) {
	y := reflect.New(x.Type()).Elem()
	y.Set(x)
	for _, f := range p.skip {
		writable(y.Field(f.index)).SetZero()
	}
	return y, nil
}

// deep rebuilds a struct value: the new value starts as a value copy of x,
// skipped fields are zeroed and state fields are replaced by their deep copies.
func (p *structPlan) deep(m *Memo, x reflect.Value) (reflect.Value, error) {
	y := reflect.New(x.Type()).Elem()
	y.Set(x)
	for _, f := range p.skip {
		writable(y.Field(f.index)).SetZero()
	}

	for _, f := range p.state {
		c, err := m.deep(x.Field(f.index))
		if err != nil {
			return reflect.Value{}, err
		}
		y.Field(f.index).Set(c)
	}

	if len(p.hidden) > 0 && m.copier.unexported {
		src := addressable(x)
		for _, f := range p.hidden {
			c, err := m.deep(writable(src.Field(f.index)))
			if err != nil {
				return reflect.Value{}, err
			}
			writable(y.Field(f.index)).Set(c)
		}
	}

	return y, nil
}

// addressable returns v itself when addressable, else an addressable copy.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

// writable lifts the read-only restriction from an addressable field.
func writable(f reflect.Value) reflect.Value {
	if f.CanSet() {
		return f
	}
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
}
