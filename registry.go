package carbon

import (
	"os"
	"reflect"
	"sync"
	"time"
)

// Reducer produces the reconstruction recipe for a value of a registered type.
type Reducer func(v any) (Recipe, error)

// Registry maps runtime types to copy strategies.
//
// Registrations are expected at startup. Each registration clears the
// resolution cache, so a type resolved earlier picks up the change on its next
// copy. Resolution is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	exact    map[reflect.Type]*strategy
	reducers map[reflect.Type]Reducer
	cache    map[reflect.Type]*strategy
}

// NewRegistry creates a registry populated with the built-in table.
func NewRegistry() *Registry {
	r := &Registry{
		exact:    make(map[reflect.Type]*strategy),
		reducers: make(map[reflect.Type]Reducer),
		cache:    make(map[reflect.Type]*strategy),
	}

	// Immutable values
	for _, t := range []reflect.Type{
		reflect.TypeFor[time.Time](),
		reflect.TypeFor[time.Duration](),
		reflect.TypeFor[*time.Location](),
		reflect.TypeFor[struct{}](),
	} {
		r.exact[t] = atomicStrategy
	}

	// Resources
	for _, t := range []reflect.Type{
		reflect.TypeFor[os.File](),
		reflect.TypeFor[sync.Mutex](),
		reflect.TypeFor[sync.RWMutex](),
		reflect.TypeFor[sync.WaitGroup](),
		reflect.TypeFor[sync.Once](),
		reflect.TypeFor[sync.Cond](),
	} {
		r.exact[t] = unsupportedStrategy
		r.exact[reflect.PointerTo(t)] = unsupportedStrategy
	}

	// Generic containers
	r.exact[reflect.TypeFor[[]any]()] = anySliceStrategy
	r.exact[reflect.TypeFor[map[string]any]()] = anyMapStrategy
	r.exact[reflect.TypeFor[Fields]()] = fieldsStrategy
	for _, t := range []reflect.Type{
		reflect.TypeFor[[]byte](),
		reflect.TypeFor[[]string](),
		reflect.TypeFor[[]int](),
		reflect.TypeFor[[]int64](),
		reflect.TypeFor[[]float64](),
		reflect.TypeFor[[]bool](),
	} {
		r.exact[t] = podSliceStrategy
	}

	return r
}

// RegisterAtomic marks t as immutable: its values are their own copies.
func (r *Registry) RegisterAtomic(t reflect.Type) {
	r.register(t, atomicStrategy)
}

// RegisterUnsupported makes every copy of t fail with ErrUncopyable.
func (r *Registry) RegisterUnsupported(t reflect.Type) {
	r.register(t, unsupportedStrategy)
}

// RegisterReducer routes copies of t through the reconstruction protocol using fn.
// Types with a ShallowCopyable or DeepCopyable override keep using the override.
func (r *Registry) RegisterReducer(t reflect.Type, fn Reducer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.exact, t)
	r.reducers[t] = fn
	r.cache = make(map[reflect.Type]*strategy)
}

// Atomic registers T as an immutable type.
func Atomic[T any](r *Registry) {
	r.RegisterAtomic(reflect.TypeFor[T]())
}

// Unsupported registers T as a type that cannot be copied.
func Unsupported[T any](r *Registry) {
	r.RegisterUnsupported(reflect.TypeFor[T]())
}

// Reduce registers a typed reducer for T.
func Reduce[T any](r *Registry, fn func(T) (Recipe, error)) {
	r.RegisterReducer(reflect.TypeFor[T](), func(v any) (Recipe, error) {
		return fn(v.(T))
	})
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exact) + len(r.reducers)
}

// Reset clears the resolution cache.
// This is primarily useful for test isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[reflect.Type]*strategy)
}

func (r *Registry) register(t reflect.Type, s *strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reducers, t)
	r.exact[t] = s
	r.cache = make(map[reflect.Type]*strategy)
}

// resolve returns the cached strategy for t or resolves a new one.
func (r *Registry) resolve(t reflect.Type) *strategy {
	// Fast path: read-lock cache check
	r.mu.RLock()
	if s, ok := r.cache[t]; ok {
		r.mu.RUnlock()
		return s
	}
	r.mu.RUnlock()

	// Slow path: resolve and cache with write-lock
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check pattern
	if s, ok := r.cache[t]; ok {
		return s
	}

	s := r.lookup(t)
	r.cache[t] = s
	return s
}

var (
	reflectTypeType     = reflect.TypeFor[reflect.Type]()
	shallowCopyableType = reflect.TypeFor[ShallowCopyable]()
	deepCopyableType    = reflect.TypeFor[DeepCopyable]()
	reconstructibleType = reflect.TypeFor[Reconstructible]()
	appenderType        = reflect.TypeFor[Appender]()
)

// lookup walks the dispatch order for t. The caller holds the write lock.
func (r *Registry) lookup(t reflect.Type) *strategy {
	if s, ok := r.exact[t]; ok {
		return s
	}

	if t.Implements(reflectTypeType) {
		return atomicStrategy
	}

	base := r.protocol(t)
	shallowHook := implements(t, shallowCopyableType)
	deepHook := implements(t, deepCopyableType)
	if !shallowHook && !deepHook {
		return base
	}

	s := &strategy{shallow: base.shallow, deep: base.deep}
	if base.atomic {
		s.shallow, s.deep = keepShallow, keepDeep
	}
	if shallowHook {
		s.shallow = shallowOverride
	}
	if deepHook {
		s.deep = deepOverride
	}
	return s
}

// protocol resolves the reconstruction and structural tiers for t.
func (r *Registry) protocol(t reflect.Type) *strategy {
	if fn, ok := r.reducers[t]; ok {
		return reducerStrategy(fn)
	}
	if implements(t, reconstructibleType) {
		return reconstructibleStrategy
	}
	return byKind(t)
}

// byKind resolves the structural strategy for t.
func byKind(t reflect.Type) *strategy {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String, reflect.Func, reflect.UnsafePointer:
		return atomicStrategy
	case reflect.Slice:
		if isPlainOldData(t.Elem()) {
			return podSliceStrategy
		}
		return sliceStrategy
	case reflect.Map:
		return mapStrategy
	case reflect.Array:
		if isPlainOldData(t) {
			return atomicStrategy
		}
		return arrayStrategy
	case reflect.Pointer:
		return pointerStrategy
	case reflect.Interface:
		return interfaceStrategy
	case reflect.Struct:
		plan, err := planFor(t)
		if err != nil {
			return errorStrategy(err)
		}
		if plan.pod {
			return atomicStrategy
		}
		return &strategy{shallow: plan.shallow, deep: plan.deep}
	}
	return unsupportedStrategy
}

// implements reports whether t, or a pointer to t, implements iface.
func implements(t, iface reflect.Type) bool {
	if t.Implements(iface) {
		return true
	}
	return t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface && reflect.PointerTo(t).Implements(iface)
}

// receiver boxes x so methods declared on *T are reachable from a T value.
func receiver(x reflect.Value, iface reflect.Type) any {
	if x.Type().Implements(iface) {
		return x.Interface()
	}
	p := reflect.New(x.Type())
	p.Elem().Set(x)
	return p.Interface()
}
