package carbon

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type registryPoint struct{ X, Y int }

type registryTree struct {
	Label    string
	Children []*registryTree
}

type registryHooked struct{ N int }

func (h registryHooked) DeepCopy(_ *Memo) (any, error) {
	return registryHooked{N: -h.N}, nil
}

type registryRebuilt struct{ Items []int }

func (r *registryRebuilt) Reduce() (Recipe, error) {
	return Recipe{
		Factory: Constructor(func() *registryRebuilt { return &registryRebuilt{} }),
		State:   Fields{"Items": r.Items},
	}, nil
}

func TestRegistry_Builtins(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		typ  reflect.Type
		want *strategy
	}{
		{"time", reflect.TypeFor[time.Time](), atomicStrategy},
		{"duration", reflect.TypeFor[time.Duration](), atomicStrategy},
		{"location", reflect.TypeFor[*time.Location](), atomicStrategy},
		{"mutex", reflect.TypeFor[sync.Mutex](), unsupportedStrategy},
		{"mutex pointer", reflect.TypeFor[*sync.Mutex](), unsupportedStrategy},
		{"any slice", reflect.TypeFor[[]any](), anySliceStrategy},
		{"any map", reflect.TypeFor[map[string]any](), anyMapStrategy},
		{"fields", reflect.TypeFor[Fields](), fieldsStrategy},
		{"bytes", reflect.TypeFor[[]byte](), podSliceStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.resolve(tt.typ); got != tt.want {
				t.Errorf("resolve(%v) returned the wrong strategy", tt.typ)
			}
		})
	}
}

func TestRegistry_ByKind(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		typ  reflect.Type
		want *strategy
	}{
		{"int", reflect.TypeFor[int](), atomicStrategy},
		{"string", reflect.TypeFor[string](), atomicStrategy},
		{"func", reflect.TypeFor[func()](), atomicStrategy},
		{"chan", reflect.TypeFor[chan int](), unsupportedStrategy},
		{"pod slice", reflect.TypeFor[[]uint16](), podSliceStrategy},
		{"slice", reflect.TypeFor[[][]int](), sliceStrategy},
		{"map", reflect.TypeFor[map[int]string](), mapStrategy},
		{"pod array", reflect.TypeFor[[4]int](), atomicStrategy},
		{"array", reflect.TypeFor[[2][]int](), arrayStrategy},
		{"pointer", reflect.TypeFor[*int](), pointerStrategy},
		{"pod struct", reflect.TypeFor[registryPoint](), atomicStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.resolve(tt.typ); got != tt.want {
				t.Errorf("resolve(%v) returned the wrong strategy", tt.typ)
			}
		})
	}
}

func TestRegistry_StructStrategy(t *testing.T) {
	r := NewRegistry()
	s := r.resolve(reflect.TypeFor[registryTree]())

	if s.atomic {
		t.Fatal("a struct holding references should not be atomic")
	}
	if s.shallow == nil || s.deep == nil {
		t.Error("struct strategy should define shallow and deep")
	}
}

func TestRegistry_ReflectTypeIsAtomic(t *testing.T) {
	r := NewRegistry()
	rt := reflect.TypeOf(reflect.TypeFor[int]())

	if got := r.resolve(rt); got != atomicStrategy {
		t.Errorf("resolve(%v) should be atomic", rt)
	}
}

func TestRegistry_Caching(t *testing.T) {
	r := NewRegistry()
	rt := reflect.TypeFor[registryTree]()

	s1 := r.resolve(rt)
	s2 := r.resolve(rt)

	if s1 != s2 {
		t.Error("resolve() should return the cached strategy")
	}
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry()
	r.resolve(reflect.TypeFor[registryTree]())

	if len(r.cache) == 0 {
		t.Fatal("resolve() should populate the cache")
	}

	r.Reset()

	if len(r.cache) != 0 {
		t.Errorf("cache has %d entries after Reset(), want 0", len(r.cache))
	}
	if r.Len() != NewRegistry().Len() {
		t.Error("Reset() should keep registrations")
	}
}

func TestRegistry_RegistrationClearsCache(t *testing.T) {
	r := NewRegistry()
	rt := reflect.TypeFor[registryTree]()

	if r.resolve(rt) == atomicStrategy {
		t.Fatal("registryTree should not start atomic")
	}

	Atomic[registryTree](r)

	if r.resolve(rt) != atomicStrategy {
		t.Error("Atomic() should take effect on the next resolve")
	}

	Unsupported[registryTree](r)

	if r.resolve(rt) != unsupportedStrategy {
		t.Error("Unsupported() should take effect on the next resolve")
	}
}

func TestRegistry_Len(t *testing.T) {
	r := NewRegistry()
	base := r.Len()

	Atomic[registryPoint](r)
	if r.Len() != base+1 {
		t.Errorf("Len() = %d, want %d", r.Len(), base+1)
	}

	// Replacing a registration keeps the count.
	Reduce(r, func(p registryPoint) (Recipe, error) {
		return Recipe{Shared: true}, nil
	})
	if r.Len() != base+1 {
		t.Errorf("Len() = %d, want %d", r.Len(), base+1)
	}
}

func TestRegistry_Reducer(t *testing.T) {
	r := NewRegistry()
	calls := 0
	Reduce(r, func(p registryPoint) (Recipe, error) {
		calls++
		return Recipe{
			Factory: Constructor(func() registryPoint { return registryPoint{} }),
			State:   Fields{"X": p.Y, "Y": p.X},
		}, nil
	})
	c := New(WithRegistry(r), WithSignals(false))

	got, err := c.DeepCopy(registryPoint{X: 1, Y: 2})
	if err != nil {
		t.Fatalf("DeepCopy() error: %v", err)
	}
	if calls != 1 {
		t.Errorf("reducer called %d times, want 1", calls)
	}
	if want := (registryPoint{X: 2, Y: 1}); got != want {
		t.Errorf("DeepCopy() = %v, want %v", got, want)
	}
}

func TestRegistry_ReducerErrorPropagates(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	Reduce(r, func(_ registryPoint) (Recipe, error) {
		return Recipe{}, boom
	})
	c := New(WithRegistry(r), WithSignals(false))

	if _, err := c.DeepCopy(registryPoint{}); !errors.Is(err, boom) {
		t.Errorf("DeepCopy() error = %v, want %v", err, boom)
	}
}

func TestRegistry_OverrideOverAtomicBase(t *testing.T) {
	r := NewRegistry()
	s := r.resolve(reflect.TypeFor[registryHooked]())

	if s.atomic {
		t.Fatal("a type with a DeepCopy hook should not be atomic")
	}

	c := New(WithRegistry(r), WithSignals(false))
	src := registryHooked{N: 3}

	shallow, err := c.Copy(src)
	if err != nil {
		t.Fatalf("Copy() error: %v", err)
	}
	if shallow != src {
		t.Errorf("Copy() = %v, want %v", shallow, src)
	}

	deep, err := c.DeepCopy(src)
	if err != nil {
		t.Fatalf("DeepCopy() error: %v", err)
	}
	if deep != (registryHooked{N: -3}) {
		t.Errorf("DeepCopy() = %v, want the hook result", deep)
	}
}

func TestRegistry_PointerReceiverProtocol(t *testing.T) {
	r := NewRegistry()

	if r.resolve(reflect.TypeFor[*registryRebuilt]()) != reconstructibleStrategy {
		t.Error("*registryRebuilt should use the reconstruction protocol")
	}
	if r.resolve(reflect.TypeFor[registryRebuilt]()) != reconstructibleStrategy {
		t.Error("registryRebuilt should reach Reduce through its pointer")
	}
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	r := NewRegistry()
	types := []reflect.Type{
		reflect.TypeFor[registryTree](),
		reflect.TypeFor[[]*registryTree](),
		reflect.TypeFor[map[string]registryTree](),
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, rt := range types {
				r.resolve(rt)
			}
		}()
	}
	wg.Wait()

	if len(r.cache) != len(types) {
		t.Errorf("cache has %d entries, want %d", len(r.cache), len(types))
	}
}

func TestRegistry_RecursiveStrategiesInitialized(t *testing.T) {
	tests := []struct {
		name string
		s    *strategy
	}{
		{"slice", sliceStrategy},
		{"map", mapStrategy},
		{"array", arrayStrategy},
		{"pointer", pointerStrategy},
		{"interface", interfaceStrategy},
		{"reconstructible", reconstructibleStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.s == nil {
				t.Fatal("strategy should be assigned at init")
			}
			if tt.s.shallow == nil || tt.s.deep == nil {
				t.Error("strategy should define shallow and deep")
			}
		})
	}
}
