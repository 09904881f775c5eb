// Package bench provides copy benchmark scenarios and a runner that records
// their durations.
package bench

import (
	"fmt"
	"slices"
	"sort"

	"github.com/zoobzio/carbon"
)

// Scenario is a named graph and the copy operation timed against it.
type Scenario struct {
	Name  string
	Build func() any
	Run   func(c *carbon.Copier, v any) error
}

// Record carries a string, a list and a flag, and copies itself.
type Record struct {
	String string
	List   []int
	Flag   bool
}

// DeepCopy copies the list and shares the rest.
func (r Record) DeepCopy(_ *carbon.Memo) (any, error) {
	return Record{String: r.String, List: slices.Clone(r.List), Flag: r.Flag}, nil
}

// Counter rebuilds from a fresh value plus two state fields.
type Counter struct {
	A int
	B int
}

// NewCounter returns a Counter with its initial values.
func NewCounter() *Counter {
	return &Counter{A: 1, B: 2}
}

// Reduce describes the counter as a constructor plus state.
func (c *Counter) Reduce() (carbon.Recipe, error) {
	return carbon.Recipe{
		Factory: carbon.Constructor(NewCounter),
		State:   carbon.Fields{"A": c.A, "B": c.B},
	}, nil
}

// ApplyState implements carbon.StateApplier.
func (c *Counter) ApplyState(state any) error {
	fields, ok := state.(carbon.Fields)
	if !ok {
		return fmt.Errorf("counter state must be carbon.Fields, got %T", state)
	}
	for k, v := range fields {
		n, ok := v.(int)
		if !ok {
			return fmt.Errorf("counter field %s must be int, got %T", k, v)
		}
		switch k {
		case "A":
			c.A = n
		case "B":
			c.B = n
		default:
			return fmt.Errorf("counter has no field %s", k)
		}
	}
	return nil
}

// deepCopy is the Run function shared by the built-in scenarios.
func deepCopy(c *carbon.Copier, v any) error {
	_, err := c.DeepCopy(v)
	return err
}

// shallowCopy runs a shallow copy.
func shallowCopy(c *carbon.Copier, v any) error {
	_, err := c.Copy(v)
	return err
}

// Standard copies a nested map of common containers and a self-copying record.
func Standard() Scenario {
	return Scenario{
		Name: "standard",
		Build: func() any {
			return map[string]any{
				"list":    []any{1, 2, 3, 43},
				"t":       [3]any{1, 2, 3},
				"str":     "hello",
				"subdict": map[string]any{"a": true},
				"record":  Record{String: "hello", List: []int{1, 2, 3}, Flag: true},
			}
		},
		Run: deepCopy,
	}
}

// Reduce copies a value through a recipe with constructor and state.
func Reduce() Scenario {
	return Scenario{
		Name:  "reduce",
		Build: func() any { return NewCounter() },
		Run:   deepCopy,
	}
}

// Memo copies a graph where one list is referenced 103 times.
func Memo() Scenario {
	return Scenario{
		Name: "memo",
		Build: func() any {
			shared := make([]any, 100)
			for i := range shared {
				shared[i] = 1
			}
			refs := make([]any, 100)
			for i := range refs {
				refs[i] = shared
			}
			return map[string]any{
				"a": [3]any{shared, shared, shared},
				"b": refs,
			}
		},
		Run: deepCopy,
	}
}

// Shallow copies the memo graph's top level only.
func Shallow() Scenario {
	s := Memo()
	s.Name = "shallow"
	s.Run = shallowCopy
	return s
}

// Scenarios returns the built-in scenarios.
func Scenarios() []Scenario {
	return []Scenario{Standard(), Reduce(), Memo(), Shallow()}
}

// Names returns the built-in scenario names, sorted.
func Names() []string {
	all := Scenarios()
	names := make([]string, 0, len(all))
	for _, s := range all {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the built-in scenario with the given name.
func Lookup(name string) (Scenario, error) {
	for _, s := range Scenarios() {
		if s.Name == name {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
}

// FromValue wraps an already-built graph, such as a loaded fixture.
func FromValue(name string, v any, mode carbon.Mode) Scenario {
	run := deepCopy
	if mode == carbon.ModeShallow {
		run = shallowCopy
	}
	return Scenario{
		Name:  name,
		Build: func() any { return v },
		Run:   run,
	}
}
