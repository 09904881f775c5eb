// Package carbon makes shallow and deep copies of arbitrary Go values.
//
// A shallow copy builds a new top-level container holding the same children as the
// original. A deep copy duplicates everything reachable from the value while keeping
// its aliasing: two references to one object in the source refer to one new object in
// the copy, and self-referential structures are copied without unrolling.
//
// # Basic Usage
//
//	type Node struct {
//	    Name string
//	    Next *Node
//	}
//
//	n := &Node{Name: "a"}
//	n.Next = n
//
//	c, _ := carbon.Clone(n)
//	// c != n, c.Next == c
//
//	s, _ := carbon.Copy([]any{n, n})
//	// s is a new slice, s.([]any)[0] == n
//
// # Dispatch
//
// Every runtime type resolves once to a copy strategy through a Registry:
//
//   - exact-type entries: atomic types, unsupported types, hand-tuned fast paths
//   - values implementing reflect.Type are atomic
//   - override hooks: ShallowCopyable, DeepCopyable
//   - the reconstruction protocol: registered reducers, Reconstructible, then the
//     default struct reducer built from field metadata
//   - structural strategies by kind: slice, map, array, pointer, interface
//   - anything left (channels, registered resources) fails with ErrUncopyable
//
// # Reconstruction
//
// Types that cannot be copied structurally describe themselves with a Recipe: a
// factory, its arguments, an optional state payload, and optional item and entry
// streams. A deep copy copies the arguments, builds the value, records it in the
// memo, then copies and applies the state. See Recipe for the state shapes.
//
// # Struct Tags
//
// The default struct reducer honours a copy tag:
//
//	Cache *lru.Cache `copy:"shallow"` // shared between original and copy
//	Scratch []byte   `copy:"-"`       // left zero in the copy
package carbon

// ShallowCopyable lets a type supply its own shallow copy.
// The result is returned verbatim by Copy.
type ShallowCopyable interface {
	ShallowCopy() (any, error)
}

// DeepCopyable lets a type supply its own deep copy.
//
// The memo is the one driving the current pass. Implementations copy their
// children with m.Copy (or CloneWith) so shared and cyclic references resolve to the
// copies already made. A type that may sit on a cycle should call m.Remember with its
// new instance before copying children.
type DeepCopyable interface {
	DeepCopy(m *Memo) (any, error)
}

// Reconstructible describes how to rebuild a value from parts.
// It is consulted when a type has no direct override.
type Reconstructible interface {
	Reduce() (Recipe, error)
}

// StateApplier replaces the generic field assignment used to apply Recipe.State.
type StateApplier interface {
	ApplyState(state any) error
}

// AttrSetter receives the attribute-style assignments of a Recipe: the Slots of a
// SlotState and every pair of an []Assignment state.
type AttrSetter interface {
	SetAttr(name string, value any) error
}

// Appender receives the Items stream of a Recipe.
type Appender interface {
	Append(items ...any) error
}

// Inserter receives the Entries stream of a Recipe.
type Inserter interface {
	Insert(key, value any) error
}
