package carbon

// Factory builds a new value from copied arguments.
type Factory func(args ...any) (any, error)

// Recipe describes how to rebuild a value.
//
// State takes one of these shapes:
//
//   - nil: nothing to apply
//   - Fields or map[string]any: assigned to struct fields by name
//   - SlotState: Fields assigned directly, Slots through the attribute path
//   - []Assignment: every pair through the attribute path
//
// The attribute path is AttrSetter when the new value implements it, otherwise
// a direct field assignment. A value implementing StateApplier receives the
// state whole, whatever its shape.
type Recipe struct {
	Factory Factory // required unless Shared; a nil Factory makes the value uncopyable
	Args    []any
	State   any
	Items   []any   // appended in order after the state is applied
	Entries []Entry // inserted in order after the items
	Shared  bool    // the value is its own copy
}

// Fields maps struct field names to values.
type Fields map[string]any

// SlotState separates plain fields from attribute-style slots.
type SlotState struct {
	Fields Fields
	Slots  map[string]any
}

// Assignment is a single attribute assignment.
type Assignment struct {
	Name  string
	Value any
}

// Entry is a key and value inserted into a rebuilt mapping.
type Entry struct {
	Key   any
	Value any
}

// Constructor returns a Factory that ignores its arguments and returns fn().
func Constructor[T any](fn func() T) Factory {
	return func(...any) (any, error) {
		return fn(), nil
	}
}
