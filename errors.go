package carbon

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrUncopyable indicates no copy strategy applies to a value's type.
	ErrUncopyable = errors.New("uncopyable value")

	// ErrNoField indicates reconstruction state named a field the target lacks.
	ErrNoField = errors.New("no such field")

	// ErrUnassignable indicates a produced value cannot be stored in its destination.
	ErrUnassignable = errors.New("value not assignable")

	// ErrStateShape indicates reconstruction state or streams of an unsupported shape.
	ErrStateShape = errors.New("unsupported state shape")

	// ErrInvalidTag indicates a copy struct tag with an unknown value.
	ErrInvalidTag = errors.New("invalid tag")
)

// UncopyableError reports the type that no strategy could copy.
type UncopyableError struct {
	Type reflect.Type // Offending type
	Mode Mode         // Copy being attempted
}

func (e *UncopyableError) Error() string {
	return fmt.Sprintf("un(%s)copyable value of type %s", e.Mode, typeName(e.Type))
}

func (e *UncopyableError) Unwrap() error {
	return ErrUncopyable
}

// FieldError reports a failure while applying reconstruction state to a value.
type FieldError struct {
	Err   error        // Underlying sentinel error (ErrNoField, ErrUnassignable, ErrStateShape)
	Type  reflect.Type // Type receiving the state
	Field string       // Field or attribute name, empty for whole-value failures
	Got   reflect.Type // Type of the value that could not be stored, if known
}

func (e *FieldError) Error() string {
	switch {
	case e.Field != "" && e.Got != nil:
		return fmt.Sprintf("%s: %s.%s cannot hold %s", e.Err.Error(), typeName(e.Type), e.Field, typeName(e.Got))
	case e.Field != "":
		return fmt.Sprintf("%s: %s.%s", e.Err.Error(), typeName(e.Type), e.Field)
	case e.Got != nil:
		return fmt.Sprintf("%s: %s cannot hold %s", e.Err.Error(), typeName(e.Type), typeName(e.Got))
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), typeName(e.Type))
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// newUncopyableError creates an UncopyableError for the given type and mode.
func newUncopyableError(t reflect.Type, mode Mode) error {
	return &UncopyableError{Type: t, Mode: mode}
}

// newFieldError creates a FieldError for state application failures.
func newFieldError(sentinel error, t reflect.Type, field string, got reflect.Type) error {
	return &FieldError{
		Err:   sentinel,
		Type:  t,
		Field: field,
		Got:   got,
	}
}

// typeName renders a type for messages and signals.
func typeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}
