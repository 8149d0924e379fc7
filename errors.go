package tabload

import (
	"golang.org/x/xerrors"
)

var (
	// ErrMissingField is reported when a record has no value for a schema field.
	ErrMissingField = xerrors.New("missing field")

	// ErrNullNotAllowed is reported when a non-nullable field is null.
	ErrNullNotAllowed = xerrors.New("null not allowed")

	// ErrTypeCoercion is reported when a value cannot be coerced to its field type.
	ErrTypeCoercion = xerrors.New("type coercion failure")

	// ErrInvalidSchema is returned when a schema definition is inconsistent.
	ErrInvalidSchema = xerrors.New("invalid schema")
)

// FieldError describes why a single field of a record failed validation.
type FieldError struct {
	Kind  RejectionKind
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err == nil {
		return string(e.Kind) + ":" + e.Field
	}
	return string(e.Kind) + ":" + e.Field + ": " + e.Err.Error()
}

// Unwrap returns the sentinel of the error kind followed by the coercion
// cause, if any.
func (e *FieldError) Unwrap() []error {
	var sentinel error
	switch e.Kind {
	case MissingField:
		sentinel = ErrMissingField
	case NullNotAllowed:
		sentinel = ErrNullNotAllowed
	default:
		sentinel = ErrTypeCoercion
	}

	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}
