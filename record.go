package tabload

import (
	"fmt"
)

// RawRecord is a row read from a source, keyed by column name.
// Values keep whatever type the source produced.
type RawRecord map[string]any

// ValidatedRecord is a row whose values have been coerced to the schema types.
// It holds exactly the schema fields; null values of nullable fields are nil.
type ValidatedRecord map[string]any

// RejectionKind classifies why a record was rejected.
type RejectionKind string

const (
	MissingField        RejectionKind = "MissingField"
	NullNotAllowed      RejectionKind = "NullNotAllowed"
	TypeCoercionFailure RejectionKind = "TypeCoercionFailure"
)

// Rejection is a record that failed validation.
type Rejection struct {
	// Row is the index of the record in the validator input.
	Row    int
	Kind   RejectionKind
	Field  string
	Reason string
	Err    error
}

func (r Rejection) String() string {
	return fmt.Sprintf("row %d: %s", r.Row, r.Reason)
}
