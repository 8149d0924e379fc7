package tabload

import (
	"strings"

	"golang.org/x/xerrors"
)

// Type is the expected type of a field.
type Type int

const (
	// String accepts string values only.
	String Type = iota + 1
	// Text accepts any scalar and stores its string form.
	Text
	// Int coerces to int64.
	Int
	// Float coerces to float64.
	Float
	// Bool coerces to bool.
	Bool
	// Timestamp coerces to time.Time.
	Timestamp
)

var typeNames = map[Type]string{
	String:    "string",
	Text:      "text",
	Int:       "int",
	Float:     "float",
	Bool:      "bool",
	Timestamp: "timestamp",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "unknown"
}

// ParseType parses a type name such as "int" or "timestamp".
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "str":
		return String, nil
	case "text":
		return Text, nil
	case "int", "integer", "int64":
		return Int, nil
	case "float", "float64", "number", "double":
		return Float, nil
	case "bool", "boolean":
		return Bool, nil
	case "timestamp", "datetime", "date", "time":
		return Timestamp, nil
	default:
		return 0, xerrors.Errorf("unknown type %q: %w", s, ErrInvalidSchema)
	}
}

// CoerceFunc converts a non-null raw value into the value stored for a field.
type CoerceFunc func(v any) (any, error)

// Field describes a column of a schema.
type Field struct {
	Name     string
	Type     Type
	Nullable bool

	// Coerce overrides the default coercion of Type.
	Coerce CoerceFunc
}

// Schema is an ordered list of fields a record must satisfy.
type Schema struct {
	fields []Field
	coerce []CoerceFunc
}

// NewSchema builds a schema. Field names must be unique and non-empty.
func NewSchema(fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, xerrors.Errorf("no fields: %w", ErrInvalidSchema)
	}

	s := &Schema{
		fields: make([]Field, len(fields)),
		coerce: make([]CoerceFunc, len(fields)),
	}
	seen := make(map[string]bool, len(fields))

	for i, f := range fields {
		if f.Name == "" {
			return nil, xerrors.Errorf("field %d has no name: %w", i, ErrInvalidSchema)
		}
		if seen[f.Name] {
			return nil, xerrors.Errorf("duplicate field %q: %w", f.Name, ErrInvalidSchema)
		}
		seen[f.Name] = true

		c := f.Coerce
		if c == nil {
			var ok bool
			c, ok = coercers[f.Type]
			if !ok {
				return nil, xerrors.Errorf("field %q has unknown type %d: %w", f.Name, f.Type, ErrInvalidSchema)
			}
		}

		s.fields[i] = f
		s.coerce[i] = c
	}

	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns a copy of the schema fields in order.
func (s *Schema) Fields() []Field {
	fs := make([]Field, len(s.fields))
	copy(fs, s.fields)
	return fs
}

// Names returns the field names in order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Values returns the values of r in schema order.
func (s *Schema) Values(r ValidatedRecord) []any {
	vs := make([]any, len(s.fields))
	for i, f := range s.fields {
		vs[i] = r[f.Name]
	}
	return vs
}
