package tabload

// Validate checks every record against the schema and coerces its values.
//
// Records that satisfy the schema are returned in input order. Every other
// record yields exactly one Rejection naming its index and the first failing
// field, so len(validated)+len(rejections) == len(records). The input is not
// modified.
func Validate(records []RawRecord, s *Schema) ([]ValidatedRecord, []Rejection) {
	validated := make([]ValidatedRecord, 0, len(records))
	var rejections []Rejection

	for i, r := range records {
		v, ferr := s.validate(r)
		if ferr != nil {
			rejections = append(rejections, Rejection{
				Row:    i,
				Kind:   ferr.Kind,
				Field:  ferr.Field,
				Reason: string(ferr.Kind) + ":" + ferr.Field,
				Err:    ferr,
			})
			continue
		}
		validated = append(validated, v)
	}

	return validated, rejections
}

func (s *Schema) validate(r RawRecord) (ValidatedRecord, *FieldError) {
	v := make(ValidatedRecord, len(s.fields))

	for i, f := range s.fields {
		raw, ok := r[f.Name]
		if !ok {
			return nil, &FieldError{Kind: MissingField, Field: f.Name}
		}

		if isNull(raw) {
			if !f.Nullable {
				return nil, &FieldError{Kind: NullNotAllowed, Field: f.Name}
			}
			v[f.Name] = nil
			continue
		}

		c, err := s.coerce[i](raw)
		if err != nil {
			return nil, &FieldError{Kind: TypeCoercionFailure, Field: f.Name, Err: err}
		}
		v[f.Name] = c
	}

	return v, nil
}
