package mocks

import (
	"github.com/jackc/pgx/v5/pgconn"
)

// Rows serves a fixed result set.
type Rows struct {
	Columns []string
	Data    [][]any
	ErrFn   func() error

	pos int
}

func (m *Rows) Close() {}

func (m *Rows) Err() error {
	if m.ErrFn != nil {
		return m.ErrFn()
	}
	return nil
}

func (m *Rows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(m.Columns))
	for i, c := range m.Columns {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return fds
}

func (m *Rows) Next() bool {
	if m.pos >= len(m.Data) {
		return false
	}
	m.pos++
	return true
}

func (m *Rows) Values() ([]any, error) {
	return m.Data[m.pos-1], nil
}
