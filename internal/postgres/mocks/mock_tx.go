package mocks

import (
	"context"

	"go.nownabe.dev/tabload/internal/postgres"
)

type Tx struct {
	QueryFn    func(ctx context.Context, query string, args ...any) (postgres.Rows, error)
	ExecFn     func(ctx context.Context, query string, args ...any) (postgres.CommandTag, error)
	CopyFromFn func(ctx context.Context, tableName string, columnNames []string, srcRows [][]any) (int64, error)
}

func (m *Tx) Query(ctx context.Context, query string, args ...any) (postgres.Rows, error) {
	return m.QueryFn(ctx, query, args...)
}

func (m *Tx) Exec(ctx context.Context, query string, args ...any) (postgres.CommandTag, error) {
	return m.ExecFn(ctx, query, args...)
}

func (m *Tx) CopyFrom(ctx context.Context, tableName string, columnNames []string, srcRows [][]any) (int64, error) {
	return m.CopyFromFn(ctx, tableName, columnNames, srcRows)
}
