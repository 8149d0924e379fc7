package mocks

import (
	"context"

	"go.nownabe.dev/tabload/internal/postgres"
)

type Querier struct {
	QueryFn    func(ctx context.Context, query string, args ...any) (postgres.Rows, error)
	ExecFn     func(ctx context.Context, query string, args ...any) (postgres.CommandTag, error)
	ExecInTxFn func(ctx context.Context, fn func(postgres.Tx) error) error
	PingFn     func(ctx context.Context) error
	CloseFn    func(ctx context.Context) error
}

func (m *Querier) Query(ctx context.Context, query string, args ...any) (postgres.Rows, error) {
	return m.QueryFn(ctx, query, args...)
}

func (m *Querier) Exec(ctx context.Context, query string, args ...any) (postgres.CommandTag, error) {
	return m.ExecFn(ctx, query, args...)
}

func (m *Querier) ExecInTx(ctx context.Context, fn func(postgres.Tx) error) error {
	return m.ExecInTxFn(ctx, fn)
}

func (m *Querier) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}

func (m *Querier) Close(ctx context.Context) error {
	if m.CloseFn != nil {
		return m.CloseFn(ctx)
	}
	return nil
}
