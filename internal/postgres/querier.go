package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

type Querier interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) (CommandTag, error)
	ExecInTx(ctx context.Context, fn func(Tx) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Rows is the subset of pgx.Rows used to read query results.
type Rows interface {
	Close()
	Err() error
	FieldDescriptions() []pgconn.FieldDescription
	Next() bool
	Values() ([]any, error)
}

type CommandTag struct {
	pgconn.CommandTag
}
