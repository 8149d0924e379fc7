package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Tx interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) (CommandTag, error)
	CopyFrom(ctx context.Context, tableName string, columnNames []string, srcRows [][]any) (int64, error)
}

type Txn struct {
	pgx.Tx
}

func (t *Txn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.Tx.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (t *Txn) Exec(ctx context.Context, query string, args ...any) (CommandTag, error) {
	tag, err := t.Tx.Exec(ctx, query, args...)
	return CommandTag{tag}, mapError(err)
}

// CopyFrom writes srcRows with the COPY protocol and returns the number of
// rows copied.
func (t *Txn) CopyFrom(ctx context.Context, tableName string, columnNames []string, srcRows [][]any) (int64, error) {
	identifier, err := newIdentifier(tableName)
	if err != nil {
		return -1, err
	}

	// pgx quotes the names itself
	cols := make([]string, len(columnNames))
	for i, c := range columnNames {
		cols[i] = removeQuotes(c)
	}

	n, err := t.Tx.CopyFrom(ctx, identifier, cols, pgx.CopyFromRows(srcRows))
	return n, mapError(err)
}
