package tabload

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"

	"go.nownabe.dev/tabload/internal/backoff"
	"go.nownabe.dev/tabload/internal/postgres"
)

// PostgresLoader loads records into PostgreSQL through a pgx pool. Plain
// inserts use COPY; SkipDuplicates switches to INSERT ... ON CONFLICT DO
// NOTHING.
type PostgresLoader struct {
	querier postgres.Querier
}

// NewPostgresLoader connects to url and pings it, retrying transient errors
// with bo. A nil bo uses backoff.DefaultConfig.
func NewPostgresLoader(ctx context.Context, url string, bo backoff.Provider) (*PostgresLoader, error) {
	pool, err := postgres.NewConnPool(ctx, url)
	if err != nil {
		return nil, xerrors.Errorf("failed to build connection pool: %w", err)
	}

	if bo == nil {
		bo = backoff.NewProvider(&backoff.DefaultConfig)
	}
	ping := func() error {
		err := pool.Ping(ctx)
		if err != nil && !postgres.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Ctx(ctx).Warn().Err(err).Dur("backoff", wait).Msg("postgres not ready")
	}
	if err := bo(ctx).RetryNotify(ping, notify); err != nil {
		pool.Close(ctx)
		return nil, xerrors.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresLoader{querier: pool}, nil
}

func (l *PostgresLoader) Close(ctx context.Context) error {
	return l.querier.Close(ctx)
}

func (l *PostgresLoader) Load(ctx context.Context, dst *Destination, s *Schema, records []ValidatedRecord) (int64, error) {
	if err := dst.validate(s); err != nil {
		return 0, err
	}
	logger := log.Ctx(ctx).With().Str("table", dst.Table).Str("driver", "pgx").Logger()

	var n int64
	err := l.querier.ExecInTx(ctx, func(tx postgres.Tx) error {
		var err error
		n, err = l.load(ctx, tx, dst, s, records)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Msg("load failed, rolled back")
		return 0, err
	}
	logger.Info().Int64("rows", n).Str("mode", string(dst.Mode)).Msg("loaded")

	return n, nil
}

func (l *PostgresLoader) load(ctx context.Context, tx postgres.Tx, dst *Destination, s *Schema, records []ValidatedRecord) (int64, error) {
	d := dialects["postgres"]
	table := postgres.QuoteQualifiedIdentifier(dst.Table)

	if dst.CreateTable {
		if _, err := tx.Exec(ctx, d.createTable(dst, s)); err != nil {
			return 0, xerrors.Errorf("failed to create table %s: %w", table, err)
		}
	}

	if dst.Mode == ModeReplace {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return 0, xerrors.Errorf("failed to delete rows of %s: %w", table, err)
		}
	}

	if len(records) == 0 {
		return 0, nil
	}
	rows := rowsOf(s, records)

	if !dst.SkipDuplicates {
		n, err := tx.CopyFrom(ctx, dst.Table, s.Names(), rows)
		if err != nil {
			return 0, xerrors.Errorf("failed to copy into %s: %w", table, err)
		}
		return n, nil
	}

	query := d.insert(dst, s)
	var total int64
	for i, row := range rows {
		tag, err := tx.Exec(ctx, query, row...)
		if err != nil {
			return 0, xerrors.Errorf("failed to insert record %d: %w", i, err)
		}
		total += tag.RowsAffected()
	}

	return total, nil
}

func (l *PostgresLoader) Query(ctx context.Context, q *Query) ([]map[string]any, error) {
	d := dialects["postgres"]
	query, args, err := q.build(d.quote, d.placeholder)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Debug().Str("query", query).Msg("querying")

	rows, err := l.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, xerrors.Errorf("failed to query %s: %w", q.Table, err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	result := []map[string]any{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, xerrors.Errorf("failed to read row: %w", err)
		}
		m := make(map[string]any, len(fds))
		for i, fd := range fds {
			m[fd.Name] = vals[i]
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Errorf("failed to read rows: %w", err)
	}

	return result, nil
}
