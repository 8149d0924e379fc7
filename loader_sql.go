package tabload

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"

	"go.nownabe.dev/tabload/internal/backoff"
)

// SQLLoader loads records through database/sql. It supports the postgres,
// sqlite and mysql drivers.
type SQLLoader struct {
	db      *sql.DB
	dialect *dialect
}

// NewSQLLoader opens dsn with driver and waits until the database answers,
// retrying with bo. A nil bo uses backoff.DefaultConfig.
func NewSQLLoader(ctx context.Context, driver, dsn string, bo backoff.Provider) (*SQLLoader, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, xerrors.Errorf("failed to open %s: %w", d.name, err)
	}
	if d.name == "sqlite" {
		// each connection to an in-memory database is a new database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(10 * time.Minute)
	}

	if bo == nil {
		bo = backoff.NewProvider(&backoff.DefaultConfig)
	}
	ping := func() error { return db.PingContext(ctx) }
	notify := func(err error, wait time.Duration) {
		log.Ctx(ctx).Warn().Err(err).Dur("backoff", wait).Msg("database not ready")
	}
	if err := bo(ctx).RetryNotify(ping, notify); err != nil {
		db.Close()
		return nil, xerrors.Errorf("failed to connect to %s: %w", d.name, err)
	}

	return &SQLLoader{db: db, dialect: d}, nil
}

func (l *SQLLoader) Close() error {
	return l.db.Close()
}

func (l *SQLLoader) Load(ctx context.Context, dst *Destination, s *Schema, records []ValidatedRecord) (int64, error) {
	if err := dst.validate(s); err != nil {
		return 0, err
	}
	logger := log.Ctx(ctx).With().Str("table", dst.Table).Str("driver", l.dialect.name).Logger()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, xerrors.Errorf("failed to begin transaction: %w", err)
	}

	n, err := l.load(ctx, tx, dst, s, records)
	if err != nil {
		tx.Rollback()
		logger.Error().Err(err).Msg("load failed, rolled back")
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, xerrors.Errorf("failed to commit: %w", err)
	}
	logger.Info().Int64("rows", n).Str("mode", string(dst.Mode)).Msg("loaded")

	return n, nil
}

func (l *SQLLoader) load(ctx context.Context, tx *sql.Tx, dst *Destination, s *Schema, records []ValidatedRecord) (int64, error) {
	if dst.CreateTable {
		if _, err := tx.ExecContext(ctx, l.dialect.createTable(dst, s)); err != nil {
			return 0, xerrors.Errorf("failed to create table %s: %w", dst.Table, err)
		}
	}

	if dst.Mode == ModeReplace {
		if _, err := tx.ExecContext(ctx, l.dialect.deleteAll(dst)); err != nil {
			return 0, xerrors.Errorf("failed to delete rows of %s: %w", dst.Table, err)
		}
	}

	if len(records) == 0 {
		return 0, nil
	}

	stmt, err := tx.PrepareContext(ctx, l.dialect.insert(dst, s))
	if err != nil {
		return 0, xerrors.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var total int64
	for i, row := range rowsOf(s, records) {
		res, err := stmt.ExecContext(ctx, row...)
		if err != nil {
			return 0, xerrors.Errorf("failed to insert record %d: %w", i, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, xerrors.Errorf("failed to get affected rows: %w", err)
		}
		total += n
	}

	return total, nil
}

func (l *SQLLoader) Query(ctx context.Context, q *Query) ([]map[string]any, error) {
	query, args, err := q.build(l.dialect.quote, l.dialect.placeholder)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Debug().Str("query", query).Msg("querying")

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, xerrors.Errorf("failed to query %s: %w", q.Table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, xerrors.Errorf("failed to get columns: %w", err)
	}

	result := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, xerrors.Errorf("failed to scan row: %w", err)
		}

		m := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				m[c] = string(b)
			} else {
				m[c] = vals[i]
			}
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Errorf("failed to read rows: %w", err)
	}

	return result, nil
}
