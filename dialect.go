package tabload

import (
	"strconv"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/xerrors"

	// database/sql drivers
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// dialect holds what differs between SQL databases when writing and reading
// a destination table.
type dialect struct {
	name   string
	driver string

	quote       func(string) string
	placeholder func(int) string
	columnTypes map[Type]string

	// insertIgnore is the INSERT prefix and onConflict the suffix used when
	// duplicates are skipped.
	insertIgnore string
	onConflict   string
}

var dialects = map[string]*dialect{
	"postgres": {
		name:        "postgres",
		driver:      "postgres",
		quote:       pq.QuoteIdentifier,
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		columnTypes: map[Type]string{
			String:    "TEXT",
			Text:      "TEXT",
			Int:       "BIGINT",
			Float:     "DOUBLE PRECISION",
			Bool:      "BOOLEAN",
			Timestamp: "TIMESTAMPTZ",
		},
		insertIgnore: "INSERT INTO",
		onConflict:   " ON CONFLICT DO NOTHING",
	},
	"sqlite": {
		name:        "sqlite",
		driver:      "sqlite",
		quote:       quoteDouble,
		placeholder: func(int) string { return "?" },
		columnTypes: map[Type]string{
			String:    "TEXT",
			Text:      "TEXT",
			Int:       "INTEGER",
			Float:     "REAL",
			Bool:      "BOOLEAN",
			Timestamp: "TIMESTAMP",
		},
		insertIgnore: "INSERT INTO",
		onConflict:   " ON CONFLICT DO NOTHING",
	},
	"mysql": {
		name:        "mysql",
		driver:      "mysql",
		quote:       quoteBacktick,
		placeholder: func(int) string { return "?" },
		columnTypes: map[Type]string{
			String:    "VARCHAR(255)",
			Text:      "TEXT",
			Int:       "BIGINT",
			Float:     "DOUBLE",
			Bool:      "BOOLEAN",
			Timestamp: "DATETIME(6)",
		},
		insertIgnore: "INSERT IGNORE INTO",
	},
}

func lookupDialect(name string) (*dialect, error) {
	switch strings.ToLower(name) {
	case "postgresql", "pgx":
		name = "postgres"
	case "sqlite3":
		name = "sqlite"
	}
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return nil, xerrors.Errorf("unsupported sql driver %q", name)
	}
	return d, nil
}

func quoteDouble(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteBacktick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func (d *dialect) createTable(dst *Destination, s *Schema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS " + quoteQualified(dst.Table, d.quote) + " (")
	for i, f := range s.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.quote(f.Name) + " " + d.columnTypes[f.Type])
		if !f.Nullable {
			b.WriteString(" NOT NULL")
		}
	}
	if len(dst.PrimaryKey) > 0 {
		keys := make([]string, len(dst.PrimaryKey))
		for i, k := range dst.PrimaryKey {
			keys[i] = d.quote(k)
		}
		b.WriteString(", PRIMARY KEY (" + strings.Join(keys, ", ") + ")")
	}
	b.WriteString(")")
	return b.String()
}

func (d *dialect) deleteAll(dst *Destination) string {
	return "DELETE FROM " + quoteQualified(dst.Table, d.quote)
}

func (d *dialect) insert(dst *Destination, s *Schema) string {
	names := s.Names()
	cols := make([]string, len(names))
	params := make([]string, len(names))
	for i, n := range names {
		cols[i] = d.quote(n)
		params[i] = d.placeholder(i + 1)
	}

	prefix, suffix := "INSERT INTO", ""
	if dst.SkipDuplicates {
		prefix, suffix = d.insertIgnore, d.onConflict
	}

	return prefix + " " + quoteQualified(dst.Table, d.quote) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(params, ", ") + ")" + suffix
}
