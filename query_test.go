package tabload

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuery_build(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect string
		query   *Query

		wantSQL  string
		wantArgs []any
		wantErr  bool
	}{
		{
			name:     "all rows",
			dialect:  "postgres",
			query:    &Query{Table: "public.artists"},
			wantSQL:  `SELECT * FROM "public"."artists"`,
			wantArgs: []any{},
		},
		{
			name:    "where order limit",
			dialect: "postgres",
			query: &Query{
				Table:   "artists",
				Where:   map[string]any{"Nationality": "Japanese", "Gender": "Male"},
				OrderBy: "BeginDate",
				Desc:    true,
				Limit:   5,
			},
			wantSQL:  `SELECT * FROM "artists" WHERE "Gender" = $1 AND "Nationality" = $2 ORDER BY "BeginDate" DESC LIMIT $3`,
			wantArgs: []any{"Male", "Japanese", 5},
		},
		{
			name:     "mysql columns",
			dialect:  "mysql",
			query:    &Query{Table: "artists", Columns: []string{"DisplayName"}, Where: map[string]any{"BeginDate": "1990"}},
			wantSQL:  "SELECT `DisplayName` FROM `artists` WHERE `BeginDate` = ?",
			wantArgs: []any{"1990"},
		},
		{
			name:    "no table",
			dialect: "sqlite",
			query:   &Query{},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d, err := lookupDialect(tc.dialect)
			require.NoError(t, err)

			sql, args, err := tc.query.build(d.quote, d.placeholder)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantSQL, sql)
			require.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestParseWhere(t *testing.T) {
	where, err := ParseWhere([]string{"Gender=Male", " Nationality = Japanese"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"Gender": "Male", "Nationality": " Japanese"}, where)

	_, err = ParseWhere([]string{"Gender"})
	require.Error(t, err)
}

func TestDialect_statements(t *testing.T) {
	s := nullableArtistSchema()
	dst := &Destination{Table: "artists", PrimaryKey: []string{"DisplayName"}, SkipDuplicates: true}

	pg, err := lookupDialect("postgresql")
	require.NoError(t, err)
	require.Equal(t,
		`CREATE TABLE IF NOT EXISTS "artists" ("DisplayName" TEXT NOT NULL, "BeginDate" BIGINT NOT NULL, "EndDate" BIGINT, PRIMARY KEY ("DisplayName"))`,
		pg.createTable(dst, s))
	require.Equal(t,
		`INSERT INTO "artists" ("DisplayName", "BeginDate", "EndDate") VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		pg.insert(dst, s))

	my, err := lookupDialect("mysql")
	require.NoError(t, err)
	require.Equal(t,
		"INSERT IGNORE INTO `artists` (`DisplayName`, `BeginDate`, `EndDate`) VALUES (?, ?, ?)",
		my.insert(dst, s))
	require.Equal(t, "DELETE FROM `artists`", my.deleteAll(dst))

	dst.SkipDuplicates = false
	lite, err := lookupDialect("sqlite3")
	require.NoError(t, err)
	require.Equal(t,
		`INSERT INTO "artists" ("DisplayName", "BeginDate", "EndDate") VALUES (?, ?, ?)`,
		lite.insert(dst, s))
}
