package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"go.nownabe.dev/tabload"
	"go.nownabe.dev/tabload/cmd/config"
)

func TestNewParser(t *testing.T) {
	t.Parallel()

	for _, typ := range []string{"", "csv", "partial_csv", "json", "xls", "sheets"} {
		p, err := newParser(config.SourceConfig{Type: typ})
		require.NoError(t, err, typ)
		require.NotNil(t, p, typ)
	}

	_, err := newParser(config.SourceConfig{Type: "parquet"})
	require.Error(t, err)
}

func TestNewEncoding(t *testing.T) {
	t.Parallel()

	enc, err := newEncoding("")
	require.NoError(t, err)
	require.Nil(t, enc)

	enc, err = newEncoding("UTF-8")
	require.NoError(t, err)
	require.Nil(t, enc)

	enc, err = newEncoding("shift_jis")
	require.NoError(t, err)
	require.Equal(t, japanese.ShiftJIS, enc)

	_, err = newEncoding("klingon")
	require.Error(t, err)
}

func TestNewSchema(t *testing.T) {
	t.Parallel()

	s, err := newSchema([]config.FieldConfig{
		{Name: "DisplayName", Type: "string"},
		{Name: "BeginDate", Type: "integer", Nullable: true},
	})
	require.NoError(t, err)
	require.Equal(t, []tabload.Field{
		{Name: "DisplayName", Type: tabload.String},
		{Name: "BeginDate", Type: tabload.Int, Nullable: true},
	}, s.Fields())

	_, err = newSchema([]config.FieldConfig{{Name: "a", Type: "blob"}})
	require.ErrorIs(t, err, tabload.ErrInvalidSchema)

	_, err = newSchema(nil)
	require.ErrorIs(t, err, tabload.ErrInvalidSchema)
}

func TestDriverOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, "mysql", driverOf(config.DestinationConfig{Driver: "MySQL"}))
	require.Equal(t, "pgx", driverOf(config.DestinationConfig{URL: "postgres://localhost/moma"}))
	require.Equal(t, "bigquery", driverOf(config.DestinationConfig{Project: "my-project"}))
	require.Equal(t, "sqlite", driverOf(config.DestinationConfig{URL: "moma.db"}))
}

func TestBuildJob_runsAgainstSQLite(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "Artists.csv")
	require.NoError(t, os.WriteFile(path, []byte("DisplayName,BeginDate,EndDate\nJohn,1990,2020\nJane,Avengers,2021\n"), 0o600))

	cfg := &config.Config{Destination: config.DestinationConfig{Driver: "sqlite", URL: ":memory:"}}
	dst, err := newDestination(ctx, cfg.Destination)
	require.NoError(t, err)
	defer dst.close()

	j, err := buildJob(ctx, cfg, config.JobConfig{
		Name:        "artists",
		Source:      config.SourceConfig{Type: "csv", Path: path},
		Mode:        "replace",
		CreateTable: true,
		Schema: []config.FieldConfig{
			{Name: "DisplayName", Type: "string"},
			{Name: "BeginDate", Type: "int"},
			{Name: "EndDate", Type: "int"},
		},
	}, dst)
	require.NoError(t, err)
	require.Equal(t, "artists", j.handler.Destination.Table)
	require.Equal(t, tabload.ModeReplace, j.handler.Destination.Mode)
	require.Nil(t, j.handler.Notifier)

	var rejections, logs bytes.Buffer
	loader, err := tabload.New(tabload.WithLogOutput(&logs), tabload.WithRejectionLog(&rejections))
	require.NoError(t, err)
	require.NoError(t, loader.AddHandler(ctx, j.handler))
	require.NoError(t, loader.Handle(ctx, j.event))

	require.Contains(t, rejections.String(), `"reason":"TypeCoercionFailure:BeginDate"`)

	q, err := dst.querier()
	require.NoError(t, err)
	rows, err := q.Query(ctx, &tabload.Query{Table: "artists"})
	require.NoError(t, err)
	require.Equal(t, []map[string]any{{"DisplayName": "John", "BeginDate": int64(1990), "EndDate": int64(2020)}}, rows)
}

func TestBuildJob_errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := &config.Config{}
	schema := []config.FieldConfig{{Name: "a", Type: "string"}}

	for name, jc := range map[string]config.JobConfig{
		"bad schema":   {Name: "j", Schema: []config.FieldConfig{{Name: "a", Type: "blob"}}},
		"bad source":   {Name: "j", Schema: schema, Source: config.SourceConfig{Type: "parquet"}},
		"bad encoding": {Name: "j", Schema: schema, Encoding: "klingon"},
		"bad mode":     {Name: "j", Schema: schema, Mode: "upsert"},
	} {
		_, err := buildJob(ctx, cfg, jc, nil)
		require.Error(t, err, name)
	}
}

func TestTableData(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := []map[string]any{
		{"b": int64(1), "a": "x", "c": nil},
		{"b": 2.5, "a": []byte("y"), "c": ts},
	}

	require.Equal(t, pterm.TableData{
		{"a", "b", "c"},
		{"x", "1", "NULL"},
		{"y", "2.5", "2024-01-02T03:04:05Z"},
	}, tableData(nil, rows))

	require.Equal(t, pterm.TableData{{"b"}, {"1"}, {"2.5"}}, tableData([]string{"b"}, rows))
}

func TestPrintValidations(t *testing.T) {
	pterm.DisableOutput()
	defer pterm.EnableOutput()

	results := []jobValidation{
		{name: "artists", validated: 3},
		{name: "weather", validated: 1, rejections: []tabload.Rejection{
			{Row: 0, Kind: tabload.NullNotAllowed, Field: "wind_direction", Reason: "NullNotAllowed:wind_direction"},
			{Row: 2, Kind: tabload.TypeCoercionFailure, Field: "latitude", Reason: "TypeCoercionFailure:latitude"},
		}},
	}

	require.NoError(t, printValidations(results, 1))
	require.NoError(t, printValidations(nil, 10))
}
