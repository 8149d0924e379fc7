package tabload

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

var bigQueryTypes = map[Type]bigquery.FieldType{
	String:    bigquery.StringFieldType,
	Text:      bigquery.StringFieldType,
	Int:       bigquery.IntegerFieldType,
	Float:     bigquery.FloatFieldType,
	Bool:      bigquery.BooleanFieldType,
	Timestamp: bigquery.TimestampFieldType,
}

// BigQueryLoader loads records with BigQuery load jobs. Destination tables
// are "table" in the loader's dataset or "dataset.table".
type BigQueryLoader struct {
	client  *bigquery.Client
	dataset string
}

func NewBigQueryLoader(ctx context.Context, project, dataset string) (*BigQueryLoader, error) {
	bq, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, xerrors.Errorf("failed to build bigquery client: %w", err)
	}

	return &BigQueryLoader{client: bq, dataset: dataset}, nil
}

func (l *BigQueryLoader) Close() error {
	return l.client.Close()
}

func (l *BigQueryLoader) table(name string) (*bigquery.Table, error) {
	dataset, table := l.dataset, name
	if ds, t, ok := strings.Cut(name, "."); ok {
		dataset, table = ds, t
	}
	if dataset == "" {
		return nil, xerrors.Errorf("no dataset for table %q", name)
	}
	return l.client.Dataset(dataset).Table(table), nil
}

func (l *BigQueryLoader) Load(ctx context.Context, dst *Destination, s *Schema, records []ValidatedRecord) (int64, error) {
	if err := dst.validate(s); err != nil {
		return 0, err
	}
	logger := log.Ctx(ctx).With().Str("table", dst.Table).Str("driver", "bigquery").Logger()

	t, err := l.table(dst.Table)
	if err != nil {
		return 0, err
	}

	rs, err := bigQuerySource(s, records)
	if err != nil {
		logger.Error().Err(err).Msg("failed to write csv")
		return 0, err
	}

	loader := t.LoaderFrom(rs)
	loader.WriteDisposition = bigquery.WriteAppend
	if dst.Mode == ModeReplace {
		loader.WriteDisposition = bigquery.WriteTruncate
	}
	loader.CreateDisposition = bigquery.CreateNever
	if dst.CreateTable {
		loader.CreateDisposition = bigquery.CreateIfNeeded
	}

	job, err := loader.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to run bigquery load job")
		return 0, xerrors.Errorf("failed to run load job: %w", err)
	}
	logger.Debug().Str("job", job.ID()).Msg("load job started")

	status, err := job.Wait(ctx)
	if err != nil {
		logger.Error().Err(err).Str("job", job.ID()).Msg("failed to wait job")
		return 0, xerrors.Errorf("failed to wait load job: %w", err)
	}
	if status.Err() != nil {
		logger.Error().Err(status.Err()).Interface("errors", status.Errors).Msg("failed to load csv")
		return 0, xerrors.Errorf("load job failed: %w", status.Err())
	}

	n := int64(len(records))
	if status.Statistics != nil {
		if stats, ok := status.Statistics.Details.(*bigquery.LoadStatistics); ok {
			n = stats.OutputRows
		}
	}
	logger.Info().Int64("rows", n).Str("mode", string(dst.Mode)).Msg("loaded")

	return n, nil
}

// bigQuerySource builds the CSV load source of records. Nulls are written as
// empty fields, the default null marker. Validated values are never blank
// strings, so only a custom coercion returning "" can collide with it.
func bigQuerySource(s *Schema, records []ValidatedRecord) (*bigquery.ReaderSource, error) {
	buf, err := bigQueryCSV(s, records)
	if err != nil {
		return nil, err
	}

	rs := bigquery.NewReaderSource(buf)
	rs.Schema = bigQuerySchema(s)
	rs.AllowQuotedNewlines = true

	return rs, nil
}

func bigQuerySchema(s *Schema) bigquery.Schema {
	fs := s.Fields()
	schema := make(bigquery.Schema, len(fs))
	for i, f := range fs {
		schema[i] = &bigquery.FieldSchema{
			Name:     f.Name,
			Type:     bigQueryTypes[f.Type],
			Required: !f.Nullable,
		}
	}
	return schema
}

func bigQueryCSV(s *Schema, records []ValidatedRecord) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	for _, row := range rowsOf(s, records) {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = bigQueryCell(v)
		}
		if err := w.Write(cells); err != nil {
			return nil, xerrors.Errorf("failed to write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, xerrors.Errorf("failed to write csv: %w", err)
	}

	return buf, nil
}

func bigQueryCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05.999999")
	default:
		return fmt.Sprint(x)
	}
}
