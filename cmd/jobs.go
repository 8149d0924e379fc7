package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"google.golang.org/api/option"

	"go.nownabe.dev/tabload"
	"go.nownabe.dev/tabload/cmd/config"
)

// job is a configured handler together with the event that triggers it.
type job struct {
	name    string
	handler *tabload.Handler
	event   tabload.Event
}

// destination wraps the configured loader and releases it.
type destination struct {
	loader tabload.Loader
	close  func()
}

func (d *destination) querier() (tabload.Querier, error) {
	q, ok := d.loader.(tabload.Querier)
	if !ok {
		return nil, fmt.Errorf("destination %T does not support queries", d.loader)
	}
	return q, nil
}

func driverOf(cfg config.DestinationConfig) string {
	if cfg.Driver != "" {
		return strings.ToLower(cfg.Driver)
	}
	switch {
	case strings.HasPrefix(cfg.URL, "postgres://"), strings.HasPrefix(cfg.URL, "postgresql://"):
		return "pgx"
	case cfg.Project != "":
		return "bigquery"
	default:
		return "sqlite"
	}
}

func newDestination(ctx context.Context, cfg config.DestinationConfig) (*destination, error) {
	switch driver := driverOf(cfg); driver {
	case "pgx":
		l, err := tabload.NewPostgresLoader(ctx, cfg.URL, nil)
		if err != nil {
			return nil, err
		}
		return &destination{loader: l, close: func() { l.Close(ctx) }}, nil
	case "bigquery":
		l, err := tabload.NewBigQueryLoader(ctx, cfg.Project, cfg.Dataset)
		if err != nil {
			return nil, err
		}
		return &destination{loader: l, close: func() { l.Close() }}, nil
	default:
		l, err := tabload.NewSQLLoader(ctx, driver, cfg.URL, nil)
		if err != nil {
			return nil, err
		}
		return &destination{loader: l, close: func() { l.Close() }}, nil
	}
}

func newNotifier(cfg *config.Config) tabload.Notifier {
	if cfg.Slack == nil || cfg.Slack.Token == "" {
		return nil
	}
	return &tabload.SlackNotifier{
		Token:     cfg.Slack.Token,
		Channel:   cfg.Slack.Channel,
		Username:  cfg.Slack.Username,
		IconEmoji: cfg.Slack.IconEmoji,
	}
}

func buildJob(ctx context.Context, cfg *config.Config, jc config.JobConfig, dst *destination) (*job, error) {
	schema, err := newSchema(jc.Schema)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jc.Name, err)
	}

	parser, err := newParser(jc.Source)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jc.Name, err)
	}

	extractor, err := newExtractor(ctx, cfg, jc.Source)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jc.Name, err)
	}

	enc, err := newEncoding(jc.Encoding)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jc.Name, err)
	}

	mode, err := tabload.ParseMode(jc.Mode)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jc.Name, err)
	}

	table := jc.Table
	if table == "" {
		table = jc.Name
	}

	ev := eventOf(jc.Source)

	h := &tabload.Handler{
		Name:     jc.Name,
		Pattern:  regexp.MustCompile("^" + regexp.QuoteMeta(ev.Name) + "$"),
		Encoding: enc,
		Parser:   parser,
		Schema:   schema,
		Destination: &tabload.Destination{
			Table:          table,
			Mode:           mode,
			CreateTable:    jc.CreateTable,
			PrimaryKey:     jc.PrimaryKey,
			SkipDuplicates: jc.SkipDuplicates,
		},
		Notifier:  newNotifier(cfg),
		Extractor: extractor,
	}
	if dst != nil {
		h.Loader = dst.loader
	}

	return &job{name: jc.Name, handler: h, event: ev}, nil
}

func eventOf(src config.SourceConfig) tabload.Event {
	if src.Type == "sheets" {
		return tabload.Event{Name: src.Range, Bucket: src.SpreadsheetID}
	}
	return tabload.Event{Name: src.Path, Bucket: src.Bucket}
}

func newSchema(fields []config.FieldConfig) (*tabload.Schema, error) {
	fs := make([]tabload.Field, len(fields))
	for i, f := range fields {
		t, err := tabload.ParseType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		fs[i] = tabload.Field{Name: f.Name, Type: t, Nullable: f.Nullable}
	}
	return tabload.NewSchema(fs...)
}

func newParser(src config.SourceConfig) (tabload.Parser, error) {
	switch src.Type {
	case "csv", "":
		return tabload.CSVParser(), nil
	case "partial_csv":
		sep := src.Separator
		if sep == "" {
			sep = "\n"
		}
		return tabload.PartialCSVParser(src.SkipHeadRows, src.SkipTailRows, sep), nil
	case "json":
		return tabload.JSONParser(src.JSONPath), nil
	case "xls":
		return tabload.XLSParser(src.Sheet), nil
	case "sheets":
		return tabload.ValuesParser(), nil
	default:
		return nil, fmt.Errorf("unsupported source type %q", src.Type)
	}
}

func newExtractor(ctx context.Context, cfg *config.Config, src config.SourceConfig) (tabload.Extractor, error) {
	switch {
	case src.Type == "sheets":
		var opts []option.ClientOption
		if cfg.Sheets.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Sheets.CredentialsFile))
		}
		return tabload.NewSheetsExtractor(ctx, src.SpreadsheetID, src.Range, opts...)
	case src.Bucket != "":
		return tabload.NewStorageExtractor(ctx)
	default:
		return &tabload.FileExtractor{}, nil
	}
}

// newEncoding resolves an encoding by its WHATWG name such as "shift_jis".
// An empty name or utf-8 means no decoding.
func newEncoding(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

func loaderOptions(cfg *config.Config, rejections io.Writer) []tabload.Option {
	var opts []tabload.Option
	if cfg.LogLevel != "" {
		opts = append(opts, tabload.WithLogLevel(cfg.LogLevel))
	}
	if cfg.PrettyLogging {
		opts = append(opts, tabload.WithPrettyLogging())
	}
	if rejections != nil {
		opts = append(opts, tabload.WithRejectionLog(rejections))
	}
	return opts
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	var w io.Writer = os.Stderr
	if cfg.PrettyLogging {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
