package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "TABLOAD_"

var (
	errNoJobs           = errors.New("no jobs configured")
	errUnknownJob       = errors.New("unknown job")
	errNoDestinationURL = errors.New("destination url is required")
	errConfigExtension  = errors.New("config file must be .yaml, .yml or .env")
)

// Config is the whole tabload configuration.
type Config struct {
	LogLevel       string            `mapstructure:"log_level" yaml:"log_level"`
	PrettyLogging  bool              `mapstructure:"pretty_logging" yaml:"pretty_logging"`
	RejectionsFile string            `mapstructure:"rejections_file" yaml:"rejections_file"`
	Destination    DestinationConfig `mapstructure:"destination" yaml:"destination"`
	Sheets         SheetsConfig      `mapstructure:"sheets" yaml:"sheets"`
	Slack          *SlackConfig      `mapstructure:"slack" yaml:"slack"`
	Jobs           []JobConfig       `mapstructure:"jobs" yaml:"jobs"`
}

type DestinationConfig struct {
	// Driver is one of pgx, postgres, sqlite, mysql or bigquery.
	Driver  string `mapstructure:"driver" yaml:"driver"`
	URL     string `mapstructure:"url" yaml:"url"`
	Project string `mapstructure:"project" yaml:"project"`
	Dataset string `mapstructure:"dataset" yaml:"dataset"`
}

type SheetsConfig struct {
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
}

type SlackConfig struct {
	Token     string `mapstructure:"token" yaml:"token"`
	Channel   string `mapstructure:"channel" yaml:"channel"`
	Username  string `mapstructure:"username" yaml:"username"`
	IconEmoji string `mapstructure:"icon_emoji" yaml:"icon_emoji"`
}

type JobConfig struct {
	Name           string        `mapstructure:"name" yaml:"name"`
	Source         SourceConfig  `mapstructure:"source" yaml:"source"`
	Encoding       string        `mapstructure:"encoding" yaml:"encoding"`
	Table          string        `mapstructure:"table" yaml:"table"`
	Mode           string        `mapstructure:"mode" yaml:"mode"`
	CreateTable    bool          `mapstructure:"create_table" yaml:"create_table"`
	SkipDuplicates bool          `mapstructure:"skip_duplicates" yaml:"skip_duplicates"`
	PrimaryKey     []string      `mapstructure:"primary_key" yaml:"primary_key"`
	Schema         []FieldConfig `mapstructure:"schema" yaml:"schema"`
}

type SourceConfig struct {
	// Type is one of csv, partial_csv, json, xls or sheets.
	Type          string `mapstructure:"type" yaml:"type"`
	Path          string `mapstructure:"path" yaml:"path"`
	Bucket        string `mapstructure:"bucket" yaml:"bucket"`
	SpreadsheetID string `mapstructure:"spreadsheet_id" yaml:"spreadsheet_id"`
	Range         string `mapstructure:"range" yaml:"range"`
	JSONPath      string `mapstructure:"json_path" yaml:"json_path"`
	Sheet         int    `mapstructure:"sheet" yaml:"sheet"`
	SkipHeadRows  uint   `mapstructure:"skip_head_rows" yaml:"skip_head_rows"`
	SkipTailRows  uint   `mapstructure:"skip_tail_rows" yaml:"skip_tail_rows"`
	Separator     string `mapstructure:"separator" yaml:"separator"`
}

type FieldConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Type     string `mapstructure:"type" yaml:"type"`
	Nullable bool   `mapstructure:"nullable" yaml:"nullable"`
}

func Load() error {
	return LoadFile(viper.GetString("config"))
}

func LoadFile(file string) error {
	if file == "" {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(file))
	switch ext {
	case ".yaml", ".yml", ".env":
	default:
		return fmt.Errorf("%s: %w", file, errConfigExtension)
	}

	viper.SetConfigFile(file)
	viper.SetConfigType(ext[1:])
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Parse builds the configuration from the loaded YAML file, then applies
// TABLOAD_* variables from the environment or a .env file.
func Parse() (*Config, error) {
	cfg := &Config{}

	switch strings.ToLower(filepath.Ext(viper.GetViper().ConfigFileUsed())) {
	case ".yml", ".yaml":
		if err := viper.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("parsing yaml config: %w", err)
		}
	}

	applyEnv(cfg)

	return cfg, nil
}

// ValidateDestination reports whether the destination can be connected to.
// BigQuery needs no URL.
func (c *Config) ValidateDestination() error {
	if c.Destination.URL == "" && c.Destination.Driver != "bigquery" {
		return errNoDestinationURL
	}
	return nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := envString(key); v != "" {
			*dst = v
		}
	}

	set(&cfg.LogLevel, "LOG_LEVEL")
	set(&cfg.RejectionsFile, "REJECTIONS_FILE")
	set(&cfg.Destination.Driver, "DESTINATION_DRIVER")
	set(&cfg.Destination.URL, "DESTINATION_URL")
	set(&cfg.Destination.Project, "DESTINATION_PROJECT")
	set(&cfg.Destination.Dataset, "DESTINATION_DATASET")
	set(&cfg.Sheets.CredentialsFile, "SHEETS_CREDENTIALS_FILE")

	if token := envString("SLACK_TOKEN"); token != "" {
		if cfg.Slack == nil {
			cfg.Slack = &SlackConfig{}
		}
		cfg.Slack.Token = token
		set(&cfg.Slack.Channel, "SLACK_CHANNEL")
	}

	if v := envString("PRETTY_LOGGING"); v == "true" || v == "1" {
		cfg.PrettyLogging = true
	}
}

func envString(key string) string {
	if v := viper.GetString(envPrefix + key); v != "" {
		return v
	}
	return os.Getenv(envPrefix + key)
}

// SelectJobs returns the jobs with the given names, or every job when no
// name is given.
func (c *Config) SelectJobs(names []string) ([]JobConfig, error) {
	if len(c.Jobs) == 0 {
		return nil, errNoJobs
	}
	if len(names) == 0 {
		return c.Jobs, nil
	}

	jobs := make([]JobConfig, 0, len(names))
	for _, n := range names {
		found := false
		for _, j := range c.Jobs {
			if strings.EqualFold(j.Name, n) {
				jobs = append(jobs, j)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", errUnknownJob, n)
		}
	}
	return jobs, nil
}
