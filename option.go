package tabload

import (
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// Option configures TabLoader.
type Option interface {
	apply(*tabloader) error
}

type optionFunc func(*tabloader) error

func (f optionFunc) apply(l *tabloader) error {
	return f(l)
}

// WithLogLevel sets the log level, e.g. "debug" or "warn". Default is info.
func WithLogLevel(level string) Option {
	return optionFunc(func(l *tabloader) error {
		lv, err := zerolog.ParseLevel(level)
		if err != nil {
			return xerrors.Errorf("invalid log level %q: %w", level, err)
		}
		l.logLevel = lv
		return nil
	})
}

// WithPrettyLogging configures TabLoader to print human friendly logs.
func WithPrettyLogging() Option {
	return optionFunc(func(l *tabloader) error {
		l.prettyLogging = true
		return nil
	})
}

// WithLogOutput sets where logs are written. Default is stderr.
func WithLogOutput(w io.Writer) Option {
	return optionFunc(func(l *tabloader) error {
		l.logOutput = w
		return nil
	})
}

// WithRejectionLog writes every rejected record to w as a JSON line.
func WithRejectionLog(w io.Writer) Option {
	return optionFunc(func(l *tabloader) error {
		rl := zerolog.New(w).With().Timestamp().Logger()
		l.rejectionLog = &rl
		return nil
	})
}
