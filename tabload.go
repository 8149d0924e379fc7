package tabload

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/functions/metadata"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// TabLoader dispatches source events to the handlers whose pattern matches.
type TabLoader interface {
	AddHandler(context.Context, *Handler) error
	Handle(context.Context, Event) error
	MustAddHandler(context.Context, *Handler)
}

// New builds a new TabLoader.
func New(opts ...Option) (TabLoader, error) {
	l := &tabloader{
		handlers:  []*Handler{},
		logLevel:  zerolog.InfoLevel,
		logOutput: os.Stderr,
	}

	for _, o := range opts {
		if err := o.apply(l); err != nil {
			return nil, xerrors.Errorf("failed to apply option: %w", err)
		}
	}

	var w io.Writer = l.logOutput
	if l.prettyLogging {
		w = zerolog.ConsoleWriter{Out: l.logOutput, TimeFormat: time.RFC3339}
	}
	l.logger = zerolog.New(w).Level(l.logLevel).With().Timestamp().Logger()

	return l, nil
}

type tabloader struct {
	handlers []*Handler
	mu       sync.RWMutex

	logger        zerolog.Logger
	logLevel      zerolog.Level
	logOutput     io.Writer
	prettyLogging bool
	rejectionLog  *zerolog.Logger
}

func (l *tabloader) AddHandler(ctx context.Context, h *Handler) error {
	switch {
	case h.Parser == nil:
		return xerrors.Errorf("handler %q has no parser", h.Name)
	case h.Schema == nil:
		return xerrors.Errorf("handler %q has no schema", h.Name)
	case h.Loader == nil:
		return xerrors.Errorf("handler %q has no loader", h.Name)
	case h.Destination == nil:
		return xerrors.Errorf("handler %q has no destination", h.Name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if h.Extractor == nil {
		ex, err := NewStorageExtractor(ctx)
		if err != nil {
			return xerrors.Errorf("failed to build default extractor for %q: %w", h.Name, err)
		}
		h.Extractor = ex
	}

	l.handlers = append(l.handlers, h)
	l.logger.Debug().Str("handler", h.Name).Msg("handler added")

	return nil
}

func (l *tabloader) MustAddHandler(ctx context.Context, h *Handler) {
	if err := l.AddHandler(ctx, h); err != nil {
		panic(err)
	}
}

// Handle runs every matching handler in registration order and stops at the
// first error.
func (l *tabloader) Handle(ctx context.Context, e Event) error {
	lc := l.logger.With().Str("object", e.FullPath())
	if m, err := metadata.FromContext(ctx); err == nil && m != nil {
		lc = lc.Str("event_id", m.EventID)
	}
	logger := lc.Logger()

	ctx = logger.WithContext(ctx)
	ctx = withRejectionLog(ctx, l.rejectionLog)
	ctx = withStartedTime(ctx)

	logger.Info().Msg("tabload started")
	defer logger.Info().Msg("tabload finished")

	l.mu.RLock()
	handlers := make([]*Handler, len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.RUnlock()

	matched := 0
	for _, h := range handlers {
		if !h.match(e.Name) {
			continue
		}
		matched++
		if err := h.Handle(ctx, e); err != nil {
			return xerrors.Errorf("handler %q failed: %w", h.Name, err)
		}
	}
	if matched == 0 {
		logger.Warn().Msg("no handler matched")
	}

	return nil
}
