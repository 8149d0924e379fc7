package tabload

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
	"golang.org/x/xerrors"
)

// Handler defines how to handle events which match specified pattern.
type Handler struct {
	// Name is the handler's name used in logs and notifications.
	Name string

	Pattern  *regexp.Regexp
	Encoding encoding.Encoding
	Parser   Parser

	// Preprocessor runs once per event before projection. The returned
	// context is passed to Projector.
	Preprocessor Preprocessor

	// Projector reshapes each parsed record before validation.
	Projector Projector

	Schema      *Schema
	Destination *Destination
	Notifier    Notifier

	Extractor Extractor
	Loader    Loader
}

// Preprocessor prepares the context of an event, e.g. with values taken from
// the object name.
type Preprocessor func(context.Context, Event) (context.Context, error)

// Projector transforms a source record. Returning a nil record skips it.
type Projector func(context.Context, RawRecord) (RawRecord, error)

func (h *Handler) match(name string) bool {
	return h.Pattern != nil && h.Pattern.MatchString(name)
}

type validation struct {
	read       int
	validated  []ValidatedRecord
	rejections []Rejection
}

// Validate extracts, parses and projects the event source and validates it
// against the handler schema without loading anything.
func (h *Handler) Validate(ctx context.Context, e Event) ([]ValidatedRecord, []Rejection, error) {
	v, err := h.validate(ctx, e)
	if err != nil {
		return nil, nil, err
	}
	return v.validated, v.rejections, nil
}

func (h *Handler) validate(ctx context.Context, e Event) (*validation, error) {
	l := log.Ctx(ctx)

	switch {
	case h.Extractor == nil:
		return nil, xerrors.New("no extractor")
	case h.Parser == nil:
		return nil, xerrors.New("no parser")
	case h.Schema == nil:
		return nil, xerrors.New("no schema")
	}
	r, closer, err := h.Extractor.Extract(ctx, e)
	if err != nil {
		return nil, xerrors.Errorf("failed to extract: %w", err)
	}
	defer closer()

	if h.Encoding != nil {
		r = transform.NewReader(r, h.Encoding.NewDecoder())
	}

	source, err := h.Parser(ctx, r)
	if err != nil {
		l.Error().Err(err).Msg("failed to parse object")
		return nil, xerrors.Errorf("failed to parse: %w", err)
	}
	l.Debug().Int("records", len(source)).Msg("parsed")

	if h.Preprocessor != nil {
		ctx, err = h.Preprocessor(ctx, e)
		if err != nil {
			l.Error().Err(err).Msg("failed to preprocess")
			return nil, xerrors.Errorf("failed to preprocess: %w", err)
		}
	}

	records := source
	if h.Projector != nil {
		records = make([]RawRecord, 0, len(source))
		for i, r := range source {
			p, err := h.Projector(ctx, r)
			if err != nil {
				l.Error().Err(err).Int("row", i).Msg("failed to project row")
				return nil, xerrors.Errorf("failed to project row %d: %w", i, err)
			}
			if p == nil {
				continue
			}
			records = append(records, p)
		}
	}

	validated, rejections := Validate(records, h.Schema)

	return &validation{read: len(records), validated: validated, rejections: rejections}, nil
}

// Handle runs the whole pipeline for e: it validates the source, reports
// rejections, loads the valid records and notifies the result.
func (h *Handler) Handle(ctx context.Context, e Event) error {
	started, ok := startedTimeFrom(ctx)
	if !ok {
		ctx = withStartedTime(ctx)
		started, _ = startedTimeFrom(ctx)
	}

	runID := uuid.NewString()
	logger := log.Ctx(ctx).With().Str("handler", h.Name).Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Str("object", e.FullPath()).Msg("handler started")

	result := &Result{RunID: runID, Event: e, Handler: h}

	v, err := h.validate(ctx, e)
	if err == nil {
		result.Read = v.read
		result.Rejections = v.rejections
		h.reportRejections(ctx, e, runID, v.rejections)

		err = h.load(ctx, result, v.validated)
	}
	result.Error = err
	result.Duration = time.Since(started)

	ev := logger.Info()
	if err != nil {
		ev = logger.Error().Err(err)
	}
	ev.Int("read", result.Read).
		Int64("loaded", result.Loaded).
		Int("rejected", len(result.Rejections)).
		Dur("duration", result.Duration).
		Msg("handler finished")

	if h.Notifier != nil {
		if nerr := h.Notifier.Notify(ctx, result); nerr != nil {
			logger.Error().Err(nerr).Msg("failed to notify")
			if err == nil {
				err = xerrors.Errorf("failed to notify: %w", nerr)
			}
		}
	}

	return err
}

func (h *Handler) load(ctx context.Context, result *Result, records []ValidatedRecord) error {
	if h.Loader == nil {
		return xerrors.New("no loader")
	}

	n, err := h.Loader.Load(ctx, h.Destination, h.Schema, records)
	if err != nil {
		return xerrors.Errorf("failed to load: %w", err)
	}
	result.Loaded = n

	return nil
}

func (h *Handler) reportRejections(ctx context.Context, e Event, runID string, rejections []Rejection) {
	l := log.Ctx(ctx)
	rl := rejectionLogFrom(ctx)

	for _, r := range rejections {
		l.Warn().Int("row", r.Row).Str("field", r.Field).Str("reason", r.Reason).Msg("record rejected")

		if rl != nil {
			rejectionEvent(rl, r).
				Str("handler", h.Name).
				Str("run_id", runID).
				Str("object", e.FullPath()).
				Send()
		}
	}
}

func rejectionEvent(l *zerolog.Logger, r Rejection) *zerolog.Event {
	ev := l.Log().Int("row", r.Row).Str("kind", string(r.Kind)).Str("field", r.Field).Str("reason", r.Reason)
	if fe, ok := r.Err.(*FieldError); ok && fe.Err != nil {
		ev = ev.Str("detail", fe.Err.Error())
	}
	return ev
}
