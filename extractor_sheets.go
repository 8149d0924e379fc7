package tabload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"go.nownabe.dev/tabload/internal/backoff"
)

// SheetsExtractor reads a range of a Google Sheets spreadsheet and returns
// it as ValueRange JSON for ValuesParser.
//
// Cells are read unformatted so numbers keep their numeric type. The
// spreadsheet is SpreadsheetID, or the event bucket when empty. The range is
// Range, or the event name when empty.
type SheetsExtractor struct {
	SpreadsheetID string
	Range         string

	service *sheets.Service
	backoff backoff.Provider
}

// NewSheetsExtractor builds a SheetsExtractor. Without options, application
// default credentials are used.
func NewSheetsExtractor(ctx context.Context, spreadsheetID, rng string, opts ...option.ClientOption) (*SheetsExtractor, error) {
	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, xerrors.Errorf("failed to build sheets service: %w", err)
	}

	return &SheetsExtractor{
		SpreadsheetID: spreadsheetID,
		Range:         rng,
		service:       srv,
		backoff:       backoff.NewProvider(&backoff.DefaultConfig),
	}, nil
}

func (e *SheetsExtractor) Extract(ctx context.Context, ev Event) (io.Reader, func(), error) {
	l := log.Ctx(ctx)

	id, rng := e.SpreadsheetID, e.Range
	if id == "" {
		id = ev.Bucket
	}
	if rng == "" {
		rng = ev.Name
	}
	if id == "" || rng == "" {
		return nil, nil, xerrors.New("spreadsheet id and range are required")
	}

	var vr *sheets.ValueRange
	get := func() error {
		var err error
		vr, err = e.service.Spreadsheets.Values.Get(id, rng).
			ValueRenderOption("UNFORMATTED_VALUE").
			DateTimeRenderOption("FORMATTED_STRING").
			Context(ctx).
			Do()
		if err != nil && !isTransientAPIError(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		l.Warn().Err(err).Dur("backoff", wait).Str("range", rng).Msg("retrying sheets request")
	}
	if err := e.backoff(ctx).RetryNotify(get, notify); err != nil {
		l.Error().Err(err).Str("spreadsheet", id).Str("range", rng).Msg("failed to read values")
		return nil, nil, xerrors.Errorf("failed to read %s of %s: %w", rng, id, err)
	}
	l.Debug().Str("spreadsheet", id).Str("range", vr.Range).Int("rows", len(vr.Values)).Msg("values read")

	body, err := json.Marshal(vr)
	if err != nil {
		return nil, nil, xerrors.Errorf("failed to marshal values: %w", err)
	}

	return bytes.NewReader(body), func() {}, nil
}

func isTransientAPIError(err error) bool {
	var gerr *googleapi.Error
	if !xerrors.As(err, &gerr) {
		return true
	}
	return gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError
}
