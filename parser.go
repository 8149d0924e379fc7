package tabload

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/xerrors"
)

// Parser parses a source stream into raw records.
//
// Tabular parsers treat the first row as the header. Short rows are padded
// with null cells and rows made only of empty cells are dropped.
type Parser func(context.Context, io.Reader) ([]RawRecord, error)

// CSVParser provides a parser to parse CSV files.
func CSVParser() Parser {
	return func(_ context.Context, r io.Reader) ([]RawRecord, error) {
		return parseCSV(r)
	}
}

// PartialCSVParser provides a parser to parse CSV files surrounded by
// non-CSV lines. It drops skipHeadRows lines at the beginning and
// skipTailRows lines at the end, with lines separated by sep.
func PartialCSVParser(skipHeadRows, skipTailRows uint, sep string) Parser {
	return func(_ context.Context, r io.Reader) ([]RawRecord, error) {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, xerrors.Errorf("failed to read: %w", err)
		}

		lines := strings.Split(strings.TrimSuffix(string(body), sep), sep)
		if uint(len(lines)) <= skipHeadRows+skipTailRows {
			return []RawRecord{}, nil
		}
		lines = lines[skipHeadRows : uint(len(lines))-skipTailRows]

		return parseCSV(strings.NewReader(strings.Join(lines, sep)))
	}
}

func parseCSV(r io.Reader) ([]RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, xerrors.Errorf("failed to read as CSV: %w", err)
	}
	if len(rows) == 0 {
		return []RawRecord{}, nil
	}

	header := rows[0]
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	records := make([]RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		if isBlankRow(cells) {
			continue
		}
		records = append(records, newRawRecord(header, cells))
	}

	return records, nil
}

// JSONParser provides a parser for a JSON array of objects located at path,
// using gjson path syntax. An empty path means the document root.
func JSONParser(path string) Parser {
	return func(_ context.Context, r io.Reader) ([]RawRecord, error) {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, xerrors.Errorf("failed to read: %w", err)
		}
		if !gjson.ValidBytes(body) {
			return nil, xerrors.New("invalid JSON")
		}

		res := gjson.ParseBytes(body)
		if path != "" {
			res = res.Get(path)
		}
		if !res.IsArray() {
			return nil, xerrors.Errorf("%q is not an array", path)
		}

		records := []RawRecord{}
		var perr error
		res.ForEach(func(i, el gjson.Result) bool {
			if !el.IsObject() {
				perr = xerrors.Errorf("element %d is not an object", i.Int())
				return false
			}
			rec := RawRecord{}
			el.ForEach(func(k, v gjson.Result) bool {
				rec[k.String()] = jsonValue(v)
				return true
			})
			records = append(records, rec)
			return true
		})
		if perr != nil {
			return nil, perr
		}

		return records, nil
	}
}

// ValuesParser provides a parser for a Google Sheets ValueRange JSON
// document, as produced by SheetsExtractor.
func ValuesParser() Parser {
	return func(_ context.Context, r io.Reader) ([]RawRecord, error) {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, xerrors.Errorf("failed to read: %w", err)
		}
		if !gjson.ValidBytes(body) {
			return nil, xerrors.New("invalid JSON")
		}

		rows := gjson.GetBytes(body, "values").Array()
		if len(rows) == 0 {
			return []RawRecord{}, nil
		}

		var header []string
		for _, h := range rows[0].Array() {
			header = append(header, h.String())
		}

		records := make([]RawRecord, 0, len(rows)-1)
		for _, row := range rows[1:] {
			var cells []any
			for _, c := range row.Array() {
				cells = append(cells, jsonValue(c))
			}
			if isBlankRow(cells) {
				continue
			}
			records = append(records, newRawRecord(header, cells))
		}

		return records, nil
	}
}

func jsonValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		if i, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return i
		}
		return v.Float()
	case gjson.String:
		return v.String()
	default:
		return v.Value()
	}
}

// newRawRecord maps cells onto header names. Header columns past the end of
// cells get a null value.
func newRawRecord(header []string, cells []any) RawRecord {
	r := make(RawRecord, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if i < len(cells) {
			r[h] = cells[i]
		} else {
			r[h] = nil
		}
	}
	return r
}

func isBlankRow(cells []any) bool {
	for _, c := range cells {
		if !isNull(c) {
			return false
		}
	}
	return true
}
