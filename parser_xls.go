package tabload

import (
	"context"
	"errors"
	"io"

	"github.com/extrame/xls"
	"gitlab.com/osaki-lab/iowrapper"
	"golang.org/x/xerrors"
)

var errXLSNoSheet = errors.New("no sheet found")

// XLSParser provides a parser for legacy Excel (.xls) workbooks. It reads the
// sheet at index sheet and treats its first non-empty row as the header.
func XLSParser(sheet int) Parser {
	// xls panics on rows it cannot decode.
	getRow := func(s *xls.WorkSheet, i int) (r *xls.Row, ok bool) {
		defer func() { recover() }()

		return s.Row(i), true
	}

	return func(_ context.Context, r io.Reader) ([]RawRecord, error) {
		wb, err := xls.OpenReader(iowrapper.NewSeeker(r), "utf-8")
		if err != nil {
			return nil, xerrors.Errorf("failed to open xls file: %w", err)
		}

		s := wb.GetSheet(sheet)
		if s == nil {
			return nil, xerrors.Errorf("sheet %d: %w", sheet, errXLSNoSheet)
		}

		var header []string
		records := []RawRecord{}

		for i := 0; i <= int(s.MaxRow); i++ {
			row, ok := getRow(s, i)
			if !ok || row == nil {
				continue
			}

			cells := make([]any, 0, row.LastCol())
			for col := 0; col < row.LastCol(); col++ {
				cells = append(cells, row.Col(col))
			}
			if isBlankRow(cells) {
				continue
			}

			if header == nil {
				header = make([]string, len(cells))
				for j, c := range cells {
					header[j] = c.(string)
				}
				continue
			}

			records = append(records, newRawRecord(header, cells))
		}

		return records, nil
	}
}
